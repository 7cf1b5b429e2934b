package presentproof

import "encoding/json"

// ProofRequest mirrors the libindy proof request document. The agent builds
// these as verifier and reads them as holder; the proof system itself treats
// them as opaque.
type ProofRequest struct {
	Name                string                   `json:"name"`
	Version             string                   `json:"version"`
	Nonce               string                   `json:"nonce"`
	RequestedAttributes map[string]AttrInfo      `json:"requested_attributes"`
	RequestedPredicates map[string]PredicateInfo `json:"requested_predicates"`
	NonRevoked          *NonRevoked              `json:"non_revoked,omitempty"`
}

type AttrInfo struct {
	Name         string        `json:"name,omitempty"`
	Names        []string      `json:"names,omitempty"`
	Restrictions []Restriction `json:"restrictions,omitempty"`
	NonRevoked   *NonRevoked   `json:"non_revoked,omitempty"`
}

type PredicateInfo struct {
	Name         string        `json:"name"`
	PType        string        `json:"p_type"`
	PValue       int64         `json:"p_value"`
	Restrictions []Restriction `json:"restrictions,omitempty"`
	NonRevoked   *NonRevoked   `json:"non_revoked,omitempty"`
}

type Restriction struct {
	SchemaID  string `json:"schema_id,omitempty"`
	CredDefID string `json:"cred_def_id,omitempty"`
	IssuerDID string `json:"issuer_did,omitempty"`
}

type NonRevoked struct {
	From int64 `json:"from,omitempty"`
	To   int64 `json:"to,omitempty"`
}

// attrNames lists the attribute names one referent asks for, regardless of
// the name/names form used.
func (a AttrInfo) attrNames() []string {
	if a.Name != "" {
		return []string{a.Name}
	}
	return a.Names
}

// Credential is one wallet search hit for a proof request referent.
type Credential struct {
	CredInfo CredInfo    `json:"cred_info"`
	Interval *NonRevoked `json:"interval,omitempty"`
}

type CredInfo struct {
	Referent  string            `json:"referent"`
	Attrs     map[string]string `json:"attrs"`
	SchemaID  string            `json:"schema_id"`
	CredDefID string            `json:"cred_def_id"`
	RevRegID  string            `json:"rev_reg_id,omitempty"`
	CredRevID string            `json:"cred_rev_id,omitempty"`
}

type requestedAttr struct {
	CredID    string `json:"cred_id"`
	Revealed  bool   `json:"revealed"`
	Timestamp *int64 `json:"timestamp,omitempty"`
}

type requestedPred struct {
	CredID    string `json:"cred_id"`
	Timestamp *int64 `json:"timestamp,omitempty"`
}

// requestedCredentials is the credential selection handed to proof creation.
type requestedCredentials struct {
	SelfAttested        map[string]string        `json:"self_attested_attributes"`
	RequestedAttributes map[string]requestedAttr `json:"requested_attributes"`
	RequestedPredicates map[string]requestedPred `json:"requested_predicates"`
}

func newRequestedCredentials() *requestedCredentials {
	return &requestedCredentials{
		SelfAttested:        make(map[string]string),
		RequestedAttributes: make(map[string]requestedAttr),
		RequestedPredicates: make(map[string]requestedPred),
	}
}

// jsonByID renders an aggregate like {"<id>": <parsed doc>} the proof system
// expects for schemas, credential definitions and registries.
func jsonByID(docs map[string]json.RawMessage) (string, error) {
	data, err := json.Marshal(docs)
	return string(data), err
}
