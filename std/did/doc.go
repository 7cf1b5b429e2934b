// Package did implements the DID document shape exchanged inside connection
// protocol messages.
package did

const (
	Context = "https://w3id.org/did/v1"

	KeyType        = "Ed25519VerificationKey2018"
	SignatureType  = "Ed25519SignatureAuthentication2018"
	ServiceType    = "IndyAgent"
	serviceIDSuffix = ";indy"
)

type PublicKey struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Controller      string `json:"controller"`
	PublicKeyBase58 string `json:"publicKeyBase58"`
}

type Authentication struct {
	Type      string `json:"type"`
	PublicKey string `json:"publicKey"`
}

type Service struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	Priority        int      `json:"priority"`
	RecipientKeys   []string `json:"recipientKeys,omitempty"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
	ServiceEndpoint string   `json:"serviceEndpoint"`
}

type Doc struct {
	Context        string           `json:"@context"`
	ID             string           `json:"id"`
	PublicKey      []PublicKey      `json:"publicKey"`
	Authentication []Authentication `json:"authentication"`
	Service        []Service        `json:"service"`
}

// NewDoc builds a one-key document for a pairwise DID. The endpoint and
// routing keys come from the agent's current routing configuration.
func NewDoc(did, verKey, endpoint string, routingKeys []string) *Doc {
	keyID := did + "#1"
	return &Doc{
		Context: Context,
		ID:      did,
		PublicKey: []PublicKey{{
			ID:              keyID,
			Type:            KeyType,
			Controller:      did,
			PublicKeyBase58: verKey,
		}},
		Authentication: []Authentication{{
			Type:      SignatureType,
			PublicKey: keyID,
		}},
		Service: []Service{{
			ID:              did + serviceIDSuffix,
			Type:            ServiceType,
			Priority:        0,
			RecipientKeys:   []string{verKey},
			RoutingKeys:     routingKeys,
			ServiceEndpoint: endpoint,
		}},
	}
}

// RecipientKeys returns the keys of the document's first service, falling
// back to the listed public keys when no service is present.
func (d *Doc) RecipientKeys() []string {
	if len(d.Service) > 0 && len(d.Service[0].RecipientKeys) > 0 {
		return d.Service[0].RecipientKeys
	}
	keys := make([]string, 0, len(d.PublicKey))
	for _, pk := range d.PublicKey {
		keys = append(keys, pk.PublicKeyBase58)
	}
	return keys
}

func (d *Doc) RoutingKeys() []string {
	if len(d.Service) > 0 {
		return d.Service[0].RoutingKeys
	}
	return nil
}

func (d *Doc) Endpoint() string {
	if len(d.Service) > 0 {
		return d.Service[0].ServiceEndpoint
	}
	return ""
}
