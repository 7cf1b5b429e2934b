package psm

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ayanworks/arnima-agent-go/std/did"
	"github.com/ayanworks/arnima-agent-go/std/didexchange"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ConnectionRec is the pairwise relationship record. TheirDID and
// TheirDIDDoc stay empty until the handshake reaches the response phase and
// never revert to empty after that.
type ConnectionRec struct {
	ID          string                   `json:"id"`
	DID         string                   `json:"did"`
	VerKey      string                   `json:"verkey"`
	DIDDoc      *did.Doc                 `json:"didDoc,omitempty"`
	TheirDID    string                   `json:"theirDid,omitempty"`
	TheirVerKey string                   `json:"theirVerkey,omitempty"`
	TheirDIDDoc *did.Doc                 `json:"theirDidDoc,omitempty"`
	TheirLabel  string                   `json:"theirLabel,omitempty"`
	Invitation  *didexchange.Invitation  `json:"invitation,omitempty"`
	Alias       string                   `json:"alias,omitempty"`
	Mediator    bool                     `json:"mediator,omitempty"`
	State       string                   `json:"state"`
	CreatedAt   time.Time                `json:"createdAt"`
	UpdatedAt   time.Time                `json:"updatedAt"`
}

func (r *ConnectionRec) tags() []storage.Tag {
	return []storage.Tag{
		{Name: TagVerKey, Value: r.VerKey},
		{Name: TagTheirKey, Value: r.TheirVerKey},
		{Name: TagState, Value: r.State},
	}
}

func (db *DB) AddConnection(r *ConnectionRec) error {
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	return db.put(StoreConnection, r.ID, r, r.tags()...)
}

func (db *DB) UpdateConnection(r *ConnectionRec) error {
	r.UpdatedAt = time.Now().UTC()
	return db.put(StoreConnection, r.ID, r, r.tags()...)
}

func (db *DB) GetConnection(id string) (r *ConnectionRec, err error) {
	r = &ConnectionRec{}
	found := try.To1(db.get(StoreConnection, id, r))
	if !found {
		return nil, fmt.Errorf("connection %s: %w", id, ErrConnectionNotFound)
	}
	return r, nil
}

// ConnectionByVerKey resolves the owning connection of an inbound message by
// our pairwise verification key.
func (db *DB) ConnectionByVerKey(verKey string) (r *ConnectionRec, err error) {
	r = &ConnectionRec{}
	found := try.To1(db.queryFirst(StoreConnection, TagVerKey, verKey, r))
	if !found {
		return nil, fmt.Errorf("verkey %s: %w", verKey, ErrConnectionNotFound)
	}
	return r, nil
}

func (db *DB) ConnectionByTheirKey(verKey string) (r *ConnectionRec, err error) {
	r = &ConnectionRec{}
	found := try.To1(db.queryFirst(StoreConnection, TagTheirKey, verKey, r))
	if !found {
		return nil, fmt.Errorf("their key %s: %w", verKey, ErrConnectionNotFound)
	}
	return r, nil
}

// CredentialRec is the credential exchange record, keyed by thread ID once a
// thread exists, by message ID before that.
type CredentialRec struct {
	ID              string          `json:"id"`
	ConnectionID    string          `json:"connectionId"`
	CredDefID       string          `json:"credDefId,omitempty"`
	SchemaID        string          `json:"schemaId,omitempty"`
	Offer           json.RawMessage `json:"offer,omitempty"`
	Request         string          `json:"request,omitempty"`
	RequestMetadata string          `json:"requestMetadata,omitempty"`
	Preview         json.RawMessage `json:"preview,omitempty"`
	CredentialID    string          `json:"credentialId,omitempty"`
	RevRegID        string          `json:"revRegId,omitempty"`
	State           string          `json:"state"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (r *CredentialRec) tags() []storage.Tag {
	return []storage.Tag{
		{Name: TagConnection, Value: r.ConnectionID},
		{Name: TagState, Value: r.State},
	}
}

func (db *DB) AddCredential(r *CredentialRec) error {
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	return db.put(StoreCredential, r.ID, r, r.tags()...)
}

func (db *DB) UpdateCredential(r *CredentialRec) error {
	r.UpdatedAt = time.Now().UTC()
	return db.put(StoreCredential, r.ID, r, r.tags()...)
}

func (db *DB) GetCredential(id string) (r *CredentialRec, err error) {
	r = &CredentialRec{}
	found := try.To1(db.get(StoreCredential, id, r))
	if !found {
		return nil, fmt.Errorf("credential %s: %w", id, ErrNotFound)
	}
	return r, nil
}

// PresentationRec is the presentation exchange record, same keying rule as
// CredentialRec.
type PresentationRec struct {
	ID           string          `json:"id"`
	ConnectionID string          `json:"connectionId"`
	ProofRequest json.RawMessage `json:"proofRequest,omitempty"`
	Proposal     json.RawMessage `json:"proposal,omitempty"`
	Presentation json.RawMessage `json:"presentation,omitempty"`
	Verified     bool            `json:"verified,omitempty"`
	State        string          `json:"state"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (r *PresentationRec) tags() []storage.Tag {
	return []storage.Tag{
		{Name: TagConnection, Value: r.ConnectionID},
		{Name: TagState, Value: r.State},
	}
}

func (db *DB) AddPresentation(r *PresentationRec) error {
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	return db.put(StorePresentation, r.ID, r, r.tags()...)
}

func (db *DB) UpdatePresentation(r *PresentationRec) error {
	r.UpdatedAt = time.Now().UTC()
	return db.put(StorePresentation, r.ID, r, r.tags()...)
}

func (db *DB) GetPresentation(id string) (r *PresentationRec, err error) {
	r = &PresentationRec{}
	found := try.To1(db.get(StorePresentation, id, r))
	if !found {
		return nil, fmt.Errorf("presentation %s: %w", id, ErrNotFound)
	}
	return r, nil
}

// TrustPingRec tracks one liveness check, SENT until the response arrives.
type TrustPingRec struct {
	ID           string    `json:"id"`
	ConnectionID string    `json:"connectionId"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (db *DB) AddTrustPing(r *TrustPingRec) error {
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	return db.put(StoreTrustPing, r.ID, r,
		storage.Tag{Name: TagConnection, Value: r.ConnectionID})
}

func (db *DB) UpdateTrustPing(r *TrustPingRec) error {
	r.UpdatedAt = time.Now().UTC()
	return db.put(StoreTrustPing, r.ID, r,
		storage.Tag{Name: TagConnection, Value: r.ConnectionID})
}

func (db *DB) GetTrustPing(id string) (r *TrustPingRec, err error) {
	r = &TrustPingRec{}
	found := try.To1(db.get(StoreTrustPing, id, r))
	if !found {
		return nil, fmt.Errorf("trust ping %s: %w", id, ErrNotFound)
	}
	return r, nil
}

// InboxRec is one received wire message. AutoProcessed=false marks entries
// kept for an explicit holder decision (offers, proof requests).
type InboxRec struct {
	ID            string    `json:"id"`
	Message       []byte    `json:"message"`
	AutoProcessed bool      `json:"autoProcessed"`
	IsProcessed   bool      `json:"isProcessed"`
	ThID          string    `json:"thId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (r *InboxRec) tags() []storage.Tag {
	return []storage.Tag{
		{Name: TagAutoProcessed, Value: fmt.Sprintf("%v", r.AutoProcessed)},
		{Name: TagIsProcessed, Value: fmt.Sprintf("%v", r.IsProcessed)},
		{Name: TagThread, Value: r.ThID},
	}
}

func (db *DB) AddInbox(r *InboxRec) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return db.put(StoreInbox, r.ID, r, r.tags()...)
}

func (db *DB) UpdateInbox(r *InboxRec) error {
	return db.put(StoreInbox, r.ID, r, r.tags()...)
}

func (db *DB) GetInbox(id string) (r *InboxRec, err error) {
	r = &InboxRec{}
	found := try.To1(db.get(StoreInbox, id, r))
	if !found {
		return nil, fmt.Errorf("inbox %s: %w", id, ErrNotFound)
	}
	return r, nil
}

func (db *DB) DeleteInbox(id string) error {
	return db.delete(StoreInbox, id)
}

// PendingInbox lists unprocessed entries in arrival order.
func (db *DB) PendingInbox() (recs []*InboxRec, err error) {
	defer err2.Handle(&err, "pending inbox")

	recs = try.To1(db.inboxByTag(TagIsProcessed, "false"))
	return recs, nil
}

// ActionInbox lists entries waiting for an explicit holder decision.
func (db *DB) ActionInbox() (recs []*InboxRec, err error) {
	defer err2.Handle(&err, "action inbox")

	recs = try.To1(db.inboxByTag(TagAutoProcessed, "false"))
	return recs, nil
}

func (db *DB) inboxByTag(tag, value string) (recs []*InboxRec, err error) {
	defer err2.Handle(&err)

	recs = make([]*InboxRec, 0)
	try.To(db.queryAll(StoreInbox, tag, value,
		func(_ string, data []byte) error {
			r := &InboxRec{}
			try.To(json.Unmarshal(data, r))
			recs = append(recs, r)
			return nil
		}))
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
	return recs, nil
}

const mediatorRecID = "default"

// MediatorRec is the registration of the currently selected mediator.
type MediatorRec struct {
	ConnectionID string    `json:"connectionId"`
	VerKey       string    `json:"verkey,omitempty"`
	Endpoint     string    `json:"endpoint,omitempty"`
	RoutingKeys  []string  `json:"routingKeys,omitempty"`
	Granted      bool      `json:"granted,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (db *DB) SaveMediator(r *MediatorRec) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.UpdatedAt = time.Now().UTC()
	return db.put(StoreMediator, mediatorRecID, r)
}

func (db *DB) GetMediator() (r *MediatorRec, err error) {
	r = &MediatorRec{}
	found := try.To1(db.get(StoreMediator, mediatorRecID, r))
	if !found {
		return nil, fmt.Errorf("mediator: %w", ErrNotFound)
	}
	return r, nil
}

// PoolRec is a named ledger pool configuration; at most one is selected.
type PoolRec struct {
	Name        string `json:"name"`
	GenesisPath string `json:"genesisPath,omitempty"`
	IsSelected  bool   `json:"isSelected"`
}

func (db *DB) SavePool(r *PoolRec) error {
	return db.put(StorePool, r.Name, r,
		storage.Tag{Name: TagSelected, Value: fmt.Sprintf("%v", r.IsSelected)})
}

func (db *DB) SelectedPool() (r *PoolRec, err error) {
	r = &PoolRec{}
	found := try.To1(db.queryFirst(StorePool, TagSelected, "true", r))
	if !found {
		return nil, fmt.Errorf("selected pool: %w", ErrNotFound)
	}
	return r, nil
}

// SelectPool marks one pool selected and clears the flag from the rest.
func (db *DB) SelectPool(name string) (err error) {
	defer err2.Handle(&err, "select pool")

	found := false
	pools := make([]*PoolRec, 0)
	try.To(db.queryAll(StorePool, TagSelected, "true",
		func(_ string, data []byte) error {
			r := &PoolRec{}
			try.To(json.Unmarshal(data, r))
			pools = append(pools, r)
			return nil
		}))
	for _, p := range pools {
		if p.Name == name {
			found = true
			continue
		}
		p.IsSelected = false
		try.To(db.SavePool(p))
	}
	if !found {
		r := &PoolRec{}
		if !try.To1(db.get(StorePool, name, r)) {
			return fmt.Errorf("pool %s: %w", name, ErrNotFound)
		}
		r.IsSelected = true
		try.To(db.SavePool(r))
	}
	return nil
}

const provisionRecID = "provision"

// ProvisionRec is the singleton wallet provisioning record.
type ProvisionRec struct {
	WalletName      string   `json:"walletName"`
	Label           string   `json:"label"`
	PublicDID       string   `json:"publicDid,omitempty"`
	VerKey          string   `json:"verkey,omitempty"`
	MasterSecretID  string   `json:"masterSecretId,omitempty"`
	ServiceEndpoint string   `json:"serviceEndpoint,omitempty"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
}

func (db *DB) SaveProvision(r *ProvisionRec) error {
	return db.put(StoreProvision, provisionRecID, r)
}

func (db *DB) GetProvision() (r *ProvisionRec, err error) {
	r = &ProvisionRec{}
	found := try.To1(db.get(StoreProvision, provisionRecID, r))
	if !found {
		return nil, fmt.Errorf("provision: %w", ErrNotFound)
	}
	return r, nil
}
