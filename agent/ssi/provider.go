// Package ssi defines the wallet/crypto provider interfaces the protocol
// layer consumes, and the Agent context that bundles them with the opened
// wallet. The cryptography itself lives behind these interfaces; see the
// indy package for the production binding.
package ssi

import "errors"

// ErrProvider wraps failures of the external wallet/ledger provider.
var ErrProvider = errors.New("provider unavailable")

// Unpacked is the result of an authenticated decryption.
type Unpacked struct {
	Message         []byte
	SenderVerKey    string
	RecipientVerKey string
}

// Crypto covers pack/unpack and detached signatures.
type Crypto interface {
	// Pack encrypts msg to recipientKeys. Empty senderVK means anon-crypt.
	Pack(wallet int, senderVK string, msg []byte, recipientKeys ...string) ([]byte, error)
	Unpack(wallet int, data []byte) (*Unpacked, error)
	SignMsg(wallet int, verKey string, msg []byte) ([]byte, error)
	VerifySignature(verKey string, msg, signature []byte) (bool, error)
}

// WalletCfg identifies a wallet. The key is a RAW derivation wallet key.
type WalletCfg struct {
	Name string
	Key  string
}

// Wallet covers wallet lifecycle and DID creation.
type Wallet interface {
	Create(cfg WalletCfg) error
	Open(cfg WalletCfg) (handle int, err error)
	Close(handle int) error
	Export(handle int, path, key string) error
	Import(cfg WalletCfg, path, key string) error

	CreateDID(handle int, seed string) (did, verKey string, err error)
	CreateMasterSecret(handle int, id string) (string, error)
}

// Anoncreds covers the holder and verifier side zero-knowledge operations.
type Anoncreds interface {
	CreateCredentialReq(wallet int, proverDID, credOffer, credDef, masterSecretID string) (req, meta string, err error)
	StoreCredential(wallet int, credReqMeta, cred, credDef, revRegDef string) (credID string, err error)

	SearchCredentialsForProofReq(wallet int, proofReq string) (search int, err error)
	FetchCredentialsForProofReq(search int, referent string, count int) (credInfos string, err error)
	CloseCredentialsSearch(search int) error
	CreateProof(wallet int, proofReq, requestedCreds, masterSecretID, schemas, credDefs, revStates string) (proof string, err error)
	VerifyProof(proofReq, proof, schemas, credDefs, revRegDefs, revRegs string) (bool, error)

	CreateRevocationState(revRegDef, revRegDelta string, timestamp int64, credRevID string) (string, error)
}

// Ledger covers the read operations the holder needs.
type Ledger interface {
	ReadSchema(pool int, submitterDID, id string) (string, error)
	ReadCredDef(pool int, submitterDID, id string) (string, error)
	ReadRevRegDef(pool int, submitterDID, id string) (string, error)
	ReadRevRegDelta(pool int, submitterDID, id string, from, to int64) (delta string, timestamp int64, err error)
	ReadRevReg(pool int, submitterDID, id string, ts int64) (reg string, timestamp int64, err error)
}

// Pool covers ledger pool configuration.
type Pool interface {
	CreateConfig(name, genesisPath string) error
	Open(name string) (handle int, err error)
	Close(handle int) error
}
