package indy

import (
	"errors"

	"github.com/findy-network/findy-wrapper-go"
	"github.com/findy-network/findy-wrapper-go/anoncreds"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ErrRevocationNotSupported marks revocation operations the libindy wrapper
// does not expose. Revocable flows need a provider with revocation support.
var ErrRevocationNotSupported = errors.New("revocation not supported by indy provider")

// Anoncreds implements ssi.Anoncreds.
type Anoncreds struct{}

func (Anoncreds) CreateCredentialReq(wallet int, proverDID, credOffer, credDef, masterSecretID string) (req, meta string, err error) {
	defer err2.Handle(&err, "create cred request")

	r := <-anoncreds.ProverCreateCredentialReq(wallet, proverDID, credOffer,
		credDef, masterSecretID)
	try.To(providerErr(r.Err()))
	return r.Str1(), r.Str2(), nil
}

func (Anoncreds) StoreCredential(wallet int, credReqMeta, cred, credDef, revRegDef string) (credID string, err error) {
	defer err2.Handle(&err, "store credential")

	if revRegDef == "" {
		revRegDef = findy.NullString
	}
	r := <-anoncreds.ProverStoreCredential(wallet, findy.NullString,
		credReqMeta, cred, credDef, revRegDef)
	try.To(providerErr(r.Err()))
	return r.Str1(), nil
}

func (Anoncreds) SearchCredentialsForProofReq(wallet int, proofReq string) (search int, err error) {
	defer err2.Handle(&err, "search credentials")

	r := <-anoncreds.ProverSearchCredentialsForProofReq(wallet, proofReq,
		findy.NullString)
	try.To(providerErr(r.Err()))
	return r.Handle(), nil
}

func (Anoncreds) FetchCredentialsForProofReq(search int, referent string, count int) (credInfos string, err error) {
	defer err2.Handle(&err, "fetch credentials")

	r := <-anoncreds.ProverFetchCredentialsForProofReq(search, referent, count)
	try.To(providerErr(r.Err()))
	return r.Str1(), nil
}

func (Anoncreds) CloseCredentialsSearch(search int) (err error) {
	defer err2.Handle(&err, "close credential search")

	r := <-anoncreds.ProverCloseCredentialsSearchForProofReq(search)
	try.To(providerErr(r.Err()))
	return nil
}

func (Anoncreds) CreateProof(wallet int, proofReq, requestedCreds, masterSecretID, schemas, credDefs, revStates string) (proof string, err error) {
	defer err2.Handle(&err, "create proof")

	r := <-anoncreds.ProverCreateProof(wallet, proofReq, requestedCreds,
		masterSecretID, schemas, credDefs, revStates)
	try.To(providerErr(r.Err()))
	return r.Str1(), nil
}

func (Anoncreds) VerifyProof(proofReq, proof, schemas, credDefs, revRegDefs, revRegs string) (ok bool, err error) {
	defer err2.Handle(&err, "verify proof")

	r := <-anoncreds.VerifierVerifyProof(proofReq, proof, schemas, credDefs,
		revRegDefs, revRegs)
	try.To(providerErr(r.Err()))
	return r.Yes(), nil
}

func (Anoncreds) CreateRevocationState(string, string, int64, string) (string, error) {
	return "", ErrRevocationNotSupported
}
