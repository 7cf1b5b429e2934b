// Package indy binds the provider interfaces to libindy through
// findy-wrapper-go. Every call converts the wrapper's channel result into a
// plain return value.
package indy

import (
	"github.com/ayanworks/arnima-agent-go/agent/ssi"
	"github.com/findy-network/findy-wrapper-go"
	"github.com/findy-network/findy-wrapper-go/crypto"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Crypto implements ssi.Crypto.
type Crypto struct{}

func (Crypto) Pack(wallet int, senderVK string, msg []byte, recipientKeys ...string) (data []byte, err error) {
	defer err2.Handle(&err, "indy pack")

	if senderVK == "" {
		senderVK = findy.NullString
	}
	if glog.V(5) {
		glog.Infof("==> pack: w(%d) -> %v", wallet, recipientKeys)
	}

	r := <-crypto.Pack(wallet, senderVK, msg, recipientKeys...)
	try.To(providerErr(r.Err()))
	return r.Bytes(), nil
}

func (Crypto) Unpack(wallet int, data []byte) (u *ssi.Unpacked, err error) {
	defer err2.Handle(&err, "indy unpack")

	r := <-crypto.UnpackMessage(wallet, data)
	try.To(providerErr(r.Err()))

	unpacked := crypto.NewUnpacked(r.Bytes())
	return &ssi.Unpacked{
		Message:         []byte(unpacked.Message),
		SenderVerKey:    unpacked.SenderVerkey,
		RecipientVerKey: unpacked.RecipientVerkey,
	}, nil
}

func (Crypto) SignMsg(wallet int, verKey string, msg []byte) (signature []byte, err error) {
	defer err2.Handle(&err, "indy sign")

	r := <-crypto.SignMsg(wallet, verKey, msg)
	try.To(providerErr(r.Err()))
	return r.Bytes(), nil
}

func (Crypto) VerifySignature(verKey string, msg, signature []byte) (ok bool, err error) {
	defer err2.Handle(&err, "indy verify")

	r := <-crypto.VerifySignature(verKey, msg, signature)
	try.To(providerErr(r.Err()))
	return r.Yes(), nil
}
