// Package sec wraps the wallet/crypto provider into a secure pipe: packing
// outbound envelopes with their routing wraps, and unpacking inbound ones.
package sec

import (
	"encoding/json"

	"github.com/ayanworks/arnima-agent-go/agent/ssi"
	"github.com/ayanworks/arnima-agent-go/std/routing"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Pipe is the encryption pipe of one wallet.
type Pipe struct {
	Crypto ssi.Crypto
	Wallet int
}

func NewPipe(a *ssi.Agent) Pipe {
	return Pipe{Crypto: a.Crypto, Wallet: a.WalletH}
}

// Pack auth-crypts msg for recipientKeys and then wraps the result into one
// forward envelope per routing key, innermost hop first. Every hop's `to`
// field carries the original final recipient key; mediators in the field
// route on that value, so it is the wire contract even though it never names
// the intermediate hops.
func (p Pipe) Pack(
	msg []byte,
	senderVK string,
	recipientKeys, routingKeys []string,
) (
	data []byte,
	err error,
) {
	defer err2.Handle(&err, "pack")

	data = try.To1(p.Crypto.Pack(p.Wallet, senderVK, msg, recipientKeys...))

	if len(routingKeys) == 0 {
		return data, nil
	}

	to := recipientKeys[0]
	for _, routingKey := range routingKeys {
		glog.V(3).Infoln("wrapping forward for", routingKey)

		fwd := routing.NewForward(to, data)
		fwdJSON := try.To1(json.Marshal(fwd))

		// anon-crypt for routing hops
		data = try.To1(p.Crypto.Pack(p.Wallet, "", fwdJSON, routingKey))
	}
	return data, nil
}

// Unpack decrypts one received wire message.
func (p Pipe) Unpack(data []byte) (unpacked *ssi.Unpacked, err error) {
	defer err2.Handle(&err, "unpack")

	return try.To1(p.Crypto.Unpack(p.Wallet, data)), nil
}

func (p Pipe) Sign(verKey string, msg []byte) (signature []byte, err error) {
	defer err2.Handle(&err, "pipe sign")

	return try.To1(p.Crypto.SignMsg(p.Wallet, verKey, msg)), nil
}

func (p Pipe) Verify(verKey string, msg, signature []byte) (ok bool, err error) {
	defer err2.Handle(&err, "pipe verify")

	return try.To1(p.Crypto.VerifySignature(verKey, msg, signature)), nil
}
