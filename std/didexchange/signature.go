package didexchange

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"time"

	"github.com/ayanworks/arnima-agent-go/agent/pltype"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// ErrSignatureInvalid is returned when a connection response signature does
// not verify against its signer key.
var ErrSignatureInvalid = errors.New("signature verification failed")

// Signer is the slice of the wallet/crypto provider this package needs.
type Signer interface {
	SignMsg(wallet int, verKey string, msg []byte) ([]byte, error)
	VerifySignature(verKey string, msg, signature []byte) (bool, error)
}

const signatureMaxAge = 10 * time.Hour

// SignConnection builds the connection~sig block: the connection JSON is
// prefixed with an 8-byte big-endian unix timestamp, signed with the pairwise
// verkey, and both parts travel base64url encoded.
func SignConnection(
	crypto Signer,
	wallet int,
	verKey string,
	c *Connection,
) (
	cs *ConnectionSignature,
	err error,
) {
	defer err2.Handle(&err, "sign connection")

	connJSON := try.To1(json.Marshal(c))

	signedData := make([]byte, 8+len(connJSON))
	binary.BigEndian.PutUint64(signedData, uint64(time.Now().Unix()))
	copy(signedData[8:], connJSON)

	signature := try.To1(crypto.SignMsg(wallet, verKey, signedData))

	return &ConnectionSignature{
		Type:       pltype.Ed25519Signature,
		Signature:  base64.URLEncoding.EncodeToString(signature),
		SignedData: base64.URLEncoding.EncodeToString(signedData),
		SignVerKey: verKey,
	}, nil
}

// Verify checks the signature against the signer key and returns the
// connection block it covers. Stale timestamps are logged but tolerated;
// mobile clocks drift too much to make them fatal.
func (cs *ConnectionSignature) Verify(crypto Signer) (c *Connection, err error) {
	defer err2.Handle(&err, "verify connection sig")

	data := try.To1(decodeB64(cs.SignedData))
	if len(data) <= 8 {
		return nil, ErrSignatureInvalid
	}
	signature := try.To1(decodeB64(cs.Signature))

	ok := try.To1(crypto.VerifySignature(cs.SignVerKey, data, signature))
	if !ok {
		return nil, ErrSignatureInvalid
	}

	ts := int64(binary.BigEndian.Uint64(data[:8]))
	if age := time.Since(time.Unix(ts, 0)); age > signatureMaxAge {
		glog.Warningln("connection signature is stale:", age)
	}

	c = &Connection{}
	try.To(json.Unmarshal(data[8:], c))
	return c, nil
}

func decodeB64(s string) (data []byte, err error) {
	data, err = base64.URLEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.StdEncoding.DecodeString(s)
	}
	return data, err
}
