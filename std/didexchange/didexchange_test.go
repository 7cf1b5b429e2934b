package didexchange

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/ayanworks/arnima-agent-go/std/did"
	"github.com/lainio/err2/assert"
	"github.com/lainio/err2/try"
)

// xorCrypto is a stand-in signer: signature is the message xored with a key
// derived from the verkey string.
type xorCrypto struct{}

func (xorCrypto) SignMsg(_ int, verKey string, msg []byte) ([]byte, error) {
	return xor(verKey, msg), nil
}

func (xorCrypto) VerifySignature(verKey string, msg, signature []byte) (bool, error) {
	return bytes.Equal(xor(verKey, msg), signature), nil
}

func xor(key string, msg []byte) []byte {
	out := make([]byte, len(msg))
	for i := range msg {
		out[i] = msg[i] ^ key[i%len(key)]
	}
	return out
}

func testConnection() *Connection {
	doc := did.NewDoc("55GkHamhTU1ZbTbV2ab9DE", "verkey", "http://agent.example.com", nil)
	return &Connection{DID: "55GkHamhTU1ZbTbV2ab9DE", DIDDoc: doc}
}

func TestSignAndVerifyConnection(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	crypto := xorCrypto{}
	conn := testConnection()

	cs := try.To1(SignConnection(crypto, 1, "8QhFxKxyaFsJy4CyxeYX34", conn))
	assert.Equal(cs.SignVerKey, "8QhFxKxyaFsJy4CyxeYX34")
	assert.NotEmpty(cs.Signature)

	verified := try.To1(cs.Verify(crypto))
	assert.Equal(verified.DID, conn.DID)
	assert.Equal(verified.DIDDoc.Service[0].ServiceEndpoint,
		"http://agent.example.com")
}

func TestSignedDataCarriesTimestamp(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	before := time.Now().Unix()
	cs := try.To1(SignConnection(xorCrypto{}, 1, "key", testConnection()))

	data := try.To1(decodeB64(cs.SignedData))
	assert.That(len(data) > 8)

	ts := int64(binary.BigEndian.Uint64(data[:8]))
	assert.That(ts >= before)
	assert.That(ts <= time.Now().Unix())
}

func TestVerifyRejectsTamperedData(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	cs := try.To1(SignConnection(xorCrypto{}, 1, "key", testConnection()))
	cs.SignVerKey = "other-key"

	_, err := cs.Verify(xorCrypto{})
	assert.That(err != nil)
}

func TestInvitationURLRoundTrip(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	inv := &Invitation{
		Type:            "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/connections/1.0/invitation",
		ID:              "d3dbb3af-63d4-4c88-85a4-36f0a0b889e0",
		Label:           "Alice",
		RecipientKeys:   []string{"8QhFxKxyaFsJy4CyxeYX34dFH8oWqyBv1P4HLQCsoeLy"},
		RoutingKeys:     []string{"3Dn1SJNPaCXcvvJvSa9fvRfkz1pZk3YVzVcTZxWaWyzZ"},
		ServiceEndpoint: "https://mediator.example.com/msg",
	}

	u := try.To1(EncodeInvitationURL(inv))
	decoded := try.To1(DecodeInvitationURL(u))
	assert.That(reflect.DeepEqual(inv, decoded))

	// bare payload form decodes too
	bare := base64.StdEncoding.EncodeToString(try.To1(json.Marshal(inv)))
	decoded = try.To1(DecodeInvitationURL(bare))
	assert.That(reflect.DeepEqual(inv, decoded))
}
