package didexchange

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type Invitation struct {
	Type            string   `json:"@type,omitempty"`
	ID              string   `json:"@id,omitempty"`
	Label           string   `json:"label,omitempty"`
	RecipientKeys   []string `json:"recipientKeys,omitempty"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
	ServiceEndpoint string   `json:"serviceEndpoint,omitempty"`
	DID             string   `json:"did,omitempty"`
}

const invitationParam = "c_i"

// EncodeInvitationURL renders the invitation as the conventional
// `<endpoint>?c_i=<base64>` form.
func EncodeInvitationURL(inv *Invitation) (s string, err error) {
	defer err2.Handle(&err, "encode invitation")

	invJSON := try.To1(json.Marshal(inv))
	encoded := base64.StdEncoding.EncodeToString(invJSON)
	return inv.ServiceEndpoint + "?" + invitationParam + "=" +
		url.QueryEscape(encoded), nil
}

// DecodeInvitationURL accepts either a full invitation URL or the bare
// base64 invitation payload.
func DecodeInvitationURL(s string) (inv *Invitation, err error) {
	defer err2.Handle(&err, "decode invitation")

	encoded := s
	if strings.Contains(s, invitationParam+"=") {
		u := try.To1(url.Parse(s))
		encoded = u.Query().Get(invitationParam)
	}

	invJSON := try.To1(decodeB64(encoded))
	inv = &Invitation{}
	try.To(json.Unmarshal(invJSON, inv))
	return inv, nil
}
