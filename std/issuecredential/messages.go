// Package issuecredential implements the issue-credential 1.0 wire messages
// for the holder flows.
package issuecredential

import (
	"github.com/ayanworks/arnima-agent-go/agent/pltype"
	"github.com/ayanworks/arnima-agent-go/std/common"
	"github.com/ayanworks/arnima-agent-go/std/decorator"
	"github.com/google/uuid"
)

type PreviewAttribute struct {
	Name     string `json:"name"`
	MimeType string `json:"mime-type,omitempty"`
	Value    string `json:"value"`
}

type Preview struct {
	Type       string             `json:"@type,omitempty"`
	Attributes []PreviewAttribute `json:"attributes"`
}

func NewPreview(attributes []PreviewAttribute) *Preview {
	return &Preview{
		Type:       pltype.CredentialPreview,
		Attributes: attributes,
	}
}

type Propose struct {
	Type               string            `json:"@type,omitempty"`
	ID                 string            `json:"@id,omitempty"`
	Comment            string            `json:"comment,omitempty"`
	CredentialProposal *Preview          `json:"credential_proposal,omitempty"`
	SchemaID           string            `json:"schema_id,omitempty"`
	CredDefID          string            `json:"cred_def_id,omitempty"`
	IssuerDID          string            `json:"issuer_did,omitempty"`
	Thread             *decorator.Thread `json:"~thread,omitempty"`
}

func NewPropose(preview *Preview, schemaID, credDefID, issuerDID, comment string) *Propose {
	return &Propose{
		Type:               pltype.IssueCredentialPropose,
		ID:                 uuid.New().String(),
		Comment:            comment,
		CredentialProposal: preview,
		SchemaID:           schemaID,
		CredDefID:          credDefID,
		IssuerDID:          issuerDID,
	}
}

type Offer struct {
	Type              string              `json:"@type,omitempty"`
	ID                string              `json:"@id,omitempty"`
	Comment           string              `json:"comment,omitempty"`
	CredentialPreview *Preview            `json:"credential_preview,omitempty"`
	OffersAttach      []common.Attachment `json:"offers~attach,omitempty"`
	Thread            *decorator.Thread   `json:"~thread,omitempty"`
}

// OfferData decodes the libindy offer blob of the message.
func OfferData(o *Offer) ([]byte, error) {
	return common.FirstData(o.OffersAttach)
}

type Request struct {
	Type           string               `json:"@type,omitempty"`
	ID             string               `json:"@id,omitempty"`
	Comment        string               `json:"comment,omitempty"`
	RequestsAttach []common.Attachment  `json:"requests~attach,omitempty"`
	Thread         *decorator.Thread    `json:"~thread,omitempty"`
	Transport      *decorator.Transport `json:"~transport,omitempty"`
}

func NewRequest(thid string, credReq []byte) *Request {
	return &Request{
		Type: pltype.IssueCredentialRequest,
		ID:   uuid.New().String(),
		RequestsAttach: []common.Attachment{
			common.NewAttachment(pltype.LibindyCredRequestID, credReq),
		},
		Thread: decorator.NewThread(thid, ""),
	}
}

type Issue struct {
	Type              string              `json:"@type,omitempty"`
	ID                string              `json:"@id,omitempty"`
	Comment           string              `json:"comment,omitempty"`
	CredentialsAttach []common.Attachment `json:"credentials~attach,omitempty"`
	Thread            *decorator.Thread   `json:"~thread,omitempty"`
}

// CredentialData decodes the issued libindy credential blob.
func CredentialData(i *Issue) ([]byte, error) {
	return common.FirstData(i.CredentialsAttach)
}
