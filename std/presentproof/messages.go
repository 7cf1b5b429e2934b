// Package presentproof implements the present-proof 1.0 wire messages.
package presentproof

import (
	"github.com/ayanworks/arnima-agent-go/agent/pltype"
	"github.com/ayanworks/arnima-agent-go/std/common"
	"github.com/ayanworks/arnima-agent-go/std/decorator"
	"github.com/google/uuid"
)

type PreviewAttribute struct {
	Name      string `json:"name"`
	CredDefID string `json:"cred_def_id,omitempty"`
	MimeType  string `json:"mime-type,omitempty"`
	Value     string `json:"value,omitempty"`
	Referent  string `json:"referent,omitempty"`
}

type PreviewPredicate struct {
	Name      string `json:"name"`
	CredDefID string `json:"cred_def_id,omitempty"`
	Predicate string `json:"predicate,omitempty"`
	Threshold int64  `json:"threshold,omitempty"`
}

type Preview struct {
	Type       string             `json:"@type,omitempty"`
	Attributes []PreviewAttribute `json:"attributes"`
	Predicates []PreviewPredicate `json:"predicates"`
}

func NewPreview(attributes []PreviewAttribute) *Preview {
	return &Preview{
		Type:       pltype.PresentationPreview,
		Attributes: attributes,
		Predicates: []PreviewPredicate{},
	}
}

type Propose struct {
	Type                 string            `json:"@type,omitempty"`
	ID                   string            `json:"@id,omitempty"`
	Comment              string            `json:"comment,omitempty"`
	PresentationProposal *Preview          `json:"presentation_proposal,omitempty"`
	Thread               *decorator.Thread `json:"~thread,omitempty"`
}

func NewPropose(preview *Preview, comment string) *Propose {
	return &Propose{
		Type:                 pltype.PresentProofPropose,
		ID:                   uuid.New().String(),
		Comment:              comment,
		PresentationProposal: preview,
	}
}

type Request struct {
	Type                       string               `json:"@type,omitempty"`
	ID                         string               `json:"@id,omitempty"`
	Comment                    string               `json:"comment,omitempty"`
	RequestPresentationsAttach []common.Attachment  `json:"request_presentations~attach,omitempty"`
	Thread                     *decorator.Thread    `json:"~thread,omitempty"`
	Transport                  *decorator.Transport `json:"~transport,omitempty"`
}

func NewRequest(proofReq []byte, comment string) *Request {
	return &Request{
		Type:    pltype.PresentProofRequest,
		ID:      uuid.New().String(),
		Comment: comment,
		RequestPresentationsAttach: []common.Attachment{
			common.NewAttachment(pltype.LibindyProofRequestID, proofReq),
		},
	}
}

// RequestData decodes the libindy proof request blob.
func RequestData(r *Request) ([]byte, error) {
	return common.FirstData(r.RequestPresentationsAttach)
}

type Presentation struct {
	Type                string               `json:"@type,omitempty"`
	ID                  string               `json:"@id,omitempty"`
	Comment             string               `json:"comment,omitempty"`
	PresentationsAttach []common.Attachment  `json:"presentations~attach,omitempty"`
	Thread              *decorator.Thread    `json:"~thread,omitempty"`
	Transport           *decorator.Transport `json:"~transport,omitempty"`
}

func NewPresentation(thid string, proof []byte) *Presentation {
	return &Presentation{
		Type: pltype.PresentProofPresentation,
		ID:   uuid.New().String(),
		PresentationsAttach: []common.Attachment{
			common.NewAttachment(pltype.LibindyPresentationID, proof),
		},
		Thread: decorator.NewThread(thid, ""),
	}
}

// PresentationData decodes the libindy proof blob.
func PresentationData(p *Presentation) ([]byte, error) {
	return common.FirstData(p.PresentationsAttach)
}
