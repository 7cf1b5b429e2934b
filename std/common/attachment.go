// Package common holds message parts shared by several Aries protocols:
// attachments, acks and problem reports.
package common

import (
	"encoding/base64"

	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type AttachmentData struct {
	Base64 string `json:"base64,omitempty"`
}

type Attachment struct {
	ID       string         `json:"@id,omitempty"`
	MimeType string         `json:"mime-type,omitempty"`
	Data     AttachmentData `json:"data"`
}

func NewAttachment(id string, data []byte) Attachment {
	return Attachment{
		ID:       id,
		MimeType: "application/json",
		Data: AttachmentData{
			Base64: base64.StdEncoding.EncodeToString(data),
		},
	}
}

// Bytes decodes the base64 payload of the attachment.
func (a Attachment) Bytes() (data []byte, err error) {
	defer err2.Handle(&err, "attachment data")

	return try.To1(base64.StdEncoding.DecodeString(a.Data.Base64)), nil
}

// FirstData returns the decoded payload of the first attachment, the usual
// case for libindy offer/request/credential/proof attachments.
func FirstData(attachments []Attachment) (data []byte, err error) {
	defer err2.Handle(&err, "attachment")

	if len(attachments) == 0 {
		return nil, ErrInvalidMessage
	}
	return attachments[0].Bytes()
}
