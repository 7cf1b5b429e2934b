// Package didexchange implements the connections 1.0 wire messages: the
// invitation with its URL form, the request, and the signed response.
package didexchange

import (
	"github.com/ayanworks/arnima-agent-go/std/decorator"
	"github.com/ayanworks/arnima-agent-go/std/did"
)

// Connection is the DID + DID document block carried by requests and, under
// a detached signature, by responses.
type Connection struct {
	DID    string   `json:"DID,omitempty"`
	DIDDoc *did.Doc `json:"DIDDoc,omitempty"`
}

type Request struct {
	Type       string               `json:"@type,omitempty"`
	ID         string               `json:"@id,omitempty"`
	Label      string               `json:"label,omitempty"`
	Connection *Connection          `json:"connection,omitempty"`
	Thread     *decorator.Thread    `json:"~thread,omitempty"`
	Transport  *decorator.Transport `json:"~transport,omitempty"`
}

type Response struct {
	Type                string               `json:"@type,omitempty"`
	ID                  string               `json:"@id,omitempty"`
	Thread              *decorator.Thread    `json:"~thread,omitempty"`
	ConnectionSignature *ConnectionSignature `json:"connection~sig,omitempty"`
	Transport           *decorator.Transport `json:"~transport,omitempty"`
}

// ConnectionSignature is the detached ed25519 signature over the connection
// block, stamped with an 8-byte big-endian unix timestamp.
type ConnectionSignature struct {
	Type       string `json:"@type,omitempty"`
	Signature  string `json:"signature,omitempty"`
	SignedData string `json:"sig_data,omitempty"`
	SignVerKey string `json:"signer,omitempty"`
}
