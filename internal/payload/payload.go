// Package payload encodes a candidate set for a transport.
package payload

import "wifi-sampler/internal/model"

// Encoder turns a ranked candidate set into transport bytes.
type Encoder interface {
	Encode(set model.CandidateSet) (model.Payload, error)
}

const (
	ContentTypeJSON = "application/json"
	ContentTypeHex  = "text/plain"
)
