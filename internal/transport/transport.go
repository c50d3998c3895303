// Package transport delivers an encoded payload to the backend.
package transport

import (
	"context"

	"wifi-sampler/internal/model"
)

// Transport sends one payload. Failures are reported, never retried here:
// the next scheduled cycle is the retry.
type Transport interface {
	Name() string
	Send(ctx context.Context, p model.Payload) error
}
