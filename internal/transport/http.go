package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"wifi-sampler/internal/model"
)

// StatusError is a completed HTTP exchange with a status other than 200.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Code)
}

// HTTP posts the structured document to a fixed endpoint.
type HTTP struct {
	client *resty.Client
	url    string
}

func NewHTTP(url string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTP{client: resty.New().SetTimeout(timeout), url: url}
}

func (h *HTTP) Name() string { return "http" }

func (h *HTTP) Send(ctx context.Context, p model.Payload) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", p.ContentType).
		SetBody(p.Body).
		Post(h.url)
	if err != nil {
		log.Error().Err(err).Str("url", h.url).Msg("scan upload failed")
		return fmt.Errorf("post %s: %w", h.url, err)
	}
	code := resp.StatusCode()
	log.Info().Int("status", code).Int("networks", p.Candidates).Msg("scan uploaded")
	if code != http.StatusOK {
		body := resp.String()
		log.Warn().Int("status", code).Str("body", body).Msg("backend did not accept scan")
		return &StatusError{Code: code, Body: body}
	}
	return nil
}
