// Package pipeline runs the scan → rank → encode → transmit cycle.
//
// Both agents are the same Pipeline with different strategies plugged in;
// only the outer loop differs. HTTPLoop is gated on Wi-Fi connectivity,
// LoRaLoop is driven by time and polls the modem for downlinks between
// uplinks.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"wifi-sampler/internal/indicator"
	"wifi-sampler/internal/metrics"
	"wifi-sampler/internal/model"
	"wifi-sampler/internal/payload"
	"wifi-sampler/internal/rank"
	"wifi-sampler/internal/scan"
	"wifi-sampler/internal/transport"
)

// Cycle outcomes, also used as the metrics result label.
const (
	ResultSent      = "sent"
	ResultSkipped   = "skipped"
	ResultScanError = "scan_error"
	ResultSendError = "send_error"
)

type Pipeline struct {
	Variant   string
	Scanner   scan.Scanner
	Ranker    rank.Ranker
	Encoder   payload.Encoder
	Transport transport.Transport
	// SkipEmpty suppresses the uplink when nothing was selected.
	SkipEmpty bool
	Indicator indicator.Indicator
	Metrics   *metrics.Collector
}

// Result summarises one cycle.
type Result struct {
	ID       string
	Outcome  string
	Scanned  int
	Selected int
}

// RunCycle performs one scan and, unless skipped, one uplink. The error is
// also logged; callers only need it for their own bookkeeping.
func (p *Pipeline) RunCycle(ctx context.Context) (Result, error) {
	res := Result{ID: uuid.NewString()}
	logger := log.With().Str("variant", p.Variant).Str("cycle", res.ID).Logger()

	nets, err := p.Scanner.Scan(ctx)
	if err != nil {
		res.Outcome = ResultScanError
		p.Metrics.Cycle(p.Variant, res.Outcome)
		logger.Error().Err(err).Msg("scan failed")
		return res, fmt.Errorf("scan: %w", err)
	}
	res.Scanned = len(nets)

	set := p.Ranker.Rank(nets)
	res.Selected = set.Len()
	p.Metrics.Selected(p.Variant, res.Selected)
	for _, c := range set.Slots {
		if c.Empty() {
			continue
		}
		logger.Debug().
			Str("ssid", c.Network.SSID).
			Str("mac", c.Network.BSSID.String()).
			Int("rssi", c.Network.RSSI).
			Int("channel", c.Network.Channel).
			Msg("selected")
	}
	logger.Info().Int("scanned", res.Scanned).Int("selected", res.Selected).Msg("scan ranked")

	if p.SkipEmpty && res.Selected == 0 {
		res.Outcome = ResultSkipped
		p.Metrics.Cycle(p.Variant, res.Outcome)
		return res, nil
	}

	pl, err := p.Encoder.Encode(set)
	if err != nil {
		res.Outcome = ResultSendError
		p.Metrics.Cycle(p.Variant, res.Outcome)
		logger.Error().Err(err).Msg("encode failed")
		return res, fmt.Errorf("encode: %w", err)
	}

	err = p.send(ctx, logger, pl)
	p.Metrics.Uplink(p.Transport.Name(), err)
	if err != nil {
		res.Outcome = ResultSendError
		p.Metrics.Cycle(p.Variant, res.Outcome)
		return res, err
	}
	res.Outcome = ResultSent
	p.Metrics.Cycle(p.Variant, res.Outcome)
	return res, nil
}

// send brackets the transport call with the indicator; the indicator is
// switched off even when the send fails.
func (p *Pipeline) send(ctx context.Context, logger zerolog.Logger, pl model.Payload) error {
	if p.Indicator != nil {
		if err := p.Indicator.Set(ctx, true); err != nil {
			logger.Warn().Err(err).Msg("indicator on")
		}
		defer func() {
			if err := p.Indicator.Set(context.WithoutCancel(ctx), false); err != nil {
				logger.Warn().Err(err).Msg("indicator off")
			}
		}()
	}
	if err := p.Transport.Send(ctx, pl); err != nil {
		return fmt.Errorf("%s uplink: %w", p.Transport.Name(), err)
	}
	return nil
}
