package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"wifi-sampler/internal/link"
	"wifi-sampler/internal/metrics"
	"wifi-sampler/internal/modem"
)

// HTTPLoop scans only while the Wi-Fi link is up. A down link costs one
// blocking reconnect and a fixed backoff, and the iteration is abandoned.
type HTTPLoop struct {
	Pipeline         *Pipeline
	Link             link.Link
	Interval         time.Duration
	ReconnectBackoff time.Duration
	Metrics          *metrics.Collector
	Sleep            modem.Sleeper
}

func (l *HTTPLoop) Run(ctx context.Context) error {
	sleep := l.Sleep
	if sleep == nil {
		sleep = modem.Sleep
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		if !l.Link.Connected(ctx) {
			log.Warn().Msg("wifi link down, reconnecting")
			l.Metrics.Reconnect()
			if err := l.Link.Reconnect(ctx); err != nil {
				log.Error().Err(err).Msg("reconnect failed")
			}
			if sleep(ctx, l.ReconnectBackoff) != nil {
				return nil
			}
			continue
		}
		// errors are already logged by the cycle; the next one is the retry
		_, _ = l.Pipeline.RunCycle(ctx)
		if sleep(ctx, l.Interval) != nil {
			return nil
		}
	}
}

// DownlinkPoller is the part of the modem channel polled between uplinks.
type DownlinkPoller interface {
	PollDownlink() ([]string, error)
}

// LoRaLoop polls for downlinks on every iteration and runs a cycle every
// SendInterval, starting with an immediate one.
type LoRaLoop struct {
	Pipeline     *Pipeline
	Modem        DownlinkPoller
	SendInterval time.Duration
	PollInterval time.Duration
	Now          func() time.Time
	Sleep        modem.Sleeper
}

func (l *LoRaLoop) Run(ctx context.Context) error {
	sleep, now := l.Sleep, l.Now
	if sleep == nil {
		sleep = modem.Sleep
	}
	if now == nil {
		now = time.Now
	}
	var lastSend time.Time
	for {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := l.Modem.PollDownlink(); err != nil {
			log.Warn().Err(err).Msg("downlink poll")
		}
		if t := now(); lastSend.IsZero() || t.Sub(lastSend) >= l.SendInterval {
			lastSend = t
			_, _ = l.Pipeline.RunCycle(ctx)
		}
		if sleep(ctx, l.PollInterval) != nil {
			return nil
		}
	}
}
