// Package indicator drives the external "uplink in progress" signal.
package indicator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"wifi-sampler/internal/config"
)

// Indicator is switched on before an uplink and off after it.
type Indicator interface {
	Set(ctx context.Context, on bool) error
}

// Log only records the transitions.
type Log struct{}

func (Log) Set(_ context.Context, on bool) error {
	log.Debug().Bool("on", on).Msg("indicator")
	return nil
}

// None ignores every transition.
type None struct{}

func (None) Set(context.Context, bool) error { return nil }

// New builds the indicator selected in cfg.
func New(cfg config.IndicatorConfig) (Indicator, error) {
	switch cfg.Kind {
	case "", "log":
		return Log{}, nil
	case "none":
		return None{}, nil
	case "modbus":
		return NewModbus(cfg.Modbus), nil
	default:
		return nil, fmt.Errorf("indicator kind %q not implemented", cfg.Kind)
	}
}
