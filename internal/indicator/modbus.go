package indicator

import (
	"context"
	"fmt"
	"time"

	mb "github.com/goburrow/modbus"
	"github.com/rs/zerolog/log"

	"wifi-sampler/internal/config"
)

const (
	coilOn  = 0xFF00
	coilOff = 0x0000
)

// Modbus switches one coil of a Modbus-TCP I/O module, e.g. a stack light.
type Modbus struct {
	handler *mb.TCPClientHandler
	client  mb.Client
	coil    uint16
	addr    string
}

func NewModbus(cfg config.ModbusConfig) *Modbus {
	h := mb.NewTCPClientHandler(cfg.Address)
	h.Timeout = cfg.Timeout
	if h.Timeout <= 0 {
		h.Timeout = time.Second
	}
	h.SlaveId = cfg.SlaveID
	return &Modbus{handler: h, client: mb.NewClient(h), coil: cfg.Coil, addr: cfg.Address}
}

// Set writes the coil, reconnecting once if the first write fails.
func (m *Modbus) Set(ctx context.Context, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value := uint16(coilOff)
	if on {
		value = coilOn
	}
	if _, err := m.client.WriteSingleCoil(m.coil, value); err != nil {
		log.Debug().Err(err).Str("addr", m.addr).Msg("indicator write failed, reconnecting")
		m.handler.Close()
		if err := m.handler.Connect(); err != nil {
			return fmt.Errorf("indicator connect %s: %w", m.addr, err)
		}
		if _, err := m.client.WriteSingleCoil(m.coil, value); err != nil {
			return fmt.Errorf("indicator coil %d: %w", m.coil, err)
		}
	}
	return nil
}

func (m *Modbus) Close() error { return m.handler.Close() }
