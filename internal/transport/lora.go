package transport

import (
	"context"
	"fmt"

	"wifi-sampler/internal/model"
	"wifi-sampler/internal/modem"
)

// Commander is the part of the modem channel the uplink needs.
type Commander interface {
	SendCommand(ctx context.Context, cmd string) (modem.Response, error)
}

// LoRa sends the compact hex payload as one AT+MSGHEX exchange. Whatever
// the modem answers is logged by the channel; there is no acknowledgement
// check.
type LoRa struct {
	modem Commander
}

func NewLoRa(m Commander) *LoRa { return &LoRa{modem: m} }

func (l *LoRa) Name() string { return "lora" }

func UplinkCommand(hexPayload string) string {
	return fmt.Sprintf("AT+MSGHEX=\"%s\"", hexPayload)
}

func (l *LoRa) Send(ctx context.Context, p model.Payload) error {
	if _, err := l.modem.SendCommand(ctx, UplinkCommand(string(p.Body))); err != nil {
		return fmt.Errorf("lorawan uplink: %w", err)
	}
	return nil
}
