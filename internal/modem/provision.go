package modem

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brocaar/lorawan"
	"github.com/rs/zerolog/log"
)

// ErrJoinFailed is returned by Start when the join policy requires a
// confirmed join and the modem never reported one.
var ErrJoinFailed = errors.New("lorawan join not confirmed")

// Identity holds the OTAA credentials provisioned into the modem. They are
// used for the join only and never appear in the uplink payload.
type Identity struct {
	DevEUI lorawan.EUI64
	AppEUI lorawan.EUI64
	AppKey lorawan.AES128Key
}

// Session settings applied before the join.
type Session struct {
	Region   string
	Mode     string
	DataRate string
	JoinWait time.Duration
	// JoinMarker is the text the modem prints on a successful join.
	JoinMarker string
	// RequireJoin turns a missing JoinMarker into ErrJoinFailed.
	RequireJoin bool
}

func hexUpper(s fmt.Stringer) string { return strings.ToUpper(s.String()) }

// ProvisionCommands lists the AT commands sent before the join, in order.
func ProvisionCommands(id Identity, s Session) []string {
	return []string{
		"AT",
		fmt.Sprintf("AT+ID=DevEui,\"%s\"", hexUpper(id.DevEUI)),
		fmt.Sprintf("AT+ID=AppEui,\"%s\"", hexUpper(id.AppEUI)),
		fmt.Sprintf("AT+KEY=APPKEY,\"%s\"", hexUpper(id.AppKey)),
		"AT+DR=" + s.Region,
		"AT+MODE=" + s.Mode,
		"AT+DR=" + s.DataRate,
	}
}

// Provision sends the provisioning sequence. Replies are logged, not checked.
func (c *Channel) Provision(ctx context.Context, id Identity, s Session) error {
	for _, cmd := range ProvisionCommands(id, s) {
		if _, err := c.SendCommand(ctx, cmd); err != nil {
			return fmt.Errorf("provision: %w", err)
		}
	}
	return nil
}

// Join issues AT+JOIN, waits JoinWait and reports whether the join marker
// appeared in anything the modem printed meanwhile.
func (c *Channel) Join(ctx context.Context, s Session) (bool, error) {
	first, err := c.SendCommand(ctx, "AT+JOIN")
	if err != nil {
		return false, fmt.Errorf("join: %w", err)
	}
	if err := c.opts.Sleep(ctx, s.JoinWait); err != nil {
		return false, err
	}
	later, err := c.Drain(ctx)
	if err != nil {
		return false, fmt.Errorf("join: %w", err)
	}
	marker := s.JoinMarker
	if marker == "" {
		return false, nil
	}
	return first.Contains(marker) || later.Contains(marker), nil
}

// Start provisions the modem and joins. An unconfirmed join is only an
// error when the session requires it.
func (c *Channel) Start(ctx context.Context, id Identity, s Session) error {
	if err := c.Provision(ctx, id, s); err != nil {
		return err
	}
	joined, err := c.Join(ctx, s)
	if err != nil {
		return err
	}
	if joined {
		log.Info().Str("dev_eui", id.DevEUI.String()).Msg("lorawan network joined")
		return nil
	}
	if s.RequireJoin {
		return ErrJoinFailed
	}
	log.Warn().Str("dev_eui", id.DevEUI.String()).Msg("lorawan join not confirmed, continuing")
	return nil
}
