// Package link reports and restores the Wi-Fi uplink used by the HTTP agent.
package link

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Link is the connectivity primitive: a connected flag and a blocking
// reconnect.
type Link interface {
	Connected(ctx context.Context) bool
	Reconnect(ctx context.Context) error
}

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Nmcli manages the station interface through NetworkManager.
type Nmcli struct {
	Interface string
	SSID      string
	Password  string
	Run       Runner
}

func NewNmcli(iface, ssid, password string) *Nmcli {
	return &Nmcli{Interface: iface, SSID: ssid, Password: password, Run: execRunner}
}

func (n *Nmcli) Connected(ctx context.Context) bool {
	out, err := n.Run(ctx, "nmcli", "-t", "-f", "DEVICE,STATE", "device")
	if err != nil {
		log.Warn().Err(err).Msg("nmcli device status failed")
		return false
	}
	for _, line := range strings.Split(string(out), "\n") {
		dev, state, ok := strings.Cut(strings.TrimSpace(line), ":")
		if ok && dev == n.Interface {
			return state == "connected"
		}
	}
	return false
}

// Reconnect drops the current association and joins the configured hotspot.
func (n *Nmcli) Reconnect(ctx context.Context) error {
	if _, err := n.Run(ctx, "nmcli", "device", "disconnect", n.Interface); err != nil {
		log.Debug().Err(err).Str("interface", n.Interface).Msg("disconnect before reconnect")
	}
	args := []string{"device", "wifi", "connect", n.SSID}
	if n.Password != "" {
		args = append(args, "password", n.Password)
	}
	args = append(args, "ifname", n.Interface)
	if _, err := n.Run(ctx, "nmcli", args...); err != nil {
		return fmt.Errorf("connect %s: %w", n.SSID, err)
	}
	return nil
}

// Up is a link that is always connected, for hosts with wired uplinks.
type Up struct{}

func (Up) Connected(context.Context) bool  { return true }
func (Up) Reconnect(context.Context) error { return nil }

// WaitConnected polls l every poll interval until it reports connected.
func WaitConnected(ctx context.Context, l Link, poll time.Duration) error {
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	for !l.Connected(ctx) {
		select {
		case <-time.After(poll):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
