package modem

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/brocaar/lorawan"
)

func testIdentity() Identity {
	return Identity{
		DevEUI: lorawan.EUI64{0x70, 0xb3, 0xd5, 0x7e, 0xd0, 0x00, 0x00, 0x01},
		AppEUI: lorawan.EUI64{},
		AppKey: lorawan.AES128Key{0x2b, 0x7e, 0x15, 0x16, 0x28, 0xae, 0xd2, 0xa6, 0xab, 0xf7, 0x15, 0x88, 0x09, 0xcf, 0x4f, 0x3c},
	}
}

func testSession() Session {
	return Session{Region: "EU868", Mode: "LWOTAA", DataRate: "DR5", JoinWait: 10 * time.Second, JoinMarker: "Network joined"}
}

func TestProvisionCommands(t *testing.T) {
	got := ProvisionCommands(testIdentity(), testSession())
	want := []string{
		"AT",
		`AT+ID=DevEui,"70B3D57ED0000001"`,
		`AT+ID=AppEui,"0000000000000000"`,
		`AT+KEY=APPKEY,"2B7E151628AED2A6ABF7158809CF4F3C"`,
		"AT+DR=EU868",
		"AT+MODE=LWOTAA",
		"AT+DR=DR5",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("commands:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestStartProvisionsThenJoins(t *testing.T) {
	p := newFakePort()
	sl := &sleepLog{}
	c := newTestChannel(p, sl, nil)
	p.replies["AT+JOIN"] = "+JOIN: Start\r\n"

	// the join result only shows up during the post-join wait
	sleeps := 0
	c.opts.Sleep = func(ctx context.Context, d time.Duration) error {
		sleeps++
		sl.calls = append(sl.calls, d)
		if d == 10*time.Second {
			p.push("+JOIN: Network joined\r\n+JOIN: Done\r\n")
		}
		return nil
	}
	if err := c.Start(context.Background(), testIdentity(), Session{
		Region: "EU868", Mode: "LWOTAA", DataRate: "DR5",
		JoinWait: 10 * time.Second, JoinMarker: "Network joined", RequireJoin: true,
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(p.written.String()), "\r\n")
	if len(lines) != 8 || lines[7] != "AT+JOIN" {
		t.Fatalf("written commands = %q", lines)
	}
	// 8 settle delays plus the join wait
	if sleeps != 9 || sl.calls[8] != 10*time.Second {
		t.Fatalf("sleeps = %v", sl.calls)
	}
}

func TestStartJoinPolicy(t *testing.T) {
	s := testSession()

	c := newTestChannel(newFakePort(), &sleepLog{}, nil)
	if err := c.Start(context.Background(), testIdentity(), s); err != nil {
		t.Fatalf("proceed policy must ignore a silent join, got %v", err)
	}

	s.RequireJoin = true
	c = newTestChannel(newFakePort(), &sleepLog{}, nil)
	if err := c.Start(context.Background(), testIdentity(), s); !errors.Is(err, ErrJoinFailed) {
		t.Fatalf("expected ErrJoinFailed, got %v", err)
	}
}

func TestJoinWithoutMarkerNeverConfirms(t *testing.T) {
	p := newFakePort()
	p.replies["AT+JOIN"] = "+JOIN: Network joined\r\n"
	c := newTestChannel(p, &sleepLog{}, nil)
	s := testSession()
	s.JoinMarker = ""
	joined, err := c.Join(context.Background(), s)
	if err != nil || joined {
		t.Fatalf("joined=%v err=%v", joined, err)
	}
}
