package link

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type scriptedRunner struct {
	calls  []string
	status string
	fail   map[string]error
}

func (s *scriptedRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	call := name + " " + strings.Join(args, " ")
	s.calls = append(s.calls, call)
	for prefix, err := range s.fail {
		if strings.HasPrefix(call, prefix) {
			return nil, err
		}
	}
	if strings.HasSuffix(call, "DEVICE,STATE device") {
		return []byte(s.status), nil
	}
	return nil, nil
}

func TestNmcliConnected(t *testing.T) {
	r := &scriptedRunner{status: "eth0:unmanaged\nwlan0:connected\nlo:unmanaged\n"}
	n := NewNmcli("wlan0", "Agent-Hotspot", "secret")
	n.Run = r.run
	if !n.Connected(context.Background()) {
		t.Fatal("expected connected")
	}
	r.status = "wlan0:disconnected\n"
	if n.Connected(context.Background()) {
		t.Fatal("expected disconnected")
	}
	r.status = "wlan1:connected\n"
	if n.Connected(context.Background()) {
		t.Fatal("other interfaces must not count")
	}
}

func TestNmcliReconnect(t *testing.T) {
	r := &scriptedRunner{fail: map[string]error{"nmcli device disconnect": errors.New("not active")}}
	n := NewNmcli("wlan0", "Agent-Hotspot", "secret")
	n.Run = r.run
	if err := n.Reconnect(context.Background()); err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	want := []string{
		"nmcli device disconnect wlan0",
		"nmcli device wifi connect Agent-Hotspot password secret ifname wlan0",
	}
	if strings.Join(r.calls, "\n") != strings.Join(want, "\n") {
		t.Fatalf("calls:\n%s", strings.Join(r.calls, "\n"))
	}
}

func TestNmcliReconnectFailure(t *testing.T) {
	r := &scriptedRunner{fail: map[string]error{"nmcli device wifi connect": errors.New("no network")}}
	n := NewNmcli("wlan0", "Agent-Hotspot", "")
	n.Run = r.run
	if err := n.Reconnect(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

type flakyLink struct{ left int }

func (f *flakyLink) Connected(context.Context) bool {
	if f.left == 0 {
		return true
	}
	f.left--
	return false
}

func (f *flakyLink) Reconnect(context.Context) error { return nil }

func TestWaitConnected(t *testing.T) {
	l := &flakyLink{left: 2}
	if err := WaitConnected(context.Background(), l, time.Millisecond); err != nil {
		t.Fatalf("WaitConnected: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := WaitConnected(ctx, &flakyLink{left: 1}, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
