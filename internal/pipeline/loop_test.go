package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"wifi-sampler/internal/model"
	"wifi-sampler/internal/scan"
)

type fakeLink struct {
	states     []bool
	reconnects int
}

func (f *fakeLink) Connected(context.Context) bool {
	if len(f.states) == 0 {
		return true
	}
	up := f.states[0]
	f.states = f.states[1:]
	return up
}

func (f *fakeLink) Reconnect(context.Context) error {
	f.reconnects++
	return errors.New("hotspot not found")
}

type countingScanner struct {
	n int
}

func (c *countingScanner) Scan(context.Context) ([]model.ObservedNetwork, error) {
	c.n++
	return nil, nil
}

func TestHTTPLoopReconnectsWithoutScanning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sl := &stepSleeper{limit: 3, cancel: cancel}
	sc := &countingScanner{}
	lk := &fakeLink{states: []bool{false, true, true}}
	p := httpPipeline(t, sc, &fakeTransport{}, nil)

	loop := &HTTPLoop{Pipeline: p, Link: lk, Interval: 2 * time.Second, ReconnectBackoff: 5 * time.Second, Sleep: sl.sleep}
	if err := loop.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if lk.reconnects != 1 {
		t.Fatalf("reconnects = %d", lk.reconnects)
	}
	if sc.n != 2 {
		t.Fatalf("scans = %d, want 2", sc.n)
	}
	want := []time.Duration{5 * time.Second, 2 * time.Second, 2 * time.Second}
	for i, w := range want {
		if sl.calls[i] != w {
			t.Fatalf("sleeps = %v, want %v", sl.calls, want)
		}
	}
}

type fakePoller struct {
	polls int
	err   error
}

func (f *fakePoller) PollDownlink() ([]string, error) {
	f.polls++
	return nil, f.err
}

func TestLoRaLoopSendsOnInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// 100 polls of 1s each with a 45s send interval: t=0, 45, 90
	sl := &stepSleeper{now: time.Unix(1_700_000_000, 0), limit: 100, cancel: cancel}
	tr := &fakeTransport{}
	poller := &fakePoller{err: errors.New("framing")}

	loop := &LoRaLoop{
		Pipeline:     loraPipeline(scan.NewStatic(nil), tr, nil),
		Modem:        poller,
		SendInterval: 45 * time.Second,
		PollInterval: time.Second,
		Now:          sl.clock,
		Sleep:        sl.sleep,
	}
	if err := loop.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if poller.polls != 100 {
		t.Fatalf("polls = %d, want 100", poller.polls)
	}
	if len(tr.sent) != 3 {
		t.Fatalf("uplinks = %d, want 3", len(tr.sent))
	}
}

func TestLoopsStopOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr := &fakeTransport{}
	h := &HTTPLoop{Pipeline: httpPipeline(t, &countingScanner{}, tr, nil), Link: &fakeLink{}}
	if err := h.Run(ctx); err != nil {
		t.Fatalf("HTTPLoop.Run: %v", err)
	}
	l := &LoRaLoop{Pipeline: loraPipeline(scan.NewStatic(nil), tr, nil), Modem: &fakePoller{}}
	if err := l.Run(ctx); err != nil {
		t.Fatalf("LoRaLoop.Run: %v", err)
	}
	if len(tr.sent) != 0 {
		t.Fatalf("no uplink expected after cancellation, got %d", len(tr.sent))
	}
}
