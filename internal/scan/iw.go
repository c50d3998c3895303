package scan

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"wifi-sampler/internal/model"
)

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// IW scans with `iw dev <iface> scan`. It needs CAP_NET_ADMIN.
type IW struct {
	Interface string
	Timeout   time.Duration
	Run       Runner
}

func NewIW(iface string, timeout time.Duration) *IW {
	return &IW{Interface: iface, Timeout: timeout, Run: execRunner}
}

func (s *IW) Scan(ctx context.Context) ([]model.ObservedNetwork, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	out, err := s.Run(ctx, "iw", "dev", s.Interface, "scan")
	if err != nil {
		return nil, fmt.Errorf("iw scan %s: %w", s.Interface, err)
	}
	return ParseIW(out)
}

// ParseIW reads `iw scan` output in discovery order. Entries with an
// unparsable BSS line are skipped.
func ParseIW(out []byte) ([]model.ObservedNetwork, error) {
	var (
		nets []model.ObservedNetwork
		cur  *model.ObservedNetwork
		freq int
	)
	flush := func() {
		if cur == nil {
			return
		}
		if cur.Channel == 0 {
			cur.Channel = channelFromFreq(freq)
		}
		nets = append(nets, *cur)
		cur, freq = nil, 0
	}

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		raw := sc.Text()
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(raw, "BSS ") {
			flush()
			field := strings.TrimPrefix(raw, "BSS ")
			if i := strings.IndexAny(field, "( "); i >= 0 {
				field = field[:i]
			}
			addr, err := model.ParseHardwareAddr(field)
			if err != nil {
				continue
			}
			cur = &model.ObservedNetwork{BSSID: addr, RSSI: model.SentinelRSSI}
			continue
		}
		if cur == nil {
			continue
		}
		switch {
		case strings.HasPrefix(line, "SSID:"):
			cur.SSID = strings.TrimSpace(strings.TrimPrefix(line, "SSID:"))
		case strings.HasPrefix(line, "signal:"):
			f := strings.Fields(strings.TrimPrefix(line, "signal:"))
			if len(f) > 0 {
				if v, err := strconv.ParseFloat(f[0], 64); err == nil {
					cur.RSSI = int(math.Round(v))
				}
			}
		case strings.HasPrefix(line, "freq:"):
			f := strings.Fields(strings.TrimPrefix(line, "freq:"))
			if len(f) > 0 {
				if v, err := strconv.ParseFloat(f[0], 64); err == nil {
					freq = int(v)
				}
			}
		case strings.HasPrefix(line, "DS Parameter set: channel"):
			cur.Channel = atoiTail(line)
		case strings.HasPrefix(line, "* primary channel:"):
			if cur.Channel == 0 {
				cur.Channel = atoiTail(line)
			}
		}
	}
	flush()
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return nets, nil
}

func atoiTail(line string) int {
	f := strings.Fields(line)
	if len(f) == 0 {
		return 0
	}
	n, _ := strconv.Atoi(f[len(f)-1])
	return n
}

func channelFromFreq(mhz int) int {
	switch {
	case mhz == 2484:
		return 14
	case mhz >= 2412 && mhz <= 2472:
		return (mhz - 2407) / 5
	case mhz >= 5000 && mhz < 5900:
		return (mhz - 5000) / 5
	}
	return 0
}
