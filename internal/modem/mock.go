package modem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/goburrow/serial"
	"github.com/rs/zerolog/log"
)

// Mock answers AT commands the way a LoRa-E5 style modem does. It backs the
// bench simulator and the in-memory "sim" port.
type Mock struct {
	// JoinFails makes every AT+JOIN report a failed join.
	JoinFails bool
	// DownlinkEvery attaches DownlinkHex to every Nth uplink; 0 disables it.
	DownlinkEvery int
	DownlinkHex   string

	mu      sync.Mutex
	joined  bool
	uplinks int
	history []string
}

func NewMock() *Mock { return &Mock{DownlinkHex: "01"} }

// Reply returns the lines the modem prints for one command.
func (m *Mock) Reply(cmd string) []string {
	cmd = strings.TrimSpace(cmd)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, cmd)

	name, arg, _ := strings.Cut(strings.TrimPrefix(cmd, "AT"), "=")
	name = strings.TrimPrefix(name, "+")
	switch {
	case cmd == "AT":
		return []string{"+AT: OK"}
	case name == "ID" || name == "KEY":
		return []string{fmt.Sprintf("+%s: %s", name, strings.ReplaceAll(arg, "\"", ""))}
	case name == "DR" || name == "MODE":
		return []string{fmt.Sprintf("+%s: %s", name, arg)}
	case name == "JOIN":
		if m.JoinFails {
			return []string{"+JOIN: Start", "+JOIN: NORMAL", "+JOIN: Join failed", "+JOIN: Done"}
		}
		m.joined = true
		return []string{"+JOIN: Start", "+JOIN: NORMAL", "+JOIN: Network joined", "+JOIN: NetID 000013 DevAddr 26:01:1B:2C", "+JOIN: Done"}
	case name == "MSGHEX":
		if !m.joined {
			return []string{"+MSGHEX: Please join network first"}
		}
		m.uplinks++
		out := []string{"+MSGHEX: Start", "+MSGHEX: FPENDING"}
		if m.DownlinkEvery > 0 && m.uplinks%m.DownlinkEvery == 0 {
			out = append(out, fmt.Sprintf("+MSGHEX: PORT: 1; RX: \"%s\"", m.DownlinkHex))
		}
		return append(out, "+MSGHEX: RXWIN1, RSSI -106, SNR 4.0", "+MSGHEX: Done")
	default:
		return []string{fmt.Sprintf("+%s: ERROR(-1)", name)}
	}
}

// History returns every command received so far.
func (m *Mock) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.history...)
}

// Serve reads CRLF-terminated commands from rw and writes the replies until
// ctx is done or the stream ends.
func (m *Mock) Serve(ctx context.Context, rw io.ReadWriter) error {
	var pending []byte
	buf := make([]byte, 256)
	for ctx.Err() == nil {
		n, err := rw.Read(buf)
		pending = append(pending, buf[:n]...)
		for {
			i := bytes.IndexByte(pending, '\n')
			if i < 0 {
				break
			}
			cmd := strings.TrimSpace(string(pending[:i]))
			pending = pending[i+1:]
			if cmd == "" {
				continue
			}
			reply := m.Reply(cmd)
			log.Debug().Str("command", cmd).Strs("reply", reply).Msg("mock modem")
			if _, werr := io.WriteString(rw, strings.Join(reply, "\r\n")+"\r\n"); werr != nil {
				return werr
			}
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, serial.ErrTimeout), os.IsTimeout(err):
		default:
			return err
		}
	}
	return nil
}

// Port returns an in-memory port: every command written is answered
// immediately and reads return io.EOF once the replies are consumed.
func (m *Mock) Port() io.ReadWriter { return &mockPort{m: m} }

type mockPort struct {
	m   *Mock
	in  []byte
	out bytes.Buffer
}

func (p *mockPort) Write(b []byte) (int, error) {
	p.in = append(p.in, b...)
	for {
		i := bytes.IndexByte(p.in, '\n')
		if i < 0 {
			break
		}
		cmd := string(p.in[:i])
		p.in = p.in[i+1:]
		if strings.TrimSpace(cmd) == "" {
			continue
		}
		p.out.WriteString(strings.Join(p.m.Reply(cmd), "\r\n") + "\r\n")
	}
	return len(b), nil
}

func (p *mockPort) Read(b []byte) (int, error) {
	if p.out.Len() == 0 {
		return 0, io.EOF
	}
	return p.out.Read(b)
}
