// Package modem drives a LoRaWAN modem over its AT command line.
//
// The line is half duplex and owned by a single goroutine: a command is
// written, the channel waits a fixed settle delay and then drains whatever
// the modem has buffered. Replies are not correlated with requests, so a
// reply slower than the settle delay is picked up by the next read, whether
// that is another command or a downlink poll.
package modem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goburrow/serial"
	"github.com/rs/zerolog/log"
)

const maxDrain = 4096

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Options struct {
	SettleDelay    time.Duration
	DownlinkTag    string
	DownlinkMarker string
	Sleep          Sleeper
	// OnDownlink is called for every downlink notification seen.
	OnDownlink func(line string)
}

// Response is what the modem printed after one command.
type Response struct {
	Command   string
	Raw       string
	Lines     []string
	Downlinks []string
}

// Contains reports whether any response line contains s.
func (r Response) Contains(s string) bool {
	for _, l := range r.Lines {
		if strings.Contains(l, s) {
			return true
		}
	}
	return false
}

// Channel is the command channel. It is not safe for concurrent use.
type Channel struct {
	port    io.ReadWriter
	opts    Options
	pending []byte
}

func NewChannel(port io.ReadWriter, opts Options) *Channel {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = time.Second
	}
	if opts.DownlinkTag == "" {
		opts.DownlinkTag = "+MSG"
	}
	if opts.DownlinkMarker == "" {
		opts.DownlinkMarker = "RX:"
	}
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}
	return &Channel{port: port, opts: opts}
}

// SendCommand writes cmd, waits the settle delay and drains the reply.
func (c *Channel) SendCommand(ctx context.Context, cmd string) (Response, error) {
	resp := Response{Command: cmd}
	if _, err := io.WriteString(c.port, cmd+"\r\n"); err != nil {
		return resp, fmt.Errorf("write %q: %w", cmd, err)
	}
	if err := c.opts.Sleep(ctx, c.opts.SettleDelay); err != nil {
		return resp, err
	}
	return c.collect(resp)
}

// Drain reads whatever is buffered without sending anything.
func (c *Channel) Drain(ctx context.Context) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	return c.collect(Response{})
}

func (c *Channel) collect(resp Response) (Response, error) {
	block, err := c.drain()
	block = append(c.pending, block...)
	c.pending = nil
	resp.Raw = string(block)
	resp.Lines = splitLines(resp.Raw)
	for _, l := range resp.Lines {
		if c.isDownlink(l) {
			resp.Downlinks = append(resp.Downlinks, l)
			c.notify(l)
		}
	}
	ev := log.Info().Str("command", resp.Command).Strs("response", resp.Lines)
	if err != nil {
		ev = log.Warn().Err(err).Str("command", resp.Command).Strs("response", resp.Lines)
	}
	ev.Msg("modem exchange")
	return resp, err
}

// PollDownlink consumes complete buffered lines, logs every non-empty one and
// returns those that are downlink notifications. A trailing partial line is
// kept for the next read.
func (c *Channel) PollDownlink() ([]string, error) {
	block, err := c.drain()
	c.pending = append(c.pending, block...)

	var downlinks []string
	for {
		i := strings.IndexByte(string(c.pending), '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(c.pending[:i]))
		c.pending = c.pending[i+1:]
		if line == "" {
			continue
		}
		log.Info().Str("line", line).Msg("modem")
		if c.isDownlink(line) {
			downlinks = append(downlinks, line)
			c.notify(line)
		}
	}
	if len(c.pending) == 0 {
		c.pending = nil
	}
	return downlinks, err
}

func (c *Channel) isDownlink(line string) bool {
	return strings.Contains(line, c.opts.DownlinkTag) && strings.Contains(line, c.opts.DownlinkMarker)
}

func (c *Channel) notify(line string) {
	log.Info().Str("line", line).Msg("downlink received")
	if c.opts.OnDownlink != nil {
		c.opts.OnDownlink(line)
	}
}

// drain reads until the port reports nothing more is buffered.
func (c *Channel) drain() ([]byte, error) {
	var out []byte
	buf := make([]byte, 256)
	for len(out) < maxDrain {
		n, err := c.port.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			if isIdle(err) {
				return out, nil
			}
			return out, fmt.Errorf("read modem: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return out, nil
}

// isIdle reports read errors meaning "no more bytes right now".
func isIdle(err error) bool {
	return errors.Is(err, serial.ErrTimeout) || errors.Is(err, io.EOF) || os.IsTimeout(err)
}

func splitLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
