package utils

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/goburrow/serial"

	"wifi-sampler/internal/config"
)

// SerialParams describes the modem line. The zero value is completed to
// 9600 baud, 8 data bits, no parity, 1 stop bit.
type SerialParams struct {
	Address  string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
	Timeout  time.Duration
}

func SerialParamsFrom(sc config.SerialConfig) SerialParams {
	return SerialParams{
		Address:  sc.Port,
		BaudRate: sc.BaudRate,
		DataBits: sc.DataBits,
		StopBits: sc.StopBits,
		Parity:   sc.Parity,
		Timeout:  sc.ReadTimeout,
	}
}

func EnsureSerialDefaults(sp *SerialParams) {
	if sp.BaudRate == 0 {
		sp.BaudRate = 9600
	}
	if sp.DataBits == 0 {
		sp.DataBits = 8
	}
	if sp.StopBits == 0 {
		sp.StopBits = 1
	}
	if sp.Parity == "" {
		sp.Parity = "N"
	}
	sp.Parity = strings.ToUpper(strings.TrimSpace(sp.Parity))
	// short read timeout: reads double as "is anything buffered" probes
	if sp.Timeout <= 0 {
		sp.Timeout = 100 * time.Millisecond
	}
}

// OpenSerial opens the port. Reads return serial.ErrTimeout once Timeout
// passes without a byte.
func OpenSerial(sp SerialParams) (serial.Port, error) {
	EnsureSerialDefaults(&sp)
	sc := &serial.Config{
		Address:  sp.Address,
		BaudRate: sp.BaudRate,
		DataBits: sp.DataBits,
		StopBits: sp.StopBits,
		Parity:   sp.Parity,
		Timeout:  sp.Timeout,
	}
	return serial.Open(sc)
}

// SocatPair names the two ends of a virtual serial line.
type SocatPair struct {
	Link string
	Peer string
}

// BuildSocatPairCmd returns the socat command creating pair; the caller
// starts it and owns the process.
func BuildSocatPairCmd(ctx context.Context, pair SocatPair) *exec.Cmd {
	return exec.CommandContext(ctx, "socat",
		"-d", "-d",
		"pty,raw,echo=0,link="+pair.Link,
		"pty,raw,echo=0,link="+pair.Peer,
	)
}
