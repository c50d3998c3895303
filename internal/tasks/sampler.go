package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"wifi-sampler/internal/classify"
	"wifi-sampler/internal/config"
	"wifi-sampler/internal/indicator"
	"wifi-sampler/internal/link"
	"wifi-sampler/internal/logging"
	"wifi-sampler/internal/metrics"
	"wifi-sampler/internal/modem"
	"wifi-sampler/internal/payload"
	"wifi-sampler/internal/pipeline"
	"wifi-sampler/internal/rank"
	"wifi-sampler/internal/scan"
	"wifi-sampler/internal/transport"
	"wifi-sampler/internal/utils"
)

// Options defines initialization overrides for the sampler.
// Mirrors the CLI flags used in cmd/sampler/main.go.
type Options struct {
	ConfigPath string
	Variant    string
	LogLevel   string
}

// InitAndRunSampler loads config, applies overrides, wires the selected
// variant and runs it until ctx is done.
func InitAndRunSampler(ctx context.Context, opts Options) error {
	cfg, err := config.LoadYAML(opts.ConfigPath, opts.Variant)
	if err != nil {
		return err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	logging.Init(cfg.Log)

	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if cfg.Metrics.Listen != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Listen); err != nil {
				log.Error().Err(err).Msg("metrics listener")
			}
		}()
	}

	sc, err := NewScanner(cfg.Scanner)
	if err != nil {
		return err
	}
	ind, err := indicator.New(cfg.Indicator)
	if err != nil {
		return err
	}
	if c, ok := ind.(io.Closer); ok {
		defer c.Close()
	}

	log.Info().Str("variant", cfg.Variant).Str("scanner", cfg.Scanner.Kind).Msg("sampler starting")
	switch cfg.Variant {
	case config.VariantHTTP:
		return runHTTP(ctx, cfg, sc, ind, m)
	case config.VariantLoRa:
		return runLoRa(ctx, cfg, sc, ind, m)
	}
	return config.ErrNoVariant
}

// NewScanner builds the scan primitive selected in cfg.
func NewScanner(cfg config.ScannerConfig) (scan.Scanner, error) {
	switch cfg.Kind {
	case "static":
		return scan.LoadStatic(cfg.Fixture)
	case "", "iw":
		return scan.NewIW(cfg.Interface, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("scanner kind %q not implemented", cfg.Kind)
	}
}

// ScannerID is the configured id or, when empty, the MAC address of the
// scanning interface.
func ScannerID(cfg config.Config) (string, error) {
	if cfg.HTTP.ScannerID != "" {
		return cfg.HTTP.ScannerID, nil
	}
	addr, err := scan.LocalAddr(cfg.Scanner.Interface)
	if err != nil {
		return "", fmt.Errorf("scanner id: %w", err)
	}
	return addr.String(), nil
}

// NewHTTPLoop wires variant A. The link is passed in so a static scanner
// can run without a real Wi-Fi interface.
func NewHTTPLoop(cfg config.Config, sc scan.Scanner, lk link.Link, ind indicator.Indicator, m *metrics.Collector, scannerID string) *pipeline.HTTPLoop {
	h := cfg.HTTP
	c := classify.NewAllowlist(h.SelfSSID, h.Blacklist, h.Allowlist)
	p := &pipeline.Pipeline{
		Variant:   config.VariantHTTP,
		Scanner:   sc,
		Ranker:    rank.NewBounded(c, h.MaxNetworks),
		Encoder:   payload.JSON{ScannerID: scannerID},
		Transport: transport.NewHTTP(h.ServerURL, h.Timeout),
		SkipEmpty: true,
		Indicator: ind,
		Metrics:   m,
	}
	return &pipeline.HTTPLoop{
		Pipeline:         p,
		Link:             lk,
		Interval:         h.Interval,
		ReconnectBackoff: h.ReconnectBackoff,
		Metrics:          m,
	}
}

func runHTTP(ctx context.Context, cfg config.Config, sc scan.Scanner, ind indicator.Indicator, m *metrics.Collector) error {
	id, err := ScannerID(cfg)
	if err != nil {
		return err
	}
	var lk link.Link = link.Up{}
	if cfg.Scanner.Kind != "static" {
		lk = link.NewNmcli(cfg.Scanner.Interface, cfg.HTTP.Hotspot.SSID, cfg.HTTP.Hotspot.Password)
		if !lk.Connected(ctx) {
			if err := lk.Reconnect(ctx); err != nil {
				log.Warn().Err(err).Msg("initial connect")
			}
		}
		if err := link.WaitConnected(ctx, lk, cfg.HTTP.ConnectPoll); err != nil {
			return nil
		}
	}
	log.Info().Str("scanner_id", id).Str("server", cfg.HTTP.ServerURL).Msg("wifi link up")
	return NewHTTPLoop(cfg, sc, lk, ind, m, id).Run(ctx)
}

// NewLoRaLoop wires variant B over an already started modem channel.
func NewLoRaLoop(cfg config.Config, sc scan.Scanner, ch *modem.Channel, ind indicator.Indicator, m *metrics.Collector) *pipeline.LoRaLoop {
	l := cfg.LoRa
	p := &pipeline.Pipeline{
		Variant:   config.VariantLoRa,
		Scanner:   sc,
		Ranker:    rank.NewTopK(classify.NewHotspot(l.BlockedTokens), l.NetworksToSend),
		Encoder:   payload.Compact{},
		Transport: transport.NewLoRa(ch),
		Indicator: ind,
		Metrics:   m,
	}
	return &pipeline.LoRaLoop{
		Pipeline:     p,
		Modem:        ch,
		SendInterval: l.SendInterval,
		PollInterval: l.PollInterval,
	}
}

// ModemChannel builds the command channel options from cfg.
func ModemChannel(port io.ReadWriter, cfg config.LoRaConfig, m *metrics.Collector) *modem.Channel {
	return modem.NewChannel(port, modem.Options{
		SettleDelay:    cfg.SettleDelay,
		DownlinkTag:    cfg.DownlinkTag,
		DownlinkMarker: cfg.DownlinkMarker,
		OnDownlink:     func(string) { m.Downlink() },
	})
}

// StartModem provisions the modem and joins the network.
func StartModem(ctx context.Context, ch *modem.Channel, cfg config.LoRaConfig) error {
	id := modem.Identity{DevEUI: cfg.DevEUI, AppEUI: cfg.AppEUI, AppKey: cfg.AppKey}
	s := modem.Session{
		Region:      cfg.Region,
		Mode:        cfg.Mode,
		DataRate:    cfg.DataRate,
		JoinWait:    cfg.JoinWait,
		JoinMarker:  cfg.JoinMarker,
		RequireJoin: cfg.JoinPolicy == config.JoinRequire,
	}
	return ch.Start(ctx, id, s)
}

func runLoRa(ctx context.Context, cfg config.Config, sc scan.Scanner, ind indicator.Indicator, m *metrics.Collector) error {
	var port io.ReadWriter
	if cfg.LoRa.Serial.Port == config.SimulatedPort {
		log.Warn().Msg("using simulated modem")
		port = modem.NewMock().Port()
	} else {
		sp, err := utils.OpenSerial(utils.SerialParamsFrom(cfg.LoRa.Serial))
		if err != nil {
			return fmt.Errorf("open modem %s: %w", cfg.LoRa.Serial.Port, err)
		}
		defer sp.Close()
		port = sp
	}

	ch := ModemChannel(port, cfg.LoRa, m)
	if err := StartModem(ctx, ch, cfg.LoRa); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return NewLoRaLoop(cfg, sc, ch, ind, m).Run(ctx)
}
