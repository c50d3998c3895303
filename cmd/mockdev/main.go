// Command mockdev simulates the agent's peripherals on a bench: a LoRa-E5
// style modem on a virtual serial line and a Modbus-TCP output module for
// the uplink indicator.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"wifi-sampler/internal/config"
	"wifi-sampler/internal/logging"
	"wifi-sampler/internal/modbus"
	"wifi-sampler/internal/modem"
	"wifi-sampler/internal/utils"
)

type RootConfig struct {
	Log   config.LogConfig `yaml:"log"`
	Modem ModemEndpoint    `yaml:"modem"`
	Coils CoilEndpoint     `yaml:"coils"`
}

type ModemEndpoint struct {
	SerialPort string `yaml:"serial_port"` // end opened by the simulator
	BaudRate   int    `yaml:"baud_rate"`

	// Optional: auto-create a virtual serial pair via socat (Unix-like systems)
	SpawnSocat bool   `yaml:"spawn_socat"`
	SocatPeer  string `yaml:"socat_peer"` // end given to the agent as lora.serial.port

	JoinFails     bool   `yaml:"join_fails"`
	DownlinkEvery int    `yaml:"downlink_every"`
	DownlinkHex   string `yaml:"downlink_hex"`
}

type CoilEndpoint struct {
	ListenAddress string `yaml:"listen_address"` // empty disables the output module
}

func loadConfig(path string) (RootConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return RootConfig{}, err
	}
	var cfg RootConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RootConfig{}, err
	}
	if cfg.Modem.DownlinkHex == "" {
		cfg.Modem.DownlinkHex = "01"
	}
	return cfg, nil
}

func runModem(ctx context.Context, ep ModemEndpoint) error {
	if ep.SerialPort == "" {
		return nil
	}
	var socatCmd *exec.Cmd
	if ep.SpawnSocat {
		if ep.SocatPeer == "" {
			return fmt.Errorf("spawn_socat requires socat_peer")
		}
		socatCmd = utils.BuildSocatPairCmd(ctx, utils.SocatPair{Link: ep.SerialPort, Peer: ep.SocatPeer})
		socatCmd.Stdout = os.Stdout
		socatCmd.Stderr = os.Stderr
		if err := socatCmd.Start(); err != nil {
			return fmt.Errorf("start socat: %w", err)
		}
		log.Info().Str("link", ep.SerialPort).Str("peer", ep.SocatPeer).Int("pid", socatCmd.Process.Pid).Msg("spawned socat pair")
		// give socat time to create the links
		time.Sleep(400 * time.Millisecond)
	}

	port, err := utils.OpenSerial(utils.SerialParams{Address: ep.SerialPort, BaudRate: ep.BaudRate, Timeout: time.Second})
	if err != nil {
		return err
	}
	defer port.Close()

	m := modem.NewMock()
	m.JoinFails = ep.JoinFails
	m.DownlinkEvery = ep.DownlinkEvery
	m.DownlinkHex = ep.DownlinkHex
	log.Info().Str("port", ep.SerialPort).Bool("join_fails", ep.JoinFails).Int("downlink_every", ep.DownlinkEvery).Msg("mock modem listening")

	err = m.Serve(ctx, port)
	if socatCmd != nil && socatCmd.Process != nil {
		_ = socatCmd.Process.Signal(syscall.SIGTERM)
		done := make(chan struct{})
		go func() { _ = socatCmd.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			_ = socatCmd.Process.Kill()
		}
	}
	return err
}

func runCoils(ctx context.Context, ep CoilEndpoint) error {
	if ep.ListenAddress == "" {
		return nil
	}
	s := modbus.NewCoilServer()
	s.OnWrite = func(w modbus.CoilWrite) {
		log.Info().Uint16("coil", w.Address).Bool("on", w.On).Msg("indicator")
	}
	if err := s.Listen(ep.ListenAddress); err != nil {
		return err
	}
	log.Info().Str("addr", s.Addr()).Msg("mock output module listening")
	<-ctx.Done()
	s.Close()
	return nil
}

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config/mockdev.yaml", "path to mockdev YAML config")
	flag.Parse()

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup
	for name, run := range map[string]func(context.Context) error{
		"modem": func(ctx context.Context) error { return runModem(ctx, cfg.Modem) },
		"coils": func(ctx context.Context) error { return runCoils(ctx, cfg.Coils) },
	} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil {
				log.Error().Err(err).Str("endpoint", name).Msg("simulator stopped")
				cancel()
			}
		}()
	}
	wg.Wait()
}
