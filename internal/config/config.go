package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brocaar/lorawan"
	"gopkg.in/yaml.v3"
)

// Root configuration for the sampling agent.
// This mirrors config/sampler.yaml. It is loaded once at start-up and then
// handed to every component; nothing mutates it afterwards.

type Config struct {
	Variant   string          `yaml:"variant"` // http | lora
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Scanner   ScannerConfig   `yaml:"scanner"`
	Indicator IndicatorConfig `yaml:"indicator"`
	HTTP      HTTPConfig      `yaml:"http"`
	LoRa      LoRaConfig      `yaml:"lora"`
}

const (
	VariantHTTP = "http"
	VariantLoRa = "lora"
)

var ErrNoVariant = errors.New("variant must be http or lora")

type LogConfig struct {
	Level   string `yaml:"level"`
	Console *bool  `yaml:"console"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty disables the /metrics listener
}

type ScannerConfig struct {
	Kind      string        `yaml:"kind"` // iw | static
	Interface string        `yaml:"interface"`
	Fixture   string        `yaml:"fixture"`
	Timeout   time.Duration `yaml:"timeout"`
}

type IndicatorConfig struct {
	Kind   string       `yaml:"kind"` // log | modbus | none
	Modbus ModbusConfig `yaml:"modbus"`
}

type ModbusConfig struct {
	Address string        `yaml:"address"` // host:port of a Modbus-TCP I/O module
	SlaveID uint8         `yaml:"slave_id"`
	Coil    uint16        `yaml:"coil"`
	Timeout time.Duration `yaml:"timeout"`
}

type Hotspot struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
}

type HTTPConfig struct {
	ServerURL        string        `yaml:"server_url"`
	ScannerID        string        `yaml:"scanner_id"`
	Timeout          time.Duration `yaml:"timeout"`
	Hotspot          Hotspot       `yaml:"hotspot"`
	SelfSSID         string        `yaml:"self_ssid"`
	Interval         time.Duration `yaml:"interval"`
	ReconnectBackoff time.Duration `yaml:"reconnect_backoff"`
	ConnectPoll      time.Duration `yaml:"connect_poll"`
	MaxNetworks      int           `yaml:"max_networks"`
	Blacklist        []string      `yaml:"blacklist"`
	Allowlist        []string      `yaml:"allowlist"`
}

type SerialConfig struct {
	Port        string        `yaml:"port"`
	BaudRate    int           `yaml:"baud_rate"`
	DataBits    int           `yaml:"data_bits"`
	StopBits    int           `yaml:"stop_bits"`
	Parity      string        `yaml:"parity"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

type LoRaConfig struct {
	Serial         SerialConfig      `yaml:"serial"`
	DevEUI         lorawan.EUI64     `yaml:"dev_eui"`
	AppEUI         lorawan.EUI64     `yaml:"app_eui"`
	AppKey         lorawan.AES128Key `yaml:"app_key"`
	Region         string            `yaml:"region"`
	Mode           string            `yaml:"mode"`
	DataRate       string            `yaml:"data_rate"`
	SettleDelay    time.Duration     `yaml:"settle_delay"`
	JoinWait       time.Duration     `yaml:"join_wait"`
	JoinPolicy     string            `yaml:"join_policy"` // proceed | require
	JoinMarker     string            `yaml:"join_marker"`
	SendInterval   time.Duration     `yaml:"send_interval"`
	PollInterval   time.Duration     `yaml:"poll_interval"`
	NetworksToSend int               `yaml:"networks_to_send"`
	BlockedTokens  []string          `yaml:"blocked_tokens"`
	DownlinkTag    string            `yaml:"downlink_tag"`
	DownlinkMarker string            `yaml:"downlink_marker"`
}

const (
	JoinProceed = "proceed"
	JoinRequire = "require"
)

// SimulatedPort as lora.serial.port runs against an in-memory modem.
const SimulatedPort = "sim"

// Default keyword lists compiled into the HTTP agent.
var (
	DefaultBlacklist = []string{"IPHONE", "ANDROID", "GALAXY", "HUAWEI", "XIAOMI", "REDMI"}
	DefaultAllowlist = []string{"eduroam", "SU-Guest", "Polytech-Sorbonne", "UPMC", "Sorbonne-Universite", "SCAI-Wifi"}
)

// LoadYAML reads, defaults and validates the configuration at path.
// A non-empty variant overrides the one in the file.
func LoadYAML(path, variant string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b, variant)
}

// Parse is LoadYAML without the file read.
func Parse(b []byte, variant string) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if variant != "" {
		cfg.Variant = variant
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.Variant = strings.ToLower(strings.TrimSpace(c.Variant))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Console == nil {
		on := true
		c.Log.Console = &on
	}

	// Scanner
	if c.Scanner.Kind == "" {
		c.Scanner.Kind = "iw"
	}
	if c.Scanner.Interface == "" {
		c.Scanner.Interface = "wlan0"
	}
	if c.Scanner.Timeout <= 0 {
		c.Scanner.Timeout = 10 * time.Second
	}

	// Indicator
	if c.Indicator.Kind == "" {
		c.Indicator.Kind = "log"
	}
	if c.Indicator.Modbus.SlaveID == 0 {
		c.Indicator.Modbus.SlaveID = 1
	}
	if c.Indicator.Modbus.Timeout <= 0 {
		c.Indicator.Modbus.Timeout = time.Second
	}

	// HTTP agent
	h := &c.HTTP
	if h.Timeout <= 0 {
		h.Timeout = 5 * time.Second
	}
	if h.SelfSSID == "" {
		h.SelfSSID = h.Hotspot.SSID
	}
	if h.Interval <= 0 {
		h.Interval = 2 * time.Second
	}
	if h.ReconnectBackoff <= 0 {
		h.ReconnectBackoff = 5 * time.Second
	}
	if h.ConnectPoll <= 0 {
		h.ConnectPoll = 500 * time.Millisecond
	}
	if h.MaxNetworks <= 0 {
		h.MaxNetworks = 20
	}
	if h.Blacklist == nil {
		h.Blacklist = DefaultBlacklist
	}
	if h.Allowlist == nil {
		h.Allowlist = DefaultAllowlist
	}

	// LoRaWAN agent
	l := &c.LoRa
	if l.Serial.BaudRate == 0 {
		l.Serial.BaudRate = 9600
	}
	if l.Serial.DataBits == 0 {
		l.Serial.DataBits = 8
	}
	if l.Serial.StopBits == 0 {
		l.Serial.StopBits = 1
	}
	if l.Serial.Parity == "" {
		l.Serial.Parity = "N"
	}
	if l.Serial.ReadTimeout <= 0 {
		l.Serial.ReadTimeout = 100 * time.Millisecond
	}
	if l.Region == "" {
		l.Region = "EU868"
	}
	if l.Mode == "" {
		l.Mode = "LWOTAA"
	}
	if l.DataRate == "" {
		l.DataRate = "DR5"
	}
	if l.SettleDelay <= 0 {
		l.SettleDelay = time.Second
	}
	if l.JoinWait <= 0 {
		l.JoinWait = 10 * time.Second
	}
	l.JoinPolicy = strings.ToLower(strings.TrimSpace(l.JoinPolicy))
	if l.JoinPolicy == "" {
		l.JoinPolicy = JoinProceed
	}
	if l.JoinMarker == "" {
		l.JoinMarker = "Network joined"
	}
	if l.SendInterval <= 0 {
		l.SendInterval = 45 * time.Second
	}
	if l.PollInterval <= 0 {
		l.PollInterval = 200 * time.Millisecond
	}
	if l.NetworksToSend <= 0 {
		l.NetworksToSend = 3
	}
	if l.BlockedTokens == nil {
		l.BlockedTokens = []string{"IPHONE", "ANDROID"}
	}
	if l.DownlinkTag == "" {
		l.DownlinkTag = "+MSG"
	}
	if l.DownlinkMarker == "" {
		l.DownlinkMarker = "RX:"
	}
}

// Validate checks the settings the selected variant depends on.
func (c Config) Validate() error {
	switch c.Variant {
	case VariantHTTP:
		if strings.TrimSpace(c.HTTP.ServerURL) == "" {
			return fmt.Errorf("http.server_url is required")
		}
	case VariantLoRa:
		if strings.TrimSpace(c.LoRa.Serial.Port) == "" {
			return fmt.Errorf("lora.serial.port is required")
		}
		if c.LoRa.DevEUI == (lorawan.EUI64{}) {
			return fmt.Errorf("lora.dev_eui is required")
		}
		if c.LoRa.AppKey == (lorawan.AES128Key{}) {
			return fmt.Errorf("lora.app_key is required")
		}
		if c.LoRa.JoinPolicy != JoinProceed && c.LoRa.JoinPolicy != JoinRequire {
			return fmt.Errorf("lora.join_policy %q (expected proceed or require)", c.LoRa.JoinPolicy)
		}
	default:
		return fmt.Errorf("%w, got %q", ErrNoVariant, c.Variant)
	}
	switch c.Scanner.Kind {
	case "iw":
	case "static":
		if c.Scanner.Fixture == "" {
			return fmt.Errorf("scanner.fixture is required for the static scanner")
		}
	default:
		return fmt.Errorf("unknown scanner.kind %q (expected iw or static)", c.Scanner.Kind)
	}
	switch c.Indicator.Kind {
	case "log", "none":
	case "modbus":
		if c.Indicator.Modbus.Address == "" {
			return fmt.Errorf("indicator.modbus.address is required")
		}
	default:
		return fmt.Errorf("unknown indicator.kind %q (expected log, modbus or none)", c.Indicator.Kind)
	}
	return nil
}
