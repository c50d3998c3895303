package model

import (
	"fmt"
	"net"
	"strings"
)

// HardwareAddr is the 6-byte identifier of a radio interface.
type HardwareAddr [6]byte

// ParseHardwareAddr accepts colon, dash or dot separated EUI-48 text.
func ParseHardwareAddr(s string) (HardwareAddr, error) {
	var a HardwareAddr
	hw, err := net.ParseMAC(strings.TrimSpace(s))
	if err != nil {
		return a, err
	}
	if len(hw) != len(a) {
		return a, fmt.Errorf("hardware address %q is %d bytes, want 6", s, len(hw))
	}
	copy(a[:], hw)
	return a, nil
}

// String returns the canonical upper-case colon form, e.g. AA:BB:CC:DD:EE:01.
func (a HardwareAddr) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

func (a HardwareAddr) IsZero() bool { return a == HardwareAddr{} }

func (a HardwareAddr) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *HardwareAddr) UnmarshalText(b []byte) error {
	v, err := ParseHardwareAddr(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ObservedNetwork is one access point reported by a scan.
// Values are copied out of the scan result, so they stay valid after the next scan.
type ObservedNetwork struct {
	SSID    string       `yaml:"ssid" json:"ssid"`
	BSSID   HardwareAddr `yaml:"mac" json:"mac"`
	RSSI    int          `yaml:"rssi" json:"rssi"`
	Channel int          `yaml:"channel" json:"channel"`
}
