// Package scan adapts Wi-Fi scan primitives to a common interface.
package scan

import (
	"context"
	"fmt"
	"net"

	"wifi-sampler/internal/model"
)

// Scanner returns the access points currently visible. The returned slice
// belongs to the caller; a later Scan never modifies it.
type Scanner interface {
	Scan(ctx context.Context) ([]model.ObservedNetwork, error)
}

// LocalAddr returns the hardware address of a local interface, used as the
// scanner identity.
func LocalAddr(iface string) (model.HardwareAddr, error) {
	var a model.HardwareAddr
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return a, fmt.Errorf("interface %s: %w", iface, err)
	}
	if len(ifi.HardwareAddr) != len(a) {
		return a, fmt.Errorf("interface %s has no 6-byte hardware address", iface)
	}
	copy(a[:], ifi.HardwareAddr)
	return a, nil
}
