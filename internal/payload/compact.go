package payload

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"

	"wifi-sampler/internal/model"
)

// SlotWidth is the hex width of one compact slot: 12 for the address, 2 for RSSI.
const SlotWidth = 14

var emptySlot = strings.Repeat("0", SlotWidth)

// ErrInvalidLength is returned when a compact payload is not a whole number of slots.
var ErrInvalidLength = errors.New("compact payload length is not a multiple of 14")

// Compact is the fixed-width hex encoding sent over LoRaWAN. Each slot is the
// big-endian address followed by the RSSI as a two's-complement byte; empty
// slots are 14 zeros. Slots are concatenated without separators.
type Compact struct{}

func (Compact) Encode(set model.CandidateSet) (model.Payload, error) {
	var sb strings.Builder
	sb.Grow(len(set.Slots) * SlotWidth)
	for _, c := range set.Slots {
		if c.Empty() {
			sb.WriteString(emptySlot)
			continue
		}
		fmt.Fprintf(&sb, "%X%02X", c.Network.BSSID[:], rssiByte(c.Network.RSSI))
	}
	return model.Payload{ContentType: ContentTypeHex, Body: []byte(sb.String()), Candidates: set.Len()}, nil
}

// rssiByte clamps to the int8 range before reinterpreting as unsigned.
func rssiByte(rssi int) byte {
	if rssi < math.MinInt8 {
		rssi = math.MinInt8
	}
	if rssi > math.MaxInt8 {
		rssi = math.MaxInt8
	}
	return byte(int8(rssi))
}

// Reading is one decoded compact slot.
type Reading struct {
	MAC  model.HardwareAddr `json:"mac"`
	RSSI int                `json:"rssi"`
}

// DecodeCompact parses a compact payload the way the backend does: padding
// slots (all-zero address) are dropped.
func DecodeCompact(s string) ([]Reading, error) {
	s = strings.TrimSpace(s)
	if len(s)%SlotWidth != 0 {
		return nil, fmt.Errorf("%w: got %d characters", ErrInvalidLength, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	out := make([]Reading, 0, len(raw)/7)
	for off := 0; off < len(raw); off += 7 {
		var r Reading
		copy(r.MAC[:], raw[off:off+6])
		if r.MAC.IsZero() {
			continue
		}
		r.RSSI = int(int8(raw[off+6]))
		out = append(out, r)
	}
	return out, nil
}
