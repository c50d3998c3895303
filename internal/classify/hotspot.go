package classify

// DefaultHotspotTokens are the personal-hotspot markers rejected by the
// LoRaWAN agent.
var DefaultHotspotTokens = []string{"IPHONE", "ANDROID"}

// Hotspot rejects empty names and names that look like phone hotspots.
type Hotspot struct {
	tokens []string
}

// NewHotspot uses DefaultHotspotTokens when tokens is empty.
func NewHotspot(tokens []string) *Hotspot {
	if len(tokens) == 0 {
		tokens = DefaultHotspotTokens
	}
	return &Hotspot{tokens: upperAll(tokens)}
}

func (h *Hotspot) Classify(name string) Verdict {
	if name == "" {
		return reject(ReasonEmpty)
	}
	if containsAny(upperASCII(name), h.tokens) {
		return reject(ReasonHotspot)
	}
	return eligible
}
