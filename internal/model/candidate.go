package model

// Sentinel values marking an unfilled ranking slot.
const (
	SentinelIndex = -1
	SentinelRSSI  = -100
)

// Candidate is a ranked slot: the scan position of the network it holds
// and a copy of the network itself.
type Candidate struct {
	Index   int
	Network ObservedNetwork
}

// SentinelCandidate returns an empty slot.
func SentinelCandidate() Candidate {
	return Candidate{Index: SentinelIndex, Network: ObservedNetwork{RSSI: SentinelRSSI}}
}

func (c Candidate) Empty() bool { return c.Index == SentinelIndex }

// CandidateSet is the bounded per-cycle selection produced by a ranker.
// Fixed-slot rankers pad it with sentinel candidates.
type CandidateSet struct {
	Slots []Candidate
}

// Len counts the slots holding a real network.
func (s CandidateSet) Len() int {
	n := 0
	for _, c := range s.Slots {
		if !c.Empty() {
			n++
		}
	}
	return n
}

// Networks returns the real networks in slot order.
func (s CandidateSet) Networks() []ObservedNetwork {
	out := make([]ObservedNetwork, 0, len(s.Slots))
	for _, c := range s.Slots {
		if !c.Empty() {
			out = append(out, c.Network)
		}
	}
	return out
}

// Payload is an encoded candidate set ready for a transport.
// It is discarded after the transmission attempt.
type Payload struct {
	ContentType string
	Body        []byte
	Candidates  int
}
