package rank

import (
	"wifi-sampler/internal/classify"
	"wifi-sampler/internal/model"
)

// DefaultNetworksToSend is the slot count of the compact uplink.
const DefaultNetworksToSend = 3

// TopK keeps the K strongest eligible networks in a fixed slot array sorted
// by descending RSSI. A candidate only displaces a slot it is strictly
// stronger than, so among equal signals the earlier discovery wins. Unused
// slots stay sentinel (index -1, rssi -100); a network at or below -100 dBm
// can therefore never be seated.
type TopK struct {
	Classifier classify.Classifier
	K          int
}

func NewTopK(c classify.Classifier, k int) *TopK {
	if k <= 0 {
		k = DefaultNetworksToSend
	}
	return &TopK{Classifier: c, K: k}
}

func (t *TopK) Rank(nets []model.ObservedNetwork) model.CandidateSet {
	slots := make([]model.Candidate, t.K)
	for i := range slots {
		slots[i] = model.SentinelCandidate()
	}
	for i, n := range nets {
		if !t.Classifier.Classify(n.SSID).Eligible {
			continue
		}
		for j := range slots {
			if n.RSSI > slots[j].Network.RSSI {
				copy(slots[j+1:], slots[j:len(slots)-1])
				slots[j] = model.Candidate{Index: i, Network: n}
				break
			}
		}
	}
	return model.CandidateSet{Slots: slots}
}
