// Package rank selects the networks worth reporting from one scan result.
package rank

import (
	"wifi-sampler/internal/classify"
	"wifi-sampler/internal/model"
)

// Ranker turns a scan result into a bounded candidate set.
type Ranker interface {
	Rank(nets []model.ObservedNetwork) model.CandidateSet
}

// DefaultMaxNetworks caps the HTTP document.
const DefaultMaxNetworks = 20

// Bounded keeps eligible networks in discovery order and stops scanning as
// soon as Max of them have been collected.
type Bounded struct {
	Classifier classify.Classifier
	Max        int
}

func NewBounded(c classify.Classifier, max int) *Bounded {
	if max <= 0 {
		max = DefaultMaxNetworks
	}
	return &Bounded{Classifier: c, Max: max}
}

func (b *Bounded) Rank(nets []model.ObservedNetwork) model.CandidateSet {
	set := model.CandidateSet{Slots: make([]model.Candidate, 0, min(b.Max, len(nets)))}
	for i, n := range nets {
		if len(set.Slots) >= b.Max {
			break
		}
		if !b.Classifier.Classify(n.SSID).Eligible {
			continue
		}
		set.Slots = append(set.Slots, model.Candidate{Index: i, Network: n})
	}
	return set
}
