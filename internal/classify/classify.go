// Package classify decides whether an observed network name may be reported.
//
// Classifiers are pure: the same name always yields the same verdict and no
// state is kept between calls. Case folding is ASCII-only so the result does
// not depend on the host locale or on Unicode case tables.
package classify

import "strings"

// Reason names the rule that rejected a network.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonEmpty          Reason = "empty"
	ReasonSelf           Reason = "self"
	ReasonBlacklisted    Reason = "blacklisted"
	ReasonNotAllowlisted Reason = "not-allowlisted"
	ReasonHotspot        Reason = "hotspot"
)

// Verdict is the outcome of classifying one name.
type Verdict struct {
	Eligible bool
	Reason   Reason
}

var eligible = Verdict{Eligible: true}

func reject(r Reason) Verdict { return Verdict{Reason: r} }

// Classifier is implemented by every SSID filter.
type Classifier interface {
	Classify(name string) Verdict
}

// upperASCII maps a-z to A-Z and leaves every other byte untouched.
func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		out = append(out, upperASCII(s))
	}
	return out
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
