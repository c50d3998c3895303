package classify

// Allowlist accepts only known institutional networks. Rules run in order
// and the first match wins: empty, self, blacklisted token, not allowlisted.
type Allowlist struct {
	self      string
	blacklist []string
	allowed   map[string]struct{}
}

// NewAllowlist builds the variant used by the HTTP agent. self is the name of
// the hotspot the device itself uses; it is never reported.
func NewAllowlist(self string, blacklist, allowed []string) *Allowlist {
	a := &Allowlist{
		self:      upperASCII(self),
		blacklist: upperAll(blacklist),
		allowed:   make(map[string]struct{}, len(allowed)),
	}
	for _, n := range upperAll(allowed) {
		a.allowed[n] = struct{}{}
	}
	return a
}

func (a *Allowlist) Classify(name string) Verdict {
	if name == "" {
		return reject(ReasonEmpty)
	}
	up := upperASCII(name)
	if a.self != "" && up == a.self {
		return reject(ReasonSelf)
	}
	if containsAny(up, a.blacklist) {
		return reject(ReasonBlacklisted)
	}
	if _, ok := a.allowed[up]; !ok {
		return reject(ReasonNotAllowlisted)
	}
	return eligible
}
