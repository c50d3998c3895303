package classify

import "testing"

func newTestAllowlist() *Allowlist {
	return NewAllowlist("Agent-Hotspot",
		[]string{"iphone", "android", "galaxy", "huawei", "xiaomi", "redmi"},
		[]string{"eduroam", "SU-Guest", "Polytech", "UPMC", "Sorbonne-Universite", "iPhone-Lab"},
	)
}

func TestAllowlistRules(t *testing.T) {
	a := newTestAllowlist()
	cases := []struct {
		name string
		want Verdict
	}{
		{"", Verdict{Reason: ReasonEmpty}},
		{"agent-hotspot", Verdict{Reason: ReasonSelf}},
		{"AGENT-HOTSPOT", Verdict{Reason: ReasonSelf}},
		{"iPhone-Joe", Verdict{Reason: ReasonBlacklisted}},
		{"Galaxy S21", Verdict{Reason: ReasonBlacklisted}},
		// blacklist wins over an exact allowlist match
		{"iPhone-Lab", Verdict{Reason: ReasonBlacklisted}},
		{"Home-5G", Verdict{Reason: ReasonNotAllowlisted}},
		{"eduroam-2", Verdict{Reason: ReasonNotAllowlisted}},
		{"eduroam", Verdict{Eligible: true}},
		{"EDUROAM", Verdict{Eligible: true}},
		{"su-guest", Verdict{Eligible: true}},
	}
	for _, tc := range cases {
		if got := a.Classify(tc.name); got != tc.want {
			t.Errorf("Classify(%q) = %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestAllowlistSelfBeatsAllowlist(t *testing.T) {
	a := NewAllowlist("eduroam", nil, []string{"eduroam"})
	if got := a.Classify("EduRoam"); got.Eligible || got.Reason != ReasonSelf {
		t.Fatalf("self network must be rejected, got %+v", got)
	}
}

func TestAllowlistEmptySelfMatchesNothing(t *testing.T) {
	a := NewAllowlist("", nil, []string{"eduroam"})
	if got := a.Classify("eduroam"); !got.Eligible {
		t.Fatalf("expected eligible, got %+v", got)
	}
}

func TestHotspotRules(t *testing.T) {
	h := NewHotspot(nil)
	cases := map[string]Verdict{
		"":                {Reason: ReasonEmpty},
		"iPhone de Marie": {Reason: ReasonHotspot},
		"AndroidAP_1234":  {Reason: ReasonHotspot},
		"my-android":      {Reason: ReasonHotspot},
		"eduroam":         {Eligible: true},
		"Home-5G":         {Eligible: true},
	}
	for name, want := range cases {
		if got := h.Classify(name); got != want {
			t.Errorf("Classify(%q) = %+v, want %+v", name, got, want)
		}
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	classifiers := []Classifier{newTestAllowlist(), NewHotspot(nil)}
	names := []string{"", "eduroam", "iPhone", "Home", "ÉCOLE"}
	for _, c := range classifiers {
		for _, n := range names {
			first := c.Classify(n)
			for i := 0; i < 3; i++ {
				if got := c.Classify(n); got != first {
					t.Fatalf("%T.Classify(%q) changed from %+v to %+v", c, n, first, got)
				}
			}
		}
	}
}

func TestUpperASCIILeavesNonASCII(t *testing.T) {
	if got := upperASCII("café-ß"); got != "CAFé-ß" {
		t.Fatalf("upperASCII = %q", got)
	}
}
