package model

import (
	"encoding/json"
	"testing"
)

func TestParseHardwareAddr(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"aa:bb:cc:dd:ee:01", "AA:BB:CC:DD:EE:01", false},
		{" AA-BB-CC-DD-EE-02 ", "AA:BB:CC:DD:EE:02", false},
		{"aabb.ccdd.ee03", "AA:BB:CC:DD:EE:03", false},
		{"00:00:5e:10:00:00:00:01", "", true},
		{"nope", "", true},
	}
	for _, tt := range tests {
		got, err := ParseHardwareAddr(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseHardwareAddr(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && got.String() != tt.want {
			t.Errorf("ParseHardwareAddr(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestHardwareAddrText(t *testing.T) {
	var n ObservedNetwork
	if err := json.Unmarshal([]byte(`{"ssid":"eduroam","mac":"aa:bb:cc:dd:ee:01","rssi":-50}`), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if n.BSSID.String() != "AA:BB:CC:DD:EE:01" || n.BSSID.IsZero() {
		t.Fatalf("BSSID = %s", n.BSSID)
	}
	if !(HardwareAddr{}).IsZero() {
		t.Fatal("zero address not reported as zero")
	}
}

func TestCandidateSet(t *testing.T) {
	set := CandidateSet{Slots: []Candidate{
		{Index: 2, Network: ObservedNetwork{SSID: "a", RSSI: -40}},
		SentinelCandidate(),
		{Index: 0, Network: ObservedNetwork{SSID: "b", RSSI: -60}},
	}}
	if set.Len() != 2 {
		t.Fatalf("Len = %d, want 2", set.Len())
	}
	nets := set.Networks()
	if len(nets) != 2 || nets[0].SSID != "a" || nets[1].SSID != "b" {
		t.Fatalf("Networks = %+v", nets)
	}
	s := SentinelCandidate()
	if !s.Empty() || s.Network.RSSI != SentinelRSSI {
		t.Fatalf("sentinel = %+v", s)
	}
}
