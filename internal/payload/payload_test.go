package payload

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"wifi-sampler/internal/classify"
	"wifi-sampler/internal/model"
	"wifi-sampler/internal/rank"
)

func network(t *testing.T, ssid, mac string, rssi, channel int) model.ObservedNetwork {
	t.Helper()
	a, err := model.ParseHardwareAddr(mac)
	if err != nil {
		t.Fatalf("parse %q: %v", mac, err)
	}
	return model.ObservedNetwork{SSID: ssid, BSSID: a, RSSI: rssi, Channel: channel}
}

func TestJSONDocument(t *testing.T) {
	nets := []model.ObservedNetwork{
		network(t, "Home-5G", "10:00:00:00:00:01", -40, 36),
		network(t, "eduroam", "10:00:00:00:00:02", -55, 6),
		network(t, "iPhone-Joe", "10:00:00:00:00:03", -30, 11),
	}
	c := classify.NewAllowlist("Agent-Hotspot", []string{"iphone"}, []string{"eduroam"})
	set := rank.NewBounded(c, 20).Rank(nets)

	p, err := JSON{ScannerID: "24:6F:28:AA:BB:CC"}.Encode(set)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if p.ContentType != ContentTypeJSON || p.Candidates != 1 {
		t.Fatalf("unexpected payload meta %+v", p)
	}
	var doc Document
	if err := json.Unmarshal(p.Body, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.ScannerID != "24:6F:28:AA:BB:CC" || len(doc.Networks) != 1 {
		t.Fatalf("unexpected document %+v", doc)
	}
	want := Entry{SSID: "eduroam", MAC: "10:00:00:00:00:02", RSSI: -55, Channel: 6}
	if doc.Networks[0] != want {
		t.Fatalf("entry = %+v, want %+v", doc.Networks[0], want)
	}
}

func TestJSONEmptySetHasEmptyArray(t *testing.T) {
	p, err := JSON{ScannerID: "x"}.Encode(model.CandidateSet{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(p.Body), `"networks":[]`) {
		t.Fatalf("expected empty networks array, got %s", p.Body)
	}
}

func TestCompactEncodeRanked(t *testing.T) {
	nets := []model.ObservedNetwork{
		network(t, "a", "AA:BB:CC:DD:EE:01", -50, 1),
		network(t, "b", "AA:BB:CC:DD:EE:02", -70, 1),
		network(t, "c", "AA:BB:CC:DD:EE:03", -60, 1),
	}
	set := rank.NewTopK(classify.NewHotspot(nil), 3).Rank(nets)
	p, err := Compact{}.Encode(set)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "AABBCCDDEE01CE" + "AABBCCDDEE03C4" + "AABBCCDDEE02BA"
	if string(p.Body) != want {
		t.Fatalf("payload = %s, want %s", p.Body, want)
	}
	if p.Candidates != 3 {
		t.Fatalf("Candidates = %d", p.Candidates)
	}
}

func TestCompactAllSentinel(t *testing.T) {
	set := rank.NewTopK(classify.NewHotspot(nil), 3).Rank(nil)
	p, err := Compact{}.Encode(set)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(p.Body) != strings.Repeat("0", 42) {
		t.Fatalf("payload = %q", p.Body)
	}
}

func TestCompactPartialAndLowercaseInput(t *testing.T) {
	nets := []model.ObservedNetwork{network(t, "x", "0a:0b:0c:0d:0e:0f", -1, 1)}
	set := rank.NewTopK(classify.NewHotspot(nil), 3).Rank(nets)
	p, _ := Compact{}.Encode(set)
	want := "0A0B0C0D0E0FFF" + strings.Repeat("0", 28)
	if string(p.Body) != want {
		t.Fatalf("payload = %s, want %s", p.Body, want)
	}
	if len(p.Body) != 3*SlotWidth {
		t.Fatalf("length = %d", len(p.Body))
	}
}

func TestRSSIByteClamps(t *testing.T) {
	cases := map[int]byte{-50: 0xCE, -128: 0x80, -200: 0x80, 0: 0x00, 127: 0x7F, 300: 0x7F}
	for in, want := range cases {
		if got := rssiByte(in); got != want {
			t.Errorf("rssiByte(%d) = %02X, want %02X", in, got, want)
		}
	}
}

func TestDecodeCompact(t *testing.T) {
	got, err := DecodeCompact("AABBCCDDEE01CE" + strings.Repeat("0", 14) + "AABBCCDDEE02BA")
	if err != nil {
		t.Fatalf("DecodeCompact: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(got))
	}
	if got[0].MAC.String() != "AA:BB:CC:DD:EE:01" || got[0].RSSI != -50 {
		t.Fatalf("reading 0 = %+v", got[0])
	}
	if got[1].MAC.String() != "AA:BB:CC:DD:EE:02" || got[1].RSSI != -70 {
		t.Fatalf("reading 1 = %+v", got[1])
	}
}

func TestDecodeCompactErrors(t *testing.T) {
	if _, err := DecodeCompact("ABC"); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
	if _, err := DecodeCompact("ZZBBCCDDEE01CE"); err == nil {
		t.Fatal("expected hex error")
	}
}
