package payload

import (
	"encoding/json"
	"fmt"

	"wifi-sampler/internal/model"
)

// Document is the body POSTed by the HTTP agent.
type Document struct {
	ScannerID string  `json:"scanner_id"`
	Networks  []Entry `json:"networks"`
}

// Entry describes one reported access point.
type Entry struct {
	SSID    string `json:"ssid"`
	MAC     string `json:"mac"`
	RSSI    int    `json:"rssi"`
	Channel int    `json:"channel"`
}

// JSON is the structured encoding; ScannerID identifies the reporting device.
type JSON struct {
	ScannerID string
}

// Document builds the structured document without serialising it.
func (j JSON) Document(set model.CandidateSet) Document {
	doc := Document{ScannerID: j.ScannerID, Networks: make([]Entry, 0, len(set.Slots))}
	for _, n := range set.Networks() {
		doc.Networks = append(doc.Networks, Entry{
			SSID:    n.SSID,
			MAC:     n.BSSID.String(),
			RSSI:    n.RSSI,
			Channel: n.Channel,
		})
	}
	return doc
}

func (j JSON) Encode(set model.CandidateSet) (model.Payload, error) {
	doc := j.Document(set)
	b, err := json.Marshal(doc)
	if err != nil {
		return model.Payload{}, fmt.Errorf("marshal document: %w", err)
	}
	return model.Payload{ContentType: ContentTypeJSON, Body: b, Candidates: len(doc.Networks)}, nil
}
