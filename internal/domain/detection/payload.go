package detection

import (
	"encoding/json"
	"fmt"
)

// Payload is the wire body of a remote analysis response.
// Both fields are optional.
type Payload struct {
	Detections []Detection `json:"detections"`
	Species    []string    `json:"species"`
}

// FromPayload normalizes a remote payload: absent detections become an
// empty list, absent species are derived from the detection labels.
func FromPayload(p Payload) Result {
	dets := p.Detections
	if dets == nil {
		dets = []Detection{}
	}
	if p.Species == nil {
		return Result{Detections: dets, Species: DeriveSpecies(dets)}
	}
	return Result{Detections: dets, Species: p.Species}
}

// ParsePayload decodes a JSON object into a normalized Result.
func ParsePayload(raw []byte) (Result, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Result{}, fmt.Errorf("decode analysis payload: %w", err)
	}
	return FromPayload(p), nil
}
