package history

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/marine-vision/internal/domain/detection"
	"github.com/bryanwahyu/marine-vision/internal/domain/media"
)

const (
	// Capacity is the maximum number of entries kept in the log.
	Capacity = 20
	// Namespace is the persistence key of the log. The user record lives
	// under "mvai_user" and is never touched here.
	Namespace = "mvai_history_v1"
)

// Entry is one completed analysis. Never mutated after creation.
type Entry struct {
	ID         string                `json:"id"`
	Timestamp  time.Time             `json:"timestamp"`
	Filename   string                `json:"filename"`
	Kind       media.Kind            `json:"kind"`
	Detections []detection.Detection `json:"detections"`
	Species    []string              `json:"species"`
}

// NewEntry copies the asset and result into a fresh entry.
func NewEntry(a *media.Asset, r detection.Result, at time.Time) Entry {
	dets := make([]detection.Detection, len(r.Detections))
	copy(dets, r.Detections)
	species := make([]string, len(r.Species))
	copy(species, r.Species)
	return Entry{
		ID:         uuid.New().String(),
		Timestamp:  at.UTC(),
		Filename:   a.Filename,
		Kind:       a.Kind,
		Detections: dets,
		Species:    species,
	}
}

// Prepend puts e at the head of log and drops whatever falls past Capacity.
// The input slice is not modified.
func Prepend(log []Entry, e Entry) []Entry {
	n := len(log) + 1
	if n > Capacity {
		n = Capacity
	}
	out := make([]Entry, 0, n)
	out = append(out, e)
	for _, old := range log {
		if len(out) == n {
			break
		}
		out = append(out, old)
	}
	return out
}

// Decode parses a persisted log. Empty input yields an empty log; corrupt
// input yields an empty log plus the parse error so callers can log it.
func Decode(raw []byte) ([]Entry, error) {
	if len(raw) == 0 {
		return []Entry{}, nil
	}
	var out []Entry
	if err := json.Unmarshal(raw, &out); err != nil {
		return []Entry{}, err
	}
	if out == nil {
		out = []Entry{}
	}
	if len(out) > Capacity {
		out = out[:Capacity]
	}
	return out, nil
}

// Encode serializes a log for persistence.
func Encode(log []Entry) ([]byte, error) {
	if log == nil {
		log = []Entry{}
	}
	return json.Marshal(log)
}
