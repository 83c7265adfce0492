package session

import (
	domain "github.com/bryanwahyu/marine-vision/internal/domain/analysis"
	"github.com/bryanwahyu/marine-vision/internal/domain/detection"
	"github.com/bryanwahyu/marine-vision/internal/domain/media"
	"github.com/bryanwahyu/marine-vision/internal/geometry"
)

// Snapshot is the user-facing state of a session.
type Snapshot struct {
	ID               string                `json:"id"`
	State            domain.State          `json:"state"`
	Message          string                `json:"message"`
	Asset            *AssetSummary         `json:"asset,omitempty"`
	Detections       []detection.Detection `json:"detections"`
	Species          []string              `json:"species"`
	Annotations      []geometry.Annotation `json:"annotations"`
	RemoteConfigured bool                  `json:"remote_configured"`
	HistoryEntryID   string                `json:"history_entry_id,omitempty"`
}

type AssetSummary struct {
	ID         string     `json:"id"`
	Filename   string     `json:"filename"`
	Kind       media.Kind `json:"kind"`
	MIMEType   string     `json:"mime_type"`
	Size       int64      `json:"size"`
	PreviewURL string     `json:"preview_url"`
}
