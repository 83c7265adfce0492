package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/bryanwahyu/marine-vision/internal/domain/detection"
	"github.com/bryanwahyu/marine-vision/internal/domain/history"
)

// Mode enum, toggled by the user
type Mode string

const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

// ParseMode accepts "remote"/"local" (case-insensitive). Empty means fallback.
func ParseMode(s string, fallback Mode) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return fallback, nil
	case ModeRemote:
		return ModeRemote, nil
	case ModeLocal:
		return ModeLocal, nil
	default:
		return "", fmt.Errorf("invalid mode: %s (allowed: remote, local)", s)
	}
}

// State enum for the status line
type State string

const (
	StateIdle      State = "idle"
	StateReady     State = "ready"
	StateAnalyzing State = "analyzing"
	StateComplete  State = "complete"
	StateDegraded  State = "degraded"
)

// Terminal reports whether s ends an analysis run.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateDegraded
}

// Status line messages
const (
	MsgWaiting     = "Waiting for media..."
	MsgReady       = "Ready to analyze"
	MsgAnalyzing   = "Analyzing..."
	MsgComplete    = "Analysis complete"
	MsgDegraded    = "Analysis failed, showing demo results."
	MsgUnsupported = "Unsupported format. Please upload an image or video file."
)

// Outcome of one dispatch. Always carries a displayable result.
type Outcome struct {
	State    State            `json:"state"`
	Message  string           `json:"message"`
	Result   detection.Result `json:"result"`
	Entry    history.Entry    `json:"entry"`
	Analyzer string           `json:"analyzer"`
	Duration time.Duration    `json:"duration_ns"`
}
