package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bryanwahyu/marine-vision/internal/domain/detection"
)

// DetectionPrompt asks a vision model for the remote analysis payload.
const DetectionPrompt = `You are a marine species detector.

Return JSON only:
{
  "detections": [
    {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0, "label": "string", "score": 0.0}
  ],
  "species": ["string"]
}

HARD RULES
- Coordinates are fractions of the image width/height in [0,1] (NOT pixels).
- (x,y) is the top-left corner of the box; w and h are its width and height.
- label is the common species or category name, capitalized (e.g. "Fish", "Turtle").
- score is your confidence in [0,1].
- species lists each distinct label once.
- If nothing is found return {"detections": [], "species": []}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

var (
	reBlock    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLine     = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing = regexp.MustCompile(`,(\s*[}\]])`)
)

// Sanitize strips code fences, comments and trailing commas, and keeps
// only the outermost {...} of a model answer.
func Sanitize(raw string) string {
	raw = strings.TrimSpace(raw)

	// buang ``` fence kalau ada
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlock.ReplaceAllString(raw, "")
	raw = reLine.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

// ParseDetections turns a model answer into a normalized result.
// Scores outside [0,1] are dropped to "unscored".
func ParseDetections(raw string) (detection.Result, error) {
	cleaned := Sanitize(raw)
	if !strings.HasPrefix(cleaned, "{") {
		return detection.Result{}, fmt.Errorf("no json object in model response")
	}
	res, err := detection.ParsePayload([]byte(cleaned))
	if err != nil {
		return detection.Result{}, err
	}
	for i := range res.Detections {
		if s := res.Detections[i].Score; s != nil && (*s < 0 || *s > 1) {
			res.Detections[i].Score = nil
		}
	}
	return res, nil
}
