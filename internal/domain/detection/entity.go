package detection

// Box is a fractional bounding box relative to the rendered media size.
// (X,Y) is the top-left corner. X+W and Y+H may exceed 1.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Detection is one predicted object instance. A nil Score means unscored.
type Detection struct {
	Box
	Label string   `json:"label"`
	Score *float64 `json:"score,omitempty"`
}

// Result is the normalized output of one analysis run.
type Result struct {
	Detections []Detection `json:"detections"`
	Species    []string    `json:"species"`
}

// Scored returns a pointer suitable for Detection.Score.
func Scored(v float64) *float64 { return &v }

// DeriveSpecies deduplicates labels in first-seen order.
func DeriveSpecies(dets []Detection) []string {
	seen := make(map[string]struct{}, len(dets))
	out := make([]string, 0, len(dets))
	for _, d := range dets {
		if _, ok := seen[d.Label]; ok {
			continue
		}
		seen[d.Label] = struct{}{}
		out = append(out, d.Label)
	}
	return out
}

// NewResult builds a Result with species derived from the detections.
func NewResult(dets []Detection) Result {
	if dets == nil {
		dets = []Detection{}
	}
	return Result{Detections: dets, Species: DeriveSpecies(dets)}
}
