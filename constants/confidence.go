package constants

import "strings"

// Confidence is the model's self-reported analysis confidence.
type Confidence string

// Stable values (these exact strings appear on the wire).
const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Rank orders confidences low=1 < medium=2 < high=3.
// Unknown labels rank as low so a garbled chunk degrades the merge.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceMedium:
		return 2
	case ConfidenceHigh:
		return 3
	default:
		return 1
	}
}

// ParseConfidence normalizes a free-form label from the model.
func ParseConfidence(s string) Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "medium":
		return ConfidenceMedium
	case "high":
		return ConfidenceHigh
	default:
		return ConfidenceLow
	}
}

// MinConfidence returns the weaker of two confidences.
func MinConfidence(a, b Confidence) Confidence {
	if b.Rank() < a.Rank() {
		return b
	}
	return a
}
