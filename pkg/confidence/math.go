// Package confidence provides confidence score math utilities.
package confidence

// WeightedAverage calculates weighted confidence.
func WeightedAverage(scores []float64, weights []float64) float64 {
	if len(scores) == 0 || len(scores) != len(weights) {
		return 0
	}

	var sum, weightSum float64
	for i, s := range scores {
		sum += s * weights[i]
		weightSum += weights[i]
	}

	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}

// Mean calculates the arithmetic mean of confidence scores.
func Mean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// Clamp ensures confidence is in valid range [0, 1].
func Clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// AboveThreshold checks if confidence meets minimum requirement.
func AboveThreshold(score, threshold float64) bool {
	return score >= threshold
}

// Confidence values assigned by the requirement extractor.
const (
	// Explicit is assigned to an unambiguous match in the source text.
	Explicit = 1.0
	// Matched is assigned to a keyword match that required normalization.
	Matched = 0.9
	// DefaultFloor is assigned whenever a documented default fills a field.
	DefaultFloor = 0.3
)
