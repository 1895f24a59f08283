package planner

import (
	"sort"

	"infra-planner/internal/topology"
	"infra-planner/pkg/api"
	"infra-planner/pkg/confidence"
)

const (
	// extractionWeight and fitWeight blend the two confidence signals.
	extractionWeight = 0.6
	fitWeight        = 0.4

	// heuristicFitBase is the fit score when the pattern was chosen by
	// scale heuristics rather than an explicit architecture hint.
	heuristicFitBase = 0.5

	// downgradePenalty is subtracted from the fit score for each budget
	// downgrade the planner performed.
	downgradePenalty = 0.15

	// fitFloor bounds the fit score from below.
	fitFloor = 0.2

	// budgetExceededCap caps the overall score when the budget cannot be
	// met even at minimal sizing.
	budgetExceededCap = 0.3

	// lowConfidenceThreshold is the score below which a completed plan is
	// logged as low-confidence.
	lowConfidenceThreshold = 0.5
)

// Score combines per-field extraction confidence with a topology-fit term.
// The fit term starts at 1.0 when the pattern matched an explicit hint and at
// heuristicFitBase otherwise, loses downgradePenalty per budget downgrade,
// and never drops below fitFloor. A blown budget caps the whole score.
func Score(profile api.RequirementProfile, result *topology.Result) float64 {
	// Sum field confidences in sorted key order; map iteration order would
	// make float addition order, and so the score, vary between calls.
	names := make([]string, 0, len(profile.FieldConfidence))
	for name := range profile.FieldConfidence {
		names = append(names, name)
	}
	sort.Strings(names)
	values := make([]float64, 0, len(names))
	for _, name := range names {
		values = append(values, profile.FieldConfidence[name])
	}
	extraction := confidence.Mean(values)

	fit := heuristicFitBase
	if result.HintMatched {
		fit = 1.0
	}
	fit -= downgradePenalty * float64(result.Downgrades)
	if fit < fitFloor {
		fit = fitFloor
	}

	score := confidence.Clamp(confidence.WeightedAverage(
		[]float64{extraction, fit},
		[]float64{extractionWeight, fitWeight},
	))
	if result.Topology.BudgetExceeded && score > budgetExceededCap {
		score = budgetExceededCap
	}
	return score
}
