package narrate

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infra-planner/internal/pricing"
	"infra-planner/internal/topology"
	"infra-planner/pkg/api"
)

func planFor(t *testing.T, profile api.RequirementProfile) (*topology.Result, *api.ReasoningTrace) {
	t.Helper()
	trace := &api.ReasoningTrace{}
	result, err := topology.NewPlanner(pricing.DefaultCatalog()).PlanTopology(profile, trace)
	require.NoError(t, err)
	return result, trace
}

func webAppProfile() api.RequirementProfile {
	return api.RequirementProfile{
		CloudProvider:    api.ProviderAWS,
		MatchedProviders: []api.CloudProvider{api.ProviderAWS},
		ExpectedUsers:    100,
		MonthlyBudget:    decimal.NewFromInt(50),
		ArchitectureHint: api.HintMonolithic,
		FieldConfidence:  map[string]float64{},
	}
}

func TestNarrateFramesReasoningSteps(t *testing.T) {
	profile := webAppProfile()
	result, trace := planFor(t, profile)

	out := NewNarrator().Narrate(profile, result, trace, nil)

	require.NotEmpty(t, out.ReasoningSteps)
	first := out.ReasoningSteps[0]
	last := out.ReasoningSteps[len(out.ReasoningSteps)-1]

	assert.Contains(t, first, "single-tier-web")
	assert.Contains(t, first, "100 expected users")
	assert.Contains(t, last, "within the $50.00 budget")

	// The accumulated trace sits between the two framing steps.
	assert.Equal(t, trace.Steps(), out.ReasoningSteps[1:len(out.ReasoningSteps)-1])
}

func TestNarrateBudgetExceededCaveat(t *testing.T) {
	profile := webAppProfile()
	profile.ArchitectureHint = api.HintMicroservices
	profile.ExpectedUsers = 100_000
	profile.MonthlyBudget = decimal.NewFromInt(5)

	result, trace := planFor(t, profile)
	out := NewNarrator().Narrate(profile, result, trace, nil)

	assert.Contains(t, out.Content, "cannot cover")
	last := out.ReasoningSteps[len(out.ReasoningSteps)-1]
	assert.Contains(t, last, "could not be met")
}

func TestNarrateMentionsDefaults(t *testing.T) {
	profile := webAppProfile()
	result, trace := planFor(t, profile)

	out := NewNarrator().Narrate(profile, result, trace, []string{"security_level", "uptime_target"})
	assert.Contains(t, out.Content, "security_level, uptime_target")
}

func TestImplementationStepsFixedOrder(t *testing.T) {
	profile := webAppProfile()
	profile.ArchitectureHint = api.HintMicroservices
	profile.ExpectedUsers = 100_000
	profile.MonthlyBudget = decimal.NewFromInt(10_000)

	result, trace := planFor(t, profile)
	out := NewNarrator().Narrate(profile, result, trace, nil)

	steps := out.ImplementationSteps
	require.Len(t, steps, 7)
	assert.Contains(t, steps[0], "aws")
	assert.Contains(t, steps[1], "network")
	assert.Contains(t, steps[2], "data tier")
	assert.Contains(t, steps[3], "compute tier")
	assert.Contains(t, steps[4], "traffic")
	assert.Contains(t, steps[5], "observability")
	assert.Contains(t, steps[6], "terraform plan")
}

func TestImplementationStepsSkipAbsentTiers(t *testing.T) {
	profile := webAppProfile()
	result, trace := planFor(t, profile)

	out := NewNarrator().Narrate(profile, result, trace, nil)

	joined := strings.Join(out.ImplementationSteps, "\n")
	assert.NotContains(t, joined, "observability",
		"single tier at minimal scale has no monitoring node")
	assert.Contains(t, joined, "database")
	assert.Contains(t, joined, "loadbalancer")
}

func TestImplementationStepsCountMultipleNodes(t *testing.T) {
	profile := webAppProfile()
	profile.ArchitectureHint = api.HintMicroservices
	profile.ExpectedUsers = 100_000
	profile.MonthlyBudget = decimal.NewFromInt(10_000)

	result, trace := planFor(t, profile)
	out := NewNarrator().Narrate(profile, result, trace, nil)

	joined := strings.Join(out.ImplementationSteps, "\n")
	assert.Contains(t, joined, "3 compute nodes")
}
