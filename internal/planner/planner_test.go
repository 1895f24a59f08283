package planner

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infra-planner/internal/pricing"
	"infra-planner/internal/topology"
	"infra-planner/pkg/api"
)

func newTestService() *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(pricing.NewHolder(pricing.DefaultCatalog()), logger)
}

func TestPlanMinimalInput(t *testing.T) {
	resp, err := newTestService().Plan("", "")
	require.NoError(t, err)

	assert.LessOrEqual(t, resp.Confidence, 0.4)
	assert.NotEmpty(t, resp.TerraformCode)
	assert.NotEmpty(t, resp.SessionID)

	joined := strings.Join(resp.ReasoningSteps, "\n")
	assert.Contains(t, joined, "defaults")
}

func TestPlanExplicitFit(t *testing.T) {
	resp, err := newTestService().Plan("Simple web app on AWS, 100 users, $50/month", "")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, resp.Confidence, 0.8)
	assert.True(t, resp.CostEstimate.LessThanOrEqual(decimal.NewFromInt(50)),
		"got estimate %s", resp.CostEstimate)
	assert.NotContains(t, resp.Content, "cannot cover")

	joined := strings.Join(resp.ReasoningSteps, "\n")
	assert.Contains(t, joined, "single-tier-web")
}

func TestPlanInfeasibleBudget(t *testing.T) {
	resp, err := newTestService().Plan("EKS cluster, 100000 users, $5/month, AWS", "")
	require.NoError(t, err)

	assert.LessOrEqual(t, resp.Confidence, 0.3)
	// The estimate is the minimal-tier total, not forced under the budget.
	assert.True(t, resp.CostEstimate.Equal(decimal.NewFromInt(82)),
		"got estimate %s", resp.CostEstimate)
	assert.Contains(t, resp.Content, "cannot cover")
}

func TestPlanMultiCloudHint(t *testing.T) {
	resp, err := newTestService().Plan(
		"hybrid setup across AWS and Azure, 500000 users, $5000/month", "")
	require.NoError(t, err)

	joined := strings.Join(resp.ReasoningSteps, "\n")
	assert.Contains(t, joined, "multi-cloud-hybrid")

	providerFile := resp.TerraformCode["provider.tf"]
	assert.Contains(t, providerFile, "hashicorp/aws")
	assert.Contains(t, providerFile, "hashicorp/azurerm")
}

func TestPlanConfidenceBounds(t *testing.T) {
	inputs := []string{
		"",
		"x",
		"aws azure gcp kubernetes serverless hybrid monolith",
		"99999999 users, $0/month",
		"hipaa pci soc2 five nines",
		strings.Repeat("web app ", 500),
	}

	for _, input := range inputs {
		resp, err := newTestService().Plan(input, "")
		require.NoError(t, err, "input %q", input)
		assert.GreaterOrEqual(t, resp.Confidence, 0.0, "input %q", input)
		assert.LessOrEqual(t, resp.Confidence, 1.0, "input %q", input)
	}
}

func TestPlanCostConsistency(t *testing.T) {
	svc := newTestService()
	inputs := []string{
		"web app, 5000 users, $300/month, AWS",
		"serverless api for 100 users",
		"kubernetes platform, 200000 users, $10000/month on gcp",
	}

	for _, input := range inputs {
		_, result, err := svc.PlanTopologyOnly(input)
		require.NoError(t, err, "input %q", input)

		sum := decimal.Zero
		for _, cost := range result.Cost.PerNode {
			sum = sum.Add(cost)
		}
		diff := result.Cost.Total.Sub(sum).Abs()
		assert.True(t, diff.LessThanOrEqual(decimal.RequireFromString("0.000001")),
			"input %q: total %s vs per-node sum %s", input, result.Cost.Total, sum)
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	svc := newTestService()
	const input = "hybrid setup across AWS and Azure, 500000 users, $5000/month"

	first, err := svc.Plan(input, "fixed-session")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := svc.Plan(input, "fixed-session")
		require.NoError(t, err)
		assert.Equal(t, first.TerraformCode, again.TerraformCode, "run %d", i)
		assert.Equal(t, first.ReasoningSteps, again.ReasoningSteps, "run %d", i)
		assert.Equal(t, first.Confidence, again.Confidence, "run %d", i)
		assert.True(t, first.CostEstimate.Equal(again.CostEstimate), "run %d", i)
	}
}

// TestScoreIsDeterministic pins the summation order of the extraction mean:
// field confidences live in a map, and float addition in iteration order
// produced a different score on repeated calls over the same profile.
func TestScoreIsDeterministic(t *testing.T) {
	profile := api.RequirementProfile{
		FieldConfidence: map[string]float64{
			api.FieldCloudProvider:    1.0,
			api.FieldExpectedUsers:    0.9,
			api.FieldMonthlyBudget:    1.0,
			api.FieldSecurityLevel:    0.3,
			api.FieldUptimeTarget:     0.7,
			api.FieldArchitectureHint: 0.9,
		},
	}
	result := &topology.Result{
		Topology:    &api.ResourceTopology{},
		HintMatched: true,
	}

	first := Score(profile, result)
	for i := 0; i < 500; i++ {
		assert.Equal(t, first, Score(profile, result), "run %d", i)
	}
}

func TestPlanSessionIDPassthrough(t *testing.T) {
	resp, err := newTestService().Plan("web app", "session-42")
	require.NoError(t, err)
	assert.Equal(t, "session-42", resp.SessionID)

	resp, err = newTestService().Plan("web app", "")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
}

func TestScore(t *testing.T) {
	profile := api.RequirementProfile{
		FieldConfidence: map[string]float64{
			api.FieldCloudProvider:    1.0,
			api.FieldExpectedUsers:    1.0,
			api.FieldMonthlyBudget:    1.0,
			api.FieldSecurityLevel:    0.3,
			api.FieldUptimeTarget:     0.3,
			api.FieldArchitectureHint: 0.9,
		},
	}

	tests := []struct {
		name           string
		hintMatched    bool
		downgrades     int
		budgetExceeded bool
		want           float64
	}{
		{"explicit hint no downgrades", true, 0, false, 0.85},
		{"heuristic selection", false, 0, false, 0.65},
		{"downgrades erode fit", true, 2, false, 0.73},
		{"fit floor holds", true, 10, false, 0.53},
		{"budget exceeded caps score", true, 10, true, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &topology.Result{
				Topology:    &api.ResourceTopology{BudgetExceeded: tt.budgetExceeded},
				HintMatched: tt.hintMatched,
				Downgrades:  tt.downgrades,
			}
			got := Score(profile, result)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
