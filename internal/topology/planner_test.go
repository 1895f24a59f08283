package topology

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infra-planner/internal/pricing"
	"infra-planner/pkg/api"
)

func baseProfile() api.RequirementProfile {
	return api.RequirementProfile{
		CloudProvider:    api.ProviderUnspecified,
		ExpectedUsers:    100,
		MonthlyBudget:    decimal.NewFromInt(50),
		SecurityLevel:    api.SecurityUnspecified,
		ArchitectureHint: api.HintUnspecified,
		FieldConfidence:  map[string]float64{},
	}
}

func TestSelectPattern(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*api.RequirementProfile)
		pattern     Pattern
		hintMatched bool
	}{
		{
			name:        "default is single tier",
			mutate:      func(p *api.RequirementProfile) {},
			pattern:     PatternSingleTier,
			hintMatched: false,
		},
		{
			name: "scale pushes to microservices",
			mutate: func(p *api.RequirementProfile) {
				p.ExpectedUsers = 50_000
			},
			pattern:     PatternMicroservices,
			hintMatched: false,
		},
		{
			name: "explicit hint outranks scale",
			mutate: func(p *api.RequirementProfile) {
				p.ExpectedUsers = 500_000
				p.ArchitectureHint = api.HintMonolithic
			},
			pattern:     PatternSingleTier,
			hintMatched: true,
		},
		{
			name: "serverless hint",
			mutate: func(p *api.RequirementProfile) {
				p.ArchitectureHint = api.HintServerless
			},
			pattern:     PatternServerless,
			hintMatched: true,
		},
		{
			name: "hybrid hint plans multi-cloud",
			mutate: func(p *api.RequirementProfile) {
				p.ArchitectureHint = api.HintHybrid
			},
			pattern:     PatternMultiCloud,
			hintMatched: true,
		},
		{
			name: "two matched providers plan multi-cloud",
			mutate: func(p *api.RequirementProfile) {
				p.CloudProvider = api.ProviderMultiCloud
				p.MatchedProviders = []api.CloudProvider{api.ProviderAWS, api.ProviderGCP}
			},
			pattern:     PatternMultiCloud,
			hintMatched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := baseProfile()
			tt.mutate(&profile)
			pattern, hintMatched := SelectPattern(profile)
			assert.Equal(t, tt.pattern, pattern)
			assert.Equal(t, tt.hintMatched, hintMatched)
		})
	}
}

func TestInitialTier(t *testing.T) {
	assert.Equal(t, api.TierMinimal, initialTier(100))
	assert.Equal(t, api.TierStandard, initialTier(1_000))
	assert.Equal(t, api.TierScaled, initialTier(10_000))
	assert.Equal(t, api.TierHighAvailability, initialTier(100_000))
}

func TestPlanTopologySingleTier(t *testing.T) {
	profile := baseProfile()
	profile.CloudProvider = api.ProviderAWS
	profile.MatchedProviders = []api.CloudProvider{api.ProviderAWS}
	profile.ArchitectureHint = api.HintMonolithic

	trace := &api.ReasoningTrace{}
	result, err := NewPlanner(pricing.DefaultCatalog()).PlanTopology(profile, trace)
	require.NoError(t, err)

	assert.Equal(t, PatternSingleTier, result.Pattern)
	assert.True(t, result.HintMatched)
	assert.Zero(t, result.Downgrades)
	assert.False(t, result.Topology.BudgetExceeded)

	assert.Len(t, result.Topology.Nodes, 3)
	assert.Contains(t, result.Topology.Nodes, "database-1")
	assert.Contains(t, result.Topology.Nodes, "compute-1")
	assert.Contains(t, result.Topology.Nodes, "loadbalancer-1")

	// db 15 + compute 8 + lb 18 at the minimal tier.
	assert.True(t, result.Cost.Total.Equal(decimal.NewFromInt(41)),
		"got total %s", result.Cost.Total)
	assert.NoError(t, Validate(result.Topology))
}

func TestPlanTopologyAddsCDNAtScale(t *testing.T) {
	profile := baseProfile()
	profile.ArchitectureHint = api.HintMonolithic
	profile.ExpectedUsers = 20_000
	profile.MonthlyBudget = decimal.NewFromInt(10_000)

	result, err := NewPlanner(pricing.DefaultCatalog()).PlanTopology(profile, &api.ReasoningTrace{})
	require.NoError(t, err)

	assert.Contains(t, result.Topology.Nodes, "cdn-1")
	assert.Equal(t, []string{"loadbalancer-1"}, result.Topology.Dependencies("cdn-1"))
}

func TestPlanTopologyMultiCloudPartition(t *testing.T) {
	profile := baseProfile()
	profile.CloudProvider = api.ProviderMultiCloud
	profile.MatchedProviders = []api.CloudProvider{api.ProviderAWS, api.ProviderAzure}
	profile.ArchitectureHint = api.HintHybrid
	profile.ExpectedUsers = 500_000
	profile.MonthlyBudget = decimal.NewFromInt(5_000)

	result, err := NewPlanner(pricing.DefaultCatalog()).PlanTopology(profile, &api.ReasoningTrace{})
	require.NoError(t, err)

	assert.Equal(t, PatternMultiCloud, result.Pattern)

	providers := make(map[api.CloudProvider]bool)
	for _, node := range result.Topology.Nodes {
		providers[node.Provider] = true
		switch node.Role {
		case api.RoleDisasterRecovery:
			assert.Equal(t, api.ProviderAzure, node.Provider, "node %s", node.ID)
		case api.RolePrimary, api.RoleShared:
			assert.Equal(t, api.ProviderAWS, node.Provider, "node %s", node.ID)
		}
	}
	assert.GreaterOrEqual(t, len(providers), 2, "topology must span two providers")
	assert.NoError(t, Validate(result.Topology))
}

// TestPlanTopologyMultiCloudWithoutNamedProviders pins the trace wording when
// a request asks for multi-cloud but names no concrete providers: the plan
// still uses the AWS/Azure pair and must not claim the provider was defaulted.
func TestPlanTopologyMultiCloudWithoutNamedProviders(t *testing.T) {
	profile := baseProfile()
	profile.CloudProvider = api.ProviderMultiCloud
	profile.ArchitectureHint = api.HintHybrid
	profile.ExpectedUsers = 500_000
	profile.MonthlyBudget = decimal.NewFromInt(5_000)

	trace := &api.ReasoningTrace{}
	result, err := NewPlanner(pricing.DefaultCatalog()).PlanTopology(profile, trace)
	require.NoError(t, err)

	steps := strings.Join(trace.Steps(), "\n")
	assert.NotContains(t, steps, "No cloud provider specified")
	assert.Contains(t, steps, "Multi-cloud requested without named providers")

	for _, node := range result.Topology.Nodes {
		switch node.Role {
		case api.RoleDisasterRecovery:
			assert.Equal(t, api.ProviderAzure, node.Provider, "node %s", node.ID)
		case api.RolePrimary, api.RoleShared:
			assert.Equal(t, api.ProviderAWS, node.Provider, "node %s", node.ID)
		}
	}
}

func TestPlanTopologyHighSecurityAddsAuth(t *testing.T) {
	profile := baseProfile()
	profile.ArchitectureHint = api.HintServerless
	profile.SecurityLevel = api.SecurityHigh
	profile.MonthlyBudget = decimal.NewFromInt(1_000)

	result, err := NewPlanner(pricing.DefaultCatalog()).PlanTopology(profile, &api.ReasoningTrace{})
	require.NoError(t, err)

	require.Contains(t, result.Topology.Nodes, "auth-1")
	assert.Contains(t, result.Topology.Dependencies("gateway-1"), "auth-1")
}

func TestPlanTopologyUptimeAddsMonitoring(t *testing.T) {
	profile := baseProfile()
	profile.ArchitectureHint = api.HintMonolithic
	profile.UptimeTarget = 99.95
	profile.MonthlyBudget = decimal.NewFromInt(1_000)

	result, err := NewPlanner(pricing.DefaultCatalog()).PlanTopology(profile, &api.ReasoningTrace{})
	require.NoError(t, err)

	require.Contains(t, result.Topology.Nodes, "monitoring-1")
	assert.Equal(t, []string{"compute-1"}, result.Topology.Dependencies("monitoring-1"))
}

func TestFitBudgetDowngradesUntilAffordable(t *testing.T) {
	profile := baseProfile()
	profile.ArchitectureHint = api.HintMonolithic
	profile.ExpectedUsers = 5_000 // standard tier: 2.5x minimal rates
	profile.MonthlyBudget = decimal.NewFromInt(60)

	trace := &api.ReasoningTrace{}
	result, err := NewPlanner(pricing.DefaultCatalog()).PlanTopology(profile, trace)
	require.NoError(t, err)

	assert.Positive(t, result.Downgrades)
	assert.False(t, result.Topology.BudgetExceeded)
	assert.True(t, result.Cost.Total.LessThanOrEqual(decimal.NewFromInt(60)),
		"got total %s", result.Cost.Total)
}

func TestFitBudgetInfeasibleKeepsMinimalTotal(t *testing.T) {
	profile := baseProfile()
	profile.CloudProvider = api.ProviderAWS
	profile.MatchedProviders = []api.CloudProvider{api.ProviderAWS}
	profile.ArchitectureHint = api.HintMicroservices
	profile.ExpectedUsers = 100_000
	profile.MonthlyBudget = decimal.NewFromInt(5)

	result, err := NewPlanner(pricing.DefaultCatalog()).PlanTopology(profile, &api.ReasoningTrace{})
	require.NoError(t, err)

	assert.True(t, result.Topology.BudgetExceeded)
	for id, node := range result.Topology.Nodes {
		assert.Equal(t, api.TierMinimal, node.SizingTier, "node %s", id)
	}
	// db 15 + cache 12 + 3 computes at 8 + lb 18 + gateway 6 + monitoring 7.
	assert.True(t, result.Cost.Total.Equal(decimal.NewFromInt(82)),
		"got total %s", result.Cost.Total)
}

// TestFitBudgetTermination fuzzes the budget from zero upward and asserts the
// downgrade loop stays within its nodes × (tiers − 1) bound with the total
// never increasing across steps.
func TestFitBudgetTermination(t *testing.T) {
	budgets := []int64{0, 1, 5, 40, 41, 42, 80, 100, 250, 499, 500, 1_000, 10_000, 1_000_000}

	for _, users := range []int{100, 5_000, 50_000, 500_000} {
		for _, b := range budgets {
			profile := baseProfile()
			profile.ExpectedUsers = users
			profile.MonthlyBudget = decimal.NewFromInt(b)

			trace := &api.ReasoningTrace{}
			result, err := NewPlanner(pricing.DefaultCatalog()).PlanTopology(profile, trace)
			require.NoError(t, err, "users=%d budget=%d", users, b)

			bound := len(result.Topology.Nodes) * (api.TierCount - 1)
			assert.LessOrEqual(t, result.Downgrades, bound,
				"users=%d budget=%d", users, b)

			if !result.Topology.BudgetExceeded {
				assert.True(t, result.Cost.Total.LessThanOrEqual(profile.MonthlyBudget),
					"users=%d budget=%d total=%s", users, b, result.Cost.Total)
			}
		}
	}
}

func TestFitBudgetCostMonotonicallyNonIncreasing(t *testing.T) {
	catalog := pricing.DefaultCatalog()
	profile := baseProfile()
	profile.ExpectedUsers = 200_000
	profile.MonthlyBudget = decimal.NewFromInt(1)

	planner := NewPlanner(catalog)
	specs := expandPattern(PatternMicroservices, profile)
	topo := &api.ResourceTopology{
		Pattern: string(PatternMicroservices),
		Nodes:   make(map[string]api.ResourceNode, len(specs)),
		Edges:   make(map[string][]string, len(specs)),
	}
	for _, spec := range specs {
		cost, err := catalog.MonthlyCost(api.ProviderAWS, spec.kind, api.TierHighAvailability)
		require.NoError(t, err)
		topo.Nodes[spec.id()] = api.ResourceNode{
			ID: spec.id(), Kind: spec.kind, SizingTier: api.TierHighAvailability,
			Provider: api.ProviderAWS, MonthlyCost: cost,
		}
		if len(spec.deps) > 0 {
			topo.Edges[spec.id()] = spec.deps
		}
	}

	prev := Estimate(topo).Total
	for {
		target := pickDowngradeTarget(topo)
		if target == "" {
			break
		}
		node := topo.Nodes[target]
		node.SizingTier--
		cost, err := planner.catalog.MonthlyCost(node.Provider, node.Kind, node.SizingTier)
		require.NoError(t, err)
		node.MonthlyCost = cost
		topo.Nodes[target] = node

		total := Estimate(topo).Total
		assert.True(t, total.LessThanOrEqual(prev),
			"total rose from %s to %s after downgrading %s", prev, total, target)
		prev = total
	}
	assert.True(t, prev.Equal(decimal.NewFromInt(82)))
}

func TestEstimateTotalsMatchPerNode(t *testing.T) {
	profile := baseProfile()
	profile.ExpectedUsers = 50_000
	profile.MonthlyBudget = decimal.NewFromInt(10_000)

	result, err := NewPlanner(pricing.DefaultCatalog()).PlanTopology(profile, &api.ReasoningTrace{})
	require.NoError(t, err)

	sum := decimal.Zero
	for _, cost := range result.Cost.PerNode {
		sum = sum.Add(cost)
	}
	assert.True(t, sum.Equal(result.Cost.Total))
	assert.Len(t, result.Cost.PerNode, len(result.Topology.Nodes))
}

func TestPickDowngradeTargetTieBreaksOnID(t *testing.T) {
	topo := &api.ResourceTopology{
		Nodes: map[string]api.ResourceNode{
			"compute-2": {ID: "compute-2", SizingTier: api.TierStandard, MonthlyCost: decimal.NewFromInt(20)},
			"compute-1": {ID: "compute-1", SizingTier: api.TierStandard, MonthlyCost: decimal.NewFromInt(20)},
		},
		Edges: map[string][]string{},
	}
	assert.Equal(t, "compute-1", pickDowngradeTarget(topo))
}
