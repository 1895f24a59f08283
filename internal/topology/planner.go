// Package topology selects an architecture pattern for a requirement profile
// and expands it into a costed, budget-fitted resource dependency graph.
package topology

import (
	"fmt"

	"github.com/shopspring/decimal"

	"infra-planner/internal/pricing"
	"infra-planner/pkg/api"
)

// Planner builds resource topologies against a pricing catalog snapshot.
type Planner struct {
	catalog *pricing.Catalog
}

// NewPlanner creates a topology planner.
func NewPlanner(catalog *pricing.Catalog) *Planner {
	return &Planner{catalog: catalog}
}

// Result carries the planned topology together with the fit signals the
// confidence scorer consumes.
type Result struct {
	Topology    *api.ResourceTopology
	Cost        api.CostEstimate
	Pattern     Pattern
	HintMatched bool
	Downgrades  int
}

// PlanTopology runs pattern selection, template expansion, tier sizing,
// budget fitting, and provider assignment. Decisions are appended to trace.
func (p *Planner) PlanTopology(profile api.RequirementProfile, trace *api.ReasoningTrace) (*Result, error) {
	pattern, hintMatched := SelectPattern(profile)
	if !hintMatched {
		if pattern == PatternMicroservices && profile.ExpectedUsers >= microservicesUserThreshold {
			trace.Append(fmt.Sprintf(
				"No explicit architecture hint; %d expected users exceed the single-tier range, scale heuristic chose %s",
				profile.ExpectedUsers, pattern))
		} else {
			trace.Append(fmt.Sprintf("No explicit architecture hint; defaulted to the %s pattern", pattern))
		}
	}

	primary, secondary, defaulted := resolveProviders(profile)
	switch {
	case defaulted:
		trace.Append("No cloud provider specified; defaulting to AWS")
	case profile.CloudProvider == api.ProviderMultiCloud && len(profile.MatchedProviders) == 0:
		trace.Append(fmt.Sprintf(
			"Multi-cloud requested without named providers; using %s as primary with %s disaster recovery",
			primary, secondary))
	}

	tier := initialTier(profile.ExpectedUsers)
	trace.Append(fmt.Sprintf("Sized all resources at the %s tier for %d expected users",
		tier, profile.ExpectedUsers))

	specs := expandPattern(pattern, profile)
	topo := &api.ResourceTopology{
		Pattern: string(pattern),
		Nodes:   make(map[string]api.ResourceNode, len(specs)),
		Edges:   make(map[string][]string, len(specs)),
	}

	for _, spec := range specs {
		provider := primary
		role := spec.role
		if pattern == PatternMultiCloud {
			if role == "" {
				role = api.RolePrimary
			}
			if role == api.RoleDisasterRecovery {
				provider = secondary
			}
		}

		cost, err := p.catalog.MonthlyCost(provider, spec.kind, tier)
		if err != nil {
			return nil, fmt.Errorf("pricing %s: %w", spec.id(), err)
		}

		topo.Nodes[spec.id()] = api.ResourceNode{
			ID:          spec.id(),
			Kind:        spec.kind,
			SizingTier:  tier,
			Provider:    provider,
			Role:        role,
			MonthlyCost: cost,
		}
		if len(spec.deps) > 0 {
			topo.Edges[spec.id()] = append([]string(nil), spec.deps...)
		}
	}

	if pattern == PatternMultiCloud {
		trace.Append(fmt.Sprintf(
			"Partitioned workload across providers: primary on %s, disaster recovery on %s",
			primary, secondary))
	}

	downgrades, err := p.fitBudget(topo, profile.MonthlyBudget, trace)
	if err != nil {
		return nil, err
	}

	return &Result{
		Topology:    topo,
		Cost:        Estimate(topo),
		Pattern:     pattern,
		HintMatched: hintMatched,
		Downgrades:  downgrades,
	}, nil
}

// fitBudget runs the greedy downgrade loop: while the total exceeds the
// budget, the highest-cost node that can still move down a tier is downgraded
// one step. Ties on cost break to the lexicographically smallest node ID so
// repeated runs act on the same node. The loop is bounded by
// nodes × (tiers − 1) iterations.
func (p *Planner) fitBudget(topo *api.ResourceTopology, budget decimal.Decimal, trace *api.ReasoningTrace) (int, error) {
	maxIterations := len(topo.Nodes) * (api.TierCount - 1)
	downgrades := 0

	for i := 0; i < maxIterations; i++ {
		total := Estimate(topo).Total
		if total.LessThanOrEqual(budget) {
			return downgrades, nil
		}

		target := pickDowngradeTarget(topo)
		if target == "" {
			break
		}

		node := topo.Nodes[target]
		fromTier := node.SizingTier
		fromCost := node.MonthlyCost
		node.SizingTier--

		cost, err := p.catalog.MonthlyCost(node.Provider, node.Kind, node.SizingTier)
		if err != nil {
			return downgrades, fmt.Errorf("repricing %s: %w", target, err)
		}
		node.MonthlyCost = cost
		topo.Nodes[target] = node
		downgrades++

		newTotal := Estimate(topo).Total
		trace.Append(fmt.Sprintf(
			"Downgraded %s from %s to %s ($%s → $%s/mo) to fit budget; total now $%s against $%s",
			target, fromTier, node.SizingTier,
			fromCost.StringFixed(2), cost.StringFixed(2),
			newTotal.StringFixed(2), budget.StringFixed(2)))
	}

	total := Estimate(topo).Total
	if total.GreaterThan(budget) {
		topo.BudgetExceeded = true
		trace.Append(fmt.Sprintf(
			"Budget could not be met: minimal-cost total $%s exceeds budget $%s; keeping the cheapest topology found",
			total.StringFixed(2), budget.StringFixed(2)))
	}
	return downgrades, nil
}

// pickDowngradeTarget returns the highest-cost node that can still be
// downgraded, smallest ID first on ties. Empty when every node is minimal.
func pickDowngradeTarget(topo *api.ResourceTopology) string {
	var target string
	var targetCost decimal.Decimal

	for _, id := range topo.NodeIDs() {
		node := topo.Nodes[id]
		if !node.SizingTier.CanDowngrade() {
			continue
		}
		if target == "" || node.MonthlyCost.GreaterThan(targetCost) {
			target = id
			targetCost = node.MonthlyCost
		}
	}
	return target
}

// Estimate computes the per-node cost breakdown and its exact decimal total.
func Estimate(topo *api.ResourceTopology) api.CostEstimate {
	estimate := api.CostEstimate{
		PerNode: make(map[string]decimal.Decimal, len(topo.Nodes)),
		Total:   decimal.Zero,
	}
	for _, id := range topo.NodeIDs() {
		cost := topo.Nodes[id].MonthlyCost
		estimate.PerNode[id] = cost
		estimate.Total = estimate.Total.Add(cost)
	}
	return estimate
}

// resolveProviders picks the primary (and, for multi-cloud, secondary)
// provider. A multi-cloud request that names no concrete providers gets the
// AWS/Azure pair without counting as defaulted: the user did state a
// preference. Only a fully unspecified provider is reported as defaulted so
// the planner can record the fallback in the trace.
func resolveProviders(profile api.RequirementProfile) (primary, secondary api.CloudProvider, defaulted bool) {
	switch {
	case len(profile.MatchedProviders) > 0:
		primary = profile.MatchedProviders[0]
	case profile.CloudProvider == api.ProviderAWS,
		profile.CloudProvider == api.ProviderAzure,
		profile.CloudProvider == api.ProviderGCP:
		primary = profile.CloudProvider
	case profile.CloudProvider == api.ProviderMultiCloud:
		primary = api.ProviderAWS
	default:
		primary = api.ProviderAWS
		defaulted = true
	}

	if len(profile.MatchedProviders) > 1 {
		secondary = profile.MatchedProviders[1]
	} else if primary == api.ProviderAzure {
		secondary = api.ProviderGCP
	} else {
		secondary = api.ProviderAzure
	}
	return primary, secondary, defaulted
}
