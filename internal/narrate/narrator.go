// Package narrate turns planning results into human-readable output: a prose
// summary, the full reasoning trace, and an ordered deployment checklist.
package narrate

import (
	"fmt"
	"strings"

	"infra-planner/internal/topology"
	"infra-planner/pkg/api"
)

// Narrator assembles the textual parts of a planning response.
type Narrator struct{}

// NewNarrator returns a ready Narrator.
func NewNarrator() *Narrator {
	return &Narrator{}
}

// Output holds the three narrative products of a planning run.
type Output struct {
	Content             string
	ReasoningSteps      []string
	ImplementationSteps []string
}

// Narrate builds the narrative for a finished planning run. The reasoning
// steps are the accumulated trace framed by a leading pattern statement and a
// trailing cost-versus-budget statement.
func (n *Narrator) Narrate(profile api.RequirementProfile, result *topology.Result, trace *api.ReasoningTrace, defaulted []string) Output {
	steps := make([]string, 0, trace.Len()+2)
	steps = append(steps, fmt.Sprintf("Selected the %s architecture pattern for %d expected users.",
		result.Pattern, profile.ExpectedUsers))
	steps = append(steps, trace.Steps()...)
	steps = append(steps, costStep(profile, result))

	return Output{
		Content:             n.content(profile, result, defaulted),
		ReasoningSteps:      steps,
		ImplementationSteps: implementationSteps(result.Topology),
	}
}

func costStep(profile api.RequirementProfile, result *topology.Result) string {
	if result.Topology.BudgetExceeded {
		return fmt.Sprintf("Final estimated cost is $%s/month against a $%s budget; the budget could not be met even at minimal sizing.",
			result.Cost.Total.StringFixed(2), profile.MonthlyBudget.StringFixed(2))
	}
	return fmt.Sprintf("Final estimated cost is $%s/month within the $%s budget.",
		result.Cost.Total.StringFixed(2), profile.MonthlyBudget.StringFixed(2))
}

// deploymentOrder is the fixed order implementation steps are emitted in.
// Each entry is filtered to the resource kinds actually present.
var deploymentOrder = []struct {
	kinds []api.ResourceKind
	step  string
}{
	{nil, "Configure %s provider credentials and default region."},
	{nil, "Provision the base network (VPC or virtual network, subnets, security groups)."},
	{[]api.ResourceKind{api.KindDatabase, api.KindStorage, api.KindCache, api.KindQueue},
		"Deploy the data tier: %s."},
	{[]api.ResourceKind{api.KindCompute},
		"Deploy the compute tier: %s."},
	{[]api.ResourceKind{api.KindGateway, api.KindLoadBalancer, api.KindCDN, api.KindAuth},
		"Wire up traffic handling: %s."},
	{[]api.ResourceKind{api.KindMonitoring},
		"Enable observability: %s."},
	{nil, "Run terraform plan, review the diff, then terraform apply and verify health checks."},
}

// implementationSteps emits the deployment checklist in fixed order, skipping
// tiers with no matching resources.
func implementationSteps(topo *api.ResourceTopology) []string {
	present := make(map[api.ResourceKind]int, len(topo.Nodes))
	for _, node := range topo.Nodes {
		present[node.Kind]++
	}
	providers := providerList(topo)

	var out []string
	for i, entry := range deploymentOrder {
		switch i {
		case 0:
			out = append(out, fmt.Sprintf(entry.step, strings.Join(providers, " and ")))
		case 1, len(deploymentOrder) - 1:
			out = append(out, entry.step)
		default:
			names := kindNames(present, entry.kinds)
			if len(names) == 0 {
				continue
			}
			out = append(out, fmt.Sprintf(entry.step, strings.Join(names, ", ")))
		}
	}
	return out
}

func kindNames(present map[api.ResourceKind]int, kinds []api.ResourceKind) []string {
	var names []string
	for _, k := range kinds {
		count := present[k]
		if count == 0 {
			continue
		}
		if count > 1 {
			names = append(names, fmt.Sprintf("%d %s nodes", count, k))
		} else {
			names = append(names, string(k))
		}
	}
	return names
}

func providerList(topo *api.ResourceTopology) []string {
	seen := make(map[api.CloudProvider]bool)
	var providers []string
	for _, id := range topo.NodeIDs() {
		p := topo.Nodes[id].Provider
		if !seen[p] {
			seen[p] = true
			providers = append(providers, string(p))
		}
	}
	return providers
}

// content assembles the prose summary: requirements understood, pattern
// chosen, costs, and caveats.
func (n *Narrator) content(profile api.RequirementProfile, result *topology.Result, defaulted []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Planned a %s deployment for %d expected users with a $%s/month budget",
		result.Pattern, profile.ExpectedUsers, profile.MonthlyBudget.StringFixed(2))
	if profile.UptimeTarget > 0 {
		fmt.Fprintf(&b, " and a %.2f%% uptime target", profile.UptimeTarget)
	}
	b.WriteString(".\n\n")

	fmt.Fprintf(&b, "The topology has %d resources and an estimated monthly cost of $%s.",
		len(result.Topology.Nodes), result.Cost.Total.StringFixed(2))
	if result.Downgrades > 0 {
		fmt.Fprintf(&b, " %d resource(s) were downsized to fit the budget.", result.Downgrades)
	}
	b.WriteString("\n")

	if result.Topology.BudgetExceeded {
		fmt.Fprintf(&b, "\nWarning: the stated budget of $%s/month cannot cover this topology even at minimal sizing. The estimate reflects the cheapest viable configuration.\n",
			profile.MonthlyBudget.StringFixed(2))
	}

	if len(defaulted) > 0 {
		fmt.Fprintf(&b, "\nDefaults were applied for unspecified requirements: %s. Provide these explicitly for a more precise plan.\n",
			strings.Join(defaulted, ", "))
	}

	return b.String()
}
