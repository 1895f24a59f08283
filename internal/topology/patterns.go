package topology

import (
	"fmt"

	"infra-planner/pkg/api"
)

// Pattern names an architecture template.
type Pattern string

const (
	PatternSingleTier    Pattern = "single-tier-web"
	PatternServerless    Pattern = "serverless"
	PatternMicroservices Pattern = "microservices"
	PatternMultiCloud    Pattern = "multi-cloud-hybrid"
)

// Scale thresholds used by pattern selection and tier sizing.
const (
	// microservicesUserThreshold biases unhinted large deployments away from
	// a single tier.
	microservicesUserThreshold = 50_000

	// cdnUserThreshold adds a CDN in front of a single-tier site.
	cdnUserThreshold = 10_000

	// wideMicroservicesThreshold raises the service count from two to three.
	wideMicroservicesThreshold = 10_000
)

// SelectPattern applies the decision table over (hint, users, provider
// count). An explicit architecture hint always outranks the scale heuristic;
// scale only decides when the hint is unspecified.
func SelectPattern(profile api.RequirementProfile) (Pattern, bool) {
	switch profile.ArchitectureHint {
	case api.HintHybrid:
		return PatternMultiCloud, true
	case api.HintServerless:
		return PatternServerless, true
	case api.HintMicroservices:
		return PatternMicroservices, true
	case api.HintMonolithic:
		return PatternSingleTier, true
	}

	if profile.CloudProvider == api.ProviderMultiCloud || len(profile.MatchedProviders) >= 2 {
		return PatternMultiCloud, false
	}
	if profile.ExpectedUsers >= microservicesUserThreshold {
		return PatternMicroservices, false
	}
	return PatternSingleTier, false
}

// initialTier sizes every node from the expected user count.
func initialTier(expectedUsers int) api.SizingTier {
	switch {
	case expectedUsers < 1_000:
		return api.TierMinimal
	case expectedUsers < 10_000:
		return api.TierStandard
	case expectedUsers < 100_000:
		return api.TierScaled
	default:
		return api.TierHighAvailability
	}
}

// nodeSpec is one templated node: its kind, instance ordinal, dependencies,
// and multi-cloud placement role.
type nodeSpec struct {
	kind api.ResourceKind
	seq  int
	deps []string
	role api.NodeRole
}

func (s nodeSpec) id() string {
	return fmt.Sprintf("%s-%d", s.kind, s.seq)
}

func nodeID(kind api.ResourceKind, seq int) string {
	return fmt.Sprintf("%s-%d", kind, seq)
}

// expandPattern instantiates the template node set for a pattern. The
// dependency graph is fixed by the pattern; only instance counts vary with
// scale.
func expandPattern(pattern Pattern, profile api.RequirementProfile) []nodeSpec {
	var specs []nodeSpec

	switch pattern {
	case PatternSingleTier:
		specs = []nodeSpec{
			{kind: api.KindDatabase, seq: 1},
			{kind: api.KindCompute, seq: 1, deps: []string{nodeID(api.KindDatabase, 1)}},
			{kind: api.KindLoadBalancer, seq: 1, deps: []string{nodeID(api.KindCompute, 1)}},
		}
		if profile.ExpectedUsers >= cdnUserThreshold {
			specs = append(specs, nodeSpec{
				kind: api.KindCDN, seq: 1,
				deps: []string{nodeID(api.KindLoadBalancer, 1)},
			})
		}

	case PatternServerless:
		specs = []nodeSpec{
			{kind: api.KindDatabase, seq: 1},
			{kind: api.KindStorage, seq: 1},
			{kind: api.KindCompute, seq: 1, deps: []string{
				nodeID(api.KindDatabase, 1),
				nodeID(api.KindStorage, 1),
			}},
			{kind: api.KindGateway, seq: 1, deps: []string{nodeID(api.KindCompute, 1)}},
		}

	case PatternMicroservices:
		services := 2
		if profile.ExpectedUsers >= wideMicroservicesThreshold {
			services = 3
		}
		specs = []nodeSpec{
			{kind: api.KindDatabase, seq: 1},
			{kind: api.KindCache, seq: 1},
		}
		var computeIDs []string
		for i := 1; i <= services; i++ {
			specs = append(specs, nodeSpec{
				kind: api.KindCompute, seq: i,
				deps: []string{nodeID(api.KindDatabase, 1), nodeID(api.KindCache, 1)},
			})
			computeIDs = append(computeIDs, nodeID(api.KindCompute, i))
		}
		specs = append(specs,
			nodeSpec{kind: api.KindLoadBalancer, seq: 1, deps: computeIDs},
			nodeSpec{kind: api.KindGateway, seq: 1, deps: []string{nodeID(api.KindLoadBalancer, 1)}},
			nodeSpec{kind: api.KindMonitoring, seq: 1, deps: computeIDs},
		)

	case PatternMultiCloud:
		// Primary workload on the first provider, disaster recovery on the
		// second, monitoring shared across both.
		specs = []nodeSpec{
			{kind: api.KindDatabase, seq: 1, role: api.RolePrimary},
			{kind: api.KindCache, seq: 1, role: api.RolePrimary},
			{kind: api.KindCompute, seq: 1, role: api.RolePrimary, deps: []string{
				nodeID(api.KindDatabase, 1), nodeID(api.KindCache, 1),
			}},
			{kind: api.KindCompute, seq: 2, role: api.RolePrimary, deps: []string{
				nodeID(api.KindDatabase, 1), nodeID(api.KindCache, 1),
			}},
			{kind: api.KindLoadBalancer, seq: 1, role: api.RolePrimary, deps: []string{
				nodeID(api.KindCompute, 1), nodeID(api.KindCompute, 2),
			}},
			{kind: api.KindStorage, seq: 1, role: api.RoleDisasterRecovery},
			{kind: api.KindDatabase, seq: 2, role: api.RoleDisasterRecovery, deps: []string{
				nodeID(api.KindStorage, 1),
			}},
			{kind: api.KindCompute, seq: 3, role: api.RoleDisasterRecovery, deps: []string{
				nodeID(api.KindDatabase, 2),
			}},
			{kind: api.KindMonitoring, seq: 1, role: api.RoleShared, deps: []string{
				nodeID(api.KindCompute, 1), nodeID(api.KindCompute, 2), nodeID(api.KindCompute, 3),
			}},
		}
	}

	specs = applySecurityAndUptime(profile, specs)
	return specs
}

// applySecurityAndUptime layers cross-pattern nodes: an auth service for
// high-security requests, and monitoring when a tight uptime target is set.
func applySecurityAndUptime(profile api.RequirementProfile, specs []nodeSpec) []nodeSpec {
	if profile.SecurityLevel == api.SecurityHigh {
		authID := nodeID(api.KindAuth, 1)
		specs = append(specs, nodeSpec{kind: api.KindAuth, seq: 1})
		// The traffic entry point waits for the auth service.
		for i := range specs {
			if specs[i].kind == api.KindGateway ||
				(specs[i].kind == api.KindLoadBalancer && !hasKind(specs, api.KindGateway)) {
				specs[i].deps = append(specs[i].deps, authID)
			}
		}
	}

	if profile.UptimeTarget >= 99.9 && !hasKind(specs, api.KindMonitoring) {
		var computeIDs []string
		for _, s := range specs {
			if s.kind == api.KindCompute {
				computeIDs = append(computeIDs, s.id())
			}
		}
		specs = append(specs, nodeSpec{kind: api.KindMonitoring, seq: 1, deps: computeIDs})
	}

	return specs
}

func hasKind(specs []nodeSpec, kind api.ResourceKind) bool {
	for _, s := range specs {
		if s.kind == kind {
			return true
		}
	}
	return false
}
