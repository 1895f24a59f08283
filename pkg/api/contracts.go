// Package api defines the shared planning contracts exchanged between the
// extraction, planning, generation, and narration stages.
package api

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CloudProvider identifies a cloud platform.
type CloudProvider string

const (
	ProviderAWS         CloudProvider = "aws"
	ProviderAzure       CloudProvider = "azure"
	ProviderGCP         CloudProvider = "gcp"
	ProviderMultiCloud  CloudProvider = "multi-cloud"
	ProviderUnspecified CloudProvider = "unspecified"
)

// SecurityLevel indicates the requested security posture.
type SecurityLevel string

const (
	SecurityBasic       SecurityLevel = "basic"
	SecurityHigh        SecurityLevel = "high"
	SecurityUnspecified SecurityLevel = "unspecified"
)

// ArchitectureHint is an explicit architecture preference found in the request.
type ArchitectureHint string

const (
	HintServerless    ArchitectureHint = "serverless"
	HintMicroservices ArchitectureHint = "microservices"
	HintMonolithic    ArchitectureHint = "monolithic"
	HintHybrid        ArchitectureHint = "hybrid"
	HintUnspecified   ArchitectureHint = "unspecified"
)

// Profile field names used as keys in FieldConfidence.
const (
	FieldCloudProvider    = "cloud_provider"
	FieldExpectedUsers    = "expected_users"
	FieldMonthlyBudget    = "monthly_budget"
	FieldSecurityLevel    = "security_level"
	FieldUptimeTarget     = "uptime_target"
	FieldArchitectureHint = "architecture_hint"
)

// RequirementProfile is the structured, defaulted representation of a
// free-text infrastructure request. Every field carries a value (explicit or
// documented default) and a confidence in FieldConfidence.
type RequirementProfile struct {
	CloudProvider    CloudProvider    `json:"cloud_provider"`
	ExpectedUsers    int              `json:"expected_users"`
	MonthlyBudget    decimal.Decimal  `json:"monthly_budget"`
	SecurityLevel    SecurityLevel    `json:"security_level"`
	UptimeTarget     float64          `json:"uptime_target,omitempty"`
	ArchitectureHint ArchitectureHint `json:"architecture_hint"`

	// MatchedProviders lists every provider vocabulary hit, in match order.
	// Multi-cloud plans partition workloads across these.
	MatchedProviders []CloudProvider `json:"matched_providers,omitempty"`

	// FieldConfidence maps field name to [0,1] extraction confidence.
	FieldConfidence map[string]float64 `json:"field_confidence"`
}

// ResourceKind classifies a topology node.
type ResourceKind string

const (
	KindCompute      ResourceKind = "compute"
	KindDatabase     ResourceKind = "database"
	KindLoadBalancer ResourceKind = "loadbalancer"
	KindCache        ResourceKind = "cache"
	KindStorage      ResourceKind = "storage"
	KindQueue        ResourceKind = "queue"
	KindGateway      ResourceKind = "gateway"
	KindAuth         ResourceKind = "auth"
	KindCDN          ResourceKind = "cdn"
	KindMonitoring   ResourceKind = "monitoring"
)

// AllResourceKinds returns every kind in catalog order.
func AllResourceKinds() []ResourceKind {
	return []ResourceKind{
		KindCompute, KindDatabase, KindLoadBalancer, KindCache, KindStorage,
		KindQueue, KindGateway, KindAuth, KindCDN, KindMonitoring,
	}
}

// SizingTier is an ordered capacity level. Downgrade and upgrade are moves
// along this order.
type SizingTier int

const (
	TierMinimal SizingTier = iota
	TierStandard
	TierScaled
	TierHighAvailability
)

// TierCount is the number of sizing tiers; the budget-fitting loop is bounded
// by nodes × (TierCount − 1).
const TierCount = 4

func (t SizingTier) String() string {
	switch t {
	case TierMinimal:
		return "minimal"
	case TierStandard:
		return "standard"
	case TierScaled:
		return "scaled"
	case TierHighAvailability:
		return "high-availability"
	default:
		return "unknown"
	}
}

// CanDowngrade reports whether the tier has a lower level to move to.
func (t SizingTier) CanDowngrade() bool {
	return t > TierMinimal
}

// NodeRole distinguishes workload placement in multi-cloud plans.
type NodeRole string

const (
	RolePrimary          NodeRole = "primary"
	RoleDisasterRecovery NodeRole = "disaster-recovery"
	RoleShared           NodeRole = "shared"
)

// ResourceNode is a sized, provider-assigned infrastructure resource.
type ResourceNode struct {
	ID          string          `json:"id"`
	Kind        ResourceKind    `json:"kind"`
	SizingTier  SizingTier      `json:"sizing_tier"`
	Provider    CloudProvider   `json:"provider"`
	Role        NodeRole        `json:"role,omitempty"`
	MonthlyCost decimal.Decimal `json:"monthly_cost"`
}

// ResourceTopology is a directed acyclic graph of resource nodes. Edges map a
/// node ID to the IDs it depends on: every dependency must exist before the
// node itself.
type ResourceTopology struct {
	Pattern        string                  `json:"pattern"`
	Nodes          map[string]ResourceNode `json:"nodes"`
	Edges          map[string][]string     `json:"edges"`
	BudgetExceeded bool                    `json:"budget_exceeded"`
}

// NodeIDs returns all node IDs in lexicographic order. Every traversal of the
// topology starts from this ordering so downstream output is deterministic.
func (t *ResourceTopology) NodeIDs() []string {
	ids := make([]string, 0, len(t.Nodes))
	for id := range t.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dependencies returns the dependency IDs of a node in lexicographic order.
func (t *ResourceTopology) Dependencies(id string) []string {
	deps := append([]string(nil), t.Edges[id]...)
	sort.Strings(deps)
	return deps
}

// CostEstimate breaks a topology's monthly cost down per node.
type CostEstimate struct {
	PerNode map[string]decimal.Decimal `json:"per_node"`
	Total   decimal.Decimal            `json:"total"`
}

// ReasoningTrace is an append-only sequence of decision records for one
// planning run.
type ReasoningTrace struct {
	steps []string
}

// Append records a decision step.
func (r *ReasoningTrace) Append(step string) {
	r.steps = append(r.steps, step)
}

// Steps returns a copy of the recorded steps in order.
func (r *ReasoningTrace) Steps() []string {
	out := make([]string, len(r.steps))
	copy(out, r.steps)
	return out
}

// Len returns the number of recorded steps.
func (r *ReasoningTrace) Len() int {
	return len(r.steps)
}

// CodeArtifactSet maps stable filenames to generated source text. Filenames
// are a deterministic function of the topology's node kinds.
type CodeArtifactSet map[string]string

// PlanningResponse is the externally visible planning result.
type PlanningResponse struct {
	Content             string          `json:"content"`
	Confidence          float64         `json:"confidence"`
	CostEstimate        decimal.Decimal `json:"cost_estimate"`
	TerraformCode       CodeArtifactSet `json:"terraform_code"`
	ReasoningSteps      []string        `json:"reasoning_steps"`
	ImplementationSteps []string        `json:"implementation_steps"`

	// SessionID is opaque pass-through for conversational callers.
	SessionID string `json:"session_id,omitempty"`
}
