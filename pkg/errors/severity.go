// Package errors provides severity-aware error types.
package errors

import "fmt"

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// PlanError is a structured error with context.
type PlanError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	NodeID      string   `json:"node_id,omitempty"`
	Recoverable bool     `json:"recoverable"`
}

func (e *PlanError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("[%s] %s: %s (node: %s)", e.Severity, e.Code, e.Message, e.NodeID)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
}

// Error codes
const (
	ErrCodeCyclicTopology    = "CYCLIC_TOPOLOGY"
	ErrCodeMissingDependency = "MISSING_DEPENDENCY"
	ErrCodePriceNotFound     = "PRICE_NOT_FOUND"
	ErrCodeCatalogLoadFailed = "CATALOG_LOAD_FAILED"
)

// NewCyclicTopologyError reports a dependency cycle reaching the generator.
// This indicates a planner bug: planner templates are acyclic by construction.
func NewCyclicTopologyError(nodeID string) *PlanError {
	return &PlanError{
		Code:        ErrCodeCyclicTopology,
		Message:     fmt.Sprintf("dependency cycle detected at node: %s", nodeID),
		Severity:    SeverityFatal,
		NodeID:      nodeID,
		Recoverable: false,
	}
}

// NewMissingDependencyError reports an edge pointing at a node absent from
// the topology.
func NewMissingDependencyError(nodeID, depID string) *PlanError {
	return &PlanError{
		Code:        ErrCodeMissingDependency,
		Message:     fmt.Sprintf("node %s depends on %s which is not in the topology", nodeID, depID),
		Severity:    SeverityFatal,
		NodeID:      nodeID,
		Recoverable: false,
	}
}

// NewCatalogLoadError reports a rate catalog that could not be read or
// parsed. Recoverable: the caller can fall back to the built-in rates.
func NewCatalogLoadError(path string, cause error) *PlanError {
	return &PlanError{
		Code:        ErrCodeCatalogLoadFailed,
		Message:     fmt.Sprintf("failed to load catalog %s: %v", path, cause),
		Severity:    SeverityError,
		Recoverable: true,
	}
}

// NewPriceNotFoundError reports a catalog lookup miss.
func NewPriceNotFoundError(provider, kind, tier string) *PlanError {
	return &PlanError{
		Code:        ErrCodePriceNotFound,
		Message:     fmt.Sprintf("no catalog rate for %s/%s at tier %s", provider, kind, tier),
		Severity:    SeverityError,
		Recoverable: false,
	}
}
