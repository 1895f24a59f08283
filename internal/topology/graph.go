package topology

import (
	"sort"

	"infra-planner/pkg/api"
	planerrors "infra-planner/pkg/errors"
)

// TopologicalSort returns node IDs in dependency order: every node appears
// after all of its dependencies. Traversal starts from sorted IDs and visits
// sorted dependency lists, so the order is deterministic for a given
// topology. A cycle or a dangling edge yields a structural error.
func TopologicalSort(t *api.ResourceTopology) ([]string, error) {
	result := make([]string, 0, len(t.Nodes))
	visited := make(map[string]bool, len(t.Nodes))
	visiting := make(map[string]bool, len(t.Nodes))

	var visit func(id string) error
	visit = func(id string) error {
		if visited[id] {
			return nil
		}
		if visiting[id] {
			return planerrors.NewCyclicTopologyError(id)
		}

		visiting[id] = true
		for _, dep := range t.Dependencies(id) {
			if _, ok := t.Nodes[dep]; !ok {
				return planerrors.NewMissingDependencyError(id, dep)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		visiting[id] = false
		visited[id] = true
		result = append(result, id)

		return nil
	}

	for _, id := range t.NodeIDs() {
		if err := visit(id); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// Validate checks the topology's structural invariants: acyclic, and every
// edge endpoint present.
func Validate(t *api.ResourceTopology) error {
	_, err := TopologicalSort(t)
	return err
}

// Roots returns the IDs of nodes with no dependencies, sorted.
func Roots(t *api.ResourceTopology) []string {
	var roots []string
	for id := range t.Nodes {
		if len(t.Edges[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}
