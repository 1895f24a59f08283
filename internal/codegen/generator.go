// Package codegen renders a resource topology into a Terraform artifact set.
// Generation walks the topology in dependency order so every cross-resource
// reference points at an already emitted block, and the same topology always
// produces byte-identical artifacts.
package codegen

import (
	"sort"
	"strings"

	"infra-planner/internal/topology"
	"infra-planner/pkg/api"
)

// Generator turns topologies into Terraform files.
type Generator struct{}

// NewGenerator returns a ready Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the full artifact set for a topology. It fails without
// emitting any files when the topology is cyclic or references a missing
// dependency.
func (g *Generator) Generate(topo *api.ResourceTopology) (api.CodeArtifactSet, error) {
	order, err := topology.TopologicalSort(topo)
	if err != nil {
		return nil, err
	}

	providers := distinctProviders(topo, order)

	artifacts := api.CodeArtifactSet{
		"provider.tf": renderProviderFile(providers),
		"network.tf":  renderNetworkFile(providers),
	}

	// One file per resource kind, blocks appended in dependency order.
	kindBlocks := make(map[api.ResourceKind][]string)
	for _, id := range order {
		node := topo.Nodes[id]
		kindBlocks[node.Kind] = append(kindBlocks[node.Kind], renderNode(node, dependencyAddresses(topo, id)))
	}
	for kind, blocks := range kindBlocks {
		artifacts[string(kind)+".tf"] = strings.Join(blocks, "\n")
	}

	artifacts["outputs.tf"] = renderOutputs(topo, order)
	return artifacts, nil
}

// dependencyAddresses returns the Terraform addresses of a node's
// dependencies, sorted.
func dependencyAddresses(topo *api.ResourceTopology, id string) []string {
	deps := topo.Dependencies(id)
	addrs := make([]string, 0, len(deps))
	for _, dep := range deps {
		addrs = append(addrs, resourceAddress(topo.Nodes[dep]))
	}
	sort.Strings(addrs)
	return addrs
}

// distinctProviders collects the providers appearing in the topology, sorted
// for stable provider.tf output.
func distinctProviders(topo *api.ResourceTopology, order []string) []api.CloudProvider {
	seen := make(map[api.CloudProvider]bool)
	var providers []api.CloudProvider
	for _, id := range order {
		p := topo.Nodes[id].Provider
		if !seen[p] {
			seen[p] = true
			providers = append(providers, p)
		}
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })
	return providers
}
