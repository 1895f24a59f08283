package visualize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infra-planner/pkg/api"
)

func crossCloudTopology() *api.ResourceTopology {
	return &api.ResourceTopology{
		Pattern: "multi-cloud-hybrid",
		Nodes: map[string]api.ResourceNode{
			"database-1": {ID: "database-1", Kind: api.KindDatabase, SizingTier: api.TierStandard,
				Provider: api.ProviderAWS, Role: api.RolePrimary},
			"compute-1": {ID: "compute-1", Kind: api.KindCompute, SizingTier: api.TierStandard,
				Provider: api.ProviderAWS, Role: api.RolePrimary},
			"database-2": {ID: "database-2", Kind: api.KindDatabase, SizingTier: api.TierMinimal,
				Provider: api.ProviderAzure, Role: api.RoleDisasterRecovery},
			"monitoring-1": {ID: "monitoring-1", Kind: api.KindMonitoring, SizingTier: api.TierMinimal,
				Provider: api.ProviderAWS, Role: api.RoleShared},
		},
		Edges: map[string][]string{
			"compute-1":    {"database-1"},
			"database-2":   {"database-1"},
			"monitoring-1": {"compute-1"},
		},
	}
}

func TestGenerateStringDOT(t *testing.T) {
	gen := &Generator{Format: FormatDOT}
	out, err := gen.GenerateString(crossCloudTopology())
	require.NoError(t, err)

	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "compute-1")
	assert.Contains(t, out, "database-1")
	assert.Contains(t, out, "[aws standard]")
	assert.Contains(t, out, "[azure minimal]")
}

func TestGenerateStringMermaid(t *testing.T) {
	gen := &Generator{Format: FormatMermaid}
	out, err := gen.GenerateString(crossCloudTopology())
	require.NoError(t, err)

	assert.True(t, strings.Contains(out, "graph") || strings.Contains(out, "flowchart"),
		"expected mermaid output, got:\n%s", out)
	assert.NotContains(t, out, "digraph")
	assert.Contains(t, out, "compute-1")
}

func TestGenerateClustersByRole(t *testing.T) {
	gen := &Generator{Format: FormatDOT, ClusterByRole: true}
	out, err := gen.GenerateString(crossCloudTopology())
	require.NoError(t, err)

	assert.Contains(t, out, "cluster_")
	assert.Contains(t, out, `label="primary"`)
	assert.Contains(t, out, `label="disaster-recovery"`)
	assert.Contains(t, out, `label="shared"`)
}

func TestGenerateCrossProviderEdgeIsDashed(t *testing.T) {
	gen := &Generator{Format: FormatDOT}
	out, err := gen.GenerateString(crossCloudTopology())
	require.NoError(t, err)

	assert.Contains(t, out, "dashed")
}
