package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insuregraph/insuregraph/internal/graph"
	"github.com/insuregraph/insuregraph/internal/policy"
	"github.com/insuregraph/insuregraph/internal/types"
)

func TestTraverseSinglePathScoring(t *testing.T) {
	ctx := context.Background()
	client := graph.NewMockClient()
	client.AddNode("cov-1", policy.NodeCoverage, "암진단특약")
	client.AddNode("dis-1", policy.NodeDisease, "갑상선암")
	client.AddNode("cond-1", policy.NodeCondition, "90일 대기기간")
	client.AddEdge("cov-1", "dis-1", policy.RelationCovers, true, false, "clause-3-1")
	client.AddEdge("dis-1", "cond-1", policy.RelationRequires, false, false)

	seeds, err := client.FindSeeds(ctx, []string{"암진단특약"})
	require.NoError(t, err)

	result, err := NewTraverser(client).Traverse(ctx, seeds, 3)
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)

	path := result.Paths[0]
	assert.Equal(t, 2, path.Length())
	// length 2, one validated edge, no LLM-extracted edges:
	// 1.0 - 0.2 + 0.1 - 0 = 0.9
	assert.InDelta(t, 0.9, path.Confidence, 1e-9)
	assert.Equal(t, []string{"clause-3-1"}, path.ClauseIDs())
	assert.NoError(t, path.Validate())
	assert.Zero(t, result.Truncated)
	assert.Empty(t, result.Conflicts)
}

func TestTraverseConfidenceBoundsAndMonotonicity(t *testing.T) {
	ctx := context.Background()
	client := graph.NewMockClient()

	// A chain of unvalidated LLM-extracted edges: confidence must stay in
	// [0,1] and never increase with path length.
	ids := []string{"n0", "n1", "n2", "n3", "n4", "n5"}
	client.AddNode(ids[0], policy.NodeCoverage, "담보")
	for i := 1; i < len(ids); i++ {
		client.AddNode(ids[i], policy.NodeCondition, "조건")
		client.AddEdge(ids[i-1], ids[i], policy.RelationReferences, false, true)
	}

	seeds, _ := client.FindSeeds(ctx, []string{"담보"})

	var prev float64 = 1.0
	for hops := 1; hops <= 5; hops++ {
		result, err := NewTraverser(client).Traverse(ctx, seeds, hops)
		require.NoError(t, err)
		for _, path := range result.Paths {
			assert.GreaterOrEqual(t, path.Confidence, 0.0)
			assert.LessOrEqual(t, path.Confidence, 1.0)
		}
		if hops < 5 {
			// Not terminal yet: the partial chain is dropped and counted.
			assert.Equal(t, 1, result.Truncated, "hops=%d", hops)
			continue
		}
		require.Len(t, result.Paths, 1)
		assert.LessOrEqual(t, result.Paths[0].Confidence, prev)
		prev = result.Paths[0].Confidence
	}
}

func TestTraverseRankingOrder(t *testing.T) {
	ctx := context.Background()
	client := graph.NewMockClient()
	client.AddNode("cov-1", policy.NodeCoverage, "암진단특약")
	client.AddNode("dis-a", policy.NodeDisease, "위암")
	client.AddNode("dis-b", policy.NodeDisease, "갑상선암")
	// Validated edge outranks the unvalidated one at equal length.
	client.AddEdge("cov-1", "dis-a", policy.RelationCovers, false, false)
	client.AddEdge("cov-1", "dis-b", policy.RelationCovers, true, false)

	result, err := NewTraverser(client).Traverse(ctx,
		[]graph.Node{{ID: "cov-1", Kind: policy.NodeCoverage, Name: "암진단특약"}}, 3)
	require.NoError(t, err)
	require.Len(t, result.Paths, 2)

	assert.Equal(t, "dis-b", result.Paths[0].Nodes[1].ID)
	assert.Greater(t, result.Paths[0].Confidence, result.Paths[1].Confidence)
}

func TestTraverseTieBreakByCreationOrder(t *testing.T) {
	ctx := context.Background()
	client := graph.NewMockClient()
	client.AddNode("cov-1", policy.NodeCoverage, "암진단특약")
	client.AddNode("dis-a", policy.NodeDisease, "위암")
	client.AddNode("dis-b", policy.NodeDisease, "갑상선암")
	// Identical provenance: same confidence and length, so the first-created
	// edge must rank first.
	client.AddEdge("cov-1", "dis-a", policy.RelationCovers, false, false)
	client.AddEdge("cov-1", "dis-b", policy.RelationCovers, false, false)

	result, err := NewTraverser(client).Traverse(ctx,
		[]graph.Node{{ID: "cov-1", Kind: policy.NodeCoverage, Name: "암진단특약"}}, 3)
	require.NoError(t, err)
	require.Len(t, result.Paths, 2)
	assert.Equal(t, "dis-a", result.Paths[0].Nodes[1].ID)
	assert.Equal(t, "dis-b", result.Paths[1].Nodes[1].ID)
}

func TestTraverseConflictRetainedAndFlagged(t *testing.T) {
	ctx := context.Background()
	client := graph.NewMockClient()
	client.AddNode("cov-1", policy.NodeCoverage, "암진단특약")
	client.AddNode("dis-1", policy.NodeDisease, "갑상선암")
	client.AddEdge("cov-1", "dis-1", policy.RelationCovers, true, false, "clause-3-1")
	client.AddEdge("cov-1", "dis-1", policy.RelationExcludes, true, false, "clause-7-2")

	result, err := NewTraverser(client).Traverse(ctx,
		[]graph.Node{{ID: "cov-1", Kind: policy.NodeCoverage, Name: "암진단특약"}}, 3)
	require.NoError(t, err)

	require.Len(t, result.Paths, 2, "both sides of the conflict are retained")
	for _, path := range result.Paths {
		assert.True(t, path.Conflicting)
	}
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "cov-1", result.Conflicts[0].CoverageID)
	assert.Equal(t, "dis-1", result.Conflicts[0].DiseaseCode)
	assert.NotEmpty(t, result.Warnings())
}

func TestTraverseCapsPaths(t *testing.T) {
	ctx := context.Background()
	client := graph.NewMockClient()
	client.AddNode("cov-1", policy.NodeCoverage, "종합보장")
	for i := 0; i < MaxPaths+20; i++ {
		id := types.NewID().String()
		client.AddNode(id, policy.NodeDisease, "질병")
		client.AddEdge("cov-1", id, policy.RelationCovers, false, false)
	}

	result, err := NewTraverser(client).Traverse(ctx,
		[]graph.Node{{ID: "cov-1", Kind: policy.NodeCoverage, Name: "종합보장"}}, 3)
	require.NoError(t, err)
	assert.Len(t, result.Paths, MaxPaths)
}

func TestTraverseNoSeeds(t *testing.T) {
	result, err := NewTraverser(graph.NewMockClient()).Traverse(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.Empty(t, result.Paths)
	assert.Empty(t, result.Warnings())
}

func TestTraverseGraphFailure(t *testing.T) {
	client := graph.NewMockClient()
	client.AddNode("cov-1", policy.NodeCoverage, "암진단특약")
	client.NeighborsErr = errors.New("neo4j down")

	_, err := NewTraverser(client).Traverse(context.Background(),
		[]graph.Node{{ID: "cov-1", Kind: policy.NodeCoverage, Name: "암진단특약"}}, 3)
	require.Error(t, err)
	assert.Equal(t, types.GRAPH_STORE_UNAVAILABLE, types.CodeOf(err))
}

func TestTraverseBreaksCycles(t *testing.T) {
	ctx := context.Background()
	client := graph.NewMockClient()
	client.AddNode("a", policy.NodeCoverage, "A")
	client.AddNode("b", policy.NodeDisease, "B")
	client.AddEdge("a", "b", policy.RelationCovers, false, false)
	client.AddEdge("b", "a", policy.RelationReferences, false, false)

	result, err := NewTraverser(client).Traverse(ctx,
		[]graph.Node{{ID: "a", Kind: policy.NodeCoverage, Name: "A"}}, 5)
	require.NoError(t, err)
	require.Len(t, result.Paths, 1)
	assert.Equal(t, 1, result.Paths[0].Length())
}
