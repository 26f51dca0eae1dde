package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insuregraph/insuregraph/internal/policy"
	"github.com/insuregraph/insuregraph/internal/types"
)

func buildTestGraph() *MockClient {
	m := NewMockClient()
	m.AddNode("cov-1", policy.NodeCoverage, "암진단특약")
	m.AddNodeWithProps("dis-1", policy.NodeDisease, "갑상선암", map[string]any{
		"code":     "C73",
		"synonyms": []string{"갑상샘암"},
	})
	m.AddNode("cond-1", policy.NodeCondition, "90일 대기기간")
	m.AddEdge("cov-1", "dis-1", policy.RelationCovers, true, false, "clause-3-1")
	m.AddEdge("cov-1", "cond-1", policy.RelationRequires, false, true)
	return m
}

func TestMockClientFindSeeds(t *testing.T) {
	ctx := context.Background()
	m := buildTestGraph()

	t.Run("matches coverage by name", func(t *testing.T) {
		nodes, err := m.FindSeeds(ctx, []string{"암진단특약"})
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, "cov-1", nodes[0].ID)
	})

	t.Run("matches disease by code and synonym", func(t *testing.T) {
		nodes, err := m.FindSeeds(ctx, []string{"C73"})
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, policy.NodeDisease, nodes[0].Kind)

		nodes, err = m.FindSeeds(ctx, []string{"갑상샘암"})
		require.NoError(t, err)
		assert.Len(t, nodes, 1)
	})

	t.Run("unknown terms are skipped", func(t *testing.T) {
		nodes, err := m.FindSeeds(ctx, []string{"존재하지않는담보"})
		require.NoError(t, err)
		assert.Empty(t, nodes)
	})
}

func TestMockClientNeighbors(t *testing.T) {
	ctx := context.Background()
	m := buildTestGraph()

	t.Run("returns edges in insertion order", func(t *testing.T) {
		edges, err := m.Neighbors(ctx, NeighborRequest{NodeID: "cov-1"})
		require.NoError(t, err)
		require.Len(t, edges, 2)
		assert.Equal(t, policy.RelationCovers, edges[0].Type)
		assert.Equal(t, policy.RelationRequires, edges[1].Type)
		assert.Less(t, edges[0].Seq, edges[1].Seq)
	})

	t.Run("filters by relation type", func(t *testing.T) {
		edges, err := m.Neighbors(ctx, NeighborRequest{
			NodeID:   "cov-1",
			RelTypes: []policy.RelationType{policy.RelationCovers},
		})
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.Equal(t, "dis-1", edges[0].To.ID)
		assert.True(t, edges[0].Validated)
		assert.Equal(t, []string{"clause-3-1"}, edges[0].ClauseIDs)
	})

	t.Run("leaf node has no edges", func(t *testing.T) {
		edges, err := m.Neighbors(ctx, NeighborRequest{NodeID: "dis-1"})
		require.NoError(t, err)
		assert.Empty(t, edges)
	})

	t.Run("injected error", func(t *testing.T) {
		m.NeighborsErr = errors.New("boom")
		defer func() { m.NeighborsErr = nil }()

		_, err := m.Neighbors(ctx, NeighborRequest{NodeID: "cov-1"})
		assert.Error(t, err)
	})
}

func TestMockClientGetClauses(t *testing.T) {
	ctx := context.Background()
	m := buildTestGraph()
	m.AddClause(policy.Clause{ID: "clause-3-1", Article: "제3조", Paragraph: "①", Text: "회사는 피보험자가 암으로 진단확정된 경우 보험금을 지급합니다.", Page: 12})

	clauses, err := m.GetClauses(ctx, []string{"clause-3-1", "missing"})
	require.NoError(t, err)
	require.Len(t, clauses, 1)
	assert.Equal(t, "제3조 ①", clauses[0].Ref())
}

func TestMockClientLifecycle(t *testing.T) {
	ctx := context.Background()
	m := buildTestGraph()

	assert.Equal(t, types.HealthStateHealthy, m.Health(ctx).State)

	require.NoError(t, m.Close(ctx))
	assert.Equal(t, types.HealthStateUnhealthy, m.Health(ctx).State)

	_, err := m.FindSeeds(ctx, []string{"C73"})
	assert.Equal(t, ErrCodeConnectionClosed, types.CodeOf(err))

	require.NoError(t, m.Connect(ctx))
	assert.Equal(t, types.HealthStateHealthy, m.Health(ctx).State)
}
