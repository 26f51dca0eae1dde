package graph

import (
	"context"
	"strings"
	"sync"

	"github.com/insuregraph/insuregraph/internal/policy"
	"github.com/insuregraph/insuregraph/internal/types"
)

// MockClient is an in-memory Client for testing. Nodes and edges are added
// directly; adjacency is kept per node in insertion order so traversal tests
// are deterministic.
type MockClient struct {
	mu        sync.RWMutex
	connected bool
	nodes     map[string]Node
	edges     map[string][]Edge
	clauses   map[string]policy.Clause
	seq       int64

	// Error injection for failure-path tests. When set, the corresponding
	// method returns the error instead of data.
	SeedsErr     error
	NeighborsErr error
	ClausesErr   error
}

// NewMockClient creates an empty connected mock graph.
func NewMockClient() *MockClient {
	return &MockClient{
		connected: true,
		nodes:     make(map[string]Node),
		edges:     make(map[string][]Edge),
		clauses:   make(map[string]policy.Clause),
	}
}

// AddNode registers a node and returns it for convenience.
func (m *MockClient) AddNode(id string, kind policy.NodeKind, name string) Node {
	m.mu.Lock()
	defer m.mu.Unlock()

	node := Node{ID: id, Kind: kind, Name: name}
	m.nodes[id] = node
	return node
}

// AddNodeWithProps registers a node carrying extra properties, such as a
// disease code or synonym list.
func (m *MockClient) AddNodeWithProps(id string, kind policy.NodeKind, name string, props map[string]any) Node {
	m.mu.Lock()
	defer m.mu.Unlock()

	node := Node{ID: id, Kind: kind, Name: name, Props: props}
	m.nodes[id] = node
	return node
}

// AddEdge registers an outgoing edge from fromID to toID. The target node
// must already exist. Seq is assigned in insertion order.
func (m *MockClient) AddEdge(fromID, toID string, relType policy.RelationType, validated, llmExtracted bool, clauseIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	m.edges[fromID] = append(m.edges[fromID], Edge{
		FromID:       fromID,
		Type:         relType,
		To:           m.nodes[toID],
		Validated:    validated,
		LLMExtracted: llmExtracted,
		ClauseIDs:    clauseIDs,
		Seq:          m.seq,
	})
}

// AddClause registers a clause for GetClauses lookups.
func (m *MockClient) AddClause(clause policy.Clause) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clauses[clause.ID] = clause
}

// Connect marks the mock as connected.
func (m *MockClient) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	return nil
}

// Close marks the mock as disconnected.
func (m *MockClient) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

// Health reports healthy while the mock is connected.
func (m *MockClient) Health(ctx context.Context) types.HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return types.Unhealthy("mock client closed")
	}
	return types.Healthy("mock graph client operational")
}

// FindSeeds matches terms against node names, disease codes, and synonyms
// stored in node props.
func (m *MockClient) FindSeeds(ctx context.Context, terms []string) ([]Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.SeedsErr != nil {
		return nil, m.SeedsErr
	}
	if !m.connected {
		return nil, types.NewError(ErrCodeConnectionClosed, "mock client closed")
	}

	termSet := make(map[string]bool, len(terms))
	for _, t := range terms {
		termSet[strings.ToLower(t)] = true
	}

	var found []Node
	for _, node := range m.nodes {
		if nodeMatchesTerms(node, termSet) {
			found = append(found, node)
		}
	}
	return found, nil
}

func nodeMatchesTerms(node Node, terms map[string]bool) bool {
	if terms[strings.ToLower(node.Name)] {
		return true
	}
	if code, ok := node.Props["code"].(string); ok && terms[strings.ToLower(code)] {
		return true
	}
	if synonyms, ok := node.Props["synonyms"].([]string); ok {
		for _, s := range synonyms {
			if terms[strings.ToLower(s)] {
				return true
			}
		}
	}
	return false
}

// Neighbors returns the registered outgoing edges in insertion order.
func (m *MockClient) Neighbors(ctx context.Context, req NeighborRequest) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.NeighborsErr != nil {
		return nil, m.NeighborsErr
	}
	if !m.connected {
		return nil, types.NewError(ErrCodeConnectionClosed, "mock client closed")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	allowed := make(map[policy.RelationType]bool, len(req.RelTypes))
	for _, rt := range req.RelTypes {
		allowed[rt] = true
	}

	var out []Edge
	for _, edge := range m.edges[req.NodeID] {
		if len(allowed) > 0 && !allowed[edge.Type] {
			continue
		}
		out = append(out, edge)
	}
	return out, nil
}

// GetClauses returns the registered clauses for the given IDs, skipping
// unknown IDs.
func (m *MockClient) GetClauses(ctx context.Context, ids []string) ([]policy.Clause, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ClausesErr != nil {
		return nil, m.ClausesErr
	}
	if !m.connected {
		return nil, types.NewError(ErrCodeConnectionClosed, "mock client closed")
	}

	var out []policy.Clause
	for _, id := range ids {
		if clause, ok := m.clauses[id]; ok {
			out = append(out, clause)
		}
	}
	return out, nil
}
