// Package graph provides the graph-store boundary for the query pipeline:
// typed node/edge reads over the policy knowledge graph, a Neo4j
// implementation, and a mock for tests.
package graph

import (
	"context"
	"time"

	"github.com/insuregraph/insuregraph/internal/policy"
	"github.com/insuregraph/insuregraph/internal/types"
)

// Node is a graph node as returned from the store.
type Node struct {
	// ID is the store-level node identifier.
	ID string `json:"id"`

	// Kind is the node label: Coverage, Disease, or Condition.
	Kind policy.NodeKind `json:"kind"`

	// Name is the display name (coverage name, disease name, condition
	// description).
	Name string `json:"name"`

	// Props carries the remaining node properties.
	Props map[string]any `json:"props,omitempty"`
}

// Edge is a typed relationship with the extraction provenance the traverser's
// scoring depends on.
type Edge struct {
	FromID string              `json:"from_id"`
	Type   policy.RelationType `json:"type"`
	To     Node                `json:"to"`

	// Validated is true when the edge was confirmed during ingestion review.
	Validated bool `json:"validated"`

	// LLMExtracted is true when the edge came from LLM extraction without
	// later validation.
	LLMExtracted bool `json:"llm_extracted"`

	// ClauseIDs are the provenance links backing this edge.
	ClauseIDs []string `json:"clause_ids,omitempty"`

	// Seq is the edge-creation order, used as the final stable tie-break when
	// ranking paths.
	Seq int64 `json:"seq"`
}

// NeighborRequest asks for the outgoing edges of one node, optionally
// restricted to a set of relationship types.
type NeighborRequest struct {
	NodeID   string
	RelTypes []policy.RelationType
}

// Validate checks the request is well-formed.
func (r NeighborRequest) Validate() error {
	if r.NodeID == "" {
		return types.NewError(ErrCodeInvalidRequest, "node ID cannot be empty")
	}
	for _, rt := range r.RelTypes {
		if !rt.IsValid() {
			return types.NewError(ErrCodeInvalidRequest, "invalid relation type: "+rt.String())
		}
	}
	return nil
}

// Client provides read access to the policy knowledge graph.
// Implementations must be thread-safe for concurrent access. The query
// pipeline never writes; all mutation belongs to the ingestion pipeline.
type Client interface {
	// Connect establishes a connection to the graph database.
	Connect(ctx context.Context) error

	// Close releases all resources and closes the database connection.
	Close(ctx context.Context) error

	// Health returns the current health status of the graph connection.
	Health(ctx context.Context) types.HealthStatus

	// FindSeeds resolves entity terms (coverage names, disease codes or
	// synonyms) to graph nodes. Unknown terms are skipped, not errors.
	FindSeeds(ctx context.Context, terms []string) ([]Node, error)

	// Neighbors returns the outgoing edges of a node, filtered by edge type.
	Neighbors(ctx context.Context, req NeighborRequest) ([]Edge, error)

	// GetClauses fetches clause records by ID for provenance display.
	// Missing IDs are skipped, not errors.
	GetClauses(ctx context.Context, ids []string) ([]policy.Clause, error)
}

// Config contains configuration options for graph database clients.
type Config struct {
	// URI is the connection URI, e.g. "bolt://host:7687" or "neo4j+s://host".
	URI string

	// Username for authentication.
	Username string

	// Password for authentication.
	Password string

	// Database name to connect to. Empty string uses the default database.
	Database string

	// MaxConnectionPoolSize limits the number of connections in the pool.
	// Zero or negative values use the driver default.
	MaxConnectionPoolSize int

	// ConnectionTimeout is the maximum time to wait for a connection.
	ConnectionTimeout time.Duration

	// MaxTransactionRetryTime is the maximum time to retry failed transactions.
	MaxTransactionRetryTime time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URI:                     "bolt://localhost:7687",
		Username:                "neo4j",
		Password:                "password",
		Database:                "",
		MaxConnectionPoolSize:   50,
		ConnectionTimeout:       30 * time.Second,
		MaxTransactionRetryTime: 30 * time.Second,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.URI == "" {
		return types.NewError(ErrCodeInvalidConfig, "URI cannot be empty")
	}
	if c.Username == "" {
		return types.NewError(ErrCodeInvalidConfig, "Username cannot be empty")
	}
	if c.Password == "" {
		return types.NewError(ErrCodeInvalidConfig, "Password cannot be empty")
	}
	if c.ConnectionTimeout <= 0 {
		return types.NewError(ErrCodeInvalidConfig, "ConnectionTimeout must be positive")
	}
	if c.MaxTransactionRetryTime <= 0 {
		return types.NewError(ErrCodeInvalidConfig, "MaxTransactionRetryTime must be positive")
	}
	return nil
}
