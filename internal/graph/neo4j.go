package graph

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/insuregraph/insuregraph/internal/policy"
	"github.com/insuregraph/insuregraph/internal/types"
)

// Neo4jClient implements Client for Neo4j graph databases.
// It provides connection pooling, automatic retries, and health monitoring.
type Neo4jClient struct {
	config Config
	driver neo4j.DriverWithContext
}

// NewNeo4jClient creates a new Neo4j client with the given configuration.
// The client must be connected via Connect() before use.
func NewNeo4jClient(config Config) (*Neo4jClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Neo4jClient{
		config: config,
	}, nil
}

// Connect establishes a connection to the Neo4j database.
// Uses exponential backoff for connection retries.
func (c *Neo4jClient) Connect(ctx context.Context) error {
	auth := neo4j.BasicAuth(c.config.Username, c.config.Password, "")

	driverConfig := func(config *neo4j.Config) {
		config.MaxConnectionPoolSize = c.config.MaxConnectionPoolSize
		config.ConnectionAcquisitionTimeout = c.config.ConnectionTimeout
		config.MaxTransactionRetryTime = c.config.MaxTransactionRetryTime
		// Encryption is controlled by the URI scheme (bolt:// vs bolt+s://).
	}

	var driver neo4j.DriverWithContext
	var lastErr error
	maxRetries := 5
	baseDelay := 100 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		var err error
		driver, err = neo4j.NewDriverWithContext(c.config.URI, auth, driverConfig)
		if err == nil {
			err = driver.VerifyConnectivity(ctx)
			if err == nil {
				c.driver = driver
				return nil
			}
		}

		lastErr = err

		if ctx.Err() != nil {
			return types.WrapError(ErrCodeConnectionFailed,
				"connection attempt cancelled", ctx.Err())
		}

		// Backoff delay: baseDelay * 2^attempt, capped at the connection timeout.
		delay := baseDelay * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.config.ConnectionTimeout {
			delay = c.config.ConnectionTimeout
		}

		select {
		case <-time.After(delay):
			continue
		case <-ctx.Done():
			return types.WrapError(ErrCodeConnectionFailed,
				"connection attempt cancelled", ctx.Err())
		}
	}

	return types.WrapError(ErrCodeConnectionFailed,
		fmt.Sprintf("failed to connect after %d attempts", maxRetries), lastErr)
}

// Close releases all resources and closes the database connection.
func (c *Neo4jClient) Close(ctx context.Context) error {
	if c.driver == nil {
		return nil
	}

	if err := c.driver.Close(ctx); err != nil {
		return types.WrapError(ErrCodeConnectionClosed,
			"failed to close driver", err)
	}

	c.driver = nil
	return nil
}

// Health returns the current health status of the Neo4j connection.
func (c *Neo4jClient) Health(ctx context.Context) types.HealthStatus {
	if c.driver == nil {
		return types.Unhealthy("driver not initialized")
	}

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.driver.VerifyConnectivity(healthCtx); err != nil {
		return types.Unhealthy(fmt.Sprintf("connectivity check failed: %v", err))
	}

	return types.Healthy("connected to Neo4j")
}

// FindSeeds resolves entity terms to Coverage and Disease nodes. A term
// matches a coverage by name, or a disease by code, name, or synonym.
// Terms that resolve to nothing are dropped silently.
func (c *Neo4jClient) FindSeeds(ctx context.Context, terms []string) ([]Node, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	cypher := `
		MATCH (n)
		WHERE (n:Coverage AND n.name IN $terms)
		   OR (n:Disease AND (n.code IN $terms OR n.name IN $terms
		       OR any(s IN coalesce(n.synonyms, []) WHERE s IN $terms)))
		RETURN elementId(n) AS id, labels(n) AS labels, n.name AS name, properties(n) AS props
	`

	records, err := c.read(ctx, cypher, map[string]any{"terms": terms})
	if err != nil {
		return nil, err
	}

	nodes := make([]Node, 0, len(records))
	for _, record := range records {
		nodes = append(nodes, recordToNode(record))
	}
	return nodes, nil
}

// Neighbors returns the outgoing edges of a node, filtered by edge type when
// RelTypes is non-empty. Edges come back in creation order so traversal
// tie-breaks stay deterministic.
func (c *Neo4jClient) Neighbors(ctx context.Context, req NeighborRequest) ([]Edge, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	relTypes := make([]string, 0, len(req.RelTypes))
	for _, rt := range req.RelTypes {
		relTypes = append(relTypes, rt.String())
	}

	cypher := `
		MATCH (from)-[r]->(to)
		WHERE elementId(from) = $nodeId
		  AND (size($relTypes) = 0 OR type(r) IN $relTypes)
		RETURN type(r) AS rel_type,
		       coalesce(r.validated, false) AS validated,
		       coalesce(r.llm_extracted, false) AS llm_extracted,
		       coalesce(r.clause_ids, []) AS clause_ids,
		       coalesce(r.seq, 0) AS seq,
		       elementId(to) AS id, labels(to) AS labels, to.name AS name,
		       properties(to) AS props
		ORDER BY seq ASC
	`

	params := map[string]any{
		"nodeId":   req.NodeID,
		"relTypes": relTypes,
	}

	records, err := c.read(ctx, cypher, params)
	if err != nil {
		return nil, err
	}

	edges := make([]Edge, 0, len(records))
	for _, record := range records {
		edge := Edge{
			FromID:       req.NodeID,
			Type:         policy.RelationType(stringValue(record, "rel_type")),
			Validated:    boolValue(record, "validated"),
			LLMExtracted: boolValue(record, "llm_extracted"),
			ClauseIDs:    stringSliceValue(record, "clause_ids"),
			Seq:          intValue(record, "seq"),
			To:           recordToNode(record),
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

// GetClauses fetches clause nodes by ID. IDs that match nothing are skipped.
func (c *Neo4jClient) GetClauses(ctx context.Context, ids []string) ([]policy.Clause, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cypher := `
		MATCH (cl:Clause)
		WHERE cl.id IN $ids
		RETURN cl.id AS id, cl.article AS article,
		       coalesce(cl.paragraph, '') AS paragraph,
		       cl.text AS text, coalesce(cl.page, 0) AS page
	`

	records, err := c.read(ctx, cypher, map[string]any{"ids": ids})
	if err != nil {
		return nil, err
	}

	clauses := make([]policy.Clause, 0, len(records))
	for _, record := range records {
		clauses = append(clauses, policy.Clause{
			ID:        stringValue(record, "id"),
			Article:   stringValue(record, "article"),
			Paragraph: stringValue(record, "paragraph"),
			Text:      stringValue(record, "text"),
			Page:      int(intValue(record, "page")),
		})
	}
	return clauses, nil
}

// read executes a Cypher query in a read transaction and returns the records
// as column-keyed maps.
func (c *Neo4jClient) read(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	if c.driver == nil {
		return nil, types.NewError(ErrCodeConnectionClosed, "driver not connected")
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.config.Database,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		neoResult, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}

		records, err := neoResult.Collect(ctx)
		if err != nil {
			return nil, err
		}

		rows := make([]map[string]any, 0, len(records))
		for _, record := range records {
			row := make(map[string]any, len(record.Keys))
			for i, key := range record.Keys {
				row[key] = record.Values[i]
			}
			rows = append(rows, row)
		}
		return rows, nil
	})

	if err != nil {
		return nil, types.WrapError(ErrCodeQueryFailed, "query execution failed", err)
	}

	return result.([]map[string]any), nil
}

// recordToNode builds a Node from the id/labels/name/props columns every node
// query returns.
func recordToNode(record map[string]any) Node {
	node := Node{
		ID:   stringValue(record, "id"),
		Name: stringValue(record, "name"),
	}

	for _, label := range stringSliceValue(record, "labels") {
		switch label {
		case "Coverage":
			node.Kind = policy.NodeCoverage
		case "Disease":
			node.Kind = policy.NodeDisease
		case "Condition":
			node.Kind = policy.NodeCondition
		}
	}

	if props, ok := record["props"].(map[string]any); ok {
		node.Props = props
	}
	return node
}

func stringValue(record map[string]any, key string) string {
	if v, ok := record[key].(string); ok {
		return v
	}
	return ""
}

func boolValue(record map[string]any, key string) bool {
	if v, ok := record[key].(bool); ok {
		return v
	}
	return false
}

func intValue(record map[string]any, key string) int64 {
	switch v := record[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func stringSliceValue(record map[string]any, key string) []string {
	raw, ok := record[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
