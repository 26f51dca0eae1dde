package policy

import "fmt"

// RelationType represents the type of a graph edge between policy entities.
type RelationType string

const (
	RelationCovers     RelationType = "COVERS"
	RelationExcludes   RelationType = "EXCLUDES"
	RelationRequires   RelationType = "REQUIRES"
	RelationReferences RelationType = "REFERENCES"
	RelationDefinedIn  RelationType = "DEFINED_IN"
)

// String returns the string representation of RelationType.
func (rt RelationType) String() string {
	return string(rt)
}

// IsValid checks if the RelationType is a valid value.
func (rt RelationType) IsValid() bool {
	switch rt {
	case RelationCovers, RelationExcludes, RelationRequires,
		RelationReferences, RelationDefinedIn:
		return true
	default:
		return false
	}
}

// IsTraversable reports whether the edge type participates in multi-hop
// traversal. DEFINED_IN edges carry provenance only and are followed
// separately when collecting source clauses.
func (rt RelationType) IsTraversable() bool {
	switch rt {
	case RelationCovers, RelationExcludes, RelationRequires, RelationReferences:
		return true
	default:
		return false
	}
}

// NodeKind identifies which entity type a path node wraps.
type NodeKind string

const (
	NodeCoverage  NodeKind = "coverage"
	NodeDisease   NodeKind = "disease"
	NodeCondition NodeKind = "condition"
)

// PathNode is one entity on a traversal path.
type PathNode struct {
	Kind NodeKind `json:"kind"`
	ID   string   `json:"id"`
	Name string   `json:"name"`
}

// PathEdge is one typed edge on a traversal path, with the extraction
// provenance the scoring formula depends on.
type PathEdge struct {
	Type RelationType `json:"type"`
	// Validated is true when the edge was confirmed by a human reviewer or a
	// deterministic rule during ingestion.
	Validated bool `json:"validated"`
	// LLMExtracted is true when the edge came from LLM entity extraction
	// without later validation.
	LLMExtracted bool `json:"llm_extracted"`
	// ClauseIDs carry the provenance links for this edge.
	ClauseIDs []string `json:"clause_ids,omitempty"`
}

// GraphPath is a traversal result: an ordered sequence of nodes connected by
// typed edges, annotated with a derived confidence score. Paths are transient,
// constructed per query and never persisted.
type GraphPath struct {
	Nodes      []PathNode `json:"nodes"`
	Edges      []PathEdge `json:"edges"`
	Confidence float64    `json:"confidence"`
	// Conflicting is set when a parallel edge asserts the opposite
	// COVERS/EXCLUDES relation for the same coverage-disease pair. Conflicting
	// paths are retained, never silently dropped.
	Conflicting bool `json:"conflicting,omitempty"`
}

// Length returns the number of edges in the path (the hop count).
func (p *GraphPath) Length() int {
	return len(p.Edges)
}

// Validate checks structural consistency: n nodes require n-1 edges and the
// confidence must lie in [0,1].
func (p *GraphPath) Validate() error {
	if len(p.Nodes) == 0 {
		return fmt.Errorf("path must contain at least one node")
	}
	if len(p.Edges) != len(p.Nodes)-1 {
		return fmt.Errorf("path has %d nodes but %d edges", len(p.Nodes), len(p.Edges))
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("path confidence %f outside [0,1]", p.Confidence)
	}
	return nil
}

// ClauseIDs returns the deduplicated provenance clause IDs across all edges,
// preserving first-seen order.
func (p *GraphPath) ClauseIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, e := range p.Edges {
		for _, id := range e.ClauseIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// PathConflict records a COVERS/EXCLUDES contradiction for a single
// coverage-disease pair found during traversal.
type PathConflict struct {
	CoverageID  string `json:"coverage_id"`
	DiseaseCode string `json:"disease_code"`
}

// String renders the conflict for warnings and prompt text.
func (c PathConflict) String() string {
	return fmt.Sprintf("conflicting COVERS/EXCLUDES edges between coverage %s and disease %s",
		c.CoverageID, c.DiseaseCode)
}
