package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/insuregraph/insuregraph/internal/graph"
	"github.com/insuregraph/insuregraph/internal/policy"
	"github.com/insuregraph/insuregraph/internal/types"
)

// MaxPaths caps the ranked traversal results per query.
const MaxPaths = 50

// Path confidence scoring weights. Longer paths are weaker evidence; human
// validation strengthens an edge, unreviewed LLM extraction weakens it.
const (
	lengthPenalty       = 0.1
	validatedBoost      = 0.1
	llmExtractedPenalty = 0.05
)

// TraversalResult is the outcome of graph traversal for one query.
type TraversalResult struct {
	// Paths are the ranked complete paths, at most MaxPaths.
	Paths []policy.GraphPath

	// Conflicts are the COVERS/EXCLUDES contradictions found among the paths.
	Conflicts []policy.PathConflict

	// Truncated counts partial paths dropped for exceeding the hop bound
	// before reaching a terminal node. Reported as a pipeline warning.
	Truncated int
}

// Warnings renders the truncation count as caller-visible warnings.
func (r *TraversalResult) Warnings() []string {
	var warnings []string
	if r.Truncated > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"%d traversal path(s) exceeded the hop limit and were dropped", r.Truncated))
	}
	for _, c := range r.Conflicts {
		warnings = append(warnings, c.String())
	}
	return warnings
}

// Traverser performs bounded breadth-first expansion over the policy graph.
type Traverser struct {
	client graph.Client
}

// NewTraverser creates a traverser over the given graph client.
func NewTraverser(client graph.Client) *Traverser {
	return &Traverser{client: client}
}

// candidate is one frontier entry during BFS: the path so far plus the set of
// node IDs on it, for cycle breaking.
type candidate struct {
	path    policy.GraphPath
	onPath  map[string]bool
	lastID  string
	edgeSeq int64 // Seq of the edge that produced this candidate, for stable ranking
	order   int   // discovery order
}

// Traverse expands breadth-first from the seed nodes along the traversable
// edge types up to maxHops. A path is complete when it reaches a node with no
// further traversable edges; paths still open at the hop bound are dropped
// and counted as truncated. Complete paths are scored, conflict-flagged,
// ranked, and capped at MaxPaths.
func (t *Traverser) Traverse(ctx context.Context, seeds []graph.Node, maxHops int) (*TraversalResult, error) {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	if maxHops > MaxHopsLimit {
		maxHops = MaxHopsLimit
	}

	result := &TraversalResult{}
	if len(seeds) == 0 {
		return result, nil
	}

	relTypes := []policy.RelationType{
		policy.RelationCovers,
		policy.RelationExcludes,
		policy.RelationRequires,
		policy.RelationReferences,
	}

	var complete []candidate
	discovery := 0

	frontier := make([]candidate, 0, len(seeds))
	for _, seed := range seeds {
		frontier = append(frontier, candidate{
			path: policy.GraphPath{
				Nodes: []policy.PathNode{{Kind: seed.Kind, ID: seed.ID, Name: seed.Name}},
			},
			onPath: map[string]bool{seed.ID: true},
			lastID: seed.ID,
		})
	}

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		var next []candidate
		for _, cand := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, types.WrapError(types.GRAPH_STORE_UNAVAILABLE,
					"traversal cancelled", err)
			}

			edges, err := t.client.Neighbors(ctx, graph.NeighborRequest{
				NodeID:   cand.lastID,
				RelTypes: relTypes,
			})
			if err != nil {
				return nil, types.WrapError(types.GRAPH_STORE_UNAVAILABLE,
					"neighbor expansion failed", err)
			}

			extended := false
			for _, edge := range edges {
				if cand.onPath[edge.To.ID] {
					continue
				}
				extended = true

				discovery++
				next = append(next, extend(cand, edge, discovery))
			}

			// A node with no unvisited traversable edges terminates the path.
			// Seeds that never extended carry no edge evidence and are not
			// paths.
			if !extended && cand.path.Length() > 0 {
				complete = append(complete, cand)
			}
		}
		frontier = next
	}

	// Whatever is still open after maxHops did not reach a terminal node.
	for _, cand := range frontier {
		edges, err := t.client.Neighbors(ctx, graph.NeighborRequest{
			NodeID:   cand.lastID,
			RelTypes: relTypes,
		})
		if err != nil {
			return nil, types.WrapError(types.GRAPH_STORE_UNAVAILABLE,
				"neighbor expansion failed", err)
		}
		open := false
		for _, edge := range edges {
			if !cand.onPath[edge.To.ID] {
				open = true
				break
			}
		}
		if open {
			result.Truncated++
		} else if cand.path.Length() > 0 {
			complete = append(complete, cand)
		}
	}

	for i := range complete {
		complete[i].path.Confidence = scorePath(&complete[i].path)
	}

	result.Conflicts = flagConflicts(complete)

	sort.SliceStable(complete, func(i, j int) bool {
		pi, pj := &complete[i].path, &complete[j].path
		if pi.Confidence != pj.Confidence {
			return pi.Confidence > pj.Confidence
		}
		if pi.Length() != pj.Length() {
			return pi.Length() < pj.Length()
		}
		return complete[i].edgeSeq < complete[j].edgeSeq
	})

	if len(complete) > MaxPaths {
		complete = complete[:MaxPaths]
	}

	result.Paths = make([]policy.GraphPath, 0, len(complete))
	for _, cand := range complete {
		result.Paths = append(result.Paths, cand.path)
	}
	return result, nil
}

// extend produces the candidate reached by following edge from cand.
func extend(cand candidate, edge graph.Edge, order int) candidate {
	nodes := make([]policy.PathNode, len(cand.path.Nodes), len(cand.path.Nodes)+1)
	copy(nodes, cand.path.Nodes)
	nodes = append(nodes, policy.PathNode{
		Kind: edge.To.Kind,
		ID:   edge.To.ID,
		Name: edge.To.Name,
	})

	pathEdges := make([]policy.PathEdge, len(cand.path.Edges), len(cand.path.Edges)+1)
	copy(pathEdges, cand.path.Edges)
	pathEdges = append(pathEdges, policy.PathEdge{
		Type:         edge.Type,
		Validated:    edge.Validated,
		LLMExtracted: edge.LLMExtracted,
		ClauseIDs:    edge.ClauseIDs,
	})

	onPath := make(map[string]bool, len(cand.onPath)+1)
	for id := range cand.onPath {
		onPath[id] = true
	}
	onPath[edge.To.ID] = true

	seq := cand.edgeSeq
	if edge.Seq > 0 {
		seq = edge.Seq
	}

	return candidate{
		path:    policy.GraphPath{Nodes: nodes, Edges: pathEdges},
		onPath:  onPath,
		lastID:  edge.To.ID,
		edgeSeq: seq,
		order:   order,
	}
}

// scorePath derives a path's confidence from its length and its edges'
// extraction provenance, clamped to [0,1].
func scorePath(path *policy.GraphPath) float64 {
	validated := 0
	llmExtracted := 0
	for _, edge := range path.Edges {
		if edge.Validated {
			validated++
		}
		if edge.LLMExtracted {
			llmExtracted++
		}
	}

	confidence := 1.0 -
		lengthPenalty*float64(path.Length()) +
		validatedBoost*float64(validated) -
		llmExtractedPenalty*float64(llmExtracted)

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

// flagConflicts finds coverage-disease pairs asserted both COVERS and
// EXCLUDES across the complete paths, marks every involved path, and returns
// one conflict record per pair. Both sides are kept; resolution is the
// reasoning stage's job to surface, not the traverser's to decide.
func flagConflicts(complete []candidate) []policy.PathConflict {
	type pair struct{ coverageID, diseaseID string }

	relations := make(map[pair]map[policy.RelationType][]int)
	for i := range complete {
		path := &complete[i].path
		for e, edge := range path.Edges {
			if edge.Type != policy.RelationCovers && edge.Type != policy.RelationExcludes {
				continue
			}
			from, to := path.Nodes[e], path.Nodes[e+1]
			if from.Kind != policy.NodeCoverage || to.Kind != policy.NodeDisease {
				continue
			}
			key := pair{coverageID: from.ID, diseaseID: to.ID}
			if relations[key] == nil {
				relations[key] = make(map[policy.RelationType][]int)
			}
			relations[key][edge.Type] = append(relations[key][edge.Type], i)
		}
	}

	var conflicts []policy.PathConflict
	for key, byType := range relations {
		covers, hasCovers := byType[policy.RelationCovers]
		excludes, hasExcludes := byType[policy.RelationExcludes]
		if !hasCovers || !hasExcludes {
			continue
		}
		conflicts = append(conflicts, policy.PathConflict{
			CoverageID:  key.coverageID,
			DiseaseCode: key.diseaseID,
		})
		for _, i := range covers {
			complete[i].path.Conflicting = true
		}
		for _, i := range excludes {
			complete[i].path.Conflicting = true
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].CoverageID != conflicts[j].CoverageID {
			return conflicts[i].CoverageID < conflicts[j].CoverageID
		}
		return conflicts[i].DiseaseCode < conflicts[j].DiseaseCode
	})
	return conflicts
}
