package pipeline

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/insuregraph/insuregraph/internal/graph"
	"github.com/insuregraph/insuregraph/internal/llm"
	"github.com/insuregraph/insuregraph/internal/observability"
	"github.com/insuregraph/insuregraph/internal/ontology"
	"github.com/insuregraph/insuregraph/internal/policy"
	"github.com/insuregraph/insuregraph/internal/types"
)

// Runner is the one operation the pipeline exposes to callers.
type Runner interface {
	RunQuery(ctx context.Context, query string, opts Options) (*QueryResult, error)
}

// Pipeline wires the stages together: classify, retrieve and seed
// concurrently, traverse, reason, validate. Each query is stateless and
// independent; the stores and the embedding cache are the only shared state,
// all read-safe.
type Pipeline struct {
	classifier *Classifier
	retriever  *Retriever
	traverser  *Traverser
	reasoner   *Reasoner
	validator  *Validator
	graph      graph.Client
	ont        *ontology.Ontology
	logger     *observability.TracedLogger
	tracer     stageTracer
	defaults   Options
}

// Deps are the collaborators a Pipeline needs.
type Deps struct {
	Classifier *Classifier
	Retriever  *Retriever
	Traverser  *Traverser
	Reasoner   *Reasoner
	Validator  *Validator
	Graph      graph.Client
	Ontology   *ontology.Ontology
	Logger     *observability.TracedLogger

	// DefaultMaxHops and DefaultTopK override the compiled-in defaults that
	// routing starts from. Zero keeps the compiled-in value.
	DefaultMaxHops int
	DefaultTopK    int
}

// New assembles a pipeline from its stage components.
func New(deps Deps) (*Pipeline, error) {
	if deps.Classifier == nil || deps.Retriever == nil || deps.Traverser == nil ||
		deps.Reasoner == nil || deps.Validator == nil || deps.Graph == nil ||
		deps.Ontology == nil || deps.Logger == nil {
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED,
			"pipeline requires all stage components")
	}

	return &Pipeline{
		classifier: deps.Classifier,
		retriever:  deps.Retriever,
		traverser:  deps.Traverser,
		reasoner:   deps.Reasoner,
		validator:  deps.Validator,
		graph:      deps.Graph,
		ont:        deps.Ontology,
		logger:     deps.Logger,
		tracer:     newStageTracer(),
		defaults:   Options{MaxHops: deps.DefaultMaxHops, TopK: deps.DefaultTopK},
	}, nil
}

// RunQuery processes one query end to end. Input errors are returned as
// errors before any stage runs; every other outcome, including upstream
// failures, is a terminal QueryResult. Rejected and failed results never
// carry an answer.
func (p *Pipeline) RunQuery(ctx context.Context, query string, opts Options) (*QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, types.NewError(types.QUERY_EMPTY, "query text cannot be empty")
	}
	if len([]rune(query)) > MaxQueryLength {
		return nil, types.NewError(types.QUERY_TOO_LONG, "query text exceeds length bound")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ctx, span := p.tracer.start(ctx, "pipeline.run_query")
	defer span.End()

	// Stage 1: classification. A fallback failure is not fatal; the query
	// proceeds as general with zero confidence. The verdict picks the
	// traversal depth and retrieval width for everything the caller left
	// unset.
	classification := p.classify(ctx, query)
	opts = opts.routed(classification.Type, p.defaults)

	// Stage 2: vector retrieval and graph seed lookup, the one permitted
	// intra-query parallelism. Both must succeed; either store being down is
	// indistinguishable from "don't know" if silently degraded.
	hits, seeds, err := p.retrieveAndSeed(ctx, query, opts.TopK)
	if err != nil {
		return p.failed(ctx, classification, err), nil
	}

	// Stage 3: bounded traversal from the seed entities.
	traversal, err := p.traverse(ctx, seeds, opts.MaxHops)
	if err != nil {
		return p.failed(ctx, classification, err), nil
	}
	warnings := traversal.Warnings()
	for _, w := range warnings {
		p.logger.Warn(ctx, "traversal warning", "warning", w)
	}

	// Stage 4: fetch provenance clauses the paths cite beyond the retrieved
	// set, then draft the answer through the cascade.
	retrieved, extraClauses, err := p.collectContext(ctx, hits, traversal)
	if err != nil {
		return p.failed(ctx, classification, err), nil
	}

	answer, cascade, err := p.reason(ctx, query, opts.ConfidenceThreshold, traversal, hits, extraClauses)
	if err != nil {
		return p.failed(ctx, classification, err), nil
	}
	p.logger.Debug(ctx, "answer drafted",
		"tier", cascade.TierName,
		"escalated", cascade.Escalated,
		"confidence", answer.Confidence,
	)

	// Stage 5: validation.
	verdict := p.validate(ctx, query, answer, retrieved, traversal)
	warnings = append(warnings, verdict.Warnings...)

	result := &QueryResult{
		Status:         verdict.Status,
		Reason:         verdict.Reason,
		Warnings:       warnings,
		Violations:     verdict.Violations,
		Classification: classification,
	}
	switch verdict.Status {
	case StatusApproved:
		result.Message = "answer approved"
		result.Answer = answer
		result.Sources = answer.Sources
	case StatusNeedsReview:
		result.Message = "answer requires expert review before it can be relied on"
		result.Answer = answer
		result.Sources = answer.Sources
	case StatusRejected:
		result.Message = "the drafted answer failed validation and was withheld"
	}

	p.logger.Info(ctx, "query completed",
		"status", string(result.Status),
		"reason", result.Reason,
		"query_type", string(classification.Type),
	)
	return result, nil
}

func (p *Pipeline) classify(ctx context.Context, query string) Classification {
	ctx, span := p.tracer.start(ctx, "pipeline.classify")
	defer span.End()

	classification, err := p.classifier.Classify(ctx, query)
	if err != nil {
		p.logger.Warn(ctx, "classifier fallback failed, continuing as general",
			"error", err.Error())
	}
	span.record(
		"query.type", string(classification.Type),
		"query.method", string(classification.Method),
	)
	return classification
}

func (p *Pipeline) retrieveAndSeed(ctx context.Context, query string, topK int) ([]policy.ClauseHit, []graph.Node, error) {
	ctx, span := p.tracer.start(ctx, "pipeline.retrieve")
	defer span.End()

	var (
		hits  []policy.ClauseHit
		seeds []graph.Node
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hits, err = p.retriever.Retrieve(gctx, query, topK)
		return err
	})
	g.Go(func() error {
		terms := seedTerms(query, p.ont)
		if len(terms) == 0 {
			return nil
		}
		found, err := p.graph.FindSeeds(gctx, terms)
		if err != nil {
			return types.WrapError(types.GRAPH_STORE_UNAVAILABLE,
				"seed entity lookup failed", err)
		}
		seeds = found
		return nil
	})

	if err := g.Wait(); err != nil {
		span.fail(err)
		return nil, nil, err
	}

	span.record("retrieval.hits", len(hits), "retrieval.seeds", len(seeds))
	return hits, seeds, nil
}

func (p *Pipeline) traverse(ctx context.Context, seeds []graph.Node, maxHops int) (*TraversalResult, error) {
	ctx, span := p.tracer.start(ctx, "pipeline.traverse")
	defer span.End()

	traversal, err := p.traverser.Traverse(ctx, seeds, maxHops)
	if err != nil {
		span.fail(err)
		return nil, err
	}
	span.record(
		"traversal.paths", len(traversal.Paths),
		"traversal.conflicts", len(traversal.Conflicts),
		"traversal.truncated", traversal.Truncated,
	)
	return traversal, nil
}

// collectContext builds the retrieved clause-ID set and fetches provenance
// clauses cited by paths but absent from vector retrieval.
func (p *Pipeline) collectContext(ctx context.Context, hits []policy.ClauseHit, traversal *TraversalResult) (map[string]bool, []policy.Clause, error) {
	retrieved := make(map[string]bool, len(hits))
	for _, hit := range hits {
		retrieved[hit.ClauseID] = true
	}

	var missing []string
	for _, path := range traversal.Paths {
		for _, id := range path.ClauseIDs() {
			if !retrieved[id] {
				retrieved[id] = true
				missing = append(missing, id)
			}
		}
	}
	if len(missing) == 0 {
		return retrieved, nil, nil
	}

	clauses, err := p.graph.GetClauses(ctx, missing)
	if err != nil {
		return nil, nil, types.WrapError(types.GRAPH_STORE_UNAVAILABLE,
			"provenance clause fetch failed", err)
	}
	return retrieved, clauses, nil
}

func (p *Pipeline) reason(ctx context.Context, query string, threshold float64, traversal *TraversalResult, hits []policy.ClauseHit, clauses []policy.Clause) (*policy.Answer, *llm.CascadeResult, error) {
	ctx, span := p.tracer.start(ctx, "pipeline.reason")
	defer span.End()

	answer, cascade, err := p.reasoner.Reason(ctx, query, threshold, traversal, hits, clauses)
	if err != nil {
		span.fail(err)
		return nil, nil, err
	}
	span.record("reasoning.tier", cascade.TierName, "reasoning.confidence", cascade.Confidence)
	return answer, cascade, nil
}

func (p *Pipeline) validate(ctx context.Context, query string, answer *policy.Answer, retrieved map[string]bool, traversal *TraversalResult) Verdict {
	ctx, span := p.tracer.start(ctx, "pipeline.validate")
	defer span.End()

	verdict := p.validator.Validate(ctx, query, answer, retrieved, traversal)
	span.record("validation.status", string(verdict.Status), "validation.reason", verdict.Reason)
	return verdict
}

// failed builds the terminal result for an upstream failure. The cause tag is
// the error code, so callers can distinguish which collaborator was down.
func (p *Pipeline) failed(ctx context.Context, classification Classification, err error) *QueryResult {
	reason := string(types.CodeOf(err))
	if types.CodeOf(err) == types.LLM_OUTPUT_MALFORMED {
		reason = ReasonOutputMalformed
	}

	p.logger.Error(ctx, "query failed", "reason", reason, "error", err.Error())
	return &QueryResult{
		Status:         StatusFailed,
		Reason:         reason,
		Message:        "the query could not be answered: " + err.Error(),
		Classification: classification,
	}
}

// seedTerms derives graph lookup terms from the query: every ontology disease
// mentioned in the text, expanded through its synonym table, plus the raw
// whitespace-separated tokens for coverage-name matching in the store.
func seedTerms(query string, ont *ontology.Ontology) []string {
	seen := make(map[string]bool)
	var terms []string

	add := func(term string) {
		term = strings.TrimSpace(term)
		if term == "" || seen[term] {
			return
		}
		seen[term] = true
		terms = append(terms, term)
	}

	for _, disease := range ont.Diseases {
		mentioned := strings.Contains(query, disease.Name) || strings.Contains(query, disease.Code)
		for _, synonym := range disease.Synonyms {
			if strings.Contains(query, synonym) {
				mentioned = true
			}
		}
		if mentioned {
			for _, term := range ont.SynonymsFor(disease.Code) {
				add(term)
			}
		}
	}

	for _, token := range strings.Fields(query) {
		add(strings.Trim(token, "?!.,;:()\"'"))
	}

	return terms
}
