package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClause_Ref(t *testing.T) {
	tests := []struct {
		name   string
		clause Clause
		want   string
	}{
		{
			name:   "article and paragraph",
			clause: Clause{Article: "제3조", Paragraph: "①"},
			want:   "제3조 ①",
		},
		{
			name:   "article only",
			clause: Clause{Article: "제5조"},
			want:   "제5조",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.clause.Ref())
		})
	}
}

func TestClause_Validate(t *testing.T) {
	c := Clause{ID: "c-1", Article: "제3조", Text: "보험금을 지급합니다."}
	require.NoError(t, c.Validate())

	assert.Error(t, (&Clause{Text: "text"}).Validate())
	assert.Error(t, (&Clause{ID: "c-2"}).Validate())
}

func TestRelationType_IsTraversable(t *testing.T) {
	assert.True(t, RelationCovers.IsTraversable())
	assert.True(t, RelationExcludes.IsTraversable())
	assert.True(t, RelationRequires.IsTraversable())
	assert.True(t, RelationReferences.IsTraversable())
	assert.False(t, RelationDefinedIn.IsTraversable())
}

func TestRelationType_IsValid(t *testing.T) {
	assert.True(t, RelationCovers.IsValid())
	assert.False(t, RelationType("MENTIONS").IsValid())
}

func TestDisease_Matches(t *testing.T) {
	d := Disease{
		Code:     "C73",
		Name:     "갑상선암",
		Synonyms: []string{"갑상샘암", "thyroid cancer"},
	}

	assert.True(t, d.Matches("C73"))
	assert.True(t, d.Matches("갑상선암"))
	assert.True(t, d.Matches("thyroid cancer"))
	assert.False(t, d.Matches("위암"))
}

func TestGraphPath_Validate(t *testing.T) {
	valid := GraphPath{
		Nodes: []PathNode{
			{Kind: NodeCoverage, ID: "cov-1", Name: "암진단비"},
			{Kind: NodeDisease, ID: "C73", Name: "갑상선암"},
		},
		Edges:      []PathEdge{{Type: RelationCovers, Validated: true}},
		Confidence: 0.9,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		path GraphPath
	}{
		{
			name: "no nodes",
			path: GraphPath{},
		},
		{
			name: "edge count mismatch",
			path: GraphPath{
				Nodes: []PathNode{{Kind: NodeCoverage, ID: "cov-1"}},
				Edges: []PathEdge{{Type: RelationCovers}},
			},
		},
		{
			name: "confidence out of range",
			path: GraphPath{
				Nodes:      []PathNode{{Kind: NodeCoverage, ID: "cov-1"}},
				Confidence: 1.3,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.path.Validate())
		})
	}
}

func TestGraphPath_ClauseIDs(t *testing.T) {
	p := GraphPath{
		Nodes: []PathNode{
			{Kind: NodeCoverage, ID: "cov-1"},
			{Kind: NodeDisease, ID: "C73"},
			{Kind: NodeCondition, ID: "cond-1"},
		},
		Edges: []PathEdge{
			{Type: RelationCovers, ClauseIDs: []string{"cl-1", "cl-2"}},
			{Type: RelationRequires, ClauseIDs: []string{"cl-2", "cl-3"}},
		},
		Confidence: 0.8,
	}

	assert.Equal(t, []string{"cl-1", "cl-2", "cl-3"}, p.ClauseIDs())
}

func TestAnswer_Validate(t *testing.T) {
	valid := Answer{
		Summary:    "갑상선암은 암진단비 특약에서 보장됩니다.",
		Confidence: 0.85,
		Details: []CoverageDetail{
			{
				CoverageName: "암진단비",
				Covered:      true,
				Reasoning:    "제3조에 따라 보장",
				ClauseIDs:    []string{"cl-1"},
			},
		},
		Sources: []string{"cl-1"},
	}
	require.NoError(t, valid.Validate())

	noSummary := valid
	noSummary.Summary = ""
	assert.Error(t, noSummary.Validate())

	badConfidence := valid
	badConfidence.Confidence = -0.1
	assert.Error(t, badConfidence.Validate())

	noClauses := valid
	noClauses.Details = []CoverageDetail{{CoverageName: "암진단비", Reasoning: "x"}}
	assert.Error(t, noClauses.Validate())
}

func TestCondition_IsEmpty(t *testing.T) {
	assert.True(t, (&Condition{ID: "c", Description: "none"}).IsEmpty())
	assert.False(t, (&Condition{WaitingPeriodDays: 90}).IsEmpty())
	assert.False(t, (&Condition{ReductionPercent: 50}).IsEmpty())
}
