package ontology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insuregraph/insuregraph/internal/types"
)

func TestDefault(t *testing.T) {
	ont, err := Default()
	require.NoError(t, err)

	assert.NotEmpty(t, ont.Version)
	assert.Contains(t, ont.ForbiddenPhrases, "100% 보장")
	require.NotEmpty(t, ont.PatternGroups)
	assert.Equal(t, "simple_coverage", ont.PatternGroups[0].Type)
}

func TestPatternGroupMatches(t *testing.T) {
	ont, err := Default()
	require.NoError(t, err)

	byType := make(map[string]*PatternGroup)
	for i := range ont.PatternGroups {
		byType[ont.PatternGroups[i].Type] = &ont.PatternGroups[i]
	}

	tests := []struct {
		query string
		group string
	}{
		{"갑상선암 보장돼요?", "simple_coverage"},
		{"진단금 받을 수 있나요", "simple_coverage"},
		{"두 특약 차이가 뭔가요", "comparison"},
		{"면책기간이 지났나요", "temporal"},
		{"가입 후 90일이면 언제부터 보장되나요", "temporal"},
		{"보장 안 되는 항목이 있나요", "gap_analysis"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			group, ok := byType[tt.group]
			require.True(t, ok)
			assert.True(t, group.Matches(tt.query))
		})
	}

	t.Run("no group matches free-form question", func(t *testing.T) {
		for _, g := range ont.PatternGroups {
			assert.False(t, g.Matches("보험이란 무엇인가요"), "group %s", g.Type)
		}
	})
}

func TestSynonymsFor(t *testing.T) {
	ont, err := Default()
	require.NoError(t, err)

	t.Run("expands known disease from any alias", func(t *testing.T) {
		for _, term := range []string{"C73", "갑상선암", "갑상샘암"} {
			names := ont.SynonymsFor(term)
			assert.Contains(t, names, "C73")
			assert.Contains(t, names, "갑상선암")
			assert.Contains(t, names, "갑상샘암")
		}
	})

	t.Run("unknown term passes through", func(t *testing.T) {
		assert.Equal(t, []string{"미지의병명"}, ont.SynonymsFor("미지의병명"))
	})
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "ontology.yaml")
		content := `
version: "test-1"
forbidden_phrases:
  - "100% 보장"
pattern_groups:
  - type: simple_coverage
    patterns:
      - "보장"
diseases:
  - code: C73
    name: 갑상선암
    synonyms: [갑상샘암]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		ont, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "test-1", ont.Version)
		assert.True(t, ont.PatternGroups[0].Matches("보장돼요?"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"))
		assert.Equal(t, ErrCodeLoadFailed, types.CodeOf(err))
	})

	t.Run("invalid regexp", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		content := `
version: "bad"
forbidden_phrases: ["x"]
pattern_groups:
  - type: simple_coverage
    patterns: ["("]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err := Load(path)
		assert.Equal(t, ErrCodeInvalidRegexp, types.CodeOf(err))
	})

	t.Run("empty pattern groups rejected", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		content := `
version: "empty"
forbidden_phrases: ["x"]
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err := Load(path)
		assert.Equal(t, ErrCodeInvalidData, types.CodeOf(err))
	})

	t.Run("empty path uses defaults", func(t *testing.T) {
		ont, err := Load("")
		require.NoError(t, err)
		assert.Contains(t, ont.ForbiddenPhrases, "100% 보장")
	})
}
