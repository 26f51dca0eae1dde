// Package ontology holds the static, versioned configuration data the
// pipeline depends on: the classifier's query-type pattern groups, the
// validator's forbidden-phrase list, and the disease synonym table used for
// seed-entity linking. The data is loaded once at startup and passed
// explicitly into the components that use it; there is no ambient global.
package ontology

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/insuregraph/insuregraph/internal/types"
)

// Error codes for the ontology package.
const (
	ErrCodeLoadFailed    types.ErrorCode = "ONTOLOGY_LOAD_FAILED"
	ErrCodeInvalidData   types.ErrorCode = "ONTOLOGY_INVALID_DATA"
	ErrCodeInvalidRegexp types.ErrorCode = "ONTOLOGY_INVALID_REGEXP"
)

// PatternGroup is one ordered classifier rule: a query type and the regex
// alternatives that select it. Groups are evaluated in declaration order and
// the first group with any matching pattern wins.
type PatternGroup struct {
	Type     string   `yaml:"type"`
	Patterns []string `yaml:"patterns"`

	compiled []*regexp.Regexp
}

// Matches reports whether any of the group's compiled patterns matches the
// query text.
func (g *PatternGroup) Matches(query string) bool {
	for _, re := range g.compiled {
		if re.MatchString(query) {
			return true
		}
	}
	return false
}

// DiseaseEntry maps a classification code to its canonical name and synonyms.
type DiseaseEntry struct {
	Code     string   `yaml:"code"`
	Name     string   `yaml:"name"`
	Synonyms []string `yaml:"synonyms"`
}

// Ontology is the loaded, compiled configuration set.
type Ontology struct {
	// Version identifies the data revision, for logging and provenance.
	Version string `yaml:"version"`

	// ForbiddenPhrases are absolute-certainty assertions an answer must never
	// contain. Matching is literal substring, case-sensitive.
	ForbiddenPhrases []string `yaml:"forbidden_phrases"`

	// PatternGroups are the classifier's ordered query-type rules.
	PatternGroups []PatternGroup `yaml:"pattern_groups"`

	// Diseases is the synonym table for entity linking.
	Diseases []DiseaseEntry `yaml:"diseases"`
}

// Load reads an ontology from a YAML file and compiles it. An empty path
// returns the compiled-in defaults.
func Load(path string) (*Ontology, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(ErrCodeLoadFailed,
			fmt.Sprintf("failed to read ontology file %s", path), err)
	}

	var ont Ontology
	if err := yaml.Unmarshal(data, &ont); err != nil {
		return nil, types.WrapError(ErrCodeLoadFailed,
			fmt.Sprintf("failed to parse ontology file %s", path), err)
	}

	if err := ont.compile(); err != nil {
		return nil, err
	}
	return &ont, nil
}

// Default returns the compiled-in ontology, used when no file is configured.
func Default() (*Ontology, error) {
	ont := defaultOntology()
	if err := ont.compile(); err != nil {
		return nil, err
	}
	return ont, nil
}

// compile validates the data and compiles all pattern groups.
func (o *Ontology) compile() error {
	if len(o.PatternGroups) == 0 {
		return types.NewError(ErrCodeInvalidData, "ontology has no pattern groups")
	}
	if len(o.ForbiddenPhrases) == 0 {
		return types.NewError(ErrCodeInvalidData, "ontology has no forbidden phrases")
	}

	for i := range o.PatternGroups {
		group := &o.PatternGroups[i]
		if group.Type == "" {
			return types.NewError(ErrCodeInvalidData,
				fmt.Sprintf("pattern group %d has no type", i))
		}
		group.compiled = make([]*regexp.Regexp, 0, len(group.Patterns))
		for _, pattern := range group.Patterns {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return types.WrapError(ErrCodeInvalidRegexp,
					fmt.Sprintf("pattern group %s: invalid pattern %q", group.Type, pattern), err)
			}
			group.compiled = append(group.compiled, re)
		}
	}
	return nil
}

// SynonymsFor returns every known name for a disease term: the canonical
// name, the code, and all synonyms. The term itself is always included, so
// unknown terms pass through unchanged.
func (o *Ontology) SynonymsFor(term string) []string {
	for _, d := range o.Diseases {
		if d.Code == term || d.Name == term || containsString(d.Synonyms, term) {
			out := make([]string, 0, len(d.Synonyms)+2)
			out = append(out, d.Code, d.Name)
			out = append(out, d.Synonyms...)
			return out
		}
	}
	return []string{term}
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
