package ontology

// defaultOntology returns the compiled-in data set covering the standard
// Korean health-insurance policy vocabulary. Deployments with extended
// vocabularies override it with a YAML file.
func defaultOntology() *Ontology {
	return &Ontology{
		Version: "2026.08",
		ForbiddenPhrases: []string{
			"100% 보장",
			"무조건 지급",
			"전액 보장",
			"반드시 지급",
			"예외 없이 보장",
			"guaranteed coverage",
			"always pays",
		},
		PatternGroups: []PatternGroup{
			{
				Type: "simple_coverage",
				Patterns: []string{
					`보장\s*(돼|되|받|가능)`,
					`(보험금|진단금).*(나오|받을 수|지급)`,
					`커버\s*(돼|되)`,
				},
			},
			{
				Type: "comparison",
				Patterns: []string{
					`(비교|차이|다른 점)`,
					`(어느 쪽|어떤 (상품|특약))이 (더|유리)`,
					`vs\.?\s`,
				},
			},
			{
				Type: "temporal",
				Patterns: []string{
					`(면책|대기)\s*기간`,
					`며칠\s*(후|뒤|이후)`,
					`(언제부터|언제까지|몇 (일|개월|년))`,
					`가입\s*(후|전)`,
				},
			},
			{
				Type: "gap_analysis",
				Patterns: []string{
					`보장\s*(안\s*되|제외|공백)`,
					`(빠진|부족한|없는)\s*보장`,
					`면책\s*(사항|조항)`,
				},
			},
		},
		Diseases: []DiseaseEntry{
			{
				Code:     "C73",
				Name:     "갑상선암",
				Synonyms: []string{"갑상샘암", "thyroid cancer"},
			},
			{
				Code:     "I21",
				Name:     "급성심근경색증",
				Synonyms: []string{"심근경색", "급성심근경색", "heart attack"},
			},
			{
				Code:     "I63",
				Name:     "뇌경색증",
				Synonyms: []string{"뇌경색", "cerebral infarction"},
			},
			{
				Code:     "E11",
				Name:     "제2형 당뇨병",
				Synonyms: []string{"당뇨", "당뇨병", "type 2 diabetes"},
			},
			{
				Code:     "C16",
				Name:     "위암",
				Synonyms: []string{"위말트림프종", "stomach cancer"},
			},
		},
	}
}
