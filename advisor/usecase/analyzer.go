package usecase

import (
	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
)

// GapAnalyzer compares the indexes a collection carries against the rule
// table and recommends the ones that are missing
type GapAnalyzer struct {
	rules map[string][]entity.IndexRule
}

// NewGapAnalyzer creates an analyzer over a fixed rule table
func NewGapAnalyzer(rules map[string][]entity.IndexRule) *GapAnalyzer {
	return &GapAnalyzer{rules: rules}
}

// Analyze returns one recommendation per rule that no existing index
// covers. A rule counts as covered when an index lists exactly the rule's
// fields in the rule's order; sort directions are ignored in this
// comparison, so an index that descends on a field still covers the rule.
// Collections whose metadata failed to read are skipped entirely.
func (a *GapAnalyzer) Analyze(metadata []entity.CollectionMetadata) []entity.IndexRecommendation {
	var recommendations []entity.IndexRecommendation

	for _, md := range metadata {
		if md.Error != "" {
			continue
		}

		rules, ok := a.rules[md.Collection]
		if !ok {
			continue
		}

		existing := make(map[string]struct{}, len(md.Indexes))
		for _, idx := range md.Indexes {
			existing[idx.NamesKey()] = struct{}{}
		}

		for _, rule := range rules {
			if _, covered := existing[rule.NamesKey()]; covered {
				continue
			}

			recommendations = append(recommendations, entity.IndexRecommendation{
				Collection: md.Collection,
				Fields:     entity.AscendingFields(rule.Fields),
				Reason:     rule.Reason,
				Priority:   rule.Priority,
			})
		}
	}

	return recommendations
}
