package analysis

// LocalAnalyzer runs the heuristic pipeline: keyword classification,
// entity extraction, catalog product matching, and a templated summary.
// It holds no mutable state, so one instance serves concurrent scans.
type LocalAnalyzer struct {
	catalog   *Catalog
	threshold float64
}

// NewLocalAnalyzer creates a local analyzer over the given catalog
func NewLocalAnalyzer(catalog *Catalog, threshold float64) *LocalAnalyzer {
	if catalog == nil {
		catalog = &Catalog{}
	}
	return &LocalAnalyzer{catalog: catalog, threshold: threshold}
}

// Analyze classifies the text and extracts entities. A message is relevant
// only when its classification is actionable and at least one catalog
// product is mentioned.
func (a *LocalAnalyzer) Analyze(body string) (*Result, error) {
	classification, classificationConfidence := ClassifyIntent(body)

	entities := ExtractEntities(body)
	entities.Products = a.catalog.Match(body)

	relevant := IsActionable(classification) && len(entities.Products) > 0
	relevanceConfidence := 0.35
	if relevant {
		relevanceConfidence = 0.90
		if classificationConfidence > relevanceConfidence {
			relevanceConfidence = classificationConfidence
		}
	}

	return &Result{
		Classification:           classification,
		ClassificationConfidence: classificationConfidence,
		Entities:                 entities,
		Summary:                  Summarize(entities),
		IsRelevant:               relevant,
		RelevanceConfidence:      relevanceConfidence,
	}, nil
}
