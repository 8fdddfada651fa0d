package analysis

import (
	"errors"
	"time"

	"github.com/bambinounos/eia/internal/config"
)

var (
	// ErrAnalysisFailed indicates the provider could not produce a result
	ErrAnalysisFailed = errors.New("analysis failed")
)

// Classification labels produced by the analyzers
const (
	ClassificationTender      = "Licitación/requerimiento público"
	ClassificationQuotation   = "Cotización directa"
	ClassificationUrgent      = "Notificaciones tipo judicial, acción urgente"
	ClassificationInformative = "Informativo (sin acción)"
	// ClassificationFailed marks the degraded result recorded when the
	// provider errors out; the message stays ledgered either way
	ClassificationFailed = "analysis_failed"
)

// Entities holds the structured fields extracted from a message body.
// Every field is individually optional since extraction may fail.
type Entities struct {
	Organization string
	ContactEmail string
	Products     []string
	Deadline     *time.Time
	Amount       *float64
}

// Result is the fixed-shape output of one analysis. Confidence values are
// normalized to [0,1].
type Result struct {
	Classification           string
	ClassificationConfidence float64
	Entities                 Entities
	Summary                  string
	IsRelevant               bool
	RelevanceConfidence      float64
}

// Analyzer is the contract the scan orchestrator depends on. Analyze must
// be a pure function of the body text, safe for concurrent use without
// coordination.
type Analyzer interface {
	Analyze(body string) (*Result, error)
}

// Degraded returns the result recorded when a provider fails: a failure
// marker classification and no relevance, so the message is never retried
// but also never produces an opportunity.
func Degraded() *Result {
	return &Result{
		Classification: ClassificationFailed,
		IsRelevant:     false,
	}
}

// NewAnalyzerFromConfig builds the configured analysis provider. Local
// mode loads the product catalog; ai mode wires the chat-completion client.
func NewAnalyzerFromConfig(cfg *config.Config) (Analyzer, error) {
	switch cfg.NLP.Mode {
	case "ai":
		client := NewAIClient(cfg.NLP.AI.Provider, cfg.NLP.AI.APIKey, cfg.NLP.AI.Model, cfg.NLP.AI.BaseURL)
		return client, nil
	default:
		catalog, err := LoadCatalog(cfg.ProductCatalogPath)
		if err != nil {
			// A missing catalog disables product matching but not the scan
			catalog = &Catalog{}
		}
		return NewLocalAnalyzer(catalog, cfg.NLP.SimilarityThreshold), nil
	}
}
