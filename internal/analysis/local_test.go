package analysis

import (
	"strings"
	"testing"
)

func testCatalog() *Catalog {
	return &Catalog{Products: []string{"Repuestos de tren de rodaje", "Filtros hidráulicos"}}
}

func TestLocalAnalyzerRelevance(t *testing.T) {
	analyzer := NewLocalAnalyzer(testCatalog(), 0.75)

	tests := []struct {
		name         string
		body         string
		wantRelevant bool
	}{
		{
			name:         "actionable with catalog product",
			body:         "Solicitamos cotización por repuestos de tren de rodaje",
			wantRelevant: true,
		},
		{
			name:         "actionable without catalog product",
			body:         "Solicitamos cotización por neumáticos de camioneta",
			wantRelevant: false,
		},
		{
			name:         "catalog product but informative",
			body:         "Nuestro boletín destaca los filtros hidráulicos del mes",
			wantRelevant: false,
		},
		{
			name:         "neither",
			body:         "Saludos cordiales del equipo",
			wantRelevant: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := analyzer.Analyze(tt.body)
			if err != nil {
				t.Fatalf("Analyze failed: %v", err)
			}
			if result.IsRelevant != tt.wantRelevant {
				t.Errorf("IsRelevant = %t, want %t (classification %q, products %v)",
					result.IsRelevant, tt.wantRelevant, result.Classification, result.Entities.Products)
			}
			if result.RelevanceConfidence < 0 || result.RelevanceConfidence > 1 {
				t.Errorf("Confidence %f out of range", result.RelevanceConfidence)
			}
		})
	}
}

func TestLocalAnalyzerSummary(t *testing.T) {
	analyzer := NewLocalAnalyzer(testCatalog(), 0.75)

	body := `Solicitamos cotización por filtros hidráulicos.
Plazo: 20/05/2026.
compras@minerasur.cl
Minera del Sur S.A.`

	result, err := analyzer.Analyze(body)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !strings.Contains(result.Summary, "Oportunidad detectada") {
		t.Errorf("Unexpected summary %q", result.Summary)
	}
	if !strings.Contains(result.Summary, "Filtros hidráulicos") {
		t.Errorf("Summary should name the matched product, got %q", result.Summary)
	}
	if !strings.Contains(result.Summary, "2026-05-20") {
		t.Errorf("Summary should carry the deadline, got %q", result.Summary)
	}
}

func TestSummarizeWithoutEntities(t *testing.T) {
	if got := Summarize(Entities{}); got != "No se pudo generar un resumen." {
		t.Errorf("Unexpected fallback summary %q", got)
	}
}

func TestDegradedResult(t *testing.T) {
	result := Degraded()
	if result.Classification != ClassificationFailed {
		t.Errorf("Unexpected classification %q", result.Classification)
	}
	if result.IsRelevant {
		t.Error("Degraded result must never be relevant")
	}
}
