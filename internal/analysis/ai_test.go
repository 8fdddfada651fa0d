package analysis

import (
	"testing"
)

func TestParseAIResult(t *testing.T) {
	response := "```json\n" + `{
  "clasificacion": "Cotización directa",
  "confianza_clasificacion": 0.91,
  "entidades": {
    "entidad": "Constructora XYZ",
    "contacto_email": "compras@constructoraxyz.cl",
    "productos": ["Repuestos de tren de rodaje"],
    "fecha_limite": "2026-03-15",
    "monto": 12500000
  },
  "resumen": "Solicitud de cotización de repuestos.",
  "es_relevante": true,
  "confianza_relevancia": 1.4
}` + "\n```"

	result, err := parseAIResult(response)
	if err != nil {
		t.Fatalf("parseAIResult failed: %v", err)
	}

	if result.Classification != "Cotización directa" {
		t.Errorf("Unexpected classification %q", result.Classification)
	}
	if !result.IsRelevant {
		t.Error("Expected relevant result")
	}
	// Out-of-range confidences are clamped into [0,1]
	if result.RelevanceConfidence != 1 {
		t.Errorf("Expected clamped confidence 1, got %f", result.RelevanceConfidence)
	}
	if result.Entities.Organization != "Constructora XYZ" {
		t.Errorf("Unexpected organization %q", result.Entities.Organization)
	}
	if result.Entities.Deadline == nil || result.Entities.Deadline.Format("2006-01-02") != "2026-03-15" {
		t.Errorf("Unexpected deadline %v", result.Entities.Deadline)
	}
	if result.Entities.Amount == nil || *result.Entities.Amount != 12500000 {
		t.Errorf("Unexpected amount %v", result.Entities.Amount)
	}
}

func TestParseAIResultNullEntities(t *testing.T) {
	response := `{
  "clasificacion": "Informativo (sin acción)",
  "confianza_clasificacion": 0.8,
  "entidades": {"entidad": null, "contacto_email": null, "productos": [], "fecha_limite": null, "monto": null},
  "resumen": "Boletín informativo.",
  "es_relevante": false,
  "confianza_relevancia": 0.2
}`

	result, err := parseAIResult(response)
	if err != nil {
		t.Fatalf("parseAIResult failed: %v", err)
	}
	if result.IsRelevant {
		t.Error("Expected irrelevant result")
	}
	if result.Entities.Organization != "" || result.Entities.Deadline != nil || result.Entities.Amount != nil {
		t.Errorf("Expected empty entities, got %+v", result.Entities)
	}
}

func TestParseAIResultRejectsProse(t *testing.T) {
	if _, err := parseAIResult("Lo siento, no puedo analizar este correo."); err == nil {
		t.Error("Expected error for non-JSON response")
	}
}

func TestAnalyzeWithoutAPIKey(t *testing.T) {
	client := NewAIClient("openai", "", "", "")
	if _, err := client.Analyze("cuerpo de prueba"); err == nil {
		t.Error("Expected error when no API key is configured")
	}
}
