package analysis

import (
	"strings"
)

// ClassifyIntent assigns one of the four intent categories to the message
// text based on keyword evidence. Matching is accent-insensitive.
func ClassifyIntent(text string) (string, float64) {
	folded := Fold(text)

	// Urgent notifications take precedence over commercial intent
	if strings.Contains(folded, "notificacion judicial") || strings.Contains(folded, "urgente") {
		return ClassificationUrgent, 0.95
	}
	if strings.Contains(folded, "licitacion") || strings.Contains(folded, "requerimiento") {
		return ClassificationTender, 0.92
	}
	if strings.Contains(folded, "cotizacion") || strings.Contains(folded, "precio") {
		return ClassificationQuotation, 0.88
	}
	return ClassificationInformative, 0.70
}

// IsActionable reports whether a classification calls for follow-up.
// Informative messages and degraded results never do.
func IsActionable(classification string) bool {
	switch classification {
	case ClassificationTender, ClassificationQuotation, ClassificationUrgent:
		return true
	}
	return false
}
