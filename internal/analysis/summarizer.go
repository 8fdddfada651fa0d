package analysis

import (
	"fmt"
	"strings"
)

// Summarize builds a short Spanish summary from the extracted entities
func Summarize(entities Entities) string {
	if entities.Organization == "" && len(entities.Products) == 0 {
		return "No se pudo generar un resumen."
	}

	organization := entities.Organization
	if organization == "" {
		organization = "remitente no identificado"
	}

	products := "productos no especificados"
	if len(entities.Products) > 0 {
		products = strings.Join(entities.Products, ", ")
	}

	summary := fmt.Sprintf("Oportunidad detectada de %s para el suministro de %s.", organization, products)
	if entities.Deadline != nil {
		summary += fmt.Sprintf(" Plazo estimado: %s.", entities.Deadline.Format("2006-01-02"))
	}
	return summary
}
