package crawler

import (
	"strconv"
	"strings"

	"nutriscraper/internal/model"
)

var nutrientLabels = map[model.Nutrient]string{
	model.Calories:     "Valor energético (kcal)",
	model.Carbs:        "Carboidratos (g)",
	model.Protein:      "Proteínas (g)",
	model.Fat:          "Gorduras totais (g)",
	model.SaturatedFat: "Gorduras saturadas (g)",
	model.Fiber:        "Fibras (g)",
	model.Sugars:       "Açúcares (g)",
	model.Sodium:       "Sódio (mg)",
}

// ProductToText renders a record as the plain text that gets embedded.
func ProductToText(r *model.ProductRecord) string {
	var sb strings.Builder

	sb.WriteString(r.Name + "\n\n")
	if r.Category != "" {
		sb.WriteString("Categoria: " + r.Category + "\n")
	}
	if r.Portion != "" {
		sb.WriteString("Porção: " + r.Portion + "\n")
	}

	sb.WriteString("--- Informação Nutricional ---\n")
	for _, n := range model.Nutrients {
		sb.WriteString(nutrientLabels[n] + ": " + strconv.FormatFloat(r.Get(n), 'f', -1, 64) + "\n")
	}
	sb.WriteString("------------------------------\n\n")

	sb.WriteString("URL: " + r.URL + "\n")
	return sb.String()
}
