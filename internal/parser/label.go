package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"nutriscraper/internal/model"
)

type nutrientRule struct {
	nutrient model.Nutrient // empty: row is recognised and ignored
	needles  []string
}

// Rules are checked in order against the folded label; the first hit wins.
// Ignored rows come first so that "gorduras trans" or "açúcares adicionados"
// never land in the total fat or total sugar columns.
var nutrientRules = []nutrientRule{
	{"", []string{"trans", "adicionad", "monoinsaturad", "poliinsaturad", "colesterol"}},
	{model.SaturatedFat, []string{"gorduras saturadas", "gordura saturada"}},
	{model.Fat, []string{"gorduras totais", "gordura total", "gorduras", "gordura"}},
	{model.Calories, []string{"valor energetico", "valor calorico", "energia", "calorias"}},
	{model.Carbs, []string{"carboidrato"}},
	{model.Protein, []string{"proteina"}},
	{model.Fiber, []string{"fibra"}},
	{model.Sugars, []string{"acucar", "acucares"}},
	{model.Sodium, []string{"sodio"}},
}

// "1.200" and "1.200,5" are read with dots as thousands separators.
const numberPattern = `\d{1,3}(?:\.\d{3})+(?:,\d+)?|\d+(?:[.,]\d+)?`

var (
	numericToken  = regexp.MustCompile(numberPattern)
	thousandsForm = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+(?:,\d+)?$`)
	kcalToken     = regexp.MustCompile(`(?i)(` + numberPattern + `)\s*kcal`)
)

// foldLabel lower-cases s, strips diacritics and collapses whitespace.
func foldLabel(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// matchNutrient maps a table label to a nutrient column.
func matchNutrient(label string) (model.Nutrient, bool) {
	folded := foldLabel(label)
	if folded == "" {
		return "", false
	}
	for _, rule := range nutrientRules {
		for _, needle := range rule.needles {
			if strings.Contains(folded, needle) {
				return rule.nutrient, rule.nutrient != ""
			}
		}
	}
	return "", false
}

// parseValue reads a table cell for nutrient. Energy cells such as
// "504 kJ / 120 kcal" yield the kcal figure.
func parseValue(nutrient model.Nutrient, s string) (float64, bool) {
	if nutrient == model.Calories {
		if m := kcalToken.FindStringSubmatch(s); m != nil {
			return toFloat(m[1])
		}
	}
	return parseNumber(s)
}

// parseNumber returns the first numeric token of s, accepting "2,5" and "2.5".
func parseNumber(s string) (float64, bool) {
	token := numericToken.FindString(s)
	if token == "" {
		return 0, false
	}
	return toFloat(token)
}

func toFloat(token string) (float64, bool) {
	if thousandsForm.MatchString(token) {
		token = strings.ReplaceAll(token, ".", "")
	}
	v, err := strconv.ParseFloat(strings.Replace(token, ",", ".", 1), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
