package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"nutriscraper/internal/model"
)

// Seletores da página de produto.
const (
	NutritionBlockSelector = "div.flow"
	NutritionTableSelector = "div.flow table"
	unnamedProduct         = "Nome não encontrado"
)

var nameSelectors = []string{
	"h1.product_title",
	"h1.product-title",
	"h1",
	".product-title",
	".product_title",
}

// "Porção: 25 g (1 unidade)", "Porção de 2 dosadores – 10g", "Porção 10g"
var portionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)por[çc][ãa]o\s*:\s*(.+?)(?:\n|<|$)`),
	regexp.MustCompile(`(?i)por[çc][ãa]o\s+de\s+(.+?)(?:\n|<|$)`),
	regexp.MustCompile(`(?i)por[çc][ãa]o\s+(.+?)(?:\n|<|$)`),
}

var portionWord = regexp.MustCompile(`(?i)por[çc][ãa]o`)

// ProductPage is what the product detail parser extracts from one page.
type ProductPage struct {
	Name      string
	Nutrition model.Nutrition
	// Missing lists the nutrients without a table row. They are stored as 0,
	// which the dataset cannot tell apart from a reported zero.
	Missing  []model.Nutrient
	Warnings []model.ValueNormalizationWarning
}

// ParseProduct reads the product name and nutrition-facts table. It returns a
// *model.ParseStructureError when the page has no nutrition table.
func ParseProduct(doc *goquery.Document, pageURL string) (*ProductPage, error) {
	if doc.Find(NutritionBlockSelector).Length() == 0 {
		return nil, &model.ParseStructureError{URL: pageURL, Selector: NutritionBlockSelector}
	}
	table := doc.Find(NutritionTableSelector).First()
	if table.Length() == 0 {
		return nil, &model.ParseStructureError{URL: pageURL, Selector: NutritionTableSelector}
	}

	page := &ProductPage{Name: productName(doc)}
	page.Nutrition.Portion = portion(table)

	found := make(map[model.Nutrient]bool, len(model.Nutrients))
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		nutrient, ok := matchNutrient(cells.Eq(0).Text())
		if !ok {
			return
		}
		found[nutrient] = true
		raw := strings.TrimSpace(cells.Eq(1).Text())
		v, ok := parseValue(nutrient, raw)
		if !ok {
			page.Warnings = append(page.Warnings, model.ValueNormalizationWarning{URL: pageURL, Field: nutrient, Raw: raw})
		}
		page.Nutrition.Set(nutrient, v)
	})

	for _, n := range model.Nutrients {
		if !found[n] {
			page.Missing = append(page.Missing, n)
		}
	}
	return page, nil
}

func productName(doc *goquery.Document) string {
	for _, sel := range nameSelectors {
		if el := doc.Find(sel).First(); el.Length() > 0 {
			if name := collapse(el.Text()); name != "" {
				return name
			}
		}
	}
	return unnamedProduct
}

// portion looks in the table head first, then in a first body row that
// mentions the serving size.
func portion(table *goquery.Selection) string {
	if head := table.Find("thead"); head.Length() > 0 {
		if p, ok := matchPortion(head.Text()); ok {
			return p
		}
	}

	var out string
	table.Find("tbody tr").First().Find("td, th").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		text := cell.Text()
		if !portionWord.MatchString(text) {
			return true
		}
		if p, ok := matchPortion(text); ok {
			out = p
			return false
		}
		loc := portionWord.FindStringIndex(text)
		out = collapse(text[loc[1]:])
		return out == ""
	})
	return out
}

func matchPortion(text string) (string, bool) {
	for _, re := range portionPatterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			if p := collapse(m[1]); p != "" {
				return p, true
			}
		}
	}
	return "", false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
