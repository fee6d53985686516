package model

import "time"

// Nutrient names one of the eight numeric columns of the dataset.
type Nutrient string

const (
	Calories     Nutrient = "calories"
	Carbs        Nutrient = "carbs"
	Protein      Nutrient = "protein"
	Fat          Nutrient = "fat"
	SaturatedFat Nutrient = "saturated_fat"
	Fiber        Nutrient = "fiber"
	Sugars       Nutrient = "sugars"
	Sodium       Nutrient = "sodium"
)

// Nutrients lists the nutrient columns in dataset order.
var Nutrients = []Nutrient{Calories, Carbs, Protein, Fat, SaturatedFat, Fiber, Sugars, Sodium}

// CategoryURLMap maps a category name to its unique product URLs.
type CategoryURLMap map[string][]string

// Total returns the number of URLs across all categories.
func (m CategoryURLMap) Total() int {
	n := 0
	for _, urls := range m {
		n += len(urls)
	}
	return n
}

type Nutrition struct {
	Portion      string
	Calories     float64 // kcal
	Carbs        float64 // g
	Protein      float64 // g
	Fat          float64 // g
	SaturatedFat float64 // g
	Fiber        float64 // g
	Sugars       float64 // g
	Sodium       float64 // mg
}

func (n *Nutrition) Set(k Nutrient, v float64) {
	switch k {
	case Calories:
		n.Calories = v
	case Carbs:
		n.Carbs = v
	case Protein:
		n.Protein = v
	case Fat:
		n.Fat = v
	case SaturatedFat:
		n.SaturatedFat = v
	case Fiber:
		n.Fiber = v
	case Sugars:
		n.Sugars = v
	case Sodium:
		n.Sodium = v
	}
}

func (n Nutrition) Get(k Nutrient) float64 {
	switch k {
	case Calories:
		return n.Calories
	case Carbs:
		return n.Carbs
	case Protein:
		return n.Protein
	case Fat:
		return n.Fat
	case SaturatedFat:
		return n.SaturatedFat
	case Fiber:
		return n.Fiber
	case Sugars:
		return n.Sugars
	case Sodium:
		return n.Sodium
	}
	return 0
}

// ProductRecord is one row of the nutrition dataset.
type ProductRecord struct {
	Name string
	URL  string
	Nutrition
	CollectedAt time.Time
	Category    string
}
