// Package nutrition scales per-100g nutrition data and resolves serving
// selections into gram amounts.
package nutrition

import (
	"math"

	"github.com/starford/nutrilog/internal/models"
)

// Scale returns per100g scaled to grams. Calories and sodium round to the
// nearest integer, the other fields to one decimal. Negative grams yield a
// zero profile.
func Scale(per100g models.NutritionProfile, grams float64) models.NutritionProfile {
	if grams <= 0 || math.IsNaN(grams) {
		return models.NutritionProfile{}
	}
	m := grams / 100
	return models.NutritionProfile{
		Calories:      math.Round(per100g.Calories * m),
		Protein:       round1(per100g.Protein * m),
		Carbohydrates: round1(per100g.Carbohydrates * m),
		Fat:           round1(per100g.Fat * m),
		Fiber:         round1(per100g.Fiber * m),
		Sugar:         round1(per100g.Sugar * m),
		Sodium:        math.Round(per100g.Sodium * m),
	}
}

// Sum adds profiles element-wise. Inputs are already rounded scaler outputs,
// so the decimal fields are re-rounded to one place to drop float drift.
func Sum(profiles ...models.NutritionProfile) models.NutritionProfile {
	var t models.NutritionProfile
	for _, p := range profiles {
		t.Calories += p.Calories
		t.Protein += p.Protein
		t.Carbohydrates += p.Carbohydrates
		t.Fat += p.Fat
		t.Fiber += p.Fiber
		t.Sugar += p.Sugar
		t.Sodium += p.Sodium
	}
	t.Protein = round1(t.Protein)
	t.Carbohydrates = round1(t.Carbohydrates)
	t.Fat = round1(t.Fat)
	t.Fiber = round1(t.Fiber)
	t.Sugar = round1(t.Sugar)
	return t
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
