package nutrition

import (
	"math"
	"testing"

	"github.com/starford/nutrilog/internal/models"
)

func TestScale_AppleAt250g(t *testing.T) {
	per100 := models.NutritionProfile{Calories: 104, Protein: 0.5, Carbohydrates: 27.6, Fat: 0.3, Fiber: 4.8, Sugar: 20.8, Sodium: 2}
	got := Scale(per100, 250)
	if got.Calories != 260 {
		t.Errorf("calories = %v, want 260", got.Calories)
	}
	if got.Carbohydrates != 69 {
		t.Errorf("carbohydrates = %v, want 69", got.Carbohydrates)
	}
	if got.Protein != 1.3 {
		t.Errorf("protein = %v, want 1.3", got.Protein)
	}
	if got.Sodium != 5 {
		t.Errorf("sodium = %v, want 5", got.Sodium)
	}
}

func TestScale_RoundingPolicy(t *testing.T) {
	per100 := models.NutritionProfile{Calories: 33.4, Protein: 3.34, Carbohydrates: 1.26, Fat: 0.04, Fiber: 7.8, Sugar: 2.25, Sodium: 11.1}
	got := Scale(per100, 150)
	want := models.NutritionProfile{Calories: 50, Protein: 5, Carbohydrates: 1.9, Fat: 0.1, Fiber: 11.7, Sugar: 3.4, Sodium: 17}
	if got != want {
		t.Errorf("Scale = %+v, want %+v", got, want)
	}
}

func TestScale_Linearity(t *testing.T) {
	per100 := models.NutritionProfile{Calories: 137, Protein: 12.4, Carbohydrates: 8.8, Fat: 3.1, Fiber: 1.2, Sugar: 0.9, Sodium: 412}
	for _, grams := range []float64{0, 1, 17.5, 50, 99, 100, 123.4, 250, 1000} {
		got := Scale(per100, grams)
		m := grams / 100
		if want := math.Round(per100.Calories * m); got.Calories != want {
			t.Errorf("grams=%v calories = %v, want %v", grams, got.Calories, want)
		}
		if want := math.Round(per100.Sodium * m); got.Sodium != want {
			t.Errorf("grams=%v sodium = %v, want %v", grams, got.Sodium, want)
		}
		if want := math.Round(per100.Protein*m*10) / 10; got.Protein != want {
			t.Errorf("grams=%v protein = %v, want %v", grams, got.Protein, want)
		}
	}
}

func TestScale_ZeroAndNegativeGrams(t *testing.T) {
	per100 := models.NutritionProfile{Calories: 200, Protein: 10}
	if got := Scale(per100, 0); got != (models.NutritionProfile{}) {
		t.Errorf("Scale(0) = %+v, want zero profile", got)
	}
	if got := Scale(per100, -5); got != (models.NutritionProfile{}) {
		t.Errorf("Scale(-5) = %+v, want zero profile", got)
	}
}

func TestSum_DropsFloatDrift(t *testing.T) {
	got := Sum(
		models.NutritionProfile{Calories: 10, Protein: 0.1},
		models.NutritionProfile{Calories: 20, Protein: 0.2},
	)
	if got.Calories != 30 {
		t.Errorf("calories = %v, want 30", got.Calories)
	}
	if got.Protein != 0.3 {
		t.Errorf("protein = %v, want 0.3", got.Protein)
	}
}

func TestSum_Empty(t *testing.T) {
	if got := Sum(); got != (models.NutritionProfile{}) {
		t.Errorf("Sum() = %+v, want zero", got)
	}
}
