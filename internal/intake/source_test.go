package intake

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/nutrilog/internal/apperr"
	"github.com/starford/nutrilog/internal/models"
	"github.com/starford/nutrilog/internal/nutrition"
)

func ptr(v float64) *float64 { return &v }

func TestCustomInput_BackDerivesPer100g(t *testing.T) {
	food, grams, err := CustomInput{Name: "Khichdi", Grams: 300, Calories: ptr(450), Protein: 15, Carbohydrates: 60, Fat: 12}.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if grams != 300 {
		t.Errorf("grams = %v, want 300", grams)
	}
	if food.NutritionPer100g.Calories != 150 {
		t.Errorf("per100g calories = %v, want 150", food.NutritionPer100g.Calories)
	}
	if food.NutritionPer100g.Protein != 5 || food.NutritionPer100g.Carbohydrates != 20 || food.NutritionPer100g.Fat != 4 {
		t.Errorf("per100g macros = %+v", food.NutritionPer100g)
	}
	if food.NutritionPer100g.Fiber != 0 || food.NutritionPer100g.Sugar != 0 || food.NutritionPer100g.Sodium != 0 {
		t.Errorf("fiber/sugar/sodium should default to 0: %+v", food.NutritionPer100g)
	}
	if food.DefaultServing.Grams != 300 {
		t.Errorf("default serving = %v, want 300", food.DefaultServing.Grams)
	}
	if food.Provenance != models.ProvenanceUserSubmitted {
		t.Errorf("provenance = %q", food.Provenance)
	}
	if got := nutrition.Scale(food.NutritionPer100g, food.DefaultServing.Grams); got.Calories != 450 {
		t.Errorf("round trip calories = %v, want 450", got.Calories)
	}
}

func TestCustomInput_RoundTripIrregularAmounts(t *testing.T) {
	cases := []struct {
		grams, calories float64
	}{
		{37, 91}, {333, 1000}, {12.5, 7}, {1, 3}, {999, 1}, {250, 0},
	}
	for _, c := range cases {
		food, grams, err := CustomInput{Name: "x", Grams: c.grams, Calories: ptr(c.calories)}.Resolve()
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if got := nutrition.Scale(food.NutritionPer100g, grams); got.Calories != c.calories {
			t.Errorf("grams=%v calories=%v: round trip = %v", c.grams, c.calories, got.Calories)
		}
	}
}

func TestCustomInput_Validation(t *testing.T) {
	cases := map[string]CustomInput{
		"missing name":     {Grams: 100, Calories: ptr(10)},
		"blank name":       {Name: "   ", Grams: 100, Calories: ptr(10)},
		"missing calories": {Name: "Soup", Grams: 100},
		"zero grams":       {Name: "Soup", Calories: ptr(10)},
		"negative grams":   {Name: "Soup", Grams: -1, Calories: ptr(10)},
		"negative fat":     {Name: "Soup", Grams: 100, Calories: ptr(10), Fat: -2},
	}
	for name, in := range cases {
		if _, _, err := in.Resolve(); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("%s: err = %v, want ErrInvalidInput", name, err)
		}
	}
}

func TestQuickInput_DefaultName(t *testing.T) {
	food, grams, err := QuickInput{Calories: ptr(500)}.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if food.Name != "Quick Entry (500 cal)" {
		t.Errorf("name = %q", food.Name)
	}
	if grams != 100 {
		t.Errorf("grams = %v, want 100", grams)
	}
	want := models.NutritionProfile{Calories: 500}
	if food.NutritionPer100g != want {
		t.Errorf("per100g = %+v, want %+v", food.NutritionPer100g, want)
	}
}

func TestQuickInput_KeepsGivenName(t *testing.T) {
	food, _, err := QuickInput{Name: " Office cake ", Calories: ptr(320)}.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if food.Name != "Office cake" {
		t.Errorf("name = %q", food.Name)
	}
}

func TestQuickInput_MissingCalories(t *testing.T) {
	if _, _, err := (QuickInput{Name: "Snack"}).Resolve(); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestQuickEntryName_Fractional(t *testing.T) {
	if got := QuickEntryName(250.5); got != "Quick Entry (250.5 cal)" {
		t.Errorf("name = %q", got)
	}
}

func TestVoiceResult_Per100gCalories(t *testing.T) {
	food, grams, err := VoiceResult{Name: "Dal", Grams: 200, Calories: 240}.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if grams != 200 || food.NutritionPer100g.Calories != 120 {
		t.Errorf("grams = %v per100g = %v", grams, food.NutritionPer100g.Calories)
	}
	if food.NutritionPer100g.Protein != 0 {
		t.Errorf("protein = %v, want 0", food.NutritionPer100g.Protein)
	}
}

func TestPhotoResult_ConfidenceDoesNotGate(t *testing.T) {
	food, grams, err := PhotoResult{Name: "Salad", Grams: 150, Calories: 90, Confidence: 0.05}.Resolve()
	if err != nil {
		t.Fatalf("low confidence should still resolve: %v", err)
	}
	if grams != 150 || food.NutritionPer100g.Calories != 60 {
		t.Errorf("grams = %v per100g = %v", grams, food.NutritionPer100g.Calories)
	}
}

func TestRecognizedResult_ZeroGramsRejected(t *testing.T) {
	if _, _, err := (VoiceResult{Name: "Dal", Calories: 100}).Resolve(); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestEphemeralFoodsAreDistinct(t *testing.T) {
	a, _, _ := QuickInput{Calories: ptr(100)}.Resolve()
	b, _, _ := QuickInput{Calories: ptr(100)}.Resolve()
	if a.ID == b.ID {
		t.Error("ephemeral foods should not share ids")
	}
	if !strings.HasPrefix(a.ID, "user-") {
		t.Errorf("id = %q", a.ID)
	}
}

func TestCatalogSelection_ResolvesServing(t *testing.T) {
	food := models.FoodDefinition{
		ID:               "apple",
		Name:             "Apple",
		DefaultServing:   models.Serving{Name: "1 medium", Grams: 182},
		NutritionPer100g: models.NutritionProfile{Calories: 52},
		Provenance:       models.ProvenanceCatalog,
	}
	got, grams, err := CatalogSelection{Food: food, Serving: nutrition.ServingSelection{Index: 0, Quantity: 2}}.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if grams != 364 || got.ID != "apple" {
		t.Errorf("grams = %v id = %q", grams, got.ID)
	}
}

func TestBuilderComponent_RequiresPositiveGrams(t *testing.T) {
	food := models.FoodDefinition{Name: "Oats", DefaultServing: models.Serving{Grams: 40}}
	if _, _, err := (BuilderComponent{Food: food}).Resolve(); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
