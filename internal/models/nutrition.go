// Package models defines the domain types for the nutrition ledger.
package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// NutritionProfile is the scalar nutrition vector. It always describes a
// specific gram quantity: per 100 g on a FoodDefinition, or the logged amount
// on a LoggedEntry.
type NutritionProfile struct {
	Calories      float64 `json:"calories" yaml:"calories"`
	Protein       float64 `json:"protein" yaml:"protein"`
	Carbohydrates float64 `json:"carbohydrates" yaml:"carbohydrates"`
	Fat           float64 `json:"fat" yaml:"fat"`
	Fiber         float64 `json:"fiber" yaml:"fiber"`
	Sugar         float64 `json:"sugar" yaml:"sugar"`
	Sodium        float64 `json:"sodium" yaml:"sodium"`
}

// Validate rejects negative values.
func (p NutritionProfile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Calories, validation.Min(0.0)),
		validation.Field(&p.Protein, validation.Min(0.0)),
		validation.Field(&p.Carbohydrates, validation.Min(0.0)),
		validation.Field(&p.Fat, validation.Min(0.0)),
		validation.Field(&p.Fiber, validation.Min(0.0)),
		validation.Field(&p.Sugar, validation.Min(0.0)),
		validation.Field(&p.Sodium, validation.Min(0.0)),
	)
}

// Provenance tells whether a food came from the shared catalog or was
// synthesized at log time.
type Provenance string

// Provenance values.
const (
	ProvenanceCatalog       Provenance = "catalog"
	ProvenanceUserSubmitted Provenance = "user_submitted"
)

// Serving is a named portion with its weight in grams.
type Serving struct {
	Name  string  `json:"name" yaml:"name"`
	Grams float64 `json:"grams" yaml:"grams"`
}

// FoodDefinition describes a food with per-100g nutrition and serving metadata.
type FoodDefinition struct {
	ID                  string           `json:"id" yaml:"id"`
	Name                string           `json:"name" yaml:"name"`
	DefaultServing      Serving          `json:"default_serving" yaml:"default_serving"`
	AlternativePortions []Serving        `json:"alternative_portions" yaml:"alternative_portions"`
	NutritionPer100g    NutritionProfile `json:"nutrition_per_100g" yaml:"nutrition_per_100g"`
	Provenance          Provenance       `json:"provenance" yaml:"provenance"`
	Category            string           `json:"category" yaml:"category"`
}

// Validate checks the FoodDefinition invariants: a named food with a positive
// default serving and non-negative per-100g values.
func (f FoodDefinition) Validate() error {
	if err := validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required),
		validation.Field(&f.Provenance, validation.In(ProvenanceCatalog, ProvenanceUserSubmitted)),
	); err != nil {
		return err
	}
	if f.DefaultServing.Grams <= 0 {
		return validation.Errors{"default_serving": validation.NewError("validation_serving_grams", "grams must be greater than 0")}
	}
	return f.NutritionPer100g.Validate()
}

// Clone returns a deep copy so that later changes to a catalog food cannot
// reach entries that were already logged.
func (f FoodDefinition) Clone() FoodDefinition {
	out := f
	if f.AlternativePortions != nil {
		out.AlternativePortions = make([]Serving, len(f.AlternativePortions))
		copy(out.AlternativePortions, f.AlternativePortions)
	}
	return out
}

// MealComponent is one staged item of the meal builder. It is never persisted
// as such: saving turns each component into its own LoggedEntry.
type MealComponent struct {
	Food      FoodDefinition   `json:"food"`
	Grams     float64          `json:"grams"`
	Nutrition NutritionProfile `json:"nutrition"`
}
