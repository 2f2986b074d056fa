// Package intake converts each food-logging origin into the canonical
// (FoodDefinition, grams) pair that the commit pipeline consumes.
package intake

import (
	"fmt"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/nutrilog/internal/apperr"
	"github.com/starford/nutrilog/internal/models"
	"github.com/starford/nutrilog/internal/nutrition"
)

// Source is one of CatalogSelection, BuilderComponent, CustomInput,
// QuickInput, VoiceResult or PhotoResult.
type Source interface {
	// Resolve returns the food to snapshot and the grams to log. It never
	// mutates anything.
	Resolve() (models.FoodDefinition, float64, error)
	// Origin names the intake mode.
	Origin() models.Origin

	sealed()
}

// CatalogSelection logs a catalog food at a serving chosen by the user.
type CatalogSelection struct {
	Food    models.FoodDefinition
	Serving nutrition.ServingSelection
}

func (CatalogSelection) sealed()               {}
func (CatalogSelection) Origin() models.Origin { return models.OriginCatalog }

// Resolve implements Source.
func (c CatalogSelection) Resolve() (models.FoodDefinition, float64, error) {
	if err := c.Food.Validate(); err != nil {
		return models.FoodDefinition{}, 0, invalid(err)
	}
	grams, err := nutrition.ResolveGrams(c.Food, c.Serving)
	if err != nil {
		return models.FoodDefinition{}, 0, err
	}
	return c.Food, grams, nil
}

// BuilderComponent logs one staged meal-builder component at explicit grams.
type BuilderComponent struct {
	Food  models.FoodDefinition
	Grams float64
}

func (BuilderComponent) sealed()               {}
func (BuilderComponent) Origin() models.Origin { return models.OriginBuilder }

// Resolve implements Source.
func (b BuilderComponent) Resolve() (models.FoodDefinition, float64, error) {
	if err := b.Food.Validate(); err != nil {
		return models.FoodDefinition{}, 0, invalid(err)
	}
	if !(b.Grams > 0) {
		return models.FoodDefinition{}, 0, fmt.Errorf("%w: grams must be greater than 0", apperr.ErrInvalidInput)
	}
	return b.Food, b.Grams, nil
}

// CustomInput is a user-typed food. Calories and macros are totals for Grams.
// Calories is a pointer so that "not entered" differs from zero.
type CustomInput struct {
	Name          string   `json:"name"`
	Grams         float64  `json:"grams"`
	Calories      *float64 `json:"calories"`
	Protein       float64  `json:"protein"`
	Carbohydrates float64  `json:"carbohydrates"`
	Fat           float64  `json:"fat"`
}

func (CustomInput) sealed()               {}
func (CustomInput) Origin() models.Origin { return models.OriginCustom }

// Validate checks the required fields.
func (c CustomInput) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required, validation.By(notBlank)),
		validation.Field(&c.Grams, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.Calories, validation.NotNil, validation.Min(0.0)),
		validation.Field(&c.Protein, validation.Min(0.0)),
		validation.Field(&c.Carbohydrates, validation.Min(0.0)),
		validation.Field(&c.Fat, validation.Min(0.0)),
	)
}

// Resolve back-derives the per-100g profile as value / (grams/100).
func (c CustomInput) Resolve() (models.FoodDefinition, float64, error) {
	if err := c.Validate(); err != nil {
		return models.FoodDefinition{}, 0, invalid(err)
	}
	m := c.Grams / 100
	food := ephemeral(strings.TrimSpace(c.Name), c.Grams, models.NutritionProfile{
		Calories:      *c.Calories / m,
		Protein:       c.Protein / m,
		Carbohydrates: c.Carbohydrates / m,
		Fat:           c.Fat / m,
	})
	food.Category = "custom"
	return food, c.Grams, nil
}

// QuickGrams is the fixed amount logged by a quick add.
const QuickGrams = 100

// QuickInput logs a bare calorie number.
type QuickInput struct {
	Name     string   `json:"name"`
	Calories *float64 `json:"calories"`
}

func (QuickInput) sealed()               {}
func (QuickInput) Origin() models.Origin { return models.OriginQuick }

// Validate checks that calories were entered.
func (q QuickInput) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Calories, validation.NotNil, validation.Min(0.0)),
	)
}

// Resolve implements Source.
func (q QuickInput) Resolve() (models.FoodDefinition, float64, error) {
	if err := q.Validate(); err != nil {
		return models.FoodDefinition{}, 0, invalid(err)
	}
	name := strings.TrimSpace(q.Name)
	if name == "" {
		name = QuickEntryName(*q.Calories)
	}
	food := ephemeral(name, QuickGrams, models.NutritionProfile{Calories: *q.Calories})
	food.Category = "quick"
	return food, QuickGrams, nil
}

// QuickEntryName is the default name of an unnamed quick add.
func QuickEntryName(calories float64) string {
	return fmt.Sprintf("Quick Entry (%s cal)", strconv.FormatFloat(calories, 'f', -1, 64))
}

// VoiceResult is the parsed outcome of a voice recognition attempt.
type VoiceResult struct {
	Name     string  `json:"name"`
	Grams    float64 `json:"grams"`
	Calories float64 `json:"calories"`
}

func (VoiceResult) sealed()               {}
func (VoiceResult) Origin() models.Origin { return models.OriginVoice }

// Resolve implements Source.
func (v VoiceResult) Resolve() (models.FoodDefinition, float64, error) {
	return recognized(v.Name, v.Grams, v.Calories, "voice")
}

// PhotoResult is the outcome of a photo recognition attempt. Confidence is
// informational and does not gate the commit.
type PhotoResult struct {
	Name       string  `json:"name"`
	Grams      float64 `json:"grams"`
	Calories   float64 `json:"calories"`
	Confidence float64 `json:"confidence"`
}

func (PhotoResult) sealed()               {}
func (PhotoResult) Origin() models.Origin { return models.OriginPhoto }

// Resolve implements Source.
func (p PhotoResult) Resolve() (models.FoodDefinition, float64, error) {
	return recognized(p.Name, p.Grams, p.Calories, "photo")
}

func recognized(name string, grams, calories float64, category string) (models.FoodDefinition, float64, error) {
	r := struct {
		Name     string
		Grams    float64
		Calories float64
	}{strings.TrimSpace(name), grams, calories}
	if err := validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Grams, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&r.Calories, validation.Min(0.0)),
	); err != nil {
		return models.FoodDefinition{}, 0, invalid(err)
	}
	food := ephemeral(r.Name, r.Grams, models.NutritionProfile{Calories: r.Calories / r.Grams * 100})
	food.Category = category
	return food, r.Grams, nil
}

func ephemeral(name string, grams float64, per100g models.NutritionProfile) models.FoodDefinition {
	return models.FoodDefinition{
		ID:   "user-" + uuid.NewString(),
		Name: name,
		DefaultServing: models.Serving{
			Name:  strconv.FormatFloat(grams, 'f', -1, 64) + " g",
			Grams: grams,
		},
		NutritionPer100g: per100g,
		Provenance:       models.ProvenanceUserSubmitted,
	}
}

func notBlank(value any) error {
	if s, _ := value.(string); strings.TrimSpace(s) == "" {
		return validation.ErrRequired
	}
	return nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
}
