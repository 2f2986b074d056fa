// Package builder stages several foods and logs them as one meal.
package builder

import (
	"context"
	"fmt"
	"sync"

	"github.com/starford/nutrilog/internal/apperr"
	"github.com/starford/nutrilog/internal/intake"
	"github.com/starford/nutrilog/internal/models"
	"github.com/starford/nutrilog/internal/nutrition"
)

// Committer commits a single intake source. *pipeline.Committer satisfies it.
type Committer interface {
	Commit(ctx context.Context, date string, slot models.MealSlot, src intake.Source) (*models.LoggedEntry, error)
}

// Builder is an ordered staging list of meal components with a running
// total. It is safe for concurrent use.
type Builder struct {
	mu         sync.Mutex
	components []models.MealComponent
	total      models.NutritionProfile
	grams      float64
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{}
}

// Add stages food at grams and returns the new component.
func (b *Builder) Add(food models.FoodDefinition, grams float64) (models.MealComponent, error) {
	if err := food.Validate(); err != nil {
		return models.MealComponent{}, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	if !(grams > 0) {
		return models.MealComponent{}, fmt.Errorf("%w: grams must be greater than 0", apperr.ErrInvalidInput)
	}
	c := models.MealComponent{
		Food:      food.Clone(),
		Grams:     grams,
		Nutrition: nutrition.Scale(food.NutritionPer100g, grams),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.components = append(b.components, c)
	b.recompute()
	return c, nil
}

// Remove drops the component at index.
func (b *Builder) Remove(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.components) {
		return fmt.Errorf("%w: no component at index %d", apperr.ErrNotFound, index)
	}
	b.components = append(b.components[:index:index], b.components[index+1:]...)
	b.recompute()
	return nil
}

// Components returns a copy of the staged components.
func (b *Builder) Components() []models.MealComponent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.MealComponent, len(b.components))
	copy(out, b.components)
	return out
}

// Total returns the running nutrition total and total grams.
func (b *Builder) Total() (models.NutritionProfile, float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total, b.grams
}

// Len reports the number of staged components.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.components)
}

// Save commits every component as its own entry in meals[slot] on date and
// clears the list. The meal name is accepted but not stored. When a commit
// fails, the components already logged are dropped from the list so a retry
// does not log them twice.
func (b *Builder) Save(ctx context.Context, c Committer, date string, slot models.MealSlot, mealName string) ([]models.LoggedEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.components) == 0 {
		return nil, apperr.ErrEmptyStaging
	}

	saved := make([]models.LoggedEntry, 0, len(b.components))
	for i, comp := range b.components {
		entry, err := c.Commit(ctx, date, slot, intake.BuilderComponent{Food: comp.Food, Grams: comp.Grams})
		if err != nil {
			b.components = append([]models.MealComponent(nil), b.components[i:]...)
			b.recompute()
			return saved, fmt.Errorf("builder: save component %d (%s): %w", i, comp.Food.Name, err)
		}
		saved = append(saved, *entry)
	}
	b.components = nil
	b.recompute()
	return saved, nil
}

// recompute rebuilds the running total. The caller holds mu.
func (b *Builder) recompute() {
	profiles := make([]models.NutritionProfile, len(b.components))
	var grams float64
	for i, c := range b.components {
		profiles[i] = c.Nutrition
		grams += c.Grams
	}
	b.total = nutrition.Sum(profiles...)
	b.grams = grams
}
