package foodlog

import (
	"context"

	"github.com/starford/nutrilog/internal/builder"
	"github.com/starford/nutrilog/internal/models"
	"github.com/starford/nutrilog/internal/nutrition"
)

func view(id string, b *builder.Builder) *BuilderView {
	total, grams := b.Total()
	return &BuilderView{ID: id, Components: b.Components(), TotalNutrition: total, TotalGrams: grams}
}

// NewBuilder opens an empty meal builder.
func (s *Service) NewBuilder() *BuilderView {
	id, b := s.builders.Create()
	return view(id, b)
}

// Builder returns the builder with id.
func (s *Service) Builder(id string) (*BuilderView, error) {
	b, err := s.builders.Get(id)
	if err != nil {
		return nil, err
	}
	return view(id, b), nil
}

// AddToBuilder stages the catalog food foodID at the chosen serving.
func (s *Service) AddToBuilder(id, foodID string, sel nutrition.ServingSelection) (*BuilderView, error) {
	b, err := s.builders.Get(id)
	if err != nil {
		return nil, err
	}
	food, err := s.foods.Get(foodID)
	if err != nil {
		return nil, err
	}
	grams, err := nutrition.ResolveGrams(food, sel)
	if err != nil {
		return nil, err
	}
	if _, err := b.Add(food, grams); err != nil {
		return nil, err
	}
	return view(id, b), nil
}

// RemoveFromBuilder drops the component at index.
func (s *Service) RemoveFromBuilder(id string, index int) (*BuilderView, error) {
	b, err := s.builders.Get(id)
	if err != nil {
		return nil, err
	}
	if err := b.Remove(index); err != nil {
		return nil, err
	}
	return view(id, b), nil
}

// SaveBuilder logs every staged component into meals[slot] on date. The
// session stays open and empty afterwards.
func (s *Service) SaveBuilder(ctx context.Context, id, date string, slot models.MealSlot, mealName string) ([]models.LoggedEntry, error) {
	b, err := s.builders.Get(id)
	if err != nil {
		return nil, err
	}
	return b.Save(ctx, s.committer, date, slot, mealName)
}

// DiscardBuilder closes the session.
func (s *Service) DiscardBuilder(id string) error {
	return s.builders.Discard(id)
}
