// Package foodlog is the application service behind the HTTP and MCP
// surfaces. It ties the catalog, the commit pipeline, the ledger, meal
// builders and recognition attempts together.
package foodlog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/starford/nutrilog/internal/achievements"
	"github.com/starford/nutrilog/internal/apperr"
	"github.com/starford/nutrilog/internal/builder"
	"github.com/starford/nutrilog/internal/catalog"
	"github.com/starford/nutrilog/internal/intake"
	"github.com/starford/nutrilog/internal/ledger"
	"github.com/starford/nutrilog/internal/models"
	"github.com/starford/nutrilog/internal/nutrition"
	"github.com/starford/nutrilog/internal/pipeline"
	"github.com/starford/nutrilog/internal/recognition"
)

// History lists dates that have a stored log, newest first.
type History interface {
	Dates(ctx context.Context, limit int) ([]string, error)
}

// DaySummary is one row of the history listing.
type DaySummary struct {
	Date           string                  `json:"date"`
	Entries        int                     `json:"entries"`
	TotalNutrition models.NutritionProfile `json:"total_nutrition"`
}

// BuilderView is the state of a meal builder session.
type BuilderView struct {
	ID             string                  `json:"id"`
	Components     []models.MealComponent  `json:"components"`
	TotalNutrition models.NutritionProfile `json:"total_nutrition"`
	TotalGrams     float64                 `json:"total_grams"`
}

// Service is the food logging application service.
type Service struct {
	ledger      *ledger.Store
	committer   *pipeline.Committer
	foods       *catalog.Static
	builders    *builder.Registry
	recognition *recognition.Manager
	tracker     *achievements.Tracker
	history     History
}

// Option configures a Service.
type Option func(*Service)

// WithRecognition sets the recognition manager.
func WithRecognition(m *recognition.Manager) Option {
	return func(s *Service) { s.recognition = m }
}

// WithTracker exposes achievement summaries.
func WithTracker(t *achievements.Tracker) Option {
	return func(s *Service) { s.tracker = t }
}

// WithHistory enables the history listing.
func WithHistory(h History) Option {
	return func(s *Service) { s.history = h }
}

// NewService creates a Service.
func NewService(store *ledger.Store, committer *pipeline.Committer, foods *catalog.Static, opts ...Option) *Service {
	s := &Service{
		ledger:    store,
		committer: committer,
		foods:     foods,
		builders:  builder.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.recognition == nil {
		s.recognition = recognition.NewManager()
	}
	return s
}

// GetDailyLog returns the log for date. Unknown dates are empty.
func (s *Service) GetDailyLog(ctx context.Context, date string) (*models.DailyLog, error) {
	return s.ledger.Get(ctx, date)
}

// AddFoodToMeal logs grams × qty of food into meals[slot] on date.
func (s *Service) AddFoodToMeal(ctx context.Context, date string, slot models.MealSlot, food models.FoodDefinition, grams, qty float64) (*models.LoggedEntry, error) {
	if !(qty > 0) {
		return nil, fmt.Errorf("%w: quantity must be greater than 0", apperr.ErrInvalidInput)
	}
	sel := nutrition.ServingSelection{
		ManualOverride: true,
		ManualGrams:    strconv.FormatFloat(grams*qty, 'f', -1, 64),
	}
	return s.committer.Commit(ctx, date, slot, intake.CatalogSelection{Food: food, Serving: sel})
}

// RemoveFoodFromMeal removes meals[slot][index] on date. A non-empty
// ifRevision must match the log's current revision.
func (s *Service) RemoveFoodFromMeal(ctx context.Context, date string, slot models.MealSlot, index int, ifRevision string) (*models.LoggedEntry, error) {
	return s.ledger.Remove(ctx, date, slot, index, ifRevision)
}

// Log commits any intake source.
func (s *Service) Log(ctx context.Context, date string, slot models.MealSlot, src intake.Source) (*models.LoggedEntry, error) {
	return s.committer.Commit(ctx, date, slot, src)
}

// LogCatalogFood logs the catalog food foodID at the chosen serving.
func (s *Service) LogCatalogFood(ctx context.Context, date string, slot models.MealSlot, foodID string, sel nutrition.ServingSelection) (*models.LoggedEntry, error) {
	food, err := s.foods.Get(foodID)
	if err != nil {
		return nil, err
	}
	return s.committer.Commit(ctx, date, slot, intake.CatalogSelection{Food: food, Serving: sel})
}

// History lists up to limit stored days with their totals.
func (s *Service) History(ctx context.Context, limit int) ([]DaySummary, error) {
	out := []DaySummary{}
	if s.history == nil {
		return out, nil
	}
	dates, err := s.history.Dates(ctx, limit)
	if err != nil {
		return nil, err
	}
	for _, d := range dates {
		day, err := s.ledger.Get(ctx, d)
		if err != nil {
			return nil, err
		}
		out = append(out, DaySummary{Date: d, Entries: len(day.Entries()), TotalNutrition: day.TotalNutrition})
	}
	return out, nil
}

// SearchFoods searches the catalog.
func (s *Service) SearchFoods(query string) []models.FoodDefinition {
	return s.foods.Search(query)
}

// PopularFoods returns the n most popular catalog foods.
func (s *Service) PopularFoods(n int) []models.FoodDefinition {
	return s.foods.Popular(n)
}

// GetFood returns a catalog food by id.
func (s *Service) GetFood(id string) (models.FoodDefinition, error) {
	return s.foods.Get(id)
}

// Achievements returns the tracker summary, or an empty one.
func (s *Service) Achievements() achievements.Summary {
	if s.tracker == nil {
		return achievements.Summary{DailyLogCalls: map[string]int{}, Unlocked: []achievements.Unlocked{}}
	}
	return s.tracker.Summary()
}
