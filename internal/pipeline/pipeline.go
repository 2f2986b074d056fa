// Package pipeline commits resolved intake sources into the ledger.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/starford/nutrilog/internal/apperr"
	"github.com/starford/nutrilog/internal/intake"
	"github.com/starford/nutrilog/internal/models"
	"github.com/starford/nutrilog/internal/nutrition"
)

// Hooks receives progress notifications after every successful commit.
type Hooks interface {
	RecordMealLogged()
	RecordDailyLog(date string)
}

// Appender is the ledger write side used by the committer.
type Appender interface {
	Append(ctx context.Context, entry models.LoggedEntry) error
}

type noHooks struct{}

func (noHooks) RecordMealLogged()     {}
func (noHooks) RecordDailyLog(string) {}

// Committer turns a Source into a LoggedEntry and appends it.
type Committer struct {
	ledger Appender
	hooks  Hooks
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Committer.
type Option func(*Committer)

// WithHooks sets the achievement hooks.
func WithHooks(h Hooks) Option {
	return func(c *Committer) {
		if h != nil {
			c.hooks = h
		}
	}
}

// WithLogger sets the committer logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Committer) { c.logger = l }
}

// WithClock overrides time.Now for LoggedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Committer) { c.now = now }
}

// NewCommitter creates a Committer writing to ledger.
func NewCommitter(ledger Appender, opts ...Option) *Committer {
	c := &Committer{
		ledger: ledger,
		hooks:  noHooks{},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Commit resolves src, scales its nutrition and appends the entry to
// meals[slot] on date. Nothing is written when resolution fails.
func (c *Committer) Commit(ctx context.Context, date string, slot models.MealSlot, src intake.Source) (*models.LoggedEntry, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no intake source", apperr.ErrInvalidInput)
	}
	date, err := models.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	food, grams, err := src.Resolve()
	if err != nil {
		return nil, err
	}
	if !(grams > 0) {
		return nil, fmt.Errorf("%w: grams must be greater than 0", apperr.ErrInvalidInput)
	}

	entry := models.LoggedEntry{
		ID:        uuid.NewString(),
		Food:      food.Clone(),
		Grams:     grams,
		Nutrition: nutrition.Scale(food.NutritionPer100g, grams),
		Slot:      slot,
		Date:      date,
		Origin:    src.Origin(),
		LoggedAt:  c.now().UTC(),
	}
	if err := c.ledger.Append(ctx, entry); err != nil {
		return nil, err
	}

	c.hooks.RecordMealLogged()
	c.hooks.RecordDailyLog(date)

	c.logger.Info("food logged",
		slog.String("date", date),
		slog.String("slot", string(slot)),
		slog.String("origin", string(entry.Origin)),
		slog.String("food", food.Name),
		slog.Float64("grams", grams),
		slog.Float64("calories", entry.Nutrition.Calories))
	return &entry, nil
}
