// Package ledger holds the date-keyed nutrition ledger.
//
// Each written date has its own lock; every mutation rebuilds the day's totals from
// its entries before the new state becomes visible, so a reader never sees a
// total that disagrees with the line items.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/nutrilog/internal/apperr"
	"github.com/starford/nutrilog/internal/checksum"
	"github.com/starford/nutrilog/internal/models"
	"github.com/starford/nutrilog/internal/nutrition"
)

// Persister stores whole days. Load reports found=false for unknown dates.
type Persister interface {
	LoadDay(ctx context.Context, date string) (entries []models.LoggedEntry, found bool, err error)
	SaveDay(ctx context.Context, date string, entries []models.LoggedEntry) error
}

// Change kinds passed to listeners.
const (
	ChangeAdded   = "added"
	ChangeRemoved = "removed"
)

// Listener is called after a mutation became visible.
type Listener func(kind, date string, slot models.MealSlot)

// Store is the Daily Log Store.
type Store struct {
	persist   Persister
	logger    *slog.Logger
	listeners []Listener

	mu    sync.Mutex // guards days and locks
	days  map[string]*models.DailyLog
	locks map[string]*sync.Mutex // written dates only
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPersister backs the store with durable storage.
func WithPersister(p Persister) StoreOption {
	return func(s *Store) { s.persist = p }
}

// WithListener registers a change listener.
func WithListener(l Listener) StoreOption {
	return func(s *Store) { s.listeners = append(s.listeners, l) }
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		logger: slog.Default(),
		days:   make(map[string]*models.DailyLog),
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// dateLock returns the write lock for date. Only mutations take it.
func (s *Store) dateLock(date string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[date]
	if !ok {
		l = &sync.Mutex{}
		s.locks[date] = l
	}
	return l
}

// Get returns a copy of the log for date. Unknown dates yield a fresh empty
// log that is not stored. Reads take no date lock: committed days are
// replaced, never changed in place.
func (s *Store) Get(ctx context.Context, date string) (*models.DailyLog, error) {
	date, err := models.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	day, err := s.load(ctx, date)
	if err != nil {
		return nil, err
	}
	return day.Clone(), nil
}

// Append adds entry to the end of meals[slot] on date.
func (s *Store) Append(ctx context.Context, entry models.LoggedEntry) error {
	date, err := models.ParseDate(entry.Date)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	if _, err := models.ParseSlot(string(entry.Slot)); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	entry.Date = date
	entry.Food = entry.Food.Clone()

	l := s.dateLock(date)
	l.Lock()
	defer l.Unlock()

	day, err := s.load(ctx, date)
	if err != nil {
		return err
	}
	next := day.Clone()
	next.Meals[entry.Slot] = append(next.Meals[entry.Slot], entry)
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.notify(ChangeAdded, date, entry.Slot)
	return nil
}

// Remove deletes the entry at index from meals[slot] and returns it. A
// non-empty ifRevision must match the day's current revision.
func (s *Store) Remove(ctx context.Context, date string, slot models.MealSlot, index int, ifRevision string) (*models.LoggedEntry, error) {
	date, err := models.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	if _, err := models.ParseSlot(string(slot)); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}

	l := s.dateLock(date)
	l.Lock()
	defer l.Unlock()

	day, err := s.load(ctx, date)
	if err != nil {
		return nil, err
	}
	if ifRevision != "" && ifRevision != day.Revision {
		return nil, apperr.ErrConflict
	}
	entries := day.Meals[slot]
	if index < 0 || index >= len(entries) {
		return nil, fmt.Errorf("%w: no %s entry at index %d on %s", apperr.ErrNotFound, slot, index, date)
	}
	removed := entries[index]

	next := day.Clone()
	kept := next.Meals[slot]
	next.Meals[slot] = append(kept[:index:index], kept[index+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	s.notify(ChangeRemoved, date, slot)
	return &removed, nil
}

// load returns the cached day, reading through to the persister on a miss.
// A day read from the persister is cached only if no commit got there
// first, so an unlocked reader never replaces newer state.
func (s *Store) load(ctx context.Context, date string) (*models.DailyLog, error) {
	s.mu.Lock()
	day, ok := s.days[date]
	s.mu.Unlock()
	if ok {
		return day, nil
	}

	day = models.NewDailyLog(date)
	if s.persist != nil {
		entries, found, err := s.persist.LoadDay(ctx, date)
		if err != nil {
			return nil, fmt.Errorf("ledger: load %s: %w", date, err)
		}
		if found {
			for _, e := range entries {
				day.Meals[e.Slot] = append(day.Meals[e.Slot], e)
			}
			recompute(day)
			s.mu.Lock()
			defer s.mu.Unlock()
			if cur, ok := s.days[date]; ok {
				return cur, nil
			}
			s.days[date] = day
			return day, nil
		}
	}
	recompute(day)
	return day, nil
}

// commit recomputes totals, writes through and swaps in the new state. The
// caller holds the date lock.
func (s *Store) commit(ctx context.Context, next *models.DailyLog) error {
	recompute(next)
	if s.persist != nil {
		if err := s.persist.SaveDay(ctx, next.Date, next.Entries()); err != nil {
			return fmt.Errorf("ledger: save %s: %w", next.Date, err)
		}
	}
	s.mu.Lock()
	s.days[next.Date] = next
	s.mu.Unlock()
	return nil
}

func (s *Store) notify(kind, date string, slot models.MealSlot) {
	s.logger.Debug("ledger: changed",
		slog.String("kind", kind),
		slog.String("date", date),
		slog.String("slot", string(slot)))
	for _, l := range s.listeners {
		l(kind, date, slot)
	}
}

// recompute rebuilds TotalNutrition and Revision from scratch.
func recompute(day *models.DailyLog) {
	entries := day.Entries()
	profiles := make([]models.NutritionProfile, len(entries))
	ids := make([]string, len(entries))
	for i, e := range entries {
		profiles[i] = e.Nutrition
		ids[i] = string(e.Slot) + "/" + e.ID
	}
	day.TotalNutrition = nutrition.Sum(profiles...)
	day.Revision = checksum.Of(ids)
}
