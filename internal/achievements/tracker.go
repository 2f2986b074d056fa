// Package achievements counts logging activity and unlocks badges.
package achievements

import (
	"sort"
	"sync"
	"time"

	"github.com/starford/nutrilog/internal/models"
)

// Badge is an unlockable milestone.
type Badge struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	meals       int
	streak      int
}

// Badges are checked in order after every hook call.
var Badges = []Badge{
	{ID: "first_bite", Title: "First Bite", Description: "Log your first food", meals: 1},
	{ID: "ten_entries", Title: "Getting Started", Description: "Log 10 foods", meals: 10},
	{ID: "hundred_entries", Title: "Dedicated Logger", Description: "Log 100 foods", meals: 100},
	{ID: "three_day_streak", Title: "On a Roll", Description: "Log food 3 days in a row", streak: 3},
	{ID: "week_streak", Title: "Week Warrior", Description: "Log food 7 days in a row", streak: 7},
}

// Summary is a snapshot of the tracker.
type Summary struct {
	MealsLogged   int            `json:"meals_logged"`
	DailyLogCalls map[string]int `json:"daily_log_calls"`
	CurrentStreak int            `json:"current_streak"`
	LongestStreak int            `json:"longest_streak"`
	Unlocked      []Unlocked     `json:"unlocked"`
}

// Unlocked is a badge with its unlock time.
type Unlocked struct {
	Badge
	At time.Time `json:"at"`
}

// UnlockFunc is called outside the tracker lock for every new badge.
type UnlockFunc func(Unlocked)

// Tracker receives the commit hooks. Every call counts; nothing is
// deduplicated.
type Tracker struct {
	onUnlock UnlockFunc
	now      func() time.Time

	mu       sync.Mutex
	meals    int
	daily    map[string]int
	unlocked map[string]Unlocked
	order    []string
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithUnlockHandler registers fn for badge unlocks.
func WithUnlockHandler(fn UnlockFunc) Option {
	return func(t *Tracker) { t.onUnlock = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker returns an empty tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		now:      time.Now,
		daily:    make(map[string]int),
		unlocked: make(map[string]Unlocked),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RecordMealLogged counts one committed entry.
func (t *Tracker) RecordMealLogged() {
	t.mu.Lock()
	t.meals++
	fresh := t.checkLocked()
	t.mu.Unlock()
	t.emit(fresh)
}

// RecordDailyLog counts one commit on date.
func (t *Tracker) RecordDailyLog(date string) {
	t.mu.Lock()
	t.daily[date]++
	fresh := t.checkLocked()
	t.mu.Unlock()
	t.emit(fresh)
}

// Summary returns the current counters and unlocked badges.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	current, longest := t.streaksLocked()
	s := Summary{
		MealsLogged:   t.meals,
		DailyLogCalls: make(map[string]int, len(t.daily)),
		CurrentStreak: current,
		LongestStreak: longest,
		Unlocked:      make([]Unlocked, 0, len(t.order)),
	}
	for d, n := range t.daily {
		s.DailyLogCalls[d] = n
	}
	for _, id := range t.order {
		s.Unlocked = append(s.Unlocked, t.unlocked[id])
	}
	return s
}

func (t *Tracker) checkLocked() []Unlocked {
	_, longest := t.streaksLocked()
	var fresh []Unlocked
	for _, b := range Badges {
		if _, ok := t.unlocked[b.ID]; ok {
			continue
		}
		if (b.meals > 0 && t.meals >= b.meals) || (b.streak > 0 && longest >= b.streak) {
			u := Unlocked{Badge: b, At: t.now().UTC()}
			t.unlocked[b.ID] = u
			t.order = append(t.order, b.ID)
			fresh = append(fresh, u)
		}
	}
	return fresh
}

func (t *Tracker) emit(fresh []Unlocked) {
	if t.onUnlock == nil {
		return
	}
	for _, u := range fresh {
		t.onUnlock(u)
	}
}

// streaksLocked returns the run of consecutive logged days ending at the
// latest logged date, and the longest run overall.
func (t *Tracker) streaksLocked() (current, longest int) {
	days := make([]time.Time, 0, len(t.daily))
	for d := range t.daily {
		if day, err := time.Parse(models.DateLayout, d); err == nil {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return 0, 0
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return run, longest
}
