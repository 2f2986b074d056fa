package models

import (
	"fmt"
	"time"
)

// MealSlot is the grouping key within a DailyLog.
type MealSlot string

// Meal slots.
const (
	SlotBreakfast MealSlot = "breakfast"
	SlotLunch     MealSlot = "lunch"
	SlotDinner    MealSlot = "dinner"
	SlotSnack     MealSlot = "snack"
)

// Slots lists every meal slot in display order.
var Slots = []MealSlot{SlotBreakfast, SlotLunch, SlotDinner, SlotSnack}

// ParseSlot validates a meal slot name.
func ParseSlot(s string) (MealSlot, error) {
	for _, slot := range Slots {
		if string(slot) == s {
			return slot, nil
		}
	}
	return "", fmt.Errorf("unknown meal slot %q", s)
}

// DateLayout is the canonical calendar-date key of a DailyLog.
const DateLayout = "2006-01-02"

// ParseDate normalises s into the canonical date key.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t.Format(DateLayout), nil
}

// Origin records which intake mode produced an entry.
type Origin string

// Intake origins.
const (
	OriginCatalog Origin = "catalog"
	OriginBuilder Origin = "meal_builder"
	OriginCustom  Origin = "custom"
	OriginQuick   Origin = "quick_add"
	OriginVoice   Origin = "voice"
	OriginPhoto   Origin = "photo"
)

// LoggedEntry is an immutable record of one commit. Food is a snapshot taken
// at commit time and Nutrition is frozen.
type LoggedEntry struct {
	ID        string           `json:"id"`
	Food      FoodDefinition   `json:"food"`
	Grams     float64          `json:"grams"`
	Nutrition NutritionProfile `json:"nutrition"`
	Slot      MealSlot         `json:"meal_slot"`
	Date      string           `json:"date"`
	Origin    Origin           `json:"origin"`
	LoggedAt  time.Time        `json:"logged_at"`
}

// DailyLog is the ledger for one calendar date.
// TotalNutrition always equals the element-wise sum of every entry's Nutrition.
type DailyLog struct {
	Date           string                     `json:"date"`
	Meals          map[MealSlot][]LoggedEntry `json:"meals"`
	TotalNutrition NutritionProfile           `json:"total_nutrition"`
	Revision       string                     `json:"revision"`
}

// NewDailyLog returns an empty log with every slot present.
func NewDailyLog(date string) *DailyLog {
	meals := make(map[MealSlot][]LoggedEntry, len(Slots))
	for _, s := range Slots {
		meals[s] = []LoggedEntry{}
	}
	return &DailyLog{Date: date, Meals: meals}
}

// Entries returns all entries in slot display order.
func (d *DailyLog) Entries() []LoggedEntry {
	var out []LoggedEntry
	for _, s := range Slots {
		out = append(out, d.Meals[s]...)
	}
	return out
}

// Clone returns a deep copy of the log.
func (d *DailyLog) Clone() *DailyLog {
	out := &DailyLog{
		Date:           d.Date,
		Meals:          make(map[MealSlot][]LoggedEntry, len(d.Meals)),
		TotalNutrition: d.TotalNutrition,
		Revision:       d.Revision,
	}
	for _, s := range Slots {
		src := d.Meals[s]
		dst := make([]LoggedEntry, len(src))
		for i, e := range src {
			e.Food = e.Food.Clone()
			dst[i] = e
		}
		out.Meals[s] = dst
	}
	return out
}
