package api

import (
	"github.com/starford/nutrilog/internal/achievements"
	"github.com/starford/nutrilog/internal/foodlog"
	"github.com/starford/nutrilog/internal/intake"
	"github.com/starford/nutrilog/internal/models"
	"github.com/starford/nutrilog/internal/nutrition"
	"github.com/starford/nutrilog/internal/recognition"
)

// LogEntryRequest logs one food through the commit pipeline. Origin selects
// which of FoodID/Serving, Custom or Quick is used.
type LogEntryRequest struct {
	Slot    string                     `json:"meal_slot" example:"lunch" validate:"required"`
	Origin  string                     `json:"origin" example:"catalog" enums:"catalog,custom,quick_add" validate:"required"`
	FoodID  string                     `json:"food_id,omitempty" example:"apple"`
	Serving nutrition.ServingSelection `json:"serving"`
	Custom  *intake.CustomInput        `json:"custom,omitempty"`
	Quick   *intake.QuickInput         `json:"quick,omitempty"`
}

// AddFoodRequest adds grams × quantity of a food. Either FoodID or Food is
// required.
type AddFoodRequest struct {
	FoodID   string                 `json:"food_id,omitempty" example:"banana"`
	Food     *models.FoodDefinition `json:"food,omitempty"`
	Grams    float64                `json:"grams" example:"118" validate:"required"`
	Quantity float64                `json:"quantity" example:"1"`
}

// BuilderComponentRequest stages a catalog food in a builder.
type BuilderComponentRequest struct {
	FoodID  string                     `json:"food_id" example:"white-rice-cooked" validate:"required"`
	Serving nutrition.ServingSelection `json:"serving"`
}

// SaveBuilderRequest logs a builder's components.
type SaveBuilderRequest struct {
	Date     string `json:"date" example:"2025-01-02" validate:"required"`
	Slot     string `json:"meal_slot" example:"dinner" validate:"required"`
	MealName string `json:"meal_name,omitempty" example:"Thali"`
}

// StartRecognitionRequest opens a recognition attempt.
type StartRecognitionRequest struct {
	Kind string `json:"kind" example:"voice" enums:"voice,photo" validate:"required"`
}

// AcceptRecognitionRequest logs a ready recognition result.
type AcceptRecognitionRequest struct {
	Date string              `json:"date" example:"2025-01-02" validate:"required"`
	Slot string              `json:"meal_slot" example:"snack" validate:"required"`
	Edit *recognition.Result `json:"edit,omitempty"`
}

// FoodsResponse wraps catalog listings.
type FoodsResponse struct {
	Foods []models.FoodDefinition `json:"foods" validate:"required"`
}

// EntriesResponse wraps entries logged by a builder save.
type EntriesResponse struct {
	Entries []models.LoggedEntry `json:"entries" validate:"required"`
}

// HistoryResponse wraps the stored day listing.
type HistoryResponse struct {
	Days []foodlog.DaySummary `json:"days" validate:"required"`
}

// BuilderView is a builder session (aliased from the service layer).
type BuilderView = foodlog.BuilderView

// RecognitionSnapshot is an attempt state (aliased from the recognition layer).
type RecognitionSnapshot = recognition.Snapshot

// AchievementSummary is the tracker state (aliased from the achievements layer).
type AchievementSummary = achievements.Summary
