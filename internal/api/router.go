package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/nutrilog/internal/foodlog"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *foodlog.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Ledger.
	r.Get("/logs", h.History)
	r.Get("/logs/{date}", h.GetDailyLog)
	r.Post("/logs/{date}/entries", h.LogEntry)
	r.Post("/logs/{date}/meals/{slot}", h.AddFoodToMeal)
	r.Delete("/logs/{date}/meals/{slot}/{index}", h.RemoveFoodFromMeal)

	// Catalog.
	r.Get("/foods/search", h.SearchFoods)
	r.Get("/foods/popular", h.PopularFoods)
	r.Get("/foods/{id}", h.GetFood)

	// Meal builders.
	r.Post("/builders", h.CreateBuilder)
	r.Get("/builders/{id}", h.GetBuilder)
	r.Delete("/builders/{id}", h.DiscardBuilder)
	r.Post("/builders/{id}/components", h.AddBuilderComponent)
	r.Delete("/builders/{id}/components/{index}", h.RemoveBuilderComponent)
	r.Post("/builders/{id}/save", h.SaveBuilder)

	// Recognition.
	r.Post("/recognition", h.StartRecognition)
	r.Get("/recognition/{id}", h.GetRecognition)
	r.Delete("/recognition/{id}", h.DiscardRecognition)
	r.Post("/recognition/{id}/capture", h.SubmitCapture)
	r.Get("/recognition/{id}/capture", h.GetCapture)
	r.Post("/recognition/{id}/cancel", h.CancelRecognition)
	r.Post("/recognition/{id}/retry", h.RetryRecognition)
	r.Post("/recognition/{id}/accept", h.AcceptRecognition)

	r.Get("/achievements", h.Achievements)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
