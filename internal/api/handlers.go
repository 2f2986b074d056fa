package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/nutrilog/internal/apperr"
	"github.com/starford/nutrilog/internal/foodlog"
	"github.com/starford/nutrilog/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *foodlog.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *foodlog.Service) *Handler {
	return &Handler{svc: svc}
}

func slotParam(raw string) (models.MealSlot, error) {
	slot, err := models.ParseSlot(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	return slot, nil
}

// History handles GET /api/logs.
//
//	@Summary		List stored days with totals
//	@Tags			logs
//	@Produce		json
//	@Param			limit	query		int	false	"Max days"
//	@Success		200		{object}	HistoryResponse
//	@Security		BearerAuth
//	@Router			/logs [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	days, err := h.svc.History(r.Context(), limit)
	if err != nil {
		writeError(w, "history", err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Days: days})
}

// GetDailyLog handles GET /api/logs/{date}.
//
//	@Summary		Get the log of one day
//	@Tags			logs
//	@Produce		json
//	@Param			date	path		string	true	"Date (YYYY-MM-DD)"
//	@Success		200		{object}	models.DailyLog
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/logs/{date} [get]
func (h *Handler) GetDailyLog(w http.ResponseWriter, r *http.Request) {
	day, err := h.svc.GetDailyLog(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, "get daily log", err)
		return
	}
	w.Header().Set("ETag", `"`+day.Revision+`"`)
	writeJSON(w, http.StatusOK, day)
}

// LogEntry handles POST /api/logs/{date}/entries.
//
//	@Summary		Log a catalog, custom or quick-add food
//	@Tags			logs
//	@Accept			json
//	@Produce		json
//	@Param			date	path		string			true	"Date (YYYY-MM-DD)"
//	@Param			body	body		LogEntryRequest	true	"Entry to log"
//	@Success		201		{object}	models.LoggedEntry
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/logs/{date}/entries [post]
func (h *Handler) LogEntry(w http.ResponseWriter, r *http.Request) {
	var req LogEntryRequest
	if !decode(w, r, &req) {
		return
	}
	slot, err := slotParam(req.Slot)
	if err != nil {
		writeError(w, "log entry", err)
		return
	}
	date := chi.URLParam(r, "date")

	var entry *models.LoggedEntry
	switch models.Origin(req.Origin) {
	case models.OriginCatalog:
		if req.FoodID == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("food_id is required"))
			return
		}
		entry, err = h.svc.LogCatalogFood(r.Context(), date, slot, req.FoodID, req.Serving)
	case models.OriginCustom:
		if req.Custom == nil {
			writeJSON(w, http.StatusBadRequest, errorBody("custom is required"))
			return
		}
		entry, err = h.svc.Log(r.Context(), date, slot, *req.Custom)
	case models.OriginQuick:
		if req.Quick == nil {
			writeJSON(w, http.StatusBadRequest, errorBody("quick is required"))
			return
		}
		entry, err = h.svc.Log(r.Context(), date, slot, *req.Quick)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("origin must be one of catalog, custom, quick_add"))
		return
	}
	if err != nil {
		writeError(w, "log entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// AddFoodToMeal handles POST /api/logs/{date}/meals/{slot}.
//
//	@Summary		Add grams × quantity of a food to a meal
//	@Tags			logs
//	@Accept			json
//	@Produce		json
//	@Param			date	path		string			true	"Date (YYYY-MM-DD)"
//	@Param			slot	path		string			true	"Meal slot"	Enums(breakfast, lunch, dinner, snack)
//	@Param			body	body		AddFoodRequest	true	"Food and amount"
//	@Success		201		{object}	models.LoggedEntry
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/logs/{date}/meals/{slot} [post]
func (h *Handler) AddFoodToMeal(w http.ResponseWriter, r *http.Request) {
	var req AddFoodRequest
	if !decode(w, r, &req) {
		return
	}
	slot, err := slotParam(chi.URLParam(r, "slot"))
	if err != nil {
		writeError(w, "add food", err)
		return
	}

	var food models.FoodDefinition
	switch {
	case req.Food != nil:
		food = *req.Food
		if food.Provenance == "" {
			food.Provenance = models.ProvenanceUserSubmitted
		}
	case req.FoodID != "":
		food, err = h.svc.GetFood(req.FoodID)
		if err != nil {
			writeError(w, "add food", err)
			return
		}
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("food_id or food is required"))
		return
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}

	entry, err := h.svc.AddFoodToMeal(r.Context(), chi.URLParam(r, "date"), slot, food, req.Grams, qty)
	if err != nil {
		writeError(w, "add food", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// RemoveFoodFromMeal handles DELETE /api/logs/{date}/meals/{slot}/{index}.
//
//	@Summary		Remove an entry by position
//	@Tags			logs
//	@Param			date		path	string	true	"Date (YYYY-MM-DD)"
//	@Param			slot		path	string	true	"Meal slot"
//	@Param			index		path	int		true	"Position in the slot"
//	@Param			If-Match	header	string	false	"Log revision for optimistic concurrency"
//	@Success		204			"Entry removed"
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/logs/{date}/meals/{slot}/{index} [delete]
func (h *Handler) RemoveFoodFromMeal(w http.ResponseWriter, r *http.Request) {
	slot, err := slotParam(chi.URLParam(r, "slot"))
	if err != nil {
		writeError(w, "remove food", err)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("index must be an integer"))
		return
	}
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	if _, err := h.svc.RemoveFoodFromMeal(r.Context(), chi.URLParam(r, "date"), slot, index, ifMatch); err != nil {
		writeError(w, "remove food", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchFoods handles GET /api/foods/search.
//
//	@Summary		Search the food catalog
//	@Tags			foods
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Success		200	{object}	FoodsResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/foods/search [get]
func (h *Handler) SearchFoods(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	writeJSON(w, http.StatusOK, FoodsResponse{Foods: h.svc.SearchFoods(q)})
}

// PopularFoods handles GET /api/foods/popular.
//
//	@Summary		List popular catalog foods
//	@Tags			foods
//	@Produce		json
//	@Param			limit	query		int	false	"Max foods"
//	@Success		200		{object}	FoodsResponse
//	@Security		BearerAuth
//	@Router			/foods/popular [get]
func (h *Handler) PopularFoods(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 10
	}
	writeJSON(w, http.StatusOK, FoodsResponse{Foods: h.svc.PopularFoods(limit)})
}

// GetFood handles GET /api/foods/{id}.
func (h *Handler) GetFood(w http.ResponseWriter, r *http.Request) {
	food, err := h.svc.GetFood(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get food", err)
		return
	}
	writeJSON(w, http.StatusOK, food)
}

// Achievements handles GET /api/achievements.
func (h *Handler) Achievements(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Achievements())
}
