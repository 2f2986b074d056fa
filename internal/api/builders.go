package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// CreateBuilder handles POST /api/builders.
//
//	@Summary		Open a meal builder
//	@Tags			builders
//	@Produce		json
//	@Success		201	{object}	BuilderView
//	@Security		BearerAuth
//	@Router			/builders [post]
func (h *Handler) CreateBuilder(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, h.svc.NewBuilder())
}

// GetBuilder handles GET /api/builders/{id}.
func (h *Handler) GetBuilder(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Builder(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get builder", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// DiscardBuilder handles DELETE /api/builders/{id}.
func (h *Handler) DiscardBuilder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DiscardBuilder(chi.URLParam(r, "id")); err != nil {
		writeError(w, "discard builder", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddBuilderComponent handles POST /api/builders/{id}/components.
//
//	@Summary		Stage a catalog food in a builder
//	@Tags			builders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Builder id"
//	@Param			body	body		BuilderComponentRequest	true	"Food and serving"
//	@Success		200		{object}	BuilderView
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/builders/{id}/components [post]
func (h *Handler) AddBuilderComponent(w http.ResponseWriter, r *http.Request) {
	var req BuilderComponentRequest
	if !decode(w, r, &req) {
		return
	}
	if req.FoodID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("food_id is required"))
		return
	}
	v, err := h.svc.AddToBuilder(chi.URLParam(r, "id"), req.FoodID, req.Serving)
	if err != nil {
		writeError(w, "add builder component", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// RemoveBuilderComponent handles DELETE /api/builders/{id}/components/{index}.
func (h *Handler) RemoveBuilderComponent(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("index must be an integer"))
		return
	}
	v, err := h.svc.RemoveFromBuilder(chi.URLParam(r, "id"), index)
	if err != nil {
		writeError(w, "remove builder component", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// SaveBuilder handles POST /api/builders/{id}/save.
//
//	@Summary		Log every staged component as its own entry
//	@Tags			builders
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Builder id"
//	@Param			body	body		SaveBuilderRequest	true	"Target date and slot"
//	@Success		201		{object}	EntriesResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/builders/{id}/save [post]
func (h *Handler) SaveBuilder(w http.ResponseWriter, r *http.Request) {
	var req SaveBuilderRequest
	if !decode(w, r, &req) {
		return
	}
	slot, err := slotParam(req.Slot)
	if err != nil {
		writeError(w, "save builder", err)
		return
	}
	entries, err := h.svc.SaveBuilder(r.Context(), chi.URLParam(r, "id"), req.Date, slot, req.MealName)
	if err != nil {
		writeError(w, "save builder", err)
		return
	}
	writeJSON(w, http.StatusCreated, EntriesResponse{Entries: entries})
}
