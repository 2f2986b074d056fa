package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/nutrilog/internal/storage"
)

const maxCaptureBytes = 20 << 20 // 20 MB

// StartRecognition handles POST /api/recognition.
//
//	@Summary		Open a voice or photo recognition attempt
//	@Tags			recognition
//	@Accept			json
//	@Produce		json
//	@Param			body	body		StartRecognitionRequest	true	"Modality"
//	@Success		201		{object}	RecognitionSnapshot
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recognition [post]
func (h *Handler) StartRecognition(w http.ResponseWriter, r *http.Request) {
	var req StartRecognitionRequest
	if !decode(w, r, &req) {
		return
	}
	snap, err := h.svc.StartRecognition(req.Kind)
	if err != nil {
		writeError(w, "start recognition", err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// GetRecognition handles GET /api/recognition/{id}.
func (h *Handler) GetRecognition(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Recognition(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get recognition", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// SubmitCapture handles POST /api/recognition/{id}/capture. Photos are sent
// as multipart/form-data in the "file" field; voice captures as the raw
// request body, which may be empty.
//
//	@Summary		Finish capturing and start processing
//	@Tags			recognition
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id		path		string	true	"Attempt id"
//	@Param			file	formData	file	false	"Photo"
//	@Success		202		{object}	RecognitionSnapshot
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recognition/{id}/capture [post]
func (h *Handler) SubmitCapture(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCaptureBytes)

	var (
		data []byte
		ext  string
		err  error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxCaptureBytes); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
			return
		}
		defer file.Close()
		ext = filepath.Ext(header.Filename)
		if data, err = io.ReadAll(file); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
			return
		}
	} else if data, err = io.ReadAll(r.Body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}

	snap, err := h.svc.SubmitCapture(chi.URLParam(r, "id"), data, ext)
	if err != nil {
		writeError(w, "submit capture", err)
		return
	}
	writeJSON(w, http.StatusAccepted, snap)
}

// GetCapture handles GET /api/recognition/{id}/capture.
//
//	@Summary		Download the stored photo of an attempt
//	@Tags			recognition
//	@Produce		image/jpeg,image/png,image/webp,image/heic
//	@Param			id	path		string	true	"Attempt id"
//	@Success		200	{file}		binary
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recognition/{id}/capture [get]
func (h *Handler) GetCapture(w http.ResponseWriter, r *http.Request) {
	data, p, err := h.svc.RecognitionCapture(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get capture", err)
		return
	}
	w.Header().Set("Content-Type", storage.ContentType(p))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// CancelRecognition handles POST /api/recognition/{id}/cancel.
func (h *Handler) CancelRecognition(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.CancelRecognition(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "cancel recognition", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// RetryRecognition handles POST /api/recognition/{id}/retry.
func (h *Handler) RetryRecognition(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.RetryRecognition(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "retry recognition", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// AcceptRecognition handles POST /api/recognition/{id}/accept.
//
//	@Summary		Log a ready recognition result
//	@Tags			recognition
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Attempt id"
//	@Param			body	body		AcceptRecognitionRequest	true	"Target date and slot"
//	@Success		201		{object}	models.LoggedEntry
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/recognition/{id}/accept [post]
func (h *Handler) AcceptRecognition(w http.ResponseWriter, r *http.Request) {
	var req AcceptRecognitionRequest
	if !decode(w, r, &req) {
		return
	}
	slot, err := slotParam(req.Slot)
	if err != nil {
		writeError(w, "accept recognition", err)
		return
	}
	entry, err := h.svc.AcceptRecognition(r.Context(), chi.URLParam(r, "id"), req.Date, slot, req.Edit)
	if err != nil {
		writeError(w, "accept recognition", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// DiscardRecognition handles DELETE /api/recognition/{id}.
func (h *Handler) DiscardRecognition(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DiscardRecognition(chi.URLParam(r, "id")); err != nil {
		writeError(w, "discard recognition", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
