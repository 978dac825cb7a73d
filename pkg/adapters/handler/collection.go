package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/ports"
)

type CollectionHandler struct {
	decoder
	service ports.CollectionService
}

func NewCollectionHandler(service ports.CollectionService, d decoder) *CollectionHandler {
	return &CollectionHandler{decoder: d, service: service}
}

type collectionRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

type addVerseRequest struct {
	VerseKey string  `json:"verse_key" validate:"required"`
	Notes    *string `json:"notes"`
}

func (h *CollectionHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	collection, err := h.service.CreateCollection(r.Context(), UserID(r.Context()), req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, collection)
}

func (h *CollectionHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.service.ListCollections(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, collections)
}

// GetCollection is reachable anonymously for public collections.
func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := h.service.GetCollection(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, collection)
}

func (h *CollectionHandler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	collection, err := h.service.UpdateCollection(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, collection)
}

func (h *CollectionHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCollection(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *CollectionHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if !h.decode(w, r, &req) {
		return
	}

	collection, err := h.service.SetVisibility(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), *req.IsPublic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, collection)
}

func (h *CollectionHandler) AddVerse(w http.ResponseWriter, r *http.Request) {
	var req addVerseRequest
	if !h.decode(w, r, &req) {
		return
	}

	verse, err := h.service.AddVerse(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), req.VerseKey, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, verse)
}

func (h *CollectionHandler) RemoveVerse(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveVerse(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), verseKeyParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *CollectionHandler) ListVerseCollections(w http.ResponseWriter, r *http.Request) {
	refs, err := h.service.ListVerseCollections(r.Context(), UserID(r.Context()), verseKeyParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, refs)
}
