package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/ports"
)

// CommunityHandler serves the public views. All routes work anonymously.
type CommunityHandler struct {
	service ports.CommunityService
}

func NewCommunityHandler(service ports.CommunityService) *CommunityHandler {
	return &CommunityHandler{service: service}
}

type searchResponse struct {
	Query     string   `json:"query"`
	VerseKeys []string `json:"verse_keys"`
}

func (h *CommunityHandler) VerseTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.TopTagsForVerse(r.Context(), verseKeyParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, tags)
}

func (h *CommunityHandler) Board(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.Board(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, board)
}

func (h *CommunityHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	keys, err := h.service.SearchByTag(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, searchResponse{Query: q, VerseKeys: keys})
}
