package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/ports"
)

type TagHandler struct {
	decoder
	tags  ports.TagService
	votes ports.VoteService
}

func NewTagHandler(tags ports.TagService, votes ports.VoteService, d decoder) *TagHandler {
	return &TagHandler{decoder: d, tags: tags, votes: votes}
}

type createTagRequest struct {
	VerseKey string `json:"verse_key" validate:"required"`
	TagText  string `json:"tag_text" validate:"required"`
	IsPublic bool   `json:"is_public"`
}

type visibilityRequest struct {
	IsPublic *bool `json:"is_public" validate:"required"`
}

type voteRequest struct {
	VoteType int `json:"vote_type" validate:"oneof=1 -1"`
}

type userVoteResponse struct {
	UserVote *int `json:"user_vote"`
}

func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTagRequest
	if !h.decode(w, r, &req) {
		return
	}

	tag, err := h.tags.CreateTag(r.Context(), UserID(r.Context()), req.VerseKey, req.TagText, req.IsPublic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, tag)
}

func (h *TagHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.ListMyTags(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, tags)
}

func (h *TagHandler) ListMineForVerse(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.ListMyTagsForVerse(r.Context(), UserID(r.Context()), verseKeyParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, tags)
}

func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tags.DeleteTag(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *TagHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if !h.decode(w, r, &req) {
		return
	}

	tag, err := h.tags.SetVisibility(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), *req.IsPublic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, tag)
}

func (h *TagHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.votes.Vote(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), req.VoteType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (h *TagHandler) GetVote(w http.ResponseWriter, r *http.Request) {
	v, err := h.votes.GetUserVote(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, userVoteResponse{UserVote: v})
}
