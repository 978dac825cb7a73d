package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/ports"
)

type ProfileHandler struct {
	decoder
	service ports.ProfileService
}

func NewProfileHandler(service ports.ProfileService, d decoder) *ProfileHandler {
	return &ProfileHandler{decoder: d, service: service}
}

type updateProfileRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	profile, err := h.service.UpdateDisplayName(r.Context(), UserID(r.Context()), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, profile)
}
