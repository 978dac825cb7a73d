package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/domain"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/validation"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

type ctxKey string

const userIDKey ctxKey = "user_id"

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func withUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

type dataEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error string      `json:"error"`
	Code  domain.Code `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeData wraps v in the success envelope.
func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, dataEnvelope{Data: v})
}

// writeError renders err in the failure envelope. Only the public message of a
// domain error is exposed.
func writeError(w http.ResponseWriter, err error) {
	code := domain.CodeOf(err)
	writeJSON(w, code.HTTPStatus(), errorEnvelope{Error: domain.PublicMessage(err), Code: code})
}

// decoder reads and validates JSON request bodies.
type decoder struct {
	validate *validation.Validator
	log      *slog.Logger
}

func (d decoder) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if !errors.Is(err, io.EOF) {
			d.log.DebugContext(r.Context(), "invalid request body", "path", r.URL.Path, "error", err)
		}
		writeError(w, domain.InvalidInput("Invalid request body"))
		return false
	}
	if err := d.validate.Validate(dst); err != nil {
		writeError(w, err)
		return false
	}
	return true
}

// verseKeyParam reads the verseKey route parameter. chi matches on the raw
// path, so an encoded colon arrives as %3A.
func verseKeyParam(r *http.Request) string {
	raw := chi.URLParam(r, "verseKey")
	if key, err := url.PathUnescape(raw); err == nil {
		return key
	}
	return raw
}
