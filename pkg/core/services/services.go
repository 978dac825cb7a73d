// Package services implements the use cases on top of the ports.
//
// Every operation validates its input before touching the store. Store errors
// that have a domain meaning (unique violations, missing rows) are translated
// here; anything else is logged and collapsed to a generic store failure.
package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/domain"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/ports"
)

// base carries what every service needs besides its repository.
type base struct {
	log *slog.Logger
	now func() time.Time
}

func newBase(log *slog.Logger) base {
	if log == nil {
		log = slog.Default()
	}
	return base{log: log, now: func() time.Time { return time.Now().UTC() }}
}

func requireUser(userID string) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	return nil
}

// storeFailure logs err and returns a failure carrying only msg.
func (b base) storeFailure(ctx context.Context, msg string, err error) error {
	b.log.ErrorContext(ctx, "store operation failed", "message", msg, "error", err)
	return domain.StoreFailure(msg, err)
}

// translate maps a write error. dup is returned for unique violations and
// msg is the public message for anything unexpected.
func (b base) translate(ctx context.Context, msg string, err error, dup *domain.Error) error {
	switch {
	case err == nil:
		return nil
	case dup != nil && errors.Is(err, ports.ErrUniqueViolation):
		return dup
	case errors.Is(err, ports.ErrNotFound):
		return domain.ErrNotFound
	}
	return b.storeFailure(ctx, msg, err)
}

// optionalText trims s; empty becomes nil.
func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
