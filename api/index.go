package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/config"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/logger"
)

var (
	setupOnce sync.Once
	mux       http.Handler
	setupErr  error
)

// newHandler builds the API for one function instance. It refuses to start
// on a configuration cmd/server would also reject.
func newHandler(cfg *config.Config, log *slog.Logger) (http.Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Note: On Vercel, db.sqlite is ephemeral unless using a remote SQL/Turso URL in DATABASE_URL
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// The limiter lives as long as the function instance.
	h, _ := handler.NewRouter(cfg, handler.NewServices(repo, log), repo, log)
	return h, nil
}

func setup() {
	cfg := config.Load()
	log := logger.New(logger.Config{
		Writer:      os.Stderr,
		Environment: cfg.AppEnv,
		Level:       logger.ParseLevel(cfg.LogLevel),
	})
	slog.SetDefault(log)

	mux, setupErr = newHandler(cfg, log)
	if setupErr != nil {
		log.Error("function setup failed", "error", setupErr)
	}
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	setupOnce.Do(setup)
	if setupErr != nil {
		panic(setupErr)
	}
	mux.ServeHTTP(w, r)
}
