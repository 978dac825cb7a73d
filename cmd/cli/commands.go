package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/config"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/domain"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/services"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/logger"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	DatabaseURL string
	Verbose     bool
}

func newRootCommand() *cobra.Command {
	cfg := config.Load()
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "versetags",
		Short:         "Operator tools for the verse tags store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "database-url", cfg.DatabaseURL, "database file path or libsql:// URL")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging to stderr")

	cmd.AddCommand(newExportCommand(opts))
	cmd.AddCommand(newImportCommand(opts))
	cmd.AddCommand(newRecountCommand(opts))

	return cmd
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return logger.New(logger.Config{Writer: cmd.ErrOrStderr(), Level: level})
}

func (o *rootOptions) open() (*sqlite.SQLiteRepository, error) {
	repo, err := sqlite.NewSQLiteRepository(o.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	return repo, nil
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var withPasswords bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every user, tag, vote and collection as JSON to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := opts.open()
			if err != nil {
				return err
			}
			defer repo.Close()

			snap, err := repo.Dump(cmd.Context())
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			if !withPasswords {
				for i := range snap.Users {
					snap.Users[i].PasswordHash = ""
				}
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(snap)
		},
	}

	cmd.Flags().BoolVar(&withPasswords, "include-password-hashes", false, "include bcrypt hashes so accounts keep working after import")
	return cmd
}

func newImportCommand(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a JSON export, skipping rows that already exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open file: %w", err)
			}
			defer f.Close()

			snap, err := decodeSnapshot(f)
			if err != nil {
				return err
			}

			repo, err := opts.open()
			if err != nil {
				return err
			}
			defer repo.Close()

			stats, err := repo.Restore(cmd.Context(), snap)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows, skipped %d\n", stats.Inserted, stats.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON file to import")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newRecountCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recount-votes",
		Short: "Recompute every tag's vote tally from the vote ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := opts.open()
			if err != nil {
				return err
			}
			defer repo.Close()

			votes := services.NewVoteService(repo, opts.logger(cmd))
			n, err := votes.RecountVotes(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Corrected %d tags\n", n)
			return nil
		},
	}
}

func decodeSnapshot(r io.Reader) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}
	return &snap, nil
}
