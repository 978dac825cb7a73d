package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/domain"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seed(t *testing.T, dbPath string) *domain.Tag {
	t.Helper()
	ctx := context.Background()
	repo, err := sqlite.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	defer repo.Close()

	now := time.Now()
	u := &domain.User{ID: uuid.NewString(), Email: "a@example.com", Name: "A", PasswordHash: "hash", CreatedAt: now}
	require.NoError(t, repo.CreateUser(ctx, u))
	tag := &domain.Tag{ID: uuid.NewString(), UserID: u.ID, VerseKey: "2:255", TagText: "mercy", IsPublic: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.CreateTag(ctx, tag))
	_, err = repo.ApplyVote(ctx, &domain.Vote{ID: uuid.NewString(), TagID: tag.ID, UserID: u.ID, VoteType: 1, CreatedAt: now})
	require.NoError(t, err)
	return tag
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.db")
	dst := filepath.Join(dir, "dst.db")
	seed(t, src)

	out, err := run(t, "export", "--database-url", src)
	require.NoError(t, err)

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.Len(t, snap.Users, 1)
	assert.Empty(t, snap.Users[0].PasswordHash)
	assert.Len(t, snap.Tags, 1)
	assert.Len(t, snap.Votes, 1)

	file := filepath.Join(dir, "export.json")
	require.NoError(t, os.WriteFile(file, []byte(out), 0o600))

	out, err = run(t, "import", "--database-url", dst, "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 3 rows, skipped 0")

	out, err = run(t, "import", "--database-url", dst, "--file", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 rows, skipped 3")
}

func TestExportIncludesHashesOnRequest(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src.db")
	seed(t, src)

	out, err := run(t, "export", "--database-url", src, "--include-password-hashes")
	require.NoError(t, err)

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "hash", snap.Users[0].PasswordHash)
}

func TestImportRequiresFile(t *testing.T) {
	_, err := run(t, "import", "--database-url", filepath.Join(t.TempDir(), "x.db"))
	assert.Error(t, err)
}

func TestRecountVotes(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "recount.db")
	tag := seed(t, dbPath)

	out, err := run(t, "recount-votes", "--database-url", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Corrected 0 tags")

	repo, err := sqlite.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	got, err := repo.GetTag(context.Background(), tag.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Votes)
	repo.Close()
}
