package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/config"
)

func TestIntegration(t *testing.T) {
	// 1. Setup DB
	repo, err := sqlite.NewSQLiteRepository(filepath.Join(t.TempDir(), "e2e.db"))
	require.NoError(t, err, "Failed to init db")
	defer repo.Close()

	// 2. Setup Router
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		AppEnv:         "test",
		JWTSecret:      "e2e-secret",
		AllowedOrigins: []string{"*"},
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	}
	mux, limiter := handler.NewRouter(cfg, handler.NewServices(repo, log), repo, log)
	defer limiter.Stop()

	server := httptest.NewServer(mux)
	defer server.Close()

	// Cookie jars make each client a separate browser session.
	newClient := func() *http.Client {
		jar, err := cookiejar.New(nil)
		require.NoError(t, err)
		return &http.Client{Jar: jar, Transport: server.Client().Transport}
	}
	post := func(c *http.Client, path string, payload any, out any) int {
		body, _ := json.Marshal(payload)
		resp, err := c.Post(server.URL+path, "application/json", bytes.NewBuffer(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		if out != nil {
			var env struct {
				Data json.RawMessage `json:"data"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
			require.NoError(t, json.Unmarshal(env.Data, out))
		}
		return resp.StatusCode
	}

	alice, bob := newClient(), newClient()

	// TEST 1: Sign up both users; the session cookie carries over.
	status := post(alice, "/api/v1/auth/signup", map[string]string{
		"name": "Alice", "email": "alice@example.com", "password": "password123",
	}, nil)
	require.Equal(t, http.StatusCreated, status)
	status = post(bob, "/api/v1/auth/signup", map[string]string{
		"name": "Bob", "email": "bob@example.com", "password": "password123",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	// TEST 2: Alice tags a verse publicly
	var tag struct {
		ID string `json:"id"`
	}
	status = post(alice, "/api/v1/tags", map[string]any{
		"verse_key": "2:255", "tag_text": "Throne Verse", "is_public": true,
	}, &tag)
	require.Equal(t, http.StatusCreated, status)

	// TEST 3: Bob upvotes twice, which withdraws the vote
	var vote struct {
		Action string `json:"action"`
		Votes  int    `json:"votes"`
	}
	post(bob, "/api/v1/tags/"+tag.ID+"/vote", map[string]int{"vote_type": 1}, &vote)
	assert.Equal(t, "added", vote.Action)
	assert.Equal(t, 1, vote.Votes)
	post(bob, "/api/v1/tags/"+tag.ID+"/vote", map[string]int{"vote_type": 1}, &vote)
	assert.Equal(t, "removed", vote.Action)
	assert.Equal(t, 0, vote.Votes)

	// TEST 4: Collections keep positions after removal
	var collection struct {
		ID string `json:"id"`
	}
	status = post(alice, "/api/v1/collections", map[string]string{"name": "Favorites"}, &collection)
	require.Equal(t, http.StatusCreated, status)
	for _, key := range []string{"2:255", "2:256"} {
		status = post(alice, "/api/v1/collections/"+collection.ID+"/verses", map[string]string{"verse_key": key}, nil)
		require.Equal(t, http.StatusCreated, status)
	}

	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/api/v1/collections/"+collection.ID+"/verses/2:255", nil)
	resp, err := alice.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var added struct {
		Position int `json:"position"`
	}
	post(alice, "/api/v1/collections/"+collection.ID+"/verses", map[string]string{"verse_key": "18:10"}, &added)
	assert.Equal(t, 3, added.Position)

	// TEST 5: Bob cannot touch Alice's collection
	status = post(bob, "/api/v1/collections/"+collection.ID+"/verses", map[string]string{"verse_key": "1:1"}, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// TEST 6: Sign out clears the session
	status = post(alice, "/api/v1/auth/signout", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	resp, err = alice.Get(server.URL + "/api/v1/collections")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
