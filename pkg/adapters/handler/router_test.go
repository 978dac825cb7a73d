package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/config"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo, err := sqlite.NewSQLiteRepository(filepath.Join(t.TempDir(), "handler.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	log := discardLogger()
	cfg := &config.Config{
		AppEnv:         "test",
		JWTSecret:      "test-secret",
		FrontendURL:    "http://localhost:3000",
		AllowedOrigins: []string{"http://localhost:3000"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}
	h, limiter := NewRouter(cfg, NewServices(repo, log), repo, log)
	t.Cleanup(limiter.Stop)

	return &testServer{t: t, handler: h}
}

// do sends body as JSON with token as a Bearer header and decodes the
// envelope into out when it is non-nil.
func (s *testServer) do(method, path, token string, body any, out any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	if out != nil {
		env := struct {
			Data json.RawMessage `json:"data"`
		}{}
		require.NoError(s.t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
		require.NoError(s.t, json.Unmarshal(env.Data, out), rr.Body.String())
	}
	return rr
}

func (s *testServer) signUp(email string) string {
	s.t.Helper()
	var session struct {
		Token string `json:"token"`
	}
	rr := s.do("POST", "/api/v1/auth/signup", "", map[string]string{
		"name": "Reader", "email": email, "password": "password123",
	}, &session)
	require.Equal(s.t, http.StatusCreated, rr.Code, rr.Body.String())
	require.NotEmpty(s.t, session.Token)
	return session.Token
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	assert.NotEmpty(t, env.Error)
	return env.Code
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rr := s.do("GET", "/healthz", "", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)
	s.signUp("a@example.com")

	rr := s.do("POST", "/api/v1/auth/signup", "", map[string]string{
		"name": "Again", "email": "a@example.com", "password": "password123",
	}, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "DUPLICATE_EMAIL", errorCode(t, rr))

	rr = s.do("POST", "/api/v1/auth/signup", "", map[string]string{"name": "X", "email": "bad"}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do("POST", "/api/v1/auth/signin", "", map[string]string{
		"email": "a@example.com", "password": "password123",
	}, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, authCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	rr = s.do("POST", "/api/v1/auth/signin", "", map[string]string{
		"email": "a@example.com", "password": "wrong-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rr))

	rr = s.do("GET", "/api/v1/auth/google/login", "", nil, nil)
	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Contains(t, rr.Header().Get("Location"), "accounts.google.com")

	rr = s.do("GET", "/api/v1/auth/google/callback?state=forged", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTagAndVoteRoutes(t *testing.T) {
	s := newTestServer(t)
	owner := s.signUp("owner@example.com")
	voter := s.signUp("voter@example.com")

	rr := s.do("POST", "/api/v1/tags", "", map[string]any{"verse_key": "2:255", "tag_text": "mercy"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	var tag struct {
		ID      string `json:"id"`
		TagText string `json:"tag_text"`
	}
	rr = s.do("POST", "/api/v1/tags", owner, map[string]any{
		"verse_key": "2:255", "tag_text": "  Mercy  ", "is_public": true,
	}, &tag)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "mercy", tag.TagText)

	rr = s.do("POST", "/api/v1/tags", owner, map[string]any{"verse_key": "2:255", "tag_text": "MERCY"}, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "DUPLICATE_TAG", errorCode(t, rr))

	rr = s.do("POST", "/api/v1/tags", owner, map[string]any{"verse_key": "two", "tag_text": "mercy"}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var vote struct {
		Action   string `json:"action"`
		Votes    int    `json:"votes"`
		UserVote *int   `json:"user_vote"`
	}
	rr = s.do("POST", "/api/v1/tags/"+tag.ID+"/vote", voter, map[string]int{"vote_type": 1}, &vote)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "added", vote.Action)
	assert.Equal(t, 1, vote.Votes)

	rr = s.do("POST", "/api/v1/tags/"+tag.ID+"/vote", voter, map[string]int{"vote_type": -1}, &vote)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "changed", vote.Action)
	assert.Equal(t, -1, vote.Votes)

	rr = s.do("POST", "/api/v1/tags/"+tag.ID+"/vote", voter, map[string]int{"vote_type": 3}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do("POST", "/api/v1/tags/missing/vote", voter, map[string]int{"vote_type": 1}, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	var userVote struct {
		UserVote *int `json:"user_vote"`
	}
	s.do("GET", "/api/v1/tags/"+tag.ID+"/vote", voter, nil, &userVote)
	require.NotNil(t, userVote.UserVote)
	assert.Equal(t, -1, *userVote.UserVote)
	s.do("GET", "/api/v1/tags/"+tag.ID+"/vote", "", nil, &userVote)
	assert.Nil(t, userVote.UserVote)

	// Ownership is reported as not found, never forbidden.
	rr = s.do("DELETE", "/api/v1/tags/"+tag.ID, voter, nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = s.do("PATCH", "/api/v1/tags/"+tag.ID+"/visibility", voter, map[string]bool{"is_public": false}, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	var community []struct {
		ID string `json:"id"`
	}
	rr = s.do("GET", "/api/v1/verses/2%3A255/community-tags", "", nil, &community)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, community, 1)

	var search struct {
		VerseKeys []string `json:"verse_keys"`
	}
	s.do("GET", "/api/v1/search/tags?q=merc", "", nil, &search)
	assert.Equal(t, []string{"2:255"}, search.VerseKeys)

	var board struct {
		Groups []struct {
			TagText string `json:"tag_text"`
		} `json:"groups"`
		UserVotes map[string]int `json:"user_votes"`
	}
	s.do("GET", "/api/v1/community/tags", voter, nil, &board)
	require.Len(t, board.Groups, 1)
	assert.Equal(t, map[string]int{tag.ID: -1}, board.UserVotes)

	var mine []struct {
		ID string `json:"id"`
	}
	s.do("GET", "/api/v1/verses/2:255/tags", owner, nil, &mine)
	assert.Len(t, mine, 1)

	rr = s.do("PATCH", "/api/v1/tags/"+tag.ID+"/visibility", owner, map[string]bool{"is_public": false}, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = s.do("DELETE", "/api/v1/tags/"+tag.ID, owner, nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCollectionRoutes(t *testing.T) {
	s := newTestServer(t)
	owner := s.signUp("owner@example.com")
	other := s.signUp("other@example.com")

	var c struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	rr := s.do("POST", "/api/v1/collections", owner, map[string]any{"name": "Favorites"}, &c)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = s.do("POST", "/api/v1/collections", owner, map[string]any{"name": "Favorites"}, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "DUPLICATE_NAME", errorCode(t, rr))

	type member struct {
		VerseKey string `json:"verse_key"`
		Position int    `json:"position"`
	}
	for _, key := range []string{"2:255", "2:256"} {
		rr = s.do("POST", "/api/v1/collections/"+c.ID+"/verses", owner, map[string]string{"verse_key": key}, nil)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}
	rr = s.do("POST", "/api/v1/collections/"+c.ID+"/verses", owner, map[string]string{"verse_key": "2:256"}, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "DUPLICATE_VERSE", errorCode(t, rr))

	rr = s.do("DELETE", "/api/v1/collections/"+c.ID+"/verses/2:255", owner, nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var added member
	s.do("POST", "/api/v1/collections/"+c.ID+"/verses", owner, map[string]string{"verse_key": "18:10"}, &added)
	assert.Equal(t, 3, added.Position)

	var full struct {
		Verses []member `json:"verses"`
	}
	s.do("GET", "/api/v1/collections/"+c.ID, owner, nil, &full)
	assert.Equal(t, []member{{"2:256", 2}, {"18:10", 3}}, full.Verses)

	rr = s.do("GET", "/api/v1/collections/"+c.ID, other, nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = s.do("POST", "/api/v1/collections/"+c.ID+"/verses", other, map[string]string{"verse_key": "1:1"}, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do("PATCH", "/api/v1/collections/"+c.ID+"/visibility", owner, map[string]bool{"is_public": true}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = s.do("GET", "/api/v1/collections/"+c.ID, "", nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var refs []struct {
		ID string `json:"id"`
	}
	s.do("GET", "/api/v1/verses/18:10/collections", owner, nil, &refs)
	require.Len(t, refs, 1)
	assert.Equal(t, c.ID, refs[0].ID)

	rr = s.do("PUT", "/api/v1/collections/"+c.ID, owner, map[string]any{"name": "Kahf", "description": "cave"}, &c)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Kahf", c.Name)

	var list []struct {
		VerseCount int `json:"verse_count"`
	}
	s.do("GET", "/api/v1/collections", owner, nil, &list)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].VerseCount)

	rr = s.do("DELETE", "/api/v1/collections/"+c.ID, owner, nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = s.do("DELETE", "/api/v1/collections/"+c.ID, owner, nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestProfileRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp("a@example.com")

	var p struct {
		Name string `json:"name"`
	}
	rr := s.do("PATCH", "/api/v1/profile", token, map[string]string{"name": "  Maryam "}, &p)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Maryam", p.Name)

	s.do("GET", "/api/v1/profile", token, nil, &p)
	assert.Equal(t, "Maryam", p.Name)

	rr = s.do("GET", "/api/v1/profile", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
