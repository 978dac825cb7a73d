package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/config"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/domain"
	"github.com/wadjakorntonsri/go-verse-tags/pkg/ports"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type AuthHandler struct {
	decoder
	service      ports.AuthService
	mw           *Middleware
	oauthConfig  *oauth2.Config
	userInfoURL  string
	frontendURL  string
	isProduction bool
}

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

type signUpRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	User      *domain.Profile `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func NewAuthHandler(cfg *config.Config, service ports.AuthService, mw *Middleware, d decoder) *AuthHandler {
	return &AuthHandler{
		decoder: d,
		service: service,
		mw:      mw,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL:  googleUserInfoURL,
		frontendURL:  cfg.FrontendURL,
		isProduction: cfg.IsProduction(),
	}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.SignUp(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.startSession(w, r, http.StatusCreated, user)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.startSession(w, r, http.StatusOK, user)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	writeData(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := h.generateStateOauthCookie(w)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to generate oauth state", "error", err)
		writeError(w, domain.ErrStoreFailure)
		return
	}
	http.Redirect(w, r, h.oauthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	oauthState, err := r.Cookie("oauthstate")
	if err != nil || r.FormValue("state") != oauthState.Value {
		h.log.WarnContext(ctx, "oauth callback with invalid state")
		writeError(w, domain.InvalidInput("Invalid OAuth state"))
		return
	}

	token, err := h.oauthConfig.Exchange(ctx, r.FormValue("code"))
	if err != nil {
		h.log.WarnContext(ctx, "oauth code exchange failed", "error", err)
		writeError(w, domain.ErrUnauthenticated)
		return
	}

	googleUser, err := h.fetchGoogleUser(r, token)
	if err != nil {
		h.log.ErrorContext(ctx, "failed getting google user info", "error", err)
		writeError(w, domain.ErrUnauthenticated)
		return
	}
	if !googleUser.VerifiedEmail {
		writeError(w, domain.ErrUnauthenticated)
		return
	}

	user, err := h.service.SignInWithGoogle(ctx, googleUser.Email, googleUser.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.setSessionCookie(w, user.ID); err != nil {
		h.log.ErrorContext(ctx, "failed signing JWT", "error", err)
		writeError(w, domain.ErrStoreFailure)
		return
	}

	h.log.InfoContext(ctx, "google login successful", "user_id", user.ID)
	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) fetchGoogleUser(r *http.Request, token *oauth2.Token) (*GoogleUser, error) {
	client := h.oauthConfig.Client(r.Context(), token)
	resp, err := client.Get(h.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var u GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, user *domain.User) {
	token, err := h.setSessionCookie(w, user.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed signing JWT", "error", err)
		writeError(w, domain.ErrStoreFailure)
		return
	}
	writeData(w, status, sessionResponse{
		User:      &domain.Profile{ID: user.ID, Email: user.Email, Name: user.Name},
		Token:     token.value,
		ExpiresAt: token.expiresAt,
	})
}

type session struct {
	value     string
	expiresAt time.Time
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, userID string) (session, error) {
	value, expiresAt, err := h.mw.issueToken(userID, time.Now())
	if err != nil {
		return session{}, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    value,
		Expires:  expiresAt,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return session{value: value, expiresAt: expiresAt}, nil
}

func (h *AuthHandler) generateStateOauthCookie(w http.ResponseWriter) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     "oauthstate",
		Value:    state,
		Expires:  time.Now().Add(20 * time.Minute),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}
