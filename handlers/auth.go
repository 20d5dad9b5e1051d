package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"nido/models"
	"nido/services/accounts"
	"nido/services/sessions"
)

type accountsService interface {
	Lookup(username string) (models.Identity, bool)
	SignIn(username, password string) (models.Identity, error)
}

type sessionsService interface {
	Create(identity models.Identity) string
	Validate(token string) (models.Identity, error)
	Revoke(token string)
}

var _ accountsService = (*accounts.Service)(nil)
var _ sessionsService = (*sessions.Service)(nil)

const sessionCookieName = "nido_session"

// Sign-in failures map to fixed Spanish messages; the raw error never reaches
// the client.
const (
	msgInvalidUser     = "Usuario no válido"
	msgWrongPassword   = "Contraseña incorrecta"
	msgUserNotFound    = "Usuario no encontrado"
	msgTooManyAttempts = "Demasiados intentos. Espera unos minutos."
	msgSignInFallback  = "No se pudo iniciar sesión. Intenta de nuevo."
)

// AuthHandler owns sign-in, sign-out and the session middleware.
type AuthHandler struct {
	Accounts accountsService
	Sessions sessionsService
}

func NewAuthHandler(accountsSvc accountsService, sessionsSvc sessionsService) *AuthHandler {
	return &AuthHandler{Accounts: accountsSvc, Sessions: sessionsSvc}
}

// Login verifies credentials and sets the session cookie. The username is
// checked against the member directory before the credential service is
// touched, so typos never count as failed attempts.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Next     string `json:"next"`
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeLoginError(w, http.StatusBadRequest, msgInvalidUser)
		return
	}

	if _, ok := h.Accounts.Lookup(body.Username); !ok || strings.TrimSpace(body.Password) == "" {
		writeLoginError(w, http.StatusBadRequest, msgInvalidUser)
		return
	}

	identity, err := h.Accounts.SignIn(body.Username, body.Password)
	if err != nil {
		status, msg := loginFailure(err)
		writeLoginError(w, status, msg)
		return
	}

	token := h.Sessions.Create(identity)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"member": identity,
		"next":   safeNextPath(body.Next),
	})
}

// Logout revokes the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		h.Sessions.Revoke(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Me returns the signed-in member identity.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(identity)
}

// RequirePage gates a page behind a valid session, redirecting to the login
// page with the original path preserved.
func (h *AuthHandler) RequirePage(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := h.identityFor(r)
		if !ok {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
			return
		}
		next(w, r.WithContext(ContextWithIdentity(r.Context(), &identity)))
	}
}

// RequireAPI gates an API route behind a valid session, answering 401 JSON.
func (h *AuthHandler) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := h.identityFor(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "sesión requerida"})
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), &identity)))
	})
}

func (h *AuthHandler) identityFor(r *http.Request) (models.Identity, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return models.Identity{}, false
	}
	identity, err := h.Sessions.Validate(cookie.Value)
	if err != nil {
		return models.Identity{}, false
	}
	return identity, true
}

func loginFailure(err error) (int, string) {
	switch {
	case errors.Is(err, accounts.ErrInvalidCredential):
		return http.StatusUnauthorized, msgWrongPassword
	case errors.Is(err, accounts.ErrMemberNotFound):
		return http.StatusNotFound, msgUserNotFound
	case errors.Is(err, accounts.ErrTooManyAttempts):
		return http.StatusTooManyRequests, msgTooManyAttempts
	}
	return http.StatusInternalServerError, msgSignInFallback
}

func writeLoginError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// safeNextPath keeps post-login redirects inside the app.
func safeNextPath(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/watchlist"
	}
	return next
}

type identityKey struct{}

// ContextWithIdentity attaches the signed-in member to the request context.
func ContextWithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext retrieves the signed-in member, or nil.
func IdentityFromContext(ctx context.Context) *models.Identity {
	if identity, ok := ctx.Value(identityKey{}).(*models.Identity); ok {
		return identity
	}
	return nil
}
