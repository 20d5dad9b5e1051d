package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nido/models"
	"nido/services/accounts"
)

type fakeAccounts struct {
	signInCalls int
	signInErr   error
	identity    models.Identity
}

func (f *fakeAccounts) Lookup(username string) (models.Identity, bool) {
	if strings.ToLower(strings.TrimSpace(username)) == "dani" {
		return models.Identity{ID: "member-dani", Name: "Dani"}, true
	}
	return models.Identity{}, false
}

func (f *fakeAccounts) SignIn(username, password string) (models.Identity, error) {
	f.signInCalls++
	if f.signInErr != nil {
		return models.Identity{}, f.signInErr
	}
	return f.identity, nil
}

type fakeSessions struct {
	created []models.Identity
	revoked []string
}

func (f *fakeSessions) Create(identity models.Identity) string {
	f.created = append(f.created, identity)
	return "token-1"
}

func (f *fakeSessions) Validate(token string) (models.Identity, error) {
	if token == "token-1" {
		return models.Identity{ID: "member-dani"}, nil
	}
	return models.Identity{}, errTestSession
}

func (f *fakeSessions) Revoke(token string) { f.revoked = append(f.revoked, token) }

var errTestSession = &sessionError{}

type sessionError struct{}

func (*sessionError) Error() string { return "bad session" }

func doLogin(t *testing.T, h *AuthHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func loginMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body["error"]
}

func TestLoginUnknownUsernameNeverReachesCredentials(t *testing.T) {
	accountsSvc := &fakeAccounts{}
	h := NewAuthHandler(accountsSvc, &fakeSessions{})

	rec := doLogin(t, h, `{"username":"stranger","password":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg := loginMessage(t, rec); msg != msgInvalidUser {
		t.Fatalf("message = %q, want %q", msg, msgInvalidUser)
	}
	if accountsSvc.signInCalls != 0 {
		t.Fatalf("SignIn called %d times for unknown username", accountsSvc.signInCalls)
	}
}

func TestLoginEmptyPasswordRejectedLocally(t *testing.T) {
	accountsSvc := &fakeAccounts{}
	h := NewAuthHandler(accountsSvc, &fakeSessions{})

	rec := doLogin(t, h, `{"username":"dani","password":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if accountsSvc.signInCalls != 0 {
		t.Fatal("SignIn should not be called with an empty password")
	}
}

func TestLoginErrorMessages(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{accounts.ErrInvalidCredential, http.StatusUnauthorized, msgWrongPassword},
		{accounts.ErrMemberNotFound, http.StatusNotFound, msgUserNotFound},
		{accounts.ErrTooManyAttempts, http.StatusTooManyRequests, msgTooManyAttempts},
		{errTestSession, http.StatusInternalServerError, msgSignInFallback},
	}

	for _, tc := range cases {
		h := NewAuthHandler(&fakeAccounts{signInErr: tc.err}, &fakeSessions{})
		rec := doLogin(t, h, `{"username":"dani","password":"x"}`)
		if rec.Code != tc.wantStatus {
			t.Fatalf("%v: status = %d, want %d", tc.err, rec.Code, tc.wantStatus)
		}
		if msg := loginMessage(t, rec); msg != tc.wantMsg {
			t.Fatalf("%v: message = %q, want %q", tc.err, msg, tc.wantMsg)
		}
	}
}

func TestLoginSuccessSetsCookieAndNext(t *testing.T) {
	sessionsSvc := &fakeSessions{}
	h := NewAuthHandler(&fakeAccounts{identity: models.Identity{ID: "member-dani", Name: "Dani"}}, sessionsSvc)

	rec := doLogin(t, h, `{"username":"dani","password":"x","next":"/metas"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(sessionsSvc.created) != 1 {
		t.Fatalf("sessions created = %d, want 1", len(sessionsSvc.created))
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookieName || cookies[0].Value != "token-1" {
		t.Fatalf("cookies = %+v", cookies)
	}

	var body struct {
		Next string `json:"next"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Next != "/metas" {
		t.Fatalf("next = %s, want /metas", body.Next)
	}
}

func TestLoginUnsafeNextFallsBack(t *testing.T) {
	h := NewAuthHandler(&fakeAccounts{identity: models.Identity{ID: "member-dani"}}, &fakeSessions{})

	rec := doLogin(t, h, `{"username":"dani","password":"x","next":"//evil.example"}`)
	var body struct {
		Next string `json:"next"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Next != "/watchlist" {
		t.Fatalf("next = %s, want /watchlist", body.Next)
	}
}

func TestRequireAPIWithoutSession(t *testing.T) {
	h := NewAuthHandler(&fakeAccounts{}, &fakeSessions{})

	called := false
	handler := h.RequireAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodGet, "/api/watchlist", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if called {
		t.Fatal("protected handler ran without a session")
	}
}

func TestRequirePageRedirectsWithNext(t *testing.T) {
	h := NewAuthHandler(&fakeAccounts{}, &fakeSessions{})

	handler := h.RequirePage(func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodGet, "/metas", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?next=%2Fmetas" {
		t.Fatalf("location = %s", loc)
	}
}

func TestRequirePagePassesIdentity(t *testing.T) {
	h := NewAuthHandler(&fakeAccounts{}, &fakeSessions{})

	var got *models.Identity
	handler := h.RequirePage(func(w http.ResponseWriter, r *http.Request) {
		got = IdentityFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/metas", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "token-1"})
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got == nil || got.ID != "member-dani" {
		t.Fatalf("identity = %+v", got)
	}
}
