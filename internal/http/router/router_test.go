package router

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vnxcius/accounts-back/internal/account"
	"github.com/vnxcius/accounts-back/internal/database/model"
	"github.com/vnxcius/accounts-back/internal/database/store"
	"github.com/vnxcius/accounts-back/internal/http/handlers"
	"github.com/vnxcius/accounts-back/internal/metrics"
	"github.com/vnxcius/accounts-back/internal/session"
	"github.com/vnxcius/accounts-back/internal/token"
	"github.com/vnxcius/accounts-back/internal/util"
)

type testServer struct {
	engine *gin.Engine
	users  *store.MemoryUserStore
	issuer *token.Issuer
}

func newTestServer(t *testing.T, httpOnly bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := store.NewMemoryUserStore()
	hasher := util.NewBcryptHasher(util.DefaultPasswordCost)
	issuer, err := token.NewIssuer("access-secret", "refresh-secret", 30*time.Second, 24*time.Hour)
	require.NoError(t, err)

	hash, err := hasher.Hash("secret")
	require.NoError(t, err)
	require.NoError(t, users.Insert(context.Background(), &model.User{
		Name: "Ana", Email: "a@x.com", Gender: "female", Password: hash,
	}))

	m := metrics.New()
	h := handlers.New(
		session.NewManager(users, hasher, issuer, session.WithMetrics(m)),
		account.NewService(users, hasher),
		handlers.CookieConfig{MaxAge: 24 * time.Hour, Secure: true, HTTPOnly: httpOnly},
	)
	r, err := NewRouter(h, Options{Guard: issuer.VerifyAccess, Metrics: m})
	require.NoError(t, err)

	return &testServer{engine: r, users: users, issuer: issuer}
}

type reqOpt func(*http.Request)

func bearer(tok string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func cookie(tok string) reqOpt {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: handlers.RefreshCookieName, Value: tok})
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any, opts ...reqOpt) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, o := range opts {
		o(req)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func refreshCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == handlers.RefreshCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", handlers.RefreshCookieName)
	return nil
}

func decodePayload(t *testing.T, tok string) map[string]any {
	t.Helper()
	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload
}

func login(t *testing.T, s *testServer) (accessToken string, refresh *http.Cookie) {
	t.Helper()
	w, body := s.do(t, http.MethodPost, "/login", gin.H{"email": "a@x.com", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return body["accessToken"].(string), refreshCookie(t, w)
}

func TestLoginScenario(t *testing.T) {
	s := newTestServer(t, false)

	w, body := s.do(t, http.MethodPost, "/login", gin.H{"email": "a@x.com", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Success", body["status"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "a@x.com", data["email"])
	assert.NotContains(t, data, "password")
	assert.NotContains(t, data, "refresh_token")
	assert.NotContains(t, data, "refreshToken")

	payload := decodePayload(t, body["accessToken"].(string))
	assert.Equal(t, "a@x.com", payload["email"])
	assert.NotContains(t, payload, "password")

	c := refreshCookie(t, w)
	assert.Equal(t, 86400, c.MaxAge)
	assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
	assert.True(t, c.Secure)
	assert.False(t, c.HttpOnly)

	stored, err := s.users.FindByField(context.Background(), store.FieldEmail, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, c.Value, *stored.RefreshToken)
}

func TestLogin_HTTPOnlyCookieWhenConfigured(t *testing.T) {
	s := newTestServer(t, true)
	_, c := login(t, s)
	assert.True(t, c.HttpOnly)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	s := newTestServer(t, false)

	wEmail, bodyEmail := s.do(t, http.MethodPost, "/login", gin.H{"email": "b@x.com", "password": "secret"})
	wPass, bodyPass := s.do(t, http.MethodPost, "/login", gin.H{"email": "a@x.com", "password": "nope"})

	assert.Equal(t, http.StatusBadRequest, wEmail.Code)
	assert.Equal(t, http.StatusBadRequest, wPass.Code)
	assert.Equal(t, "Error", bodyEmail["status"])
	assert.Equal(t, bodyEmail["message"], bodyPass["message"])
	assert.Empty(t, wPass.Result().Cookies())
}

func TestLogin_MalformedBody(t *testing.T) {
	s := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGuardedRoutes(t *testing.T) {
	s := newTestServer(t, false)

	w, _ := s.do(t, http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodGet, "/users", nil, bearer("garbage"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	access, _ := login(t, s)
	w, body := s.do(t, http.MethodGet, "/users", nil, bearer(access))
	require.Equal(t, http.StatusOK, w.Code)
	list := body["data"].([]any)
	require.Len(t, list, 1)
	assert.NotContains(t, list[0].(map[string]any), "password")
}

func TestAccessTokenExpiresAfter30s(t *testing.T) {
	s := newTestServer(t, false)

	issued := time.Now()
	s.issuer.SetClock(func() time.Time { return issued })
	access, _ := login(t, s)

	s.issuer.SetClock(func() time.Time { return issued.Add(31 * time.Second) })
	w, _ := s.do(t, http.MethodGet, "/users", nil, bearer(access))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRefreshScenario(t *testing.T) {
	s := newTestServer(t, false)
	_, c := login(t, s)

	w, body := s.do(t, http.MethodGet, "/token", nil, cookie(c.Value))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	access := body["accessToken"].(string)
	payload := decodePayload(t, access)
	assert.Equal(t, "a@x.com", payload["email"])
	assert.Equal(t, "Ana", payload["name"])
	assert.Equal(t, "female", payload["gender"])
	assert.NotContains(t, payload, "password")
	assert.NotContains(t, payload, "refresh_token")

	w, _ = s.do(t, http.MethodGet, "/users/1", nil, bearer(access))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRefreshFailures(t *testing.T) {
	s := newTestServer(t, false)

	w, body := s.do(t, http.MethodGet, "/token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Error", body["status"])

	other, err := s.issuer.IssueRefresh(model.SafeUser{ID: 1, Email: "a@x.com"})
	require.NoError(t, err)
	w, _ = s.do(t, http.MethodGet, "/token", nil, cookie(other))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	forged, _, err := token.NewJWTMaker("not-the-refresh-secret").CreateToken(model.SafeUser{ID: 1}, time.Hour)
	require.NoError(t, err)
	_, err = s.users.Update(context.Background(), 1, map[string]any{store.FieldRefreshToken: forged})
	require.NoError(t, err)
	w, body = s.do(t, http.MethodGet, "/token", nil, cookie(forged))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Error", body["status"])
}

func TestLogoutFlow(t *testing.T) {
	s := newTestServer(t, false)
	_, c := login(t, s)

	w, body := s.do(t, http.MethodDelete, "/logout", nil, cookie(c.Value))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Success", body["status"])
	cleared := refreshCookie(t, w)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	w, _ = s.do(t, http.MethodGet, "/token", nil, cookie(c.Value))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/logout", nil, cookie(c.Value))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/logout", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserCRUD(t *testing.T) {
	s := newTestServer(t, false)
	access, _ := login(t, s)

	w, body := s.do(t, http.MethodPost, "/users", gin.H{"name": "Budi", "email": "b@x.com", "gender": "male"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Password field cannot be empty", body["message"])
	all, err := s.users.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)

	w, body = s.do(t, http.MethodPost, "/users", gin.H{"name": "Budi", "email": "b@x.com", "gender": "male", "password": "pw"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := body["data"].(map[string]any)
	assert.Equal(t, "b@x.com", created["email"])
	assert.NotContains(t, created, "password")

	w, body = s.do(t, http.MethodPut, "/users/2", gin.H{"name": "Budi S."}, bearer(access))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Budi S.", body["data"].(map[string]any)["name"])

	w, _ = s.do(t, http.MethodPut, "/users/99", gin.H{"name": "x"}, bearer(access))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPut, "/users/2", gin.H{}, bearer(access))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/users/abc", nil, bearer(access))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/users/99", nil, bearer(access))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/users/2", nil, bearer(access))
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/users/2", nil, bearer(access))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeletedUserCannotRefresh(t *testing.T) {
	s := newTestServer(t, false)
	access, c := login(t, s)

	w, _ := s.do(t, http.MethodDelete, "/users/1", nil, bearer(access))
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/token", nil, cookie(c.Value))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPingMetricsAndNotFound(t *testing.T) {
	s := newTestServer(t, false)

	w, body := s.do(t, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", body["message"])

	login(t, s)
	w, _ = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `accounts_auth_events_total{event="login",outcome="success"} 1`)

	w, body = s.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Error", body["status"])
}

func TestCORSWithCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := handlers.New(nil, nil, handlers.CookieConfig{})
	r, err := NewRouter(h, Options{AllowedOrigins: []string{"https://app.example.com"}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
