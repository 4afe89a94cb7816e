package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func captureVisitor(got *uuid.UUID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = GetVisitorID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestVisitorAuth_IssuesCookie(t *testing.T) {
	auth := NewVisitorAuth("secret", false, zap.NewNop())
	var got uuid.UUID

	rr := httptest.NewRecorder()
	auth.Middleware(captureVisitor(&got)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEqual(t, uuid.Nil, got)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, VisitorCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	parsed, err := auth.ParseToken(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, got, parsed)
}

func TestVisitorAuth_ReusesValidCookie(t *testing.T) {
	auth := NewVisitorAuth("secret", false, zap.NewNop())
	id := uuid.New()
	token, err := auth.IssueToken(id)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: VisitorCookie, Value: token})

	var got uuid.UUID
	rr := httptest.NewRecorder()
	auth.Middleware(captureVisitor(&got)).ServeHTTP(rr, req)

	assert.Equal(t, id, got)
	assert.Empty(t, rr.Result().Cookies())
}

func TestVisitorAuth_ReplacesForgedCookie(t *testing.T) {
	auth := NewVisitorAuth("secret", false, zap.NewNop())
	forger := NewVisitorAuth("other-secret", false, zap.NewNop())
	victim := uuid.New()
	forged, err := forger.IssueToken(victim)
	require.NoError(t, err)

	for _, value := range []string{forged, "garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: VisitorCookie, Value: value})

		var got uuid.UUID
		rr := httptest.NewRecorder()
		auth.Middleware(captureVisitor(&got)).ServeHTTP(rr, req)

		assert.NotEqual(t, victim, got)
		assert.NotEqual(t, uuid.Nil, got)
		assert.Len(t, rr.Result().Cookies(), 1)
	}
}

func TestVisitorAuth_RejectsExpiredToken(t *testing.T) {
	auth := NewVisitorAuth("secret", false, zap.NewNop())
	claims := jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(auth.Secret)
	require.NoError(t, err)

	_, err = auth.ParseToken(token)
	assert.Error(t, err)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	h := CORS("http://localhost:5173/")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/site", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/site", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	h := RequestLogger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRateLimiter_Burst(t *testing.T) {
	rl := NewRateLimiter(1, 2, time.Minute)
	defer rl.Stop()

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/chat/x/messages", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// a different client has its own bucket
	req := httptest.NewRequest(http.MethodPost, "/chat/x/messages", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimiter_ErrorEnvelope(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)
	defer rl.Stop()
	require.True(t, rl.Allow("k"))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "k"
	req.Header.Set("X-Request-ID", "req-1")
	rr := httptest.NewRecorder()
	rl.Middleware(http.NotFoundHandler()).ServeHTTP(rr, req)

	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	var body map[string]map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "RATE_LIMITED", body["error"]["code"])
	assert.Equal(t, "req-1", body["error"]["request_id"])
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(60, 1, time.Minute)
	defer rl.Stop()

	rl.Allow("old")
	rl.mu.Lock()
	rl.visitors["old"].lastSeen = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()
	rl.Allow("fresh")

	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "old")
	assert.Contains(t, rl.visitors, "fresh")
}
