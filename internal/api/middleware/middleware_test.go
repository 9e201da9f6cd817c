package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/perpexbistro/ride-hailing/internal/auth"
	"github.com/perpexbistro/ride-hailing/pkg/cache"
	"github.com/perpexbistro/ride-hailing/pkg/logger"
	"github.com/perpexbistro/ride-hailing/pkg/monitoring"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type resolverFunc func(ctx context.Context, p auth.Principal) (*auth.Caller, error)

func (f resolverFunc) Resolve(ctx context.Context, p auth.Principal) (*auth.Caller, error) {
	return f(ctx, p)
}

func newTokens(t *testing.T) *auth.TokenManager {
	t.Helper()
	m, err := auth.NewTokenManager("test-secret", "ride-hailing", time.Hour)
	require.NoError(t, err)
	return m
}

func whoAmI(c *gin.Context) {
	caller := CallerFrom(c)
	if caller == nil {
		c.String(http.StatusOK, "anonymous")
		return
	}
	c.String(http.StatusOK, caller.Username)
}

func TestAuthenticate(t *testing.T) {
	tokens := newTokens(t)
	userID := uuid.New()
	token, err := tokens.Issue(auth.Principal{UserID: userID, Username: "priya"})
	require.NoError(t, err)

	resolver := resolverFunc(func(_ context.Context, p auth.Principal) (*auth.Caller, error) {
		return &auth.Caller{UserID: p.UserID, Username: p.Username}, nil
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, "priya"},
		{"lowercase scheme", "bearer " + token, http.StatusOK, "priya"},
		{"no header", "", http.StatusOK, "anonymous"},
		{"garbage token", "Bearer not-a-jwt", http.StatusOK, "anonymous"},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusOK, "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(Authenticate(tokens, resolver, logger.NewNop()))
			r.GET("/me", whoAmI)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestAuthenticate_ResolverFailure(t *testing.T) {
	tokens := newTokens(t)
	token, err := tokens.Issue(auth.Principal{UserID: uuid.New(), Username: "rahul"})
	require.NoError(t, err)

	resolver := resolverFunc(func(context.Context, auth.Principal) (*auth.Caller, error) {
		return nil, errors.New("connection refused")
	})

	r := gin.New()
	r.Use(Authenticate(tokens, resolver, logger.NewNop()))
	r.GET("/me", whoAmI)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestMetrics(t *testing.T) {
	m := monitoring.NewMetrics()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/v1/rides/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/v1/rides/a", "/v1/rides/b", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/v1/rides/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestErrors.WithLabelValues("GET", "/boom", "500", "server_error")))
}

func newIdempotentRouter(t *testing.T, handler gin.HandlerFunc) (*gin.Engine, *cache.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := cache.NewStore(client, "")

	r := gin.New()
	r.Use(Idempotency(store, time.Hour, logger.NewNop()))
	r.POST("/pay", handler)
	return r, store
}

func post(r http.Handler, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/pay", strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_Replay(t *testing.T) {
	var calls atomic.Int32
	r, _ := newIdempotentRouter(t, func(c *gin.Context) {
		n := calls.Add(1)
		c.JSON(http.StatusOK, gin.H{"call": n})
	})

	first := post(r, "k1")
	second := post(r, "k1")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, `{"call":1}`, second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Contains(t, second.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, int32(1), calls.Load())

	post(r, "k2")
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotency_NoHeaderPassesThrough(t *testing.T) {
	var calls atomic.Int32
	r, _ := newIdempotentRouter(t, func(c *gin.Context) {
		calls.Add(1)
		c.Status(http.StatusOK)
	})

	post(r, "")
	post(r, "")
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotency_ClientErrorsAreStored(t *testing.T) {
	var calls atomic.Int32
	r, _ := newIdempotentRouter(t, func(c *gin.Context) {
		calls.Add(1)
		c.JSON(http.StatusConflict, gin.H{"code": "ALREADY_PAID"})
	})

	post(r, "k1")
	w := post(r, "k1")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestIdempotency_ServerErrorsAreRetried(t *testing.T) {
	var calls atomic.Int32
	r, _ := newIdempotentRouter(t, func(c *gin.Context) {
		calls.Add(1)
		c.Status(http.StatusInternalServerError)
	})

	post(r, "k1")
	post(r, "k1")
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotency_InFlight(t *testing.T) {
	var calls atomic.Int32
	r, store := newIdempotentRouter(t, func(c *gin.Context) {
		calls.Add(1)
		c.Status(http.StatusOK)
	})

	held, err := store.SetNX(context.Background(), "idem:lock:anonymous:POST:/pay:k1", []byte("1"), time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	w := post(r, "k1")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CONFLICT")
	assert.Zero(t, calls.Load())
}
