package ratelimit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mpraski/secret-vault/identity"
	"github.com/mpraski/secret-vault/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStrategy struct {
	result ratelimit.Result
	err    error
	last   ratelimit.Request
}

func (s *fakeStrategy) Run(_ context.Context, r ratelimit.Request) (ratelimit.Result, error) {
	s.last = r

	return s.result, s.err
}

func serve(strategy ratelimit.Strategy, caller identity.Identity) (*httptest.ResponseRecorder, bool) {
	var reached bool

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	})

	h := ratelimit.NewMiddleware(strategy, ratelimit.IdentityKey, ratelimit.Config{
		Limit:    10,
		Duration: time.Minute,
	})(next)

	r := httptest.NewRequest(http.MethodGet, "/secret", nil)
	if !caller.IsAnonymous() {
		r = r.WithContext(identity.WithIdentity(r.Context(), caller))
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	return w, reached
}

func TestAllowPassesThrough(t *testing.T) {
	strategy := &fakeStrategy{result: ratelimit.Result{
		State:         ratelimit.Allow,
		ExpiresAt:     time.Now().Add(time.Minute),
		TotalRequests: 3,
	}}

	w, reached := serve(strategy, "alice")

	require.True(t, reached)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "Allow", w.Header().Get("Rate-Limiting-State"))
	assert.Equal(t, "3", w.Header().Get("Rate-Limiting-Total-Requests"))
}

func TestDenyShortCircuits(t *testing.T) {
	strategy := &fakeStrategy{result: ratelimit.Result{
		State:         ratelimit.Deny,
		ExpiresAt:     time.Now().Add(time.Minute),
		TotalRequests: 11,
	}}

	w, reached := serve(strategy, "alice")

	require.False(t, reached)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Deny", w.Header().Get("Rate-Limiting-State"))
}

func TestStrategyFailure(t *testing.T) {
	strategy := &fakeStrategy{err: errors.New("redis down")}

	w, reached := serve(strategy, "alice")

	require.False(t, reached)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestKeyedByIdentity(t *testing.T) {
	strategy := &fakeStrategy{result: ratelimit.Result{State: ratelimit.Allow}}

	_, _ = serve(strategy, "alice")
	assert.Equal(t, "ratelimit:alice", strategy.last.Key)
}

func TestAnonymousKeyedByAddress(t *testing.T) {
	strategy := &fakeStrategy{result: ratelimit.Result{State: ratelimit.Allow}}

	_, _ = serve(strategy, identity.Anonymous)
	assert.Contains(t, strategy.last.Key, "ratelimit:192.0.2.1")
}
