package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/nestfinderhq/nestfinder-backend/pkg/errors"
)

type fakeWindowStore struct {
	counts map[string]int64
	err    error
}

func newFakeWindowStore() *fakeWindowStore {
	return &fakeWindowStore{counts: make(map[string]int64)}
}

func (f *fakeWindowStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if f.err != nil {
		return false, 0, f.err
	}
	f.counts[scope]++
	count := f.counts[scope]
	return count <= limit, count, nil
}

func TestAuthRateLimitBlocksIPOverLimit(t *testing.T) {
	store := newFakeWindowStore()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 2, 0)
	mw := AuthRateLimit(policy, store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`))
		req.RemoteAddr = "203.0.113.9:4567"
		resp := httptest.NewRecorder()
		mw(handler).ServeHTTP(resp, req)
		return resp
	}

	for i := 0; i < 2; i++ {
		if resp := send(); resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i+1, resp.Code)
		}
	}

	resp := send()
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
		t.Fatalf("expected error code %s got %s", pkgerrors.CodeRateLimit, payload.Error.Code)
	}
	if calls != 2 {
		t.Fatalf("handler executed %d times, expected 2", calls)
	}
}

func TestAuthRateLimitBlocksRepeatedEmail(t *testing.T) {
	store := newFakeWindowStore()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 1)
	mw := AuthRateLimit(policy, store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"Student@Example.COM"}`))
		req.RemoteAddr = remoteAddr
		resp := httptest.NewRecorder()
		mw(handler).ServeHTTP(resp, req)
		return resp
	}

	if resp := send("203.0.113.9:4567"); resp.Code != http.StatusOK {
		t.Fatalf("expected first attempt 200 got %d", resp.Code)
	}
	// The same normalized email from another IP still trips the counter.
	if resp := send("198.51.100.7:9999"); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", resp.Code)
	}

	for scope := range store.counts {
		if strings.Contains(strings.ToLower(scope), "student@example") {
			t.Fatalf("scope must carry a hash, not the raw email: %s", scope)
		}
	}
}

func TestAuthRateLimitPreservesBodyForHandler(t *testing.T) {
	store := newFakeWindowStore()
	policy := NewAuthRateLimitPolicy("register", time.Minute, 5, 5)
	mw := AuthRateLimit(policy, store, nil)

	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		seen = string(body)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"email":"a@b.co"}`))
	req.RemoteAddr = "203.0.113.9:4567"
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if seen != `{"email":"a@b.co"}` {
		t.Fatalf("handler saw a consumed body: %q", seen)
	}
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	store := newFakeWindowStore()
	policy := NewAuthRateLimitPolicy("noop", 0, 0, 0)
	mw := AuthRateLimit(policy, store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, got %d", calls)
	}
	if len(store.counts) != 0 {
		t.Fatalf("disabled policy must not touch the store")
	}
}
