package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/nestfinderhq/nestfinder-backend/pkg/auth"
	"github.com/nestfinderhq/nestfinder-backend/pkg/config"
	"github.com/nestfinderhq/nestfinder-backend/pkg/enums"
)

type stubSessionChecker struct {
	ok  bool
	err error
}

func (s *stubSessionChecker) HasSession(_ context.Context, _ string) (bool, error) {
	return s.ok, s.err
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "nestfinder-test",
		ExpirationMinutes: 15,
	}
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthRejectsMissingToken(t *testing.T) {
	cfg := testJWTConfig()
	mw := Auth(cfg, &stubSessionChecker{ok: true}, nil)
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatalf("handler should not run without credentials")
	}
}

func TestAuthSeedsContextFromValidToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	token := mintTestToken(t, cfg, userID, enums.UserRoleStudent)

	mw := Auth(cfg, &stubSessionChecker{ok: true}, nil)
	var gotUser, gotRole string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotUser != userID.String() {
		t.Fatalf("expected user id %s got %q", userID, gotUser)
	}
	if gotRole != string(enums.UserRoleStudent) {
		t.Fatalf("expected role %s got %q", enums.UserRoleStudent, gotRole)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	cfg := testJWTConfig()
	token := mintTestToken(t, cfg, uuid.New(), enums.UserRoleStudent)

	mw := Auth(cfg, &stubSessionChecker{ok: false}, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run with a revoked session")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	cfg := testJWTConfig()
	mw := OptionalAuth(cfg, &stubSessionChecker{ok: true}, nil)
	var gotUser string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties/abc", nil)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotUser != "" {
		t.Fatalf("anonymous request must not carry a user id, got %q", gotUser)
	}
}

func TestOptionalAuthRejectsInvalidToken(t *testing.T) {
	cfg := testJWTConfig()
	mw := OptionalAuth(cfg, &stubSessionChecker{ok: true}, nil)
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	})

	// A presented-but-invalid token is an error, not an anonymous downgrade.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties/abc", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatalf("handler should not run with an invalid token")
	}
}

func TestOptionalAuthSeedsClaimsWhenPresent(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	token := mintTestToken(t, cfg, userID, enums.UserRoleStudent)

	mw := OptionalAuth(cfg, &stubSessionChecker{ok: true}, nil)
	var gotUser string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties/abc", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotUser != userID.String() {
		t.Fatalf("expected user id %s got %q", userID, gotUser)
	}
}
