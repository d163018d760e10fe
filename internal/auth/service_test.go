package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/nestfinderhq/nestfinder-backend/pkg/auth"
	"github.com/nestfinderhq/nestfinder-backend/pkg/config"
	"github.com/nestfinderhq/nestfinder-backend/pkg/db/models"
	"github.com/nestfinderhq/nestfinder-backend/pkg/enums"
	pkgerrors "github.com/nestfinderhq/nestfinder-backend/pkg/errors"
	"github.com/nestfinderhq/nestfinder-backend/pkg/security"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "nestfinder",
		ExpirationMinutes: 30,
	}
}

func TestServiceLoginIssuesRoleClaim(t *testing.T) {
	password := "student-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "student@example.com",
		PasswordHash: mustHashPassword(t, password),
		FirstName:    "Ada",
		LastName:     "Okafor",
		Role:         enums.UserRoleStudent,
		IsActive:     true,
	}
	cfg := testJWTConfig()

	svc, _, err := buildTestService(user, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.UserRoleStudent {
		t.Fatalf("expected student role claim, got %s", claims.Role)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id claim %s, got %s", user.ID, claims.UserID)
	}
	if resp.RefreshToken == "" {
		t.Fatalf("expected refresh token to be set")
	}
	if resp.User == nil || resp.User.LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestServiceLoginRejectsWrongPassword(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "landlord@example.com",
		PasswordHash: mustHashPassword(t, "correct-password"),
		Role:         enums.UserRoleLandlord,
		IsActive:     true,
	}

	svc, _, err := buildTestService(user, testJWTConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: "wrong-password",
	})
	if err == nil {
		t.Fatalf("expected unauthorized for wrong password")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestServiceLoginRejectsInactiveUser(t *testing.T) {
	password := "inactive-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "inactive@example.com",
		PasswordHash: mustHashPassword(t, password),
		Role:         enums.UserRoleStudent,
		IsActive:     false,
	}

	svc, _, err := buildTestService(user, testJWTConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    user.Email,
		Password: password,
	})
	if err == nil {
		t.Fatalf("expected unauthorized for inactive user")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestServiceLoginUnknownEmail(t *testing.T) {
	svc, _, err := buildTestService(nil, testJWTConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "anything",
	})
	if err == nil {
		t.Fatalf("expected unauthorized for unknown email")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestServiceRefreshRotatesTokens(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	accessToken, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleStudent,
		JTI:    "old-access-id",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	svc, sessions, err := buildTestService(nil, cfg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	sessions.rotatedAccessID = "new-access-id"
	sessions.rotatedRefresh = "new-refresh-token"

	resp, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  accessToken,
		RefreshToken: "old-refresh-token",
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if resp.RefreshToken != "new-refresh-token" {
		t.Fatalf("expected rotated refresh token, got %q", resp.RefreshToken)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated access token: %v", err)
	}
	if claims.ID != "new-access-id" {
		t.Fatalf("expected new jti, got %q", claims.ID)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id to carry over, got %s", claims.UserID)
	}
	if sessions.rotateCalledWith != "old-access-id" {
		t.Fatalf("expected rotation keyed by old jti, got %q", sessions.rotateCalledWith)
	}
}

func TestServiceLogoutRevokesSession(t *testing.T) {
	svc, sessions, err := buildTestService(nil, testJWTConfig())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	if err := svc.Logout(context.Background(), "access-id"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if sessions.revokedAccessID != "access-id" {
		t.Fatalf("expected revoke for access-id, got %q", sessions.revokedAccessID)
	}

	if err := svc.Logout(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for blank access id")
	}
}

func buildTestService(user *models.User, jwtCfg config.JWTConfig) (Service, *stubSessionManager, error) {
	userRepo := stubUserRepo{user: user}
	sessionMgr := &stubSessionManager{refreshToken: "refresh-token"}
	svc, err := NewService(ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionMgr,
		JWTConfig:      jwtCfg,
	})
	return svc, sessionMgr, err
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user *models.User
	err  error
}

func (s stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if s.user != nil && s.user.ID == id {
		s.user.LastLoginAt = &at
	}
	return nil
}

type stubSessionManager struct {
	refreshToken     string
	rotatedAccessID  string
	rotatedRefresh   string
	rotateCalledWith string
	revokedAccessID  string
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	return s.refreshToken, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	s.rotateCalledWith = oldAccessID
	return s.rotatedAccessID, s.rotatedRefresh, nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.revokedAccessID = accessID
	return nil
}
