package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"infoex/backend/internal/dto"
	"infoex/backend/internal/model"
	"infoex/backend/pkg/jwt"
)

// ── helpers ──

func setupTestAuthService() (AuthService, *mocks, *mockBlacklist, *jwt.Manager) {
	cfg := testConfig()
	repo, m := newTestRepo()
	blacklist := newMockBlacklist()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := NewAuthService(cfg, repo, jwtMgr, blacklist, zap.NewNop())
	return svc, m, blacklist, jwtMgr
}

func createTestUser(m *mocks, email, password string, role model.Role) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := seedUser(m, "user-"+email, "Usuario de prueba", role, "", "")
	user.Email = email
	user.PasswordHash = string(hash)
	return user
}

// ── Login ──

func TestLogin_Success(t *testing.T) {
	svc, m, _, _ := setupTestAuthService()
	createTestUser(m, "ana@infoex.test", "password123", model.RoleBF)

	result, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "  ANA@infoex.test ",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login should succeed: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("expected both tokens")
	}
	if result.User.Email != "ana@infoex.test" {
		t.Errorf("unexpected user %s", result.User.Email)
	}
	if result.ExpiresIn != 900 {
		t.Errorf("expected ExpiresIn=900, got %d", result.ExpiresIn)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, m, _, _ := setupTestAuthService()
	createTestUser(m, "ana@infoex.test", "password123", model.RoleBF)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "ana@infoex.test", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UserNotFound(t *testing.T) {
	svc, _, _, _ := setupTestAuthService()

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "nadie@infoex.test", Password: "password123"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_RememberMe(t *testing.T) {
	svc, m, _, jwtMgr := setupTestAuthService()
	createTestUser(m, "ana@infoex.test", "password123", model.RoleBF)

	result, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email: "ana@infoex.test", Password: "password123", RememberMe: true,
	})
	if err != nil {
		t.Fatalf("Login(RememberMe) should succeed: %v", err)
	}
	claims, err := jwtMgr.ParseToken(result.RefreshToken)
	if err != nil {
		t.Fatalf("refresh token should parse: %v", err)
	}
	if !claims.RememberMe {
		t.Error("expected remember_me claim")
	}
	if ttl := time.Until(claims.ExpiresAt.Time); ttl < 29*24*time.Hour {
		t.Errorf("expected the long refresh ttl, got %v", ttl)
	}
}

// ── Register ──

func TestRegister_Success(t *testing.T) {
	svc, m, _, _ := setupTestAuthService()

	result, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "Nuevo", Email: "Nuevo@Infoex.test", Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register should succeed: %v", err)
	}
	if result.Role != string(model.RolePending) {
		t.Errorf("expected pending role, got %s", result.Role)
	}
	if result.Email != "nuevo@infoex.test" {
		t.Errorf("expected normalised email, got %s", result.Email)
	}
	stored := m.users.users[result.ID]
	if stored == nil || bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")) != nil {
		t.Error("expected a stored bcrypt hash")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, m, _, _ := setupTestAuthService()
	createTestUser(m, "ana@infoex.test", "password123", model.RoleBF)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{Name: "Ana", Email: "ana@infoex.test", Password: "password123"})
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got %v", err)
	}
}

func TestRegister_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Feature.RegistrationEnabled = false
	repo, _ := newTestRepo()
	svc := NewAuthService(cfg, repo, jwt.NewManager(&cfg.Auth), nil, zap.NewNop())

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{Name: "Nuevo", Email: "n@infoex.test", Password: "password123"})
	if !errors.Is(err, ErrRegistrationDisabled) {
		t.Errorf("expected ErrRegistrationDisabled, got %v", err)
	}
}

// ── RefreshToken ──

func TestRefreshToken_RotatesToken(t *testing.T) {
	svc, m, blacklist, _ := setupTestAuthService()
	user := createTestUser(m, "ana@infoex.test", "password123", model.RoleBF)

	login, err := svc.Login(context.Background(), &dto.LoginRequest{Email: "ana@infoex.test", Password: "password123"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	result, err := svc.RefreshToken(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken should succeed: %v", err)
	}
	if result.User.ID != user.UserID {
		t.Errorf("expected user %s, got %s", user.UserID, result.User.ID)
	}
	if len(blacklist.tokens) != 1 {
		t.Errorf("expected the old refresh token to be revoked, got %d entries", len(blacklist.tokens))
	}

	if _, err := svc.RefreshToken(context.Background(), login.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("reusing a rotated token: expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestRefreshToken_PicksUpRoleChange(t *testing.T) {
	svc, m, _, jwtMgr := setupTestAuthService()
	user := createTestUser(m, "nuevo@infoex.test", "password123", model.RolePending)

	login, _ := svc.Login(context.Background(), &dto.LoginRequest{Email: "nuevo@infoex.test", Password: "password123"})
	m.users.users[user.UserID].Role = model.RoleBF

	result, err := svc.RefreshToken(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken should succeed: %v", err)
	}
	claims, err := jwtMgr.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("access token should parse: %v", err)
	}
	if claims.Role != string(model.RoleBF) {
		t.Errorf("expected refreshed role bf, got %s", claims.Role)
	}
}

func TestRefreshToken_Invalid(t *testing.T) {
	svc, m, _, _ := setupTestAuthService()
	createTestUser(m, "ana@infoex.test", "password123", model.RoleBF)
	login, _ := svc.Login(context.Background(), &dto.LoginRequest{Email: "ana@infoex.test", Password: "password123"})

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "invalid.token.string",
		"access token": login.AccessToken,
	} {
		if _, err := svc.RefreshToken(context.Background(), token); !errors.Is(err, ErrInvalidRefreshToken) {
			t.Errorf("%s: expected ErrInvalidRefreshToken, got %v", name, err)
		}
	}
}

// ── Logout ──

func TestLogout_RevokesBothTokens(t *testing.T) {
	svc, m, blacklist, jwtMgr := setupTestAuthService()
	createTestUser(m, "ana@infoex.test", "password123", model.RoleBF)
	login, _ := svc.Login(context.Background(), &dto.LoginRequest{Email: "ana@infoex.test", Password: "password123"})

	access, err := jwtMgr.ParseToken(login.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if err := svc.Logout(context.Background(), access.ID, access.ExpiresAt.Time, login.RefreshToken); err != nil {
		t.Fatalf("Logout should succeed: %v", err)
	}

	if revoked, _ := blacklist.IsBlacklisted(context.Background(), access.ID); !revoked {
		t.Error("access token should be blacklisted")
	}
	if len(blacklist.tokens) != 2 {
		t.Errorf("expected access and refresh tokens revoked, got %d", len(blacklist.tokens))
	}
}

// ── ChangePassword / GetCurrentUser ──

func TestChangePassword_Success(t *testing.T) {
	svc, m, _, _ := setupTestAuthService()
	user := createTestUser(m, "ana@infoex.test", "password123", model.RoleBF)
	m.users.users[user.UserID].MustChangePassword = true

	err := svc.ChangePassword(context.Background(), user.UserID, &dto.ChangePasswordRequest{
		OldPassword: "password123", NewPassword: "nuevaClave9",
	})
	if err != nil {
		t.Fatalf("ChangePassword should succeed: %v", err)
	}
	stored := m.users.users[user.UserID]
	if stored.MustChangePassword {
		t.Error("must_change_password should be cleared")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("nuevaClave9")) != nil {
		t.Error("new password should be stored")
	}
}

func TestChangePassword_Rejects(t *testing.T) {
	svc, m, _, _ := setupTestAuthService()
	user := createTestUser(m, "ana@infoex.test", "password123", model.RoleBF)

	err := svc.ChangePassword(context.Background(), user.UserID, &dto.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "nuevaClave9"})
	if !errors.Is(err, ErrWrongOldPassword) {
		t.Errorf("expected ErrWrongOldPassword, got %v", err)
	}
	err = svc.ChangePassword(context.Background(), user.UserID, &dto.ChangePasswordRequest{OldPassword: "password123", NewPassword: "password123"})
	if !errors.Is(err, ErrSamePassword) {
		t.Errorf("expected ErrSamePassword, got %v", err)
	}
}

func TestGetCurrentUser(t *testing.T) {
	svc, m, _, _ := setupTestAuthService()
	seedUnit(m, "unit-1", "Brigada Norte")
	user := seedUser(m, "bf-1", "Ana", model.RoleBF, "unit-1", "")

	result, err := svc.GetCurrentUser(context.Background(), user.UserID)
	if err != nil {
		t.Fatalf("GetCurrentUser should succeed: %v", err)
	}
	if result.Unit == nil || result.Unit.Name != "Brigada Norte" {
		t.Errorf("expected unit brief, got %+v", result.Unit)
	}

	if _, err := svc.GetCurrentUser(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
