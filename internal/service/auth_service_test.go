package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"docboard/internal/dto"
	"docboard/internal/model"
	"docboard/pkg/jwt"
)

func newTestAuth(t *testing.T) (*testEnv, AuthService, *fakeBlacklist, *jwt.Manager) {
	t.Helper()
	e := newTestEnv(t)
	bl := newFakeBlacklist()
	mgr := jwt.NewManager(&e.cfg.Auth)
	return e, NewAuthService(e.cfg, e.repo, mgr, bl, zap.NewNop()), bl, mgr
}

func TestRegister_Patient(t *testing.T) {
	e, svc, _, _ := newTestAuth(t)

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "Erin", Email: "erin@example.com", Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.Role != model.RolePatient || resp.PatientID == "" || resp.DoctorID != "" {
		t.Errorf("unexpected response %+v", resp)
	}
	if _, err := e.patients.GetByUserID(context.Background(), resp.ID); err != nil {
		t.Errorf("patient profile not created: %v", err)
	}

	stored, _ := e.users.GetByID(context.Background(), resp.ID)
	if stored.PasswordHash == "password123" || stored.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
}

func TestRegister_Doctor(t *testing.T) {
	e, svc, _, _ := newTestAuth(t)

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "Dr Frank", Email: "frank@example.com", Password: "password123",
		Role: model.RoleDoctor, Specialty: "neurology",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	doc, err := e.doctors.GetByID(context.Background(), resp.DoctorID)
	if err != nil {
		t.Fatalf("doctor profile not created: %v", err)
	}
	if doc.Specialty != "neurology" || doc.ConsultationMinutes != 30 || !doc.AcceptingPatients {
		t.Errorf("unexpected profile %+v", doc)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	_, svc, _, _ := newTestAuth(t)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "Carol", Email: "CAROL@example.com", Password: "password123",
	})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	_, svc, _, mgr := newTestAuth(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &dto.RegisterRequest{Name: "Gina", Email: "gina@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tokens, err := svc.Login(ctx, &dto.LoginRequest{Email: "gina@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := mgr.ParseToken(tokens.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Role != model.RolePatient || claims.TokenType != jwt.TokenTypeAccess {
		t.Errorf("unexpected claims %+v", claims)
	}
	if tokens.ExpiresIn != int((15 * time.Minute).Seconds()) {
		t.Errorf("unexpected expires_in %d", tokens.ExpiresIn)
	}
	if tokens.User.PatientID == "" {
		t.Error("login response should carry the patient id")
	}

	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "gina@example.com", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "password123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshToken_RotatesAndRevokes(t *testing.T) {
	_, svc, bl, mgr := newTestAuth(t)
	ctx := context.Background()

	_, _ = svc.Register(ctx, &dto.RegisterRequest{Name: "Hal", Email: "hal@example.com", Password: "password123"})
	tokens, err := svc.Login(ctx, &dto.LoginRequest{Email: "hal@example.com", Password: "password123", RememberMe: true})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	next, err := svc.RefreshToken(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	claims, _ := mgr.ParseToken(next.RefreshToken)
	if !claims.RememberMe {
		t.Error("remember-me must survive rotation")
	}

	old, _ := mgr.ParseToken(tokens.RefreshToken)
	if revoked, _ := bl.IsBlacklisted(ctx, old.ID); !revoked {
		t.Error("old refresh token should be blacklisted")
	}
	if _, err := svc.RefreshToken(ctx, tokens.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("reuse: expected ErrInvalidRefreshToken, got %v", err)
	}
	if _, err := svc.RefreshToken(ctx, next.AccessToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("access token: expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestLogout_RevokesBothTokens(t *testing.T) {
	_, svc, bl, mgr := newTestAuth(t)
	ctx := context.Background()

	_, _ = svc.Register(ctx, &dto.RegisterRequest{Name: "Ivy", Email: "ivy@example.com", Password: "password123"})
	tokens, _ := svc.Login(ctx, &dto.LoginRequest{Email: "ivy@example.com", Password: "password123"})
	access, _ := mgr.ParseToken(tokens.AccessToken)
	refresh, _ := mgr.ParseToken(tokens.RefreshToken)

	if err := svc.Logout(ctx, access.ID, access.ExpiresAt.Time, tokens.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	for _, jti := range []string{access.ID, refresh.ID} {
		if revoked, _ := bl.IsBlacklisted(ctx, jti); !revoked {
			t.Errorf("jti %s should be revoked", jti)
		}
	}
}

func TestChangePassword(t *testing.T) {
	_, svc, _, _ := newTestAuth(t)
	ctx := context.Background()

	user, _ := svc.Register(ctx, &dto.RegisterRequest{Name: "Jay", Email: "jay@example.com", Password: "password123"})

	if err := svc.ChangePassword(ctx, user.ID, &dto.ChangePasswordRequest{OldPassword: "nope", NewPassword: "newpassword1"}); !errors.Is(err, ErrOldPasswordWrong) {
		t.Errorf("expected ErrOldPasswordWrong, got %v", err)
	}
	if err := svc.ChangePassword(ctx, user.ID, &dto.ChangePasswordRequest{OldPassword: "password123", NewPassword: "newpassword1"}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "jay@example.com", Password: "newpassword1"}); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if err := svc.ChangePassword(ctx, "missing", &dto.ChangePasswordRequest{OldPassword: "x", NewPassword: "newpassword1"}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGetCurrentUser(t *testing.T) {
	_, svc, _, _ := newTestAuth(t)

	me, err := svc.GetCurrentUser(context.Background(), testDoctorUser)
	if err != nil {
		t.Fatalf("GetCurrentUser: %v", err)
	}
	if me.DoctorID != testDoctorID {
		t.Errorf("expected doctor id %s, got %q", testDoctorID, me.DoctorID)
	}
	if _, err := svc.GetCurrentUser(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
