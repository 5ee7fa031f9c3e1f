package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gatehouse/visitgate/internal/domain"
	"github.com/gatehouse/visitgate/internal/service"
	"github.com/gatehouse/visitgate/pkg/auth"
	"github.com/gatehouse/visitgate/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret: "test-secret",
			TokenTTL:  7 * 24 * time.Hour,
		},
		Admin: config.AdminConfig{
			Username: "admin",
			Password: "Admin@123",
		},
	}
}

func TestCreateUserAndLogin(t *testing.T) {
	userRepo := newMockUserRepo()
	svc := service.NewAuthService(userRepo, &mockPublisher{}, testConfig())
	ctx := context.Background()

	info, err := svc.CreateUser(ctx, &domain.CreateUserRequest{
		Username: "frontdesk",
		Password: "hunter22",
		Role:     domain.RoleSecurity,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if info.Username != "frontdesk" || info.Role != domain.RoleSecurity {
		t.Errorf("unexpected identity: %+v", info)
	}

	result, err := svc.Login(ctx, &domain.LoginRequest{Username: "frontdesk", Password: "hunter22"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, err := auth.Parse(result.Token, "test-secret")
	if err != nil {
		t.Fatalf("Parse issued token: %v", err)
	}
	if claims.Sub != info.ID || claims.Role != "security" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	userRepo := newMockUserRepo()
	svc := service.NewAuthService(userRepo, &mockPublisher{}, testConfig())
	ctx := context.Background()

	req := domain.CreateUserRequest{Username: "jane", Password: "pw", Role: domain.RoleManager}
	if _, err := svc.CreateUser(ctx, &req); err != nil {
		t.Fatalf("first CreateUser: %v", err)
	}

	dup := domain.CreateUserRequest{Username: "jane", Password: "other", Role: domain.RoleHR}
	_, err := svc.CreateUser(ctx, &dup)
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestLoginNoEnumerationSignal(t *testing.T) {
	userRepo := newMockUserRepo()
	svc := service.NewAuthService(userRepo, &mockPublisher{}, testConfig())
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, &domain.CreateUserRequest{
		Username: "jane", Password: "correct-pw", Role: domain.RoleManager,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	_, errUnknown := svc.Login(ctx, &domain.LoginRequest{Username: "nobody", Password: "whatever"})
	_, errWrongPw := svc.Login(ctx, &domain.LoginRequest{Username: "jane", Password: "wrong-pw"})

	if !errors.Is(errUnknown, domain.ErrInvalidCredentials) {
		t.Errorf("unknown username: expected invalid credentials, got %v", errUnknown)
	}
	if !errors.Is(errWrongPw, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected invalid credentials, got %v", errWrongPw)
	}
	if errUnknown.Error() != errWrongPw.Error() {
		t.Errorf("errors differ: %q vs %q", errUnknown, errWrongPw)
	}
}

func TestLoginMissingFields(t *testing.T) {
	svc := service.NewAuthService(newMockUserRepo(), &mockPublisher{}, testConfig())

	_, err := svc.Login(context.Background(), &domain.LoginRequest{Username: "jane"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestEnsureDefaultAdmin(t *testing.T) {
	userRepo := newMockUserRepo()
	svc := service.NewAuthService(userRepo, &mockPublisher{}, testConfig())
	ctx := context.Background()

	if err := svc.EnsureDefaultAdmin(ctx); err != nil {
		t.Fatalf("EnsureDefaultAdmin: %v", err)
	}

	admin, err := userRepo.FindByUsername(ctx, "admin")
	if err != nil || admin == nil {
		t.Fatalf("expected seeded admin, got %v, %v", admin, err)
	}
	if admin.Role != domain.RoleAdmin {
		t.Errorf("expected admin role, got %q", admin.Role)
	}

	// Second call is a no-op
	if err := svc.EnsureDefaultAdmin(ctx); err != nil {
		t.Fatalf("second EnsureDefaultAdmin: %v", err)
	}
	users, _ := userRepo.List(ctx)
	if len(users) != 1 {
		t.Errorf("expected exactly one user, got %d", len(users))
	}

	// Seeded credentials work
	if _, err := svc.Login(ctx, &domain.LoginRequest{Username: "admin", Password: "Admin@123"}); err != nil {
		t.Errorf("login with seeded credentials: %v", err)
	}
}
