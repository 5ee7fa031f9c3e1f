package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"

	"github.com/gatehouse/visitgate/internal/domain"
	"github.com/gatehouse/visitgate/internal/repository"
	"github.com/gatehouse/visitgate/pkg/auth"
	"github.com/gatehouse/visitgate/pkg/config"
	"github.com/gatehouse/visitgate/pkg/events"
	"github.com/gatehouse/visitgate/pkg/logger"
)

type AuthService interface {
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResult, error)
	CreateUser(ctx context.Context, req *domain.CreateUserRequest) (*domain.UserInfo, error)
	ListUsers(ctx context.Context) ([]domain.UserInfo, error)
	EnsureDefaultAdmin(ctx context.Context) error
}

type authService struct {
	userRepo repository.UserRepository
	eventBus events.Publisher
	config   *config.Config
}

func NewAuthService(userRepo repository.UserRepository, eventBus events.Publisher, config *config.Config) AuthService {
	return &authService{
		userRepo: userRepo,
		eventBus: eventBus,
		config:   config,
	}
}

// dummyHash keeps the comparison effort constant when the username does
// not exist, so the response cannot be used to enumerate accounts.
const dummyHash = "$argon2id$v=19$m=65536,t=1,p=2$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	storedHash := dummyHash
	if user != nil {
		storedHash = user.PasswordHash
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, storedHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if user == nil || !valid {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := auth.NewAccessToken(
		user.ID,
		user.Username,
		string(user.Role),
		s.config.Auth.JWTSecret,
		s.config.Auth.TokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &domain.LoginResult{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		Token:    token,
	}, nil
}

func (s *authService) CreateUser(ctx context.Context, req *domain.CreateUserRequest) (*domain.UserInfo, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// The unique index on username is the source of truth for duplicates;
	// concurrent creations race to it and the loser gets a conflict.
	user, err := s.userRepo.Create(ctx, req.Username, passwordHash, req.Role)
	if err != nil {
		return nil, err
	}

	event := events.UserCreatedEvent{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.UserCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish user created event", "error", err, "user_id", user.ID)
	}

	return user.ToUserInfo(), nil
}

func (s *authService) ListUsers(ctx context.Context) ([]domain.UserInfo, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	infos := make([]domain.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, *users[i].ToUserInfo())
	}
	return infos, nil
}

// EnsureDefaultAdmin seeds the bootstrap admin account when no admin-role
// user exists yet.
func (s *authService) EnsureDefaultAdmin(ctx context.Context) error {
	exists, err := s.userRepo.ExistsByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}
	if exists {
		return nil
	}

	passwordHash, err := argon2id.CreateHash(s.config.Admin.Password, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, s.config.Admin.Username, passwordHash, domain.RoleAdmin)
	if err != nil {
		// Another instance may have seeded concurrently
		if errors.Is(err, domain.ErrConflict) {
			return nil
		}
		return fmt.Errorf("failed to create default admin: %w", err)
	}

	logger.InfoContext(ctx, "Default admin created", "username", user.Username)
	return nil
}
