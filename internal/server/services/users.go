package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cityfix/internal/common"
	"github.com/dmitrijs2005/cityfix/internal/logging"
	"github.com/dmitrijs2005/cityfix/internal/server/auth"
	"github.com/dmitrijs2005/cityfix/internal/server/models"
	"github.com/dmitrijs2005/cityfix/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// PasswordHasher is satisfied by *auth.PasswordHasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

// TokenService is satisfied by *auth.TokenService.
type TokenService interface {
	Issue(subjectID string, role models.Role) (string, error)
	Verify(ctx context.Context, token string) (*auth.Claims, error)
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenService
	logger      logging.Logger
	newID       func() string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenService, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		logger:      logger.With("module", "users"),
		newID:       uuid.NewString,
	}
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user and returns it with a fresh session token.
// A duplicate email, compared case-insensitively, is common.ErrConflict.
func (s *UserService) Register(ctx context.Context, name, email, password string, role models.Role) (*models.User, string, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if name == "" || email == "" {
		return nil, "", fmt.Errorf("%w: name and email are required", common.ErrValidation)
	}
	if !role.IsValid() {
		return nil, "", fmt.Errorf("%w: unknown role %q", common.ErrValidation, role)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, "", common.ErrConflict
		}
		s.logger.Error(ctx, "create user failed", "error", err)
		return nil, "", common.ErrorInternal
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		s.logger.Error(ctx, "issue token failed", "error", err)
		return nil, "", common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "role", string(user.Role))
	return user, token, nil
}

// Login checks credentials. An unknown email and a wrong password both yield
// common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, "", common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "find user failed", "error", err)
		return nil, "", common.ErrorInternal
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, "", common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		s.logger.Error(ctx, "issue token failed", "error", err)
		return nil, "", common.ErrorInternal
	}

	return user, token, nil
}

// Authenticate verifies token and resolves its subject. A token whose subject
// no longer exists, or whose role disagrees with the stored user, is rejected.
func (s *UserService) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	claims, err := s.tokens.Verify(ctx, token)
	if err != nil {
		return auth.Principal{}, common.ErrUnauthenticated
	}

	user, err := s.repomanager.Users(s.db).FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Debug(ctx, "token subject not found", "sub", claims.Subject)
			return auth.Principal{}, common.ErrUnauthenticated
		}
		s.logger.Error(ctx, "find user failed", "error", err)
		return auth.Principal{}, common.ErrorInternal
	}

	if user.Role != claims.Role {
		s.logger.Debug(ctx, "token role mismatch", "sub", claims.Subject)
		return auth.Principal{}, common.ErrUnauthenticated
	}

	return auth.Principal{ID: user.ID, Role: user.Role}, nil
}

// Get returns the user with id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}
