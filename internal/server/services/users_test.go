package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/cityfix/internal/common"
	"github.com/dmitrijs2005/cityfix/internal/logging"
	"github.com/dmitrijs2005/cityfix/internal/server/auth"
	"github.com/dmitrijs2005/cityfix/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", common.ErrValidation
	}
	return "plain$" + password, nil
}

func (plainHasher) Verify(password, encoded string) bool {
	return encoded == "plain$"+password
}

func newTestUserService(t *testing.T, hasher PasswordHasher) (*UserService, *fakeRepoManager, *auth.TokenService) {
	t.Helper()
	rm := newFakeRepoManager()
	tokens := auth.NewTokenService([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	s := NewUserService(nil, rm, hasher, tokens, logging.Nop())
	s.newID = sequentialIDs("user")
	return s, rm, tokens
}

func TestRegisterAndLogin_ScenarioWithRealHasher(t *testing.T) {
	s, _, tokens := newTestUserService(t, auth.NewPasswordHasher(auth.AlgorithmPBKDF2))
	ctx := context.Background()

	u, token, err := s.Register(ctx, "Alice", "alice@x.com", "pw123456", models.RoleCitizen)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", u.Email)
	assert.NotContains(t, u.PasswordHash, "pw123456")

	claims, err := tokens.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, models.RoleCitizen, claims.Role)

	_, _, err = s.Register(ctx, "Alice Again", "ALICE@X.COM", "other-pass", models.RoleCitizen)
	assert.ErrorIs(t, err, common.ErrConflict)

	logged, token2, err := s.Login(ctx, "ALICE@x.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)
	assert.NotEmpty(t, token2)

	_, _, err = s.Login(ctx, "alice@x.com", "wrong")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestRegister_Validation(t *testing.T) {
	s, _, _ := newTestUserService(t, plainHasher{})
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		role     models.Role
	}{
		{"blank name", "  ", "a@b.c", "password", models.RoleCitizen},
		{"blank email", "Bob", " ", "password", models.RoleCitizen},
		{"bad role", "Bob", "a@b.c", "password", models.Role("mayor")},
		{"empty password", "Bob", "a@b.c", "", models.RoleCitizen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.Register(ctx, tt.userName, tt.email, tt.password, tt.role)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestRegister_NormalizesEmail(t *testing.T) {
	s, rm, _ := newTestUserService(t, plainHasher{})

	u, _, err := s.Register(context.Background(), " Bob ", "  Bob@Example.COM ", "password", models.RoleAuthority)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", u.Email)
	assert.Equal(t, "Bob", u.Name)
	assert.Equal(t, "plain$password", rm.users.byID[u.ID].PasswordHash)
}

func TestLogin_UnknownEmailLooksLikeBadPassword(t *testing.T) {
	s, _, _ := newTestUserService(t, plainHasher{})

	_, _, err := s.Login(context.Background(), "nobody@x.com", "whatever")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestLogin_RepositoryFailure(t *testing.T) {
	s, rm, _ := newTestUserService(t, plainHasher{})
	rm.users.findErr = errors.New("connection reset")

	_, _, err := s.Login(context.Background(), "a@b.c", "password")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestAuthenticate(t *testing.T) {
	s, rm, tokens := newTestUserService(t, plainHasher{})
	ctx := context.Background()

	u, token, err := s.Register(ctx, "Officer", "officer@city.gov", "password", models.RoleAuthority)
	require.NoError(t, err)

	p, err := s.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, auth.Principal{ID: u.ID, Role: models.RoleAuthority}, p)

	t.Run("garbage", func(t *testing.T) {
		_, err := s.Authenticate(ctx, "not-a-token")
		assert.ErrorIs(t, err, common.ErrUnauthenticated)
	})

	t.Run("role mismatch", func(t *testing.T) {
		forged, err := tokens.Issue(u.ID, models.RoleCitizen)
		require.NoError(t, err)
		_, err = s.Authenticate(ctx, forged)
		assert.ErrorIs(t, err, common.ErrUnauthenticated)
	})

	t.Run("deleted user", func(t *testing.T) {
		delete(rm.users.byID, u.ID)
		_, err := s.Authenticate(ctx, token)
		assert.ErrorIs(t, err, common.ErrUnauthenticated)
	})
}

func TestGetUser(t *testing.T) {
	s, _, _ := newTestUserService(t, plainHasher{})
	ctx := context.Background()

	u, _, err := s.Register(ctx, "Carol", "carol@x.com", "password", models.RoleCitizen)
	require.NoError(t, err)

	got, err := s.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Carol", got.Name)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "x@y.z", NormalizeEmail("  X@Y.Z\t"))
	assert.Equal(t, "", NormalizeEmail(strings.Repeat(" ", 3)))
}
