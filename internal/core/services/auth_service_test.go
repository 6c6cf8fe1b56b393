package services

import (
	"context"
	"strings"
	"testing"

	"emergency-fund/internal/adapters/persistence/models"
	"emergency-fund/internal/adapters/persistence/repositories"
	"emergency-fund/internal/config"
	"emergency-fund/internal/core/domain"
	"emergency-fund/internal/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T) (*AuthService, *testEnv) {
	t.Helper()
	password.SetCost(bcrypt.MinCost)
	t.Cleanup(func() { password.SetCost(password.DefaultCost) })

	env := newTestEnv(t)
	cfg := &config.Config{JWT: config.JWTConfig{
		Secret:           "access-secret",
		RefreshSecret:    "refresh-secret",
		AccessTokenMins:  15,
		RefreshTokenDays: 7,
	}}
	svc := NewAuthService(repositories.NewUserRepository(env.db), repositories.NewRefreshTokenRepository(env.db), cfg)
	return svc, env
}

func createOfficer(t *testing.T, svc *AuthService) *models.UserResponse {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), &CreateUserInput{
		Username: " officer ",
		Email:    "officer@example.org",
		Password: "s3cret-pass",
		Role:     string(domain.RoleOfficer),
	})
	require.NoError(t, err)
	return user
}

func TestAuthService_CreateUserAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user := createOfficer(t, svc)
	assert.Equal(t, "officer", user.Username)

	resp, err := svc.Login(ctx, &LoginInput{Username: "officer", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, user.ID, resp.User.ID)

	_, err = svc.Login(ctx, &LoginInput{Username: "officer", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &LoginInput{Username: "nobody", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &LoginInput{Username: "officer"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuthService_CreateUserRejects(t *testing.T) {
	svc, _ := newAuthService(t)
	createOfficer(t, svc)

	tests := []struct {
		name    string
		input   CreateUserInput
		wantErr error
	}{
		{name: "duplicate", input: CreateUserInput{Username: "officer", Email: "other@example.org", Password: "s3cret-pass", Role: "OFFICER"}, wantErr: ErrUserAlreadyExists},
		{name: "unknown role", input: CreateUserInput{Username: "auditor", Email: "a@example.org", Password: "s3cret-pass", Role: "ROOT"}, wantErr: domain.ErrValidation},
		{name: "oversized password", input: CreateUserInput{Username: "auditor", Email: "a@example.org", Password: strings.Repeat("x", 73), Role: "USER"}, wantErr: domain.ErrValidation},
		{name: "short password", input: CreateUserInput{Username: "auditor", Email: "a@example.org", Password: "short", Role: "USER"}, wantErr: domain.ErrValidation},
		{name: "bad email", input: CreateUserInput{Username: "auditor", Email: "not-an-email", Password: "s3cret-pass", Role: "USER"}, wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(context.Background(), &tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthService_InactiveUser(t *testing.T) {
	svc, env := newAuthService(t)
	user := createOfficer(t, svc)
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", user.ID).Update("is_active", false).Error)

	_, err := svc.Login(context.Background(), &LoginInput{Username: "officer", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestAuthService_RefreshRotation(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	createOfficer(t, svc)

	login, err := svc.Login(ctx, &LoginInput{Username: "officer", Password: "s3cret-pass"})
	require.NoError(t, err)

	rotated, err := svc.RefreshToken(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// the rotated-out token cannot be replayed
	_, err = svc.RefreshToken(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = svc.RefreshToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, svc.Logout(ctx, rotated.RefreshToken))
	_, err = svc.RefreshToken(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestAuthService_LogoutAll(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	user := createOfficer(t, svc)

	first, err := svc.Login(ctx, &LoginInput{Username: "officer", Password: "s3cret-pass"})
	require.NoError(t, err)
	second, err := svc.Login(ctx, &LoginInput{Username: "officer", Password: "s3cret-pass"})
	require.NoError(t, err)

	require.NoError(t, svc.LogoutAll(ctx, user.ID))
	for _, token := range []string{first.RefreshToken, second.RefreshToken} {
		_, err := svc.RefreshToken(ctx, token)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	}

	purged, err := svc.PurgeExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Zero(t, purged)
}
