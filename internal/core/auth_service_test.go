package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"strive-backend-go/internal/models"
	"strive-backend-go/internal/testutil"
)

func TestValidateSignUp(t *testing.T) {
	valid := models.SignUpRequest{Name: "Ada", Surname: "Lovelace", Email: "ada.l@example.com", Password: "12345678"}

	tests := []struct {
		name   string
		mutate func(r *models.SignUpRequest)
		want   error
	}{
		{"valid", func(r *models.SignUpRequest) {}, nil},
		{"missing name", func(r *models.SignUpRequest) { r.Name = "" }, ErrMissingName},
		{"missing surname", func(r *models.SignUpRequest) { r.Surname = " " }, ErrMissingName},
		{"no at sign", func(r *models.SignUpRequest) { r.Email = "ada.example.com" }, ErrInvalidEmail},
		{"short tld", func(r *models.SignUpRequest) { r.Email = "ada@example.c" }, ErrInvalidEmail},
		{"double dot", func(r *models.SignUpRequest) { r.Email = "ada..l@example.com" }, ErrInvalidEmail},
		{"short password", func(r *models.SignUpRequest) { r.Password = "1234567" }, ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := ValidateSignUp(req)
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

type authFixture struct {
	svc      AuthService
	repo     *testutil.MemoryUserRepository
	identity *testutil.FakeIdentity
	mailer   *testutil.RecordingMailer
}

func newAuthFixture(withMailer bool) authFixture {
	repo := testutil.NewMemoryUserRepository()
	identity := testutil.NewFakeIdentity()
	identity.DuplicateErr = ErrEmailInUse
	identity.CredentialsErr = ErrInvalidCredentials
	users := NewUserService(repo, testutil.NewFakeImageStore(), nil, testGuestID, zap.NewNop())

	f := authFixture{repo: repo, identity: identity}
	var mailer Mailer
	if withMailer {
		f.mailer = &testutil.RecordingMailer{}
		mailer = f.mailer
	}
	f.svc = NewAuthService(identity, users, repo, mailer, zap.NewNop())
	return f
}

func TestAuthService_SignUp(t *testing.T) {
	f := newAuthFixture(true)
	ctx := context.Background()

	user, err := f.svc.SignUp(ctx, models.SignUpRequest{Name: "Ada", Surname: "Lovelace", Email: "ada@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.Name)

	stored := f.repo.Get(user.UID)
	require.NotNil(t, stored)
	assert.Equal(t, "ada@example.com", stored.Email)

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ada@example.com", sent[0].To)

	_, err = f.svc.SignUp(ctx, models.SignUpRequest{Name: "Ada", Surname: "Again", Email: "ada@example.com", Password: "password2"})
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestAuthService_SignUpRejectsInvalidInput(t *testing.T) {
	f := newAuthFixture(false)
	_, err := f.svc.SignUp(context.Background(), models.SignUpRequest{Name: "Ada", Surname: "L", Email: "bad", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestAuthService_SignInCreatesMissingProfile(t *testing.T) {
	f := newAuthFixture(false)
	f.identity.AddAccount("g-1", "grace@example.com", "secret123", "Grace Hopper")
	ctx := context.Background()

	session, err := f.svc.SignIn(ctx, "grace@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "g-1", session.UID)
	assert.NotEmpty(t, session.IDToken)

	stored := f.repo.Get("g-1")
	require.NotNil(t, stored)
	assert.Equal(t, "Grace Hopper", stored.Name)

	_, err = f.svc.SignIn(ctx, "grace@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_InitializeProfile(t *testing.T) {
	f := newAuthFixture(false)
	ctx := context.Background()

	user, created, err := f.svc.InitializeProfile(ctx, "u-1", "linus@example.com", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "linus", user.Name)

	_, created, err = f.svc.InitializeProfile(ctx, "u-1", "linus@example.com", "Linus T")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestAuthService_ResetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("smtp configured", func(t *testing.T) {
		f := newAuthFixture(true)
		require.NoError(t, f.svc.ResetPassword(ctx, "ada@example.com"))
		sent := f.mailer.Sent()
		require.Len(t, sent, 1)
		assert.Contains(t, sent[0].Body, "https://reset.example/")
		assert.Empty(t, f.identity.ResetEmails)
	})

	t.Run("backend sends the email", func(t *testing.T) {
		f := newAuthFixture(false)
		require.NoError(t, f.svc.ResetPassword(ctx, "ada@example.com"))
		assert.Equal(t, []string{"ada@example.com"}, f.identity.ResetEmails)
	})

	t.Run("invalid email", func(t *testing.T) {
		f := newAuthFixture(false)
		assert.ErrorIs(t, f.svc.ResetPassword(ctx, "nope"), ErrInvalidEmail)
	})
}
