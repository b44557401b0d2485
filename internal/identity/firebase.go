// Package identity implements account management on Firebase Authentication.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"strive-backend-go/internal/core"
	"strive-backend-go/internal/models"
)

// AdminClient is the subset of the Firebase Auth admin client the provider uses.
type AdminClient interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	PasswordResetLink(ctx context.Context, email string) (string, error)
}

// FirebaseProvider implements core.IdentityProvider. Password sign-in goes
// through the Identity Toolkit REST API and needs the project's web API key.
type FirebaseProvider struct {
	admin   AdminClient
	toolkit *identitytoolkit.Service
	logger  *zap.Logger
}

var _ core.IdentityProvider = (*FirebaseProvider)(nil)

// NewFirebaseProvider creates a provider. With an empty apiKey, password
// sign-in and backend-sent reset emails are unavailable.
func NewFirebaseProvider(ctx context.Context, admin AdminClient, apiKey string, logger *zap.Logger) (*FirebaseProvider, error) {
	p := &FirebaseProvider{admin: admin, logger: logger}
	if apiKey == "" {
		logger.Warn("FIREBASE_WEB_API_KEY not set; password sign-in is disabled")
		return p, nil
	}
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("identitytoolkit.NewService: %w", err)
	}
	p.toolkit = svc
	return p, nil
}

func (p *FirebaseProvider) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)
	record, err := p.admin.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", fmt.Errorf("%w: %s", core.ErrEmailInUse, email)
		}
		return "", fmt.Errorf("auth.CreateUser: %w", err)
	}
	p.logger.Info("Firebase account created", zap.String("uid", record.UID))
	return record.UID, nil
}

func (p *FirebaseProvider) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	if p.toolkit == nil {
		return nil, core.ErrIdentityUnavailable
	}
	resp, err := p.toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		if isClientError(err) {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidCredentials, err)
		}
		return nil, fmt.Errorf("identitytoolkit.VerifyPassword: %w", err)
	}

	expiresIn, err := strconv.ParseInt(fmt.Sprint(resp.ExpiresIn), 10, 64)
	if err != nil {
		p.logger.Warn("Unparseable token expiry", zap.Any("expiresIn", resp.ExpiresIn))
		expiresIn = 0
	}
	return &models.Session{
		UID:          resp.LocalId,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

func (p *FirebaseProvider) PasswordResetLink(ctx context.Context, email string) (string, error) {
	link, err := p.admin.PasswordResetLink(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) || auth.IsEmailNotFound(err) {
			return "", fmt.Errorf("%w: no account for %s", core.ErrUserNotFound, email)
		}
		return "", fmt.Errorf("auth.PasswordResetLink: %w", err)
	}
	return link, nil
}

func (p *FirebaseProvider) SendPasswordResetEmail(ctx context.Context, email string) error {
	if p.toolkit == nil {
		return core.ErrIdentityUnavailable
	}
	_, err := p.toolkit.Relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}).Context(ctx).Do()
	if err != nil {
		if isClientError(err) {
			return fmt.Errorf("%w: no account for %s", core.ErrUserNotFound, email)
		}
		return fmt.Errorf("identitytoolkit.GetOobConfirmationCode: %w", err)
	}
	return nil
}

// isClientError reports a 400 from the Identity Toolkit API, which it returns
// for unknown emails and wrong passwords alike.
func isClientError(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest
}
