package core

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"strive-backend-go/internal/db"
	"strive-backend-go/internal/models"
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9]+([._-][a-zA-Z0-9]+)*@[a-zA-Z0-9]+([.-][a-zA-Z0-9]+)*\.[a-zA-Z]{2,}$`)

// ValidateEmail reports whether email is acceptable for sign-up.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return nil
}

// ValidateSignUp checks the sign-up form.
func ValidateSignUp(req models.SignUpRequest) error {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Surname) == "" {
		return ErrMissingName
	}
	if err := ValidateEmail(req.Email); err != nil {
		return err
	}
	if len(req.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// authService implements the AuthService interface.
type authService struct {
	identity IdentityProvider
	users    UserService
	userRepo db.UserRepository
	mailer   Mailer
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService. mailer may be nil, in which case
// the authentication backend sends its own emails and no welcome mail is sent.
func NewAuthService(identity IdentityProvider, users UserService, userRepo db.UserRepository, mailer Mailer, logger *zap.Logger) AuthService {
	return &authService{
		identity: identity,
		users:    users,
		userRepo: userRepo,
		mailer:   mailer,
		logger:   logger,
	}
}

// SignUp creates the account and its user document.
func (s *authService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Surname = strings.TrimSpace(req.Surname)
	req.Email = strings.TrimSpace(req.Email)
	if err := ValidateSignUp(req); err != nil {
		return nil, err
	}

	displayName := req.Name + " " + req.Surname
	uid, err := s.identity.CreateAccount(ctx, req.Email, req.Password, displayName)
	if err != nil {
		s.logger.Error("Error creating account", zap.String("email", req.Email), zap.Error(err))
		return nil, fmt.Errorf("failed to create account for '%s': %w", req.Email, err)
	}

	user := &models.User{
		Name:      displayName,
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, uid, user); err != nil {
		return nil, err
	}

	if s.mailer != nil {
		body := fmt.Sprintf("Hi %s,\n\nWelcome to Strive! Your account is ready.\n", req.Name)
		if err := s.mailer.Send(ctx, req.Email, "Welcome to Strive", body); err != nil {
			s.logger.Warn("Failed to send welcome mail", zap.String("uid", uid), zap.Error(err))
		}
	}
	return user, nil
}

// SignIn verifies the password and makes sure the user document exists.
func (s *authService) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	session, err := s.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.logger.Warn("Password sign-in failed", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("sign-in failed for '%s': %w", email, err)
	}

	if _, _, err := s.InitializeProfile(ctx, session.UID, session.Email, session.DisplayName); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *authService) InitializeProfile(ctx context.Context, uid, email, displayName string) (*models.User, bool, error) {
	user, err := s.userRepo.GetByID(ctx, uid)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		s.logger.Error("Error getting user for initialization", zap.String("uid", uid), zap.Error(err))
		return nil, false, fmt.Errorf("failed to get user by ID '%s' from repository: %w", uid, err)
	}

	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}
	user = &models.User{
		Name:      displayName,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, uid, user); err != nil {
		return nil, false, err
	}
	s.logger.Info("Created user profile", zap.String("uid", uid))
	return user, true, nil
}

// ResetPassword mails a reset link through SMTP when configured, otherwise
// the authentication backend sends the email.
func (s *authService) ResetPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := ValidateEmail(email); err != nil {
		return err
	}

	if s.mailer == nil {
		if err := s.identity.SendPasswordResetEmail(ctx, email); err != nil {
			s.logger.Error("Error requesting password reset email", zap.String("email", email), zap.Error(err))
			return fmt.Errorf("failed to send password reset email to '%s': %w", email, err)
		}
		return nil
	}

	link, err := s.identity.PasswordResetLink(ctx, email)
	if err != nil {
		s.logger.Error("Error generating password reset link", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("failed to generate password reset link for '%s': %w", email, err)
	}
	body := fmt.Sprintf("Follow this link to reset your Strive password:\n\n%s\n\nIf you did not ask for it, ignore this email.\n", link)
	if err := s.mailer.Send(ctx, email, "Reset your Strive password", body); err != nil {
		s.logger.Error("Error mailing password reset link", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("failed to mail password reset link to '%s': %w", email, err)
	}
	return nil
}
