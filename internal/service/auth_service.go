package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"reviewhub/internal/auth"
	"reviewhub/internal/dto"
	"reviewhub/internal/mailer"
	"reviewhub/internal/models"
	"reviewhub/internal/repository"

	"gorm.io/gorm"
)

// AuthService implements the two-step passwordless handshake: signup issues
// an emailed confirmation code, token exchange turns a valid code into a
// bearer access token.
type AuthService interface {
	Signup(ctx context.Context, username, email string) (*dto.SignupResponse, error)
	IssueToken(ctx context.Context, username, confirmationCode string) (*dto.TokenResponse, error)
}

type authService struct {
	userRepo  repository.UserRepository
	codes     *auth.CodeIssuer
	tokens    *auth.TokenIssuer
	mailer    mailer.Mailer
	validator *UserValidator
	logger    *slog.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	codes *auth.CodeIssuer,
	tokens *auth.TokenIssuer,
	m mailer.Mailer,
	validator *UserValidator,
	logger *slog.Logger,
) AuthService {
	return &authService{
		userRepo:  userRepo,
		codes:     codes,
		tokens:    tokens,
		mailer:    m,
		validator: validator,
		logger:    logger,
	}
}

// Signup validates the pair, creates the user on first contact and reuses the
// existing row on a repeat call with the identical pair. A username or email
// already bound to a different pair is a conflict; nothing is created or
// mutated in that case. Every successful call issues a fresh confirmation
// code, which invalidates the previous one.
func (s *authService) Signup(ctx context.Context, username, email string) (*dto.SignupResponse, error) {
	verr := NewValidationError()
	s.validator.ValidateUsername(username, verr)
	s.validator.ValidateEmail(email, verr)
	if verr.HasErrors() {
		return nil, verr
	}

	byUsername, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	byEmail, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var user *models.User
	switch {
	case byUsername == nil && byEmail == nil:
		user = &models.User{Username: username, Email: email, Role: models.RoleUser}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
	case byUsername != nil && byUsername.Email == email:
		// idempotent signup with the exact pair
		user = byUsername
	default:
		cerr := NewConflictError()
		if byUsername != nil {
			cerr.Add("username", "a user with this username already exists")
		}
		if byEmail != nil {
			cerr.Add("email", "a user with this email already exists")
		}
		return nil, cerr
	}

	now := time.Now()
	user.CodeCounter++
	code := s.codes.Generate(user.ID, user.CodeCounter, now)
	hash, err := auth.HashCode(code)
	if err != nil {
		return nil, err
	}
	user.ConfirmationCodeHash = hash
	user.CodeIssuedAt = now
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	// Dispatch is best-effort: a mail failure must not corrupt the created
	// user state, so it is logged and the signup still succeeds.
	if err := s.mailer.SendConfirmationCode(ctx, user.Email, user.Username, code); err != nil {
		s.logger.Warn("confirmation code dispatch failed",
			"username", user.Username,
			"error", err,
		)
	}

	return &dto.SignupResponse{Username: user.Username, Email: user.Email}, nil
}

// IssueToken exchanges a confirmation code for a bearer access token. The
// code stays exchangeable until it expires or a newer signup replaces it.
func (s *authService) IssueToken(ctx context.Context, username, confirmationCode string) (*dto.TokenResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := s.codes.Verify(confirmationCode, user.ID, user.CodeCounter, time.Now()); err != nil {
		return nil, codeValidationError(err)
	}
	// signature checks out; confirm it is the code currently on file
	if auth.CompareCode(user.ConfirmationCodeHash, confirmationCode) != nil {
		verr := NewValidationError()
		verr.Add("confirmation_code", "confirmation code does not match")
		return nil, verr
	}

	accessToken, err := s.tokens.Mint(user)
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   s.tokens.TTLSeconds(),
	}, nil
}

func codeValidationError(err error) error {
	verr := NewValidationError()
	switch {
	case errors.Is(err, auth.ErrCodeExpired):
		verr.Add("confirmation_code", "confirmation code has expired")
	case errors.Is(err, auth.ErrCodeMalformed):
		verr.Add("confirmation_code", "confirmation code is malformed")
	default:
		verr.Add("confirmation_code", "confirmation code does not match")
	}
	return verr
}
