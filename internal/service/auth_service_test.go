package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"reviewhub/internal/auth"
	"reviewhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Save(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, page, pageSize int) ([]models.User, int64, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) DeleteByUsername(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

// MockMailer mocks the Mailer interface and records the last code it saw
type MockMailer struct {
	mock.Mock
	lastCode string
}

func (m *MockMailer) SendConfirmationCode(ctx context.Context, email, username, code string) error {
	m.lastCode = code
	args := m.Called(ctx, email, username)
	return args.Error(0)
}

func newAuthServiceForTest(userRepo *MockUserRepository, m *MockMailer) AuthService {
	codes := auth.NewCodeIssuer("test-secret", 24*time.Hour)
	tokens := auth.NewTokenIssuer("test-secret-test-secret-test-secret", 15*time.Minute)
	validator := NewUserValidator(150, 254)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthService(userRepo, codes, tokens, m, validator, logger)
}

func TestSignup_NewUser(t *testing.T) {
	userRepo := new(MockUserRepository)
	mailer := new(MockMailer)
	svc := newAuthServiceForTest(userRepo, mailer)

	userRepo.On("FindByUsername", mock.Anything, "newuser").Return(nil, gorm.ErrRecordNotFound)
	userRepo.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, gorm.ErrRecordNotFound)
	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = "user-1"
	}).Return(nil)
	userRepo.On("Save", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
	mailer.On("SendConfirmationCode", mock.Anything, "new@example.com", "newuser").Return(nil)

	resp, err := svc.Signup(context.Background(), "newuser", "new@example.com")

	assert.NoError(t, err)
	assert.Equal(t, "newuser", resp.Username)
	assert.Equal(t, "new@example.com", resp.Email)
	assert.NotEmpty(t, mailer.lastCode)
	userRepo.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestSignup_RepeatSamePairReissuesCode(t *testing.T) {
	userRepo := new(MockUserRepository)
	mailer := new(MockMailer)
	svc := newAuthServiceForTest(userRepo, mailer)

	existing := &models.User{
		ID:          "user-1",
		Username:    "repeat",
		Email:       "repeat@example.com",
		Role:        models.RoleUser,
		CodeCounter: 3,
	}

	userRepo.On("FindByUsername", mock.Anything, "repeat").Return(existing, nil)
	userRepo.On("FindByEmail", mock.Anything, "repeat@example.com").Return(existing, nil)
	userRepo.On("Save", mock.Anything, existing).Return(nil)
	mailer.On("SendConfirmationCode", mock.Anything, "repeat@example.com", "repeat").Return(nil)

	_, err := svc.Signup(context.Background(), "repeat", "repeat@example.com")

	assert.NoError(t, err)
	assert.Equal(t, int64(4), existing.CodeCounter)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	userRepo.AssertExpectations(t)
}

func TestSignup_UsernameBoundToOtherEmail(t *testing.T) {
	userRepo := new(MockUserRepository)
	mailer := new(MockMailer)
	svc := newAuthServiceForTest(userRepo, mailer)

	existing := &models.User{ID: "user-1", Username: "taken", Email: "other@example.com"}

	userRepo.On("FindByUsername", mock.Anything, "taken").Return(existing, nil)
	userRepo.On("FindByEmail", mock.Anything, "mine@example.com").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Signup(context.Background(), "taken", "mine@example.com")

	var cerr *ConflictError
	assert.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Fields, "username")
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSignup_ReservedUsername(t *testing.T) {
	svc := newAuthServiceForTest(new(MockUserRepository), new(MockMailer))

	_, err := svc.Signup(context.Background(), "Me", "me@example.com")

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
}

func TestSignup_InvalidUsernameCharacters(t *testing.T) {
	svc := newAuthServiceForTest(new(MockUserRepository), new(MockMailer))

	_, err := svc.Signup(context.Background(), "bad user!", "bad@example.com")

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "username")
}

func TestSignup_MailFailureStillSucceeds(t *testing.T) {
	userRepo := new(MockUserRepository)
	mailer := new(MockMailer)
	svc := newAuthServiceForTest(userRepo, mailer)

	userRepo.On("FindByUsername", mock.Anything, "flaky").Return(nil, gorm.ErrRecordNotFound)
	userRepo.On("FindByEmail", mock.Anything, "flaky@example.com").Return(nil, gorm.ErrRecordNotFound)
	userRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
	userRepo.On("Save", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)
	mailer.On("SendConfirmationCode", mock.Anything, "flaky@example.com", "flaky").Return(assert.AnError)

	resp, err := svc.Signup(context.Background(), "flaky", "flaky@example.com")

	assert.NoError(t, err)
	assert.Equal(t, "flaky", resp.Username)
}

func TestIssueToken_Success(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newAuthServiceForTest(userRepo, new(MockMailer))

	codes := auth.NewCodeIssuer("test-secret", 24*time.Hour)
	code := codes.Generate("user-1", 1, time.Now())
	hash, err := auth.HashCode(code)
	assert.NoError(t, err)

	user := &models.User{
		ID:                   "user-1",
		Username:             "holder",
		Role:                 models.RoleUser,
		CodeCounter:          1,
		ConfirmationCodeHash: hash,
	}
	userRepo.On("FindByUsername", mock.Anything, "holder").Return(user, nil)

	resp, err := svc.IssueToken(context.Background(), "holder", code)

	assert.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(900), resp.ExpiresIn)
}

func TestIssueToken_UnknownUser(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newAuthServiceForTest(userRepo, new(MockMailer))

	userRepo.On("FindByUsername", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.IssueToken(context.Background(), "ghost", "123.abc")

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestIssueToken_WrongCode(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newAuthServiceForTest(userRepo, new(MockMailer))

	user := &models.User{ID: "user-1", Username: "holder", CodeCounter: 1}
	userRepo.On("FindByUsername", mock.Anything, "holder").Return(user, nil)

	_, err := svc.IssueToken(context.Background(), "holder", "123.deadbeef")

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "confirmation_code")
}

func TestIssueToken_StaleCodeAfterResignup(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newAuthServiceForTest(userRepo, new(MockMailer))

	codes := auth.NewCodeIssuer("test-secret", 24*time.Hour)
	staleCode := codes.Generate("user-1", 1, time.Now())

	// counter moved on, the old code no longer verifies
	user := &models.User{ID: "user-1", Username: "holder", CodeCounter: 2}
	userRepo.On("FindByUsername", mock.Anything, "holder").Return(user, nil)

	_, err := svc.IssueToken(context.Background(), "holder", staleCode)

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "confirmation_code")
}
