package service

import (
	"context"
	"testing"

	"reviewhub/internal/dto"
	"reviewhub/internal/models"
	"reviewhub/internal/permissions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func newUserServiceForTest(userRepo *MockUserRepository) UserService {
	return NewUserService(userRepo, NewUserValidator(150, 254))
}

func TestListUsers_NonAdminForbidden(t *testing.T) {
	svc := newUserServiceForTest(new(MockUserRepository))

	moderator := permissions.ForUser(&models.User{ID: "m-1", Role: models.RoleModerator})
	_, err := svc.List(context.Background(), moderator, 1, 20)

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListUsers_AnonymousUnauthorized(t *testing.T) {
	svc := newUserServiceForTest(new(MockUserRepository))

	_, err := svc.List(context.Background(), permissions.Anonymous(), 1, 20)

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCreateUser_AdminSetsRole(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newUserServiceForTest(userRepo)

	userRepo.On("FindByUsername", mock.Anything, "newmod").Return(nil, gorm.ErrRecordNotFound)
	userRepo.On("FindByEmail", mock.Anything, "mod@example.com").Return(nil, gorm.ErrRecordNotFound)
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Role == models.RoleModerator
	})).Return(nil)

	admin := permissions.ForUser(&models.User{ID: "a-1", Role: models.RoleAdmin})
	resp, err := svc.Create(context.Background(), admin, dto.CreateUserDTO{
		Username: "newmod",
		Email:    "mod@example.com",
		Role:     models.RoleModerator,
	})

	assert.NoError(t, err)
	assert.Equal(t, models.RoleModerator, resp.Role)
	userRepo.AssertExpectations(t)
}

func TestCreateUser_UnknownRoleRejected(t *testing.T) {
	svc := newUserServiceForTest(new(MockUserRepository))

	admin := permissions.ForUser(&models.User{ID: "a-1", Role: models.RoleAdmin})
	_, err := svc.Create(context.Background(), admin, dto.CreateUserDTO{
		Username: "odd",
		Email:    "odd@example.com",
		Role:     "superuser",
	})

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "role")
}

func TestUpdateMe_RoleIgnoredForRegularUser(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newUserServiceForTest(userRepo)

	me := &models.User{ID: "u-1", Username: "plain", Email: "plain@example.com", Role: models.RoleUser}
	userRepo.On("FindByID", mock.Anything, "u-1").Return(me, nil)
	userRepo.On("Save", mock.Anything, me).Return(nil)

	role := models.RoleAdmin
	bio := "just a user"
	resp, err := svc.UpdateMe(context.Background(), permissions.ForUser(me), dto.UpdateMeDTO{Role: &role, Bio: &bio})

	assert.NoError(t, err)
	assert.Equal(t, models.RoleUser, resp.Role)
	assert.Equal(t, "just a user", resp.Bio)
}

func TestUpdateMe_AdminMayChangeOwnRole(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newUserServiceForTest(userRepo)

	me := &models.User{ID: "a-1", Username: "boss", Email: "boss@example.com", Role: models.RoleAdmin}
	userRepo.On("FindByID", mock.Anything, "a-1").Return(me, nil)
	userRepo.On("Save", mock.Anything, me).Return(nil)

	role := models.RoleUser
	resp, err := svc.UpdateMe(context.Background(), permissions.ForUser(me), dto.UpdateMeDTO{Role: &role})

	assert.NoError(t, err)
	assert.Equal(t, models.RoleUser, resp.Role)
}

func TestGetMe_Anonymous(t *testing.T) {
	svc := newUserServiceForTest(new(MockUserRepository))

	_, err := svc.GetMe(context.Background(), permissions.Anonymous())

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestDeleteUser_Missing(t *testing.T) {
	userRepo := new(MockUserRepository)
	svc := newUserServiceForTest(userRepo)

	userRepo.On("DeleteByUsername", mock.Anything, "ghost").Return(gorm.ErrRecordNotFound)

	admin := permissions.ForUser(&models.User{ID: "a-1", Role: models.RoleAdmin})
	err := svc.Delete(context.Background(), admin, "ghost")

	assert.ErrorIs(t, err, ErrUserNotFound)
}
