package service

import (
	"context"
	"errors"

	"reviewhub/internal/dto"
	"reviewhub/internal/models"
	"reviewhub/internal/permissions"
	"reviewhub/internal/repository"

	"gorm.io/gorm"
)

// UserService covers admin-only user administration plus the self-profile
// endpoint, which any authenticated principal may use on its own record.
type UserService interface {
	List(ctx context.Context, principal permissions.Principal, page, pageSize int) (*dto.PaginatedUserResponse, error)
	Create(ctx context.Context, principal permissions.Principal, in dto.CreateUserDTO) (*dto.UserResponse, error)
	GetByUsername(ctx context.Context, principal permissions.Principal, username string) (*dto.UserResponse, error)
	Update(ctx context.Context, principal permissions.Principal, username string, in dto.UpdateUserDTO) (*dto.UserResponse, error)
	Delete(ctx context.Context, principal permissions.Principal, username string) error
	GetMe(ctx context.Context, principal permissions.Principal) (*dto.UserResponse, error)
	UpdateMe(ctx context.Context, principal permissions.Principal, in dto.UpdateMeDTO) (*dto.UserResponse, error)
}

type userService struct {
	userRepo  repository.UserRepository
	validator *UserValidator
}

func NewUserService(userRepo repository.UserRepository, validator *UserValidator) UserService {
	return &userService{userRepo: userRepo, validator: validator}
}

func (s *userService) List(ctx context.Context, principal permissions.Principal, page, pageSize int) (*dto.PaginatedUserResponse, error) {
	if err := decisionError(permissions.Decide(principal, permissions.ActionRead, permissions.Resource{Kind: permissions.KindUser})); err != nil {
		return nil, err
	}

	users, total, err := s.userRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *dto.FromModelToUserResponse(&users[i]))
	}
	return dto.NewPaginatedUserResponse(responses, int(total), page, pageSize), nil
}

func (s *userService) Create(ctx context.Context, principal permissions.Principal, in dto.CreateUserDTO) (*dto.UserResponse, error) {
	if err := decisionError(permissions.Decide(principal, permissions.ActionCreate, permissions.Resource{Kind: permissions.KindUser})); err != nil {
		return nil, err
	}

	verr := NewValidationError()
	s.validator.ValidateUsername(in.Username, verr)
	s.validator.ValidateEmail(in.Email, verr)
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	validateRole(role, verr)
	if verr.HasErrors() {
		return nil, verr
	}

	if err := s.checkCollisions(ctx, in.Username, in.Email); err != nil {
		return nil, err
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Role:     role,
		Bio:      in.Bio,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return dto.FromModelToUserResponse(user), nil
}

func (s *userService) GetByUsername(ctx context.Context, principal permissions.Principal, username string) (*dto.UserResponse, error) {
	if err := decisionError(permissions.Decide(principal, permissions.ActionRead, permissions.Resource{Kind: permissions.KindUser})); err != nil {
		return nil, err
	}
	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return dto.FromModelToUserResponse(user), nil
}

func (s *userService) Update(ctx context.Context, principal permissions.Principal, username string, in dto.UpdateUserDTO) (*dto.UserResponse, error) {
	if err := decisionError(permissions.Decide(principal, permissions.ActionUpdate, permissions.Resource{Kind: permissions.KindUser})); err != nil {
		return nil, err
	}
	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.applyUpdate(ctx, user, in.Email, in.Role, in.Bio)
}

func (s *userService) Delete(ctx context.Context, principal permissions.Principal, username string) error {
	if err := decisionError(permissions.Decide(principal, permissions.ActionDelete, permissions.Resource{Kind: permissions.KindUser})); err != nil {
		return err
	}

	// reviews and comments authored by the user cascade away in the store
	if err := s.userRepo.DeleteByUsername(ctx, username); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *userService) GetMe(ctx context.Context, principal permissions.Principal) (*dto.UserResponse, error) {
	if !principal.Authenticated {
		return nil, ErrUnauthorized
	}
	user, err := s.userRepo.FindByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return dto.FromModelToUserResponse(user), nil
}

// UpdateMe edits the caller's own record. The role field is ignored unless
// the caller is an admin; a regular user cannot promote itself.
func (s *userService) UpdateMe(ctx context.Context, principal permissions.Principal, in dto.UpdateMeDTO) (*dto.UserResponse, error) {
	if !principal.Authenticated {
		return nil, ErrUnauthorized
	}
	user, err := s.userRepo.FindByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	role := in.Role
	if principal.Role != models.RoleAdmin {
		role = nil
	}
	return s.applyUpdate(ctx, user, in.Email, role, in.Bio)
}

func (s *userService) applyUpdate(ctx context.Context, user *models.User, email, role, bio *string) (*dto.UserResponse, error) {
	verr := NewValidationError()
	if email != nil {
		s.validator.ValidateEmail(*email, verr)
	}
	if role != nil {
		validateRole(*role, verr)
	}
	if verr.HasErrors() {
		return nil, verr
	}

	if email != nil && *email != user.Email {
		if existing, err := s.userRepo.FindByEmail(ctx, *email); err == nil && existing.ID != user.ID {
			cerr := NewConflictError()
			cerr.Add("email", "a user with this email already exists")
			return nil, cerr
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Email = *email
	}
	if role != nil {
		user.Role = *role
	}
	if bio != nil {
		user.Bio = *bio
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	return dto.FromModelToUserResponse(user), nil
}

func (s *userService) findUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) checkCollisions(ctx context.Context, username, email string) error {
	cerr := NewConflictError()
	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		cerr.Add("username", "a user with this username already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		cerr.Add("email", "a user with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if cerr.HasErrors() {
		return cerr
	}
	return nil
}

func validateRole(role string, verr *ValidationError) {
	switch role {
	case models.RoleUser, models.RoleModerator, models.RoleAdmin:
	default:
		verr.Add("role", "must be one of: user, moderator, admin")
	}
}
