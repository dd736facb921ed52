package service

import (
	"context"
	"strings"

	"circle/internal/models"
	"circle/internal/repository"
	"circle/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// UserService provides account and profile business logic.
type UserService struct {
	userRepo   repository.UserRepository
	bcryptCost int
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, bcryptCost: bcrypt.DefaultCost}
}

// SignupInput holds the data needed to register an account.
type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Signup validates the input, rejects taken usernames or emails and stores a bcrypt hash.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if err := s.ensureUsernameFree(ctx, in.Username, 0); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, models.NewValidationError("Email is already registered")
	} else if !models.IsCode(err, models.CodeNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hash),
		Name:     in.Name,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user for a matching email and password.
// Unknown emails and wrong passwords fail identically.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

// UpdateProfileInput carries the profile fields a user may change. Nil fields are left alone.
type UpdateProfileInput struct {
	Username       *string `json:"username"`
	Password       *string `json:"password"`
	ProfilePicture *string `json:"profile_picture"`
	Bio            *string `json:"bio"`
}

// UpdateProfile changes targetID's profile; only the account owner may do so.
func (s *UserService) UpdateProfile(ctx context.Context, actorID, targetID uint, in UpdateProfileInput) (*models.User, error) {
	if actorID != targetID {
		return nil, models.NewForbiddenError("You can only update your own profile")
	}

	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if err := s.ensureUsernameFree(ctx, name, user.ID); err != nil {
			return nil, err
		}
		user.Username = name
	}
	if in.ProfilePicture != nil {
		if err := validation.ValidateMediaURL(*in.ProfilePicture); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.ProfilePicture = *in.ProfilePicture
	}
	if in.Bio != nil {
		if err := validation.ValidateBio(*in.Bio); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Bio = *in.Bio
	}

	if in.Password != nil {
		if err := validation.ValidatePassword(*in.Password); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.bcryptCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the identity only. Posts, comments, likes and
// friendships referencing the user are kept.
func (s *UserService) DeleteAccount(ctx context.Context, actorID, targetID uint) error {
	if actorID != targetID {
		return models.NewForbiddenError("You can only delete your own account")
	}
	return s.userRepo.Delete(ctx, targetID)
}

func (s *UserService) ensureUsernameFree(ctx context.Context, username string, ownerID uint) error {
	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != ownerID {
		return models.NewValidationError("Username is already taken")
	}
	return nil
}
