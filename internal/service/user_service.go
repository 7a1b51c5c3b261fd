// Package service implements the application's business logic.
package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"photoshare/internal/models"
	"photoshare/internal/repository"
	"photoshare/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// SignupInput is the payload for registering a new account.
type SignupInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// UpdateProfileInput carries optional profile changes.
type UpdateProfileInput struct {
	UserID    uint
	FirstName *string
	LastName  *string
	Avatar    *string
}

// UserService owns account lifecycle and moderation state.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GravatarURL derives the avatar URL from the MD5 of the normalized email.
func GravatarURL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=identicon", hex.EncodeToString(sum[:]))
}

// Signup validates the payload, hashes the password and creates the account
// with a Gravatar-derived avatar. Duplicate emails surface as a conflict.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateName("first_name", in.FirstName); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateName("last_name", in.LastName); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Password:  string(hash),
		Role:      models.RoleUser,
		Avatar:    GravatarURL(in.Email),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies credentials and returns the account. Banned and
// unknown accounts both fail with the same unauthorized error so login
// attempts cannot probe for registered addresses.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if user.Banned {
		return nil, models.NewForbiddenError("Account is banned")
	}
	return user, nil
}

// GetProfile returns a user with derived post/comment counts filled in.
func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.FillCounts(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies the provided fields, leaving omitted ones untouched.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		if err := validation.ValidateName("first_name", *in.FirstName); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		if err := validation.ValidateName("last_name", *in.LastName); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetBanned flips the moderation flag. Admins cannot ban themselves.
func (s *UserService) SetBanned(ctx context.Context, actorID, targetID uint, banned bool) (*models.User, error) {
	if actorID == targetID {
		return nil, models.NewConflictError("You cannot change your own ban state")
	}
	if err := s.userRepo.SetBanned(ctx, targetID, banned); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, targetID)
}

// ConfirmEmail marks the account as confirmed.
func (s *UserService) ConfirmEmail(ctx context.Context, userID uint) error {
	return s.userRepo.Confirm(ctx, userID)
}

// ResetPassword replaces the password and revokes the stored refresh token,
// so sessions issued before the reset cannot be renewed.
func (s *UserService) ResetPassword(ctx context.Context, userID uint, password string) error {
	if err := validation.ValidatePassword(password); err != nil {
		return models.NewValidationError(err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = string(hash)
	user.RefreshToken = ""

	return s.userRepo.Update(ctx, user)
}
