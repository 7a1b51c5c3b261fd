package service

import (
	"context"
	"testing"

	"photoshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func validSignup() SignupInput {
	return SignupInput{
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Doe",
		Password:  "SecurePass12",
	}
}

func TestSignup_CreatesUserWithGravatar(t *testing.T) {
	users := noopUserRepo()
	var created *models.User
	users.createFn = func(_ context.Context, user *models.User) error {
		user.ID = 1
		created = user
		return nil
	}

	svc := NewUserService(users)
	user, err := svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Contains(t, created.Avatar, "gravatar.com/avatar/")
	assert.NotEqual(t, "SecurePass12", created.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("SecurePass12")))
}

func TestSignup_RejectsInvalidInput(t *testing.T) {
	svc := NewUserService(noopUserRepo())
	ctx := context.Background()

	in := validSignup()
	in.Email = "not-an-email"
	_, err := svc.Signup(ctx, in)
	assertAppErrorCode(t, err, "VALIDATION_ERROR")

	in = validSignup()
	in.Password = "short"
	_, err = svc.Signup(ctx, in)
	assertAppErrorCode(t, err, "VALIDATION_ERROR")

	in = validSignup()
	in.FirstName = "  "
	_, err = svc.Signup(ctx, in)
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
}

func TestSignup_DuplicateEmailConflicts(t *testing.T) {
	users := noopUserRepo()
	users.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		return &models.User{ID: 2, Email: email}, nil
	}

	svc := NewUserService(users)
	_, err := svc.Signup(context.Background(), validSignup())
	assertAppErrorCode(t, err, "CONFLICT")
}

func TestAuthenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("SecurePass12"), bcrypt.MinCost)
	require.NoError(t, err)

	users := noopUserRepo()
	users.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		if email == "alice@example.com" {
			return &models.User{ID: 1, Email: email, Password: string(hash)}, nil
		}
		if email == "banned@example.com" {
			return &models.User{ID: 2, Email: email, Password: string(hash), Banned: true}, nil
		}
		return nil, nil
	}

	svc := NewUserService(users)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "alice@example.com", "SecurePass12")
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)

	_, err = svc.Authenticate(ctx, "alice@example.com", "WrongPass99")
	assertAppErrorCode(t, err, "UNAUTHORIZED")

	_, err = svc.Authenticate(ctx, "nobody@example.com", "SecurePass12")
	assertAppErrorCode(t, err, "UNAUTHORIZED")

	_, err = svc.Authenticate(ctx, "banned@example.com", "SecurePass12")
	assertAppErrorCode(t, err, "FORBIDDEN")
}

func TestSetBanned_RejectsSelfBan(t *testing.T) {
	svc := NewUserService(noopUserRepo())
	_, err := svc.SetBanned(context.Background(), 3, 3, true)
	assertAppErrorCode(t, err, "CONFLICT")
}

func TestGetProfile_FillsCounts(t *testing.T) {
	users := noopUserRepo()
	users.fillCountsFn = func(_ context.Context, user *models.User) error {
		user.PostsCount = 4
		user.CommentsCount = 9
		return nil
	}

	svc := NewUserService(users)
	user, err := svc.GetProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, user.PostsCount)
	assert.Equal(t, 9, user.CommentsCount)
}

func TestGravatarURL_NormalizesEmail(t *testing.T) {
	assert.Equal(t, GravatarURL("User@Example.com "), GravatarURL("user@example.com"))
}
