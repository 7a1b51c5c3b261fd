package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"photoshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signupPayload(email string) map[string]string {
	return map[string]string{
		"email":      email,
		"first_name": "Alice",
		"last_name":  "Doe",
		"password":   "SecurePass12",
	}
}

func signupUser(t *testing.T, app testRequester, email string) map[string]any {
	t.Helper()
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/signup", signupPayload(email)), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	return body
}

// testRequester matches *fiber.App's Test method.
type testRequester interface {
	Test(req *http.Request, msTimeout ...int) (*http.Response, error)
}

func TestSignup(t *testing.T) {
	_, app := newTestServer(t)

	body := signupUser(t, app, "alice@example.com")
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["refresh_token"])

	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, user, "password")

	// Same address again conflicts.
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/signup", signupPayload("alice@example.com")), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSignup_InvalidPayload(t *testing.T) {
	_, app := newTestServer(t)

	payload := signupPayload("bob@example.com")
	payload["password"] = "short"
	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/signup", payload), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	s, app := newTestServer(t)
	signupUser(t, app, "alice@example.com")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "SecurePass12",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["refresh_token"])

	// Wrong password.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "WrongPass99",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Banned accounts cannot log in.
	require.NoError(t, s.db.Model(&models.User{}).
		Where("email = ?", "alice@example.com").
		Update("banned", true).Error)
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "SecurePass12",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRefresh_RotatesToken(t *testing.T) {
	_, app := newTestServer(t)
	body := signupUser(t, app, "alice@example.com")
	oldRefresh := body["refresh_token"].(string)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": oldRefresh,
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var refreshed map[string]any
	decodeBody(t, resp, &refreshed)
	assert.NotEmpty(t, refreshed["token"])
	assert.NotEqual(t, oldRefresh, refreshed["refresh_token"])

	// The old refresh token is spent.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": oldRefresh,
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefresh_RequiresToken(t *testing.T) {
	_, app := newTestServer(t)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/refresh", map[string]string{}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogout_ClearsRefreshToken(t *testing.T) {
	s, app := newTestServer(t)
	body := signupUser(t, app, "alice@example.com")
	token := body["token"].(string)
	refresh := body["refresh_token"].(string)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var user models.User
	require.NoError(t, s.db.Where("email = ?", "alice@example.com").First(&user).Error)
	assert.Empty(t, user.RefreshToken)

	// The invalidated refresh token no longer works.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": refresh,
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestConfirmEmail(t *testing.T) {
	s, app := newTestServer(t)
	signupUser(t, app, "alice@example.com")

	var user models.User
	require.NoError(t, s.db.Where("email = ?", "alice@example.com").First(&user).Error)
	assert.False(t, user.Confirmed)

	token, err := s.generateConfirmToken(user.ID)
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/confirm/"+token, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.db.First(&user, user.ID).Error)
	assert.True(t, user.Confirmed)
}

func TestConfirmEmail_RejectsAccessToken(t *testing.T) {
	s, app := newTestServer(t)
	body := signupUser(t, app, "alice@example.com")

	// A regular access token must not confirm the address.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet,
		"/api/auth/confirm/"+body["token"].(string), nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var user models.User
	require.NoError(t, s.db.Where("email = ?", "alice@example.com").First(&user).Error)
	assert.False(t, user.Confirmed)
}

func TestForgotPassword_SameBodyForUnknownAddress(t *testing.T) {
	_, app := newTestServer(t)
	signupUser(t, app, "alice@example.com")

	for _, email := range []string{"alice@example.com", "nobody@example.com"} {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/forgot_password", map[string]string{
			"email": email,
		}), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		decodeBody(t, resp, &body)
		assert.Equal(t, "Check your email for password reset link.", body["message"])
	}

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/forgot_password", map[string]string{}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResetPassword(t *testing.T) {
	s, app := newTestServer(t)
	body := signupUser(t, app, "alice@example.com")
	oldRefresh := body["refresh_token"].(string)

	var user models.User
	require.NoError(t, s.db.Where("email = ?", "alice@example.com").First(&user).Error)

	token, err := s.generateResetToken(user.ID)
	require.NoError(t, err)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/reset_password/"+token, map[string]string{
		"password": "BrandNewPass34",
	}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The old password no longer works, the new one does.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "SecurePass12",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "BrandNewPass34",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Sessions from before the reset cannot be renewed.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh_token": oldRefresh,
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestResetPassword_RejectsOtherTokenScopes(t *testing.T) {
	s, app := newTestServer(t)
	body := signupUser(t, app, "alice@example.com")

	var user models.User
	require.NoError(t, s.db.Where("email = ?", "alice@example.com").First(&user).Error)

	confirmToken, err := s.generateConfirmToken(user.ID)
	require.NoError(t, err)

	// Neither an access token nor a confirmation token resets a password.
	for _, token := range []string{body["token"].(string), confirmToken} {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/reset_password/"+token, map[string]string{
			"password": "BrandNewPass34",
		}), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestResetPassword_ValidatesNewPassword(t *testing.T) {
	s, app := newTestServer(t)
	signupUser(t, app, "alice@example.com")

	var user models.User
	require.NoError(t, s.db.Where("email = ?", "alice@example.com").First(&user).Error)

	token, err := s.generateResetToken(user.ID)
	require.NoError(t, err)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/reset_password/"+token, map[string]string{
		"password": "weak",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The old password still works.
	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "SecurePass12",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestEmail(t *testing.T) {
	_, app := newTestServer(t)
	signupUser(t, app, "alice@example.com")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/request_email", map[string]string{
		"email": "alice@example.com",
	}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, "Check your email for confirmation.", body["message"])

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/auth/request_email", map[string]string{}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
