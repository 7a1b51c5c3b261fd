package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"photoshare/internal/middleware"
	"photoshare/internal/models"
	"photoshare/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	tokenIssuer   = "photoshare-api"
	tokenAudience = "photoshare-client"

	accessTokenTTL  = 24 * time.Hour
	confirmTokenTTL = 48 * time.Hour
	resetTokenTTL   = 1 * time.Hour

	scopeEmailConfirm  = "email_confirm"
	scopePasswordReset = "password_reset"
)

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a new user account and send a confirmation mail
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.SignupInput true "Signup request"
// @Success 201 {object} object{token=string,refresh_token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req service.SignupInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Signup(c.Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	// Confirmation mail is fire-and-forget; signup must not block on SMTP.
	if confirmToken, tokenErr := s.generateConfirmToken(user.ID); tokenErr == nil {
		go func(email, token string) {
			if sendErr := s.mailer.SendConfirmation(email, token); sendErr != nil {
				middleware.Logger.Warn("confirmation mail failed", "error", sendErr)
			}
		}(user.Email, confirmToken)
	}

	token, refresh, err := s.issueTokens(c, user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":         token,
		"refresh_token": refresh,
		"user":          user,
	})
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate user and return JWT and refresh tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} object{token=string,refresh_token=string,user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Authenticate(c.Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	token, refresh, err := s.issueTokens(c, user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token":         token,
		"refresh_token": refresh,
		"user":          user,
	})
}

// Refresh handles POST /api/auth/refresh
// @Summary Refresh access token
// @Description Exchange a refresh token for a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{refresh_token=string} true "Refresh token"
// @Success 200 {object} object{token=string,refresh_token=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/refresh [post]
func (s *Server) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("refresh_token is required"))
	}

	var user models.User
	err := s.db.WithContext(c.Context()).
		Where("refresh_token = ?", req.RefreshToken).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid refresh token"))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	if user.Banned {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Account is banned"))
	}

	token, refresh, err := s.issueTokens(c, &user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token":         token,
		"refresh_token": refresh,
	})
}

// Logout handles POST /api/auth/logout
// @Summary User logout
// @Description Revoke the current access token and invalidate the refresh token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	userID := currentUserID(c)

	// AuthRequired already validated the token; claims are parsed again only
	// to blacklist the jti until its natural expiry.
	if s.redis != nil {
		if claims := s.unverifiedClaims(bearerToken(c)); claims != nil {
			jti, _ := claims["jti"].(string)
			if exp, expErr := claims.GetExpirationTime(); jti != "" && expErr == nil && exp != nil {
				if ttl := time.Until(exp.Time); ttl > 0 {
					s.redis.Set(c.Context(), "blacklist:"+jti, "1", ttl)
				}
			}
		}
	}

	err := s.db.WithContext(c.Context()).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("refresh_token", "").Error
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// ConfirmEmail handles GET /api/auth/confirm/:token
// @Summary Confirm email address
// @Description Mark the account behind the confirmation token as confirmed
// @Tags auth
// @Produce json
// @Param token path string true "Confirmation token"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/confirm/{token} [get]
func (s *Server) ConfirmEmail(c *fiber.Ctx) error {
	userID, err := s.parseScopedToken(c.Params("token"), scopeEmailConfirm)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired confirmation token"))
	}

	if err := s.userService.ConfirmEmail(c.Context(), userID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Email confirmed"})
}

// RequestEmail handles POST /api/auth/request_email
// @Summary Resend confirmation mail
// @Description Send a fresh confirmation link if the account is not confirmed yet
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Account email"
// @Success 200 {object} object{message=string}
// @Router /auth/request_email [post]
func (s *Server) RequestEmail(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("email is required"))
	}

	// The response never reveals whether the address is registered.
	user, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err == nil && user != nil && !user.Confirmed {
		if token, tokenErr := s.generateConfirmToken(user.ID); tokenErr == nil {
			go func(email, token string) {
				if sendErr := s.mailer.SendConfirmation(email, token); sendErr != nil {
					middleware.Logger.Warn("confirmation mail failed", "error", sendErr)
				}
			}(user.Email, token)
		}
	}

	return c.JSON(fiber.Map{"message": "Check your email for confirmation."})
}

// ForgotPassword handles POST /api/auth/forgot_password
// @Summary Request a password reset
// @Description Mail a short-lived password reset link to the account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string} true "Account email"
// @Success 200 {object} object{message=string}
// @Router /auth/forgot_password [post]
func (s *Server) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("email is required"))
	}

	// Same body for known and unknown addresses.
	user, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err == nil && user != nil {
		if token, tokenErr := s.generateResetToken(user.ID); tokenErr == nil {
			go func(email, token string) {
				if sendErr := s.mailer.SendReset(email, token); sendErr != nil {
					middleware.Logger.Warn("reset mail failed", "error", sendErr)
				}
			}(user.Email, token)
		}
	}

	return c.JSON(fiber.Map{"message": "Check your email for password reset link."})
}

// ResetPassword handles POST /api/auth/reset_password/:token
// @Summary Reset password
// @Description Set a new password using a reset token from mail
// @Tags auth
// @Accept json
// @Produce json
// @Param token path string true "Reset token"
// @Param request body object{password=string} true "New password"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/reset_password/{token} [post]
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	userID, err := s.parseScopedToken(c.Params("token"), scopePasswordReset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired reset token"))
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.userService.ResetPassword(c.Context(), userID, req.Password); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password successfully changed"})
}

// issueTokens creates a fresh access token and rotates the stored refresh token.
func (s *Server) issueTokens(c *fiber.Ctx, user *models.User) (string, string, error) {
	token, err := s.generateAccessToken(user.ID)
	if err != nil {
		return "", "", err
	}

	refresh := uuid.NewString()
	err = s.db.WithContext(c.Context()).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("refresh_token", refresh).Error
	if err != nil {
		return "", "", err
	}
	user.RefreshToken = refresh

	return token, refresh, nil
}

// generateAccessToken creates a JWT token for the given user ID
func (s *Server) generateAccessToken(userID uint) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10), // Subject (user ID as string)
		"iss": tokenIssuer,                            // Issuer
		"aud": tokenAudience,                          // Audience
		"exp": now.Add(accessTokenTTL).Unix(),         // Expiration
		"iat": now.Unix(),                             // Issued at
		"nbf": now.Unix(),                             // Not before
		"jti": s.generateJTI(),                        // JWT ID (unique identifier)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateScopedToken creates a single-purpose token. Scoped tokens are
// rejected by AuthRequired, so a leaked mail link never grants API access.
func (s *Server) generateScopedToken(userID uint, scope string, ttl time.Duration) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(userID), 10),
		"iss":   tokenIssuer,
		"aud":   tokenAudience,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
		"scope": scope,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *Server) generateConfirmToken(userID uint) (string, error) {
	return s.generateScopedToken(userID, scopeEmailConfirm, confirmTokenTTL)
}

func (s *Server) generateResetToken(userID uint) (string, error) {
	return s.generateScopedToken(userID, scopePasswordReset, resetTokenTTL)
}

// parseScopedToken validates a token carrying exactly the given scope and
// returns the user ID.
func (s *Server) parseScopedToken(tokenString, scope string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid claims")
	}
	if got, _ := claims["scope"].(string); got != scope {
		return 0, fmt.Errorf("wrong token scope")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, fmt.Errorf("missing subject")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid subject")
	}
	return uint(userID), nil
}

// unverifiedClaims extracts claims without re-verifying the signature.
func (s *Server) unverifiedClaims(tokenString string) jwt.MapClaims {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	return claims
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
