package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/recipenest/recipenest-api/internal/service"
	"github.com/recipenest/recipenest-api/pkg/logger"
	"go.uber.org/zap"
)

const tokenCookie = "token"

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	RegisterValidators()
	return &AuthHandler{
		authService: authService,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,notblank"`
	Email    string `json:"email" binding:"required,notblank"`
	Password string `json:"password" binding:"required"`
	Bio      string `json:"bio"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// POST /api/auth/register/chef
func (h *AuthHandler) RegisterChef(c *gin.Context) {
	h.register(c, models.RoleChef)
}

// POST /api/auth/register/foodlover
func (h *AuthHandler) RegisterFoodLover(c *gin.Context) {
	h.register(c, models.RoleFoodLover)
}

func (h *AuthHandler) register(c *gin.Context, role models.Role) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	logger.Log.Info("User registration attempt",
		zap.String("email", req.Email),
		zap.String("role", string(role)),
		zap.String("ip", c.ClientIP()),
	)

	in := service.RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password, Bio: req.Bio}

	var (
		user  *models.User
		token string
		err   error
	)
	if role == models.RoleChef {
		user, token, err = h.authService.RegisterChef(c.Request.Context(), in)
	} else {
		user, token, err = h.authService.RegisterFoodLover(c.Request.Context(), in)
	}
	if err != nil {
		logger.Log.Warn("Registration failed",
			zap.String("email", req.Email),
			zap.Error(err),
		)
		respondError(c, err, "Failed to register user")
		return
	}

	h.setTokenCookie(c, token)

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user":    user,
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	logger.Log.Info("User login attempt",
		zap.String("email", req.Email),
		zap.String("ip", c.ClientIP()),
	)

	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		logger.Log.Warn("Login failed",
			zap.String("email", req.Email),
			zap.Error(err),
		)
		respondError(c, err, "Failed to log in")
		return
	}

	h.setTokenCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// PUT /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), who, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err, "Failed to change password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// DELETE /api/auth/delete-account
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	if err := h.authService.DeleteAccount(c.Request.Context(), who); err != nil {
		respondError(c, err, "Failed to delete account")
		return
	}

	h.clearTokenCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}

// setTokenCookie mirrors the bearer token into an HTTP-only cookie for
// browser clients.
func (h *AuthHandler) setTokenCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		tokenCookie,
		token,
		int(h.authService.TokenTTL().Seconds()),
		"/",
		"",
		h.authService.IsProduction(),
		true,
	)
}

func (h *AuthHandler) clearTokenCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(tokenCookie, "", -1, "/", "", h.authService.IsProduction(), true)
}
