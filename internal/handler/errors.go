package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/recipenest/recipenest-api/internal/middleware"
	"github.com/recipenest/recipenest-api/internal/service"
	"github.com/recipenest/recipenest-api/pkg/logger"
	"go.uber.org/zap"
)

// statusFor maps service errors onto HTTP status codes. Anything unknown is
// an internal failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrSelfFollow):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrChefNotFound),
		errors.Is(err, service.ErrFoodLoverNotFound),
		errors.Is(err, service.ErrRecipeNotFound),
		errors.Is(err, service.ErrNotLiked),
		errors.Is(err, service.ErrNotFollowing):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmailAlreadyExists),
		errors.Is(err, service.ErrAlreadyLiked),
		errors.Is(err, service.ErrAlreadyFollowing),
		errors.Is(err, service.ErrChefHasRecipes):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error body. Internal failures never leak their
// cause; fallback is what the client sees instead.
func respondError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Log.Error(fallback,
			zap.String("route", c.FullPath()),
			zap.String("request_id", middleware.RequestIDFrom(c)),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func invalidBody(c *gin.Context, err error) {
	logger.Log.Warn("Request parsing failed",
		zap.String("route", c.FullPath()),
		zap.String("ip", c.ClientIP()),
		zap.Error(err),
	)
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}

// pathUUID parses a path parameter. Malformed ids answer 400.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// caller reads the authenticated identity. Routes that reach a handler
// without one are misconfigured.
func caller(c *gin.Context) (service.Caller, bool) {
	who, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return service.Caller{}, false
	}
	return who, true
}

// queryLimit reads ?limit=N. Missing or malformed values yield 0 so the
// service default applies.
func queryLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return n
}
