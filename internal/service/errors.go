package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/recipenest/recipenest-api/internal/models"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")

	ErrUserNotFound      = errors.New("user not found")
	ErrChefNotFound      = errors.New("chef not found")
	ErrFoodLoverNotFound = errors.New("food lover not found")
	ErrRecipeNotFound    = errors.New("recipe not found")

	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrSelfFollow       = errors.New("you cannot follow yourself")
	ErrAlreadyFollowing = errors.New("already following this chef")
	ErrNotFollowing     = errors.New("not following this chef")
	ErrAlreadyLiked     = errors.New("recipe already liked")
	ErrNotLiked         = errors.New("recipe not liked")

	ErrChefHasRecipes = errors.New("chef still owns recipes")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Caller is the authenticated identity a request acts as. Handlers build it
// from the verified token and pass it down explicitly.
type Caller struct {
	UserID uuid.UUID
	Role   models.Role
}

func (c Caller) Is(role models.Role) bool { return c.Role == role }

func (c Caller) IsAdmin() bool { return c.Role == models.RoleAdmin }

// clampLimit applies a default to non-positive limits and caps the rest.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
