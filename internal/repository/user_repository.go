package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/recipenest/recipenest-api/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByIDAndRole is the typed lookup behind role-specific endpoints; a
// user with a different role reads as missing.
func (r *UserRepository) GetUserByIDAndRole(ctx context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ? AND role = ?", id, role).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).Where("role = ?", role).Order("created_at DESC").Find(&users).Error
	return users, err
}

// ListUsers returns every non-admin user, newest first. limit <= 0 means all.
func (r *UserRepository) ListUsers(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	q := r.db.WithContext(ctx).Where("role <> ?", models.RoleAdmin).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&users).Error
	return users, err
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"updated_at":    at,
		}).Error
}

func (r *UserRepository) UpdateChefProfile(ctx context.Context, id uuid.UUID, name, bio string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND role = ?", id, models.RoleChef).
		Updates(map[string]interface{}{
			"name":       name,
			"bio":        bio,
			"updated_at": at,
		}).Error
}

// DeleteUser removes a user together with the likes, ratings and follow
// edges they authored or received, in one transaction. Recipes are never
// removed here; callers must refuse to delete chefs that still own some.
func (r *UserRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.RecipeLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		if err := tx.Where("follower_id = ? OR following_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.User{}).Error
	})
}
