package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/recipenest/recipenest-api/internal/models"
	"gorm.io/gorm"
)

type RecipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

func (r *RecipeRepository) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	return r.db.WithContext(ctx).Create(recipe).Error
}

// GetRecipeByID loads a recipe with its chef.
func (r *RecipeRepository) GetRecipeByID(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.db.WithContext(ctx).Preload("Chef").Where("id = ?", id).First(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &recipe, nil
}

// ListRecipes returns recipes newest first. limit <= 0 means all.
func (r *RecipeRepository) ListRecipes(ctx context.Context, limit int) ([]models.Recipe, error) {
	var recipes []models.Recipe
	q := r.db.WithContext(ctx).Preload("Chef").Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&recipes).Error
	return recipes, err
}

// ListRecipesByChef returns a chef's recipes newest first. limit <= 0 means all.
func (r *RecipeRepository) ListRecipesByChef(ctx context.Context, chefID uuid.UUID, limit int) ([]models.Recipe, error) {
	var recipes []models.Recipe
	q := r.db.WithContext(ctx).
		Preload("Chef").
		Where("chef_id = ?", chefID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&recipes).Error
	return recipes, err
}

func (r *RecipeRepository) UpdateRecipe(ctx context.Context, recipe *models.Recipe) error {
	return r.db.WithContext(ctx).Model(recipe).
		Select("title", "ingredients", "instructions", "image_url", "updated_at").
		Updates(recipe).Error
}

// DeleteRecipe removes a recipe and its likes and ratings atomically.
func (r *RecipeRepository) DeleteRecipe(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.Rating{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Recipe{}).Error
	})
}
