package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/recipenest/recipenest-api/internal/stats"
	"gorm.io/gorm"
)

// RecipeSummary is the slice of a recipe the analytics need.
type RecipeSummary struct {
	ID        uuid.UUID
	Title     string
	CreatedAt time.Time
}

type recipeCount struct {
	RecipeID uuid.UUID
	Total    int64
}

// PlatformTotals are the headline counts of the admin overview.
type PlatformTotals struct {
	Users   int64
	Chefs   int64
	Recipes int64
	Likes   int64
	Ratings int64
	Follows int64
}

// StatsRepository runs the read-only aggregate queries behind profiles and
// dashboards. Every method is an independent query; no snapshot spans them.
type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) count(ctx context.Context, model interface{}, query string, args ...interface{}) (int64, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	err := q.Count(&n).Error
	return n, err
}

// Chef side

func (r *StatsRepository) CountRecipesByChef(ctx context.Context, chefID uuid.UUID) (int64, error) {
	return r.count(ctx, &models.Recipe{}, "chef_id = ?", chefID)
}

func (r *StatsRepository) CountFollowers(ctx context.Context, chefID uuid.UUID) (int64, error) {
	return r.count(ctx, &models.Follow{}, "following_id = ?", chefID)
}

// CountLikesForChef counts likes on every recipe the chef owns.
func (r *StatsRepository) CountLikesForChef(ctx context.Context, chefID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("recipe_likes").
		Joins("JOIN recipes ON recipes.id = recipe_likes.recipe_id").
		Where("recipes.chef_id = ?", chefID).
		Count(&n).Error
	return n, err
}

// AverageRatingForChef is the mean of stars across every rating on the
// chef's recipes. Recipes without ratings do not contribute; with no ratings
// at all the result is 0.
func (r *StatsRepository) AverageRatingForChef(ctx context.Context, chefID uuid.UUID) (float64, error) {
	var avg sql.NullFloat64
	err := r.db.WithContext(ctx).
		Table("ratings").
		Select("AVG(CAST(ratings.stars AS FLOAT))").
		Joins("JOIN recipes ON recipes.id = ratings.recipe_id").
		Where("recipes.chef_id = ?", chefID).
		Row().Scan(&avg)
	if err != nil {
		return 0, err
	}
	return stats.AverageOrZero(avg), nil
}

// FoodLover side

func (r *StatsRepository) CountLikesByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.count(ctx, &models.RecipeLike{}, "user_id = ?", userID)
}

// CountCommentsByUser counts authored ratings that carry a non-empty comment.
func (r *StatsRepository) CountCommentsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.count(ctx, &models.Rating{}, "user_id = ? AND comment IS NOT NULL AND comment <> ''", userID)
}

func (r *StatsRepository) CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.count(ctx, &models.Follow{}, "follower_id = ?", userID)
}

// Platform

// Totals counts the whole platform. Admin accounts are not users of the
// platform and are left out of the user count.
func (r *StatsRepository) Totals(ctx context.Context) (PlatformTotals, error) {
	var t PlatformTotals
	var err error

	if t.Users, err = r.count(ctx, &models.User{}, "role <> ?", models.RoleAdmin); err != nil {
		return t, err
	}
	if t.Chefs, err = r.count(ctx, &models.User{}, "role = ?", models.RoleChef); err != nil {
		return t, err
	}
	if t.Recipes, err = r.count(ctx, &models.Recipe{}, ""); err != nil {
		return t, err
	}
	if t.Likes, err = r.count(ctx, &models.RecipeLike{}, ""); err != nil {
		return t, err
	}
	if t.Ratings, err = r.count(ctx, &models.Rating{}, ""); err != nil {
		return t, err
	}
	if t.Follows, err = r.count(ctx, &models.Follow{}, ""); err != nil {
		return t, err
	}
	return t, nil
}

func (r *StatsRepository) timestampsSince(ctx context.Context, model interface{}, column string, since time.Time, query string, args ...interface{}) ([]time.Time, error) {
	var out []time.Time
	q := r.db.WithContext(ctx).Model(model).Where(column+" >= ?", since)
	if query != "" {
		q = q.Where(query, args...)
	}
	err := q.Pluck(column, &out).Error
	return out, err
}

func (r *StatsRepository) UserSignupsSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	return r.timestampsSince(ctx, &models.User{}, "created_at", since, "role <> ?", models.RoleAdmin)
}

func (r *StatsRepository) ChefSignupsSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	return r.timestampsSince(ctx, &models.User{}, "created_at", since, "role = ?", models.RoleChef)
}

func (r *StatsRepository) RecipesCreatedSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	return r.timestampsSince(ctx, &models.Recipe{}, "created_at", since, "")
}

func (r *StatsRepository) LikesSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	return r.timestampsSince(ctx, &models.RecipeLike{}, "created_at", since, "")
}

func (r *StatsRepository) RatingsSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	return r.timestampsSince(ctx, &models.Rating{}, "created_at", since, "")
}

func (r *StatsRepository) FollowsSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	return r.timestampsSince(ctx, &models.Follow{}, "followed_at", since, "")
}

// Chef analytics

func (r *StatsRepository) ChefRecipeSummaries(ctx context.Context, chefID uuid.UUID) ([]RecipeSummary, error) {
	var out []RecipeSummary
	err := r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Select("id, title, created_at").
		Where("chef_id = ?", chefID).
		Order("created_at ASC").
		Scan(&out).Error
	return out, err
}

func (r *StatsRepository) countPerRecipe(ctx context.Context, table string, chefID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []recipeCount
	err := r.db.WithContext(ctx).
		Table(table).
		Select(table+".recipe_id AS recipe_id, COUNT(*) AS total").
		Joins("JOIN recipes ON recipes.id = "+table+".recipe_id").
		Where("recipes.chef_id = ?", chefID).
		Group(table + ".recipe_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		out[row.RecipeID] = int(row.Total)
	}
	return out, nil
}

// LikeCountsByRecipe counts likes per recipe owned by the chef.
func (r *StatsRepository) LikeCountsByRecipe(ctx context.Context, chefID uuid.UUID) (map[uuid.UUID]int, error) {
	return r.countPerRecipe(ctx, "recipe_likes", chefID)
}

// RatingCountsByRecipe counts ratings per recipe owned by the chef.
func (r *StatsRepository) RatingCountsByRecipe(ctx context.Context, chefID uuid.UUID) (map[uuid.UUID]int, error) {
	return r.countPerRecipe(ctx, "ratings", chefID)
}

// FollowTimesForChef returns when each current follower followed the chef.
func (r *StatsRepository) FollowTimesForChef(ctx context.Context, chefID uuid.UUID) ([]time.Time, error) {
	var out []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("following_id = ?", chefID).
		Pluck("followed_at", &out).Error
	return out, err
}
