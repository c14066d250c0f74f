package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/recipenest/recipenest-api/internal/models"
	"gorm.io/gorm"
)

// LikeRow is a like joined with the liking user and the liked recipe.
type LikeRow struct {
	UserID      uuid.UUID `json:"userId"`
	UserName    string    `json:"userName"`
	UserEmail   string    `json:"userEmail"`
	RecipeID    uuid.UUID `json:"recipeId"`
	RecipeTitle string    `json:"recipeTitle"`
	LikedAt     time.Time `json:"likedAt"`
}

// RatingRow is a rating joined with its author and recipe.
type RatingRow struct {
	RatingID    uuid.UUID  `json:"ratingId"`
	Stars       int        `json:"stars"`
	Comment     *string    `json:"comment,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	UserID      uuid.UUID  `json:"userId"`
	UserName    string     `json:"userName"`
	UserEmail   string     `json:"userEmail"`
	RecipeID    uuid.UUID  `json:"recipeId"`
	RecipeTitle string     `json:"recipeTitle"`
}

// FollowRow is a follow edge with both endpoints resolved.
type FollowRow struct {
	FollowerID     uuid.UUID `json:"followerId"`
	FollowerName   string    `json:"followerName"`
	FollowerEmail  string    `json:"followerEmail"`
	FollowingID    uuid.UUID `json:"followingId"`
	FollowingName  string    `json:"followingName"`
	FollowingEmail string    `json:"followingEmail"`
	FollowedAt     time.Time `json:"followedAt"`
}

type EngagementRepository struct {
	db *gorm.DB
}

func NewEngagementRepository(db *gorm.DB) *EngagementRepository {
	return &EngagementRepository{db: db}
}

// Likes

func (r *EngagementRepository) CreateLike(ctx context.Context, like *models.RecipeLike) error {
	return r.db.WithContext(ctx).Create(like).Error
}

// DeleteLike reports whether a like was actually removed.
func (r *EngagementRepository) DeleteLike(ctx context.Context, userID, recipeID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.RecipeLike{})
	return res.RowsAffected > 0, res.Error
}

func (r *EngagementRepository) likeRows(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("recipe_likes").
		Select(`recipe_likes.user_id AS user_id, users.name AS user_name, users.email AS user_email,
			recipe_likes.recipe_id AS recipe_id, recipes.title AS recipe_title, recipe_likes.created_at AS liked_at`).
		Joins("JOIN users ON users.id = recipe_likes.user_id").
		Joins("JOIN recipes ON recipes.id = recipe_likes.recipe_id")
}

func (r *EngagementRepository) ListLikesByRecipe(ctx context.Context, recipeID uuid.UUID) ([]LikeRow, error) {
	var rows []LikeRow
	err := r.likeRows(ctx).
		Where("recipe_likes.recipe_id = ?", recipeID).
		Order("recipe_likes.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *EngagementRepository) ListLikesByUser(ctx context.Context, userID uuid.UUID) ([]LikeRow, error) {
	var rows []LikeRow
	err := r.likeRows(ctx).
		Where("recipe_likes.user_id = ?", userID).
		Order("recipe_likes.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

// ListLikes returns every like, newest first. limit <= 0 means all.
func (r *EngagementRepository) ListLikes(ctx context.Context, limit int) ([]LikeRow, error) {
	var rows []LikeRow
	q := r.likeRows(ctx).Order("recipe_likes.created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(&rows).Error
	return rows, err
}

// Ratings

func (r *EngagementRepository) GetRating(ctx context.Context, userID, recipeID uuid.UUID) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		First(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rating, nil
}

func (r *EngagementRepository) CreateRating(ctx context.Context, rating *models.Rating) error {
	return r.db.WithContext(ctx).Create(rating).Error
}

func (r *EngagementRepository) UpdateRating(ctx context.Context, rating *models.Rating) error {
	return r.db.WithContext(ctx).Model(rating).
		Select("stars", "comment", "updated_at").
		Updates(rating).Error
}

func (r *EngagementRepository) ratingRows(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("ratings").
		Select(`ratings.id AS rating_id, ratings.stars AS stars, ratings.comment AS comment,
			ratings.created_at AS created_at, ratings.updated_at AS updated_at,
			ratings.user_id AS user_id, users.name AS user_name, users.email AS user_email,
			ratings.recipe_id AS recipe_id, recipes.title AS recipe_title`).
		Joins("JOIN users ON users.id = ratings.user_id").
		Joins("JOIN recipes ON recipes.id = ratings.recipe_id")
}

func (r *EngagementRepository) ListRatingsByRecipe(ctx context.Context, recipeID uuid.UUID) ([]RatingRow, error) {
	var rows []RatingRow
	err := r.ratingRows(ctx).
		Where("ratings.recipe_id = ?", recipeID).
		Order("ratings.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *EngagementRepository) ListRatingsByUser(ctx context.Context, userID uuid.UUID) ([]RatingRow, error) {
	var rows []RatingRow
	err := r.ratingRows(ctx).
		Where("ratings.user_id = ?", userID).
		Order("ratings.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

// ListRatings returns every rating, newest first. limit <= 0 means all.
func (r *EngagementRepository) ListRatings(ctx context.Context, limit int) ([]RatingRow, error) {
	var rows []RatingRow
	q := r.ratingRows(ctx).Order("ratings.created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(&rows).Error
	return rows, err
}

// Follows

func (r *EngagementRepository) CreateFollow(ctx context.Context, follow *models.Follow) error {
	return r.db.WithContext(ctx).Create(follow).Error
}

// DeleteFollow reports whether an edge was actually removed.
func (r *EngagementRepository) DeleteFollow(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	return res.RowsAffected > 0, res.Error
}

func (r *EngagementRepository) followRows(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("follows").
		Select(`follows.follower_id AS follower_id, fu.name AS follower_name, fu.email AS follower_email,
			follows.following_id AS following_id, cu.name AS following_name, cu.email AS following_email,
			follows.followed_at AS followed_at`).
		Joins("JOIN users AS fu ON fu.id = follows.follower_id").
		Joins("JOIN users AS cu ON cu.id = follows.following_id")
}

func (r *EngagementRepository) ListFollowers(ctx context.Context, chefID uuid.UUID) ([]FollowRow, error) {
	var rows []FollowRow
	err := r.followRows(ctx).
		Where("follows.following_id = ?", chefID).
		Order("follows.followed_at DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *EngagementRepository) ListFollowing(ctx context.Context, foodLoverID uuid.UUID) ([]FollowRow, error) {
	var rows []FollowRow
	err := r.followRows(ctx).
		Where("follows.follower_id = ?", foodLoverID).
		Order("follows.followed_at DESC").
		Scan(&rows).Error
	return rows, err
}

// ListFollows returns every follow edge, newest first. limit <= 0 means all.
func (r *EngagementRepository) ListFollows(ctx context.Context, limit int) ([]FollowRow, error) {
	var rows []FollowRow
	q := r.followRows(ctx).Order("follows.followed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(&rows).Error
	return rows, err
}
