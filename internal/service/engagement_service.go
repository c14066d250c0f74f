package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/recipenest/recipenest-api/internal/repository"
	"github.com/recipenest/recipenest-api/pkg/logger"
	"go.uber.org/zap"
)

const maxCommentLength = 1000

// EngagementService handles likes, ratings and follows. Only food lovers
// engage; chefs are followed and rated through their recipes.
type EngagementService struct {
	userRepo       *repository.UserRepository
	recipeRepo     *repository.RecipeRepository
	engagementRepo *repository.EngagementRepository
	publisher      ActivityPublisher
	now            func() time.Time
}

func NewEngagementService(
	userRepo *repository.UserRepository,
	recipeRepo *repository.RecipeRepository,
	engagementRepo *repository.EngagementRepository,
	publisher ActivityPublisher,
) *EngagementService {
	return &EngagementService{
		userRepo:       userRepo,
		recipeRepo:     recipeRepo,
		engagementRepo: engagementRepo,
		publisher:      publisher,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// foodLover resolves the caller as an existing food lover.
func (s *EngagementService) foodLover(ctx context.Context, caller Caller) (*models.User, error) {
	if !caller.Is(models.RoleFoodLover) {
		return nil, ErrForbidden
	}
	user, err := s.userRepo.GetUserByIDAndRole(ctx, caller.UserID, models.RoleFoodLover)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrFoodLoverNotFound
	}
	return user, nil
}

func (s *EngagementService) recipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.recipeRepo.GetRecipeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, ErrRecipeNotFound
	}
	return recipe, nil
}

func (s *EngagementService) Like(ctx context.Context, caller Caller, recipeID uuid.UUID) error {
	user, err := s.foodLover(ctx, caller)
	if err != nil {
		return err
	}
	recipe, err := s.recipe(ctx, recipeID)
	if err != nil {
		return err
	}

	like := &models.RecipeLike{UserID: user.ID, RecipeID: recipe.ID}
	if err := s.engagementRepo.CreateLike(ctx, like); err != nil {
		if repository.IsDuplicate(err) {
			return ErrAlreadyLiked
		}
		logger.Log.Error("Failed to create like",
			zap.String("user_id", user.ID.String()),
			zap.String("recipe_id", recipe.ID.String()),
			zap.Error(err),
		)
		return err
	}

	publishActivity(ctx, s.publisher, models.ActivityEvent{
		Type:   models.ActivityLike,
		Date:   like.CreatedAt,
		User:   user.Name,
		Recipe: recipe.Title,
	})

	logger.Log.Info("Recipe liked",
		zap.String("user_id", user.ID.String()),
		zap.String("recipe_id", recipe.ID.String()),
	)
	return nil
}

func (s *EngagementService) Unlike(ctx context.Context, caller Caller, recipeID uuid.UUID) error {
	if !caller.Is(models.RoleFoodLover) {
		return ErrForbidden
	}

	removed, err := s.engagementRepo.DeleteLike(ctx, caller.UserID, recipeID)
	if err != nil {
		logger.Log.Error("Failed to delete like",
			zap.String("user_id", caller.UserID.String()),
			zap.String("recipe_id", recipeID.String()),
			zap.Error(err),
		)
		return err
	}
	if !removed {
		return ErrNotLiked
	}

	logger.Log.Info("Recipe unliked",
		zap.String("user_id", caller.UserID.String()),
		zap.String("recipe_id", recipeID.String()),
	)
	return nil
}

// Rate records the caller's rating of a recipe. A user holds at most one
// rating per recipe; rating again revises stars and comment. The returned
// bool reports whether a new rating was created.
func (s *EngagementService) Rate(ctx context.Context, caller Caller, recipeID uuid.UUID, stars int, comment *string) (*models.Rating, bool, error) {
	if stars < 1 || stars > 5 {
		return nil, false, validationError("stars must be between 1 and 5")
	}
	if comment != nil {
		trimmed := strings.TrimSpace(*comment)
		if len(trimmed) > maxCommentLength {
			return nil, false, validationError("comment must be at most %d characters", maxCommentLength)
		}
		comment = &trimmed
		if trimmed == "" {
			comment = nil
		}
	}

	user, err := s.foodLover(ctx, caller)
	if err != nil {
		return nil, false, err
	}
	recipe, err := s.recipe(ctx, recipeID)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.engagementRepo.GetRating(ctx, user.ID, recipe.ID)
	if err != nil {
		return nil, false, err
	}

	if existing != nil {
		return s.reviseRating(ctx, existing, stars, comment)
	}

	rating := &models.Rating{
		RecipeID: recipe.ID,
		UserID:   user.ID,
		Stars:    stars,
		Comment:  comment,
	}
	if err := s.engagementRepo.CreateRating(ctx, rating); err != nil {
		if repository.IsDuplicate(err) {
			// A concurrent first rating won the insert.
			return s.reviseStoredRating(ctx, user.ID, recipe.ID, stars, comment)
		}
		logger.Log.Error("Failed to create rating",
			zap.String("user_id", user.ID.String()),
			zap.String("recipe_id", recipe.ID.String()),
			zap.Error(err),
		)
		return nil, false, err
	}

	publishActivity(ctx, s.publisher, models.ActivityEvent{
		Type:   models.ActivityRating,
		Date:   rating.CreatedAt,
		User:   user.Name,
		Recipe: recipe.Title,
		Stars:  stars,
	})

	logger.Log.Info("Recipe rated",
		zap.String("rating_id", rating.ID.String()),
		zap.String("recipe_id", recipe.ID.String()),
		zap.Int("stars", stars),
	)
	return rating, true, nil
}

func (s *EngagementService) reviseStoredRating(ctx context.Context, userID, recipeID uuid.UUID, stars int, comment *string) (*models.Rating, bool, error) {
	existing, err := s.engagementRepo.GetRating(ctx, userID, recipeID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		// The row vanished with its recipe between insert and read.
		return nil, false, ErrRecipeNotFound
	}
	return s.reviseRating(ctx, existing, stars, comment)
}

func (s *EngagementService) reviseRating(ctx context.Context, existing *models.Rating, stars int, comment *string) (*models.Rating, bool, error) {
	now := s.now()
	existing.Stars = stars
	existing.Comment = comment
	existing.UpdatedAt = &now
	if err := s.engagementRepo.UpdateRating(ctx, existing); err != nil {
		logger.Log.Error("Failed to update rating",
			zap.String("rating_id", existing.ID.String()),
			zap.Error(err),
		)
		return nil, false, err
	}

	logger.Log.Info("Rating revised",
		zap.String("rating_id", existing.ID.String()),
		zap.Int("stars", stars),
	)
	return existing, false, nil
}

// Follow makes the calling food lover follow a chef. Self-follows are
// rejected before anything else is looked at.
func (s *EngagementService) Follow(ctx context.Context, caller Caller, chefID uuid.UUID) error {
	if caller.UserID == chefID {
		logger.Log.Warn("Self-follow rejected",
			zap.String("user_id", caller.UserID.String()),
		)
		return ErrSelfFollow
	}

	follower, err := s.foodLover(ctx, caller)
	if err != nil {
		return err
	}

	chef, err := s.userRepo.GetUserByIDAndRole(ctx, chefID, models.RoleChef)
	if err != nil {
		return err
	}
	if chef == nil {
		return ErrChefNotFound
	}

	follow := &models.Follow{FollowerID: follower.ID, FollowingID: chef.ID}
	if err := s.engagementRepo.CreateFollow(ctx, follow); err != nil {
		if repository.IsDuplicate(err) {
			return ErrAlreadyFollowing
		}
		logger.Log.Error("Failed to create follow",
			zap.String("follower_id", follower.ID.String()),
			zap.String("chef_id", chef.ID.String()),
			zap.Error(err),
		)
		return err
	}

	publishActivity(ctx, s.publisher, models.ActivityEvent{
		Type:   models.ActivityFollow,
		Date:   follow.FollowedAt,
		User:   follower.Name,
		Target: chef.Name,
	})

	logger.Log.Info("Chef followed",
		zap.String("follower_id", follower.ID.String()),
		zap.String("chef_id", chef.ID.String()),
	)
	return nil
}

func (s *EngagementService) Unfollow(ctx context.Context, caller Caller, chefID uuid.UUID) error {
	if !caller.Is(models.RoleFoodLover) {
		return ErrForbidden
	}

	removed, err := s.engagementRepo.DeleteFollow(ctx, caller.UserID, chefID)
	if err != nil {
		logger.Log.Error("Failed to delete follow",
			zap.String("follower_id", caller.UserID.String()),
			zap.String("chef_id", chefID.String()),
			zap.Error(err),
		)
		return err
	}
	if !removed {
		return ErrNotFollowing
	}

	logger.Log.Info("Chef unfollowed",
		zap.String("follower_id", caller.UserID.String()),
		zap.String("chef_id", chefID.String()),
	)
	return nil
}

// Listings

func (s *EngagementService) LikesForRecipe(ctx context.Context, recipeID uuid.UUID) ([]repository.LikeRow, error) {
	if _, err := s.recipe(ctx, recipeID); err != nil {
		return nil, err
	}
	return s.engagementRepo.ListLikesByRecipe(ctx, recipeID)
}

func (s *EngagementService) LikesByUser(ctx context.Context, userID uuid.UUID) ([]repository.LikeRow, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.engagementRepo.ListLikesByUser(ctx, userID)
}

func (s *EngagementService) RatingsForRecipe(ctx context.Context, recipeID uuid.UUID) ([]repository.RatingRow, error) {
	if _, err := s.recipe(ctx, recipeID); err != nil {
		return nil, err
	}
	return s.engagementRepo.ListRatingsByRecipe(ctx, recipeID)
}

func (s *EngagementService) RatingsByUser(ctx context.Context, userID uuid.UUID) ([]repository.RatingRow, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.engagementRepo.ListRatingsByUser(ctx, userID)
}

func (s *EngagementService) Followers(ctx context.Context, chefID uuid.UUID) ([]repository.FollowRow, error) {
	chef, err := s.userRepo.GetUserByIDAndRole(ctx, chefID, models.RoleChef)
	if err != nil {
		return nil, err
	}
	if chef == nil {
		return nil, ErrChefNotFound
	}
	return s.engagementRepo.ListFollowers(ctx, chefID)
}

func (s *EngagementService) Following(ctx context.Context, foodLoverID uuid.UUID) ([]repository.FollowRow, error) {
	user, err := s.userRepo.GetUserByIDAndRole(ctx, foodLoverID, models.RoleFoodLover)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrFoodLoverNotFound
	}
	return s.engagementRepo.ListFollowing(ctx, foodLoverID)
}

func (s *EngagementService) requireUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return nil
}
