package service

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/recipenest/recipenest-api/internal/audit"
	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/recipenest/recipenest-api/internal/repository"
	"github.com/recipenest/recipenest-api/pkg/logger"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000

	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

type AdminService struct {
	userRepo       *repository.UserRepository
	recipeRepo     *repository.RecipeRepository
	engagementRepo *repository.EngagementRepository
	statsRepo      *repository.StatsRepository
	profiles       *ProfileService
	journal        AuditJournal
}

func NewAdminService(
	userRepo *repository.UserRepository,
	recipeRepo *repository.RecipeRepository,
	engagementRepo *repository.EngagementRepository,
	statsRepo *repository.StatsRepository,
	profiles *ProfileService,
	journal AuditJournal,
) *AdminService {
	return &AdminService{
		userRepo:       userRepo,
		recipeRepo:     recipeRepo,
		engagementRepo: engagementRepo,
		statsRepo:      statsRepo,
		profiles:       profiles,
		journal:        journal,
	}
}

func (s *AdminService) Users(ctx context.Context) ([]Profile, error) {
	return s.profiles.ListAll(ctx)
}

// User projects a user of any role, admins included.
func (s *AdminService) User(ctx context.Context, id uuid.UUID) (Profile, error) {
	return s.profiles.Profile(ctx, id)
}

// DeleteUser removes a chef or food lover on behalf of an admin and journals
// the action.
func (s *AdminService) DeleteUser(ctx context.Context, caller Caller, id uuid.UUID, reason string) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}

	logger.Log.Info("Deleting user",
		zap.String("user_id", id.String()),
		zap.String("admin_id", caller.UserID.String()),
		zap.String("reason", reason),
	)

	user, err := removeUser(ctx, s.userRepo, s.statsRepo, id)
	if err != nil {
		return err
	}

	recordModeration(s.journal, audit.Entry{
		ActorID:    caller.UserID.String(),
		Action:     audit.ActionDeleteUser,
		TargetType: string(user.Role),
		TargetID:   user.ID.String(),
		TargetName: user.Name,
		Reason:     reason,
	})

	logger.Log.Info("User deleted successfully",
		zap.String("user_id", id.String()),
		zap.String("admin_id", caller.UserID.String()),
	)
	return nil
}

func (s *AdminService) Likes(ctx context.Context, limit int) ([]repository.LikeRow, error) {
	return s.engagementRepo.ListLikes(ctx, clampLimit(limit, defaultListLimit, maxListLimit))
}

func (s *AdminService) Ratings(ctx context.Context, limit int) ([]repository.RatingRow, error) {
	return s.engagementRepo.ListRatings(ctx, clampLimit(limit, defaultListLimit, maxListLimit))
}

func (s *AdminService) Follows(ctx context.Context, limit int) ([]repository.FollowRow, error) {
	return s.engagementRepo.ListFollows(ctx, clampLimit(limit, defaultListLimit, maxListLimit))
}

// ActivityFeed merges the newest registrations, recipes, likes, follows and
// ratings into one feed, newest first, at most limit long.
func (s *AdminService) ActivityFeed(ctx context.Context, limit int) ([]models.ActivityEvent, error) {
	limit = clampLimit(limit, defaultActivityLimit, maxActivityLimit)

	users, err := s.userRepo.ListUsers(ctx, limit)
	if err != nil {
		return nil, s.feedError("users", err)
	}
	recipes, err := s.recipeRepo.ListRecipes(ctx, limit)
	if err != nil {
		return nil, s.feedError("recipes", err)
	}
	likes, err := s.engagementRepo.ListLikes(ctx, limit)
	if err != nil {
		return nil, s.feedError("likes", err)
	}
	follows, err := s.engagementRepo.ListFollows(ctx, limit)
	if err != nil {
		return nil, s.feedError("follows", err)
	}
	ratings, err := s.engagementRepo.ListRatings(ctx, limit)
	if err != nil {
		return nil, s.feedError("ratings", err)
	}

	feed := make([]models.ActivityEvent, 0, len(users)+len(recipes)+len(likes)+len(follows)+len(ratings))
	for _, u := range users {
		feed = append(feed, models.ActivityEvent{Type: models.ActivityUser, Date: u.CreatedAt, User: u.Name})
	}
	for _, r := range recipes {
		chef := ""
		if r.Chef != nil {
			chef = r.Chef.Name
		}
		feed = append(feed, models.ActivityEvent{Type: models.ActivityRecipe, Date: r.CreatedAt, User: chef, Recipe: r.Title})
	}
	for _, l := range likes {
		feed = append(feed, models.ActivityEvent{Type: models.ActivityLike, Date: l.LikedAt, User: l.UserName, Recipe: l.RecipeTitle})
	}
	for _, f := range follows {
		feed = append(feed, models.ActivityEvent{Type: models.ActivityFollow, Date: f.FollowedAt, User: f.FollowerName, Target: f.FollowingName})
	}
	for _, r := range ratings {
		feed = append(feed, models.ActivityEvent{Type: models.ActivityRating, Date: r.CreatedAt, User: r.UserName, Recipe: r.RecipeTitle, Stars: r.Stars})
	}

	sort.SliceStable(feed, func(i, j int) bool { return feed[i].Date.After(feed[j].Date) })
	if len(feed) > limit {
		feed = feed[:limit]
	}
	return feed, nil
}

// AuditTrail returns journaled moderation actions, newest first.
func (s *AdminService) AuditTrail(limit int) ([]audit.Entry, error) {
	if s.journal == nil {
		return []audit.Entry{}, nil
	}
	return s.journal.Recent(clampLimit(limit, defaultListLimit, maxListLimit))
}

func (s *AdminService) feedError(source string, err error) error {
	logger.Log.Error("Failed to load activity source",
		zap.String("source", source),
		zap.Error(err),
	)
	return err
}

// removeUser deletes a chef or food lover with their likes, ratings and
// follow edges. Chefs that still own recipes are refused.
func removeUser(ctx context.Context, userRepo *repository.UserRepository, statsRepo *repository.StatsRepository, id uuid.UUID) (*models.User, error) {
	user, err := userRepo.GetUserByID(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to get user",
			zap.String("user_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Role == models.RoleAdmin {
		logger.Log.Warn("Refusing to delete admin account",
			zap.String("user_id", id.String()),
		)
		return nil, ErrForbidden
	}

	if user.IsChef() {
		recipes, err := statsRepo.CountRecipesByChef(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if recipes > 0 {
			logger.Log.Warn("Refusing to delete chef with recipes",
				zap.String("user_id", id.String()),
				zap.Int64("recipes", recipes),
			)
			return nil, ErrChefHasRecipes
		}
	}

	if err := userRepo.DeleteUser(ctx, user.ID); err != nil {
		logger.Log.Error("Failed to delete user",
			zap.String("user_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}
	return user, nil
}
