package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/recipenest/recipenest-api/internal/metrics"
	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/recipenest/recipenest-api/internal/repository"
	"github.com/recipenest/recipenest-api/pkg/logger"
	"go.uber.org/zap"
)

// Profile is the role-specific read model of a user. Exactly one of
// ChefProfile, FoodLoverProfile and BasicProfile implements it.
type Profile interface {
	ProfileRole() models.Role
	profile()
}

type ChefProfile struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Role           models.Role `json:"role"`
	Bio            string      `json:"bio"`
	CreatedAt      time.Time   `json:"createdAt"`
	LastLogin      *time.Time  `json:"lastLogin,omitempty"`
	RecipesCount   int64       `json:"recipesCount"`
	FollowersCount int64       `json:"followersCount"`
	AvgRating      float64     `json:"avgRating"`
	TotalLikes     int64       `json:"totalLikes"`
}

type FoodLoverProfile struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	Email              string      `json:"email"`
	Role               models.Role `json:"role"`
	CreatedAt          time.Time   `json:"createdAt"`
	LastLogin          *time.Time  `json:"lastLogin,omitempty"`
	LikedRecipesCount  int64       `json:"likedRecipesCount"`
	CommentsCount      int64       `json:"commentsCount"`
	FollowedChefsCount int64       `json:"followedChefsCount"`
}

// BasicProfile is the fallback for roles without a richer projection.
type BasicProfile struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (*ChefProfile) ProfileRole() models.Role      { return models.RoleChef }
func (*FoodLoverProfile) ProfileRole() models.Role { return models.RoleFoodLover }
func (p *BasicProfile) ProfileRole() models.Role   { return p.Role }

func (*ChefProfile) profile()      {}
func (*FoodLoverProfile) profile() {}
func (*BasicProfile) profile()     {}

type ProfileService struct {
	userRepo  *repository.UserRepository
	statsRepo *repository.StatsRepository
	now       func() time.Time
}

func NewProfileService(userRepo *repository.UserRepository, statsRepo *repository.StatsRepository) *ProfileService {
	return &ProfileService{
		userRepo:  userRepo,
		statsRepo: statsRepo,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Profile looks up a user of any role and projects it by its role tag.
func (s *ProfileService) Profile(ctx context.Context, id uuid.UUID) (p Profile, err error) {
	defer func(start time.Time) { metrics.ObserveAggregation("profile", start, err) }(time.Now())

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to get user",
			zap.String("user_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}
	if user == nil {
		logger.Log.Warn("Profile requested for unknown user",
			zap.String("user_id", id.String()),
		)
		return nil, ErrUserNotFound
	}

	return s.project(ctx, user)
}

func (s *ProfileService) project(ctx context.Context, user *models.User) (Profile, error) {
	switch user.Role {
	case models.RoleChef:
		return s.chefProjection(ctx, user)
	case models.RoleFoodLover:
		return s.foodLoverProjection(ctx, user)
	default:
		return &BasicProfile{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
		}, nil
	}
}

func (s *ProfileService) ChefProfile(ctx context.Context, id uuid.UUID) (p *ChefProfile, err error) {
	defer func(start time.Time) { metrics.ObserveAggregation("chef_profile", start, err) }(time.Now())

	user, err := s.userRepo.GetUserByIDAndRole(ctx, id, models.RoleChef)
	if err != nil {
		logger.Log.Error("Failed to get chef",
			zap.String("chef_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}
	if user == nil {
		return nil, ErrChefNotFound
	}
	return s.chefProjection(ctx, user)
}

func (s *ProfileService) FoodLoverProfile(ctx context.Context, id uuid.UUID) (p *FoodLoverProfile, err error) {
	defer func(start time.Time) { metrics.ObserveAggregation("foodlover_profile", start, err) }(time.Now())

	user, err := s.userRepo.GetUserByIDAndRole(ctx, id, models.RoleFoodLover)
	if err != nil {
		logger.Log.Error("Failed to get food lover",
			zap.String("foodlover_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}
	if user == nil {
		return nil, ErrFoodLoverNotFound
	}
	return s.foodLoverProjection(ctx, user)
}

func (s *ProfileService) ListChefs(ctx context.Context) ([]*ChefProfile, error) {
	users, err := s.userRepo.ListUsersByRole(ctx, models.RoleChef)
	if err != nil {
		logger.Log.Error("Failed to list chefs", zap.Error(err))
		return nil, err
	}

	out := make([]*ChefProfile, 0, len(users))
	for i := range users {
		p, err := s.chefProjection(ctx, &users[i])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *ProfileService) ListFoodLovers(ctx context.Context) ([]*FoodLoverProfile, error) {
	users, err := s.userRepo.ListUsersByRole(ctx, models.RoleFoodLover)
	if err != nil {
		logger.Log.Error("Failed to list food lovers", zap.Error(err))
		return nil, err
	}

	out := make([]*FoodLoverProfile, 0, len(users))
	for i := range users {
		p, err := s.foodLoverProjection(ctx, &users[i])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ListAll projects every non-admin user, newest first.
func (s *ProfileService) ListAll(ctx context.Context) ([]Profile, error) {
	users, err := s.userRepo.ListUsers(ctx, 0)
	if err != nil {
		logger.Log.Error("Failed to list users", zap.Error(err))
		return nil, err
	}

	out := make([]Profile, 0, len(users))
	for i := range users {
		p, err := s.project(ctx, &users[i])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// UpdateChefProfile changes the calling chef's name and bio.
func (s *ProfileService) UpdateChefProfile(ctx context.Context, caller Caller, name, bio string) (*ChefProfile, error) {
	if !caller.Is(models.RoleChef) {
		return nil, ErrForbidden
	}

	name = strings.TrimSpace(name)
	bio = strings.TrimSpace(bio)
	if name == "" {
		return nil, validationError("name is required")
	}
	if len(name) > 100 {
		return nil, validationError("name must be at most 100 characters")
	}

	user, err := s.userRepo.GetUserByIDAndRole(ctx, caller.UserID, models.RoleChef)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrChefNotFound
	}

	now := s.now()
	if err := s.userRepo.UpdateChefProfile(ctx, user.ID, name, bio, now); err != nil {
		logger.Log.Error("Failed to update chef profile",
			zap.String("chef_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	user.Name = name
	user.Bio = bio
	user.UpdatedAt = &now

	logger.Log.Info("Chef profile updated",
		zap.String("chef_id", user.ID.String()),
	)
	return s.chefProjection(ctx, user)
}

func (s *ProfileService) chefProjection(ctx context.Context, user *models.User) (*ChefProfile, error) {
	p := &ChefProfile{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      models.RoleChef,
		Bio:       user.Bio,
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLoginAt,
	}

	var err error
	if p.RecipesCount, err = s.statsRepo.CountRecipesByChef(ctx, user.ID); err != nil {
		return nil, err
	}
	if p.FollowersCount, err = s.statsRepo.CountFollowers(ctx, user.ID); err != nil {
		return nil, err
	}
	if p.AvgRating, err = s.statsRepo.AverageRatingForChef(ctx, user.ID); err != nil {
		return nil, err
	}
	if p.TotalLikes, err = s.statsRepo.CountLikesForChef(ctx, user.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProfileService) foodLoverProjection(ctx context.Context, user *models.User) (*FoodLoverProfile, error) {
	p := &FoodLoverProfile{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      models.RoleFoodLover,
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLoginAt,
	}

	var err error
	if p.LikedRecipesCount, err = s.statsRepo.CountLikesByUser(ctx, user.ID); err != nil {
		return nil, err
	}
	if p.CommentsCount, err = s.statsRepo.CountCommentsByUser(ctx, user.ID); err != nil {
		return nil, err
	}
	if p.FollowedChefsCount, err = s.statsRepo.CountFollowing(ctx, user.ID); err != nil {
		return nil, err
	}
	return p, nil
}
