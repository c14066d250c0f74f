package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/recipenest/recipenest-api/internal/metrics"
	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/recipenest/recipenest-api/internal/repository"
	"github.com/recipenest/recipenest-api/internal/stats"
	"github.com/recipenest/recipenest-api/pkg/logger"
	"go.uber.org/zap"
)

const topRecipesLimit = 5

// ChefStats are the live dashboard numbers of one chef.
type ChefStats struct {
	TotalRecipes int64   `json:"totalRecipes"`
	TotalLikes   int64   `json:"totalLikes"`
	AvgRating    float64 `json:"avgRating"`
	Followers    int64   `json:"followers"`
}

type ViewsPoint struct {
	Date  string `json:"date"`
	Views int    `json:"views"`
}

type LikesPoint struct {
	Date  string `json:"date"`
	Likes int    `json:"likes"`
}

type FollowersPoint struct {
	Date      string `json:"date"`
	Followers int    `json:"followers"`
}

// TopRecipe ranks a recipe by engagement. Views is Likes + Ratings.
type TopRecipe struct {
	RecipeID uuid.UUID `json:"recipeId"`
	Title    string    `json:"title"`
	Views    int       `json:"views"`
	Likes    int       `json:"likes"`
	Ratings  int       `json:"ratings"`
}

// ChefAnalytics holds a chef's engagement series. Likes and ratings are
// dated by the creation day of the recipe they belong to, not by when they
// happened. There is no page-view tracking: views are likes plus ratings and
// ViewsEstimated is always true.
type ChefAnalytics struct {
	ChefID            uuid.UUID        `json:"chefId"`
	ViewsEstimated    bool             `json:"viewsEstimated"`
	ViewsOverTime     []ViewsPoint     `json:"viewsOverTime"`
	LikesOverTime     []LikesPoint     `json:"likesOverTime"`
	FollowersOverTime []FollowersPoint `json:"followersOverTime"`
	TopRecipes        []TopRecipe      `json:"topRecipes"`
}

// AdminOverview is the platform landing dashboard. Every growth series has
// exactly WindowDays entries ending today (UTC).
type AdminOverview struct {
	TotalUsers    int64              `json:"totalUsers"`
	TotalChefs    int64              `json:"totalChefs"`
	TotalRecipes  int64              `json:"totalRecipes"`
	TotalLikes    int64              `json:"totalLikes"`
	TotalRatings  int64              `json:"totalRatings"`
	TotalFollows  int64              `json:"totalFollows"`
	WindowDays    int                `json:"windowDays"`
	UsersGrowth   []stats.DailyCount `json:"usersGrowth"`
	ChefsGrowth   []stats.DailyCount `json:"chefsGrowth"`
	RecipesGrowth []stats.DailyCount `json:"recipesGrowth"`
	LikesGrowth   []stats.DailyCount `json:"likesGrowth"`
	RatingsGrowth []stats.DailyCount `json:"ratingsGrowth"`
	FollowsGrowth []stats.DailyCount `json:"followsGrowth"`
}

// StatsService computes dashboards on demand. Nothing is cached and the
// queries behind one result do not share a snapshot.
type StatsService struct {
	statsRepo *repository.StatsRepository
	userRepo  *repository.UserRepository
	window    int
	now       func() time.Time
}

func NewStatsService(statsRepo *repository.StatsRepository, userRepo *repository.UserRepository, windowDays int) *StatsService {
	if windowDays < 1 {
		windowDays = stats.DefaultWindowDays
	}
	return &StatsService{
		statsRepo: statsRepo,
		userRepo:  userRepo,
		window:    windowDays,
		now:       time.Now,
	}
}

// WithClock replaces the clock that decides which day is today.
func (s *StatsService) WithClock(now func() time.Time) *StatsService {
	s.now = now
	return s
}

// ChefStats reports on the calling chef. The chef is always the caller.
func (s *StatsService) ChefStats(ctx context.Context, caller Caller) (out *ChefStats, err error) {
	start := time.Now()
	defer func() { metrics.ObserveAggregation("chef_stats", start, err) }()

	if !caller.Is(models.RoleChef) {
		logger.Log.Warn("Chef stats requested by non-chef",
			zap.String("user_id", caller.UserID.String()),
			zap.String("role", string(caller.Role)),
		)
		return nil, ErrForbidden
	}

	chef, err := s.userRepo.GetUserByIDAndRole(ctx, caller.UserID, models.RoleChef)
	if err != nil {
		return nil, err
	}
	if chef == nil {
		return nil, ErrChefNotFound
	}

	out = &ChefStats{}
	if out.TotalRecipes, err = s.statsRepo.CountRecipesByChef(ctx, chef.ID); err != nil {
		return nil, s.logAggregateError("chef_stats", chef.ID, err)
	}
	if out.TotalLikes, err = s.statsRepo.CountLikesForChef(ctx, chef.ID); err != nil {
		return nil, s.logAggregateError("chef_stats", chef.ID, err)
	}
	if out.AvgRating, err = s.statsRepo.AverageRatingForChef(ctx, chef.ID); err != nil {
		return nil, s.logAggregateError("chef_stats", chef.ID, err)
	}
	if out.Followers, err = s.statsRepo.CountFollowers(ctx, chef.ID); err != nil {
		return nil, s.logAggregateError("chef_stats", chef.ID, err)
	}

	logger.Log.Debug("Chef stats computed",
		zap.String("chef_id", chef.ID.String()),
		zap.Int64("total_recipes", out.TotalRecipes),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

// ChefAnalytics is open to the chef it describes and to admins.
func (s *StatsService) ChefAnalytics(ctx context.Context, caller Caller, chefID uuid.UUID) (out *ChefAnalytics, err error) {
	start := time.Now()
	defer func() { metrics.ObserveAggregation("chef_analytics", start, err) }()

	if !caller.IsAdmin() && !(caller.Is(models.RoleChef) && caller.UserID == chefID) {
		logger.Log.Warn("Chef analytics access denied",
			zap.String("user_id", caller.UserID.String()),
			zap.String("chef_id", chefID.String()),
		)
		return nil, ErrForbidden
	}

	chef, err := s.userRepo.GetUserByIDAndRole(ctx, chefID, models.RoleChef)
	if err != nil {
		return nil, err
	}
	if chef == nil {
		return nil, ErrChefNotFound
	}

	recipes, err := s.statsRepo.ChefRecipeSummaries(ctx, chefID)
	if err != nil {
		return nil, s.logAggregateError("chef_analytics", chefID, err)
	}
	likeCounts, err := s.statsRepo.LikeCountsByRecipe(ctx, chefID)
	if err != nil {
		return nil, s.logAggregateError("chef_analytics", chefID, err)
	}
	ratingCounts, err := s.statsRepo.RatingCountsByRecipe(ctx, chefID)
	if err != nil {
		return nil, s.logAggregateError("chef_analytics", chefID, err)
	}
	followTimes, err := s.statsRepo.FollowTimesForChef(ctx, chefID)
	if err != nil {
		return nil, s.logAggregateError("chef_analytics", chefID, err)
	}

	likes := stats.Tally{}
	ratings := stats.Tally{}
	top := make([]TopRecipe, 0, len(recipes))
	for _, r := range recipes {
		l, rt := likeCounts[r.ID], ratingCounts[r.ID]
		likes.Add(r.CreatedAt, l)
		ratings.Add(r.CreatedAt, rt)
		top = append(top, TopRecipe{RecipeID: r.ID, Title: r.Title, Views: l + rt, Likes: l, Ratings: rt})
	}

	sort.SliceStable(top, func(i, j int) bool {
		if top[i].Views != top[j].Views {
			return top[i].Views > top[j].Views
		}
		if top[i].Title != top[j].Title {
			return top[i].Title < top[j].Title
		}
		return top[i].RecipeID.String() < top[j].RecipeID.String()
	})
	if len(top) > topRecipesLimit {
		top = top[:topRecipesLimit]
	}

	likeSeries := likes.Series()
	out = &ChefAnalytics{
		ChefID:            chefID,
		ViewsEstimated:    true,
		ViewsOverTime:     make([]ViewsPoint, 0),
		LikesOverTime:     make([]LikesPoint, 0, len(likeSeries)),
		FollowersOverTime: make([]FollowersPoint, 0),
		TopRecipes:        top,
	}
	for _, p := range stats.MergeAdditive(likeSeries, ratings.Series()) {
		out.ViewsOverTime = append(out.ViewsOverTime, ViewsPoint{Date: p.Date, Views: p.Count})
	}
	for _, p := range likeSeries {
		out.LikesOverTime = append(out.LikesOverTime, LikesPoint{Date: p.Date, Likes: p.Count})
	}
	for _, p := range stats.GroupByDay(followTimes) {
		out.FollowersOverTime = append(out.FollowersOverTime, FollowersPoint{Date: p.Date, Followers: p.Count})
	}

	logger.Log.Debug("Chef analytics computed",
		zap.String("chef_id", chefID.String()),
		zap.Int("recipes", len(recipes)),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

// AdminOverview reports platform totals and trailing growth series.
func (s *StatsService) AdminOverview(ctx context.Context, caller Caller) (out *AdminOverview, err error) {
	start := time.Now()
	defer func() { metrics.ObserveAggregation("admin_overview", start, err) }()

	if !caller.IsAdmin() {
		logger.Log.Warn("Admin overview requested by non-admin",
			zap.String("user_id", caller.UserID.String()),
		)
		return nil, ErrForbidden
	}

	totals, err := s.statsRepo.Totals(ctx)
	if err != nil {
		logger.Log.Error("Failed to count platform totals", zap.Error(err))
		return nil, err
	}

	now := s.now()
	since := stats.WindowStart(now, s.window)

	out = &AdminOverview{
		TotalUsers:   totals.Users,
		TotalChefs:   totals.Chefs,
		TotalRecipes: totals.Recipes,
		TotalLikes:   totals.Likes,
		TotalRatings: totals.Ratings,
		TotalFollows: totals.Follows,
		WindowDays:   s.window,
	}

	growth := []struct {
		name  string
		load  func(context.Context, time.Time) ([]time.Time, error)
		store *[]stats.DailyCount
	}{
		{"users", s.statsRepo.UserSignupsSince, &out.UsersGrowth},
		{"chefs", s.statsRepo.ChefSignupsSince, &out.ChefsGrowth},
		{"recipes", s.statsRepo.RecipesCreatedSince, &out.RecipesGrowth},
		{"likes", s.statsRepo.LikesSince, &out.LikesGrowth},
		{"ratings", s.statsRepo.RatingsSince, &out.RatingsGrowth},
		{"follows", s.statsRepo.FollowsSince, &out.FollowsGrowth},
	}
	for _, g := range growth {
		events, err := g.load(ctx, since)
		if err != nil {
			logger.Log.Error("Failed to load growth events",
				zap.String("series", g.name),
				zap.Error(err),
			)
			return nil, err
		}
		*g.store = stats.GrowthSeries(events, now, s.window)
	}

	logger.Log.Debug("Admin overview computed",
		zap.Int64("total_users", out.TotalUsers),
		zap.Int("window_days", s.window),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

func (s *StatsService) logAggregateError(operation string, chefID uuid.UUID, err error) error {
	logger.Log.Error("Aggregation query failed",
		zap.String("operation", operation),
		zap.String("chef_id", chefID.String()),
		zap.Error(err),
	)
	return err
}
