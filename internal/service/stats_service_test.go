package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/recipenest/recipenest-api/internal/repository"
	"github.com/recipenest/recipenest-api/internal/service"
	"github.com/recipenest/recipenest-api/internal/stats"
	"github.com/recipenest/recipenest-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

var refNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

type StatsServiceTestSuite struct {
	suite.Suite
	testDB   *testutil.TestDatabase
	fx       *testutil.Fixtures
	stats    *service.StatsService
	profiles *service.ProfileService
	ctx      context.Context
}

func (s *StatsServiceTestSuite) SetupTest() {
	s.testDB = testutil.SetupTestDatabase(s.T())
	s.fx = testutil.NewFixtures(s.T(), s.testDB.DB)
	s.ctx = context.Background()

	userRepo := repository.NewUserRepository(s.testDB.DB)
	statsRepo := repository.NewStatsRepository(s.testDB.DB)

	s.stats = service.NewStatsService(statsRepo, userRepo, 7).
		WithClock(func() time.Time { return refNow })
	s.profiles = service.NewProfileService(userRepo, statsRepo)
}

func (s *StatsServiceTestSuite) TearDownTest() {
	s.testDB.Teardown(s.T())
}

func chefCaller(u *models.User) service.Caller {
	return service.Caller{UserID: u.ID, Role: models.RoleChef}
}

func foodLoverCaller(u *models.User) service.Caller {
	return service.Caller{UserID: u.ID, Role: models.RoleFoodLover}
}

func adminCaller(u *models.User) service.Caller {
	return service.Caller{UserID: u.ID, Role: models.RoleAdmin}
}

// Ana has 2 recipes. A is rated 4 and 5 and liked 3 times, B is liked once.
func (s *StatsServiceTestSuite) seedAna() *models.User {
	day := testutil.DaysAgo(refNow, 3, 10)
	ana := s.fx.CreateChef("Ana", day)
	a := s.fx.CreateRecipe(ana, "Recipe A", day)
	b := s.fx.CreateRecipe(ana, "Recipe B", day)

	fl1 := s.fx.CreateFoodLover("Bob", day)
	fl2 := s.fx.CreateFoodLover("Cleo", day)
	fl3 := s.fx.CreateFoodLover("Dan", day)

	s.fx.Rate(fl1, a, 4, "", day)
	s.fx.Rate(fl2, a, 5, "great", day)
	s.fx.Like(fl1, a, day)
	s.fx.Like(fl2, a, day)
	s.fx.Like(fl3, a, day)
	s.fx.Like(fl1, b, day)
	s.fx.Follow(fl1, ana, day)
	return ana
}

func (s *StatsServiceTestSuite) TestChefStats_AnaScenario() {
	ana := s.seedAna()

	got, err := s.stats.ChefStats(s.ctx, chefCaller(ana))
	s.Require().NoError(err)
	assert.Equal(s.T(), int64(2), got.TotalRecipes)
	assert.Equal(s.T(), int64(4), got.TotalLikes)
	assert.Equal(s.T(), 4.5, got.AvgRating)
	assert.Equal(s.T(), int64(1), got.Followers)

	profile, err := s.profiles.ChefProfile(s.ctx, ana.ID)
	s.Require().NoError(err)
	assert.Equal(s.T(), int64(2), profile.RecipesCount)
	assert.Equal(s.T(), int64(4), profile.TotalLikes)
	assert.Equal(s.T(), 4.5, profile.AvgRating)
	assert.Equal(s.T(), int64(1), profile.FollowersCount)
}

func (s *StatsServiceTestSuite) TestChefStats_NoRatingsAverageIsZero() {
	chef := s.fx.CreateChef("Noa", refNow)
	s.fx.CreateRecipe(chef, "Unrated", refNow)

	got, err := s.stats.ChefStats(s.ctx, chefCaller(chef))
	s.Require().NoError(err)
	assert.Equal(s.T(), 0.0, got.AvgRating)

	empty := s.fx.CreateChef("Empty", refNow)
	got, err = s.stats.ChefStats(s.ctx, chefCaller(empty))
	s.Require().NoError(err)
	assert.Equal(s.T(), 0.0, got.AvgRating)
	assert.Equal(s.T(), int64(0), got.TotalRecipes)
}

func (s *StatsServiceTestSuite) TestChefStats_CountsMatchCardinality() {
	chef := s.fx.CreateChef("Xavi", refNow)
	for i := 0; i < 3; i++ {
		s.fx.CreateRecipe(chef, "Dish", refNow)
	}

	got, err := s.stats.ChefStats(s.ctx, chefCaller(chef))
	s.Require().NoError(err)
	assert.Equal(s.T(), int64(3), got.TotalRecipes)
}

func (s *StatsServiceTestSuite) TestChefStats_RequiresChefCaller() {
	fl := s.fx.CreateFoodLover("Bob", refNow)

	_, err := s.stats.ChefStats(s.ctx, foodLoverCaller(fl))
	assert.ErrorIs(s.T(), err, service.ErrForbidden)

	// A chef token whose account is gone
	_, err = s.stats.ChefStats(s.ctx, service.Caller{UserID: uuid.New(), Role: models.RoleChef})
	assert.ErrorIs(s.T(), err, service.ErrChefNotFound)
}

func (s *StatsServiceTestSuite) TestChefAnalytics_BucketsByRecipeCreationDay() {
	d1 := testutil.DaysAgo(refNow, 20, 9)
	d2 := testutil.DaysAgo(refNow, 5, 9)
	chef := s.fx.CreateChef("Ana", d1)
	a := s.fx.CreateRecipe(chef, "Alpha", d1)
	b := s.fx.CreateRecipe(chef, "Beta", d2)

	fl1 := s.fx.CreateFoodLover("Bob", d1)
	fl2 := s.fx.CreateFoodLover("Cleo", d1)

	// Engagement happens long after the recipes were created
	s.fx.Like(fl1, a, refNow)
	s.fx.Like(fl2, a, refNow)
	s.fx.Rate(fl1, a, 5, "", refNow)
	s.fx.Rate(fl2, b, 3, "", refNow)
	s.fx.Follow(fl1, chef, testutil.DaysAgo(refNow, 2, 8))
	s.fx.Follow(fl2, chef, testutil.DaysAgo(refNow, 2, 20))

	got, err := s.stats.ChefAnalytics(s.ctx, chefCaller(chef), chef.ID)
	s.Require().NoError(err)

	assert.True(s.T(), got.ViewsEstimated)
	assert.Equal(s.T(), []service.LikesPoint{{Date: stats.DayKey(d1), Likes: 2}}, got.LikesOverTime)
	assert.Equal(s.T(), []service.ViewsPoint{
		{Date: stats.DayKey(d1), Views: 3},
		{Date: stats.DayKey(d2), Views: 1},
	}, got.ViewsOverTime)
	assert.Equal(s.T(), []service.FollowersPoint{
		{Date: stats.DayKey(testutil.DaysAgo(refNow, 2, 0)), Followers: 2},
	}, got.FollowersOverTime)

	s.Require().Len(got.TopRecipes, 2)
	assert.Equal(s.T(), "Alpha", got.TopRecipes[0].Title)
	assert.Equal(s.T(), 3, got.TopRecipes[0].Views)
	assert.Equal(s.T(), 2, got.TopRecipes[0].Likes)
	assert.Equal(s.T(), 1, got.TopRecipes[0].Ratings)
	assert.Equal(s.T(), "Beta", got.TopRecipes[1].Title)
}

func (s *StatsServiceTestSuite) TestChefAnalytics_TopRecipesCappedAndTieBroken() {
	chef := s.fx.CreateChef("Ana", refNow)
	fl := s.fx.CreateFoodLover("Bob", refNow)
	for _, title := range []string{"G", "F", "E", "D", "C", "B", "A"} {
		s.fx.CreateRecipe(chef, title, refNow)
	}
	hot := s.fx.CreateRecipe(chef, "Z", refNow)
	s.fx.Like(fl, hot, refNow)

	got, err := s.stats.ChefAnalytics(s.ctx, chefCaller(chef), chef.ID)
	s.Require().NoError(err)

	s.Require().Len(got.TopRecipes, 5)
	titles := make([]string, 0, 5)
	for _, r := range got.TopRecipes {
		titles = append(titles, r.Title)
	}
	assert.Equal(s.T(), []string{"Z", "A", "B", "C", "D"}, titles)
}

func (s *StatsServiceTestSuite) TestChefAnalytics_EmptyChef() {
	chef := s.fx.CreateChef("Ana", refNow)

	got, err := s.stats.ChefAnalytics(s.ctx, chefCaller(chef), chef.ID)
	s.Require().NoError(err)
	assert.Empty(s.T(), got.ViewsOverTime)
	assert.Empty(s.T(), got.LikesOverTime)
	assert.Empty(s.T(), got.FollowersOverTime)
	assert.Empty(s.T(), got.TopRecipes)
}

func (s *StatsServiceTestSuite) TestChefAnalytics_Access() {
	ana := s.fx.CreateChef("Ana", refNow)
	other := s.fx.CreateChef("Ben", refNow)
	fl := s.fx.CreateFoodLover("Bob", refNow)
	admin := s.fx.CreateAdmin("Root")

	_, err := s.stats.ChefAnalytics(s.ctx, chefCaller(other), ana.ID)
	assert.ErrorIs(s.T(), err, service.ErrForbidden)

	_, err = s.stats.ChefAnalytics(s.ctx, foodLoverCaller(fl), ana.ID)
	assert.ErrorIs(s.T(), err, service.ErrForbidden)

	_, err = s.stats.ChefAnalytics(s.ctx, adminCaller(admin), ana.ID)
	assert.NoError(s.T(), err)

	_, err = s.stats.ChefAnalytics(s.ctx, adminCaller(admin), fl.ID)
	assert.ErrorIs(s.T(), err, service.ErrChefNotFound)
}

func (s *StatsServiceTestSuite) TestAdminOverview_UsersGrowthWindow() {
	// 10 users over the last 10 days, 2 of them today
	for i, daysAgo := range []int{0, 0, 1, 2, 3, 4, 5, 7, 8, 9} {
		role := models.RoleFoodLover
		if i%3 == 0 {
			role = models.RoleChef
		}
		s.fx.CreateUser("user", role, testutil.DaysAgo(refNow, daysAgo, 12))
	}
	admin := s.fx.CreateAdmin("Root")

	got, err := s.stats.AdminOverview(s.ctx, adminCaller(admin))
	s.Require().NoError(err)

	assert.Equal(s.T(), int64(10), got.TotalUsers)
	assert.Equal(s.T(), int64(4), got.TotalChefs)
	assert.Equal(s.T(), 7, got.WindowDays)

	s.Require().Len(got.UsersGrowth, 7)
	assert.Equal(s.T(), 2, got.UsersGrowth[6].Count)
	assert.Equal(s.T(), stats.DayKey(refNow), got.UsersGrowth[6].Date)
	assert.Equal(s.T(), 7, stats.SeriesTotal(got.UsersGrowth))

	for i := 1; i < len(got.UsersGrowth); i++ {
		prev, _ := time.Parse(stats.DateLayout, got.UsersGrowth[i-1].Date)
		cur, _ := time.Parse(stats.DateLayout, got.UsersGrowth[i].Date)
		assert.Equal(s.T(), 24*time.Hour, cur.Sub(prev))
	}

	for _, series := range [][]stats.DailyCount{got.ChefsGrowth, got.RecipesGrowth, got.LikesGrowth, got.RatingsGrowth, got.FollowsGrowth} {
		assert.Len(s.T(), series, 7)
	}
}

func (s *StatsServiceTestSuite) TestAdminOverview_EngagementTotalsAndGrowth() {
	ana := s.seedAna()
	admin := s.fx.CreateAdmin("Root")

	got, err := s.stats.AdminOverview(s.ctx, adminCaller(admin))
	s.Require().NoError(err)

	assert.Equal(s.T(), int64(4), got.TotalUsers)
	assert.Equal(s.T(), int64(1), got.TotalChefs)
	assert.Equal(s.T(), int64(2), got.TotalRecipes)
	assert.Equal(s.T(), int64(4), got.TotalLikes)
	assert.Equal(s.T(), int64(2), got.TotalRatings)
	assert.Equal(s.T(), int64(1), got.TotalFollows)

	// seedAna dates everything three days back
	assert.Equal(s.T(), 4, got.LikesGrowth[3].Count)
	assert.Equal(s.T(), 2, got.RatingsGrowth[3].Count)
	assert.Equal(s.T(), 2, got.RecipesGrowth[3].Count)
	assert.Equal(s.T(), 1, got.ChefsGrowth[3].Count)
	assert.Equal(s.T(), ana.CreatedAt.Format(stats.DateLayout), got.ChefsGrowth[3].Date)
}

func (s *StatsServiceTestSuite) TestAdminOverview_Idempotent() {
	s.seedAna()
	admin := s.fx.CreateAdmin("Root")

	first, err := s.stats.AdminOverview(s.ctx, adminCaller(admin))
	s.Require().NoError(err)
	second, err := s.stats.AdminOverview(s.ctx, adminCaller(admin))
	s.Require().NoError(err)

	assert.Equal(s.T(), first, second)
}

func (s *StatsServiceTestSuite) TestAdminOverview_RequiresAdmin() {
	chef := s.fx.CreateChef("Ana", refNow)

	_, err := s.stats.AdminOverview(s.ctx, chefCaller(chef))
	assert.ErrorIs(s.T(), err, service.ErrForbidden)
}

func TestStatsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(StatsServiceTestSuite))
}
