package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/recipenest/recipenest-api/internal/audit"
	"github.com/recipenest/recipenest-api/internal/middleware"
	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/recipenest/recipenest-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type AdminHandlerTestSuite struct {
	suite.Suite
	api   *testAPI
	admin *models.User
}

func (s *AdminHandlerTestSuite) SetupTest() {
	s.api = newTestAPI(s.T(), generousLimits)
	s.admin = s.api.fx.CreateAdmin("Root")
}

func (s *AdminHandlerTestSuite) TestRoutesRequireAdmin() {
	chef := s.api.fx.CreateChef("Ana", refNow())

	for _, path := range []string{
		"/api/admin/users",
		"/api/admin/likes",
		"/api/admin/ratings",
		"/api/admin/follows",
		"/api/admin/activity",
		"/api/admin/audit",
	} {
		ensureStatus(s.T(), s.api.do(http.MethodGet, path, nil, nil), http.StatusUnauthorized)
		ensureStatus(s.T(), s.api.do(http.MethodGet, path, chef, nil), http.StatusForbidden)
		ensureStatus(s.T(), s.api.do(http.MethodGet, path, s.admin, nil), http.StatusOK)
	}
}

func (s *AdminHandlerTestSuite) TestUsersProjectByRole() {
	chef := s.api.fx.CreateChef("Ana", refNow())
	s.api.fx.CreateFoodLover("Bob", refNow())

	w := s.api.do(http.MethodGet, "/api/admin/users", s.admin, nil)
	ensureStatus(s.T(), w, http.StatusOK)
	var users []map[string]interface{}
	decode(s.T(), w, &users)
	assert.Len(s.T(), users, 2, "admins are not listed")

	w = s.api.do(http.MethodGet, "/api/admin/users/"+chef.ID.String(), s.admin, nil)
	ensureStatus(s.T(), w, http.StatusOK)
	var projected map[string]interface{}
	decode(s.T(), w, &projected)
	assert.Equal(s.T(), "Chef", projected["role"])
	assert.Contains(s.T(), projected, "recipesCount")

	w = s.api.do(http.MethodGet, "/api/admin/users/"+s.admin.ID.String(), s.admin, nil)
	ensureStatus(s.T(), w, http.StatusOK)

	ensureStatus(s.T(), s.api.do(http.MethodGet, "/api/admin/users/"+uuid.NewString(), s.admin, nil), http.StatusNotFound)
}

func (s *AdminHandlerTestSuite) TestDeleteUser() {
	chef := s.api.fx.CreateChef("Ana", refNow())
	recipe := s.api.fx.CreateRecipe(chef, "Tortilla", refNow())
	lover := s.api.fx.CreateFoodLover("Bob", refNow())
	s.api.fx.Like(lover, recipe, refNow())
	s.api.fx.Rate(lover, recipe, 5, "", refNow())
	s.api.fx.Follow(lover, chef, refNow())

	w := s.api.do(http.MethodDelete, "/api/admin/users/"+chef.ID.String(), s.admin, nil)
	ensureStatus(s.T(), w, http.StatusConflict)

	w = s.api.do(http.MethodDelete, "/api/admin/users/"+lover.ID.String(), s.admin, map[string]string{"reason": "abuse"})
	ensureStatus(s.T(), w, http.StatusOK)

	for _, model := range []interface{}{&models.RecipeLike{}, &models.Rating{}, &models.Follow{}} {
		var count int64
		s.api.db.DB.Model(model).Count(&count)
		assert.Zero(s.T(), count, "%T rows of the deleted user remain", model)
	}

	w = s.api.do(http.MethodGet, "/api/admin/audit", s.admin, nil)
	ensureStatus(s.T(), w, http.StatusOK)
	var entries []audit.Entry
	decode(s.T(), w, &entries)
	s.Require().Len(entries, 1)
	assert.Equal(s.T(), audit.ActionDeleteUser, entries[0].Action)
	assert.Equal(s.T(), "FoodLover", entries[0].TargetType)
	assert.Equal(s.T(), "Bob", entries[0].TargetName)

	ensureStatus(s.T(), s.api.do(http.MethodDelete, "/api/admin/users/"+s.admin.ID.String(), s.admin, nil), http.StatusForbidden)
}

func (s *AdminHandlerTestSuite) TestDeleteReasonIsBounded() {
	lover := s.api.fx.CreateFoodLover("Bob", refNow())
	path := "/api/admin/users/" + lover.ID.String()

	w := s.api.do(http.MethodDelete, path, s.admin, map[string]string{"reason": strings.Repeat("x", 501)})
	ensureStatus(s.T(), w, http.StatusBadRequest)
	assert.Equal(s.T(), "reason must be at most 500", errorMessage(s.T(), w))

	var count int64
	s.api.db.DB.Model(&models.User{}).Where("id = ?", lover.ID).Count(&count)
	assert.Equal(s.T(), int64(1), count)

	ensureStatus(s.T(), s.api.do(http.MethodDelete, path, s.admin, map[string]string{"reason": strings.Repeat("x", 500)}), http.StatusOK)

	w = s.api.do(http.MethodGet, "/api/admin/audit", s.admin, nil)
	ensureStatus(s.T(), w, http.StatusOK)
	var entries []audit.Entry
	decode(s.T(), w, &entries)
	s.Require().Len(entries, 1)
	assert.Len(s.T(), entries[0].Reason, 500)
}

func (s *AdminHandlerTestSuite) TestEngagementListings() {
	chef := s.api.fx.CreateChef("Ana", refNow())
	recipe := s.api.fx.CreateRecipe(chef, "Tortilla", refNow())
	for i := 0; i < 3; i++ {
		lover := s.api.fx.CreateFoodLover("Lover", refNow())
		s.api.fx.Like(lover, recipe, refNow())
	}

	w := s.api.do(http.MethodGet, "/api/admin/likes?limit=2", s.admin, nil)
	ensureStatus(s.T(), w, http.StatusOK)
	var likes []map[string]interface{}
	decode(s.T(), w, &likes)
	s.Require().Len(likes, 2)
	assert.Equal(s.T(), "Tortilla", likes[0]["recipeTitle"])
}

func (s *AdminHandlerTestSuite) TestActivityFeedNewestFirst() {
	base := testutil.DaysAgo(refNow(), 1, 8)
	chef := s.api.fx.CreateChef("Ana", base)
	recipe := s.api.fx.CreateRecipe(chef, "Tortilla", base.Add(time.Hour))
	lover := s.api.fx.CreateFoodLover("Bob", base.Add(2*time.Hour))
	s.api.fx.Follow(lover, chef, base.Add(3*time.Hour))
	s.api.fx.Like(lover, recipe, base.Add(4*time.Hour))
	s.api.fx.Rate(lover, recipe, 4, "", base.Add(5*time.Hour))

	w := s.api.do(http.MethodGet, "/api/admin/activity?limit=4", s.admin, nil)
	ensureStatus(s.T(), w, http.StatusOK)

	var feed []models.ActivityEvent
	decode(s.T(), w, &feed)
	s.Require().Len(feed, 4)
	assert.Equal(s.T(), models.ActivityRating, feed[0].Type)
	assert.Equal(s.T(), 4, feed[0].Stars)
	assert.Equal(s.T(), models.ActivityLike, feed[1].Type)
	assert.Equal(s.T(), models.ActivityFollow, feed[2].Type)
	assert.Equal(s.T(), "Ana", feed[2].Target)
	assert.Equal(s.T(), models.ActivityUser, feed[3].Type)
}

func (s *AdminHandlerTestSuite) TestAdminCanDeleteAnyRecipe() {
	chef := s.api.fx.CreateChef("Ana", refNow())
	recipe := s.api.fx.CreateRecipe(chef, "Tortilla", refNow())
	other := s.api.fx.CreateChef("Ben", refNow())

	ensureStatus(s.T(), s.api.do(http.MethodDelete, "/api/recipes/"+recipe.ID.String(), other, nil), http.StatusForbidden)
	ensureStatus(s.T(), s.api.do(http.MethodDelete, "/api/recipes/"+recipe.ID.String(), s.admin, nil), http.StatusOK)
}

func TestAdminHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerTestSuite))
}

func TestUnblockIP(t *testing.T) {
	api := newTestAPI(t, middleware.RateLimiterConfig{MaxRequests: 2, Window: time.Minute, BlockTime: 10 * time.Minute})
	admin := api.fx.CreateAdmin("Root")

	// httptest requests come from 192.0.2.1
	for i := 0; i < 2; i++ {
		ensureStatus(t, api.do(http.MethodGet, "/api/recipes", nil, nil), http.StatusOK)
	}
	blocked := api.do(http.MethodGet, "/api/recipes", nil, nil)
	ensureStatus(t, blocked, http.StatusTooManyRequests)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))

	// The admin request passes the limiter too, so it comes from another address
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/rate-limits/192.0.2.1", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	req.Header.Set("Authorization", "Bearer "+api.token(admin))
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	ensureStatus(t, w, http.StatusOK)

	ensureStatus(t, api.do(http.MethodGet, "/api/recipes", nil, nil), http.StatusOK)

	req = httptest.NewRequest(http.MethodDelete, "/api/admin/rate-limits/not-an-ip", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	req.Header.Set("Authorization", "Bearer "+api.token(admin))
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	ensureStatus(t, w, http.StatusBadRequest)
}
