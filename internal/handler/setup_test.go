package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/recipenest/recipenest-api/internal/audit"
	"github.com/recipenest/recipenest-api/internal/broker"
	"github.com/recipenest/recipenest-api/internal/handler"
	"github.com/recipenest/recipenest-api/internal/middleware"
	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/recipenest/recipenest-api/internal/repository"
	"github.com/recipenest/recipenest-api/internal/router"
	"github.com/recipenest/recipenest-api/internal/service"
	"github.com/recipenest/recipenest-api/internal/storage"
	"github.com/recipenest/recipenest-api/internal/testutil"
	"github.com/recipenest/recipenest-api/internal/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testSecret = "handler-test-secret"

// testAPI is the whole HTTP stack over an in-memory database and miniredis.
type testAPI struct {
	t       *testing.T
	db      *testutil.TestDatabase
	redis   *testutil.TestRedis
	fx      *testutil.Fixtures
	journal *audit.Journal
	images  *storage.FileStore
	broker  *broker.RedisActivityBroker
	limiter *middleware.RateLimiter
	stream  *handler.ActivityStreamHandler
	router  *gin.Engine
}

func newTestAPI(t *testing.T, limits middleware.RateLimiterConfig) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := &testAPI{t: t}
	api.db = testutil.SetupTestDatabase(t)
	api.redis = testutil.SetupTestRedis(t)
	api.fx = testutil.NewFixtures(t, api.db.DB)

	dir := t.TempDir()
	var err error
	api.journal, err = audit.Open(filepath.Join(dir, "audit.log"))
	require.NoError(t, err)
	api.images, err = storage.NewFileStore(filepath.Join(dir, "images"), "/uploads/recipe-images")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: api.redis.Server.Addr()})
	api.broker = broker.NewRedisActivityBrokerFromClient(client)
	api.limiter = middleware.NewRateLimiter(client, limits)

	userRepo := repository.NewUserRepository(api.db.DB)
	recipeRepo := repository.NewRecipeRepository(api.db.DB)
	engagementRepo := repository.NewEngagementRepository(api.db.DB)
	statsRepo := repository.NewStatsRepository(api.db.DB)

	profiles := service.NewProfileService(userRepo, statsRepo)
	api.stream = handler.NewActivityStreamHandler(api.broker, []string{"http://localhost:5173"})

	handlers := router.Handlers{
		Auth:       handler.NewAuthHandler(service.NewAuthService(userRepo, statsRepo, api.broker, testSecret, time.Hour, "development")),
		Profiles:   handler.NewProfileHandler(profiles),
		Stats:      handler.NewStatsHandler(service.NewStatsService(statsRepo, userRepo, 7)),
		Recipes:    handler.NewRecipeHandler(service.NewRecipeService(recipeRepo, userRepo, api.images, api.broker, api.journal)),
		Engagement: handler.NewEngagementHandler(service.NewEngagementService(userRepo, recipeRepo, engagementRepo, api.broker)),
		Admin: handler.NewAdminHandler(
			service.NewAdminService(userRepo, recipeRepo, engagementRepo, statsRepo, profiles, api.journal),
			api.limiter,
		),
		ActivityStream: api.stream,
	}

	api.router = router.New(handlers, router.Options{
		JWTSecret:      testSecret,
		AllowedOrigins: []string{"http://localhost:5173"},
		RateLimiter:    api.limiter,
		UploadsPrefix:  api.images.URLPrefix(),
		UploadsDir:     api.images.BasePath(),
	})

	t.Cleanup(func() {
		_ = client.Close()
		_ = api.journal.Close()
		api.redis.Teardown(t)
		api.db.Teardown(t)
	})
	return api
}

// generousLimits keeps the rate limiter out of the way of ordinary tests.
var generousLimits = middleware.RateLimiterConfig{MaxRequests: 10000, Window: time.Minute, BlockTime: time.Minute}

func (api *testAPI) token(user *models.User) string {
	api.t.Helper()
	token, err := utils.GenerateToken(user, testSecret, time.Hour)
	require.NoError(api.t, err)
	return token
}

// do sends a JSON request. A nil user sends no Authorization header.
func (api *testAPI) do(method, path string, user *models.User, body interface{}) *httptest.ResponseRecorder {
	api.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(api.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+api.token(user))
	}

	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), "body: %s", w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	decode(t, w, &body)
	msg, _ := body["error"].(string)
	return msg
}

func ensureStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, "body: %s", w.Body.String())
}

// refNow is the real clock; the HTTP stack computes "today" from it.
func refNow() time.Time {
	return time.Now().UTC()
}
