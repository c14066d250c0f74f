package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/recipenest/recipenest-api/internal/handler"
	"github.com/recipenest/recipenest-api/internal/middleware"
	"github.com/recipenest/recipenest-api/internal/models"
)

// Handlers groups the HTTP handlers the API is assembled from.
type Handlers struct {
	Auth           *handler.AuthHandler
	Profiles       *handler.ProfileHandler
	Stats          *handler.StatsHandler
	Recipes        *handler.RecipeHandler
	Engagement     *handler.EngagementHandler
	Admin          *handler.AdminHandler
	ActivityStream *handler.ActivityStreamHandler
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	IsProduction   bool

	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *middleware.RateLimiter

	// UploadsPrefix is the URL path uploaded images are served under,
	// UploadsDir the directory they live in.
	UploadsPrefix string
	UploadsDir    string
}

// New builds the gin engine with the middleware chain and every route.
func New(h Handlers, opts Options) *gin.Engine {
	handler.RegisterValidators()

	r := gin.New()
	r.MaxMultipartMemory = handler.MaxImageBytes

	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.SecurityHeadersMiddleware(),
		middleware.HSTSMiddleware(opts.IsProduction),
		cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if opts.UploadsPrefix != "" && opts.UploadsDir != "" {
		r.Static(opts.UploadsPrefix, opts.UploadsDir)
	}

	api := r.Group("/api")
	if opts.RateLimiter != nil {
		api.Use(opts.RateLimiter.Middleware())
	}

	auth := middleware.AuthMiddleware(opts.JWTSecret)
	chefOnly := middleware.RequireRoles(models.RoleChef)
	foodLoverOnly := middleware.RequireRoles(models.RoleFoodLover)
	member := middleware.RequireRoles(models.RoleChef, models.RoleFoodLover)

	// Auth
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register/chef", h.Auth.RegisterChef)
		authGroup.POST("/register/foodlover", h.Auth.RegisterFoodLover)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.PUT("/change-password", auth, member, h.Auth.ChangePassword)
		authGroup.DELETE("/delete-account", auth, member, h.Auth.DeleteAccount)
	}

	// Chefs
	chefs := api.Group("/chefs")
	{
		chefs.GET("", h.Profiles.ListChefs)
		chefs.GET("/stats", auth, chefOnly, h.Stats.ChefStats)
		chefs.GET("/analytics/:id", auth, middleware.RequireRoles(models.RoleChef, models.RoleAdmin), h.Stats.ChefAnalytics)
		chefs.GET("/recent-recipes", auth, chefOnly, h.Recipes.Recent)
		chefs.PUT("/profile", auth, chefOnly, h.Profiles.UpdateChefProfile)
		chefs.GET("/:id", h.Profiles.GetChef)
	}

	// Food lovers
	lovers := api.Group("/foodlovers")
	{
		lovers.GET("", h.Profiles.ListFoodLovers)
		lovers.GET("/:id", h.Profiles.GetFoodLover)
	}

	// Recipes
	recipes := api.Group("/recipes")
	{
		recipes.GET("", h.Recipes.List)
		recipes.GET("/by-chef/:chefId", h.Recipes.ListByChef)
		recipes.GET("/:id", h.Recipes.Get)
		recipes.POST("", auth, chefOnly, h.Recipes.Create)
		recipes.PUT("/:id", auth, chefOnly, h.Recipes.Update)
		recipes.DELETE("/:id", auth, middleware.RequireRoles(models.RoleChef, models.RoleAdmin), h.Recipes.Delete)
	}

	// Likes and ratings
	actions := api.Group("/recipeactions")
	{
		actions.POST("/like/:recipeId", auth, foodLoverOnly, h.Engagement.Like)
		actions.DELETE("/like/:recipeId", auth, foodLoverOnly, h.Engagement.Unlike)
		actions.POST("/rate/:recipeId", auth, foodLoverOnly, h.Engagement.Rate)
		actions.GET("/likes/by-user/:userId", h.Engagement.LikesByUser)
		actions.GET("/likes/:recipeId", h.Engagement.LikesForRecipe)
		actions.GET("/ratings/by-user/:userId", h.Engagement.RatingsByUser)
		actions.GET("/ratings/:recipeId", h.Engagement.RatingsForRecipe)
	}

	// Follows. Self-follow is answered by the service before any role check,
	// so POST only requires authentication here.
	follow := api.Group("/follow")
	{
		follow.GET("/followers/:chefId", h.Engagement.Followers)
		follow.GET("/following/:foodLoverId", h.Engagement.Following)
		follow.POST("/:chefId", auth, h.Engagement.Follow)
		follow.DELETE("/:chefId", auth, foodLoverOnly, h.Engagement.Unfollow)
	}

	// Admin
	admin := api.Group("/admin", auth, middleware.AdminMiddleware())
	{
		admin.GET("/overview", h.Stats.AdminOverview)
		admin.GET("/users", h.Admin.ListUsers)
		admin.GET("/users/:id", h.Admin.GetUser)
		admin.DELETE("/users/:id", h.Admin.DeleteUser)
		admin.GET("/likes", h.Admin.ListLikes)
		admin.GET("/ratings", h.Admin.ListRatings)
		admin.GET("/follows", h.Admin.ListFollows)
		admin.GET("/activity", h.Admin.Activity)
		admin.GET("/audit", h.Admin.AuditTrail)
		admin.DELETE("/rate-limits/:ip", h.Admin.UnblockIP)
		if h.ActivityStream != nil {
			admin.GET("/activity/ws", h.ActivityStream.Stream)
		}
	}

	return r
}
