package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/recipenest/recipenest-api/internal/service"
)

// EngagementHandler serves likes, ratings and follows.
type EngagementHandler struct {
	engagement *service.EngagementService
}

func NewEngagementHandler(engagement *service.EngagementService) *EngagementHandler {
	RegisterValidators()
	return &EngagementHandler{engagement: engagement}
}

type RateRequest struct {
	Stars   int     `json:"stars" binding:"required"`
	Comment *string `json:"comment"`
}

// POST /api/recipeactions/like/:recipeId
func (h *EngagementHandler) Like(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	recipeID, ok := pathUUID(c, "recipeId")
	if !ok {
		return
	}
	if err := h.engagement.Like(c.Request.Context(), who, recipeID); err != nil {
		respondError(c, err, "Failed to like recipe")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Recipe liked"})
}

// DELETE /api/recipeactions/like/:recipeId
func (h *EngagementHandler) Unlike(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	recipeID, ok := pathUUID(c, "recipeId")
	if !ok {
		return
	}
	if err := h.engagement.Unlike(c.Request.Context(), who, recipeID); err != nil {
		respondError(c, err, "Failed to unlike recipe")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recipe unliked"})
}

// POST /api/recipeactions/rate/:recipeId
func (h *EngagementHandler) Rate(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	recipeID, ok := pathUUID(c, "recipeId")
	if !ok {
		return
	}
	var req RateRequest
	if !bindJSON(c, &req) {
		return
	}

	rating, created, err := h.engagement.Rate(c.Request.Context(), who, recipeID, req.Stars, req.Comment)
	if err != nil {
		respondError(c, err, "Failed to rate recipe")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, rating)
}

// GET /api/recipeactions/likes/:recipeId
func (h *EngagementHandler) LikesForRecipe(c *gin.Context) {
	recipeID, ok := pathUUID(c, "recipeId")
	if !ok {
		return
	}
	likes, err := h.engagement.LikesForRecipe(c.Request.Context(), recipeID)
	if err != nil {
		respondError(c, err, "Failed to load likes")
		return
	}
	c.JSON(http.StatusOK, likes)
}

// GET /api/recipeactions/likes/by-user/:userId
func (h *EngagementHandler) LikesByUser(c *gin.Context) {
	userID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}
	likes, err := h.engagement.LikesByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to load likes")
		return
	}
	c.JSON(http.StatusOK, likes)
}

// GET /api/recipeactions/ratings/:recipeId
func (h *EngagementHandler) RatingsForRecipe(c *gin.Context) {
	recipeID, ok := pathUUID(c, "recipeId")
	if !ok {
		return
	}
	ratings, err := h.engagement.RatingsForRecipe(c.Request.Context(), recipeID)
	if err != nil {
		respondError(c, err, "Failed to load ratings")
		return
	}
	c.JSON(http.StatusOK, ratings)
}

// GET /api/recipeactions/ratings/by-user/:userId
func (h *EngagementHandler) RatingsByUser(c *gin.Context) {
	userID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}
	ratings, err := h.engagement.RatingsByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to load ratings")
		return
	}
	c.JSON(http.StatusOK, ratings)
}

// POST /api/follow/:chefId
func (h *EngagementHandler) Follow(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	chefID, ok := pathUUID(c, "chefId")
	if !ok {
		return
	}
	if err := h.engagement.Follow(c.Request.Context(), who, chefID); err != nil {
		respondError(c, err, "Failed to follow chef")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Chef followed"})
}

// DELETE /api/follow/:chefId
func (h *EngagementHandler) Unfollow(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	chefID, ok := pathUUID(c, "chefId")
	if !ok {
		return
	}
	if err := h.engagement.Unfollow(c.Request.Context(), who, chefID); err != nil {
		respondError(c, err, "Failed to unfollow chef")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chef unfollowed"})
}

// GET /api/follow/followers/:chefId
func (h *EngagementHandler) Followers(c *gin.Context) {
	chefID, ok := pathUUID(c, "chefId")
	if !ok {
		return
	}
	rows, err := h.engagement.Followers(c.Request.Context(), chefID)
	if err != nil {
		respondError(c, err, "Failed to load followers")
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GET /api/follow/following/:foodLoverId
func (h *EngagementHandler) Following(c *gin.Context) {
	foodLoverID, ok := pathUUID(c, "foodLoverId")
	if !ok {
		return
	}
	rows, err := h.engagement.Following(c.Request.Context(), foodLoverID)
	if err != nil {
		respondError(c, err, "Failed to load followed chefs")
		return
	}
	c.JSON(http.StatusOK, rows)
}
