package handler

import (
	"context"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/recipenest/recipenest-api/internal/middleware"
	"github.com/recipenest/recipenest-api/internal/service"
	"github.com/recipenest/recipenest-api/pkg/logger"
	"go.uber.org/zap"
)

// RateLimitResetter lifts a rate-limit block. middleware.RateLimiter
// satisfies it.
type RateLimitResetter interface {
	Unblock(ctx context.Context, ip string) error
}

type AdminHandler struct {
	admin   *service.AdminService
	limiter RateLimitResetter
}

func NewAdminHandler(admin *service.AdminService, limiter RateLimitResetter) *AdminHandler {
	return &AdminHandler{
		admin:   admin,
		limiter: limiter,
	}
}

// GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	logger.Log.Info("Admin fetching all users",
		zap.String("request_id", middleware.RequestIDFrom(c)),
	)

	users, err := h.admin.Users(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// GET /api/admin/users/:id
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	user, err := h.admin.User(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to fetch user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req ReasonRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	if err := h.admin.DeleteUser(c.Request.Context(), who, id, req.Reason); err != nil {
		respondError(c, err, "Failed to delete user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// GET /api/admin/likes
func (h *AdminHandler) ListLikes(c *gin.Context) {
	rows, err := h.admin.Likes(c.Request.Context(), queryLimit(c))
	if err != nil {
		respondError(c, err, "Failed to fetch likes")
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GET /api/admin/ratings
func (h *AdminHandler) ListRatings(c *gin.Context) {
	rows, err := h.admin.Ratings(c.Request.Context(), queryLimit(c))
	if err != nil {
		respondError(c, err, "Failed to fetch ratings")
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GET /api/admin/follows
func (h *AdminHandler) ListFollows(c *gin.Context) {
	rows, err := h.admin.Follows(c.Request.Context(), queryLimit(c))
	if err != nil {
		respondError(c, err, "Failed to fetch follows")
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GET /api/admin/activity
func (h *AdminHandler) Activity(c *gin.Context) {
	feed, err := h.admin.ActivityFeed(c.Request.Context(), queryLimit(c))
	if err != nil {
		respondError(c, err, "Failed to load activity")
		return
	}
	c.JSON(http.StatusOK, feed)
}

// GET /api/admin/audit
func (h *AdminHandler) AuditTrail(c *gin.Context) {
	entries, err := h.admin.AuditTrail(queryLimit(c))
	if err != nil {
		respondError(c, err, "Failed to load audit trail")
		return
	}
	c.JSON(http.StatusOK, entries)
}

// DELETE /api/admin/rate-limits/:ip
func (h *AdminHandler) UnblockIP(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	ip := c.Param("ip")
	if net.ParseIP(ip) == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ip"})
		return
	}
	if h.limiter == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "rate limiting is disabled"})
		return
	}

	if err := h.limiter.Unblock(c.Request.Context(), ip); err != nil {
		respondError(c, err, "Failed to lift rate limit")
		return
	}

	logger.Log.Info("Rate limit lifted",
		zap.String("ip", ip),
		zap.String("admin_id", who.UserID.String()),
	)
	c.JSON(http.StatusOK, gin.H{"message": "Rate limit lifted"})
}
