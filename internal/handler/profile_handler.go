package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/recipenest/recipenest-api/internal/service"
)

type ProfileHandler struct {
	profiles *service.ProfileService
}

func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	RegisterValidators()
	return &ProfileHandler{profiles: profiles}
}

type UpdateChefProfileRequest struct {
	Name string `json:"name" binding:"required,notblank"`
	Bio  string `json:"bio"`
}

// GET /api/chefs
func (h *ProfileHandler) ListChefs(c *gin.Context) {
	chefs, err := h.profiles.ListChefs(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load chefs")
		return
	}
	c.JSON(http.StatusOK, chefs)
}

// GET /api/chefs/:id
func (h *ProfileHandler) GetChef(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	chef, err := h.profiles.ChefProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to load chef profile")
		return
	}
	c.JSON(http.StatusOK, chef)
}

// GET /api/foodlovers
func (h *ProfileHandler) ListFoodLovers(c *gin.Context) {
	lovers, err := h.profiles.ListFoodLovers(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load food lovers")
		return
	}
	c.JSON(http.StatusOK, lovers)
}

// GET /api/foodlovers/:id
func (h *ProfileHandler) GetFoodLover(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	lover, err := h.profiles.FoodLoverProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to load food lover profile")
		return
	}
	c.JSON(http.StatusOK, lover)
}

// PUT /api/chefs/profile
func (h *ProfileHandler) UpdateChefProfile(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req UpdateChefProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	chef, err := h.profiles.UpdateChefProfile(c.Request.Context(), who, req.Name, req.Bio)
	if err != nil {
		respondError(c, err, "Failed to update chef profile")
		return
	}
	c.JSON(http.StatusOK, chef)
}
