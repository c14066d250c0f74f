package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/recipenest/recipenest-api/internal/service"
	"github.com/recipenest/recipenest-api/pkg/logger"
	"go.uber.org/zap"
)

// MaxImageBytes caps a single recipe image upload.
const MaxImageBytes = 5 << 20

type RecipeHandler struct {
	recipes *service.RecipeService
}

func NewRecipeHandler(recipes *service.RecipeService) *RecipeHandler {
	RegisterValidators()
	return &RecipeHandler{recipes: recipes}
}

// RecipeRequest binds from JSON or from multipart form fields.
type RecipeRequest struct {
	Title        string `form:"title" json:"title" binding:"required,notblank"`
	Ingredients  string `form:"ingredients" json:"ingredients" binding:"required,notblank"`
	Instructions string `form:"instructions" json:"instructions" binding:"required,notblank"`
}

// ReasonRequest carries the optional reason of a moderation action.
type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// GET /api/recipes
func (h *RecipeHandler) List(c *gin.Context) {
	recipes, err := h.recipes.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load recipes")
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// GET /api/recipes/:id
func (h *RecipeHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	recipe, err := h.recipes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to load recipe")
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// GET /api/recipes/by-chef/:chefId
func (h *RecipeHandler) ListByChef(c *gin.Context) {
	chefID, ok := pathUUID(c, "chefId")
	if !ok {
		return
	}
	recipes, err := h.recipes.ListByChef(c.Request.Context(), chefID)
	if err != nil {
		respondError(c, err, "Failed to load recipes")
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// GET /api/chefs/recent-recipes
func (h *RecipeHandler) Recent(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	recipes, err := h.recipes.Recent(c.Request.Context(), who)
	if err != nil {
		respondError(c, err, "Failed to load recent recipes")
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// POST /api/recipes
func (h *RecipeHandler) Create(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	in, image, ok := h.bindRecipe(c)
	if !ok {
		return
	}

	defer closeUpload(image)

	recipe, err := h.recipes.Create(c.Request.Context(), who, in, image)
	if err != nil {
		respondError(c, err, "Failed to create recipe")
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// PUT /api/recipes/:id
func (h *RecipeHandler) Update(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	in, image, ok := h.bindRecipe(c)
	if !ok {
		return
	}

	defer closeUpload(image)

	recipe, err := h.recipes.Update(c.Request.Context(), who, id, in, image)
	if err != nil {
		respondError(c, err, "Failed to update recipe")
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// DELETE /api/recipes/:id
func (h *RecipeHandler) Delete(c *gin.Context) {
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

	if err := h.recipes.Delete(c.Request.Context(), who, id, req.Reason); err != nil {
		respondError(c, err, "Failed to delete recipe")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recipe deleted successfully"})
}

// bindRecipe reads the recipe fields and, for multipart requests, the
// optional "image" part. Callers close the upload with closeUpload.
func (h *RecipeHandler) bindRecipe(c *gin.Context) (service.RecipeInput, *service.ImageUpload, bool) {
	var req RecipeRequest
	multipart := c.ContentType() == binding.MIMEMultipartPOSTForm

	if multipart {
		if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				c.JSON(http.StatusBadRequest, gin.H{"error": describeValidation(verrs)})
			} else {
				invalidBody(c, err)
			}
			return service.RecipeInput{}, nil, false
		}
	} else if !bindJSON(c, &req) {
		return service.RecipeInput{}, nil, false
	}

	in := service.RecipeInput{Title: req.Title, Ingredients: req.Ingredients, Instructions: req.Instructions}
	if !multipart {
		return in, nil, true
	}

	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, true
	}
	if err != nil {
		invalidBody(c, err)
		return in, nil, false
	}
	if header.Size > MaxImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is too large"})
		return in, nil, false
	}

	file, err := header.Open()
	if err != nil {
		logger.Log.Error("Failed to open uploaded image",
			zap.String("filename", header.Filename),
			zap.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "image could not be read"})
		return in, nil, false
	}
	return in, &service.ImageUpload{Filename: header.Filename, Content: file}, true
}

func closeUpload(image *service.ImageUpload) {
	if image == nil {
		return
	}
	if closer, ok := image.Content.(io.Closer); ok {
		_ = closer.Close()
	}
}
