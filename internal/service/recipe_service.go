package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/recipenest/recipenest-api/internal/audit"
	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/recipenest/recipenest-api/internal/repository"
	"github.com/recipenest/recipenest-api/pkg/logger"
	"go.uber.org/zap"
)

const recentRecipesLimit = 5

// ImageStore persists uploaded recipe images. storage.FileStore satisfies it.
type ImageStore interface {
	Save(filename string, r io.Reader) (string, error)
	Delete(url string) error
}

// AuditJournal records moderation actions. audit.Journal satisfies it.
type AuditJournal interface {
	Append(entry audit.Entry) error
	Recent(limit int) ([]audit.Entry, error)
}

type RecipeInput struct {
	Title        string
	Ingredients  string
	Instructions string
}

// ImageUpload is an optional image attached to a create or update.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

type RecipeService struct {
	recipeRepo *repository.RecipeRepository
	userRepo   *repository.UserRepository
	images     ImageStore
	publisher  ActivityPublisher
	journal    AuditJournal
	now        func() time.Time
}

func NewRecipeService(
	recipeRepo *repository.RecipeRepository,
	userRepo *repository.UserRepository,
	images ImageStore,
	publisher ActivityPublisher,
	journal AuditJournal,
) *RecipeService {
	return &RecipeService{
		recipeRepo: recipeRepo,
		userRepo:   userRepo,
		images:     images,
		publisher:  publisher,
		journal:    journal,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *RecipeService) Create(ctx context.Context, caller Caller, in RecipeInput, image *ImageUpload) (*models.Recipe, error) {
	if !caller.Is(models.RoleChef) {
		return nil, ErrForbidden
	}
	in, err := normalizeRecipeInput(in)
	if err != nil {
		return nil, err
	}

	chef, err := s.userRepo.GetUserByIDAndRole(ctx, caller.UserID, models.RoleChef)
	if err != nil {
		return nil, err
	}
	if chef == nil {
		return nil, ErrChefNotFound
	}

	recipe := &models.Recipe{
		ChefID:       chef.ID,
		Title:        in.Title,
		Ingredients:  in.Ingredients,
		Instructions: in.Instructions,
	}

	if image != nil {
		url, err := s.saveImage(image)
		if err != nil {
			return nil, err
		}
		recipe.ImageURL = url
	}

	if err := s.recipeRepo.CreateRecipe(ctx, recipe); err != nil {
		logger.Log.Error("Failed to create recipe",
			zap.String("chef_id", chef.ID.String()),
			zap.Error(err),
		)
		s.discardImage(recipe.ImageURL)
		return nil, err
	}
	recipe.Chef = chef

	publishActivity(ctx, s.publisher, models.ActivityEvent{
		Type:   models.ActivityRecipe,
		Date:   recipe.CreatedAt,
		User:   chef.Name,
		Recipe: recipe.Title,
	})

	logger.Log.Info("Recipe created",
		zap.String("recipe_id", recipe.ID.String()),
		zap.String("chef_id", chef.ID.String()),
		zap.Bool("has_image", recipe.ImageURL != ""),
	)
	return recipe, nil
}

func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.recipeRepo.GetRecipeByID(ctx, id)
	if err != nil {
		logger.Log.Error("Failed to get recipe",
			zap.String("recipe_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}
	if recipe == nil {
		return nil, ErrRecipeNotFound
	}
	return recipe, nil
}

func (s *RecipeService) List(ctx context.Context) ([]models.Recipe, error) {
	return s.recipeRepo.ListRecipes(ctx, 0)
}

func (s *RecipeService) ListByChef(ctx context.Context, chefID uuid.UUID) ([]models.Recipe, error) {
	chef, err := s.userRepo.GetUserByIDAndRole(ctx, chefID, models.RoleChef)
	if err != nil {
		return nil, err
	}
	if chef == nil {
		return nil, ErrChefNotFound
	}
	return s.recipeRepo.ListRecipesByChef(ctx, chefID, 0)
}

// Recent returns the calling chef's newest recipes.
func (s *RecipeService) Recent(ctx context.Context, caller Caller) ([]models.Recipe, error) {
	if !caller.Is(models.RoleChef) {
		return nil, ErrForbidden
	}
	return s.recipeRepo.ListRecipesByChef(ctx, caller.UserID, recentRecipesLimit)
}

// Update is allowed for the owning chef only. A new image replaces the old.
func (s *RecipeService) Update(ctx context.Context, caller Caller, id uuid.UUID, in RecipeInput, image *ImageUpload) (*models.Recipe, error) {
	in, err := normalizeRecipeInput(in)
	if err != nil {
		return nil, err
	}

	recipe, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Is(models.RoleChef) || recipe.ChefID != caller.UserID {
		logger.Log.Warn("Recipe update denied",
			zap.String("recipe_id", id.String()),
			zap.String("user_id", caller.UserID.String()),
		)
		return nil, ErrForbidden
	}

	oldImage := recipe.ImageURL
	if image != nil {
		url, err := s.saveImage(image)
		if err != nil {
			return nil, err
		}
		recipe.ImageURL = url
	}

	now := s.now()
	recipe.Title = in.Title
	recipe.Ingredients = in.Ingredients
	recipe.Instructions = in.Instructions
	recipe.UpdatedAt = &now

	if err := s.recipeRepo.UpdateRecipe(ctx, recipe); err != nil {
		logger.Log.Error("Failed to update recipe",
			zap.String("recipe_id", id.String()),
			zap.Error(err),
		)
		if recipe.ImageURL != oldImage {
			s.discardImage(recipe.ImageURL)
		}
		return nil, err
	}
	if recipe.ImageURL != oldImage {
		s.discardImage(oldImage)
	}

	logger.Log.Info("Recipe updated",
		zap.String("recipe_id", id.String()),
	)
	return recipe, nil
}

// Delete is allowed for the owning chef or an admin. Likes and ratings of
// the recipe go with it. Admin deletions are journaled.
func (s *RecipeService) Delete(ctx context.Context, caller Caller, id uuid.UUID, reason string) error {
	recipe, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	owner := caller.Is(models.RoleChef) && recipe.ChefID == caller.UserID
	if !owner && !caller.IsAdmin() {
		logger.Log.Warn("Recipe delete denied",
			zap.String("recipe_id", id.String()),
			zap.String("user_id", caller.UserID.String()),
		)
		return ErrForbidden
	}

	if err := s.recipeRepo.DeleteRecipe(ctx, id); err != nil {
		logger.Log.Error("Failed to delete recipe",
			zap.String("recipe_id", id.String()),
			zap.Error(err),
		)
		return err
	}
	s.discardImage(recipe.ImageURL)

	if caller.IsAdmin() {
		recordModeration(s.journal, audit.Entry{
			ActorID:    caller.UserID.String(),
			Action:     audit.ActionDeleteRecipe,
			TargetType: "recipe",
			TargetID:   id.String(),
			TargetName: recipe.Title,
			Reason:     reason,
		})
	}

	logger.Log.Info("Recipe deleted",
		zap.String("recipe_id", id.String()),
		zap.String("deleted_by", caller.UserID.String()),
		zap.Bool("moderation", caller.IsAdmin()),
	)
	return nil
}

func (s *RecipeService) saveImage(image *ImageUpload) (string, error) {
	if s.images == nil {
		return "", validationError("image uploads are disabled")
	}
	url, err := s.images.Save(image.Filename, image.Content)
	if err != nil {
		logger.Log.Warn("Failed to store recipe image",
			zap.String("filename", image.Filename),
			zap.Error(err),
		)
		return "", validationError("could not store image: %v", err)
	}
	return url, nil
}

func (s *RecipeService) discardImage(url string) {
	if url == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(url); err != nil {
		logger.Log.Warn("Failed to remove recipe image",
			zap.String("image_url", url),
			zap.Error(err),
		)
	}
}

func normalizeRecipeInput(in RecipeInput) (RecipeInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Ingredients = strings.TrimSpace(in.Ingredients)
	in.Instructions = strings.TrimSpace(in.Instructions)

	switch {
	case in.Title == "":
		return in, validationError("title is required")
	case len(in.Title) > 100:
		return in, validationError("title must be at most 100 characters")
	case in.Ingredients == "":
		return in, validationError("ingredients are required")
	case in.Instructions == "":
		return in, validationError("instructions are required")
	}
	return in, nil
}

// recordModeration journals an action that already happened. A journal
// failure is logged, the action stands.
func recordModeration(journal AuditJournal, entry audit.Entry) {
	if journal == nil {
		return
	}
	if err := journal.Append(entry); err != nil {
		logger.Log.Error("Failed to journal moderation action",
			zap.String("action", string(entry.Action)),
			zap.String("target_id", entry.TargetID),
			zap.Error(err),
		)
	}
}
