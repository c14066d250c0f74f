package service_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/recipenest/recipenest-api/internal/audit"
	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/recipenest/recipenest-api/internal/repository"
	"github.com/recipenest/recipenest-api/internal/service"
	"github.com/recipenest/recipenest-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type RecipeServiceTestSuite struct {
	suite.Suite
	testDB    *testutil.TestDatabase
	fx        *testutil.Fixtures
	images    *memoryImageStore
	journal   *audit.Journal
	publisher *recordingPublisher
	recipes   *service.RecipeService
	ctx       context.Context

	chef *models.User
}

func (s *RecipeServiceTestSuite) SetupTest() {
	s.testDB = testutil.SetupTestDatabase(s.T())
	s.fx = testutil.NewFixtures(s.T(), s.testDB.DB)
	s.ctx = context.Background()
	s.images = newMemoryImageStore()
	s.publisher = &recordingPublisher{}

	journal, err := audit.Open(filepath.Join(s.T().TempDir(), "audit.log"))
	s.Require().NoError(err)
	s.journal = journal

	s.recipes = service.NewRecipeService(
		repository.NewRecipeRepository(s.testDB.DB),
		repository.NewUserRepository(s.testDB.DB),
		s.images,
		s.publisher,
		s.journal,
	)
	s.chef = s.fx.CreateChef("Ana", refNow)
}

func (s *RecipeServiceTestSuite) TearDownTest() {
	s.journal.Close()
	s.testDB.Teardown(s.T())
}

func validInput() service.RecipeInput {
	return service.RecipeInput{Title: "Paella", Ingredients: "rice, saffron", Instructions: "cook slowly"}
}

func (s *RecipeServiceTestSuite) TestCreate() {
	recipe, err := s.recipes.Create(s.ctx, chefCaller(s.chef), validInput(), &service.ImageUpload{
		Filename: "paella.png",
		Content:  strings.NewReader("png"),
	})
	s.Require().NoError(err)
	assert.Equal(s.T(), s.chef.ID, recipe.ChefID)
	assert.NotEmpty(s.T(), recipe.ImageURL)
	assert.Equal(s.T(), "png", s.images.saved[recipe.ImageURL])

	events := s.publisher.Events()
	s.Require().Len(events, 1)
	assert.Equal(s.T(), models.ActivityRecipe, events[0].Type)
	assert.Equal(s.T(), "Ana", events[0].User)
	assert.Equal(s.T(), "Paella", events[0].Recipe)
}

func (s *RecipeServiceTestSuite) TestCreate_Rejections() {
	fl := s.fx.CreateFoodLover("Bob", refNow)
	_, err := s.recipes.Create(s.ctx, foodLoverCaller(fl), validInput(), nil)
	assert.ErrorIs(s.T(), err, service.ErrForbidden)

	in := validInput()
	in.Title = "   "
	_, err = s.recipes.Create(s.ctx, chefCaller(s.chef), in, nil)
	assert.ErrorIs(s.T(), err, service.ErrValidation)

	_, err = s.recipes.Create(s.ctx, chefCaller(s.chef), validInput(), &service.ImageUpload{
		Filename: "bad.exe",
		Content:  strings.NewReader("x"),
	})
	assert.ErrorIs(s.T(), err, service.ErrValidation)
}

func (s *RecipeServiceTestSuite) TestUpdate_OwnerOnlyAndImageReplaced() {
	recipe, err := s.recipes.Create(s.ctx, chefCaller(s.chef), validInput(), &service.ImageUpload{
		Filename: "old.png",
		Content:  strings.NewReader("old"),
	})
	s.Require().NoError(err)
	oldURL := recipe.ImageURL

	other := s.fx.CreateChef("Ben", refNow)
	_, err = s.recipes.Update(s.ctx, chefCaller(other), recipe.ID, validInput(), nil)
	assert.ErrorIs(s.T(), err, service.ErrForbidden)

	in := validInput()
	in.Title = "Seafood Paella"
	updated, err := s.recipes.Update(s.ctx, chefCaller(s.chef), recipe.ID, in, &service.ImageUpload{
		Filename: "new.png",
		Content:  strings.NewReader("new"),
	})
	s.Require().NoError(err)
	assert.Equal(s.T(), "Seafood Paella", updated.Title)
	assert.NotEqual(s.T(), oldURL, updated.ImageURL)
	assert.NotNil(s.T(), updated.UpdatedAt)
	assert.Contains(s.T(), s.images.deleted, oldURL)

	reloaded, err := s.recipes.Get(s.ctx, recipe.ID)
	s.Require().NoError(err)
	assert.Equal(s.T(), "Seafood Paella", reloaded.Title)

	_, err = s.recipes.Update(s.ctx, chefCaller(s.chef), uuid.New(), in, nil)
	assert.ErrorIs(s.T(), err, service.ErrRecipeNotFound)
}

func (s *RecipeServiceTestSuite) TestDelete_ByOwnerRemovesEngagement() {
	recipe := s.fx.CreateRecipe(s.chef, "Tortilla", refNow)
	fl := s.fx.CreateFoodLover("Bob", refNow)
	s.fx.Like(fl, recipe, refNow)
	s.fx.Rate(fl, recipe, 5, "", refNow)

	other := s.fx.CreateChef("Ben", refNow)
	assert.ErrorIs(s.T(), s.recipes.Delete(s.ctx, chefCaller(other), recipe.ID, ""), service.ErrForbidden)

	s.Require().NoError(s.recipes.Delete(s.ctx, chefCaller(s.chef), recipe.ID, ""))

	_, err := s.recipes.Get(s.ctx, recipe.ID)
	assert.ErrorIs(s.T(), err, service.ErrRecipeNotFound)

	var likes, ratings int64
	s.testDB.DB.Model(&models.RecipeLike{}).Count(&likes)
	s.testDB.DB.Model(&models.Rating{}).Count(&ratings)
	assert.Zero(s.T(), likes)
	assert.Zero(s.T(), ratings)

	entries, err := s.journal.Recent(0)
	s.Require().NoError(err)
	assert.Empty(s.T(), entries, "owner deletions are not moderation")
}

func (s *RecipeServiceTestSuite) TestDelete_ByAdminIsJournaled() {
	recipe := s.fx.CreateRecipe(s.chef, "Tortilla", refNow)
	admin := s.fx.CreateAdmin("Root")

	s.Require().NoError(s.recipes.Delete(s.ctx, adminCaller(admin), recipe.ID, "spam"))

	entries, err := s.journal.Recent(0)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	assert.Equal(s.T(), audit.ActionDeleteRecipe, entries[0].Action)
	assert.Equal(s.T(), recipe.ID.String(), entries[0].TargetID)
	assert.Equal(s.T(), "Tortilla", entries[0].TargetName)
	assert.Equal(s.T(), "spam", entries[0].Reason)
	assert.Equal(s.T(), admin.ID.String(), entries[0].ActorID)
}

func (s *RecipeServiceTestSuite) TestListings() {
	for i := 0; i < 7; i++ {
		s.fx.CreateRecipe(s.chef, "Dish", refNow.Add(time.Duration(i)*time.Hour))
	}
	other := s.fx.CreateChef("Ben", refNow)
	s.fx.CreateRecipe(other, "Other", refNow)

	recent, err := s.recipes.Recent(s.ctx, chefCaller(s.chef))
	s.Require().NoError(err)
	s.Require().Len(recent, 5)
	assert.True(s.T(), recent[0].CreatedAt.After(recent[4].CreatedAt))

	byChef, err := s.recipes.ListByChef(s.ctx, s.chef.ID)
	s.Require().NoError(err)
	assert.Len(s.T(), byChef, 7)

	all, err := s.recipes.List(s.ctx)
	s.Require().NoError(err)
	assert.Len(s.T(), all, 8)

	_, err = s.recipes.ListByChef(s.ctx, uuid.New())
	assert.ErrorIs(s.T(), err, service.ErrChefNotFound)
}

func TestRecipeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeServiceTestSuite))
}
