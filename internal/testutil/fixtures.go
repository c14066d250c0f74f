package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/recipenest/recipenest-api/internal/utils"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every fixture user.
const DefaultPassword = "Password123"

// Cheap Argon2 settings for fixtures. VerifyPassword reads the params from
// the hash, so these users can still log in.
var fixtureParams = utils.Argon2Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

var (
	hashOnce    sync.Once
	fixtureHash string
)

func defaultPasswordHash(t *testing.T) string {
	hashOnce.Do(func() {
		h, err := utils.HashPasswordWithParams(DefaultPassword, fixtureParams)
		if err != nil {
			t.Fatalf("Failed to hash fixture password: %v", err)
		}
		fixtureHash = h
	})
	return fixtureHash
}

// Fixtures inserts rows with explicit timestamps. A zero time means now.
type Fixtures struct {
	DB *gorm.DB
	t  *testing.T
}

func NewFixtures(t *testing.T, db *gorm.DB) *Fixtures {
	return &Fixtures{DB: db, t: t}
}

func stamp(at time.Time) time.Time {
	if at.IsZero() {
		return time.Now().UTC()
	}
	return at.UTC()
}

// BeforeNextCreate commits row just before the next insert into table opens
// its transaction, the way a concurrent request would. It fires once.
func (f *Fixtures) BeforeNextCreate(table string, row interface{}) {
	f.t.Helper()
	fired := false
	err := f.DB.Callback().Create().Before("gorm:begin_transaction").
		Register("testutil:before_next_create", func(tx *gorm.DB) {
			if fired || tx.Statement.Table != table {
				return
			}
			fired = true
			if err := tx.Session(&gorm.Session{NewDB: true}).Create(row).Error; err != nil {
				f.t.Errorf("Failed to insert competing %T: %v", row, err)
			}
		})
	if err != nil {
		f.t.Fatalf("Failed to register create callback: %v", err)
	}
}

func (f *Fixtures) create(value interface{}) {
	f.t.Helper()
	if err := f.DB.Create(value).Error; err != nil {
		f.t.Fatalf("Failed to create fixture %T: %v", value, err)
	}
}

func (f *Fixtures) CreateUser(name string, role models.Role, at time.Time) *models.User {
	f.t.Helper()
	user := &models.User{
		Name:         name,
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: defaultPasswordHash(f.t),
		Role:         role,
		CreatedAt:    stamp(at),
	}
	f.create(user)
	return user
}

func (f *Fixtures) CreateChef(name string, at time.Time) *models.User {
	f.t.Helper()
	return f.CreateUser(name, models.RoleChef, at)
}

func (f *Fixtures) CreateFoodLover(name string, at time.Time) *models.User {
	f.t.Helper()
	return f.CreateUser(name, models.RoleFoodLover, at)
}

func (f *Fixtures) CreateAdmin(name string) *models.User {
	f.t.Helper()
	return f.CreateUser(name, models.RoleAdmin, time.Time{})
}

func (f *Fixtures) CreateRecipe(chef *models.User, title string, at time.Time) *models.Recipe {
	f.t.Helper()
	recipe := &models.Recipe{
		ChefID:       chef.ID,
		Title:        title,
		Ingredients:  "flour, water, salt",
		Instructions: "mix and bake",
		CreatedAt:    stamp(at),
	}
	f.create(recipe)
	return recipe
}

func (f *Fixtures) Like(user *models.User, recipe *models.Recipe, at time.Time) *models.RecipeLike {
	f.t.Helper()
	like := &models.RecipeLike{UserID: user.ID, RecipeID: recipe.ID, CreatedAt: stamp(at)}
	f.create(like)
	return like
}

func (f *Fixtures) Rate(user *models.User, recipe *models.Recipe, stars int, comment string, at time.Time) *models.Rating {
	f.t.Helper()
	rating := &models.Rating{UserID: user.ID, RecipeID: recipe.ID, Stars: stars, CreatedAt: stamp(at)}
	if comment != "" {
		rating.Comment = &comment
	}
	f.create(rating)
	return rating
}

func (f *Fixtures) Follow(follower, chef *models.User, at time.Time) *models.Follow {
	f.t.Helper()
	follow := &models.Follow{FollowerID: follower.ID, FollowingID: chef.ID, FollowedAt: stamp(at)}
	f.create(follow)
	return follow
}
