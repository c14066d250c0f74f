package database

import (
	"fmt"
	"log"
	"time"

	"github.com/recipenest/recipenest-api/internal/config"
	"github.com/recipenest/recipenest-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Open returns a gorm handle for the given driver. All timestamps are
// written in UTC so day bucketing is independent of the host timezone.
// Driver errors are translated, so unique violations surface as
// gorm.ErrDuplicatedKey on both drivers.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres", "":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	return gorm.Open(dialector, &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
}

func Connect(cfg *config.Config) {
	var err error

	DB, err = Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect database:", err)
	}

	log.Println("Database connect successfully")
}

// AutoMigrate creates or updates every table of the entity store.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Recipe{},
		&models.RecipeLike{},
		&models.Rating{},
		&models.Follow{},
	)
}

func Migrate() {
	if err := AutoMigrate(DB); err != nil {
		log.Fatal("Migration failed:", err)
	}

	log.Println("Database migration completed")
}
