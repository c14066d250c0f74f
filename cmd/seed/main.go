package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/recipenest/recipenest-api/internal/config"
	"github.com/recipenest/recipenest-api/internal/database"
	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/recipenest/recipenest-api/internal/repository"
	"github.com/recipenest/recipenest-api/internal/utils"
)

// seed creates the admin account. Admins cannot register through the API.
func main() {
	cfg := config.Load()
	database.Connect(cfg)
	database.Migrate()

	adminName := strings.TrimSpace(os.Getenv("ADMIN_NAME"))
	adminEmail := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminName == "" || adminEmail == "" || adminPassword == "" {
		log.Fatal("Missing environment variables: ADMIN_NAME, ADMIN_EMAIL, ADMIN_PASSWORD")
	}

	ctx := context.Background()
	users := repository.NewUserRepository(database.DB)

	existing, err := users.GetUserByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatal("Failed to look up admin:", err)
	}
	if existing != nil {
		if existing.Role != models.RoleAdmin {
			log.Fatalf("Email %s already belongs to a %s account", adminEmail, existing.Role)
		}
		log.Println("Admin user already exists:", existing.Name)
		log.Println("   Email:", existing.Email)
		return
	}

	passwordHash, err := utils.HashPassword(adminPassword)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	admin := &models.User{
		Name:         adminName,
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Role:         models.RoleAdmin,
	}
	if err := users.CreateUser(ctx, admin); err != nil {
		log.Fatal("Failed to create admin:", err)
	}

	log.Println("Admin user created successfully")
	log.Println("   Name:", admin.Name)
	log.Println("   Email:", admin.Email)
}
