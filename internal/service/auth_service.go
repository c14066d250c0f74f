package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/recipenest/recipenest-api/internal/repository"
	"github.com/recipenest/recipenest-api/internal/utils"
	"github.com/recipenest/recipenest-api/pkg/logger"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Bio      string
}

type AuthService struct {
	userRepo      *repository.UserRepository
	statsRepo     *repository.StatsRepository
	publisher     ActivityPublisher
	jwtSecret     string
	jwtExpiration time.Duration
	environment   string
	now           func() time.Time
}

func NewAuthService(
	userRepo *repository.UserRepository,
	statsRepo *repository.StatsRepository,
	publisher ActivityPublisher,
	jwtSecret string,
	jwtExpiration time.Duration,
	environment string,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		statsRepo:     statsRepo,
		publisher:     publisher,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		environment:   environment,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// IsProduction returns true if running in production environment
func (s *AuthService) IsProduction() bool {
	return s.environment == "production"
}

// TokenTTL is how long issued tokens stay valid.
func (s *AuthService) TokenTTL() time.Duration {
	return s.jwtExpiration
}

func (s *AuthService) RegisterChef(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	return s.register(ctx, models.RoleChef, in)
}

// RegisterFoodLover ignores in.Bio.
func (s *AuthService) RegisterFoodLover(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	in.Bio = ""
	return s.register(ctx, models.RoleFoodLover, in)
}

func (s *AuthService) register(ctx context.Context, role models.Role, in RegisterInput) (*models.User, string, error) {
	start := time.Now()

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Bio = strings.TrimSpace(in.Bio)

	logger.Log.Debug("Processing user registration",
		zap.String("email", in.Email),
		zap.String("role", string(role)),
	)

	// 1. Validate input
	if err := s.validateRegisterInput(in); err != nil {
		logger.Log.Warn("Registration validation failed",
			zap.String("email", in.Email),
			zap.Error(err),
		)
		return nil, "", err
	}

	// 2. Check if email already exists
	existingUser, err := s.userRepo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		logger.Log.Error("Failed to check email existence",
			zap.String("email", in.Email),
			zap.Error(err),
		)
		return nil, "", err
	}
	if existingUser != nil {
		logger.Log.Warn("Email already exists",
			zap.String("email", in.Email),
		)
		return nil, "", ErrEmailAlreadyExists
	}

	// 3. Hash password (Argon2)
	hashStart := time.Now()
	hashedPassword, err := utils.HashPassword(in.Password)
	if err != nil {
		logger.Log.Error("Failed to hash password",
			zap.Error(err),
		)
		return nil, "", err
	}
	hashDuration := time.Since(hashStart)

	// 4. Create user
	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hashedPassword,
		Role:         role,
		Bio:          in.Bio,
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, "", ErrEmailAlreadyExists
		}
		logger.Log.Error("Failed to create user in database",
			zap.String("email", in.Email),
			zap.Error(err),
		)
		return nil, "", err
	}

	// 5. Generate JWT token
	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, "", err
	}

	publishActivity(ctx, s.publisher, models.ActivityEvent{
		Type: models.ActivityUser,
		Date: user.CreatedAt,
		User: user.Name,
	})

	logger.Log.Info("User registered successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(role)),
		zap.Duration("hash_duration", hashDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	start := time.Now()
	email = strings.ToLower(strings.TrimSpace(email))

	logger.Log.Debug("Processing user login",
		zap.String("email", email),
	)

	// 1. Get user by email
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		logger.Log.Error("Failed to get user by email",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}
	if user == nil {
		logger.Log.Warn("Login failed: user not found",
			zap.String("email", email),
		)
		return nil, "", ErrInvalidCredentials
	}

	// 2. Verify password
	verifyStart := time.Now()
	valid, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		logger.Log.Error("Failed to verify password",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}
	verifyDuration := time.Since(verifyStart)

	if !valid {
		logger.Log.Warn("Login failed: invalid password",
			zap.String("email", email),
			zap.String("user_id", user.ID.String()),
		)
		return nil, "", ErrInvalidCredentials
	}

	// 3. Record the login
	now := s.now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		logger.Log.Error("Failed to update last login",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, "", err
	}
	user.LastLoginAt = &now

	// 4. Generate JWT token
	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, "", err
	}

	logger.Log.Info("User logged in successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
		zap.Duration("password_verify_duration", verifyDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return user, token, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, caller Caller, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetUserByID(ctx, caller.UserID)
	if err != nil {
		logger.Log.Error("Failed to get user",
			zap.String("user_id", caller.UserID.String()),
			zap.Error(err),
		)
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	valid, err := utils.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return err
	}
	if !valid {
		logger.Log.Warn("Password change rejected: wrong current password",
			zap.String("user_id", user.ID.String()),
		)
		return ErrInvalidCredentials
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hashedPassword, err := utils.HashPassword(newPassword)
	if err != nil {
		logger.Log.Error("Failed to hash password", zap.Error(err))
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashedPassword, s.now()); err != nil {
		logger.Log.Error("Failed to update password",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return err
	}

	logger.Log.Info("Password changed",
		zap.String("user_id", user.ID.String()),
	)
	return nil
}

// DeleteAccount removes the caller. Admin accounts are managed by the seed
// command and cannot delete themselves here.
func (s *AuthService) DeleteAccount(ctx context.Context, caller Caller) error {
	if caller.IsAdmin() {
		return ErrForbidden
	}

	user, err := removeUser(ctx, s.userRepo, s.statsRepo, caller.UserID)
	if err != nil {
		return err
	}

	logger.Log.Info("Account deleted by owner",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
	)
	return nil
}

func (s *AuthService) validateRegisterInput(in RegisterInput) error {
	if in.Name == "" {
		return validationError("name is required")
	}
	if len(in.Name) > 100 {
		return validationError("name must be at most 100 characters")
	}

	if !emailRegex.MatchString(in.Email) {
		return validationError("invalid email format")
	}
	if len(in.Email) > 100 {
		return validationError("email too long")
	}

	return validatePassword(in.Password)
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return validationError("password must be at least 8 characters")
	}
	if len(password) > 128 {
		return validationError("password too long")
	}
	return nil
}
