package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/recipenest/recipenest-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret        = "test-secret-key-for-jwt-testing"
	testWrongSecret   = "wrong-secret-key-for-jwt-testing"
	testTokenDuration = 1 * time.Hour
)

func createTestUser(role models.Role) *models.User {
	return &models.User{
		ID:    uuid.New(),
		Name:  "Ana",
		Email: "ana@example.com",
		Role:  role,
	}
}

func TestGenerateToken_RoundTripPerRole(t *testing.T) {
	roles := []models.Role{models.RoleChef, models.RoleFoodLover, models.RoleAdmin}

	for _, role := range roles {
		t.Run(string(role), func(t *testing.T) {
			// Arrange
			user := createTestUser(role)

			// Act
			token, err := GenerateToken(user, testSecret, testTokenDuration)
			require.NoError(t, err)
			claims, err := ValidateToken(token, testSecret)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, user.ID, claims.UserID)
			assert.Equal(t, user.Email, claims.Email)
			assert.Equal(t, user.Name, claims.Name)
			assert.Equal(t, role, claims.Role)
			assert.Equal(t, user.ID.String(), claims.Subject)
		})
	}
}

func TestValidateToken_Expired(t *testing.T) {
	token, err := GenerateToken(createTestUser(models.RoleChef), testSecret, -time.Hour)
	require.NoError(t, err, "Setup: GenerateToken should not fail")

	claims, err := ValidateToken(token, testSecret)

	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken(createTestUser(models.RoleChef), testSecret, testTokenDuration)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testWrongSecret)

	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestValidateToken_Malformed(t *testing.T) {
	invalidTokens := []string{
		"",
		"invalid.token.here",
		"not-a-jwt-token",
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9",
	}

	for _, invalid := range invalidTokens {
		t.Run(invalid, func(t *testing.T) {
			claims, err := ValidateToken(invalid, testSecret)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestValidateToken_Tampered(t *testing.T) {
	token, err := GenerateToken(createTestUser(models.RoleFoodLover), testSecret, testTokenDuration)
	require.NoError(t, err)

	tampered := token[:len(token)-5] + "XXXXX"

	claims, err := ValidateToken(tampered, testSecret)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestValidateToken_RejectsNilUser(t *testing.T) {
	user := createTestUser(models.RoleChef)
	user.ID = uuid.Nil
	token, err := GenerateToken(user, testSecret, testTokenDuration)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}
