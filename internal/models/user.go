package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleChef      Role = "Chef"
	RoleFoodLover Role = "FoodLover"
	RoleAdmin     Role = "Admin"
)

// User is the single-table base of the user hierarchy. Role is fixed at
// creation and selects which profile projection applies.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string     `gorm:"type:varchar(100);not null" json:"name"`
	Email        string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"` // Never expose password hash in JSON
	Role         Role       `gorm:"type:varchar(20);not null;index" json:"role"`
	Bio          string     `gorm:"type:text" json:"bio,omitempty"` // Chef only
	CreatedAt    time.Time  `gorm:"index" json:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLogin,omitempty"`
	UpdatedAt    *time.Time `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) IsChef() bool { return u.Role == RoleChef }
