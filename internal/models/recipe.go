package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Recipe struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"recipeId"`
	ChefID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"chefId"`
	Title        string     `gorm:"type:varchar(100);not null" json:"title"`
	Ingredients  string     `gorm:"type:text;not null" json:"ingredients"`
	Instructions string     `gorm:"type:text;not null" json:"instructions"`
	ImageURL     string     `gorm:"type:varchar(255)" json:"imageUrl"`
	CreatedAt    time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt    *time.Time `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"`

	// Deleting a chef that still owns recipes is refused
	Chef *User `gorm:"foreignKey:ChefID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
