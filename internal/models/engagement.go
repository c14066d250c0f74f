package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecipeLike is a set member: at most one row per (user, recipe).
type RecipeLike struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"userId"`
	RecipeID  uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"recipeId"`
	CreatedAt time.Time `gorm:"index" json:"likedAt"`

	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
}

// Rating is unique per (user, recipe); rating again revises the row.
type Rating struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"ratingId"`
	RecipeID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_rating_user_recipe,priority:2;index" json:"recipeId"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_rating_user_recipe,priority:1" json:"userId"`
	Stars     int        `gorm:"not null" json:"stars"`
	Comment   *string    `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updatedAt,omitempty"`

	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
}

func (r *Rating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Follow is a directed edge from a FoodLover (follower) to a Chef (following).
type Follow struct {
	FollowerID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"followerId"`
	FollowingID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"followingId"`
	FollowedAt  time.Time `gorm:"index" json:"followedAt"`

	Follower  *User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Following *User `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"-"`
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.FollowedAt.IsZero() {
		f.FollowedAt = tx.NowFunc()
	}
	return nil
}
