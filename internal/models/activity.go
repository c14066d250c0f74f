package models

import "time"

type ActivityType string

const (
	ActivityUser   ActivityType = "user"
	ActivityRecipe ActivityType = "recipe"
	ActivityLike   ActivityType = "like"
	ActivityFollow ActivityType = "follow"
	ActivityRating ActivityType = "rating"
)

// ActivityEvent is one entry of the admin activity feed. It is derived from
// the entity tables and never stored; User, Recipe and Target hold display
// names, not ids.
type ActivityEvent struct {
	Type   ActivityType `json:"type"`
	Date   time.Time    `json:"date"`
	User   string       `json:"user"`
	Recipe string       `json:"recipe,omitempty"`
	Target string       `json:"target,omitempty"`
	Stars  int          `json:"stars,omitempty"`
}
