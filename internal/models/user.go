package models

import "time"

// User represents a forum account as seen by the role oracle
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Name      string    `gorm:"type:varchar(64);not null;uniqueIndex:forum_users_ux1;column:name"`
	Admin     bool      `gorm:"not null;default:false;column:admin"`
	Role      int16     `gorm:"type:smallint;not null;default:0;column:role"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "forum_users"
}

// Role constants
const (
	RoleStudent    int16 = 0 // Regular participant
	RoleInstructor int16 = 4 // Instructor: elevated pin/unpin and comment highlighting
)

// Moderator grants a user moderator standing in one category
type Moderator struct {
	CategoryID int64     `gorm:"primaryKey;column:category_id"`
	UserID     int64     `gorm:"primaryKey;column:user_id"`
	CreatedAt  time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID;references:ID"`
	User     *User     `gorm:"foreignKey:UserID;references:ID"`
}

// TableName specifies the table name for Moderator
func (Moderator) TableName() string {
	return "forum_moderators"
}
