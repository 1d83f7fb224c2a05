package models

import "time"

// Category represents a category as seen by the ACL oracle. Listing data
// (topic counts, recent topic) is denormalized into the keyed store, not
// here.
type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Name      string    `gorm:"type:varchar(64);not null;column:name"`
	Slug      string    `gorm:"type:varchar(64);not null;uniqueIndex:forum_categories_ux1;column:slug"`
	Disabled  bool      `gorm:"not null;default:false;column:disabled"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Category
func (Category) TableName() string {
	return "forum_categories"
}

// CategoryPrivilege grants one named privilege in one category. A zero
// UserID grants the privilege to everyone.
type CategoryPrivilege struct {
	CategoryID int64  `gorm:"primaryKey;column:category_id"`
	UserID     int64  `gorm:"primaryKey;column:user_id"`
	Privilege  string `gorm:"type:varchar(32);primaryKey;column:privilege"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID;references:ID"`
}

// TableName specifies the table name for CategoryPrivilege
func (CategoryPrivilege) TableName() string {
	return "forum_category_privileges"
}
