package models

import (
	"time"

	"gorm.io/datatypes"
)

// Social records are stored and migrated; no endpoints expose them yet.

type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"not null;uniqueIndex:idx_follow_pair"`
	FollowingID uint      `json:"following_id" gorm:"not null;uniqueIndex:idx_follow_pair"`
	CreatedAt   time.Time `json:"created_at"`
}

type Post struct {
	ID           uint                        `json:"id" gorm:"primaryKey"`
	AuthorID     uint                        `json:"author_id" gorm:"not null;index"`
	RestaurantID *uint                       `json:"restaurant_id" gorm:"index"`
	MenuItemID   *uint                       `json:"menu_item_id"`
	Content      string                      `json:"content"`
	ImageURLs    datatypes.JSONSlice[string] `json:"images"`
	Rating       *int                        `json:"rating"`
	IsPublic     bool                        `json:"is_public"`
	CreatedAt    time.Time                   `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_like_user_post"`
	PostID    uint      `json:"post_id" gorm:"not null;uniqueIndex:idx_like_user_post"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"not null;index"`
	AuthorID  uint      `json:"author_id" gorm:"not null"`
	ParentID  *uint     `json:"parent_id" gorm:"index"`
	Replies   []Comment `json:"replies,omitempty" gorm:"foreignKey:ParentID"`
	Content   string    `json:"content" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DiningGroup struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	Description string    `json:"description"`
	CreatorID   uint      `json:"creator_id" gorm:"not null"`
	IsPrivate   bool      `json:"is_private"`
	MaxMembers  int       `json:"max_members" gorm:"default:50"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type GroupMembership struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	UserID   uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_group_member"`
	GroupID  uint      `json:"group_id" gorm:"not null;uniqueIndex:idx_group_member"`
	Role     string    `json:"role" gorm:"size:20;default:'member'"`
	JoinedAt time.Time `json:"joined_at" gorm:"autoCreateTime"`
}

// Favorite points at either a restaurant or a menu item.
type Favorite struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_fav_restaurant;uniqueIndex:idx_fav_menu_item"`
	RestaurantID *uint     `json:"restaurant_id" gorm:"uniqueIndex:idx_fav_restaurant"`
	MenuItemID   *uint     `json:"menu_item_id" gorm:"uniqueIndex:idx_fav_menu_item"`
	CreatedAt    time.Time `json:"created_at"`
}

// All returns every persisted model in migration order.
func All() []any {
	return []any{
		&User{},
		&UserProfile{},
		&CustomerProfile{},
		&VendorProfile{},
		&DeliveryProfile{},
		&StaffProfile{},
		&UserVerification{},
		&RevokedToken{},
		&Restaurant{},
		&MenuCategory{},
		&MenuItem{},
		&RestaurantReview{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&OrderTracking{},
		&Follow{},
		&Post{},
		&Like{},
		&Comment{},
		&DiningGroup{},
		&GroupMembership{},
		&Favorite{},
	}
}
