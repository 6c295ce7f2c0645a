package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleCustomer            UserRole = "customer"
	RoleVendor              UserRole = "vendor"
	RoleDelivery            UserRole = "delivery"
	RoleRestaurantStaff     UserRole = "restaurant_staff"
	RoleRestaurantManager   UserRole = "restaurant_manager"
	RoleRestaurantOwner     UserRole = "restaurant_owner"
	RolePlatformAdmin       UserRole = "platform_admin"
	RoleSupportAgent        UserRole = "support_agent"
	RoleContentModerator    UserRole = "content_moderator"
	RoleMarketingSpecialist UserRole = "marketing_specialist"
	RoleFinanceManager      UserRole = "finance_manager"
	RoleDataAnalyst         UserRole = "data_analyst"
)

// RoleInfo describes a role for the registration screen.
type RoleInfo struct {
	Value       UserRole `json:"value"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
}

// Roles lists every role in display order.
var Roles = []RoleInfo{
	{RoleCustomer, "Customer", "Order food from restaurants and enjoy delivery services"},
	{RoleVendor, "Food Vendor", "Own and manage restaurants, create menus, and handle orders"},
	{RoleDelivery, "Delivery Service Provider", "Deliver orders to customers and earn money"},
	{RoleRestaurantStaff, "Restaurant Staff", "Work in restaurants as chef, server, cashier, etc."},
	{RoleRestaurantManager, "Restaurant Manager", "Manage restaurant operations and staff"},
	{RoleRestaurantOwner, "Restaurant Owner", "Own multiple restaurants and manage business"},
	{RolePlatformAdmin, "Platform Administrator", "Administer the entire platform and manage users"},
	{RoleSupportAgent, "Customer Support Agent", "Help customers with their questions and issues"},
	{RoleContentModerator, "Content Moderator", "Review and moderate content on the platform"},
	{RoleMarketingSpecialist, "Marketing Specialist", "Create marketing campaigns and promotions"},
	{RoleFinanceManager, "Finance Manager", "Manage financial operations and reporting"},
	{RoleDataAnalyst, "Data Analyst", "Analyze data and create business insights"},
}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	for _, info := range Roles {
		if info.Value == r {
			return true
		}
	}
	return false
}

// Label returns the human readable role name.
func (r UserRole) Label() string {
	for _, info := range Roles {
		if info.Value == r {
			return info.Label
		}
	}
	return string(r)
}

// IsRestaurantStaff covers the three restaurant-side employee roles.
func (r UserRole) IsRestaurantStaff() bool {
	return r == RoleRestaurantStaff || r == RoleRestaurantManager || r == RoleRestaurantOwner
}

// CanManageRestaurants reports whether the role may own or edit restaurants.
func (r UserRole) CanManageRestaurants() bool {
	switch r {
	case RoleVendor, RoleRestaurantManager, RoleRestaurantOwner, RolePlatformAdmin:
		return true
	}
	return false
}

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountPending   AccountStatus = "pending"
	AccountSuspended AccountStatus = "suspended"
	AccountInactive  AccountStatus = "inactive"
	AccountBanned    AccountStatus = "banned"
)

type User struct {
	ID                    uint                        `json:"id" gorm:"primaryKey"`
	Username              string                      `json:"username" gorm:"uniqueIndex;size:150;not null"`
	Email                 string                      `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash          string                      `json:"-" gorm:"not null"`
	FirstName             string                      `json:"first_name"`
	LastName              string                      `json:"last_name"`
	Phone                 string                      `json:"phone"`
	Role                  UserRole                    `json:"role" gorm:"not null;default:'customer';index"`
	AccountStatus         AccountStatus               `json:"account_status" gorm:"not null;default:'active';index"`
	EmailVerified         bool                        `json:"email_verified"`
	EmailVerifiedAt       *time.Time                  `json:"email_verified_at"`
	PhoneVerified         bool                        `json:"phone_verified"`
	IdentityVerified      bool                        `json:"identity_verified"`
	BackgroundCheckPassed bool                        `json:"background_check_passed"`
	DietaryPreferences    datatypes.JSONSlice[string] `json:"dietary_preferences"`
	LoyaltyPoints         int                         `json:"loyalty_points"`
	LastLoginAt           *time.Time                  `json:"last_login_at"`
	CreatedAt             time.Time                   `json:"created_at" gorm:"index"`
	UpdatedAt             time.Time                   `json:"updated_at"`
}

// FullName falls back to the username when no name is set.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// CanLogin reports whether the account status allows authentication.
func (u *User) CanLogin() bool {
	return u.AccountStatus == AccountActive || u.AccountStatus == AccountPending
}

// CanDeliverOrders mirrors the onboarding requirements for couriers.
func (u *User) CanDeliverOrders() bool {
	return u.Role == RoleDelivery && u.AccountStatus == AccountActive && u.BackgroundCheckPassed
}

// RevokedToken is the SQL-backed denylist entry written on logout.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;size:64"`
	UserID    uint      `gorm:"index"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}
