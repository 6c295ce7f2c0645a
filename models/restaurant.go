package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PriceRange is the "$" to "$$$$" band shown on listings.
type PriceRange string

const (
	PriceBudget     PriceRange = "$"
	PriceModerate   PriceRange = "$$"
	PriceExpensive  PriceRange = "$$$"
	PriceFineDining PriceRange = "$$$$"
)

func (p PriceRange) Valid() bool {
	switch p {
	case PriceBudget, PriceModerate, PriceExpensive, PriceFineDining:
		return true
	}
	return false
}

// DailyHours is one day of a restaurant's opening schedule.
type DailyHours struct {
	Day    string `json:"day" binding:"required"`
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed,omitempty"`
}

type Restaurant struct {
	ID           uint                            `json:"id" gorm:"primaryKey"`
	OwnerID      *uint                           `json:"owner_id" gorm:"index"`
	Owner        *User                           `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Name         string                          `json:"name" gorm:"size:200;not null"`
	Slug         string                          `json:"slug" gorm:"size:255;uniqueIndex;not null"`
	Description  string                          `json:"description"`
	CuisineType  string                          `json:"cuisine_type" gorm:"size:100;index"`
	Address      string                          `json:"address"`
	Phone        string                          `json:"phone_number" gorm:"size:15"`
	Email        string                          `json:"email"`
	Website      string                          `json:"website"`
	ImageURL     string                          `json:"image"`
	Rating       decimal.Decimal                 `json:"rating" gorm:"type:decimal(3,2)"`
	PriceRange   PriceRange                      `json:"price_range" gorm:"size:20"`
	OpeningHours datatypes.JSONSlice[DailyHours] `json:"opening_hours"`
	Features     datatypes.JSONSlice[string]     `json:"features"`
	DeliveryFee  decimal.Decimal                 `json:"delivery_fee" gorm:"type:decimal(6,2)"`
	DeliveryTime string                          `json:"delivery_time" gorm:"default:'30-45 min'"`
	MinOrder     decimal.Decimal                 `json:"min_order" gorm:"type:decimal(8,2)"`
	IsActive     bool                            `json:"is_active"`
	Categories   []MenuCategory                  `json:"categories,omitempty" gorm:"foreignKey:RestaurantID"`
	MenuItems    []MenuItem                      `json:"menu_items,omitempty" gorm:"foreignKey:RestaurantID"`
	Reviews      []RestaurantReview              `json:"reviews,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt    time.Time                       `json:"created_at"`
	UpdatedAt    time.Time                       `json:"updated_at"`
}

// HasFeature reports whether the restaurant advertises feature.
func (r *Restaurant) HasFeature(feature string) bool {
	for _, f := range r.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// MealPeriod tags a menu category with the part of the day it is served.
type MealPeriod string

const (
	MealBreakfast MealPeriod = "breakfast"
	MealBrunch    MealPeriod = "brunch"
	MealLunch     MealPeriod = "lunch"
	MealSupper    MealPeriod = "supper"
	MealDinner    MealPeriod = "dinner"
	MealAllDay    MealPeriod = "all_day"
)

// MealPeriodInfo is the display metadata of a meal period.
type MealPeriodInfo struct {
	Period      MealPeriod `json:"period"`
	DisplayName string     `json:"display_name"`
	TimeRange   string     `json:"time_range"`
}

// MealPeriods lists the periods in the order a menu shows them.
var MealPeriods = []MealPeriodInfo{
	{MealBreakfast, "Breakfast", "06:00-10:30"},
	{MealBrunch, "Brunch", "10:00-14:00"},
	{MealLunch, "Lunch", "11:30-15:00"},
	{MealSupper, "Supper", "16:00-18:30"},
	{MealDinner, "Dinner", "18:00-22:00"},
	{MealAllDay, "All Day", "Served all day"},
}

func (m MealPeriod) Valid() bool {
	for _, p := range MealPeriods {
		if p.Period == m {
			return true
		}
	}
	return false
}

type MenuCategory struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	RestaurantID uint       `json:"restaurant_id" gorm:"not null;index"`
	Name         string     `json:"name" gorm:"size:100;not null"`
	Description  string     `json:"description"`
	ImageURL     string     `json:"image"`
	MealPeriod   MealPeriod `json:"meal_period" gorm:"size:20;default:'all_day'"`
	DisplayOrder int        `json:"display_order" gorm:"default:0"`
	Items        []MenuItem `json:"items,omitempty" gorm:"foreignKey:CategoryID"`
}

// Ingredient is one structured entry of a menu item's recipe.
type Ingredient struct {
	Name     string `json:"name" binding:"required"`
	Quantity string `json:"quantity,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// NutritionFacts are per-serving values; nil means not published.
type NutritionFacts struct {
	Calories     *int     `json:"calories,omitempty"`
	ProteinGrams *float64 `json:"protein_g,omitempty"`
	CarbsGrams   *float64 `json:"carbs_g,omitempty"`
	FatGrams     *float64 `json:"fat_g,omitempty"`
	FiberGrams   *float64 `json:"fiber_g,omitempty"`
	SodiumMg     *int     `json:"sodium_mg,omitempty"`
}

type MenuItem struct {
	ID              uint                                `json:"id" gorm:"primaryKey"`
	RestaurantID    uint                                `json:"restaurant_id" gorm:"not null;index"`
	Restaurant      *Restaurant                         `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	CategoryID      uint                                `json:"category_id" gorm:"not null;index"`
	Name            string                              `json:"name" gorm:"size:200;not null"`
	Slug            string                              `json:"slug" gorm:"size:255;uniqueIndex;not null"`
	Description     string                              `json:"description"`
	Price           decimal.Decimal                     `json:"price" gorm:"type:decimal(8,2);not null"`
	ImageURL        string                              `json:"image"`
	Ingredients     datatypes.JSONSlice[Ingredient]     `json:"ingredients"`
	Allergens       datatypes.JSONSlice[string]         `json:"allergens"`
	Nutrition       datatypes.JSONType[NutritionFacts]  `json:"nutritional_info"`
	IsAvailable     bool                                `json:"is_available"`
	IsVegetarian    bool                                `json:"is_vegetarian"`
	IsVegan         bool                                `json:"is_vegan"`
	IsGlutenFree    bool                                `json:"is_gluten_free"`
	SpiceLevel      int                                 `json:"spice_level"`
	PrepTimeMinutes int                                 `json:"prep_time"`
	CreatedAt       time.Time                           `json:"created_at"`
	UpdatedAt       time.Time                           `json:"updated_at"`
}

type RestaurantReview struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"not null;uniqueIndex:idx_review_restaurant_user"`
	UserID       uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_review_restaurant_user"`
	User         *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Rating       int       `json:"rating" gorm:"not null"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
