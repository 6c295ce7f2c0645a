package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Customizations are the options a customer picked for a line, e.g. {"size": "large"}.
type Customizations map[string]string

// Merge overwrites keys of c with those of other and returns the result.
// Keys absent from other are kept.
func (c Customizations) Merge(other Customizations) Customizations {
	merged := make(Customizations, len(c)+len(other))
	for k, v := range c {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

type Cart struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	UserID       uint        `json:"user_id" gorm:"uniqueIndex;not null"`
	RestaurantID *uint       `json:"restaurant_id"`
	Restaurant   *Restaurant `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	Items        []CartItem  `json:"items" gorm:"foreignKey:CartID"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// TotalItems is the number of units across all lines.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// Total prices every line at the menu item's current price.
// Items must be loaded with their MenuItem.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

type CartItem struct {
	ID             uint                               `json:"id" gorm:"primaryKey"`
	CartID         uint                               `json:"cart_id" gorm:"not null;uniqueIndex:idx_cart_menu_item"`
	MenuItemID     uint                               `json:"menu_item_id" gorm:"not null;uniqueIndex:idx_cart_menu_item"`
	MenuItem       *MenuItem                          `json:"menu_item,omitempty" gorm:"foreignKey:MenuItemID"`
	Quantity       int                                `json:"quantity" gorm:"not null;default:1"`
	Customizations datatypes.JSONType[Customizations] `json:"customizations"`
	AddedAt        time.Time                          `json:"added_at" gorm:"autoCreateTime"`
}

// LineTotal is quantity times the current menu price, zero when MenuItem is not loaded.
func (i *CartItem) LineTotal() decimal.Decimal {
	if i.MenuItem == nil {
		return decimal.Zero
	}
	return i.MenuItem.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
