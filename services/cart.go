package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"food-marketplace-api/apperr"
	"food-marketplace-api/models"
)

// CartService keeps each customer's single-restaurant cart.
type CartService struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewCartService(db *gorm.DB, log zerolog.Logger) *CartService {
	return &CartService{db: db, log: log}
}

type AddItemInput struct {
	MenuItemID     uint                  `json:"menu_item_id" binding:"required"`
	Quantity       int                   `json:"quantity"`
	Customizations models.Customizations `json:"customizations"`
}

type UpdateItemInput struct {
	ItemID         uint                  `json:"item_id" binding:"required"`
	Quantity       int                   `json:"quantity"`
	Customizations models.Customizations `json:"customizations"`
}

// GetOrCreate returns the user's cart, creating an empty one on first use.
func (s *CartService) GetOrCreate(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart *models.Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		cart, err = cartFor(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, cart.ID)
}

// AddItem puts quantity units of a menu item in the cart. A cart holds items
// of one restaurant only; adding the same item again raises its quantity.
func (s *CartService) AddItem(ctx context.Context, userID uint, in AddItemInput) (*models.Cart, error) {
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}
	var cartID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.MenuItem
		if err := tx.First(&item, in.MenuItemID).Error; err != nil {
			return notFoundOr(err, "menu item %d not found", in.MenuItemID)
		}
		if !item.IsAvailable {
			return apperr.Validation("%s is currently unavailable", item.Name).With("menu_item_id", item.ID)
		}

		cart, err := cartFor(tx, userID)
		if err != nil {
			return err
		}
		cartID = cart.ID

		if cart.RestaurantID != nil && *cart.RestaurantID != item.RestaurantID {
			return apperr.Conflict("Cannot add items from different restaurants. Please clear cart first.").
				With("current_restaurant", *cart.RestaurantID).
				With("new_restaurant", item.RestaurantID)
		}
		if cart.RestaurantID == nil {
			if err := tx.Model(cart).Update("restaurant_id", item.RestaurantID).Error; err != nil {
				return err
			}
		}

		var line models.CartItem
		err = tx.Where("cart_id = ? AND menu_item_id = ?", cart.ID, item.ID).First(&line).Error
		switch {
		case err == nil:
			line.Quantity += in.Quantity
			line.Customizations = datatypes.NewJSONType(line.Customizations.Data().Merge(in.Customizations))
			return tx.Save(&line).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			line = models.CartItem{
				CartID:         cart.ID,
				MenuItemID:     item.ID,
				Quantity:       in.Quantity,
				Customizations: datatypes.NewJSONType(models.Customizations{}.Merge(in.Customizations)),
			}
			return tx.Create(&line).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Uint("user_id", userID).Uint("menu_item_id", in.MenuItemID).Int("quantity", in.Quantity).Msg("cart item added")
	return s.load(ctx, cartID)
}

// UpdateItem sets the quantity of one line. A quantity of zero removes the
// line; non-nil customizations replace the stored ones.
func (s *CartService) UpdateItem(ctx context.Context, userID uint, in UpdateItemInput) (*models.Cart, bool, error) {
	if in.Quantity < 0 {
		return nil, false, apperr.Validation("quantity must not be negative")
	}
	var cartID uint
	removed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, line, err := cartLine(tx, userID, in.ItemID)
		if err != nil {
			return err
		}
		cartID = cart.ID
		if in.Quantity == 0 {
			removed = true
			return removeLine(tx, cart, line)
		}
		line.Quantity = in.Quantity
		if in.Customizations != nil {
			line.Customizations = datatypes.NewJSONType(models.Customizations{}.Merge(in.Customizations))
		}
		return tx.Save(line).Error
	})
	if err != nil {
		return nil, false, err
	}
	cart, err := s.load(ctx, cartID)
	return cart, removed, err
}

// RemoveItem deletes one line from the user's cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uint) (*models.Cart, error) {
	var cartID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, line, err := cartLine(tx, userID, itemID)
		if err != nil {
			return err
		}
		cartID = cart.ID
		return removeLine(tx, cart, line)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, cartID)
}

// Clear empties the cart and detaches it from its restaurant.
func (s *CartService) Clear(ctx context.Context, userID uint) (*models.Cart, error) {
	var cartID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := cartFor(tx, userID)
		if err != nil {
			return err
		}
		cartID = cart.ID
		return clearCart(tx, cart)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, cartID)
}

func (s *CartService) load(ctx context.Context, cartID uint) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.WithContext(ctx).
		Preload("Restaurant").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("added_at, id") }).
		Preload("Items.MenuItem").
		First(&cart, cartID).Error
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return &cart, nil
}

func cartFor(tx *gorm.DB, userID uint) (*models.Cart, error) {
	var cart models.Cart
	if err := tx.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return &cart, nil
}

// cartLine finds a line of the user's cart; lines of other carts are reported missing.
func cartLine(tx *gorm.DB, userID, itemID uint) (*models.Cart, *models.CartItem, error) {
	cart, err := cartFor(tx, userID)
	if err != nil {
		return nil, nil, err
	}
	var line models.CartItem
	if err := tx.Where("id = ? AND cart_id = ?", itemID, cart.ID).First(&line).Error; err != nil {
		return nil, nil, notFoundOr(err, "cart item %d not found", itemID)
	}
	return cart, &line, nil
}

// removeLine deletes line and releases the restaurant once the cart is empty.
func removeLine(tx *gorm.DB, cart *models.Cart, line *models.CartItem) error {
	if err := tx.Delete(line).Error; err != nil {
		return err
	}
	var left int64
	if err := tx.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&left).Error; err != nil {
		return err
	}
	if left == 0 {
		return tx.Model(cart).Update("restaurant_id", nil).Error
	}
	return nil
}

func clearCart(tx *gorm.DB, cart *models.Cart) error {
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	if err := tx.Model(cart).Update("restaurant_id", nil).Error; err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	cart.RestaurantID = nil
	cart.Items = nil
	return nil
}
