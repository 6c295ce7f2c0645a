package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderStatus represents all possible states of a food delivery order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists the states in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

type Order struct {
	ID                    uint            `json:"id" gorm:"primaryKey"`
	OrderNumber           string          `json:"order_number" gorm:"size:50;uniqueIndex;not null"`
	UserID                uint            `json:"user_id" gorm:"not null;index"`
	User                  *User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	RestaurantID          uint            `json:"restaurant_id" gorm:"not null;index"`
	Restaurant            *Restaurant     `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	DriverID              *uint           `json:"driver_id" gorm:"index"`
	Driver                *User           `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	Status                OrderStatus     `json:"status" gorm:"size:20;not null;default:'pending';index"`
	Subtotal              decimal.Decimal `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	DeliveryFee           decimal.Decimal `json:"delivery_fee" gorm:"type:decimal(6,2);not null"`
	TaxAmount             decimal.Decimal `json:"tax_amount" gorm:"type:decimal(8,2);not null"`
	TipAmount             decimal.Decimal `json:"tip_amount" gorm:"type:decimal(8,2);not null"`
	TotalAmount           decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	DeliveryAddress       string          `json:"delivery_address" gorm:"not null"`
	DeliveryInstructions  string          `json:"delivery_instructions"`
	PaymentMethod         string          `json:"payment_method" gorm:"size:50"`
	PaymentStatus         PaymentStatus   `json:"payment_status" gorm:"size:20;default:'pending'"`
	Notes                 string          `json:"notes"`
	EstimatedDeliveryTime *time.Time      `json:"estimated_delivery_time"`
	ActualDeliveryTime    *time.Time      `json:"actual_delivery_time"`
	Items                 []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Tracking              []OrderTracking `json:"tracking,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt             time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// OrderItem is a snapshot of a purchased line; later menu edits do not touch it.
type OrderItem struct {
	ID                  uint                               `json:"id" gorm:"primaryKey"`
	OrderID             uint                               `json:"order_id" gorm:"not null;index"`
	MenuItemID          uint                               `json:"menu_item_id" gorm:"not null"`
	Name                string                             `json:"name"`
	Quantity            int                                `json:"quantity" gorm:"not null"`
	UnitPrice           decimal.Decimal                    `json:"unit_price" gorm:"type:decimal(8,2);not null"`
	TotalPrice          decimal.Decimal                    `json:"total_price" gorm:"type:decimal(10,2);not null"`
	SpecialInstructions string                             `json:"special_instructions"`
	Customizations      datatypes.JSONType[Customizations] `json:"customizations"`
}

// BeforeSave keeps TotalPrice in step with quantity and unit price.
func (i *OrderItem) BeforeSave(tx *gorm.DB) error {
	i.TotalPrice = i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
	return nil
}

// ErrTrackingImmutable is returned when code tries to rewrite the audit trail.
var ErrTrackingImmutable = errors.New("order tracking entries are append-only")

// OrderTracking is one entry of an order's append-only audit trail.
type OrderTracking struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	OrderID   uint        `json:"order_id" gorm:"not null;index"`
	Status    OrderStatus `json:"status" gorm:"size:20;not null"`
	Message   string      `json:"message" gorm:"size:200"`
	Timestamp time.Time   `json:"timestamp" gorm:"autoCreateTime;index"`
}

func (t *OrderTracking) BeforeUpdate(tx *gorm.DB) error { return ErrTrackingImmutable }

func (t *OrderTracking) BeforeDelete(tx *gorm.DB) error { return ErrTrackingImmutable }
