package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"food-marketplace-api/apperr"
	"food-marketplace-api/models"
	"food-marketplace-api/statemachine"
)

// Pricing holds the per-deployment fee and tax rate.
type Pricing struct {
	DeliveryFee decimal.Decimal
	TaxRate     decimal.Decimal
}

// Totals is the money breakdown of an order.
type Totals struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Tax         decimal.Decimal
	Tip         decimal.Decimal
	Total       decimal.Decimal
}

// Compute prices snapshot lines. Tax is rounded to cents, half away from zero.
func (p Pricing) Compute(lines []models.OrderItem, tip decimal.Decimal) Totals {
	subtotal := lo.Reduce(lines, func(sum decimal.Decimal, l models.OrderItem, _ int) decimal.Decimal {
		return sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}, decimal.Zero)
	tax := subtotal.Mul(p.TaxRate).Round(2)
	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: p.DeliveryFee,
		Tax:         tax,
		Tip:         tip,
		Total:       subtotal.Add(p.DeliveryFee).Add(tax).Add(tip),
	}
}

// NewOrderNumber returns "ORD-" followed by eight upper-case hex characters.
func NewOrderNumber() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(hex[:8])
}

const maxTrackingMessage = 200

// OrderService owns order creation and every status change after it.
type OrderService struct {
	db       *gorm.DB
	pricing  Pricing
	notifier Notifier
	log      zerolog.Logger

	newNumber func() string
	attempts  int
	now       func() time.Time
}

type OrderOption func(*OrderService)

// WithOrderNumberGenerator replaces the random order number source.
func WithOrderNumberGenerator(gen func() string) OrderOption {
	return func(s *OrderService) { s.newNumber = gen }
}

// WithOrderNumberAttempts bounds how many numbers are tried before giving up.
func WithOrderNumberAttempts(n int) OrderOption {
	return func(s *OrderService) {
		if n > 0 {
			s.attempts = n
		}
	}
}

func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

func NewOrderService(db *gorm.DB, pricing Pricing, notifier Notifier, log zerolog.Logger, opts ...OrderOption) *OrderService {
	s := &OrderService{
		db:        db,
		pricing:   pricing,
		notifier:  orNop(notifier),
		log:       log,
		newNumber: NewOrderNumber,
		attempts:  5,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OrderLineInput is one requested line of a direct order.
type OrderLineInput struct {
	MenuItemID          uint                  `json:"menu_item_id" binding:"required"`
	Quantity            int                   `json:"quantity" binding:"required,min=1"`
	Customizations      models.Customizations `json:"customizations"`
	SpecialInstructions string                `json:"special_instructions"`
}

// DeliveryDetails are the checkout fields shared by direct orders and cart checkout.
type DeliveryDetails struct {
	DeliveryAddress      string          `json:"delivery_address" binding:"required"`
	DeliveryInstructions string          `json:"delivery_instructions"`
	PaymentMethod        string          `json:"payment_method" binding:"required"`
	TipAmount            decimal.Decimal `json:"tip_amount"`
	Notes                string          `json:"notes"`
}

func (d *DeliveryDetails) validate() error {
	if strings.TrimSpace(d.DeliveryAddress) == "" {
		return apperr.Validation("delivery_address is required")
	}
	if strings.TrimSpace(d.PaymentMethod) == "" {
		return apperr.Validation("payment_method is required")
	}
	if d.TipAmount.IsNegative() {
		return apperr.Validation("tip_amount must not be negative")
	}
	return nil
}

type CreateOrderInput struct {
	RestaurantID uint             `json:"restaurant_id" binding:"required"`
	Items        []OrderLineInput `json:"items" binding:"required,min=1,dive"`
	DeliveryDetails
}

// CreateFromItems places an order from an explicit list of lines.
func (s *OrderService) CreateFromItems(ctx context.Context, userID uint, in CreateOrderInput) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, apperr.Validation("order must contain at least one item")
	}
	for _, line := range in.Items {
		if line.Quantity < 1 {
			return nil, apperr.Validation("quantity must be at least 1").With("menu_item_id", line.MenuItemID)
		}
	}

	var orderID uint
	err := s.withOrderNumberRetry(ctx, func(tx *gorm.DB, number string) error {
		order, err := s.createOrderTx(tx, userID, in.RestaurantID, in.Items, in.DeliveryDetails, number)
		if err != nil {
			return err
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.placed(ctx, orderID)
}

// Checkout turns the user's cart into an order and empties the cart. Either
// both happen or neither does.
func (s *OrderService) Checkout(ctx context.Context, userID uint, details DeliveryDetails) (*models.Order, error) {
	if err := details.validate(); err != nil {
		return nil, err
	}
	var orderID uint
	err := s.withOrderNumberRetry(ctx, func(tx *gorm.DB, number string) error {
		var cart models.Cart
		err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("added_at, id") }).
			Where("user_id = ?", userID).First(&cart).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if len(cart.Items) == 0 {
			return apperr.Validation("Cart is empty")
		}
		if cart.RestaurantID == nil {
			return apperr.Validation("cart has no restaurant")
		}
		lines := lo.Map(cart.Items, func(ci models.CartItem, _ int) OrderLineInput {
			return OrderLineInput{
				MenuItemID:     ci.MenuItemID,
				Quantity:       ci.Quantity,
				Customizations: ci.Customizations.Data(),
			}
		})
		order, err := s.createOrderTx(tx, userID, *cart.RestaurantID, lines, details, number)
		if err != nil {
			return err
		}
		orderID = order.ID
		return clearCart(tx, &cart)
	})
	if err != nil {
		return nil, err
	}
	return s.placed(ctx, orderID)
}

func (s *OrderService) placed(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.reloadOrder(s.db.WithContext(ctx), orderID)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("order_number", order.OrderNumber).
		Uint("user_id", order.UserID).
		Uint("restaurant_id", order.RestaurantID).
		Str("total", order.TotalAmount.StringFixed(2)).
		Msg("order placed")
	s.notifier.OrderPlaced(ctx, order)
	return order, nil
}

// withOrderNumberRetry runs fn in a fresh transaction per attempt, each with a
// new order number, as long as the insert hits a unique violation.
func (s *OrderService) withOrderNumberRetry(ctx context.Context, fn func(tx *gorm.DB, number string) error) error {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		number := s.newNumber()
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(tx, number)
		})
		if err == nil {
			return nil
		}
		if apperr.KindOf(err) != "" || !isUniqueViolation(err) {
			return err
		}
		lastErr = err
		s.log.Warn().Str("order_number", number).Int("attempt", attempt).Msg("order number collision, regenerating")
	}
	return apperr.Conflict("could not allocate a unique order number, please retry").Wrap(lastErr)
}

// createOrderTx validates the lines against restaurantID, snapshots prices and
// writes the order, its items and the first tracking entry through tx.
func (s *OrderService) createOrderTx(tx *gorm.DB, userID, restaurantID uint, lines []OrderLineInput, d DeliveryDetails, number string) (*models.Order, error) {
	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "user %d not found", userID)
	}
	var restaurant models.Restaurant
	if err := tx.First(&restaurant, restaurantID).Error; err != nil {
		return nil, notFoundOr(err, "restaurant %d not found", restaurantID)
	}
	if !restaurant.IsActive {
		return nil, apperr.Validation("restaurant %s is not accepting orders", restaurant.Name)
	}

	ids := lo.Uniq(lo.Map(lines, func(l OrderLineInput, _ int) uint { return l.MenuItemID }))
	var found []models.MenuItem
	if err := tx.Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("load menu items: %w", err)
	}
	byID := lo.KeyBy(found, func(m models.MenuItem) uint { return m.ID })
	invalid := lo.Filter(ids, func(id uint, _ int) bool {
		m, ok := byID[id]
		return !ok || !m.IsAvailable || m.RestaurantID != restaurantID
	})
	if len(invalid) > 0 {
		return nil, apperr.Validation("some menu items are missing, unavailable or belong to another restaurant").
			With("invalid_menu_item_ids", invalid)
	}

	items := lo.Map(lines, func(l OrderLineInput, _ int) models.OrderItem {
		m := byID[l.MenuItemID]
		return models.OrderItem{
			MenuItemID:          m.ID,
			Name:                m.Name,
			Quantity:            l.Quantity,
			UnitPrice:           m.Price,
			SpecialInstructions: l.SpecialInstructions,
			Customizations:      datatypes.NewJSONType(models.Customizations{}.Merge(l.Customizations)),
		}
	})
	totals := s.pricing.Compute(items, d.TipAmount)
	eta := s.now().Add(30*time.Minute + time.Duration(len(items))*5*time.Minute)

	order := models.Order{
		OrderNumber:           number,
		UserID:                userID,
		RestaurantID:          restaurantID,
		Status:                models.StatusPending,
		Subtotal:              totals.Subtotal,
		DeliveryFee:           totals.DeliveryFee,
		TaxAmount:             totals.Tax,
		TipAmount:             totals.Tip,
		TotalAmount:           totals.Total,
		DeliveryAddress:       strings.TrimSpace(d.DeliveryAddress),
		DeliveryInstructions:  d.DeliveryInstructions,
		PaymentMethod:         d.PaymentMethod,
		PaymentStatus:         models.PaymentPending,
		Notes:                 d.Notes,
		EstimatedDeliveryTime: &eta,
	}
	if err := tx.Omit("Items", "Tracking").Create(&order).Error; err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := tx.Create(&items).Error; err != nil {
		return nil, fmt.Errorf("create order items: %w", err)
	}
	entry := models.OrderTracking{OrderID: order.ID, Status: models.StatusPending, Message: "Order received and being processed"}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("create tracking entry: %w", err)
	}
	order.Items = items
	return &order, nil
}

// Cancel lets a customer cancel their own order until it is delivered.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	var from models.OrderStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
			return notFoundOr(err, "order %d not found", orderID)
		}
		if err := statemachine.CanCancel(order.Status); err != nil {
			return err
		}
		from = order.Status
		return setStatus(tx, &order, models.StatusCancelled, "Order cancelled by customer")
	})
	if err != nil {
		return nil, err
	}
	return s.changed(ctx, orderID, from)
}

// AppendTracking adds a note to the order's trail. The order status is left alone.
func (s *OrderService) AppendTracking(ctx context.Context, orderID uint, status models.OrderStatus, message string) (*models.OrderTracking, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown order status %q", status)
	}
	if utf8.RuneCountInString(message) > maxTrackingMessage {
		return nil, apperr.Validation("message must be at most %d characters", maxTrackingMessage)
	}
	entry := models.OrderTracking{OrderID: orderID, Status: status, Message: message}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperr.NotFound("order %d not found", orderID)
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// AppendRestaurantTracking is AppendTracking limited to orders of restaurants actor manages.
func (s *OrderService) AppendRestaurantTracking(ctx context.Context, actor *models.User, orderID uint, status models.OrderStatus, message string) (*models.OrderTracking, error) {
	if _, err := s.restaurantOrder(s.db.WithContext(ctx), actor, orderID); err != nil {
		return nil, err
	}
	return s.AppendTracking(ctx, orderID, status, message)
}

var restaurantStatusMessages = map[models.OrderStatus]string{
	models.StatusConfirmed: "Order confirmed by restaurant",
	models.StatusPreparing: "Kitchen is preparing your order",
	models.StatusReady:     "Order is ready for pickup",
	models.StatusCancelled: "Order cancelled by restaurant",
}

// AdvanceStatus moves an order along on behalf of the restaurant that received it.
func (s *OrderService) AdvanceStatus(ctx context.Context, actor *models.User, orderID uint, to models.OrderStatus, note string) (*models.Order, error) {
	if !to.Valid() {
		return nil, apperr.Validation("unknown order status %q", to)
	}
	var from models.OrderStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.restaurantOrder(tx, actor, orderID)
		if err != nil {
			return err
		}
		if err := statemachine.CanTransition(order.Status, to, statemachine.ActorRestaurant); err != nil {
			return err
		}
		from = order.Status
		message := note
		if message == "" {
			message = restaurantStatusMessages[to]
		}
		if to == models.StatusPreparing {
			eta := s.now().Add(20 * time.Minute)
			if err := tx.Model(order).Update("estimated_delivery_time", eta).Error; err != nil {
				return err
			}
		}
		return setStatus(tx, order, to, message)
	})
	if err != nil {
		return nil, err
	}
	return s.changed(ctx, orderID, from)
}

// restaurantOrder loads an order of a restaurant actor manages.
func (s *OrderService) restaurantOrder(tx *gorm.DB, actor *models.User, orderID uint) (*models.Order, error) {
	q := tx.Model(&models.Order{}).Where("orders.id = ?", orderID)
	if actor.Role != models.RolePlatformAdmin {
		q = q.Joins("JOIN restaurants ON restaurants.id = orders.restaurant_id").
			Where("restaurants.owner_id = ?", actor.ID)
	}
	var order models.Order
	if err := q.First(&order).Error; err != nil {
		return nil, notFoundOr(err, "order %d not found", orderID)
	}
	return &order, nil
}

// RestaurantOrders lists orders of every restaurant actor owns.
func (s *OrderService) RestaurantOrders(ctx context.Context, actor *models.User, status models.OrderStatus) ([]models.Order, map[models.OrderStatus]int, error) {
	if status != "" && !status.Valid() {
		return nil, nil, apperr.Validation("unknown order status %q", status)
	}
	q := s.db.WithContext(ctx).
		Preload("User").Preload("Items").
		Joins("JOIN restaurants ON restaurants.id = orders.restaurant_id").
		Where("restaurants.owner_id = ?", actor.ID)
	if status != "" {
		q = q.Where("orders.status = ?", status)
	}
	var orders []models.Order
	if err := q.Order("orders.created_at DESC, orders.id DESC").Find(&orders).Error; err != nil {
		return nil, nil, fmt.Errorf("restaurant orders: %w", err)
	}
	return orders, summarize(orders), nil
}

func summarize(orders []models.Order) map[models.OrderStatus]int {
	return lo.CountValuesBy(orders, func(o models.Order) models.OrderStatus { return o.Status })
}

// ── Delivery ────────────────────────────────────────────────────────────────

// AvailableForDelivery lists ready orders nobody has claimed, oldest first.
func (s *OrderService) AvailableForDelivery(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Restaurant").Preload("Items").
		Where("status = ? AND driver_id IS NULL", models.StatusReady).
		Order("created_at ASC, id ASC").
		Find(&orders).Error
	return orders, err
}

// DriverOrders lists orders assigned to driverID, newest first.
func (s *OrderService) DriverOrders(ctx context.Context, driverID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Restaurant").Preload("Items").
		Where("driver_id = ?", driverID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

// Claim assigns a ready, unclaimed order to driverID. Only one driver can win.
func (s *OrderService) Claim(ctx context.Context, driverID, orderID uint) (*models.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ? AND driver_id IS NULL", orderID, models.StatusReady).
			Update("driver_id", driverID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return tx.Create(&models.OrderTracking{
				OrderID: orderID, Status: models.StatusReady, Message: "Driver assigned and on the way to the restaurant",
			}).Error
		}
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			return notFoundOr(err, "order %d not found", orderID)
		}
		if order.DriverID != nil {
			return apperr.Conflict("order %s has already been claimed", order.OrderNumber)
		}
		return apperr.Conflict("order %s is %s, not ready for pickup", order.OrderNumber, order.Status).
			With("current_status", order.Status)
	})
	if err != nil {
		return nil, err
	}
	return s.reloadOrder(s.db.WithContext(ctx), orderID)
}

// Deliver completes an order the driver has claimed.
func (s *OrderService) Deliver(ctx context.Context, driverID, orderID uint) (*models.Order, error) {
	var from models.OrderStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("id = ? AND driver_id = ?", orderID, driverID).First(&order).Error; err != nil {
			return notFoundOr(err, "order %d not found", orderID)
		}
		if err := statemachine.CanTransition(order.Status, models.StatusDelivered, statemachine.ActorDelivery); err != nil {
			return err
		}
		from = order.Status
		if err := tx.Model(&order).Update("actual_delivery_time", s.now()).Error; err != nil {
			return err
		}
		return setStatus(tx, &order, models.StatusDelivered, "Order delivered")
	})
	if err != nil {
		return nil, err
	}
	return s.changed(ctx, orderID, from)
}

// ── Admin ───────────────────────────────────────────────────────────────────

// AdminOrderFilter narrows the platform-wide order list.
type AdminOrderFilter struct {
	Status       models.OrderStatus
	RestaurantID uint
	UserID       uint
}

// AdminOrderSummary aggregates the listed orders.
type AdminOrderSummary struct {
	Total            int                        `json:"total"`
	ByStatus         map[models.OrderStatus]int `json:"by_status"`
	DeliveredRevenue decimal.Decimal            `json:"delivered_revenue"`
}

func (s *OrderService) AdminList(ctx context.Context, f AdminOrderFilter) ([]models.Order, AdminOrderSummary, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, AdminOrderSummary{}, apperr.Validation("unknown order status %q", f.Status)
	}
	q := s.db.WithContext(ctx).Preload("User").Preload("Restaurant")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.RestaurantID != 0 {
		q = q.Where("restaurant_id = ?", f.RestaurantID)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	var orders []models.Order
	if err := q.Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, AdminOrderSummary{}, fmt.Errorf("admin orders: %w", err)
	}
	delivered := lo.Filter(orders, func(o models.Order, _ int) bool { return o.Status == models.StatusDelivered })
	summary := AdminOrderSummary{
		Total:    len(orders),
		ByStatus: summarize(orders),
		DeliveredRevenue: lo.Reduce(delivered, func(sum decimal.Decimal, o models.Order, _ int) decimal.Decimal {
			return sum.Add(o.TotalAmount)
		}, decimal.Zero),
	}
	return orders, summary, nil
}

// truncateRunes cuts s to at most n characters without splitting a rune.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ForceStatus lets an administrator move an order outside the normal flow.
func (s *OrderService) ForceStatus(ctx context.Context, orderID uint, to models.OrderStatus, reason string) (*models.Order, error) {
	var from models.OrderStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			return notFoundOr(err, "order %d not found", orderID)
		}
		if err := statemachine.CanForce(order.Status, to); err != nil {
			return err
		}
		from = order.Status
		if reason == "" {
			reason = fmt.Sprintf("status set to %s", to)
		}
		return setStatus(tx, &order, to, truncateRunes("[ADMIN OVERRIDE] "+reason, maxTrackingMessage))
	})
	if err != nil {
		return nil, err
	}
	s.log.Warn().Uint("order_id", orderID).Str("from", string(from)).Str("to", string(to)).Msg("order status overridden by admin")
	return s.changed(ctx, orderID, from)
}

// ── Reads ───────────────────────────────────────────────────────────────────

// List returns the user's orders, newest first.
func (s *OrderService) List(ctx context.Context, userID uint, status models.OrderStatus, restaurantID uint) ([]models.Order, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Validation("unknown order status %q", status)
	}
	q := s.db.WithContext(ctx).Preload("Restaurant").Preload("Items").Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if restaurantID != 0 {
		q = q.Where("restaurant_id = ?", restaurantID)
	}
	var orders []models.Order
	err := q.Order("created_at DESC, id DESC").Find(&orders).Error
	return orders, err
}

// Get returns one of the user's orders.
func (s *OrderService) Get(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Order{}).Where("id = ? AND user_id = ?", orderID, userID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, apperr.NotFound("order %d not found", orderID)
	}
	return s.reloadOrder(db, orderID)
}

// Tracking returns the order's trail, newest entry first.
func (s *OrderService) Tracking(ctx context.Context, userID, orderID uint) ([]models.OrderTracking, error) {
	if _, err := s.Get(ctx, userID, orderID); err != nil {
		return nil, err
	}
	return s.trackingOf(ctx, orderID)
}

// RestaurantTracking is Tracking for the staff of the order's restaurant.
func (s *OrderService) RestaurantTracking(ctx context.Context, actor *models.User, orderID uint) ([]models.OrderTracking, error) {
	if _, err := s.restaurantOrder(s.db.WithContext(ctx), actor, orderID); err != nil {
		return nil, err
	}
	return s.trackingOf(ctx, orderID)
}

func (s *OrderService) trackingOf(ctx context.Context, orderID uint) ([]models.OrderTracking, error) {
	var entries []models.OrderTracking
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("timestamp DESC, id DESC").Find(&entries).Error
	return entries, err
}

func (s *OrderService) changed(ctx context.Context, orderID uint, from models.OrderStatus) (*models.Order, error) {
	order, err := s.reloadOrder(s.db.WithContext(ctx), orderID)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("order_number", order.OrderNumber).Str("from", string(from)).Str("to", string(order.Status)).Msg("order status changed")
	s.notifier.OrderStatusChanged(ctx, order, from)
	return order, nil
}

func (s *OrderService) reloadOrder(db *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	err := db.Preload("User").Preload("Restaurant").Preload("Driver").Preload("Items").
		Preload("Tracking", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp DESC, id DESC") }).
		First(&order, orderID).Error
	if err != nil {
		return nil, notFoundOr(err, "order %d not found", orderID)
	}
	return &order, nil
}

// setStatus writes the new status and its tracking entry.
func setStatus(tx *gorm.DB, order *models.Order, to models.OrderStatus, message string) error {
	if err := tx.Model(order).Update("status", to).Error; err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	entry := models.OrderTracking{OrderID: order.ID, Status: to, Message: message}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("append tracking: %w", err)
	}
	return nil
}
