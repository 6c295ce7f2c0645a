package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"food-marketplace-api/apperr"
	"food-marketplace-api/models"
	"food-marketplace-api/testdb"
)

var testPricing = Pricing{
	DeliveryFee: decimal.RequireFromString("5.00"),
	TaxRate:     decimal.RequireFromString("0.08"),
}

var fixedNow = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

type orderFixture struct {
	db         *gorm.DB
	carts      *CartService
	orders     *OrderService
	notifier   *recordingNotifier
	customer   *models.User
	owner      *models.User
	driver     *models.User
	restaurant *models.Restaurant
	burger     *models.MenuItem
	fries      *models.MenuItem
	foreign    *models.MenuItem
}

func newOrderFixture(t *testing.T, opts ...OrderOption) *orderFixture {
	db := testdb.Open(t)
	owner := testdb.User(t, db, "olivia", models.RoleVendor)
	diner := testdb.Restaurant(t, db, owner, "Joe's Diner", "joes-diner")
	mains := testdb.Category(t, db, diner, "Mains", models.MealLunch, 1)
	rival := testdb.User(t, db, "rick", models.RoleVendor)
	bar := testdb.Restaurant(t, db, rival, "Sushi Bar", "sushi-bar")
	rolls := testdb.Category(t, db, bar, "Rolls", models.MealDinner, 1)

	n := newRecordingNotifier()
	opts = append([]OrderOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return &orderFixture{
		db:         db,
		carts:      NewCartService(db, zerolog.Nop()),
		orders:     NewOrderService(db, testPricing, n, zerolog.Nop(), opts...),
		notifier:   n,
		customer:   testdb.User(t, db, "cara", models.RoleCustomer),
		owner:      owner,
		driver:     testdb.User(t, db, "dina", models.RoleDelivery),
		restaurant: diner,
		burger:     testdb.MenuItem(t, db, mains, "Burger", "5.00"),
		fries:      testdb.MenuItem(t, db, mains, "Fries", "10.00"),
		foreign:    testdb.MenuItem(t, db, rolls, "Salmon Roll", "8.50"),
	}
}

func (f *orderFixture) fillCart(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.carts.AddItem(ctx, f.customer.ID, AddItemInput{MenuItemID: f.burger.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, f.customer.ID, AddItemInput{MenuItemID: f.fries.ID, Quantity: 1})
	require.NoError(t, err)
}

func (f *orderFixture) details() DeliveryDetails {
	return DeliveryDetails{
		DeliveryAddress: "42 Elm Street",
		PaymentMethod:   "card",
		TipAmount:       decimal.RequireFromString("2.00"),
	}
}

func (f *orderFixture) placeOrder(t *testing.T) *models.Order {
	t.Helper()
	f.fillCart(t)
	order, err := f.orders.Checkout(context.Background(), f.customer.ID, f.details())
	require.NoError(t, err)
	return order
}

func TestPricing_Compute(t *testing.T) {
	lines := []models.OrderItem{
		{Quantity: 2, UnitPrice: decimal.RequireFromString("5.00")},
		{Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")},
	}
	totals := testPricing.Compute(lines, decimal.RequireFromString("2.00"))

	assert.Equal(t, "20.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "1.60", totals.Tax.StringFixed(2))
	assert.Equal(t, "5.00", totals.DeliveryFee.StringFixed(2))
	assert.Equal(t, "28.60", totals.Total.StringFixed(2))

	// tax rounds to cents
	odd := testPricing.Compute([]models.OrderItem{{Quantity: 1, UnitPrice: decimal.RequireFromString("9.99")}}, decimal.Zero)
	assert.Equal(t, "0.80", odd.Tax.StringFixed(2))
}

func TestNewOrderNumber(t *testing.T) {
	assert.Regexp(t, `^ORD-[0-9A-F]{8}$`, NewOrderNumber())
}

func TestCheckout_CreatesOrderAndEmptiesCart(t *testing.T) {
	f := newOrderFixture(t)
	order := f.placeOrder(t)

	assert.Regexp(t, `^ORD-[0-9A-F]{8}$`, order.OrderNumber)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, "20.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "1.60", order.TaxAmount.StringFixed(2))
	assert.Equal(t, "28.60", order.TotalAmount.StringFixed(2))
	assert.Equal(t, f.restaurant.ID, order.RestaurantID)
	require.NotNil(t, order.EstimatedDeliveryTime)
	assert.True(t, fixedNow.Add(40*time.Minute).Equal(*order.EstimatedDeliveryTime))

	require.Len(t, order.Items, 2)
	for _, item := range order.Items {
		assert.True(t, item.TotalPrice.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))))
	}
	require.Len(t, order.Tracking, 1)
	assert.Equal(t, models.StatusPending, order.Tracking[0].Status)
	assert.Equal(t, "Order received and being processed", order.Tracking[0].Message)

	cart, err := f.carts.GetOrCreate(context.Background(), f.customer.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Nil(t, cart.RestaurantID)

	assert.Equal(t, []string{order.OrderNumber}, f.notifier.placed)
}

func TestCheckout_SnapshotsPrices(t *testing.T) {
	f := newOrderFixture(t)
	order := f.placeOrder(t)

	require.NoError(t, f.db.Model(f.burger).Update("price", decimal.RequireFromString("7.50")).Error)

	got, err := f.orders.Get(context.Background(), f.customer.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "28.60", got.TotalAmount.StringFixed(2))
	for _, item := range got.Items {
		if item.MenuItemID == f.burger.ID {
			assert.Equal(t, "5.00", item.UnitPrice.StringFixed(2))
			assert.Equal(t, "Burger", item.Name)
		}
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.orders.Checkout(context.Background(), f.customer.ID, f.details())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "Cart is empty")
}

func TestCheckout_RequiresDeliveryDetails(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t)

	d := f.details()
	d.PaymentMethod = ""
	_, err := f.orders.Checkout(context.Background(), f.customer.ID, d)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	d = f.details()
	d.TipAmount = decimal.RequireFromString("-1")
	_, err = f.orders.Checkout(context.Background(), f.customer.ID, d)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCheckout_IsAtomic(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t)

	boom := errors.New("disk full")
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_order_items", func(tx *gorm.DB) {
		if tx.Statement.Table == "order_items" {
			_ = tx.AddError(boom)
		}
	}))

	_, err := f.orders.Checkout(context.Background(), f.customer.ID, f.details())
	require.ErrorIs(t, err, boom)

	var orders, tracking int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, f.db.Model(&models.OrderTracking{}).Count(&tracking).Error)
	assert.Zero(t, orders)
	assert.Zero(t, tracking)

	cart, err := f.carts.GetOrCreate(context.Background(), f.customer.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.NotNil(t, cart.RestaurantID)
	assert.Empty(t, f.notifier.placed)
}

func TestCreateFromItems_RejectsInvalidItems(t *testing.T) {
	f := newOrderFixture(t)
	require.NoError(t, f.db.Model(f.fries).Update("is_available", false).Error)

	_, err := f.orders.CreateFromItems(context.Background(), f.customer.ID, CreateOrderInput{
		RestaurantID: f.restaurant.ID,
		Items: []OrderLineInput{
			{MenuItemID: f.burger.ID, Quantity: 1},
			{MenuItemID: f.fries.ID, Quantity: 1},
			{MenuItemID: f.foreign.ID, Quantity: 1},
			{MenuItemID: 9999, Quantity: 1},
		},
		DeliveryDetails: f.details(),
	})
	require.Error(t, err)
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.ElementsMatch(t, []uint{f.fries.ID, f.foreign.ID, 9999}, appErr.Details["invalid_menu_item_ids"])

	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateFromItems_InactiveRestaurant(t *testing.T) {
	f := newOrderFixture(t)
	require.NoError(t, f.db.Model(f.restaurant).Update("is_active", false).Error)

	_, err := f.orders.CreateFromItems(context.Background(), f.customer.ID, CreateOrderInput{
		RestaurantID:    f.restaurant.ID,
		Items:           []OrderLineInput{{MenuItemID: f.burger.ID, Quantity: 1}},
		DeliveryDetails: f.details(),
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreateFromItems_RetriesOrderNumberCollisions(t *testing.T) {
	numbers := []string{"ORD-00000001", "ORD-00000001", "ORD-00000002"}
	next := 0
	f := newOrderFixture(t, WithOrderNumberGenerator(func() string {
		n := numbers[next]
		next++
		return n
	}))
	in := CreateOrderInput{
		RestaurantID:    f.restaurant.ID,
		Items:           []OrderLineInput{{MenuItemID: f.burger.ID, Quantity: 1}},
		DeliveryDetails: f.details(),
	}

	first, err := f.orders.CreateFromItems(context.Background(), f.customer.ID, in)
	require.NoError(t, err)
	second, err := f.orders.CreateFromItems(context.Background(), f.customer.ID, in)
	require.NoError(t, err)

	assert.Equal(t, "ORD-00000001", first.OrderNumber)
	assert.Equal(t, "ORD-00000002", second.OrderNumber)
	assert.Equal(t, 3, next)
}

func TestCheckout_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newOrderFixture(t,
		WithOrderNumberGenerator(func() string { return "ORD-DEADBEEF" }),
		WithOrderNumberAttempts(3))
	_, err := f.orders.CreateFromItems(context.Background(), f.customer.ID, CreateOrderInput{
		RestaurantID:    f.restaurant.ID,
		Items:           []OrderLineInput{{MenuItemID: f.burger.ID, Quantity: 1}},
		DeliveryDetails: f.details(),
	})
	require.NoError(t, err)

	f.fillCart(t)
	_, err = f.orders.Checkout(context.Background(), f.customer.ID, f.details())
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	cart, err := f.carts.GetOrCreate(context.Background(), f.customer.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestCancel(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	other := testdb.User(t, f.db, "otto", models.RoleCustomer)
	_, err := f.orders.Cancel(ctx, other.ID, order.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	cancelled, err := f.orders.Cancel(ctx, f.customer.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	require.Len(t, cancelled.Tracking, 2)
	assert.Equal(t, models.StatusCancelled, cancelled.Tracking[0].Status)
	assert.Equal(t, "Order cancelled by customer", cancelled.Tracking[0].Message)

	_, err = f.orders.Cancel(ctx, f.customer.ID, order.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	trail, err := f.orders.Tracking(ctx, f.customer.ID, order.ID)
	require.NoError(t, err)
	assert.Len(t, trail, 2)
	assert.Equal(t, []string{"pending->cancelled"}, f.notifier.transitions)
}

func TestCancel_AnyNonTerminalStatus(t *testing.T) {
	steps := []models.OrderStatus{models.StatusConfirmed, models.StatusPreparing, models.StatusReady}
	for i, status := range steps {
		t.Run(string(status), func(t *testing.T) {
			f := newOrderFixture(t)
			ctx := context.Background()
			order := f.placeOrder(t)
			for _, to := range steps[:i+1] {
				_, err := f.orders.AdvanceStatus(ctx, f.owner, order.ID, to, "")
				require.NoError(t, err)
			}

			cancelled, err := f.orders.Cancel(ctx, f.customer.ID, order.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusCancelled, cancelled.Status)

			trail, err := f.orders.Tracking(ctx, f.customer.ID, order.ID)
			require.NoError(t, err)
			require.Len(t, trail, i+3)
			assert.Equal(t, models.StatusCancelled, trail[0].Status)
			assert.Equal(t, "Order cancelled by customer", trail[0].Message)
			cancelRows := lo.CountBy(trail, func(e models.OrderTracking) bool { return e.Status == models.StatusCancelled })
			assert.Equal(t, 1, cancelRows)
			assert.Equal(t, string(status)+"->cancelled", f.notifier.transitions[len(f.notifier.transitions)-1])
		})
	}
}

func TestOrderLifecycle(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	rival := &models.User{ID: 999, Role: models.RoleVendor}
	_, err := f.orders.AdvanceStatus(ctx, rival, order.ID, models.StatusConfirmed, "")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = f.orders.AdvanceStatus(ctx, f.owner, order.ID, models.StatusReady, "")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict), "pending cannot skip to ready")

	_, err = f.orders.AdvanceStatus(ctx, f.owner, order.ID, models.StatusConfirmed, "")
	require.NoError(t, err)
	preparing, err := f.orders.AdvanceStatus(ctx, f.owner, order.ID, models.StatusPreparing, "on the grill")
	require.NoError(t, err)
	assert.Equal(t, "on the grill", preparing.Tracking[0].Message)
	assert.True(t, fixedNow.Add(20*time.Minute).Equal(*preparing.EstimatedDeliveryTime))

	_, err = f.orders.Claim(ctx, f.driver.ID, order.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict), "not ready yet")

	_, err = f.orders.AdvanceStatus(ctx, f.owner, order.ID, models.StatusReady, "")
	require.NoError(t, err)

	available, err := f.orders.AvailableForDelivery(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)

	claimed, err := f.orders.Claim(ctx, f.driver.ID, order.ID)
	require.NoError(t, err)
	require.NotNil(t, claimed.DriverID)
	assert.Equal(t, f.driver.ID, *claimed.DriverID)
	assert.Equal(t, "Driver assigned and on the way to the restaurant", claimed.Tracking[0].Message)

	second := testdb.User(t, f.db, "drew", models.RoleDelivery)
	_, err = f.orders.Claim(ctx, second.ID, order.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	_, err = f.orders.Deliver(ctx, second.ID, order.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	available, err = f.orders.AvailableForDelivery(ctx)
	require.NoError(t, err)
	assert.Empty(t, available)

	delivered, err := f.orders.Deliver(ctx, f.driver.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, delivered.Status)
	assert.NotNil(t, delivered.ActualDeliveryTime)

	mine, err := f.orders.DriverOrders(ctx, f.driver.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	trail, err := f.orders.RestaurantTracking(ctx, f.owner, order.ID)
	require.NoError(t, err)
	// placed, confirmed, preparing, ready, claimed, delivered
	assert.Len(t, trail, 6)
	assert.Equal(t, models.StatusDelivered, trail[0].Status)

	assert.Equal(t, []string{
		"pending->confirmed", "confirmed->preparing", "preparing->ready", "ready->delivered",
	}, f.notifier.transitions)
}

func TestRestaurantOrders(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	first := f.placeOrder(t)
	f.placeOrder(t)
	_, err := f.orders.AdvanceStatus(ctx, f.owner, first.ID, models.StatusConfirmed, "")
	require.NoError(t, err)

	orders, summary, err := f.orders.RestaurantOrders(ctx, f.owner, "")
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, map[models.OrderStatus]int{models.StatusPending: 1, models.StatusConfirmed: 1}, summary)

	orders, _, err = f.orders.RestaurantOrders(ctx, f.owner, models.StatusConfirmed)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, first.ID, orders[0].ID)

	_, _, err = f.orders.RestaurantOrders(ctx, f.owner, "shipped")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestAppendTracking_LeavesStatusAlone(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	entry, err := f.orders.AppendRestaurantTracking(ctx, f.owner, order.ID, models.StatusPreparing, "Chef is on it")
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)

	got, err := f.orders.Get(ctx, f.customer.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Len(t, got.Tracking, 2)

	long := fmt.Sprintf("%0201d", 0)
	_, err = f.orders.AppendTracking(ctx, order.ID, models.StatusPending, long)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	accented := strings.Repeat("é", maxTrackingMessage)
	entry, err = f.orders.AppendTracking(ctx, order.ID, models.StatusPending, accented)
	require.NoError(t, err, "the limit counts characters, not bytes")
	assert.Equal(t, accented, entry.Message)
	_, err = f.orders.AppendTracking(ctx, order.ID, models.StatusPending, accented+"é")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	_, err = f.orders.AppendTracking(ctx, order.ID, "shipped", "x")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	_, err = f.orders.AppendTracking(ctx, 9999, models.StatusPending, "x")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestForceStatus_TruncatesLongReasonOnRuneBoundary(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	forced, err := f.orders.ForceStatus(ctx, order.ID, models.StatusConfirmed, strings.Repeat("€", 300))
	require.NoError(t, err)
	msg := forced.Tracking[0].Message
	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, maxTrackingMessage, utf8.RuneCountInString(msg))
	assert.True(t, strings.HasPrefix(msg, "[ADMIN OVERRIDE] €€"))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "naï", truncateRunes("naïve", 3))
	assert.Equal(t, "", truncateRunes("abc", 0))
}

func TestTracking_IsAppendOnly(t *testing.T) {
	f := newOrderFixture(t)
	order := f.placeOrder(t)

	entry := order.Tracking[0]
	err := f.db.Model(&entry).Update("message", "rewritten").Error
	assert.ErrorIs(t, err, models.ErrTrackingImmutable)
	err = f.db.Delete(&entry).Error
	assert.ErrorIs(t, err, models.ErrTrackingImmutable)
}

func TestAdmin_ForceStatusAndList(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	first := f.placeOrder(t)
	second := f.placeOrder(t)

	forced, err := f.orders.ForceStatus(ctx, first.ID, models.StatusDelivered, "delivered by phone")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, forced.Status)
	assert.Equal(t, "[ADMIN OVERRIDE] delivered by phone", forced.Tracking[0].Message)

	_, err = f.orders.ForceStatus(ctx, first.ID, models.StatusCancelled, "")
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	orders, summary, err := f.orders.AdminList(ctx, AdminOrderFilter{})
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.ByStatus[models.StatusDelivered])
	assert.Equal(t, "28.60", summary.DeliveredRevenue.StringFixed(2))

	orders, _, err = f.orders.AdminList(ctx, AdminOrderFilter{Status: models.StatusPending, UserID: f.customer.ID})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, second.ID, orders[0].ID)
}

func TestList_FiltersByStatus(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	first := f.placeOrder(t)
	f.placeOrder(t)
	_, err := f.orders.Cancel(ctx, f.customer.ID, first.ID)
	require.NoError(t, err)

	all, err := f.orders.List(ctx, f.customer.ID, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cancelled, err := f.orders.List(ctx, f.customer.ID, models.StatusCancelled, f.restaurant.ID)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, first.ID, cancelled[0].ID)

	_, err = f.orders.Get(ctx, f.driver.ID, first.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
