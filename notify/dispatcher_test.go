package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"food-marketplace-api/models"
)

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, event OrderEvent) error {
	return m.Called(event).Error(0)
}

func (m *mockPublisher) Close() error { return nil }

func newDispatcher(mailer Mailer, pub Publisher) *Dispatcher {
	d := NewDispatcher(mailer, pub, "http://localhost:5173", zerolog.Nop())
	d.now = func() time.Time { return time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC) }
	return d
}

func TestDispatcher_WelcomeSubjectFollowsRole(t *testing.T) {
	mailer := &mockMailer{}
	mailer.On("Send", "vera@example.com", "Welcome to The Restaurant - Grow Your Business!",
		mock.MatchedBy(func(body string) bool { return assert.Contains(t, body, "Hi Vera") })).
		Return(nil).Once()

	newDispatcher(mailer, nil).UserRegistered(context.Background(), &models.User{
		ID: 1, Username: "vera", FirstName: "Vera", Email: "vera@example.com", Role: models.RoleVendor,
	})
	mailer.AssertExpectations(t)
}

func TestDispatcher_VerificationCode(t *testing.T) {
	user := &models.User{ID: 2, Username: "cara", Email: "cara+x@example.com", Role: models.RoleCustomer}

	mailer := &mockMailer{}
	mailer.On("Send", user.Email, "Verify Your Email - The Restaurant",
		mock.MatchedBy(func(body string) bool {
			return assert.Contains(t, body, "Your verification code is: 123456") &&
				assert.Contains(t, body, "/verify-email?code=123456&email=cara%2Bx%40example.com")
		})).
		Return(nil).Once()
	assert.True(t, newDispatcher(mailer, nil).VerificationCode(context.Background(), user, "123456"))

	failing := &mockMailer{}
	failing.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	assert.False(t, newDispatcher(failing, nil).VerificationCode(context.Background(), user, "123456"))

	mailer.AssertExpectations(t)
}

func TestDispatcher_OrderEvents(t *testing.T) {
	order := &models.Order{
		ID:           9,
		OrderNumber:  "ORD-ABCDEF12",
		UserID:       3,
		RestaurantID: 4,
		Status:       models.StatusCancelled,
		TotalAmount:  decimal.RequireFromString("28.60"),
		User:         &models.User{Username: "cara", Email: "cara@example.com"},
		Restaurant:   &models.Restaurant{Name: "Joe's Diner"},
	}

	pub := &mockPublisher{}
	pub.On("Publish", mock.MatchedBy(func(e OrderEvent) bool {
		return e.Type == EventOrderCancelled && e.FromStatus == "pending" && e.OrderID == 9
	})).Return(errors.New("broker unavailable")).Once()

	mailer := &mockMailer{}
	mailer.On("Send", "cara@example.com", "Order ORD-ABCDEF12 is cancelled",
		mock.MatchedBy(func(body string) bool {
			return assert.Contains(t, body, "Total: $28.60") && assert.Contains(t, body, "Joe's Diner")
		})).
		Return(nil).Once()

	// a broker failure is logged, the email still goes out
	newDispatcher(mailer, pub).OrderStatusChanged(context.Background(), order, models.StatusPending)

	pub.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestDispatcher_OrderPlacedWithoutUserOnlyPublishes(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.MatchedBy(func(e OrderEvent) bool { return e.Type == EventOrderCreated })).Return(nil).Once()
	mailer := &mockMailer{}

	newDispatcher(mailer, pub).OrderPlaced(context.Background(), &models.Order{ID: 1, Status: models.StatusPending})

	pub.AssertExpectations(t)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}
