package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"text/template"
	"time"

	"github.com/rs/zerolog"

	"food-marketplace-api/models"
)

const brand = "The Restaurant"

var welcomeSubjects = map[models.UserRole]string{
	models.RoleCustomer:            "Welcome to The Restaurant - Start Ordering!",
	models.RoleVendor:              "Welcome to The Restaurant - Grow Your Business!",
	models.RoleDelivery:            "Welcome to The Restaurant - Start Delivering!",
	models.RoleRestaurantStaff:     "Welcome to The Restaurant Team!",
	models.RoleRestaurantManager:   "Welcome to The Restaurant Management!",
	models.RoleRestaurantOwner:     "Welcome to The Restaurant Partnership!",
	models.RolePlatformAdmin:       "Admin Access Granted - The Restaurant Platform",
	models.RoleSupportAgent:        "Customer Support Role Activated",
	models.RoleContentModerator:    "Content Moderator Access Granted",
	models.RoleMarketingSpecialist: "Marketing Team Access Activated",
	models.RoleFinanceManager:      "Finance Management Access Granted",
	models.RoleDataAnalyst:         "Data Analytics Access Activated",
}

var welcomeLines = map[models.UserRole]string{
	models.RoleCustomer: "You can now browse restaurants, order food, and track deliveries.\n\nEnjoy your meals!",
	models.RoleVendor:   "You can now set up your restaurant, create menus, and start receiving orders.\n\nLet's grow your business together!",
	models.RoleDelivery: "Complete your profile setup to start accepting delivery requests.\n\nStart earning today!",
}

var (
	welcomeTmpl = template.Must(template.New("welcome").Parse(`Hi {{.Name}},

Welcome to {{.Brand}}!{{if .Line}} {{.Line}}{{end}}
`))

	verifyTmpl = template.Must(template.New("verify").Parse(`Hi {{.Name}},

Thank you for registering with {{.Brand}}!

Your verification code is: {{.Code}}

This code will expire in 24 hours.

Alternatively, you can verify your email by clicking the link below:
{{.Link}}

Best regards,
The {{.Brand}} Team
`))

	orderTmpl = template.Must(template.New("order").Parse(`Hi {{.Name}},

Your order {{.Number}} from {{.Restaurant}} is now {{.Status}}.
Total: ${{.Total}}
{{if .ETA}}Estimated delivery: {{.ETA}}
{{end}}
The {{.Brand}} Team
`))
)

// Dispatcher turns domain events into emails and published order events.
// Nothing it does can fail the caller; problems are logged.
type Dispatcher struct {
	mailer      Mailer
	publisher   Publisher
	frontendURL string
	log         zerolog.Logger
	now         func() time.Time
}

func NewDispatcher(mailer Mailer, publisher Publisher, frontendURL string, log zerolog.Logger) *Dispatcher {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Dispatcher{mailer: mailer, publisher: publisher, frontendURL: frontendURL, log: log, now: time.Now}
}

func (d *Dispatcher) UserRegistered(ctx context.Context, user *models.User) {
	subject, ok := welcomeSubjects[user.Role]
	if !ok {
		subject = "Welcome to " + brand + "!"
	}
	body, err := render(welcomeTmpl, map[string]any{
		"Name":  user.FullName(),
		"Brand": brand,
		"Line":  welcomeLines[user.Role],
	})
	if err == nil {
		err = d.mailer.Send(ctx, user.Email, subject, body)
	}
	if err != nil {
		d.log.Warn().Err(err).Uint("user_id", user.ID).Msg("welcome email not sent")
	}
}

func (d *Dispatcher) VerificationCode(ctx context.Context, user *models.User, code string) bool {
	link := fmt.Sprintf("%s/verify-email?code=%s&email=%s", d.frontendURL, url.QueryEscape(code), url.QueryEscape(user.Email))
	body, err := render(verifyTmpl, map[string]any{
		"Name":  user.FullName(),
		"Brand": brand,
		"Code":  code,
		"Link":  link,
	})
	if err == nil {
		err = d.mailer.Send(ctx, user.Email, "Verify Your Email - "+brand, body)
	}
	if err != nil {
		d.log.Warn().Err(err).Uint("user_id", user.ID).Msg("verification email not sent")
		return false
	}
	return true
}

func (d *Dispatcher) OrderPlaced(ctx context.Context, order *models.Order) {
	d.publish(ctx, EventOrderCreated, order, "")
	d.mailOrder(ctx, order, "Order Confirmation - "+order.OrderNumber)
}

func (d *Dispatcher) OrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus) {
	event := EventOrderStatusChanged
	if order.Status == models.StatusCancelled {
		event = EventOrderCancelled
	}
	d.publish(ctx, event, order, from)
	d.mailOrder(ctx, order, fmt.Sprintf("Order %s is %s", order.OrderNumber, order.Status))
}

func (d *Dispatcher) publish(ctx context.Context, eventType string, order *models.Order, from models.OrderStatus) {
	event := OrderEvent{
		Type:         eventType,
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		UserID:       order.UserID,
		RestaurantID: order.RestaurantID,
		FromStatus:   string(from),
		Status:       string(order.Status),
		Total:        order.TotalAmount,
		OccurredAt:   d.now().UTC(),
	}
	if err := d.publisher.Publish(ctx, event); err != nil {
		d.log.Warn().Err(err).Str("event", eventType).Str("order_number", order.OrderNumber).Msg("order event not published")
	}
}

func (d *Dispatcher) mailOrder(ctx context.Context, order *models.Order, subject string) {
	if order.User == nil || order.User.Email == "" {
		return
	}
	data := map[string]any{
		"Name":       order.User.FullName(),
		"Number":     order.OrderNumber,
		"Status":     order.Status,
		"Total":      order.TotalAmount.StringFixed(2),
		"Brand":      brand,
		"Restaurant": "the restaurant",
	}
	if order.Restaurant != nil {
		data["Restaurant"] = order.Restaurant.Name
	}
	if order.EstimatedDeliveryTime != nil && !order.Status.Terminal() {
		data["ETA"] = order.EstimatedDeliveryTime.Format(time.Kitchen)
	}
	body, err := render(orderTmpl, data)
	if err == nil {
		err = d.mailer.Send(ctx, order.User.Email, subject, body)
	}
	if err != nil {
		d.log.Warn().Err(err).Str("order_number", order.OrderNumber).Msg("order email not sent")
	}
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
