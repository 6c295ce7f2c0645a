package statemachine

import (
	"strings"

	"food-marketplace-api/apperr"
	"food-marketplace-api/models"
)

// Actor names the party requesting a status change.
type Actor string

const (
	ActorRestaurant Actor = "restaurant"
	ActorDelivery   Actor = "delivery"
	ActorCustomer   Actor = "customer"
	ActorAdmin      Actor = "admin"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor Actor              `json:"actor"`
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Restaurant confirms, cooks and hands over
	{From: models.StatusPending, To: models.StatusConfirmed, Actor: ActorRestaurant},
	{From: models.StatusConfirmed, To: models.StatusPreparing, Actor: ActorRestaurant},
	{From: models.StatusPreparing, To: models.StatusReady, Actor: ActorRestaurant},
	// Courier completes the order
	{From: models.StatusReady, To: models.StatusDelivered, Actor: ActorDelivery},
	// The kitchen may cancel until the food is ready, the customer until it is delivered
	{From: models.StatusPending, To: models.StatusCancelled, Actor: ActorRestaurant},
	{From: models.StatusPending, To: models.StatusCancelled, Actor: ActorCustomer},
	{From: models.StatusConfirmed, To: models.StatusCancelled, Actor: ActorRestaurant},
	{From: models.StatusConfirmed, To: models.StatusCancelled, Actor: ActorCustomer},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actor: ActorRestaurant},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actor: ActorCustomer},
	{From: models.StatusReady, To: models.StatusCancelled, Actor: ActorCustomer},
}

type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor Actor
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool, len(validTransitions))
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another.
// A rejected move is a conflict with the order's current state.
func CanTransition(from, to models.OrderStatus, actor Actor) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return apperr.Conflict("invalid transition: %s → %s is not allowed for actor '%s'", from, to, actor).
		With("current_status", from).
		With("requested_status", to).
		With("valid_next_states", describeValidFrom(from))
}

// CanCancel reports whether a customer may still cancel an order in status.
// Any order that is not delivered or cancelled yet can be cancelled.
func CanCancel(status models.OrderStatus) error {
	if status.Terminal() {
		return apperr.Conflict("order is already %s and cannot be cancelled", status).
			With("current_status", status)
	}
	return nil
}

// CanForce applies the admin override rule: anything goes except
// finishing or cancelling an order that has already finished.
func CanForce(from, to models.OrderStatus) error {
	if !to.Valid() {
		return apperr.Validation("unknown order status %q", to)
	}
	if from.Terminal() && (to == models.StatusDelivered || to == models.StatusCancelled) {
		return apperr.Conflict("order is already %s", from).With("current_status", from)
	}
	return nil
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
