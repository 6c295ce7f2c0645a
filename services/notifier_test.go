package services

import (
	"context"
	"sync"

	"food-marketplace-api/models"
)

// recordingNotifier keeps every event it receives.
type recordingNotifier struct {
	mu          sync.Mutex
	registered  []uint
	codes       map[string]string
	placed      []string
	transitions []string
	sendOK      bool
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{codes: map[string]string{}, sendOK: true}
}

func (n *recordingNotifier) UserRegistered(_ context.Context, user *models.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.registered = append(n.registered, user.ID)
}

func (n *recordingNotifier) VerificationCode(_ context.Context, user *models.User, code string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes[user.Email] = code
	return n.sendOK
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.placed = append(n.placed, order.OrderNumber)
}

func (n *recordingNotifier) OrderStatusChanged(_ context.Context, order *models.Order, from models.OrderStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transitions = append(n.transitions, string(from)+"->"+string(order.Status))
}
