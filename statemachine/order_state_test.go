package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"food-marketplace-api/apperr"
	"food-marketplace-api/models"
)

func TestCanTransition_HappyPath(t *testing.T) {
	steps := []struct {
		from, to models.OrderStatus
		actor    Actor
	}{
		{models.StatusPending, models.StatusConfirmed, ActorRestaurant},
		{models.StatusConfirmed, models.StatusPreparing, ActorRestaurant},
		{models.StatusPreparing, models.StatusReady, ActorRestaurant},
		{models.StatusReady, models.StatusDelivered, ActorDelivery},
	}
	for _, s := range steps {
		assert.NoError(t, CanTransition(s.from, s.to, s.actor), "%s → %s", s.from, s.to)
	}
}

func TestCanTransition_RejectsWrongActorAndBackwardMoves(t *testing.T) {
	err := CanTransition(models.StatusPending, models.StatusConfirmed, ActorCustomer)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	err = CanTransition(models.StatusReady, models.StatusPreparing, ActorRestaurant)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	err = CanTransition(models.StatusReady, models.StatusCancelled, ActorRestaurant)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict), "the kitchen cannot cancel food that is ready")

	err = CanTransition(models.StatusDelivered, models.StatusCancelled, ActorRestaurant)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.Contains(t, err.Error(), "delivered → cancelled")
}

func TestCanCancel(t *testing.T) {
	for _, s := range []models.OrderStatus{models.StatusPending, models.StatusConfirmed, models.StatusPreparing, models.StatusReady} {
		assert.NoError(t, CanCancel(s), string(s))
	}
	for _, s := range []models.OrderStatus{models.StatusDelivered, models.StatusCancelled} {
		assert.True(t, apperr.IsKind(CanCancel(s), apperr.KindConflict), string(s))
	}
}

func TestCanForce(t *testing.T) {
	assert.NoError(t, CanForce(models.StatusPending, models.StatusReady))
	assert.NoError(t, CanForce(models.StatusCancelled, models.StatusPending))
	assert.True(t, apperr.IsKind(CanForce(models.StatusDelivered, models.StatusCancelled), apperr.KindConflict))
	assert.True(t, apperr.IsKind(CanForce(models.StatusCancelled, models.StatusDelivered), apperr.KindConflict))
	assert.True(t, apperr.IsKind(CanForce(models.StatusPending, "shipped"), apperr.KindValidation))
}

func TestValidTransitionsFrom(t *testing.T) {
	assert.Equal(t,
		[]models.OrderStatus{models.StatusConfirmed, models.StatusCancelled},
		ValidTransitionsFrom(models.StatusPending))
	assert.Equal(t,
		[]models.OrderStatus{models.StatusDelivered, models.StatusCancelled},
		ValidTransitionsFrom(models.StatusReady))
	assert.Empty(t, ValidTransitionsFrom(models.StatusDelivered))
	assert.Equal(t, "none (terminal state)", describeValidFrom(models.StatusCancelled))
}
