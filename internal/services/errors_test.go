package services

import (
	"errors"
	"fmt"
	"testing"

	"door_shop_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
)

func TestTranslateRepoError(t *testing.T) {
	assert.Nil(t, translateRepoError(nil, "product", 1))

	err := translateRepoError(repositories.ErrNotFound, "product", 12)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "product 12 not found", err.Error())

	dupErr := fmt.Errorf("%w: creating supplier (constraint: suppliers_phone_key)", repositories.ErrDuplicateKey)
	err = translateRepoError(dupErr, "supplier", 0)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, "suppliers_phone_key", verr.Constraint)

	checkErr := fmt.Errorf("%w: updating product (constraint: products_current_stock_check)", repositories.ErrCheckViolation)
	assert.ErrorIs(t, translateRepoError(checkErr, "product", 3), ErrValidation)

	other := errors.New("connection reset")
	assert.Equal(t, other, translateRepoError(other, "product", 1))
}

func TestErrorKinds(t *testing.T) {
	state := &StateError{Entity: "purchase order", ID: 3, State: "received", Operation: "cancel"}
	assert.ErrorIs(t, state, ErrInvalidState)
	assert.Equal(t, `cannot cancel purchase order 3 in state "received"`, state.Error())

	stock := &StockError{ProductName: "Oak door", Available: dec("1"), Requested: dec("2")}
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", stock), ErrInsufficientStock)
	assert.Equal(t, "insufficient stock for Oak door: available 1, requested 2", stock.Error())

	assert.Equal(t, "quantity: must be positive", newValidationError("quantity", "must be positive").Error())
	assert.Equal(t, "", constraintName(errors.New("plain")))
}
