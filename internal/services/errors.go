package services

import (
	"errors"
	"fmt"
	"strings"

	"door_shop_backend/internal/models"
	"door_shop_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// Error kinds every business operation fails with. Match them with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("operation not allowed in current state")
)

// ValidationError reports malformed input or a rejected constraint.
type ValidationError struct {
	Field      string
	Message    string
	Constraint string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func newValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// checkScales rejects amounts with more decimal places than their columns hold.
// Quantity keys (ending in quantity, stock or level) allow three places, money two.
func checkScales(prefix string, amounts map[string]decimal.Decimal) error {
	for field, d := range amounts {
		places := models.MoneyScale
		if strings.HasSuffix(field, "quantity") || strings.HasSuffix(field, "stock") || strings.HasSuffix(field, "level") {
			places = models.QuantityScale
		}
		if !models.FitsScale(d, places) {
			return newValidationError(prefix+field, "at most %d decimal places allowed", places)
		}
	}
	return nil
}

// StockError names the product that cannot cover a requested quantity.
type StockError struct {
	ProductID   int64
	ProductName string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %s, requested %s",
		e.ProductName, e.Available.String(), e.Requested.String())
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }

// NotFoundError reports a missing referenced entity.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: fmt.Sprintf("%d", id)}
}

// StateError reports an operation the entity's current status forbids.
type StateError struct {
	Entity    string
	ID        int64
	State     string
	Operation string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s %s %d in state %q", e.Operation, e.Entity, e.ID, e.State)
}

func (e *StateError) Is(target error) bool { return target == ErrInvalidState }

// translateRepoError turns repository sentinels into the service error kinds.
// Constraint violations become ValidationErrors carrying the constraint name.
func translateRepoError(err error, entity string, id int64) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return notFound(entity, id)
	case errors.Is(err, repositories.ErrDuplicateKey):
		return &ValidationError{Message: entity + " already exists", Constraint: constraintName(err)}
	case errors.Is(err, repositories.ErrForeignKey):
		return &ValidationError{Message: entity + " references a missing record or is still referenced", Constraint: constraintName(err)}
	case errors.Is(err, repositories.ErrCheckViolation):
		return &ValidationError{Message: entity + " has an out-of-range value", Constraint: constraintName(err)}
	}
	return err
}

func constraintName(err error) string {
	msg := err.Error()
	const marker = "(constraint: "
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return ""
	}
	return strings.TrimSuffix(msg[i+len(marker):], ")")
}
