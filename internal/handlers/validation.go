package handlers

import (
	"errors"
	"reflect"

	"door_shop_backend/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// RegisterValidators installs the decimal type mapping and the domain tags on gin's validator.
// Decimal fields validate as their string form, so dpos and dnonneg parse it back.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	rules := map[string]validator.Func{
		"dpos":            decimalRule(func(d decimal.Decimal) bool { return d.IsPositive() }),
		"dnonneg":         decimalRule(func(d decimal.Decimal) bool { return !d.IsNegative() }),
		"payment_method":  func(fl validator.FieldLevel) bool { return models.IsValidPaymentMethod(fl.Field().String()) },
		"adjustment_type": func(fl validator.FieldLevel) bool { return models.IsValidAdjustmentType(fl.Field().String()) },
		"product_type":    func(fl validator.FieldLevel) bool { return models.IsValidProductType(fl.Field().String()) },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func decimalRule(check func(decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && check(d)
	}
}
