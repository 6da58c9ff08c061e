// Package validation проверяет входные DTO с помощью go-playground/validator
// и переводит ошибки в доменную ошибку ValidationFailed с деталями по полям.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Максимум для NUMERIC(10,2).
var maxPrice = decimal.New(1, 8)

// Validator оборачивает validator.Validate.
type Validator struct {
	v *validator.Validate
}

// New создает валидатор с json-именами полей и правилом money.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// decimal.Decimal проверяется как строка
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("money", validateMoney)

	return &Validator{v: v}
}

// Validate проверяет структуру и возвращает *domain.Error при нарушениях.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	details := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		details[fieldPath(e)] = friendlyMessage(e)
	}
	return domain.ValidationFailed("validation failed", details)
}

// fieldPath убирает имя корневой структуры: "RecipeInput.tags[0].name" -> "tags[0].name".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		// встроенная RecipeFields не должна попадать в путь
		return strings.TrimPrefix(rest, "RecipeFields.")
	}
	return e.Field()
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "url":
		return "must be a valid URL"
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "money":
		return "must be a non-negative amount with at most 2 decimal places"
	default:
		return "is invalid"
	}
}

func validateMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	if d.IsNegative() || !d.LessThan(maxPrice) {
		return false
	}
	return d.Equal(d.Round(2))
}
