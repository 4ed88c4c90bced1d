package services

import (
	"errors"

	"github.com/commerceplatform/wallet/internal/apperr"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxAmount is the largest value a NUMERIC(14,2) column holds.
var MaxAmount = decimal.RequireFromString("999999999999.99")

const maxIntegerDigits = 12

var (
	errTooPrecise = apperr.Validation("amount must have at most 2 decimal places")
	errTooLarge   = apperr.Validation("amount exceeds the maximum of %s", MaxAmount.StringFixed(2))
)

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper
func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

// ValidateStruct validates s and returns a validation error wrapping the
// field errors, so that callers can report them per field.
func (vh *ValidationHelper) ValidateStruct(s any) error {
	err := vh.validator.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return &apperr.Error{Kind: apperr.KindValidation, Message: "invalid request", Err: fieldErrs}
	}
	return apperr.Internal("validate request", err)
}

// ValidateAmount checks that amount is a positive ledger amount with at most
// two fractional digits.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperr.Validation("amount must be greater than zero")
	}

	// Comparisons rescale to a common exponent in time proportional to the
	// exponent gap, so out-of-range exponents are rejected from the
	// coefficient's digit count first.
	exp, digits := int64(amount.Exponent()), int64(amount.NumDigits())
	switch {
	case exp < -2 && -exp-2 > digits:
		return errTooPrecise
	case exp+digits > maxIntegerDigits:
		return errTooLarge
	case !amount.Equal(amount.Truncate(2)):
		return errTooPrecise
	case amount.GreaterThan(MaxAmount):
		return errTooLarge
	}
	return nil
}

func validateUserID(userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return apperr.Validation("user id %q is not a valid uuid", userID)
	}
	return nil
}
