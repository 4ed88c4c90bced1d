// Package apperr defines the error kinds surfaced by the wallet.
//
// Callers branch on Kind rather than on concrete types:
//
//	switch apperr.KindOf(err) {
//	case apperr.KindInsufficientFunds:
//	    var ife *apperr.InsufficientFundsError
//	    errors.As(err, &ife)
//	    ...
//	case apperr.KindUnavailable:
//	    // safe to retry
//	}
package apperr

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindInsufficientFunds
	KindWalletBlocked
	KindNotFound
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindWalletBlocked:
		return "wallet_blocked"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	}
	return "internal"
}

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// InsufficientFundsError is returned when a debit exceeds the current balance.
type InsufficientFundsError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s, requested %s",
		e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

// Shortfall is the amount missing to cover the request.
func (e *InsufficientFundsError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func WalletBlocked(message string) error {
	return &Error{Kind: KindWalletBlocked, Message: message}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Unavailable(message string, err error) error {
	return &Error{Kind: KindUnavailable, Message: message, Err: err}
}

func Internal(message string, err error) error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

func InsufficientFunds(available, requested decimal.Decimal) error {
	return &InsufficientFundsError{Available: available, Requested: requested}
}

// KindOf returns the kind of the first classified error in err's chain.
// Unclassified errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var ife *InsufficientFundsError
	if errors.As(err, &ife) {
		return KindInsufficientFunds
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRetryable reports whether the caller may retry the operation.
func IsRetryable(err error) bool {
	return Is(err, KindUnavailable)
}
