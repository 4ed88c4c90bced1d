package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/commerceplatform/wallet/internal/apperr"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

var (
	errNotLocked       = errors.New("wallet is not locked by this transaction")
	errNegativeBalance = errors.New("balance would violate the non-negative constraint")
)

// transientClasses are Postgres error classes after which a caller may retry:
// connection exceptions, insufficient resources, operator intervention and
// transaction rollbacks (serialization failures, deadlocks).
var transientClasses = map[pq.ErrorClass]bool{
	"08": true,
	"53": true,
	"57": true,
	"40": true,
}

// classify converts a driver error into a wallet error kind. Errors that are
// already classified pass through untouched.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var classified *apperr.Error
	if errors.As(err, &classified) {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone):
		return apperr.Unavailable(op, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperr.Unavailable(op, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && transientClasses[pqErr.Code.Class()] {
		return apperr.Unavailable(op, err)
	}

	return apperr.Internal(op, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
