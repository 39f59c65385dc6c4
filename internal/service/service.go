// Package service holds the business logic between the HTTP/WebSocket
// handlers and the store. Operations that mutate state run in a single
// transaction and return the broadcast events they produced; the caller
// dispatches them only after the transaction is durable.
package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PendingEvent is a broadcast produced inside a transaction but deliverable
// only after commit, so a client reacting to it always re-reads consistent
// state.
type PendingEvent struct {
	Group string
	Event any
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
