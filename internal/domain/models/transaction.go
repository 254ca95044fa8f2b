package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind identifies which ledger a transaction belongs to.
type TransactionKind string

const (
	KindSale     TransactionKind = "vente"
	KindPurchase TransactionKind = "achat"
)

// Transaction is a dated quantity movement referencing an article by id.
// There is no identity field: for edit purposes a transaction is addressed by
// the (article id, second-precision timestamp) pair, which is not guaranteed
// unique; edits hit the first match in list order.
type Transaction struct {
	ArticleID int
	Quantity  decimal.Decimal
	Date      time.Time
}

// OccurredBetween reports whether the transaction date falls inside the range,
// inclusive on both ends.
func (t Transaction) OccurredBetween(start, end time.Time) bool {
	return !t.Date.Before(start) && !t.Date.After(end)
}
