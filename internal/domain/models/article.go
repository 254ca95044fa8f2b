package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimeLayout is the textual form used for every persisted timestamp.
const TimeLayout = "2006-01-02 15:04:05"

// ErrInvalidPrice signals a non-positive sale or purchase price.
var ErrInvalidPrice = errors.New("sale and purchase prices must be greater than zero")

// Article represents a sellable/purchasable product record.
//
// Stock is carried and persisted but never adjusted by sale or purchase
// transactions; it only changes through an explicit update.
type Article struct {
	ID            int
	Name          string
	SalePrice     decimal.Decimal
	PurchasePrice decimal.Decimal
	Stock         int
	CreatedAt     time.Time
}

// NewArticle validates and builds an article. A zero createdAt defaults to the
// current time, truncated to second precision to match the persisted form.
func NewArticle(id int, name string, salePrice, purchasePrice decimal.Decimal, createdAt time.Time) (Article, error) {
	if !salePrice.IsPositive() || !purchasePrice.IsPositive() {
		return Article{}, ErrInvalidPrice
	}

	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return Article{
		ID:            id,
		Name:          name,
		SalePrice:     salePrice,
		PurchasePrice: purchasePrice,
		CreatedAt:     createdAt.Truncate(time.Second),
	}, nil
}

// Equal reports field equality on id, name and both prices. Stock and creation
// date are deliberately ignored.
func (a Article) Equal(other Article) bool {
	return a.ID == other.ID &&
		a.Name == other.Name &&
		a.SalePrice.Equal(other.SalePrice) &&
		a.PurchasePrice.Equal(other.PurchasePrice)
}

// Matches reports whether the article carries exactly the given name and
// prices. This triplet is the lookup key for duplicate detection and for
// transaction registration.
func (a Article) Matches(name string, salePrice, purchasePrice decimal.Decimal) bool {
	return a.Name == name &&
		a.SalePrice.Equal(salePrice) &&
		a.PurchasePrice.Equal(purchasePrice)
}

// HasNamePrefix reports a case-insensitive prefix match on the article name.
func (a Article) HasNamePrefix(prefix string) bool {
	return strings.HasPrefix(strings.ToLower(a.Name), strings.ToLower(prefix))
}

// ArticleUpdate carries a partial update; nil fields are left untouched.
// Pointer fields distinguish "not provided" from a legitimate zero or empty
// value.
type ArticleUpdate struct {
	Name          *string
	SalePrice     *decimal.Decimal
	PurchasePrice *decimal.Decimal
	Stock         *int
}

// Apply overlays the provided fields onto the article. Price fields keep the
// construction invariant: a non-positive replacement is rejected.
func (u ArticleUpdate) Apply(a Article) (Article, error) {
	if u.SalePrice != nil && !u.SalePrice.IsPositive() {
		return Article{}, ErrInvalidPrice
	}
	if u.PurchasePrice != nil && !u.PurchasePrice.IsPositive() {
		return Article{}, ErrInvalidPrice
	}

	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.SalePrice != nil {
		a.SalePrice = *u.SalePrice
	}
	if u.PurchasePrice != nil {
		a.PurchasePrice = *u.PurchasePrice
	}
	if u.Stock != nil {
		a.Stock = *u.Stock
	}

	return a, nil
}
