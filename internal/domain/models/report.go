package models

import "github.com/shopspring/decimal"

// ReportEntry aggregates the transaction activity of one article over a date
// range. Unit prices are the article's current prices at aggregation time, not
// historical ones.
type ReportEntry struct {
	ArticleID      int             `json:"id_article"`
	SalePrice      decimal.Decimal `json:"prix_vente"`
	PurchasePrice  decimal.Decimal `json:"prix_achat"`
	UnitsSold      decimal.Decimal `json:"nb_ventes"`
	UnitsPurchased decimal.Decimal `json:"nb_achats"`
	SaleValue      decimal.Decimal `json:"valeur_vente"`
	PurchaseValue  decimal.Decimal `json:"valeur_achat"`
}

// Profit is derived on demand rather than stored.
func (e ReportEntry) Profit() decimal.Decimal {
	return e.SaleValue.Sub(e.PurchaseValue)
}

// Report maps article names to their aggregated entries. It is built fresh per
// request and never persisted.
type Report map[string]*ReportEntry
