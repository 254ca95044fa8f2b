package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/gestock/internal/domain/models"
)

const dateLayout = "2006-01-02"

// StockReader is the slice of the stock service the aggregator needs.
type StockReader interface {
	FindArticle(id int) (models.Article, bool)
	ListSales() []models.Transaction
	ListPurchases() []models.Transaction
}

// Service folds ledger activity into per-article summaries and exports them.
type Service struct {
	stock  StockReader
	logger *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(stock StockReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{stock: stock, logger: logger}
}

// Build aggregates sales and purchases whose date falls in [start, end],
// inclusive on both ends, into entries keyed by article name. Transactions
// referencing a deleted article are skipped silently. Unit prices are the
// article's current ones, not those in effect at transaction time.
func (s *Service) Build(start, end time.Time) models.Report {
	report := models.Report{}

	for _, tx := range s.stock.ListSales() {
		if !tx.OccurredBetween(start, end) {
			continue
		}
		article, ok := s.stock.FindArticle(tx.ArticleID)
		if !ok {
			s.logger.Debug("skip sale with dangling article", zap.Int("id_article", tx.ArticleID))
			continue
		}
		entry := s.entry(report, article)
		entry.UnitsSold = entry.UnitsSold.Add(tx.Quantity)
		entry.SaleValue = entry.SaleValue.Add(tx.Quantity.Mul(article.SalePrice))
	}

	for _, tx := range s.stock.ListPurchases() {
		if !tx.OccurredBetween(start, end) {
			continue
		}
		article, ok := s.stock.FindArticle(tx.ArticleID)
		if !ok {
			s.logger.Debug("skip purchase with dangling article", zap.Int("id_article", tx.ArticleID))
			continue
		}
		entry := s.entry(report, article)
		entry.UnitsPurchased = entry.UnitsPurchased.Add(tx.Quantity)
		entry.PurchaseValue = entry.PurchaseValue.Add(tx.Quantity.Mul(article.PurchasePrice))
	}

	return report
}

// entry returns the report entry for the article, creating it zeroed on first
// reference.
func (s *Service) entry(report models.Report, article models.Article) *models.ReportEntry {
	if existing, ok := report[article.Name]; ok {
		return existing
	}
	created := &models.ReportEntry{
		ArticleID:     article.ID,
		SalePrice:     article.SalePrice,
		PurchasePrice: article.PurchasePrice,
	}
	report[article.Name] = created
	return created
}

// ExportFileName derives the canonical export name for a period.
func ExportFileName(start, end time.Time) string {
	return fmt.Sprintf("inventaire_%s_%s.csv", start.Format(dateLayout), end.Format(dateLayout))
}

// Export builds the report for the period and writes it as a CSV file into
// dir, one row per aggregated article, ordered by article id. It returns the
// full path of the written file.
func (s *Service) Export(start, end time.Time, dir string) (string, error) {
	report := s.Build(start, end)

	entries := make([]*models.ReportEntry, 0, len(report))
	for _, entry := range report {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ArticleID < entries[j].ArticleID })

	path := filepath.Join(dir, ExportFileName(start, end))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file %s: %w", path, err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write([]string{"id_article", "prix_vente", "prix_achat", "valeur_achat", "valeur_vente", "benefice"}); err != nil {
		f.Close()
		return "", fmt.Errorf("write export header: %w", err)
	}
	for _, entry := range entries {
		row := []string{
			fmt.Sprint(entry.ArticleID),
			entry.SalePrice.String(),
			entry.PurchasePrice.String(),
			entry.PurchaseValue.String(),
			entry.SaleValue.String(),
			entry.Profit().String(),
		}
		if err := writer.Write(row); err != nil {
			f.Close()
			return "", fmt.Errorf("write export row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return "", fmt.Errorf("flush export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}

	s.logger.Info("report exported", zap.String("file", path), zap.Int("entries", len(entries)))
	return path, nil
}

// Summary renders a one-line digest of a period, used for scheduled
// notifications.
func (s *Service) Summary(start, end time.Time) string {
	report := s.Build(start, end)

	if len(report) == 0 {
		return fmt.Sprintf("Inventaire (%s-%s): no transactions recorded.", start.Format(dateLayout), end.Format(dateLayout))
	}

	saleTotal := decimal.Zero
	purchaseTotal := decimal.Zero
	for _, entry := range report {
		saleTotal = saleTotal.Add(entry.SaleValue)
		purchaseTotal = purchaseTotal.Add(entry.PurchaseValue)
	}

	return fmt.Sprintf("Inventaire (%s-%s): %d articles, sales %s, purchases %s, profit %s.",
		start.Format(dateLayout), end.Format(dateLayout), len(report),
		saleTotal.String(), purchaseTotal.String(), saleTotal.Sub(purchaseTotal).String())
}
