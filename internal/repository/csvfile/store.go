package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mamadbah2/gestock/internal/domain/models"
)

const (
	articlesFile  = "articles.csv"
	salesFile     = "ventes.csv"
	purchasesFile = "achats.csv"
)

// Repository defines the persistence operations the stock service relies on.
// Every save rewrites the whole backing file; there is no append mode and no
// partial update.
type Repository interface {
	LoadArticles() ([]models.Article, error)
	SaveArticles(articles []models.Article) error
	LoadTransactions(kind models.TransactionKind) ([]models.Transaction, error)
	SaveTransactions(kind models.TransactionKind, txs []models.Transaction) error
}

// Store implements Repository on top of one delimited text file per
// collection, all living under a single data directory. A missing file is not
// an error and yields an empty collection; any other I/O failure propagates.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore builds a file-backed store rooted at dir, creating the directory
// when needed.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dir, err)
	}

	return &Store{dir: dir, logger: logger}, nil
}

// LoadArticles reads the article collection from disk.
func (s *Store) LoadArticles() ([]models.Article, error) {
	rows, err := s.readRows(articlesFile)
	if err != nil || rows == nil {
		return nil, err
	}

	articles := make([]models.Article, 0, len(rows))
	for i, row := range rows {
		id, err := row.intField("id_article")
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", articlesFile, i+1, err)
		}
		salePrice, err := row.decimalField("prix_vente")
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", articlesFile, i+1, err)
		}
		purchasePrice, err := row.decimalField("prix_achat")
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", articlesFile, i+1, err)
		}
		stock, err := row.intField("stock")
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", articlesFile, i+1, err)
		}
		date, err := row.timeField("date")
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", articlesFile, i+1, err)
		}

		articles = append(articles, models.Article{
			ID:            id,
			Name:          row.field("nom"),
			SalePrice:     salePrice,
			PurchasePrice: purchasePrice,
			Stock:         stock,
			CreatedAt:     date,
		})
	}

	s.logger.Debug("articles loaded", zap.Int("count", len(articles)))
	return articles, nil
}

// SaveArticles rewrites the article file from the in-memory collection.
func (s *Store) SaveArticles(articles []models.Article) error {
	header := []string{"id_article", "nom", "prix_vente", "prix_achat", "stock", "date"}
	rows := make([][]string, 0, len(articles))
	for _, a := range articles {
		rows = append(rows, []string{
			fmt.Sprint(a.ID),
			a.Name,
			a.SalePrice.String(),
			a.PurchasePrice.String(),
			fmt.Sprint(a.Stock),
			a.CreatedAt.Format(models.TimeLayout),
		})
	}
	return s.writeRows(articlesFile, header, rows)
}

// LoadTransactions reads one ledger from disk.
func (s *Store) LoadTransactions(kind models.TransactionKind) ([]models.Transaction, error) {
	name, err := ledgerFile(kind)
	if err != nil {
		return nil, err
	}

	rows, err := s.readRows(name)
	if err != nil || rows == nil {
		return nil, err
	}

	txs := make([]models.Transaction, 0, len(rows))
	for i, row := range rows {
		id, err := row.intField("id_article")
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", name, i+1, err)
		}
		qty, err := row.decimalField("quantite")
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", name, i+1, err)
		}
		date, err := row.timeField("date")
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", name, i+1, err)
		}

		txs = append(txs, models.Transaction{ArticleID: id, Quantity: qty, Date: date})
	}

	s.logger.Debug("transactions loaded", zap.String("kind", string(kind)), zap.Int("count", len(txs)))
	return txs, nil
}

// SaveTransactions rewrites one ledger file from the in-memory collection.
func (s *Store) SaveTransactions(kind models.TransactionKind, txs []models.Transaction) error {
	name, err := ledgerFile(kind)
	if err != nil {
		return err
	}

	header := []string{"id_article", "quantite", "date"}
	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, []string{
			fmt.Sprint(t.ArticleID),
			t.Quantity.String(),
			t.Date.Format(models.TimeLayout),
		})
	}
	return s.writeRows(name, header, rows)
}

func ledgerFile(kind models.TransactionKind) (string, error) {
	switch kind {
	case models.KindSale:
		return salesFile, nil
	case models.KindPurchase:
		return purchasesFile, nil
	default:
		return "", fmt.Errorf("unknown transaction kind %q", kind)
	}
}

// readRows parses a delimited file header-first: the header row decides which
// columns are present and in what order. A missing file yields nil rows with
// no error.
func (s *Store) readRows(name string) ([]record, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("file absent, starting empty", zap.String("file", name))
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	all, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(all) == 0 {
		return nil, nil
	}

	columns := make(map[string]int, len(all[0]))
	for i, col := range all[0] {
		columns[col] = i
	}

	rows := make([]record, 0, len(all)-1)
	for _, values := range all[1:] {
		rows = append(rows, record{columns: columns, values: values})
	}
	return rows, nil
}

// writeRows truncates the file and rewrites header plus all rows.
func (s *Store) writeRows(name string, header []string, rows [][]string) error {
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write %s header: %w", name, err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write %s row: %w", name, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", name, err)
	}
	// Close errors carry the last chance to see a failed write, so they
	// propagate like any other save failure.
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}

	s.logger.Debug("file rewritten", zap.String("file", name), zap.Int("rows", len(rows)))
	return nil
}
