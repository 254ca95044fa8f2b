package stock

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/gestock/internal/domain/models"
	"github.com/mamadbah2/gestock/internal/repository/csvfile"
)

var (
	// ErrArticleNotFound signals an operation referencing an unknown article.
	ErrArticleNotFound = errors.New("article not found")
	// ErrDuplicateArticle signals an add colliding with an existing article on
	// the (name, sale price, purchase price) triplet.
	ErrDuplicateArticle = errors.New("article already exists")
	// ErrTransactionNotFound signals an edit that matched no ledger entry.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// Service owns the article collection and both transaction ledgers. Every
// mutating operation rewrites the backing file of the touched collection
// before the in-memory state is replaced, so a failed save leaves memory
// consistent with disk.
//
// A single mutex serializes all operations; the original tool is a
// single-operator synchronous application and the persistence layer rewrites
// whole files, so finer-grained locking buys nothing.
type Service struct {
	mu        sync.Mutex
	repo      csvfile.Repository
	articles  []models.Article
	sales     []models.Transaction
	purchases []models.Transaction
	logger    *zap.Logger
}

// NewService loads all three collections from the repository. Absent files
// start the matching collection empty; any other load failure aborts startup.
func NewService(repo csvfile.Repository, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	articles, err := repo.LoadArticles()
	if err != nil {
		return nil, err
	}
	sales, err := repo.LoadTransactions(models.KindSale)
	if err != nil {
		return nil, err
	}
	purchases, err := repo.LoadTransactions(models.KindPurchase)
	if err != nil {
		return nil, err
	}

	logger.Info("collections loaded",
		zap.Int("articles", len(articles)),
		zap.Int("sales", len(sales)),
		zap.Int("purchases", len(purchases)))

	return &Service{
		repo:      repo,
		articles:  articles,
		sales:     sales,
		purchases: purchases,
		logger:    logger,
	}, nil
}

// AddArticle creates and persists a new article. The id is strictly
// monotonic (highest existing id plus one), so ids stay unique even after
// deletions; for files that never saw a deletion this matches the historical
// count-plus-one numbering.
func (s *Service) AddArticle(name string, salePrice, purchasePrice decimal.Decimal) (models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	article, err := models.NewArticle(s.nextID(), name, salePrice, purchasePrice, time.Now())
	if err != nil {
		return models.Article{}, err
	}

	for _, existing := range s.articles {
		if existing.Matches(name, salePrice, purchasePrice) {
			return models.Article{}, ErrDuplicateArticle
		}
	}

	updated := append(append([]models.Article{}, s.articles...), article)
	if err := s.repo.SaveArticles(updated); err != nil {
		return models.Article{}, err
	}
	s.articles = updated

	s.logger.Info("article added", zap.Int("id", article.ID), zap.String("nom", article.Name))
	return article, nil
}

// RemoveArticle deletes the first article carrying the given id. Ledger
// entries referencing it are kept and become dangling; listings and reports
// skip them silently.
func (s *Service) RemoveArticle(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, a := range s.articles {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrArticleNotFound
	}

	updated := append([]models.Article{}, s.articles[:idx]...)
	updated = append(updated, s.articles[idx+1:]...)
	if err := s.repo.SaveArticles(updated); err != nil {
		return err
	}
	s.articles = updated

	s.logger.Info("article removed", zap.Int("id", id))
	return nil
}

// UpdateArticle overlays the provided fields onto the article with the given
// id and persists the collection. Nil fields are left unchanged, so zero and
// empty-string values are legitimate updates.
func (s *Service) UpdateArticle(id int, upd models.ArticleUpdate) (models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, a := range s.articles {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Article{}, ErrArticleNotFound
	}

	article, err := upd.Apply(s.articles[idx])
	if err != nil {
		return models.Article{}, err
	}

	updated := append([]models.Article{}, s.articles...)
	updated[idx] = article
	if err := s.repo.SaveArticles(updated); err != nil {
		return models.Article{}, err
	}
	s.articles = updated

	s.logger.Info("article updated", zap.Int("id", id))
	return article, nil
}

// FindArticle returns the first article with the given id.
func (s *Service) FindArticle(id int) (models.Article, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.articles {
		if a.ID == id {
			return a, true
		}
	}
	return models.Article{}, false
}

// FindArticlesByNamePrefix returns every article whose name starts with the
// given prefix, case-insensitively, in insertion order.
func (s *Service) FindArticlesByNamePrefix(prefix string) []models.Article {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches := make([]models.Article, 0)
	for _, a := range s.articles {
		if a.HasNamePrefix(prefix) {
			matches = append(matches, a)
		}
	}
	return matches
}

// ListArticles returns a snapshot of the article collection in insertion
// order.
func (s *Service) ListArticles() []models.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Article{}, s.articles...)
}

// RegisterSale appends a sale for the article matching the (name, sale price,
// purchase price) triplet exactly, timestamped now. Stock is deliberately not
// adjusted.
func (s *Service) RegisterSale(name string, salePrice, purchasePrice, quantity decimal.Decimal) (models.Transaction, error) {
	return s.register(models.KindSale, name, salePrice, purchasePrice, quantity)
}

// RegisterPurchase appends a purchase, see RegisterSale.
func (s *Service) RegisterPurchase(name string, salePrice, purchasePrice, quantity decimal.Decimal) (models.Transaction, error) {
	return s.register(models.KindPurchase, name, salePrice, purchasePrice, quantity)
}

func (s *Service) register(kind models.TransactionKind, name string, salePrice, purchasePrice, quantity decimal.Decimal) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var article *models.Article
	for i := range s.articles {
		if s.articles[i].Matches(name, salePrice, purchasePrice) {
			article = &s.articles[i]
			break
		}
	}
	if article == nil {
		return models.Transaction{}, ErrArticleNotFound
	}

	tx := models.Transaction{
		ArticleID: article.ID,
		Quantity:  quantity,
		Date:      time.Now().Truncate(time.Second),
	}

	ledger := s.ledger(kind)
	updated := append(append([]models.Transaction{}, *ledger...), tx)
	if err := s.repo.SaveTransactions(kind, updated); err != nil {
		return models.Transaction{}, err
	}
	*ledger = updated

	s.logger.Info("transaction registered",
		zap.String("kind", string(kind)),
		zap.Int("id_article", tx.ArticleID),
		zap.String("quantite", quantity.String()))
	return tx, nil
}

// EditSale overwrites the quantity of the first sale matching the article id
// and the given timestamp at second precision, and resets its date to now.
func (s *Service) EditSale(articleID int, quantity decimal.Decimal, date time.Time) (models.Transaction, error) {
	return s.edit(models.KindSale, articleID, quantity, date)
}

// EditPurchase edits a purchase, see EditSale.
func (s *Service) EditPurchase(articleID int, quantity decimal.Decimal, date time.Time) (models.Transaction, error) {
	return s.edit(models.KindPurchase, articleID, quantity, date)
}

func (s *Service) edit(kind models.TransactionKind, articleID int, quantity decimal.Decimal, date time.Time) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := date.Format(models.TimeLayout)
	ledger := s.ledger(kind)

	idx := -1
	for i, tx := range *ledger {
		if tx.ArticleID == articleID && tx.Date.Format(models.TimeLayout) == stamp {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Transaction{}, ErrTransactionNotFound
	}

	updated := append([]models.Transaction{}, *ledger...)
	updated[idx].Quantity = quantity
	updated[idx].Date = time.Now().Truncate(time.Second)
	if err := s.repo.SaveTransactions(kind, updated); err != nil {
		return models.Transaction{}, err
	}
	*ledger = updated

	s.logger.Info("transaction edited",
		zap.String("kind", string(kind)),
		zap.Int("id_article", articleID),
		zap.String("date", stamp))
	return updated[idx], nil
}

// ListSales returns a snapshot of the sales ledger in insertion order.
// Nothing is resolved at list time, so rows referencing a deleted article are
// returned as-is; skipping dangling references happens where articles are
// actually resolved, in the report aggregation.
func (s *Service) ListSales() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Transaction{}, s.sales...)
}

// ListPurchases returns a snapshot of the purchases ledger in insertion
// order, with the same treatment of dangling references as ListSales.
func (s *Service) ListPurchases() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Transaction{}, s.purchases...)
}

func (s *Service) ledger(kind models.TransactionKind) *[]models.Transaction {
	if kind == models.KindPurchase {
		return &s.purchases
	}
	return &s.sales
}

func (s *Service) nextID() int {
	max := 0
	for _, a := range s.articles {
		if a.ID > max {
			max = a.ID
		}
	}
	return max + 1
}
