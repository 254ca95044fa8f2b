package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/gestock/internal/config"
	"github.com/mamadbah2/gestock/internal/domain/models"
	"github.com/mamadbah2/gestock/internal/service/reporting"
	"github.com/mamadbah2/gestock/internal/service/stock"
)

const dateLayout = "2006-01-02"

// StockHandler exposes the record-management operations over HTTP. Input
// parsing and user-facing wording live here; the services underneath only
// return errors.
type StockHandler struct {
	stock     *stock.Service
	reporting *reporting.Service
	cfg       config.Config
	logger    *zap.Logger
}

// NewStockHandler constructs the HTTP handler adapter.
func NewStockHandler(stockSvc *stock.Service, reportingSvc *reporting.Service, cfg config.Config, logger *zap.Logger) *StockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockHandler{stock: stockSvc, reporting: reportingSvc, cfg: cfg, logger: logger}
}

type articleRequest struct {
	Name          string          `json:"nom" binding:"required"`
	SalePrice     decimal.Decimal `json:"prix_vente"`
	PurchasePrice decimal.Decimal `json:"prix_achat"`
}

type articleUpdateRequest struct {
	Name          *string          `json:"nom"`
	SalePrice     *decimal.Decimal `json:"prix_vente"`
	PurchasePrice *decimal.Decimal `json:"prix_achat"`
	Stock         *int             `json:"stock"`
}

type registerRequest struct {
	Name          string          `json:"nom" binding:"required"`
	SalePrice     decimal.Decimal `json:"prix_vente"`
	PurchasePrice decimal.Decimal `json:"prix_achat"`
	Quantity      decimal.Decimal `json:"quantite"`
}

type editRequest struct {
	ArticleID int             `json:"id_article" binding:"required"`
	Quantity  decimal.Decimal `json:"quantite"`
	Date      string          `json:"date" binding:"required"`
}

type exportRequest struct {
	Start string `json:"debut" binding:"required"`
	End   string `json:"fin" binding:"required"`
	Dir   string `json:"dossier"`
}

type loginRequest struct {
	Username string `json:"utilisateur" binding:"required"`
	Password string `json:"mot_de_passe" binding:"required"`
}

type articleResponse struct {
	ID            int             `json:"id_article"`
	Name          string          `json:"nom"`
	SalePrice     decimal.Decimal `json:"prix_vente"`
	PurchasePrice decimal.Decimal `json:"prix_achat"`
	Stock         int             `json:"stock"`
	CreatedAt     string          `json:"date"`
}

type transactionResponse struct {
	ArticleID int             `json:"id_article"`
	Quantity  decimal.Decimal `json:"quantite"`
	Date      string          `json:"date"`
}

// Login checks the hardcoded operator credential pair. It gates nothing by
// itself; it mirrors the legacy login screen so the desktop client keeps its
// flow.
func (h *StockHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.Username != h.cfg.Auth.Username || req.Password != h.cfg.Auth.Password {
		h.logger.Warn("login rejected", zap.String("utilisateur", req.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateArticle adds a new article.
func (h *StockHandler) CreateArticle(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	article, err := h.stock.AddArticle(req.Name, req.SalePrice, req.PurchasePrice)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toArticleResponse(article))
}

// ListArticles returns every article, or a case-insensitive prefix search
// when the nom query parameter is present.
func (h *StockHandler) ListArticles(c *gin.Context) {
	var articles []models.Article
	if prefix, ok := c.GetQuery("nom"); ok {
		articles = h.stock.FindArticlesByNamePrefix(prefix)
	} else {
		articles = h.stock.ListArticles()
	}

	out := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		out = append(out, toArticleResponse(a))
	}
	c.JSON(http.StatusOK, out)
}

// GetArticle returns a single article by id.
func (h *StockHandler) GetArticle(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	article, ok := h.stock.FindArticle(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}

	c.JSON(http.StatusOK, toArticleResponse(article))
}

// UpdateArticle applies a partial update; absent JSON fields are left
// untouched, while explicit zero or empty values are applied.
func (h *StockHandler) UpdateArticle(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	var req articleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	article, err := h.stock.UpdateArticle(id, models.ArticleUpdate{
		Name:          req.Name,
		SalePrice:     req.SalePrice,
		PurchasePrice: req.PurchasePrice,
		Stock:         req.Stock,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, toArticleResponse(article))
}

// DeleteArticle removes an article by id.
func (h *StockHandler) DeleteArticle(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	if err := h.stock.RemoveArticle(id); err != nil {
		h.renderError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterSale records a sale against the article matching the name and
// prices exactly.
func (h *StockHandler) RegisterSale(c *gin.Context) {
	h.registerTransaction(c, h.stock.RegisterSale)
}

// RegisterPurchase records a purchase, see RegisterSale.
func (h *StockHandler) RegisterPurchase(c *gin.Context) {
	h.registerTransaction(c, h.stock.RegisterPurchase)
}

func (h *StockHandler) registerTransaction(c *gin.Context, register func(string, decimal.Decimal, decimal.Decimal, decimal.Decimal) (models.Transaction, error)) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tx, err := register(req.Name, req.SalePrice, req.PurchasePrice, req.Quantity)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toTransactionResponse(tx))
}

// EditSale overwrites the quantity of the sale addressed by article id and
// timestamp, resetting its date to now.
func (h *StockHandler) EditSale(c *gin.Context) {
	h.editTransaction(c, h.stock.EditSale)
}

// EditPurchase edits a purchase, see EditSale.
func (h *StockHandler) EditPurchase(c *gin.Context) {
	h.editTransaction(c, h.stock.EditPurchase)
}

func (h *StockHandler) editTransaction(c *gin.Context, edit func(int, decimal.Decimal, time.Time) (models.Transaction, error)) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	date, err := time.ParseInLocation(models.TimeLayout, req.Date, time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD HH:MM:SS"})
		return
	}

	tx, err := edit(req.ArticleID, req.Quantity, date)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTransactionResponse(tx))
}

// ListSales returns the sales ledger in insertion order.
func (h *StockHandler) ListSales(c *gin.Context) {
	h.listTransactions(c, h.stock.ListSales())
}

// ListPurchases returns the purchases ledger in insertion order.
func (h *StockHandler) ListPurchases(c *gin.Context) {
	h.listTransactions(c, h.stock.ListPurchases())
}

func (h *StockHandler) listTransactions(c *gin.Context, txs []models.Transaction) {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	c.JSON(http.StatusOK, out)
}

// GetReport aggregates both ledgers over the debut/fin day range (inclusive)
// and returns entries keyed by article name, with the derived profit.
func (h *StockHandler) GetReport(c *gin.Context) {
	start, end, err := parsePeriod(c.Query("debut"), c.Query("fin"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := h.reporting.Build(start, end)

	type reportRow struct {
		models.ReportEntry
		Profit decimal.Decimal `json:"benefice"`
	}
	out := make(map[string]reportRow, len(report))
	for name, entry := range report {
		out[name] = reportRow{ReportEntry: *entry, Profit: entry.Profit()}
	}

	c.JSON(http.StatusOK, out)
}

// ExportReport writes the aggregated report for the period as a CSV file and
// returns its path. The destination directory defaults to the configured
// export directory.
func (h *StockHandler) ExportReport(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	start, end, err := parsePeriod(req.Start, req.End)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dir := req.Dir
	if dir == "" {
		dir = h.cfg.Reporting.ExportDir
	}

	path, err := h.reporting.Export(start, end, dir)
	if err != nil {
		h.logger.Error("report export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export report"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"fichier": path})
}

// parsePeriod turns day-precision bounds into an inclusive timestamp range
// covering both whole days. Days are taken in the local location, matching
// the clock transactions are stamped with and the scheduler's day window.
func parsePeriod(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dateLayout, startRaw, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid debut date, expected YYYY-MM-DD")
	}
	end, err := time.ParseInLocation(dateLayout, endRaw, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid fin date, expected YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("fin must not precede debut")
	}
	return start, end.Add(24*time.Hour - time.Second), nil
}

func (h *StockHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, stock.ErrDuplicateArticle):
		c.JSON(http.StatusConflict, gin.H{"error": "article already exists"})
	case errors.Is(err, stock.ErrArticleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
	case errors.Is(err, stock.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
	case errors.Is(err, models.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": "prices must be greater than zero"})
	default:
		h.logger.Error("operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func toArticleResponse(a models.Article) articleResponse {
	return articleResponse{
		ID:            a.ID,
		Name:          a.Name,
		SalePrice:     a.SalePrice,
		PurchasePrice: a.PurchasePrice,
		Stock:         a.Stock,
		CreatedAt:     a.CreatedAt.Format(models.TimeLayout),
	}
}

func toTransactionResponse(t models.Transaction) transactionResponse {
	return transactionResponse{
		ArticleID: t.ArticleID,
		Quantity:  t.Quantity,
		Date:      t.Date.Format(models.TimeLayout),
	}
}
