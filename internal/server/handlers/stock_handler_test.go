package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/gestock/internal/config"
	"github.com/mamadbah2/gestock/internal/repository/csvfile"
	"github.com/mamadbah2/gestock/internal/service/reporting"
	"github.com/mamadbah2/gestock/internal/service/stock"
)

func newTestRouter(t *testing.T) (*gin.Engine, *stock.Service, config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := csvfile.NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	stockSvc, err := stock.NewService(store, nil)
	if err != nil {
		t.Fatalf("new stock service: %v", err)
	}
	reportingSvc := reporting.NewService(stockSvc, nil)

	cfg := config.Config{
		Reporting: config.ReportingConfig{ExportDir: t.TempDir()},
		Auth:      config.AuthConfig{Username: "admin", Password: "secret"},
	}

	handler := NewStockHandler(stockSvc, reportingSvc, cfg, nil)

	r := gin.New()
	r.POST("/login", handler.Login)
	r.GET("/articles", handler.ListArticles)
	r.POST("/articles", handler.CreateArticle)
	r.GET("/articles/:id", handler.GetArticle)
	r.PUT("/articles/:id", handler.UpdateArticle)
	r.DELETE("/articles/:id", handler.DeleteArticle)
	r.GET("/ventes", handler.ListSales)
	r.POST("/ventes", handler.RegisterSale)
	r.PUT("/ventes", handler.EditSale)
	r.POST("/achats", handler.RegisterPurchase)
	r.GET("/inventaire", handler.GetReport)
	r.POST("/inventaire/export", handler.ExportReport)

	return r, stockSvc, cfg
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func mustAdd(t *testing.T, svc *stock.Service, name, salePrice, purchasePrice string) {
	t.Helper()
	if _, err := svc.AddArticle(name, dec(t, salePrice), dec(t, purchasePrice)); err != nil {
		t.Fatalf("add article %s: %v", name, err)
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateArticle(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/articles", `{"nom":"Widget","prix_vente":10,"prix_achat":5}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["id_article"] != float64(1) || resp["nom"] != "Widget" {
		t.Errorf("unexpected response %v", resp)
	}

	// Duplicate triplet is a conflict.
	w = doJSON(t, r, http.MethodPost, "/articles", `{"nom":"Widget","prix_vente":10,"prix_achat":5}`)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}

	// Non-positive price is a bad request.
	w = doJSON(t, r, http.MethodPost, "/articles", `{"nom":"Broken","prix_vente":0,"prix_achat":5}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestGetAndDeleteArticle(t *testing.T) {
	r, stockSvc, _ := newTestRouter(t)
	mustAdd(t, stockSvc, "Widget", "10", "5")

	w := doJSON(t, r, http.MethodGet, "/articles/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/articles/99", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodDelete, "/articles/1", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodDelete, "/articles/1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestListArticlesWithPrefix(t *testing.T) {
	r, stockSvc, _ := newTestRouter(t)
	mustAdd(t, stockSvc, "Théière", "20", "10")
	mustAdd(t, stockSvc, "Café", "5", "2")

	w := doJSON(t, r, http.MethodGet, "/articles?nom=th%C3%A9", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 1 || resp[0]["nom"] != "Théière" {
		t.Errorf("unexpected prefix result %v", resp)
	}
}

func TestUpdateArticlePartial(t *testing.T) {
	r, stockSvc, _ := newTestRouter(t)
	mustAdd(t, stockSvc, "Widget", "10", "5")

	w := doJSON(t, r, http.MethodPut, "/articles/1", `{"stock":0,"prix_vente":12.5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["prix_vente"] != "12.5" || resp["nom"] != "Widget" {
		t.Errorf("unexpected update result %v", resp)
	}
}

func TestRegisterAndEditSale(t *testing.T) {
	r, stockSvc, _ := newTestRouter(t)
	mustAdd(t, stockSvc, "Widget", "10", "5")

	w := doJSON(t, r, http.MethodPost, "/ventes", `{"nom":"Widget","prix_vente":10,"prix_achat":5,"quantite":3}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var tx map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &tx); err != nil {
		t.Fatalf("decode: %v", err)
	}
	date, _ := tx["date"].(string)
	if date == "" {
		t.Fatal("expected transaction date in response")
	}

	w = doJSON(t, r, http.MethodPut, "/ventes", `{"id_article":1,"quantite":9,"date":"`+date+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Unknown article on register maps to 404.
	w = doJSON(t, r, http.MethodPost, "/ventes", `{"nom":"Ghost","prix_vente":1,"prix_achat":1,"quantite":1}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestGetReport(t *testing.T) {
	r, stockSvc, _ := newTestRouter(t)
	mustAdd(t, stockSvc, "Widget", "10", "5")
	if _, err := stockSvc.RegisterSale("Widget", dec(t, "10"), dec(t, "5"), dec(t, "3")); err != nil {
		t.Fatalf("register: %v", err)
	}

	today := time.Now().Format("2006-01-02")
	w := doJSON(t, r, http.MethodGet, "/inventaire?debut="+today+"&fin="+today, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	entry, ok := resp["Widget"]
	if !ok {
		t.Fatalf("expected Widget entry, got %v", resp)
	}
	if entry["valeur_vente"] != "30" || entry["benefice"] != "30" {
		t.Errorf("unexpected report entry %v", entry)
	}

	w = doJSON(t, r, http.MethodGet, "/inventaire?debut=bogus&fin="+today, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestExportReport(t *testing.T) {
	r, stockSvc, cfg := newTestRouter(t)
	mustAdd(t, stockSvc, "Widget", "10", "5")
	if _, err := stockSvc.RegisterSale("Widget", dec(t, "10"), dec(t, "5"), dec(t, "2")); err != nil {
		t.Fatalf("register: %v", err)
	}

	today := time.Now().Format("2006-01-02")
	w := doJSON(t, r, http.MethodPost, "/inventaire/export", `{"debut":"`+today+`","fin":"`+today+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	path := resp["fichier"]
	if !strings.HasPrefix(path, cfg.Reporting.ExportDir) {
		t.Errorf("expected export under configured dir, got %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected export file on disk: %v", err)
	}
	if !strings.HasSuffix(path, "inventaire_"+today+"_"+today+".csv") {
		t.Errorf("unexpected export name %q", path)
	}
}

func TestLogin(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/login", `{"utilisateur":"admin","mot_de_passe":"secret"}`)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/login", `{"utilisateur":"admin","mot_de_passe":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}
