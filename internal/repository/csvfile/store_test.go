package csvfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/gestock/internal/domain/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func TestLoadArticlesMissingFileYieldsEmpty(t *testing.T) {
	store := newTestStore(t)

	articles, err := store.LoadArticles()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("expected empty collection, got %d articles", len(articles))
	}
}

func TestArticlesRoundTrip(t *testing.T) {
	store := newTestStore(t)

	created := time.Date(2024, 3, 10, 9, 30, 15, 0, time.Local)
	original := []models.Article{
		{ID: 1, Name: "Théière japonaise", SalePrice: dec(t, "24.90"), PurchasePrice: dec(t, "12.5"), Stock: 3, CreatedAt: created},
		{ID: 2, Name: "Café, moulu", SalePrice: dec(t, "8"), PurchasePrice: dec(t, "4.10"), Stock: 0, CreatedAt: created.Add(time.Hour)},
	}

	if err := store.SaveArticles(original); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.LoadArticles()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != len(original) {
		t.Fatalf("expected %d articles, got %d", len(original), len(loaded))
	}

	for i, want := range original {
		got := loaded[i]
		if got.ID != want.ID || got.Name != want.Name || got.Stock != want.Stock {
			t.Errorf("article %d mismatch: got %+v", i, got)
		}
		if !got.SalePrice.Equal(want.SalePrice) || !got.PurchasePrice.Equal(want.PurchasePrice) {
			t.Errorf("article %d price mismatch: got %s/%s", i, got.SalePrice, got.PurchasePrice)
		}
		if !got.CreatedAt.Equal(want.CreatedAt.Truncate(time.Second)) {
			t.Errorf("article %d date mismatch: got %v", i, got.CreatedAt)
		}
	}
}

func TestSaveArticlesRewritesWholeFile(t *testing.T) {
	store := newTestStore(t)

	first := []models.Article{
		{ID: 1, Name: "A", SalePrice: dec(t, "2"), PurchasePrice: dec(t, "1"), CreatedAt: time.Now()},
		{ID: 2, Name: "B", SalePrice: dec(t, "3"), PurchasePrice: dec(t, "1"), CreatedAt: time.Now()},
	}
	if err := store.SaveArticles(first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveArticles(first[:1]); err != nil {
		t.Fatalf("save again: %v", err)
	}

	loaded, err := store.LoadArticles()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected truncate-and-rewrite to leave 1 article, got %d", len(loaded))
	}
}

func TestTransactionsRoundTrip(t *testing.T) {
	store := newTestStore(t)

	date := time.Date(2024, 5, 2, 18, 45, 0, 0, time.Local)
	original := []models.Transaction{
		{ArticleID: 1, Quantity: dec(t, "3"), Date: date},
		{ArticleID: 2, Quantity: dec(t, "0.25"), Date: date.Add(time.Minute)},
	}

	for _, kind := range []models.TransactionKind{models.KindSale, models.KindPurchase} {
		if err := store.SaveTransactions(kind, original); err != nil {
			t.Fatalf("save %s: %v", kind, err)
		}
		loaded, err := store.LoadTransactions(kind)
		if err != nil {
			t.Fatalf("load %s: %v", kind, err)
		}
		if len(loaded) != len(original) {
			t.Fatalf("%s: expected %d transactions, got %d", kind, len(original), len(loaded))
		}
		for i, want := range original {
			got := loaded[i]
			if got.ArticleID != want.ArticleID || !got.Quantity.Equal(want.Quantity) || !got.Date.Equal(want.Date) {
				t.Errorf("%s transaction %d mismatch: got %+v", kind, i, got)
			}
		}
	}
}

func TestTransactionsKeepInstantInNonUTCLocation(t *testing.T) {
	// Timestamps are serialized zone-less, so save and load must agree on the
	// location or every restart shifts stored instants by the UTC offset.
	restore := time.Local
	time.Local = time.FixedZone("UTC+9", 9*60*60)
	defer func() { time.Local = restore }()

	store := newTestStore(t)

	stamped := time.Now().Truncate(time.Second)
	saved := []models.Transaction{{ArticleID: 1, Quantity: dec(t, "2"), Date: stamped}}
	if err := store.SaveTransactions(models.KindSale, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.LoadTransactions(models.KindSale)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(loaded))
	}
	if !loaded[0].Date.Equal(stamped) {
		t.Errorf("instant changed across save/load: saved %v, loaded %v (drift %v)",
			stamped, loaded[0].Date, stamped.Sub(loaded[0].Date))
	}
}

func TestLoadHonorsHeaderOrder(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	// Columns deliberately shuffled relative to the order we write them in.
	content := "date,quantite,id_article\n2024-05-02 18:45:00,3,7\n"
	if err := os.WriteFile(filepath.Join(dir, "ventes.csv"), []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	loaded, err := store.LoadTransactions(models.KindSale)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(loaded))
	}
	if loaded[0].ArticleID != 7 || !loaded[0].Quantity.Equal(dec(t, "3")) {
		t.Errorf("header-driven parse failed: %+v", loaded[0])
	}
}

func TestLoadArticlesPropagatesMalformedRows(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	content := "id_article,nom,prix_vente,prix_achat,stock,date\nnot-a-number,X,1,1,0,2024-05-02 18:45:00\n"
	if err := os.WriteFile(filepath.Join(dir, "articles.csv"), []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := store.LoadArticles(); err == nil {
		t.Fatal("expected malformed row to surface an error")
	}
}

func TestSaveArticlesPropagatesWriteFailure(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	// A directory squatting on the target path makes the rewrite fail.
	if err := os.Mkdir(filepath.Join(dir, "articles.csv"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := store.SaveArticles(nil); err == nil {
		t.Fatal("expected save failure to propagate")
	}
}

func TestSaveTransactionsUnknownKind(t *testing.T) {
	store := newTestStore(t)
	if err := store.SaveTransactions("inconnu", nil); err == nil {
		t.Fatal("expected unknown kind to be rejected")
	}
}
