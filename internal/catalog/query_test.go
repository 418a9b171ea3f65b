package catalog

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"shopmcp/internal/model"
)

type seedProduct struct {
	id          int64
	name        string
	brand       string
	categories  string
	price       interface{} // float64 or nil
	description string
}

func newTestBackend(t *testing.T, mode MatchMode, seed []seedProduct) *SQLiteBackend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.sqlite")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open seed db: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE products (
		id INTEGER PRIMARY KEY,
		name TEXT,
		brand TEXT,
		categories TEXT,
		price REAL,
		rate REAL,
		description TEXT,
		image TEXT
	)`); err != nil {
		t.Fatalf("create products table: %v", err)
	}
	for _, p := range seed {
		if _, err := db.Exec(
			`INSERT INTO products(id, name, brand, categories, price, rate, description, image) VALUES(?, ?, ?, ?, ?, NULL, ?, '')`,
			p.id, p.name, p.brand, p.categories, p.price, p.description,
		); err != nil {
			t.Fatalf("seed product %d: %v", p.id, err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close seed db: %v", err)
	}

	b := NewSQLiteBackend(path, mode)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func productIDs(products []model.Product) []int64 {
	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestSubstringModeCategoryMatchIsCaseInsensitive(t *testing.T) {
	b := newTestBackend(t, MatchSubstring, []seedProduct{
		{id: 1, name: "Pancetta dolce", categories: "Pancetta", price: 4.5},
		{id: 2, name: "Mortadella", categories: "Salumi", price: 3.0},
	})

	got, err := b.Query(context.Background(), model.FilterSet{Categories: []string{"pancetta"}}, 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected product 1, got %v", productIDs(got))
	}
}

func TestSubstringModeMatchesUnrelatedSubstrings(t *testing.T) {
	// "ham" matching "Shampoo" is intentional substring behavior.
	b := newTestBackend(t, MatchSubstring, []seedProduct{
		{id: 1, name: "Herbal Shampoo", categories: "Shampoo", price: 6.0},
		{id: 2, name: "Cured ham", categories: "Ham", price: 12.0},
	})

	got, err := b.Query(context.Background(), model.FilterSet{Categories: []string{"ham"}}, 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both shampoo and ham rows, got %v", productIDs(got))
	}
}

func TestPerCategoryCapKeepsCheapestPerCategory(t *testing.T) {
	b := newTestBackend(t, MatchSubstring, []seedProduct{
		{id: 1, name: "A expensive", categories: "A", price: 5.0},
		{id: 2, name: "A cheap", categories: "A", price: 3.0},
		{id: 3, name: "B only", categories: "B", price: 9.0},
	})

	got, err := b.Query(context.Background(), model.FilterSet{}, 1)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected one row per category, got %v", productIDs(got))
	}
	byCategory := make(map[string]model.Product)
	for _, p := range got {
		byCategory[p.Categories] = p
	}
	if p := byCategory["A"]; p.ID != 2 {
		t.Fatalf("category A kept product %d, want cheapest (2)", p.ID)
	}
	if p := byCategory["B"]; p.ID != 3 {
		t.Fatalf("category B kept product %d, want 3", p.ID)
	}
}

func TestExactModeCategoryEqualsOrDescriptionWordMatch(t *testing.T) {
	b := newTestBackend(t, MatchExact, []seedProduct{
		{id: 1, name: "Drill", categories: "Tools", price: 50, description: "a compact drill"},
		{id: 2, name: "Toolbox", categories: "Storage", price: 20, description: "keeps every tools tray tidy"},
		{id: 3, name: "Stool", categories: "Toolstore", price: 15, description: "plain stool"},
	})

	got, err := b.Query(context.Background(), model.FilterSet{Categories: []string{"tools"}}, 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	ids := productIDs(got)
	if len(ids) != 2 {
		t.Fatalf("expected exact category match plus description word match, got %v", ids)
	}
	for _, id := range ids {
		if id == 3 {
			t.Fatalf("category substring %q must not match in exact mode, got %v", "Toolstore", ids)
		}
	}
}

func TestNameFilterMatchesNameOrDescription(t *testing.T) {
	b := newTestBackend(t, MatchSubstring, []seedProduct{
		{id: 1, name: "Spaghetti N5", categories: "Pasta", price: 1.2},
		{id: 2, name: "Sauce", categories: "Condimenti", price: 2.0, description: "great over spaghetti"},
		{id: 3, name: "Rice", categories: "Riso", price: 1.8},
	})

	got, err := b.Query(context.Background(), model.FilterSet{Name: "spaghetti"}, 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("name filter should hit name and description, got %v", productIDs(got))
	}
}

func TestBrandFilterIsCaseInsensitive(t *testing.T) {
	b := newTestBackend(t, MatchSubstring, []seedProduct{
		{id: 1, name: "Pasta", brand: "Barilla", categories: "Pasta", price: 1.0},
		{id: 2, name: "Pasta", brand: "Altro", categories: "Pasta", price: 1.0},
	})

	got, err := b.Query(context.Background(), model.FilterSet{Brand: "BARILLA"}, 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected NOCASE brand match, got %v", productIDs(got))
	}
}

func TestInvertedPriceBoundsYieldEmptyResult(t *testing.T) {
	min := 10.0
	max := 2.0
	b := newTestBackend(t, MatchSubstring, []seedProduct{
		{id: 1, name: "Pasta", categories: "Pasta", price: 5.0},
	})

	got, err := b.Query(context.Background(), model.FilterSet{MinPrice: &min, MaxPrice: &max}, 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("inverted bounds should be silently empty, got %v", productIDs(got))
	}
}

func TestNullPriceScansToNil(t *testing.T) {
	b := newTestBackend(t, MatchSubstring, []seedProduct{
		{id: 1, name: "No price", categories: "Misc", price: nil},
	})

	got, err := b.Query(context.Background(), model.FilterSet{}, 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 1 || got[0].Price != nil {
		t.Fatalf("null price must stay nil, got %+v", got)
	}
}

func TestQueryUsesPlaceholdersForFilterValues(t *testing.T) {
	min := 1.0
	f := model.FilterSet{
		Categories: []string{"pa'sta"},
		Brand:      "O'Brien",
		Name:       "x' OR '1'='1",
		MinPrice:   &min,
	}
	query, args, err := buildProductQuery(f, MatchSubstring, 2)
	if err != nil {
		t.Fatalf("buildProductQuery failed: %v", err)
	}
	if strings.Contains(query, "'") {
		t.Fatalf("filter values leaked into SQL text: %s", query)
	}
	if want := strings.Count(query, "?"); want != len(args) {
		t.Fatalf("placeholder/arg mismatch: %d placeholders, %d args", want, len(args))
	}
}

func TestBuildQueryRejectsUnknownMatchMode(t *testing.T) {
	if _, _, err := buildProductQuery(model.FilterSet{}, MatchMode("fuzzy"), 0); err == nil {
		t.Fatalf("expected error for unknown match mode")
	}
}

func TestDistinctCategoriesSortedAndNonBlank(t *testing.T) {
	b := newTestBackend(t, MatchSubstring, []seedProduct{
		{id: 1, name: "a", categories: "Vino", price: 1.0},
		{id: 2, name: "b", categories: "Pasta", price: 1.0},
		{id: 3, name: "c", categories: "Pasta", price: 1.0},
		{id: 4, name: "d", categories: "   ", price: 1.0},
	})

	got, err := b.DistinctCategories(context.Background())
	if err != nil {
		t.Fatalf("DistinctCategories failed: %v", err)
	}
	want := []string{"Pasta", "Vino"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("categories = %v, want %v", got, want)
	}
}

func TestQueryMissingDatabaseIsBackendUnavailable(t *testing.T) {
	b := NewSQLiteBackend(filepath.Join(t.TempDir(), "missing", "nope.sqlite"), MatchSubstring)
	t.Cleanup(func() { _ = b.Close() })

	_, err := b.Query(context.Background(), model.FilterSet{}, 0)
	if !errors.Is(err, model.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}
