package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"shopmcp/internal/model"
)

// Backend is the pluggable data-access unit behind one project: an input
// schema advertised through tools/list and a query function. Implementations
// must be safe for concurrent use.
type Backend interface {
	InputSchema() map[string]interface{}
	Query(ctx context.Context, f model.FilterSet, perCategoryCap int) ([]model.Product, error)
}

// CategoryLister is an optional Backend extension exposing the distinct
// category values of the catalog, used to enrich prompt context.
type CategoryLister interface {
	DistinctCategories(ctx context.Context) ([]string, error)
}

// SQLiteBackend queries one project's product catalog in a SQLite file.
type SQLiteBackend struct {
	path string
	mode MatchMode

	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteBackend(path string, mode MatchMode) *SQLiteBackend {
	return &SQLiteBackend{path: path, mode: mode}
}

func (b *SQLiteBackend) Init(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", b.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	b.db = db
	return nil
}

func (b *SQLiteBackend) InputSchema() map[string]interface{} {
	return productInputSchema(b.mode)
}

func (b *SQLiteBackend) Query(ctx context.Context, f model.FilterSet, perCategoryCap int) ([]model.Product, error) {
	query, args, err := buildProductQuery(f, b.mode, perCategoryCap)
	if err != nil {
		return nil, err
	}

	db, err := b.ensureDB(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	products := make([]model.Product, 0, 16)
	for rows.Next() {
		var (
			p           model.Product
			name        sql.NullString
			brand       sql.NullString
			categories  sql.NullString
			price       sql.NullFloat64
			rate        sql.NullFloat64
			description sql.NullString
			image       sql.NullString
		)
		if err := rows.Scan(&p.ID, &name, &brand, &categories, &price, &rate, &description, &image); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
		}
		p.Name = name.String
		p.Brand = brand.String
		p.Categories = categories.String
		p.Description = description.String
		p.Image = image.String
		if price.Valid {
			v := price.Float64
			p.Price = &v
		}
		if rate.Valid {
			v := rate.Float64
			p.Rate = &v
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	return products, nil
}

func (b *SQLiteBackend) DistinctCategories(ctx context.Context) ([]string, error) {
	db, err := b.ensureDB(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}

	rows, err := db.QueryContext(
		ctx,
		`SELECT DISTINCT categories FROM products
		 WHERE categories IS NOT NULL AND TRIM(categories) != ''
		 ORDER BY categories`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]string, 0, 16)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (b *SQLiteBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

func (b *SQLiteBackend) ensureDB(ctx context.Context) (*sql.DB, error) {
	if err := b.Init(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil, errors.New("sqlite db not initialized")
	}
	return b.db, nil
}
