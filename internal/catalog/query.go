package catalog

import (
	"fmt"
	"strings"

	"shopmcp/internal/model"
)

// MatchMode selects how category terms match catalog rows.
type MatchMode string

const (
	// MatchExact requires the category value to equal a term
	// (case-insensitive), or the description to contain the term with
	// space boundaries on both sides.
	MatchExact MatchMode = "exact"

	// MatchSubstring matches category values containing any term as a
	// case-insensitive substring; name filters match name or description
	// as a substring.
	MatchSubstring MatchMode = "substring"
)

// KnownMatchMode reports whether mode is one of the supported values.
func KnownMatchMode(mode MatchMode) bool {
	return mode == MatchExact || mode == MatchSubstring
}

const productColumns = "id, name, brand, categories, price, rate, description, image"

// buildProductQuery compiles a FilterSet into a single parameterized SQL
// query. Dimensions combine with AND; category terms combine with OR. All
// values travel as `?` placeholder arguments, never spliced into the SQL
// text. The caller's overall limit is NOT pushed into the query; the
// dispatcher truncates after retrieval.
//
// perCategoryCap > 0 wraps the query so each distinct category value keeps
// only its cap cheapest rows.
func buildProductQuery(f model.FilterSet, mode MatchMode, perCategoryCap int) (string, []interface{}, error) {
	if !KnownMatchMode(mode) {
		return "", nil, fmt.Errorf("unsupported match mode %q", mode)
	}

	query := "SELECT " + productColumns + " FROM products"
	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 8)

	if f.Name != "" && mode == MatchSubstring {
		conditions = append(conditions, "(name LIKE ? OR description LIKE ?)")
		args = append(args, "%"+f.Name+"%", "%"+f.Name+"%")
	}

	if len(f.Categories) > 0 {
		terms := make([]string, 0, len(f.Categories)*2)
		switch mode {
		case MatchSubstring:
			for _, c := range f.Categories {
				terms = append(terms, "categories LIKE ?")
				args = append(args, "%"+c+"%")
			}
		case MatchExact:
			for _, c := range f.Categories {
				terms = append(terms, "categories = ? COLLATE NOCASE")
				args = append(args, c)
			}
			for _, c := range f.Categories {
				terms = append(terms, "description LIKE ?")
				args = append(args, "% "+c+" %")
			}
		}
		conditions = append(conditions, "("+strings.Join(terms, " OR ")+")")
	}

	if f.Brand != "" {
		conditions = append(conditions, "brand = ? COLLATE NOCASE")
		args = append(args, f.Brand)
	}
	if f.MinPrice != nil {
		conditions = append(conditions, "price >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		conditions = append(conditions, "price <= ?")
		args = append(args, *f.MaxPrice)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if perCategoryCap > 0 {
		// one partition per category value, cheapest rows first
		query = "SELECT " + productColumns + " FROM (" +
			"SELECT *, ROW_NUMBER() OVER (PARTITION BY categories ORDER BY price) AS rn FROM (" +
			query +
			") subq) WHERE rn <= ?"
		args = append(args, perCategoryCap)
	}

	return query, args, nil
}
