package catalog

import (
	"math"
	"strings"

	"shopmcp/internal/model"
)

// NormalizeFilters turns a loosely-typed tool argument bag into a FilterSet.
// Ambiguous input degrades to "absent" instead of erroring: a bare string
// category is dropped (callers must send arrays), non-numeric bounds are
// ignored, non-positive limits mean no cap.
func NormalizeFilters(args map[string]interface{}) model.FilterSet {
	var f model.FilterSet

	if raw, ok := args["category"].([]interface{}); ok {
		for _, entry := range raw {
			s, ok := entry.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			f.Categories = append(f.Categories, s)
		}
	}

	f.Brand = optionalText(args["brand"])
	f.Name = optionalText(args["name"])
	f.MinPrice = optionalNumber(args["min_price"])
	f.MaxPrice = optionalNumber(args["max_price"])

	if n, ok := optionalInt(args["limit"]); ok && n > 0 {
		f.Limit = n
	}

	return f
}

func optionalText(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func optionalNumber(v interface{}) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	}
	return nil
}

func optionalInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if math.Trunc(n) != n {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
