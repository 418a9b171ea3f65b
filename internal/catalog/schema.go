package catalog

// productInputSchema describes the filter arguments a backend accepts, in the
// JSON-schema shape advertised through tools/list. The category description
// differs per match mode: substring-mode catalogs expose their own category
// list, exact-mode catalogs want every synonym spelled out by the caller.
func productInputSchema(mode MatchMode) map[string]interface{} {
	properties := map[string]interface{}{
		"limit": map[string]interface{}{
			"type":        "integer",
			"description": "Max number of products to return.",
			"minimum":     1,
		},
		"brand": map[string]interface{}{
			"type":        "string",
			"description": "Brand of products to return.",
		},
		"min_price": map[string]interface{}{
			"type":        "number",
			"description": "Minimum price of products to return.",
		},
		"max_price": map[string]interface{}{
			"type":        "number",
			"description": "Maximum price of products to return.",
		},
	}

	switch mode {
	case MatchSubstring:
		properties["name"] = map[string]interface{}{
			"type":        "string",
			"description": "Name of products to return.",
		}
		properties["category"] = map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
			"description": "REQUIRED format: array of strings, never a single string. " +
				"Allowed values are the category names present in the product catalog; " +
				"obtain them dynamically from the catalog rather than inventing new ones.",
		}
	default:
		properties["category"] = map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
			"description": "REQUIRED format: array of strings, never a single string. " +
				"Pass all synonyms and variants for the category (plural, singular, " +
				"different languages, spacing variants), at least in English and Italian.",
		}
	}

	return map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
}
