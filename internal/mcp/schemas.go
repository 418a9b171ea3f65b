package mcp

func emptyObjectSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":                 "object",
		"properties":           map[string]interface{}{},
		"additionalProperties": false,
	}
}

func paymentInputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"amount": map[string]interface{}{
				"type":        "integer",
				"description": "Amount to charge in the smallest currency unit, e.g. cents.",
				"minimum":     1,
			},
			"currency": map[string]interface{}{
				"type":        "string",
				"description": "ISO 4217 currency code. Defaults to eur.",
			},
		},
		"required":             []string{"amount"},
		"additionalProperties": false,
	}
}

func compareInputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"items": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "object"},
				"description": "Products to compare, each with id, name, description, price, categories, brand, weight.",
			},
		},
		"required":             []string{"items"},
		"additionalProperties": false,
	}
}

func recipeSearchInputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Free-text recipe search, e.g. a dish name.",
			},
			"cuisine": map[string]interface{}{
				"type":        "string",
				"description": "Preferred cuisine.",
			},
			"diet": map[string]interface{}{
				"type":        "string",
				"description": "Dietary preference.",
			},
			"time_minutes": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum preparation time.",
			},
			"servings": map[string]interface{}{
				"type":        "integer",
				"description": "Number of servings.",
			},
		},
		"required":             []string{"query"},
		"additionalProperties": false,
	}
}

func recipeParseInputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type":        "string",
				"description": "Raw recipe text to parse.",
			},
			"url": map[string]interface{}{
				"type":        "string",
				"description": "Public http(s) recipe URL to fetch and parse. Used when text is empty.",
			},
		},
		"additionalProperties": false,
	}
}
