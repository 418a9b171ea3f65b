package model

import "context"

// Enricher generates product comparison material and recipe extractions via
// a language model. Implementations degrade gracefully when unconfigured:
// empty pro/contro list, deterministic fallback ingredient parse.
type Enricher interface {
	GenerateProContro(ctx context.Context, items []map[string]interface{}) ([]ProContra, error)
	ParseRecipe(ctx context.Context, text string) (ParsedRecipe, error)
}

// PaymentProvider creates payment intents. Amount is in the currency's
// smallest unit.
type PaymentProvider interface {
	CreatePaymentIntent(ctx context.Context, amount int64, currency string) (PaymentIntent, error)
}

// RecipeSource searches an external recipe database by free-text query.
type RecipeSource interface {
	Search(ctx context.Context, query string) ([]Recipe, error)
}

// PageFetcher retrieves the plain-text reduction of a remote page.
type PageFetcher interface {
	FetchText(ctx context.Context, rawURL string) (string, error)
}
