package model

// Product is a read-only projection of one catalog row. A product carries a
// single category string per row; catalogs that need multiple categories store
// one row per category.
type Product struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand,omitempty"`
	Categories  string   `json:"categories,omitempty"`
	Price       *float64 `json:"price"` // nil means unknown, distinct from 0
	Rate        *float64 `json:"rate,omitempty"`
	Description string   `json:"description,omitempty"`
	Image       string   `json:"image,omitempty"`
}

// FilterSet is the normalized form of the product-filter arguments accepted by
// the widget tools. Zero values mean "absent": nil pointers for bounds, empty
// slice for categories, 0 for no limit.
type FilterSet struct {
	Categories []string // ordered, trimmed, duplicates kept
	Brand      string
	Name       string
	MinPrice   *float64
	MaxPrice   *float64
	Limit      int
}

// Empty reports whether no filter dimension is set.
func (f FilterSet) Empty() bool {
	return len(f.Categories) == 0 && f.Brand == "" && f.Name == "" &&
		f.MinPrice == nil && f.MaxPrice == nil && f.Limit == 0
}

// Recipe is one recipe returned by an external recipe search.
type Recipe struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	SourceURL   string       `json:"source_url,omitempty"`
	Ingredients []Ingredient `json:"ingredients"`
}

// Ingredient pairs an ingredient name with its free-text measure.
type Ingredient struct {
	Name    string `json:"name"`
	Measure string `json:"measure,omitempty"`
}

// ParsedRecipe is the result of extracting ingredients from recipe text.
type ParsedRecipe struct {
	Title       string       `json:"title"`
	Ingredients []Ingredient `json:"ingredients"`
}

// ProContra holds one model-generated purchase argument pair. The id echoes
// whatever the caller supplied for the item, so it stays loosely typed.
type ProContra struct {
	ID     interface{} `json:"id"`
	Pro    string      `json:"pro"`
	Contro string      `json:"contro"`
}

// PaymentIntent is the trimmed view of a created Stripe payment intent.
type PaymentIntent struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	ClientSecret string `json:"client_secret,omitempty"`
}
