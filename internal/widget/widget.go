package widget

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// MIMEType is the content type the host expects for widget markup resources.
const MIMEType = "text/html+skybridge"

// Widget is the static descriptor of one UI widget. Descriptors are loaded
// once at startup and immutable afterwards.
type Widget struct {
	Identifier   string
	Title        string
	Description  string
	TemplateURI  string
	Invoking     string
	Invoked      string
	HTML         string
	ResponseText string
}

// Set holds the loaded widgets with lookup maps by identifier and URI.
type Set struct {
	All   []Widget
	ByID  map[string]Widget
	ByURI map[string]Widget
}

var definitions = []Widget{
	{
		Identifier: "carousel",
		Title:      "Show Carousel",
		Description: "Show a carousel of products when the user don't request a bundle of products " +
			"for a specific purpose. Show products related to the context of the user query. " +
			"This widget is ideal for exploration of products. When filtering by category or context, " +
			"always pass 'category' and 'context' as an array of strings, never as a single string, " +
			"you MUST pass it at least in english and italian.",
		TemplateURI:  "ui://widget/carousel.html",
		Invoking:     "Carousel some spots",
		Invoked:      "Served a fresh carousel",
		ResponseText: "Rendered a carousel!",
	},
	{
		Identifier: "list",
		Title:      "Show List of Products",
		Description: "Show a list of products when the user requests a bundle of products or express " +
			"a need for a group of products for a specific project or activity. This widget is ideal " +
			"for bulk product buy when needed for a specific project or activity. When filtering by " +
			"category or context, always pass 'category' and 'context' as an array of strings, never " +
			"as a single string, you MUST pass it at least in english and italian. For recipe " +
			"ingredients: first call recipe_search, then you MUST invoke this tool (call the list " +
			"tool) with 'category' and 'limit' so the user sees the 'list' widget with items to buy " +
			"— do not respond with only a JSON of categories or 'items'; never pass 'name', or the " +
			"catalog returns 0 results.",
		TemplateURI:  "ui://widget/list.html",
		Invoking:     "List some spots",
		Invoked:      "Show a list of products",
		ResponseText: "Showed a list of products!",
	},
	{
		Identifier:   "shopping-cart",
		Title:        "Shopping Cart",
		Description:  "Show the shopping cart with selected products added by the user during the conversation.",
		TemplateURI:  "ui://widget/shopping-cart.html",
		Invoking:     "Open shopping cart",
		Invoked:      "Opened shopping cart",
		ResponseText: "Rendered the shopping cart!",
	},
}

// Load reads the markup for every registered widget from assetsDir. Missing
// markup for a registered widget is a startup failure, not a per-request
// condition.
func Load(assetsDir string) (*Set, error) {
	set := &Set{
		All:   make([]Widget, 0, len(definitions)),
		ByID:  make(map[string]Widget, len(definitions)),
		ByURI: make(map[string]Widget, len(definitions)),
	}
	for _, w := range definitions {
		html, err := loadMarkup(assetsDir, w.Identifier)
		if err != nil {
			return nil, err
		}
		w.HTML = html
		set.All = append(set.All, w)
		set.ByID[w.Identifier] = w
		set.ByURI[w.TemplateURI] = w
	}
	return set, nil
}

// loadMarkup prefers <id>.html and falls back to the last <id>-*.html, which
// picks the newest content-hashed bundle.
func loadMarkup(assetsDir, identifier string) (string, error) {
	direct := filepath.Join(assetsDir, identifier+".html")
	if data, err := os.ReadFile(direct); err == nil {
		return string(data), nil
	}

	matches, err := filepath.Glob(filepath.Join(assetsDir, identifier+"-*.html"))
	if err == nil && len(matches) > 0 {
		sort.Strings(matches)
		data, err := os.ReadFile(matches[len(matches)-1])
		if err == nil {
			return string(data), nil
		}
	}

	return "", fmt.Errorf(
		"widget markup for %q not found in %s: build the frontend assets before starting the server",
		identifier, assetsDir,
	)
}
