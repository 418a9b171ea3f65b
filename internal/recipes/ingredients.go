package recipes

import (
	"regexp"
	"strings"

	"shopmcp/internal/model"
)

var (
	innerSpaceRe = regexp.MustCompile(`\s+`)
	numberedRe   = regexp.MustCompile(`^\d+\s`)
	splitRe      = regexp.MustCompile(`[,;]`)
)

// NormalizeIngredientName collapses whitespace runs and trims.
func NormalizeIngredientName(name string) string {
	return innerSpaceRe.ReplaceAllString(strings.TrimSpace(name), " ")
}

// FallbackIngredients extracts an ingredient list from free text without a
// model. Bullet lines (-, *, •) and digit-prefixed lines win; only when none
// exist is the whole text split on commas and semicolons. Results are
// normalized, de-duplicated case-insensitively, first-seen order and casing
// kept.
func FallbackIngredients(text string) []model.Ingredient {
	var candidates []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "•") {
			candidates = append(candidates, strings.TrimSpace(strings.TrimLeft(line, "-*• ")))
			continue
		}
		if numberedRe.MatchString(line) {
			candidates = append(candidates, line)
		}
	}
	if len(candidates) == 0 {
		for _, item := range splitRe.Split(text, -1) {
			if item = strings.TrimSpace(item); item != "" {
				candidates = append(candidates, item)
			}
		}
	}

	seen := make(map[string]bool, len(candidates))
	ingredients := make([]model.Ingredient, 0, len(candidates))
	for _, item := range candidates {
		name := NormalizeIngredientName(item)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		ingredients = append(ingredients, model.Ingredient{Name: name})
	}
	return ingredients
}
