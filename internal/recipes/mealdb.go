package recipes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shopmcp/internal/model"
)

const (
	// DefaultMealDBBaseURL is the free tier of TheMealDB API.
	DefaultMealDBBaseURL = "https://www.themealdb.com/api/json/v1/1"

	searchTimeout = 15 * time.Second
	// meal records carry exactly 20 numbered ingredient/measure pairs
	mealIngredientSlots = 20
)

// MealDBClient searches TheMealDB by free-text query.
type MealDBClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewMealDBClient(baseURL string) *MealDBClient {
	if baseURL == "" {
		baseURL = DefaultMealDBBaseURL
	}
	return &MealDBClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: searchTimeout},
	}
}

func (c *MealDBClient) Search(ctx context.Context, query string) ([]model.Recipe, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("s", query)
	endpoint := c.baseURL + "/search.php?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &model.CollaboratorError{
			Op:      "mealdb.search",
			Code:    "bad_request",
			Message: "invalid search request",
			Cause:   err,
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &model.CollaboratorError{
			Op:        "mealdb.search",
			Code:      "request_failed",
			Message:   "recipe search request failed",
			Retryable: true,
			Cause:     err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &model.CollaboratorError{
			Op:         "mealdb.search",
			Code:       "unexpected_status",
			Message:    fmt.Sprintf("recipe search returned status %d", resp.StatusCode),
			Retryable:  resp.StatusCode >= 500,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.CollaboratorError{
			Op:        "mealdb.search",
			Code:      "read_failed",
			Message:   "failed to read search response",
			Retryable: true,
			Cause:     err,
		}
	}

	var payload struct {
		Meals []map[string]interface{} `json:"meals"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &model.CollaboratorError{
			Op:      "mealdb.search",
			Code:    "bad_response",
			Message: "search response is not valid JSON",
			Cause:   err,
		}
	}

	recipes := make([]model.Recipe, 0, len(payload.Meals))
	for _, meal := range payload.Meals {
		source := mealField(meal, "strSource")
		if source == "" {
			source = mealField(meal, "strYoutube")
		}
		recipes = append(recipes, model.Recipe{
			ID:          mealField(meal, "idMeal"),
			Title:       mealField(meal, "strMeal"),
			SourceURL:   source,
			Ingredients: ParseMealIngredients(meal),
		})
	}
	return recipes, nil
}

// ParseMealIngredients walks the numbered strIngredientN/strMeasureN pairs of
// one meal record, skipping any slot whose name is blank after normalization.
func ParseMealIngredients(meal map[string]interface{}) []model.Ingredient {
	ingredients := make([]model.Ingredient, 0, mealIngredientSlots)
	for i := 1; i <= mealIngredientSlots; i++ {
		name := NormalizeIngredientName(mealField(meal, fmt.Sprintf("strIngredient%d", i)))
		if name == "" {
			continue
		}
		measure := NormalizeIngredientName(mealField(meal, fmt.Sprintf("strMeasure%d", i)))
		ingredients = append(ingredients, model.Ingredient{Name: name, Measure: measure})
	}
	return ingredients
}

func mealField(meal map[string]interface{}, key string) string {
	s, _ := meal[key].(string)
	return s
}
