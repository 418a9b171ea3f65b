package llm

import (
	"context"
	"encoding/json"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"shopmcp/internal/model"
	"shopmcp/internal/recipes"
)

const (
	// DefaultChatModel mirrors the model used by the production prompts.
	DefaultChatModel = "gpt-4.1-mini"

	completionTimeout = 20 * time.Second
)

// Client talks to an OpenAI-compatible chat-completions endpoint. A client
// without an API key is valid: every method degrades (empty pro/contro list,
// deterministic fallback recipe parse) instead of erroring.
type Client struct {
	client     openai.Client
	chatModel  shared.ChatModel
	configured bool
}

func NewClient(apiKey, baseURL, chatModel string) *Client {
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	c := &Client{chatModel: shared.ChatModel(chatModel)}
	if apiKey == "" {
		return c
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	c.client = openai.NewClient(opts...)
	c.configured = true
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.configured
}

const proControSystem = "You are an assistant that summarizes PROS and CONS briefly, " +
	"based ONLY on the supplied data. Do not invent features."

// GenerateProContro asks the model for one pro and one contro per item. Items
// arrive as the caller's loosely-typed projections; only the public fields
// are forwarded.
func (c *Client) GenerateProContro(ctx context.Context, items []map[string]interface{}) ([]model.ProContra, error) {
	if !c.configured {
		return []model.ProContra{}, nil
	}

	trimmed := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		trimmed = append(trimmed, map[string]interface{}{
			"id":          item["id"],
			"name":        item["name"],
			"description": item["description"],
			"price":       item["price"],
			"categories":  item["categories"],
			"brand":       item["brand"],
			"weight":      item["weight"],
		})
	}
	payload, err := json.MarshalIndent(map[string]interface{}{"items": trimmed}, "", "  ")
	if err != nil {
		return nil, &model.CollaboratorError{
			Op:      "openai.pro_contro",
			Code:    "bad_request",
			Message: "failed to serialize items",
			Cause:   err,
		}
	}

	user := "Generate one pro and one contro for each item. " +
		"Respond ONLY with JSON in the format: " +
		`{"items":[{"id": "...", "pro": "...", "contro": "..."}]}` + "\n" +
		"Data: " + string(payload)

	content, err := c.complete(ctx, "openai.pro_contro", proControSystem, user)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Items []model.ProContra `json:"items"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, &model.CollaboratorError{
			Op:      "openai.pro_contro",
			Code:    "bad_response",
			Message: "model response is not the expected JSON shape",
			Cause:   err,
		}
	}
	if parsed.Items == nil {
		return []model.ProContra{}, nil
	}
	return parsed.Items, nil
}

const recipeSystem = "Extract title and ingredients from a recipe. " +
	"Respond ONLY with JSON with keys: title, ingredients " +
	"(a list of objects with name and optional measure)."

// ParseRecipe extracts {title, ingredients} from recipe text. Without a key,
// or when the model returns a non-list ingredients field, the deterministic
// fallback parser is used instead.
func (c *Client) ParseRecipe(ctx context.Context, text string) (model.ParsedRecipe, error) {
	if !c.configured {
		return model.ParsedRecipe{Ingredients: recipes.FallbackIngredients(text)}, nil
	}

	content, err := c.complete(ctx, "openai.recipe_parse", recipeSystem, "Recipe text:\n"+text)
	if err != nil {
		return model.ParsedRecipe{}, err
	}

	var parsed struct {
		Title       string          `json:"title"`
		Ingredients json.RawMessage `json:"ingredients"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return model.ParsedRecipe{Ingredients: recipes.FallbackIngredients(text)}, nil
	}

	out := model.ParsedRecipe{Title: parsed.Title}
	if ingredients, ok := decodeIngredients(parsed.Ingredients); ok {
		out.Ingredients = ingredients
	} else {
		out.Ingredients = recipes.FallbackIngredients(text)
	}
	return out, nil
}

func decodeIngredients(raw json.RawMessage) ([]model.Ingredient, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var typed []model.Ingredient
	if err := json.Unmarshal(raw, &typed); err == nil {
		return typed, true
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		out := make([]model.Ingredient, 0, len(names))
		for _, name := range names {
			out = append(out, model.Ingredient{Name: name})
		}
		return out, true
	}
	return nil, false
}

func (c *Client) complete(ctx context.Context, op, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model: c.chatModel,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", &model.CollaboratorError{
			Op:        op,
			Code:      "request_failed",
			Message:   "model request failed",
			Retryable: true,
			Cause:     err,
		}
	}
	if len(completion.Choices) == 0 {
		return "", &model.CollaboratorError{
			Op:      op,
			Code:    "bad_response",
			Message: "model returned no choices",
		}
	}
	return completion.Choices[0].Message.Content, nil
}
