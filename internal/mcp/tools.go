package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"shopmcp/internal/catalog"
	"shopmcp/internal/model"
	"shopmcp/internal/webfetch"
	"shopmcp/internal/widget"
)

const (
	toolInitialPrompts = "min"
	toolPaymentIntent  = "create_payment_intent"
	toolCompareEnrich  = "compare_enrich"
	toolRecipeSearch   = "recipe_search"
	toolRecipeParse    = "recipe_parse"
)

type toolHandler func(ctx context.Context, project *catalog.Project, args map[string]interface{}) (toolCallResult, *toolExecutionError)

type toolDefinition struct {
	Name        string
	Title       string
	Description string
	InputSchema map[string]interface{}
	Meta        map[string]interface{}
	Annotations map[string]interface{}

	// Widget is set for tools whose input schema comes from the resolved
	// project's backend rather than from the static definition.
	Widget *widget.Widget

	handler toolHandler
}

type toolCallResult struct {
	Content           []toolContentItem      `json:"content"`
	StructuredContent interface{}            `json:"structuredContent,omitempty"`
	Meta              map[string]interface{} `json:"_meta,omitempty"`
	IsError           bool                   `json:"isError,omitempty"`
}

type toolContentItem struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
}

type toolExecutionError struct {
	Code      string
	Message   string
	Retryable bool
}

func newToolErrorResult(execErr *toolExecutionError) toolCallResult {
	return toolCallResult{
		Content: []toolContentItem{{
			Type: "text",
			Text: fmt.Sprintf("ERROR: %s: %s", execErr.Code, execErr.Message),
		}},
		StructuredContent: map[string]interface{}{
			"error": map[string]interface{}{
				"code":      execErr.Code,
				"message":   execErr.Message,
				"retryable": execErr.Retryable,
			},
		},
		IsError: true,
	}
}

func newTextResult(text string, structured interface{}, meta map[string]interface{}) toolCallResult {
	return toolCallResult{
		Content:           []toolContentItem{{Type: "text", Text: text}},
		StructuredContent: structured,
		Meta:              meta,
	}
}

// toolOrder fixes the ordering reported by tools/list.
var toolOrder = []string{
	"carousel", "list", "shopping-cart",
	toolInitialPrompts, toolPaymentIntent, toolCompareEnrich,
	toolRecipeSearch, toolRecipeParse,
}

func (s *Server) buildToolRegistry() map[string]toolDefinition {
	tools := make(map[string]toolDefinition, len(toolOrder))

	for i := range s.widgets.All {
		w := s.widgets.All[i]
		def := toolDefinition{
			Name:        w.Identifier,
			Title:       w.Title,
			Description: w.Description,
			Meta:        widgetMeta(w),
			Annotations: map[string]interface{}{
				"destructiveHint": false,
				"openWorldHint":   false,
				"readOnlyHint":    true,
			},
			Widget: &w,
		}
		switch w.Identifier {
		case "carousel":
			def.handler = s.handleCarousel
		case "list":
			def.handler = s.handleList
		default:
			def.handler = s.handleWidgetOnly(w)
		}
		tools[w.Identifier] = def
	}

	tools[toolInitialPrompts] = toolDefinition{
		Name:        toolInitialPrompts,
		Title:       "Initial Prompts",
		Description: "Load the developer core prompt and the runtime context for this catalog.",
		InputSchema: emptyObjectSchema(),
		Annotations: map[string]interface{}{
			"destructiveHint": false,
			"openWorldHint":   false,
			"readOnlyHint":    true,
		},
		handler: s.handleInitialPrompts,
	}

	tools[toolPaymentIntent] = toolDefinition{
		Name:        toolPaymentIntent,
		Title:       "Create Payment Intent",
		Description: "Create and confirm a payment intent for the current cart total. Amount is in the smallest currency unit (cents).",
		InputSchema: paymentInputSchema(),
		Annotations: map[string]interface{}{
			"destructiveHint": true,
			"openWorldHint":   true,
			"readOnlyHint":    false,
		},
		handler: s.handlePaymentIntent,
	}

	tools[toolCompareEnrich] = toolDefinition{
		Name:        toolCompareEnrich,
		Title:       "Compare Products",
		Description: "Generate one short pro and one short contro per product, based only on the supplied product data.",
		InputSchema: compareInputSchema(),
		Annotations: map[string]interface{}{
			"destructiveHint": false,
			"openWorldHint":   true,
			"readOnlyHint":    true,
		},
		handler: s.handleCompareEnrich,
	}

	tools[toolRecipeSearch] = toolDefinition{
		Name:        toolRecipeSearch,
		Title:       "Recipe Search",
		Description: "Search the recipe database by free text and return recipes with their ingredient lists.",
		InputSchema: recipeSearchInputSchema(),
		Annotations: map[string]interface{}{
			"destructiveHint": false,
			"openWorldHint":   true,
			"readOnlyHint":    true,
		},
		handler: s.handleRecipeSearch,
	}

	tools[toolRecipeParse] = toolDefinition{
		Name:        toolRecipeParse,
		Title:       "Recipe Parse",
		Description: "Extract the title and ingredient list from free recipe text or a recipe URL.",
		InputSchema: recipeParseInputSchema(),
		Annotations: map[string]interface{}{
			"destructiveHint": false,
			"openWorldHint":   true,
			"readOnlyHint":    true,
		},
		handler: s.handleRecipeParse,
	}

	return tools
}

func widgetMeta(w widget.Widget) map[string]interface{} {
	return map[string]interface{}{
		"openai/outputTemplate":          w.TemplateURI,
		"openai/toolInvocation/invoking": w.Invoking,
		"openai/toolInvocation/invoked":  w.Invoked,
		"openai/widgetAccessible":        true,
	}
}

// invocationMeta carries only the progress labels on call results; the full
// template meta stays on the tool and resource descriptors.
func invocationMeta(w widget.Widget) map[string]interface{} {
	return map[string]interface{}{
		"openai/toolInvocation/invoking": w.Invoking,
		"openai/toolInvocation/invoked":  w.Invoked,
	}
}

func (s *Server) handleToolsList(w http.ResponseWriter, id interface{}, proj string) {
	project, execErr := s.resolveProject(proj)
	if execErr != nil {
		writeError(w, http.StatusOK, id, -32602, execErr.Message)
		return
	}

	list := make([]map[string]interface{}, 0, len(toolOrder))
	for _, name := range toolOrder {
		def, ok := s.tools[name]
		if !ok {
			continue
		}
		entry := map[string]interface{}{
			"name":        def.Name,
			"title":       def.Title,
			"description": def.Description,
		}
		schema := def.InputSchema
		if def.Widget != nil {
			if def.Widget.Identifier == "shopping-cart" {
				schema = emptyObjectSchema()
			} else {
				schema = project.Backend.InputSchema()
			}
		}
		entry["inputSchema"] = schema
		if def.Meta != nil {
			entry["_meta"] = def.Meta
		}
		if def.Annotations != nil {
			entry["annotations"] = def.Annotations
		}
		list = append(list, entry)
	}

	writeResult(w, http.StatusOK, id, map[string]interface{}{"tools": list})
}

type toolsCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

func (s *Server) handleToolsCall(ctx context.Context, w http.ResponseWriter, params json.RawMessage, id interface{}, proj string) {
	var call toolsCallParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &call); err != nil {
			writeError(w, http.StatusOK, id, -32602, "invalid tools/call params: "+err.Error())
			return
		}
	}
	if strings.TrimSpace(call.Name) == "" {
		writeError(w, http.StatusOK, id, -32602, "tool name is required")
		return
	}
	if call.Arguments == nil {
		call.Arguments = map[string]interface{}{}
	}
	writeResult(w, http.StatusOK, id, s.dispatchTool(ctx, proj, call.Name, call.Arguments))
}

// dispatchTool runs one tool call to completion. Tool-level failures come
// back as error result envelopes, never as transport errors.
func (s *Server) dispatchTool(ctx context.Context, proj, name string, args map[string]interface{}) toolCallResult {
	def, ok := s.tools[name]
	if !ok {
		return newToolErrorResult(&toolExecutionError{
			Code:    "METHOD_NOT_FOUND",
			Message: "unknown tool: " + name,
		})
	}

	project, execErr := s.resolveProject(proj)
	if execErr != nil {
		return newToolErrorResult(execErr)
	}

	result, execErr := def.handler(ctx, project, args)
	if execErr != nil {
		s.event("error", "tool_failed", map[string]interface{}{
			"tool":    name,
			"project": project.Name,
			"code":    execErr.Code,
			"error":   execErr.Message,
		})
		return newToolErrorResult(execErr)
	}
	s.event("info", "tool_called", map[string]interface{}{
		"tool":    name,
		"project": project.Name,
	})
	return result
}

func (s *Server) handleCarousel(ctx context.Context, project *catalog.Project, args map[string]interface{}) (toolCallResult, *toolExecutionError) {
	w := s.widgets.ByID["carousel"]
	filters := catalog.NormalizeFilters(args)

	products, err := project.Backend.Query(ctx, filters, 0)
	if err != nil {
		return toolCallResult{}, s.backendError(project, err)
	}
	if filters.Limit > 0 && len(products) > filters.Limit {
		products = products[:filters.Limit]
	}

	return newTextResult("Fetched products.", map[string]interface{}{"places": products}, invocationMeta(w)), nil
}

func (s *Server) handleList(ctx context.Context, project *catalog.Project, args map[string]interface{}) (toolCallResult, *toolExecutionError) {
	w := s.widgets.ByID["list"]
	filters := catalog.NormalizeFilters(args)

	// One cheapest product per category so every requested category is
	// represented in the list.
	products, err := project.Backend.Query(ctx, filters, 1)
	if err != nil {
		return toolCallResult{}, s.backendError(project, err)
	}

	return newTextResult("Fetched products.", map[string]interface{}{"places": products}, invocationMeta(w)), nil
}

// handleWidgetOnly serves widgets with no data fetch, such as the shopping
// cart rendered from conversation state.
func (s *Server) handleWidgetOnly(w widget.Widget) toolHandler {
	return func(context.Context, *catalog.Project, map[string]interface{}) (toolCallResult, *toolExecutionError) {
		return newTextResult(w.ResponseText, map[string]interface{}{}, invocationMeta(w)), nil
	}
}

func (s *Server) handleInitialPrompts(ctx context.Context, project *catalog.Project, _ map[string]interface{}) (toolCallResult, *toolExecutionError) {
	developerCore := readPromptFile(project.PromptsDir, "developer_core.md")
	runtimeContext := readPromptFile(project.PromptsDir, "runtime_context.md")

	if project.CategoriesFromDB {
		if lister, ok := project.Backend.(catalog.CategoryLister); ok {
			categories, err := lister.DistinctCategories(ctx)
			if err != nil {
				s.event("warn", "categories_unavailable", map[string]interface{}{
					"project": project.Name,
					"error":   err.Error(),
				})
			} else {
				runtimeContext += formatCategoriesBlock(categories)
			}
		}
	} else if project.ExtraContext != "" {
		runtimeContext += "\n\n" + project.ExtraContext
	}

	return newTextResult("Loaded prompts.", map[string]interface{}{
		"developer_core":  developerCore,
		"runtime_context": runtimeContext,
	}, nil), nil
}

func readPromptFile(dir, name string) string {
	if dir == "" {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return string(data)
}

// formatCategoriesBlock renders the catalog's category values as an explicit
// closed vocabulary for the calling agent.
func formatCategoriesBlock(categories []string) string {
	var b strings.Builder
	b.WriteString("\n\n## CATALOG CATEGORIES\n")
	b.WriteString("Use only and exactly the strings below as `category` values (copy them verbatim). ")
	b.WriteString("Do not translate, pluralize or generalize them.\n")
	for _, c := range categories {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteString("\n")
	}
	return b.String()
}

func (s *Server) handlePaymentIntent(ctx context.Context, _ *catalog.Project, args map[string]interface{}) (toolCallResult, *toolExecutionError) {
	rawAmount, ok := args["amount"]
	if !ok {
		return toolCallResult{}, &toolExecutionError{Code: "VALIDATION_ERROR", Message: "Invalid amount."}
	}
	amount, err := parseInteger(rawAmount, "amount")
	if err != nil || amount <= 0 {
		return toolCallResult{}, &toolExecutionError{Code: "VALIDATION_ERROR", Message: "Invalid amount."}
	}

	currency := "eur"
	if v, ok, err := parseOptionalString(args, "currency"); err == nil && ok && strings.TrimSpace(v) != "" {
		currency = strings.ToLower(strings.TrimSpace(v))
	}

	if s.payments == nil {
		return toolCallResult{}, &toolExecutionError{
			Code:    "NOT_CONFIGURED",
			Message: "payments are not configured",
		}
	}

	intent, err := s.payments.CreatePaymentIntent(ctx, amount, currency)
	if err != nil {
		return toolCallResult{}, collaboratorToolError("payment failed", err)
	}

	return newTextResult("PaymentIntent created.", map[string]interface{}{
		"status":            intent.Status,
		"payment_intent_id": intent.ID,
	}, nil), nil
}

func (s *Server) handleCompareEnrich(ctx context.Context, _ *catalog.Project, args map[string]interface{}) (toolCallResult, *toolExecutionError) {
	items := parseItemList(args["items"])

	if s.enricher == nil {
		return newTextResult("Generated pro/contro.", map[string]interface{}{
			"items": []model.ProContra{},
		}, nil), nil
	}

	enriched, err := s.enricher.GenerateProContro(ctx, items)
	if err != nil {
		return toolCallResult{}, collaboratorToolError("enrichment failed", err)
	}

	return newTextResult("Generated pro/contro.", map[string]interface{}{
		"items": enriched,
	}, nil), nil
}

func parseItemList(raw interface{}) []map[string]interface{} {
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	items := make([]map[string]interface{}, 0, len(list))
	for _, entry := range list {
		if m, ok := entry.(map[string]interface{}); ok {
			items = append(items, m)
		}
	}
	return items
}

func (s *Server) handleRecipeSearch(ctx context.Context, _ *catalog.Project, args map[string]interface{}) (toolCallResult, *toolExecutionError) {
	query, ok, err := parseRequiredString(args, "query")
	if err != nil || !ok || strings.TrimSpace(query) == "" {
		return toolCallResult{}, &toolExecutionError{Code: "VALIDATION_ERROR", Message: "Missing query."}
	}

	if s.recipes == nil {
		return toolCallResult{}, &toolExecutionError{
			Code:    "NOT_CONFIGURED",
			Message: "recipe search is not configured",
		}
	}

	recipes, err := s.recipes.Search(ctx, strings.TrimSpace(query))
	if err != nil {
		s.event("error", "recipe_search_failed", map[string]interface{}{"error": err.Error()})
		return toolCallResult{}, &toolExecutionError{
			Code:      "COLLABORATOR_ERROR",
			Message:   "Recipe search failed.",
			Retryable: true,
		}
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}

	return newTextResult("Fetched recipes.", map[string]interface{}{"recipes": recipes}, nil), nil
}

func (s *Server) handleRecipeParse(ctx context.Context, _ *catalog.Project, args map[string]interface{}) (toolCallResult, *toolExecutionError) {
	text, _, _ := parseOptionalString(args, "text")
	rawURL, _, _ := parseOptionalString(args, "url")
	text = strings.TrimSpace(text)
	rawURL = strings.TrimSpace(rawURL)

	if text == "" && rawURL == "" {
		return toolCallResult{}, &toolExecutionError{Code: "VALIDATION_ERROR", Message: "Missing recipe text or url."}
	}

	// a supplied url wins over inline text: the fetched page replaces it
	if rawURL != "" {
		if !webfetch.IsSafeURL(rawURL) {
			return toolCallResult{}, &toolExecutionError{Code: "VALIDATION_ERROR", Message: "URL not allowed."}
		}
		if s.fetcher == nil {
			return toolCallResult{}, &toolExecutionError{Code: "NOT_CONFIGURED", Message: "URL fetching is not configured"}
		}
		fetched, err := s.fetcher.FetchText(ctx, rawURL)
		if err != nil {
			s.event("error", "recipe_fetch_failed", map[string]interface{}{"url": rawURL, "error": err.Error()})
			return toolCallResult{}, &toolExecutionError{
				Code:      "COLLABORATOR_ERROR",
				Message:   "Failed to fetch recipe url.",
				Retryable: true,
			}
		}
		text = fetched
	}

	if s.enricher == nil {
		return toolCallResult{}, &toolExecutionError{Code: "NOT_CONFIGURED", Message: "recipe parsing is not configured"}
	}

	parsed, err := s.enricher.ParseRecipe(ctx, text)
	if err != nil {
		s.event("error", "recipe_parse_failed", map[string]interface{}{"error": err.Error()})
		return toolCallResult{}, &toolExecutionError{
			Code:      "COLLABORATOR_ERROR",
			Message:   "Failed to parse recipe.",
			Retryable: true,
		}
	}

	return newTextResult("Parsed recipe.", map[string]interface{}{
		"title":       parsed.Title,
		"ingredients": parsed.Ingredients,
	}, nil), nil
}

// backendError hides the backend's raw failure behind a generic message and
// reports the detail server-side only.
func (s *Server) backendError(project *catalog.Project, err error) *toolExecutionError {
	s.event("error", "backend_query_failed", map[string]interface{}{
		"project": project.Name,
		"error":   err.Error(),
	})
	return &toolExecutionError{
		Code:      "BACKEND_UNAVAILABLE",
		Message:   "Catalog connection failed while fetching products.",
		Retryable: true,
	}
}

// collaboratorToolError surfaces the collaborator's declared message when it
// carries one, such as a card decline reason.
func collaboratorToolError(fallback string, err error) *toolExecutionError {
	var collab *model.CollaboratorError
	if errors.As(err, &collab) {
		message := collab.Message
		if message == "" {
			message = fallback
		}
		code := collab.Code
		if code == "" {
			code = "COLLABORATOR_ERROR"
		}
		return &toolExecutionError{
			Code:      strings.ToUpper(code),
			Message:   message,
			Retryable: collab.Retryable,
		}
	}
	if errors.Is(err, model.ErrNotConfigured) {
		return &toolExecutionError{Code: "NOT_CONFIGURED", Message: fallback}
	}
	return &toolExecutionError{Code: "COLLABORATOR_ERROR", Message: fallback}
}

func parseRequiredString(args map[string]interface{}, key string) (string, bool, error) {
	raw, ok := args[key]
	if !ok {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", true, fmt.Errorf("argument %q must be a string", key)
	}
	return s, true, nil
}

func parseOptionalString(args map[string]interface{}, key string) (string, bool, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", true, fmt.Errorf("argument %q must be a string", key)
	}
	return s, true, nil
}

// parseInteger accepts the JSON number forms a decoder can produce and
// rejects fractional values.
func parseInteger(value interface{}, field string) (int64, error) {
	switch v := value.(type) {
	case float64:
		if math.Trunc(v) != v {
			return 0, fmt.Errorf("argument %q must be an integer", field)
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case json.Number:
		return v.Int64()
	default:
		return 0, fmt.Errorf("argument %q must be an integer", field)
	}
}
