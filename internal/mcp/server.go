package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"shopmcp/internal/catalog"
	"shopmcp/internal/config"
	"shopmcp/internal/model"
	"shopmcp/internal/widget"
)

// ProtocolVersion is the MCP revision this server speaks.
const ProtocolVersion = "2024-11-05"

const serverName = "shopmcp"

// EventEmitter receives structured server-side events. The CLI wires it to
// an NDJSON encoder; a nil emitter drops events.
type EventEmitter func(level, event string, data map[string]interface{})

// ServerOptions wires the collaborators into the MCP server.
type ServerOptions struct {
	Config   config.Config
	Registry *catalog.Registry
	Widgets  *widget.Set
	Enricher model.Enricher
	Payments model.PaymentProvider
	Recipes  model.RecipeSource
	Fetcher  model.PageFetcher
	Emit     EventEmitter
	Version  string
}

// Server implements the stateless MCP streamable-HTTP subset used by the
// shopping widgets: initialize, tools/list, tools/call and the widget markup
// resources. The project selector travels as the `proj` query parameter and
// is threaded explicitly through every dispatch.
type Server struct {
	cfg      config.Config
	registry *catalog.Registry
	widgets  *widget.Set
	enricher model.Enricher
	payments model.PaymentProvider
	recipes  model.RecipeSource
	fetcher  model.PageFetcher
	emit     EventEmitter
	version  string
	limiter  *ipRateLimiter
	tools    map[string]toolDefinition
}

func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Registry == nil {
		return nil, errors.New("mcp: project registry is required")
	}
	if opts.Widgets == nil {
		return nil, errors.New("mcp: widget set is required")
	}
	s := &Server{
		cfg:      opts.Config,
		registry: opts.Registry,
		widgets:  opts.Widgets,
		enricher: opts.Enricher,
		payments: opts.Payments,
		recipes:  opts.Recipes,
		fetcher:  opts.Fetcher,
		emit:     opts.Emit,
		version:  opts.Version,
	}
	if opts.Config.Public {
		s.limiter = newIPRateLimiter(float64(opts.Config.RateLimitRPS), opts.Config.RateLimitBurst)
	}
	s.tools = s.buildToolRegistry()
	return s, nil
}

// Handler returns the full HTTP handler: the MCP endpoint plus the static
// widget assets mounted at the root.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.cfg.MCPPath, s.withCORS(http.HandlerFunc(s.handleMCP)))
	if info, err := os.Stat(s.cfg.AssetsDir); err == nil && info.IsDir() {
		mux.Handle("/", s.withCORS(http.FileServer(http.Dir(s.cfg.AssetsDir))))
	}
	return mux
}

// Serve blocks until ctx is cancelled, then drains in-flight requests.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(listener) }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.limiter != nil && !s.limiter.allow(realIP(r)) {
		s.event("warn", "rate_limited", map[string]interface{}{"ip": realIP(r)})
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, nil, -32700, "parse error")
		return
	}

	// The project selector rides the query string so the same endpoint can
	// serve every catalog. It is resolved here, once, and passed down.
	proj := strings.TrimSpace(r.URL.Query().Get("proj"))
	if proj == "" {
		proj = s.cfg.DefaultProject
	}

	ctx := r.Context()
	switch req.Method {
	case "initialize":
		writeResult(w, http.StatusOK, req.ID, map[string]interface{}{
			"protocolVersion": ProtocolVersion,
			"capabilities": map[string]interface{}{
				"tools":     map[string]interface{}{"listChanged": false},
				"resources": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    serverName,
				"version": s.version,
			},
		})
	case "notifications/initialized":
		// notification: no body in stateless mode
		w.WriteHeader(http.StatusAccepted)
	case "ping":
		writeResult(w, http.StatusOK, req.ID, map[string]interface{}{})
	case "tools/list":
		s.handleToolsList(w, req.ID, proj)
	case "tools/call":
		s.handleToolsCall(ctx, w, req.Params, req.ID, proj)
	case "resources/list":
		s.handleResourcesList(w, req.ID)
	case "resources/templates/list":
		s.handleResourceTemplatesList(w, req.ID)
	case "resources/read":
		s.handleResourcesRead(w, req.Params, req.ID)
	default:
		writeError(w, http.StatusOK, req.ID, -32601, "method not found: "+req.Method)
	}
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	allowed := "*"
	if len(s.cfg.AllowedOrigins) > 0 {
		allowed = strings.Join(s.cfg.AllowedOrigins, ", ")
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowed)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, MCP-Protocol-Version")
		next.ServeHTTP(w, r)
	})
}

// resolveProject maps the request's project name to its backend. Unknown
// names fail; there is no fallback catalog.
func (s *Server) resolveProject(name string) (*catalog.Project, *toolExecutionError) {
	if name == "" {
		return nil, &toolExecutionError{
			Code:    "MISSING_PROJECT",
			Message: "no project selected: pass ?proj=<name> or configure default_project",
		}
	}
	project, err := s.registry.Resolve(name)
	if err != nil {
		return nil, &toolExecutionError{
			Code:    "UNKNOWN_PROJECT",
			Message: err.Error(),
		}
	}
	return project, nil
}

func (s *Server) event(level, event string, data map[string]interface{}) {
	if s.emit != nil {
		s.emit(level, event, data)
	}
}

func writeResult(w http.ResponseWriter, status int, id, result interface{}) {
	writeResponse(w, status, rpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string) {
	writeResponse(w, status, rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: code, Message: message},
	})
}

func writeResponse(w http.ResponseWriter, status int, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
