package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"shopmcp/internal/catalog"
	"shopmcp/internal/config"
	"shopmcp/internal/llm"
	"shopmcp/internal/mcp"
	"shopmcp/internal/payments"
	"shopmcp/internal/recipes"
	"shopmcp/internal/webfetch"
	"shopmcp/internal/widget"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP shopping server",
	RunE:  runServe,
}

var (
	serveListen  string
	serveMCPPath string
	serveAssets  string
	servePublic  bool
	serveProject string
)

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "host:port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveMCPPath, "mcp-path", "", "HTTP path for the MCP endpoint (overrides config)")
	serveCmd.Flags().StringVar(&serveAssets, "assets-dir", "", "widget assets directory (overrides config)")
	serveCmd.Flags().BoolVar(&servePublic, "public", false, "enable per-IP rate limiting for public exposure")
	serveCmd.Flags().StringVar(&serveProject, "project", "", "default project when the request carries no ?proj= selector")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(globalFlags.ConfigPath)
	if err != nil {
		exitWith(ExitConfigInvalid, "ERROR: "+err.Error())
	}

	// Precedence: flags > env > file > defaults.
	if serveListen != "" {
		cfg.ListenAddr = serveListen
	}
	if serveMCPPath != "" {
		cfg.MCPPath = serveMCPPath
	}
	if serveAssets != "" {
		cfg.AssetsDir = serveAssets
	}
	if cmd.Flags().Changed("public") {
		cfg.Public = servePublic
	}
	if serveProject != "" {
		cfg.DefaultProject = serveProject
	}
	if err := cfg.Validate(); err != nil {
		exitWith(ExitConfigInvalid, "ERROR: "+err.Error())
	}

	widgets, err := widget.Load(cfg.AssetsDir)
	if err != nil {
		exitWith(ExitAssetsMissing, "ERROR: "+err.Error())
	}

	registry, err := buildRegistry(cfg)
	if err != nil {
		exitWith(ExitConfigInvalid, "ERROR: "+err.Error())
	}

	enricher := llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ChatModel)
	stripe := payments.NewStripeClient(cfg.StripeBaseURL, cfg.StripeSecretKey, cfg.StripePaymentMethod, nil)
	mealdb := recipes.NewMealDBClient(cfg.MealDBBaseURL)
	fetcher := webfetch.NewFetcher()

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		exitWith(ExitBindFailure, "ERROR: server bind failure: "+err.Error())
	}
	mcpURL := fmt.Sprintf("http://%s%s", listener.Addr().String(), cfg.MCPPath)

	server, err := mcp.NewServer(mcp.ServerOptions{
		Config:   cfg,
		Registry: registry,
		Widgets:  widgets,
		Enricher: enricher,
		Payments: stripe,
		Recipes:  mealdb,
		Fetcher:  fetcher,
		Emit:     newEmitter(),
		Version:  version,
	})
	if err != nil {
		exitWith(ExitGenericError, "ERROR: MCP server init: "+err.Error())
	}

	printStartupSummary(cfg, registry, enricher, stripe, mcpURL)
	if globalFlags.JSON {
		emitNDJSON("info", "server_started", map[string]interface{}{
			"url":      mcpURL,
			"projects": registry.Names(),
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Serve(ctx, listener)
}

// buildRegistry opens one SQLite backend per configured project. Connections
// open lazily; a missing database file surfaces on first query, not here.
func buildRegistry(cfg config.Config) (*catalog.Registry, error) {
	registry := catalog.NewRegistry()
	for name, project := range cfg.Projects {
		backend := catalog.NewSQLiteBackend(project.Database, project.Mode())
		err := registry.Register(&catalog.Project{
			Name:             name,
			Backend:          backend,
			PromptsDir:       project.PromptsDir,
			CategoriesFromDB: project.CategoriesFromDB,
			ExtraContext:     project.ExtraContext,
		})
		if err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func printStartupSummary(cfg config.Config, registry *catalog.Registry, enricher *llm.Client, stripe *payments.StripeClient, mcpURL string) {
	if globalFlags.Quiet || globalFlags.JSON {
		return
	}
	s := newStyles(os.Stdout, globalFlags.JSON)

	fmt.Println(s.banner(), s.dim("v"+version))
	fmt.Println()
	fmt.Println(s.sectionHeader("MCP endpoint"))
	fmt.Println(s.kv("URL", s.URL.Render(mcpURL)))
	fmt.Println(s.kv("Projects", strings.Join(registry.Names(), ", ")))
	if cfg.DefaultProject != "" {
		fmt.Println(s.kv("Default", cfg.DefaultProject))
	}
	fmt.Println(s.kv("Assets", cfg.AssetsDir))
	if cfg.Public {
		fmt.Println(s.kv("Rate limit", fmt.Sprintf("%d rps, burst %d", cfg.RateLimitRPS, cfg.RateLimitBurst)))
	}
	fmt.Println()
	fmt.Println(s.sectionHeader("Collaborators"))
	fmt.Println(s.kv("OpenAI", configuredLabel(s, enricher.Configured())))
	fmt.Println(s.kv("Stripe", configuredLabel(s, stripe.Configured())))
	fmt.Println(s.kv("MealDB", cfg.MealDBBaseURL))
	fmt.Println()
}

func configuredLabel(s styles, configured bool) string {
	if configured {
		return s.Success.Render("configured")
	}
	return s.Warning.Render("not configured (feature degraded)")
}

func newEmitter() mcp.EventEmitter {
	if !globalFlags.JSON {
		return nil
	}
	return emitNDJSON
}

// emitNDJSON writes one JSON object per line to stdout.
func emitNDJSON(level, event string, data map[string]interface{}) {
	out := map[string]interface{}{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": level,
		"event": event,
		"data":  data,
	}
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(out)
}
