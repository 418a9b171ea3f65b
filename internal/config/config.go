package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"shopmcp/internal/llm"
	"shopmcp/internal/payments"
	"shopmcp/internal/recipes"
)

// Config is the fully-layered server configuration: defaults, then the TOML
// config file, then dotenv/env, then CLI flag overrides applied by the CLI.
type Config struct {
	ListenAddr     string `toml:"listen_addr"`
	MCPPath        string `toml:"mcp_path"`
	AssetsDir      string `toml:"assets_dir"`
	DefaultProject string `toml:"default_project"`
	Public         bool   `toml:"public"`

	// RateLimitRPS and RateLimitBurst define per-IP token bucket limits
	// applied when running in public mode.
	RateLimitRPS   int      `toml:"rate_limit_rps"`
	RateLimitBurst int      `toml:"rate_limit_burst"`
	AllowedOrigins []string `toml:"allowed_origins"`

	ChatModel     string `toml:"chat_model"`
	OpenAIBaseURL string `toml:"openai_base_url"`
	MealDBBaseURL string `toml:"mealdb_base_url"`
	StripeBaseURL string `toml:"stripe_base_url"`
	// StripePaymentMethod is the token used for auto-confirmed intents;
	// defaults to Stripe's shared test card.
	StripePaymentMethod string `toml:"stripe_payment_method"`

	Projects map[string]Project `toml:"projects"`

	// Secrets come only from the environment, never from the config file.
	OpenAIAPIKey    string `toml:"-"`
	StripeSecretKey string `toml:"-"`
}

// Project configures one catalog project.
type Project struct {
	// Database is the path to the project's SQLite catalog. Required.
	Database string `toml:"database"`
	// MatchMode is "exact" or "substring".
	MatchMode string `toml:"match_mode"`
	// PromptsDir holds developer_core.md and runtime_context.md.
	PromptsDir string `toml:"prompts_dir"`
	// CategoriesFromDB appends the catalog's distinct categories to the
	// runtime context served by the initial-prompts tool.
	CategoriesFromDB bool `toml:"categories_from_db"`
	// ExtraContext is free text appended instead when CategoriesFromDB is
	// off.
	ExtraContext string `toml:"extra_context"`
}

func Default() Config {
	return Config{
		ListenAddr:          "127.0.0.1:8000",
		MCPPath:             "/mcp",
		AssetsDir:           "./assets",
		Public:              false,
		RateLimitRPS:        60,
		RateLimitBurst:      20,
		AllowedOrigins:      []string{"*"},
		ChatModel:           llm.DefaultChatModel,
		MealDBBaseURL:       recipes.DefaultMealDBBaseURL,
		StripeBaseURL:       payments.DefaultBaseURL,
		StripePaymentMethod: payments.DefaultPaymentMethod,
		Projects:            map[string]Project{},
	}
}

// Load layers defaults, the optional TOML file at path, dotenv files and the
// process environment. A missing file is fine; a malformed one is not.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("stat config: %w", err)
		}
	}

	loadDotEnvFiles(".env.local", ".env")
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY")); v != "" {
		cfg.StripeSecretKey = v
	}
	if v := strings.TrimSpace(os.Getenv("STRIPE_TEST_PAYMENT_METHOD")); v != "" {
		cfg.StripePaymentMethod = v
	}
	if v := strings.TrimSpace(os.Getenv("SHOPMCP_CHAT_MODEL")); v != "" {
		cfg.ChatModel = v
	}
	if v := strings.TrimSpace(os.Getenv("SHOPMCP_DEFAULT_PROJECT")); v != "" {
		cfg.DefaultProject = v
	}
	if v := strings.TrimSpace(os.Getenv("SHOPMCP_ALLOWED_ORIGINS")); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("SHOPMCP_RATE_LIMIT_RPS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitRPS = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SHOPMCP_RATE_LIMIT_BURST")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RateLimitBurst = n
		}
	}
}

func splitList(csv string) []string {
	out := make([]string, 0, 4)
	for _, item := range strings.Split(csv, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
