package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/auth"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/cache"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/llm"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/observe"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/secret"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/store"
	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/templates"
)

// Prefix is prepended to every environment variable name.
const Prefix = "GENCACHE"

// Config holds every gencached setting.
type Config struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`

	ServiceName     string  `envconfig:"SERVICE_NAME" default:"gencached"`
	LogLevel        string  `envconfig:"LOG_LEVEL" default:"info"`
	TracingExporter string  `envconfig:"TRACING_EXPORTER" default:"none"`
	TraceSamplePct  float64 `envconfig:"TRACE_SAMPLE_PCT" default:"0.1"`
	MetricsExporter string  `envconfig:"METRICS_EXPORTER" default:"prometheus"`

	DBDriver       string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN          string `envconfig:"DB_DSN" default:"file:gencache.db"`
	DBMaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`

	AIProvider    string  `envconfig:"AI_PROVIDER" default:"openai"`
	AIBaseURL     string  `envconfig:"AI_BASE_URL"`
	AIModel       string  `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	AIAPIKey      string  `envconfig:"AI_API_KEY"`
	AITemperature float32 `envconfig:"AI_TEMPERATURE" default:"0.7"`
	AIMaxTokens   int     `envconfig:"AI_MAX_TOKENS" default:"2048"`

	AttemptTimeout       time.Duration `envconfig:"ATTEMPT_TIMEOUT" default:"30s"`
	WizardAttemptTimeout time.Duration `envconfig:"WIZARD_ATTEMPT_TIMEOUT" default:"60s"`
	MaxAttempts          int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	RetryDelay           time.Duration `envconfig:"RETRY_DELAY" default:"1s"`
	BreakerFailures      int           `envconfig:"BREAKER_FAILURES" default:"5"`
	BreakerReset         time.Duration `envconfig:"BREAKER_RESET" default:"30s"`
	UpstreamConcurrency  int           `envconfig:"UPSTREAM_CONCURRENCY" default:"16"`

	MinContentLength int           `envconfig:"MIN_CONTENT_LENGTH" default:"200"`
	Dedupe           bool          `envconfig:"DEDUPE" default:"true"`
	PurgeInterval    time.Duration `envconfig:"PURGE_INTERVAL" default:"1h"`

	RateLimit float64 `envconfig:"RATE_LIMIT" default:"2"`
	RateBurst int     `envconfig:"RATE_BURST" default:"5"`

	JWTSecret   string `envconfig:"JWT_SECRET"`
	JWTIssuer   string `envconfig:"JWT_ISSUER"`
	JWTAudience string `envconfig:"JWT_AUDIENCE"`
	AdminAPIKey string `envconfig:"ADMIN_API_KEY"`

	SecretsDir string `envconfig:"SECRETS_DIR" default:"/run/secrets"`
	PolicyFile string `envconfig:"POLICY_FILE"`

	// Policy and Catalog are filled from PolicyFile.
	Policy  cache.Policy           `ignored:"true"`
	Catalog *templates.CatalogSpec `ignored:"true"`
}

// Load reads .env files (missing ones are skipped; existing environment
// variables win), processes GENCACHE_* variables, resolves credentials,
// and applies the policy file. With no arguments ".env" is tried.
func Load(ctx context.Context, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	resolver := secret.NewResolver(secret.EnvProvider{}, secret.NewFileProvider(cfg.SecretsDir))
	err := resolver.ResolveAll(ctx, map[string]*string{
		"AI_API_KEY":    &cfg.AIAPIKey,
		"JWT_SECRET":    &cfg.JWTSecret,
		"ADMIN_API_KEY": &cfg.AdminAPIKey,
		"DB_DSN":        &cfg.DBDSN,
	})
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.Policy = cache.DefaultPolicy()
	if cfg.PolicyFile != "" {
		pf, err := ReadPolicyFile(cfg.PolicyFile)
		if err != nil {
			return nil, err
		}
		cfg.Policy = pf.Cache.Apply(cfg.Policy)
		cfg.Catalog = pf.Catalog
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var problems []string
	switch strings.ToLower(c.AIProvider) {
	case llm.ProviderOpenAI:
		if c.AIAPIKey == "" && c.AIBaseURL == "" {
			problems = append(problems, "AI_API_KEY is required for the openai provider")
		}
	case llm.ProviderOllama:
	default:
		problems = append(problems, fmt.Sprintf("unknown AI_PROVIDER %q", c.AIProvider))
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.MaxAttempts < 1 {
		problems = append(problems, "MAX_ATTEMPTS must be at least 1")
	}
	if c.AttemptTimeout <= 0 || c.WizardAttemptTimeout <= 0 {
		problems = append(problems, "attempt timeouts must be positive")
	}
	if c.RateLimit <= 0 || c.RateBurst < 1 {
		problems = append(problems, "RATE_LIMIT and RATE_BURST must be positive")
	}
	oc := c.Observe()
	if err := oc.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Observe returns the observability settings.
func (c *Config) Observe() observe.Config {
	return observe.Config{
		ServiceName: c.ServiceName,
		Tracing: observe.TracingConfig{
			Enabled:   c.TracingExporter != "none",
			Exporter:  c.TracingExporter,
			SamplePct: c.TraceSamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.MetricsExporter != "none",
			Exporter: c.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.LogLevel,
		},
	}
}

// Store returns the database settings.
func (c *Config) Store() store.Config {
	return store.Config{
		Driver:       c.DBDriver,
		DSN:          c.DBDSN,
		MaxOpenConns: c.DBMaxOpenConns,
	}
}

// LLM returns the upstream client settings.
func (c *Config) LLM() llm.Config {
	return llm.Config{
		Provider: c.AIProvider,
		BaseURL:  c.AIBaseURL,
		APIKey:   c.AIAPIKey,
		Model:    c.AIModel,
		Timeout:  c.WizardAttemptTimeout + 5*time.Second,
	}
}

// Params returns the generation parameters for lesson content.
func (c *Config) Params() llm.Params {
	return llm.Params{Temperature: c.AITemperature, MaxTokens: c.AIMaxTokens}
}

// JWT returns the bearer token settings.
func (c *Config) JWT() auth.JWTConfig {
	return auth.JWTConfig{
		Secret:   []byte(c.JWTSecret),
		Issuer:   c.JWTIssuer,
		Audience: c.JWTAudience,
		Leeway:   30 * time.Second,
	}
}
