package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/clearclaim/claims-engine/internal/scoring"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Decision DecisionConfig `mapstructure:"decision"`
	Fiscal   FiscalConfig   `mapstructure:"fiscal"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// LLMConfig holds reasoning provider configuration
type LLMConfig struct {
	Provider  string        `mapstructure:"provider"` // openai or ollama
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// DecisionConfig holds rule-engine and scoring configuration
type DecisionConfig struct {
	MaxClaimAgeDays int                 `mapstructure:"max_claim_age_days"`
	ScoringWeights  scoring.Weights     `mapstructure:"scoring_weights"`
	Thresholds      scoring.Thresholds  `mapstructure:"thresholds"`
	CategoryLimits  map[string]float64  `mapstructure:"category_limits"`
	ValidCategories map[string][]string `mapstructure:"valid_categories"`
}

// ScoringConfig assembles the scorer configuration, falling back to the
// model defaults for any section left empty.
func (d DecisionConfig) ScoringConfig() scoring.Config {
	cfg := scoring.Config{
		Weights:         d.ScoringWeights,
		Thresholds:      d.Thresholds,
		CategoryLimits:  d.CategoryLimits,
		ValidCategories: d.ValidCategories,
	}
	return cfg
}

// FiscalConfig holds fiscal calendar defaults. Tenants may override the start
// month via settings; this is the fallback.
type FiscalConfig struct {
	StartMonth int `mapstructure:"start_month"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Override with environment variables
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/claims.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	// LLM defaults
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4")
	viper.SetDefault("llm.max_tokens", 1000)
	viper.SetDefault("llm.timeout", 60*time.Second)

	// Decision defaults
	viper.SetDefault("decision.max_claim_age_days", 90)
	viper.SetDefault("decision.thresholds.auto_approve", 90.0)
	viper.SetDefault("decision.thresholds.quick_review", 70.0)
	viper.SetDefault("decision.scoring_weights.document_attached", 0.20)
	viper.SetDefault("decision.scoring_weights.data_completeness", 0.25)
	viper.SetDefault("decision.scoring_weights.ocr_confidence", 0.20)
	viper.SetDefault("decision.scoring_weights.amount_reasonability", 0.15)
	viper.SetDefault("decision.scoring_weights.duplicate_risk", 0.10)
	viper.SetDefault("decision.scoring_weights.category_match", 0.10)

	// Fiscal defaults
	viper.SetDefault("fiscal.start_month", 4)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("llm.provider", "LLM_PROVIDER")
	viper.BindEnv("llm.api_key", "OPENAI_API_KEY")
	viper.BindEnv("llm.base_url", "LLM_BASE_URL")
	viper.BindEnv("llm.model", "LLM_MODEL")
	viper.BindEnv("database.path", "DATABASE_PATH")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.LLM.Provider == "openai" && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required for the openai provider")
	}

	if c.Fiscal.StartMonth < 1 || c.Fiscal.StartMonth > 12 {
		return fmt.Errorf("fiscal.start_month must be between 1 and 12")
	}

	if c.Decision.MaxClaimAgeDays <= 0 {
		return fmt.Errorf("decision.max_claim_age_days must be positive")
	}

	t := c.Decision.Thresholds
	if t.AutoApprove <= t.QuickReview {
		return fmt.Errorf("decision.thresholds.auto_approve must be greater than quick_review (auto: %.1f, quick: %.1f)",
			t.AutoApprove, t.QuickReview)
	}

	return nil
}
