package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Scoring      ScoringConfig      `mapstructure:"scoring"`
	Sync         SyncConfig         `mapstructure:"sync"`
	Integrations IntegrationsConfig `mapstructure:"integrations"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Host           string   `mapstructure:"host"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MigrationsPath string `mapstructure:"migrations_path"`
	MaxConnections int    `mapstructure:"max_connections"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      string `mapstructure:"ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ScoringConfig struct {
	RulesetPath      string `mapstructure:"ruleset_path"`
	PortfolioWorkers int    `mapstructure:"portfolio_workers"`
}

type SyncConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

type IntegrationsConfig struct {
	Stripe   StripeConfig   `mapstructure:"stripe"`
	HubSpot  HubSpotConfig  `mapstructure:"hubspot"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
}

type StripeConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

type HubSpotConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	BaseURL      string `mapstructure:"base_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
	TokenURL     string `mapstructure:"token_url"`
}

type SupabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
	// PreferRest selects the REST endpoint over the legacy RPC path when
	// both are available.
	PreferRest bool `mapstructure:"prefer_rest"`
}

type MonitoringConfig struct {
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	MetricsPrefix  string `mapstructure:"metrics_prefix"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()

	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("database.path", "DATABASE_PATH")
	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("integrations.stripe.api_key", "STRIPE_API_KEY")
	viper.BindEnv("integrations.hubspot.client_id", "HUBSPOT_CLIENT_ID")
	viper.BindEnv("integrations.hubspot.client_secret", "HUBSPOT_CLIENT_SECRET")
	viper.BindEnv("integrations.hubspot.refresh_token", "HUBSPOT_REFRESH_TOKEN")
	viper.BindEnv("integrations.supabase.url", "SUPABASE_URL")
	viper.BindEnv("integrations.supabase.api_key", "SUPABASE_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file is fine; defaults plus env carry the load.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 3001)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.mode", "release")

	viper.SetDefault("database.path", "./data/clientpulse.db")
	viper.SetDefault("database.migrations_path", "./migrations")
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.auto_migrate", true)

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttl", "5m")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("scoring.ruleset_path", "")
	viper.SetDefault("scoring.portfolio_workers", 8)

	viper.SetDefault("sync.enabled", true)
	viper.SetDefault("sync.schedule", "@every 15m")

	viper.SetDefault("integrations.stripe.enabled", false)
	viper.SetDefault("integrations.hubspot.enabled", false)
	viper.SetDefault("integrations.hubspot.base_url", "https://api.hubapi.com")
	viper.SetDefault("integrations.hubspot.token_url", "https://api.hubapi.com/oauth/v1/token")
	viper.SetDefault("integrations.supabase.enabled", false)
	viper.SetDefault("integrations.supabase.prefer_rest", true)

	viper.SetDefault("monitoring.metrics_enabled", true)
	viper.SetDefault("monitoring.metrics_prefix", "clientpulse")
}

// Validate checks configuration invariants at startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.Scoring.PortfolioWorkers < 1 {
		return fmt.Errorf("scoring.portfolio_workers must be at least 1")
	}
	if c.Integrations.Stripe.Enabled && c.Integrations.Stripe.APIKey == "" {
		return fmt.Errorf("stripe integration enabled without api key")
	}
	if c.Integrations.Supabase.Enabled && c.Integrations.Supabase.URL == "" {
		return fmt.Errorf("supabase integration enabled without url")
	}
	return nil
}
