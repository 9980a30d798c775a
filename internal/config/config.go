package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is built once at
// startup and passed explicitly; nothing reads viper after Load returns.
type Config struct {
	Product    ServiceConfig    `yaml:"product" mapstructure:"product"`
	Creative   ServiceConfig    `yaml:"creative" mapstructure:"creative"`
	Strategy   ServiceConfig    `yaml:"strategy" mapstructure:"strategy"`
	Meta       MetaConfig       `yaml:"meta" mapstructure:"meta"`
	Logs       ServiceConfig    `yaml:"logs" mapstructure:"logs"`
	Allocation AllocationConfig `yaml:"allocation" mapstructure:"allocation"`
	Planner    PlannerConfig    `yaml:"planner" mapstructure:"planner"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ServiceConfig locates one collaborator service.
type ServiceConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// MetaConfig locates the ad-platform publishing service.
type MetaConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst   int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// AllocationConfig is the budget engine's policy knobs. Exact ratios are
// policy, not contract; only the tier ordering is guaranteed.
type AllocationConfig struct {
	TierWeights   map[string]float64 `yaml:"tier_weights" mapstructure:"tier_weights"`
	ControlWeight float64            `yaml:"control_weight" mapstructure:"control_weight"`
}

// PlannerConfig configures campaign structure selection.
type PlannerConfig struct {
	SmallBudgetThreshold float64 `yaml:"small_budget_threshold" mapstructure:"small_budget_threshold"`
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BatchConfig configures concurrent batch creation.
type BatchConfig struct {
	MaxConcurrentCampaigns int `yaml:"max_concurrent_campaigns" mapstructure:"max_concurrent_campaigns"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CAMPAIGN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("product.base_url", "http://localhost:8001")
	v.SetDefault("creative.base_url", "http://localhost:8002")
	v.SetDefault("strategy.base_url", "")
	v.SetDefault("meta.base_url", "http://localhost:8004")
	v.SetDefault("logs.base_url", "http://localhost:8005")
	for _, svc := range []string{"product", "creative", "strategy", "meta", "logs"} {
		v.SetDefault(svc+".timeout_secs", 30)
		v.SetDefault(svc+".max_retries", 3)
	}
	v.SetDefault("meta.rate_per_sec", 5.0)
	v.SetDefault("meta.rate_burst", 10)
	v.SetDefault("allocation.tier_weights", map[string]float64{
		"high":   3,
		"medium": 2,
		"low":    1,
	})
	v.SetDefault("allocation.control_weight", 2.0)
	v.SetDefault("planner.small_budget_threshold", 100.0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "campaign.db")
	v.SetDefault("batch.max_concurrent_campaigns", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
