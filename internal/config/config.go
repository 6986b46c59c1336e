package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds every runtime setting. Values come from config.yaml if one
// is present, overridden by COSECHA_* environment variables.
type Config struct {
	DBPath     string `mapstructure:"db_path"`
	ListenAddr string `mapstructure:"listen_addr"`

	DefaultTimezone string `mapstructure:"default_timezone"`
	CheckinHour     int    `mapstructure:"checkin_hour"`

	ChatHistoryLimit int `mapstructure:"chat_history_limit"`
	DailyLogLimit    int `mapstructure:"daily_log_limit"`

	Oracle OracleConfig `mapstructure:"oracle"`
	Plan   PlanConfig   `mapstructure:"plan"`
}

// OracleConfig configures the model server connection.
type OracleConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	TimeoutMs   int     `mapstructure:"timeout_ms"`
	MaxRetries  int     `mapstructure:"max_retries"`
	BackoffMs   int     `mapstructure:"backoff_ms"`
}

// PlanConfig configures plan assignment behavior.
type PlanConfig struct {
	// SupersedeActive cancels any active assignment when a new plan is
	// assigned to the same producer. When false, older assignments stay
	// active and readers pick the most recently started one.
	SupersedeActive bool `mapstructure:"supersede_active"`
}

// Load reads configuration from the given path (or the working directory
// when empty) and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("db_path", "cosecha.db")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("default_timezone", "America/Lima")
	v.SetDefault("checkin_hour", 8)
	v.SetDefault("chat_history_limit", 6)
	v.SetDefault("daily_log_limit", 3)
	v.SetDefault("oracle.endpoint", "http://localhost:11434")
	v.SetDefault("oracle.model", "qwen2.5:3b-instruct")
	v.SetDefault("oracle.temperature", 0.2)
	v.SetDefault("oracle.timeout_ms", 30000)
	v.SetDefault("oracle.max_retries", 2)
	v.SetDefault("oracle.backoff_ms", 500)
	v.SetDefault("plan.supersede_active", false)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("COSECHA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
