package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration for assessai.
type Config struct {
	DB   string `mapstructure:"db"`
	User string `mapstructure:"user"`

	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	OCR       OCRConfig       `mapstructure:"ocr"`
	Feedback  FeedbackConfig  `mapstructure:"feedback"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	LLM       LLMConfig       `mapstructure:"llm"`
}

type LogConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DashboardConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// NotifyConfig selects the change-notification broker. An empty RedisAddr
// keeps notifications in-process.
type NotifyConfig struct {
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

type OCRConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	CredentialsFile string `mapstructure:"credentials_file"`
	MaxUploadBytes  int64  `mapstructure:"max_upload_bytes"`
	RatePerMinute   int    `mapstructure:"rate_per_minute"`
	Burst           int    `mapstructure:"burst"`
}

type FeedbackConfig struct {
	AnalysisTTL       time.Duration `mapstructure:"analysis_ttl"`
	RecommendationTTL time.Duration `mapstructure:"recommendation_ttl"`
}

type SchedulerConfig struct {
	CacheSweepInterval time.Duration `mapstructure:"cache_sweep_interval"`
	LLMEventRetention  time.Duration `mapstructure:"llm_event_retention"`
}

// LLMConfig overrides the provider discovered from the environment.
type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// File is an explicit config file. When set, it must exist.
	File string

	// Paths are searched for assessai.yaml when File is empty.
	Paths []string

	// EnvFile is a dotenv file loaded before reading the environment.
	// Defaults to ".env"; a missing file is ignored.
	EnvFile string
}

// DefaultPaths returns the config search path: the working directory, then
// $XDG_CONFIG_HOME/assessai (or ~/.config/assessai).
func DefaultPaths() []string {
	paths := []string{"."}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome != "" {
		paths = append(paths, filepath.Join(configHome, "assessai"))
	}
	return paths
}

// Load reads configuration from defaults, the config file, and ASSESSAI_*
// environment variables, in increasing priority.
func Load(opts LoadOptions) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("assessai")
		v.SetConfigType("yaml")
		for _, p := range opts.Paths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix("ASSESSAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with no file or environment applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", "")
	v.SetDefault("user", "local")

	v.SetDefault("log.mode", "development")
	v.SetDefault("log.level", "")
	v.SetDefault("log.file", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("dashboard.refresh_interval", 2*time.Second)

	v.SetDefault("notify.redis_addr", "")
	v.SetDefault("notify.redis_password", "")
	v.SetDefault("notify.redis_db", 0)

	v.SetDefault("ocr.enabled", true)
	v.SetDefault("ocr.credentials_file", "")
	v.SetDefault("ocr.max_upload_bytes", int64(10<<20))
	v.SetDefault("ocr.rate_per_minute", 30)
	v.SetDefault("ocr.burst", 5)

	v.SetDefault("feedback.analysis_ttl", 24*time.Hour)
	v.SetDefault("feedback.recommendation_ttl", 30*time.Minute)

	v.SetDefault("scheduler.cache_sweep_interval", time.Hour)
	v.SetDefault("scheduler.llm_event_retention", 30*24*time.Hour)

	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.model", "")
}

// Validate checks values that would otherwise fail later in confusing ways.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.User) == "" {
		return fmt.Errorf("config: user must not be empty")
	}
	if c.Dashboard.RefreshInterval <= 0 {
		return fmt.Errorf("config: dashboard.refresh_interval must be positive, got %s", c.Dashboard.RefreshInterval)
	}
	if c.OCR.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: ocr.max_upload_bytes must be positive")
	}
	if c.OCR.RatePerMinute < 0 || c.OCR.Burst < 0 {
		return fmt.Errorf("config: ocr rate limits must not be negative")
	}
	if c.Feedback.AnalysisTTL <= 0 || c.Feedback.RecommendationTTL <= 0 {
		return fmt.Errorf("config: feedback TTLs must be positive")
	}
	return nil
}
