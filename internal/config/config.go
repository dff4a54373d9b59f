package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	PDFText  PDFTextConfig  `mapstructure:"pdftext"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// UpstreamConfig describes the transfer-agreement catalog API.
type UpstreamConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	AcademicYearID int    `mapstructure:"academic_year_id"`
	CategoryCode   string `mapstructure:"category_code"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// JobsConfig controls job record retention.
type JobsConfig struct {
	RetentionHours       int `mapstructure:"retention_hours"`
	SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes"`
}

type PDFTextConfig struct {
	Binary string `mapstructure:"binary"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("upstream.base_url", "https://assist.org/api")
	v.SetDefault("upstream.academic_year_id", 72)
	v.SetDefault("upstream.category_code", "major")
	v.SetDefault("upstream.timeout_seconds", 30)
	v.SetDefault("upstream.user_agent", "transferscan/1.0")
	v.SetDefault("jobs.retention_hours", 24)
	v.SetDefault("jobs.sweep_interval_minutes", 10)
	v.SetDefault("pdftext.binary", "pdftotext")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for operational overrides
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("upstream.base_url", "UPSTREAM_BASE_URL")
	v.BindEnv("upstream.academic_year_id", "UPSTREAM_ACADEMIC_YEAR_ID")
	v.BindEnv("upstream.timeout_seconds", "UPSTREAM_TIMEOUT_SECONDS")
	v.BindEnv("jobs.retention_hours", "JOBS_RETENTION_HOURS")
	v.BindEnv("pdftext.binary", "PDFTOTEXT_BINARY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
