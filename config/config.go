// Package config loads the specweaver server configuration from an optional
// YAML file and SPECWEAVER_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SPECWEAVER_DOCS_PATH.
const EnvPrefix = "SPECWEAVER"

// DefaultConfigDir is searched after the working directory.
const DefaultConfigDir = "/etc/specweaver"

// DefaultDocumentFile backs the configured document when docs.files is empty.
const DefaultDocumentFile = "openapi.yaml"

// Config is the decoded server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Docs    DocsConfig    `mapstructure:"docs"`
	Info    InfoConfig    `mapstructure:"info"`
	Probes  ProbesConfig  `mapstructure:"probes"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	Timeout           time.Duration `mapstructure:"timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// DocsConfig describes the served document. Files maps document names to
// OpenAPI files; viper lower-cases map keys, so document names are
// lower-cased on load. When Files is empty the document is read from
// DefaultDocumentFile.
type DocsConfig struct {
	Path                  string            `mapstructure:"path"`
	DocumentName          string            `mapstructure:"document_name"`
	MountPath             string            `mapstructure:"mount_path"`
	Format                string            `mapstructure:"format"`
	ExceptionCacheTTL     time.Duration     `mapstructure:"exception_cache_ttl"`
	SingleFlight          bool              `mapstructure:"single_flight"`
	TrustForwardedHeaders bool              `mapstructure:"trust_forwarded_headers"`
	Files                 map[string]string `mapstructure:"files"`
	ValidateRequests      bool              `mapstructure:"validate_requests"`
	UI                    string            `mapstructure:"ui"`
}

type InfoConfig struct {
	Prefix string `mapstructure:"prefix"`
	Title  string `mapstructure:"title"`
}

// ProbesConfig lists optional readiness dependencies.
type ProbesConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	MongoURI string        `mapstructure:"mongo_uri"`
	HTTP     []string      `mapstructure:"http"`
}

type CORSConfig struct {
	Origins          []string `mapstructure:"origins"`
	Methods          []string `mapstructure:"methods"`
	Headers          []string `mapstructure:"headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"`
	HideHeaders []string `mapstructure:"hide_headers"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configPath, or config.yaml from the working directory and
// DefaultConfigDir when configPath is empty. A missing searched file is not
// an error; a missing explicit file is.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultConfigDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Docs.DocumentName = strings.ToLower(cfg.Docs.DocumentName)
	if len(cfg.Docs.Files) == 0 {
		cfg.Docs.Files = map[string]string{cfg.Docs.DocumentName: DefaultDocumentFile}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.timeout", "30s")
	v.SetDefault("server.read_header_timeout", "5s")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("docs.path", "/swagger/v1/swagger.json")
	v.SetDefault("docs.document_name", "v1")
	v.SetDefault("docs.mount_path", "")
	v.SetDefault("docs.format", "json")
	v.SetDefault("docs.exception_cache_ttl", "10s")
	v.SetDefault("docs.single_flight", true)
	v.SetDefault("docs.trust_forwarded_headers", false)
	v.SetDefault("docs.validate_requests", false)
	v.SetDefault("docs.ui", "stoplight")

	v.SetDefault("info.prefix", "/_info")
	v.SetDefault("info.title", "API Reference")

	v.SetDefault("probes.timeout", "2s")
	v.SetDefault("probes.mongo_uri", "")
	v.SetDefault("probes.http", []string{})

	v.SetDefault("cors.origins", []string{})
	v.SetDefault("cors.methods", []string{"GET", "OPTIONS"})
	v.SetDefault("cors.headers", []string{"Content-Type", "Authorization"})
	v.SetDefault("cors.allow_credentials", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.hide_headers", []string{"Authorization", "Cookie"})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Docs.Format {
	case "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("docs.format must be json or yaml, got %q", c.Docs.Format))
	}
	if strings.Trim(c.Docs.Path, "/") == "" {
		errs = append(errs, fmt.Errorf("docs.path %q does not name a document", c.Docs.Path))
	}
	if _, ok := c.Docs.Files[c.Docs.DocumentName]; !ok {
		errs = append(errs, fmt.Errorf("docs.files has no entry for document %q", c.Docs.DocumentName))
	}
	if c.Docs.ExceptionCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("docs.exception_cache_ttl must not be negative, got %s", c.Docs.ExceptionCacheTTL))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
