package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Database      DatabaseConfig
	AI            AIConfig
	Chart         ChartConfig
	Knowledge     KnowledgeConfig
	ObjectStore   ObjectStoreConfig
	Export        ExportConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig describes the queried database. DSN wins over the discrete
// host fields, which are only used to build a MySQL DSN.
type DatabaseConfig struct {
	DSN             string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
	MaxRows         int
}

type AIConfig struct {
	Provider          string
	BaseURL           string
	APIKey            string
	Model             string
	SQLMaxTokens      int
	ChartMaxTokens    int
	ExamplesMaxTokens int
	Timeout           time.Duration
	ExamplesEnabled   bool
}

type ChartConfig struct {
	Enabled    bool
	OutputPath string
	OutputDir  string
	Width      int
	Height     int
	Currency   string
	AutoOpen   bool
	Publish    bool
}

type KnowledgeConfig struct {
	Dir string
}

type ObjectStoreConfig struct {
	Enabled          bool
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
	// ShareTTL is the lifetime of presigned links to published artifacts.
	// Zero publishes without links.
	ShareTTL         time.Duration
}

type ExportConfig struct {
	Dir string
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	lookup, err := DotEnvLookup(".env", os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	return Load(serviceName, lookup)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("SQLER_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid SQLER_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	appliers := []func() error{
		func() error { return applyString(lookup, "SQLER_SERVICE_NAME", &cfg.Service.Name) },
		func() error { return applyString(lookup, "SQLER_HTTP_ADDR", &cfg.HTTP.Address) },
		func() error { return applyDuration(lookup, "SQLER_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout) },
		func() error { return applyDuration(lookup, "SQLER_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout) },
		func() error { return applyDuration(lookup, "SQLER_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout) },

		func() error { return applyString(lookup, "DB_HOST", &cfg.Database.Host) },
		func() error { return applyInt(lookup, "DB_PORT", &cfg.Database.Port) },
		func() error { return applyString(lookup, "DB_USER", &cfg.Database.User) },
		func() error { return applyString(lookup, "DB_PASSWORD", &cfg.Database.Password) },
		func() error { return applyString(lookup, "DB_DATABASE", &cfg.Database.Name) },
		func() error { return applyString(lookup, "SQLER_DB_DSN", &cfg.Database.DSN) },
		func() error { return applyString(lookup, "SQLER_DB_HOST", &cfg.Database.Host) },
		func() error { return applyInt(lookup, "SQLER_DB_PORT", &cfg.Database.Port) },
		func() error { return applyString(lookup, "SQLER_DB_USER", &cfg.Database.User) },
		func() error { return applyString(lookup, "SQLER_DB_PASSWORD", &cfg.Database.Password) },
		func() error { return applyString(lookup, "SQLER_DB_NAME", &cfg.Database.Name) },
		func() error { return applyInt(lookup, "SQLER_DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns) },
		func() error { return applyInt(lookup, "SQLER_DB_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns) },
		func() error {
			return applyDuration(lookup, "SQLER_DB_CONN_MAX_IDLE_TIME", &cfg.Database.ConnMaxIdleTime)
		},
		func() error {
			return applyDuration(lookup, "SQLER_DB_CONN_MAX_LIFETIME", &cfg.Database.ConnMaxLifetime)
		},
		func() error { return applyDuration(lookup, "SQLER_DB_QUERY_TIMEOUT", &cfg.Database.QueryTimeout) },
		func() error { return applyInt(lookup, "SQLER_DB_MAX_ROWS", &cfg.Database.MaxRows) },

		func() error { return applyString(lookup, "SQLER_AI_PROVIDER", &cfg.AI.Provider) },
		func() error { return applyString(lookup, "SQLER_AI_BASE_URL", &cfg.AI.BaseURL) },
		func() error { return applyString(lookup, "SQLER_AI_API_KEY", &cfg.AI.APIKey) },
		func() error { return applyString(lookup, "SQLER_AI_MODEL", &cfg.AI.Model) },
		func() error { return applyInt(lookup, "SQLER_AI_SQL_MAX_TOKENS", &cfg.AI.SQLMaxTokens) },
		func() error { return applyInt(lookup, "SQLER_AI_CHART_MAX_TOKENS", &cfg.AI.ChartMaxTokens) },
		func() error { return applyInt(lookup, "SQLER_AI_EXAMPLES_MAX_TOKENS", &cfg.AI.ExamplesMaxTokens) },
		func() error { return applyDuration(lookup, "SQLER_AI_TIMEOUT", &cfg.AI.Timeout) },
		func() error { return applyBool(lookup, "SQLER_AI_EXAMPLES_ENABLED", &cfg.AI.ExamplesEnabled) },

		func() error { return applyBool(lookup, "SQLER_CHART_ENABLED", &cfg.Chart.Enabled) },
		func() error { return applyString(lookup, "SQLER_CHART_OUTPUT_PATH", &cfg.Chart.OutputPath) },
		func() error { return applyString(lookup, "SQLER_CHART_OUTPUT_DIR", &cfg.Chart.OutputDir) },
		func() error { return applyInt(lookup, "SQLER_CHART_WIDTH", &cfg.Chart.Width) },
		func() error { return applyInt(lookup, "SQLER_CHART_HEIGHT", &cfg.Chart.Height) },
		func() error { return applyString(lookup, "SQLER_CHART_CURRENCY", &cfg.Chart.Currency) },
		func() error { return applyBool(lookup, "SQLER_CHART_AUTO_OPEN", &cfg.Chart.AutoOpen) },
		func() error { return applyBool(lookup, "SQLER_CHART_PUBLISH", &cfg.Chart.Publish) },

		func() error { return applyString(lookup, "SQLER_KNOWLEDGE_DIR", &cfg.Knowledge.Dir) },
		func() error { return applyString(lookup, "SQLER_EXPORT_DIR", &cfg.Export.Dir) },

		func() error { return applyBool(lookup, "SQLER_OBJECTSTORE_ENABLED", &cfg.ObjectStore.Enabled) },
		func() error { return applyString(lookup, "SQLER_OBJECTSTORE_ENDPOINT", &cfg.ObjectStore.Endpoint) },
		func() error { return applyString(lookup, "SQLER_OBJECTSTORE_REGION", &cfg.ObjectStore.Region) },
		func() error { return applyString(lookup, "SQLER_OBJECTSTORE_BUCKET", &cfg.ObjectStore.Bucket) },
		func() error {
			return applyString(lookup, "SQLER_OBJECTSTORE_ACCESS_KEY", &cfg.ObjectStore.AccessKeyID)
		},
		func() error {
			return applyString(lookup, "SQLER_OBJECTSTORE_SECRET_KEY", &cfg.ObjectStore.SecretAccessKey)
		},
		func() error { return applyBool(lookup, "SQLER_OBJECTSTORE_USE_SSL", &cfg.ObjectStore.UseSSL) },
		func() error { return applyString(lookup, "SQLER_OBJECTSTORE_PREFIX", &cfg.ObjectStore.Prefix) },
		func() error {
			return applyBool(lookup, "SQLER_OBJECTSTORE_AUTO_CREATE_BUCKET", &cfg.ObjectStore.AutoCreateBucket)
		},
		func() error { return applyDuration(lookup, "SQLER_OBJECTSTORE_SHARE_TTL", &cfg.ObjectStore.ShareTTL) },

		func() error { return applyBool(lookup, "SQLER_LOG_JSON", &cfg.Observability.LogJSON) },
		func() error { return applyLogLevel(lookup, "SQLER_LOG_LEVEL", &cfg.Observability.LogLevel) },
		func() error { return applyBool(lookup, "SQLER_AUTH_REQUIRED", &cfg.Auth.Required) },
		func() error { return applyString(lookup, "SQLER_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys) },
	}
	for _, apply := range appliers {
		if err := apply(); err != nil {
			return Config{}, err
		}
	}

	cfg.AI.Provider = strings.ToLower(cfg.AI.Provider)
	if cfg.AI.Provider == "anthropic" {
		// Defaults target Groq; let the Anthropic client pick its own.
		if _, ok := lookup("SQLER_AI_BASE_URL"); !ok {
			cfg.AI.BaseURL = ""
		}
		if _, ok := lookup("SQLER_AI_MODEL"); !ok {
			cfg.AI.Model = ""
		}
	}
	if cfg.AI.APIKey == "" {
		applyFirst(lookup, &cfg.AI.APIKey, providerKeyFallbacks(cfg.AI.Provider)...)
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if cfg.Database.MaxRows < 0 {
		return Config{}, fmt.Errorf("SQLER_DB_MAX_ROWS must be >= 0")
	}
	if cfg.Chart.Width <= 0 || cfg.Chart.Height <= 0 {
		return Config{}, fmt.Errorf("chart width and height must be positive")
	}
	if cfg.ObjectStore.ShareTTL < 0 || cfg.ObjectStore.ShareTTL > 7*24*time.Hour {
		return Config{}, fmt.Errorf("SQLER_OBJECTSTORE_SHARE_TTL must be between 0 and 168h")
	}
	if cfg.Chart.Publish && !cfg.ObjectStore.Enabled {
		return Config{}, fmt.Errorf("SQLER_CHART_PUBLISH requires SQLER_OBJECTSTORE_ENABLED")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "sqler"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Port:            3306,
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
			QueryTimeout:    30 * time.Second,
			MaxRows:         10000,
		},
		AI: AIConfig{
			Provider:          "openai",
			BaseURL:           "https://api.groq.com/openai",
			Model:             "llama-3.1-8b-instant",
			SQLMaxTokens:      500,
			ChartMaxTokens:    200,
			ExamplesMaxTokens: 500,
			Timeout:           30 * time.Second,
			ExamplesEnabled:   true,
		},
		Chart: ChartConfig{
			Enabled:    true,
			OutputPath: "chart.png",
			OutputDir:  "charts",
			Width:      1200,
			Height:     800,
			Currency:   "€",
			AutoOpen:   false,
		},
		ObjectStore: ObjectStoreConfig{
			Enabled:          false,
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "sqler",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			Prefix:           "",
			AutoCreateBucket: true,
			ShareTTL:         24 * time.Hour,
		},
		Export: ExportConfig{
			Dir: "exports",
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  false,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.AI.ExamplesEnabled = false
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Observability.LogJSON = true
		cfg.Auth.Required = true
		cfg.ObjectStore.UseSSL = true
		cfg.ObjectStore.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func providerKeyFallbacks(provider string) []string {
	switch provider {
	case "anthropic":
		return []string{"ANTHROPIC_API_KEY"}
	default:
		return []string{"GROQ_API_KEY", "OPENAI_API_KEY"}
	}
}

func applyFirst(lookup LookupFunc, dst *string, keys ...string) {
	for _, key := range keys {
		raw, ok := lookup(key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		*dst = strings.TrimSpace(raw)
		return
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
