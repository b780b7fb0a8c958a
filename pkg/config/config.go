package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for ekaya-askdb.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3480"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database is the primary datasource. It keeps the environment variable
	// names used by existing deployments (POSTGRES_HOST, DB_SCHEMA, ...).
	Database DatabaseConfig `yaml:"database"`

	// Datasources lists additional named datasources. YAML only.
	Datasources []DatasourceConfig `yaml:"datasources"`

	// Datasource connection pool settings
	Datasource PoolConfig `yaml:"datasource"`

	LLM       LLMConfig       `yaml:"llm"`
	Query     QueryConfig     `yaml:"query"`
	Plot      PlotConfig      `yaml:"plot"`
	Session   SessionConfig   `yaml:"session"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DatabaseConfig holds the primary datasource configuration.
type DatabaseConfig struct {
	Name     string `yaml:"name" env:"DB_NAME" env-default:"default"`
	Type     string `yaml:"type" env:"DB_TYPE" env-default:"postgres"`
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:""`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-default:"postgres"`
	Password string `yaml:"-" env:"POSTGRES_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"POSTGRES_DB" env-default:"postgres"`
	Schema   string `yaml:"schema" env:"DB_SCHEMA" env-default:""` // empty: backend default (public, dbo, main)
	SSLMode  string `yaml:"ssl_mode" env:"POSTGRES_SSLMODE" env-default:"disable"`
	// Path is used by file-backed engines (sqlite, duckdb) instead of Host.
	Path string `yaml:"path" env:"DB_PATH" env-default:""`
}

// DatasourceConfig describes one named datasource.
type DatasourceConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"` // postgres, sqlserver, sqlite, duckdb
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Database string `yaml:"database"`
	Schema   string `yaml:"schema"`
	SSLMode  string `yaml:"ssl_mode"`
	Path     string `yaml:"path"`

	// PasswordEnv names the environment variable holding the password.
	PasswordEnv string `yaml:"password_env"`
	Password    string `yaml:"-"`

	// Options are passed through to the driver (e.g. encrypt=false for sqlserver).
	Options map[string]string `yaml:"options"`
}

// PoolConfig holds datasource connection management settings.
type PoolConfig struct {
	// ConnectionTTLMinutes is how long idle datasource connections are kept alive.
	ConnectionTTLMinutes int   `yaml:"connection_ttl_minutes" env:"DATASOURCE_CONNECTION_TTL_MINUTES" env-default:"5"`
	PoolMaxConns         int32 `yaml:"pool_max_conns" env:"DATASOURCE_POOL_MAX_CONNS" env-default:"10"`
	PoolMinConns         int32 `yaml:"pool_min_conns" env:"DATASOURCE_POOL_MIN_CONNS" env-default:"1"`
}

// LLMConfig configures the generation client.
type LLMConfig struct {
	Provider    string        `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint    string        `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:""`
	Model       string        `yaml:"model" env:"LLM_MODEL" env-default:""`
	APIKey      string        `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	MaxTokens   int           `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"3600"`
	Temperature float64       `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.1"`
	Timeout     time.Duration `yaml:"timeout" env:"LLM_TIMEOUT" env-default:"120s"`
}

// QueryConfig controls SQL generation, validation and execution.
type QueryConfig struct {
	SampleRows       int           `yaml:"sample_rows" env:"QUERY_SAMPLE_ROWS" env-default:"5"`
	Validation       string        `yaml:"validation" env:"QUERY_VALIDATION" env-default:"substring"`
	SelectStar       string        `yaml:"select_star" env:"QUERY_SELECT_STAR" env-default:"require_one"`
	QualifySchema    bool          `yaml:"qualify_schema" env:"QUERY_QUALIFY_SCHEMA" env-default:"false"`
	MaxRows          int           `yaml:"max_rows" env:"QUERY_MAX_ROWS" env-default:"0"`
	PromptTableLimit int           `yaml:"prompt_table_limit" env:"QUERY_PROMPT_TABLE_LIMIT" env-default:"0"`
	Timeout          time.Duration `yaml:"timeout" env:"QUERY_TIMEOUT" env-default:"60s"`
}

// PlotConfig controls plot generation.
type PlotConfig struct {
	SampleRows int `yaml:"sample_rows" env:"PLOT_SAMPLE_ROWS" env-default:"10"`
	// Execute runs generated plotting code in a python subprocess.
	// The code comes from a model and is untrusted.
	Execute bool          `yaml:"execute" env:"PLOT_EXECUTE" env-default:"false"`
	Python  string        `yaml:"python" env:"PLOT_PYTHON" env-default:"python3"`
	Timeout time.Duration `yaml:"timeout" env:"PLOT_TIMEOUT" env-default:"30s"`
}

// SessionConfig controls chat session state.
type SessionConfig struct {
	TTL        time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"2h"`
	CookieName string        `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"askdb-session"`
	Secret     string        `yaml:"-" env:"SESSION_SECRET"` // Secret - not in YAML
	Secure     bool          `yaml:"secure" env:"SESSION_SECURE" env-default:"false"`
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled" env:"TELEMETRY_ENABLED" env-default:"false"`
	Exporter     string `yaml:"exporter" env:"TELEMETRY_EXPORTER" env-default:"stdout"`
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:""`
	OTLPInsecure bool   `yaml:"otlp_insecure" env:"TELEMETRY_OTLP_INSECURE" env-default:"true"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The file path can be changed with EKAYA_CONFIG. A missing file is not an
// error; the environment alone is enough to run.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	path := os.Getenv("EKAYA_CONFIG")
	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	cfg.resolveSecrets()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// resolveSecrets pulls per-datasource passwords from the environment.
func (c *Config) resolveSecrets() {
	if c.Database.Password == "" {
		c.Database.Password = os.Getenv("PGPASSWORD")
	}
	for i := range c.Datasources {
		if env := c.Datasources[i].PasswordEnv; env != "" {
			c.Datasources[i].Password = os.Getenv(env)
		}
	}
}

// Validate checks enum-like settings and datasource names.
func (c *Config) Validate() error {
	switch c.Query.Validation {
	case "substring", "tokens", "off":
	default:
		return fmt.Errorf("query.validation must be substring, tokens or off (got %q)", c.Query.Validation)
	}

	switch c.Query.SelectStar {
	case "require_one", "exempt":
	default:
		return fmt.Errorf("query.select_star must be require_one or exempt (got %q)", c.Query.SelectStar)
	}

	switch c.LLM.Provider {
	case "openai", "anthropic", "gemini", "none":
	default:
		return fmt.Errorf("llm.provider must be openai, anthropic, gemini or none (got %q)", c.LLM.Provider)
	}

	if c.Telemetry.Enabled {
		switch c.Telemetry.Exporter {
		case "stdout":
		case "otlp":
			if c.Telemetry.OTLPEndpoint == "" {
				return fmt.Errorf("telemetry.otlp_endpoint is required for the otlp exporter")
			}
		default:
			return fmt.Errorf("telemetry.exporter must be stdout or otlp (got %q)", c.Telemetry.Exporter)
		}
	}

	seen := make(map[string]bool)
	for _, ds := range c.AllDatasources() {
		if ds.Name == "" {
			return fmt.Errorf("datasource name is required")
		}
		if seen[ds.Name] {
			return fmt.Errorf("duplicate datasource name %q", ds.Name)
		}
		seen[ds.Name] = true
		if ds.Type == "" {
			return fmt.Errorf("datasource %q: type is required", ds.Name)
		}
	}

	return nil
}

// AllDatasources returns the primary datasource (when configured) followed by
// the additional ones from YAML.
func (c *Config) AllDatasources() []DatasourceConfig {
	result := make([]DatasourceConfig, 0, len(c.Datasources)+1)
	if c.Database.IsConfigured() {
		result = append(result, c.Database.AsDatasource())
	}
	return append(result, c.Datasources...)
}

// DefaultDatasource returns the name of the datasource used when a request
// does not name one.
func (c *Config) DefaultDatasource() string {
	all := c.AllDatasources()
	if len(all) == 0 {
		return ""
	}
	return all[0].Name
}

// IsConfigured reports whether the primary datasource has a host or a path.
func (d *DatabaseConfig) IsConfigured() bool {
	return d.Host != "" || d.Path != ""
}

// AsDatasource converts the primary database section to a DatasourceConfig.
func (d *DatabaseConfig) AsDatasource() DatasourceConfig {
	return DatasourceConfig{
		Name:     d.Name,
		Type:     d.Type,
		Host:     d.Host,
		Port:     d.Port,
		User:     d.User,
		Password: d.Password,
		Database: d.Database,
		Schema:   d.Schema,
		SSLMode:  d.SSLMode,
		Path:     d.Path,
	}
}

// Option returns a driver option, or def when unset.
func (d *DatasourceConfig) Option(key, def string) string {
	if v, ok := d.Options[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

// LogSummary returns key/value pairs safe to log at startup.
func (d *DatasourceConfig) LogSummary() string {
	if d.Path != "" {
		return fmt.Sprintf("%s (%s) %s", d.Name, d.Type, d.Path)
	}
	return fmt.Sprintf("%s (%s) %s@%s:%d/%s", d.Name, d.Type, d.User, d.Host, d.Port, d.Database)
}
