package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath = "JADWALKU_CONFIG"
	EnvDatabase   = "JADWALKU_DB"
	EnvAddress    = "JADWALKU_ADDR"
	EnvAPIKey     = "GEMINI_API_KEY"
	EnvPassword   = "APP_PASSWORD"

	DefaultProvider = "gemini"
	DefaultModel    = "gemini-2.5-flash"
	DefaultAddress  = ":5000"
	DefaultTimezone = "Asia/Jakarta"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config" yaml:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases" yaml:"databases"`
	Redis       RedisConfig               `json:"redis" yaml:"redis"`
	AI          AIConfig                  `json:"ai" yaml:"ai"`
}

type BasicConfig struct {
	ServerAddress         string `json:"server_address" yaml:"server_address"`
	AppPassword           string `json:"app_password" yaml:"app_password"`
	Timezone              string `json:"timezone" yaml:"timezone"`
	ExtractTimeoutSeconds int    `json:"extract_timeout_seconds" yaml:"extract_timeout_seconds"`
	SessionTTLHours       int    `json:"session_ttl_hours" yaml:"session_ttl_hours"`
	MinWorkers            int    `json:"min_workers" yaml:"min_workers"`
	MaxWorkers            int    `json:"max_workers" yaml:"max_workers"`
	QueueSize             int    `json:"queue_size" yaml:"queue_size"`
	WorkerIdleTimeout     int    `json:"worker_idle_timeout" yaml:"worker_idle_timeout"`
	SessionCleanupCron    string `json:"session_cleanup_cron" yaml:"session_cleanup_cron"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn" yaml:"dsn"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	DBName   string `json:"db_name" yaml:"db_name"`
	Params   string `json:"params" yaml:"params"`
}

type RedisConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// Enabled reports whether a redis server was configured at all.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Host) != ""
}

type AIConfig struct {
	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// Load reads configuration from the provided path. An empty path means no
// config file: everything comes from defaults and the environment. A .env
// file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		data, err := os.ReadFile(absPath)
		if err != nil {
			return nil, fmt.Errorf("open config %s: %w", absPath, err)
		}
		if err := decode(absPath, data, cfg); err != nil {
			return nil, err
		}
		cfg.resolveRelativePaths(filepath.Dir(absPath))
	}

	cfg.applyEnv()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode config: %w", err)
		}
	}
	return nil
}

// sqlite DSNs are resolved against the config file directory.
func (c *Config) resolveRelativePaths(baseDir string) {
	for name, db := range c.Databases {
		if name != "sqlite3" && name != "sqlite" {
			continue
		}
		if db.DSN == "" || db.DSN == ":memory:" || strings.HasPrefix(db.DSN, "file:") || filepath.IsAbs(db.DSN) {
			continue
		}
		db.DSN = filepath.Join(baseDir, db.DSN)
		c.Databases[name] = db
	}
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		c.BasicConfig.AppPassword = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAddress)); v != "" {
		c.BasicConfig.ServerAddress = v
	}
	if v := strings.TrimSpace(os.Getenv("JADWALKU_REDIS_PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Redis.Port = port
		}
	}
	if v := strings.TrimSpace(os.Getenv("JADWALKU_REDIS_HOST")); v != "" {
		c.Redis.Host = v
	}
}

// Normalize fills in zero values with defaults.
func (c *Config) Normalize() {
	if c.BasicConfig.ServerAddress == "" {
		c.BasicConfig.ServerAddress = DefaultAddress
	}
	if c.BasicConfig.Timezone == "" {
		c.BasicConfig.Timezone = DefaultTimezone
	}
	if c.BasicConfig.ExtractTimeoutSeconds <= 0 {
		c.BasicConfig.ExtractTimeoutSeconds = 120
	}
	if c.BasicConfig.SessionTTLHours <= 0 {
		c.BasicConfig.SessionTTLHours = 24
	}
	if c.BasicConfig.MinWorkers <= 0 {
		c.BasicConfig.MinWorkers = 1
	}
	if c.BasicConfig.MaxWorkers <= 0 {
		c.BasicConfig.MaxWorkers = 4
	}
	if c.BasicConfig.MaxWorkers < c.BasicConfig.MinWorkers {
		c.BasicConfig.MaxWorkers = c.BasicConfig.MinWorkers
	}
	if c.BasicConfig.SessionCleanupCron == "" {
		c.BasicConfig.SessionCleanupCron = "@hourly"
	}
	if c.BasicConfig.WorkerIdleTimeout <= 0 {
		c.BasicConfig.WorkerIdleTimeout = 5
	}
	if c.BasicConfig.QueueSize <= 0 {
		c.BasicConfig.QueueSize = 16
	}
	if c.Databases == nil {
		c.Databases = make(map[string]DatabaseConfig)
	}
	if db, ok := c.Databases["sqlite3"]; !ok || db.DSN == "" {
		db.DSN = "database.db"
		c.Databases["sqlite3"] = db
	}
	if c.AI.Provider == "" {
		c.AI.Provider = DefaultProvider
	}
	if c.AI.Model == "" && c.AI.Provider == DefaultProvider {
		c.AI.Model = DefaultModel
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.AI.APIKey == "" {
		return fmt.Errorf("api key for provider %s not configured (set %s)", c.AI.Provider, EnvAPIKey)
	}
	if c.BasicConfig.AppPassword == "" {
		return fmt.Errorf("app password not configured (set %s)", EnvPassword)
	}
	if c.AI.Model == "" {
		return fmt.Errorf("model for provider %s must be configured", c.AI.Provider)
	}
	if _, err := time.LoadLocation(c.BasicConfig.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.BasicConfig.Timezone, err)
	}
	return nil
}

// Location returns the timezone used to compute "today".
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.BasicConfig.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) ExtractTimeout() time.Duration {
	return time.Duration(c.BasicConfig.ExtractTimeoutSeconds) * time.Second
}

// WorkerIdleTimeout is how long a surplus extraction worker may sit idle.
func (c *Config) WorkerIdleTimeout() time.Duration {
	return time.Duration(c.BasicConfig.WorkerIdleTimeout) * time.Minute
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.BasicConfig.SessionTTLHours) * time.Hour
}
