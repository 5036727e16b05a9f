// ABOUTME: Layered configuration for the postman binary
// ABOUTME: Defaults, then config.toml, then .env and POSTMAN_* variables; flags are applied by main
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const (
	AppName   = "postman"
	EnvPrefix = "POSTMAN_"
)

// Duration decodes TOML strings such as "15s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	DatabasePath     string       `toml:"database_path"`
	UploadDir        string       `toml:"upload_dir"`
	BackupDir        string       `toml:"backup_dir"`
	DefaultUserEmail string       `toml:"default_user_email"`
	Server           ServerConfig `toml:"server"`
	Log              LogConfig    `toml:"log"`
}

type ServerConfig struct {
	Addr           string   `toml:"addr"`
	ReadTimeout    Duration `toml:"read_timeout"`
	WriteTimeout   Duration `toml:"write_timeout"`
	IdleTimeout    Duration `toml:"idle_timeout"`
	CORSOrigins    []string `toml:"cors_origins"`
	MaxUploadBytes int64    `toml:"max_upload_bytes"`
	RateLimit      float64  `toml:"rate_limit"`
	RateBurst      int      `toml:"rate_burst"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DataDir is where the database, uploads and backups live by default.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultPath is the config file consulted when no --config is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.toml")
}

func Default() *Config {
	dataDir := DataDir()
	return &Config{
		DatabasePath:     filepath.Join(dataDir, "postman.db"),
		UploadDir:        filepath.Join(dataDir, "uploads"),
		BackupDir:        filepath.Join(dataDir, "backups"),
		DefaultUserEmail: "me@localhost",
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			ReadTimeout:    Duration{15 * time.Second},
			WriteTimeout:   Duration{30 * time.Second},
			IdleTimeout:    Duration{60 * time.Second},
			CORSOrigins:    []string{"http://localhost:3000"},
			MaxUploadBytes: 10 << 20,
			RateLimit:      2,
			RateBurst:      5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "pretty",
		},
	}
}

// Load resolves configuration. An explicit configPath must exist; the
// default path is optional. envFile is loaded when present and never
// overrides variables already set in the process environment.
func Load(configPath, envFile string) (*Config, error) {
	cfg := Default()

	path := configPath
	if path == "" {
		path = DefaultPath()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	homeDir, _ := os.UserHomeDir()
	cfg.DatabasePath = expandTilde(cfg.DatabasePath, homeDir)
	cfg.UploadDir = expandTilde(cfg.UploadDir, homeDir)
	cfg.BackupDir = expandTilde(cfg.BackupDir, homeDir)

	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	str("DB_PATH", &c.DatabasePath)
	str("UPLOAD_DIR", &c.UploadDir)
	str("BACKUP_DIR", &c.BackupDir)
	str("DEFAULT_USER_EMAIL", &c.DefaultUserEmail)
	str("ADDR", &c.Server.Addr)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v := os.Getenv(EnvPrefix + "CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	for key, dst := range map[string]*Duration{
		"READ_TIMEOUT":  &c.Server.ReadTimeout,
		"WRITE_TIMEOUT": &c.Server.WriteTimeout,
		"IDLE_TIMEOUT":  &c.Server.IdleTimeout,
	} {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
		}
	}

	if v := os.Getenv(EnvPrefix + "MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_UPLOAD_BYTES: %w", EnvPrefix, err)
		}
		c.Server.MaxUploadBytes = n
	}
	if v := os.Getenv(EnvPrefix + "RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT: %w", EnvPrefix, err)
		}
		c.Server.RateLimit = f
	}
	if v := os.Getenv(EnvPrefix + "RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sRATE_BURST: %w", EnvPrefix, err)
		}
		c.Server.RateBurst = n
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path is required"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
		errs = append(errs, errors.New("server.rate_limit and server.rate_burst must be positive"))
	}
	switch c.Log.Format {
	case "json", "pretty":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or pretty, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func expandTilde(path, homeDir string) string {
	if homeDir != "" && strings.HasPrefix(path, "~") {
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
