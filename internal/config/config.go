package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            int      `yaml:"port"`
		PublicURL       string   `yaml:"publicURL"`
		ReadTimeout     Duration `yaml:"readTimeout"`
		WriteTimeout    Duration `yaml:"writeTimeout"`
		MaxUploadMB     int64    `yaml:"maxUploadMB"`
		CORSOrigins     []string `yaml:"corsOrigins"`
		SessionIdleTTL  Duration `yaml:"sessionIdleTTL"`
		ShutdownTimeout Duration `yaml:"shutdownTimeout"`
	} `yaml:"server"`

	Analysis struct {
		// Backend: remote | openai | ollama
		Backend     string   `yaml:"backend"`
		Endpoint    string   `yaml:"endpoint"`
		DefaultMode string   `yaml:"defaultMode"`
		Timeout     Duration `yaml:"timeout"`
		Model       string   `yaml:"model"`
		APIKey      string   `yaml:"apiKey"`
	} `yaml:"analysis"`

	History struct {
		// Backend: file | mysql | postgres
		Backend   string `yaml:"backend"`
		Dir       string `yaml:"dir"`
		Namespace string `yaml:"namespace"`
	} `yaml:"history"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Enabled       bool     `yaml:"enabled"`
		Endpoint      string   `yaml:"endpoint"`
		AccessKey     string   `yaml:"accessKey"`
		SecretKey     string   `yaml:"secretKey"`
		BucketName    string   `yaml:"bucketName"`
		Region        string   `yaml:"region"`
		UseSSL        bool     `yaml:"useSSL"`
		PresignExpiry Duration `yaml:"presignExpiry"`
	} `yaml:"minio"`

	Auth struct {
		// APIKeys maps a client name to its key. Empty disables auth.
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	RateLimit struct {
		Capacity   int `yaml:"capacity"`
		RefillRate int `yaml:"refillRate"`
	} `yaml:"rateLimit"`
}

// Duration accepts "30s"-style strings in yaml.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return d.Duration.String(), nil }

// Default returns a configuration that runs with no external services.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeout = Duration{60 * time.Second}
	c.Server.WriteTimeout = Duration{120 * time.Second}
	c.Server.MaxUploadMB = 50
	c.Server.CORSOrigins = []string{"*"}
	c.Server.SessionIdleTTL = Duration{30 * time.Minute}
	c.Server.ShutdownTimeout = Duration{10 * time.Second}

	c.Analysis.Backend = "remote"
	c.Analysis.DefaultMode = "local"
	c.Analysis.Timeout = Duration{60 * time.Second}

	c.History.Backend = "file"
	c.History.Dir = "./data"
	c.History.Namespace = "mvai_history_v1"

	c.Database.Port = 3306
	c.Database.SSLMode = "disable"

	c.Minio.PresignExpiry = Duration{time.Hour}

	c.RateLimit.Capacity = 60
	c.RateLimit.RefillRate = 1
	return &c
}

// Load baca file config.yaml di atas Default, lalu override dari env.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from MV_* environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	num("PORT", &c.Server.Port)
	str("MV_PUBLIC_URL", &c.Server.PublicURL)
	str("MV_ANALYSIS_BACKEND", &c.Analysis.Backend)
	str("MV_ANALYSIS_ENDPOINT", &c.Analysis.Endpoint)
	str("MV_ANALYSIS_MODE", &c.Analysis.DefaultMode)
	str("MV_ANALYSIS_MODEL", &c.Analysis.Model)
	str("MV_OPENAI_API_KEY", &c.Analysis.APIKey)
	str("MV_HISTORY_BACKEND", &c.History.Backend)
	str("MV_HISTORY_DIR", &c.History.Dir)
	str("MV_DB_HOST", &c.Database.Host)
	num("MV_DB_PORT", &c.Database.Port)
	str("MV_DB_USER", &c.Database.User)
	str("MV_DB_PASSWORD", &c.Database.Password)
	str("MV_DB_NAME", &c.Database.Name)
	str("MV_MINIO_ACCESS_KEY", &c.Minio.AccessKey)
	str("MV_MINIO_SECRET_KEY", &c.Minio.SecretKey)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.maxUploadMB must be positive")
	}
	switch c.Analysis.Backend {
	case "remote", "openai", "ollama":
	default:
		return fmt.Errorf("analysis.backend must be one of remote, openai, ollama")
	}
	switch strings.ToLower(c.Analysis.DefaultMode) {
	case "remote", "local":
	default:
		return fmt.Errorf("analysis.defaultMode must be remote or local")
	}
	if c.Analysis.Endpoint != "" {
		u, err := url.Parse(c.Analysis.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("analysis.endpoint must be an http(s) URL")
		}
	}
	switch c.History.Backend {
	case "file", "mysql", "postgres":
	default:
		return fmt.Errorf("history.backend must be one of file, mysql, postgres")
	}
	if c.Minio.Enabled && (c.Minio.Endpoint == "" || c.Minio.BucketName == "") {
		return fmt.Errorf("minio.endpoint and minio.bucketName are required when minio is enabled")
	}
	return nil
}

// RemoteEnabled reports whether a remote analysis backend is configured.
func (c *Config) RemoteEnabled() bool {
	switch c.Analysis.Backend {
	case "openai":
		return c.Analysis.APIKey != ""
	default:
		return c.Analysis.Endpoint != ""
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

// MaxUploadBytes is Server.MaxUploadMB in bytes.
func (c *Config) MaxUploadBytes() int64 { return c.Server.MaxUploadMB << 20 }
