package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ResponseHeadroom is reserved in the write timeout for the work outside
// the analysis and synthesis calls.
const ResponseHeadroom = 15 * time.Second

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"readTimeout"`
		WriteTimeout    time.Duration `yaml:"writeTimeout"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	} `yaml:"server"`

	Database struct {
		// Driver is mysql or postgres, empty disables catalog and history.
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint      string `yaml:"endpoint"`
		AccessKey     string `yaml:"accessKey"`
		SecretKey     string `yaml:"secretKey"`
		BucketName    string `yaml:"bucketName"`
		Region        string `yaml:"region"`
		UseSSL        bool   `yaml:"useSSL"`
		PublicBaseURL string `yaml:"publicBaseURL"`
	} `yaml:"minio"`

	AI struct {
		APIKey      string        `yaml:"apiKey"`
		BaseURL     string        `yaml:"baseURL"`
		VisionModel string        `yaml:"visionModel"`
		MaxTokens   int           `yaml:"maxTokens"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"ai"`

	Synthesis struct {
		FastModel   string        `yaml:"fastModel"`
		ProModel    string        `yaml:"proModel"`
		Chain       []Step        `yaml:"chain"`
		Timeout     time.Duration `yaml:"timeout"`
		Budget      time.Duration `yaml:"budget"`
		MaxAttempts int           `yaml:"maxAttempts"`
	} `yaml:"synthesis"`

	Fetch struct {
		Timeout  time.Duration `yaml:"timeout"`
		MaxBytes int64         `yaml:"maxBytes"`
	} `yaml:"fetch"`

	Catalog struct {
		Limit int `yaml:"limit"`
	} `yaml:"catalog"`

	Log struct {
		Level    string `yaml:"level"`
		Encoding string `yaml:"encoding"`
	} `yaml:"log"`

	RateLimit struct {
		RequestsPerMinute int `yaml:"requestsPerMinute"`
		Burst             int `yaml:"burst"`
	} `yaml:"rateLimit"`

	Auth struct {
		APIKeys []string `yaml:"apiKeys"`
	} `yaml:"auth"`
}

// Step is one configured synthesis attempt: a model and how images are passed.
type Step struct {
	Model    string `yaml:"model"`
	Encoding string `yaml:"encoding"`
}

// Load reads the yaml file at path, then a .env file if present, then
// environment overrides for secrets. A missing yaml file is not an error:
// everything can come from the environment.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	// .env is for local development only
	_ = godotenv.Load()

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.AI.APIKey, "AI_API_KEY")
	setString(&c.AI.BaseURL, "AI_BASE_URL")
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Log.Level, "LOG_LEVEL")
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("API_KEYS"); v != "" {
		c.Auth.APIKeys = splitList(v)
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	// analysis plus the synthesis chain can take minutes
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 5 * time.Minute
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Port == 0 {
		switch c.Database.Driver {
		case "postgres":
			c.Database.Port = 5432
		case "mysql":
			c.Database.Port = 3306
		}
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "ambientes"
	}
	if c.AI.BaseURL == "" {
		c.AI.BaseURL = "https://openrouter.ai/api/v1"
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 30 * time.Second
	}
	if c.Synthesis.Timeout == 0 {
		c.Synthesis.Timeout = 60 * time.Second
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if c.Fetch.MaxBytes == 0 {
		c.Fetch.MaxBytes = 20 << 20
	}
	// whatever the write timeout leaves after analysis and persisting
	if c.Synthesis.Budget == 0 {
		c.Synthesis.Budget = c.Server.WriteTimeout - c.AI.Timeout - c.Fetch.Timeout - ResponseHeadroom
	}
	if c.Catalog.Limit <= 0 {
		c.Catalog.Limit = 50
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Encoding == "" {
		c.Log.Encoding = "json"
	}
	if c.RateLimit.RequestsPerMinute == 0 {
		c.RateLimit.RequestsPerMinute = 30
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 5
	}
}

// Validate reports structural problems. A missing AI key is allowed.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	switch c.Database.Driver {
	case "", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be mysql or postgres, got %q", c.Database.Driver))
	}
	if c.Database.Driver != "" && c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required when a driver is set"))
	}
	if _, err := url.ParseRequestURI(c.AI.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("ai.baseURL: %w", err))
	}
	for i, s := range c.Synthesis.Chain {
		if s.Model == "" {
			errs = append(errs, fmt.Errorf("synthesis.chain[%d].model is required", i))
		}
		if s.Encoding != "url" && s.Encoding != "data_url" {
			errs = append(errs, fmt.Errorf("synthesis.chain[%d].encoding must be url or data_url", i))
		}
	}
	if c.Synthesis.Budget <= 0 {
		errs = append(errs, fmt.Errorf("synthesis.budget must be positive, got %s (server.writeTimeout too small?)", c.Synthesis.Budget))
	}
	if worst := c.WorstCase(); worst > c.Server.WriteTimeout {
		errs = append(errs, fmt.Errorf("worst-case request %s exceeds server.writeTimeout %s", worst, c.Server.WriteTimeout))
	}
	if c.Synthesis.MaxAttempts < 0 {
		errs = append(errs, errors.New("synthesis.maxAttempts must not be negative"))
	}
	if c.Log.Encoding != "json" && c.Log.Encoding != "console" {
		errs = append(errs, fmt.Errorf("log.encoding must be json or console, got %q", c.Log.Encoding))
	}
	return errors.Join(errs...)
}

// StorageEnabled reports whether MinIO is configured.
func (c *Config) StorageEnabled() bool {
	return c.Minio.Endpoint != ""
}

// WorstCase is the longest a request may take. It must fit in the write
// timeout or degraded responses are lost.
func (c *Config) WorstCase() time.Duration {
	return c.AI.Timeout + c.Synthesis.Budget + c.Fetch.Timeout + ResponseHeadroom
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	dsn := mysql.NewConfig()
	dsn.User = c.Database.User
	dsn.Passwd = c.Database.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port))
	dsn.DBName = c.Database.Name
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	_ = dsn.Apply(mysql.Charset("utf8mb4", ""))
	return dsn.FormatDSN()
}

// PostgresDSN builds a lib/pq connection URL.
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

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
