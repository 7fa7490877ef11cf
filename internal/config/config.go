package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Server      Server      `yaml:"server"`
	Sync        Sync        `yaml:"sync"`
	Environment Environment `yaml:"-"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	DataDir       string `yaml:"dataDir"`
	PostgresDsn   string `yaml:"postgresDsn"`
	SupabaseURL   string `yaml:"supabaseUrl"`
	SupabaseKey   string `yaml:"supabaseKey"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
	LogLevel      string `yaml:"logLevel"` // debug, info, warn, error
}

type Sync struct {
	Interval       Duration `yaml:"interval"` // 0 disables the background trigger
	RecordDelay    Duration `yaml:"recordDelay"`
	DuplicateCheck bool     `yaml:"duplicateCheck"`
	QueueSize      int      `yaml:"queueSize"`
	WatchFiles     bool     `yaml:"watchFiles"`
}

// Environment is read from the process environment only.
type Environment struct {
	Vercel     bool
	Render     bool
	Production bool
}

// Duration accepts "10m" style strings in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" || s == "0" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", s)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func Default() Config {
	return Config{
		Server: Server{
			Listen:   ":8000",
			DataDir:  "data",
			LogLevel: "info",
		},
		Sync: Sync{
			Interval:    Duration(10 * time.Minute),
			RecordDelay: Duration(100 * time.Millisecond),
			QueueSize:   256,
		},
	}
}

// Load reads .env if present, then the YAML file at path (optional when
// empty), then applies environment overrides.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	config := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, err
		}
		defer file.Close()

		err = yaml.NewDecoder(file).Decode(&config)
		if err != nil {
			return Config{}, errors.Wrap(err, "failed to decode config")
		}
	}

	config.ApplyEnv(os.Getenv)
	return config, nil
}

// ApplyEnv overrides file values from getenv. The gate flags come from here
// only.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("DATABASE_URL"); v != "" {
		c.Server.PostgresDsn = v
	}
	if v := getenv("SUPABASE_URL"); v != "" {
		c.Server.SupabaseURL = strings.TrimRight(v, "/")
	}
	if v := getenv("SUPABASE_SERVICE_KEY"); v != "" {
		c.Server.SupabaseKey = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Server.RedisAddr = v
	}
	if v := getenv("LOANDESK_DATA_DIR"); v != "" {
		c.Server.DataDir = v
	}
	if v := getenv("PORT"); v != "" {
		if _, err := strconv.Atoi(v); err == nil {
			c.Server.Listen = ":" + v
		}
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}

	c.Environment = Environment{
		Vercel:     truthy(getenv("VERCEL")),
		Render:     truthy(getenv("RENDER")),
		Production: strings.EqualFold(strings.TrimSpace(getenv("APP_ENV")), "production"),
	}

	if c.Sync.QueueSize <= 0 {
		c.Sync.QueueSize = 256
	}
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
