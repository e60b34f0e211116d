package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Timestamp filtering policies.
const (
	PolicyLenient = "lenient"
	PolicyPattern = "pattern"
)

// ErrUnknownPolicy is returned for a TIMESTAMP_POLICY outside lenient|pattern.
var ErrUnknownPolicy = errors.New("config: unknown timestamp policy")

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DBDriver string
	DBDSN    string

	HTTPAddr  string
	ChromeBin string
	LogLevel  string

	ProfilePath string
	Import      ImportProfile
}

// ImportProfile describes how an export file maps onto EventRecords. Exports
// produced by different tool versions differ only here.
type ImportProfile struct {
	SkipRows        int      `yaml:"skip_rows"`
	Delimiter       string   `yaml:"delimiter"`
	Encoding        string   `yaml:"encoding"`
	TimestampPolicy string   `yaml:"timestamp_policy"`
	DayFirst        bool     `yaml:"day_first"`
	Timezone        string   `yaml:"timezone"`
	ExtraLayouts    []string `yaml:"extra_layouts"`
	Table           string   `yaml:"table"`
	Columns         Columns  `yaml:"columns"`
}

// profileFile is the on-disk form of an ImportProfile. Pointer fields tell
// an explicit zero apart from an absent key.
type profileFile struct {
	SkipRows        *int     `yaml:"skip_rows"`
	Delimiter       string   `yaml:"delimiter"`
	Encoding        string   `yaml:"encoding"`
	TimestampPolicy string   `yaml:"timestamp_policy"`
	DayFirst        *bool    `yaml:"day_first"`
	Timezone        string   `yaml:"timezone"`
	ExtraLayouts    []string `yaml:"extra_layouts"`
	Table           string   `yaml:"table"`
	Columns         Columns  `yaml:"columns"`
}

// Columns names the stored columns of the Eventos table.
type Columns struct {
	Timestamp string `yaml:"timestamp"`
	Event     string `yaml:"event"`
	Actor     string `yaml:"actor"`
}

// Load reads the .env file and returns a populated Config struct. A YAML
// import profile named by IMPORT_PROFILE is layered over the env values.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBDSN:    getEnv("DB_DSN", "EventHistory.db"),

		HTTPAddr:  getEnv("HTTP_ADDR", ":8501"),
		ChromeBin: getEnv("CHROME_BIN", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		ProfilePath: getEnv("IMPORT_PROFILE", ""),
		Import: ImportProfile{
			SkipRows:        getEnvInt("SKIP_ROWS", 5),
			Delimiter:       getEnv("DELIMITER", ","),
			Encoding:        getEnv("ENCODING", "latin1"),
			TimestampPolicy: getEnv("TIMESTAMP_POLICY", PolicyLenient),
			DayFirst:        getEnvBool("DAY_FIRST", false),
			Timezone:        getEnv("TIMEZONE", "UTC"),
			Table:           getEnv("DB_TABLE", "Eventos"),
			Columns: Columns{
				Timestamp: getEnv("COLUMN_TIMESTAMP", "Marca de tiempo"),
				Event:     getEnv("COLUMN_EVENT", "Evento"),
				Actor:     getEnv("COLUMN_ACTOR", "Usuario"),
			},
		},
	}

	if cfg.ProfilePath != "" {
		if err := cfg.ApplyProfile(cfg.ProfilePath); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyProfile overlays the keys present in a YAML import profile.
func (c *Config) ApplyProfile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read profile %q: %w", path, err)
	}

	var p profileFile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("config: parse profile %q: %w", path, err)
	}

	dst := &c.Import
	if p.SkipRows != nil {
		dst.SkipRows = *p.SkipRows
	}
	setIf(&dst.Delimiter, p.Delimiter)
	setIf(&dst.Encoding, p.Encoding)
	setIf(&dst.TimestampPolicy, p.TimestampPolicy)
	setIf(&dst.Timezone, p.Timezone)
	setIf(&dst.Table, p.Table)
	setIf(&dst.Columns.Timestamp, p.Columns.Timestamp)
	setIf(&dst.Columns.Event, p.Columns.Event)
	setIf(&dst.Columns.Actor, p.Columns.Actor)
	if p.DayFirst != nil {
		dst.DayFirst = *p.DayFirst
	}
	dst.ExtraLayouts = append(dst.ExtraLayouts, p.ExtraLayouts...)
	c.ProfilePath = path
	return nil
}

// Validate checks values that would otherwise fail deep inside a load.
func (c *Config) Validate() error {
	c.Import.TimestampPolicy = strings.ToLower(strings.TrimSpace(c.Import.TimestampPolicy))
	switch c.Import.TimestampPolicy {
	case PolicyLenient, PolicyPattern:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPolicy, c.Import.TimestampPolicy)
	}
	if len([]rune(c.Import.Delimiter)) != 1 {
		return fmt.Errorf("config: delimiter must be a single character, got %q", c.Import.Delimiter)
	}
	if c.Import.SkipRows < 0 {
		return fmt.Errorf("config: skip rows must not be negative, got %d", c.Import.SkipRows)
	}
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
