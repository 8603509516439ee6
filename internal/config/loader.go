package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/example/company-calendar/internal/auth"
)

// Prefix is prepended to every variable name.
const Prefix = "CALENDAR_"

// Config captures environment driven configuration values for the calendar API.
type Config struct {
	HTTPPort       int           `env:"HTTP_PORT" envDefault:"8080"`
	SQLiteDSN      string        `env:"SQLITE_DSN" envDefault:"calendar.db"`
	AuthSecret     string        `env:"AUTH_SECRET,required,notEmpty"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"12h"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"json"`
	BusinessTZ     string        `env:"BUSINESS_TZ" envDefault:"UTC"`

	// BusinessLocation is resolved from BusinessTZ.
	BusinessLocation *time.Location `env:"-"`
}

// Load reads the optional dotenv files (".env" when none are given) and then
// parses the process environment. Variables already set in the environment
// win over dotenv values.
func Load(dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, file := range dotenvFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	invalid := make([]string, 0, 4)

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		invalid = append(invalid, Prefix+"HTTP_PORT")
	}
	if strings.TrimSpace(c.SQLiteDSN) == "" {
		invalid = append(invalid, Prefix+"SQLITE_DSN")
	}
	if len(strings.TrimSpace(c.AuthSecret)) < auth.MinSecretLength {
		invalid = append(invalid, Prefix+"AUTH_SECRET")
	}
	if c.TokenTTL <= 0 {
		invalid = append(invalid, Prefix+"TOKEN_TTL")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		invalid = append(invalid, Prefix+"LOG_FORMAT")
	}

	loc, err := time.LoadLocation(strings.TrimSpace(c.BusinessTZ))
	if err != nil {
		invalid = append(invalid, Prefix+"BUSINESS_TZ")
	} else {
		c.BusinessLocation = loc
	}

	origins := c.AllowedOrigins[:0]
	for _, origin := range c.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	c.AllowedOrigins = origins

	if len(invalid) > 0 {
		return fmt.Errorf("config: invalid environment variables: %s", strings.Join(invalid, ", "))
	}
	return nil
}
