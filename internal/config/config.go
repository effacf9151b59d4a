// Package config loads fuelroute settings from defaults, an optional YAML
// file, a .env file and FUELROUTE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rubiojr/fuelroute/internal/fuelroute"
	"github.com/rubiojr/fuelroute/internal/geocode"
	"github.com/rubiojr/fuelroute/internal/stations"
	"github.com/rubiojr/fuelroute/pkg/api"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "FUELROUTE"

	DefaultDB              = "fuel_stations.db"
	DefaultServerAddr      = "127.0.0.1:8080"
	DefaultRateLimit       = 20
	DefaultLogLevel        = "info"
	defaultConfigName      = "fuelroute"
	googleMapsAPIKeyEnvVar = "GOOGLE_MAPS_API_KEY"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: field %q: %s", e.Field, e.Message)
}

type Config struct {
	DB                string        `mapstructure:"db"`
	GoogleMapsAPIKey  string        `mapstructure:"google_maps_api_key"`
	MapsBaseURL       string        `mapstructure:"maps_base_url"`
	MaxRangeMiles     float64       `mapstructure:"max_range_miles"`
	SearchRadiusMiles float64       `mapstructure:"search_radius_miles"`
	MilesPerGallon    float64       `mapstructure:"miles_per_gallon"`
	Geocoder          string        `mapstructure:"geocoder"`
	NominatimServer   string        `mapstructure:"nominatim_server"`
	ImportDelay       time.Duration `mapstructure:"import_delay"`
	Server            ServerConfig  `mapstructure:"server"`
	Log               LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// Requests per minute and client IP; 0 disables rate limiting.
	RateLimit int `mapstructure:"rate_limit"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads the configuration. path names an explicit YAML file and must
// exist when given; otherwise fuelroute.yaml is looked up in the working
// directory and skipped when missing. Environment variables override the
// file: FUELROUTE_SERVER_ADDR sets server.addr. GOOGLE_MAPS_API_KEY is
// accepted as well as FUELROUTE_GOOGLE_MAPS_API_KEY.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	v.SetDefault("db", DefaultDB)
	v.SetDefault("google_maps_api_key", "")
	v.SetDefault("maps_base_url", api.DefaultBaseURL)
	v.SetDefault("max_range_miles", fuelroute.DefaultMaxRangeMiles)
	v.SetDefault("search_radius_miles", fuelroute.DefaultSearchRadiusMiles)
	v.SetDefault("miles_per_gallon", fuelroute.DefaultMilesPerGallon)
	v.SetDefault("geocoder", geocode.ProviderGoogle)
	v.SetDefault("nominatim_server", geocode.DefaultNominatimServer)
	v.SetDefault("import_delay", stations.DefaultImportDelay)
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.rate_limit", DefaultRateLimit)
	v.SetDefault("log.level", DefaultLogLevel)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName(defaultConfigName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("google_maps_api_key", EnvPrefix+"_GOOGLE_MAPS_API_KEY", googleMapsAPIKeyEnvVar); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks every field and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DB) == "" {
		errs = append(errs, &ConfigError{Field: "db", Message: "cannot be empty"})
	}
	if c.MaxRangeMiles <= 0 {
		errs = append(errs, &ConfigError{Field: "max_range_miles", Message: "must be positive"})
	}
	if c.SearchRadiusMiles <= 0 {
		errs = append(errs, &ConfigError{Field: "search_radius_miles", Message: "must be positive"})
	}
	if c.MilesPerGallon <= 0 {
		errs = append(errs, &ConfigError{Field: "miles_per_gallon", Message: "must be positive"})
	}
	switch strings.ToLower(c.Geocoder) {
	case geocode.ProviderGoogle, geocode.ProviderNominatim:
	default:
		errs = append(errs, &ConfigError{Field: "geocoder", Message: fmt.Sprintf("unknown provider %q", c.Geocoder)})
	}
	if c.ImportDelay < 0 {
		errs = append(errs, &ConfigError{Field: "import_delay", Message: "cannot be negative"})
	}
	if c.Server.Addr == "" {
		errs = append(errs, &ConfigError{Field: "server.addr", Message: "cannot be empty"})
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, &ConfigError{Field: "server.rate_limit", Message: "cannot be negative"})
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, &ConfigError{Field: "log.level", Message: err.Error()})
	}
	return errors.Join(errs...)
}

// PlannerConfig returns the route planner settings.
func (c *Config) PlannerConfig() fuelroute.PlannerConfig {
	return fuelroute.PlannerConfig{
		MaxRangeMiles:     c.MaxRangeMiles,
		SearchRadiusMiles: c.SearchRadiusMiles,
		MilesPerGallon:    c.MilesPerGallon,
	}
}

// RequireAPIKey fails when no Google Maps API key is configured.
func (c *Config) RequireAPIKey() error {
	if c.GoogleMapsAPIKey == "" {
		return &ConfigError{Field: "google_maps_api_key", Message: "required but not set (GOOGLE_MAPS_API_KEY)"}
	}
	return nil
}

// LogLevel returns the configured slog level, info when unset.
func (c *Config) LogLevel() slog.Level {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid level %q", s)
	}
	return level, nil
}
