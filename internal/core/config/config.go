package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`

	// Database holds the entity store configuration.
	Database DatabaseConfig `mapstructure:",squash"`

	// Redis holds the optional Redis connection used by the change feed and projection cache.
	Redis RedisConfig `mapstructure:",squash"`

	// Feed holds the change feed tuning.
	Feed FeedConfig `mapstructure:",squash"`

	// Auth holds the bearer token verification settings.
	Auth AuthConfig `mapstructure:",squash"`

	// Labels holds the external label renderer settings.
	Labels LabelConfig `mapstructure:",squash"`
}

// DatabaseConfig holds database connection details.
type DatabaseConfig struct {
	// Driver selects the entity store: "postgres" or "memory".
	Driver string `mapstructure:"STORE_DRIVER" default:"postgres"`
	// Host is the database server hostname.
	Host string `mapstructure:"DB_HOST" default:"localhost"`
	// Port is the database connection port.
	Port int `mapstructure:"DB_PORT" default:"5432"`
	// User is the database role.
	User string `mapstructure:"DB_USER" default:"postgres"`
	// Password is the database password.
	Password string `mapstructure:"DB_PASSWORD"`
	// Name is the database name.
	Name string `mapstructure:"DB_NAME" default:"cargo_pipeline"`
	// SSLMode is passed through to the postgres DSN.
	SSLMode string `mapstructure:"DB_SSLMODE" default:"disable"`
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig holds the Redis connection URL. Empty disables Redis.
type RedisConfig struct {
	URL string `mapstructure:"REDIS_URL"`
	// Namespace prefixes every cache key.
	Namespace string `mapstructure:"CACHE_NAMESPACE" default:"cargo-pipeline"`
}

// Enabled reports whether a Redis URL was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// FeedConfig holds change feed settings.
type FeedConfig struct {
	// Channel is the Redis Pub/Sub channel carrying change notifications.
	Channel string `mapstructure:"FEED_CHANNEL" default:"cargo-pipeline:changes"`
	// DebounceMS is the coalescing window observers use, in milliseconds.
	DebounceMS int `mapstructure:"FEED_DEBOUNCE_MS" default:"120"`
	// ProjectionCacheTTLSeconds bounds how long cached projections live.
	ProjectionCacheTTLSeconds int `mapstructure:"PROJECTION_CACHE_TTL_SECONDS" default:"300"`
}

// Debounce returns the debounce window as a duration.
func (f FeedConfig) Debounce() time.Duration {
	return time.Duration(f.DebounceMS) * time.Millisecond
}

// ProjectionCacheTTL returns the projection cache TTL as a duration.
func (f FeedConfig) ProjectionCacheTTL() time.Duration {
	return time.Duration(f.ProjectionCacheTTLSeconds) * time.Second
}

// AuthConfig holds the shared secret used to verify actor tokens.
type AuthConfig struct {
	JWTSecret string `mapstructure:"AUTH_JWT_SECRET" required:"true"`
}

// LabelConfig points at the external label/PDF renderer. Empty disables rendering.
type LabelConfig struct {
	ServiceURL string `mapstructure:"LABEL_SERVICE_URL"`
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// processTags iterates over the struct fields and sets default values in Viper.
func processTags(v *viper.Viper, config any) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			v.BindEnv(key)
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config any) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		required := field.Tag.Get("required")
		if required == "true" {
			value := val.Field(i)
			if isZero(value) {
				key := field.Tag.Get("mapstructure")
				return fmt.Errorf("missing required configuration: %s", key)
			}
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
