package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/stowgate/database"
	gatewayhttp "github.com/sagarc03/stowgate/http"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Store types.
const (
	StoreS3    = "s3"
	StoreLocal = "local"
)

// Config is the root configuration struct for stowgate.
type Config struct {
	Server   ServerConfig           `mapstructure:"server"`
	Store    StoreConfig            `mapstructure:"store"`
	S3       S3Config               `mapstructure:"s3"`
	Database database.Config        `mapstructure:"database"`
	Storage  StorageConfig          `mapstructure:"storage"`
	Cache    CacheConfig            `mapstructure:"cache"`
	CORS     gatewayhttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig              `mapstructure:"log"`
	Env      string                 `mapstructure:"env"`
}

// ServerConfig holds HTTP server and request handling configuration.
type ServerConfig struct {
	Port        int `mapstructure:"port" validate:"required,min=1,max=65535"`
	MetricsPort int `mapstructure:"metrics_port" validate:"min=0,max=65535"`
	// ShutdownTimeout is in seconds.
	ShutdownTimeout int `mapstructure:"shutdown_timeout" validate:"min=1"`

	AllowedOrigins   string `mapstructure:"allowed_origins"`
	CacheControl     string `mapstructure:"cache_control"`
	PathPrefix       string `mapstructure:"path_prefix"`
	IndexFile        string `mapstructure:"index_file"`
	NotFoundFile     string `mapstructure:"not_found_file"`
	DirectoryListing bool   `mapstructure:"directory_listing"`
	HideHiddenFiles  bool   `mapstructure:"hide_hidden_files"`
}

// StoreConfig selects the object store backend.
type StoreConfig struct {
	Type string `mapstructure:"type" validate:"required,oneof=s3 local"`
}

// S3Config binds an S3-compatible bucket.
type S3Config struct {
	Bucket       string `mapstructure:"bucket"`
	Region       string `mapstructure:"region" validate:"required"`
	Endpoint     string `mapstructure:"endpoint" validate:"omitempty,url"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
}

// StorageConfig holds file storage configuration for the local store.
type StorageConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// CacheConfig sizes the in-process response cache.
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// TTL is in seconds.
	TTL          int   `mapstructure:"ttl" validate:"min=1"`
	MaxEntrySize int64 `mapstructure:"max_entry_size" validate:"min=0"`
	MaxSizeMB    int   `mapstructure:"max_size_mb" validate:"min=0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
	"storage-path": "storage.path",
	"store":        "store.type",
	"bucket":       "s3.bucket",
	"endpoint":     "s3.endpoint",
	"port":         "server.port",
	"metrics-port": "server.metrics_port",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance. Every key
// that may come from the environment needs a default for AutomaticEnv to
// see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5708)
	v.SetDefault("server.metrics_port", 0)
	v.SetDefault("server.shutdown_timeout", 30)
	v.SetDefault("server.allowed_origins", "")
	v.SetDefault("server.cache_control", "")
	v.SetDefault("server.path_prefix", "")
	v.SetDefault("server.index_file", "")
	v.SetDefault("server.not_found_file", "")
	v.SetDefault("server.directory_listing", false)
	v.SetDefault("server.hide_hidden_files", false)

	v.SetDefault("store.type", StoreLocal)

	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.use_path_style", false)
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "stowgate.db")
	v.SetDefault("database.tables.meta_data", "stowgate_metadata")

	v.SetDefault("storage.path", "./data")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", 300)
	v.SetDefault("cache.max_entry_size", 1<<20)
	v.SetDefault("cache.max_size_mb", 64)

	v.SetDefault("log.level", "info")
	v.SetDefault("env", "dev")
}

// validateStore checks the settings the selected store type depends on.
func validateStore(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)
	if cfg.Store.Type == StoreS3 && cfg.S3.Bucket == "" {
		sl.ReportError(cfg.S3.Bucket, "S3.Bucket", "Bucket", "required_for_s3", "")
	}
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("STOWGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	validate.RegisterStructValidation(validateStore, Config{})
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.Store.Type == StoreLocal {
		if err := cfg.Database.Tables.Validate(); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
	}

	return &cfg, nil
}

// IsProduction reports whether env selects production logging.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}
