package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv    string `mapstructure:"APP_ENV" validate:"required,oneof=development staging production test"`
	Port      string `mapstructure:"PORT" validate:"required,numeric"`
	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"required,oneof=debug info warn error"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"required,oneof=json console"`

	DBDriver    string `mapstructure:"DB_DRIVER" validate:"required,oneof=sqlite postgres"`
	DatabaseURL string `mapstructure:"DATABASE_URL" validate:"required"`

	JWTSecret string        `mapstructure:"JWT_SECRET" validate:"required,min=16"`
	JWTExpiry time.Duration `mapstructure:"-"`

	// Super Admin credentials reconciled at startup.
	AdminName     string `mapstructure:"ADMIN_NAME"`
	AdminPhone    string `mapstructure:"ADMIN_PHONE"`
	AdminEmail    string `mapstructure:"ADMIN_EMAIL" validate:"omitempty,email"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD" validate:"required_with=AdminEmail,omitempty,min=8"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER" validate:"required,oneof=local cloudinary"`
	CloudinaryURL string `mapstructure:"CLOUDINARY_URL" validate:"required_if=StorageDriver cloudinary"`
	UploadDir     string `mapstructure:"UPLOAD_DIR" validate:"required_if=StorageDriver local"`
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL" validate:"required,url"`
	UploadFolder  string `mapstructure:"UPLOAD_FOLDER" validate:"required"`
	MaxUploadMB   int64  `mapstructure:"MAX_UPLOAD_MB" validate:"gte=1,lte=1024"`

	CORSOrigins   string  `mapstructure:"CORS_ORIGINS"`
	SentryDSN     string  `mapstructure:"SENTRY_DSN"`
	AuthRateLimit float64 `mapstructure:"AUTH_RATE_LIMIT" validate:"gt=0"`
	AuthRateBurst int     `mapstructure:"AUTH_RATE_BURST" validate:"gte=1"`
}

var (
	validate = validator.New(validator.WithRequiredStructEnabled())

	keys = []string{
		"APP_ENV", "PORT", "LOG_LEVEL", "LOG_FORMAT",
		"DB_DRIVER", "DATABASE_URL",
		"JWT_SECRET", "JWT_EXPIRY",
		"ADMIN_NAME", "ADMIN_PHONE", "ADMIN_EMAIL", "ADMIN_PASSWORD",
		"STORAGE_DRIVER", "CLOUDINARY_URL", "UPLOAD_DIR", "PUBLIC_BASE_URL", "UPLOAD_FOLDER", "MAX_UPLOAD_MB",
		"CORS_ORIGINS", "SENTRY_DSN", "AUTH_RATE_LIMIT", "AUTH_RATE_BURST",
	}
)

// Load reads .env files when present, then the environment, applies
// defaults and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "5000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_URL", "heritage.db")
	v.SetDefault("JWT_EXPIRY", "720h")
	v.SetDefault("ADMIN_NAME", "Super Admin")
	v.SetDefault("ADMIN_PHONE", "0000000000")
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:5000")
	v.SetDefault("UPLOAD_FOLDER", "bc4p")
	v.SetDefault("MAX_UPLOAD_MB", 50)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("AUTH_RATE_LIMIT", 0.5)
	v.SetDefault("AUTH_RATE_BURST", 10)

	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	d, err := time.ParseDuration(v.GetString("JWT_EXPIRY"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY: %w", err)
	}
	c.JWTExpiry = d
	c.AdminEmail = strings.ToLower(strings.TrimSpace(c.AdminEmail))

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &c, nil
}

// MustLoad loads configuration or exits the process.
func MustLoad() *Config {
	c, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return c
}

// MaxUploadBytes is the multipart body ceiling.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
