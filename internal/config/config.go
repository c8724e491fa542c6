package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Auth guard names accepted by POSTS_AUTH_GUARD.
const (
	GuardJWT      = "jwt"
	GuardSanctum  = "sanctum"
	GuardFirebase = "firebase"
)

type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"development"`

	DBHost     string `env:"DB_HOST"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"require"`

	ServerPort      string        `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"inkpost"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"60m"`

	SanctumTokenTTL time.Duration `env:"SANCTUM_TOKEN_TTL" envDefault:"24h"`

	// Empty disables the JWT blocklist; logout is then client-side only.
	RedisURL string `env:"REDIS_URL"`

	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`
	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseClientEmail     string `env:"FIREBASE_CLIENT_EMAIL"`
	FirebasePrivateKey      string `env:"FIREBASE_PRIVATE_KEY"`
	FirebaseDatabaseURL     string `env:"FIREBASE_DATABASE_URL"`
	FirebaseAPIKey          string `env:"FIREBASE_API_KEY"`

	MirrorRoot        string `env:"MIRROR_ROOT" envDefault:"posts"`
	RemoteMaxAttempts uint   `env:"REMOTE_MAX_ATTEMPTS" envDefault:"3"`

	PostsAuthGuard string `env:"POSTS_AUTH_GUARD" envDefault:"jwt"`

	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `env:"R2_BUCKET_NAME"`
	R2PublicURL       string `env:"R2_PUBLIC_URL"`

	DefaultAvatarURL string `env:"DEFAULT_AVATAR_URL"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, relying on environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have no safe default.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.SanctumTokenTTL <= 0 {
		return fmt.Errorf("SANCTUM_TOKEN_TTL must be positive")
	}
	if c.RemoteMaxAttempts == 0 {
		c.RemoteMaxAttempts = 1
	}

	c.PostsAuthGuard = strings.ToLower(strings.TrimSpace(c.PostsAuthGuard))
	switch c.PostsAuthGuard {
	case GuardJWT, GuardSanctum, GuardFirebase:
	default:
		return fmt.Errorf("POSTS_AUTH_GUARD must be one of jwt, sanctum, firebase (got %q)", c.PostsAuthGuard)
	}
	return nil
}

// FirebaseEnabled reports whether any Firebase credential source is configured.
func (c *Config) FirebaseEnabled() bool {
	return c.FirebaseCredentialsFile != "" ||
		(c.FirebaseProjectID != "" && c.FirebaseClientEmail != "" && c.FirebasePrivateKey != "")
}

// AvatarStorageEnabled reports whether the R2 bucket settings are complete.
func (c *Config) AvatarStorageEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicURL != ""
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
