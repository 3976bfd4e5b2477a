package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Persistence and media backends.
const (
	StoreMemory    = "memory"
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"

	BlobLocal    = "local"
	BlobFirebase = "firebase"
)

// Config holds the board configuration loaded from the environment.
type Config struct {
	Env      string `env:"BOARD_ENV" envDefault:"development"`
	Port     int    `env:"BOARD_PORT" envDefault:"9091"`
	LogLevel string `env:"BOARD_LOG_LEVEL" envDefault:"info"`
	// PublicBaseURL is the site origin same-origin media paths resolve
	// against, e.g. https://board.example.org.
	PublicBaseURL string `env:"BOARD_PUBLIC_BASE_URL"`

	StoreBackend string `env:"BOARD_STORE" envDefault:"memory"`
	BlobBackend  string `env:"BOARD_BLOBS" envDefault:"local"`

	// Firebase
	FirebaseProjectID          string `env:"FIREBASE_PROJECT_ID"`
	FirebaseServiceAccountPath string `env:"FIREBASE_SERVICE_ACCOUNT_PATH"`
	FirebaseStorageBucket      string `env:"FIREBASE_STORAGE_BUCKET"`

	// PostgreSQL
	DatabaseURL string `env:"DATABASE_URL"`

	// Redis is optional; when RedisHost is empty no cache is used.
	RedisHost     string `env:"REDIS_HOST"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Moderation
	AdminEmails []string `env:"BOARD_ADMIN_EMAILS" envSeparator:","`

	// RecaptchaSecret enables server-side verification of page submissions.
	RecaptchaSecret string `env:"RECAPTCHA_SECRET"`

	// Media
	MaxUploadBytes int64  `env:"BOARD_MAX_UPLOAD_BYTES" envDefault:"10485760"`
	MediaDir       string `env:"BOARD_MEDIA_DIR" envDefault:"./internal/media_files"`
	MediaBaseURL   string `env:"BOARD_MEDIA_BASE_URL" envDefault:"/media"`
	// CompatSources are URL prefixes the display converter may fetch from.
	CompatSources []string `env:"BOARD_COMPAT_SOURCES" envSeparator:"," envDefault:"https://firebasestorage.googleapis.com/"`

	// Public submission rate limiting per client IP
	SubmitRatePerMinute int `env:"BOARD_SUBMIT_RATE_PER_MINUTE" envDefault:"6"`
	SubmitBurst         int `env:"BOARD_SUBMIT_BURST" envDefault:"3"`

	// Admin notifications
	AdminTopic     string `env:"BOARD_ADMIN_TOPIC" envDefault:"board-admins"`
	DigestCronSpec string `env:"BOARD_DIGEST_CRON" envDefault:"0 18 * * *"`
	NotifyOnSubmit bool   `env:"BOARD_NOTIFY_ON_SUBMIT" envDefault:"true"`
}

// Load reads an optional .env file and parses the environment.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()
	return Parse()
}

// Parse parses the current environment without touching .env files.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.AdminEmails = normalizeEmails(cfg.AdminEmails)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks backend selection and the settings each backend needs.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	case StoreFirestore:
		if c.FirebaseProjectID == "" {
			errs = append(errs, errors.New("FIREBASE_PROJECT_ID is required for the firestore store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown BOARD_STORE %q", c.StoreBackend))
	}

	switch c.BlobBackend {
	case BlobLocal:
		if c.MediaDir == "" {
			errs = append(errs, errors.New("BOARD_MEDIA_DIR is required for local media"))
		}
	case BlobFirebase:
		if c.FirebaseStorageBucket == "" {
			errs = append(errs, errors.New("FIREBASE_STORAGE_BUCKET is required for firebase media"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown BOARD_BLOBS %q", c.BlobBackend))
	}

	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("BOARD_MAX_UPLOAD_BYTES must be positive"))
	}
	if c.PublicBaseURL != "" {
		if u, err := url.Parse(c.PublicBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("BOARD_PUBLIC_BASE_URL %q must be an absolute http(s) URL", c.PublicBaseURL))
		}
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("BOARD_PORT %d out of range", c.Port))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the board runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// UsesFirebase reports whether any component needs the Firebase app.
func (c *Config) UsesFirebase() bool {
	return c.StoreBackend == StoreFirestore || c.BlobBackend == BlobFirebase || c.FirebaseProjectID != ""
}

// UseRedis reports whether a Redis cache is configured.
func (c *Config) UseRedis() bool {
	return c.RedisHost != ""
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func normalizeEmails(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}
