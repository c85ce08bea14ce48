// Package config builds the immutable process configuration from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "TEAMPULSE_"

// devSecret is only used when DEV_MODE is on and no secret is configured.
const devSecret = "teampulse-dev-secret-do-not-use-in-prod"

const minSecretLen = 32

type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Configured reports whether report exports can be uploaded.
func (c S3Config) Configured() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// BackupConfig controls database snapshots. Uploads use the S3 settings.
type BackupConfig struct {
	Passphrase string
	Interval   time.Duration
}

// PushConfig holds the VAPID key pair for web push. Both keys or neither.
type PushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
}

type Config struct {
	Port            string
	DBPath          string
	LogLevel        string
	LogFormat       string
	BaseURL         string
	DevMode         bool
	JWTSecret       []byte
	TokenTTL        time.Duration
	CookieSecure    bool
	DefaultWFHLimit int
	AdminUsernames  map[string]bool
	TrackerURL      string
	TrackerTimeout  time.Duration
	PostmarkToken   string
	FromEmail       string
	S3              S3Config
	Backup          BackupConfig
	Push            PushConfig
}

// IsAdminUsername reports whether the username is granted the admin role.
func (c *Config) IsAdminUsername(username string) bool {
	return c.AdminUsernames[strings.ToLower(username)]
}

// Load reads a .env file if present and builds the Config from the environment.
func Load(files ...string) (*Config, error) {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load(files...)
	return FromLookup(os.LookupEnv)
}

// FromLookup builds the Config from an arbitrary key lookup.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(envPrefix + key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	var errs []error

	cfg := &Config{
		Port:          get("PORT", "8080"),
		DBPath:        get("DB_PATH", "teampulse.db"),
		LogLevel:      get("LOG_LEVEL", "info"),
		LogFormat:     strings.ToLower(get("LOG_FORMAT", "text")),
		TrackerURL:    strings.TrimRight(get("TRACKER_URL", ""), "/"),
		PostmarkToken: get("POSTMARK_TOKEN", ""),
		FromEmail:     get("FROM_EMAIL", ""),
		S3: S3Config{
			Endpoint:  get("S3_ENDPOINT", ""),
			Bucket:    get("S3_BUCKET", ""),
			Region:    get("S3_REGION", "us-east-1"),
			AccessKey: get("S3_ACCESS_KEY", ""),
			SecretKey: get("S3_SECRET_KEY", ""),
		},
		Push: PushConfig{
			VAPIDPublicKey:  get("VAPID_PUBLIC_KEY", ""),
			VAPIDPrivateKey: get("VAPID_PRIVATE_KEY", ""),
			Subscriber:      get("VAPID_SUBSCRIBER", "mailto:noreply@teampulse.local"),
		},
		AdminUsernames: make(map[string]bool),
	}
	cfg.BaseURL = get("BASE_URL", "http://localhost:"+cfg.Port)

	var err error
	if cfg.DevMode, err = strconv.ParseBool(get("DEV_MODE", "false")); err != nil {
		errs = append(errs, fmt.Errorf("DEV_MODE: %w", err))
	}
	if cfg.CookieSecure, err = strconv.ParseBool(get("COOKIE_SECURE", strconv.FormatBool(!cfg.DevMode))); err != nil {
		errs = append(errs, fmt.Errorf("COOKIE_SECURE: %w", err))
	}
	if cfg.TokenTTL, err = time.ParseDuration(get("TOKEN_TTL", "168h")); err != nil {
		errs = append(errs, fmt.Errorf("TOKEN_TTL: %w", err))
	}
	if cfg.TrackerTimeout, err = time.ParseDuration(get("TRACKER_TIMEOUT", "10s")); err != nil {
		errs = append(errs, fmt.Errorf("TRACKER_TIMEOUT: %w", err))
	}
	cfg.Backup.Passphrase = get("BACKUP_PASSPHRASE", "")
	if cfg.Backup.Interval, err = time.ParseDuration(get("BACKUP_INTERVAL", "0s")); err != nil {
		errs = append(errs, fmt.Errorf("BACKUP_INTERVAL: %w", err))
	} else if cfg.Backup.Interval < 0 {
		errs = append(errs, errors.New("BACKUP_INTERVAL: must be >= 0"))
	}
	if cfg.DefaultWFHLimit, err = strconv.Atoi(get("DEFAULT_WFH_LIMIT", "3")); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_WFH_LIMIT: %w", err))
	} else if cfg.DefaultWFHLimit < 0 {
		errs = append(errs, errors.New("DEFAULT_WFH_LIMIT: must be >= 0"))
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT: %q is not text or json", cfg.LogFormat))
	}

	if (cfg.Push.VAPIDPublicKey == "") != (cfg.Push.VAPIDPrivateKey == "") {
		errs = append(errs, errors.New("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY must be set together"))
	}

	for _, name := range strings.Split(get("ADMIN_USERNAMES", ""), ",") {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			cfg.AdminUsernames[name] = true
		}
	}

	secret := get("JWT_SECRET", "")
	switch {
	case secret == "" && cfg.DevMode:
		secret = devSecret
	case secret == "":
		errs = append(errs, errors.New("JWT_SECRET: required"))
	case len(secret) < minSecretLen && !cfg.DevMode:
		errs = append(errs, fmt.Errorf("JWT_SECRET: must be at least %d bytes", minSecretLen))
	}
	cfg.JWTSecret = []byte(secret)

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
