package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultSessionSecret = "dev_session_secret_change_me"
)

type Config struct {
	Env  string
	Port int

	Database  DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	CORS      CORSConfig
	Log       LogConfig
	RateLimit RateLimitConfig
	Reports   ReportsConfig
	Passes    PassesConfig
	Invites   InvitesConfig
	Mail      MailConfig
	Bootstrap BootstrapConfig
	Docs      DocsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig drives the signed user and kiosk cookies.
type SessionConfig struct {
	Secret          string
	CookieName      string
	KioskCookieName string
	MaxAge          time.Duration
	Domain          string
	Secure          bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RateLimitConfig sets fixed-window budgets per (ip, path).
type RateLimitConfig struct {
	Window        time.Duration
	LoginMax      int
	KioskLoginMax int
	KioskPassMax  int
}

// ReportsConfig tunes summary caching and hour bucketing.
type ReportsConfig struct {
	CacheTTL time.Duration
	Timezone string
}

// PassesConfig controls the optional expiry sweep. ExpireAfter of zero disables it.
type PassesConfig struct {
	ExpireAfter   time.Duration
	SweepInterval time.Duration
}

type InvitesConfig struct {
	TTL     time.Duration
	BaseURL string
}

// MailConfig selects the invite delivery provider.
type MailConfig struct {
	Provider       string
	SendGridAPIKey string
	From           string
	FromName       string
}

// BootstrapConfig guards the one-time superadmin bootstrap endpoint.
type BootstrapConfig struct {
	Secret string
}

type DocsConfig struct {
	Enabled bool
}

// IsProduction reports whether the process runs with production hardening.
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == EnvProduction
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Session = SessionConfig{
		Secret:          v.GetString("SESSION_SECRET"),
		CookieName:      v.GetString("SESSION_COOKIE_NAME"),
		KioskCookieName: v.GetString("KIOSK_COOKIE_NAME"),
		MaxAge:          parseDuration(v.GetString("SESSION_MAX_AGE"), 8*time.Hour),
		Domain:          v.GetString("SESSION_COOKIE_DOMAIN"),
		Secure:          cfg.Env == EnvProduction,
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.RateLimit = RateLimitConfig{
		Window:        parseDuration(v.GetString("RATE_LIMIT_WINDOW"), time.Minute),
		LoginMax:      v.GetInt("RATE_LIMIT_LOGIN_MAX"),
		KioskLoginMax: v.GetInt("RATE_LIMIT_KIOSK_LOGIN_MAX"),
		KioskPassMax:  v.GetInt("RATE_LIMIT_KIOSK_PASS_MAX"),
	}

	cfg.Reports = ReportsConfig{
		CacheTTL: parseDuration(v.GetString("REPORTS_CACHE_TTL"), time.Minute),
		Timezone: v.GetString("REPORTS_TIMEZONE"),
	}

	cfg.Passes = PassesConfig{
		ExpireAfter:   parseDuration(v.GetString("PASS_EXPIRE_AFTER"), 0),
		SweepInterval: parseDuration(v.GetString("PASS_SWEEP_INTERVAL"), 5*time.Minute),
	}

	cfg.Invites = InvitesConfig{
		TTL:     parseDuration(v.GetString("INVITE_TTL"), 24*time.Hour),
		BaseURL: strings.TrimRight(v.GetString("INVITE_BASE_URL"), "/"),
	}

	cfg.Mail = MailConfig{
		Provider:       strings.ToLower(v.GetString("MAIL_PROVIDER")),
		SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		From:           v.GetString("MAIL_FROM"),
		FromName:       v.GetString("MAIL_FROM_NAME"),
	}

	cfg.Bootstrap = BootstrapConfig{Secret: v.GetString("SA_BOOTSTRAP_SECRET")}

	docsEnabled := cfg.Env != EnvProduction
	if v.IsSet("ENABLE_DOCS") {
		docsEnabled = v.GetBool("ENABLE_DOCS")
	}
	cfg.Docs = DocsConfig{Enabled: docsEnabled}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Session.Secret == "" {
		return errors.New("SESSION_SECRET must be set")
	}
	if c.Env == EnvProduction && c.Session.Secret == defaultSessionSecret {
		return errors.New("SESSION_SECRET must be changed in production")
	}
	if c.Mail.Provider == "sendgrid" && c.Mail.SendGridAPIKey == "" {
		return errors.New("SENDGRID_API_KEY is required when MAIL_PROVIDER=sendgrid")
	}
	if c.Reports.Timezone != "" {
		if _, err := time.LoadLocation(c.Reports.Timezone); err != nil {
			return errors.New("REPORTS_TIMEZONE is not a valid IANA zone")
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "passpilot")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_SECRET", defaultSessionSecret)
	v.SetDefault("SESSION_COOKIE_NAME", "pp_sess")
	v.SetDefault("KIOSK_COOKIE_NAME", "pp_kiosk")
	v.SetDefault("SESSION_MAX_AGE", "8h")
	v.SetDefault("SESSION_COOKIE_DOMAIN", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("RATE_LIMIT_LOGIN_MAX", 20)
	v.SetDefault("RATE_LIMIT_KIOSK_LOGIN_MAX", 30)
	v.SetDefault("RATE_LIMIT_KIOSK_PASS_MAX", 60)

	v.SetDefault("REPORTS_CACHE_TTL", "60s")
	v.SetDefault("REPORTS_TIMEZONE", "UTC")

	v.SetDefault("PASS_EXPIRE_AFTER", "0")
	v.SetDefault("PASS_SWEEP_INTERVAL", "5m")

	v.SetDefault("INVITE_TTL", "24h")
	v.SetDefault("INVITE_BASE_URL", "http://localhost:5173")

	v.SetDefault("MAIL_PROVIDER", "console")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM", "no-reply@passpilot.local")
	v.SetDefault("MAIL_FROM_NAME", "PassPilot")

	v.SetDefault("SA_BOOTSTRAP_SECRET", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
