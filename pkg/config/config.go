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
)

// Credential store backends.
const (
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Device code completion modes.
const (
	CompleteModeSingle = "single"
	CompleteModePoll   = "poll"
)

type Config struct {
	Env  string
	Port int

	OAuth          OAuthConfig
	Graph          GraphConfig
	Credentials    CredentialConfig
	DeviceSessions DeviceSessionConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	CORS           CORSConfig
	Log            LogConfig
	Metrics        MetricsConfig
}

// OAuthConfig describes the public client used for the device authorization grant.
type OAuthConfig struct {
	ClientID          string
	Authority         string
	Scopes            []string
	CompleteMode      string
	PollTimeout       time.Duration
	PollInterval      time.Duration
	HTTPClientTimeout time.Duration
}

// DeviceAuthURL is the device authorization endpoint under the authority.
func (c OAuthConfig) DeviceAuthURL() string {
	return strings.TrimRight(c.Authority, "/") + "/oauth2/v2.0/devicecode"
}

// TokenURL is the token endpoint under the authority.
func (c OAuthConfig) TokenURL() string {
	return strings.TrimRight(c.Authority, "/") + "/oauth2/v2.0/token"
}

// GraphConfig points at the calendar provider REST API.
type GraphConfig struct {
	BaseURL string
}

// CredentialConfig selects where the token record is persisted.
type CredentialConfig struct {
	Store      string
	FilePath   string
	RedisKey   string
	SQLitePath string
	// Bootstrap values used only when the store holds nothing.
	SeedAccessToken string
	SeedExpires     string
}

// DeviceSessionConfig toggles local tracking of issued device codes.
type DeviceSessionConfig struct {
	Enabled bool
	Store   string
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
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.OAuth = OAuthConfig{
		ClientID:          v.GetString("OUTLOOK_CLIENT_ID"),
		Authority:         v.GetString("OAUTH_AUTHORITY"),
		Scopes:            splitAndTrim(v.GetString("OAUTH_SCOPES")),
		CompleteMode:      strings.ToLower(v.GetString("OAUTH_COMPLETE_MODE")),
		PollTimeout:       parseDuration(v.GetString("OAUTH_POLL_TIMEOUT"), 2*time.Minute),
		PollInterval:      parseDuration(v.GetString("OAUTH_POLL_INTERVAL"), 5*time.Second),
		HTTPClientTimeout: parseDuration(v.GetString("HTTP_CLIENT_TIMEOUT"), 15*time.Second),
	}
	if cfg.OAuth.CompleteMode != CompleteModePoll {
		cfg.OAuth.CompleteMode = CompleteModeSingle
	}

	cfg.Graph = GraphConfig{BaseURL: strings.TrimRight(v.GetString("GRAPH_BASE_URL"), "/")}

	cfg.Credentials = CredentialConfig{
		Store:           strings.ToLower(v.GetString("CREDENTIAL_STORE")),
		FilePath:        v.GetString("TOKEN_CACHE_PATH"),
		RedisKey:        v.GetString("REDIS_TOKEN_KEY"),
		SQLitePath:      v.GetString("SQLITE_PATH"),
		SeedAccessToken: v.GetString("ACCESS_TOKEN"),
		SeedExpires:     v.GetString("TOKEN_EXPIRES"),
	}

	cfg.DeviceSessions = DeviceSessionConfig{
		Enabled: v.GetBool("DEVICE_SESSION_TRACKING"),
		Store:   strings.ToLower(v.GetString("DEVICE_SESSION_STORE")),
	}

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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8000)

	v.SetDefault("OUTLOOK_CLIENT_ID", "")
	v.SetDefault("OAUTH_AUTHORITY", "https://login.microsoftonline.com/consumers")
	v.SetDefault("OAUTH_SCOPES", "Calendars.Read")
	v.SetDefault("OAUTH_COMPLETE_MODE", CompleteModeSingle)
	v.SetDefault("OAUTH_POLL_TIMEOUT", "2m")
	v.SetDefault("OAUTH_POLL_INTERVAL", "5s")
	v.SetDefault("HTTP_CLIENT_TIMEOUT", "15s")
	v.SetDefault("GRAPH_BASE_URL", "https://graph.microsoft.com/v1.0")

	v.SetDefault("CREDENTIAL_STORE", StoreFile)
	v.SetDefault("TOKEN_CACHE_PATH", "token_cache.json")
	v.SetDefault("REDIS_TOKEN_KEY", "calendar:token")
	v.SetDefault("SQLITE_PATH", "credentials.db")
	v.SetDefault("ACCESS_TOKEN", "")
	v.SetDefault("TOKEN_EXPIRES", "")

	v.SetDefault("DEVICE_SESSION_TRACKING", false)
	v.SetDefault("DEVICE_SESSION_STORE", "memory")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "calendar_auth")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 4)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ENABLE_METRICS", true)
}

// viper reports a missing explicit config file as a plain fs error rather than
// ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
