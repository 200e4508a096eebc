package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	AMQP     AMQPConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Notify   NotifyConfig
	Channels ChannelsConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	PublicBaseURL         string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values and delivery log retention.
type RedisConfig struct {
	Addr                string
	Password            string
	DB                  int
	DeliveryLogTTLHours int
	DeliveryLogMax      int
}

// AMQPConfig controls event forwarding to RabbitMQ. Empty URL disables it.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Development bool
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	// GroupCodes maps secret referral codes to owning-group labels.
	GroupCodes map[string]string
}

// NotifyConfig tunes the dispatcher, bulk coordinator and scheduler.
type NotifyConfig struct {
	ChannelPriority        []string
	ProviderTimeoutSeconds int
	BulkDelayMillis        int
	DefaultCountryCode     string
	SchedulerTimezone      string
}

// ChannelsConfig holds per-channel credentials. A channel is configured
// only when all of its required values are present.
type ChannelsConfig struct {
	Twilio  TwilioConfig
	Email   EmailConfig
	Meta    MetaConfig
	Infobip InfobipConfig
	Browser BrowserConfig
}

// TwilioConfig holds SMS gateway credentials.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	BaseURL    string
}

// EmailConfig holds SMTP relay credentials.
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// MetaConfig holds WhatsApp Business Cloud API credentials.
type MetaConfig struct {
	AccessToken   string
	PhoneNumberID string
	APIVersion    string
	BaseURL       string
}

// InfobipConfig holds third-party WhatsApp provider credentials.
type InfobipConfig struct {
	APIKey  string
	BaseURL string
	Sender  string
}

// BrowserConfig controls the headless-browser WhatsApp session.
type BrowserConfig struct {
	Enabled             bool
	ExecPath            string
	SessionDir          string
	Headless            bool
	LoginTimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	groupCodes, err := parseGroupCodes(os.Getenv("AUTH_GROUP_CODES"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_GROUP_CODES: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "event-tickets"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "3001"),
			Version:               getEnv("APP_VERSION", "dev"),
			PublicBaseURL:         strings.TrimRight(getEnv("APP_PUBLIC_BASE_URL", "http://localhost:3001"), "/"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:                getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:            os.Getenv("REDIS_PASSWORD"),
			DB:                  redisDB,
			DeliveryLogTTLHours: getEnvAsInt("DELIVERY_LOG_TTL_HOURS", 72),
			DeliveryLogMax:      getEnvAsInt("DELIVERY_LOG_MAX_ENTRIES", 50),
		},
		AMQP: AMQPConfig{
			URL:      os.Getenv("AMQP_URL"),
			Exchange: getEnv("AMQP_EXCHANGE", "tickets.events"),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnv("APP_ENV", "development") == "development",
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 24*60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			GroupCodes:            groupCodes,
		},
		Notify: NotifyConfig{
			ChannelPriority:        getEnvAsList("NOTIFY_CHANNEL_PRIORITY", []string{"sms", "email", "whatsapp_business", "whatsapp_provider", "whatsapp_browser"}),
			ProviderTimeoutSeconds: getEnvAsInt("NOTIFY_PROVIDER_TIMEOUT_SECONDS", 15),
			BulkDelayMillis:        getEnvAsInt("NOTIFY_BULK_DELAY_MS", 1000),
			DefaultCountryCode:     getEnv("NOTIFY_DEFAULT_COUNTRY_CODE", "40"),
			SchedulerTimezone:      getEnv("SCHEDULER_TIMEZONE", "Europe/Bucharest"),
		},
		Channels: ChannelsConfig{
			Twilio: TwilioConfig{
				AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
				AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
				FromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
				BaseURL:    getEnv("TWILIO_BASE_URL", "https://api.twilio.com"),
			},
			Email: EmailConfig{
				Host:     getEnv("EMAIL_HOST", "smtp.gmail.com"),
				Port:     getEnvAsInt("EMAIL_PORT", 587),
				User:     os.Getenv("EMAIL_USER"),
				Password: os.Getenv("EMAIL_PASS"),
				From:     os.Getenv("EMAIL_FROM"),
			},
			Meta: MetaConfig{
				AccessToken:   os.Getenv("META_ACCESS_TOKEN"),
				PhoneNumberID: os.Getenv("META_PHONE_NUMBER_ID"),
				APIVersion:    getEnv("META_API_VERSION", "v18.0"),
				BaseURL:       getEnv("META_BASE_URL", "https://graph.facebook.com"),
			},
			Infobip: InfobipConfig{
				APIKey:  os.Getenv("INFOBIP_API_KEY"),
				BaseURL: os.Getenv("INFOBIP_BASE_URL"),
				Sender:  os.Getenv("INFOBIP_SENDER"),
			},
			Browser: BrowserConfig{
				Enabled:             getEnvAsBool("WHATSAPP_BROWSER_ENABLED", false),
				ExecPath:            os.Getenv("WHATSAPP_BROWSER_PATH"),
				SessionDir:          getEnv("WHATSAPP_SESSION_DIR", "whatsapp-session"),
				Headless:            getEnvAsBool("WHATSAPP_HEADLESS", true),
				LoginTimeoutSeconds: getEnvAsInt("WHATSAPP_LOGIN_TIMEOUT_SECONDS", 120),
			},
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// DeliveryLogTTL returns how long per-ticket delivery logs are retained.
func (r RedisConfig) DeliveryLogTTL() time.Duration {
	return time.Duration(r.DeliveryLogTTLHours) * time.Hour
}

// ProviderTimeout bounds each provider HTTP call.
func (n NotifyConfig) ProviderTimeout() time.Duration {
	if n.ProviderTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(n.ProviderTimeoutSeconds) * time.Second
}

// BulkDelay is the pause inserted between bulk sends.
func (n NotifyConfig) BulkDelay() time.Duration {
	if n.BulkDelayMillis < 0 {
		return 0
	}
	return time.Duration(n.BulkDelayMillis) * time.Millisecond
}

// Location resolves the scheduler timezone, falling back to UTC.
func (n NotifyConfig) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(n.SchedulerTimezone))
	if err != nil || n.SchedulerTimezone == "" {
		return time.UTC
	}
	return loc
}

// Configured reports whether SMS credentials are present.
func (t TwilioConfig) Configured() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != ""
}

// Configured reports whether SMTP credentials are present.
func (e EmailConfig) Configured() bool {
	return e.Host != "" && e.User != "" && e.Password != ""
}

// Sender returns the From address, defaulting to the SMTP user.
func (e EmailConfig) Sender() string {
	if e.From != "" {
		return e.From
	}
	return e.User
}

// Configured reports whether the business API token and number id are present.
func (m MetaConfig) Configured() bool {
	return m.AccessToken != "" && m.PhoneNumberID != ""
}

// Configured reports whether the provider key, endpoint and sender are present.
func (i InfobipConfig) Configured() bool {
	return i.APIKey != "" && i.BaseURL != "" && i.Sender != ""
}

// LoginTimeout bounds the wait for the browser session to authenticate.
func (b BrowserConfig) LoginTimeout() time.Duration {
	if b.LoginTimeoutSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(b.LoginTimeoutSeconds) * time.Second
}

func parseGroupCodes(raw string) (map[string]string, error) {
	codes := map[string]string{}
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, group, ok := strings.Cut(pair, "=")
		code, group = strings.TrimSpace(code), strings.TrimSpace(group)
		if !ok || code == "" || group == "" {
			return nil, fmt.Errorf("malformed entry %q", pair)
		}
		codes[code] = group
	}
	return codes, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
