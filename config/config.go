package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Email providers
const (
	ProviderResend = "resend"
	ProviderSMTP   = "smtp"
)

// resendKeyPrefix is the prefix every real Resend API key carries.
const resendKeyPrefix = "re_"

// placeholderAPIKeys are sentinel values shipped in example env files and
// deploy templates. A key equal to one of them is treated as missing.
var placeholderAPIKeys = map[string]bool{
	"re_placeholder":      true,
	"re_xxxxxxxxx":        true,
	"your_resend_api_key": true,
}

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	Contact       ContactConfig
	Email         EmailSettings
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig

	// env backs EmailSettings so provider credentials are picked up without a restart.
	env *viper.Viper
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	BaseURL        string
	AllowedOrigins []string
}

type ContactConfig struct {
	RateLimitRPS       float64
	RateLimitBurst     int
	MaxBodyBytes       int64
	SendTimeoutSeconds int
}

// EmailSettings describes the transactional email provider.
type EmailSettings struct {
	Provider string
	APIKey   string
	From     string
	To       string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string

	DKIMSelector   string
	DKIMDomain     string
	DKIMPrivateKey string
}

type LoggingConfig struct {
	Level      string
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type ObservabilityConfig struct {
	AlloyEndpoint     string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "8081")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("BASE_URL", "https://dubhe.obelisk.build")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "https://dubhe.obelisk.build,https://www.dubhe.obelisk.build")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "/app/logs")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 14)
	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "") // OTLP over HTTP, empty disables tracing
	v.SetDefault("O11Y_BE_SERVICE_NAME", "dubhe-website-api")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "dubhe-website")
	v.SetDefault("O11Y_BE_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "dubhe-website-api")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,alloc_objects,goroutines,mutex,block")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	// Contact endpoint defaults
	v.SetDefault("CONTACT_RATE_LIMIT_RPS", 0) // 0 disables the per-IP limiter
	v.SetDefault("CONTACT_RATE_LIMIT_BURST", 5)
	v.SetDefault("CONTACT_MAX_BODY_BYTES", 64*1024)
	v.SetDefault("CONTACT_SEND_TIMEOUT_SECONDS", 15)
	v.SetDefault("EMAIL_PROVIDER", ProviderResend)
	v.SetDefault("CONTACT_EMAIL_FROM", "Dubhe Website <noreply@obelisk.build>")
	v.SetDefault("CONTACT_EMAIL_TO", "contact@obelisk.build")
	v.SetDefault("SMTP_PORT", "587")

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			BaseURL:        v.GetString("BASE_URL"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_CORS_ORIGINS")),
		},
		Contact: ContactConfig{
			RateLimitRPS:       v.GetFloat64("CONTACT_RATE_LIMIT_RPS"),
			RateLimitBurst:     v.GetInt("CONTACT_RATE_LIMIT_BURST"),
			MaxBodyBytes:       v.GetInt64("CONTACT_MAX_BODY_BYTES"),
			SendTimeoutSeconds: v.GetInt("CONTACT_SEND_TIMEOUT_SECONDS"),
		},
		Logging: LoggingConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Dir:        v.GetString("LOG_DIR"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
		Observability: ObservabilityConfig{
			AlloyEndpoint:     v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_BE_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_BE_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
		env: v,
	}
	cfg.Email = readEmailSettings(v)

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EmailSettings returns the email provider settings as they are right now.
// Values are re-read from the environment on every call.
func (c *Config) EmailSettings() EmailSettings {
	if c.env == nil {
		return c.Email
	}
	return readEmailSettings(c.env)
}

func readEmailSettings(v *viper.Viper) EmailSettings {
	return EmailSettings{
		Provider:       strings.ToLower(strings.TrimSpace(v.GetString("EMAIL_PROVIDER"))),
		APIKey:         strings.TrimSpace(v.GetString("RESEND_API_KEY")),
		From:           strings.TrimSpace(v.GetString("CONTACT_EMAIL_FROM")),
		To:             strings.TrimSpace(v.GetString("CONTACT_EMAIL_TO")),
		SMTPHost:       strings.TrimSpace(v.GetString("SMTP_HOST")),
		SMTPPort:       strings.TrimSpace(v.GetString("SMTP_PORT")),
		SMTPUsername:   strings.TrimSpace(v.GetString("SMTP_USERNAME")),
		SMTPPassword:   v.GetString("SMTP_PASSWORD"),
		DKIMSelector:   strings.TrimSpace(v.GetString("SMTP_DKIM_SELECTOR")),
		DKIMDomain:     strings.TrimSpace(v.GetString("SMTP_DKIM_DOMAIN")),
		DKIMPrivateKey: v.GetString("SMTP_DKIM_PRIVATE_KEY"),
	}
}

// ProviderName returns the effective provider, defaulting to Resend.
func (s EmailSettings) ProviderName() string {
	if s.Provider == "" {
		return ProviderResend
	}
	return s.Provider
}

// IsConfigured reports whether mail can actually be sent with these settings.
// The same value is later used to build the sender.
func (s EmailSettings) IsConfigured() bool {
	if s.To == "" || s.From == "" {
		return false
	}

	switch s.ProviderName() {
	case ProviderResend:
		return s.HasValidAPIKey()
	case ProviderSMTP:
		return s.SMTPHost != "" && s.SMTPUsername != "" && s.SMTPPassword != ""
	default:
		return false
	}
}

// HasValidAPIKey checks the Resend key is present, not a placeholder and well-formed.
func (s EmailSettings) HasValidAPIKey() bool {
	key := strings.TrimSpace(s.APIKey)
	if key == "" || placeholderAPIKeys[strings.ToLower(key)] {
		return false
	}
	return strings.HasPrefix(key, resendKeyPrefix)
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	// Server configuration
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("BASE_URL is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}

	// Contact endpoint
	if c.Contact.RateLimitRPS < 0 || c.Contact.RateLimitBurst < 0 {
		return fmt.Errorf("CONTACT_RATE_LIMIT_RPS and CONTACT_RATE_LIMIT_BURST must not be negative")
	}
	if c.Contact.RateLimitRPS > 0 && c.Contact.RateLimitBurst == 0 {
		return fmt.Errorf("CONTACT_RATE_LIMIT_BURST must be positive when CONTACT_RATE_LIMIT_RPS is set")
	}
	if c.Contact.MaxBodyBytes <= 0 {
		return fmt.Errorf("CONTACT_MAX_BODY_BYTES must be positive")
	}

	switch c.Email.ProviderName() {
	case ProviderResend, ProviderSMTP:
	default:
		return fmt.Errorf("EMAIL_PROVIDER must be %q or %q, got %q", ProviderResend, ProviderSMTP, c.Email.Provider)
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}

func splitList(value string) []string {
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
