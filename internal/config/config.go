package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Delivery driver identifiers accepted in DELIVERY_DRIVER.
const (
	DriverConsole        = "console"
	DriverTwilio         = "twilio"
	DriverAfricasTalking = "africastalking"
	DriverSendGrid       = "sendgrid"
)

const (
	defaultAppName       = "Gramline"
	defaultAppEnv        = "development"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second
	defaultDriver        = DriverConsole
	defaultCodeRateLimit = 5

	codeTTLEnvVar          = "CODE_TTL"
	codeTTLSecondsEnvVar   = "CODE_TTL_SECONDS"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration

	// DeliveryDriver selects the one-time-code channel: console, twilio,
	// africastalking or sendgrid.
	DeliveryDriver string

	// CodeTTL bounds the lifetime of a pending one-time code. Zero means
	// codes never expire, which matches the historical behavior.
	CodeTTL time.Duration

	// CodeRateLimit is the per-principal cap on code requests per minute.
	CodeRateLimit int

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromPhone  string

	AfricasTalkingUsername string
	AfricasTalkingAPIKey   string
	AfricasTalkingSender   string

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		DeliveryDriver: strings.ToLower(getEnv("DELIVERY_DRIVER", defaultDriver)),
		CodeRateLimit:  defaultCodeRateLimit,

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromPhone:  os.Getenv("TWILIO_FROM_PHONE"),

		AfricasTalkingUsername: os.Getenv("AT_USERNAME"),
		AfricasTalkingAPIKey:   os.Getenv("AT_API_KEY"),
		AfricasTalkingSender:   os.Getenv("AT_SENDER_ID"),

		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		SendGridFromEmail: os.Getenv("SENDGRID_FROM_EMAIL"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", defaultAppName),
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv(codeTTLSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", codeTTLSecondsEnvVar, err)
		}
		cfg.CodeTTL = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(codeTTLEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", codeTTLEnvVar, err)
		}
		cfg.CodeTTL = d
	}

	if v := os.Getenv("CODE_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CODE_RATE_LIMIT: %w", err)
		}
		cfg.CodeRateLimit = n
	}

	if cfg.DatabaseURL == "" && !cfg.IsDev() {
		return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
	}

	if err := cfg.validateDriver(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// validateDriver enforces that credentials for the selected delivery driver
// are present at startup. A missing credential is fatal, not deferred to the
// first send.
func (c Config) validateDriver() error {
	switch c.DeliveryDriver {
	case DriverConsole:
		return nil
	case DriverTwilio:
		if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" || c.TwilioFromPhone == "" {
			return fmt.Errorf("delivery driver %q requires TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_PHONE", c.DeliveryDriver)
		}
	case DriverAfricasTalking:
		if c.AfricasTalkingUsername == "" || c.AfricasTalkingAPIKey == "" {
			return fmt.Errorf("delivery driver %q requires AT_USERNAME and AT_API_KEY", c.DeliveryDriver)
		}
	case DriverSendGrid:
		if c.SendGridAPIKey == "" || c.SendGridFromEmail == "" {
			return fmt.Errorf("delivery driver %q requires SENDGRID_API_KEY and SENDGRID_FROM_EMAIL", c.DeliveryDriver)
		}
	default:
		return fmt.Errorf("unknown delivery driver %q", c.DeliveryDriver)
	}
	return nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a development-like environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
