package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"

	"github.com/cardpoint/onboarding-service/internal/utils"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// OTP providers.
const (
	OTPProviderDemo  = "demo"
	OTPProviderEmail = "email"
)

// Config holds all application configuration, including secrets, flags, etc.
type Config struct {
	OrganizationName string
	AppName          string
	Env              string
	AppPort          string
	AppUrl           string

	StoreBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DBUrl         string

	SessionTTL        time.Duration
	StatusGracePeriod time.Duration
	OTPProvider       string
	OTPNotifyDelay    time.Duration
	OTPCodeExpiry     time.Duration
	SessionSigningKey []byte
	CleanupSchedule   string

	SendGridAPIKey   string
	TwilioAccountSID string
	TwilioAuthToken  string

	// Static flags fetched once from LaunchDarkly
	LDFlag_SendgridFromEmail         string
	LDFlag_SendgridSandboxMode       bool
	LDFlag_TwilioFromPhone           string
	LDFlag_AcceptFakePhonesEmails    bool
	LDFlag_ValidatePhoneWithTwilio   bool
	LDFlag_ValidateEmailWithSendGrid bool
	LDFlag_SendReferenceSMS          bool
	LDFlag_CORSHighSecurity          bool
}

// Constants for configuration defaults.
const (
	OrganizationName    = utils.OrganizationName
	LDConnectionTimeout = 5 * time.Second
	MinSigningKeyLength = 32
)

// Global compile-time overrides, defaults for local runs.
var (
	AppName             = "onboarding-service"
	LDServerContextKey  = "onboarding-service"
	LDServerContextKind = "service"
)

// envConfig is the raw environment.
type envConfig struct {
	Env               string        `env:"ENV" envDefault:"dev"`
	AppPort           string        `env:"APP_PORT" envDefault:"8080"`
	AppUrl            string        `env:"APP_URL_FROM_ANYWHERE" envDefault:"http://localhost:8080"`
	StoreBackend      string        `env:"STORE_BACKEND" envDefault:"memory"`
	RedisAddr         string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisDB           int           `env:"REDIS_DB" envDefault:"0"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	StatusGracePeriod time.Duration `env:"STATUS_GRACE_PERIOD" envDefault:"5s"`
	OTPProvider       string        `env:"OTP_PROVIDER" envDefault:"demo"`
	OTPNotifyDelay    time.Duration `env:"OTP_NOTIFY_DELAY" envDefault:"1s"`
	OTPCodeExpiry     time.Duration `env:"OTP_CODE_EXPIRY" envDefault:"5m"`
	SessionSigningKey string        `env:"SESSION_SIGNING_KEY"`
	CleanupSchedule   string        `env:"CLEANUP_SCHEDULE" envDefault:"0 3 * * *"`
	SendGridAPIKey    string        `env:"SENDGRID_API_KEY"`
	TwilioAccountSID  string        `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string        `env:"TWILIO_AUTH_TOKEN"`
	LDSDKKey          string        `env:"LD_SDK_KEY"`
	BWSAccessToken    string        `env:"BWS_ACCESS_TOKEN"`
	BWSOrganizationID string        `env:"BWS_ORGANIZATION_ID"`

	// Flag fallbacks used when LaunchDarkly is not configured.
	SendgridFromEmail         string `env:"SENDGRID_FROM_EMAIL" envDefault:"no-reply@cardpoint.example"`
	SendgridSandboxMode       bool   `env:"SENDGRID_SANDBOX_MODE" envDefault:"true"`
	TwilioFromPhone           string `env:"TWILIO_FROM_PHONE"`
	AcceptFakePhonesEmails    bool   `env:"ACCEPT_FAKE_PHONES_AND_EMAILS" envDefault:"false"`
	ValidatePhoneWithTwilio   bool   `env:"VALIDATE_PHONE_WITH_TWILIO" envDefault:"false"`
	ValidateEmailWithSendGrid bool   `env:"VALIDATE_EMAIL_WITH_SENDGRID" envDefault:"false"`
	SendReferenceSMS          bool   `env:"SEND_REFERENCE_SMS" envDefault:"false"`
	CORSHighSecurity          bool   `env:"CORS_HIGH_SECURITY" envDefault:"false"`
}

// LoadConfig reads the environment, overlays Bitwarden secrets and
// LaunchDarkly flags when configured, and returns a *Config. Any invalid
// value ends the process.
func LoadConfig() *Config {
	if AppName == "" {
		utils.Logger.Fatal("AppName was not overridden with ldflags at build time (or is empty)")
	}
	utils.Logger.Info("Loading config for app: ", AppName)

	raw, err := parseEnv()
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse environment")
	}

	//----------------------------------------------------------------------
	// Fetch app-specific secrets from Bitwarden (appName-env).
	//----------------------------------------------------------------------
	if raw.BWSAccessToken != "" {
		if err := overlayBWSSecrets(raw); err != nil {
			utils.Logger.WithError(err).Fatal("Failed to fetch secrets from Bitwarden")
		}
	} else {
		utils.Logger.Debug("BWS_ACCESS_TOKEN not set; using secrets from the environment")
	}

	cfg, err := build(raw)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Invalid configuration")
	}

	//----------------------------------------------------------------------
	// Fetch the static flags from LaunchDarkly.
	//----------------------------------------------------------------------
	if raw.LDSDKKey != "" {
		if err := loadLDFlags(raw.LDSDKKey, cfg); err != nil {
			utils.Logger.WithError(err).Fatal("Failed to load LaunchDarkly flags")
		}
	} else {
		utils.Logger.Info("LD_SDK_KEY not set; using flag defaults from the environment")
	}

	if cfg.OTPProvider == OTPProviderEmail && cfg.SendGridAPIKey == "" {
		utils.Logger.Fatal("SENDGRID_API_KEY is required when OTP_PROVIDER=email")
	}
	if cfg.LDFlag_SendReferenceSMS && (cfg.TwilioAccountSID == "" || cfg.LDFlag_TwilioFromPhone == "") {
		utils.Logger.Fatal("send_reference_sms requires TWILIO_ACCOUNT_SID and twilio_from_phone")
	}

	utils.Logger.Debugf("App can be accessed at: %s", cfg.AppUrl)
	return cfg
}

// loadFromEnv builds a Config from the environment alone.
func loadFromEnv() (*Config, error) {
	raw, err := parseEnv()
	if err != nil {
		return nil, err
	}
	return build(raw)
}

func parseEnv() (*envConfig, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &raw, nil
}

func build(raw *envConfig) (*Config, error) {
	backend := strings.ToLower(strings.TrimSpace(raw.StoreBackend))
	switch backend {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if raw.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", raw.StoreBackend)
	}

	provider := strings.ToLower(strings.TrimSpace(raw.OTPProvider))
	if provider != OTPProviderDemo && provider != OTPProviderEmail {
		return nil, fmt.Errorf("unknown OTP_PROVIDER %q", raw.OTPProvider)
	}

	if raw.SessionTTL <= 0 {
		return nil, errors.New("SESSION_TTL must be positive")
	}
	if raw.StatusGracePeriod <= 0 {
		return nil, errors.New("STATUS_GRACE_PERIOD must be positive")
	}
	if raw.OTPCodeExpiry <= 0 {
		return nil, errors.New("OTP_CODE_EXPIRY must be positive")
	}
	if raw.OTPNotifyDelay < 0 {
		return nil, errors.New("OTP_NOTIFY_DELAY must not be negative")
	}

	key := []byte(raw.SessionSigningKey)
	switch {
	case len(key) >= MinSigningKeyLength:
	case len(key) == 0 && raw.Env != "prod":
		key = []byte(utils.RandomString(MinSigningKeyLength))
		utils.Logger.Warn("SESSION_SIGNING_KEY not set; using a random key, sessions will not survive a restart")
	default:
		return nil, fmt.Errorf("SESSION_SIGNING_KEY must be at least %d bytes", MinSigningKeyLength)
	}

	return &Config{
		OrganizationName:  OrganizationName,
		AppName:           AppName,
		Env:               raw.Env,
		AppPort:           raw.AppPort,
		AppUrl:            raw.AppUrl,
		StoreBackend:      backend,
		RedisAddr:         raw.RedisAddr,
		RedisPassword:     raw.RedisPassword,
		RedisDB:           raw.RedisDB,
		DBUrl:             raw.DatabaseURL,
		SessionTTL:        raw.SessionTTL,
		StatusGracePeriod: raw.StatusGracePeriod,
		OTPProvider:       provider,
		OTPNotifyDelay:    raw.OTPNotifyDelay,
		OTPCodeExpiry:     raw.OTPCodeExpiry,
		SessionSigningKey: key,
		CleanupSchedule:   raw.CleanupSchedule,
		SendGridAPIKey:    raw.SendGridAPIKey,
		TwilioAccountSID:  raw.TwilioAccountSID,
		TwilioAuthToken:   raw.TwilioAuthToken,

		LDFlag_SendgridFromEmail:         raw.SendgridFromEmail,
		LDFlag_SendgridSandboxMode:       raw.SendgridSandboxMode,
		LDFlag_TwilioFromPhone:           raw.TwilioFromPhone,
		LDFlag_AcceptFakePhonesEmails:    raw.AcceptFakePhonesEmails,
		LDFlag_ValidatePhoneWithTwilio:   raw.ValidatePhoneWithTwilio,
		LDFlag_ValidateEmailWithSendGrid: raw.ValidateEmailWithSendGrid,
		LDFlag_SendReferenceSMS:          raw.SendReferenceSMS,
		LDFlag_CORSHighSecurity:          raw.CORSHighSecurity,
	}, nil
}

// overlayBWSSecrets fills empty secret fields from the Bitwarden project
// "<AppName>-<ENV>". Values already present in the environment win.
func overlayBWSSecrets(raw *envConfig) error {
	project := fmt.Sprintf("%s-%s", AppName, raw.Env)
	utils.Logger.Debugf("Fetching app-specific secrets from Bitwarden for %s", project)
	secrets, err := utils.FetchProjectSecrets(raw.BWSAccessToken, raw.BWSOrganizationID, project)
	if err != nil {
		return err
	}

	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = secrets[key]
		}
	}
	fill(&raw.DatabaseURL, "DATABASE_URL")
	fill(&raw.RedisPassword, "REDIS_PASSWORD")
	fill(&raw.SessionSigningKey, "SESSION_SIGNING_KEY")
	fill(&raw.SendGridAPIKey, "SENDGRID_API_KEY")
	fill(&raw.TwilioAccountSID, "TWILIO_ACCOUNT_SID")
	fill(&raw.TwilioAuthToken, "TWILIO_AUTH_TOKEN")
	fill(&raw.LDSDKKey, "LD_SDK_KEY")
	return nil
}

// loadLDFlags snapshots the static flags once at startup.
func loadLDFlags(sdkKey string, cfg *Config) error {
	ldClient, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
	if err != nil {
		return fmt.Errorf("create LaunchDarkly client: %w", err)
	}
	defer ldClient.Close()
	if !ldClient.Initialized() {
		return errors.New("LaunchDarkly client failed to initialize")
	}

	context := ldcontext.NewWithKind(ldcontext.Kind(LDServerContextKind), LDServerContextKey)

	strFlag := func(name string, dst *string) error {
		v, err := ldClient.StringVariation(name, context, *dst)
		if err != nil {
			return fmt.Errorf("retrieving %s flag: %w", name, err)
		}
		*dst = v
		utils.Logger.Debugf("%s flag: %s", name, v)
		return nil
	}
	boolFlag := func(name string, dst *bool) error {
		v, err := ldClient.BoolVariation(name, context, *dst)
		if err != nil {
			return fmt.Errorf("retrieving %s flag: %w", name, err)
		}
		*dst = v
		utils.Logger.Debugf("%s flag: %t", name, v)
		return nil
	}

	for _, f := range []func() error{
		func() error { return strFlag("sendgrid_from_email", &cfg.LDFlag_SendgridFromEmail) },
		func() error { return boolFlag("sendgrid_sandbox_mode", &cfg.LDFlag_SendgridSandboxMode) },
		func() error { return strFlag("twilio_from_phone", &cfg.LDFlag_TwilioFromPhone) },
		func() error { return boolFlag("accept_fake_phones_and_emails", &cfg.LDFlag_AcceptFakePhonesEmails) },
		func() error { return boolFlag("validate_phone_with_twilio", &cfg.LDFlag_ValidatePhoneWithTwilio) },
		func() error { return boolFlag("validate_email_with_sendgrid", &cfg.LDFlag_ValidateEmailWithSendGrid) },
		func() error { return boolFlag("send_reference_sms", &cfg.LDFlag_SendReferenceSMS) },
		func() error { return boolFlag("cors_high_security", &cfg.LDFlag_CORSHighSecurity) },
	} {
		if err := f(); err != nil {
			return err
		}
	}
	if cfg.LDFlag_SendgridFromEmail == "" {
		return errors.New("sendgrid_from_email flag is empty")
	}
	return nil
}
