package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/aussiebroadwan/cookieauth/internal/session/domain"
	httpapi "github.com/aussiebroadwan/cookieauth/internal/session/http"
	"github.com/aussiebroadwan/cookieauth/pkg/cryptox"
	"github.com/aussiebroadwan/cookieauth/pkg/httpx"
	"github.com/aussiebroadwan/cookieauth/pkg/jwtx"
)

// EnvPrefix namespaces environment overrides: cookie.max_age is read from
// SESSION_COOKIE_MAX_AGE.
const EnvPrefix = "SESSION"

// ErrMissingSecret is returned when neither token.secret nor token.secret_file
// is configured. The service refuses to start without a signing key.
var ErrMissingSecret = errors.New("token signing secret is not configured (set SESSION_TOKEN_SECRET or SESSION_TOKEN_SECRET_FILE)")

type Config struct {
	Env      string         `mapstructure:"env" validate:"oneof=dev test staging prod"`
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Cookie   CookieConfig   `mapstructure:"cookie"`
	Token    TokenConfig    `mapstructure:"token"`
	Identity IdentityConfig `mapstructure:"identity"`
	Database DatabaseConfig `mapstructure:"database"`
	Pepper   PepperConfig   `mapstructure:"pepper"`
	Policy   PolicyConfig   `mapstructure:"policy"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// ServerConfig.TrustProxy keys rate limits on X-Forwarded-For. Only enable it
// behind a proxy that overwrites the header.
type ServerConfig struct {
	Port                int           `mapstructure:"port" validate:"min=1,max=65535"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period" validate:"gt=0"`
	TrustProxy          bool          `mapstructure:"trust_proxy"`
}

type CookieConfig struct {
	Name     string `mapstructure:"name" validate:"required"`
	MaxAge   int    `mapstructure:"max_age" validate:"gt=0"` // seconds
	Secure   bool   `mapstructure:"secure"`
	HTTPOnly bool   `mapstructure:"http_only"`
	SameSite string `mapstructure:"same_site"`
}

type TokenConfig struct {
	Secret     string        `mapstructure:"secret"`      // raw or "base64:..."
	SecretFile string        `mapstructure:"secret_file"` // used when Secret is empty
	TTL        time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

type IdentityConfig struct {
	LookupTimeout time.Duration `mapstructure:"lookup_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	File string `mapstructure:"file" validate:"required"`
}

type PepperConfig struct {
	File string `mapstructure:"file" validate:"required"`
}

type PolicyConfig struct {
	// Default applies to paths no route matches.
	Default     string        `mapstructure:"default" validate:"omitempty,oneof=authenticated public permit_all role has_authority"`
	DefaultRole string        `mapstructure:"default_role"`
	Routes      []RouteConfig `mapstructure:"routes" validate:"omitempty,dive"`
}

type RouteConfig struct {
	Pattern     string `mapstructure:"pattern" validate:"required,startswith=/"`
	Method      string `mapstructure:"method"`
	Requirement string `mapstructure:"requirement" validate:"required,oneof=authenticated public permit_all role has_authority"`
	Role        string `mapstructure:"role"`
}

// NewViper returns a viper instance with defaults, env overrides and, when
// configFile is set or session.yaml exists in a standard location, the
// config file.
func NewViper(configFile string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else if found := findConfigFile([]string{".", "/etc/cookieauth"}); found != "" {
		v.SetConfigFile(found)
	} else {
		v.SetConfigName("session")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Keys without defaults must be bound for Unmarshal to see env values.
	_ = v.BindEnv("token.secret")
	_ = v.BindEnv("token.secret_file")
	_ = v.BindEnv("policy.default_role")

	return v
}

func setDefaults(v *viper.Viper) {
	cookie := httpx.DefaultCookieConfig()

	v.SetDefault("env", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_grace_period", 10*time.Second)
	v.SetDefault("server.trust_proxy", false)
	v.SetDefault("cookie.name", cookie.Name)
	v.SetDefault("cookie.max_age", cookie.MaxAge)
	v.SetDefault("cookie.secure", cookie.Secure)
	v.SetDefault("cookie.http_only", cookie.HTTPOnly)
	v.SetDefault("cookie.same_site", "Strict")
	v.SetDefault("token.ttl", jwtx.DefaultTokenTTL)
	v.SetDefault("identity.lookup_timeout", httpx.DefaultLookupTimeout)
	v.SetDefault("database.file", "session.db")
	v.SetDefault("pepper.file", "pepper")
	v.SetDefault("policy.default", "authenticated")
}

func findConfigFile(dirs []string) string {
	for _, dir := range dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "session"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadConfig reads the config file (if any), applies env overrides and
// validates the result. A missing config file is not an error.
func LoadConfig(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks struct tags and the cross-field rules.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}
	if _, err := c.CookieTransportConfig(); err != nil {
		return err
	}
	if _, err := c.BuildPolicy(); err != nil {
		return err
	}
	return nil
}

func formatValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// CookieTransportConfig converts the cookie section into httpx terms.
func (c Config) CookieTransportConfig() (httpx.CookieConfig, error) {
	sameSite, err := httpx.ParseSameSite(c.Cookie.SameSite)
	if err != nil {
		return httpx.CookieConfig{}, err
	}
	return httpx.CookieConfig{
		Name:     c.Cookie.Name,
		MaxAge:   c.Cookie.MaxAge,
		Secure:   c.Cookie.Secure,
		HTTPOnly: c.Cookie.HTTPOnly,
		SameSite: sameSite,
	}, nil
}

// BuildPolicy returns the configured route table, or the built-in one when
// no routes are configured.
func (c Config) BuildPolicy() (*httpx.Policy, error) {
	fallback, err := httpx.ParseRequirement(c.Policy.Default, domain.NormalizeRole(c.Policy.DefaultRole))
	if err != nil {
		return nil, fmt.Errorf("policy.default: %w", err)
	}

	if len(c.Policy.Routes) == 0 {
		return httpx.NewPolicy(fallback, httpapi.DefaultRules()...)
	}

	rules := make([]httpx.RouteRule, 0, len(c.Policy.Routes))
	for i, rc := range c.Policy.Routes {
		req, err := httpx.ParseRequirement(rc.Requirement, domain.NormalizeRole(rc.Role))
		if err != nil {
			return nil, fmt.Errorf("policy.routes[%d]: %w", i, err)
		}
		rules = append(rules, httpx.RouteRule{Pattern: rc.Pattern, Method: rc.Method, Requirement: req})
	}
	return httpx.NewPolicy(fallback, rules...)
}

// LoadSecret returns the signing key from token.secret or token.secret_file.
func (c Config) LoadSecret() ([]byte, error) {
	raw := c.Token.Secret
	if raw == "" && c.Token.SecretFile != "" {
		b, err := os.ReadFile(filepath.Clean(c.Token.SecretFile))
		if err != nil {
			return nil, fmt.Errorf("read token secret file: %w", err)
		}
		raw = strings.TrimSpace(string(b))
	}
	if raw == "" {
		return nil, ErrMissingSecret
	}

	secret, err := cryptox.DecodeSecret(raw)
	if err != nil {
		return nil, err
	}
	if len(secret) < jwtx.MinSecretLength {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", jwtx.ErrSecretTooShort, jwtx.MinSecretLength, len(secret))
	}
	return secret, nil
}

// DSN is the sqlite connection string for the database file.
func (c Config) DSN() string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", c.Database.File)
}
