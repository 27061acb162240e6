package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

var (
	// ErrConfigurationMissing is returned when a required setting is absent.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrConfigurationInvalid is returned when a setting cannot be used.
	ErrConfigurationInvalid = errors.New("configuration invalid")
)

// Config is the process configuration, sourced from the environment.
type Config struct {
	APIBaseURL   string `env:"POS_API_URL,required,notEmpty"`
	EmployeeCode string `env:"POS_EMPLOYEE_CODE" envDefault:"000001"`
	ListenAddr   string `env:"POS_LISTEN_ADDR" envDefault:":8080"`
	RunLocal     bool   `env:"RUN_LOCAL" envDefault:"false"`
	Debug        bool   `env:"POS_DEBUG" envDefault:"false"`

	SessionTTL    time.Duration `env:"POS_SESSION_TTL" envDefault:"12h"`
	SecureCookies bool          `env:"POS_SECURE_COOKIES" envDefault:"false"`

	JournalTable     string `env:"PURCHASE_JOURNAL_TABLE"`
	EventsQueueURL   string `env:"PURCHASE_EVENTS_QUEUE_URL"`
	MetricsNamespace string `env:"POS_METRICS_NAMESPACE"`

	AWSRegion           string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointOverride string `env:"AWS_ENDPOINT_OVERRIDE"`
}

// UsesAWS reports whether any AWS-backed side channel is enabled.
func (c Config) UsesAWS() bool {
	return c.JournalTable != "" || c.EventsQueueURL != "" || c.MetricsNamespace != ""
}

// Load parses the process environment.
func Load() (Config, error) {
	return LoadFrom(env.ToMap(os.Environ()))
}

// LoadFrom parses the given environment map.
func LoadFrom(environment map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		if errors.Is(err, env.EnvVarIsNotSetError{}) || errors.Is(err, env.EmptyEnvVarError{}) {
			return Config{}, fmt.Errorf("%w: %v", ErrConfigurationMissing, err)
		}
		return Config{}, fmt.Errorf("%w: parse env: %v", ErrConfigurationInvalid, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: POS_API_URL %q is not an absolute http(s) url", ErrConfigurationInvalid, c.APIBaseURL)
	}
	if strings.TrimSpace(c.EmployeeCode) == "" {
		return fmt.Errorf("%w: POS_EMPLOYEE_CODE is blank", ErrConfigurationInvalid)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: POS_SESSION_TTL must be positive", ErrConfigurationInvalid)
	}
	return nil
}
