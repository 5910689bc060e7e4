package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"forumintel/internal/domain"
	"forumintel/internal/usecases"
)

// Environment variable names.
const (
	EnvForumURL          = "FORUM_URL"
	EnvForumUsername     = "FORUM_USERNAME"
	EnvForumPassword     = "FORUM_PASSWORD"
	EnvAuthToken         = "AUTH_TOKEN"
	EnvPort              = "PORT"
	EnvLogLevel          = "LOG_LEVEL"
	EnvChromePath        = "CHROME_PATH"
	EnvChromeWSURL       = "CHROME_WS_URL"
	EnvSelectorsPath     = "SELECTORS_PATH"
	EnvMaxSessions       = "MAX_SESSIONS"
	EnvRateLimit         = "RATE_LIMIT_PER_MINUTE"
	EnvCrawlTimeout      = "CRAWL_TIMEOUT_SECONDS"
	EnvNavigationTimeout = "NAVIGATION_TIMEOUT_SECONDS"
	EnvRejectionTimeout  = "REJECTION_TIMEOUT_SECONDS"
	EnvMaxThreadPages    = "MAX_THREAD_PAGES"
)

// Provider looks up named settings.
type Provider interface {
	// GetVar returns the value of name, or a CONFIG_MISSING error when it
	// is unset or empty.
	GetVar(name string) (string, error)
}

// EnvProvider reads the process environment.
type EnvProvider struct{}

// GetVar implements Provider.
func (EnvProvider) GetVar(name string) (string, error) {
	return lookup(name, os.Getenv(name))
}

// MapProvider serves settings from a fixed map.
type MapProvider map[string]string

// GetVar implements Provider.
func (m MapProvider) GetVar(name string) (string, error) {
	return lookup(name, m[name])
}

func lookup(name, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", domain.Wrap(domain.ErrConfigMissing, nil, "%s is not set", name)
	}
	return value, nil
}

// LoadEnvFile loads a .env file into the process environment. A missing
// default file is not an error; an explicitly named one must exist.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Config is the resolved process configuration.
type Config struct {
	ForumURL       string
	Credentials    domain.Credentials
	AuthToken      string
	Port           string
	LogLevel       string
	ChromePath     string
	ChromeWSURL    string
	SelectorsPath  string
	MaxSessions    int
	RateLimit      int
	CrawlTimeout   time.Duration
	Timeouts       usecases.Timeouts
	MaxThreadPages int
}

// Load resolves the configuration from p. FORUM_URL is always required;
// serving additionally requires the forum credentials and AUTH_TOKEN.
func Load(p Provider, serving bool) (*Config, error) {
	forumURL, err := p.GetVar(EnvForumURL)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ForumURL:      strings.TrimRight(forumURL, "/"),
		Credentials:   domain.Credentials{Username: optional(p, EnvForumUsername), Password: optional(p, EnvForumPassword)},
		AuthToken:     optional(p, EnvAuthToken),
		Port:          withDefault(p, EnvPort, "3000"),
		LogLevel:      withDefault(p, EnvLogLevel, "INFO"),
		ChromePath:    optional(p, EnvChromePath),
		ChromeWSURL:   optional(p, EnvChromeWSURL),
		SelectorsPath: withDefault(p, EnvSelectorsPath, "config/selectors.yaml"),
	}

	if serving {
		for _, name := range []string{EnvForumUsername, EnvForumPassword, EnvAuthToken} {
			if _, err := p.GetVar(name); err != nil {
				return nil, err
			}
		}
	}

	defaults := usecases.DefaultTimeouts()
	ints := []struct {
		name  string
		def   int
		floor int
		dst   *int
	}{
		{EnvMaxSessions, 2, 1, &cfg.MaxSessions},
		{EnvRateLimit, 10, 1, &cfg.RateLimit},
		{EnvMaxThreadPages, 0, 0, &cfg.MaxThreadPages},
	}
	for _, v := range ints {
		if *v.dst, err = intVar(p, v.name, v.def, v.floor); err != nil {
			return nil, err
		}
	}

	durations := []struct {
		name string
		def  time.Duration
		dst  *time.Duration
	}{
		{EnvCrawlTimeout, 600 * time.Second, &cfg.CrawlTimeout},
		{EnvNavigationTimeout, defaults.Navigation, &cfg.Timeouts.Navigation},
		{EnvRejectionTimeout, defaults.Rejection, &cfg.Timeouts.Rejection},
	}
	for _, v := range durations {
		secs, err := intVar(p, v.name, int(v.def/time.Second), 1)
		if err != nil {
			return nil, err
		}
		*v.dst = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

// Crawl returns the settings the crawl use case needs.
func (c *Config) Crawl() usecases.CrawlConfig {
	return usecases.CrawlConfig{
		BaseURL:        c.ForumURL,
		Credentials:    c.Credentials,
		Timeouts:       c.Timeouts,
		MaxThreadPages: c.MaxThreadPages,
	}
}

func optional(p Provider, name string) string {
	v, _ := p.GetVar(name)
	return v
}

func withDefault(p Provider, name, def string) string {
	if v, err := p.GetVar(name); err == nil {
		return strings.TrimSpace(v)
	}
	return def
}

func intVar(p Provider, name string, def, floor int) (int, error) {
	raw, err := p.GetVar(name)
	if err != nil {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < floor {
		return 0, domain.Wrap(domain.ErrConfigMissing, err, "%s must be an integer >= %d, got %q", name, floor, raw)
	}
	return n, nil
}
