package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"price-tracker/internal/domain"
	infraconfig "price-tracker/internal/infrastructure/config"
)

// DefaultUserAgents rotate per request unless SCRAPER_USER_AGENT pins one.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (Linux; Android 12; Pixel 5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Mobile Safari/537.36",
}

type Config struct {
	// Common
	Env      string
	LogLevel string
	LogFile  string
	// Output
	DataDir      string
	SnapshotPath string
	HistoryPath  string
	// Fetch
	Timeout        time.Duration
	Attempts       int
	PauseMin       time.Duration
	PauseMax       time.Duration
	UserAgent      string
	UserAgents     []string
	AcceptLanguage string
	Proxies        []*url.URL
	Sites          map[domain.SiteID]string
	// Run lock
	LockBackend   string
	LockTTL       time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// API
	APIPort string
}

// Load reads SCRAPER_* environment variables, applies defaults and validates.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCRAPER")
	v.AutomaticEnv()

	v.SetDefault("env", "local")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "scraper.log")

	v.SetDefault("data_dir", "data")
	v.SetDefault("json_file", "latest_prices.json")
	v.SetDefault("csv_file", "price_history.csv")

	v.SetDefault("timeout", 15)
	v.SetDefault("retries", 3)
	v.SetDefault("rate_limit", "1,3")
	v.SetDefault("user_agent", "")
	v.SetDefault("accept_language", "en-US,en;q=0.9,it;q=0.8")
	v.SetDefault("proxies", "")

	v.SetDefault("amazon_url", "https://www.amazon.it/dp/B0C78GHQRJ/")
	v.SetDefault("phoneclick_url", "https://www.phoneclick.it/samsung/galaxy-s23/samsung-galaxy-s23-5g-256gb-8gb-ram-dual-sim-black-europa")
	v.SetDefault("teknozone_url", "https://www.teknozone.it/smartphone-samsung/galaxy-s23/samsung-galaxy-s23-5g-256gb-8gb-ram-dual-sim-black-europa")

	v.SetDefault("lock_backend", "none")
	v.SetDefault("lock_ttl", 300)
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("api_port", infraconfig.DefaultHTTPPort)

	dataDir := v.GetString("data_dir")
	cfg := Config{
		Env:            v.GetString("env"),
		LogLevel:       v.GetString("log_level"),
		LogFile:        v.GetString("log_file"),
		DataDir:        dataDir,
		SnapshotPath:   filepath.Join(dataDir, v.GetString("json_file")),
		HistoryPath:    filepath.Join(dataDir, v.GetString("csv_file")),
		Timeout:        time.Duration(v.GetInt("timeout")) * time.Second,
		Attempts:       v.GetInt("retries"),
		UserAgent:      strings.TrimSpace(v.GetString("user_agent")),
		UserAgents:     DefaultUserAgents,
		AcceptLanguage: v.GetString("accept_language"),
		Sites: map[domain.SiteID]string{
			domain.SiteAmazon:     v.GetString("amazon_url"),
			domain.SitePhoneclick: v.GetString("phoneclick_url"),
			domain.SiteTeknozone:  v.GetString("teknozone_url"),
		},
		LockBackend:   strings.ToLower(v.GetString("lock_backend")),
		LockTTL:       time.Duration(v.GetInt("lock_ttl")) * time.Second,
		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),
		APIPort:       v.GetString("api_port"),
	}

	var err error
	cfg.PauseMin, cfg.PauseMax, err = parseRateLimit(v.GetString("rate_limit"))
	if err != nil {
		return Config{}, err
	}
	cfg.Proxies, err = parseProxies(v.GetString("proxies"))
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Attempts < 1 {
		errs = append(errs, fmt.Errorf("SCRAPER_RETRIES must be >= 1, got %d", c.Attempts))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_TIMEOUT must be > 0, got %s", c.Timeout))
	}
	if c.PauseMin < 0 || c.PauseMax < c.PauseMin {
		errs = append(errs, fmt.Errorf("SCRAPER_RATE_LIMIT must satisfy 0 <= min <= max, got %s,%s", c.PauseMin, c.PauseMax))
	}
	for _, site := range domain.Sites() {
		raw, ok := c.Sites[site]
		if !ok {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid url for %s: %q", site, raw))
		}
	}
	switch c.LockBackend {
	case "none", "redis":
	default:
		errs = append(errs, fmt.Errorf("SCRAPER_LOCK_BACKEND must be none or redis, got %q", c.LockBackend))
	}
	return errors.Join(errs...)
}

// parseRateLimit reads "min,max" in (fractional) seconds.
func parseRateLimit(s string) (time.Duration, time.Duration, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("SCRAPER_RATE_LIMIT must be \"min,max\", got %q", s)
	}
	var out [2]time.Duration
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("SCRAPER_RATE_LIMIT: %w", err)
		}
		out[i] = time.Duration(f * float64(time.Second))
	}
	return out[0], out[1], nil
}

func parseProxies(s string) ([]*url.URL, error) {
	var out []*url.URL
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		u, err := url.Parse(p)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("SCRAPER_PROXIES: invalid proxy %q", p)
		}
		out = append(out, u)
	}
	return out, nil
}
