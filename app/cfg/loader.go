package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/lysyi3m/rss-desk/app/feed"
	"golang.org/x/text/language"
)

// Version is set at build time via -ldflags
var Version = "dev"

const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Feed configuration
	FeedURL      string `long:"feed-url" env:"FEED_URL" default:"https://api.journey.skillreactor.io/r/f/rss.xml" description:"RSS feed endpoint"`
	FeedConfig   string `long:"feed-config" env:"FEED_CONFIG" description:"Optional YAML feed file overriding URL, timeout and user agent"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Feed request timeout in seconds (0 disables)"`
	UserAgent    string `long:"user-agent" env:"USER_AGENT" default:"RSS Desk/1.0" description:"User agent string for HTTP requests"`

	// Storage configuration
	Storage       string `long:"storage" env:"STORAGE" default:"sqlite" choice:"sqlite" choice:"redis" choice:"memory" description:"Persistent key/value backend"`
	DBPath        string `long:"db-path" env:"DB_PATH" default:"./data/rss-desk.db" description:"SQLite database file"`
	RedisAddr     string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address"`
	RedisPassword string `long:"redis-password" env:"REDIS_PASSWORD" description:"Redis password"`
	RedisDB       int    `long:"redis-db" env:"REDIS_DB" default:"0" description:"Redis database number"`
	RedisPrefix   string `long:"redis-prefix" env:"REDIS_PREFIX" default:"rss-desk:" description:"Redis key prefix"`

	// Application configuration
	Port     string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	Locale   string `long:"locale" env:"LOCALE" default:"en" description:"BCP 47 locale for title and source sorting"`
	Timezone string `long:"timezone" env:"TZ" description:"Timezone for date filtering (e.g., UTC, America/New_York); system default when empty"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses command-line arguments and environment variables. It returns
// nil without error when help was requested.
func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs is Load with explicit arguments; nil means os.Args[1:].
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		FeedURL:       raw.FeedURL,
		FeedConfig:    raw.FeedConfig,
		FetchTimeout:  raw.FetchTimeout,
		UserAgent:     raw.UserAgent,
		Storage:       raw.Storage,
		DBPath:        raw.DBPath,
		RedisAddr:     raw.RedisAddr,
		RedisPassword: raw.RedisPassword,
		RedisDB:       raw.RedisDB,
		RedisPrefix:   raw.RedisPrefix,
		Port:          raw.Port,
		Locale:        raw.Locale,
		Timezone:      raw.Timezone,
		Debug:         raw.Debug,
		Version:       GetVersion(),
	}

	if cfg.FeedConfig != "" {
		feedConfig, err := feed.LoadConfig(cfg.FeedConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to load feed config: %w", err)
		}
		applyFeedConfig(cfg, feedConfig)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func (c *Cfg) FetchTimeoutDuration() time.Duration {
	if c.FetchTimeout <= 0 {
		return 0
	}
	return time.Duration(c.FetchTimeout) * time.Second
}

// LanguageTag returns the collation locale, falling back to English.
func (c *Cfg) LanguageTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

func applyFeedConfig(cfg *Cfg, feedConfig *feed.Config) {
	cfg.FeedURL = feedConfig.URL
	if feedConfig.Settings.Timeout > 0 {
		cfg.FetchTimeout = feedConfig.Settings.Timeout
	}
	if feedConfig.Settings.UserAgent != "" {
		cfg.UserAgent = feedConfig.Settings.UserAgent
	}
}

func validate(cfg *Cfg) error {
	if cfg.FeedURL == "" {
		return fmt.Errorf("feed URL is required")
	}
	if cfg.FetchTimeout < 0 {
		return fmt.Errorf("fetch timeout must be non-negative")
	}
	if cfg.Storage == StorageSQLite && cfg.DBPath == "" {
		return fmt.Errorf("db path is required for sqlite storage")
	}
	if _, err := language.Parse(cfg.Locale); err != nil {
		return fmt.Errorf("invalid locale %q: %w", cfg.Locale, err)
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
