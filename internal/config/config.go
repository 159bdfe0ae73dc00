package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server             ServerConfig     `mapstructure:"server"`
	Database           DatabaseConfig   `mapstructure:"database"`
	Logging            LoggingConfig    `mapstructure:"logging"`
	Downloader         DownloaderConfig `mapstructure:"downloader"`
	Sites              SitesConfig      `mapstructure:"sites"`
	Federation         FederationConfig `mapstructure:"federation"`
	PreferredLanguages []string         `mapstructure:"preferred_languages"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// ResolvePerMinute caps resolve and lookup requests per client IP.
	// Zero disables the cap.
	ResolvePerMinute int `mapstructure:"resolve_per_minute"`
}

// DatabaseConfig holds database configuration. An empty path disables the
// persistent download cache.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// DownloaderConfig holds outbound fetch policy.
type DownloaderConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	SearchTimeout  time.Duration `mapstructure:"search_timeout"`
	PeerTimeout    time.Duration `mapstructure:"peer_timeout"`
	Retries        int           `mapstructure:"retries"`
	Proxies        []string      `mapstructure:"proxies"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	CachePurge     time.Duration `mapstructure:"cache_purge"`
	// CoverDir is where resolved cover images are written. Empty disables it.
	CoverDir      string  `mapstructure:"cover_dir"`
	UserAgent     string  `mapstructure:"user_agent"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
}

// SitesConfig holds per-source credentials and endpoint overrides.
type SitesConfig struct {
	TMDB           TMDBConfig        `mapstructure:"tmdb"`
	GoogleBooks    GoogleBooksConfig `mapstructure:"google_books"`
	Spotify        SpotifyConfig     `mapstructure:"spotify"`
	BibliotekDK    BibliotekDKConfig `mapstructure:"bibliotekdk"`
	StrictPatterns bool              `mapstructure:"strict_patterns"`
	// SearchBudget is the sustained searches per second allowed per
	// source. Zero disables the budget.
	SearchBudget float64 `mapstructure:"search_budget"`
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Language string `mapstructure:"language"`
}

// GoogleBooksConfig holds Google Books API configuration.
type GoogleBooksConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// SpotifyConfig holds Spotify client credentials.
type SpotifyConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	TokenURL     string `mapstructure:"token_url"`
	BaseURL      string `mapstructure:"base_url"`
}

// BibliotekDKConfig holds the FBI API bearer token.
type BibliotekDKConfig struct {
	Token      string `mapstructure:"token"`
	GraphQLURL string `mapstructure:"graphql_url"`
}

// FederationConfig describes this instance and its peers.
type FederationConfig struct {
	SiteDomains []string      `mapstructure:"site_domains"`
	Peers       []string      `mapstructure:"peers"`
	PeersFile   string        `mapstructure:"peers_file"`
	RefreshCron string        `mapstructure:"refresh_cron"`
	PeerTimeout time.Duration `mapstructure:"peer_timeout"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ResolvePerMinute: 30,
		},
		Database: DatabaseConfig{
			Path: "./data/folio.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Downloader: DownloaderConfig{
			RequestTimeout: 90 * time.Second,
			SearchTimeout:  2 * time.Second,
			PeerTimeout:    2 * time.Second,
			Retries:        3,
			CacheTTL:       300 * time.Second,
			CachePurge:     10 * time.Minute,
			UserAgent:      DefaultUserAgent,
			RatePerSecond:  5,
		},
		Sites: SitesConfig{
			TMDB:         TMDBConfig{APIKey: EmbeddedTMDBKey, Language: "en-US"},
			SearchBudget: 10,
		},
		Federation: FederationConfig{
			RefreshCron: "*/5 * * * *",
		},
		PreferredLanguages: []string{"en", "zh"},
	}
}

// DefaultUserAgent is sent by downloaders unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Load reads configuration from file and environment variables.
// Priority: environment variables > .env > config file > defaults
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.folio")
	}

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Federation.PeerTimeout <= 0 {
		cfg.Federation.PeerTimeout = cfg.Downloader.PeerTimeout
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.resolve_per_minute", d.Server.ResolvePerMinute)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	v.SetDefault("downloader.request_timeout", d.Downloader.RequestTimeout)
	v.SetDefault("downloader.search_timeout", d.Downloader.SearchTimeout)
	v.SetDefault("downloader.peer_timeout", d.Downloader.PeerTimeout)
	v.SetDefault("downloader.retries", d.Downloader.Retries)
	v.SetDefault("downloader.proxies", []string{})
	v.SetDefault("downloader.cache_ttl", d.Downloader.CacheTTL)
	v.SetDefault("downloader.cache_purge", d.Downloader.CachePurge)
	v.SetDefault("downloader.cover_dir", "")
	v.SetDefault("downloader.user_agent", d.Downloader.UserAgent)
	v.SetDefault("downloader.rate_per_second", d.Downloader.RatePerSecond)

	// Sites: keys are registered so AutomaticEnv can bind them on Unmarshal.
	v.SetDefault("sites.tmdb.api_key", d.Sites.TMDB.APIKey)
	v.SetDefault("sites.tmdb.base_url", "")
	v.SetDefault("sites.tmdb.language", d.Sites.TMDB.Language)
	v.SetDefault("sites.google_books.api_key", "")
	v.SetDefault("sites.google_books.base_url", "")
	v.SetDefault("sites.spotify.client_id", "")
	v.SetDefault("sites.spotify.client_secret", "")
	v.SetDefault("sites.spotify.token_url", "")
	v.SetDefault("sites.spotify.base_url", "")
	v.SetDefault("sites.bibliotekdk.token", "")
	v.SetDefault("sites.bibliotekdk.graphql_url", "")
	v.SetDefault("sites.strict_patterns", false)
	v.SetDefault("sites.search_budget", d.Sites.SearchBudget)

	v.SetDefault("federation.site_domains", []string{})
	v.SetDefault("federation.peers", []string{})
	v.SetDefault("federation.peers_file", "")
	v.SetDefault("federation.refresh_cron", d.Federation.RefreshCron)
	v.SetDefault("federation.peer_timeout", 0)

	v.SetDefault("preferred_languages", d.PreferredLanguages)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
