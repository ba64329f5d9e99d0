// Package config loads puzzlewatch configuration from viper (config file,
// environment and .env) into typed structs.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/puzzlewatch/internal/logger"
)

// Config is the root configuration.
type Config struct {
	YouTube YouTubeConfig `mapstructure:"youtube"`
	Email   EmailConfig   `mapstructure:"email"`
	Puzzles PuzzlesConfig `mapstructure:"puzzles"`
	State   StateConfig   `mapstructure:"state"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Server  ServerConfig  `mapstructure:"server"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Logging logger.Config `mapstructure:"logging"`
}

// YouTubeConfig configures the video channel poller.
type YouTubeConfig struct {
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Channel  string `mapstructure:"channel"`
	Schedule string `mapstructure:"schedule"`
}

// EmailConfig configures SMTP delivery.
type EmailConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	Recipient string `mapstructure:"recipient"`
	Subject   string `mapstructure:"subject"`
}

// PuzzlesConfig lists the monitored puzzle-portal searches.
type PuzzlesConfig struct {
	Sources []SourceConfig `mapstructure:"sources"`
}

// SourceConfig is one monitored search page. Key names the slot in the
// puzzles state file.
type SourceConfig struct {
	Key      string `mapstructure:"key"`
	URL      string `mapstructure:"url"`
	Schedule string `mapstructure:"schedule"`
}

// StateConfig locates the persisted cursor files.
type StateConfig struct {
	ChannelFile string `mapstructure:"channel_file"`
	PuzzlesFile string `mapstructure:"puzzles_file"`
}

// RedisConfig enables the optional event publisher when Address is set.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// Enabled reports whether notifications are also published to Redis.
func (c RedisConfig) Enabled() bool {
	return c.Address != ""
}

// ServerConfig configures the optional status server.
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// HTTPConfig tunes outbound HTTP for both external sources.
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// Default values.
const (
	DefaultYouTubeBaseURL  = "https://youtube.googleapis.com/youtube/v3"
	DefaultChannel         = "UCC-UOdK8-mIjxBQm_ot1T-Q"
	DefaultVideoSchedule   = "@every 60s"
	DefaultPuzzleSchedule  = "@every 24h"
	DefaultSMTPHost        = "smtp.gmail.com"
	DefaultSMTPPort        = 587
	DefaultSubject         = "Cracking the Cryptic"
	DefaultChannelFile     = "videos.json"
	DefaultPuzzlesFile     = "puzzles.json"
	DefaultRedisChannel    = "puzzlewatch:events"
	DefaultServerAddress   = ":8088"
	DefaultHTTPTimeout     = 5 * time.Second
	DefaultUserAgent       = "puzzlewatch/1.0"
	portalSearchURL        = "https://logic-masters.de/Raetselportal/Suche/erweitert.php"
	sandraAndNalaSourceKey = "sandra and nala"
	ratRunSourceKey        = "rat run"
)

// DefaultSources returns the two puzzle searches monitored out of the box.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Key:      sandraAndNalaSourceKey,
			URL:      portalSearchURL + "?suchautor=SandraundNala",
			Schedule: DefaultPuzzleSchedule,
		},
		{
			Key:      ratRunSourceKey,
			URL:      portalSearchURL + "?suchtitel=Rat+Run",
			Schedule: DefaultPuzzleSchedule,
		},
	}
}

// SetDefaults registers defaults and the legacy environment variable names
// on v. It must run before Load.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("youtube.api_key", "")
	v.SetDefault("youtube.base_url", DefaultYouTubeBaseURL)
	v.SetDefault("youtube.channel", DefaultChannel)
	v.SetDefault("youtube.schedule", DefaultVideoSchedule)

	v.SetDefault("email.host", DefaultSMTPHost)
	v.SetDefault("email.port", DefaultSMTPPort)
	v.SetDefault("email.user", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.recipient", "")
	v.SetDefault("email.subject", DefaultSubject)

	v.SetDefault("state.channel_file", DefaultChannelFile)
	v.SetDefault("state.puzzles_file", DefaultPuzzlesFile)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", DefaultRedisChannel)

	v.SetDefault("server.enabled", false)
	v.SetDefault("server.address", DefaultServerAddress)

	v.SetDefault("http.timeout", DefaultHTTPTimeout)
	v.SetDefault("http.user_agent", DefaultUserAgent)

	v.SetDefault("logging.level", logger.DefaultLevel)
	v.SetDefault("logging.format", logger.DefaultFormat)
	v.SetDefault("logging.development", false)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Names used by earlier deployments; BindEnv only fails without a key.
	_ = v.BindEnv("youtube.api_key", "YOUTUBE_KEY", "YOUTUBE_API_KEY")
	_ = v.BindEnv("email.user", "EMAIL_USER")
	_ = v.BindEnv("email.password", "EMAIL_PASSWORD")
	_ = v.BindEnv("email.recipient", "EMAIL_RECIPIENT")
	_ = v.BindEnv("email.host", "SMTP_HOST")
	_ = v.BindEnv("email.port", "SMTP_PORT")
	_ = v.BindEnv("redis.address", "REDIS_ADDRESS")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
}

// Load unmarshals v into a Config and fills derived defaults. It does not
// validate; callers pick the validation matching the command they run.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.Puzzles.Sources) == 0 {
		cfg.Puzzles.Sources = DefaultSources()
	}
	for i := range cfg.Puzzles.Sources {
		if cfg.Puzzles.Sources[i].Schedule == "" {
			cfg.Puzzles.Sources[i].Schedule = DefaultPuzzleSchedule
		}
	}

	if cfg.Email.Recipient == "" {
		cfg.Email.Recipient = cfg.Email.User
	}

	return &cfg, nil
}

// SourceKeys returns the configured puzzle source keys in order.
func (c *Config) SourceKeys() []string {
	keys := make([]string, 0, len(c.Puzzles.Sources))
	for _, src := range c.Puzzles.Sources {
		keys = append(keys, src.Key)
	}
	return keys
}
