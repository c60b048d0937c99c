package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrNoShortenerDomains    = errors.New("detection config has no shortener domains")
	ErrNoScamKeywords        = errors.New("detection config has no scam keywords")
	ErrNoUrgencyPhrases      = errors.New("detection config has no urgency phrases")
)

// Current version of the config file.
const (
	CurrentCommonVersion = 1
	CurrentBotVersion    = 1
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig
	Bot    BotConfig
}

// CommonConfig contains configuration shared between the bot and tools.
type CommonConfig struct {
	// Version of the common config.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	RateLimits RateLimits `koanf:"rate_limits"`
	Detection  Detection  `koanf:"detection"`
	Phone      Phone      `koanf:"phone"`
}

// BotConfig contains Discord bot specific configuration.
type BotConfig struct {
	// Version of the bot config.
	Version int `koanf:"version"`
	// Request timeout for outbound Discord calls in milliseconds.
	RequestTimeout int `koanf:"request_timeout"`
	// Discord configuration.
	Discord Discord `koanf:"discord"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// RateLimits configures per-user admission ceilings.
type RateLimits struct {
	// Maximum content messages analyzed per user per minute.
	MessagesPerMinute int `koanf:"messages_per_minute"`
	// Maximum commands accepted per user per hour.
	CommandsPerHour int `koanf:"commands_per_hour"`
	// Whether clean messages produce an audit event.
	AuditCleanMessages bool `koanf:"audit_clean_messages"`
}

// Detection contains the rule lists used by the threat detector.
// All lists are swappable through configuration to support tuning
// and localization without code changes.
type Detection struct {
	// Known URL-shortener and redirect domains.
	ShortenerDomains []string `koanf:"shortener_domains"`
	// Social-engineering phrases matched case-insensitively.
	ScamKeywords []string `koanf:"scam_keywords"`
	// Urgency phrases counted for the artificial-urgency signal.
	UrgencyPhrases []string `koanf:"urgency_phrases"`
	// Bank and short-code number prefixes mapped to institution names.
	BankPrefixes map[string]string `koanf:"bank_prefixes"`
}

// Phone contains the lookup tables for the phone analysis command.
type Phone struct {
	// Mobile operator codes mapped to operator names.
	OperatorCodes map[string]string `koanf:"operator_codes"`
	// Area codes mapped to region names.
	RegionCodes map[string]string `koanf:"region_codes"`
}

// Discord contains Discord bot configuration.
type Discord struct {
	// Discord bot token for authentication.
	Token string `koanf:"token"`
	// Channel that receives threat alerts. Zero disables admin notification.
	AdminChannelID uint64 `koanf:"admin_channel_id"`
	// User allowed to run the stats command.
	AdminUserID uint64 `koanf:"admin_user_id"`
}

// LoadConfig loads the configuration files from the first config path
// that contains them. Returns the config along with the used directory.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// List search paths
	configPaths := []string{
		".phishguard",
		homeDir + "/.phishguard/config",
		"/etc/phishguard/config",
		"/app/config",
		"config",
		".",
	}

	// Load all config files
	var usedConfigPath string

	configFiles := []string{"common", "bot"}
	for _, configName := range configFiles {
		configLoaded := false

		for _, path := range configPaths {
			configPath := fmt.Sprintf("%s/%s.toml", path, configName)
			if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
				configLoaded = true

				if usedConfigPath == "" {
					usedConfigPath = path
				}

				break
			}
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Check versions for each config file
	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("bot", config.Bot.Version, CurrentBotVersion); err != nil {
		return nil, "", err
	}

	// Rule lists must be present before the bot starts accepting messages
	if err := config.Common.Detection.Validate(); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// Validate checks that the rule lists required by the threat detector
// are present.
func (d *Detection) Validate() error {
	if len(d.ShortenerDomains) == 0 {
		return ErrNoShortenerDomains
	}

	if len(d.ScamKeywords) == 0 {
		return ErrNoScamKeywords
	}

	if len(d.UrgencyPhrases) == 0 {
		return ErrNoUrgencyPhrases
	}

	return nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf("%w: %s.toml (got: %d, expected: %d)",
			ErrConfigVersionMismatch, name, current, expected)
	}

	return nil
}
