package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phishguard/phishguard/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commonTOML = `
version = 1

[debug]
log_level = "debug"

[rate_limits]
messages_per_minute = 10
commands_per_hour = 40
audit_clean_messages = true

[detection]
shortener_domains = ["bit.ly", "tinyurl.com"]
scam_keywords = ["срочно", "верификация"]
urgency_phrases = ["срочно", "немедленно"]

[detection.bank_prefixes]
900 = "Сбербанк"

[phone.operator_codes]
91 = "МТС"

[phone.region_codes]
495 = "Москва"
`

const botTOML = `
version = 1
request_timeout = 5000

[discord]
token = "test-token"
admin_channel_id = 123
admin_user_id = 456
`

func chdir(t *testing.T, dir string) {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func writeConfig(t *testing.T, common, bot string) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "common.toml"), []byte(common), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bot.toml"), []byte(bot), 0o644))
	chdir(t, dir)
}

func TestLoadConfig(t *testing.T) {
	writeConfig(t, commonTOML, botTOML)

	cfg, _, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Common.Debug.LogLevel)
	assert.Equal(t, 10, cfg.Common.RateLimits.MessagesPerMinute)
	assert.Equal(t, 40, cfg.Common.RateLimits.CommandsPerHour)
	assert.True(t, cfg.Common.RateLimits.AuditCleanMessages)
	assert.Contains(t, cfg.Common.Detection.ShortenerDomains, "bit.ly")
	assert.Equal(t, "Сбербанк", cfg.Common.Detection.BankPrefixes["900"])
	assert.Equal(t, "МТС", cfg.Common.Phone.OperatorCodes["91"])
	assert.Equal(t, "test-token", cfg.Bot.Discord.Token)
	assert.Equal(t, uint64(123), cfg.Bot.Discord.AdminChannelID)
	assert.Equal(t, uint64(456), cfg.Bot.Discord.AdminUserID)
}

func TestLoadConfigMissingFiles(t *testing.T) {
	chdir(t, t.TempDir())

	_, _, err := config.LoadConfig()
	require.ErrorIs(t, err, config.ErrConfigFileNotFound)
}

func TestLoadConfigVersionMismatch(t *testing.T) {
	writeConfig(t, strings.Replace(commonTOML, "version = 1", "version = 2", 1), botTOML)

	_, _, err := config.LoadConfig()
	require.ErrorIs(t, err, config.ErrConfigVersionMismatch)
}

func TestLoadConfigRejectsEmptyRuleLists(t *testing.T) {
	const emptyDetection = `
version = 1

[detection]
shortener_domains = []
scam_keywords = ["срочно"]
urgency_phrases = ["срочно"]
`

	writeConfig(t, emptyDetection, botTOML)

	_, _, err := config.LoadConfig()
	require.ErrorIs(t, err, config.ErrNoShortenerDomains)
}

func TestDetectionValidate(t *testing.T) {
	t.Parallel()

	valid := config.Detection{
		ShortenerDomains: []string{"bit.ly"},
		ScamKeywords:     []string{"верификация"},
		UrgencyPhrases:   []string{"срочно"},
	}
	require.NoError(t, valid.Validate())

	noKeywords := valid
	noKeywords.ScamKeywords = nil
	require.ErrorIs(t, noKeywords.Validate(), config.ErrNoScamKeywords)

	noUrgency := valid
	noUrgency.UrgencyPhrases = nil
	require.ErrorIs(t, noUrgency.Validate(), config.ErrNoUrgencyPhrases)
}
