package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetAfter clears variables a .env file may have put into the process environment.
func unsetAfter(t *testing.T, keys ...string) {
	t.Cleanup(func() {
		for _, k := range keys {
			_ = os.Unsetenv(k)
		}
	})
}

func TestLoadSecrets_FromEnvironment(t *testing.T) {
	t.Setenv("LABOURCHECK_SMTP_USERNAME", "mailer")
	t.Setenv("LABOURCHECK_TRACKING_SECRET", "0123456789abcdef0123")

	s, err := LoadSecrets("")
	require.NoError(t, err)
	assert.Equal(t, "mailer", s.SMTPUsername)
	assert.Equal(t, "0123456789abcdef0123", s.TrackingSecret)
}

func TestLoadSecrets_EnvFile(t *testing.T) {
	// Pre-set so t.Setenv restores it; the process value must win over the file.
	t.Setenv("LABOURCHECK_SMS_TOKEN", "from-process")
	unsetAfter(t, "LABOURCHECK_DISCORD_TOKEN", "LABOURCHECK_MYSQL_DSN")

	path := filepath.Join(t.TempDir(), ".env")
	writeFile(t, path, "LABOURCHECK_DISCORD_TOKEN=bot-token\nLABOURCHECK_SMS_TOKEN=from-file\nLABOURCHECK_MYSQL_DSN=u:p@tcp(db)/lc\n")

	s, err := LoadSecrets(path)
	require.NoError(t, err)
	assert.Equal(t, "bot-token", s.DiscordToken)
	assert.Equal(t, "from-process", s.SMSToken)
	assert.Equal(t, "u:p@tcp(db)/lc", s.MySQLDSN)
}

func TestLoadSecrets_MissingFileIsFine(t *testing.T) {
	_, err := LoadSecrets(filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}

func TestLoadConfigFromHome(t *testing.T) {
	home := t.TempDir()
	unsetAfter(t, "LABOURCHECK_MYSQL_DSN")
	writeFile(t, ConfigPath(home), "store:\n  driver: mysql\n  dsn: from-yaml\n")
	writeFile(t, EnvPath(home), "LABOURCHECK_MYSQL_DSN=from-env\n")

	cfg, err := LoadConfigFromHome(home)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Store.DSN)
	assert.Equal(t, "from-env", cfg.Secrets.MySQLDSN)
	assert.Equal(t, filepath.Join(home, "logs"), cfg.LogDir)
	assert.NoError(t, cfg.Validate())
}
