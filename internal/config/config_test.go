// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmcmillan1999/sluff-project-sub002/engine"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"SLUFF_HTTP_ADDR", "SLUFF_LOG_LEVEL", "SLUFF_LOG_FORMAT", "SLUFF_BOT_DECISION_TIMEOUT_MS",
	"SLUFF_TURN_TIMER_SEC", "SLUFF_DECK_LOWEST_RANK", "SLUFF_BID_TARGET", "SLUFF_REMAINDER_POLICY",
	"SLUFF_DB_DRIVER", "SLUFF_DB_DSN", "SLUFF_REDIS_ADDR", "SLUFF_SEED",
}

// clearEnv blanks every SLUFF_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 3*time.Second, cfg.BotTimeout)
	assert.Equal(t, time.Duration(0), cfg.TurnTimer)
	assert.Equal(t, engine.DefaultHouseRules(), cfg.Rules)
	assert.Empty(t, cfg.DBDriver)
	assert.Empty(t, cfg.RedisAddr)

	opts := cfg.TableOptions()
	assert.Equal(t, cfg.BotTimeout, opts.BotTimeout)
	assert.Equal(t, cfg.Rules, opts.Rules)
}

func TestOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SLUFF_HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("SLUFF_LOG_LEVEL", "debug")
	t.Setenv("SLUFF_LOG_FORMAT", "JSON")
	t.Setenv("SLUFF_BOT_DECISION_TIMEOUT_MS", "250")
	t.Setenv("SLUFF_TURN_TIMER_SEC", "30")
	t.Setenv("SLUFF_DECK_LOWEST_RANK", "9")
	t.Setenv("SLUFF_BID_TARGET", "31")
	t.Setenv("SLUFF_REMAINDER_POLICY", "second")
	t.Setenv("SLUFF_DB_DRIVER", "postgres")
	t.Setenv("SLUFF_DB_DSN", "postgres://localhost/sluff")
	t.Setenv("SLUFF_SEED", "99")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 250*time.Millisecond, cfg.BotTimeout)
	assert.Equal(t, 30*time.Second, cfg.TurnTimer)
	assert.Equal(t, engine.RankNine, cfg.Rules.LowestRank)
	assert.Equal(t, 31, cfg.Rules.BidTargets[engine.BidSolo])
	assert.Equal(t, engine.RemainderSecondDefender, cfg.Rules.RemainderPolicy)
	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, uint64(99), cfg.Seed)

	_, isJSON := cfg.NewLogger().Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SLUFF_LOG_LEVEL", "loud"},
		{"SLUFF_LOG_FORMAT", "xml"},
		{"SLUFF_BOT_DECISION_TIMEOUT_MS", "soon"},
		{"SLUFF_BOT_DECISION_TIMEOUT_MS", "0"},
		{"SLUFF_TURN_TIMER_SEC", "-1"},
		{"SLUFF_DECK_LOWEST_RANK", "Z"},
		{"SLUFF_DECK_LOWEST_RANK", "8"}, // 28 cards: 25 do not split three ways
		{"SLUFF_BID_TARGET", "200"},
		{"SLUFF_REMAINDER_POLICY", "dealer"},
		{"SLUFF_DB_DRIVER", "mysql"},
		{"SLUFF_DB_DRIVER", "sqlite"}, // no DSN
		{"SLUFF_SEED", "-5"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	clearEnv(t)
	for _, k := range allKeys {
		require.NoError(t, os.Unsetenv(k))
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "sluff.env")
	require.NoError(t, os.WriteFile(path, []byte("SLUFF_HTTP_ADDR=:7070\nSLUFF_BID_TARGET=45\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("SLUFF_HTTP_ADDR")
		os.Unsetenv("SLUFF_BID_TARGET")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTPAddr)
	assert.Equal(t, 45, cfg.Rules.BidTargets[engine.BidFrog])

	_, err = Load(filepath.Join(dir, "missing.env"))
	assert.NoError(t, err, "a missing env file is not an error")
}
