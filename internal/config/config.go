// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mmcmillan1999/sluff-project-sub002/engine"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/database"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/game"
	"github.com/sirupsen/logrus"
)

// Config is the process configuration read from the environment.
type Config struct {
	HTTPAddr   string
	LogLevel   logrus.Level
	LogFormat  string // "text" or "json"
	BotTimeout time.Duration
	TurnTimer  time.Duration
	Rules      engine.HouseRules
	DBDriver   string // empty disables analytics
	DBDSN      string
	RedisAddr  string // empty disables the action history
	Seed       uint64 // 0 seeds rounds from the clock
}

// Load reads an optional .env file and then the SLUFF_* environment
// variables. Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPAddr:  getString("SLUFF_HTTP_ADDR", ":8080"),
		LogFormat: strings.ToLower(getString("SLUFF_LOG_FORMAT", "text")),
		DBDriver:  getString("SLUFF_DB_DRIVER", ""),
		DBDSN:     getString("SLUFF_DB_DSN", ""),
		RedisAddr: getString("SLUFF_REDIS_ADDR", ""),
		Rules:     engine.DefaultHouseRules(),
	}

	level, err := logrus.ParseLevel(getString("SLUFF_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("SLUFF_LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("SLUFF_LOG_FORMAT: want text or json, got %q", cfg.LogFormat)
	}

	botMS, err := getInt("SLUFF_BOT_DECISION_TIMEOUT_MS", 3000)
	if err != nil {
		return nil, err
	}
	if botMS <= 0 {
		return nil, fmt.Errorf("SLUFF_BOT_DECISION_TIMEOUT_MS: must be positive, got %d", botMS)
	}
	cfg.BotTimeout = time.Duration(botMS) * time.Millisecond

	turnSec, err := getInt("SLUFF_TURN_TIMER_SEC", 0)
	if err != nil {
		return nil, err
	}
	if turnSec < 0 {
		return nil, fmt.Errorf("SLUFF_TURN_TIMER_SEC: must not be negative, got %d", turnSec)
	}
	cfg.TurnTimer = time.Duration(turnSec) * time.Second

	seed, err := getInt("SLUFF_SEED", 0)
	if err != nil {
		return nil, err
	}
	if seed < 0 {
		return nil, fmt.Errorf("SLUFF_SEED: must not be negative, got %d", seed)
	}
	cfg.Seed = uint64(seed)

	if err := cfg.loadRules(); err != nil {
		return nil, err
	}

	if cfg.DBDriver != "" {
		drv, err := database.NormalizeDriver(cfg.DBDriver)
		if err != nil {
			return nil, fmt.Errorf("SLUFF_DB_DRIVER: %w", err)
		}
		cfg.DBDriver = drv
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("SLUFF_DB_DSN: required when SLUFF_DB_DRIVER is set")
		}
	}
	return cfg, nil
}

// loadRules applies the game-rule variables on top of the defaults.
func (c *Config) loadRules() error {
	if v := getString("SLUFF_DECK_LOWEST_RANK", ""); v != "" {
		rank, err := parseRank(v)
		if err != nil {
			return fmt.Errorf("SLUFF_DECK_LOWEST_RANK: %w", err)
		}
		c.Rules.LowestRank = rank
	}

	target, err := getInt("SLUFF_BID_TARGET", c.Rules.BidTargets[engine.BidFrog])
	if err != nil {
		return err
	}
	for _, b := range []engine.Bid{engine.BidFrog, engine.BidSolo, engine.BidHeartSolo} {
		c.Rules.BidTargets[b] = target
	}

	switch strings.ToLower(getString("SLUFF_REMAINDER_POLICY", "first")) {
	case "first":
		c.Rules.RemainderPolicy = engine.RemainderFirstDefender
	case "second":
		c.Rules.RemainderPolicy = engine.RemainderSecondDefender
	default:
		return fmt.Errorf("SLUFF_REMAINDER_POLICY: want first or second")
	}

	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("house rules: %w", err)
	}
	return nil
}

// TableOptions returns the table defaults this configuration describes.
func (c *Config) TableOptions() game.TableOptions {
	return game.TableOptions{
		Rules:        c.Rules,
		BotTimeout:   c.BotTimeout,
		TurnDuration: c.TurnTimer,
		Seed:         c.Seed,
	}
}

// NewLogger returns a logrus logger with the configured level and format.
func (c *Config) NewLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(c.LogLevel)
	if c.LogFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// parseRank accepts a rank name ("6", "10", "J") or its card-rank letter.
func parseRank(s string) (uint8, error) {
	c, err := engine.ParseCard(strings.TrimSpace(s) + "H")
	if err != nil {
		return 0, fmt.Errorf("unknown rank %q", s)
	}
	return c.Rank(), nil
}

func getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := getString(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	return n, nil
}
