package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config describes all runtime settings for the server.
//
// Best practice for Go services:
//   - load config once in main
//   - validate
//   - pass further via DI (no global variables)
type Config struct {
	Env string // dev|stage|prod

	Log struct {
		Format string // text|json
	}

	HTTP struct {
		Addr              string
		ReadHeaderTimeout time.Duration
		ReadTimeout       time.Duration
		WriteTimeout      time.Duration
		IdleTimeout       time.Duration
		ShutdownTimeout   time.Duration
	}

	Game struct {
		MaxScore        int
		WagerAmount     float64
		CountdownTicks  int
		ChoiceTicks     int
		InterRoundTicks int
		GraceTicks      int
		TickInterval    time.Duration
	}

	Report struct {
		URL     string // empty => reporting disabled
		Secret  string
		Timeout time.Duration
	}
}

func LoadFromEnv() (Config, error) {
	var c Config

	c.Env = envString("APP_ENV", "dev")
	c.Log.Format = envString("LOG_FORMAT", "text")

	port := envString("PORT", "8080")
	c.HTTP.Addr = envString("HTTP_ADDR", ":"+port)
	c.HTTP.ReadHeaderTimeout = envDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second)
	c.HTTP.ReadTimeout = envDuration("HTTP_READ_TIMEOUT", 0)
	c.HTTP.WriteTimeout = envDuration("HTTP_WRITE_TIMEOUT", 0)
	c.HTTP.IdleTimeout = envDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)
	c.HTTP.ShutdownTimeout = envDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)

	c.Game.MaxScore = envInt("MAX_SCORE", 4)
	c.Game.WagerAmount = envFloat("WAGER_AMOUNT", 0)
	c.Game.CountdownTicks = envInt("COUNTDOWN_TICKS", 3)
	c.Game.ChoiceTicks = envInt("CHOICE_TICKS", 10)
	c.Game.InterRoundTicks = envInt("INTER_ROUND_TICKS", 3)
	c.Game.GraceTicks = envInt("GRACE_TICKS", 30)
	c.Game.TickInterval = envDuration("TICK_INTERVAL", time.Second)

	c.Report.URL = envString("REPORT_URL", "")
	c.Report.Secret = envString("REPORT_SECRET", "")
	c.Report.Timeout = envDuration("REPORT_TIMEOUT", 5*time.Second)

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("HTTP addr is empty")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unsupported LOG_FORMAT=%q (want text|json)", c.Log.Format)
	}
	if c.Game.MaxScore < 1 {
		return fmt.Errorf("MAX_SCORE=%d must be at least 1", c.Game.MaxScore)
	}
	if c.Game.CountdownTicks < 1 || c.Game.ChoiceTicks < 1 || c.Game.InterRoundTicks < 1 || c.Game.GraceTicks < 1 {
		return errors.New("tick counts must be at least 1")
	}
	if c.Game.TickInterval <= 0 {
		return errors.New("TICK_INTERVAL must be positive")
	}
	if c.Game.WagerAmount < 0 {
		return errors.New("WAGER_AMOUNT must not be negative")
	}
	if c.Report.URL != "" && c.Report.Secret == "" && c.Env != "dev" {
		return fmt.Errorf("refuse to report without REPORT_SECRET in %s", c.Env)
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
