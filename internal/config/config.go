package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/curbz/planeguess/internal/airspace"
	"github.com/curbz/planeguess/pkg/util"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Game     GameConfig      `yaml:"game"`
	Airspace airspace.Config `yaml:"airspace"`
	Viewer   ViewerConfig    `yaml:"viewer"`
	Logging  LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	WSPath          string        `yaml:"ws_path"`
	AllowedOrigins  []string      `yaml:"allowed_origins"` // empty allows any origin
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type GameConfig struct {
	TickInterval  time.Duration `yaml:"tick_interval"`
	PointsCorrect int           `yaml:"points_correct"`
	CommandBuffer int           `yaml:"command_buffer"`
	Seed          int64         `yaml:"seed"` // 0 seeds from the clock
}

type ViewerConfig struct {
	CommandsPerSecond float64       `yaml:"commands_per_second"`
	Burst             int           `yaml:"burst"`
	AckBuffer         int           `yaml:"ack_buffer"`
	MaxMessageBytes   int64         `yaml:"max_message_bytes"`
	WriteWait         time.Duration `yaml:"write_wait"`
	PongWait          time.Duration `yaml:"pong_wait"`
	PingPeriod        time.Duration `yaml:"ping_period"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text" or "json"
}

// Default returns the configuration used when no file or environment
// overrides are given.
func Default() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

// Load builds the configuration: defaults, then the optional .env file, then
// the YAML file, then PLANEGUESS_* environment variables, then validation.
// Empty paths are skipped; a missing .env file is not an error.
func Load(configPath, envFile string) (*Config, error) {
	config := Default()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if configPath != "" {
		if err := util.LoadConfigInto(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := config.loadFromEnv(); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func (c *Config) setDefaults() {
	c.Server.Addr = ":8000"
	c.Server.WSPath = "/ws"
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 15 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second

	c.Game.TickInterval = 500 * time.Millisecond
	c.Game.PointsCorrect = 10
	c.Game.CommandBuffer = 256

	c.Airspace = airspace.DefaultConfig()

	c.Viewer.CommandsPerSecond = 5
	c.Viewer.Burst = 10
	c.Viewer.AckBuffer = 16
	c.Viewer.MaxMessageBytes = 4096
	c.Viewer.WriteWait = 10 * time.Second
	c.Viewer.PongWait = 60 * time.Second
	c.Viewer.PingPeriod = 54 * time.Second

	c.Logging.Level = "info"
	c.Logging.Format = "text"
}

func (c *Config) loadFromEnv() error {
	if addr := os.Getenv("PLANEGUESS_ADDR"); addr != "" {
		c.Server.Addr = addr
	}

	if level := os.Getenv("PLANEGUESS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	if format := os.Getenv("PLANEGUESS_LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}

	if interval := os.Getenv("PLANEGUESS_TICK_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return fmt.Errorf("PLANEGUESS_TICK_INTERVAL: %w", err)
		}
		c.Game.TickInterval = d
	}

	if density := os.Getenv("PLANEGUESS_TARGET_DENSITY"); density != "" {
		n, err := strconv.Atoi(density)
		if err != nil {
			return fmt.Errorf("PLANEGUESS_TARGET_DENSITY: %w", err)
		}
		c.Airspace.TargetDensity = n
	}

	if points := os.Getenv("PLANEGUESS_POINTS_CORRECT"); points != "" {
		n, err := strconv.Atoi(points)
		if err != nil {
			return fmt.Errorf("PLANEGUESS_POINTS_CORRECT: %w", err)
		}
		c.Game.PointsCorrect = n
	}

	return nil
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server address cannot be empty")
	}

	if !strings.HasPrefix(c.Server.WSPath, "/") {
		return fmt.Errorf("websocket path must start with /, got %q", c.Server.WSPath)
	}

	if c.Game.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}

	if c.Game.PointsCorrect <= 0 {
		return fmt.Errorf("points for a correct guess must be positive")
	}

	if c.Game.CommandBuffer <= 0 {
		return fmt.Errorf("command buffer must be positive")
	}

	if c.Viewer.CommandsPerSecond <= 0 || c.Viewer.Burst < 1 {
		return fmt.Errorf("viewer rate limit must allow at least one command")
	}

	if c.Viewer.PingPeriod >= c.Viewer.PongWait {
		return fmt.Errorf("ping period (%s) must be shorter than pong wait (%s)", c.Viewer.PingPeriod, c.Viewer.PongWait)
	}

	if err := c.Airspace.Validate(); err != nil {
		return err
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}
