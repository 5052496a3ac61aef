package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/jaminalder/tictactoe-history/internal/domain"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	LogLevel     string        `yaml:"log-level" env:"TTT_LOG_LEVEL" env-default:"info"`
	LogFormat    string        `yaml:"log-format" env:"TTT_LOG_FORMAT" env-default:"text"`
	HTTPAddr     string        `yaml:"http-addr" env:"TTT_HTTP_ADDR" env-default:":8080"`
	HistoryMode  string        `yaml:"history-mode" env:"TTT_HISTORY_MODE" env-default:"truncate"`
	Board        Board         `yaml:"board"`
	SSEHeartbeat time.Duration `yaml:"sse-heartbeat" env:"TTT_SSE_HEARTBEAT" env-default:"15s"`
	ReadTimeout  time.Duration `yaml:"read-timeout" env:"TTT_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write-timeout" env:"TTT_WRITE_TIMEOUT" env-default:"0s"`
	SessionTTL   time.Duration `yaml:"session-ttl" env:"TTT_SESSION_TTL" env-default:"2h"`
}

type Board struct {
	Rows      int `yaml:"rows" env:"TTT_BOARD_ROWS" env-default:"3"`
	Cols      int `yaml:"cols" env:"TTT_BOARD_COLS" env-default:"3"`
	WinLength int `yaml:"win-length" env:"TTT_BOARD_WIN_LENGTH" env-default:"3"`
}

// MustLoad reads path (YAML) with environment overrides. A missing file is
// not an error: the environment and defaults are used instead.
func MustLoad(path string) *Config {
	conf, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config: %w", err))
	}
	return conf
}

func Load(path string) (*Config, error) {
	config := &Config{}

	var err error
	if _, statErr := os.Stat(path); path != "" && statErr == nil {
		err = cleanenv.ReadConfig(path, config)
	} else {
		err = cleanenv.ReadEnv(config)
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the game cannot run with.
func (that *Config) Validate() error {
	if _, err := domain.ParseHistoryMode(that.HistoryMode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	b := that.Board
	if b.Rows < 1 || b.Cols < 1 {
		return fmt.Errorf("%w: board must be at least 1x1, got %dx%d", ErrInvalid, b.Rows, b.Cols)
	}
	if b.WinLength < 1 || (b.WinLength > b.Rows && b.WinLength > b.Cols) {
		return fmt.Errorf("%w: win length %d does not fit a %dx%d board", ErrInvalid, b.WinLength, b.Rows, b.Cols)
	}
	switch that.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, that.LogFormat)
	}
	return nil
}

// Mode returns the parsed history mode. Call after Validate.
func (that *Config) Mode() domain.HistoryMode {
	mode, _ := domain.ParseHistoryMode(that.HistoryMode)
	return mode
}
