package log

import (
	"errors"
	"fmt"
)

// LogCfg configures the logger: which appenders are active, the minimum
// level, and whether caller information is captured.
type LogCfg struct {
	ConsoleAppender   bool   `mapstructure:"consoleAppender"`
	FileAppender      bool   `mapstructure:"fileAppender"`
	LogPath           string `mapstructure:"logPath"`
	MaxFileSizeMB     int    `mapstructure:"maxFileSizeMB"`
	LogLevel          Level  `mapstructure:"-"`
	LogLevelName      string `mapstructure:"logLevel"`
	EnabledCallerInfo bool   `mapstructure:"enabledCallerInfo"`
	CallerSkip        int    `mapstructure:"callerSkip"`
}

// GetName returns the configuration key for LogCfg.
func (c *LogCfg) GetName() string {
	return "log"
}

// Validate checks the configuration and resolves the level name.
func (c *LogCfg) Validate() error {
	if c.LogLevelName != "" {
		lv, err := ParseLevel(c.LogLevelName)
		if err != nil {
			return err
		}
		c.LogLevel = lv
	}
	if c.FileAppender && c.LogPath == "" {
		return errors.New("LogPath must be set when the file appender is enabled")
	}
	if c.MaxFileSizeMB < 0 {
		return fmt.Errorf("MaxFileSizeMB must not be negative, got %d", c.MaxFileSizeMB)
	}
	if !c.ConsoleAppender && !c.FileAppender {
		return errors.New("at least one appender must be enabled")
	}
	return nil
}

// DefaultCfg returns the configuration used when none is supplied:
// console appender at info level.
func DefaultCfg() LogCfg {
	return *getDefaultCfg()
}

func getDefaultCfg() *LogCfg {
	return &LogCfg{
		ConsoleAppender:   true,
		LogLevel:          InfoLevel,
		EnabledCallerInfo: false,
	}
}
