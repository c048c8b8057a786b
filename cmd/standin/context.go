package main

import (
	"log/slog"
	"strings"
	"sync"

	"standin/internal/config"
	"standin/internal/logging"
	"standin/internal/textutil"
)

type cliContext struct {
	configFlag   *string
	logLevelFlag *string
	jsonFlag     *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCLIContext(configFlag, logLevelFlag *string, jsonFlag *bool) *cliContext {
	return &cliContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		jsonFlag:     jsonFlag,
	}
}

func (c *cliContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		if c.jsonFlag != nil && *c.jsonFlag {
			cfg.Logging.Format = "json"
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
	})
	return c.config, c.configErr
}

// logger builds the process logger from the loaded config. quiet raises the
// level floor to warn so interactive progress output stays readable.
func (c *cliContext) logger(quiet bool) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logCfg := *cfg
	if quiet && parseQuietLevel(logCfg.Logging.Level) {
		logCfg.Logging.Level = "warn"
	}
	return logging.NewFromConfig(&logCfg)
}

// parseQuietLevel reports whether the configured level is allowed to be
// raised. Debug and error stay as the user set them.
func parseQuietLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "error":
		return false
	default:
		return true
	}
}

func yesNo(value bool) string {
	return textutil.Ternary(value, "yes", "no")
}
