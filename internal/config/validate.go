package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProxy(); err != nil {
		return err
	}
	if err := c.validateEncode(); err != nil {
		return err
	}
	if err := c.validateJobs(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateProxy() error {
	if c.Proxy.Folder == "" {
		return errors.New("proxy.folder must be set")
	}
	// 8K is already beyond any sane proxy target.
	if c.Proxy.PreviewScale > 4320 {
		return fmt.Errorf("proxy.preview_scale %d is out of range", c.Proxy.PreviewScale)
	}
	return nil
}

func (c *Config) validateEncode() error {
	known := map[string]struct{}{}
	for _, id := range KnownHardwareEncoders {
		known[id] = struct{}{}
	}
	for _, id := range c.Encode.Hardware {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("encode.hardware: unknown encoder %q", id)
		}
	}
	return nil
}

func (c *Config) validateJobs() error {
	if c.Jobs.Concurrency > 32 {
		return fmt.Errorf("jobs.concurrency %d is out of range", c.Jobs.Concurrency)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
