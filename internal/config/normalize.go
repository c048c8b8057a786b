package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeProxy(); err != nil {
		return err
	}
	if err := c.normalizeEncode(); err != nil {
		return err
	}
	if err := c.normalizeJobs(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeProxy() error {
	var err error
	if strings.TrimSpace(c.Proxy.Folder) == "" {
		c.Proxy.Folder = defaultProxyFolder
	}
	if c.Proxy.Folder, err = expandPath(c.Proxy.Folder); err != nil {
		return fmt.Errorf("proxy.folder: %w", err)
	}
	if c.Proxy.PreviewScale < 0 {
		c.Proxy.PreviewScale = 0
	}
	return nil
}

func (c *Config) normalizeEncode() error {
	c.Encode.FFmpeg = strings.TrimSpace(c.Encode.FFmpeg)
	c.Encode.FFprobe = strings.TrimSpace(c.Encode.FFprobe)
	c.Encode.Melt = strings.TrimSpace(c.Encode.Melt)

	normalized := make([]string, 0, len(c.Encode.Hardware))
	seen := map[string]struct{}{}
	for _, id := range c.Encode.Hardware {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		normalized = append(normalized, id)
	}
	c.Encode.Hardware = normalized
	return nil
}

func (c *Config) normalizeJobs() error {
	if c.Jobs.Concurrency <= 0 {
		c.Jobs.Concurrency = defaultJobsConcurrency
	}
	history := strings.TrimSpace(c.Jobs.History)
	if history == "" {
		c.Jobs.History = ""
		return nil
	}
	expanded, err := expandPath(history)
	if err != nil {
		return fmt.Errorf("jobs.history: %w", err)
	}
	c.Jobs.History = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if file := strings.TrimSpace(c.Logging.File); file != "" {
		if expanded, err := expandPath(file); err == nil {
			c.Logging.File = expanded
		}
	} else {
		c.Logging.File = ""
	}
}
