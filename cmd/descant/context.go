package main

import (
	"strings"
	"sync"

	"descant/internal/config"
)

type commandContext struct {
	serverFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(serverFlag, configFlag *string) *commandContext {
	return &commandContext{
		serverFlag: serverFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// serverBaseURL resolves the daemon API base: the --server flag when given,
// otherwise the configured bind address.
func (c *commandContext) serverBaseURL() string {
	if c.serverFlag != nil {
		if base := strings.TrimSpace(*c.serverFlag); base != "" {
			return strings.TrimRight(base, "/")
		}
	}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		bind := strings.TrimSpace(cfg.Paths.APIBind)
		if bind != "" {
			return "http://" + bind
		}
	}
	return "http://127.0.0.1:8617"
}

func (c *commandContext) apiClient() *apiClient {
	return newAPIClient(c.serverBaseURL())
}
