package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"kinetic/internal/config"
	"kinetic/internal/daemonclient"
)

type commandContext struct {
	apiFlag    *string
	tokenFlag  *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, tokenFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		tokenFlag:  tokenFlag,
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
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) apiBaseURL() string {
	if c.apiFlag != nil {
		if flagged := strings.TrimSpace(*c.apiFlag); flagged != "" {
			return flagged
		}
	}
	if cfg := c.configValue(); cfg != nil {
		return "http://" + cfg.Paths.APIBind
	}
	return "http://127.0.0.1:7311"
}

func (c *commandContext) apiToken() string {
	if c.tokenFlag != nil {
		if flagged := strings.TrimSpace(*c.tokenFlag); flagged != "" {
			return flagged
		}
	}
	if cfg := c.configValue(); cfg != nil {
		return cfg.Paths.APIToken
	}
	return ""
}

func (c *commandContext) client() *daemonclient.Client {
	return daemonclient.New(c.apiBaseURL(), c.apiToken())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
