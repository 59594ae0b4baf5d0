package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Missing external credentials
// (pinning JWT, identity app id, contract addresses) are not validation
// errors: the daemon degrades the affected endpoints instead of refusing to
// start.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateChain(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateChain() error {
	for name, addr := range map[string]string{
		"chain.nft_contract":         c.Chain.NFTContract,
		"chain.ip_asset_registry":    c.Chain.IPAssetRegistry,
		"chain.licensing_module":     c.Chain.LicensingModule,
		"chain.pil_license_template": c.Chain.PILLicenseTemplate,
		"chain.wallet_address":       c.Chain.WalletAddress,
	} {
		if addr == "" {
			continue
		}
		if !isHexAddress(addr) {
			return fmt.Errorf("%s: %q is not a 0x-prefixed 20-byte hex address", name, addr)
		}
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

func isHexAddress(value string) bool {
	if len(value) != 42 || !strings.HasPrefix(value, "0x") {
		return false
	}
	for _, r := range value[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
