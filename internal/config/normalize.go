package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePinning()
	c.normalizeIdentity()
	c.normalizeChain()
	c.normalizeLogging()
	c.normalizeWorkflow()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizePinning() {
	if jwt := strings.TrimSpace(os.Getenv("PINATA_JWT")); jwt != "" && strings.TrimSpace(c.Pinning.JWT) == "" {
		c.Pinning.JWT = jwt
	}
	c.Pinning.JWT = strings.TrimSpace(c.Pinning.JWT)
	c.Pinning.BaseURL = strings.TrimRight(strings.TrimSpace(c.Pinning.BaseURL), "/")
	if c.Pinning.BaseURL == "" {
		c.Pinning.BaseURL = defaultPinningBaseURL
	}
	c.Pinning.GatewayURL = strings.TrimRight(strings.TrimSpace(c.Pinning.GatewayURL), "/")
	if c.Pinning.GatewayURL == "" {
		c.Pinning.GatewayURL = defaultGatewayURL
	}
	if c.Pinning.TimeoutSec <= 0 {
		c.Pinning.TimeoutSec = defaultPinningTimeout
	}
}

func (c *Config) normalizeIdentity() {
	if appID := strings.TrimSpace(os.Getenv("WORLDCOIN_APP_ID")); appID != "" && strings.TrimSpace(c.Identity.AppID) == "" {
		c.Identity.AppID = appID
	}
	c.Identity.AppID = strings.TrimSpace(c.Identity.AppID)
	c.Identity.Action = strings.TrimSpace(c.Identity.Action)
	if c.Identity.Action == "" {
		c.Identity.Action = defaultIdentityAction
	}
	c.Identity.BaseURL = strings.TrimRight(strings.TrimSpace(c.Identity.BaseURL), "/")
	if c.Identity.BaseURL == "" {
		c.Identity.BaseURL = defaultIdentityBaseURL
	}
}

func (c *Config) normalizeChain() {
	c.Chain.RPCURL = strings.TrimRight(strings.TrimSpace(c.Chain.RPCURL), "/")
	if c.Chain.RPCURL == "" {
		c.Chain.RPCURL = defaultChainRPCURL
	}
	if c.Chain.ChainID == 0 {
		c.Chain.ChainID = defaultChainID
	}
	c.Chain.NFTContract = strings.ToLower(strings.TrimSpace(c.Chain.NFTContract))
	c.Chain.IPAssetRegistry = strings.ToLower(strings.TrimSpace(c.Chain.IPAssetRegistry))
	c.Chain.LicensingModule = strings.ToLower(strings.TrimSpace(c.Chain.LicensingModule))
	c.Chain.PILLicenseTemplate = strings.ToLower(strings.TrimSpace(c.Chain.PILLicenseTemplate))
	c.Chain.WalletAddress = strings.ToLower(strings.TrimSpace(c.Chain.WalletAddress))
	if c.Chain.ReceiptTimeoutSec <= 0 {
		c.Chain.ReceiptTimeoutSec = defaultReceiptTimeout
	}
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
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.SessionTTLMinutes <= 0 {
		c.Workflow.SessionTTLMinutes = defaultSessionTTLMinutes
	}
	if c.Workflow.MaxUploadMiB <= 0 {
		c.Workflow.MaxUploadMiB = defaultMaxUploadMiB
	}
	if c.Workflow.PruneIntervalSec <= 0 {
		c.Workflow.PruneIntervalSec = defaultPruneInterval
	}
	if c.Workflow.StepTimeoutSeconds <= 0 {
		c.Workflow.StepTimeoutSeconds = defaultStepTimeoutSeconds
	}
}
