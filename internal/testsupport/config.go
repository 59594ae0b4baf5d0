package testsupport

import (
	"path/filepath"
	"testing"

	"kinetic/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Pinning.JWT = "test-jwt"
	cfgVal.Identity.AppID = "app_test"
	cfgVal.Identity.AllowMock = true
	cfgVal.Chain.WalletAddress = "0x00000000000000000000000000000000000000aa"
	cfgVal.Chain.NFTContract = "0x00000000000000000000000000000000000000bb"
	cfgVal.Chain.IPAssetRegistry = "0x00000000000000000000000000000000000000cc"
	cfgVal.Chain.LicensingModule = "0x00000000000000000000000000000000000000dd"
	cfgVal.Chain.PILLicenseTemplate = "0x00000000000000000000000000000000000000ee"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := cfgVal.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	return builder.cfg
}

// WithPinningService points the pinning client at a test server.
func WithPinningService(baseURL, gatewayURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pinning.BaseURL = baseURL
		if gatewayURL != "" {
			b.cfg.Pinning.GatewayURL = gatewayURL
		}
	}
}

// WithIdentityService points the identity verifier at a test server.
func WithIdentityService(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Identity.BaseURL = baseURL
	}
}

// WithChainRPC points the chain client at a test server.
func WithChainRPC(rpcURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Chain.RPCURL = rpcURL
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
