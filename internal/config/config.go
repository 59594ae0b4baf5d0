package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Pinning contains configuration for the IPFS pinning service.
type Pinning struct {
	JWT        string `toml:"jwt"`
	BaseURL    string `toml:"base_url"`
	GatewayURL string `toml:"gateway_url"`
	TimeoutSec int    `toml:"timeout_seconds"`
}

// Identity contains configuration for World ID proof verification.
type Identity struct {
	AppID     string `toml:"app_id"`
	Action    string `toml:"action"`
	BaseURL   string `toml:"base_url"`
	AllowMock bool   `toml:"allow_mock"`
}

// Chain contains configuration for the blockchain test network.
type Chain struct {
	RPCURL             string `toml:"rpc_url"`
	ChainID            uint64 `toml:"chain_id"`
	NFTContract        string `toml:"nft_contract"`
	IPAssetRegistry    string `toml:"ip_asset_registry"`
	LicensingModule    string `toml:"licensing_module"`
	PILLicenseTemplate string `toml:"pil_license_template"`
	WalletAddress      string `toml:"wallet_address"`
	ReceiptTimeoutSec  int    `toml:"receipt_timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Uploads        bool   `toml:"uploads"`
	Publishes      bool   `toml:"publishes"`
	Registrations  bool   `toml:"registrations"`
	Errors         bool   `toml:"errors"`
}

// Workflow contains configuration for upload session handling.
type Workflow struct {
	SessionTTLMinutes  int `toml:"session_ttl_minutes"`
	MaxUploadMiB       int `toml:"max_upload_mib"`
	PruneIntervalSec   int `toml:"prune_interval_seconds"`
	StepTimeoutSeconds int `toml:"step_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Kinetic.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Pinning: IPFS pinning service credential and gateway
//   - Identity: World ID proof verification
//   - Chain: RPC endpoint, contracts, and wallet account
//   - Notifications: ntfy push notification settings
//   - Workflow: upload session limits and lifetimes
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Pinning       Pinning       `toml:"pinning"`
	Identity      Identity      `toml:"identity"`
	Chain         Chain         `toml:"chain"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/kinetic/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("kinetic.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to the given path.
// It refuses to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
