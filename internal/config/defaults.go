package config

const (
	defaultDataDir            = "~/.local/share/kinetic/data"
	defaultLogDir             = "~/.local/share/kinetic/logs"
	defaultAPIBind            = "127.0.0.1:7311"
	defaultPinningBaseURL     = "https://api.pinata.cloud"
	defaultGatewayURL         = "https://gateway.pinata.cloud"
	defaultPinningTimeout     = 120
	defaultIdentityBaseURL    = "https://developer.worldcoin.org"
	defaultIdentityAction     = "verify-human"
	defaultChainRPCURL        = "https://aeneid.storyrpc.io"
	defaultChainID            = 1315
	defaultReceiptTimeout     = 120
	defaultNotifyTimeout      = 10
	defaultSessionTTLMinutes  = 120
	defaultMaxUploadMiB       = 100
	defaultPruneInterval      = 300
	defaultStepTimeoutSeconds = 180
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Pinning: Pinning{
			BaseURL:    defaultPinningBaseURL,
			GatewayURL: defaultGatewayURL,
			TimeoutSec: defaultPinningTimeout,
		},
		Identity: Identity{
			Action:  defaultIdentityAction,
			BaseURL: defaultIdentityBaseURL,
		},
		Chain: Chain{
			RPCURL:            defaultChainRPCURL,
			ChainID:           defaultChainID,
			ReceiptTimeoutSec: defaultReceiptTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Uploads:        true,
			Publishes:      true,
			Registrations:  true,
			Errors:         true,
		},
		Workflow: Workflow{
			SessionTTLMinutes:  defaultSessionTTLMinutes,
			MaxUploadMiB:       defaultMaxUploadMiB,
			PruneIntervalSec:   defaultPruneInterval,
			StepTimeoutSeconds: defaultStepTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
