// Package mint issues video ownership tokens on the configured network.
package mint

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kinetic/internal/config"
	"kinetic/internal/services"
	"kinetic/internal/services/chain"
)

var videoMintedTopic = chain.EventTopic("VideoMinted(uint256,address,string,string,string,bool)")

// Params describes the token to mint.
type Params struct {
	To          string
	MetadataURI string
	IPFSHash    string
	Category    string
	Verified    bool
}

// Result reports a completed mint.
type Result struct {
	TokenID int64
	TxHash  string
}

// Client mints tokens against the video contract.
type Client struct {
	chainClient    *chain.Client
	wallet         chain.Wallet
	contract       string
	chainID        uint64
	receiptTimeout time.Duration
}

// New builds a mint client over an existing chain client and wallet.
func New(chainClient *chain.Client, wallet chain.Wallet, cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Chain.ReceiptTimeoutSec) * time.Second
	return &Client{
		chainClient:    chainClient,
		wallet:         wallet,
		contract:       strings.TrimSpace(cfg.Chain.NFTContract),
		chainID:        cfg.Chain.ChainID,
		receiptTimeout: timeout,
	}
}

// Configured reports whether a contract address is known.
func (c *Client) Configured() bool {
	return c.contract != ""
}

// EnsureChain confirms the wallet signs on the expected network before any
// transaction goes out. A wallet on the wrong chain is asked to switch
// first; only a refusal is an error.
func (c *Client) EnsureChain(ctx context.Context) error {
	actual, err := c.wallet.ChainID(ctx)
	if err != nil {
		return err
	}
	if actual == c.chainID {
		return nil
	}
	if err := c.wallet.SwitchChain(ctx, c.chainID); err != nil {
		return services.Wrap(services.ErrConfiguration, "mint", "ensure chain",
			fmt.Sprintf("wallet on chain %d refused to switch to %d", actual, c.chainID), err)
	}
	actual, err = c.wallet.ChainID(ctx)
	if err != nil {
		return err
	}
	if actual != c.chainID {
		return services.Wrap(services.ErrConfiguration, "mint", "ensure chain",
			fmt.Sprintf("wallet still on chain %d, expected %d", actual, c.chainID), nil)
	}
	return nil
}

// Mint issues a token to the recipient and waits for the transaction to
// confirm. The token id comes from the mint event when present, otherwise
// from the contract's supply counter.
func (c *Client) Mint(ctx context.Context, params Params) (*Result, error) {
	if !c.Configured() {
		return nil, services.Wrap(services.ErrConfiguration, "mint", "mint", "token contract not configured", nil)
	}
	if params.To == "" || params.IPFSHash == "" {
		return nil, services.Wrap(services.ErrValidation, "mint", "mint", "recipient and content hash required", nil)
	}
	if err := c.EnsureChain(ctx); err != nil {
		return nil, err
	}

	data := chain.EncodeCall("mintVideo(address,string,string,string,bool)",
		chain.Address(params.To),
		chain.String(params.MetadataURI),
		chain.String(params.IPFSHash),
		chain.String(params.Category),
		chain.Bool(params.Verified),
	)
	txHash, err := c.wallet.SendTransaction(ctx, c.contract, data)
	if err != nil {
		return nil, err
	}

	receipt, err := c.chainClient.WaitForReceipt(ctx, txHash, c.receiptTimeout)
	if err != nil {
		return nil, err
	}
	if !receipt.Succeeded() {
		return nil, services.Wrap(services.ErrExternal, "mint", "mint",
			"transaction "+txHash+" reverted", nil)
	}

	tokenID, ok := tokenIDFromLogs(receipt.Logs)
	if !ok {
		tokenID, err = c.lastMintedToken(ctx)
		if err != nil {
			return nil, err
		}
	}
	return &Result{TokenID: tokenID, TxHash: txHash}, nil
}

// SetIPAsset records an IP asset address against a token on the contract.
func (c *Client) SetIPAsset(ctx context.Context, tokenID int64, ipID string) (string, error) {
	if !c.Configured() {
		return "", services.Wrap(services.ErrConfiguration, "mint", "set ip asset", "token contract not configured", nil)
	}
	data := chain.EncodeCall("setIpId(uint256,address)",
		chain.Uint64(uint64(tokenID)),
		chain.Address(ipID),
	)
	txHash, err := c.wallet.SendTransaction(ctx, c.contract, data)
	if err != nil {
		return "", err
	}
	receipt, err := c.chainClient.WaitForReceipt(ctx, txHash, c.receiptTimeout)
	if err != nil {
		return "", err
	}
	if !receipt.Succeeded() {
		return "", services.Wrap(services.ErrExternal, "mint", "set ip asset",
			"transaction "+txHash+" reverted", nil)
	}
	return txHash, nil
}

// TotalSupply reads the number of tokens minted so far.
func (c *Client) TotalSupply(ctx context.Context) (uint64, error) {
	result, err := c.chainClient.CallContract(ctx, c.contract, chain.EncodeCall("totalSupply()"))
	if err != nil {
		return 0, err
	}
	return chain.DecodeUint64(result)
}

func (c *Client) lastMintedToken(ctx context.Context) (int64, error) {
	supply, err := c.TotalSupply(ctx)
	if err != nil {
		return 0, err
	}
	if supply == 0 {
		return 0, services.Wrap(services.ErrExternal, "mint", "mint",
			"mint confirmed but contract reports zero supply", nil)
	}
	return int64(supply) - 1, nil
}

func tokenIDFromLogs(logs []chain.Log) (int64, bool) {
	for _, entry := range logs {
		if len(entry.Topics) < 2 || entry.Topics[0] != videoMintedTopic {
			continue
		}
		tokenID, err := chain.DecodeUint64(entry.Topics[1])
		if err != nil {
			continue
		}
		return int64(tokenID), true
	}
	return 0, false
}
