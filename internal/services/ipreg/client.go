// Package ipreg registers minted videos as IP assets and attaches license
// terms through the on-chain IP registry.
package ipreg

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kinetic/internal/config"
	"kinetic/internal/services"
	"kinetic/internal/services/chain"
)

// RegisterResult reports a completed IP asset registration.
type RegisterResult struct {
	IPAssetID string
	TxHash    string
}

// AttachResult reports license terms attached to an IP asset.
type AttachResult struct {
	TermsID int64
	TxHash  string
}

// Client drives the IP asset registry and licensing module contracts.
type Client struct {
	chainClient    *chain.Client
	wallet         chain.Wallet
	registry       string
	licensing      string
	pilTemplate    string
	nftContract    string
	chainID        uint64
	receiptTimeout time.Duration
}

// New builds a registration client over an existing chain client and wallet.
func New(chainClient *chain.Client, wallet chain.Wallet, cfg *config.Config) *Client {
	return &Client{
		chainClient:    chainClient,
		wallet:         wallet,
		registry:       strings.TrimSpace(cfg.Chain.IPAssetRegistry),
		licensing:      strings.TrimSpace(cfg.Chain.LicensingModule),
		pilTemplate:    strings.TrimSpace(cfg.Chain.PILLicenseTemplate),
		nftContract:    strings.TrimSpace(cfg.Chain.NFTContract),
		chainID:        cfg.Chain.ChainID,
		receiptTimeout: time.Duration(cfg.Chain.ReceiptTimeoutSec) * time.Second,
	}
}

// Configured reports whether the registry contracts are known.
func (c *Client) Configured() bool {
	return c.registry != "" && c.nftContract != ""
}

// IPAssetFor resolves the registry's deterministic IP address for a token
// and reports whether that address is actually registered.
func (c *Client) IPAssetFor(ctx context.Context, tokenID int64) (string, bool, error) {
	if !c.Configured() {
		return "", false, services.Wrap(services.ErrConfiguration, "ipreg", "lookup", "registry contracts not configured", nil)
	}
	result, err := c.chainClient.CallContract(ctx, c.registry,
		chain.EncodeCall("ipId(uint256,address,uint256)",
			chain.Uint64(c.chainID),
			chain.Address(c.nftContract),
			chain.Uint64(uint64(tokenID)),
		))
	if err != nil {
		return "", false, err
	}
	ipID, err := chain.DecodeAddress(result)
	if err != nil {
		return "", false, services.Wrap(services.ErrExternal, "ipreg", "lookup", "malformed ip id", err)
	}

	registered, err := c.chainClient.CallContract(ctx, c.registry,
		chain.EncodeCall("isRegistered(address)", chain.Address(ipID)))
	if err != nil {
		return "", false, err
	}
	flag, err := chain.DecodeUint64(registered)
	if err != nil {
		return "", false, services.Wrap(services.ErrExternal, "ipreg", "lookup", "malformed registration flag", err)
	}
	return ipID, flag == 1, nil
}

// Register records a minted token as an IP asset. The registry derives the
// IP address deterministically, so the resulting id comes from a view call
// after the registration transaction confirms. The token contract is then
// updated so the token carries its IP address.
func (c *Client) Register(ctx context.Context, tokenID int64) (*RegisterResult, error) {
	if !c.Configured() {
		return nil, services.Wrap(services.ErrConfiguration, "ipreg", "register", "registry contracts not configured", nil)
	}

	data := chain.EncodeCall("register(uint256,address,uint256)",
		chain.Uint64(c.chainID),
		chain.Address(c.nftContract),
		chain.Uint64(uint64(tokenID)),
	)
	txHash, err := c.wallet.SendTransaction(ctx, c.registry, data)
	if err != nil {
		return nil, err
	}
	receipt, err := c.chainClient.WaitForReceipt(ctx, txHash, c.receiptTimeout)
	if err != nil {
		return nil, err
	}
	if !receipt.Succeeded() {
		return nil, services.Wrap(services.ErrExternal, "ipreg", "register",
			"transaction "+txHash+" reverted", nil)
	}

	ipID, _, err := c.IPAssetFor(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	setTx, err := c.wallet.SendTransaction(ctx, c.nftContract,
		chain.EncodeCall("setIpId(uint256,address)",
			chain.Uint64(uint64(tokenID)),
			chain.Address(ipID),
		))
	if err != nil {
		return nil, err
	}
	if receipt, err := c.chainClient.WaitForReceipt(ctx, setTx, c.receiptTimeout); err != nil {
		return nil, err
	} else if !receipt.Succeeded() {
		return nil, services.Wrap(services.ErrExternal, "ipreg", "register",
			"ip id update "+setTx+" reverted", nil)
	}

	return &RegisterResult{IPAssetID: ipID, TxHash: txHash}, nil
}

// AttachLicense attaches the pre-deployed license terms matching the given
// license configuration to an IP asset.
func (c *Client) AttachLicense(ctx context.Context, ipID string, terms Terms) (*AttachResult, error) {
	if c.licensing == "" || c.pilTemplate == "" {
		return nil, services.Wrap(services.ErrConfiguration, "ipreg", "attach license", "licensing contracts not configured", nil)
	}
	if strings.TrimSpace(ipID) == "" {
		return nil, services.Wrap(services.ErrValidation, "ipreg", "attach license", "ip asset id required", nil)
	}
	termsID := TermsID(terms)

	data := chain.EncodeCall("attachLicenseTerms(address,address,uint256)",
		chain.Address(ipID),
		chain.Address(c.pilTemplate),
		chain.Uint64(uint64(termsID)),
	)
	txHash, err := c.wallet.SendTransaction(ctx, c.licensing, data)
	if err != nil {
		return nil, err
	}
	receipt, err := c.chainClient.WaitForReceipt(ctx, txHash, c.receiptTimeout)
	if err != nil {
		return nil, err
	}
	if !receipt.Succeeded() {
		return nil, services.Wrap(services.ErrExternal, "ipreg", "attach license",
			fmt.Sprintf("transaction %s reverted attaching terms %d", txHash, termsID), nil)
	}
	return &AttachResult{TermsID: termsID, TxHash: txHash}, nil
}
