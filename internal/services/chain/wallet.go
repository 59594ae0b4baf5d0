package chain

import (
	"context"
	"strings"

	"kinetic/internal/config"
	"kinetic/internal/services"
)

// Wallet submits signed transactions on behalf of the service account and
// reports which chain that account currently signs for.
type Wallet interface {
	Address(ctx context.Context) (string, error)
	ChainID(ctx context.Context) (uint64, error)
	SwitchChain(ctx context.Context, chainID uint64) error
	SendTransaction(ctx context.Context, to, data string) (string, error)
}

// NodeWallet relies on an unlocked account held by the connected node,
// which is how test-network deployments sign for the service.
type NodeWallet struct {
	client  *Client
	address string
}

var _ Wallet = (*NodeWallet)(nil)

// NewNodeWallet builds a wallet bound to the configured service address.
// When no address is configured the node's first account is used.
func NewNodeWallet(client *Client, cfg *config.Config) *NodeWallet {
	return &NodeWallet{
		client:  client,
		address: strings.TrimSpace(cfg.Chain.WalletAddress),
	}
}

// Address resolves the sending account.
func (w *NodeWallet) Address(ctx context.Context) (string, error) {
	if w.address != "" {
		return w.address, nil
	}
	accounts, err := w.client.Accounts(ctx)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "", services.Wrap(services.ErrConfiguration, "chain", "wallet",
			"no wallet address configured and node holds no accounts", nil)
	}
	w.address = accounts[0]
	return w.address, nil
}

// ChainID reports the chain the connected node serves.
func (w *NodeWallet) ChainID(ctx context.Context) (uint64, error) {
	return w.client.ChainID(ctx)
}

// SwitchChain asks the node to move to the given chain.
func (w *NodeWallet) SwitchChain(ctx context.Context, chainID uint64) error {
	return w.client.SwitchChain(ctx, chainID)
}

// SendTransaction submits a transaction from the wallet account.
func (w *NodeWallet) SendTransaction(ctx context.Context, to, data string) (string, error) {
	from, err := w.Address(ctx)
	if err != nil {
		return "", err
	}
	return w.client.SendTransaction(ctx, from, to, data)
}
