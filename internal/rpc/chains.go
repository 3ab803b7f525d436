package rpc

import (
	"context"
	"fmt"
	"slices"

	"github.com/goran-ethernal/DepositIndexor/internal/common"
	"github.com/goran-ethernal/DepositIndexor/internal/logger"
	"github.com/goran-ethernal/DepositIndexor/pkg/config"
	pkgrpc "github.com/goran-ethernal/DepositIndexor/pkg/rpc"
)

// UnsupportedChainError is returned when a chain id has no configured client.
type UnsupportedChainError struct {
	ChainID uint64
}

func (e *UnsupportedChainError) Error() string {
	return fmt.Sprintf("unsupported chain %d", e.ChainID)
}

// Chains holds one client per configured chain.
type Chains struct {
	clients map[uint64]pkgrpc.EthClient
}

// NewChains builds a chain set from already constructed clients.
func NewChains(clients ...pkgrpc.EthClient) *Chains {
	c := &Chains{clients: make(map[uint64]pkgrpc.EthClient, len(clients))}
	for _, client := range clients {
		c.clients[client.ChainID()] = client
	}
	return c
}

// DialChains connects to every configured chain. Already opened clients are
// closed when one of the dials fails.
func DialChains(ctx context.Context, chains []config.ChainConfig, cfg config.LoggingConfig) (*Chains, error) {
	set := NewChains()
	for _, chain := range chains {
		log, err := logger.NewComponentLoggerFromConfig(common.ComponentRPC, cfg)
		if err != nil {
			set.Close()
			return nil, err
		}

		client, err := NewClient(ctx, chain.ChainID, chain.RPCURL, chain.Retry, log.WithChain(chain.ChainID))
		if err != nil {
			set.Close()
			return nil, err
		}
		set.clients[chain.ChainID] = client
	}
	return set, nil
}

// Client returns the client for chainID or an *UnsupportedChainError.
func (c *Chains) Client(chainID uint64) (pkgrpc.EthClient, error) {
	client, ok := c.clients[chainID]
	if !ok {
		return nil, &UnsupportedChainError{ChainID: chainID}
	}
	return client, nil
}

// IDs returns the configured chain ids in ascending order.
func (c *Chains) IDs() []uint64 {
	ids := make([]uint64, 0, len(c.clients))
	for id := range c.clients {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (c *Chains) Close() {
	for _, client := range c.clients {
		client.Close()
	}
}
