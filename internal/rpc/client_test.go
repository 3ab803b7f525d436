package rpc

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	pkgrpc "github.com/goran-ethernal/DepositIndexor/pkg/rpc"
)

type stubClient struct {
	pkgrpc.EthClient
	id     uint64
	closed bool
}

func (s *stubClient) ChainID() uint64 { return s.id }
func (s *stubClient) Close()          { s.closed = true }

func (s *stubClient) CallContract(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
	return nil, nil
}

func (s *stubClient) GetBlockHeader(context.Context, uint64) (*types.Header, error) {
	return nil, nil
}

func TestToBlockNumArg(t *testing.T) {
	require.Equal(t, "0x0", toBlockNumArg(0))
	require.Equal(t, "0x8c1838", toBlockNumArg(9181240))
	require.Equal(t, "0xffffffffffffffff", toBlockNumArg(^uint64(0)))
}

func TestChains(t *testing.T) {
	mainnet := &stubClient{id: 1}
	sepolia := &stubClient{id: 11155111}
	chains := NewChains(sepolia, mainnet)

	require.Equal(t, []uint64{1, 11155111}, chains.IDs())

	client, err := chains.Client(11155111)
	require.NoError(t, err)
	require.Same(t, sepolia, client)

	_, err = chains.Client(8453)
	var unsupported *UnsupportedChainError
	require.ErrorAs(t, err, &unsupported)
	require.Equal(t, uint64(8453), unsupported.ChainID)
	require.EqualError(t, err, "unsupported chain 8453")

	chains.Close()
	require.True(t, mainnet.closed)
	require.True(t, sepolia.closed)
}
