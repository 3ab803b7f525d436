// Package mocks holds testify mocks of the rpc interfaces.
package mocks

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"

	"github.com/goran-ethernal/DepositIndexor/pkg/rpc"
)

var _ rpc.EthClient = (*EthClient)(nil)

// EthClient is a mock of rpc.EthClient.
type EthClient struct {
	mock.Mock
	chainID uint64
}

// NewEthClient creates a mock bound to chainID and asserts its expectations on cleanup.
func NewEthClient(t interface {
	mock.TestingT
	Cleanup(func())
}, chainID uint64) *EthClient {
	m := &EthClient{chainID: chainID}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *EthClient) ChainID() uint64 {
	return m.chainID
}

func (m *EthClient) Close() {
	m.Called()
}

func (m *EthClient) GetLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	args := m.Called(ctx, query)
	logs, _ := args.Get(0).([]types.Log)
	return logs, args.Error(1)
}

func (m *EthClient) GetBlockHeader(ctx context.Context, blockNum uint64) (*types.Header, error) {
	args := m.Called(ctx, blockNum)
	header, _ := args.Get(0).(*types.Header)
	return header, args.Error(1)
}

func (m *EthClient) GetFinalizedBlockHeader(ctx context.Context) (*types.Header, error) {
	args := m.Called(ctx)
	header, _ := args.Get(0).(*types.Header)
	return header, args.Error(1)
}

func (m *EthClient) GetSafeBlockHeader(ctx context.Context) (*types.Header, error) {
	args := m.Called(ctx)
	header, _ := args.Get(0).(*types.Header)
	return header, args.Error(1)
}

func (m *EthClient) BatchGetBlockHeaders(ctx context.Context, blockNums []uint64) ([]*types.Header, error) {
	args := m.Called(ctx, blockNums)
	headers, _ := args.Get(0).([]*types.Header)
	return headers, args.Error(1)
}

func (m *EthClient) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	args := m.Called(ctx, msg, block)
	out, _ := args.Get(0).([]byte)
	return out, args.Error(1)
}
