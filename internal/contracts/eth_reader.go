package contracts

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/alitto/pond/v2"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/goran-ethernal/DepositIndexor/internal/rpc"
	"github.com/goran-ethernal/DepositIndexor/pkg/config"
)

const (
	positionWorkers   = 8
	positionQueueSize = 256
	multicallBatch    = 100
)

type chainContracts struct {
	positionManager common.Address
	multicall       common.Address
	hasMulticall    bool
}

// EthReader implements Reader with eth_call through the chain clients.
type EthReader struct {
	chains    *rpc.Chains
	contracts map[uint64]chainContracts
	pool      pond.Pool
}

var _ Reader = (*EthReader)(nil)

// NewEthReader builds a reader over chains. Position manager and multicall
// addresses come from each chain's config.
func NewEthReader(chains *rpc.Chains, cfgs []config.ChainConfig) *EthReader {
	contracts := make(map[uint64]chainContracts, len(cfgs))
	for _, c := range cfgs {
		cc := chainContracts{positionManager: common.HexToAddress(c.PositionManager)}
		if common.IsHexAddress(c.Multicall3) {
			cc.multicall = common.HexToAddress(c.Multicall3)
			cc.hasMulticall = true
		}
		contracts[c.ChainID] = cc
	}

	return &EthReader{
		chains:    chains,
		contracts: contracts,
		pool:      pond.NewPool(positionWorkers, pond.WithQueueSize(positionQueueSize)),
	}
}

// Close stops the position worker pool.
func (r *EthReader) Close() {
	r.pool.StopAndWait()
}

func (r *EthReader) chainContracts(chainID uint64) (chainContracts, error) {
	cc, ok := r.contracts[chainID]
	if !ok {
		return cc, &rpc.UnsupportedChainError{ChainID: chainID}
	}
	return cc, nil
}

// call packs method, runs eth_call against to and unpacks the outputs.
func (r *EthReader) call(
	ctx context.Context,
	chainID uint64,
	parsed *abi.ABI,
	to common.Address,
	block *big.Int,
	method string,
	args ...any,
) ([]any, error) {
	client, err := r.chains.Client(chainID)
	if err != nil {
		return nil, err
	}

	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	raw, err := client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, block)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}

	out, err := parsed.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return out, nil
}

func (r *EthReader) AssetDecimals(ctx context.Context, chainID uint64, asset common.Address) (uint8, error) {
	out, err := r.call(ctx, chainID, &ERC20ABI, asset, nil, "decimals")
	if err != nil {
		return 0, err
	}
	return out[0].(uint8), nil
}

func (r *EthReader) AssetName(ctx context.Context, chainID uint64, asset common.Address) (string, error) {
	out, err := r.call(ctx, chainID, &ERC20ABI, asset, nil, "name")
	if err != nil {
		return "", err
	}
	return out[0].(string), nil
}

func (r *EthReader) AssetSymbol(ctx context.Context, chainID uint64, asset common.Address) (string, error) {
	out, err := r.call(ctx, chainID, &ERC20ABI, asset, nil, "symbol")
	if err != nil {
		return "", err
	}
	return out[0].(string), nil
}

func (r *EthReader) AuctioneerVersion(ctx context.Context, chainID uint64, auctioneer common.Address) (Version, error) {
	out, err := r.call(ctx, chainID, &AuctioneerABI, auctioneer, nil, "VERSION")
	if err != nil {
		return Version{}, err
	}
	if len(out) < 2 {
		return Version{}, errors.New("VERSION returned a single value")
	}
	return Version{Major: out[0].(uint8), Minor: out[1].(uint8)}, nil
}

func (r *EthReader) AuctioneerTrackingPeriod(
	ctx context.Context, chainID uint64, auctioneer common.Address,
) (uint8, error) {
	out, err := r.call(ctx, chainID, &AuctioneerABI, auctioneer, nil, "getAuctionTrackingPeriod")
	if err != nil {
		return 0, err
	}
	return out[0].(uint8), nil
}

func (r *EthReader) AuctioneerDepositAsset(
	ctx context.Context, chainID uint64, auctioneer common.Address,
) (common.Address, error) {
	out, err := r.call(ctx, chainID, &AuctioneerABI, auctioneer, nil, "getDepositAsset")
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (r *EthReader) AuctioneerTickStep(ctx context.Context, chainID uint64, auctioneer common.Address) (*big.Int, error) {
	out, err := r.call(ctx, chainID, &AuctioneerABI, auctioneer, nil, "getTickStep")
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (r *EthReader) AuctioneerParameters(
	ctx context.Context, chainID uint64, auctioneer common.Address, block *big.Int,
) (AuctionParameters, error) {
	out, err := r.call(ctx, chainID, &AuctioneerABI, auctioneer, block, "getAuctionParameters")
	if err != nil {
		return AuctionParameters{}, err
	}
	p := *abi.ConvertType(out[0], new(abiAuctionParameters)).(*abiAuctionParameters)
	return AuctionParameters{Target: p.Target, TickSize: p.TickSize, MinPrice: p.MinPrice}, nil
}

func (r *EthReader) AuctioneerCurrentTick(
	ctx context.Context, chainID uint64, auctioneer common.Address, periodMonths uint8, block *big.Int,
) (Tick, error) {
	out, err := r.call(ctx, chainID, &AuctioneerABI, auctioneer, block, "getCurrentTick", periodMonths)
	if err != nil {
		return Tick{}, err
	}
	t := *abi.ConvertType(out[0], new(abiTick)).(*abiTick)
	return Tick{Price: t.Price, Capacity: t.Capacity, LastUpdate: t.LastUpdate.Uint64()}, nil
}

func (r *EthReader) AuctioneerDayState(
	ctx context.Context, chainID uint64, auctioneer common.Address, block *big.Int,
) (DayState, error) {
	out, err := r.call(ctx, chainID, &AuctioneerABI, auctioneer, block, "getDayState")
	if err != nil {
		return DayState{}, err
	}
	d := *abi.ConvertType(out[0], new(abiDayState)).(*abiDayState)
	return DayState{InitTimestamp: d.InitTimestamp.Uint64(), Convertible: d.Convertible}, nil
}

func (r *EthReader) FacilityDepositManager(
	ctx context.Context, chainID uint64, facility common.Address,
) (common.Address, error) {
	out, err := r.call(ctx, chainID, &FacilityABI, facility, nil, "DEPOSIT_MANAGER")
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (r *EthReader) FacilityReclaimRate(
	ctx context.Context, chainID uint64, facility, asset common.Address, periodMonths uint8,
) (*big.Int, error) {
	out, err := r.call(ctx, chainID, &FacilityABI, facility, nil, "getAssetPeriodReclaimRate", asset, periodMonths)
	if err != nil {
		return nil, err
	}
	return uint16Big(out[0]), nil
}

func (r *EthReader) FacilityCommittedAmount(
	ctx context.Context, chainID uint64, facility, asset common.Address, block *big.Int,
) (*big.Int, error) {
	out, err := r.call(ctx, chainID, &FacilityABI, facility, block, "getCommittedDeposits", asset)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (r *EthReader) FacilityClaimableYield(
	ctx context.Context, chainID uint64, facility, asset common.Address, block *big.Int,
) (*big.Int, error) {
	out, err := r.call(ctx, chainID, &FacilityABI, facility, block, "previewClaimYield", asset)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (r *EthReader) ReceiptTokenManager(
	ctx context.Context, chainID uint64, depositManager common.Address,
) (common.Address, error) {
	out, err := r.call(ctx, chainID, &DepositManagerABI, depositManager, nil, "getReceiptTokenManager")
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (r *EthReader) ReceiptTokenID(
	ctx context.Context, chainID uint64, depositManager, asset common.Address, periodMonths uint8,
	facility common.Address,
) (*big.Int, error) {
	out, err := r.call(ctx, chainID, &DepositManagerABI, depositManager, nil,
		"getReceiptTokenId", asset, periodMonths, facility)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (r *EthReader) Position(
	ctx context.Context, chainID uint64, positionID *big.Int, block *big.Int,
) (Position, error) {
	cc, err := r.chainContracts(chainID)
	if err != nil {
		return Position{}, err
	}

	out, err := r.call(ctx, chainID, &PositionManagerABI, cc.positionManager, block, "getPosition", positionID)
	if err != nil {
		return Position{}, err
	}
	return abi.ConvertType(out[0], new(abiPosition)).(*abiPosition).position(), nil
}

func (r *EthReader) UserPositionIDs(
	ctx context.Context, chainID uint64, user common.Address, block *big.Int,
) ([]*big.Int, error) {
	cc, err := r.chainContracts(chainID)
	if err != nil {
		return nil, err
	}

	out, err := r.call(ctx, chainID, &PositionManagerABI, cc.positionManager, block, "getUserPositionIds", user)
	if err != nil {
		return nil, err
	}
	return out[0].([]*big.Int), nil
}

// Positions batches reads through Multicall3 when configured, otherwise it
// fans single reads out over the worker pool.
func (r *EthReader) Positions(
	ctx context.Context, chainID uint64, positionIDs []*big.Int, block *big.Int,
) ([]Position, error) {
	cc, err := r.chainContracts(chainID)
	if err != nil {
		return nil, err
	}
	if cc.hasMulticall {
		return r.multicallPositions(ctx, chainID, cc, positionIDs, block)
	}
	return r.poolPositions(ctx, chainID, positionIDs, block)
}

func (r *EthReader) multicallPositions(
	ctx context.Context, chainID uint64, cc chainContracts, positionIDs []*big.Int, block *big.Int,
) ([]Position, error) {
	client, err := r.chains.Client(chainID)
	if err != nil {
		return nil, err
	}

	out := make([]Position, 0, len(positionIDs))
	for start := 0; start < len(positionIDs); start += multicallBatch {
		end := min(start+multicallBatch, len(positionIDs))

		calls := make([]call3, 0, end-start)
		for _, id := range positionIDs[start:end] {
			data, err := PositionManagerABI.Pack("getPosition", id)
			if err != nil {
				return nil, fmt.Errorf("failed to pack getPosition: %w", err)
			}
			calls = append(calls, call3{Target: cc.positionManager, CallData: data})
		}

		data, err := Multicall3ABI.Pack("aggregate3", calls)
		if err != nil {
			return nil, fmt.Errorf("failed to pack aggregate3: %w", err)
		}

		raw, err := client.CallContract(ctx, ethereum.CallMsg{To: &cc.multicall, Data: data}, block)
		if err != nil {
			return nil, fmt.Errorf("aggregate3 call failed: %w", err)
		}

		unpacked, err := Multicall3ABI.Unpack("aggregate3", raw)
		if err != nil {
			return nil, fmt.Errorf("failed to unpack aggregate3: %w", err)
		}

		results, ok := unpacked[0].([]struct {
			Success    bool   `json:"success"`
			ReturnData []byte `json:"returnData"`
		})
		if !ok {
			return nil, fmt.Errorf("unexpected aggregate3 result type %T", unpacked[0])
		}
		if len(results) != len(calls) {
			return nil, fmt.Errorf("aggregate3 returned %d results for %d calls", len(results), len(calls))
		}

		for i, res := range results {
			if !res.Success {
				return nil, fmt.Errorf("getPosition(%s) reverted", positionIDs[start+i])
			}
			vals, err := PositionManagerABI.Unpack("getPosition", res.ReturnData)
			if err != nil {
				return nil, fmt.Errorf("failed to unpack getPosition: %w", err)
			}
			out = append(out, abi.ConvertType(vals[0], new(abiPosition)).(*abiPosition).position())
		}
	}
	return out, nil
}

func (r *EthReader) poolPositions(
	ctx context.Context, chainID uint64, positionIDs []*big.Int, block *big.Int,
) ([]Position, error) {
	out := make([]Position, len(positionIDs))
	errs := make([]error, len(positionIDs))

	group := r.pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for i, id := range positionIDs {
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				errs[i] = err
				return
			}
			out[i], errs[i] = r.Position(groupCtx, chainID, id, block)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		return nil, err
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *EthReader) VaultInterestRate(
	ctx context.Context, chainID uint64, vault, facility, asset common.Address,
) (*big.Int, error) {
	out, err := r.call(ctx, chainID, &RedemptionVaultABI, vault, nil, "getAnnualInterestRate", asset, facility)
	if err != nil {
		return nil, err
	}
	return uint16Big(out[0]), nil
}

func (r *EthReader) VaultMaxBorrowPercentage(
	ctx context.Context, chainID uint64, vault, facility, asset common.Address,
) (*big.Int, error) {
	out, err := r.call(ctx, chainID, &RedemptionVaultABI, vault, nil, "getMaxBorrowPercentage", asset, facility)
	if err != nil {
		return nil, err
	}
	return uint16Big(out[0]), nil
}

func (r *EthReader) VaultClaimDefaultReward(ctx context.Context, chainID uint64, vault common.Address) (*big.Int, error) {
	out, err := r.call(ctx, chainID, &RedemptionVaultABI, vault, nil, "getClaimDefaultRewardPercentage")
	if err != nil {
		return nil, err
	}
	return uint16Big(out[0]), nil
}

func (r *EthReader) VaultRedemption(
	ctx context.Context, chainID uint64, vault, user common.Address, redemptionID uint64, block *big.Int,
) (Redemption, error) {
	out, err := r.call(ctx, chainID, &RedemptionVaultABI, vault, block,
		"getUserRedemption", user, uint16(redemptionID)) //nolint:gosec
	if err != nil {
		return Redemption{}, err
	}

	red := abi.ConvertType(out[0], new(abiRedemption)).(*abiRedemption)
	return Redemption{
		DepositToken:  red.DepositToken,
		DepositPeriod: red.DepositPeriod,
		RedeemableAt:  red.RedeemableAt.Uint64(),
		Amount:        red.Amount,
		Facility:      red.Facility,
		PositionID:    red.PositionId,
	}, nil
}

func (r *EthReader) VaultLoan(
	ctx context.Context, chainID uint64, vault, user common.Address, redemptionID uint64, block *big.Int,
) (Loan, error) {
	out, err := r.call(ctx, chainID, &RedemptionVaultABI, vault, block,
		"getRedemptionLoan", user, uint16(redemptionID)) //nolint:gosec
	if err != nil {
		return Loan{}, err
	}

	loan := abi.ConvertType(out[0], new(abiLoan)).(*abiLoan)
	return Loan{
		InitialPrincipal: loan.InitialPrincipal,
		Principal:        loan.Principal,
		Interest:         loan.Interest,
		DueDate:          loan.DueDate.Uint64(),
		IsDefaulted:      loan.IsDefaulted,
	}, nil
}

func (r *EthReader) BlockTimestamp(ctx context.Context, chainID uint64, block uint64) (uint64, error) {
	client, err := r.chains.Client(chainID)
	if err != nil {
		return 0, err
	}

	header, err := client.GetBlockHeader(ctx, block)
	if err != nil {
		return 0, err
	}
	return header.Time, nil
}

func uint16Big(v any) *big.Int {
	return new(big.Int).SetUint64(uint64(v.(uint16)))
}
