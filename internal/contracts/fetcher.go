package contracts

import (
	"context"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/goran-ethernal/DepositIndexor/internal/logger"
)

// Effect names, used as cache namespaces and metric labels.
const (
	EffectAssetDecimals            = "assetDecimals"
	EffectAssetName                = "assetName"
	EffectAssetSymbol              = "assetSymbol"
	EffectAuctioneerVersion        = "auctioneerVersion"
	EffectAuctioneerTrackingPeriod = "auctioneerTrackingPeriod"
	EffectAuctioneerDepositAsset   = "auctioneerDepositAsset"
	EffectAuctioneerTickStep       = "auctioneerTickStep"
	EffectAuctioneerParameters     = "auctioneerParameters"
	EffectAuctioneerCurrentTick    = "auctioneerCurrentTick"
	EffectAuctioneerDayState       = "auctioneerDayState"
	EffectFacilityDepositManager   = "facilityDepositManager"
	EffectReceiptTokenManager      = "receiptTokenManager"
	EffectReceiptTokenID           = "receiptTokenID"
	EffectFacilityReclaimRate      = "facilityReclaimRate"
	EffectFacilityCommittedAmount  = "facilityCommittedAmount"
	EffectFacilityClaimableYield   = "facilityClaimableYield"
	EffectPosition                 = "position"
	EffectUserPositionIDs          = "userPositionIDs"
	EffectPositions                = "positions"
	EffectVaultInterestRate        = "vaultInterestRate"
	EffectVaultMaxBorrowPercentage = "vaultMaxBorrowPercentage"
	EffectVaultClaimDefaultReward  = "vaultClaimDefaultReward"
	EffectVaultRedemption          = "vaultRedemption"
	EffectVaultLoan                = "vaultLoan"
	EffectBlockTimestamp           = "blockTimestamp"
)

type addrKey struct {
	chain uint64
	addr  common.Address
}

type pairKey struct {
	chain uint64
	a, b  common.Address
}

type periodKey struct {
	chain  uint64
	a, b   common.Address
	months uint8
}

type receiptIDKey struct {
	chain    uint64
	manager  common.Address
	asset    common.Address
	facility common.Address
	months   uint8
}

type vaultAssetKey struct {
	chain    uint64
	vault    common.Address
	facility common.Address
	asset    common.Address
}

type blockKey struct {
	chain uint64
	block uint64
}

// liveKey identifies an in-flight live read. at is "latest" or a block number.
type liveKey struct {
	chain uint64
	a, b  common.Address
	arg   string
	at    string
}

// Fetcher is the read-through layer every handler and accessor reads the
// chain through. Values returned by cached effects are shared and must not
// be mutated.
type Fetcher struct {
	reader Reader
	pin    bool
	remote Remote
	log    *logger.Logger

	assetDecimals            *effect[addrKey, uint8]
	assetName                *effect[addrKey, string]
	assetSymbol              *effect[addrKey, string]
	auctioneerVersion        *effect[addrKey, Version]
	auctioneerTrackingPeriod *effect[addrKey, uint8]
	auctioneerDepositAsset   *effect[addrKey, common.Address]
	auctioneerTickStep       *effect[addrKey, *big.Int]
	auctioneerParameters     *effect[liveKey, AuctionParameters]
	auctioneerCurrentTick    *effect[liveKey, Tick]
	auctioneerDayState       *effect[liveKey, DayState]
	facilityDepositManager   *effect[addrKey, common.Address]
	receiptTokenManager      *effect[addrKey, common.Address]
	receiptTokenID           *effect[receiptIDKey, *big.Int]
	facilityReclaimRate      *effect[periodKey, *big.Int]
	facilityCommittedAmount  *effect[liveKey, *big.Int]
	facilityClaimableYield   *effect[liveKey, *big.Int]
	position                 *effect[liveKey, Position]
	userPositionIDs          *effect[liveKey, []*big.Int]
	positions                *effect[liveKey, []Position]
	vaultInterestRate        *effect[vaultAssetKey, *big.Int]
	vaultMaxBorrowPercentage *effect[vaultAssetKey, *big.Int]
	vaultClaimDefaultReward  *effect[addrKey, *big.Int]
	vaultRedemption          *effect[liveKey, Redemption]
	vaultLoan                *effect[liveKey, Loan]
	blockTimestamp           *effect[blockKey, uint64]
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithPinnedReads runs live reads at the block being handled instead of
// the chain head.
func WithPinnedReads(pin bool) Option {
	return func(f *Fetcher) { f.pin = pin }
}

// WithRemoteCache adds a shared cache behind the in-process one.
func WithRemoteCache(r Remote) Option {
	return func(f *Fetcher) { f.remote = r }
}

func WithLogger(log *logger.Logger) Option {
	return func(f *Fetcher) { f.log = log }
}

// NewFetcher wraps reader with the effect table.
func NewFetcher(reader Reader, opts ...Option) *Fetcher {
	f := &Fetcher{reader: reader, log: logger.NewNopLogger()}
	for _, opt := range opts {
		opt(f)
	}

	f.assetDecimals = newEffect[addrKey, uint8](EffectAssetDecimals, Cached, f.remote, f.log)
	f.assetName = newEffect[addrKey, string](EffectAssetName, Cached, f.remote, f.log)
	f.assetSymbol = newEffect[addrKey, string](EffectAssetSymbol, Cached, f.remote, f.log)
	f.auctioneerVersion = newEffect[addrKey, Version](EffectAuctioneerVersion, Cached, f.remote, f.log)
	f.auctioneerTrackingPeriod = newEffect[addrKey, uint8](EffectAuctioneerTrackingPeriod, Cached, f.remote, f.log)
	f.auctioneerDepositAsset = newEffect[addrKey, common.Address](EffectAuctioneerDepositAsset, Cached, f.remote, f.log)
	f.auctioneerTickStep = newEffect[addrKey, *big.Int](EffectAuctioneerTickStep, Cached, f.remote, f.log)
	f.auctioneerParameters = newEffect[liveKey, AuctionParameters](EffectAuctioneerParameters, Live, nil, f.log)
	f.auctioneerCurrentTick = newEffect[liveKey, Tick](EffectAuctioneerCurrentTick, Live, nil, f.log)
	f.auctioneerDayState = newEffect[liveKey, DayState](EffectAuctioneerDayState, Live, nil, f.log)
	f.facilityDepositManager = newEffect[addrKey, common.Address](EffectFacilityDepositManager, Cached, f.remote, f.log)
	f.receiptTokenManager = newEffect[addrKey, common.Address](EffectReceiptTokenManager, Cached, f.remote, f.log)
	f.receiptTokenID = newEffect[receiptIDKey, *big.Int](EffectReceiptTokenID, Cached, f.remote, f.log)
	f.facilityReclaimRate = newEffect[periodKey, *big.Int](EffectFacilityReclaimRate, Cached, f.remote, f.log)
	f.facilityCommittedAmount = newEffect[liveKey, *big.Int](EffectFacilityCommittedAmount, Live, nil, f.log)
	f.facilityClaimableYield = newEffect[liveKey, *big.Int](EffectFacilityClaimableYield, Live, nil, f.log)
	f.position = newEffect[liveKey, Position](EffectPosition, Live, nil, f.log)
	f.userPositionIDs = newEffect[liveKey, []*big.Int](EffectUserPositionIDs, Live, nil, f.log)
	f.positions = newEffect[liveKey, []Position](EffectPositions, Live, nil, f.log)
	f.vaultInterestRate = newEffect[vaultAssetKey, *big.Int](EffectVaultInterestRate, Cached, f.remote, f.log)
	f.vaultMaxBorrowPercentage = newEffect[vaultAssetKey, *big.Int](EffectVaultMaxBorrowPercentage, Cached, f.remote, f.log)
	f.vaultClaimDefaultReward = newEffect[addrKey, *big.Int](EffectVaultClaimDefaultReward, Cached, f.remote, f.log)
	f.vaultRedemption = newEffect[liveKey, Redemption](EffectVaultRedemption, Live, nil, f.log)
	f.vaultLoan = newEffect[liveKey, Loan](EffectVaultLoan, Live, nil, f.log)
	f.blockTimestamp = newEffect[blockKey, uint64](EffectBlockTimestamp, Cached, f.remote, f.log)

	return f
}

// PinnedReads reports whether live reads run at the handled block.
func (f *Fetcher) PinnedReads() bool {
	return f.pin
}

// at returns the block argument for a live read at block.
func (f *Fetcher) at(block uint64) (*big.Int, string) {
	if !f.pin {
		return nil, "latest"
	}
	return new(big.Int).SetUint64(block), strconv.FormatUint(block, 10)
}

func (f *Fetcher) AssetDecimals(ctx context.Context, chainID uint64, asset common.Address) (uint8, error) {
	return f.assetDecimals.get(ctx, chainID, asset, addrKey{chainID, asset}, func(ctx context.Context) (uint8, error) {
		return f.reader.AssetDecimals(ctx, chainID, asset)
	})
}

func (f *Fetcher) AssetName(ctx context.Context, chainID uint64, asset common.Address) (string, error) {
	return f.assetName.get(ctx, chainID, asset, addrKey{chainID, asset}, func(ctx context.Context) (string, error) {
		return f.reader.AssetName(ctx, chainID, asset)
	})
}

func (f *Fetcher) AssetSymbol(ctx context.Context, chainID uint64, asset common.Address) (string, error) {
	return f.assetSymbol.get(ctx, chainID, asset, addrKey{chainID, asset}, func(ctx context.Context) (string, error) {
		return f.reader.AssetSymbol(ctx, chainID, asset)
	})
}

func (f *Fetcher) AuctioneerVersion(ctx context.Context, chainID uint64, auctioneer common.Address) (Version, error) {
	return f.auctioneerVersion.get(ctx, chainID, auctioneer, addrKey{chainID, auctioneer},
		func(ctx context.Context) (Version, error) {
			return f.reader.AuctioneerVersion(ctx, chainID, auctioneer)
		})
}

func (f *Fetcher) AuctioneerTrackingPeriod(ctx context.Context, chainID uint64, auctioneer common.Address) (uint8, error) {
	return f.auctioneerTrackingPeriod.get(ctx, chainID, auctioneer, addrKey{chainID, auctioneer},
		func(ctx context.Context) (uint8, error) {
			return f.reader.AuctioneerTrackingPeriod(ctx, chainID, auctioneer)
		})
}

func (f *Fetcher) AuctioneerDepositAsset(
	ctx context.Context, chainID uint64, auctioneer common.Address,
) (common.Address, error) {
	return f.auctioneerDepositAsset.get(ctx, chainID, auctioneer, addrKey{chainID, auctioneer},
		func(ctx context.Context) (common.Address, error) {
			return f.reader.AuctioneerDepositAsset(ctx, chainID, auctioneer)
		})
}

func (f *Fetcher) AuctioneerTickStep(ctx context.Context, chainID uint64, auctioneer common.Address) (*big.Int, error) {
	return f.auctioneerTickStep.get(ctx, chainID, auctioneer, addrKey{chainID, auctioneer},
		func(ctx context.Context) (*big.Int, error) {
			return f.reader.AuctioneerTickStep(ctx, chainID, auctioneer)
		})
}

func (f *Fetcher) AuctioneerParameters(
	ctx context.Context, chainID uint64, auctioneer common.Address, block uint64,
) (AuctionParameters, error) {
	num, at := f.at(block)
	return f.auctioneerParameters.get(ctx, chainID, auctioneer, liveKey{chain: chainID, a: auctioneer, at: at},
		func(ctx context.Context) (AuctionParameters, error) {
			return f.reader.AuctioneerParameters(ctx, chainID, auctioneer, num)
		})
}

func (f *Fetcher) AuctioneerCurrentTick(
	ctx context.Context, chainID uint64, auctioneer common.Address, periodMonths uint8, block uint64,
) (Tick, error) {
	num, at := f.at(block)
	key := liveKey{chain: chainID, a: auctioneer, arg: strconv.Itoa(int(periodMonths)), at: at}
	return f.auctioneerCurrentTick.get(ctx, chainID, auctioneer, key, func(ctx context.Context) (Tick, error) {
		return f.reader.AuctioneerCurrentTick(ctx, chainID, auctioneer, periodMonths, num)
	})
}

func (f *Fetcher) AuctioneerDayState(
	ctx context.Context, chainID uint64, auctioneer common.Address, block uint64,
) (DayState, error) {
	num, at := f.at(block)
	return f.auctioneerDayState.get(ctx, chainID, auctioneer, liveKey{chain: chainID, a: auctioneer, at: at},
		func(ctx context.Context) (DayState, error) {
			return f.reader.AuctioneerDayState(ctx, chainID, auctioneer, num)
		})
}

func (f *Fetcher) FacilityDepositManager(
	ctx context.Context, chainID uint64, facility common.Address,
) (common.Address, error) {
	return f.facilityDepositManager.get(ctx, chainID, facility, addrKey{chainID, facility},
		func(ctx context.Context) (common.Address, error) {
			return f.reader.FacilityDepositManager(ctx, chainID, facility)
		})
}

func (f *Fetcher) ReceiptTokenManager(
	ctx context.Context, chainID uint64, depositManager common.Address,
) (common.Address, error) {
	return f.receiptTokenManager.get(ctx, chainID, depositManager, addrKey{chainID, depositManager},
		func(ctx context.Context) (common.Address, error) {
			return f.reader.ReceiptTokenManager(ctx, chainID, depositManager)
		})
}

func (f *Fetcher) ReceiptTokenID(
	ctx context.Context, chainID uint64, depositManager, asset common.Address, periodMonths uint8,
	facility common.Address,
) (*big.Int, error) {
	key := receiptIDKey{chain: chainID, manager: depositManager, asset: asset, facility: facility, months: periodMonths}
	return f.receiptTokenID.get(ctx, chainID, depositManager, key, func(ctx context.Context) (*big.Int, error) {
		return f.reader.ReceiptTokenID(ctx, chainID, depositManager, asset, periodMonths, facility)
	})
}

// ReceiptToken resolves the receipt token of a facility asset period in
// stages: the facility's deposit manager, then that manager's token manager
// and token id.
func (f *Fetcher) ReceiptToken(
	ctx context.Context, chainID uint64, facility, asset common.Address, periodMonths uint8,
) (common.Address, *big.Int, error) {
	depositManager, err := f.FacilityDepositManager(ctx, chainID, facility)
	if err != nil {
		return common.Address{}, nil, err
	}

	tokenManager, err := f.ReceiptTokenManager(ctx, chainID, depositManager)
	if err != nil {
		return common.Address{}, nil, err
	}

	tokenID, err := f.ReceiptTokenID(ctx, chainID, depositManager, asset, periodMonths, facility)
	if err != nil {
		return common.Address{}, nil, err
	}

	return tokenManager, tokenID, nil
}

func (f *Fetcher) FacilityReclaimRate(
	ctx context.Context, chainID uint64, facility, asset common.Address, periodMonths uint8,
) (*big.Int, error) {
	key := periodKey{chain: chainID, a: facility, b: asset, months: periodMonths}
	return f.facilityReclaimRate.get(ctx, chainID, facility, key, func(ctx context.Context) (*big.Int, error) {
		return f.reader.FacilityReclaimRate(ctx, chainID, facility, asset, periodMonths)
	})
}

func (f *Fetcher) FacilityCommittedAmount(
	ctx context.Context, chainID uint64, facility, asset common.Address, block uint64,
) (*big.Int, error) {
	num, at := f.at(block)
	key := liveKey{chain: chainID, a: facility, b: asset, at: at}
	return f.facilityCommittedAmount.get(ctx, chainID, facility, key, func(ctx context.Context) (*big.Int, error) {
		return f.reader.FacilityCommittedAmount(ctx, chainID, facility, asset, num)
	})
}

func (f *Fetcher) FacilityClaimableYield(
	ctx context.Context, chainID uint64, facility, asset common.Address, block uint64,
) (*big.Int, error) {
	num, at := f.at(block)
	key := liveKey{chain: chainID, a: facility, b: asset, at: at}
	return f.facilityClaimableYield.get(ctx, chainID, facility, key, func(ctx context.Context) (*big.Int, error) {
		return f.reader.FacilityClaimableYield(ctx, chainID, facility, asset, num)
	})
}

func (f *Fetcher) Position(ctx context.Context, chainID uint64, positionID *big.Int, block uint64) (Position, error) {
	num, at := f.at(block)
	key := liveKey{chain: chainID, arg: positionID.String(), at: at}
	return f.position.get(ctx, chainID, common.Address{}, key, func(ctx context.Context) (Position, error) {
		return f.reader.Position(ctx, chainID, positionID, num)
	})
}

func (f *Fetcher) UserPositionIDs(
	ctx context.Context, chainID uint64, user common.Address, block uint64,
) ([]*big.Int, error) {
	num, at := f.at(block)
	key := liveKey{chain: chainID, a: user, at: at}
	return f.userPositionIDs.get(ctx, chainID, user, key, func(ctx context.Context) ([]*big.Int, error) {
		return f.reader.UserPositionIDs(ctx, chainID, user, num)
	})
}

// Positions reads many positions at once. The result is index-aligned with
// positionIDs.
func (f *Fetcher) Positions(
	ctx context.Context, chainID uint64, positionIDs []*big.Int, block uint64,
) ([]Position, error) {
	if len(positionIDs) == 0 {
		return []Position{}, nil
	}

	parts := make([]string, len(positionIDs))
	for i, id := range positionIDs {
		parts[i] = id.String()
	}

	num, at := f.at(block)
	key := liveKey{chain: chainID, arg: strings.Join(parts, ","), at: at}
	return f.positions.get(ctx, chainID, common.Address{}, key, func(ctx context.Context) ([]Position, error) {
		return f.reader.Positions(ctx, chainID, positionIDs, num)
	})
}

func (f *Fetcher) VaultInterestRate(
	ctx context.Context, chainID uint64, vault, facility, asset common.Address,
) (*big.Int, error) {
	key := vaultAssetKey{chain: chainID, vault: vault, facility: facility, asset: asset}
	return f.vaultInterestRate.get(ctx, chainID, vault, key, func(ctx context.Context) (*big.Int, error) {
		return f.reader.VaultInterestRate(ctx, chainID, vault, facility, asset)
	})
}

func (f *Fetcher) VaultMaxBorrowPercentage(
	ctx context.Context, chainID uint64, vault, facility, asset common.Address,
) (*big.Int, error) {
	key := vaultAssetKey{chain: chainID, vault: vault, facility: facility, asset: asset}
	return f.vaultMaxBorrowPercentage.get(ctx, chainID, vault, key,
		func(ctx context.Context) (*big.Int, error) {
			return f.reader.VaultMaxBorrowPercentage(ctx, chainID, vault, facility, asset)
		})
}

func (f *Fetcher) VaultClaimDefaultReward(ctx context.Context, chainID uint64, vault common.Address) (*big.Int, error) {
	return f.vaultClaimDefaultReward.get(ctx, chainID, vault, addrKey{chainID, vault},
		func(ctx context.Context) (*big.Int, error) {
			return f.reader.VaultClaimDefaultReward(ctx, chainID, vault)
		})
}

func (f *Fetcher) VaultRedemption(
	ctx context.Context, chainID uint64, vault, user common.Address, redemptionID uint64, block uint64,
) (Redemption, error) {
	num, at := f.at(block)
	key := liveKey{chain: chainID, a: vault, b: user, arg: strconv.FormatUint(redemptionID, 10), at: at}
	return f.vaultRedemption.get(ctx, chainID, vault, key, func(ctx context.Context) (Redemption, error) {
		return f.reader.VaultRedemption(ctx, chainID, vault, user, redemptionID, num)
	})
}

func (f *Fetcher) VaultLoan(
	ctx context.Context, chainID uint64, vault, user common.Address, redemptionID uint64, block uint64,
) (Loan, error) {
	num, at := f.at(block)
	key := liveKey{chain: chainID, a: vault, b: user, arg: strconv.FormatUint(redemptionID, 10), at: at}
	return f.vaultLoan.get(ctx, chainID, vault, key, func(ctx context.Context) (Loan, error) {
		return f.reader.VaultLoan(ctx, chainID, vault, user, redemptionID, num)
	})
}

func (f *Fetcher) BlockTimestamp(ctx context.Context, chainID uint64, block uint64) (uint64, error) {
	return f.blockTimestamp.get(ctx, chainID, common.Address{}, blockKey{chainID, block},
		func(ctx context.Context) (uint64, error) {
			return f.reader.BlockTimestamp(ctx, chainID, block)
		})
}
