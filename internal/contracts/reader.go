package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Reader issues raw contract reads with no caching. Methods taking a block
// read at that block; a nil block reads the chain head.
type Reader interface {
	AssetDecimals(ctx context.Context, chainID uint64, asset common.Address) (uint8, error)
	AssetName(ctx context.Context, chainID uint64, asset common.Address) (string, error)
	AssetSymbol(ctx context.Context, chainID uint64, asset common.Address) (string, error)

	AuctioneerVersion(ctx context.Context, chainID uint64, auctioneer common.Address) (Version, error)
	AuctioneerTrackingPeriod(ctx context.Context, chainID uint64, auctioneer common.Address) (uint8, error)
	AuctioneerDepositAsset(ctx context.Context, chainID uint64, auctioneer common.Address) (common.Address, error)
	AuctioneerTickStep(ctx context.Context, chainID uint64, auctioneer common.Address) (*big.Int, error)
	AuctioneerParameters(
		ctx context.Context, chainID uint64, auctioneer common.Address, block *big.Int,
	) (AuctionParameters, error)
	AuctioneerCurrentTick(
		ctx context.Context, chainID uint64, auctioneer common.Address, periodMonths uint8, block *big.Int,
	) (Tick, error)
	AuctioneerDayState(ctx context.Context, chainID uint64, auctioneer common.Address, block *big.Int) (DayState, error)

	FacilityDepositManager(ctx context.Context, chainID uint64, facility common.Address) (common.Address, error)
	FacilityReclaimRate(
		ctx context.Context, chainID uint64, facility, asset common.Address, periodMonths uint8,
	) (*big.Int, error)
	FacilityCommittedAmount(
		ctx context.Context, chainID uint64, facility, asset common.Address, block *big.Int,
	) (*big.Int, error)
	FacilityClaimableYield(
		ctx context.Context, chainID uint64, facility, asset common.Address, block *big.Int,
	) (*big.Int, error)

	ReceiptTokenManager(ctx context.Context, chainID uint64, depositManager common.Address) (common.Address, error)
	ReceiptTokenID(
		ctx context.Context, chainID uint64, depositManager, asset common.Address, periodMonths uint8,
		facility common.Address,
	) (*big.Int, error)

	Position(ctx context.Context, chainID uint64, positionID *big.Int, block *big.Int) (Position, error)
	Positions(ctx context.Context, chainID uint64, positionIDs []*big.Int, block *big.Int) ([]Position, error)
	UserPositionIDs(ctx context.Context, chainID uint64, user common.Address, block *big.Int) ([]*big.Int, error)

	VaultInterestRate(ctx context.Context, chainID uint64, vault, facility, asset common.Address) (*big.Int, error)
	VaultMaxBorrowPercentage(
		ctx context.Context, chainID uint64, vault, facility, asset common.Address,
	) (*big.Int, error)
	VaultClaimDefaultReward(ctx context.Context, chainID uint64, vault common.Address) (*big.Int, error)
	VaultRedemption(
		ctx context.Context, chainID uint64, vault, user common.Address, redemptionID uint64, block *big.Int,
	) (Redemption, error)
	VaultLoan(
		ctx context.Context, chainID uint64, vault, user common.Address, redemptionID uint64, block *big.Int,
	) (Loan, error)

	BlockTimestamp(ctx context.Context, chainID uint64, block uint64) (uint64, error)
}
