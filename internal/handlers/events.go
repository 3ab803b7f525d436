package handlers

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/goran-ethernal/DepositIndexor/internal/model"
)

// Event is a decoded log together with where it came from.
type Event[P any] struct {
	Meta   model.Origin
	Params P
}

// Parameter structs. Field names are the camel-cased ABI argument names so
// that the abi package can fill indexed and non-indexed arguments alike.

// NoParams is used by Enabled and Disabled.
type NoParams struct{}

type AuctionParametersUpdatedParams struct {
	DepositAsset common.Address
	NewTarget    *big.Int
	NewTickSize  *big.Int
	NewMinPrice  *big.Int
}

type AuctionResultParams struct {
	DepositAsset   common.Address
	OhmConvertible *big.Int
	Target         *big.Int
	PeriodIndex    uint8
}

type AuctionTrackingPeriodUpdatedParams struct {
	DepositAsset             common.Address
	NewAuctionTrackingPeriod uint8
}

type BidParams struct {
	Bidder          common.Address
	DepositAsset    common.Address
	DepositPeriod   uint8
	DepositAmount   *big.Int
	ConvertedAmount *big.Int
	PositionId      *big.Int //nolint:revive,stylecheck
}

// DepositPeriodParams are shared by the enable and disable lifecycle events.
type DepositPeriodParams struct {
	DepositAsset  common.Address
	DepositPeriod uint8
}

type TickStepUpdatedParams struct {
	DepositAsset common.Address
	NewTickStep  *big.Int
}

// AssetCommitParams are shared by commit, cancel and withdraw.
type AssetCommitParams struct {
	Asset    common.Address
	Operator common.Address
	Amount   *big.Int
}

type AssetPeriodReclaimRateSetParams struct {
	Asset         common.Address
	DepositPeriod uint8
	ReclaimRate   uint16
}

type ClaimedYieldParams struct {
	Asset  common.Address
	Amount *big.Int
}

type ConvertedDepositParams struct {
	Asset           common.Address
	Depositor       common.Address
	PeriodMonths    uint8
	DepositAmount   *big.Int
	ConvertedAmount *big.Int
}

type CreatedDepositParams struct {
	Asset         common.Address
	Depositor     common.Address
	PositionId    *big.Int //nolint:revive,stylecheck
	PeriodMonths  uint8
	DepositAmount *big.Int
}

type OperatorParams struct {
	Operator common.Address
}

type ReclaimedParams struct {
	User            common.Address
	DepositToken    common.Address
	DepositPeriod   uint8
	ReclaimedAmount *big.Int
	ForfeitedAmount *big.Int
}

type AnnualInterestRateSetParams struct {
	Asset    common.Address
	Facility common.Address
	Rate     uint16
}

type MaxBorrowPercentageSetParams struct {
	Asset    common.Address
	Facility common.Address
	Percent  uint16
}

type ClaimDefaultRewardPercentageSetParams struct {
	Percent uint16
}

type FacilityAuthorizationParams struct {
	Facility common.Address
}

type LoanCreatedParams struct {
	User         common.Address
	RedemptionId uint16 //nolint:revive,stylecheck
	Amount       *big.Int
	Facility     common.Address
}

type LoanDefaultedParams struct {
	User                common.Address
	RedemptionId        uint16 //nolint:revive,stylecheck
	Principal           *big.Int
	Interest            *big.Int
	RemainingCollateral *big.Int
}

type LoanExtendedParams struct {
	User         common.Address
	RedemptionId uint16 //nolint:revive,stylecheck
	NewDueDate   *big.Int
}

type LoanRepaidParams struct {
	User         common.Address
	RedemptionId uint16 //nolint:revive,stylecheck
	Principal    *big.Int
	Interest     *big.Int
}

type RedemptionCancelledParams struct {
	User            common.Address
	RedemptionId    uint16 //nolint:revive,stylecheck
	DepositToken    common.Address
	DepositPeriod   uint8
	Amount          *big.Int
	RemainingAmount *big.Int
}

type RedemptionFinishedParams struct {
	User          common.Address
	RedemptionId  uint16 //nolint:revive,stylecheck
	DepositToken  common.Address
	DepositPeriod uint8
	Amount        *big.Int
}

type RedemptionStartedParams struct {
	User          common.Address
	RedemptionId  uint16 //nolint:revive,stylecheck
	DepositToken  common.Address
	DepositPeriod uint8
	Amount        *big.Int
	Facility      common.Address
}

// decode unpacks the data section and the indexed topics of log into a P.
func decode[P any](contract abi.ABI, name string, log types.Log) (P, error) {
	var params P

	event, ok := contract.Events[name]
	if !ok {
		return params, fmt.Errorf("event %s is not part of the contract abi", name)
	}
	if len(log.Topics) == 0 || log.Topics[0] != event.ID {
		return params, fmt.Errorf("log is not a %s event", name)
	}

	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}

	if len(event.Inputs.NonIndexed()) > 0 {
		if err := contract.UnpackIntoInterface(&params, name, log.Data); err != nil {
			return params, fmt.Errorf("failed to unpack %s data: %w", name, err)
		}
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopics(&params, indexed, log.Topics[1:]); err != nil {
			return params, fmt.Errorf("failed to parse %s topics: %w", name, err)
		}
	}

	return params, nil
}
