package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Version is the auctioneer's VERSION() pair.
type Version struct {
	Major uint8 `json:"major"`
	Minor uint8 `json:"minor"`
}

// Tick is the auctioneer's current tick for one deposit period.
type Tick struct {
	Price      *big.Int `json:"price"`
	Capacity   *big.Int `json:"capacity"`
	LastUpdate uint64   `json:"lastUpdate"`
}

// AuctionParameters are the auctioneer's current target, tick size and min price.
type AuctionParameters struct {
	Target   *big.Int `json:"target"`
	TickSize *big.Int `json:"tickSize"`
	MinPrice *big.Int `json:"minPrice"`
}

// DayState is the auctioneer's running tally for the current day.
type DayState struct {
	InitTimestamp uint64   `json:"initTimestamp"`
	Convertible   *big.Int `json:"convertible"`
}

// Position is a deposit position as reported by the position manager.
// ConversionPrice is the max-uint256 sentinel when the position has no conversion path.
type Position struct {
	Operator         common.Address `json:"operator"`
	Owner            common.Address `json:"owner"`
	Asset            common.Address `json:"asset"`
	PeriodMonths     uint8          `json:"periodMonths"`
	RemainingDeposit *big.Int       `json:"remainingDeposit"`
	ConversionPrice  *big.Int       `json:"conversionPrice"`
	Expiry           uint64         `json:"expiry"`
	Wrapped          bool           `json:"wrapped"`
}

// Redemption is a user redemption as reported by the redemption vault.
type Redemption struct {
	DepositToken  common.Address `json:"depositToken"`
	DepositPeriod uint8          `json:"depositPeriod"`
	RedeemableAt  uint64         `json:"redeemableAt"`
	Amount        *big.Int       `json:"amount"`
	Facility      common.Address `json:"facility"`
	PositionID    *big.Int       `json:"positionId"`
}

// Loan is a redemption loan as reported by the redemption vault.
type Loan struct {
	InitialPrincipal *big.Int `json:"initialPrincipal"`
	Principal        *big.Int `json:"principal"`
	Interest         *big.Int `json:"interest"`
	DueDate          uint64   `json:"dueDate"`
	IsDefaulted      bool     `json:"isDefaulted"`
}

// ABI mirrors. Field order follows the tuple components in abi.go.

type abiTick struct {
	Price      *big.Int
	Capacity   *big.Int
	LastUpdate *big.Int
}

type abiAuctionParameters struct {
	Target   *big.Int
	TickSize *big.Int
	MinPrice *big.Int
}

type abiDayState struct {
	InitTimestamp *big.Int
	Convertible   *big.Int
}

type abiPosition struct {
	Operator         common.Address
	Owner            common.Address
	Asset            common.Address
	PeriodMonths     uint8
	RemainingDeposit *big.Int
	ConversionPrice  *big.Int
	Expiry           *big.Int
	Wrapped          bool
	AdditionalData   []byte
}

func (p abiPosition) position() Position {
	return Position{
		Operator:         p.Operator,
		Owner:            p.Owner,
		Asset:            p.Asset,
		PeriodMonths:     p.PeriodMonths,
		RemainingDeposit: p.RemainingDeposit,
		ConversionPrice:  p.ConversionPrice,
		Expiry:           p.Expiry.Uint64(),
		Wrapped:          p.Wrapped,
	}
}

type abiRedemption struct {
	DepositToken  common.Address
	DepositPeriod uint8
	RedeemableAt  *big.Int
	Amount        *big.Int
	Facility      common.Address
	PositionId    *big.Int //nolint:revive,stylecheck
}

type abiLoan struct {
	InitialPrincipal *big.Int
	Principal        *big.Int
	Interest         *big.Int
	DueDate          *big.Int
	IsDefaulted      bool
}

type call3 struct {
	Target       common.Address
	AllowFailure bool
	CallData     []byte
}
