// Package model defines the persisted entity graph: current-state entities,
// immutable snapshots and per-event history records.
package model

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/goran-ethernal/DepositIndexor/internal/fixedpoint"
)

// Entity is implemented by everything the store persists.
type Entity interface {
	EntityID() string
	EntityChainID() uint64
}

// Key carries the id and chain of an entity.
type Key struct {
	ID      string `json:"id"`
	ChainID uint64 `json:"chainId"`
}

func (k Key) EntityID() string      { return k.ID }
func (k Key) EntityChainID() uint64 { return k.ChainID }

// Amount is a raw fixed-point integer together with its decimal form.
// Build it with NewAmount so the two always agree.
type Amount struct {
	Raw     *big.Int        `json:"raw"`
	Decimal decimal.Decimal `json:"decimal"`
}

// NewAmount converts raw with the given precision.
func NewAmount(raw *big.Int, decimals uint8) Amount {
	if raw == nil {
		raw = new(big.Int)
	}
	return Amount{Raw: new(big.Int).Set(raw), Decimal: fixedpoint.ToDecimal(raw, decimals)}
}

// OhmAmount converts a 9-decimal OHM value.
func OhmAmount(raw *big.Int) Amount { return NewAmount(raw, fixedpoint.OhmDecimals) }

// BpsAmount converts a 4-decimal basis-point value.
func BpsAmount(raw *big.Int) Amount { return NewAmount(raw, fixedpoint.BpsDecimals) }

// ZeroAmount is a zero value with a non-nil raw part.
func ZeroAmount() Amount { return NewAmount(new(big.Int), 0) }

// Add returns a new Amount of a.Raw + delta. delta may be negative.
func (a Amount) Add(delta *big.Int, decimals uint8) Amount {
	sum := new(big.Int)
	if a.Raw != nil {
		sum.Set(a.Raw)
	}
	if delta != nil {
		sum.Add(sum, delta)
	}
	return NewAmount(sum, decimals)
}

// IsZero reports whether the raw part is zero.
func (a Amount) IsZero() bool {
	return a.Raw == nil || a.Raw.Sign() == 0
}

// OptionalAmount converts raw unless it is the max-uint256 sentinel, in
// which case it returns nil.
func OptionalAmount(raw *big.Int, decimals uint8) *Amount {
	if fixedpoint.OrNil(raw) == nil {
		return nil
	}
	a := NewAmount(raw, decimals)
	return &a
}

// Entity kinds, used as store table names.
const (
	KindAsset                             = "Asset"
	KindDepositAsset                      = "DepositAsset"
	KindDepositAssetPeriod                = "DepositAssetPeriod"
	KindAuctioneer                        = "Auctioneer"
	KindAuctioneerDepositPeriod           = "AuctioneerDepositPeriod"
	KindDepositFacility                   = "DepositFacility"
	KindDepositFacilityAsset              = "DepositFacilityAsset"
	KindDepositFacilityAssetPeriod        = "DepositFacilityAssetPeriod"
	KindDepositor                         = "Depositor"
	KindPosition                          = "ConvertibleDepositPosition"
	KindReceiptToken                      = "ReceiptToken"
	KindRedemption                        = "Redemption"
	KindRedemptionLoan                    = "RedemptionLoan"
	KindRedemptionVault                   = "RedemptionVault"
	KindRedemptionVaultAssetConfiguration = "RedemptionVaultAssetConfiguration"

	KindLatestSnapshot                  = "LatestSnapshot"
	KindAuctioneerSnapshot              = "AuctioneerSnapshot"
	KindAuctioneerDepositPeriodSnapshot = "AuctioneerDepositPeriodSnapshot"
	KindFacilitySnapshot                = "FacilitySnapshot"
	KindFacilityAssetSnapshot           = "FacilityAssetSnapshot"
)

// EntityKinds lists the current-state and snapshot kinds.
var EntityKinds = []string{
	KindAsset,
	KindDepositAsset,
	KindDepositAssetPeriod,
	KindAuctioneer,
	KindAuctioneerDepositPeriod,
	KindDepositFacility,
	KindDepositFacilityAsset,
	KindDepositFacilityAssetPeriod,
	KindDepositor,
	KindPosition,
	KindReceiptToken,
	KindRedemption,
	KindRedemptionLoan,
	KindRedemptionVault,
	KindRedemptionVaultAssetConfiguration,
	KindLatestSnapshot,
	KindAuctioneerSnapshot,
	KindAuctioneerDepositPeriodSnapshot,
	KindFacilitySnapshot,
	KindFacilityAssetSnapshot,
}
