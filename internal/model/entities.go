package model

import "math/big"

type Asset struct {
	Key
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
}

type DepositAsset struct {
	Key
	AssetID string `json:"assetId"`
	Address string `json:"address"`
	Enabled bool   `json:"enabled"`
}

type DepositAssetPeriod struct {
	Key
	DepositAssetID string `json:"depositAssetId"`
	AssetID        string `json:"assetId"`
	PeriodMonths   uint8  `json:"periodMonths"`
	Enabled        bool   `json:"enabled"`
}

type Auctioneer struct {
	Key
	Address               string `json:"address"`
	MajorVersion          uint8  `json:"majorVersion"`
	MinorVersion          uint8  `json:"minorVersion"`
	Enabled               bool   `json:"enabled"`
	DepositAssetID        string `json:"depositAssetId"`
	AuctionTrackingPeriod uint8  `json:"auctionTrackingPeriod"`
	Target                Amount `json:"target"`
	TickSize              Amount `json:"tickSize"`
	MinPrice              Amount `json:"minPrice"`
	TickStep              Amount `json:"tickStep"`
}

type AuctioneerDepositPeriod struct {
	Key
	AuctioneerID         string `json:"auctioneerId"`
	DepositAssetPeriodID string `json:"depositAssetPeriodId"`
	PeriodMonths         uint8  `json:"periodMonths"`
	Enabled              bool   `json:"enabled"`
	TickPrice            Amount `json:"tickPrice"`
	TickCapacity         Amount `json:"tickCapacity"`
	TickLastUpdate       uint64 `json:"tickLastUpdate"`
}

type DepositFacility struct {
	Key
	Address string `json:"address"`
	Enabled bool   `json:"enabled"`
}

type DepositFacilityAsset struct {
	Key
	FacilityID      string `json:"facilityId"`
	DepositAssetID  string `json:"depositAssetId"`
	CommittedAmount Amount `json:"committedAmount"`
}

type DepositFacilityAssetPeriod struct {
	Key
	FacilityID           string `json:"facilityId"`
	FacilityAssetID      string `json:"facilityAssetId"`
	DepositAssetPeriodID string `json:"depositAssetPeriodId"`
	ReclaimRate          Amount `json:"reclaimRate"`
}

type Depositor struct {
	Key
	Address string `json:"address"`
}

type ReceiptToken struct {
	Key
	Manager              string   `json:"manager"`
	TokenID              *big.Int `json:"tokenId"`
	FacilityID           string   `json:"facilityId"`
	DepositAssetPeriodID string   `json:"depositAssetPeriodId"`
}

// Position is a convertible deposit position. ConversionPrice is nil when the
// contract reports no fixed price.
type Position struct {
	Key
	PositionID      *big.Int `json:"positionId"`
	FacilityID      string   `json:"facilityId"`
	DepositorID     string   `json:"depositorId"`
	AssetPeriodID   string   `json:"assetPeriodId"`
	ReceiptTokenID  string   `json:"receiptTokenId"`
	TxHash          string   `json:"txHash"`
	Block           uint64   `json:"block"`
	Timestamp       uint64   `json:"timestamp"`
	InitialAmount   Amount   `json:"initialAmount"`
	RemainingAmount Amount   `json:"remainingAmount"`
	ConversionPrice *Amount  `json:"conversionPrice,omitempty"`
	Expiry          uint64   `json:"expiry"`
	Wrapped         bool     `json:"wrapped"`
}

// RedemptionStatus tracks a redemption through its lifecycle.
type RedemptionStatus string

const (
	RedemptionStarted   RedemptionStatus = "started"
	RedemptionCancelled RedemptionStatus = "cancelled"
	RedemptionFinished  RedemptionStatus = "finished"
)

type Redemption struct {
	Key
	RedemptionID   uint64           `json:"redemptionId"`
	DepositorID    string           `json:"depositorId"`
	VaultID        string           `json:"vaultId"`
	FacilityID     string           `json:"facilityId"`
	AssetPeriodID  string           `json:"assetPeriodId"`
	ReceiptTokenID string           `json:"receiptTokenId"`
	PositionID     string           `json:"positionId,omitempty"`
	Amount         Amount           `json:"amount"`
	RedeemableAt   uint64           `json:"redeemableAt"`
	Status         RedemptionStatus `json:"status"`
}

// LoanStatus is the state of a redemption loan.
type LoanStatus string

const (
	LoanActive    LoanStatus = "active"
	LoanRepaid    LoanStatus = "repaid"
	LoanDefaulted LoanStatus = "defaulted"
)

type RedemptionLoan struct {
	Key
	VaultID          string     `json:"vaultId"`
	RedemptionID     string     `json:"redemptionId"`
	DepositorID      string     `json:"depositorId"`
	InitialPrincipal Amount     `json:"initialPrincipal"`
	Principal        Amount     `json:"principal"`
	Interest         Amount     `json:"interest"`
	CreatedAt        uint64     `json:"createdAt"`
	DueDate          uint64     `json:"dueDate"`
	Status           LoanStatus `json:"status"`
}

type RedemptionVault struct {
	Key
	Address                      string `json:"address"`
	Enabled                      bool   `json:"enabled"`
	ClaimDefaultRewardPercentage Amount `json:"claimDefaultRewardPercentage"`
}

type RedemptionVaultAssetConfiguration struct {
	Key
	VaultID             string `json:"vaultId"`
	FacilityID          string `json:"facilityId"`
	DepositAssetID      string `json:"depositAssetId"`
	AnnualInterestRate  Amount `json:"annualInterestRate"`
	MaxBorrowPercentage Amount `json:"maxBorrowPercentage"`
}
