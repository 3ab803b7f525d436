package model

// EventMeta is shared by every event-history record.
type EventMeta struct {
	Key
	TxHash    string `json:"txHash"`
	Block     uint64 `json:"block"`
	LogIndex  uint   `json:"logIndex"`
	Timestamp uint64 `json:"timestamp"`
	Contract  string `json:"contract"`
}

// Event-history kinds. Each is its own store table.
const (
	KindAuctionParametersUpdated     = "Auctioneer_AuctionParametersUpdated"
	KindAuctionResult                = "Auctioneer_AuctionResult"
	KindAuctionTrackingPeriodUpdated = "Auctioneer_AuctionTrackingPeriodUpdated"
	KindBid                          = "Auctioneer_Bid"
	KindDepositPeriodEnableQueued    = "Auctioneer_DepositPeriodEnableQueued"
	KindDepositPeriodEnabled         = "Auctioneer_DepositPeriodEnabled"
	KindDepositPeriodDisableQueued   = "Auctioneer_DepositPeriodDisableQueued"
	KindDepositPeriodDisabled        = "Auctioneer_DepositPeriodDisabled"
	KindAuctioneerEnabled            = "Auctioneer_Enabled"
	KindAuctioneerDisabled           = "Auctioneer_Disabled"
	KindTickStepUpdated              = "Auctioneer_TickStepUpdated"

	KindAssetCommitted            = "Facility_AssetCommitted"
	KindAssetCommitCancelled      = "Facility_AssetCommitCancelled"
	KindAssetCommitWithdrawn      = "Facility_AssetCommitWithdrawn"
	KindAssetPeriodReclaimRateSet = "Facility_AssetPeriodReclaimRateSet"
	KindClaimedYield              = "Facility_ClaimedYield"
	KindConvertedDeposit          = "Facility_ConvertedDeposit"
	KindConvertedDepositPosition  = "Facility_ConvertedDepositPosition"
	KindCreatedDeposit            = "Facility_CreatedDeposit"
	KindFacilityEnabled           = "Facility_Enabled"
	KindFacilityDisabled          = "Facility_Disabled"
	KindOperatorAuthorized        = "Facility_OperatorAuthorized"
	KindOperatorDeauthorized      = "Facility_OperatorDeauthorized"
	KindReclaimed                 = "Facility_Reclaimed"

	KindAnnualInterestRateSet           = "Vault_AnnualInterestRateSet"
	KindClaimDefaultRewardPercentageSet = "Vault_ClaimDefaultRewardPercentageSet"
	KindVaultEnabled                    = "Vault_Enabled"
	KindVaultDisabled                   = "Vault_Disabled"
	KindFacilityAuthorized              = "Vault_FacilityAuthorized"
	KindFacilityDeauthorized            = "Vault_FacilityDeauthorized"
	KindLoanCreated                     = "Vault_LoanCreated"
	KindLoanDefaulted                   = "Vault_LoanDefaulted"
	KindLoanExtended                    = "Vault_LoanExtended"
	KindLoanRepaid                      = "Vault_LoanRepaid"
	KindMaxBorrowPercentageSet          = "Vault_MaxBorrowPercentageSet"
	KindRedemptionCancelled             = "Vault_RedemptionCancelled"
	KindRedemptionFinished              = "Vault_RedemptionFinished"
	KindRedemptionStarted               = "Vault_RedemptionStarted"
)

// ToggleEvent records an Enabled or Disabled event of any contract.
type ToggleEvent struct {
	EventMeta
	ContractID string `json:"contractId"`
}

type AuctionParametersUpdatedEvent struct {
	EventMeta
	AuctioneerID   string `json:"auctioneerId"`
	DepositAssetID string `json:"depositAssetId"`
	NewTarget      Amount `json:"newTarget"`
	NewTickSize    Amount `json:"newTickSize"`
	NewMinPrice    Amount `json:"newMinPrice"`
}

type AuctionResultEvent struct {
	EventMeta
	AuctioneerID   string `json:"auctioneerId"`
	OhmConvertible Amount `json:"ohmConvertible"`
	Target         Amount `json:"target"`
	PeriodIndex    uint8  `json:"periodIndex"`
}

type AuctionTrackingPeriodUpdatedEvent struct {
	EventMeta
	AuctioneerID             string `json:"auctioneerId"`
	NewAuctionTrackingPeriod uint8  `json:"newAuctionTrackingPeriod"`
}

type BidEvent struct {
	EventMeta
	AuctioneerID              string `json:"auctioneerId"`
	AuctioneerDepositPeriodID string `json:"auctioneerDepositPeriodId"`
	DepositorID               string `json:"depositorId"`
	PositionID                string `json:"positionId"`
	DepositAmount             Amount `json:"depositAmount"`
	ConvertedAmount           Amount `json:"convertedAmount"`
	TickPrice                 Amount `json:"tickPrice"`
	TickCapacity              Amount `json:"tickCapacity"`
}

// DepositPeriodEvent records the four deposit-period lifecycle events.
type DepositPeriodEvent struct {
	EventMeta
	AuctioneerID         string `json:"auctioneerId"`
	DepositAssetPeriodID string `json:"depositAssetPeriodId"`
	PeriodMonths         uint8  `json:"periodMonths"`
}

type TickStepUpdatedEvent struct {
	EventMeta
	AuctioneerID string `json:"auctioneerId"`
	NewTickStep  Amount `json:"newTickStep"`
}

// AssetCommitEvent records commit, cancel and withdraw events together with
// the resulting committed amount.
type AssetCommitEvent struct {
	EventMeta
	FacilityID      string `json:"facilityId"`
	FacilityAssetID string `json:"facilityAssetId"`
	Operator        string `json:"operator"`
	Amount          Amount `json:"amount"`
	CommittedAmount Amount `json:"committedAmount"`
}

type AssetPeriodReclaimRateSetEvent struct {
	EventMeta
	FacilityID            string `json:"facilityId"`
	FacilityAssetPeriodID string `json:"facilityAssetPeriodId"`
	ReclaimRate           Amount `json:"reclaimRate"`
}

type ClaimedYieldEvent struct {
	EventMeta
	FacilityID      string `json:"facilityId"`
	FacilityAssetID string `json:"facilityAssetId"`
	Amount          Amount `json:"amount"`
}

type ConvertedDepositEvent struct {
	EventMeta
	FacilityID      string `json:"facilityId"`
	DepositorID     string `json:"depositorId"`
	AssetPeriodID   string `json:"assetPeriodId"`
	DepositAmount   Amount `json:"depositAmount"`
	ConvertedAmount Amount `json:"convertedAmount"`
}

// ConvertedDepositPositionEvent is the per-position breakdown of a
// ConvertedDeposit event.
type ConvertedDepositPositionEvent struct {
	EventMeta
	ConvertedDepositID string `json:"convertedDepositId"`
	PositionID         string `json:"positionId"`
	DepositAmount      Amount `json:"depositAmount"`
	ConvertedAmount    Amount `json:"convertedAmount"`
	RemainingAmount    Amount `json:"remainingAmount"`
}

type CreatedDepositEvent struct {
	EventMeta
	FacilityID    string `json:"facilityId"`
	DepositorID   string `json:"depositorId"`
	AssetPeriodID string `json:"assetPeriodId"`
	PositionID    string `json:"positionId"`
	DepositAmount Amount `json:"depositAmount"`
}

// OperatorEvent records operator authorization changes.
type OperatorEvent struct {
	EventMeta
	FacilityID string `json:"facilityId"`
	Operator   string `json:"operator"`
}

type ReclaimedEvent struct {
	EventMeta
	FacilityID      string `json:"facilityId"`
	DepositorID     string `json:"depositorId"`
	AssetPeriodID   string `json:"assetPeriodId"`
	ReclaimedAmount Amount `json:"reclaimedAmount"`
	ForfeitedAmount Amount `json:"forfeitedAmount"`
}

// VaultAssetRateEvent records interest rate and max-borrow updates.
type VaultAssetRateEvent struct {
	EventMeta
	VaultID         string `json:"vaultId"`
	ConfigurationID string `json:"configurationId"`
	Rate            Amount `json:"rate"`
}

type ClaimDefaultRewardPercentageSetEvent struct {
	EventMeta
	VaultID string `json:"vaultId"`
	Percent Amount `json:"percent"`
}

// FacilityAuthorizationEvent records facility authorization changes.
type FacilityAuthorizationEvent struct {
	EventMeta
	VaultID    string `json:"vaultId"`
	FacilityID string `json:"facilityId"`
}

type LoanCreatedEvent struct {
	EventMeta
	VaultID      string `json:"vaultId"`
	LoanID       string `json:"loanId"`
	RedemptionID string `json:"redemptionId"`
	FacilityID   string `json:"facilityId"`
	Amount       Amount `json:"amount"`
}

type LoanDefaultedEvent struct {
	EventMeta
	VaultID             string `json:"vaultId"`
	LoanID              string `json:"loanId"`
	Principal           Amount `json:"principal"`
	Interest            Amount `json:"interest"`
	RemainingCollateral Amount `json:"remainingCollateral"`
}

type LoanExtendedEvent struct {
	EventMeta
	VaultID    string `json:"vaultId"`
	LoanID     string `json:"loanId"`
	NewDueDate uint64 `json:"newDueDate"`
}

type LoanRepaidEvent struct {
	EventMeta
	VaultID   string `json:"vaultId"`
	LoanID    string `json:"loanId"`
	Principal Amount `json:"principal"`
	Interest  Amount `json:"interest"`
}

type RedemptionCancelledEvent struct {
	EventMeta
	VaultID         string `json:"vaultId"`
	RedemptionID    string `json:"redemptionId"`
	Amount          Amount `json:"amount"`
	RemainingAmount Amount `json:"remainingAmount"`
}

type RedemptionFinishedEvent struct {
	EventMeta
	VaultID      string `json:"vaultId"`
	RedemptionID string `json:"redemptionId"`
	Amount       Amount `json:"amount"`
}

type RedemptionStartedEvent struct {
	EventMeta
	VaultID       string `json:"vaultId"`
	RedemptionID  string `json:"redemptionId"`
	FacilityID    string `json:"facilityId"`
	DepositorID   string `json:"depositorId"`
	AssetPeriodID string `json:"assetPeriodId"`
	Amount        Amount `json:"amount"`
}

// EventKinds lists every event-history kind.
var EventKinds = []string{
	KindAuctionParametersUpdated,
	KindAuctionResult,
	KindAuctionTrackingPeriodUpdated,
	KindBid,
	KindDepositPeriodEnableQueued,
	KindDepositPeriodEnabled,
	KindDepositPeriodDisableQueued,
	KindDepositPeriodDisabled,
	KindAuctioneerEnabled,
	KindAuctioneerDisabled,
	KindTickStepUpdated,
	KindAssetCommitted,
	KindAssetCommitCancelled,
	KindAssetCommitWithdrawn,
	KindAssetPeriodReclaimRateSet,
	KindClaimedYield,
	KindConvertedDeposit,
	KindConvertedDepositPosition,
	KindCreatedDeposit,
	KindFacilityEnabled,
	KindFacilityDisabled,
	KindOperatorAuthorized,
	KindOperatorDeauthorized,
	KindReclaimed,
	KindAnnualInterestRateSet,
	KindClaimDefaultRewardPercentageSet,
	KindVaultEnabled,
	KindVaultDisabled,
	KindFacilityAuthorized,
	KindFacilityDeauthorized,
	KindLoanCreated,
	KindLoanDefaulted,
	KindLoanExtended,
	KindLoanRepaid,
	KindMaxBorrowPercentageSet,
	KindRedemptionCancelled,
	KindRedemptionFinished,
	KindRedemptionStarted,
}
