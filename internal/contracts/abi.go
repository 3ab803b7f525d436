package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// The fragments below cover the view functions and events the indexer uses.
// Struct returns are declared as tuples in contract field order so that
// abi.ConvertType can copy them positionally into the result types.

const erc20JSON = `[
 {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
 {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
 {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

const auctioneerJSON = `[
 {"type":"function","name":"VERSION","stateMutability":"view","inputs":[],"outputs":[{"name":"major","type":"uint8"},{"name":"minor","type":"uint8"}]},
 {"type":"function","name":"getCurrentTick","stateMutability":"view","inputs":[{"name":"depositPeriod_","type":"uint8"}],
  "outputs":[{"name":"tick","type":"tuple","components":[{"name":"price","type":"uint256"},{"name":"capacity","type":"uint256"},{"name":"lastUpdate","type":"uint48"}]}]},
 {"type":"function","name":"getAuctionTrackingPeriod","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
 {"type":"function","name":"getDepositAsset","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
 {"type":"function","name":"getTickStep","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint24"}]},
 {"type":"function","name":"getAuctionParameters","stateMutability":"view","inputs":[],
  "outputs":[{"name":"","type":"tuple","components":[{"name":"target","type":"uint256"},{"name":"tickSize","type":"uint256"},{"name":"minPrice","type":"uint256"}]}]},
 {"type":"function","name":"getDayState","stateMutability":"view","inputs":[],
  "outputs":[{"name":"","type":"tuple","components":[{"name":"initTimestamp","type":"uint48"},{"name":"convertible","type":"uint256"}]}]},

 {"type":"event","name":"AuctionParametersUpdated","anonymous":false,"inputs":[
  {"name":"depositAsset","type":"address","indexed":true},{"name":"newTarget","type":"uint256","indexed":false},
  {"name":"newTickSize","type":"uint256","indexed":false},{"name":"newMinPrice","type":"uint256","indexed":false}]},
 {"type":"event","name":"AuctionResult","anonymous":false,"inputs":[
  {"name":"depositAsset","type":"address","indexed":true},{"name":"ohmConvertible","type":"uint256","indexed":false},
  {"name":"target","type":"uint256","indexed":false},{"name":"periodIndex","type":"uint8","indexed":false}]},
 {"type":"event","name":"AuctionTrackingPeriodUpdated","anonymous":false,"inputs":[
  {"name":"depositAsset","type":"address","indexed":true},{"name":"newAuctionTrackingPeriod","type":"uint8","indexed":false}]},
 {"type":"event","name":"Bid","anonymous":false,"inputs":[
  {"name":"bidder","type":"address","indexed":true},{"name":"depositAsset","type":"address","indexed":true},
  {"name":"depositPeriod","type":"uint8","indexed":true},{"name":"depositAmount","type":"uint256","indexed":false},
  {"name":"convertedAmount","type":"uint256","indexed":false},{"name":"positionId","type":"uint256","indexed":false}]},
 {"type":"event","name":"DepositPeriodEnableQueued","anonymous":false,"inputs":[
  {"name":"depositAsset","type":"address","indexed":true},{"name":"depositPeriod","type":"uint8","indexed":false}]},
 {"type":"event","name":"DepositPeriodEnabled","anonymous":false,"inputs":[
  {"name":"depositAsset","type":"address","indexed":true},{"name":"depositPeriod","type":"uint8","indexed":false}]},
 {"type":"event","name":"DepositPeriodDisableQueued","anonymous":false,"inputs":[
  {"name":"depositAsset","type":"address","indexed":true},{"name":"depositPeriod","type":"uint8","indexed":false}]},
 {"type":"event","name":"DepositPeriodDisabled","anonymous":false,"inputs":[
  {"name":"depositAsset","type":"address","indexed":true},{"name":"depositPeriod","type":"uint8","indexed":false}]},
 {"type":"event","name":"Enabled","anonymous":false,"inputs":[]},
 {"type":"event","name":"Disabled","anonymous":false,"inputs":[]},
 {"type":"event","name":"TickStepUpdated","anonymous":false,"inputs":[
  {"name":"depositAsset","type":"address","indexed":true},{"name":"newTickStep","type":"uint24","indexed":false}]}
]`

const facilityJSON = `[
 {"type":"function","name":"DEPOSIT_MANAGER","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
 {"type":"function","name":"getAssetPeriodReclaimRate","stateMutability":"view",
  "inputs":[{"name":"asset_","type":"address"},{"name":"depositPeriod_","type":"uint8"}],"outputs":[{"name":"","type":"uint16"}]},
 {"type":"function","name":"getCommittedDeposits","stateMutability":"view",
  "inputs":[{"name":"asset_","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"previewClaimYield","stateMutability":"view",
  "inputs":[{"name":"asset_","type":"address"}],"outputs":[{"name":"yieldAssets","type":"uint256"}]},

 {"type":"event","name":"AssetCommitted","anonymous":false,"inputs":[
  {"name":"asset","type":"address","indexed":true},{"name":"operator","type":"address","indexed":true},
  {"name":"amount","type":"uint256","indexed":false}]},
 {"type":"event","name":"AssetCommitCancelled","anonymous":false,"inputs":[
  {"name":"asset","type":"address","indexed":true},{"name":"operator","type":"address","indexed":true},
  {"name":"amount","type":"uint256","indexed":false}]},
 {"type":"event","name":"AssetCommitWithdrawn","anonymous":false,"inputs":[
  {"name":"asset","type":"address","indexed":true},{"name":"operator","type":"address","indexed":true},
  {"name":"amount","type":"uint256","indexed":false}]},
 {"type":"event","name":"AssetPeriodReclaimRateSet","anonymous":false,"inputs":[
  {"name":"asset","type":"address","indexed":true},{"name":"depositPeriod","type":"uint8","indexed":true},
  {"name":"reclaimRate","type":"uint16","indexed":false}]},
 {"type":"event","name":"ClaimedYield","anonymous":false,"inputs":[
  {"name":"asset","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
 {"type":"event","name":"ConvertedDeposit","anonymous":false,"inputs":[
  {"name":"asset","type":"address","indexed":true},{"name":"depositor","type":"address","indexed":true},
  {"name":"periodMonths","type":"uint8","indexed":false},{"name":"depositAmount","type":"uint256","indexed":false},
  {"name":"convertedAmount","type":"uint256","indexed":false}]},
 {"type":"event","name":"CreatedDeposit","anonymous":false,"inputs":[
  {"name":"asset","type":"address","indexed":true},{"name":"depositor","type":"address","indexed":true},
  {"name":"positionId","type":"uint256","indexed":true},{"name":"periodMonths","type":"uint8","indexed":false},
  {"name":"depositAmount","type":"uint256","indexed":false}]},
 {"type":"event","name":"Enabled","anonymous":false,"inputs":[]},
 {"type":"event","name":"Disabled","anonymous":false,"inputs":[]},
 {"type":"event","name":"OperatorAuthorized","anonymous":false,"inputs":[{"name":"operator","type":"address","indexed":true}]},
 {"type":"event","name":"OperatorDeauthorized","anonymous":false,"inputs":[{"name":"operator","type":"address","indexed":true}]},
 {"type":"event","name":"Reclaimed","anonymous":false,"inputs":[
  {"name":"user","type":"address","indexed":true},{"name":"depositToken","type":"address","indexed":true},
  {"name":"depositPeriod","type":"uint8","indexed":false},{"name":"reclaimedAmount","type":"uint256","indexed":false},
  {"name":"forfeitedAmount","type":"uint256","indexed":false}]}
]`

const depositManagerJSON = `[
 {"type":"function","name":"getReceiptTokenManager","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
 {"type":"function","name":"getReceiptTokenId","stateMutability":"view",
  "inputs":[{"name":"asset_","type":"address"},{"name":"depositPeriod_","type":"uint8"},{"name":"operator_","type":"address"}],
  "outputs":[{"name":"","type":"uint256"}]}
]`

const positionManagerJSON = `[
 {"type":"function","name":"getPosition","stateMutability":"view","inputs":[{"name":"positionId_","type":"uint256"}],
  "outputs":[{"name":"","type":"tuple","components":[
   {"name":"operator","type":"address"},{"name":"owner","type":"address"},{"name":"asset","type":"address"},
   {"name":"periodMonths","type":"uint8"},{"name":"remainingDeposit","type":"uint256"},{"name":"conversionPrice","type":"uint256"},
   {"name":"expiry","type":"uint48"},{"name":"wrapped","type":"bool"},{"name":"additionalData","type":"bytes"}]}]},
 {"type":"function","name":"getUserPositionIds","stateMutability":"view","inputs":[{"name":"user_","type":"address"}],
  "outputs":[{"name":"","type":"uint256[]"}]}
]`

const redemptionVaultJSON = `[
 {"type":"function","name":"getAnnualInterestRate","stateMutability":"view",
  "inputs":[{"name":"asset_","type":"address"},{"name":"facility_","type":"address"}],"outputs":[{"name":"","type":"uint16"}]},
 {"type":"function","name":"getMaxBorrowPercentage","stateMutability":"view",
  "inputs":[{"name":"asset_","type":"address"},{"name":"facility_","type":"address"}],"outputs":[{"name":"","type":"uint16"}]},
 {"type":"function","name":"getClaimDefaultRewardPercentage","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint16"}]},
 {"type":"function","name":"getUserRedemption","stateMutability":"view",
  "inputs":[{"name":"user_","type":"address"},{"name":"redemptionId_","type":"uint16"}],
  "outputs":[{"name":"","type":"tuple","components":[
   {"name":"depositToken","type":"address"},{"name":"depositPeriod","type":"uint8"},{"name":"redeemableAt","type":"uint48"},
   {"name":"amount","type":"uint256"},{"name":"facility","type":"address"},{"name":"positionId","type":"uint256"}]}]},
 {"type":"function","name":"getRedemptionLoan","stateMutability":"view",
  "inputs":[{"name":"user_","type":"address"},{"name":"redemptionId_","type":"uint16"}],
  "outputs":[{"name":"","type":"tuple","components":[
   {"name":"initialPrincipal","type":"uint256"},{"name":"principal","type":"uint256"},{"name":"interest","type":"uint256"},
   {"name":"dueDate","type":"uint48"},{"name":"isDefaulted","type":"bool"}]}]},

 {"type":"event","name":"AnnualInterestRateSet","anonymous":false,"inputs":[
  {"name":"asset","type":"address","indexed":true},{"name":"facility","type":"address","indexed":true},
  {"name":"rate","type":"uint16","indexed":false}]},
 {"type":"event","name":"ClaimDefaultRewardPercentageSet","anonymous":false,"inputs":[{"name":"percent","type":"uint16","indexed":false}]},
 {"type":"event","name":"Enabled","anonymous":false,"inputs":[]},
 {"type":"event","name":"Disabled","anonymous":false,"inputs":[]},
 {"type":"event","name":"FacilityAuthorized","anonymous":false,"inputs":[{"name":"facility","type":"address","indexed":true}]},
 {"type":"event","name":"FacilityDeauthorized","anonymous":false,"inputs":[{"name":"facility","type":"address","indexed":true}]},
 {"type":"event","name":"LoanCreated","anonymous":false,"inputs":[
  {"name":"user","type":"address","indexed":true},{"name":"redemptionId","type":"uint16","indexed":true},
  {"name":"amount","type":"uint256","indexed":false},{"name":"facility","type":"address","indexed":false}]},
 {"type":"event","name":"LoanDefaulted","anonymous":false,"inputs":[
  {"name":"user","type":"address","indexed":true},{"name":"redemptionId","type":"uint16","indexed":true},
  {"name":"principal","type":"uint256","indexed":false},{"name":"interest","type":"uint256","indexed":false},
  {"name":"remainingCollateral","type":"uint256","indexed":false}]},
 {"type":"event","name":"LoanExtended","anonymous":false,"inputs":[
  {"name":"user","type":"address","indexed":true},{"name":"redemptionId","type":"uint16","indexed":true},
  {"name":"newDueDate","type":"uint256","indexed":false}]},
 {"type":"event","name":"LoanRepaid","anonymous":false,"inputs":[
  {"name":"user","type":"address","indexed":true},{"name":"redemptionId","type":"uint16","indexed":true},
  {"name":"principal","type":"uint256","indexed":false},{"name":"interest","type":"uint256","indexed":false}]},
 {"type":"event","name":"MaxBorrowPercentageSet","anonymous":false,"inputs":[
  {"name":"asset","type":"address","indexed":true},{"name":"facility","type":"address","indexed":true},
  {"name":"percent","type":"uint16","indexed":false}]},
 {"type":"event","name":"RedemptionCancelled","anonymous":false,"inputs":[
  {"name":"user","type":"address","indexed":true},{"name":"redemptionId","type":"uint16","indexed":true},
  {"name":"depositToken","type":"address","indexed":true},{"name":"depositPeriod","type":"uint8","indexed":false},
  {"name":"amount","type":"uint256","indexed":false},{"name":"remainingAmount","type":"uint256","indexed":false}]},
 {"type":"event","name":"RedemptionFinished","anonymous":false,"inputs":[
  {"name":"user","type":"address","indexed":true},{"name":"redemptionId","type":"uint16","indexed":true},
  {"name":"depositToken","type":"address","indexed":true},{"name":"depositPeriod","type":"uint8","indexed":false},
  {"name":"amount","type":"uint256","indexed":false}]},
 {"type":"event","name":"RedemptionStarted","anonymous":false,"inputs":[
  {"name":"user","type":"address","indexed":true},{"name":"redemptionId","type":"uint16","indexed":true},
  {"name":"depositToken","type":"address","indexed":true},{"name":"depositPeriod","type":"uint8","indexed":false},
  {"name":"amount","type":"uint256","indexed":false},{"name":"facility","type":"address","indexed":false}]}
]`

const multicall3JSON = `[
 {"type":"function","name":"aggregate3","stateMutability":"payable",
  "inputs":[{"name":"calls","type":"tuple[]","components":[
   {"name":"target","type":"address"},{"name":"allowFailure","type":"bool"},{"name":"callData","type":"bytes"}]}],
  "outputs":[{"name":"returnData","type":"tuple[]","components":[
   {"name":"success","type":"bool"},{"name":"returnData","type":"bytes"}]}]}
]`

var (
	ERC20ABI           = mustParseABI(erc20JSON)
	AuctioneerABI      = mustParseABI(auctioneerJSON)
	FacilityABI        = mustParseABI(facilityJSON)
	DepositManagerABI  = mustParseABI(depositManagerJSON)
	PositionManagerABI = mustParseABI(positionManagerJSON)
	RedemptionVaultABI = mustParseABI(redemptionVaultJSON)
	Multicall3ABI      = mustParseABI(multicall3JSON)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}
