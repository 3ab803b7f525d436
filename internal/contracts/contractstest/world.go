package contractstest

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/goran-ethernal/DepositIndexor/internal/contracts"
	"github.com/goran-ethernal/DepositIndexor/internal/fixedpoint"
)

// ChainID is the chain the seeded world lives on.
const ChainID = uint64(11155111)

// Addresses of the seeded world.
var (
	AssetAddr          = common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238")
	AuctioneerAddr     = common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	FacilityAddr       = common.HexToAddress("0x2222222222222222222222222222222222222222")
	VaultAddr          = common.HexToAddress("0x3333333333333333333333333333333333333333")
	DepositManagerAddr = common.HexToAddress("0x4444444444444444444444444444444444444444")
	TokenManagerAddr   = common.HexToAddress("0x5555555555555555555555555555555555555555")
	UserAddr           = common.HexToAddress("0x7777777777777777777777777777777777777777")
)

// Periods are the deposit periods enabled in the seeded world.
var Periods = []uint8{1, 3, 6}

// NewWorld returns a Reader seeded with one 6-decimal asset, one auctioneer,
// one facility and one redemption vault.
func NewWorld() *Reader {
	r := NewReader()

	r.Assets[AssetAddr] = Asset6()

	ticks := make(map[uint8]contracts.Tick, len(Periods))
	rates := make(map[uint8]*big.Int, len(Periods))
	for _, m := range Periods {
		ticks[m] = contracts.Tick{
			Price:      big.NewInt(int64(m) * 1_000_000),
			Capacity:   big.NewInt(1_000_000_000),
			LastUpdate: 1700000000,
		}
		rates[m] = big.NewInt(9000)
	}

	r.Auctioneers[AuctioneerAddr] = &Auctioneer{
		Version:        contracts.Version{Major: 1, Minor: 1},
		TrackingPeriod: 7,
		DepositAsset:   AssetAddr,
		TickStep:       big.NewInt(10500),
		Parameters: contracts.AuctionParameters{
			Target:   big.NewInt(1_000_000_000),
			TickSize: big.NewInt(50_000_000),
			MinPrice: big.NewInt(15_000_000),
		},
		Ticks:    ticks,
		DayState: contracts.DayState{InitTimestamp: 1700000000, Convertible: big.NewInt(250_000_000)},
	}

	r.Facilities[FacilityAddr] = &Facility{
		DepositManager: DepositManagerAddr,
		Assets: map[common.Address]*FacilityAsset{
			AssetAddr: {Committed: big.NewInt(0), Yield: big.NewInt(0), ReclaimRates: rates},
		},
	}
	r.DepositManagers[DepositManagerAddr] = DepositManager{TokenManager: TokenManagerAddr}

	r.Vaults[VaultAddr] = &Vault{
		ClaimDefaultReward: big.NewInt(100),
		Rates: map[[2]common.Address]VaultRates{
			{FacilityAddr, AssetAddr}: {InterestRate: big.NewInt(1200), MaxBorrow: big.NewInt(8500)},
		},
		Redemptions: make(map[RedemptionKey]contracts.Redemption),
		Loans:       make(map[RedemptionKey]contracts.Loan),
	}

	return r
}

// Asset6 is the seeded asset's metadata.
func Asset6() Asset {
	return Asset{Decimals: 6, Name: "USD Coin", Symbol: "USDC"}
}

// NewPosition returns a FacilityAddr-operated position of UserAddr in (AssetAddr, months).
// A negative conversionPrice stands for the unset sentinel.
func NewPosition(months uint8, remaining, conversionPrice int64) contracts.Position {
	price := big.NewInt(conversionPrice)
	if conversionPrice < 0 {
		price = new(big.Int).Set(fixedpoint.MaxUint256)
	}
	return contracts.Position{
		Operator:         FacilityAddr,
		Owner:            UserAddr,
		Asset:            AssetAddr,
		PeriodMonths:     months,
		RemainingDeposit: big.NewInt(remaining),
		ConversionPrice:  price,
		Expiry:           1800000000,
	}
}
