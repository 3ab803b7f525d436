// Package contractstest provides an in-memory contracts.Reader for tests.
package contractstest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/goran-ethernal/DepositIndexor/internal/contracts"
)

type Asset struct {
	Decimals uint8
	Name     string
	Symbol   string
}

type Auctioneer struct {
	Version        contracts.Version
	TrackingPeriod uint8
	DepositAsset   common.Address
	TickStep       *big.Int
	Parameters     contracts.AuctionParameters
	Ticks          map[uint8]contracts.Tick
	DayState       contracts.DayState
}

type FacilityAsset struct {
	Committed    *big.Int
	Yield        *big.Int
	ReclaimRates map[uint8]*big.Int
}

type Facility struct {
	DepositManager common.Address
	Assets         map[common.Address]*FacilityAsset
}

type DepositManager struct {
	TokenManager common.Address
}

type VaultRates struct {
	InterestRate *big.Int
	MaxBorrow    *big.Int
}

type RedemptionKey struct {
	User common.Address
	ID   uint64
}

type Vault struct {
	ClaimDefaultReward *big.Int
	Rates              map[[2]common.Address]VaultRates
	Redemptions        map[RedemptionKey]contracts.Redemption
	Loans              map[RedemptionKey]contracts.Loan
}

// Reader serves reads from its maps and counts every call by method name.
// Chain ids are ignored. A missing entry is an error so tests notice
// unexpected reads.
type Reader struct {
	mu    sync.Mutex
	calls map[string]int
	errs  map[string]error

	Assets          map[common.Address]Asset
	Auctioneers     map[common.Address]*Auctioneer
	Facilities      map[common.Address]*Facility
	DepositManagers map[common.Address]DepositManager
	PositionsByID   map[string]contracts.Position
	UserPositions   map[common.Address][]*big.Int
	Vaults          map[common.Address]*Vault
	Timestamps      map[uint64]uint64
}

var _ contracts.Reader = (*Reader)(nil)

func NewReader() *Reader {
	return &Reader{
		calls:           make(map[string]int),
		errs:            make(map[string]error),
		Assets:          make(map[common.Address]Asset),
		Auctioneers:     make(map[common.Address]*Auctioneer),
		Facilities:      make(map[common.Address]*Facility),
		DepositManagers: make(map[common.Address]DepositManager),
		PositionsByID:   make(map[string]contracts.Position),
		UserPositions:   make(map[common.Address][]*big.Int),
		Vaults:          make(map[common.Address]*Vault),
		Timestamps:      make(map[uint64]uint64),
	}
}

// Calls returns how often method was called.
func (r *Reader) Calls(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

// TotalCalls returns the number of reads of any method.
func (r *Reader) TotalCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, n := range r.calls {
		total += n
	}
	return total
}

// FailWith makes every later call of method return err. A nil err clears it.
func (r *Reader) FailWith(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.errs, method)
		return
	}
	r.errs[method] = err
}

// SetPosition stores a position under its id.
func (r *Reader) SetPosition(id *big.Int, p contracts.Position) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.PositionsByID[id.String()] = p
}

func (r *Reader) record(method string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[method]++
	return r.errs[method]
}

func missing(what string, key any) error {
	return fmt.Errorf("no %s for %v", what, key)
}

func (r *Reader) asset(method string, addr common.Address) (Asset, error) {
	if err := r.record(method); err != nil {
		return Asset{}, err
	}
	a, ok := r.Assets[addr]
	if !ok {
		return Asset{}, missing("asset", addr.Hex())
	}
	return a, nil
}

func (r *Reader) AssetDecimals(_ context.Context, _ uint64, asset common.Address) (uint8, error) {
	a, err := r.asset("AssetDecimals", asset)
	return a.Decimals, err
}

func (r *Reader) AssetName(_ context.Context, _ uint64, asset common.Address) (string, error) {
	a, err := r.asset("AssetName", asset)
	return a.Name, err
}

func (r *Reader) AssetSymbol(_ context.Context, _ uint64, asset common.Address) (string, error) {
	a, err := r.asset("AssetSymbol", asset)
	return a.Symbol, err
}

func (r *Reader) auctioneer(method string, addr common.Address) (*Auctioneer, error) {
	if err := r.record(method); err != nil {
		return nil, err
	}
	a, ok := r.Auctioneers[addr]
	if !ok {
		return nil, missing("auctioneer", addr.Hex())
	}
	return a, nil
}

func (r *Reader) AuctioneerVersion(_ context.Context, _ uint64, auctioneer common.Address) (contracts.Version, error) {
	a, err := r.auctioneer("AuctioneerVersion", auctioneer)
	if err != nil {
		return contracts.Version{}, err
	}
	return a.Version, nil
}

func (r *Reader) AuctioneerTrackingPeriod(_ context.Context, _ uint64, auctioneer common.Address) (uint8, error) {
	a, err := r.auctioneer("AuctioneerTrackingPeriod", auctioneer)
	if err != nil {
		return 0, err
	}
	return a.TrackingPeriod, nil
}

func (r *Reader) AuctioneerDepositAsset(
	_ context.Context, _ uint64, auctioneer common.Address,
) (common.Address, error) {
	a, err := r.auctioneer("AuctioneerDepositAsset", auctioneer)
	if err != nil {
		return common.Address{}, err
	}
	return a.DepositAsset, nil
}

func (r *Reader) AuctioneerTickStep(_ context.Context, _ uint64, auctioneer common.Address) (*big.Int, error) {
	a, err := r.auctioneer("AuctioneerTickStep", auctioneer)
	if err != nil {
		return nil, err
	}
	return a.TickStep, nil
}

func (r *Reader) AuctioneerParameters(
	_ context.Context, _ uint64, auctioneer common.Address, _ *big.Int,
) (contracts.AuctionParameters, error) {
	a, err := r.auctioneer("AuctioneerParameters", auctioneer)
	if err != nil {
		return contracts.AuctionParameters{}, err
	}
	return a.Parameters, nil
}

func (r *Reader) AuctioneerCurrentTick(
	_ context.Context, _ uint64, auctioneer common.Address, periodMonths uint8, _ *big.Int,
) (contracts.Tick, error) {
	a, err := r.auctioneer("AuctioneerCurrentTick", auctioneer)
	if err != nil {
		return contracts.Tick{}, err
	}
	t, ok := a.Ticks[periodMonths]
	if !ok {
		return contracts.Tick{}, missing("tick", periodMonths)
	}
	return t, nil
}

func (r *Reader) AuctioneerDayState(
	_ context.Context, _ uint64, auctioneer common.Address, _ *big.Int,
) (contracts.DayState, error) {
	a, err := r.auctioneer("AuctioneerDayState", auctioneer)
	if err != nil {
		return contracts.DayState{}, err
	}
	return a.DayState, nil
}

func (r *Reader) facilityAsset(method string, facility, asset common.Address) (*Facility, *FacilityAsset, error) {
	if err := r.record(method); err != nil {
		return nil, nil, err
	}
	f, ok := r.Facilities[facility]
	if !ok {
		return nil, nil, missing("facility", facility.Hex())
	}
	if asset == (common.Address{}) {
		return f, nil, nil
	}
	fa, ok := f.Assets[asset]
	if !ok {
		return nil, nil, missing("facility asset", asset.Hex())
	}
	return f, fa, nil
}

func (r *Reader) FacilityDepositManager(_ context.Context, _ uint64, facility common.Address) (common.Address, error) {
	f, _, err := r.facilityAsset("FacilityDepositManager", facility, common.Address{})
	if err != nil {
		return common.Address{}, err
	}
	return f.DepositManager, nil
}

func (r *Reader) FacilityReclaimRate(
	_ context.Context, _ uint64, facility, asset common.Address, periodMonths uint8,
) (*big.Int, error) {
	_, fa, err := r.facilityAsset("FacilityReclaimRate", facility, asset)
	if err != nil {
		return nil, err
	}
	rate, ok := fa.ReclaimRates[periodMonths]
	if !ok {
		return nil, missing("reclaim rate", periodMonths)
	}
	return rate, nil
}

func (r *Reader) FacilityCommittedAmount(
	_ context.Context, _ uint64, facility, asset common.Address, _ *big.Int,
) (*big.Int, error) {
	_, fa, err := r.facilityAsset("FacilityCommittedAmount", facility, asset)
	if err != nil {
		return nil, err
	}
	return orZero(fa.Committed), nil
}

func (r *Reader) FacilityClaimableYield(
	_ context.Context, _ uint64, facility, asset common.Address, _ *big.Int,
) (*big.Int, error) {
	_, fa, err := r.facilityAsset("FacilityClaimableYield", facility, asset)
	if err != nil {
		return nil, err
	}
	return orZero(fa.Yield), nil
}

func (r *Reader) ReceiptTokenManager(_ context.Context, _ uint64, depositManager common.Address) (common.Address, error) {
	if err := r.record("ReceiptTokenManager"); err != nil {
		return common.Address{}, err
	}
	dm, ok := r.DepositManagers[depositManager]
	if !ok {
		return common.Address{}, missing("deposit manager", depositManager.Hex())
	}
	return dm.TokenManager, nil
}

// ReceiptTokenID derives the token id from the period so every asset period
// has a distinct token.
func (r *Reader) ReceiptTokenID(
	_ context.Context, _ uint64, depositManager, _ common.Address, periodMonths uint8, _ common.Address,
) (*big.Int, error) {
	if err := r.record("ReceiptTokenID"); err != nil {
		return nil, err
	}
	if _, ok := r.DepositManagers[depositManager]; !ok {
		return nil, missing("deposit manager", depositManager.Hex())
	}
	return big.NewInt(int64(periodMonths)), nil
}

func (r *Reader) position(id *big.Int) (contracts.Position, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.PositionsByID[id.String()]
	if !ok {
		return contracts.Position{}, missing("position", id)
	}
	return p, nil
}

func (r *Reader) Position(_ context.Context, _ uint64, positionID *big.Int, _ *big.Int) (contracts.Position, error) {
	if err := r.record("Position"); err != nil {
		return contracts.Position{}, err
	}
	return r.position(positionID)
}

func (r *Reader) Positions(
	_ context.Context, _ uint64, positionIDs []*big.Int, _ *big.Int,
) ([]contracts.Position, error) {
	if err := r.record("Positions"); err != nil {
		return nil, err
	}
	out := make([]contracts.Position, 0, len(positionIDs))
	for _, id := range positionIDs {
		p, err := r.position(id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *Reader) UserPositionIDs(_ context.Context, _ uint64, user common.Address, _ *big.Int) ([]*big.Int, error) {
	if err := r.record("UserPositionIDs"); err != nil {
		return nil, err
	}
	return r.UserPositions[user], nil
}

func (r *Reader) vault(method string, addr common.Address) (*Vault, error) {
	if err := r.record(method); err != nil {
		return nil, err
	}
	v, ok := r.Vaults[addr]
	if !ok {
		return nil, missing("vault", addr.Hex())
	}
	return v, nil
}

func (r *Reader) VaultInterestRate(
	_ context.Context, _ uint64, vault, facility, asset common.Address,
) (*big.Int, error) {
	v, err := r.vault("VaultInterestRate", vault)
	if err != nil {
		return nil, err
	}
	return orZero(v.Rates[[2]common.Address{facility, asset}].InterestRate), nil
}

func (r *Reader) VaultMaxBorrowPercentage(
	_ context.Context, _ uint64, vault, facility, asset common.Address,
) (*big.Int, error) {
	v, err := r.vault("VaultMaxBorrowPercentage", vault)
	if err != nil {
		return nil, err
	}
	return orZero(v.Rates[[2]common.Address{facility, asset}].MaxBorrow), nil
}

func (r *Reader) VaultClaimDefaultReward(_ context.Context, _ uint64, vault common.Address) (*big.Int, error) {
	v, err := r.vault("VaultClaimDefaultReward", vault)
	if err != nil {
		return nil, err
	}
	return orZero(v.ClaimDefaultReward), nil
}

func (r *Reader) VaultRedemption(
	_ context.Context, _ uint64, vault, user common.Address, redemptionID uint64, _ *big.Int,
) (contracts.Redemption, error) {
	v, err := r.vault("VaultRedemption", vault)
	if err != nil {
		return contracts.Redemption{}, err
	}
	red, ok := v.Redemptions[RedemptionKey{User: user, ID: redemptionID}]
	if !ok {
		return contracts.Redemption{}, missing("redemption", redemptionID)
	}
	return red, nil
}

func (r *Reader) VaultLoan(
	_ context.Context, _ uint64, vault, user common.Address, redemptionID uint64, _ *big.Int,
) (contracts.Loan, error) {
	v, err := r.vault("VaultLoan", vault)
	if err != nil {
		return contracts.Loan{}, err
	}
	loan, ok := v.Loans[RedemptionKey{User: user, ID: redemptionID}]
	if !ok {
		return contracts.Loan{}, missing("loan", redemptionID)
	}
	return loan, nil
}

// BlockTimestamp falls back to twelve seconds per block.
func (r *Reader) BlockTimestamp(_ context.Context, _ uint64, block uint64) (uint64, error) {
	if err := r.record("BlockTimestamp"); err != nil {
		return 0, err
	}
	if ts, ok := r.Timestamps[block]; ok {
		return ts, nil
	}
	return block * 12, nil //nolint:mnd
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
