package handlers_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goran-ethernal/DepositIndexor/internal/contracts"
	"github.com/goran-ethernal/DepositIndexor/internal/contracts/contractstest"
	"github.com/goran-ethernal/DepositIndexor/internal/entities"
	"github.com/goran-ethernal/DepositIndexor/internal/fixedpoint"
	"github.com/goran-ethernal/DepositIndexor/internal/ids"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
)

const redemptionID = uint16(2)

func (f *fixture) seedRedemption(amount int64) {
	key := contractstest.RedemptionKey{User: userAddr, ID: uint64(redemptionID)}
	vault := f.world.Vaults[vaultAddr]
	vault.Redemptions[key] = contracts.Redemption{
		DepositToken:  assetAddr,
		DepositPeriod: 3,
		RedeemableAt:  1800000000,
		Amount:        u(amount),
		Facility:      facilityAddr,
		PositionID:    fixedpoint.MaxUint256,
	}
	vault.Loans[key] = contracts.Loan{
		InitialPrincipal: u(100_000_000),
		Principal:        u(100_000_000),
		Interest:         u(1_000_000),
		DueDate:          1800000000,
	}
}

func (f *fixture) facilityAssetSnapshot(t *testing.T, block uint64) model.FacilityAssetSnapshot {
	t.Helper()
	snap, err := f.tables.FacilityAssetSnapshots.MustGet(context.Background(),
		ids.FacilityAssetSnapshot(chainID, block, facilityAddr, assetAddr))
	require.NoError(t, err)
	return snap
}

// seedDeposit credits 1000 tokens to the facility asset at block.
func (f *fixture) seedDeposit(t *testing.T, block uint64) {
	t.Helper()
	positionID := u(1)
	f.world.SetPosition(positionID, contractstest.NewPosition(3, 1_000_000_000, 20_000_000))
	f.mustHandle(t, block, packLog(t, contracts.FacilityABI, "CreatedDeposit", facilityAddr,
		assetAddr, userAddr, positionID, uint8(3), u(1_000_000_000)))
}

func TestLoanBeforeRedemptionIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.seedRedemption(250_000_000)

	err := f.handle(t, 100, packLog(t, contracts.RedemptionVaultABI, "LoanCreated", vaultAddr,
		userAddr, redemptionID, u(100_000_000), facilityAddr))
	require.Error(t, err)
	assert.True(t, entities.IsNotFound(err))

	// the failed event leaves nothing behind
	assert.Zero(t, f.backend.Count(model.KindLoanCreated))
	assert.Zero(t, f.backend.Count(model.KindRedemptionLoan))
	assert.Zero(t, f.backend.Count(model.KindRedemptionVault))
}

func TestRedemptionAndLoanLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := contracts.RedemptionVaultABI

	f.seedDeposit(t, 99)
	f.seedRedemption(250_000_000)
	f.mustHandle(t, 100, packLog(t, v, "RedemptionStarted", vaultAddr,
		userAddr, redemptionID, assetAddr, uint8(3), u(250_000_000), facilityAddr))

	snap := f.facilityAssetSnapshot(t, 100)
	assert.True(t, decimal.NewFromInt(250).Equal(snap.PendingRedemption.Decimal))
	assert.True(t, decimal.NewFromInt(1000).Equal(snap.TotalDeposited.Decimal))

	f.mustHandle(t, 101, packLog(t, v, "LoanCreated", vaultAddr,
		userAddr, redemptionID, u(100_000_000), facilityAddr))

	loanID := ids.RedemptionLoan(chainID, vaultAddr, userAddr, uint64(redemptionID))
	loan, err := f.resolver.GetLoan(ctx, loanID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanActive, loan.Status)
	assert.Equal(t, ids.Redemption(chainID, userAddr, uint64(redemptionID)), loan.RedemptionID)

	snap = f.facilityAssetSnapshot(t, 101)
	assert.True(t, decimal.NewFromInt(100).Equal(snap.BorrowedAmount.Decimal))
	assert.True(t, decimal.NewFromInt(900).Equal(snap.TotalDeposited.Decimal))

	f.mustHandle(t, 102, packLog(t, v, "LoanExtended", vaultAddr, userAddr, redemptionID, u(1900000000)))
	f.mustHandle(t, 103, packLog(t, v, "LoanRepaid", vaultAddr,
		userAddr, redemptionID, u(0), u(0)))

	loan, err = f.resolver.GetLoan(ctx, loanID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanRepaid, loan.Status)
	assert.Equal(t, uint64(1900000000), loan.DueDate)
	assert.True(t, loan.Principal.IsZero())
	assert.True(t, loan.Interest.IsZero())

	snap = f.facilityAssetSnapshot(t, 103)
	assert.True(t, snap.BorrowedAmount.IsZero())
	assert.True(t, decimal.NewFromInt(1000).Equal(snap.TotalDeposited.Decimal))

	f.mustHandle(t, 104, packLog(t, v, "RedemptionFinished", vaultAddr,
		userAddr, redemptionID, assetAddr, uint8(3), u(250_000_000)))

	redemption, err := f.resolver.GetRedemption(ctx, ids.Redemption(chainID, userAddr, uint64(redemptionID)))
	require.NoError(t, err)
	assert.Equal(t, model.RedemptionFinished, redemption.Status)
	assert.True(t, decimal.NewFromInt(250).Equal(redemption.Amount.Decimal))
	assert.Empty(t, redemption.PositionID)

	snap = f.facilityAssetSnapshot(t, 104)
	assert.True(t, snap.PendingRedemption.IsZero())
	assert.True(t, decimal.NewFromInt(750).Equal(snap.TotalDeposited.Decimal))
}

func TestLoanRepaidPartial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := contracts.RedemptionVaultABI
	loanID := ids.RedemptionLoan(chainID, vaultAddr, userAddr, uint64(redemptionID))

	f.seedDeposit(t, 99)
	f.seedRedemption(250_000_000)
	f.mustHandle(t, 100, packLog(t, v, "RedemptionStarted", vaultAddr,
		userAddr, redemptionID, assetAddr, uint8(3), u(250_000_000), facilityAddr))
	f.mustHandle(t, 101, packLog(t, v, "LoanCreated", vaultAddr,
		userAddr, redemptionID, u(100_000_000), facilityAddr))

	// the event carries what is still owed
	f.mustHandle(t, 102, packLog(t, v, "LoanRepaid", vaultAddr,
		userAddr, redemptionID, u(60_000_000), u(500_000)))

	loan, err := f.resolver.GetLoan(ctx, loanID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanActive, loan.Status)
	assert.True(t, decimal.NewFromInt(60).Equal(loan.Principal.Decimal))
	assert.True(t, decimal.RequireFromString("0.5").Equal(loan.Interest.Decimal))

	snap := f.facilityAssetSnapshot(t, 102)
	assert.True(t, decimal.NewFromInt(60).Equal(snap.BorrowedAmount.Decimal))
	assert.True(t, decimal.NewFromInt(940).Equal(snap.TotalDeposited.Decimal))

	// interest only, nothing moves between borrowed and deposited
	f.mustHandle(t, 103, packLog(t, v, "LoanRepaid", vaultAddr,
		userAddr, redemptionID, u(60_000_000), u(0)))

	loan, err = f.resolver.GetLoan(ctx, loanID)
	require.NoError(t, err)
	assert.True(t, loan.Interest.IsZero())
	_, ok, err := f.tables.FacilityAssetSnapshots.Get(ctx,
		ids.FacilityAssetSnapshot(chainID, 103, facilityAddr, assetAddr))
	require.NoError(t, err)
	assert.False(t, ok)

	f.mustHandle(t, 104, packLog(t, v, "LoanRepaid", vaultAddr,
		userAddr, redemptionID, u(0), u(0)))

	loan, err = f.resolver.GetLoan(ctx, loanID)
	require.NoError(t, err)
	assert.Equal(t, model.LoanRepaid, loan.Status)
	assert.True(t, loan.Principal.IsZero())

	snap = f.facilityAssetSnapshot(t, 104)
	assert.True(t, snap.BorrowedAmount.IsZero())
	assert.True(t, decimal.NewFromInt(1000).Equal(snap.TotalDeposited.Decimal))

	rec, ok, err := getRecord[model.LoanRepaidEvent](ctx, f, model.KindLoanRepaid, ids.BlockEvent(chainID, 102, 0))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(60).Equal(rec.Principal.Decimal))
}

func TestRedemptionCancelledUsesStoredAmount(t *testing.T) {
	tests := []struct {
		name       string
		amount     int64
		remaining  int64
		wantStatus model.RedemptionStatus
	}{
		{name: "partial", amount: 100_000_000, remaining: 200_000_000, wantStatus: model.RedemptionStarted},
		{name: "full", amount: 300_000_000, remaining: 0, wantStatus: model.RedemptionCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			v := contracts.RedemptionVaultABI

			f.seedDeposit(t, 99)
			f.seedRedemption(300_000_000)
			f.mustHandle(t, 100, packLog(t, v, "RedemptionStarted", vaultAddr,
				userAddr, redemptionID, assetAddr, uint8(3), u(300_000_000), facilityAddr))
			f.mustHandle(t, 101, packLog(t, v, "RedemptionCancelled", vaultAddr,
				userAddr, redemptionID, assetAddr, uint8(3), u(tt.amount), u(tt.remaining)))

			redemption, err := f.resolver.GetRedemption(ctx, ids.Redemption(chainID, userAddr, uint64(redemptionID)))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, redemption.Status)
			assert.Zero(t, u(tt.amount).Cmp(redemption.Amount.Raw))

			// the whole stored amount leaves pending, deposits stay put
			snap := f.facilityAssetSnapshot(t, 101)
			assert.True(t, snap.PendingRedemption.IsZero())
			assert.True(t, decimal.NewFromInt(1000).Equal(snap.TotalDeposited.Decimal))
			assert.True(t, snap.BorrowedAmount.IsZero())
		})
	}
}

func TestRedemptionFinishedPartial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := contracts.RedemptionVaultABI

	f.seedDeposit(t, 99)
	f.seedRedemption(250_000_000)
	f.mustHandle(t, 100, packLog(t, v, "RedemptionStarted", vaultAddr,
		userAddr, redemptionID, assetAddr, uint8(3), u(250_000_000), facilityAddr))
	f.mustHandle(t, 101, packLog(t, v, "RedemptionFinished", vaultAddr,
		userAddr, redemptionID, assetAddr, uint8(3), u(100_000_000)))

	redemption, err := f.resolver.GetRedemption(ctx, ids.Redemption(chainID, userAddr, uint64(redemptionID)))
	require.NoError(t, err)
	assert.Equal(t, model.RedemptionFinished, redemption.Status)
	assert.True(t, decimal.NewFromInt(100).Equal(redemption.Amount.Decimal))

	snap := f.facilityAssetSnapshot(t, 101)
	assert.True(t, decimal.NewFromInt(150).Equal(snap.PendingRedemption.Decimal))
	assert.True(t, decimal.NewFromInt(900).Equal(snap.TotalDeposited.Decimal))
}

func TestLoanDefaulted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := contracts.RedemptionVaultABI

	f.seedRedemption(250_000_000)
	f.mustHandle(t, 100, packLog(t, v, "RedemptionStarted", vaultAddr,
		userAddr, redemptionID, assetAddr, uint8(3), u(250_000_000), facilityAddr))
	f.mustHandle(t, 101, packLog(t, v, "LoanCreated", vaultAddr,
		userAddr, redemptionID, u(100_000_000), facilityAddr))
	f.mustHandle(t, 102, packLog(t, v, "LoanDefaulted", vaultAddr,
		userAddr, redemptionID, u(100_000_000), u(1_000_000), u(150_000_000)))

	loan, err := f.resolver.GetLoan(ctx, ids.RedemptionLoan(chainID, vaultAddr, userAddr, uint64(redemptionID)))
	require.NoError(t, err)
	assert.Equal(t, model.LoanDefaulted, loan.Status)
	assert.True(t, f.facilityAssetSnapshot(t, 102).BorrowedAmount.IsZero())

	rec, ok, err := getRecord[model.LoanDefaultedEvent](ctx, f, model.KindLoanDefaulted, ids.BlockEvent(chainID, 102, 0))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(150).Equal(rec.RemainingCollateral.Decimal))
}

func TestVaultConfiguration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	v := contracts.RedemptionVaultABI

	f.mustHandle(t, 100, packLog(t, v, "Enabled", vaultAddr))
	f.mustHandle(t, 101, packLog(t, v, "AnnualInterestRateSet", vaultAddr, assetAddr, facilityAddr, uint16(1500)))
	f.mustHandle(t, 102, packLog(t, v, "MaxBorrowPercentageSet", vaultAddr, assetAddr, facilityAddr, uint16(9000)))
	f.mustHandle(t, 103, packLog(t, v, "ClaimDefaultRewardPercentageSet", vaultAddr, uint16(250)))
	f.mustHandle(t, 104, packLog(t, v, "FacilityAuthorized", vaultAddr, facilityAddr))

	vault, err := f.resolver.GetVault(ctx, ids.Address(chainID, vaultAddr))
	require.NoError(t, err)
	assert.True(t, vault.Enabled)
	assert.True(t, decimal.RequireFromString("0.025").Equal(vault.ClaimDefaultRewardPercentage.Decimal))

	cfg, err := f.resolver.GetVaultAssetConfiguration(ctx,
		ids.VaultAssetConfiguration(chainID, vaultAddr, facilityAddr, assetAddr))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.15").Equal(cfg.AnnualInterestRate.Decimal))
	assert.True(t, decimal.RequireFromString("0.9").Equal(cfg.MaxBorrowPercentage.Decimal))

	assert.Equal(t, 1, f.backend.Count(model.KindFacilityAuthorized))
	assert.Equal(t, 1, f.backend.Count(model.KindDepositFacility))
}
