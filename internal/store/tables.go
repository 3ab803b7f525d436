package store

import (
	"context"

	"github.com/goran-ethernal/DepositIndexor/internal/model"
)

// Tables groups the typed stores of every entity kind over one backend.
type Tables struct {
	backend Backend

	Assets                   Store[model.Asset]
	DepositAssets            Store[model.DepositAsset]
	DepositAssetPeriods      Store[model.DepositAssetPeriod]
	Auctioneers              Store[model.Auctioneer]
	AuctioneerDepositPeriods Store[model.AuctioneerDepositPeriod]
	Facilities               Store[model.DepositFacility]
	FacilityAssets           Store[model.DepositFacilityAsset]
	FacilityAssetPeriods     Store[model.DepositFacilityAssetPeriod]
	Depositors               Store[model.Depositor]
	Positions                Store[model.Position]
	ReceiptTokens            Store[model.ReceiptToken]
	Redemptions              Store[model.Redemption]
	Loans                    Store[model.RedemptionLoan]
	Vaults                   Store[model.RedemptionVault]
	VaultAssetConfigurations Store[model.RedemptionVaultAssetConfiguration]

	LatestSnapshots                  Store[model.LatestSnapshot]
	AuctioneerSnapshots              Store[model.AuctioneerSnapshot]
	AuctioneerDepositPeriodSnapshots Store[model.AuctioneerDepositPeriodSnapshot]
	FacilitySnapshots                Store[model.FacilitySnapshot]
	FacilityAssetSnapshots           Store[model.FacilityAssetSnapshot]

	Cursors Store[model.IndexerCursor]
}

// NewTables builds every typed store on backend.
func NewTables(backend Backend) *Tables {
	return &Tables{
		backend: backend,

		Assets:                   NewStore[model.Asset](backend, model.KindAsset),
		DepositAssets:            NewStore[model.DepositAsset](backend, model.KindDepositAsset),
		DepositAssetPeriods:      NewStore[model.DepositAssetPeriod](backend, model.KindDepositAssetPeriod),
		Auctioneers:              NewStore[model.Auctioneer](backend, model.KindAuctioneer),
		AuctioneerDepositPeriods: NewStore[model.AuctioneerDepositPeriod](backend, model.KindAuctioneerDepositPeriod),
		Facilities:               NewStore[model.DepositFacility](backend, model.KindDepositFacility),
		FacilityAssets:           NewStore[model.DepositFacilityAsset](backend, model.KindDepositFacilityAsset),
		FacilityAssetPeriods:     NewStore[model.DepositFacilityAssetPeriod](backend, model.KindDepositFacilityAssetPeriod),
		Depositors:               NewStore[model.Depositor](backend, model.KindDepositor),
		Positions:                NewStore[model.Position](backend, model.KindPosition),
		ReceiptTokens:            NewStore[model.ReceiptToken](backend, model.KindReceiptToken),
		Redemptions:              NewStore[model.Redemption](backend, model.KindRedemption),
		Loans:                    NewStore[model.RedemptionLoan](backend, model.KindRedemptionLoan),
		Vaults:                   NewStore[model.RedemptionVault](backend, model.KindRedemptionVault),
		VaultAssetConfigurations: NewStore[model.RedemptionVaultAssetConfiguration](backend, model.KindRedemptionVaultAssetConfiguration),

		LatestSnapshots:                  NewStore[model.LatestSnapshot](backend, model.KindLatestSnapshot),
		AuctioneerSnapshots:              NewStore[model.AuctioneerSnapshot](backend, model.KindAuctioneerSnapshot),
		AuctioneerDepositPeriodSnapshots: NewStore[model.AuctioneerDepositPeriodSnapshot](backend, model.KindAuctioneerDepositPeriodSnapshot),
		FacilitySnapshots:                NewStore[model.FacilitySnapshot](backend, model.KindFacilitySnapshot),
		FacilityAssetSnapshots:           NewStore[model.FacilityAssetSnapshot](backend, model.KindFacilityAssetSnapshot),

		Cursors: NewStore[model.IndexerCursor](backend, model.KindIndexerCursor),
	}
}

// Backend returns the backend shared by all tables.
func (t *Tables) Backend() Backend {
	return t.backend
}

// Tx runs fn inside one backend transaction.
func (t *Tables) Tx(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.backend.Tx(ctx, fn)
}

// Record persists an immutable event-history record under kind.
func (t *Tables) Record(ctx context.Context, kind string, record model.Entity) error {
	return NewStore[model.Entity](t.backend, kind).Set(ctx, record)
}
