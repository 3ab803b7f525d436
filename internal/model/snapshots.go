package model

// SnapshotKind identifies which family a latest-snapshot pointer belongs to.
type SnapshotKind string

const (
	SnapshotAuctioneer              SnapshotKind = "auctioneer"
	SnapshotAuctioneerDepositPeriod SnapshotKind = "auctioneer_deposit_period"
	SnapshotFacility                SnapshotKind = "facility"
	SnapshotFacilityAsset           SnapshotKind = "facility_asset"
)

// SnapshotPointer maps a logical key to its most recent snapshot id.
type SnapshotPointer struct {
	Kind       SnapshotKind `json:"kind"`
	Key        string       `json:"key"`
	SnapshotID string       `json:"snapshotId"`
}

// LatestSnapshot is the per-chain pointer table.
type LatestSnapshot struct {
	Key
	Pointers []SnapshotPointer `json:"pointers"`
}

// Lookup returns the snapshot id for (kind, key).
func (l LatestSnapshot) Lookup(kind SnapshotKind, key string) (string, bool) {
	for _, p := range l.Pointers {
		if p.Kind == kind && p.Key == key {
			return p.SnapshotID, true
		}
	}
	return "", false
}

// WithPointer returns a copy of l whose pointer for (kind, key) is snapshotID.
func (l LatestSnapshot) WithPointer(kind SnapshotKind, key, snapshotID string) LatestSnapshot {
	out := l
	out.Pointers = make([]SnapshotPointer, 0, len(l.Pointers)+1)
	for _, p := range l.Pointers {
		if p.Kind == kind && p.Key == key {
			continue
		}
		out.Pointers = append(out.Pointers, p)
	}
	out.Pointers = append(out.Pointers, SnapshotPointer{Kind: kind, Key: key, SnapshotID: snapshotID})
	return out
}

type AuctioneerSnapshot struct {
	Key
	Block            uint64 `json:"block"`
	Timestamp        uint64 `json:"timestamp"`
	AuctioneerID     string `json:"auctioneerId"`
	DayInitTimestamp uint64 `json:"dayInitTimestamp"`
	OhmSold          Amount `json:"ohmSold"`
	IsAuctionActive  bool   `json:"isAuctionActive"`
	Target           Amount `json:"target"`
	TickSize         Amount `json:"tickSize"`
	MinPrice         Amount `json:"minPrice"`
}

type AuctioneerDepositPeriodSnapshot struct {
	Key
	Block                     uint64 `json:"block"`
	Timestamp                 uint64 `json:"timestamp"`
	AuctioneerSnapshotID      string `json:"auctioneerSnapshotId"`
	AuctioneerDepositPeriodID string `json:"auctioneerDepositPeriodId"`
	Enabled                   bool   `json:"enabled"`
	TickPrice                 Amount `json:"tickPrice"`
	TickCapacity              Amount `json:"tickCapacity"`
	TickLastUpdate            uint64 `json:"tickLastUpdate"`
}

type FacilitySnapshot struct {
	Key
	Block            uint64   `json:"block"`
	Timestamp        uint64   `json:"timestamp"`
	FacilityID       string   `json:"facilityId"`
	Enabled          bool     `json:"enabled"`
	AssetSnapshotIDs []string `json:"assetSnapshotIds"`
}

// FacilityAssetSnapshot carries running totals forward from the previous
// snapshot of the same (facility, asset). ClaimableYield is always read live.
type FacilityAssetSnapshot struct {
	Key
	Block              uint64 `json:"block"`
	Timestamp          uint64 `json:"timestamp"`
	FacilitySnapshotID string `json:"facilitySnapshotId"`
	FacilityID         string `json:"facilityId"`
	FacilityAssetID    string `json:"facilityAssetId"`
	DepositAssetID     string `json:"depositAssetId"`
	TotalDeposited     Amount `json:"totalDeposited"`
	PendingRedemption  Amount `json:"pendingRedemption"`
	BorrowedAmount     Amount `json:"borrowedAmount"`
	ClaimableYield     Amount `json:"claimableYield"`
}
