// Package ids builds the composite entity ids used throughout the store.
//
// Every id is an ordered tuple joined with Separator. Addresses and hex
// strings are lowercased so lookups are case-insensitive. Callers must not
// format ids themselves.
package ids

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Separator joins id parts.
const Separator = "_"

// Build joins parts in order.
func Build(parts ...any) string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = part(p)
	}
	return strings.Join(out, Separator)
}

func part(p any) string {
	switch v := p.(type) {
	case string:
		return strings.ToLower(v)
	case common.Address:
		return strings.ToLower(v.Hex())
	case common.Hash:
		return strings.ToLower(v.Hex())
	case *big.Int:
		if v == nil {
			return "0"
		}
		return v.String()
	case uint64:
		return strconv.FormatUint(v, 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case fmt.Stringer:
		return strings.ToLower(v.String())
	default:
		return strings.ToLower(fmt.Sprint(v))
	}
}

// Addr normalizes an address for storage.
func Addr(a common.Address) string {
	return strings.ToLower(a.Hex())
}

// Address is the id of an entity keyed by (chain, address).
func Address(chainID uint64, addr common.Address) string {
	return Build(chainID, addr)
}

// BlockEvent is the id of an event-history record.
func BlockEvent(chainID, block uint64, logIndex uint) string {
	return Build(chainID, block, logIndex)
}

// BlockEventChild is the id of a per-item record derived from a single event.
func BlockEventChild(chainID, block uint64, logIndex uint, sub any) string {
	return Build(chainID, block, logIndex, sub)
}

// Position is the id of a convertible deposit position.
func Position(chainID uint64, positionID *big.Int) string {
	return Build(chainID, positionID)
}

// ReceiptToken is the id of a receipt token.
func ReceiptToken(chainID uint64, manager common.Address, tokenID *big.Int) string {
	return Build(chainID, manager, tokenID)
}

// DepositAssetPeriod is the id of a (deposit asset, period) pair.
func DepositAssetPeriod(chainID uint64, asset common.Address, months uint8) string {
	return Build(chainID, asset, months)
}

// AuctioneerDepositPeriod is the id of an (auctioneer, asset period) pair.
func AuctioneerDepositPeriod(chainID uint64, auctioneer, asset common.Address, months uint8) string {
	return Build(chainID, auctioneer, asset, months)
}

// FacilityAsset is the id of a (facility, asset) pair.
func FacilityAsset(chainID uint64, facility, asset common.Address) string {
	return Build(chainID, facility, asset)
}

// FacilityAssetPeriod is the id of a (facility, asset, period) triple.
func FacilityAssetPeriod(chainID uint64, facility, asset common.Address, months uint8) string {
	return Build(chainID, facility, asset, months)
}

// Redemption is the id of a redemption.
func Redemption(chainID uint64, user common.Address, redemptionID uint64) string {
	return Build(chainID, user, redemptionID)
}

// RedemptionLoan is the id of a loan taken against a redemption.
func RedemptionLoan(chainID uint64, vault, user common.Address, redemptionID uint64) string {
	return Build(chainID, vault, user, redemptionID)
}

// VaultAssetConfiguration is the id of a (vault, facility, asset) configuration.
func VaultAssetConfiguration(chainID uint64, vault, facility, asset common.Address) string {
	return Build(chainID, vault, facility, asset)
}

// LatestSnapshot is the id of the per-chain latest snapshot index.
func LatestSnapshot(chainID uint64) string {
	return Build(chainID)
}

// IndexerCursor is the id of the per-chain progress marker.
func IndexerCursor(chainID uint64) string {
	return Build(chainID, "cursor")
}

// AuctioneerSnapshot is the id of an auctioneer snapshot at block.
func AuctioneerSnapshot(chainID, block uint64, auctioneer common.Address) string {
	return Build(chainID, block, auctioneer)
}

// AuctioneerDepositPeriodSnapshot is the id of a deposit period snapshot at block.
func AuctioneerDepositPeriodSnapshot(chainID, block uint64, auctioneer, asset common.Address, months uint8) string {
	return Build(chainID, block, auctioneer, asset, months)
}

// FacilitySnapshot is the id of a facility snapshot at block.
func FacilitySnapshot(chainID, block uint64, facility common.Address) string {
	return Build(chainID, block, facility)
}

// FacilityAssetSnapshot is the id of a facility asset snapshot at block.
func FacilityAssetSnapshot(chainID, block uint64, facility, asset common.Address) string {
	return Build(chainID, block, facility, asset)
}
