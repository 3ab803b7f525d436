package handlers

import (
	"context"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/goran-ethernal/DepositIndexor/internal/contracts"
	"github.com/goran-ethernal/DepositIndexor/internal/model"
	"github.com/goran-ethernal/DepositIndexor/pkg/config"
)

type routeKey struct {
	kind  config.ContractKind
	topic common.Hash
}

type route struct {
	name   string
	handle func(ctx context.Context, meta model.Origin, log types.Log) error
}

// Router dispatches the logs of one chain to the handler registered for the
// emitting contract's kind and the log's topic0.
type Router struct {
	h         *Handlers
	chain     config.ChainConfig
	kinds     map[common.Address]config.ContractKind
	routes    map[routeKey]route
	addresses []common.Address
	topics    map[common.Hash]struct{}
}

// NewRouter binds the handlers to the configured contracts of a chain.
func NewRouter(h *Handlers, chain config.ChainConfig) *Router {
	r := &Router{
		h:      h,
		chain:  chain,
		kinds:  make(map[common.Address]config.ContractKind, len(chain.Contracts)),
		routes: make(map[routeKey]route),
		topics: make(map[common.Hash]struct{}),
	}

	for _, c := range chain.Contracts {
		addr := c.HexAddress()
		if _, dup := r.kinds[addr]; !dup {
			r.addresses = append(r.addresses, addr)
		}
		r.kinds[addr] = c.Kind
	}

	auctioneer := contracts.AuctioneerABI
	on(r, config.KindAuctioneer, auctioneer, "AuctionParametersUpdated", h.AuctionParametersUpdated)
	on(r, config.KindAuctioneer, auctioneer, "AuctionResult", h.AuctionResult)
	on(r, config.KindAuctioneer, auctioneer, "AuctionTrackingPeriodUpdated", h.AuctionTrackingPeriodUpdated)
	on(r, config.KindAuctioneer, auctioneer, "Bid", h.Bid)
	on(r, config.KindAuctioneer, auctioneer, "DepositPeriodEnableQueued", h.DepositPeriodEnableQueued)
	on(r, config.KindAuctioneer, auctioneer, "DepositPeriodEnabled", h.DepositPeriodEnabled)
	on(r, config.KindAuctioneer, auctioneer, "DepositPeriodDisableQueued", h.DepositPeriodDisableQueued)
	on(r, config.KindAuctioneer, auctioneer, "DepositPeriodDisabled", h.DepositPeriodDisabled)
	on(r, config.KindAuctioneer, auctioneer, "Enabled", h.AuctioneerEnabled)
	on(r, config.KindAuctioneer, auctioneer, "Disabled", h.AuctioneerDisabled)
	on(r, config.KindAuctioneer, auctioneer, "TickStepUpdated", h.TickStepUpdated)

	facility := contracts.FacilityABI
	on(r, config.KindFacility, facility, "AssetCommitted", h.AssetCommitted)
	on(r, config.KindFacility, facility, "AssetCommitCancelled", h.AssetCommitCancelled)
	on(r, config.KindFacility, facility, "AssetCommitWithdrawn", h.AssetCommitWithdrawn)
	on(r, config.KindFacility, facility, "AssetPeriodReclaimRateSet", h.AssetPeriodReclaimRateSet)
	on(r, config.KindFacility, facility, "ClaimedYield", h.ClaimedYield)
	on(r, config.KindFacility, facility, "ConvertedDeposit", h.ConvertedDeposit)
	on(r, config.KindFacility, facility, "CreatedDeposit", h.CreatedDeposit)
	on(r, config.KindFacility, facility, "Enabled", h.FacilityEnabled)
	on(r, config.KindFacility, facility, "Disabled", h.FacilityDisabled)
	on(r, config.KindFacility, facility, "OperatorAuthorized", h.OperatorAuthorized)
	on(r, config.KindFacility, facility, "OperatorDeauthorized", h.OperatorDeauthorized)
	on(r, config.KindFacility, facility, "Reclaimed", h.Reclaimed)

	vault := contracts.RedemptionVaultABI
	on(r, config.KindRedemptionVault, vault, "AnnualInterestRateSet", h.AnnualInterestRateSet)
	on(r, config.KindRedemptionVault, vault, "ClaimDefaultRewardPercentageSet", h.ClaimDefaultRewardPercentageSet)
	on(r, config.KindRedemptionVault, vault, "Enabled", h.VaultEnabled)
	on(r, config.KindRedemptionVault, vault, "Disabled", h.VaultDisabled)
	on(r, config.KindRedemptionVault, vault, "FacilityAuthorized", h.FacilityAuthorized)
	on(r, config.KindRedemptionVault, vault, "FacilityDeauthorized", h.FacilityDeauthorized)
	on(r, config.KindRedemptionVault, vault, "LoanCreated", h.LoanCreated)
	on(r, config.KindRedemptionVault, vault, "LoanDefaulted", h.LoanDefaulted)
	on(r, config.KindRedemptionVault, vault, "LoanExtended", h.LoanExtended)
	on(r, config.KindRedemptionVault, vault, "LoanRepaid", h.LoanRepaid)
	on(r, config.KindRedemptionVault, vault, "MaxBorrowPercentageSet", h.MaxBorrowPercentageSet)
	on(r, config.KindRedemptionVault, vault, "RedemptionCancelled", h.RedemptionCancelled)
	on(r, config.KindRedemptionVault, vault, "RedemptionFinished", h.RedemptionFinished)
	on(r, config.KindRedemptionVault, vault, "RedemptionStarted", h.RedemptionStarted)

	return r
}

// on registers fn for the named event of a contract kind.
func on[P any](
	r *Router, kind config.ContractKind, contract abi.ABI, name string,
	fn func(ctx context.Context, ev Event[P]) error,
) {
	event, ok := contract.Events[name]
	if !ok {
		panic(fmt.Sprintf("event %s missing from %s abi", name, kind))
	}

	r.topics[event.ID] = struct{}{}
	r.routes[routeKey{kind: kind, topic: event.ID}] = route{
		name: name,
		handle: func(ctx context.Context, meta model.Origin, log types.Log) error {
			params, err := decode[P](contract, name, log)
			if err != nil {
				return err
			}
			return fn(ctx, Event[P]{Meta: meta, Params: params})
		},
	}
}

// Events lists the handled event names of every contract kind, sorted.
func (r *Router) Events() map[config.ContractKind][]string {
	out := make(map[config.ContractKind][]string)
	for key, rt := range r.routes {
		out[key.kind] = append(out[key.kind], rt.name)
	}
	for _, names := range out {
		slices.Sort(names)
	}
	return out
}

// ChainID returns the chain the router serves.
func (r *Router) ChainID() uint64 {
	return r.chain.ChainID
}

// Addresses returns the contracts whose logs the router handles.
func (r *Router) Addresses() []common.Address {
	return r.addresses
}

// EventsToIndex returns every topic0 the router has a handler for.
func (r *Router) EventsToIndex() map[common.Hash]struct{} {
	return r.topics
}

// EventsByAddress returns the topics handled for each configured contract,
// according to the contract's kind.
func (r *Router) EventsByAddress() map[common.Address]map[common.Hash]struct{} {
	out := make(map[common.Address]map[common.Hash]struct{}, len(r.kinds))
	for addr, kind := range r.kinds {
		topics := make(map[common.Hash]struct{})
		for key := range r.routes {
			if key.kind == kind {
				topics[key.topic] = struct{}{}
			}
		}
		out[addr] = topics
	}
	return out
}

// Route decodes log and runs its handler. Logs from unknown contracts or
// with unhandled topics are skipped and reported as not handled.
func (r *Router) Route(ctx context.Context, meta model.Origin, log types.Log) (bool, error) {
	if len(log.Topics) == 0 {
		return false, nil
	}
	kind, ok := r.kinds[log.Address]
	if !ok {
		return false, nil
	}
	rt, ok := r.routes[routeKey{kind: kind, topic: log.Topics[0]}]
	if !ok {
		return false, nil
	}

	err := rt.handle(ctx, meta, log)
	eventHandledInc(meta.ChainID, string(kind), rt.name, err)
	if err != nil {
		return true, fmt.Errorf("%s %s at block %d log %d: %w", kind, rt.name, meta.Block, meta.LogIndex, err)
	}

	r.h.log.Debugw("handled event",
		"chain_id", meta.ChainID, "block", meta.Block, "log_index", meta.LogIndex,
		"contract", string(kind), "event", rt.name)
	return true, nil
}
