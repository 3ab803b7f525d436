package contracts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/singleflight"

	"github.com/goran-ethernal/DepositIndexor/internal/logger"
)

// Policy decides whether an effect's results are memoized.
type Policy int

const (
	// Cached effects read values that never change, or that are only
	// changed afterwards by events the handlers apply themselves.
	Cached Policy = iota
	// Live effects always hit the chain.
	Live
)

func (p Policy) String() string {
	if p == Live {
		return "live"
	}
	return "cached"
}

// Remote is a shared second-level cache for Cached effects.
type Remote interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// effect is one named contract read with its cache policy. Concurrent reads
// of the same key collapse into a single chain read.
type effect[K comparable, V any] struct {
	name   string
	policy Policy
	cache  *xsync.Map[K, V]
	group  singleflight.Group
	remote Remote
	log    *logger.Logger
}

func newEffect[K comparable, V any](name string, policy Policy, remote Remote, log *logger.Logger) *effect[K, V] {
	e := &effect[K, V]{name: name, policy: policy, log: log}
	if policy == Cached {
		e.cache = xsync.NewMap[K, V]()
		e.remote = remote
	}
	return e
}

// get returns the value for key, calling read on a miss. chainID and addr
// only label a failure.
func (e *effect[K, V]) get(
	ctx context.Context,
	chainID uint64,
	addr common.Address,
	key K,
	read func(ctx context.Context) (V, error),
) (V, error) {
	if e.cache != nil {
		if v, ok := e.cache.Load(key); ok {
			fetchCacheHits.WithLabelValues(e.name).Inc()
			return v, nil
		}
		fetchCacheMisses.WithLabelValues(e.name).Inc()
	}

	sfKey := fmt.Sprint(key)
	res, err, _ := e.group.Do(sfKey, func() (any, error) {
		if v, ok := e.loadRemote(ctx, sfKey); ok {
			e.cache.Store(key, v)
			return v, nil
		}

		start := time.Now()
		v, err := read(ctx)
		contractReadObserve(e.name, start)
		if err != nil {
			return v, err
		}

		if e.cache != nil {
			e.cache.Store(key, v)
			e.storeRemote(ctx, sfKey, v)
		}
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, &ContractReadError{Effect: e.name, ChainID: chainID, Address: addr, Err: err}
	}

	v, _ := res.(V)
	return v, nil
}

func (e *effect[K, V]) remoteKey(key string) string {
	return e.name + ":" + key
}

// loadRemote is only reachable for Cached effects with a remote configured.
func (e *effect[K, V]) loadRemote(ctx context.Context, key string) (V, bool) {
	var v V
	if e.remote == nil {
		return v, false
	}

	data, ok, err := e.remote.Get(ctx, e.remoteKey(key))
	if err != nil {
		e.log.Warnw("remote cache read failed", "effect", e.name, "error", err)
		return v, false
	}
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		e.log.Warnw("remote cache entry undecodable", "effect", e.name, "error", err)
		return v, false
	}
	return v, true
}

func (e *effect[K, V]) storeRemote(ctx context.Context, key string, v V) {
	if e.remote == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		e.log.Warnw("remote cache entry unencodable", "effect", e.name, "error", err)
		return
	}
	if err := e.remote.Set(ctx, e.remoteKey(key), data); err != nil {
		e.log.Warnw("remote cache write failed", "effect", e.name, "error", err)
	}
}

// size returns the number of locally cached entries.
func (e *effect[K, V]) size() int {
	if e.cache == nil {
		return 0
	}
	return e.cache.Size()
}
