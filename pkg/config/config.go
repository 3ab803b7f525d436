package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/goran-ethernal/DepositIndexor/internal/common"
	"github.com/goran-ethernal/DepositIndexor/internal/types"
)

// Config is the root configuration of the indexer.
type Config struct {
	// Database configures the SQLite file holding entities and sync state.
	Database DatabaseConfig `yaml:"database" json:"database" toml:"database"`

	// Contracts configures contract reads.
	Contracts ContractsConfig `yaml:"contracts" json:"contracts" toml:"contracts"`

	// Chains lists every indexed chain.
	Chains []ChainConfig `yaml:"chains" json:"chains" toml:"chains"`

	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty" toml:"logging,omitempty"`

	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty" toml:"metrics,omitempty"`

	API *APIConfig `yaml:"api,omitempty" json:"api,omitempty" toml:"api,omitempty"`
}

// ContractKind identifies which handler set a contract uses.
type ContractKind string

const (
	KindAuctioneer      ContractKind = "auctioneer"
	KindFacility        ContractKind = "facility"
	KindRedemptionVault ContractKind = "redemption_vault"
)

// AllContractKinds lists the supported contract kinds.
var AllContractKinds = []ContractKind{KindAuctioneer, KindFacility, KindRedemptionVault}

// InferContractKind derives a kind from a contract's logical name.
func InferContractKind(name string) (ContractKind, bool) {
	switch {
	case strings.Contains(name, "Auctioneer"):
		return KindAuctioneer, true
	case strings.Contains(name, "Facility"):
		return KindFacility, true
	case strings.Contains(name, "RedemptionVault"):
		return KindRedemptionVault, true
	default:
		return "", false
	}
}

// ContractsConfig configures contract reads.
type ContractsConfig struct {
	// PinReadsToBlock runs live reads at the block of the event being handled
	// instead of the chain head. Requires an archive node.
	PinReadsToBlock bool `yaml:"pin_reads_to_block" json:"pin_reads_to_block" toml:"pin_reads_to_block"`

	// Cache configures an optional shared cache for static reads.
	Cache *CacheConfig `yaml:"cache,omitempty" json:"cache,omitempty" toml:"cache,omitempty"`
}

// CacheConfig configures the redis-backed static read cache.
type CacheConfig struct {
	RedisURL string `yaml:"redis_url" json:"redis_url" toml:"redis_url"`

	Prefix string `yaml:"prefix" json:"prefix" toml:"prefix"`

	// TTL of cached entries. Zero keeps them forever.
	TTL common.Duration `yaml:"ttl" json:"ttl" toml:"ttl"`
}

func (c *CacheConfig) ApplyDefaults() {
	if c.Prefix == "" {
		c.Prefix = "depositindexor"
	}
}

// ChainConfig configures one indexed chain.
type ChainConfig struct {
	ChainID uint64 `yaml:"chain_id" json:"chain_id" toml:"chain_id"`

	Name string `yaml:"name" json:"name" toml:"name"`

	RPCURL string `yaml:"rpc_url" json:"rpc_url" toml:"rpc_url"`

	// Finality selects the head the downloader follows: finalized or safe.
	Finality string `yaml:"finality" json:"finality" toml:"finality"`

	// StartBlock overrides the earliest contract start block.
	StartBlock uint64 `yaml:"start_block" json:"start_block" toml:"start_block"`

	ChunkSize uint64 `yaml:"chunk_size" json:"chunk_size" toml:"chunk_size"`

	PollInterval common.Duration `yaml:"poll_interval" json:"poll_interval" toml:"poll_interval"`

	Retry *RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty" toml:"retry,omitempty"`

	// PositionManager is the address of the deposit position manager.
	PositionManager string `yaml:"position_manager" json:"position_manager" toml:"position_manager"`

	// Multicall3 enables batched position reads when set.
	Multicall3 string `yaml:"multicall3,omitempty" json:"multicall3,omitempty" toml:"multicall3,omitempty"`

	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot" toml:"snapshot"`

	Contracts []ContractConfig `yaml:"contracts" json:"contracts" toml:"contracts"`
}

func (c *ChainConfig) ApplyDefaults() {
	if c.Finality == "" {
		c.Finality = types.FinalityFinalized.String()
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 2000
	}
	if c.PollInterval.Duration == 0 {
		c.PollInterval = common.NewDuration(12 * time.Second) //nolint:mnd
	}
	if c.Retry == nil {
		c.Retry = &RetryConfig{}
	}
	c.Retry.ApplyDefaults()
	c.Snapshot.ApplyDefaults()

	for i := range c.Contracts {
		c.Contracts[i].ApplyDefaults()
	}

	if c.StartBlock == 0 {
		c.StartBlock = c.earliestContractBlock()
	}
}

func (c *ChainConfig) earliestContractBlock() uint64 {
	var earliest uint64
	for i, contract := range c.Contracts {
		if i == 0 || contract.StartBlock < earliest {
			earliest = contract.StartBlock
		}
	}
	return earliest
}

func (c *ChainConfig) Validate() error {
	if c.ChainID == 0 {
		return fmt.Errorf("chain_id is required")
	}
	if c.RPCURL == "" {
		return fmt.Errorf("rpc_url is required")
	}
	if _, err := types.ParseBlockFinality(c.Finality); err != nil {
		return fmt.Errorf("finality must be one of: 'finalized', 'safe'")
	}
	if !ethcommon.IsHexAddress(c.PositionManager) {
		return fmt.Errorf("position_manager must be a hex address")
	}
	if c.Multicall3 != "" && !ethcommon.IsHexAddress(c.Multicall3) {
		return fmt.Errorf("multicall3 must be a hex address")
	}
	if c.Snapshot.Interval == 0 {
		return fmt.Errorf("snapshot.interval must be positive")
	}
	if len(c.Contracts) == 0 {
		return fmt.Errorf("at least one contract must be configured")
	}

	seen := make(map[string]bool)
	for j, contract := range c.Contracts {
		if err := contract.Validate(); err != nil {
			return fmt.Errorf("contract[%d] (%s): %w", j, contract.Name, err)
		}

		addr := common.ToLowerWithTrim(contract.Address)
		if seen[addr] {
			return fmt.Errorf("contract[%d] (%s): duplicate address %s", j, contract.Name, contract.Address)
		}
		seen[addr] = true
	}

	return nil
}

// SnapshotConfig schedules the periodic snapshot callback.
type SnapshotConfig struct {
	StartBlock uint64 `yaml:"start_block" json:"start_block" toml:"start_block"`

	// Interval in blocks between snapshots.
	Interval uint64 `yaml:"interval" json:"interval" toml:"interval"`
}

func (s *SnapshotConfig) ApplyDefaults() {
	if s.Interval == 0 {
		s.Interval = 3000
	}
}

// Due reports whether the callback fires at block.
func (s SnapshotConfig) Due(block uint64) bool {
	return s.Interval > 0 && block >= s.StartBlock && (block-s.StartBlock)%s.Interval == 0
}

// DueBlocks lists the blocks in [from, to] at which the callback fires.
func (s SnapshotConfig) DueBlocks(from, to uint64) []uint64 {
	if s.Interval == 0 || to < from || to < s.StartBlock {
		return nil
	}

	first := max(from, s.StartBlock)
	if rem := (first - s.StartBlock) % s.Interval; rem != 0 {
		first += s.Interval - rem
	}

	var blocks []uint64
	for b := first; b <= to; b += s.Interval {
		blocks = append(blocks, b)
	}
	return blocks
}

// ContractConfig is a single deployed contract.
type ContractConfig struct {
	// Name is the logical contract name, e.g. ConvertibleDepositAuctioneer.
	Name string `yaml:"name" json:"name" toml:"name"`

	// Kind is inferred from Name when empty.
	Kind ContractKind `yaml:"kind,omitempty" json:"kind,omitempty" toml:"kind,omitempty"`

	Address string `yaml:"address" json:"address" toml:"address"`

	StartBlock uint64 `yaml:"start_block" json:"start_block" toml:"start_block"`
}

func (c *ContractConfig) ApplyDefaults() {
	if c.Kind == "" {
		if kind, ok := InferContractKind(c.Name); ok {
			c.Kind = kind
		}
	}
}

func (c *ContractConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !ethcommon.IsHexAddress(c.Address) {
		return fmt.Errorf("address must be a hex address")
	}
	if !slices.Contains(AllContractKinds, c.Kind) {
		return fmt.Errorf("kind must be one of: auctioneer, facility, redemption_vault")
	}
	return nil
}

// HexAddress returns the parsed contract address.
func (c ContractConfig) HexAddress() ethcommon.Address {
	return ethcommon.HexToAddress(c.Address)
}

// RetryConfig configures RPC retries with exponential backoff.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`

	InitialBackoff common.Duration `yaml:"initial_backoff" json:"initial_backoff" toml:"initial_backoff"`

	MaxBackoff common.Duration `yaml:"max_backoff" json:"max_backoff" toml:"max_backoff"`

	BackoffMultiplier float64 `yaml:"backoff_multiplier" json:"backoff_multiplier" toml:"backoff_multiplier"`
}

func (r *RetryConfig) ApplyDefaults() {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 5
	}
	if r.InitialBackoff.Duration == 0 {
		r.InitialBackoff = common.NewDuration(1 * time.Second)
	}
	if r.MaxBackoff.Duration == 0 {
		r.MaxBackoff = common.NewDuration(30 * time.Second) //nolint:mnd
	}
	if r.BackoffMultiplier == 0 {
		r.BackoffMultiplier = 2.0
	}
}

// DatabaseConfig configures the SQLite connection.
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path" toml:"path"`

	JournalMode string `yaml:"journal_mode" json:"journal_mode" toml:"journal_mode"`

	Synchronous string `yaml:"synchronous" json:"synchronous" toml:"synchronous"`

	BusyTimeout int `yaml:"busy_timeout" json:"busy_timeout" toml:"busy_timeout"`

	CacheSize int `yaml:"cache_size" json:"cache_size" toml:"cache_size"`

	MaxOpenConnections int `yaml:"max_open_connections" json:"max_open_connections" toml:"max_open_connections"`

	MaxIdleConnections int `yaml:"max_idle_connections" json:"max_idle_connections" toml:"max_idle_connections"`

	EnableForeignKeys bool `yaml:"enable_foreign_keys" json:"enable_foreign_keys" toml:"enable_foreign_keys"`
}

func (d *DatabaseConfig) ApplyDefaults() {
	if d.JournalMode == "" {
		d.JournalMode = "WAL"
	}
	if d.Synchronous == "" {
		d.Synchronous = "NORMAL"
	}
	if d.BusyTimeout == 0 {
		d.BusyTimeout = 5000
	}
	if d.CacheSize == 0 {
		d.CacheSize = 10000
	}
	if d.MaxOpenConnections == 0 {
		d.MaxOpenConnections = 25
	}
	if d.MaxIdleConnections == 0 {
		d.MaxIdleConnections = 5
	}
}

func (d *DatabaseConfig) Validate() error {
	if d.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if !slices.Contains([]string{"WAL", "DELETE", "TRUNCATE", "PERSIST", "MEMORY"}, d.JournalMode) {
		return fmt.Errorf("database.journal_mode must be one of: WAL, DELETE, TRUNCATE, PERSIST, MEMORY")
	}
	if !slices.Contains([]string{"FULL", "NORMAL", "OFF"}, d.Synchronous) {
		return fmt.Errorf("database.synchronous must be one of: FULL, NORMAL, OFF")
	}
	return nil
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	DefaultLevel string `yaml:"default_level" json:"default_level" toml:"default_level"`

	Development bool `yaml:"development" json:"development" toml:"development"`

	ComponentLevels map[string]string `yaml:"component_levels,omitempty" json:"component_levels,omitempty" toml:"component_levels,omitempty"` //nolint:lll
}

func (l *LoggingConfig) ApplyDefaults() {
	if l.DefaultLevel == "" {
		l.DefaultLevel = "info"
	}
	if l.ComponentLevels == nil {
		l.ComponentLevels = make(map[string]string)
	}
}

func (l *LoggingConfig) Validate() error {
	if _, valid := common.ValidLogLevels[common.ToLowerWithTrim(l.DefaultLevel)]; !valid {
		return fmt.Errorf("logging.default_level: must be one of: debug, info, warn, error")
	}

	for component, level := range l.ComponentLevels {
		if _, validComponent := common.AllComponents[common.ToLowerWithTrim(component)]; !validComponent {
			return fmt.Errorf("logging.component_levels: unknown component '%s'", component)
		}

		if _, valid := common.ValidLogLevels[common.ToLowerWithTrim(level)]; !valid {
			return fmt.Errorf("logging.component_levels[%s]: must be one of: debug, info, warn, error", component)
		}
	}

	return nil
}

// MetricsConfig holds Prometheus exporter configuration.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	Path string `yaml:"path" json:"path" toml:"path"`
}

func (m *MetricsConfig) ApplyDefaults() {
	if m.ListenAddress == "" {
		m.ListenAddress = ":9090"
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
}

func (m *MetricsConfig) Validate() error {
	if m.Enabled && (m.Path == "" || m.Path[0] != '/') {
		return fmt.Errorf("path must start with '/'")
	}
	return nil
}

// APIConfig configures the query API server.
type APIConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	ReadTimeout common.Duration `yaml:"read_timeout" json:"read_timeout" toml:"read_timeout"`

	WriteTimeout common.Duration `yaml:"write_timeout" json:"write_timeout" toml:"write_timeout"`

	IdleTimeout common.Duration `yaml:"idle_timeout" json:"idle_timeout" toml:"idle_timeout"`

	CORS CORSConfig `yaml:"cors" json:"cors" toml:"cors"`
}

// CORSConfig configures cross-origin access to the API.
type CORSConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins" toml:"allowed_origins"`
}

func (a *APIConfig) ApplyDefaults() {
	if a.ListenAddress == "" {
		a.ListenAddress = ":8080"
	}
	if a.ReadTimeout.Duration == 0 {
		a.ReadTimeout = common.NewDuration(15 * time.Second) //nolint:mnd
	}
	if a.WriteTimeout.Duration == 0 {
		a.WriteTimeout = common.NewDuration(15 * time.Second) //nolint:mnd
	}
	if a.IdleTimeout.Duration == 0 {
		a.IdleTimeout = common.NewDuration(60 * time.Second) //nolint:mnd
	}
	if a.CORS.Enabled && len(a.CORS.AllowedOrigins) == 0 {
		a.CORS.AllowedOrigins = []string{"*"}
	}
}

// ApplyDefaults sets default values for optional fields.
func (c *Config) ApplyDefaults() {
	c.Database.ApplyDefaults()

	if c.Contracts.Cache != nil {
		c.Contracts.Cache.ApplyDefaults()
	}

	for i := range c.Chains {
		c.Chains[i].ApplyDefaults()
	}

	if c.Logging == nil {
		c.Logging = &LoggingConfig{}
	}
	c.Logging.ApplyDefaults()

	if c.Metrics != nil {
		c.Metrics.ApplyDefaults()
	}

	if c.API != nil {
		c.API.ApplyDefaults()
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}

	if c.Contracts.Cache != nil && c.Contracts.Cache.RedisURL == "" {
		return fmt.Errorf("contracts.cache.redis_url is required when the cache is configured")
	}

	if len(c.Chains) == 0 {
		return fmt.Errorf("at least one chain must be configured")
	}

	chainIDs := make(map[uint64]bool)
	for i, chain := range c.Chains {
		if err := chain.Validate(); err != nil {
			return fmt.Errorf("chains[%d] (%s): %w", i, chain.Name, err)
		}
		if chainIDs[chain.ChainID] {
			return fmt.Errorf("chains[%d] (%s): duplicate chain_id %d", i, chain.Name, chain.ChainID)
		}
		chainIDs[chain.ChainID] = true
	}

	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return err
		}
	}

	if c.Metrics != nil {
		if err := c.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	return nil
}

// Chain returns the configuration of chainID.
func (c *Config) Chain(chainID uint64) (*ChainConfig, bool) {
	for i := range c.Chains {
		if c.Chains[i].ChainID == chainID {
			return &c.Chains[i], true
		}
	}
	return nil, false
}

// AuctioneerAddresses returns the auctioneer contracts configured for chainID.
func (c *Config) AuctioneerAddresses(chainID uint64) []ethcommon.Address {
	chain, ok := c.Chain(chainID)
	if !ok {
		return nil
	}
	return chain.AuctioneerAddresses()
}

// FacilityAddresses returns the deposit facility contracts configured for chainID.
func (c *Config) FacilityAddresses(chainID uint64) []ethcommon.Address {
	chain, ok := c.Chain(chainID)
	if !ok {
		return nil
	}
	return chain.FacilityAddresses()
}

// AuctioneerAddresses returns the contracts whose name contains "Auctioneer".
func (c *ChainConfig) AuctioneerAddresses() []ethcommon.Address {
	return c.addressesByName("Auctioneer")
}

// FacilityAddresses returns the contracts whose name contains "Facility".
func (c *ChainConfig) FacilityAddresses() []ethcommon.Address {
	return c.addressesByName("Facility")
}

func (c *ChainConfig) addressesByName(substr string) []ethcommon.Address {
	var out []ethcommon.Address
	for _, contract := range c.Contracts {
		if strings.Contains(contract.Name, substr) {
			out = append(out, contract.HexAddress())
		}
	}
	return out
}
