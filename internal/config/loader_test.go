package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goran-ethernal/DepositIndexor/pkg/config"
)

func TestLoadFromFile_Formats(t *testing.T) {
	tests := []struct {
		name string
		path string
		load func(string) (*config.Config, error)
	}{
		{name: "yaml", path: "../../config.example.yaml", load: LoadFromYAML},
		{name: "json", path: "../../config.example.json", load: LoadFromJSON},
		{name: "toml", path: "../../config.example.toml", load: LoadFromTOML},
		{name: "auto yaml", path: "../../config.example.yaml", load: LoadFromFile},
		{name: "auto json", path: "../../config.example.json", load: LoadFromFile},
		{name: "auto toml", path: "../../config.example.toml", load: LoadFromFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := tt.load(tt.path)
			require.NoError(t, err)
			validateConfig(t, cfg)
		})
	}
}

func TestLoadFromFile_UnsupportedFormat(t *testing.T) {
	_, err := LoadFromFile("config.txt")
	require.ErrorContains(t, err, "unsupported config file format")
}

func TestLoadFromFile_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_RPC_URL", "https://rpc.example.org/key")

	data, err := os.ReadFile("../../config.example.yaml")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	replaced := strings.ReplaceAll(string(data), "https://ethereum-sepolia-rpc.publicnode.com", "${TEST_RPC_URL}")
	require.NoError(t, os.WriteFile(path, []byte(replaced), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.example.org/key", cfg.Chains[0].RPCURL)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  path: x.db\n"), 0o600))

	_, err := LoadFromFile(path)
	require.ErrorContains(t, err, "at least one chain must be configured")
}

func validateConfig(t *testing.T, cfg *config.Config) {
	t.Helper()

	require.Len(t, cfg.Chains, 1)
	chain := cfg.Chains[0]

	assert.Equal(t, uint64(11155111), chain.ChainID)
	assert.Equal(t, "finalized", chain.Finality)
	assert.Equal(t, uint64(9180152), chain.Snapshot.StartBlock)
	assert.Equal(t, uint64(3000), chain.Snapshot.Interval)
	assert.Equal(t, uint64(9180152), chain.StartBlock, "start block defaults to the earliest contract")
	require.NotNil(t, chain.Retry)
	assert.Equal(t, 5, chain.Retry.MaxAttempts)

	require.Len(t, chain.Contracts, 3)
	assert.Equal(t, config.KindAuctioneer, chain.Contracts[0].Kind)
	assert.Equal(t, config.KindFacility, chain.Contracts[1].Kind)
	assert.Equal(t, config.KindRedemptionVault, chain.Contracts[2].Kind)

	assert.Equal(t,
		[]common.Address{common.HexToAddress("0x1111111111111111111111111111111111111111")},
		cfg.AuctioneerAddresses(11155111),
	)
	assert.Equal(t,
		[]common.Address{common.HexToAddress("0x2222222222222222222222222222222222222222")},
		cfg.FacilityAddresses(11155111),
	)
	assert.Empty(t, cfg.AuctioneerAddresses(1))

	assert.Equal(t, "WAL", cfg.Database.JournalMode)
	assert.Equal(t, 5000, cfg.Database.BusyTimeout)
	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "debug", cfg.Logging.ComponentLevels["snapshot"])
	require.NotNil(t, cfg.API)
	assert.Equal(t, ":8080", cfg.API.ListenAddress)
}
