package ids

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

var (
	facility = common.HexToAddress("0xAbCdEf0000000000000000000000000000000001")
	asset    = common.HexToAddress("0x1C7D4B196Cb0C7B01d743Fbc6116a902379C7238")
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name  string
		parts []any
		want  string
	}{
		{name: "chain only", parts: []any{uint64(1)}, want: "1"},
		{name: "mixed", parts: []any{uint64(11155111), "0xABC", uint8(3)}, want: "11155111_0xabc_3"},
		{name: "big int", parts: []any{uint64(1), big.NewInt(42)}, want: "1_42"},
		{name: "nil big int", parts: []any{uint64(1), (*big.Int)(nil)}, want: "1_0"},
		{name: "address lowercased", parts: []any{uint64(1), facility}, want: "1_0xabcdef0000000000000000000000000000000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Build(tt.parts...))
		})
	}
}

func TestBuilders_CaseInsensitive(t *testing.T) {
	upper := common.HexToAddress("0x1C7D4B196CB0C7B01D743FBC6116A902379C7238")
	assert.Equal(t, FacilityAsset(1, facility, asset), FacilityAsset(1, facility, upper))
	assert.Equal(t, Address(1, asset), Build(uint64(1), "0x1c7d4b196cb0c7b01d743fbc6116a902379c7238"))
}

func TestBuilders_Shapes(t *testing.T) {
	vault := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	user := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	assert.Equal(t, "5_100_7", BlockEvent(5, 100, 7))
	assert.Equal(t, "5_100_7_12", BlockEventChild(5, 100, 7, big.NewInt(12)))
	assert.Equal(t, "5_12", Position(5, big.NewInt(12)))
	assert.Equal(t, "5", LatestSnapshot(5))
	assert.Equal(t,
		"5_0x00000000000000000000000000000000000000aa_0x00000000000000000000000000000000000000bb_3",
		RedemptionLoan(5, vault, user, 3),
	)
	assert.NotEqual(t, Redemption(5, user, 3), RedemptionLoan(5, vault, user, 3))
	assert.Equal(t, Build(uint64(5), uint64(9), facility, asset), FacilityAssetSnapshot(5, 9, facility, asset))
}
