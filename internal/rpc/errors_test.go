package rpc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type dataError struct {
	data any
}

func (e *dataError) Error() string  { return fmt.Sprint(e.data) }
func (e *dataError) ErrorData() any { return e.data }

const tooManyResults = "Query returned more than 10000 results. Try with this block range [0x8c1838, 0x8c19a0]."

func TestIsTooManyResultsError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantMatch bool
		wantData  string
	}{
		{name: "nil", err: nil},
		{name: "plain error", err: errors.New(tooManyResults)},
		{name: "data error", err: &dataError{data: tooManyResults}, wantMatch: true, wantData: tooManyResults},
		{
			name:      "wrapped data error",
			err:       fmt.Errorf("eth_getLogs: %w", &dataError{data: tooManyResults}),
			wantMatch: true,
			wantData:  tooManyResults,
		},
		{name: "other data", err: &dataError{data: "execution reverted"}, wantData: "execution reverted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match, data := IsTooManyResultsError(tt.err)
			require.Equal(t, tt.wantMatch, match)
			require.Equal(t, tt.wantData, data)
		})
	}
}

func TestParseSuggestedBlockRange(t *testing.T) {
	tests := []struct {
		name     string
		errData  string
		wantFrom uint64
		wantTo   uint64
		wantOK   bool
	}{
		{name: "empty"},
		{name: "no range", errData: "Query returned more than 10000 results."},
		{name: "range", errData: tooManyResults, wantFrom: 9181240, wantTo: 9181600, wantOK: true},
		{name: "spaces and case", errData: "range [0x1aBc,   0x2DEF]", wantFrom: 6844, wantTo: 11759, wantOK: true},
		{name: "bad hex", errData: "range [0xZZ, 0x10]"},
		{name: "first range wins", errData: "[0x10, 0x20] or [0x30, 0x40]", wantFrom: 16, wantTo: 32, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, ok := ParseSuggestedBlockRange(tt.errData)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.wantFrom, from)
			require.Equal(t, tt.wantTo, to)
		})
	}
}
