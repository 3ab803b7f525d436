package common

import (
	"strconv"
	"strings"
)

// ParseBlockNumber parses a decimal or 0x-prefixed hex block number.
func ParseBlockNumber(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if hex, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		return strconv.ParseUint(hex, 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

// ToLowerWithTrim lowercases s after trimming surrounding whitespace.
func ToLowerWithTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
