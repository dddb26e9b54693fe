package domain

import "strings"

// ChainInfo describes the EVM chain whose tokens are listed.
type ChainInfo struct {
	ID             string `json:"id"`             // DEX aggregator chain id
	NumericID      string `json:"numericId"`      // hex chain id
	Name           string `json:"name"`
	NativeSymbol   string `json:"nativeSymbol"`
	NativeDecimals int    `json:"nativeDecimals"`
	RPC            string `json:"rpc"`
	Explorer       string `json:"explorer"`
}

// PulseChain is the default chain.
var PulseChain = ChainInfo{
	ID:             "pulsechain",
	NumericID:      "0x171",
	Name:           "PulseChain",
	NativeSymbol:   "PLS",
	NativeDecimals: 18,
	RPC:            "https://rpc.pulsechain.com",
	Explorer:       "https://scan.pulsechain.com/api",
}

// Matches reports whether a provider chain id refers to this chain.
// Providers report either the slug or the hex id.
func (c ChainInfo) Matches(chainID string) bool {
	id := strings.ToLower(strings.TrimSpace(chainID))
	if id == "" {
		return false
	}
	return id == strings.ToLower(c.ID) || id == strings.ToLower(c.NumericID)
}

// NormalizeAddress returns the canonical lowercase form of a hex address.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// SameAddress compares two addresses case-insensitively.
func SameAddress(a, b string) bool {
	return a != "" && NormalizeAddress(a) == NormalizeAddress(b)
}
