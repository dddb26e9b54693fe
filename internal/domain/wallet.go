package domain

import "github.com/shopspring/decimal"

// WalletHolding is a token balance valued at the reconciled price.
type WalletHolding struct {
	Token    TokenRecord     `json:"token"`
	Balance  decimal.Decimal `json:"balance"` // scaled by Decimals
	Decimals int             `json:"decimals"`
	ValueUSD decimal.Decimal `json:"valueUsd"`
}

// NativeHolding is the chain's native coin balance.
type NativeHolding struct {
	Symbol   string          `json:"symbol"`
	Balance  decimal.Decimal `json:"balance"`
	PriceUSD decimal.Decimal `json:"priceUsd"`
	ValueUSD decimal.Decimal `json:"valueUsd"`
}

// NetWorth is the valued portfolio of one wallet.
type NetWorth struct {
	Wallet        string          `json:"wallet"`
	TotalValueUSD decimal.Decimal `json:"totalValueUsd"`
	Native        NativeHolding   `json:"native"`
	Tokens        []WalletHolding `json:"tokens"`
}
