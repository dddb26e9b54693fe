package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"

	"pulse-token-board/internal/domain"
)

// ERC-20 function selectors.
const (
	SelectorDecimals  = "0x313ce567"
	SelectorBalanceOf = "0x70a08231"
)

// BlockLatest is the default block tag.
const BlockLatest = "latest"

// CallMsg is the eth_call transaction object.
type CallMsg struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

// DecimalsCall builds decimals() for token.
func DecimalsCall(token string) CallMsg {
	return CallMsg{To: domain.NormalizeAddress(token), Data: SelectorDecimals}
}

// BalanceOfCall builds balanceOf(owner) for token.
func BalanceOfCall(token, owner string) CallMsg {
	word := common.LeftPadBytes(common.HexToAddress(owner).Bytes(), 32)
	return CallMsg{
		To:   domain.NormalizeAddress(token),
		Data: SelectorBalanceOf + hex.EncodeToString(word),
	}
}

// Balance returns the native balance of address as a hex quantity.
// ok is false on any provider failure.
func (c *Client) Balance(ctx context.Context, address string) (string, bool) {
	address = domain.NormalizeAddress(address)
	raw, err := c.Call(ctx, "eth_getBalance", address, BlockLatest)
	if err != nil {
		c.fail("eth_getBalance", err, logrus.Fields{"address": address})
		return "", false
	}
	s, err := decodeHexString(raw)
	if err != nil {
		c.fail("eth_getBalance", err, logrus.Fields{"address": address})
		return "", false
	}
	return s, true
}

// CallContract runs eth_call against the latest block and returns the hex result.
func (c *Client) CallContract(ctx context.Context, msg CallMsg) (string, bool) {
	raw, err := c.Call(ctx, "eth_call", msg, BlockLatest)
	if err != nil {
		c.fail("eth_call", err, logrus.Fields{"to": msg.To})
		return "", false
	}
	s, err := decodeHexString(raw)
	if err != nil {
		c.fail("eth_call", err, logrus.Fields{"to": msg.To})
		return "", false
	}
	return s, true
}

// BatchCall runs eth_call for every message in one request.
// Entries that failed are empty strings; ok is false when the whole batch failed.
func (c *Client) BatchCall(ctx context.Context, msgs []CallMsg) ([]string, bool) {
	reqs := make([]Request, len(msgs))
	for i, m := range msgs {
		reqs[i] = Request{Method: "eth_call", Params: []any{m, BlockLatest}}
	}

	results, err := c.Batch(ctx, reqs)
	if err != nil {
		c.fail("batch", err, logrus.Fields{"size": len(msgs)})
		return nil, false
	}

	out := make([]string, len(results))
	for i, r := range results {
		if r.Err != nil {
			c.fail("eth_call", r.Err, logrus.Fields{"to": msgs[i].To})
			continue
		}
		s, err := decodeHexString(r.Raw)
		if err != nil {
			c.fail("eth_call", err, logrus.Fields{"to": msgs[i].To})
			continue
		}
		out[i] = s
	}
	return out, true
}

func decodeHexString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("decode result: %w", err)
	}
	if !has0xPrefix(s) {
		return "", fmt.Errorf("decode result: %q is not hex", s)
	}
	return s, nil
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// DecodeQuantity decodes a hex quantity such as an eth_getBalance result.
func DecodeQuantity(s string) (*big.Int, error) {
	if s == "0x" || s == "0X" {
		return new(big.Int), nil
	}
	return hexutil.DecodeBig(s)
}

// DecodeWord decodes an ABI-encoded uint256 return value.
// An empty result ("0x") decodes to zero.
func DecodeWord(s string) (*big.Int, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		if s == "0x" || s == "0X" {
			return new(big.Int), nil
		}
		return nil, err
	}
	if len(b) > 32 {
		b = b[:32]
	}
	return new(big.Int).SetBytes(b), nil
}
