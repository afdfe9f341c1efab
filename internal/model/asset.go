package model

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Asset identifies a tradable asset: either the chain's native currency or an
// ERC20 contract. The zero value is not valid; construct via Native or Token.
type Asset struct {
	native bool
	addr   common.Address
}

// Native returns the native-currency asset.
func Native() Asset {
	return Asset{native: true}
}

// Token returns an ERC20 asset at the given contract address.
func Token(addr common.Address) Asset {
	return Asset{addr: addr}
}

// ParseAsset accepts the "native" sentinel or a 20-byte hex address.
func ParseAsset(s string) (Asset, error) {
	if strings.EqualFold(strings.TrimSpace(s), "native") {
		return Native(), nil
	}
	if !common.IsHexAddress(s) {
		return Asset{}, fmt.Errorf("invalid asset %q", s)
	}
	return Token(common.HexToAddress(s)), nil
}

func (a Asset) IsNative() bool {
	return a.native
}

// Address returns the contract address; ok is false for the native asset.
func (a Asset) Address() (common.Address, bool) {
	if a.native {
		return common.Address{}, false
	}
	return a.addr, true
}

// Resolve maps the asset to the address used in pool contract calls: the
// wrapped-native contract for the native asset, the token contract otherwise.
func (a Asset) Resolve(wrapped common.Address) common.Address {
	if a.native {
		return wrapped
	}
	return a.addr
}

func (a Asset) String() string {
	if a.native {
		return "native"
	}
	return a.addr.Hex()
}

// TokenMeta captures display metadata for a selectable asset.
type TokenMeta struct {
	Asset    Asset  `json:"asset"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
}
