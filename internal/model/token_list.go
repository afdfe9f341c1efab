package model

import "strings"

// TokenList is the selectable token set for one UI surface. Symbols are the
// uniqueness key within a selection context: two tokens cannot share a symbol
// on opposite sides of the same form.
type TokenList struct {
	tokens []TokenMeta
}

func NewTokenList(tokens []TokenMeta) *TokenList {
	return &TokenList{tokens: tokens}
}

// Tokens returns the selectable set in registration order.
func (l *TokenList) Tokens() []TokenMeta {
	out := make([]TokenMeta, len(l.tokens))
	copy(out, l.tokens)
	return out
}

// BySymbol looks a token up by symbol, case-insensitively.
func (l *TokenList) BySymbol(symbol string) (TokenMeta, bool) {
	for _, t := range l.tokens {
		if strings.EqualFold(t.Symbol, symbol) {
			return t, true
		}
	}
	return TokenMeta{}, false
}

// SymbolForAddress resolves a pool leg address back to a known symbol,
// falling back to "UNK" for unregistered tokens.
func (l *TokenList) SymbolForAddress(addr string) string {
	for _, t := range l.tokens {
		if a, ok := t.Asset.Address(); ok && strings.EqualFold(a.Hex(), addr) {
			return t.Symbol
		}
	}
	return "UNK"
}

// Select applies the selection rule for a two-sided token form: choosing a
// token that already occupies the opposite side swaps the sides instead of
// duplicating the symbol.
func Select(current, other, chosen TokenMeta) (newCurrent, newOther TokenMeta) {
	if strings.EqualFold(other.Symbol, chosen.Symbol) {
		return chosen, current
	}
	return chosen, other
}
