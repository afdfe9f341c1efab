package main

import (
	"testing"

	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/config"
)

func TestKnownTokensSeed(t *testing.T) {
	cfg := config.Config{
		Wrapped: "0xaaa0000000000000000000000000000000000003",
		IUSDC:   "0xbbb0000000000000000000000000000000000001",
	}

	tokens := knownTokens(cfg).Tokens()
	if len(tokens) != 3 {
		t.Fatalf("len = %d, want 3", len(tokens))
	}

	wantSymbols := []string{"MOCA", "IUSDC", "WMOCA"}
	for i, want := range wantSymbols {
		if tokens[i].Symbol != want {
			t.Fatalf("token %d = %s, want %s", i, tokens[i].Symbol, want)
		}
	}
	if !tokens[0].Asset.IsNative() {
		t.Fatalf("MOCA must be the native asset")
	}
	for _, tok := range tokens[1:] {
		if tok.Asset.IsNative() {
			t.Fatalf("%s must not be native", tok.Symbol)
		}
	}
}

func TestKnownTokensWithoutIUSDC(t *testing.T) {
	cfg := config.Config{Wrapped: "0xaaa0000000000000000000000000000000000003"}

	tokens := knownTokens(cfg).Tokens()
	if len(tokens) != 2 {
		t.Fatalf("len = %d, want 2", len(tokens))
	}
	if _, ok := knownTokens(cfg).BySymbol("IUSDC"); ok {
		t.Fatalf("IUSDC must not be seeded without an address")
	}
}
