package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/journal"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/model"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/quote"
)

func (s *Server) handlePools(c *gin.Context) {
	rows, err := s.pools.List(c.Request.Context())
	if err != nil {
		s.logger.Warn("pool listing failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "pool data unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pools": rows})
}

// handleQuote answers GET /api/v1/quote?token_in=&token_out=&amount_in=&slippage_bps=.
// token_in/token_out accept an address or the "native" sentinel; amount_in is
// a human-decimal string. Read failures and missing liquidity degrade to a
// "no quote" response, never a hard failure.
func (s *Server) handleQuote(c *gin.Context) {
	tokenIn, err := model.ParseAsset(c.Query("token_in"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token_in"})
		return
	}
	tokenOut, err := model.ParseAsset(c.Query("token_out"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token_out"})
		return
	}
	amountIn, err := model.ParseUnits(c.Query("amount_in"), 18)
	if err != nil || amountIn.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount_in"})
		return
	}

	slippageBps := s.slippageBps
	if raw := c.Query("slippage_bps"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || parsed >= 10000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slippage_bps"})
			return
		}
		slippageBps = uint32(parsed)
	}

	// Wrap and unwrap move 1:1 between representations of the same asset.
	wrapped := s.reader.Wrapped()
	if isWrapPair(tokenIn, tokenOut, wrapped) {
		q, _ := quote.WrapOut(amountIn)
		s.writeQuote(c, q)
		return
	}

	pair, err := s.reader.PairState(c.Request.Context(), tokenIn, tokenOut)
	if err != nil {
		s.logger.Debug("pair state read failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"quote": nil, "reason": "quote unavailable"})
		return
	}

	q, err := quote.SwapOut(pair, tokenIn.Resolve(wrapped), amountIn, quote.Options{SlippageBps: slippageBps})
	if err != nil {
		if errors.Is(err, quote.ErrNoLiquidity) {
			c.JSON(http.StatusOK, gin.H{"quote": nil, "reason": "no liquidity"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.writeQuote(c, q)
}

func (s *Server) writeQuote(c *gin.Context, q quote.Quote) {
	c.JSON(http.StatusOK, gin.H{
		"quote": gin.H{
			"amount_out":     q.AmountOut.String(),
			"min_out":        q.MinOut.String(),
			"amount_out_fmt": model.FormatUnits(q.AmountOut, 18),
			"min_out_fmt":    model.FormatUnits(q.MinOut, 18),
		},
	})
}

func (s *Server) handleTokenMeta(c *gin.Context) {
	raw := c.Param("address")
	if !common.IsHexAddress(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		return
	}

	meta, err := s.reader.TokenMeta(c.Request.Context(), common.HexToAddress(raw))
	if err != nil {
		s.logger.Debug("token metadata fetch failed", zap.String("token", raw), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "token not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":  raw,
		"symbol":   meta.Symbol,
		"name":     meta.Name,
		"decimals": meta.Decimals,
	})
}

func (s *Server) handleNotifications(c *gin.Context) {
	if s.notes == nil {
		c.JSON(http.StatusOK, gin.H{"notifications": []struct{}{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": s.notes.Events()})
}

// handleIntents serves the diagnostics view of recorded intent outcomes.
func (s *Server) handleIntents(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	entries, err := s.outcomes.Recent(c.Request.Context(), limit)
	if err != nil {
		s.logger.Warn("intent journal read failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "journal unavailable"})
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"intents": entries})
}

func isWrapPair(tokenIn, tokenOut model.Asset, wrapped common.Address) bool {
	if tokenIn.IsNative() {
		addr, ok := tokenOut.Address()
		return ok && addr == wrapped
	}
	if tokenOut.IsNative() {
		addr, ok := tokenIn.Address()
		return ok && addr == wrapped
	}
	return false
}
