package dex

import (
	"bytes"
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/model"
)

// TokenMeta loads ERC20 metadata for a token contract. Non-standard tokens
// returning bytes32 for symbol/name are handled via the fallback ABI; a token
// without a decimals getter defaults to 18.
func (r *Reader) TokenMeta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	meta := model.TokenMeta{Asset: model.Token(token), Decimals: 18}

	stringABI, err := ERC20ABI()
	if err != nil {
		return meta, err
	}
	bytes32ABI, err := ERC20Bytes32ABI()
	if err != nil {
		return meta, err
	}

	if values, err := r.call(ctx, token, stringABI, "decimals"); err == nil {
		if decimals, err := asUint8(values[0]); err == nil {
			meta.Decimals = decimals
		}
	} else {
		r.logger.Debug("decimals call failed, defaulting to 18",
			zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := r.call(ctx, token, stringABI, "symbol"); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := r.call(ctx, token, bytes32ABI, "symbol"); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else {
		r.logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
		meta.Symbol = "???"
	}

	if values, err := r.call(ctx, token, stringABI, "name"); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := r.call(ctx, token, bytes32ABI, "name"); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	} else {
		r.logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
		meta.Name = "Unknown"
	}

	return meta, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}
