// Package pools renders the pool directory: every pair the factory knows,
// with oriented reserves and its fee tier.
package pools

import (
	"context"
	"fmt"
	"sync"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/dex"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/model"
)

// Row is one pool directory entry, amounts already display-formatted.
type Row struct {
	Pair     string `json:"pair"`
	Symbol0  string `json:"symbol0"`
	Symbol1  string `json:"symbol1"`
	Reserve0 string `json:"reserve0"`
	Reserve1 string `json:"reserve1"`
	Fee      string `json:"fee"`
}

// Service lists pools. Reserve reads are snapshots and never cached; token
// metadata is immutable and cached with a TTL to spare the RPC.
type Service struct {
	reader      *dex.Reader
	known       *model.TokenList
	metaCache   *gocache.Cache
	logger      *zap.Logger
	concurrency int
}

func NewService(reader *dex.Reader, known *model.TokenList, metaCache *gocache.Cache, concurrency int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Service{
		reader:      reader,
		known:       known,
		metaCache:   metaCache,
		logger:      logger,
		concurrency: concurrency,
	}
}

// List walks the factory's pair index. Rows for unrelated pairs are read-only
// and order-independent, so they load concurrently; the result keeps factory
// index order.
func (s *Service) List(ctx context.Context) ([]Row, error) {
	length, err := s.reader.AllPairsLength(ctx)
	if err != nil {
		return nil, fmt.Errorf("pair count: %w", err)
	}

	rows := make([]Row, length)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := uint64(0); i < length; i++ {
		index := i
		g.Go(func() error {
			pairAddr, err := s.reader.AllPairs(gctx, index)
			if err != nil {
				return fmt.Errorf("pair %d: %w", index, err)
			}
			state, err := s.reader.PairStateAt(gctx, pairAddr)
			if err != nil {
				return fmt.Errorf("pair %s: %w", pairAddr.Hex(), err)
			}

			row := Row{
				Pair:     pairAddr.Hex(),
				Symbol0:  s.symbolFor(gctx, state.Token0.Hex()),
				Symbol1:  s.symbolFor(gctx, state.Token1.Hex()),
				Reserve0: model.FormatUnits(state.Reserve0, 18),
				Reserve1: model.FormatUnits(state.Reserve1, 18),
				Fee:      fmt.Sprintf("%d.%02d%%", state.FeeBps/100, state.FeeBps%100),
			}

			mu.Lock()
			rows[index] = row
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Service) symbolFor(ctx context.Context, addr string) string {
	if s.known != nil {
		if symbol := s.known.SymbolForAddress(addr); symbol != "UNK" {
			return symbol
		}
	}

	if s.metaCache != nil {
		if cached, ok := s.metaCache.Get(addr); ok {
			if meta, ok := cached.(model.TokenMeta); ok {
				return meta.Symbol
			}
		}
	}

	asset, err := model.ParseAsset(addr)
	if err != nil {
		return "UNK"
	}
	tokenAddr, _ := asset.Address()
	meta, err := s.reader.TokenMeta(ctx, tokenAddr)
	if err != nil {
		s.logger.Debug("token metadata fetch failed", zap.String("token", addr), zap.Error(err))
		return "UNK"
	}
	if s.metaCache != nil {
		s.metaCache.Set(addr, meta, gocache.DefaultExpiration)
	}
	return meta.Symbol
}
