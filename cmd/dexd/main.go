package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	gocache "github.com/patrickmn/go-cache"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/api"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/chain"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/config"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/dex"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/journal"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/journal/postgres"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/model"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/notify"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/pools"
	"github.com/ApexDorkon/Univ2-AMM-Protocol-DEX/internal/quote"
)

func main() {
	root := &cobra.Command{
		Use:          "dexd",
		Short:        "Moca DEX quoting and orchestration service",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and RPC proxy",
		RunE:  runServe,
	}

	serveCmd.Flags().String("rpc", "", "chain RPC URL")
	serveCmd.Flags().String("upstream-rpc", "", "upstream RPC URL for the /rpc proxy (defaults to rpc)")
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("factory", "", "factory contract address")
	serveCmd.Flags().String("router", "", "router contract address")
	serveCmd.Flags().String("wrapped", "", "wrapped native token address")
	serveCmd.Flags().String("iusdc", "", "IUSDC token address for the known-token registry")
	serveCmd.Flags().Uint32("slippage-bps", 50, "default slippage tolerance in basis points")
	serveCmd.Flags().Int64("deadline-seconds", 600, "transaction deadline window in seconds")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN for the intent journal (optional)")
	serveCmd.Flags().String("journal", "./data/intents.jsonl", "JSONL intent journal path")
	serveCmd.Flags().Int("pool-concurrency", 8, "concurrent pair reads when listing pools")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Print a swap quote for a token pair",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("rpc", "", "chain RPC URL")
	quoteCmd.Flags().String("factory", "", "factory contract address")
	quoteCmd.Flags().String("wrapped", "", "wrapped native token address")
	quoteCmd.Flags().String("iusdc", "", "IUSDC token address for the known-token registry")
	quoteCmd.Flags().String("token-in", "", "input asset (\"native\" or token address)")
	quoteCmd.Flags().String("token-out", "", "output asset (\"native\" or token address)")
	quoteCmd.Flags().String("amount", "", "input amount in display units")
	quoteCmd.Flags().Uint32("slippage-bps", 50, "slippage tolerance in basis points")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	poolsCmd := &cobra.Command{
		Use:   "pools",
		Short: "List all pools tracked by the factory",
		RunE:  runPools,
	}

	poolsCmd.Flags().String("rpc", "", "chain RPC URL")
	poolsCmd.Flags().String("factory", "", "factory contract address")
	poolsCmd.Flags().String("wrapped", "", "wrapped native token address")
	poolsCmd.Flags().String("iusdc", "", "IUSDC token address for the known-token registry")
	poolsCmd.Flags().Int("pool-concurrency", 8, "concurrent pair reads")
	poolsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(poolsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	reader := dex.NewReader(chainClient,
		common.HexToAddress(cfg.Factory), common.HexToAddress(cfg.Wrapped), logger)

	metaCache := gocache.New(gocache.NoExpiration, 0)
	poolSvc := pools.NewService(reader, knownTokens(cfg), metaCache, cfg.PoolConcurrency, logger)

	notes := notify.NewStream(notify.DefaultTTL)
	defer notes.Close()

	upstream := cfg.UpstreamRPC
	if upstream == "" {
		upstream = cfg.RPCURL
	}
	proxy := api.NewRPCProxy(upstream, logger)

	var outcomes journal.Reader
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect journal store: %w", err)
		}
		defer store.Close()
		outcomes = store
	} else {
		outcomes = journal.NewJsonlJournal(cfg.JournalPath)
	}

	server := api.NewServer(reader, poolSvc, notes, proxy, outcomes, cfg.SlippageBps, logger)

	logger.Info("dexd start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("listen", cfg.Listen),
		zap.String("factory", cfg.Factory),
		zap.String("router", cfg.Router),
		zap.String("wrapped", cfg.Wrapped),
		zap.Uint32("slippage_bps", cfg.SlippageBps),
	)

	return server.ListenAndServe(ctx, cfg.Listen)
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tokenInArg, _ := cmd.Flags().GetString("token-in")
	tokenOutArg, _ := cmd.Flags().GetString("token-out")
	amountArg, _ := cmd.Flags().GetString("amount")
	if tokenInArg == "" || tokenOutArg == "" || amountArg == "" {
		return fmt.Errorf("token-in, token-out, and amount are required")
	}

	tokenIn, err := model.ParseAsset(tokenInArg)
	if err != nil {
		return fmt.Errorf("token-in: %w", err)
	}
	tokenOut, err := model.ParseAsset(tokenOutArg)
	if err != nil {
		return fmt.Errorf("token-out: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	reader := dex.NewReader(chainClient,
		common.HexToAddress(cfg.Factory), common.HexToAddress(cfg.Wrapped), logger)

	metaIn, err := assetMeta(ctx, reader, tokenIn)
	if err != nil {
		return err
	}
	metaOut, err := assetMeta(ctx, reader, tokenOut)
	if err != nil {
		return err
	}

	amountIn, err := model.ParseUnits(amountArg, metaIn.Decimals)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}

	resolvedIn := tokenIn.Resolve(reader.Wrapped())
	resolvedOut := tokenOut.Resolve(reader.Wrapped())

	if resolvedIn == resolvedOut {
		q, err := quote.WrapOut(amountIn)
		if err != nil {
			return err
		}
		fmt.Printf("out: %s %s (1:1 wrap)\n", model.FormatUnits(q.AmountOut, metaOut.Decimals), metaOut.Symbol)
		return nil
	}

	state, err := reader.PairState(ctx, tokenIn, tokenOut)
	if err != nil {
		return err
	}
	if !state.Exists() {
		return fmt.Errorf("no pool for %s/%s", metaIn.Symbol, metaOut.Symbol)
	}

	q, err := quote.SwapOut(state, resolvedIn, amountIn, quote.Options{SlippageBps: cfg.SlippageBps})
	if err != nil {
		return err
	}

	fmt.Printf("out:     %s %s\n", model.FormatUnits(q.AmountOut, metaOut.Decimals), metaOut.Symbol)
	fmt.Printf("min out: %s %s (slippage %d bps)\n",
		model.FormatUnits(q.MinOut, metaOut.Decimals), metaOut.Symbol, cfg.SlippageBps)
	return nil
}

func runPools(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	reader := dex.NewReader(chainClient,
		common.HexToAddress(cfg.Factory), common.HexToAddress(cfg.Wrapped), logger)

	metaCache := gocache.New(gocache.NoExpiration, 0)
	poolSvc := pools.NewService(reader, knownTokens(cfg), metaCache, cfg.PoolConcurrency, logger)

	rows, err := poolSvc.List(ctx)
	if err != nil {
		return err
	}

	for _, row := range rows {
		fmt.Printf("%s  %s/%s  reserves %s / %s  fee %s\n",
			row.Pair, row.Symbol0, row.Symbol1, row.Reserve0, row.Reserve1, row.Fee)
	}
	fmt.Printf("%d pools\n", len(rows))
	return nil
}

func assetMeta(ctx context.Context, reader *dex.Reader, asset model.Asset) (model.TokenMeta, error) {
	if asset.IsNative() {
		return model.TokenMeta{Asset: asset, Symbol: "MOCA", Name: "Native MOCA", Decimals: 18}, nil
	}
	addr, _ := asset.Address()
	return reader.TokenMeta(ctx, addr)
}

func knownTokens(cfg config.Config) *model.TokenList {
	tokens := []model.TokenMeta{
		{Asset: model.Native(), Symbol: "MOCA", Name: "Native MOCA", Decimals: 18},
	}
	if cfg.IUSDC != "" {
		tokens = append(tokens, model.TokenMeta{
			Asset: model.Token(common.HexToAddress(cfg.IUSDC)), Symbol: "IUSDC", Name: "IUSDC", Decimals: 18,
		})
	}
	tokens = append(tokens, model.TokenMeta{
		Asset: model.Token(common.HexToAddress(cfg.Wrapped)), Symbol: "WMOCA", Name: "Wrapped MOCA", Decimals: 18,
	})
	return model.NewTokenList(tokens)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
