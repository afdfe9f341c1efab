package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL          string
	UpstreamRPC     string
	Listen          string
	Factory         string
	Router          string
	Wrapped         string
	IUSDC           string
	SlippageBps     uint32
	DeadlineSeconds int64
	PGDSN           string
	JournalPath     string
	PoolConcurrency int
	LogLevel        string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DEXD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen", ":8080")
	v.SetDefault("slippage-bps", uint32(50))
	v.SetDefault("deadline-seconds", int64(600))
	v.SetDefault("journal", "./data/intents.jsonl")
	v.SetDefault("pool-concurrency", 8)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:          v.GetString("rpc"),
		UpstreamRPC:     v.GetString("upstream-rpc"),
		Listen:          v.GetString("listen"),
		Factory:         v.GetString("factory"),
		Router:          v.GetString("router"),
		Wrapped:         v.GetString("wrapped"),
		IUSDC:           v.GetString("iusdc"),
		SlippageBps:     v.GetUint32("slippage-bps"),
		DeadlineSeconds: v.GetInt64("deadline-seconds"),
		PGDSN:           v.GetString("pg-dsn"),
		JournalPath:     v.GetString("journal"),
		PoolConcurrency: v.GetInt("pool-concurrency"),
		LogLevel:        v.GetString("log-level"),
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.SlippageBps >= 10000 {
		return fmt.Errorf("slippage-bps %d out of range [0, 10000)", c.SlippageBps)
	}
	if c.DeadlineSeconds <= 0 {
		return fmt.Errorf("deadline-seconds must be positive")
	}
	for name, addr := range map[string]string{
		"factory": c.Factory,
		"router":  c.Router,
		"wrapped": c.Wrapped,
		"iusdc":   c.IUSDC,
	} {
		if addr != "" && !common.IsHexAddress(addr) {
			return fmt.Errorf("%s is not a valid address: %q", name, addr)
		}
	}
	return nil
}
