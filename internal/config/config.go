package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// NetworkDisabled is the sentinel network value that turns the explorer off.
const NetworkDisabled = "none"

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Network   string
	APIKey    string
	RPCURL    string
	Module    string
	Event     string
	FromBlock uint64
	PageSize  int
	RangeSize uint64
	RateDelay time.Duration
	Out       string
	PgDSN     string
	LogLevel  string
}

// ExplorerDisabled reports whether the network is the disabled sentinel.
func (c Config) ExplorerDisabled() bool {
	return c.Network == NetworkDisabled
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FEED")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("page-size", 100)
	v.SetDefault("range-size", uint64(100_000))
	v.SetDefault("rate-delay", time.Second)
	v.SetDefault("out", "./data/events.jsonl")
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
		Network:   v.GetString("network"),
		APIKey:    v.GetString("api-key"),
		RPCURL:    v.GetString("rpc"),
		Module:    v.GetString("module"),
		Event:     v.GetString("event"),
		FromBlock: v.GetUint64("from"),
		PageSize:  v.GetInt("page-size"),
		RangeSize: v.GetUint64("range-size"),
		RateDelay: v.GetDuration("rate-delay"),
		Out:       v.GetString("out"),
		PgDSN:     v.GetString("pg-dsn"),
		LogLevel:  v.GetString("log-level"),
	}

	return cfg, nil
}
