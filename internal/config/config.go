package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"poolEngine/internal/amm"
)

// EnvPrefix is prepended to every environment override, e.g.
// POOLENGINE_PG_DSN for --pg-dsn.
const EnvPrefix = "POOLENGINE"

// EngineConfig configures the pool engine shared by serve, replay and quote.
type EngineConfig struct {
	EngineID       string
	FeeTiers       []uint64
	LedgerShareBps uint64
}

// AMM returns the engine configuration.
func (c EngineConfig) AMM() amm.Config {
	return amm.Config{AllowedFeeTiers: c.FeeTiers, FeeLedgerShareBps: c.LedgerShareBps}
}

// ClockConfig selects the trusted time source.
type ClockConfig struct {
	Source       string
	RPCURL       string
	MaxRetries   int
	RetryBackoff time.Duration
}

// load merges defaults, flags, environment and an optional config file.
// Without cfgFile a ./config.* file is used when present.
func load(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("engine-id", "default")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func engineDefaults(defaults map[string]interface{}) map[string]interface{} {
	defaults["fee-tiers"] = "1,5,30,100"
	defaults["ledger-share-bps"] = uint64(0)
	return defaults
}

func clockDefaults(defaults map[string]interface{}) map[string]interface{} {
	defaults["clock"] = "system"
	defaults["max-retries"] = 5
	defaults["retry-backoff"] = 500 * time.Millisecond
	return defaults
}

func loadEngine(v *viper.Viper) (EngineConfig, error) {
	tiers, err := parseUints(getStringSlice(v, "fee-tiers"))
	if err != nil {
		return EngineConfig{}, fmt.Errorf("fee-tiers: %w", err)
	}
	cfg := EngineConfig{
		EngineID:       v.GetString("engine-id"),
		FeeTiers:       tiers,
		LedgerShareBps: v.GetUint64("ledger-share-bps"),
	}
	if err := cfg.AMM().Validate(); err != nil {
		return EngineConfig{}, err
	}
	return cfg, nil
}

func loadClock(v *viper.Viper) (ClockConfig, error) {
	cfg := ClockConfig{
		Source:       strings.ToLower(v.GetString("clock")),
		RPCURL:       v.GetString("rpc"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
	}
	switch cfg.Source {
	case "system":
	case "chain":
		if cfg.RPCURL == "" {
			return ClockConfig{}, fmt.Errorf("rpc url is required for the chain clock")
		}
	default:
		return ClockConfig{}, fmt.Errorf("unknown clock %q", cfg.Source)
	}
	return cfg, nil
}

func parseUints(items []string) ([]uint64, error) {
	out := make([]uint64, 0, len(items))
	for _, item := range items {
		n, err := strconv.ParseUint(item, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", item)
		}
		out = append(out, n)
	}
	return out, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		if len(typed) == 1 {
			return splitAndClean(typed[0])
		}
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
