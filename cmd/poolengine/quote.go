package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"poolEngine/internal/amm"
	"poolEngine/internal/config"
	"poolEngine/internal/quote"
	"poolEngine/internal/storage"
)

const displayDecimals = 6

type quoteOutput struct {
	quote.SwapQuote
	Display struct {
		AmountIn        string `json:"amount_in"`
		AmountOut       string `json:"amount_out"`
		MinimumReceived string `json:"minimum_received"`
		Fee             string `json:"fee"`
	} `json:"display"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.PoolID == 0 {
		return fmt.Errorf("pool id is required")
	}
	dir, err := amm.ParseDirection(cfg.Direction)
	if err != nil {
		return err
	}
	in, out := cfg.TokenA, cfg.TokenB
	if dir == amm.BtoA {
		in, out = out, in
	}
	amountIn, err := quote.ParseAmount(cfg.AmountIn, in)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	ctx := context.Background()
	pg, err := openPostgres(ctx, cfg.PGDSN, cfg.EngineID)
	if err != nil {
		return err
	}
	var snapshots storage.SnapshotStore = storage.NewFileSnapshotStore(cfg.SnapshotFile)
	if pg != nil {
		defer pg.Close()
		snapshots = pg
	}

	engine, err := restoreEngine(ctx, config.EngineConfig{FeeTiers: amm.DefaultConfig().AllowedFeeTiers}, snapshots, logger)
	if err != nil {
		return err
	}
	pool, err := engine.Pool(amm.PoolID(cfg.PoolID))
	if err != nil {
		return err
	}

	res, err := quote.Swap(pool, dir, amountIn, cfg.SlippageBps)
	if err != nil {
		return err
	}

	output := quoteOutput{SwapQuote: res}
	output.Display.AmountIn = quote.FormatAmount(res.AmountIn, in, displayDecimals) + " " + in.Symbol
	output.Display.AmountOut = quote.FormatAmount(res.AmountOut, out, displayDecimals) + " " + out.Symbol
	output.Display.MinimumReceived = quote.FormatAmount(res.MinimumReceived, out, displayDecimals) + " " + out.Symbol
	output.Display.Fee = quote.FormatAmount(res.FeeAmount, in, displayDecimals) + " " + in.Symbol

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
