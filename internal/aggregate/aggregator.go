package aggregate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"time"

	"go.uber.org/zap"

	"poolEngine/internal/model"
)

const (
	feeMethodExact   = "engine_fee_amount"
	tvlMethodEvent   = "event_reserves"
	tvlMethodCarried = "carried_reserves"
	tvlMethodNone    = "unavailable"
)

// MetricsWriter persists finished windows.
type MetricsWriter interface {
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	// RecomputeFrom is a unix millisecond timestamp; events before it are
	// skipped regardless of the stored state.
	RecomputeFrom uint64
	StateStore    StateStore
}

type reserves struct {
	a, b *big.Int
}

// Aggregator aggregates typed engine events into pool window metrics.
type Aggregator struct {
	cfg          Config
	store        MetricsWriter
	logger       *zap.Logger
	accumulators map[uint64]*Accumulator
	feeTiers     map[uint64]uint64
	lastReserves map[uint64]reserves
}

func NewAggregator(cfg Config, store MetricsWriter, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		accumulators: make(map[uint64]*Accumulator),
		feeTiers:     make(map[uint64]uint64),
		lastReserves: make(map[uint64]reserves),
	}
}

// Run executes aggregation over a typed events JSONL stream.
func (a *Aggregator) Run(ctx context.Context, input io.Reader) error {
	if a.store == nil {
		return fmt.Errorf("store is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startTs, err := a.loadStartTimestamp(ctx)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(input)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)
	maxTs := startTs
	var total, windows, skipped, failed int

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var record model.TypedEventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			a.logger.Warn("decode typed event", zap.Error(err))
			continue
		}

		if record.Timestamp <= startTs {
			skipped++
			continue
		}

		seconds := record.Timestamp / 1000
		windowStart := windowStart(seconds, a.cfg.WindowSeconds)
		windowEnd := windowStart + a.cfg.WindowSeconds

		acc := a.accumulators[record.PoolID]
		if acc == nil {
			acc = a.newAccumulator(record, windowStart, windowEnd)
		} else if acc.WindowStart != windowStart {
			batch = append(batch, a.flushAccumulator(acc))
			windows++
			acc = a.newAccumulator(record, windowStart, windowEnd)
		}

		if err := acc.AddEvent(record); err != nil {
			failed++
			a.logger.Warn("aggregate event", zap.Error(err), zap.Uint64("pool_id", record.PoolID), zap.String("event", record.EventName))
			continue
		}

		if record.Timestamp > maxTs {
			maxTs = record.Timestamp
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.store.UpsertWindowMetrics(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]

			if err := a.saveState(ctx); err != nil {
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	for _, acc := range a.accumulators {
		batch = append(batch, a.flushAccumulator(acc))
		windows++
	}
	a.accumulators = make(map[uint64]*Accumulator)

	if len(batch) > 0 {
		if err := a.store.UpsertWindowMetrics(ctx, batch); err != nil {
			return err
		}
	}

	a.cfg.RecomputeFrom = maxTs
	if err := a.saveState(ctx); err != nil {
		return err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("windows", windows),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)

	return nil
}

// newAccumulator opens a window that starts from the pool's last known
// reserves and fee tier.
func (a *Aggregator) newAccumulator(record model.TypedEventRecord, windowStart, windowEnd uint64) *Accumulator {
	acc := NewAccumulator(record, windowStart, windowEnd)
	acc.FeeTierBps = a.feeTiers[record.PoolID]
	if last, ok := a.lastReserves[record.PoolID]; ok {
		acc.ReserveA, acc.ReserveB = last.a, last.b
	}
	a.accumulators[record.PoolID] = acc
	return acc
}

func (a *Aggregator) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

// saveState stores the last timestamp that no open window still needs.
func (a *Aggregator) saveState(ctx context.Context) error {
	if a.cfg.StateStore == nil {
		return nil
	}

	if len(a.accumulators) == 0 {
		return a.cfg.StateStore.Save(ctx, a.cfg.RecomputeFrom)
	}

	safeTs := minOpenWindowStart(a.accumulators) * 1000
	if safeTs > 0 {
		safeTs = safeTs - 1
	}
	if safeTs == 0 {
		safeTs = a.cfg.RecomputeFrom
	}
	return a.cfg.StateStore.Save(ctx, safeTs)
}

func (a *Aggregator) flushAccumulator(acc *Accumulator) model.PoolWindowMetrics {
	if acc.FeeTierBps != 0 {
		a.feeTiers[acc.PoolID] = acc.FeeTierBps
	}

	tvlMethod := tvlMethodNone
	if acc.ReserveA != nil && acc.ReserveB != nil {
		tvlMethod = tvlMethodCarried
		last, seen := a.lastReserves[acc.PoolID]
		if !seen || last.a != acc.ReserveA || last.b != acc.ReserveB {
			tvlMethod = tvlMethodEvent
		}
		a.lastReserves[acc.PoolID] = reserves{a: acc.ReserveA, b: acc.ReserveB}
	}

	feeRateA, feeRateB := computeFeeRates(acc.FeeA, acc.FeeB, acc.ReserveA, acc.ReserveB)
	apr := computeAPR(acc.FeeA, acc.FeeB, acc.ReserveA, acc.ReserveB, a.cfg.WindowSeconds)

	return model.PoolWindowMetrics{
		EngineID:       acc.EngineID,
		PoolID:         acc.PoolID,
		FeeTierBps:     acc.FeeTierBps,
		WindowSizeSecs: int64(a.cfg.WindowSeconds),
		WindowStart:    time.Unix(int64(acc.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(acc.WindowEnd), 0).UTC(),
		SwapCount:      acc.SwapCount,
		VolumeA:        bigString(acc.VolumeA),
		VolumeB:        bigString(acc.VolumeB),
		FeeA:           bigString(acc.FeeA),
		FeeB:           bigString(acc.FeeB),
		LedgerFeeA:     bigString(acc.LedgerFeeA),
		LedgerFeeB:     bigString(acc.LedgerFeeB),
		FeeRateA:       feeRateA,
		FeeRateB:       feeRateB,
		TVLA:           bigStringPtr(acc.ReserveA),
		TVLB:           bigStringPtr(acc.ReserveB),
		APR:            apr,
		FeeMethod:      feeMethodExact,
		TVLMethod:      tvlMethod,
	}
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func minOpenWindowStart(acc map[uint64]*Accumulator) uint64 {
	var min uint64
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if min == 0 || entry.WindowStart < min {
			min = entry.WindowStart
		}
	}
	return min
}
