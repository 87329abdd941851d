package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"poolEngine/internal/amm"
	"poolEngine/internal/clock"
	"poolEngine/internal/event"
	"poolEngine/internal/model"
	"poolEngine/internal/operation"
	"poolEngine/internal/storage"
)

// ErrorSink receives operations the engine rejected.
type ErrorSink interface {
	PutOperationErrors(ctx context.Context, errs []model.OperationError) error
}

// RunConfig holds runtime settings for a replay.
type RunConfig struct {
	BatchSize         int
	CheckpointPath    string
	CheckpointEnabled bool
	DefaultDeadline   time.Duration
}

// Stats counts what a run did.
type Stats struct {
	Total   int
	Applied int
	Skipped int
	Failed  int
	Events  int
	LastSeq uint64
}

// Runner applies an operations stream to an engine, one operation at a
// time, and writes the resulting events.
type Runner struct {
	cfg        RunConfig
	engine     *amm.Engine
	applier    *operation.Applier
	encoder    *event.Encoder
	sink       storage.EventSink
	errors     ErrorSink
	snapshots  storage.SnapshotStore
	clock      clock.Clock
	logger     *zap.Logger
	checkpoint *CheckpointStore
}

// Deps are the collaborators of a Runner. Errors and Snapshots are optional.
type Deps struct {
	Engine    *amm.Engine
	Encoder   *event.Encoder
	Sink      storage.EventSink
	Errors    ErrorSink
	Snapshots storage.SnapshotStore
	Clock     clock.Clock
	Logger    *zap.Logger
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, deps Deps) *Runner {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	return &Runner{
		cfg:        cfg,
		engine:     deps.Engine,
		applier:    &operation.Applier{Engine: deps.Engine, DefaultDeadline: cfg.DefaultDeadline},
		encoder:    deps.Encoder,
		sink:       deps.Sink,
		errors:     deps.Errors,
		snapshots:  deps.Snapshots,
		clock:      deps.Clock,
		logger:     deps.Logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run reads operations from in until EOF. Lines without a seq are
// numbered by their position among the non-blank lines of in.
func (r *Runner) Run(ctx context.Context, in io.Reader) (Stats, error) {
	var stats Stats
	if r.engine == nil {
		return stats, fmt.Errorf("engine is nil")
	}
	if r.encoder == nil {
		return stats, fmt.Errorf("encoder is nil")
	}
	if r.sink == nil {
		return stats, fmt.Errorf("event sink is nil")
	}
	if r.cfg.BatchSize <= 0 {
		return stats, fmt.Errorf("batch size must be greater than zero")
	}

	lastSeq, err := r.resume(ctx)
	if err != nil {
		return stats, err
	}
	stats.LastSeq = lastSeq

	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var (
		records  []model.LogRecord
		failures []model.OperationError
		pending  int
	)
	flush := func() error {
		if err := r.sink.PutLogBatch(ctx, records); err != nil {
			return fmt.Errorf("store events: %w", err)
		}
		if r.errors != nil {
			if err := r.errors.PutOperationErrors(ctx, failures); err != nil {
				return fmt.Errorf("store errors: %w", err)
			}
		}
		snap := r.engine.Snapshot()
		if err := r.checkpoint.Save(stats.LastSeq, snap); err != nil {
			return err
		}
		if r.snapshots != nil {
			if err := r.snapshots.SaveSnapshot(ctx, snap); err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}
		}
		r.logger.Info("batch complete",
			zap.Int("events", len(records)),
			zap.Int("failed", len(failures)),
			zap.Uint64("last_seq", stats.LastSeq),
		)
		stats.Events += len(records)
		records, failures, pending = records[:0], failures[:0], 0
		return nil
	}

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.Total++

		var op model.Operation
		if err := json.Unmarshal(line, &op); err != nil {
			return stats, fmt.Errorf("parse operation %d: %w", stats.Total, err)
		}
		// Unnumbered lines take their position in the stream, so rereading
		// the same input after a resume skips what was already applied.
		if op.Seq == 0 {
			op.Seq = uint64(stats.Total)
		}
		if op.Seq <= stats.LastSeq {
			stats.Skipped++
			continue
		}

		now := op.TimestampMs
		if now == 0 {
			now, err = r.clock.NowMillis(ctx)
			if err != nil {
				return stats, fmt.Errorf("clock: %w", err)
			}
		}

		stats.LastSeq = op.Seq
		pending++
		outcome, err := r.applier.Apply(op, now)
		if err != nil {
			stats.Failed++
			failures = append(failures, model.OperationError{
				Seq:        op.Seq,
				Op:         op.Op,
				PoolID:     op.PoolID,
				PositionID: op.PositionID,
				Code:       operation.Code(err),
				Error:      err.Error(),
			})
			r.logger.Debug("operation rejected", zap.Uint64("seq", op.Seq), zap.String("op", op.Op), zap.Error(err))
		} else {
			encoded, err := r.encoder.Encode(event.Envelope{
				Seq:         op.Seq,
				OpHash:      event.OpHash(line),
				TimestampMs: now,
			}, outcome.Results...)
			if err != nil {
				return stats, fmt.Errorf("encode seq %d: %w", op.Seq, err)
			}
			records = append(records, encoded...)
			stats.Applied++
		}

		if pending >= r.cfg.BatchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}
	if pending > 0 {
		if err := flush(); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// resume restores the engine from the checkpoint, falling back to the
// snapshot store when no checkpoint exists.
func (r *Runner) resume(ctx context.Context) (uint64, error) {
	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return 0, err
	}
	if ok && cp.Snapshot != nil {
		if err := r.engine.Restore(*cp.Snapshot); err != nil {
			return 0, fmt.Errorf("restore checkpoint: %w", err)
		}
		r.logger.Info("resume from checkpoint", zap.Uint64("last_seq", cp.LastSeq), zap.Int("pools", len(cp.Snapshot.Pools)))
		return cp.LastSeq, nil
	}
	if r.snapshots == nil {
		return 0, nil
	}
	snap, ok, err := r.snapshots.LoadSnapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("load snapshot: %w", err)
	}
	if ok {
		if err := r.engine.Restore(snap); err != nil {
			return 0, fmt.Errorf("restore snapshot: %w", err)
		}
		r.logger.Info("restored snapshot", zap.Int("pools", len(snap.Pools)))
	}
	return 0, nil
}
