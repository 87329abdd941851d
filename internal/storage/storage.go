package storage

import (
	"context"
	"errors"

	"poolEngine/internal/amm"
	"poolEngine/internal/model"
)

// EventSink receives encoded engine events.
type EventSink interface {
	PutLogBatch(ctx context.Context, logs []model.LogRecord) error
}

// SnapshotStore persists the full engine state.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (amm.Snapshot, bool, error)
	SaveSnapshot(ctx context.Context, snap amm.Snapshot) error
}

// MultiSink writes every batch to each sink in order and joins the errors.
type MultiSink []EventSink

func (m MultiSink) PutLogBatch(ctx context.Context, logs []model.LogRecord) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.PutLogBatch(ctx, logs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
