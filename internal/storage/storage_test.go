package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"poolEngine/internal/amm"
	"poolEngine/internal/model"
)

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "events.jsonl")
	s := NewJsonlStorage(path)
	ctx := context.Background()

	if err := s.PutLogBatch(ctx, []model.LogRecord{{Seq: 1}, {Seq: 1, LogIndex: 1}}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := s.PutLogBatch(ctx, nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if err := s.PutLogBatch(ctx, []model.LogRecord{{Seq: 2}}); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var seqs []uint64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record model.LogRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("line: %v", err)
		}
		seqs = append(seqs, record.Seq)
	}
	if len(seqs) != 3 || seqs[0] != 1 || seqs[2] != 2 {
		t.Fatalf("unexpected seqs: %v", seqs)
	}
}

func TestFileSnapshotStore(t *testing.T) {
	s := NewFileSnapshotStore(filepath.Join(t.TempDir(), "state", "snapshot.json"))
	ctx := context.Background()

	if _, ok, err := s.LoadSnapshot(ctx); err != nil || ok {
		t.Fatalf("missing snapshot: ok=%v err=%v", ok, err)
	}

	e, err := amm.New(amm.DefaultConfig())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if _, err := e.CreatePool(30); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.SaveSnapshot(ctx, e.Snapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	snap, ok, err := s.LoadSnapshot(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if len(snap.Pools) != 1 || snap.Pools[0].FeeTierBps != 30 || snap.NextPoolID != 2 {
		t.Fatalf("snapshot mismatch: %+v", snap)
	}
}

type failingSink struct{ calls int }

func (f *failingSink) PutLogBatch(context.Context, []model.LogRecord) error {
	f.calls++
	return errors.New("down")
}

func TestMultiSinkContinuesPastFailures(t *testing.T) {
	bad := &failingSink{}
	good := NewJsonlStorage(filepath.Join(t.TempDir(), "events.jsonl"))
	err := MultiSink{bad, nil, good}.PutLogBatch(context.Background(), []model.LogRecord{{Seq: 1}})
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if bad.calls != 1 {
		t.Fatalf("bad sink calls: %d", bad.calls)
	}
	if _, err := os.Stat(good.Path()); err != nil {
		t.Fatalf("good sink not written: %v", err)
	}
}
