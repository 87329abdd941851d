package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"poolEngine/internal/amm"
	"poolEngine/internal/clock"
	"poolEngine/internal/event"
	"poolEngine/internal/model"
	"poolEngine/internal/storage"
)

const ops = `
{"seq":1,"op":"create_pool","fee_tier_bps":30}
{"seq":2,"op":"add_liquidity","owner":"0x00000000000000000000000000000000000a11ce","pool_id":1,"amount_a":"100000","amount_b":"150000"}
{"seq":3,"op":"swap","owner":"0x0000000000000000000000000000000000000b0b","pool_id":1,"direction":"a_to_b","amount_in":"1000","min_amount_out":"1482"}
{"seq":4,"op":"swap","owner":"0x0000000000000000000000000000000000000b0b","pool_id":1,"direction":"a_to_b","amount_in":"1000","min_amount_out":"1481","timestamp_ms":1000}
`

func newTestRunner(t *testing.T, dir string) (*Runner, *amm.Engine, *storage.JsonlStorage) {
	t.Helper()
	engine, err := amm.New(amm.DefaultConfig())
	require.NoError(t, err)
	enc, err := event.NewEncoder("test")
	require.NoError(t, err)
	out := storage.NewJsonlStorage(filepath.Join(dir, "events.jsonl"))
	errs := storage.NewJsonlStorage(filepath.Join(dir, "errors.jsonl"))
	r := NewRunner(RunConfig{
		BatchSize:         2,
		CheckpointPath:    filepath.Join(dir, "checkpoint.json"),
		CheckpointEnabled: true,
		DefaultDeadline:   20 * time.Minute,
	}, Deps{
		Engine:  engine,
		Encoder: enc,
		Sink:    out,
		Errors:  errs,
		Clock:   clock.NewFixed(500),
	})
	return r, engine, out
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestRunAppliesOperations(t *testing.T) {
	dir := t.TempDir()
	r, engine, out := newTestRunner(t, dir)

	stats, err := r.Run(context.Background(), strings.NewReader(ops))
	require.NoError(t, err)
	require.Equal(t, 4, stats.Total)
	require.Equal(t, 3, stats.Applied)
	require.Equal(t, 1, stats.Failed)
	require.Equal(t, 3, stats.Events)
	require.Equal(t, uint64(4), stats.LastSeq)

	pool, err := engine.Pool(1)
	require.NoError(t, err)
	require.Equal(t, uint64(101000), pool.ReserveA)
	require.Equal(t, uint64(148519), pool.ReserveB)

	lines := readLines(t, out.Path())
	require.Len(t, lines, 3)
	var last model.LogRecord
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &last))
	require.Equal(t, uint64(4), last.Seq)
	require.Equal(t, uint64(1000), last.Timestamp)

	failures := readLines(t, filepath.Join(dir, "errors.jsonl"))
	require.Len(t, failures, 1)
	var failed model.OperationError
	require.NoError(t, json.Unmarshal([]byte(failures[0]), &failed))
	require.Equal(t, uint64(3), failed.Seq)
	require.Equal(t, "SlippageExceeded", failed.Code)
}

func TestRunResumesFromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	r, _, _ := newTestRunner(t, dir)
	_, err := r.Run(context.Background(), strings.NewReader(ops))
	require.NoError(t, err)

	r, engine, out := newTestRunner(t, dir)
	stats, err := r.Run(context.Background(), strings.NewReader(ops))
	require.NoError(t, err)
	require.Equal(t, 4, stats.Skipped)
	require.Zero(t, stats.Applied)

	pool, err := engine.Pool(1)
	require.NoError(t, err)
	require.Equal(t, uint64(148519), pool.ReserveB)
	require.Len(t, readLines(t, out.Path()), 3)
}

func TestRunRejectsMalformedLine(t *testing.T) {
	r, _, _ := newTestRunner(t, t.TempDir())
	_, err := r.Run(context.Background(), strings.NewReader("{not json}\n"))
	require.Error(t, err)
}

const unnumbered = `
{"op":"create_pool","fee_tier_bps":30}

{"op":"add_liquidity","owner":"0x00000000000000000000000000000000000a11ce","pool_id":1,"amount_a":"100000","amount_b":"150000"}
`

func TestRunUnnumberedStreamResumes(t *testing.T) {
	dir := t.TempDir()
	r, _, _ := newTestRunner(t, dir)
	stats, err := r.Run(context.Background(), strings.NewReader(unnumbered))
	require.NoError(t, err)
	require.Equal(t, 2, stats.Applied)
	require.Equal(t, uint64(2), stats.LastSeq)

	r, engine, _ := newTestRunner(t, dir)
	stats, err = r.Run(context.Background(), strings.NewReader(unnumbered))
	require.NoError(t, err)
	require.Equal(t, 2, stats.Skipped)
	require.Zero(t, stats.Applied)
	require.Len(t, engine.Pools(), 1)
	pool, err := engine.Pool(1)
	require.NoError(t, err)
	require.Equal(t, uint64(100000), pool.ReserveA)

	// Lines appended to the input are picked up on the next run.
	grown := unnumbered + `{"op":"donate","owner":"0x0000000000000000000000000000000000000b0b","pool_id":1,"amount_a":"10","amount_b":"0"}` + "\n"
	r, engine, _ = newTestRunner(t, dir)
	stats, err = r.Run(context.Background(), strings.NewReader(grown))
	require.NoError(t, err)
	require.Equal(t, 2, stats.Skipped)
	require.Equal(t, 1, stats.Applied)
	require.Equal(t, uint64(3), stats.LastSeq)
	pool, err = engine.Pool(1)
	require.NoError(t, err)
	require.Equal(t, uint64(100010), pool.ReserveA)
}
