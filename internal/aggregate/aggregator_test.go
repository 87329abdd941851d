package aggregate

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"path/filepath"
	"sort"
	"testing"

	"poolEngine/internal/model"
)

type memoryWriter struct {
	metrics []model.PoolWindowMetrics
}

func (m *memoryWriter) UpsertWindowMetrics(_ context.Context, metrics []model.PoolWindowMetrics) error {
	m.metrics = append(m.metrics, metrics...)
	return nil
}

func typedLine(t *testing.T, buf *bytes.Buffer, pool uint64, name string, ts uint64, payload interface{}) {
	t.Helper()
	decoded, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	line, err := json.Marshal(model.TypedEventRecord{
		EngineID:  "test",
		PoolID:    pool,
		EventName: name,
		Timestamp: ts,
		Decoded:   decoded,
	})
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	buf.Write(line)
	buf.WriteByte('\n')
}

func sampleEvents(t *testing.T) []byte {
	var buf bytes.Buffer
	typedLine(t, &buf, 1, model.EventPoolCreated, 1_000_000, model.PoolCreatedData{FeeTierBps: 30})
	typedLine(t, &buf, 1, model.EventLiquidityAdded, 1_001_000, model.LiquidityAddedData{
		AmountA: "100000", AmountB: "150000", Shares: "122474",
		ReserveA: "100000", ReserveB: "150000", LPSupply: "122474",
	})
	typedLine(t, &buf, 1, model.EventSwap, 1_002_000, model.SwapEventData{
		Direction: "a_to_b", AmountIn: "1000", AmountOut: "1481", FeeAmount: "3", LedgerFee: "0",
		ReserveA: "101000", ReserveB: "148519",
	})
	typedLine(t, &buf, 1, model.EventSwap, 5_000_000, model.SwapEventData{
		Direction: "b_to_a", AmountIn: "2000", AmountOut: "1348", FeeAmount: "6", LedgerFee: "2",
		ReserveA: "99652", ReserveB: "150517",
	})
	buf.WriteString("not json\n")
	return buf.Bytes()
}

func TestAggregatorWindows(t *testing.T) {
	writer := &memoryWriter{}
	state := &NamedStateStore{Backend: &FileStateBackend{Path: filepath.Join(t.TempDir(), "state.json")}, Name: "aggregator:3600"}
	agg := NewAggregator(Config{WindowSeconds: 3600, StateStore: state}, writer, nil)

	if err := agg.Run(context.Background(), bytes.NewReader(sampleEvents(t))); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(writer.metrics) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(writer.metrics))
	}
	sort.Slice(writer.metrics, func(i, j int) bool {
		return writer.metrics[i].WindowStart.Before(writer.metrics[j].WindowStart)
	})

	first := writer.metrics[0]
	if first.WindowStart.Unix() != 0 || first.WindowEnd.Unix() != 3600 {
		t.Fatalf("unexpected window bounds: %v %v", first.WindowStart, first.WindowEnd)
	}
	if first.SwapCount != 1 || first.VolumeA != "1000" || first.VolumeB != "1481" || first.FeeA != "3" || first.FeeB != "0" {
		t.Fatalf("unexpected first window: %+v", first)
	}
	if first.FeeTierBps != 30 || first.TVLMethod != tvlMethodEvent {
		t.Fatalf("unexpected first window meta: %+v", first)
	}
	if first.TVLA == nil || *first.TVLA != "101000" || *first.TVLB != "148519" {
		t.Fatalf("unexpected tvl: %v %v", first.TVLA, first.TVLB)
	}

	rateA := big.NewRat(3, 101000)
	if first.FeeRateA == nil || *first.FeeRateA != rateA.FloatString(ratioScale) {
		t.Fatalf("unexpected fee rate a: %v", first.FeeRateA)
	}
	apr := new(big.Rat).Quo(rateA, big.NewRat(2, 1))
	apr.Mul(apr, big.NewRat(31_536_000, 3600))
	if first.APR == nil || *first.APR != apr.FloatString(ratioScale) {
		t.Fatalf("unexpected apr: %v want %s", first.APR, apr.FloatString(ratioScale))
	}

	second := writer.metrics[1]
	if second.WindowStart.Unix() != 3600 || second.FeeTierBps != 30 {
		t.Fatalf("unexpected second window: %+v", second)
	}
	if second.VolumeB != "2000" || second.VolumeA != "1348" || second.FeeB != "6" || second.LedgerFeeB != "2" {
		t.Fatalf("unexpected second window volumes: %+v", second)
	}

	last, ok, err := state.Load(context.Background())
	if err != nil || !ok || last != 5_000_000 {
		t.Fatalf("unexpected state: %d %v %v", last, ok, err)
	}

	writer.metrics = nil
	again := NewAggregator(Config{WindowSeconds: 3600, StateStore: state}, writer, nil)
	if err := again.Run(context.Background(), bytes.NewReader(sampleEvents(t))); err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if len(writer.metrics) != 0 {
		t.Fatalf("expected no windows on rerun, got %d", len(writer.metrics))
	}
}

func TestComputeAPRNeedsBothSides(t *testing.T) {
	if apr := computeAPR(big.NewInt(1), big.NewInt(1), big.NewInt(10), nil, 3600); apr != nil {
		t.Fatalf("expected nil apr, got %s", *apr)
	}
	if apr := computeAPR(big.NewInt(1), big.NewInt(1), big.NewInt(10), big.NewInt(10), 0); apr != nil {
		t.Fatalf("expected nil apr for empty window, got %s", *apr)
	}
}

func TestNamedStateStoreNilBackend(t *testing.T) {
	var s *NamedStateStore
	if _, ok, err := s.Load(context.Background()); ok || err != nil {
		t.Fatalf("expected empty load, got %v %v", ok, err)
	}
	if err := (&NamedStateStore{Name: "x"}).Save(context.Background(), 1); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestFileStateBackendKeepsCursorsApart(t *testing.T) {
	ctx := context.Background()
	backend := &FileStateBackend{Path: filepath.Join(t.TempDir(), "nested", "state.json")}
	if err := backend.SaveState(ctx, "aggregator:60", 10); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := backend.SaveState(ctx, "aggregator:3600", 20); err != nil {
		t.Fatalf("save: %v", err)
	}

	reopened := &FileStateBackend{Path: backend.Path}
	if ts, ok, err := reopened.LoadState(ctx, "aggregator:60"); err != nil || !ok || ts != 10 {
		t.Fatalf("unexpected cursor: %d %v %v", ts, ok, err)
	}
	if ts, ok, err := reopened.LoadState(ctx, "aggregator:3600"); err != nil || !ok || ts != 20 {
		t.Fatalf("unexpected cursor: %d %v %v", ts, ok, err)
	}
	if _, ok, err := reopened.LoadState(ctx, "aggregator:300"); err != nil || ok {
		t.Fatalf("expected missing cursor, got %v %v", ok, err)
	}
}
