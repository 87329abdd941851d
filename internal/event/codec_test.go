package event

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"poolEngine/internal/amm"
	"poolEngine/internal/model"
)

var (
	owner = common.HexToAddress("0x2222222222222222222222222222222222222222")
	other = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func roundTrip(t *testing.T, result interface{}) *model.TypedEvent {
	t.Helper()
	enc, err := NewEncoder("test")
	if err != nil {
		t.Fatalf("encoder: %v", err)
	}
	dec, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	records, err := enc.Encode(Envelope{Seq: 7, OpHash: OpHash([]byte(`{"seq":7}`)), TimestampMs: 1700000000000}, result)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	record := records[0]
	if !dec.CanDecode(record.Topic0()) {
		t.Fatalf("decoder rejects own topic0 %s", record.Topic0())
	}
	ev, err := dec.Decode(record)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Seq != 7 || ev.Timestamp != 1700000000000 || ev.EngineID != "test" {
		t.Fatalf("envelope mismatch: %+v", ev)
	}
	if !strings.HasPrefix(ev.OpHash, "0x") || len(ev.OpHash) != 66 {
		t.Fatalf("op hash malformed: %s", ev.OpHash)
	}
	return ev
}

func TestSwapEventRoundTrip(t *testing.T) {
	ev := roundTrip(t, amm.SwapResult{
		Pool:      3,
		Sender:    owner,
		Direction: amm.BtoA,
		AmountIn:  1000,
		AmountOut: 1481,
		FeeAmount: 3,
		LedgerFee: 1,
		ReserveA:  148519,
		ReserveB:  100999,
	})
	if ev.EventName != model.EventSwap || ev.PoolID != 3 {
		t.Fatalf("unexpected event %s pool %d", ev.EventName, ev.PoolID)
	}
	swap, ok := ev.Decoded.(model.SwapEventData)
	if !ok {
		t.Fatalf("decoded type mismatch: %T", ev.Decoded)
	}
	if swap.Sender != owner.Hex() || swap.Direction != "b_to_a" {
		t.Fatalf("indexed mismatch: %+v", swap)
	}
	if swap.AmountIn != "1000" || swap.AmountOut != "1481" || swap.LedgerFee != "1" || swap.ReserveB != "100999" {
		t.Fatalf("amounts mismatch: %+v", swap)
	}
}

func TestLiquidityRemovedRoundTrip(t *testing.T) {
	ev := roundTrip(t, amm.RemoveLiquidityResult{
		Pool:        1,
		Position:    9,
		Owner:       owner,
		SharesBurnt: 122474,
		AmountA:     100000,
		AmountB:     150000,
		FeesA:       5,
		Burned:      true,
	})
	removed, ok := ev.Decoded.(model.LiquidityRemovedData)
	if !ok {
		t.Fatalf("decoded type mismatch: %T", ev.Decoded)
	}
	if removed.PositionID != 9 || removed.Owner != owner.Hex() || !removed.Burned {
		t.Fatalf("indexed mismatch: %+v", removed)
	}
	if removed.Shares != "122474" || removed.FeesA != "5" || removed.FeesB != "0" || removed.LPSupply != "0" {
		t.Fatalf("amounts mismatch: %+v", removed)
	}
}

func TestPoolCreatedAndTransferRoundTrip(t *testing.T) {
	ev := roundTrip(t, PoolCreated{Pool: 2, FeeTierBps: 30, LedgerShareBps: 2500})
	created, ok := ev.Decoded.(model.PoolCreatedData)
	if !ok || created.FeeTierBps != 30 || created.LedgerShareBps != 2500 {
		t.Fatalf("pool created mismatch: %#v", ev.Decoded)
	}

	ev = roundTrip(t, amm.TransferResult{Pool: 2, Position: 4, From: owner, To: other})
	moved, ok := ev.Decoded.(model.PositionTransferredData)
	if !ok || moved.PositionID != 4 || moved.From != owner.Hex() || moved.To != other.Hex() {
		t.Fatalf("transfer mismatch: %#v", ev.Decoded)
	}
}

func TestEncodeAssignsLogIndexes(t *testing.T) {
	enc, err := NewEncoder("test")
	if err != nil {
		t.Fatalf("encoder: %v", err)
	}
	records, err := enc.Encode(Envelope{Seq: 1},
		amm.CollectFeesResult{Pool: 1, Position: 1, Owner: owner, AmountA: 4},
		amm.DonateResult{Pool: 1, Donor: owner, AmountA: 1},
	)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(records) != 2 || records[0].LogIndex != 0 || records[1].LogIndex != 1 {
		t.Fatalf("log indexes mismatch: %+v", records)
	}
	if _, err := enc.Encode(Envelope{}, "nope"); err == nil {
		t.Fatalf("expected error for unsupported result")
	}
}

func TestDecodeRejectsForeignTopic(t *testing.T) {
	dec, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	foreign := "0xc42079f94a6350d7e6235f29174924f928cc2ac818eb64fed8004e115fbcca67"
	if dec.CanDecode(foreign) {
		t.Fatalf("foreign topic accepted")
	}
	if _, err := dec.Decode(model.LogRecord{Topics: []string{foreign}, Data: "0x"}); err == nil {
		t.Fatalf("expected error")
	}
}
