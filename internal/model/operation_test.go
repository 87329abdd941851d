package model

import (
	"encoding/json"
	"testing"
)

func TestAmountAcceptsNumberAndString(t *testing.T) {
	var op Operation
	line := `{"seq":3,"op":"swap","pool_id":1,"amount_in":"18446744073709551615","min_amount_out":1481,"direction":"a_to_b"}`
	if err := json.Unmarshal([]byte(line), &op); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if op.AmountIn.Uint64() != 18446744073709551615 {
		t.Fatalf("amount_in = %d", op.AmountIn)
	}
	if op.MinAmountOut != 1481 {
		t.Fatalf("min_amount_out = %d", op.MinAmountOut)
	}
}

func TestAmountEncodesAsString(t *testing.T) {
	data, err := json.Marshal(Operation{Seq: 1, Op: OpAddLiquidity, AmountA: 100000, AmountB: 150000})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if v, ok := decoded["amount_a"].(string); !ok || v != "100000" {
		t.Fatalf("amount_a should be string, got %#v", decoded["amount_a"])
	}
	if _, ok := decoded["min_shares"]; ok {
		t.Fatalf("zero min_shares should be omitted")
	}
}

func TestAmountRejectsNegative(t *testing.T) {
	var op Operation
	if err := json.Unmarshal([]byte(`{"amount_in":"-1"}`), &op); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}
