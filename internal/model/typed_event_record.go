package model

import "encoding/json"

// TypedEventRecord is the JSON representation read back for aggregation;
// Decoded is left raw until the event name is known.
type TypedEventRecord struct {
	EngineID  string          `json:"engine_id"`
	Seq       uint64          `json:"seq"`
	OpHash    string          `json:"op_hash"`
	LogIndex  uint64          `json:"log_index"`
	PoolID    uint64          `json:"pool_id"`
	EventName string          `json:"event_name"`
	Timestamp uint64          `json:"timestamp_ms"`
	Decoded   json.RawMessage `json:"decoded"`
	Raw       *RawLogRef      `json:"raw,omitempty"`
}
