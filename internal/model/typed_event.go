package model

// TypedEvent is a decoded engine event.
type TypedEvent struct {
	EngineID  string      `json:"engine_id"`
	Seq       uint64      `json:"seq"`
	OpHash    string      `json:"op_hash"`
	LogIndex  uint64      `json:"log_index"`
	PoolID    uint64      `json:"pool_id"`
	EventName string      `json:"event_name"`
	Timestamp uint64      `json:"timestamp_ms"`
	Decoded   interface{} `json:"decoded"`
	Raw       *RawLogRef  `json:"raw,omitempty"`
}

// RawLogRef keeps a minimal raw reference for traceability.
type RawLogRef struct {
	Topic0 string `json:"topic0"`
	Data   string `json:"data"`
}
