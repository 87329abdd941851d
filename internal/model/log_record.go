package model

// LogRecord is the normalized, ABI-encoded form of an engine event.
// Seq is the operation sequence that produced it and OpHash the keccak
// of the operation payload, so records can be traced back to their input.
type LogRecord struct {
	EngineID   string   `json:"engine_id"`
	Seq        uint64   `json:"seq"`
	OpHash     string   `json:"op_hash"`
	LogIndex   uint64   `json:"log_index"`
	PoolID     uint64   `json:"pool_id"`
	Topics     []string `json:"topics"`
	Data       string   `json:"data"`
	Timestamp  uint64   `json:"timestamp_ms"`
	IngestedAt string   `json:"ingested_at"`
}

// Topic0 returns the event signature topic or "".
func (lr LogRecord) Topic0() string {
	if len(lr.Topics) == 0 {
		return ""
	}
	return lr.Topics[0]
}
