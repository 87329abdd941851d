package model

// DecodeError records a decode failure for an event line.
type DecodeError struct {
	Seq      uint64 `json:"seq"`
	LogIndex uint64 `json:"log_index"`
	PoolID   uint64 `json:"pool_id"`
	Topic0   string `json:"topic0"`
	Error    string `json:"error"`
}
