package model

// TokenMeta describes how raw units of a pool side are displayed.
type TokenMeta struct {
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}
