// Package clock provides the trusted time sources used for swap deadlines.
package clock

import (
	"context"
	"sync/atomic"
	"time"
)

// Clock reports the current time in unix milliseconds.
type Clock interface {
	NowMillis(ctx context.Context) (uint64, error)
}

// System reads the local wall clock.
type System struct{}

func (System) NowMillis(context.Context) (uint64, error) {
	return uint64(time.Now().UnixMilli()), nil
}

// Fixed returns a settable constant time.
type Fixed struct {
	ms atomic.Uint64
}

func NewFixed(ms uint64) *Fixed {
	f := &Fixed{}
	f.ms.Store(ms)
	return f
}

func (f *Fixed) Set(ms uint64) {
	f.ms.Store(ms)
}

func (f *Fixed) Advance(d time.Duration) {
	f.ms.Add(uint64(d.Milliseconds()))
}

func (f *Fixed) NowMillis(context.Context) (uint64, error) {
	return f.ms.Load(), nil
}
