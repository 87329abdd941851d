package clock

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
)

type fakeHeaders struct {
	times []uint64
	fails int
	calls int
}

func (f *fakeHeaders) HeaderByNumber(_ context.Context, number *big.Int) (*types.Header, error) {
	f.calls++
	if number != nil {
		return nil, errors.New("expected latest")
	}
	if f.fails > 0 {
		f.fails--
		return nil, errors.New("rpc unavailable")
	}
	ts := f.times[0]
	if len(f.times) > 1 {
		f.times = f.times[1:]
	}
	return &types.Header{Time: ts}, nil
}

func TestChainClockUsesBlockTime(t *testing.T) {
	src := &fakeHeaders{times: []uint64{1700000000, 1699999990, 1700000012}}
	c := NewChain(src, ChainConfig{RetryDelay: time.Millisecond})

	want := []uint64{1700000000000, 1700000000000, 1700000012000}
	for i, w := range want {
		got, err := c.NowMillis(context.Background())
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if got != w {
			t.Fatalf("read %d: got %d want %d", i, got, w)
		}
	}
}

func TestChainClockRetries(t *testing.T) {
	src := &fakeHeaders{times: []uint64{10}, fails: 2}
	c := NewChain(src, ChainConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	got, err := c.NowMillis(context.Background())
	if err != nil {
		t.Fatalf("now: %v", err)
	}
	if got != 10000 || src.calls != 3 {
		t.Fatalf("got %d after %d calls", got, src.calls)
	}

	src = &fakeHeaders{times: []uint64{10}, fails: 5}
	c = NewChain(src, ChainConfig{MaxRetries: 1, RetryDelay: time.Millisecond})
	if _, err := c.NowMillis(context.Background()); err == nil {
		t.Fatalf("expected error after retries exhausted")
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, 3, time.Second, func(context.Context) error { return errors.New("boom") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestFixedClock(t *testing.T) {
	f := NewFixed(1000)
	f.Advance(2 * time.Second)
	got, _ := f.NowMillis(context.Background())
	if got != 3000 {
		t.Fatalf("got %d", got)
	}
	f.Set(5)
	got, _ = f.NowMillis(context.Background())
	if got != 5 {
		t.Fatalf("got %d", got)
	}
}
