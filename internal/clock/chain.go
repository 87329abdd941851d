package clock

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// HeaderSource is satisfied by chain.Client.
type HeaderSource interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// ChainConfig configures a Chain clock.
type ChainConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Chain uses the latest block timestamp as the current time. Readings
// never go backwards, even if the node reorgs to an older head.
type Chain struct {
	src HeaderSource
	cfg ChainConfig

	mu   sync.Mutex
	last uint64
}

func NewChain(src HeaderSource, cfg ChainConfig) *Chain {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Chain{src: src, cfg: cfg}
}

func (c *Chain) NowMillis(ctx context.Context) (uint64, error) {
	var header *types.Header
	err := withRetry(ctx, c.cfg.MaxRetries, c.cfg.RetryDelay, func(ctx context.Context) error {
		h, err := c.src.HeaderByNumber(ctx, nil)
		if err != nil {
			c.cfg.Logger.Warn("latest header failed", zap.Error(err))
			return err
		}
		header = h
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("latest header: %w", err)
	}
	if header == nil {
		return 0, fmt.Errorf("latest header: empty response")
	}

	ms := header.Time * 1000
	c.mu.Lock()
	defer c.mu.Unlock()
	if ms < c.last {
		ms = c.last
	}
	c.last = ms
	return ms, nil
}

func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
