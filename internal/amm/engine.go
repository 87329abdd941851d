package amm

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Engine holds every pool and position and applies operations to them.
//
// Each operation validates all preconditions before it mutates anything,
// so a failed call leaves state unchanged. Engine is not safe for
// concurrent use; callers serialize access.
type Engine struct {
	cfg          Config
	pools        map[PoolID]*Pool
	positions    map[PositionID]*Position
	byOwner      map[PoolID]map[common.Address]PositionID
	nextPool     PoolID
	nextPosition PositionID
}

func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.AllowedFeeTiers) == 0 {
		cfg.AllowedFeeTiers = append([]uint64(nil), DefaultFeeTiers...)
	}
	e := &Engine{cfg: cfg}
	e.reset()
	return e, nil
}

func (e *Engine) reset() {
	e.pools = make(map[PoolID]*Pool)
	e.positions = make(map[PositionID]*Position)
	e.byOwner = make(map[PoolID]map[common.Address]PositionID)
	e.nextPool = 1
	e.nextPosition = 1
}

func (e *Engine) Config() Config {
	return e.cfg
}

// CreatePool registers an empty pool with the given fee tier.
func (e *Engine) CreatePool(feeTierBps uint64) (PoolID, error) {
	if !e.cfg.allowsTier(feeTierBps) {
		return 0, fmt.Errorf("create pool with %d bps: %w", feeTierBps, ErrInvalidFeeTier)
	}
	id := e.nextPool
	e.nextPool++
	e.pools[id] = &Pool{
		ID:             id,
		FeeTierBps:     feeTierBps,
		LedgerShareBps: e.cfg.FeeLedgerShareBps,
	}
	return id, nil
}

// Pool returns a copy of the pool.
func (e *Engine) Pool(id PoolID) (Pool, error) {
	p, err := e.pool(id)
	if err != nil {
		return Pool{}, err
	}
	return *p, nil
}

// Pools returns copies of all pools ordered by id.
func (e *Engine) Pools() []Pool {
	out := make([]Pool, 0, len(e.pools))
	for _, p := range e.pools {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Position returns a copy of the position with pending ledger fees
// settled into the unclaimed amounts.
func (e *Engine) Position(id PositionID) (Position, error) {
	pos, err := e.position(id)
	if err != nil {
		return Position{}, err
	}
	return e.settled(pos), nil
}

// PositionOf returns the owner's position in a pool.
func (e *Engine) PositionOf(pool PoolID, owner common.Address) (Position, error) {
	if _, err := e.pool(pool); err != nil {
		return Position{}, err
	}
	id, ok := e.byOwner[pool][owner]
	if !ok {
		return Position{}, fmt.Errorf("pool %d owner %s: %w", pool, owner.Hex(), ErrPositionNotFound)
	}
	return e.Position(id)
}

// PositionsByOwner returns all positions held by owner ordered by id.
func (e *Engine) PositionsByOwner(owner common.Address) []Position {
	var out []Position
	for _, pos := range e.positions {
		if pos.Owner == owner {
			out = append(out, e.settled(pos))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (e *Engine) pool(id PoolID) (*Pool, error) {
	p, ok := e.pools[id]
	if !ok {
		return nil, fmt.Errorf("pool %d: %w", id, ErrPoolNotFound)
	}
	return p, nil
}

func (e *Engine) position(id PositionID) (*Position, error) {
	pos, ok := e.positions[id]
	if !ok {
		return nil, fmt.Errorf("position %d: %w", id, ErrPositionNotFound)
	}
	return pos, nil
}

func (e *Engine) ownedPosition(owner common.Address, id PositionID) (*Position, *Pool, error) {
	pos, err := e.position(id)
	if err != nil {
		return nil, nil, err
	}
	if pos.Owner != owner {
		return nil, nil, fmt.Errorf("position %d held by %s: %w", id, pos.Owner.Hex(), ErrNotPositionOwner)
	}
	p, err := e.pool(pos.Pool)
	if err != nil {
		return nil, nil, err
	}
	return pos, p, nil
}

func (e *Engine) index(pos *Position) {
	owners, ok := e.byOwner[pos.Pool]
	if !ok {
		owners = make(map[common.Address]PositionID)
		e.byOwner[pos.Pool] = owners
	}
	owners[pos.Owner] = pos.ID
}

func (e *Engine) unindex(pos *Position) {
	delete(e.byOwner[pos.Pool], pos.Owner)
}
