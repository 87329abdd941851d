package event

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"poolEngine/internal/amm"
	"poolEngine/internal/model"
)

// PoolCreated is the result of a create_pool call, which the engine
// reports only as an id.
type PoolCreated struct {
	Pool           amm.PoolID
	FeeTierBps     uint64
	LedgerShareBps uint64
}

// Envelope identifies the operation that produced a result.
type Envelope struct {
	Seq         uint64
	OpHash      string
	TimestampMs uint64
}

// OpHash returns the keccak256 of a raw operation payload.
func OpHash(payload []byte) string {
	return crypto.Keccak256Hash(payload).Hex()
}

// Encoder turns engine results into ABI-encoded log records.
type Encoder struct {
	abi      abi.ABI
	engineID string
	now      func() time.Time
}

func NewEncoder(engineID string) (*Encoder, error) {
	parsed, err := EngineABI()
	if err != nil {
		return nil, err
	}
	return &Encoder{abi: parsed, engineID: engineID, now: time.Now}, nil
}

// Encode builds the records for one or more results of the same
// operation. Log indexes follow argument order.
func (e *Encoder) Encode(env Envelope, results ...interface{}) ([]model.LogRecord, error) {
	out := make([]model.LogRecord, 0, len(results))
	for i, result := range results {
		name, pool, topics, values, err := e.fields(result)
		if err != nil {
			return nil, err
		}
		record, err := e.record(env, uint64(i), name, pool, topics, values)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

func (e *Encoder) fields(result interface{}) (string, amm.PoolID, []interface{}, []interface{}, error) {
	switch r := result.(type) {
	case PoolCreated:
		return model.EventPoolCreated, r.Pool,
			[]interface{}{uint64(r.Pool)},
			[]interface{}{r.FeeTierBps, r.LedgerShareBps}, nil
	case amm.AddLiquidityResult:
		return model.EventLiquidityAdded, r.Pool,
			[]interface{}{uint64(r.Pool), r.Owner, uint64(r.Position)},
			[]interface{}{u(r.AmountA), u(r.AmountB), u(r.SharesMinted), u(r.ReserveA), u(r.ReserveB), u(r.LPSupply)}, nil
	case amm.RemoveLiquidityResult:
		return model.EventLiquidityRemoved, r.Pool,
			[]interface{}{uint64(r.Pool), r.Owner, uint64(r.Position)},
			[]interface{}{u(r.AmountA), u(r.AmountB), u(r.SharesBurnt), u(r.FeesA), u(r.FeesB), r.Burned, u(r.ReserveA), u(r.ReserveB), u(r.LPSupply)}, nil
	case amm.SwapResult:
		return model.EventSwap, r.Pool,
			[]interface{}{uint64(r.Pool), r.Sender},
			[]interface{}{uint8(r.Direction), u(r.AmountIn), u(r.AmountOut), u(r.FeeAmount), u(r.LedgerFee), u(r.ReserveA), u(r.ReserveB)}, nil
	case amm.CollectFeesResult:
		return model.EventFeesCollected, r.Pool,
			[]interface{}{uint64(r.Pool), r.Owner, uint64(r.Position)},
			[]interface{}{u(r.AmountA), u(r.AmountB)}, nil
	case amm.DonateResult:
		return model.EventDonation, r.Pool,
			[]interface{}{uint64(r.Pool), r.Donor},
			[]interface{}{u(r.AmountA), u(r.AmountB), u(r.ReserveA), u(r.ReserveB)}, nil
	case amm.TransferResult:
		return model.EventPositionTransferred, r.Pool,
			[]interface{}{uint64(r.Pool), r.From, r.To},
			[]interface{}{uint64(r.Position)}, nil
	default:
		return "", 0, nil, nil, fmt.Errorf("unsupported result type %T", result)
	}
}

func (e *Encoder) record(env Envelope, logIndex uint64, name string, pool amm.PoolID, indexed, values []interface{}) (model.LogRecord, error) {
	ev, ok := e.abi.Events[name]
	if !ok {
		return model.LogRecord{}, fmt.Errorf("event %s not in abi", name)
	}
	topics, err := topicHashes(indexed)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("topics %s: %w", name, err)
	}
	data, err := ev.Inputs.NonIndexed().Pack(values...)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("pack %s: %w", name, err)
	}

	hexTopics := make([]string, 0, len(topics)+1)
	hexTopics = append(hexTopics, ev.ID.Hex())
	for _, topic := range topics {
		hexTopics = append(hexTopics, topic.Hex())
	}
	return model.LogRecord{
		EngineID:   e.engineID,
		Seq:        env.Seq,
		OpHash:     env.OpHash,
		LogIndex:   logIndex,
		PoolID:     uint64(pool),
		Topics:     hexTopics,
		Data:       hexutil.Encode(data),
		Timestamp:  env.TimestampMs,
		IngestedAt: e.now().UTC().Format(time.RFC3339),
	}, nil
}

func topicHashes(values []interface{}) ([]common.Hash, error) {
	query := make([][]interface{}, 0, len(values))
	for _, v := range values {
		query = append(query, []interface{}{v})
	}
	rules, err := abi.MakeTopics(query...)
	if err != nil {
		return nil, err
	}
	out := make([]common.Hash, 0, len(rules))
	for _, rule := range rules {
		out = append(out, rule[0])
	}
	return out, nil
}

func u(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
