package event

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"poolEngine/internal/amm"
	"poolEngine/internal/model"
)

// Decoder turns engine log records back into typed events.
type Decoder struct {
	abi         abi.ABI
	topicToName map[string]string
}

func NewDecoder() (*Decoder, error) {
	parsed, err := EngineABI()
	if err != nil {
		return nil, err
	}
	topicToName := make(map[string]string, len(parsed.Events))
	for name, ev := range parsed.Events {
		topicToName[strings.ToLower(ev.ID.Hex())] = name
	}
	return &Decoder{abi: parsed, topicToName: topicToName}, nil
}

// CanDecode checks if the topic0 is an engine event.
func (d *Decoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent.
func (d *Decoder) Decode(log model.LogRecord) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	ev := d.abi.Events[name]

	topics, err := parseIndexedTopics(ev, log.Topics)
	if err != nil {
		return nil, err
	}
	indexed := make(map[string]interface{})
	if err := abi.ParseTopicsIntoMap(indexed, indexedArguments(ev.Inputs), topics); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}
	values, err := unpackNonIndexed(ev, log.Data)
	if err != nil {
		return nil, err
	}

	var decoded interface{}
	switch name {
	case model.EventPoolCreated:
		decoded, err = decodePoolCreated(values)
	case model.EventLiquidityAdded:
		decoded, err = decodeLiquidityAdded(indexed, values)
	case model.EventLiquidityRemoved:
		decoded, err = decodeLiquidityRemoved(indexed, values)
	case model.EventSwap:
		decoded, err = decodeSwap(indexed, values)
	case model.EventFeesCollected:
		decoded, err = decodeFeesCollected(indexed, values)
	case model.EventDonation:
		decoded, err = decodeDonation(indexed, values)
	case model.EventPositionTransferred:
		decoded, err = decodePositionTransferred(indexed, values)
	default:
		err = fmt.Errorf("unsupported event name: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return buildTypedEvent(log, name, decoded), nil
}

func buildTypedEvent(log model.LogRecord, name string, decoded interface{}) *model.TypedEvent {
	return &model.TypedEvent{
		EngineID:  log.EngineID,
		Seq:       log.Seq,
		OpHash:    log.OpHash,
		LogIndex:  log.LogIndex,
		PoolID:    log.PoolID,
		EventName: name,
		Timestamp: log.Timestamp,
		Decoded:   decoded,
		Raw:       &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data},
	}
}

func decodePoolCreated(values []interface{}) (model.PoolCreatedData, error) {
	if len(values) != 2 {
		return model.PoolCreatedData{}, fmt.Errorf("unexpected values: %d", len(values))
	}
	fee, err := asUint64(values[0])
	if err != nil {
		return model.PoolCreatedData{}, err
	}
	share, err := asUint64(values[1])
	if err != nil {
		return model.PoolCreatedData{}, err
	}
	return model.PoolCreatedData{FeeTierBps: fee, LedgerShareBps: share}, nil
}

func decodeLiquidityAdded(indexed map[string]interface{}, values []interface{}) (model.LiquidityAddedData, error) {
	owner, position, err := ownerAndPosition(indexed)
	if err != nil {
		return model.LiquidityAddedData{}, err
	}
	amounts, err := bigStrings(values, 6)
	if err != nil {
		return model.LiquidityAddedData{}, err
	}
	return model.LiquidityAddedData{
		Owner:      owner,
		PositionID: position,
		AmountA:    amounts[0],
		AmountB:    amounts[1],
		Shares:     amounts[2],
		ReserveA:   amounts[3],
		ReserveB:   amounts[4],
		LPSupply:   amounts[5],
	}, nil
}

func decodeLiquidityRemoved(indexed map[string]interface{}, values []interface{}) (model.LiquidityRemovedData, error) {
	owner, position, err := ownerAndPosition(indexed)
	if err != nil {
		return model.LiquidityRemovedData{}, err
	}
	if len(values) != 9 {
		return model.LiquidityRemovedData{}, fmt.Errorf("unexpected values: %d", len(values))
	}
	burned, ok := values[5].(bool)
	if !ok {
		return model.LiquidityRemovedData{}, fmt.Errorf("unexpected burned type %T", values[5])
	}
	head, err := bigStrings(values[:5], 5)
	if err != nil {
		return model.LiquidityRemovedData{}, err
	}
	tail, err := bigStrings(values[6:], 3)
	if err != nil {
		return model.LiquidityRemovedData{}, err
	}
	return model.LiquidityRemovedData{
		Owner:      owner,
		PositionID: position,
		AmountA:    head[0],
		AmountB:    head[1],
		Shares:     head[2],
		FeesA:      head[3],
		FeesB:      head[4],
		Burned:     burned,
		ReserveA:   tail[0],
		ReserveB:   tail[1],
		LPSupply:   tail[2],
	}, nil
}

func decodeSwap(indexed map[string]interface{}, values []interface{}) (model.SwapEventData, error) {
	sender, err := asAddress(indexed["sender"])
	if err != nil {
		return model.SwapEventData{}, err
	}
	if len(values) != 7 {
		return model.SwapEventData{}, fmt.Errorf("unexpected values: %d", len(values))
	}
	dir, ok := values[0].(uint8)
	if !ok {
		return model.SwapEventData{}, fmt.Errorf("unexpected direction type %T", values[0])
	}
	amounts, err := bigStrings(values[1:], 6)
	if err != nil {
		return model.SwapEventData{}, err
	}
	return model.SwapEventData{
		Sender:    sender.Hex(),
		Direction: amm.Direction(dir).String(),
		AmountIn:  amounts[0],
		AmountOut: amounts[1],
		FeeAmount: amounts[2],
		LedgerFee: amounts[3],
		ReserveA:  amounts[4],
		ReserveB:  amounts[5],
	}, nil
}

func decodeFeesCollected(indexed map[string]interface{}, values []interface{}) (model.FeesCollectedData, error) {
	owner, position, err := ownerAndPosition(indexed)
	if err != nil {
		return model.FeesCollectedData{}, err
	}
	amounts, err := bigStrings(values, 2)
	if err != nil {
		return model.FeesCollectedData{}, err
	}
	return model.FeesCollectedData{Owner: owner, PositionID: position, AmountA: amounts[0], AmountB: amounts[1]}, nil
}

func decodeDonation(indexed map[string]interface{}, values []interface{}) (model.DonationData, error) {
	donor, err := asAddress(indexed["donor"])
	if err != nil {
		return model.DonationData{}, err
	}
	amounts, err := bigStrings(values, 4)
	if err != nil {
		return model.DonationData{}, err
	}
	return model.DonationData{
		Donor:    donor.Hex(),
		AmountA:  amounts[0],
		AmountB:  amounts[1],
		ReserveA: amounts[2],
		ReserveB: amounts[3],
	}, nil
}

func decodePositionTransferred(indexed map[string]interface{}, values []interface{}) (model.PositionTransferredData, error) {
	from, err := asAddress(indexed["from"])
	if err != nil {
		return model.PositionTransferredData{}, err
	}
	to, err := asAddress(indexed["to"])
	if err != nil {
		return model.PositionTransferredData{}, err
	}
	if len(values) != 1 {
		return model.PositionTransferredData{}, fmt.Errorf("unexpected values: %d", len(values))
	}
	position, err := asUint64(values[0])
	if err != nil {
		return model.PositionTransferredData{}, err
	}
	return model.PositionTransferredData{PositionID: position, From: from.Hex(), To: to.Hex()}, nil
}

func ownerAndPosition(indexed map[string]interface{}) (string, uint64, error) {
	owner, err := asAddress(indexed["owner"])
	if err != nil {
		return "", 0, err
	}
	position, err := asUint64(indexed["positionId"])
	if err != nil {
		return "", 0, err
	}
	return owner.Hex(), position, nil
}

func bigStrings(values []interface{}, want int) ([]string, error) {
	if len(values) != want {
		return nil, fmt.Errorf("unexpected values: %d", len(values))
	}
	out := make([]string, 0, want)
	for _, v := range values {
		b, ok := v.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("unexpected amount type %T", v)
		}
		out = append(out, b.String())
	}
	return out, nil
}

func asAddress(v interface{}) (common.Address, error) {
	addr, ok := v.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected address type %T", v)
	}
	return addr, nil
}

func asUint64(v interface{}) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case *big.Int:
		if !n.IsUint64() {
			return 0, fmt.Errorf("value %s overflows uint64", n)
		}
		return n.Uint64(), nil
	default:
		return 0, fmt.Errorf("unexpected integer type %T", v)
	}
}

func parseIndexedTopics(ev abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(ev.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	out := make([]common.Hash, 0, indexedCount)
	for _, topic := range topics[1:] {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(ev abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := ev.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", ev.Name, err)
	}
	return values, nil
}
