package event

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const engineABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "poolId", "type": "uint64"},
      {"indexed": false, "name": "feeTierBps", "type": "uint64"},
      {"indexed": false, "name": "ledgerShareBps", "type": "uint64"}
    ],
    "name": "PoolCreated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "poolId", "type": "uint64"},
      {"indexed": true, "name": "owner", "type": "address"},
      {"indexed": true, "name": "positionId", "type": "uint64"},
      {"indexed": false, "name": "amountA", "type": "uint256"},
      {"indexed": false, "name": "amountB", "type": "uint256"},
      {"indexed": false, "name": "shares", "type": "uint256"},
      {"indexed": false, "name": "reserveA", "type": "uint256"},
      {"indexed": false, "name": "reserveB", "type": "uint256"},
      {"indexed": false, "name": "lpSupply", "type": "uint256"}
    ],
    "name": "LiquidityAdded",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "poolId", "type": "uint64"},
      {"indexed": true, "name": "owner", "type": "address"},
      {"indexed": true, "name": "positionId", "type": "uint64"},
      {"indexed": false, "name": "amountA", "type": "uint256"},
      {"indexed": false, "name": "amountB", "type": "uint256"},
      {"indexed": false, "name": "shares", "type": "uint256"},
      {"indexed": false, "name": "feesA", "type": "uint256"},
      {"indexed": false, "name": "feesB", "type": "uint256"},
      {"indexed": false, "name": "burned", "type": "bool"},
      {"indexed": false, "name": "reserveA", "type": "uint256"},
      {"indexed": false, "name": "reserveB", "type": "uint256"},
      {"indexed": false, "name": "lpSupply", "type": "uint256"}
    ],
    "name": "LiquidityRemoved",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "poolId", "type": "uint64"},
      {"indexed": true, "name": "sender", "type": "address"},
      {"indexed": false, "name": "direction", "type": "uint8"},
      {"indexed": false, "name": "amountIn", "type": "uint256"},
      {"indexed": false, "name": "amountOut", "type": "uint256"},
      {"indexed": false, "name": "feeAmount", "type": "uint256"},
      {"indexed": false, "name": "ledgerFee", "type": "uint256"},
      {"indexed": false, "name": "reserveA", "type": "uint256"},
      {"indexed": false, "name": "reserveB", "type": "uint256"}
    ],
    "name": "Swap",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "poolId", "type": "uint64"},
      {"indexed": true, "name": "owner", "type": "address"},
      {"indexed": true, "name": "positionId", "type": "uint64"},
      {"indexed": false, "name": "amountA", "type": "uint256"},
      {"indexed": false, "name": "amountB", "type": "uint256"}
    ],
    "name": "FeesCollected",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "poolId", "type": "uint64"},
      {"indexed": true, "name": "donor", "type": "address"},
      {"indexed": false, "name": "amountA", "type": "uint256"},
      {"indexed": false, "name": "amountB", "type": "uint256"},
      {"indexed": false, "name": "reserveA", "type": "uint256"},
      {"indexed": false, "name": "reserveB", "type": "uint256"}
    ],
    "name": "Donation",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "poolId", "type": "uint64"},
      {"indexed": true, "name": "from", "type": "address"},
      {"indexed": true, "name": "to", "type": "address"},
      {"indexed": false, "name": "positionId", "type": "uint64"}
    ],
    "name": "PositionTransferred",
    "type": "event"
  }
]`

var (
	engineABI     abi.ABI
	engineABIOnce sync.Once
	engineABIErr  error
)

// EngineABI returns the parsed event ABI.
func EngineABI() (abi.ABI, error) {
	engineABIOnce.Do(func() {
		engineABI, engineABIErr = abi.JSON(strings.NewReader(engineABIJSON))
	})
	return engineABI, engineABIErr
}
