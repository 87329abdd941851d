package amm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// TransferPosition hands the position, with its unclaimed fees, to
// recipient. An owner holds at most one position per pool, so the
// transfer fails if the recipient already has one.
func (e *Engine) TransferPosition(owner common.Address, id PositionID, recipient common.Address) (TransferResult, error) {
	pos, p, err := e.ownedPosition(owner, id)
	if err != nil {
		return TransferResult{}, fmt.Errorf("transfer position: %w", err)
	}
	if recipient == owner {
		return TransferResult{Pool: p.ID, Position: pos.ID, From: owner, To: recipient}, nil
	}
	if e.existing(p.ID, recipient) != nil {
		return TransferResult{}, fmt.Errorf("transfer position %d to %s: %w", id, recipient.Hex(), ErrPositionExists)
	}
	e.unindex(pos)
	pos.Owner = recipient
	e.index(pos)
	return TransferResult{Pool: p.ID, Position: pos.ID, From: owner, To: recipient}, nil
}
