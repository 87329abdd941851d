package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"poolEngine/internal/amm"
	"poolEngine/internal/model"
	"poolEngine/internal/operation"
	"poolEngine/internal/quote"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleCreatePool(w http.ResponseWriter, r *http.Request) {
	op, payload, err := readOperation(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	op.Op = model.OpCreatePool
	resp, err := s.execute(r.Context(), op, payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// poolOp handles calls addressed by pool id.
func (s *Server) poolOp(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		op, payload, err := readOperation(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		op.Op = kind
		op.PoolID = id
		if kind == model.OpRemoveLiquidity {
			if err := s.resolvePosition(&op); err != nil {
				s.writeError(w, r, err)
				return
			}
		}
		resp, err := s.execute(r.Context(), op, payload)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// positionOp handles calls addressed by position id.
func (s *Server) positionOp(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		op, payload, err := readOperation(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		op.Op = kind
		op.PositionID = id
		resp, err := s.execute(r.Context(), op, payload)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// resolvePosition fills in the caller's position in the addressed pool and
// rejects a position id from another pool.
func (s *Server) resolvePosition(op *model.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if op.PositionID != 0 {
		pos, err := s.engine.Position(amm.PositionID(op.PositionID))
		if err != nil {
			return err
		}
		if uint64(pos.Pool) != op.PoolID {
			return fmt.Errorf("position %d in pool %d: %w", pos.ID, op.PoolID, amm.ErrPositionNotFound)
		}
		return nil
	}
	if !common.IsHexAddress(op.Owner) {
		return fmt.Errorf("%w: owner %q is not an address", operation.ErrInvalidOperation, op.Owner)
	}
	pos, err := s.engine.PositionOf(amm.PoolID(op.PoolID), common.HexToAddress(op.Owner))
	if err != nil {
		return err
	}
	op.PositionID = uint64(pos.ID)
	return nil
}

func (s *Server) handleGetPools(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	pools := s.engine.Pools()
	s.mu.Unlock()

	now := time.Now().UTC()
	out := make([]model.PoolRecord, 0, len(pools))
	for _, p := range pools {
		out = append(out, model.NewPoolRecord(p, now))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.Lock()
	p, err := s.engine.Pool(amm.PoolID(id))
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewPoolRecord(p, time.Now().UTC()))
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mu.Lock()
	pos, err := s.engine.Position(amm.PositionID(id))
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.NewPositionRecord(pos, time.Now().UTC()))
}

func (s *Server) handleOwnerPositions(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !common.IsHexAddress(address) {
		s.writeError(w, r, fmt.Errorf("%w: %q is not an address", errBadRequest, address))
		return
	}
	s.mu.Lock()
	positions := s.engine.PositionsByOwner(common.HexToAddress(address))
	s.mu.Unlock()

	now := time.Now().UTC()
	out := make([]model.PositionRecord, 0, len(positions))
	for _, pos := range positions {
		out = append(out, model.NewPositionRecord(pos, now))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleQuote previews a swap (amount_in), a deposit (amount_a and
// amount_b) or a withdrawal (shares) against the current reserves.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	s.mu.Lock()
	p, err := s.engine.Pool(amm.PoolID(id))
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch {
	case q.Has("amount_in"):
		dir, err := amm.ParseDirection(q.Get("direction"))
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		amountIn, err := queryUint(q.Get("amount_in"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		slippage := s.cfg.DefaultSlippageBps
		if q.Has("slippage_bps") {
			if slippage, err = queryUint(q.Get("slippage_bps")); err != nil {
				s.writeError(w, r, err)
				return
			}
		}
		res, err := quote.Swap(p, dir, amountIn, slippage)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case q.Has("amount_a") && q.Has("amount_b"):
		a, err := queryUint(q.Get("amount_a"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		b, err := queryUint(q.Get("amount_b"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		res, err := quote.PreviewAdd(p, a, b)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case q.Has("shares"):
		shares, err := queryUint(q.Get("shares"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		res, err := quote.PreviewRemove(p, shares)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	default:
		s.writeError(w, r, fmt.Errorf("%w: one of amount_in, amount_a+amount_b or shares is required", errBadRequest))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	pools := len(s.engine.Pools())
	seq := s.seq
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"service":     "poolengine",
		"pools":       pools,
		"seq":         seq,
		"subscribers": s.hub.Len(),
	})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusUnprocessableEntity
	code := operation.Code(err)
	switch {
	case errors.Is(err, errBadRequest):
		status, code = http.StatusBadRequest, "InvalidRequest"
	case errors.Is(err, operation.ErrInvalidOperation):
		status = http.StatusBadRequest
	case amm.IsNotFound(err):
		status = http.StatusNotFound
	case code == "Internal":
		status = http.StatusInternalServerError
		s.logger.Error("request failed", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: code, Message: err.Error(), RequestID: RequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// readOperation decodes the request body into an operation and returns the
// raw payload for hashing. An empty body is an empty operation.
func readOperation(r *http.Request) (model.Operation, []byte, error) {
	var op model.Operation
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return op, nil, fmt.Errorf("%w: read body: %v", errBadRequest, err)
	}
	if len(payload) == 0 {
		return op, payload, nil
	}
	if err := json.Unmarshal(payload, &op); err != nil {
		return op, nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return op, payload, nil
}

func pathID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id", errBadRequest)
	}
	return id, nil
}

func queryUint(v string) (uint64, error) {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an unsigned integer", errBadRequest, v)
	}
	return n, nil
}
