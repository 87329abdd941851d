// Package server exposes the engine over HTTP. Every engine call runs
// under one lock, so the engine sees a single writer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"poolEngine/internal/amm"
	"poolEngine/internal/clock"
	"poolEngine/internal/event"
	"poolEngine/internal/model"
	"poolEngine/internal/operation"
	"poolEngine/internal/storage"
)

// Config holds runtime settings for the HTTP server.
type Config struct {
	Addr               string
	DefaultDeadline    time.Duration
	DefaultSlippageBps uint64
	ReadHeaderTimeout  time.Duration
	// StartSeq is the last operation sequence already published, so
	// sequences keep increasing across restarts.
	StartSeq uint64
}

// Deps are the collaborators of a Server. Sink and Snapshots are optional.
type Deps struct {
	Engine    *amm.Engine
	Encoder   *event.Encoder
	Decoder   *event.Decoder
	Sink      storage.EventSink
	Snapshots storage.SnapshotStore
	Clock     clock.Clock
	Logger    *zap.Logger
}

// Server handles engine calls and streams their events.
type Server struct {
	cfg       Config
	mu        sync.Mutex
	seq       uint64
	engine    *amm.Engine
	applier   *operation.Applier
	encoder   *event.Encoder
	decoder   *event.Decoder
	sink      storage.EventSink
	snapshots storage.SnapshotStore
	clock     clock.Clock
	logger    *zap.Logger
	hub       *Hub
	router    *mux.Router
	http      *http.Server
}

func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Engine == nil {
		return nil, fmt.Errorf("engine is nil")
	}
	if deps.Encoder == nil || deps.Decoder == nil {
		return nil, fmt.Errorf("event codec is nil")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}

	s := &Server{
		cfg:       cfg,
		seq:       cfg.StartSeq,
		engine:    deps.Engine,
		applier:   &operation.Applier{Engine: deps.Engine, DefaultDeadline: cfg.DefaultDeadline},
		encoder:   deps.Encoder,
		decoder:   deps.Decoder,
		sink:      deps.Sink,
		snapshots: deps.Snapshots,
		clock:     deps.Clock,
		logger:    deps.Logger,
		hub:       NewHub(deps.Logger),
	}

	r := mux.NewRouter()
	r.Use(s.requestID, s.accessLog)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/pools", s.handleCreatePool).Methods(http.MethodPost)
	api.HandleFunc("/pools", s.handleGetPools).Methods(http.MethodGet)
	api.HandleFunc("/pools/{id:[0-9]+}", s.handleGetPool).Methods(http.MethodGet)
	api.HandleFunc("/pools/{id:[0-9]+}/liquidity", s.poolOp(model.OpAddLiquidity)).Methods(http.MethodPost)
	api.HandleFunc("/pools/{id:[0-9]+}/liquidity/remove", s.poolOp(model.OpRemoveLiquidity)).Methods(http.MethodPost)
	api.HandleFunc("/pools/{id:[0-9]+}/swap", s.poolOp(model.OpSwap)).Methods(http.MethodPost)
	api.HandleFunc("/pools/{id:[0-9]+}/donate", s.poolOp(model.OpDonate)).Methods(http.MethodPost)
	api.HandleFunc("/pools/{id:[0-9]+}/quote", s.handleQuote).Methods(http.MethodGet)
	api.HandleFunc("/positions/{id:[0-9]+}", s.handleGetPosition).Methods(http.MethodGet)
	api.HandleFunc("/positions/{id:[0-9]+}/collect", s.positionOp(model.OpCollectFee)).Methods(http.MethodPost)
	api.HandleFunc("/positions/{id:[0-9]+}/transfer", s.positionOp(model.OpTransferPosition)).Methods(http.MethodPost)
	api.HandleFunc("/owners/{address}/positions", s.handleOwnerPositions).Methods(http.MethodGet)
	api.Handle("/events", s.hub).Methods(http.MethodGet)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	s.router = r
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down and disconnects subscribers.
func (s *Server) Stop(ctx context.Context) error {
	s.hub.Close()
	return s.http.Shutdown(ctx)
}

// Seq returns the last assigned operation sequence.
func (s *Server) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// MutationResponse is returned by every call that changes engine state.
type MutationResponse struct {
	Seq      uint64                `json:"seq"`
	Pool     *model.PoolRecord     `json:"pool,omitempty"`
	Position *model.PositionRecord `json:"position,omitempty"`
	Events   []*model.TypedEvent   `json:"events"`
}

// execute applies op under the engine lock and publishes its events.
func (s *Server) execute(ctx context.Context, op model.Operation, payload []byte) (MutationResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now, err := s.clock.NowMillis(ctx)
	if err != nil {
		return MutationResponse{}, fmt.Errorf("clock: %w", err)
	}
	op.Seq = s.seq + 1
	op.TimestampMs = now

	outcome, err := s.applier.Apply(op, now)
	if err != nil {
		return MutationResponse{}, err
	}
	s.seq = op.Seq

	records, err := s.encoder.Encode(event.Envelope{
		Seq:         op.Seq,
		OpHash:      event.OpHash(payload),
		TimestampMs: now,
	}, outcome.Results...)
	if err != nil {
		return MutationResponse{}, fmt.Errorf("encode events: %w", err)
	}

	resp := MutationResponse{Seq: op.Seq, Events: make([]*model.TypedEvent, 0, len(records))}
	for _, record := range records {
		ev, err := s.decoder.Decode(record)
		if err != nil {
			return MutationResponse{}, fmt.Errorf("decode events: %w", err)
		}
		resp.Events = append(resp.Events, ev)
		if msg, err := json.Marshal(ev); err == nil {
			s.hub.Publish(msg)
		}
	}

	at := time.UnixMilli(int64(now)).UTC()
	if p, err := s.engine.Pool(outcome.Pool); err == nil {
		rec := model.NewPoolRecord(p, at)
		resp.Pool = &rec
	}
	if outcome.Position != 0 {
		if pos, err := s.engine.Position(outcome.Position); err == nil {
			rec := model.NewPositionRecord(pos, at)
			resp.Position = &rec
		}
	}

	s.persist(ctx, records)
	return resp, nil
}

// persist writes events and the snapshot. The engine has already moved,
// so failures are logged rather than returned.
func (s *Server) persist(ctx context.Context, records []model.LogRecord) {
	if s.sink != nil {
		if err := s.sink.PutLogBatch(ctx, records); err != nil {
			s.logger.Error("store events", zap.Error(err), zap.Uint64("seq", s.seq))
		}
	}
	if s.snapshots != nil {
		if err := s.snapshots.SaveSnapshot(ctx, s.engine.Snapshot()); err != nil {
			s.logger.Error("save snapshot", zap.Error(err), zap.Uint64("seq", s.seq))
		}
	}
}
