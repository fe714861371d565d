// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcmillan1999/sluff-project-sub002/engine"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/bot"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/cache"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/database"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/game"
	"github.com/mmcmillan1999/sluff-project-sub002/internal/models"
	"github.com/sirupsen/logrus"
)

// ActionHistory reads recorded table actions. *cache.Historian implements it.
type ActionHistory interface {
	Recent(ctx context.Context, tableID uuid.UUID, n int64) ([]cache.ActionRecord, error)
}

// RoundArchive reads settled rounds. *database.Store implements it.
type RoundArchive interface {
	RoundsForTable(ctx context.Context, tableID uuid.UUID) ([]database.RoundRecord, error)
}

// Server exposes a game.Registry over HTTP and WebSocket.
type Server struct {
	reg *game.Registry
	log logrus.FieldLogger

	// Optional read models; their routes answer 404 when unset.
	History ActionHistory
	Rounds  RoundArchive

	mu   sync.Mutex
	hubs map[uuid.UUID]*hub

	// WriteTimeout bounds a single WebSocket write.
	WriteTimeout time.Duration
	// OriginPatterns is passed to the WebSocket handshake. Empty allows only
	// same-origin browsers.
	OriginPatterns []string
}

// New creates a Server around reg.
func New(reg *game.Registry, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		reg:          reg,
		log:          log,
		hubs:         make(map[uuid.UUID]*hub),
		WriteTimeout: 5 * time.Second,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tables", s.handleListTables)
	mux.HandleFunc("POST /tables", s.handleCreateTable)
	mux.HandleFunc("GET /tables/{id}", s.handleGetTable)
	mux.HandleFunc("DELETE /tables/{id}", s.handleDeleteTable)
	mux.HandleFunc("POST /tables/{id}/bots", s.handleAddBot)
	mux.HandleFunc("POST /tables/{id}/start", s.handleStartRound)
	mux.HandleFunc("GET /tables/{id}/ws", s.handleWebSocket)
	mux.HandleFunc("GET /tables/{id}/history", s.handleHistory)
	mux.HandleFunc("GET /tables/{id}/rounds", s.handleRounds)
	return mux
}

// hubFor returns the table's hub, creating it on first use.
func (s *Server) hubFor(tbl *game.Table) *hub {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hubs[tbl.ID]
	if !ok {
		h = newHub(tbl, s.log)
		s.hubs[tbl.ID] = h
	}
	return h
}

// createTableRequest optionally overrides registry defaults.
type createTableRequest struct {
	Seed         *uint64 `json:"seed"`
	TurnTimerSec *int    `json:"turnTimerSec"`
	BotTimeoutMS *int    `json:"botTimeoutMs"`
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reg.List())
}

func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	opts := s.reg.Defaults()
	var req createTableRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, fmt.Errorf("%w: %v", engine.ErrInvalidValue, err))
		return
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	if req.TurnTimerSec != nil {
		if *req.TurnTimerSec < 0 {
			writeError(w, fmt.Errorf("%w: turnTimerSec must not be negative", engine.ErrInvalidValue))
			return
		}
		opts.TurnDuration = time.Duration(*req.TurnTimerSec) * time.Second
	}
	if req.BotTimeoutMS != nil {
		if *req.BotTimeoutMS <= 0 {
			writeError(w, fmt.Errorf("%w: botTimeoutMs must be positive", engine.ErrInvalidValue))
			return
		}
		opts.BotTimeout = time.Duration(*req.BotTimeoutMS) * time.Millisecond
	}

	tbl, err := s.reg.Create(opts)
	if err != nil {
		writeError(w, err)
		return
	}
	s.hubFor(tbl)
	writeJSON(w, http.StatusCreated, tbl.Snapshot(uuid.Nil))
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	tbl, ok := s.table(w, r)
	if !ok {
		return
	}
	viewer := uuid.Nil
	if p := r.URL.Query().Get("player"); p != "" {
		id, err := uuid.Parse(p)
		if err != nil {
			writeError(w, fmt.Errorf("%w: player %q", engine.ErrInvalidValue, p))
			return
		}
		viewer = id
	}
	writeJSON(w, http.StatusOK, tbl.Snapshot(viewer))
}

func (s *Server) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	tbl, ok := s.table(w, r)
	if !ok {
		return
	}
	s.reg.Remove(tbl.ID)
	s.mu.Lock()
	delete(s.hubs, tbl.ID)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// handleAddBot seats a server-side random bot.
func (s *Server) handleAddBot(w http.ResponseWriter, r *http.Request) {
	tbl, ok := s.table(w, r)
	if !ok {
		return
	}
	s.hubFor(tbl)
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "Bot"
	}
	p := models.NewPlayer(uuid.New(), name, true)
	if err := tbl.Seat(p, bot.NewRandom(uint64(time.Now().UnixNano()))); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	tbl, ok := s.table(w, r)
	if !ok {
		return
	}
	s.hubFor(tbl)
	if err := tbl.StartRound(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tbl.Snapshot(uuid.Nil))
}

// defaultHistory is how many actions /history returns without ?n=.
const defaultHistory = 100

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		writeError(w, fmt.Errorf("%w: action history disabled", engine.ErrNotFound))
		return
	}
	tbl, ok := s.table(w, r)
	if !ok {
		return
	}
	n := int64(defaultHistory)
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed <= 0 {
			writeError(w, fmt.Errorf("%w: n %q", engine.ErrInvalidValue, v))
			return
		}
		n = parsed
	}
	recs, err := s.History.Recent(r.Context(), tbl.ID, n)
	if err != nil {
		s.log.WithError(err).WithField("table", tbl.ID).Warn("reading history failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleRounds(w http.ResponseWriter, r *http.Request) {
	if s.Rounds == nil {
		writeError(w, fmt.Errorf("%w: analytics disabled", engine.ErrNotFound))
		return
	}
	tbl, ok := s.table(w, r)
	if !ok {
		return
	}
	rounds, err := s.Rounds.RoundsForTable(r.Context(), tbl.ID)
	if err != nil {
		s.log.WithError(err).WithField("table", tbl.ID).Warn("reading rounds failed")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rounds)
}

// table resolves the {id} path value, writing the error response if it fails.
func (s *Server) table(w http.ResponseWriter, r *http.Request) (*game.Table, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: table id %q", engine.ErrInvalidValue, r.PathValue("id")))
		return nil, false
	}
	tbl, err := s.reg.Get(id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return tbl, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), ErrorPayload{Code: game.ErrorCode(err), Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrIllegalAction):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}
