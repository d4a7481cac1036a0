package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"foundry/internal/config"
	"foundry/internal/sim"
	"foundry/internal/store"
)

// ErrTurnInFlight rejects a turn submitted while another one for the
// same game is still being processed. Turns are strictly serial per
// game; the client retries once the first one lands.
var ErrTurnInFlight = errors.New("another turn is in flight for this game")

type Server struct {
	cfg       config.APIConfig
	log       *slog.Logger
	store     *store.Store
	engine    *sim.Engine
	hub       *Hub
	scenarios map[string]config.Scenario
	mux       *chi.Mux

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(cfg config.APIConfig, logger *slog.Logger, st *store.Store, engine *sim.Engine, scenarios map[string]config.Scenario) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if scenarios == nil {
		scenarios = map[string]config.Scenario{}
	}
	s := &Server{
		cfg:       cfg,
		log:       logger,
		store:     st,
		engine:    engine,
		hub:       NewHub(logger),
		scenarios: scenarios,
		mux:       chi.NewRouter(),
		locks:     map[string]*sync.Mutex{},
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout()))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/scenarios", s.handleScenarios)
		r.Post("/games", s.handleCreateGame)
		r.Get("/games", s.handleListGames)
		r.Get("/games/{id}", s.handleGetGame)
		r.Post("/games/{id}/actions", s.handleSubmitAction)
		r.Get("/games/{id}/history", s.handleHistory)
		r.Get("/games/{id}/watch", s.handleWatch)
	})
}

func (s *Server) requestTimeout() time.Duration {
	if s.cfg.RequestTimeout > 0 {
		return s.cfg.RequestTimeout
	}
	return 30 * time.Second
}

// turnLock hands out the per-game mutex guaranteeing at most one
// in-flight turn per game id.
func (s *Server) turnLock(gameID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[gameID] = l
	}
	return l
}

func (s *Server) handleScenarios(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(s.scenarios))
	for name := range s.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]config.Scenario, 0, len(names))
	for _, name := range names {
		out = append(out, s.scenarios[name])
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenarios": out})
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Scenario string `json:"scenario,omitempty"`
		sim.GameConfig
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := in.GameConfig
	if in.Scenario != "" {
		preset, ok := s.scenarios[in.Scenario]
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown scenario: "+in.Scenario)
			return
		}
		cfg = preset.GameConfig()
		cfg.Name = in.Name
	}

	st, err := sim.NewGame(cfg, time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.store.CreateGame(r.Context(), st); err != nil {
		writeDomainError(w, err)
		return
	}
	s.log.Info("game created", "game_id", st.Metadata.GameID, "name", st.Metadata.Name)
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.store.ListGames(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.GetGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSubmitAction(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")

	var in struct {
		Seed   *int64           `json:"seed,omitempty"`
		Action sim.PlayerAction `json:"action"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	seed := time.Now().UnixNano()
	if in.Seed != nil {
		seed = *in.Seed
	}

	lock := s.turnLock(gameID)
	if !lock.TryLock() {
		writeDomainError(w, ErrTurnInFlight)
		return
	}
	defer lock.Unlock()

	st, err := s.store.GetGame(r.Context(), gameID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	next, status, err := s.engine.ProcessTurn(st, in.Action, sim.NewRand(seed))
	if err != nil {
		s.log.Warn("turn rejected", "game_id", gameID, "status", string(status), "err", err)
		writeDomainError(w, err)
		return
	}
	if err := s.store.SaveTurn(r.Context(), next, in.Action, seed); err != nil {
		writeDomainError(w, err)
		return
	}
	status = sim.TurnPersisted

	s.log.Info("quarter advanced",
		"game_id", gameID,
		"quarter", next.Metadata.CurrentQuarter,
		"revenue", next.Company.Revenue,
		"profit", next.Company.Profit,
		"share", next.Market.PlayerMarketShare)
	s.hub.BroadcastState(gameID, next)

	writeJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"seed":   seed,
		"state":  next,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	turns, err := s.store.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"turns": turns})
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "id")
	if _, err := s.store.GetGame(r.Context(), gameID); err != nil {
		writeDomainError(w, err)
		return
	}
	s.hub.ServeWatch(gameID, w, r)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sim.ErrInvalidAction), errors.Is(err, sim.ErrGameConfig):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrGameNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrQuarterConflict), errors.Is(err, ErrTurnInFlight):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
