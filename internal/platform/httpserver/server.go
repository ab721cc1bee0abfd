package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	electionservice "payparty/contexts/party/election-service"
	payoutservice "payparty/contexts/party/payout-service"

	"github.com/goccy/go-json"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "payparty/internal/platform/httpserver/docs"
)

type Server struct {
	mux       *http.ServeMux
	server    *http.Server
	logger    *slog.Logger
	addr      string
	elections electionservice.Module
	payouts   payoutservice.Module
}

func New(
	elections electionservice.Module,
	payouts payoutservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		elections: elections,
		payouts:   payouts,
	}
	s.registerRoutes()
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /party/elections", s.handleCreateElection)
	s.mux.HandleFunc("GET /party/elections", s.handleListElections)
	s.mux.HandleFunc("GET /party/elections/{election_id}", s.handleGetElection)
	s.mux.HandleFunc("POST /party/elections/{election_id}/close", s.handleCloseElection)
	s.mux.HandleFunc("POST /party/elections/{election_id}/ballots", s.handleCastBallot)
	s.mux.HandleFunc("GET /party/elections/{election_id}/scores", s.handleCandidateScores)
	s.mux.HandleFunc("GET /party/elections/{election_id}/payout", s.handleFinalPayout)
	s.mux.HandleFunc("GET /party/elections/{election_id}/voters/{voter}", s.handleHasVoted)

	s.mux.HandleFunc("POST /party/elections/{election_id}/distribute", s.handleDistribute)
	s.mux.HandleFunc("GET /party/elections/{election_id}/distributions", s.handleListDistributions)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeElectionError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
