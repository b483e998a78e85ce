package web

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/vitos/riskbox/internal/domain"
	"github.com/vitos/riskbox/internal/usecase"
)

// TickSink receives market prices arriving over the replay channel so they
// can be fanned out to both the tool and the paper broker.
type TickSink func(price float64)

type Server struct {
	router  *http.ServeMux
	server  *http.Server
	service *usecase.ToolService
	journal domain.OrderJournal
	ticks   TickSink
	confirm *usecase.ConfirmBridge
	logger  *zap.Logger
}

func NewServer(
	port int,
	service *usecase.ToolService,
	journal domain.OrderJournal,
	ticks TickSink,
	confirm *usecase.ConfirmBridge,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:  http.NewServeMux(),
		service: service,
		journal: journal,
		ticks:   ticks,
		confirm: confirm,
		logger:  logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Render state
	s.router.HandleFunc("GET /state", s.handleState)

	// Order journal
	s.router.HandleFunc("GET /journal", s.handleJournal)

	// Core commands
	s.router.HandleFunc("POST /commands/reset", s.handleReset)
	s.router.HandleFunc("POST /commands/flip", s.handleFlip)
	s.router.HandleFunc("POST /commands/toggle", s.handleToggle)
	s.router.HandleFunc("POST /commands/submit", s.handleSubmit)

	// Pointer/tick/viewport channel
	s.router.HandleFunc("GET /ws", s.handleWS)
}

// Handler exposes the mux for tests and for embedding behind another server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
