package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/curbz/planeguess/internal/config"
	"github.com/curbz/planeguess/internal/game"
	"github.com/curbz/planeguess/internal/hub"
	"github.com/curbz/planeguess/internal/metrics"
	"github.com/curbz/planeguess/internal/protocol"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Server translates websocket messages into engine commands and serves the
// small HTTP API next to it.
type Server struct {
	cfg      config.ServerConfig
	viewer   config.ViewerConfig
	engine   game.EngineInterface
	hub      *hub.Hub
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
	router   chi.Router
	nextID   atomic.Int64
	baseCtx  context.Context
}

func New(cfg config.ServerConfig, viewer config.ViewerConfig, engine game.EngineInterface, h *hub.Hub, m *metrics.Metrics, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.WSPath == "" {
		cfg.WSPath = "/ws"
	}
	s := &Server{
		cfg:     cfg,
		viewer:  viewer,
		engine:  engine,
		hub:     h,
		metrics: m,
		log:     log.WithField("component", "gateway"),
		baseCtx: context.Background(),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(cfg.WSPath, s.handleWS)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/api/leaderboard", s.handleLeaderboard)
	r.Get("/api/snapshot", s.handleSnapshot)
	s.router = r

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// and closes every open viewer.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.baseCtx = ctx
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s (websocket %s)", srv.Addr, s.cfg.WSPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins, r.Header.Get("Origin"))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	enc, err := protocol.ParseEncoding(q.Get("encoding"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	acks, _ := strconv.ParseBool(q.Get("acks"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade error: %v", err)
		return
	}

	id := fmt.Sprintf("v%d", s.nextID.Add(1))
	v := newViewer(id, conn, enc, acks, s.viewer, s.log, s.metrics)

	ctx, cancel := context.WithCancel(s.baseCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, v.close)
	defer stop()

	go v.writePump()

	s.metrics.ViewerConnected()
	v.log.WithFields(logrus.Fields{"encoding": enc, "acks": acks}).Info("viewer connected")
	defer func() {
		s.hub.Remove(id)
		v.close()
		s.metrics.ViewerDisconnected()
		v.log.Info("viewer disconnected")
	}()

	if err := s.engine.Subscribe(ctx, v); err != nil {
		v.log.Warnf("subscribe: %v", err)
		return
	}

	s.readPump(ctx, v)
}

// readPump decodes inbound frames and hands them to the engine one at a time
// until the connection fails.
func (s *Server) readPump(ctx context.Context, v *Viewer) {
	v.conn.SetReadLimit(s.viewer.MaxMessageBytes)
	_ = v.conn.SetReadDeadline(time.Now().Add(s.viewer.PongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(s.viewer.PongWait))
	})

	for {
		mt, data, err := v.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				v.log.Debugf("read: %v", err)
			}
			return
		}

		enc := protocol.JSON
		if mt == websocket.BinaryMessage {
			enc = protocol.MsgPack
		}
		cmd, err := protocol.DecodeCommand(enc, data)
		if err != nil {
			v.log.Debugf("dropping message: %v", err)
			v.replyError(protocol.CodeInvalidCommand, game.ErrInvalidCommand)
			continue
		}

		if !v.limiter.Allow() {
			s.metrics.IncrementCommandsRateLimited()
			v.replyError(protocol.CodeRateLimited, errRateLimited)
			continue
		}

		if err := s.processCommand(ctx, v, cmd); err != nil {
			if ctx.Err() != nil {
				return
			}
			v.replyError(errorCode(err), err)
		}
	}
}

var errRateLimited = errors.New("too many commands")

func (s *Server) processCommand(ctx context.Context, v *Viewer, cmd protocol.Command) error {
	switch cmd.Type {
	case protocol.MsgGuess:
		res, err := s.engine.Guess(ctx, game.Guess{Player: cmd.Player, AircraftID: cmd.PlaneID, Airport: cmd.Airport})
		if err != nil {
			return err
		}
		v.reply(protocol.NewGuessResult(res.AircraftID, res.Correct, res.Points, res.Score))
		return nil
	case protocol.MsgToggleGameMode:
		mode, err := s.engine.Toggle(ctx)
		if err == nil {
			v.log.Infof("toggled game mode to %s", mode)
		}
		return err
	case protocol.MsgStartGame:
		return s.engine.Start(ctx)
	case protocol.MsgStopGame:
		return s.engine.Stop(ctx)
	}
	return game.ErrInvalidCommand
}

// errorCode maps engine errors to the codes sent to viewers.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrUnknownAircraft):
		return protocol.CodeUnknownAircraft
	case errors.Is(err, game.ErrAlreadyResolved):
		return protocol.CodeAlreadyResolved
	case errors.Is(err, game.ErrInvalidCommand):
		return protocol.CodeInvalidCommand
	case errors.Is(err, game.ErrAlreadyRunning):
		return protocol.CodeAlreadyRunning
	case errors.Is(err, game.ErrNotRunning):
		return protocol.CodeNotRunning
	case errors.Is(err, errRateLimited):
		return protocol.CodeRateLimited
	}
	return protocol.CodeInternal
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"viewers":   s.hub.Len(),
		"timestamp": time.Now().Unix(),
		"uptime":    s.metrics.GetUptime().String(),
	}
	_ = writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, s.metrics.GetSnapshot())
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	leaders, err := s.engine.Leaderboard(r.Context())
	if err != nil {
		s.log.Errorf("leaderboard: %v", err)
		http.Error(w, "leaderboard unavailable", http.StatusServiceUnavailable)
		return
	}
	_ = writeJSON(w, http.StatusOK, map[string]interface{}{"leaders": leaders})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Snapshot(r.Context())
	if err != nil {
		s.log.Errorf("snapshot: %v", err)
		http.Error(w, "snapshot unavailable", http.StatusServiceUnavailable)
		return
	}
	_ = writeJSON(w, http.StatusOK, snap)
}
