// Package app wires the server process together: configuration, logging,
// the room manager, and the HTTP surface that upgrades websockets. It owns
// the piece the simulation core treats as external — resolving a room code
// and identity and handing the room a live duplex stream.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"flag-rush/internal/config"
	"flag-rush/internal/room"
	"flag-rush/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Run starts the server and blocks until ctx is done or a signal arrives.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := newLogger(cfg)
	manager := room.NewManager(log)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handleWS(manager, log))
	mux.HandleFunc("/rooms", handleRooms(manager))

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-stop:
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	manager.Shutdown()
	return nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.LogPretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// handleWS resolves room and identity, upgrades, and wires the session to
// the room actor. Identity is caller-supplied and stable across reconnects;
// absent one, the server mints a throwaway guest identity.
func handleWS(manager *room.Manager, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("room")))
		if code == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}
		identity := strings.TrimSpace(r.URL.Query().Get("id"))
		if identity == "" {
			identity = "guest-" + uuid.NewString()
		}
		nickname := r.URL.Query().Get("name")

		rm := manager.GetOrCreate(code)
		if rm == nil {
			http.Error(w, "invalid room code", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug().Err(err).Msg("websocket upgrade failed")
			return
		}

		session := ws.NewSession(identity, conn, log)
		rm.Inbox <- room.Join{ID: identity, Nickname: nickname, Conn: session}
		go session.ReadPump(rm)
	}
}

func handleRooms(manager *room.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			code := manager.Create()
			_ = json.NewEncoder(w).Encode(map[string]string{"code": code})
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(manager.List())
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
