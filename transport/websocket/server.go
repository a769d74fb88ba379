package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/HyPolar/tic-tac-toe-backend/internal/entity"
	"github.com/HyPolar/tic-tac-toe-backend/internal/service"
)

type matchmaker interface {
	OnParticipantReady(ctx context.Context, participant *entity.Participant, channel service.ParticipantChannel, tier int64) (*service.MatchSession, error)
	OnParticipantLeft(participantID string)
}

type Server struct {
	logger     *slog.Logger
	matchmaker matchmaker
	upgrader   websocket.Upgrader
}

func New(logger *slog.Logger, mm matchmaker) *Server {
	return &Server{
		logger:     logger.With("component", "websocket"),
		matchmaker: mm,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Start - starts the WebSocket server and shuts it down with the context.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.handleConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 0, // connections are long-lived
		IdleTimeout: 0,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) handleConnection(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "handleConnection")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(conn)
	defer client.close()

	log.Info("WebSocket connection established", "remote", req.RemoteAddr)

	if err := that.handleMessages(ctx, client); err != nil {
		log.Info("connection closed", "error", err)
	}

	if client.participantID != "" {
		that.matchmaker.OnParticipantLeft(client.participantID)
	}
}

// handleMessages - processes messages from the client until the channel drops.
func (that *Server) handleMessages(ctx context.Context, client *client) error {
	for {
		_, reqBody, err := client.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			that.logger.Warn("failed to unmarshal message", "error", err)
			continue
		}

		if err = that.dispatch(ctx, client, &message); err != nil {
			return err
		}
	}
}

// client wraps one connection; it is the ParticipantChannel the match
// notifies. Writes are serialized because match timers and the read loop
// notify concurrently.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn

	participantID string
	session       *service.MatchSession
}

func newClient(conn *websocket.Conn) *client {
	return &client{conn: conn}
}

// inActiveMatch reports whether the connection is bound to a match that is
// still in flight. A finished match releases the connection for another join.
func (that *client) inActiveMatch() bool {
	return that.session != nil && !that.session.IsFinished()
}

func (that *client) Notify(event string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := Message{
		Action:  event,
		Payload: body,
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if err = that.conn.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *client) close() {
	_ = that.conn.Close()
}
