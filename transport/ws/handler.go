package ws

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 16 * 1024
	wildcardOrigin = "*"
)

// Relay is the part of the reactor the transport talks to.
type Relay interface {
	Submit(ctx context.Context, conn *runtime.Connection, cmd domain.Command) error
}

// Handler authenticates the handshake, upgrades it and pumps frames between the socket and the relay.
// ctx is the server lifetime: connections outlive the handshake request.
type Handler struct {
	ctx        context.Context
	log        *slog.Logger
	verifier   contract.ICredentialVerifier
	users      repositories.IUserRepository
	relay      Relay
	bufferSize int
	upgrader   websocket.Upgrader
}

func NewHandler(ctx context.Context, log *slog.Logger, verifier contract.ICredentialVerifier,
	users repositories.IUserRepository, relay Relay, bufferSize int, allowedOrigin string) *Handler {
	return &Handler{
		ctx:        ctx,
		log:        log,
		verifier:   verifier,
		users:      users,
		relay:      relay,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigin),
		},
	}
}

func checkOrigin(allowed string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if allowed == "" || allowed == wildcardOrigin {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || origin == allowed
	}
}

// ServeHTTP refuses the handshake with 401 before any upgrade when the credential does not verify.
// Nothing is registered for a refused handshake.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.Authenticate(h.verifier, r)
	if err != nil {
		h.log.Debug("Handshake refused", "error", err, "remote", r.RemoteAddr)
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetUserByID(userID)
	if stderrors.Is(err, errors.ErrUserNotFound) {
		h.log.Debug("Handshake refused, account is gone", "user_id", userID)
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.log.Error("Unable to load account", "user_id", userID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already answered the client
		h.log.Debug("Upgrade failed", "user_id", userID, "error", err)
		return
	}

	conn := runtime.NewConnection(userID, h.bufferSize, h.log)
	if err := h.relay.Submit(h.ctx, conn, domain.ConnectCommand{Username: user.Username}); err != nil {
		h.log.Warn("Relay refused the connection", "user_id", userID, "error", err)
		_ = socket.Close()
		return
	}
	h.log.Info("Connection opened", "user_id", userID, "connection_id", conn.ID)

	go h.writeLoop(socket, conn)
	h.readLoop(socket, conn)

	if err := h.relay.Submit(h.ctx, conn, domain.DisconnectCommand{}); err != nil {
		h.log.Debug("Disconnect not delivered", "connection_id", conn.ID, "error", err)
	}
	h.log.Info("Connection closed", "user_id", userID, "connection_id", conn.ID)
}

// readLoop submits every decoded frame in arrival order. It returns when the socket fails.
// Bad frames are skipped, not fatal.
func (h *Handler) readLoop(socket *websocket.Conn, conn *runtime.Connection) {
	socket.SetReadLimit(maxFrameSize)
	_ = socket.SetReadDeadline(time.Now().Add(pongWait))
	socket.SetPongHandler(func(string) error {
		return socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("Socket read failed", "connection_id", conn.ID, "error", err)
			}
			return
		}

		cmd, err := Decode(raw)
		if err != nil {
			h.log.Debug("Frame skipped", "connection_id", conn.ID, "error", err)
			continue
		}
		if err := h.relay.Submit(h.ctx, conn, cmd); err != nil {
			h.log.Warn("Relay stopped while reading", "connection_id", conn.ID, "error", err)
			return
		}
	}
}

// writeLoop is the only writer of the socket. It stops when the relay closes the connection
// or when the server shuts down, and closes the socket on its way out.
func (h *Handler) writeLoop(socket *websocket.Conn, conn *runtime.Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = socket.Close()
	}()

	for {
		select {
		case e, ok := <-conn.Events():
			_ = socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			data, err := Encode(e)
			if err != nil {
				h.log.Error("Event could not be encoded", "event", e.Type, "error", err)
				continue
			}
			if err := socket.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.Debug("Socket write failed", "connection_id", conn.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-h.ctx.Done():
			_ = socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}
