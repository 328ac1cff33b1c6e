package socket

import (
	"context"

	socketio "github.com/googollee/go-socket.io"
	"go.uber.org/zap"
)

// Gateway is the realtime notification channel. Clients connect, register
// with their user id, and receive matchFound / superlikeReceived events in
// their per-user room.
type Gateway struct {
	Server *socketio.Server
	Logger *zap.Logger
}

func userRoom(userID string) string {
	return "user:" + userID
}

// NewGateway builds the Socket.IO server with connection and registration
// handlers wired.
func NewGateway(logger *zap.Logger) *Gateway {
	server := socketio.NewServer(nil)
	g := &Gateway{Server: server, Logger: logger}

	server.OnConnect("/", func(c socketio.Conn) error {
		logger.Debug("socket connected", zap.String("socketId", c.ID()))
		return nil
	})

	server.OnEvent("/", "register", func(c socketio.Conn, userID string) {
		if userID == "" {
			logger.Warn("register without userId", zap.String("socketId", c.ID()))
			return
		}
		c.Join(userRoom(userID))
		logger.Debug("socket registered", zap.String("socketId", c.ID()), zap.String("userId", userID))
	})

	server.OnError("/", func(c socketio.Conn, err error) {
		logger.Warn("socket error", zap.Error(err))
	})

	server.OnDisconnect("/", func(c socketio.Conn, reason string) {
		logger.Debug("socket disconnected", zap.String("socketId", c.ID()), zap.String("reason", reason))
	})

	return g
}

// Serve runs the Socket.IO event loop until Close is called.
func (g *Gateway) Serve() error {
	return g.Server.Serve()
}

func (g *Gateway) Close() error {
	return g.Server.Close()
}

// NotifyMatch pushes a matchFound event to the user's room. An empty room
// means the user is offline; that is not an error for best-effort delivery.
func (g *Gateway) NotifyMatch(_ context.Context, userID, otherUserID string) error {
	delivered := g.Server.BroadcastToRoom("/", userRoom(userID), "matchFound", map[string]string{
		"matchedWith": otherUserID,
	})
	if !delivered {
		g.Logger.Debug("match notification skipped, user offline", zap.String("userId", userID))
	}
	return nil
}

// NotifySuperlike pushes a superlikeReceived event to the target's room.
func (g *Gateway) NotifySuperlike(_ context.Context, targetID, fromUserID string) error {
	delivered := g.Server.BroadcastToRoom("/", userRoom(targetID), "superlikeReceived", map[string]string{
		"fromUserId": fromUserID,
	})
	if !delivered {
		g.Logger.Debug("superlike notification skipped, user offline", zap.String("userId", targetID))
	}
	return nil
}
