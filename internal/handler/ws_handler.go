/*
Package handler provides the HTTP handlers and routing setup for the relay.

This file contains the WebSocket upgrade handler. A connection needs no
parameters: the hub assigns the session identity at registration time.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"quickdrop/internal/app/chat"
	"quickdrop/internal/pkg/errs"
	"quickdrop/internal/pkg/limiter"
	"quickdrop/internal/pkg/logx"
	"quickdrop/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc that upgrades the connection,
// registers the client with the hub, and runs the connection pumps.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Hub, conn, r.RemoteAddr)

		go client.WritePump()

		deps.Hub.Register(client)

		client.ReadPump()
	}
}
