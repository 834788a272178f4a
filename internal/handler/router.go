/*
Package handler provides the HTTP handlers and routing setup for the relay.

This file defines the main Router, applying middleware (request logging, CORS,
IP-based rate limiting) before delegating to the WebSocket and voice handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"quickdrop/internal/pkg/limiter"
	"quickdrop/internal/pkg/logx"
	"quickdrop/internal/pkg/resp"
)

const (
	// ConnectRate limits how often one IP may open a new session.
	ConnectRate  = 0.5
	ConnectBurst = 5

	// VoiceFetchRate limits voice blob downloads per IP.
	VoiceFetchRate  = 2
	VoiceFetchBurst = 10
)

// Router sets up the HTTP routing table for the application. It configures
// CORS and origin checks from the allowed-origins list, permissive in
// development, and applies per-IP rate limits to session opens and voice
// downloads.
func Router(deps *AppDeps) http.Handler {
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)
	voiceLimiter := limiter.NewIPRateLimiter(rate.Limit(VoiceFetchRate), VoiceFetchBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "QuickDrop Relay",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	r.With(voiceLimiter.Middleware).Get("/voices/{key}", HandleVoiceDownload(deps))

	return r
}
