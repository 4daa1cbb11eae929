/*
Package handler provides the HTTP handlers and routing setup for the CampusHub chat server.

This file defines the main Router, applying necessary middleware like logging, CORS,
identity extraction and IP-based rate limiting before delegating requests to specific
handlers (chat API, attachments and WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"campushub/internal/pkg/auth/jwt"
	"campushub/internal/pkg/errs"
	"campushub/internal/pkg/logx"
	"campushub/internal/pkg/resp"
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It applies the rate limiters from deps, configures CORS, and sets global and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
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
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		stats, err := deps.Hub.Stats(r.Context())
		if err != nil {
			resp.RespondError(w, r, errs.From(err))
			return
		}

		resp.RespondSuccess(w, r, http.StatusOK, resp.Fields{
			"status":  "ok",
			"service": "CampusHub Chat",
			"gateway": stats,
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))

		r.Route("/api/chat", func(api chi.Router) {
			api.Use(jwt.RequireIdentity)

			api.Get("/conversations", HandleGetConversations(deps))
			api.Get("/history/{otherUserId}", HandleGetHistory(deps))
			api.With(deps.Limiters.Send.Middleware).Post("/send", HandleSendMessage(deps))

			api.Post("/attachments/presign", HandlePresignUploadURL(deps))
			api.Get("/attachments", HandlePresignDownloadURL(deps))
		})

		r.Get("/ws", HandleWebSocket(deps, wsUpgrader, deps.Limiters.Connect))
	})

	return r
}
