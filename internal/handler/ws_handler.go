/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting, upgrading
the HTTP connection to WebSocket, and handing the connection over to the chat Hub.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"campushub/internal/app/chat"
	"campushub/internal/pkg/auth/jwt"
	"campushub/internal/pkg/errs"
	"campushub/internal/pkg/limiter"
	"campushub/internal/pkg/logx"
	"campushub/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// A token (header or ?token=) is required outside development, and user:join must name
// the user it was issued to.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := logx.Ctx(r.Context())

		if !rateLimiter.Allow(r) {
			logger.Warn().Msg("WebSocket connection rejected: Rate limit exceeded.")
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		verifiedID := ""
		if payload := jwt.GetPayloadFromContext(r); payload != nil {
			verifiedID = payload.ID
		}

		if verifiedID == "" && !deps.Config.IsDevelopment() {
			logger.Warn().Msg("WebSocket connection rejected: Missing or invalid token.")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Hub, conn, verifiedID)
		if !deps.Hub.Register(client) {
			logger.Warn().Msg("WebSocket connection dropped: Hub is shutting down.")
			conn.Close()
			return
		}

		go client.WritePump()

		logger.Info().Str("verified_id", verifiedID).Msg("WebSocket connection established and client registered")

		client.ReadPump()
	}
}
