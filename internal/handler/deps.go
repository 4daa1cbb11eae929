package handler

import (
	"golang.org/x/time/rate"

	"campushub/internal/app/chat"
	"campushub/internal/app/storage"
	"campushub/internal/configs"
	"campushub/internal/pkg/limiter"
)

// AppDeps groups everything the HTTP layer needs.
type AppDeps struct {
	Hub    *chat.Hub
	Chat   *chat.Service
	Config *configs.AppConfig

	// StorageService is nil when attachments are not configured.
	StorageService storage.StorageService

	Limiters *RateLimiters
}

// Rate limits applied by the Router.
const (
	SendRate     = 2
	SendBurst    = 10
	ConnectRate  = 0.2
	ConnectBurst = 5
)

// RateLimiters holds the per-IP limiters of the HTTP layer. Their sweepers run
// until Stop is called.
type RateLimiters struct {
	Send    *limiter.IPRateLimiter
	Connect *limiter.IPRateLimiter
}

// NewRateLimiters creates the limiters for POST /api/chat/send and WebSocket upgrades.
func NewRateLimiters() *RateLimiters {
	return &RateLimiters{
		Send:    limiter.NewIPRateLimiter(rate.Limit(SendRate), SendBurst),
		Connect: limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst),
	}
}

// Stop ends the sweepers of both limiters.
func (l *RateLimiters) Stop() {
	l.Send.Stop()
	l.Connect.Stop()
}
