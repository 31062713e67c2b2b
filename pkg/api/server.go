package api

import (
	"net/http"
	"time"
)

// ServerConfig configures middleware construction for NewServer.
type ServerConfig struct {
	CORSOrigins      []string
	RateLimitRPS     float64
	RateLimitBurst   int
	IdempotencyTTL   time.Duration
}

// NewServer builds the root http.Handler: a ServeMux routing warden's
// three endpoints, wrapped in request-id, CORS, rate-limiting, and
// idempotency middleware (spec.md §6; teacher idiom:
// apps/helm-node/main.go's plain net/http.ServeMux plus
// core/pkg/auth/{requestid,cors}.go and core/pkg/api/idempotency.go).
func NewServer(h *Handlers, cfg ServerConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/policies/ingest", h.IngestPolicy)
	mux.HandleFunc("/api/compliance/check", h.ComplianceCheck)
	mux.HandleFunc("/health", h.Health)

	limiter := NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	idempotency := NewIdempotencyStore(cfg.IdempotencyTTL)

	var handler http.Handler = mux
	handler = IdempotencyMiddleware(idempotency)(handler)
	handler = limiter.Middleware(handler)
	handler = CORSMiddleware(cfg.CORSOrigins)(handler)
	handler = RequestIDMiddleware(handler)
	return handler
}
