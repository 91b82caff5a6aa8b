// File: internal/handlers/router.go
package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/iyunix/go-medreport/internal/middleware"
	"github.com/iyunix/go-medreport/internal/ratelimit"
)

type RouterOptions struct {
	// JWTSecret enables bearer authentication on every API route when set.
	JWTSecret      []byte
	AllowedOrigins []string
	// Limiter guards upload and chat; nil disables rate limiting.
	Limiter *ratelimit.MemoryRateLimiter
}

// NewRouter wires every route. /report/search is registered ahead of
// /report/{report_id} so the literal path wins. CORS wraps the router so
// preflight requests are answered before route matching.
func NewRouter(reports *ReportHandler, chats *ChatHandler, health *HealthHandler, opts RouterOptions, logger Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))

	r.HandleFunc("/health", health.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/").Subrouter()
	if len(opts.JWTSecret) > 0 {
		api.Use(middleware.NewJWTMiddleware(opts.JWTSecret, logger))
	}

	limited := func(name string, h http.HandlerFunc) http.Handler {
		if opts.Limiter == nil {
			return h
		}
		return middleware.RateLimitMiddleware(opts.Limiter, name, logger)(h)
	}

	// Report routes
	api.Handle("/report/upload", limited("upload", reports.Upload)).Methods(http.MethodPost)
	api.HandleFunc("/report/search", reports.Search).Methods(http.MethodGet)
	api.Handle("/report/chat", limited("chat", chats.HandleStatelessChat)).Methods(http.MethodPost)
	api.HandleFunc("/report", reports.List).Methods(http.MethodGet)
	api.HandleFunc("/report/{report_id}", reports.Get).Methods(http.MethodGet)
	api.HandleFunc("/report/{report_id}", reports.Delete).Methods(http.MethodDelete)

	// Chat routes
	api.Handle("/chat", limited("chat", chats.HandleChatMessage)).Methods(http.MethodPost)
	api.HandleFunc("/chat", chats.GetUserChats).Methods(http.MethodGet)
	api.HandleFunc("/chat/create", chats.CreateChat).Methods(http.MethodPost)
	api.HandleFunc("/chat/{chat_id}", chats.GetChatMessages).Methods(http.MethodGet)
	api.HandleFunc("/chat/{chat_id}", chats.DeleteChat).Methods(http.MethodDelete)

	return middleware.NewCORSMiddleware(opts.AllowedOrigins)(r)
}
