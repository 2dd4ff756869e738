// Package server exposes the agent over HTTP plus a websocket event feed
// for background synthesis completions.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/scrypster/reverie/internal/agent"
	"github.com/scrypster/reverie/internal/config"
)

// Start initializes and starts the HTTP server. The caller supplies the
// event hub so it can be wired to synthesis broadcasts before the agent
// exists. Returns the actual listen address, useful with port 0 in tests.
func Start(ctx context.Context, cfg *config.Config, a *agent.Agent, hub *EventHub) (string, error) {
	mux := http.NewServeMux()

	go hub.Run()

	handlers := NewHandlers(a)

	mux.HandleFunc("POST /api/think", handlers.Think)
	mux.HandleFunc("GET /api/search", handlers.Search)
	mux.HandleFunc("GET /api/resurface", handlers.Resurface)
	mux.HandleFunc("POST /api/thoughts/{id}/review", handlers.Review)
	mux.HandleFunc("GET /api/thoughts/{id}/synthesis", handlers.SynthesisStatus)
	mux.HandleFunc("GET /api/briefing", handlers.Briefing)
	mux.HandleFunc("GET /api/stats", handlers.Stats)

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.Handle("/ws", hub)

	rateLimiter := NewRateLimiter(float64(cfg.Server.RateLimit), cfg.Server.RateBurst)
	handler := RateLimitMiddleware(mux, rateLimiter)
	handler = securityHeadersMiddleware(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // oracle round trips are slow
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server: serve error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown error: %v", err)
		}
		hub.Stop()
	}()

	log.Printf("server: listening on %s", actualAddr)
	return actualAddr, nil
}
