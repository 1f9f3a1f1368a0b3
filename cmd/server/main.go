/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the insurance analytics server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store and migrate schema
  3. Build the report engine, statistics tools and assistant
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: insurance.db)
           Use ":memory:" for in-memory database
  -model   Gemini model for the assistant (default: gemini-2.5-flash)

ENVIRONMENT:
  GEMINI_API_KEY   Assistant credentials. When unset, the server runs
                   without the assistant and /api/chat returns 503.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/insight-engine/analytics"
	"github.com/warp/insight-engine/api"
	"github.com/warp/insight-engine/assistant"
	"github.com/warp/insight-engine/logging"
	"github.com/warp/insight-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "insurance.db", "SQLite database path")
	model := flag.String("model", assistant.DefaultModel, "Gemini model for the assistant")
	flag.Parse()

	log := logging.New()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	engine := analytics.NewEngine(store.DB())

	// Assistant is optional: without credentials the API runs with
	// the chat endpoint disabled.
	var agent *assistant.Agent
	if os.Getenv("GEMINI_API_KEY") != "" {
		tools := assistant.NewToolSet(store.DB(), log)
		agent, err = assistant.NewAgent(context.Background(), tools, *model, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize assistant")
		}
		log.Info().Str("model", *model).Msg("assistant enabled")
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set; assistant disabled")
	}

	// Wire handler and router
	handler := api.NewHandler(store, engine, agent, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // exports can be large
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", *port).Str("db", *dbPath).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
