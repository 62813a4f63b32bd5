/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and manages
core service dependencies like the database and router.
*/
package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"Primify_V1.0/internal/coach"
	"Primify_V1.0/internal/database"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"
)

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	// db provides access to the database service and connection pool.
	db database.Service

	// coach handles the ask-mira endpoint.
	coach *coach.Handler
}

// NewServer initializes a new Server instance and returns a configured
// *http.Server. It reads configuration from environment variables and sets
// production-ready network timeouts.
func NewServer(db database.Service) *http.Server {
	// Attempt to parse port from environment; fallback to 8080 if not set or invalid.
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil || port == 0 {
		port = 8080
	}

	loc := time.UTC
	if tz := os.Getenv("COACH_TIMEZONE"); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			log.Warn().Str("tz", tz).Err(err).Msg("Unknown COACH_TIMEZONE, falling back to UTC")
			loc = time.UTC
		}
	}

	svc := coach.NewService(db.Queries(), coach.NewGeminiClient(), loc)

	newApp := &Server{
		port:  port,
		db:    db,
		coach: coach.NewHandler(svc),
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", newApp.port),
		Handler:      newApp.RegisterRoutes(), // Injected from routes.go
		IdleTimeout:  time.Minute,             // Time to wait for the next request on keep-alive connections.
		ReadTimeout:  10 * time.Second,        // Maximum duration for reading the entire request.
		WriteTimeout: 30 * time.Second,        // Maximum duration before timing out writes of the response.
	}

	return server
}
