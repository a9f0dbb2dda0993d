package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garnizeh/mentorhub/internal/config"
	"github.com/garnizeh/mentorhub/internal/db"
	"github.com/garnizeh/mentorhub/internal/mentorship"
	"github.com/garnizeh/mentorhub/internal/notify"
	"github.com/garnizeh/mentorhub/internal/repository/sqlite"
	"github.com/garnizeh/mentorhub/internal/schema"
)

// SetupRoutes builds the HTTP handler. CORS wraps the router so preflight
// requests are answered before route matching.
func SetupRoutes(cfg *config.Config, version, buildTime string, conn *db.DB, hub *notify.Hub) (http.Handler, error) {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	schemas, err := schema.NewLoader()
	if err != nil {
		return nil, fmt.Errorf("load schemas: %w", err)
	}

	// Repository and services
	repo := sqlite.New(conn, logger)
	svc := mentorship.NewService(repo, hub, logger)

	// Create handlers
	systemHandler := &SystemHandler{Ping: conn.GetConn().PingContext}
	authHandler := NewAuthHandler(repo, schemas, cfg.JWTSecret, cfg.TokenDuration, cfg.BcryptCost)
	mentorshipHandler := NewMentorshipHandler(svc, schemas)
	notificationsHandler := NewNotificationsHandler(svc, hub, cfg.SSE.Heartbeat)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/auth/signin", authHandler.Signin).Methods("POST")

	auth := JWTAuthMiddlewareWithSecret(cfg.JWTSecret, repo)

	// Auth endpoints
	authRoutes := r.PathPrefix("/auth").Subrouter()
	authRoutes.Use(auth)
	authRoutes.HandleFunc("/signout", authHandler.Signout).Methods("POST")

	// Mentorship endpoints
	m := r.PathPrefix("/mentorship").Subrouter()
	m.Use(auth)
	m.HandleFunc("/mentorship", mentorshipHandler.ListMentors).Methods("GET")
	m.HandleFunc("/user-role", mentorshipHandler.UserRole).Methods("GET")
	m.HandleFunc("/request-mentor", mentorshipHandler.RequestMentor).Methods("POST")
	m.HandleFunc("/mentor-requests", mentorshipHandler.PendingRequests).Methods("GET")
	m.HandleFunc("/respond-mentorship", mentorshipHandler.Respond).Methods("POST")
	m.HandleFunc("/{userId}/mentees", mentorshipHandler.Mentees).Methods("GET")
	m.HandleFunc("/{userId}/mentor", mentorshipHandler.Mentor).Methods("GET")

	// Notification endpoints
	n := r.PathPrefix("/notifications").Subrouter()
	n.Use(auth)
	n.HandleFunc("", notificationsHandler.List).Methods("GET")
	n.HandleFunc("/stream", notificationsHandler.Stream).Methods("GET")

	return CORSMiddleware(r), nil
}
