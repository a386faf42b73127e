package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"guestlist/internal/admins"
	"guestlist/internal/admins/admin_api"
	admins_db "guestlist/internal/admins/db"
	"guestlist/internal/auth"
	"guestlist/internal/auth/auth_api"
	"guestlist/internal/config"
	"guestlist/internal/events"
	events_db "guestlist/internal/events/db"
	"guestlist/internal/events/event_api"
	"guestlist/internal/guests"
	guests_db "guestlist/internal/guests/db"
	"guestlist/internal/guests/guest_api"
	"guestlist/internal/logger"
	"guestlist/internal/models"
	"guestlist/internal/users"
	"guestlist/internal/users/db"
	"guestlist/internal/users/user_api"
)

func verifyConnection(cfg *config.Config, logger *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	logger.Info("DATABASE", "✅ PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting Guestlist API initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	if missing := cfg.Validate(); missing != "" {
		logger.Fatal("CONFIG", fmt.Sprintf("%s not set", missing))
	}

	logger.Info("APP", "Verifying database connection")
	bunDB := verifyConnection(cfg, logger)
	defer bunDB.Close()

	eventsDB := &events_db.DB{Bun: bunDB}
	adminsDB := &admins_db.DB{Bun: bunDB}
	usersDB := &db.DB{Bun: bunDB}
	guestsDB := &guests_db.DB{Bun: bunDB}

	authService := auth.NewService(adminsDB, usersDB, cfg)
	eventService := events.NewEventService(eventsDB)
	adminService := admins.NewAdminService(adminsDB, cfg.Auth.AdminUsername)
	userService := users.NewUserService(usersDB, eventsDB)
	guestService := guests.NewGuestService(guestsDB, usersDB, eventsDB, logger, cfg.Frontend.URL)

	authHandler := &auth_api.Handler{AuthService: authService, Logger: logger}
	eventHandler := &event_api.Handler{EventService: eventService, Logger: logger}
	adminHandler := &admin_api.Handler{AdminService: adminService, Logger: logger}
	userHandler := &user_api.Handler{UserService: userService, Logger: logger}
	guestHandler := &guest_api.Handler{GuestService: guestService, Logger: logger}

	mw := auth.NewMiddleware(cfg.Auth.JWTSecret, usersDB, logger)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Frontend.URL},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("API is up!"))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/admin", authHandler.AdminLogin)
		r.Post("/user", authHandler.UserLogin)
	})
	logger.Info("ROUTER", "Auth routes registered under /auth")

	r.Route("/events", func(r chi.Router) {
		r.With(mw.RequireAdmin(models.SuperAdmin)).Post("/", eventHandler.CreateEvent)
		r.With(mw.RequireAdmin(models.EventAdmin)).Get("/", eventHandler.GetEvents)
		r.With(mw.RequireAdmin(models.EventAdmin)).Get("/{id}", eventHandler.GetEvent)
		r.With(mw.RequireAdmin(models.SuperAdmin)).Patch("/{id}", eventHandler.UpdateEvent)
		r.With(mw.RequireAdmin(models.SuperAdmin)).Delete("/{id}", eventHandler.DeleteEvent)
	})
	logger.Info("ROUTER", "Event routes registered under /events")

	r.Route("/admins", func(r chi.Router) {
		r.With(mw.RequireAdmin(models.SuperAdmin)).Post("/", adminHandler.CreateAdmin)
		r.With(mw.RequireAdmin(models.SuperAdmin)).Get("/", adminHandler.GetAdmins)
		r.With(mw.RequireAdmin(models.SuperAdmin)).Get("/{id}", adminHandler.GetAdmin)
		r.With(mw.RequireAdmin(models.EventAdmin)).Patch("/{id}", adminHandler.UpdateAdmin)
		r.With(mw.RequireAdmin(models.SuperAdmin)).Delete("/{id}", adminHandler.DeleteAdmin)
	})
	logger.Info("ROUTER", "Admin routes registered under /admins")

	r.Route("/users", func(r chi.Router) {
		r.With(mw.RequireAdmin(models.EventAdmin)).Post("/excel-import", userHandler.ImportUsersExcel)
		r.With(mw.RequireAdmin(models.EventAdmin)).Post("/", userHandler.CreateUser)
		r.With(mw.RequireAdmin(models.EventAdmin)).Get("/", userHandler.GetUsers)
		r.With(mw.RequireUserOrAdmin(models.EventAdmin)).Get("/{id}", userHandler.GetUser)
		r.With(mw.RequireAdmin(models.EventAdmin)).Patch("/{id}", userHandler.UpdateUser)
		r.With(mw.RequireAdmin(models.EventAdmin)).Delete("/{id}", userHandler.DeleteUser)
	})
	logger.Info("ROUTER", "User routes registered under /users")

	r.Route("/guests", func(r chi.Router) {
		r.With(mw.RequireAdmin(models.EventAdmin)).Get("/excel-export", guestHandler.ExportGuestsExcel)
		r.With(mw.RequireUserOrAdmin(models.EventAdmin)).Post("/", guestHandler.CreateGuest)
		r.With(mw.RequireUserOrAdmin(models.EventAdmin)).Get("/", guestHandler.GetGuests)

		// Public routes, used by the scanner and ticket pages.
		r.Get("/{id}", guestHandler.GetGuestTicket)
		r.Get("/{uuid}/qr", guestHandler.GetGuestQR)

		r.With(mw.RequireUserOrAdmin(models.EventAdmin)).Patch("/{uuid}", guestHandler.UpdateGuest)
		r.With(mw.RequireUserOrAdmin(models.EventAdmin)).Delete("/{uuid}", guestHandler.DeleteGuest)
	})
	logger.Info("ROUTER", "Guest routes registered under /guests")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Guestlist API running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Guestlist API shutdown complete")
	}
}
