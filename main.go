package main

//go:generate swag init

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/bayarwoi/wallet/auth"
	"github.com/bayarwoi/wallet/db"
	_ "github.com/bayarwoi/wallet/docs"
	"github.com/bayarwoi/wallet/handlers"
	"github.com/bayarwoi/wallet/ledger"
	"github.com/bayarwoi/wallet/realtime"
	"github.com/bayarwoi/wallet/store/memory"
	"github.com/bayarwoi/wallet/store/postgres"
)

// @title           BayarWoi Wallet API
// @version         1.0.0
// @description     API for managing wallet accounts, transactions, and transfers with live change notifications.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization

type userStore interface {
	ledger.Store
	auth.UserStore
}

func main() {
	// Configure structured logging
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	hub := realtime.NewHub()

	// Pick the store backend
	var store userStore
	if os.Getenv("DB_BACKEND") == "memory" {
		slog.Warn("using in-memory store, data is not persisted")
		store = memory.New(hub)
	} else {
		database, err := db.Open()
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer database.Close()

		if err := db.Migrate(database); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		store = postgres.New(database, hub)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		slog.Warn("JWT_SECRET not set, using an insecure default")
		secret = "insecure-dev-secret"
	}

	sessions := auth.NewSessions()
	api := &handlers.API{
		Ledger:   ledger.NewService(store),
		Auth:     auth.NewManager([]byte(secret), store, sessions),
		Sessions: sessions,
		Hub:      hub,
	}

	// Router setup
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", api.Register)
		r.Post("/auth/login", api.Login)

		r.Group(func(r chi.Router) {
			r.Use(api.RequireAuth)

			r.Post("/auth/logout", api.Logout)
			r.Post("/auth/refresh", api.Refresh)
			r.Get("/auth/me", api.Me)

			// Accounts
			r.Get("/accounts", api.ListAccounts)
			r.Post("/accounts", api.CreateAccount)
			r.Get("/accounts/{id}", api.GetAccount)
			r.Put("/accounts/{id}", api.UpdateAccount)
			r.Delete("/accounts/{id}", api.ArchiveAccount)

			// Transactions
			r.Get("/transactions", api.ListTransactions)
			r.Post("/transactions", api.CreateTransaction)
			r.Get("/transactions/{id}", api.GetTransaction)
			r.Put("/transactions/{id}", api.UpdateTransaction)
			r.Delete("/transactions/{id}", api.DeleteTransaction)

			// Transfers
			r.Post("/transfers", api.CreateTransfer)

			// Dashboard
			r.Get("/dashboard", api.GetDashboard)

			// Change notifications
			r.Get("/stream/{entity}", api.StreamChanges)
		})
	})

	// Swagger UI
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := fmt.Sprintf(":%s", port)
	slog.Info("server starting", "address", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
