package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"

	"github.com/sproutvest/trade-core/internal/guardrail"
	"github.com/sproutvest/trade-core/internal/metrics"
	"github.com/sproutvest/trade-core/internal/model"
	"github.com/sproutvest/trade-core/internal/quote"
	"github.com/sproutvest/trade-core/internal/store"
	"github.com/sproutvest/trade-core/internal/trade"
	"github.com/sproutvest/trade-core/internal/watchlist"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
			opt, err := redis.ParseURL(redisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, 30*time.Second)
			slog.Info("Redis cache enabled")
		}
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Quote source ---
	// Static dev quotes until a real market-data feed is wired in.
	quoteTTL := 5 * time.Second
	if v := os.Getenv("QUOTE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Error("invalid QUOTE_TTL", "err", err)
			os.Exit(1)
		}
		quoteTTL = d
	}
	quotes := quote.NewCachedSource(quote.NewDevSource(), quoteTTL)

	// --- Risk caps ---
	var limiter *guardrail.Limiter
	maxQty, _ := strconv.ParseInt(os.Getenv("MAX_POSITION_QTY"), 10, 64)
	var maxNotional decimal.Decimal
	if v := os.Getenv("MAX_ORDER_NOTIONAL"); v != "" {
		n, err := decimal.NewFromString(v)
		if err != nil {
			slog.Error("invalid MAX_ORDER_NOTIONAL", "err", err)
			os.Exit(1)
		}
		maxNotional = n
	}
	if maxQty > 0 || maxNotional.IsPositive() {
		limiter = guardrail.NewLimiter(maxQty, maxNotional)
		slog.Info("risk caps enabled", "max_position_qty", maxQty, "max_order_notional", maxNotional.String())
	}

	// --- Optional demo account for local development ---
	if os.Getenv("SEED_DEMO_ACCOUNT") == "1" {
		seedDemoAccount(st)
	}

	// --- WebSocket hub ---
	wsHub := trade.NewWSHub()
	go wsHub.Run()

	// --- Services ---
	tradeSvc := trade.NewService(st, quotes, limiter, wsHub)
	watchlistMgr := watchlist.NewManager(st)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS for the mobile web frontend.
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"trade-core"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for real-time order fills.
		r.Get("/ws", wsHub.HandleWS)

		// Order execution and history.
		r.Post("/trade/buy", tradeSvc.HandleBuy)
		r.Post("/trade/sell", tradeSvc.HandleSell)
		r.Get("/orders/{userID}", tradeSvc.HandleOrders)

		// Portfolio queries.
		r.Get("/positions/{userID}", tradeSvc.HandlePositions)
		r.Get("/account/{userID}", tradeSvc.HandleAccount)

		// Quotes.
		r.Get("/quote/{symbol}", tradeSvc.HandleQuote)
		r.Post("/quotes", tradeSvc.HandleQuotes)

		// Watchlist.
		r.Get("/watchlist/{userID}", watchlistMgr.HandleList)
		r.Post("/watchlist/{userID}", watchlistMgr.HandleAdd)
		r.Delete("/watchlist/{userID}/{symbol}", watchlistMgr.HandleRemove)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("trade-core listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down trade-core...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("trade-core stopped")
}

// seedDemoAccount funds the demo user used by the local frontend.
// Safe to call repeatedly: creation fails silently once the account
// exists.
func seedDemoAccount(st store.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	acct := &model.Account{
		UserID:    "demo",
		Cash:      decimal.NewFromInt(200000),
		UpdatedAt: time.Now(),
	}
	if err := st.CreateAccount(ctx, acct); err != nil {
		slog.Info("demo account already seeded")
		return
	}
	slog.Info("demo account seeded", "user_id", "demo", "cash", acct.Cash.String())
}
