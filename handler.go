package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Handler holds the injected collaborators for all route handlers. Every
// external dependency sits behind an interface so tests can swap in
// deterministic fakes.
type Handler struct {
	store    moodStore
	advisor  aiAdvisor
	sessions *sessionStore
	verifier tokenVerifier
}

/* ─── Database helpers ────────────────────────────────────────────────── */

// queryOne runs a query and scans the first row into T using RowToStructByName.
// Logs query and scan errors for debugging (e.g. struct/column mismatches).
func queryOne[T any](ctx context.Context, pool *pgxpool.Pool, sql string, args pgx.NamedArgs) (T, error) {
	rows, err := pool.Query(ctx, sql, args)
	if err != nil {
		log.Printf("[queryOne] Query error: %v", err)
		var zero T
		return zero, err
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil && err != pgx.ErrNoRows {
		log.Printf("[queryOne] Scan error: %v", err)
	}
	return result, err
}

// queryMany runs a query and scans all rows into []T using RowToStructByName.
func queryMany[T any](ctx context.Context, pool *pgxpool.Pool, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := pool.Query(ctx, sql, args)
	if err != nil {
		log.Printf("[queryMany] Query error: %v", err)
		return nil, err
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		log.Printf("[queryMany] Scan error: %v", err)
	}
	return results, err
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// getDBPool creates a connection pool. A pool (not a single conn) because
// managed Postgres providers close idle connections after a few minutes.
func getDBPool(dbURL string) *pgxpool.Pool {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to parse DB URL: %v\n", err)
		os.Exit(1)
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	log.Println("DB pool ready")
	return pool
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	// Public routes
	router.GET("/health", h.health)
	router.GET("/api", h.apiIndex)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.POST("/mood/log", h.logMood)
	api.GET("/mood/history", h.getMoodHistory)
	api.GET("/mood/trends", h.getMoodTrends)
	api.GET("/mood/insights", h.getMoodInsights)
	api.POST("/chat/message", h.sendChatMessage)
	api.POST("/chat/end-session", h.endChatSession)
	api.GET("/chat/crisis-resources", h.getCrisisResources)
}

// health is the liveness endpoint. GET /health (public).
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "StressEase Backend API is running",
	})
}

// apiIndex lists the API groups. GET /api (public).
func (h *Handler) apiIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to StressEase Backend API",
		"version": "1.0.0",
		"endpoints": gin.H{
			"mood": "/api/mood",
			"chat": "/api/chat",
		},
	})
}
