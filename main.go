package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// sweepInterval is how often idle chat sessions are reclaimed.
const sweepInterval = 5 * time.Minute

func main() {
	// Load environment variables from .env if it exists
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using system environment variables instead.")
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	pool := getDBPool(cfg.dbURL)
	defer pool.Close()

	sessions := newSessionStore(cfg.sessionIdleTimeout)
	h := &Handler{
		store:    &pgxStore{pool: pool},
		advisor:  newGeminiClient(cfg.geminiAPIKey, cfg.geminiBaseURL),
		sessions: sessions,
		verifier: hs256Verifier{secret: []byte(cfg.secretKey)},
	}

	router := gin.Default()
	router.SetTrustedProxies(nil)

	if cfg.frontendURL != "" {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     []string{cfg.frontendURL},
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	h.registerRoutes(router)

	// Reclaim idle chat sessions in the background to bound memory growth.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := sessions.sweep(); n > 0 {
					log.Printf("[sessions] reclaimed %d idle session(s)", n)
				}
			case <-stop:
				return
			}
		}
	}()

	log.Printf("StressEase backend listening on :%s", cfg.port)
	if err := router.Run(":" + cfg.port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
