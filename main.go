package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Akinaru/event-poll/config"
	"github.com/Akinaru/event-poll/database"
	"github.com/Akinaru/event-poll/handlers"
	"github.com/Akinaru/event-poll/natsserver"
	"github.com/Akinaru/event-poll/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	if cfg.UsesDefaultSecret() {
		log.Println("⚠️ JWT_SECRET not set, signing tokens with the development key")
	}

	// Connect to database
	if err := database.Connect(cfg.DatabaseURL, !cfg.Production()); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
	defer database.Close()

	if cfg.SeedDemoData {
		if err := database.SeedDemoData(); err != nil {
			log.Fatalf("❌ Failed to seed demo data: %v", err)
		}
	}

	handlers.InitAuth(cfg.JWTSecret, cfg.TokenTTL)

	images, err := services.NewImageStore(cfg.ImagesDir)
	if err != nil {
		log.Fatalf("❌ Failed to prepare image store: %v", err)
	}
	handlers.InitImages(images)
	log.Printf("📁 Storing images in: %s", images.Dir())

	// Embedded NATS carries poll activity to the feed hub
	if cfg.FeedNATSPort != 0 {
		natsCfg := natsserver.DefaultConfig()
		natsCfg.Port = cfg.FeedNATSPort
		natsServer, err := natsserver.New(natsCfg)
		if err != nil {
			log.Fatalf("❌ Failed to start NATS server: %v", err)
		}
		defer natsServer.Shutdown()
		log.Printf("📡 Poll feed NATS server started on %s", natsServer.Address())

		feedHub, err := services.NewFeedHub(natsServer.Conn())
		if err != nil {
			log.Fatalf("❌ Failed to start feed hub: %v", err)
		}
		go feedHub.Run()
		defer feedHub.Stop()
		handlers.SetFeedHub(feedHub)
		handlers.SetFeedServer(natsServer)
		handlers.SetEventBus(services.NewEventBus(natsServer))
		log.Println("📺 Feed hub initialized")
	}

	// Setup Gin router
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Location"}
	router.Use(cors.New(corsConfig))

	handlers.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server running on http://localhost:%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Server forced to shutdown: %v", err)
	}
}
