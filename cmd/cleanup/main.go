package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/Akinaru/event-poll/config"
	"github.com/Akinaru/event-poll/database"
	"github.com/Akinaru/event-poll/models"
	"github.com/Akinaru/event-poll/services"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
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
	if cfg.DatabaseURL == "" {
		log.Fatal("❌ DATABASE_URL is empty; nothing to clean up")
	}

	// Connect to database
	if err := database.Connect(cfg.DatabaseURL, false); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	fmt.Println("Start cleanup...")

	var imageNames []string
	if err := database.DB.Model(&models.Poll{}).Where("image_name IS NOT NULL").Pluck("image_name", &imageNames).Error; err != nil {
		log.Fatalf("Failed to list poll images: %v", err)
	}

	// Delete all Votes
	if err := database.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Vote{}).Error; err != nil {
		log.Fatalf("Failed to delete votes: %v", err)
	}
	fmt.Println("✅ Deleted all votes")

	// Delete all Polls
	if err := database.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Poll{}).Error; err != nil {
		log.Fatalf("Failed to delete polls: %v", err)
	}
	fmt.Println("✅ Deleted all polls")

	if _, err := os.Stat(cfg.ImagesDir); os.IsNotExist(err) {
		fmt.Println("Cleanup finished successfully")
		return
	}

	images, err := services.NewImageStore(cfg.ImagesDir)
	if err != nil {
		log.Fatalf("Failed to open image store: %v", err)
	}
	removed := 0
	for _, name := range imageNames {
		if err := images.Remove(name); err != nil {
			log.Printf("⚠️ %v", err)
			continue
		}
		removed++
	}
	fmt.Printf("✅ Deleted %d poll images from %s\n", removed, filepath.Clean(images.Dir()))

	fmt.Println("Cleanup finished successfully")
}
