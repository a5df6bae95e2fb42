package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/Akinaru/event-poll/config"
	"github.com/Akinaru/event-poll/database"
	"github.com/Akinaru/event-poll/models"
	"github.com/joho/godotenv"
)

var sampleNames = []string{
	"Soirée d'intégration", "Tournoi de babyfoot", "Pique-nique de printemps",
	"Conférence sécurité", "Hackathon du week-end", "Sortie escalade",
	"Afterwork de fin d'année", "Atelier Go",
}

func main() {
	pollCount := flag.Int("polls", 5, "number of sample polls to add after the demo data")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("❌ DATABASE_URL is empty; seeding an in-memory database has no effect")
	}

	// Connect to database
	if err := database.Connect(cfg.DatabaseURL, false); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	fmt.Println("🌱 Starting poll seed...")

	if err := database.SeedDemoData(); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}

	var admin models.User
	if err := database.DB.Where("role = ?", models.RoleAdmin).Order("id ASC").First(&admin).Error; err != nil {
		log.Fatalf("Failed to find an admin to own the polls: %v", err)
	}

	var voters []models.User
	if err := database.DB.Order("id ASC").Find(&voters).Error; err != nil {
		log.Fatalf("Failed to fetch users: %v", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now()
	totalVotes := 0

	for i := 0; i < *pollCount; i++ {
		name := sampleNames[rng.Intn(len(sampleNames))]

		// Event within the next 90 days
		poll := models.Poll{
			Name:        name,
			Description: fmt.Sprintf("Qui vient à « %s » ?", name),
			EventDate:   now.AddDate(0, 0, rng.Intn(90)+1),
			UserID:      admin.ID,
		}
		if err := database.DB.Create(&poll).Error; err != nil {
			log.Fatalf("Failed to create poll: %v", err)
		}

		for _, voter := range voters {
			if rng.Float64() < 0.4 {
				continue // abstains
			}

			// Created within the last 7 days
			created := now.Add(-time.Duration(rng.Intn(7*24*60)) * time.Minute)
			if _, err := database.UpsertVote(poll.ID, voter.ID, rng.Intn(2) == 1, created); err != nil {
				log.Fatalf("Failed to create vote: %v", err)
			}
			totalVotes++
		}
	}

	fmt.Printf("✅ Seed finished: %d polls, %d votes\n", *pollCount, totalVotes)
}
