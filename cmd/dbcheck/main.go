package main

import (
	"fmt"
	"log"
	"time"

	"github.com/Akinaru/event-poll/config"
	"github.com/Akinaru/event-poll/database"
	"github.com/Akinaru/event-poll/models"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// Load .env explicitly
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is empty")
	}

	db, err := database.Open(cfg.DatabaseURL, &gorm.Config{})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Dialect: %s\n", db.Dialector.Name())

	var now time.Time
	db.Raw("SELECT CURRENT_TIMESTAMP").Scan(&now)
	fmt.Printf("DB Time: %v\n", now)
	fmt.Printf("Local Time: %v\n", time.Now())

	if db.Dialector.Name() == "postgres" {
		var tz string
		db.Raw("SHOW timezone").Scan(&tz)
		fmt.Printf("DB Configured Timezone: %s\n", tz)
	}

	for _, table := range []interface{}{&models.User{}, &models.Poll{}, &models.Vote{}} {
		var count int64
		if err := db.Model(table).Count(&count).Error; err != nil {
			fmt.Printf("%T: %v\n", table, err)
			continue
		}
		fmt.Printf("%T: %d rows\n", table, count)
	}

	var upcoming int64
	db.Model(&models.Poll{}).Where("event_date > ?", time.Now()).Count(&upcoming)
	fmt.Printf("Upcoming polls: %d\n", upcoming)
}
