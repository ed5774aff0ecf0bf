package database

import (
	"log"

	"auction-backoffice/internal/domain/auctions"
	"auction-backoffice/internal/domain/queue"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB(dsn string) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	DB = db

	if err := DB.AutoMigrate(
		&auctions.Auction{},
		&auctions.AuctionImage{},
		&queue.Job{},
	); err != nil {
		log.Fatal("AutoMigrate error:", err)
	}
}
