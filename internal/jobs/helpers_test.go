package jobs

import (
	"path/filepath"
	"testing"

	"auction-backoffice/internal/domain/auctions"
	"auction-backoffice/internal/domain/queue"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := db.AutoMigrate(&auctions.Auction{}, &auctions.AuctionImage{}, &queue.Job{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
