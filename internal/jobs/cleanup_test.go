package jobs

import (
	"testing"
	"time"

	"auction-backoffice/internal/domain/auctions"
	"auction-backoffice/internal/infra/storage"

	"gorm.io/gorm"
)

func seedSweepFixture(t *testing.T, db *gorm.DB, disk *storage.Disk) (oldAuction, recentAuction *auctions.Auction) {
	t.Helper()

	files := map[string]string{
		"auctions/2025-01-01/old_car/img_001.jpg":   "a",
		"auctions/2025-01-01/old_car/sheet_002.jpg": "b",
		"auctions/2025-06-01/new_car/img_001.jpg":   "c",
		"unrelated/readme.txt":                      "not an auction folder",
	}
	for path, content := range files {
		if err := disk.Put(path, []byte(content)); err != nil {
			t.Fatalf("put %s: %v", path, err)
		}
	}
	// A non-date directory inside auctions/ must be skipped, not deleted.
	if err := disk.Put("auctions/scratch/notes.txt", []byte("keep me")); err != nil {
		t.Fatalf("put scratch: %v", err)
	}

	oldAuction = &auctions.Auction{Status: auctions.StatusProcessed, Type: auctions.DefaultType, Price: "0"}
	recentAuction = &auctions.Auction{Status: auctions.StatusProcessed, Type: auctions.DefaultType, Price: "0"}
	for _, a := range []*auctions.Auction{oldAuction, recentAuction} {
		if err := db.Create(a).Error; err != nil {
			t.Fatalf("create auction: %v", err)
		}
	}

	imgs := []auctions.AuctionImage{
		{AuctionID: oldAuction.ID, StoredPath: "auctions/2025-01-01/old_car/img_001.jpg", Position: 1},
		{AuctionID: oldAuction.ID, StoredPath: "auctions/2025-01-01/old_car/sheet_002.jpg", Position: 2, IsSheet: true},
		{AuctionID: recentAuction.ID, StoredPath: "auctions/2025-06-01/new_car/img_001.jpg", Position: 1, IsSheet: true},
	}
	for i := range imgs {
		if err := db.Create(&imgs[i]).Error; err != nil {
			t.Fatalf("create image: %v", err)
		}
	}
	return oldAuction, recentAuction
}

func TestSweep(t *testing.T) {
	t.Parallel()

	db := testDB(t)
	disk := storage.NewDisk(t.TempDir())
	oldAuction, recentAuction := seedSweepFixture(t, db, disk)

	sweeper := NewSweeper(db, disk, 14)
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	result := sweeper.Sweep(now)

	// 2025-01-01 (car folder + date folder) goes, 2025-06-01 stays.
	if result.Folders != 2 {
		t.Errorf("folders = %d, want 2", result.Folders)
	}
	if result.Images != 2 {
		t.Errorf("images = %d, want 2", result.Images)
	}
	if result.Auctions != 1 {
		t.Errorf("auctions = %d, want 1", result.Auctions)
	}

	if disk.Exists("auctions/2025-01-01") {
		t.Error("expired date folder still on disk")
	}
	if !disk.Exists("auctions/2025-06-01/new_car/img_001.jpg") {
		t.Error("recent folder must be untouched")
	}
	if !disk.Exists("auctions/scratch/notes.txt") {
		t.Error("non-date folder must be skipped")
	}
	if !disk.Exists("unrelated/readme.txt") {
		t.Error("content outside auctions/ must be untouched")
	}

	var count int64
	db.Model(&auctions.Auction{}).Where("id = ?", oldAuction.ID).Count(&count)
	if count != 0 {
		t.Error("old auction record should be deleted")
	}
	db.Model(&auctions.Auction{}).Where("id = ?", recentAuction.ID).Count(&count)
	if count != 1 {
		t.Error("recent auction record should remain")
	}
	db.Model(&auctions.AuctionImage{}).Where("auction_id = ?", oldAuction.ID).Count(&count)
	if count != 0 {
		t.Error("old image records should be deleted")
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	t.Parallel()

	db := testDB(t)
	disk := storage.NewDisk(t.TempDir())
	seedSweepFixture(t, db, disk)

	sweeper := NewSweeper(db, disk, 14)
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	sweeper.Sweep(now)
	second := sweeper.Sweep(now)

	if second.Folders != 0 || second.Images != 0 || second.Auctions != 0 {
		t.Errorf("second sweep removed something: %+v", second)
	}
}

func TestSweepKeepsAuctionWithRemainingImages(t *testing.T) {
	t.Parallel()

	db := testDB(t)
	disk := storage.NewDisk(t.TempDir())

	if err := disk.Put("auctions/2025-01-01/split/img_001.jpg", []byte("x")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := disk.Put("auctions/2025-06-01/split/img_002.jpg", []byte("y")); err != nil {
		t.Fatalf("put: %v", err)
	}

	auction := &auctions.Auction{Status: auctions.StatusProcessed, Type: auctions.DefaultType, Price: "0"}
	if err := db.Create(auction).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	for i, p := range []string{"auctions/2025-01-01/split/img_001.jpg", "auctions/2025-06-01/split/img_002.jpg"} {
		img := auctions.AuctionImage{AuctionID: auction.ID, StoredPath: p, Position: i + 1}
		if err := db.Create(&img).Error; err != nil {
			t.Fatalf("create image: %v", err)
		}
	}

	sweeper := NewSweeper(db, disk, 14)
	result := sweeper.Sweep(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))

	if result.Auctions != 0 {
		t.Errorf("auction with a surviving image was deleted (count %d)", result.Auctions)
	}

	var count int64
	db.Model(&auctions.Auction{}).Where("id = ?", auction.ID).Count(&count)
	if count != 1 {
		t.Error("auction should survive while it still owns an image")
	}
	db.Model(&auctions.AuctionImage{}).Where("auction_id = ?", auction.ID).Count(&count)
	if count != 1 {
		t.Errorf("remaining images = %d, want 1", count)
	}
}
