package jobs

import (
	"context"
	"time"

	"auction-backoffice/internal/domain/auctions"
	"auction-backoffice/internal/domain/queue"
	"auction-backoffice/internal/infra/storage"
	"auction-backoffice/internal/logging"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const auctionsBaseDir = "auctions"

// SweepResult reports what one retention sweep removed.
type SweepResult struct {
	Folders  int
	Images   int
	Auctions int
}

// Sweeper purges date folders older than the retention window, along with
// the image records and emptied auctions that pointed into them.
type Sweeper struct {
	db            *gorm.DB
	disk          *storage.Disk
	retentionDays int
}

func NewSweeper(db *gorm.DB, disk *storage.Disk, retentionDays int) *Sweeper {
	return &Sweeper{db: db, disk: disk, retentionDays: retentionDays}
}

// Sweep is a best-effort batch: trouble with one date folder is logged and
// the rest of the sweep continues.
func (s *Sweeper) Sweep(now time.Time) SweepResult {
	var result SweepResult

	cutoff := now.AddDate(0, 0, -s.retentionDays)

	dateFolders, err := s.disk.Directories(auctionsBaseDir)
	if err != nil {
		logging.L().WithError(err).Error("Failed to list auction date folders")
		return result
	}

	for _, folderName := range dateFolders {
		folderDate, err := time.Parse("2006-01-02", folderName)
		if err != nil {
			// Storage may contain unrelated content.
			logging.L().WithField("folder", folderName).Warn("Skipping folder (invalid date format)")
			continue
		}

		if !folderDate.Before(cutoff) {
			continue
		}

		dateDir := auctionsBaseDir + "/" + folderName

		fileCount, err := s.disk.CountFiles(dateDir)
		if err != nil {
			logging.L().WithField("folder", folderName).WithError(err).Error("Failed to inspect date folder")
			continue
		}
		subDirs, err := s.disk.Directories(dateDir)
		if err != nil {
			logging.L().WithField("folder", folderName).WithError(err).Error("Failed to inspect date folder")
			continue
		}

		if err := s.disk.DeleteDir(dateDir); err != nil {
			logging.L().WithField("folder", folderName).WithError(err).Error("Failed to delete date folder")
			continue
		}

		result.Images += fileCount
		result.Folders += len(subDirs) + 1
		result.Auctions += s.deleteRecords(folderName)

		logging.L().WithField("folder", dateDir).Info("Deleted expired date folder")
	}

	logging.L().WithFields(logrus.Fields{
		"folders":  result.Folders,
		"images":   result.Images,
		"auctions": result.Auctions,
	}).Info("Retention sweep completed")

	return result
}

// deleteRecords removes image rows under the swept date folder, then any
// auction left with zero images. Returns the number of auctions deleted.
func (s *Sweeper) deleteRecords(folderName string) int {
	prefix := auctionsBaseDir + "/" + folderName + "/%"

	var imgs []auctions.AuctionImage
	if err := s.db.Where("stored_path LIKE ?", prefix).Find(&imgs).Error; err != nil {
		logging.L().WithField("folder", folderName).WithError(err).Error("Failed to load image records")
		return 0
	}
	if len(imgs) == 0 {
		return 0
	}

	auctionIDs := make(map[uint]struct{}, len(imgs))
	for _, img := range imgs {
		auctionIDs[img.AuctionID] = struct{}{}
	}

	if err := s.db.Where("stored_path LIKE ?", prefix).Delete(&auctions.AuctionImage{}).Error; err != nil {
		logging.L().WithField("folder", folderName).WithError(err).Error("Failed to delete image records")
		return 0
	}

	deleted := 0
	for id := range auctionIDs {
		var remaining int64
		if err := s.db.Model(&auctions.AuctionImage{}).Where("auction_id = ?", id).Count(&remaining).Error; err != nil {
			continue
		}
		if remaining == 0 {
			if err := s.db.Delete(&auctions.Auction{}, id).Error; err == nil {
				deleted++
			}
		}
	}
	return deleted
}

// CleanupHandler lets the sweep also run through the job queue; each
// accepted submission enqueues one so storage stays bounded between the
// nightly runs.
type CleanupHandler struct {
	sweeper *Sweeper
}

func NewCleanupHandler(sweeper *Sweeper) *CleanupHandler {
	return &CleanupHandler{sweeper: sweeper}
}

func (h *CleanupHandler) Type() string           { return TypeCleanup }
func (h *CleanupHandler) MaxAttempts() int       { return 1 }
func (h *CleanupHandler) Backoff() time.Duration { return 0 }

func (h *CleanupHandler) Handle(ctx context.Context, job *queue.Job) error {
	h.sweeper.Sweep(time.Now())
	return nil
}

func (h *CleanupHandler) Failed(ctx context.Context, job *queue.Job, cause error) {}
