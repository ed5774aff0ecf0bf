package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"auction-backoffice/internal/domain/auctions"
	"auction-backoffice/internal/domain/queue"
	"auction-backoffice/internal/infra/images"
	"auction-backoffice/internal/logging"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DownloadPayload carries the submitted URLs because they exist nowhere
// else; everything else is re-read from the auction row on each attempt.
type DownloadPayload struct {
	AuctionID uint     `json:"auction_id"`
	ImageURLs []string `json:"image_urls"`
}

// DownloadImagesHandler runs the image-acquisition stage: received ->
// downloading -> pending_processing, or failed + deletion when nothing could
// be downloaded.
type DownloadImagesHandler struct {
	db      *gorm.DB
	fetcher *images.Fetcher
}

func NewDownloadImagesHandler(db *gorm.DB, fetcher *images.Fetcher) *DownloadImagesHandler {
	return &DownloadImagesHandler{db: db, fetcher: fetcher}
}

func (h *DownloadImagesHandler) Type() string           { return TypeDownloadImages }
func (h *DownloadImagesHandler) MaxAttempts() int       { return 3 }
func (h *DownloadImagesHandler) Backoff() time.Duration { return 60 * time.Second }

func (h *DownloadImagesHandler) Handle(ctx context.Context, job *queue.Job) error {
	var payload DownloadPayload
	if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
		return fmt.Errorf("%w: bad download payload: %v", ErrPermanent, err)
	}

	var auction auctions.Auction
	if err := h.db.First(&auction, payload.AuctionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logging.L().WithField("auction_id", payload.AuctionID).
				Error("Auction not found for image download")
			return nil
		}
		return err
	}

	if err := h.db.Model(&auction).Update("status", auctions.StatusDownloading).Error; err != nil {
		return err
	}

	now := time.Now()
	folderBase := auctions.DefaultFolderName(now)
	if auction.CustomFolderName != nil && *auction.CustomFolderName != "" {
		folderBase = *auction.CustomFolderName
	}
	relativeDir := "auctions/" + now.Format("2006-01-02") + "/" + auctions.FolderSlug(folderBase)

	stored, err := h.fetcher.FetchAndStore(ctx, relativeDir, payload.ImageURLs)
	if errors.Is(err, images.ErrNoImagesDownloaded) {
		logging.L().WithField("auction_id", auction.ID).Error("No images downloaded for auction")
		h.db.Model(&auction).Update("status", auctions.StatusFailed)

		// A zero-image auction is not retained: remove it and any residue.
		h.db.Where("auction_id = ?", auction.ID).Delete(&auctions.AuctionImage{})
		h.db.Delete(&auction)

		return fmt.Errorf("%w: auction %d: %v", ErrPermanent, auction.ID, err)
	}
	if err != nil {
		// Storage failure mid-batch: let the retry policy re-run the stage.
		return err
	}

	// Delivery is at-least-once: a re-run of this stage replaces whatever an
	// earlier attempt committed instead of stacking a second set of rows and
	// a second extraction job next to it.
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("auction_id = ?", auction.ID).Delete(&auctions.AuctionImage{}).Error; err != nil {
			return err
		}
		for _, s := range stored {
			img := auctions.AuctionImage{
				AuctionID:  auction.ID,
				StoredPath: s.RelPath,
				IsSheet:    s.IsSheet,
				Position:   s.Position,
			}
			if err := tx.Create(&img).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&auction).Update("status", auctions.StatusPendingProcessing).Error; err != nil {
			return err
		}

		raw, err := json.Marshal(ProcessPayload{AuctionID: auction.ID})
		if err != nil {
			return err
		}
		if err := tx.Where("type = ? AND status = ? AND payload = ?",
			TypeProcessAuction, queue.StatusPending, string(raw)).
			Delete(&queue.Job{}).Error; err != nil {
			return err
		}
		return Enqueue(tx, TypeProcessAuction, ProcessPayload{AuctionID: auction.ID})
	})
	if err != nil {
		return err
	}

	logging.L().WithFields(logrus.Fields{
		"auction_id":   auction.ID,
		"images_count": len(stored),
	}).Info("Images downloaded successfully")
	return nil
}

func (h *DownloadImagesHandler) Failed(ctx context.Context, job *queue.Job, cause error) {
	var payload DownloadPayload
	if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
		return
	}

	h.db.Model(&auctions.Auction{}).
		Where("id = ?", payload.AuctionID).
		Update("status", auctions.StatusFailed)

	logging.L().WithFields(logrus.Fields{
		"auction_id": payload.AuctionID,
	}).WithError(cause).Error("Image download job failed permanently")
}
