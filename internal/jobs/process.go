package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"auction-backoffice/internal/domain/auctions"
	"auction-backoffice/internal/domain/queue"
	"auction-backoffice/internal/infra/ai"
	"auction-backoffice/internal/logging"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ProcessPayload struct {
	AuctionID uint `json:"auction_id"`
}

// ProcessAuctionHandler runs AI extraction: pending_processing ->
// processing -> processed. Extraction errors re-raise so the pool's retry
// policy re-attempts the whole stage without re-downloading images.
type ProcessAuctionHandler struct {
	db        *gorm.DB
	extractor ai.Extractor
}

func NewProcessAuctionHandler(db *gorm.DB, extractor ai.Extractor) *ProcessAuctionHandler {
	return &ProcessAuctionHandler{db: db, extractor: extractor}
}

func (h *ProcessAuctionHandler) Type() string           { return TypeProcessAuction }
func (h *ProcessAuctionHandler) MaxAttempts() int       { return 3 }
func (h *ProcessAuctionHandler) Backoff() time.Duration { return 60 * time.Second }

func (h *ProcessAuctionHandler) Handle(ctx context.Context, job *queue.Job) error {
	var payload ProcessPayload
	if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
		return fmt.Errorf("%w: bad process payload: %v", ErrPermanent, err)
	}

	var auction auctions.Auction
	if err := h.db.First(&auction, payload.AuctionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logging.L().WithField("auction_id", payload.AuctionID).
				Error("Auction not found for processing")
			return nil
		}
		return err
	}

	if err := h.db.Model(&auction).Update("status", auctions.StatusProcessing).Error; err != nil {
		return err
	}

	var imagePaths []string
	if err := h.db.Model(&auctions.AuctionImage{}).
		Where("auction_id = ?", auction.ID).
		Order("position").
		Pluck("stored_path", &imagePaths).Error; err != nil {
		return err
	}
	if len(imagePaths) == 0 {
		h.db.Model(&auction).Update("status", auctions.StatusFailed)
		return fmt.Errorf("no images found for auction %d", auction.ID)
	}

	existing := map[string]string{
		"price": auction.Price,
		"type":  auction.Type,
	}
	if auction.BidDeadline != nil {
		existing["bid_deadline"] = *auction.BidDeadline
	}
	if auction.AuctionDate != nil {
		existing["auction_date"] = auction.AuctionDate.Format("2006-01-02")
	}

	extracted, err := h.extractor.Extract(ctx, imagePaths, existing)
	if err != nil {
		logging.L().WithFields(logrus.Fields{
			"auction_id": auction.ID,
		}).WithError(err).Error("Failed to process auction")

		h.db.Model(&auction).Update("status", auctions.StatusFailed)
		return err
	}

	update := auctions.Auction{ExtractedData: extracted, Status: auctions.StatusProcessed}
	if err := h.db.Model(&auction).Select("extracted_data", "status").Updates(update).Error; err != nil {
		return err
	}

	logging.L().WithFields(logrus.Fields{
		"auction_id": auction.ID,
	}).Info("Auction processed successfully")
	return nil
}

func (h *ProcessAuctionHandler) Failed(ctx context.Context, job *queue.Job, cause error) {
	var payload ProcessPayload
	if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
		return
	}

	h.db.Model(&auctions.Auction{}).
		Where("id = ?", payload.AuctionID).
		Update("status", auctions.StatusFailed)

	logging.L().WithFields(logrus.Fields{
		"auction_id": payload.AuctionID,
	}).WithError(cause).Error("Auction processing job failed permanently")
}
