package auctions

import (
	"net/http"
	"path"
	"regexp"
	"sort"
	"strconv"
	"time"

	"auction-backoffice/database"
	"auction-backoffice/internal/domain/auctions"
	"auction-backoffice/internal/infra/exchange"
	"auction-backoffice/internal/infra/storage"
	"auction-backoffice/internal/jobs"
	"auction-backoffice/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	rates *exchange.Service
	disk  *storage.Disk
)

// Setup injects the handlers' collaborators. Called once from main before
// routes are registered.
func Setup(rateService *exchange.Service, store *storage.Disk) {
	rates = rateService
	disk = store
}

// ------------------------------
// POST /receive-post  (scraper submission endpoint)
// ------------------------------
func ReceiveAuction(c *gin.Context) {
	var req ReceiveAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	// Convert the scraped JPY price to EUR; conversion trouble is never
	// fatal to the submission.
	price := "0"
	if req.Post.Price != "" {
		if conv := rates.ConvertAndRound(req.Post.Price); conv != nil {
			price = strconv.Itoa(conv.RoundedEUR)
			logging.L().WithFields(logrus.Fields{
				"original_jpy": conv.OriginalJPY,
				"rate":         conv.Rate,
				"eur_amount":   conv.EURAmount,
				"rounded_eur":  conv.RoundedEUR,
			}).Info("Price converted")
		} else {
			logging.L().WithField("price_string", req.Post.Price).Warn("Failed to convert price")
		}
	}

	auction := auctions.Auction{
		Price:  price,
		Type:   auctions.DefaultType,
		Status: auctions.StatusReceived,
	}
	if req.Post.Type != "" {
		auction.Type = req.Post.Type
	}
	if req.Post.BidDeadline != "" {
		auction.BidDeadline = &req.Post.BidDeadline
	}
	if req.Post.CustomFolderName != "" {
		auction.CustomFolderName = &req.Post.CustomFolderName
	}
	if req.Post.AuctionDate != "" {
		t, _ := time.Parse("2006-01-02", req.Post.AuctionDate)
		auction.AuctionDate = &t
	}

	if err := database.DB.Create(&auction).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create auction"})
		return
	}

	// Image download runs in the background; the scraper gets its answer
	// before any durable work starts.
	if err := jobs.Enqueue(database.DB, jobs.TypeDownloadImages, jobs.DownloadPayload{
		AuctionID: auction.ID,
		ImageURLs: req.Images,
	}); err != nil {
		logging.L().WithError(err).Error("Failed to enqueue image download")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule processing"})
		return
	}

	// Opportunistic retention sweep; never fails the submission.
	if err := jobs.Enqueue(database.DB, jobs.TypeCleanup, struct{}{}); err != nil {
		logging.L().WithError(err).Warn("Failed to dispatch image cleanup job")
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Auction received and processing",
		"auction": AuctionReceivedDTO{
			ID:               auction.ID,
			Price:            auction.Price,
			BidDeadline:      auction.BidDeadline,
			Type:             auction.Type,
			CustomFolderName: auction.CustomFolderName,
			AuctionDate:      dateString(auction.AuctionDate),
			Status:           auction.Status,
		},
		"status": "processing",
	})
}

var datePathRe = regexp.MustCompile(`^auctions/(\d{4}-\d{2}-\d{2})/`)

// ------------------------------
// GET /auctions  -> list of dates with car counts
// ------------------------------
func ListDates(c *gin.Context) {
	var imgs []auctions.AuctionImage
	if err := database.DB.Where("stored_path LIKE ?", "auctions/%/%").Find(&imgs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load auctions"})
		return
	}

	byDate := make(map[string]map[uint]struct{})
	for _, img := range imgs {
		m := datePathRe.FindStringSubmatch(img.StoredPath)
		if m == nil {
			continue
		}
		if byDate[m[1]] == nil {
			byDate[m[1]] = make(map[uint]struct{})
		}
		byDate[m[1]][img.AuctionID] = struct{}{}
	}

	dates := make([]DateEntryDTO, 0, len(byDate))
	for date, ids := range byDate {
		dates = append(dates, DateEntryDTO{Date: date, CarCount: len(ids)})
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Date > dates[j].Date })

	c.JSON(http.StatusOK, gin.H{"dates": dates})
}

// ------------------------------
// GET /auctions/date/:date  -> cars stored under one date folder
// ------------------------------
func ListByDate(c *gin.Context) {
	date := c.Param("date")

	var auctionIDs []uint
	if err := database.DB.Model(&auctions.AuctionImage{}).
		Where("stored_path LIKE ?", "auctions/"+date+"/%").
		Distinct("auction_id").
		Pluck("auction_id", &auctionIDs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load auctions"})
		return
	}

	var list []auctions.Auction
	if len(auctionIDs) > 0 {
		if err := database.DB.Preload("Images").
			Where("id IN ?", auctionIDs).
			Order("created_at DESC").
			Find(&list).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load auctions"})
			return
		}
	}

	out := make([]AuctionSummaryDTO, 0, len(list))
	for _, a := range list {
		summary := AuctionSummaryDTO{
			ID:               a.ID,
			Make:             "N/A",
			Model:            "N/A",
			Year:             "N/A",
			Price:            a.Price,
			Status:           a.Status,
			CustomFolderName: a.CustomFolderName,
			ImageCount:       len(a.Images),
			HasExtractedData: !a.ExtractedData.IsEmpty(),
		}
		if d := a.ExtractedData; d != nil {
			if d.Make != "" {
				summary.Make = d.Make
			}
			if d.Model != "" {
				summary.Model = d.Model
			}
			if d.Year != "" {
				summary.Year = string(d.Year)
			}
		}
		out = append(out, summary)
	}

	c.JSON(http.StatusOK, gin.H{"date": date, "auctions": out})
}

// ------------------------------
// GET /auctions/:id
// ------------------------------
func ShowAuction(c *gin.Context) {
	auction, ok := findAuction(c)
	if !ok {
		return
	}

	imgs := make([]ImageDTO, 0, len(auction.Images))
	for _, img := range auction.Images {
		imgs = append(imgs, ImageDTO{
			ID:       img.ID,
			URL:      "/storage/" + img.StoredPath,
			Path:     img.StoredPath,
			IsSheet:  img.IsSheet,
			Position: img.Position,
		})
	}

	var extracted any
	if auction.ExtractedData != nil {
		extracted = auction.ExtractedData
	}

	c.JSON(http.StatusOK, gin.H{"auction": AuctionDetailDTO{
		ID:            auction.ID,
		Price:         auction.Price,
		BidDeadline:   auction.BidDeadline,
		Type:          auction.Type,
		AuctionDate:   dateString(auction.AuctionDate),
		Status:        auction.Status,
		ExtractedData: extracted,
		CustomPost:    auction.CustomPost,
		FormattedPost: auction.FormattedPost(),
		Images:        imgs,
	}})
}

// ------------------------------
// PUT /auctions/:id/post  (operator side-channel, any pipeline status)
// ------------------------------
func UpdatePost(c *gin.Context) {
	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	auction, ok := findAuction(c)
	if !ok {
		return
	}

	if err := database.DB.Model(&auction).Update("custom_post", req.CustomPost).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	auction.CustomPost = &req.CustomPost
	c.JSON(http.StatusOK, gin.H{
		"message":        "Post updated",
		"formatted_post": auction.FormattedPost(),
	})
}

// ------------------------------
// DELETE /auctions/:id  (terminal override from any state)
// ------------------------------
func DeleteAuction(c *gin.Context) {
	auction, ok := findAuction(c)
	if !ok {
		return
	}

	// All of an auction's images share one folder; removing it takes the
	// files with it. Records go regardless of storage trouble.
	if len(auction.Images) > 0 {
		dir := path.Dir(auction.Images[0].StoredPath)
		if err := disk.DeleteDir(dir); err != nil {
			logging.L().WithFields(logrus.Fields{
				"auction_id": auction.ID,
				"dir":        dir,
			}).WithError(err).Warn("Failed to delete auction folder")
		}
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("auction_id = ?", auction.ID).Delete(&auctions.AuctionImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&auctions.Auction{}, auction.ID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete auction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Auction deleted"})
}

func findAuction(c *gin.Context) (*auctions.Auction, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid auction id"})
		return nil, false
	}

	var auction auctions.Auction
	if err := database.DB.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&auction, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Auction not found"})
		return nil, false
	}
	return &auction, true
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
