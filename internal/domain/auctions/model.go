package auctions

import (
	"time"
)

// Pipeline statuses. An auction only moves forward through these, except that
// failed is reachable from any in-flight state.
const (
	StatusReceived          = "received"
	StatusDownloading       = "downloading"
	StatusPendingProcessing = "pending_processing"
	StatusProcessing        = "processing"
	StatusProcessed         = "processed"
	StatusFailed            = "failed"
)

const DefaultType = "auctionsite"

type Auction struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Price in EUR after conversion, stored as string ("0" when the scraper
	// sent no price or conversion was unavailable).
	Price string `gorm:"not null;default:'0'" json:"price"`

	BidDeadline      *string    `json:"bid_deadline,omitempty"`
	Type             string     `gorm:"not null;default:'auctionsite'" json:"type"`
	CustomFolderName *string    `json:"custom_folder_name,omitempty"`
	AuctionDate      *time.Time `gorm:"type:date" json:"auction_date,omitempty"`

	Status string `gorm:"not null;default:'received';index" json:"status"`

	ExtractedData *ExtractedData `gorm:"serializer:json" json:"extracted_data,omitempty"`
	CustomPost    *string        `json:"custom_post,omitempty"`

	Images []AuctionImage `gorm:"constraint:OnDelete:CASCADE;" json:"images,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FormattedPost returns the operator's custom post when set, otherwise a post
// generated from the extracted data. Nil when there is nothing to show yet.
func (a *Auction) FormattedPost() *string {
	if a.CustomPost != nil && *a.CustomPost != "" {
		return a.CustomPost
	}
	if a.ExtractedData == nil || a.ExtractedData.IsEmpty() {
		return nil
	}
	post := FormatPost(a.ExtractedData, a.Price)
	return &post
}

type AuctionImage struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	AuctionID uint `gorm:"not null;index" json:"-"`

	// Relative path under the public disk: auctions/{YYYY-MM-DD}/{folder}/{file}.
	StoredPath string `gorm:"not null" json:"stored_path"`

	// The last image of a submission is the auction/inspection sheet.
	IsSheet bool `gorm:"not null;default:false" json:"is_sheet"`

	// 1-based submission index. Gaps occur when some downloads fail.
	Position int `gorm:"not null" json:"position"`

	CreatedAt time.Time `json:"created_at"`
}
