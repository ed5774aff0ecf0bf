package auctions

// ---------- requests

type PostInput struct {
	Price            string `json:"price"`
	BidDeadline      string `json:"bidDeadline"`
	Type             string `json:"type"`
	CustomFolderName string `json:"customFolderName"`
	AuctionDate      string `json:"auctionDate" binding:"omitempty,datetime=2006-01-02"`
}

type ReceiveAuctionRequest struct {
	Post   PostInput `json:"post"`
	Images []string  `json:"images" binding:"required,min=1,dive,required,url"`
}

type UpdatePostRequest struct {
	CustomPost string `json:"custom_post" binding:"required"`
}

// ---------- responses

type AuctionReceivedDTO struct {
	ID               uint    `json:"id"`
	Price            string  `json:"price"`
	BidDeadline      *string `json:"bid_deadline"`
	Type             string  `json:"type"`
	CustomFolderName *string `json:"custom_folder_name"`
	AuctionDate      *string `json:"auction_date"`
	Status           string  `json:"status"`
}

type DateEntryDTO struct {
	Date     string `json:"date"`
	CarCount int    `json:"car_count"`
}

type AuctionSummaryDTO struct {
	ID               uint    `json:"id"`
	Make             string  `json:"make"`
	Model            string  `json:"model"`
	Year             string  `json:"year"`
	Price            string  `json:"price"`
	Status           string  `json:"status"`
	CustomFolderName *string `json:"custom_folder_name"`
	ImageCount       int     `json:"image_count"`
	HasExtractedData bool    `json:"has_extracted_data"`
}

type ImageDTO struct {
	ID       uint   `json:"id"`
	URL      string `json:"url"`
	Path     string `json:"path"`
	IsSheet  bool   `json:"is_sheet"`
	Position int    `json:"position"`
}

type AuctionDetailDTO struct {
	ID            uint       `json:"id"`
	Price         string     `json:"price"`
	BidDeadline   *string    `json:"bid_deadline"`
	Type          string     `json:"type"`
	AuctionDate   *string    `json:"auction_date"`
	Status        string     `json:"status"`
	ExtractedData any        `json:"extracted_data"`
	CustomPost    *string    `json:"custom_post"`
	FormattedPost *string    `json:"formatted_post"`
	Images        []ImageDTO `json:"images"`
}
