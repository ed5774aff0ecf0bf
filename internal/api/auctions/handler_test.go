package auctions_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"auction-backoffice/database"
	auctions "auction-backoffice/internal/api/auctions"
	routes "auction-backoffice/internal/app/http"
	domain "auction-backoffice/internal/domain/auctions"
	"auction-backoffice/internal/domain/queue"
	"auction-backoffice/internal/infra/exchange"
	"auction-backoffice/internal/infra/storage"
	"auction-backoffice/internal/jobs"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Handlers share the package-global DB and collaborators, so these tests run
// sequentially within the package.
func setupRouter(t *testing.T, rateURL string) (*gin.Engine, *storage.Disk) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&domain.Auction{}, &domain.AuctionImage{}, &queue.Job{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	database.DB = db

	disk := storage.NewDisk(t.TempDir())
	auctions.Setup(exchange.NewService("test-key", rateURL, exchange.NewRateCache()), disk)

	r := gin.New()
	routes.RegisterRoutes(r, disk.Root)
	return r, disk
}

func doJSON(t *testing.T, r *gin.Engine, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestReceiveAuctionValidation(t *testing.T) {
	r, _ := setupRouter(t, "http://127.0.0.1:0")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"no images", map[string]any{"post": map[string]any{"price": "¥1,000"}}},
		{"empty images", map[string]any{"images": []string{}}},
		{"bad url", map[string]any{"images": []string{"not a url"}}},
		{"bad date", map[string]any{
			"post":   map[string]any{"auctionDate": "June 1st"},
			"images": []string{"http://example.com/a.jpg"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/receive-post", tt.body)
			if w.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", w.Code)
			}

			var count int64
			database.DB.Model(&domain.Auction{}).Count(&count)
			if count != 0 {
				t.Error("validation failure must not create state")
			}
		})
	}
}

func TestReceiveAuction(t *testing.T) {
	rateServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"success","conversion_rates":{"EUR":0.006}}`))
	}))
	defer rateServer.Close()

	r, _ := setupRouter(t, rateServer.URL)

	w := doJSON(t, r, http.MethodPost, "/receive-post", map[string]any{
		"post": map[string]any{
			"price":            "¥1,000,000",
			"bidDeadline":      "15.06.2025",
			"customFolderName": "Toyota Aqua",
			"auctionDate":      "2025-06-01",
		},
		"images": []string{"http://example.com/a.jpg", "http://example.com/sheet.jpg"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Message string                      `json:"message"`
		Auction auctions.AuctionReceivedDTO `json:"auction"`
		Status  string                      `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "processing" {
		t.Errorf("envelope status = %q", resp.Status)
	}
	if resp.Auction.Status != domain.StatusReceived {
		t.Errorf("auction status = %q, want received", resp.Auction.Status)
	}
	if resp.Auction.Price != "6000" {
		t.Errorf("price = %q, want 6000 (converted and rounded)", resp.Auction.Price)
	}

	var auction domain.Auction
	if err := database.DB.First(&auction, resp.Auction.ID).Error; err != nil {
		t.Fatalf("auction row missing: %v", err)
	}
	if auction.Status != domain.StatusReceived {
		t.Errorf("stored status = %q", auction.Status)
	}

	var job queue.Job
	if err := database.DB.Where("type = ?", jobs.TypeDownloadImages).First(&job).Error; err != nil {
		t.Fatalf("download job not enqueued: %v", err)
	}
	var payload jobs.DownloadPayload
	if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.AuctionID != auction.ID || len(payload.ImageURLs) != 2 {
		t.Errorf("payload = %+v", payload)
	}

	var cleanups int64
	database.DB.Model(&queue.Job{}).Where("type = ?", jobs.TypeCleanup).Count(&cleanups)
	if cleanups != 1 {
		t.Errorf("cleanup jobs = %d, want 1", cleanups)
	}
}

func TestReceiveAuctionUnconvertiblePrice(t *testing.T) {
	// Rate service is down: submission still succeeds with price "0".
	r, _ := setupRouter(t, "http://127.0.0.1:0")

	w := doJSON(t, r, http.MethodPost, "/receive-post", map[string]any{
		"post":   map[string]any{"price": "¥500,000"},
		"images": []string{"http://example.com/a.jpg"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Auction auctions.AuctionReceivedDTO `json:"auction"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Auction.Price != "0" {
		t.Errorf("price = %q, want 0", resp.Auction.Price)
	}
}

func TestUpdatePostSanitizesInput(t *testing.T) {
	r, _ := setupRouter(t, "http://127.0.0.1:0")

	auction := domain.Auction{Status: domain.StatusProcessed, Type: domain.DefaultType, Price: "0"}
	if err := database.DB.Create(&auction).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	w := doJSON(t, r, http.MethodPut, "/auctions/1/post", map[string]any{
		"custom_post": `Great car! <script>alert("x")</script>`,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var got domain.Auction
	if err := database.DB.First(&got, auction.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.CustomPost == nil {
		t.Fatal("custom_post not stored")
	}
	if strings.Contains(*got.CustomPost, "<script>") {
		t.Errorf("script tag survived sanitization: %q", *got.CustomPost)
	}
	if !strings.Contains(*got.CustomPost, "Great car!") {
		t.Errorf("text content lost: %q", *got.CustomPost)
	}
}

func TestShowAuction(t *testing.T) {
	r, _ := setupRouter(t, "http://127.0.0.1:0")

	custom := "operator text"
	auction := domain.Auction{
		Status:     domain.StatusProcessed,
		Type:       domain.DefaultType,
		Price:      "6000",
		CustomPost: &custom,
		ExtractedData: &domain.ExtractedData{
			Make: "Toyota", SellingPoints: []string{"A", "B"},
		},
	}
	if err := database.DB.Create(&auction).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	imgs := []domain.AuctionImage{
		{AuctionID: auction.ID, StoredPath: "auctions/2025-06-01/car/sheet_002.jpg", Position: 2, IsSheet: true},
		{AuctionID: auction.ID, StoredPath: "auctions/2025-06-01/car/img_001.jpg", Position: 1},
	}
	for i := range imgs {
		if err := database.DB.Create(&imgs[i]).Error; err != nil {
			t.Fatalf("create image: %v", err)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/auctions/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Auction auctions.AuctionDetailDTO `json:"auction"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(resp.Auction.Images) != 2 || resp.Auction.Images[0].Position != 1 {
		t.Errorf("images not ordered by position: %+v", resp.Auction.Images)
	}
	if resp.Auction.Images[0].URL != "/storage/auctions/2025-06-01/car/img_001.jpg" {
		t.Errorf("image url = %q", resp.Auction.Images[0].URL)
	}
	if resp.Auction.FormattedPost == nil || *resp.Auction.FormattedPost != custom {
		t.Errorf("formatted_post = %v, want custom post", resp.Auction.FormattedPost)
	}
}

func TestListDatesAndByDate(t *testing.T) {
	r, _ := setupRouter(t, "http://127.0.0.1:0")

	a := domain.Auction{Status: domain.StatusProcessed, Type: domain.DefaultType, Price: "0",
		ExtractedData: &domain.ExtractedData{Make: "Honda", Model: "Fit", Year: "2016"}}
	b := domain.Auction{Status: domain.StatusFailed, Type: domain.DefaultType, Price: "0"}
	for _, x := range []*domain.Auction{&a, &b} {
		if err := database.DB.Create(x).Error; err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	imgs := []domain.AuctionImage{
		{AuctionID: a.ID, StoredPath: "auctions/2025-06-01/fit/img_001.jpg", Position: 1},
		{AuctionID: a.ID, StoredPath: "auctions/2025-06-01/fit/sheet_002.jpg", Position: 2, IsSheet: true},
		{AuctionID: b.ID, StoredPath: "auctions/2025-05-20/other/img_001.jpg", Position: 1},
	}
	for i := range imgs {
		if err := database.DB.Create(&imgs[i]).Error; err != nil {
			t.Fatalf("create image: %v", err)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/auctions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var dates struct {
		Dates []auctions.DateEntryDTO `json:"dates"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &dates); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(dates.Dates) != 2 || dates.Dates[0].Date != "2025-06-01" || dates.Dates[0].CarCount != 1 {
		t.Errorf("dates = %+v", dates.Dates)
	}

	w = doJSON(t, r, http.MethodGet, "/auctions/date/2025-06-01", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var byDate struct {
		Auctions []auctions.AuctionSummaryDTO `json:"auctions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &byDate); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(byDate.Auctions) != 1 {
		t.Fatalf("auctions = %+v", byDate.Auctions)
	}
	got := byDate.Auctions[0]
	if got.Make != "Honda" || got.Year != "2016" || got.ImageCount != 2 || !got.HasExtractedData {
		t.Errorf("summary = %+v", got)
	}
}

func TestDeleteAuction(t *testing.T) {
	r, disk := setupRouter(t, "http://127.0.0.1:0")

	auction := domain.Auction{Status: domain.StatusProcessed, Type: domain.DefaultType, Price: "0"}
	if err := database.DB.Create(&auction).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	img := domain.AuctionImage{AuctionID: auction.ID, StoredPath: "auctions/2025-06-01/gone/img_001.jpg", Position: 1, IsSheet: true}
	if err := database.DB.Create(&img).Error; err != nil {
		t.Fatalf("create image: %v", err)
	}
	if err := disk.Put(img.StoredPath, []byte("bytes")); err != nil {
		t.Fatalf("put: %v", err)
	}

	w := doJSON(t, r, http.MethodDelete, "/auctions/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var count int64
	database.DB.Model(&domain.Auction{}).Count(&count)
	if count != 0 {
		t.Error("auction row should be gone")
	}
	database.DB.Model(&domain.AuctionImage{}).Count(&count)
	if count != 0 {
		t.Error("image rows should be gone")
	}
	if disk.Exists("auctions/2025-06-01/gone") {
		t.Error("auction folder should be removed from storage")
	}

	if w := doJSON(t, r, http.MethodDelete, "/auctions/1", nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}
