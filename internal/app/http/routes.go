package routes

import (
	auctionsapi "auction-backoffice/internal/api/auctions"
	"auction-backoffice/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, storageRoot string) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Scraper submission endpoint. CORS is handled globally in main; the
	// submitter is an automated system on another origin with no cookies.
	r.POST("/receive-post", auctionsapi.ReceiveAuction)

	// Stored images served back to the review UI.
	r.Static("/storage", storageRoot)

	r.GET("/auctions", auctionsapi.ListDates)
	r.GET("/auctions/date/:date", auctionsapi.ListByDate)
	r.GET("/auctions/:id", auctionsapi.ShowAuction)
	r.DELETE("/auctions/:id", auctionsapi.DeleteAuction)

	// Operator edits pass through input sanitization.
	edits := r.Group("/")
	edits.Use(middleware.SanitizeInputMiddleware())
	edits.PUT("/auctions/:id/post", auctionsapi.UpdatePost)
}
