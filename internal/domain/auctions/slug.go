package auctions

import (
	"regexp"
	"strings"
	"time"
)

var (
	nonSlug  = regexp.MustCompile(`[^a-z0-9_]+`)
	multiSep = regexp.MustCompile(`_+`)
)

// FolderSlug turns an arbitrary folder label into a filesystem-safe name.
// Example: "Toyota Aqua #42" -> "toyota_aqua_42"
func FolderSlug(name string) string {
	base := strings.ToLower(strings.TrimSpace(name))
	base = nonSlug.ReplaceAllString(base, "_")
	base = multiSep.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")

	if base == "" {
		base = "auction"
	}
	return base
}

// DefaultFolderName is used when the scraper supplies no folder label.
func DefaultFolderName(t time.Time) string {
	return "Auction_" + t.Format("2006-01-02_150405")
}
