package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"auction-backoffice/internal/infra/storage"
	"auction-backoffice/internal/logging"

	"github.com/sirupsen/logrus"
)

// ErrNoImagesDownloaded means every submitted URL failed. Fatal for the
// auction: retrying the same URLs is unlikely to succeed.
var ErrNoImagesDownloaded = errors.New("no images downloaded")

// Stored describes one successfully downloaded image. Position follows the
// original submission index, so gaps appear when some downloads fail.
type Stored struct {
	RelPath  string
	IsSheet  bool
	Position int
}

// Fetcher downloads submitted image URLs into the public disk store.
type Fetcher struct {
	disk   *storage.Disk
	client *http.Client
}

func NewFetcher(disk *storage.Disk) *Fetcher {
	return &Fetcher{
		disk:   disk,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

var extByContentType = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// FetchAndStore downloads urls in order into relativeDir. Individual
// failures are logged and skipped; the batch never aborts on one bad URL.
// The last submitted URL is the auction/inspection sheet.
func (f *Fetcher) FetchAndStore(ctx context.Context, relativeDir string, urls []string) ([]Stored, error) {
	var stored []Stored

	for idx, imageURL := range urls {
		data, contentType, err := f.download(ctx, imageURL)
		if err != nil {
			logging.L().WithFields(logrus.Fields{
				"url": imageURL,
				"dir": relativeDir,
			}).WithError(err).Warn("Failed to download image")
			continue
		}

		position := idx + 1
		isSheet := idx == len(urls)-1
		ext := guessExtension(contentType, imageURL)

		prefix := "img"
		if isSheet {
			prefix = "sheet"
		}
		filename := fmt.Sprintf("%s_%03d.%s", prefix, position, ext)
		relPath := relativeDir + "/" + filename

		if err := f.disk.Put(relPath, data); err != nil {
			// Storage failures are not per-URL noise; let the job retry.
			return stored, fmt.Errorf("storing %s: %w", relPath, err)
		}

		stored = append(stored, Stored{
			RelPath:  relPath,
			IsSheet:  isSheet,
			Position: position,
		})
	}

	if len(stored) == 0 {
		return nil, ErrNoImagesDownloaded
	}
	return stored, nil
}

func (f *Fetcher) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// guessExtension picks the file extension from the response content type,
// falling back to the URL path extension, then to jpg.
func guessExtension(contentType, imageURL string) string {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if ext, ok := extByContentType[ct]; ok {
		return ext
	}

	if u, err := url.Parse(imageURL); err == nil {
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
		for _, known := range extByContentType {
			if ext == known {
				return ext
			}
		}
	}

	return "jpg"
}
