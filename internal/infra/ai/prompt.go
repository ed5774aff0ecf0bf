package ai

import (
	"encoding/base64"
	"encoding/json"
	"path"
	"strings"

	"auction-backoffice/internal/infra/storage"
	"auction-backoffice/internal/logging"
)

const systemPrompt = "You are an expert at analyzing Japanese car auction listings. " +
	"Perform OCR on any markers, stamps or text visible in the images and translate " +
	"non-English text to English. Extract structured vehicle information and return " +
	"only a JSON object."

const instructions = "Analyze these auction images (the last one is the auction/inspection sheet). " +
	"Extract the vehicle make, model, year, engine and mileage. Collect the seller's selling " +
	"points and damage notes as itemized English bullet lists. Normalize engine displacement " +
	"given in cc to liters. Convert Japanese imperial era year notations (Heisei, Reiwa) to the " +
	"Gregorian calendar. Return only valid JSON with these fields: make, model, year, engine, " +
	"mileage, sellingPoints (array), damageNotes (array), exteriorGrade (1-6), " +
	"interiorGrade (A-F), auctionDeadline (dd.mm.yyyy, if visible)."

// encodedImage is one inline image ready for either wire format.
type encodedImage struct {
	MediaType string
	Base64    string
}

// prepareImages reads stored images and base64-encodes them. Missing files
// are skipped so a partially swept folder doesn't kill the extraction.
func prepareImages(disk *storage.Disk, imagePaths []string) []encodedImage {
	prepared := make([]encodedImage, 0, len(imagePaths))
	for _, p := range imagePaths {
		data, err := disk.Get(p)
		if err != nil {
			logging.L().WithField("path", p).WithError(err).Warn("Skipping unreadable image")
			continue
		}
		prepared = append(prepared, encodedImage{
			MediaType: guessMimeType(p),
			Base64:    base64.StdEncoding.EncodeToString(data),
		})
	}
	return prepared
}

// userPrompt builds the instruction text, appending scraper-supplied context
// the model may use to corroborate or correct image-derived values.
func userPrompt(existing map[string]string) string {
	var b strings.Builder
	b.WriteString(instructions)

	filtered := make(map[string]string, len(existing))
	for k, v := range existing {
		if v != "" {
			filtered[k] = v
		}
	}
	if len(filtered) > 0 {
		ctx, _ := json.Marshal(filtered)
		b.WriteString(" Existing data from the scraper: ")
		b.Write(ctx)
		b.WriteString(". Use it to corroborate or correct what you extract from the images; " +
			"do not let it overwrite clearly visible image data without justification.")
	}
	return b.String()
}

func guessMimeType(imagePath string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(imagePath), ".")) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
