package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"auction-backoffice/internal/domain/auctions"
	"auction-backoffice/internal/logging"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractJSON pulls a JSON object out of model output that may be wrapped in
// a fenced code block or surrounding prose.
func extractJSON(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return m[1]
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}

	return text
}

// ParseResponseText turns raw model output into ExtractedData. A response
// that still isn't JSON after fence-stripping is recoverable: the auction
// proceeds with empty data and the operator fills the post in manually.
func ParseResponseText(content string) *auctions.ExtractedData {
	var data auctions.ExtractedData
	if err := json.Unmarshal([]byte(extractJSON(content)), &data); err != nil {
		logging.L().WithError(err).WithField("content", content).
			Warn("Failed to parse AI response as JSON")
		return &auctions.ExtractedData{}
	}
	return &data
}
