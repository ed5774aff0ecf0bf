package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"auction-backoffice/internal/domain/auctions"
	"auction-backoffice/internal/infra/storage"
)

// ErrRequestFailed marks transport/HTTP failures against the AI backend.
// These propagate so the job queue can retry the whole extraction step; a
// malformed response body does NOT raise it (see ParseResponseText).
var ErrRequestFailed = errors.New("ai request failed")

// Extractor sends stored auction images to a vision model and returns the
// structured vehicle data it extracts.
type Extractor interface {
	Extract(ctx context.Context, imagePaths []string, existing map[string]string) (*auctions.ExtractedData, error)
}

// NewExtractor selects the provider implementation once from configuration.
// Supported providers: "openai" (chat-completions wire shape) and "anthropic"
// (messages wire shape).
func NewExtractor(provider, apiKey, apiURL, model string, disk *storage.Disk) (Extractor, error) {
	client := &http.Client{Timeout: 120 * time.Second}

	switch provider {
	case "openai":
		if apiURL == "" {
			apiURL = "https://api.openai.com/v1/chat/completions"
		}
		return &openAIClient{apiKey: apiKey, apiURL: apiURL, model: model, disk: disk, client: client}, nil
	case "anthropic":
		if apiURL == "" {
			apiURL = "https://api.anthropic.com/v1/messages"
		}
		return &anthropicClient{apiKey: apiKey, apiURL: apiURL, model: model, disk: disk, client: client}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %q", provider)
	}
}
