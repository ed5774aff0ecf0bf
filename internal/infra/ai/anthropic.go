package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"auction-backoffice/internal/domain/auctions"
	"auction-backoffice/internal/infra/storage"
)

// anthropicClient speaks the messages wire format.
type anthropicClient struct {
	apiKey string
	apiURL string
	model  string
	disk   *storage.Disk
	client *http.Client
}

type antContentBlock struct {
	Type   string          `json:"type"`
	Text   string          `json:"text,omitempty"`
	Source *antImageSource `json:"source,omitempty"`
}

type antImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type antMessage struct {
	Role    string            `json:"role"`
	Content []antContentBlock `json:"content"`
}

type antRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []antMessage `json:"messages"`
}

type antResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *anthropicClient) Extract(ctx context.Context, imagePaths []string, existing map[string]string) (*auctions.ExtractedData, error) {
	blocks := []antContentBlock{{Type: "text", Text: userPrompt(existing)}}
	for _, img := range prepareImages(c.disk, imagePaths) {
		blocks = append(blocks, antContentBlock{
			Type: "image",
			Source: &antImageSource{
				Type:      "base64",
				MediaType: img.MediaType,
				Data:      img.Base64,
			},
		})
	}

	reqBody := antRequest{
		Model:     c.model,
		MaxTokens: 2000,
		System:    systemPrompt,
		Messages:  []antMessage{{Role: "user", Content: blocks}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, body)
	}

	var parsed antResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return &auctions.ExtractedData{}, nil
	}

	return ParseResponseText(text), nil
}
