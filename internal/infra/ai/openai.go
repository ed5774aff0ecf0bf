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

// openAIClient speaks the chat-completions wire format.
type openAIClient struct {
	apiKey string
	apiURL string
	model  string
	disk   *storage.Disk
	client *http.Client
}

type oaiMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type oaiContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *oaiImagePart `json:"image_url,omitempty"`
}

type oaiImagePart struct {
	URL string `json:"url"`
}

type oaiRequest struct {
	Model          string       `json:"model"`
	Messages       []oaiMessage `json:"messages"`
	ResponseFormat any          `json:"response_format,omitempty"`
	MaxTokens      int          `json:"max_tokens"`
}

type oaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *openAIClient) Extract(ctx context.Context, imagePaths []string, existing map[string]string) (*auctions.ExtractedData, error) {
	parts := []oaiContentPart{{Type: "text", Text: userPrompt(existing)}}
	for _, img := range prepareImages(c.disk, imagePaths) {
		parts = append(parts, oaiContentPart{
			Type:     "image_url",
			ImageURL: &oaiImagePart{URL: fmt.Sprintf("data:%s;base64,%s", img.MediaType, img.Base64)},
		})
	}

	reqBody := oaiRequest{
		Model: c.model,
		Messages: []oaiMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: parts},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		MaxTokens:      2000,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
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

	var parsed oaiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if len(parsed.Choices) == 0 {
		return &auctions.ExtractedData{}, nil
	}

	return ParseResponseText(parsed.Choices[0].Message.Content), nil
}
