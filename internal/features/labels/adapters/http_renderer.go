package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cargo-pipeline/internal/features/labels/domain"
)

// HTTPRenderer posts documents to the external label service.
type HTTPRenderer struct {
	client  *http.Client
	baseURL string
}

// NewHTTPRenderer creates an HTTPRenderer for the service at baseURL.
func NewHTTPRenderer(client *http.Client, baseURL string) *HTTPRenderer {
	return &HTTPRenderer{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type renderResponse struct {
	URL string `json:"url"`
}

// Render posts doc to {baseURL}/labels and returns the URL the service stored it at.
func (r *HTTPRenderer) Render(ctx context.Context, doc domain.Document) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal label document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/labels", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build label request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("label service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("label service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode label response: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("label service returned no url")
	}

	return out.URL, nil
}
