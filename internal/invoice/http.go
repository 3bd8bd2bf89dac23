package invoice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/canteenconnect/api/internal/model"
)

// HTTPRenderer asks a remote text-generation endpoint for the invoice. The
// caller's context bounds the request.
type HTTPRenderer struct {
	URL    string
	Client *http.Client
}

// NewHTTPRenderer creates a renderer posting to url with http.DefaultClient.
func NewHTTPRenderer(url string) *HTTPRenderer {
	return &HTTPRenderer{URL: url, Client: http.DefaultClient}
}

type renderResponse struct {
	InvoiceText string `json:"invoice_text"`
}

func (r *HTTPRenderer) Render(ctx context.Context, order model.Order) (string, error) {
	body, err := json.Marshal(NewPayload(order))
	if err != nil {
		return "", fmt.Errorf("marshal invoice payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build invoice request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("invoice request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("invoice service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode invoice response: %w", err)
	}
	if strings.TrimSpace(out.InvoiceText) == "" {
		return "", errors.New("invoice service returned empty text")
	}
	return out.InvoiceText, nil
}
