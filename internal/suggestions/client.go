package suggestions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client calls the generative-text service that turns inventory and
// sales figures into reorder hints.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

type GenerateRequest struct {
	InventoryData string `json:"inventory_data"`
	SalesData     string `json:"sales_data"`
}

type GenerateResponse struct {
	OK          bool   `json:"ok"`
	Suggestions string `json:"suggestions"`
}

func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	b, _ := json.Marshal(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/reorder-suggestions", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("suggestions request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("suggestions call: %w", err)
	}
	defer resp.Body.Close()

	var out GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("suggestions decode: %w", err)
	}
	if resp.StatusCode >= 400 || !out.OK {
		return &out, fmt.Errorf("suggestions error (status %d)", resp.StatusCode)
	}
	return &out, nil
}
