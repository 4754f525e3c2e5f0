// Package inventory submits accepted pantry items to the inventory backend.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/pantrypal/backend/internal/domain"
)

// Client posts enriched items to the pantry backend. Creation requests are
// retried on transient failures; the lookup path never retries, but the
// persistence path may.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates an inventory client against baseURL.
func NewClient(baseURL string, timeout time.Duration, retryMax int) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil

	return &Client{
		httpClient: rc.StandardClient(),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// CreateItem submits one accepted item as a creation request.
func (c *Client) CreateItem(ctx context.Context, item *domain.EnrichedItem) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("%w: encode item: %v", domain.ErrInventoryFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/items", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrInventoryFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInventoryFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", domain.ErrInventoryFailure, resp.StatusCode)
	}
	return nil
}

// FlattenNotes builds the free-text notes for an item: the user's own notes
// followed by a flattened barcode/brand/nutrition/allergen summary, so the
// resolved details stay visible in UIs that only render notes.
func FlattenNotes(p *domain.Product, userNotes string) string {
	parts := []string{"Barcode: " + p.Barcode}
	if p.Brand != "" {
		parts = append(parts, "Brand: "+p.Brand)
	}
	if n := p.Nutrition; n != nil {
		for _, f := range []struct {
			label string
			value *float64
		}{
			{"Calories", n.Calories},
			{"Fat", n.Fat},
			{"Carbs", n.Carbs},
			{"Protein", n.Protein},
			{"Fiber", n.Fiber},
			{"Sugar", n.Sugar},
			{"Sodium", n.Sodium},
		} {
			if f.value != nil {
				parts = append(parts, fmt.Sprintf("%s: %s/100g", f.label, trimFloat(*f.value)))
			}
		}
		if len(n.Allergens) > 0 {
			parts = append(parts, "Allergens: "+strings.Join(n.Allergens, ", "))
		}
	}

	summary := strings.Join(parts, " | ")
	if userNotes = strings.TrimSpace(userNotes); userNotes != "" {
		return userNotes + "\n" + summary
	}
	return summary
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
