// Package openfoodfacts fetches product records from the Open Food Facts
// database and normalizes its loose, partial schema into the canonical
// product model.
package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/pantrypal/backend/internal/domain"
)

// Client handles communication with the Open Food Facts API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new Open Food Facts client. requestsPerMinute bounds
// outbound calls (OFF asks for at most 100 product queries per minute).
func NewClient(baseURL, userAgent string, requestsPerMinute int) *Client {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 100
	}
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     baseURL,
		userAgent:   userAgent,
		rateLimiter: limiter,
	}
}

// SetDebug enables verbose request/response logging.
func (c *Client) SetDebug(enabled bool) {
	c.debug = enabled
}

// productResponse is the provider's envelope. status==1 means a match.
type productResponse struct {
	Code    string      `json:"code"`
	Status  int         `json:"status"`
	Product *rawProduct `json:"product"`
}

// rawProduct holds the provider fields we read. Everything is optional;
// the Nutriments block is kept raw because its fields arrive as strings or
// numbers depending on the contributor.
type rawProduct struct {
	ProductName     string          `json:"product_name"`
	Brands          string          `json:"brands"`
	ImageURL        string          `json:"image_url"`
	Categories      string          `json:"categories"`
	IngredientsText string          `json:"ingredients_text"`
	AllergensTags   []string        `json:"allergens_tags"`
	Nutriments      json.RawMessage `json:"nutriments"`
}

// FetchProduct issues exactly one read-only query for the given barcode and
// returns the normalized record. A provider miss is domain.ErrProductNotFound;
// transport, status, and parse failures wrap domain.ErrLookupFailure. No
// internal retry: retry policy belongs to the caller.
func (c *Client) FetchProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrLookupFailure, err)
	}

	reqURL := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, url.PathEscape(barcode))
	if c.debug {
		log.Printf("[OFF] GET %s", reqURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrLookupFailure, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLookupFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if c.debug {
			log.Printf("[OFF] status %d for %s: %s", resp.StatusCode, barcode, string(body))
		}
		return nil, fmt.Errorf("%w: status %d", domain.ErrLookupFailure, resp.StatusCode)
	}

	var payload productResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrLookupFailure, err)
	}

	if payload.Status != 1 || payload.Product == nil {
		if c.debug {
			log.Printf("[OFF] no match for barcode %q", barcode)
		}
		return nil, domain.ErrProductNotFound
	}

	return Normalize(barcode, payload.Product), nil
}
