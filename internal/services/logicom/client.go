package logicom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"catalogsync/internal/logger"

	"golang.org/x/time/rate"
)

// Supplier endpoints.
const (
	EndpointBrands     = "GetBrands"
	EndpointCategories = "GetProductCategories"
	EndpointProducts   = "GetProducts"
)

type ClientConfig struct {
	Timeout time.Duration
	// RateLimit caps data requests per second; zero disables pacing.
	RateLimit  float64
	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	session    *Session
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logger.Logger
}

func NewClient(creds Credentials, cfg ClientConfig, logger *logger.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Client{
		baseURL:    strings.TrimRight(creds.BaseURL, "/"),
		session:    NewSession(creds, httpClient, logger),
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
	}
}

// MakeRequest issues an authenticated GET to an endpoint and returns the
// decoded envelope. A non-success StatusCode is returned as *SupplierError and
// never retried here.
func (c *Client) MakeRequest(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	headers, err := c.session.RequestHeaders(ctx)
	if err != nil {
		c.logger.Error("API request to %s failed: %v", endpoint, err)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	headers.Apply(req.Header)
	req.Header.Set("Accept", "application/json")
	if len(params) > 0 {
		req.URL.RawQuery = params.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("API request to %s failed: %v", endpoint, err)
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &SupplierError{
			Endpoint:   endpoint,
			HTTPStatus: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	var envelope Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if !envelope.OK() {
		return nil, &SupplierError{
			Endpoint:   endpoint,
			StatusCode: envelope.StatusCode,
			Status:     envelope.Status,
			Message:    messageText(envelope.Message),
		}
	}

	return &envelope, nil
}

// GetBrands fetches the supplier's brand list.
func (c *Client) GetBrands(ctx context.Context) ([]Brand, error) {
	var brands []Brand
	if err := c.fetchList(ctx, EndpointBrands, nil, &brands); err != nil {
		return nil, err
	}
	if len(brands) == 0 {
		return nil, fmt.Errorf("%s: %w", EndpointBrands, ErrEmptyMessage)
	}
	return brands, nil
}

// GetProductCategories fetches the root nodes of the category tree.
func (c *Client) GetProductCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.fetchList(ctx, EndpointCategories, nil, &categories); err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("%s: %w", EndpointCategories, ErrEmptyMessage)
	}
	return categories, nil
}

// GetProducts fetches products; params are passed through as query filters.
func (c *Client) GetProducts(ctx context.Context, params url.Values) ([]Product, error) {
	var products []Product
	if err := c.fetchList(ctx, EndpointProducts, params, &products); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%s: %w", EndpointProducts, ErrEmptyMessage)
	}
	return products, nil
}

func (c *Client) fetchList(ctx context.Context, endpoint string, params url.Values, target interface{}) error {
	c.logger.Info("Fetching %s from Logicom API...", endpoint)
	resp, err := c.MakeRequest(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if len(resp.Message) == 0 || string(resp.Message) == "null" {
		return nil
	}
	if err := json.Unmarshal(resp.Message, target); err != nil {
		return fmt.Errorf("failed to decode %s message: %w", endpoint, err)
	}
	return nil
}

// messageText renders an envelope Message for error reporting.
func messageText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := string(raw)
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
