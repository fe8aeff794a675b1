// Package bigcommerce is a client for the subset of the BigCommerce REST API
// used by the sales app: catalog search, customer lookup and order creation.
package bigcommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vansales-service/internal/util"
)

// DefaultBaseURL is the public BigCommerce API host
const DefaultBaseURL = "https://api.bigcommerce.com"

const maxResponseBytes = 1 << 20

// ErrMissingCredentials is returned when no store hash or token is configured
var ErrMissingCredentials = errors.New("bigcommerce credentials are not configured")

// Credentials identify a store and authorize API calls
type Credentials struct {
	StoreHash string
	Token     string
}

// Valid reports whether both the store hash and the token are set
func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.StoreHash) != "" && strings.TrimSpace(c.Token) != ""
}

// APIError is a non-2xx response from BigCommerce
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bigcommerce %s failed: HTTP %d: %s", e.Operation, e.StatusCode, e.Body)
}

// Client calls the BigCommerce API for a single store
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
}

// NewClient creates a client for the store identified by creds
func NewClient(baseURL string, creds Credentials, httpClient *http.Client) (*Client, error) {
	if !creds.Valid() {
		return nil, ErrMissingCredentials
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = util.NewHTTPClient(30 * time.Second)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		creds:      creds,
		httpClient: httpClient,
	}, nil
}

// SearchProducts searches the catalog by keyword, including images and variants
func (c *Client) SearchProducts(ctx context.Context, keyword string) ([]CatalogProduct, error) {
	query := url.Values{}
	query.Set("keyword", keyword)
	query.Set("include", "primary_image,variants")

	var resp struct {
		Data []CatalogProduct `json:"data"`
	}
	if err := c.do(ctx, "search_products", http.MethodGet, "/v3/catalog/products", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetProduct fetches a single catalog product with its variants
func (c *Client) GetProduct(ctx context.Context, productID int64) (*CatalogProduct, error) {
	query := url.Values{}
	query.Set("include", "primary_image,variants")

	var resp struct {
		Data CatalogProduct `json:"data"`
	}
	path := fmt.Sprintf("/v3/catalog/products/%d", productID)
	if err := c.do(ctx, "get_product", http.MethodGet, path, query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// SearchCustomers finds customers by email when the query looks like one, by name otherwise
func (c *Client) SearchCustomers(ctx context.Context, term string) ([]Customer, error) {
	query := url.Values{}
	if strings.Contains(term, "@") {
		query.Set("email:in", term)
	} else {
		query.Set("name:like", term)
	}

	var resp struct {
		Data []Customer `json:"data"`
	}
	if err := c.do(ctx, "search_customers", http.MethodGet, "/v3/customers", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetCustomerAddresses lists the stored addresses of a customer
func (c *Client) GetCustomerAddresses(ctx context.Context, customerID int64) ([]CustomerAddress, error) {
	query := url.Values{}
	query.Set("customer_id:in", strconv.FormatInt(customerID, 10))

	var resp struct {
		Data []CustomerAddress `json:"data"`
	}
	if err := c.do(ctx, "customer_addresses", http.MethodGet, "/v3/customers/addresses", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CreateOrder creates an order through the V2 orders API
func (c *Client) CreateOrder(ctx context.Context, order *OrderRequest) (*OrderResponse, error) {
	var resp OrderResponse
	if err := c.do(ctx, "create_order", http.MethodPost, "/v2/orders", nil, order, &resp); err != nil {
		return nil, err
	}
	if resp.ID == 0 {
		return nil, fmt.Errorf("bigcommerce create_order returned no order id")
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	ctx, span := util.StartSpan(ctx, "bigcommerce."+op)
	defer span.End()

	status := "error"
	start := time.Now()
	defer func() {
		util.GatewayRequestLatency.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	}()

	endpoint := fmt.Sprintf("%s/stores/%s%s", c.baseURL, url.PathEscape(c.creds.StoreHash), path)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("X-Auth-Token", c.creds.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bigcommerce %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	status = strconv.Itoa(resp.StatusCode)
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read bigcommerce %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode bigcommerce %s response: %w", op, err)
	}
	return nil
}
