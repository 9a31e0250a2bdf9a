package shiprocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// HTTPAPIClient is the production implementation of APIClient.
type HTTPAPIClient struct {
	baseURL    string
	httpClient *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Login exchanges credentials for a bearer token. No token header is sent.
func (c *HTTPAPIClient) Login(ctx context.Context, req *AuthRequest) (*AuthResponse, error) {
	raw, err := c.request(ctx, http.MethodPost, endpointAuth, req, "")
	if err != nil {
		return nil, err
	}

	var result AuthResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}
	return &result, nil
}

// CreateOrder books an adhoc order.
func (c *HTTPAPIClient) CreateOrder(ctx context.Context, token string, req *OrderRequest) (*OrderResponse, error) {
	raw, err := c.request(ctx, http.MethodPost, endpointCreateOrder, req, token)
	if err != nil {
		return nil, err
	}

	var result OrderResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}
	return &result, nil
}

// CancelOrders cancels provider orders by id.
func (c *HTTPAPIClient) CancelOrders(ctx context.Context, token string, ids []int64) (json.RawMessage, error) {
	body := map[string][]int64{"ids": ids}
	return c.request(ctx, http.MethodPost, endpointCancelOrder, body, token)
}

// AssignPickup requests courier pickup for booked shipments.
func (c *HTTPAPIClient) AssignPickup(ctx context.Context, token string, shipmentIDs []int64) (json.RawMessage, error) {
	body := map[string][]int64{"shipment_id": shipmentIDs}
	return c.request(ctx, http.MethodPost, endpointAssignPickup, body, token)
}

// TrackByAWB fetches tracking data for an airway bill code.
func (c *HTTPAPIClient) TrackByAWB(ctx context.Context, token, awb string) (*TrackingResponse, error) {
	raw, err := c.request(ctx, http.MethodGet, endpointTrackAWB+"/"+url.PathEscape(awb), nil, token)
	if err != nil {
		return nil, err
	}

	var result TrackingResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode tracking response: %w", err)
	}
	return &result, nil
}

// TrackByOrderID fetches tracking data for a provider order id.
func (c *HTTPAPIClient) TrackByOrderID(ctx context.Context, token string, orderID int64) (*TrackingResponse, error) {
	path := endpointTrackByOrder + "?order_id=" + strconv.FormatInt(orderID, 10)
	raw, err := c.request(ctx, http.MethodGet, path, nil, token)
	if err != nil {
		return nil, err
	}

	var result TrackingResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode tracking response: %w", err)
	}
	return &result, nil
}

// PickupLocations lists registered pickup locations.
func (c *HTTPAPIClient) PickupLocations(ctx context.Context, token string) (json.RawMessage, error) {
	return c.request(ctx, http.MethodGet, endpointPickups, nil, token)
}

// AddPickupLocation registers a new pickup location.
func (c *HTTPAPIClient) AddPickupLocation(ctx context.Context, token string, req *PickupLocationRequest) (*PickupLocationResponse, error) {
	raw, err := c.request(ctx, http.MethodPost, endpointAddPickup, req, token)
	if err != nil {
		return nil, err
	}

	var result PickupLocationResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode pickup location response: %w", err)
	}
	return &result, nil
}

// Serviceability queries courier availability and freight charges.
func (c *HTTPAPIClient) Serviceability(ctx context.Context, token string, req *RateRequest) (*ServiceabilityResponse, error) {
	params := url.Values{}
	params.Set("pickup_postcode", req.PickupPostcode)
	params.Set("delivery_postcode", req.DeliveryPostcode)
	params.Set("weight", strconv.FormatFloat(req.Weight, 'f', -1, 64))
	params.Set("length", strconv.Itoa(req.Length))
	params.Set("breadth", strconv.Itoa(req.Breadth))
	params.Set("height", strconv.Itoa(req.Height))
	params.Set("cod", strconv.Itoa(req.COD))
	params.Set("declared_value", strconv.FormatFloat(req.DeclaredValue, 'f', -1, 64))

	raw, err := c.request(ctx, http.MethodGet, endpointServiceability+"?"+params.Encode(), nil, token)
	if err != nil {
		return nil, err
	}

	var result ServiceabilityResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode serviceability response: %w", err)
	}
	return &result, nil
}

// PrintInvoice generates invoices for provider orders.
func (c *HTTPAPIClient) PrintInvoice(ctx context.Context, token string, orderIDs []string) (*InvoiceResponse, error) {
	body := map[string][]string{"ids": orderIDs}
	raw, err := c.request(ctx, http.MethodPost, endpointPrintInvoice, body, token)
	if err != nil {
		return nil, err
	}

	var result InvoiceResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode invoice response: %w", err)
	}
	return &result, nil
}

// request performs one HTTP round trip and normalizes the outcome:
// network failures become status-0 APIErrors, non-2xx responses become
// transport APIErrors carrying the raw body, and 2xx bodies are returned raw.
func (c *HTTPAPIClient) request(ctx context.Context, method, path string, body any, token string) (json.RawMessage, error) {
	fullURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newNetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newNetworkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newTransportError(resp.StatusCode, http.StatusText(resp.StatusCode), string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// Ensure HTTPAPIClient implements APIClient.
var _ APIClient = (*HTTPAPIClient)(nil)
