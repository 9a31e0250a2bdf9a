// Package shiprocket provides integration with the Shiprocket logistics API.
package shiprocket

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Config holds Shiprocket client configuration.
type Config struct {
	BaseURL  string
	Email    string
	Password string

	// DefaultPickupLocation is used when an order does not name one.
	DefaultPickupLocation string
	// DefaultChannelID is the sales channel reported on created orders.
	DefaultChannelID string
	// Defaults supplies package dimensions and the weight floor for orders
	// whose items carry no product metadata.
	Defaults PackageDefaults

	// Events receives token lifecycle notifications (optional).
	Events AuthEvents
	// Now overrides the clock, for tests (optional).
	Now func() time.Time
	// UseMock swaps the HTTP transport for the canned mock client.
	UseMock bool
	// Timeout bounds each provider round trip.
	Timeout time.Duration
}

// PackageDefaults are the fallback parcel dimensions and weight.
type PackageDefaults struct {
	LengthCM  float64
	BreadthCM float64
	HeightCM  float64
	WeightKG  float64
}

// DefaultPackage mirrors the provider's minimum chargeable parcel.
var DefaultPackage = PackageDefaults{
	LengthCM:  10,
	BreadthCM: 10,
	HeightCM:  10,
	WeightKG:  0.5,
}

func (c Config) missingCredentials() []string {
	var missing []string
	if c.Email == "" {
		missing = append(missing, "SHIPROCKET_EMAIL is required")
	}
	if c.Password == "" {
		missing = append(missing, "SHIPROCKET_PASSWORD is required")
	}
	if c.BaseURL == "" {
		missing = append(missing, "SHIPROCKET_API_BASE_URL is required")
	}
	return missing
}

func (c Config) defaults() PackageDefaults {
	d := c.Defaults
	if d.LengthCM <= 0 {
		d.LengthCM = DefaultPackage.LengthCM
	}
	if d.BreadthCM <= 0 {
		d.BreadthCM = DefaultPackage.BreadthCM
	}
	if d.HeightCM <= 0 {
		d.HeightCM = DefaultPackage.HeightCM
	}
	if d.WeightKG <= 0 {
		d.WeightKG = DefaultPackage.WeightKG
	}
	return d
}

// Client is the Shiprocket SDK facade. It owns the shared auth gate and
// delegates wire calls to the underlying APIClient (mock or HTTP).
type Client struct {
	cfg    Config
	api    APIClient
	auth   *Auth
	logger *otelzap.Logger
	tracer trace.Tracer
}

// New creates a new Shiprocket client.
// If cfg.UseMock is true, it uses the mock API client instead of HTTP.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var api APIClient
	if cfg.UseMock {
		api = NewMockAPIClient()
	} else {
		api = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		})
	}
	return NewWithAPIClient(cfg, api, logger, tracer)
}

// NewWithAPIClient creates a client with a custom API client.
// This is how tests inject mocks.
func NewWithAPIClient(cfg Config, api APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		cfg:    cfg,
		api:    api,
		auth:   newAuth(cfg, api, logger),
		logger: logger,
		tracer: tracer,
	}
}

// IsAuthenticated reports whether a valid cached token exists.
func (c *Client) IsAuthenticated() bool { return c.auth.IsAuthenticated() }

// ClearAuth drops the cached token.
func (c *Client) ClearAuth() { c.auth.ClearAuth() }

// TokenInfo describes the cached token state.
func (c *Client) TokenInfo() TokenInfo { return c.auth.TokenInfo() }

// CreateOrder validates and books an adhoc order. Validation failures name
// every missing field and make no provider call, not even the login.
func (c *Client) CreateOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error) {
	if missing := MissingOrderFields(req); len(missing) > 0 {
		return nil, newValidationError(missing)
	}

	ctx, span := c.startSpan(ctx, "shiprocket.CreateOrder")
	defer span.End()

	c.logger.Info("Creating Shiprocket order",
		zap.String("order_id", req.OrderID),
		zap.String("pickup_location", req.PickupLocation),
		zap.Int("items", len(req.OrderItems)),
		zap.String("payment_method", req.PaymentMethod),
	)

	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	return c.api.CreateOrder(ctx, token, req)
}

// CancelOrders cancels provider orders by id.
func (c *Client) CancelOrders(ctx context.Context, ids []int64) (json.RawMessage, error) {
	c.logger.Info("Cancelling Shiprocket orders", zap.Int64s("ids", ids))

	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	return c.api.CancelOrders(ctx, token, ids)
}

// GeneratePickup requests courier pickup for booked shipments.
func (c *Client) GeneratePickup(ctx context.Context, shipmentIDs []int64) (json.RawMessage, error) {
	c.logger.Info("Generating Shiprocket pickup", zap.Int64s("shipment_ids", shipmentIDs))

	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	return c.api.AssignPickup(ctx, token, shipmentIDs)
}

// TrackByAWB fetches tracking data for an airway bill code.
func (c *Client) TrackByAWB(ctx context.Context, awb string) (*TrackingResponse, error) {
	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	return c.api.TrackByAWB(ctx, token, awb)
}

// TrackByOrderID fetches tracking data for a provider order id.
func (c *Client) TrackByOrderID(ctx context.Context, orderID int64) (*TrackingResponse, error) {
	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	return c.api.TrackByOrderID(ctx, token, orderID)
}

// PickupLocations lists the registered pickup locations.
func (c *Client) PickupLocations(ctx context.Context) (json.RawMessage, error) {
	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	return c.api.PickupLocations(ctx, token)
}

// AddPickupLocation registers a new pickup location.
func (c *Client) AddPickupLocation(ctx context.Context, req *PickupLocationRequest) (*PickupLocationResponse, error) {
	c.logger.Info("Adding Shiprocket pickup location",
		zap.String("pickup_location", req.PickupLocation),
	)

	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	return c.api.AddPickupLocation(ctx, token, req)
}

// CreateVendorPickupLocation derives a pickup location from a vendor record
// and registers it. A location that "already exists and is inactive" on the
// provider side counts as success. Returns the deterministic location name.
func (c *Client) CreateVendorPickupLocation(ctx context.Context, vendor *Vendor) (string, error) {
	addr := vendor.PickupAddress()
	if addr == nil {
		return "", &APIError{
			Kind:       KindValidation,
			Message:    "Vendor address not found",
			StatusCode: 400,
			StatusText: "Bad Request",
			Fields:     []string{"store.address"},
		}
	}

	locationName := GenerateLocationName(vendor)
	req := &PickupLocationRequest{
		PickupLocation: locationName,
		Name:           vendor.Name,
		Email:          vendor.Email,
		Phone:          vendor.Store.Contact,
		Address:        SanitizeAddressLine(strings.TrimSpace(addr.AddressLine1)),
		Address2:       strings.TrimSpace(firstNonEmpty(addr.AddressLine2, addr.Locality)),
		City:           strings.TrimSpace(firstNonEmpty(addr.City, addr.AddressLine2, addr.Locality)),
		State:          strings.TrimSpace(addr.State),
		Country:        "India",
		PinCode:        string(addr.Pincode),
	}

	_, err := c.AddPickupLocation(ctx, req)
	if err != nil {
		apiErr := AsAPIError(err)
		if strings.Contains(apiErr.Message, "already exists and is inactive") ||
			strings.Contains(apiErr.RawBody, "already exists and is inactive") {
			return locationName, nil
		}
		return "", err
	}
	return locationName, nil
}

// UpdateVendorPickupLocation re-derives a vendor's pickup location after its
// details changed. When the derived name matches the old one there is nothing
// to register; otherwise a fresh location is created under the new name.
// The bool reports whether a new registration happened.
func (c *Client) UpdateVendorPickupLocation(ctx context.Context, vendor *Vendor, oldLocationName string) (string, bool, error) {
	locationName := GenerateLocationName(vendor)
	if oldLocationName != "" && locationName == oldLocationName {
		return locationName, false, nil
	}

	name, err := c.CreateVendorPickupLocation(ctx, vendor)
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

// CalculateRates queries serviceability for the lane and normalizes the
// courier quotes, sorted ascending by total rate.
func (c *Client) CalculateRates(ctx context.Context, req *RateRequest) (*RateResponse, error) {
	ctx, span := c.startSpan(ctx, "shiprocket.CalculateRates")
	defer span.End()

	normalized := *req
	if normalized.Length <= 0 {
		normalized.Length = int(DefaultPackage.LengthCM)
	}
	if normalized.Breadth <= 0 {
		normalized.Breadth = int(DefaultPackage.BreadthCM)
	}
	if normalized.Height <= 0 {
		normalized.Height = int(DefaultPackage.HeightCM)
	}
	if normalized.DeclaredValue <= 0 {
		normalized.DeclaredValue = 100
	}

	c.logger.Info("Calculating Shiprocket rates",
		zap.String("pickup_postcode", normalized.PickupPostcode),
		zap.String("delivery_postcode", normalized.DeliveryPostcode),
		zap.Float64("weight", normalized.Weight),
	)

	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.api.Serviceability(ctx, token, &normalized)
	if err != nil {
		return nil, err
	}

	rates := normalizeRates(resp.Data.AvailableCourierCompanies)
	c.logger.Info("Calculated Shiprocket rates", zap.Int("count", len(rates)))

	return &RateResponse{
		Rates:       rates,
		RequestData: normalized,
	}, nil
}

// PrintInvoice generates invoices for provider orders.
func (c *Client) PrintInvoice(ctx context.Context, orderIDs []string) (*InvoiceResponse, error) {
	c.logger.Info("Generating Shiprocket invoices", zap.Strings("order_ids", orderIDs))

	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	return c.api.PrintInvoice(ctx, token, orderIDs)
}

func (c *Client) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if c.tracer == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return c.tracer.Start(ctx, name)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// ============================================================================
// Vendor records (typed replacements for the upstream catalogue documents)
// ============================================================================

// Vendor is the seller record pickup locations are derived from.
type Vendor struct {
	ID    string      `json:"_id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Store VendorStore `json:"store"`
}

// VendorStore carries the storefront details of a vendor.
type VendorStore struct {
	StoreName string         `json:"storeName"`
	Contact   string         `json:"contact"`
	Address   *VendorAddress `json:"address,omitempty"`
	Addresses *VendorAddress `json:"addresses,omitempty"`
}

// VendorAddress is a vendor's physical address. Pincode tolerates numeric
// encoding because upstream documents are inconsistent about it.
type VendorAddress struct {
	AddressLine1 string     `json:"address_line_1"`
	AddressLine2 string     `json:"address_line_2,omitempty"`
	Locality     string     `json:"locality,omitempty"`
	City         string     `json:"city"`
	State        string     `json:"state"`
	Pincode      flexString `json:"pincode"`
}

// PickupAddress resolves the vendor address across the two upstream field
// variants, preferring the singular one.
func (v *Vendor) PickupAddress() *VendorAddress {
	if v.Store.Address != nil {
		return v.Store.Address
	}
	return v.Store.Addresses
}
