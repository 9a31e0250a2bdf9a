package shiprocket

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
)

// APIClient defines the outbound Shiprocket API operations. The HTTP
// implementation is used in production; a hook-based mock serves tests.
type APIClient interface {
	// Login exchanges account credentials for a bearer token.
	Login(ctx context.Context, req *AuthRequest) (*AuthResponse, error)

	// CreateOrder books an adhoc order with the provider.
	CreateOrder(ctx context.Context, token string, req *OrderRequest) (*OrderResponse, error)

	// CancelOrders cancels provider orders by id.
	CancelOrders(ctx context.Context, token string, ids []int64) (json.RawMessage, error)

	// AssignPickup requests courier pickup for booked shipments.
	AssignPickup(ctx context.Context, token string, shipmentIDs []int64) (json.RawMessage, error)

	// TrackByAWB fetches tracking data for an airway bill code.
	TrackByAWB(ctx context.Context, token, awb string) (*TrackingResponse, error)

	// TrackByOrderID fetches tracking data for a provider order id.
	TrackByOrderID(ctx context.Context, token string, orderID int64) (*TrackingResponse, error)

	// PickupLocations lists the registered pickup locations.
	PickupLocations(ctx context.Context, token string) (json.RawMessage, error)

	// AddPickupLocation registers a new pickup location.
	AddPickupLocation(ctx context.Context, token string, req *PickupLocationRequest) (*PickupLocationResponse, error)

	// Serviceability queries courier availability and freight charges.
	Serviceability(ctx context.Context, token string, req *RateRequest) (*ServiceabilityResponse, error)

	// PrintInvoice generates invoices for provider orders.
	PrintInvoice(ctx context.Context, token string, orderIDs []string) (*InvoiceResponse, error)
}

// Provider endpoints, relative to the configured base URL.
const (
	endpointAuth           = "/auth/login"
	endpointCreateOrder    = "/orders/create/adhoc"
	endpointCancelOrder    = "/orders/cancel"
	endpointPrintInvoice   = "/orders/print/invoice"
	endpointTrackAWB       = "/courier/track/awb"
	endpointTrackByOrder   = "/courier/track"
	endpointAssignPickup   = "/courier/assign/pickup"
	endpointServiceability = "/courier/serviceability/"
	endpointAddPickup      = "/settings/company/addpickup"
	endpointPickups        = "/settings/company/pickup"
)

// ============================================================================
// Wire types (match the Shiprocket external API v1 schema)
// ============================================================================

// AuthRequest is the login payload.
type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the login response.
type AuthResponse struct {
	Token     string `json:"token"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	CompanyID int64  `json:"company_id"`
}

// OrderRequest is the adhoc order creation payload.
// ShippingIsBilling is a pointer so an absent flag is distinguishable from an
// explicit false during validation.
type OrderRequest struct {
	OrderID            string      `json:"order_id"`
	OrderDate          string      `json:"order_date"`
	PickupLocation     string      `json:"pickup_location"`
	ChannelID          string      `json:"channel_id"`
	Comment            string      `json:"comment,omitempty"`
	BillingCustomer    string      `json:"billing_customer_name"`
	BillingLastName    string      `json:"billing_last_name"`
	BillingAddress     string      `json:"billing_address"`
	BillingAddress2    string      `json:"billing_address_2,omitempty"`
	BillingCity        string      `json:"billing_city"`
	BillingPincode     string      `json:"billing_pincode"`
	BillingState       string      `json:"billing_state"`
	BillingCountry     string      `json:"billing_country"`
	BillingEmail       string      `json:"billing_email"`
	BillingPhone       string      `json:"billing_phone"`
	ShippingIsBilling  *bool       `json:"shipping_is_billing"`
	ShippingCustomer   string      `json:"shipping_customer_name,omitempty"`
	ShippingLastName   string      `json:"shipping_last_name,omitempty"`
	ShippingAddress    string      `json:"shipping_address,omitempty"`
	ShippingAddress2   string      `json:"shipping_address_2,omitempty"`
	ShippingCity       string      `json:"shipping_city,omitempty"`
	ShippingPincode    string      `json:"shipping_pincode,omitempty"`
	ShippingState      string      `json:"shipping_state,omitempty"`
	ShippingCountry    string      `json:"shipping_country,omitempty"`
	ShippingEmail      string      `json:"shipping_email,omitempty"`
	ShippingPhone      string      `json:"shipping_phone,omitempty"`
	OrderItems         []OrderItem `json:"order_items"`
	PaymentMethod      string      `json:"payment_method"` // "COD" or "Prepaid"
	ShippingCharges    float64     `json:"shipping_charges"`
	GiftwrapCharges    float64     `json:"giftwrap_charges,omitempty"`
	TransactionCharges float64     `json:"transaction_charges,omitempty"`
	TotalDiscount      float64     `json:"total_discount,omitempty"`
	SubTotal           float64     `json:"sub_total"`
	Length             float64     `json:"length"`
	Breadth            float64     `json:"breadth"`
	Height             float64     `json:"height"`
	Weight             float64     `json:"weight"`
}

// OrderItem is a line item within an order payload.
type OrderItem struct {
	Name         string  `json:"name"`
	SKU          string  `json:"sku"`
	Units        int     `json:"units"`
	SellingPrice float64 `json:"selling_price"`
	Discount     float64 `json:"discount,omitempty"`
	Tax          float64 `json:"tax,omitempty"`
	HSN          int64   `json:"hsn,omitempty"`
}

// OrderResponse is the provider's order creation result.
type OrderResponse struct {
	OrderID                int64  `json:"order_id"`
	ShipmentID             int64  `json:"shipment_id"`
	Status                 string `json:"status"`
	StatusCode             int    `json:"status_code"`
	OnboardingCompletedNow int    `json:"onboarding_completed_now"`
	AWBCode                string `json:"awb_code"`
	CourierCompanyID       int64  `json:"courier_company_id"`
	CourierName            string `json:"courier_name"`
}

// TrackingResponse wraps the provider's tracking data envelope.
type TrackingResponse struct {
	TrackingData TrackingData `json:"tracking_data"`
}

// TrackingData carries the shipment record and its activity history.
type TrackingData struct {
	TrackStatus             int             `json:"track_status"`
	ShipmentStatus          string          `json:"shipment_status"`
	ShipmentTrack           []ShipmentTrack `json:"shipment_track"`
	ShipmentTrackActivities []TrackActivity `json:"shipment_track_activities"`
}

// ShipmentTrack is a single tracked shipment record.
type ShipmentTrack struct {
	ID               int64  `json:"id"`
	AWBCode          string `json:"awb_code"`
	CourierCompanyID int64  `json:"courier_company_id"`
	CourierName      string `json:"courier_name"`
	ShipmentID       int64  `json:"shipment_id"`
	OrderID          int64  `json:"order_id"`
	PickupDate       string `json:"pickup_date"`
	DeliveredDate    string `json:"delivered_date"`
	Weight           string `json:"weight"`
	Packages         int    `json:"packages"`
	CurrentStatus    string `json:"current_status"`
	DeliveredTo      string `json:"delivered_to"`
	Destination      string `json:"destination"`
	ConsigneeName    string `json:"consignee_name"`
	Origin           string `json:"origin"`
	EDD              string `json:"edd"`
}

// TrackActivity is one scan event in a shipment's history.
type TrackActivity struct {
	Date     string `json:"date"`
	Status   string `json:"status"`
	Activity string `json:"activity"`
	Location string `json:"location"`
}

// PickupLocationRequest registers a pickup origin with the provider.
type PickupLocationRequest struct {
	PickupLocation string `json:"pickup_location"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	Address2       string `json:"address_2,omitempty"`
	City           string `json:"city"`
	State          string `json:"state"`
	Country        string `json:"country"`
	PinCode        string `json:"pin_code"`
}

// PickupLocationResponse is the provider's registration result.
type PickupLocationResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	PickupID int64  `json:"pickup_id,omitempty"`
}

// RateRequest is the serviceability / rate calculation input.
type RateRequest struct {
	PickupPostcode   string  `json:"pickup_postcode"`
	DeliveryPostcode string  `json:"delivery_postcode"`
	Weight           float64 `json:"weight"`
	Length           int     `json:"length,omitempty"`
	Breadth          int     `json:"breadth,omitempty"`
	Height           int     `json:"height,omitempty"`
	COD              int     `json:"cod,omitempty"`
	DeclaredValue    float64 `json:"declared_value,omitempty"`
}

// ServiceabilityResponse mirrors the raw serviceability answer.
type ServiceabilityResponse struct {
	Status int `json:"status"`
	Data   struct {
		AvailableCourierCompanies []CourierCompany `json:"available_courier_companies"`
	} `json:"data"`
}

// CourierCompany is a raw courier quote. The provider is inconsistent about
// numeric encoding, so charge fields tolerate both numbers and strings.
type CourierCompany struct {
	CourierCompanyID    int64     `json:"courier_company_id"`
	CourierName         string    `json:"courier_name"`
	Rate                flexFloat `json:"rate"`
	FreightCharge       flexFloat `json:"freight_charge"`
	CODCharges          flexFloat `json:"cod_charges"`
	OtherCharges        flexFloat `json:"other_charges"`
	ETD                 string    `json:"etd"`
	Description         string    `json:"description"`
	PickupPerformance   float64   `json:"pickup_performance"`
	DeliveryPerformance float64   `json:"delivery_performance"`
}

// CourierRate is the normalized courier quote exposed to callers.
type CourierRate struct {
	CourierName           string  `json:"courier_name"`
	Rate                  float64 `json:"rate"`
	EstimatedDeliveryDate string  `json:"estimated_delivery_date"`
	CODCharges            float64 `json:"cod_charges"`
	FuelSurcharge         float64 `json:"fuel_surcharge"`
	TotalRate             float64 `json:"total_rate"`
	Description           string  `json:"description,omitempty"`
	PickupPerformance     float64 `json:"pickup_performance,omitempty"`
	DeliveryPerformance   float64 `json:"delivery_performance,omitempty"`
}

// RateResponse is the normalized rate calculation result.
type RateResponse struct {
	Rates       []CourierRate `json:"rates"`
	RequestData RateRequest   `json:"request_data"`
}

// InvoiceResponse is the provider's invoice generation result.
type InvoiceResponse struct {
	IsInvoiceCreated bool     `json:"is_invoice_created"`
	InvoiceURL       string   `json:"invoice_url"`
	NotCreated       []string `json:"not_created"`
	IRNNo            string   `json:"irn_no"`
}

// WebhookPayload is the status-update payload pushed by the provider.
// Some webhook variants send "awb" instead of "awb_code".
type WebhookPayload struct {
	OrderID        int64           `json:"order_id"`
	ShipmentID     int64           `json:"shipment_id"`
	CurrentStatus  string          `json:"current_status"`
	DeliveredDate  string          `json:"delivered_date,omitempty"`
	PickupDate     string          `json:"pickup_date,omitempty"`
	AWB            string          `json:"awb,omitempty"`
	AWBCode        string          `json:"awb_code,omitempty"`
	CourierName    string          `json:"courier_name"`
	TrackStatus    int             `json:"track_status"`
	ShipmentStatus string          `json:"shipment_status"`
	Scans          []TrackActivity `json:"scans,omitempty"`
}

// AWBValue returns the airway bill regardless of which field variant was sent.
func (p *WebhookPayload) AWBValue() string {
	if p.AWB != "" {
		return p.AWB
	}
	return p.AWBCode
}

// flexFloat decodes JSON numbers and numeric strings alike.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// flexString decodes JSON strings and bare numbers alike.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = flexString(v)
		return nil
	}
	*f = flexString(s)
	return nil
}
