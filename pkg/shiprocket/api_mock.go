package shiprocket

import (
	"context"
	"encoding/json"
	"time"
)

// MockAPIClient is a mock implementation of APIClient for testing.
// Zero value returns canned success responses; individual operations can be
// overridden through the On* hooks. Call counters let tests assert how many
// provider calls an operation made.
type MockAPIClient struct {
	SimulateErrors bool

	LoginCalls          int
	CreateOrderCalls    int
	CancelOrdersCalls   int
	AssignPickupCalls   int
	TrackCalls          int
	PickupCalls         int
	ServiceabilityCalls int
	PrintInvoiceCalls   int

	OnLogin             func(ctx context.Context, req *AuthRequest) (*AuthResponse, error)
	OnCreateOrder       func(ctx context.Context, token string, req *OrderRequest) (*OrderResponse, error)
	OnCancelOrders      func(ctx context.Context, token string, ids []int64) (json.RawMessage, error)
	OnAssignPickup      func(ctx context.Context, token string, shipmentIDs []int64) (json.RawMessage, error)
	OnTrackByAWB        func(ctx context.Context, token, awb string) (*TrackingResponse, error)
	OnTrackByOrderID    func(ctx context.Context, token string, orderID int64) (*TrackingResponse, error)
	OnPickupLocations   func(ctx context.Context, token string) (json.RawMessage, error)
	OnAddPickupLocation func(ctx context.Context, token string, req *PickupLocationRequest) (*PickupLocationResponse, error)
	OnServiceability    func(ctx context.Context, token string, req *RateRequest) (*ServiceabilityResponse, error)
	OnPrintInvoice      func(ctx context.Context, token string, orderIDs []string) (*InvoiceResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

func (m *MockAPIClient) err() error {
	return newTransportError(500, "Internal Server Error", `{"message":"simulated provider error"}`)
}

// Login returns a mock bearer token.
func (m *MockAPIClient) Login(ctx context.Context, req *AuthRequest) (*AuthResponse, error) {
	m.LoginCalls++

	if m.SimulateErrors {
		return nil, newTransportError(401, "Unauthorized", `{"message":"invalid credentials"}`)
	}
	if m.OnLogin != nil {
		return m.OnLogin(ctx, req)
	}

	return &AuthResponse{
		Token:     "mock-token-1234567890",
		FirstName: "Mock",
		LastName:  "Seller",
		Email:     req.Email,
		CompanyID: 4242,
	}, nil
}

// CreateOrder returns a mock booked order.
func (m *MockAPIClient) CreateOrder(ctx context.Context, token string, req *OrderRequest) (*OrderResponse, error) {
	m.CreateOrderCalls++

	if m.SimulateErrors {
		return nil, m.err()
	}
	if m.OnCreateOrder != nil {
		return m.OnCreateOrder(ctx, token, req)
	}

	return &OrderResponse{
		OrderID:    712345678,
		ShipmentID: 708765432,
		Status:     "NEW",
		StatusCode: 1,
	}, nil
}

// CancelOrders returns a mock cancellation acknowledgement.
func (m *MockAPIClient) CancelOrders(ctx context.Context, token string, ids []int64) (json.RawMessage, error) {
	m.CancelOrdersCalls++

	if m.SimulateErrors {
		return nil, m.err()
	}
	if m.OnCancelOrders != nil {
		return m.OnCancelOrders(ctx, token, ids)
	}

	return json.RawMessage(`{"message":"Orders cancellation is in progress"}`), nil
}

// AssignPickup returns a mock pickup confirmation.
func (m *MockAPIClient) AssignPickup(ctx context.Context, token string, shipmentIDs []int64) (json.RawMessage, error) {
	m.AssignPickupCalls++

	if m.SimulateErrors {
		return nil, m.err()
	}
	if m.OnAssignPickup != nil {
		return m.OnAssignPickup(ctx, token, shipmentIDs)
	}

	return json.RawMessage(`{"pickup_status":1}`), nil
}

// TrackByAWB returns mock tracking data.
func (m *MockAPIClient) TrackByAWB(ctx context.Context, token, awb string) (*TrackingResponse, error) {
	m.TrackCalls++

	if m.SimulateErrors {
		return nil, m.err()
	}
	if m.OnTrackByAWB != nil {
		return m.OnTrackByAWB(ctx, token, awb)
	}

	return m.mockTracking(awb), nil
}

// TrackByOrderID returns mock tracking data.
func (m *MockAPIClient) TrackByOrderID(ctx context.Context, token string, orderID int64) (*TrackingResponse, error) {
	m.TrackCalls++

	if m.SimulateErrors {
		return nil, m.err()
	}
	if m.OnTrackByOrderID != nil {
		return m.OnTrackByOrderID(ctx, token, orderID)
	}

	return m.mockTracking("AWB123456789"), nil
}

func (m *MockAPIClient) mockTracking(awb string) *TrackingResponse {
	now := time.Now().UTC().Format("2006-01-02 15:04:05")

	return &TrackingResponse{
		TrackingData: TrackingData{
			TrackStatus:    1,
			ShipmentStatus: "IN_TRANSIT",
			ShipmentTrack: []ShipmentTrack{
				{
					ID:               1001,
					AWBCode:          awb,
					CourierCompanyID: 51,
					CourierName:      "Mock Express",
					ShipmentID:       708765432,
					OrderID:          712345678,
					CurrentStatus:    "IN_TRANSIT",
					Destination:      "Mumbai",
					Origin:           "Ahmedabad",
					ConsigneeName:    "Mock Buyer",
				},
			},
			ShipmentTrackActivities: []TrackActivity{
				{Date: now, Status: "PKD", Activity: "Picked up", Location: "Ahmedabad"},
				{Date: now, Status: "IT", Activity: "In transit", Location: "Surat"},
			},
		},
	}
}

// PickupLocations returns a mock location list.
func (m *MockAPIClient) PickupLocations(ctx context.Context, token string) (json.RawMessage, error) {
	m.PickupCalls++

	if m.SimulateErrors {
		return nil, m.err()
	}
	if m.OnPickupLocations != nil {
		return m.OnPickupLocations(ctx, token)
	}

	return json.RawMessage(`{"data":{"shipping_address":[{"pickup_location":"Primary","city":"Ahmedabad"}]}}`), nil
}

// AddPickupLocation returns a mock registration result.
func (m *MockAPIClient) AddPickupLocation(ctx context.Context, token string, req *PickupLocationRequest) (*PickupLocationResponse, error) {
	m.PickupCalls++

	if m.SimulateErrors {
		return nil, m.err()
	}
	if m.OnAddPickupLocation != nil {
		return m.OnAddPickupLocation(ctx, token, req)
	}

	return &PickupLocationResponse{
		Success:  true,
		Message:  "Address added successfully",
		PickupID: 9001,
	}, nil
}

// Serviceability returns mock courier quotes.
func (m *MockAPIClient) Serviceability(ctx context.Context, token string, req *RateRequest) (*ServiceabilityResponse, error) {
	m.ServiceabilityCalls++

	if m.SimulateErrors {
		return nil, m.err()
	}
	if m.OnServiceability != nil {
		return m.OnServiceability(ctx, token, req)
	}

	etdSoon := time.Now().AddDate(0, 0, 2).Format("2006-01-02 15:04:05")
	etdLate := time.Now().AddDate(0, 0, 5).Format("2006-01-02 15:04:05")

	resp := &ServiceabilityResponse{Status: 200}
	resp.Data.AvailableCourierCompanies = []CourierCompany{
		{CourierCompanyID: 51, CourierName: "Mock Express", Rate: 95, FreightCharge: 110, CODCharges: 25, OtherCharges: 5, ETD: etdSoon},
		{CourierCompanyID: 24, CourierName: "Mock Surface", Rate: 60, FreightCharge: 72, CODCharges: 20, OtherCharges: 3, ETD: etdLate},
	}
	return resp, nil
}

// PrintInvoice returns a mock invoice result.
func (m *MockAPIClient) PrintInvoice(ctx context.Context, token string, orderIDs []string) (*InvoiceResponse, error) {
	m.PrintInvoiceCalls++

	if m.SimulateErrors {
		return nil, m.err()
	}
	if m.OnPrintInvoice != nil {
		return m.OnPrintInvoice(ctx, token, orderIDs)
	}

	return &InvoiceResponse{
		IsInvoiceCreated: true,
		InvoiceURL:       "https://cdn.example.com/invoices/mock.pdf",
		NotCreated:       []string{},
	}, nil
}

// Ensure MockAPIClient implements APIClient.
var _ APIClient = (*MockAPIClient)(nil)
