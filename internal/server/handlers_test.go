package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/shipbridge/internal/config"
	"github.com/tournevent/shipbridge/internal/server"
	"github.com/tournevent/shipbridge/internal/telemetry"
	"github.com/tournevent/shipbridge/pkg/shiprocket"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Prometheus collectors register globally, so the suite shares one instance.
var testMetrics = telemetry.NewMetrics()

func newTestServer(t *testing.T) (*server.Server, *shiprocket.MockAPIClient) {
	t.Helper()

	logger := otelzap.New(zap.NewNop())
	mockAPI := shiprocket.NewMockAPIClient()
	client := shiprocket.NewWithAPIClient(shiprocket.Config{
		BaseURL:  "https://apiv2.shiprocket.in/v1/external",
		Email:    "seller@example.com",
		Password: "secret",
	}, mockAPI, logger, nil)

	cfg := &config.Config{CronSecret: "cron-secret"}
	return server.New(server.Config{Port: 8080}, client, cfg, logger, testMetrics), mockAPI
}

func doJSON(t *testing.T, srv *server.Server, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec, resp
}

func validOrderBody() map[string]any {
	return map[string]any{
		"order_id":              "ORD-1001",
		"order_date":            "2025-06-01 12:30",
		"pickup_location":       "Primary",
		"billing_customer_name": "Asha",
		"billing_address":       "House No. 12, MG Road",
		"billing_city":          "Ahmedabad",
		"billing_pincode":       "380001",
		"billing_state":         "Gujarat",
		"billing_country":       "India",
		"billing_email":         "asha@example.com",
		"billing_phone":         "9876543210",
		"shipping_is_billing":   true,
		"order_items": []map[string]any{
			{"name": "Mug", "sku": "MUG-01", "units": 2, "selling_price": 250},
		},
		"payment_method": "Prepaid",
		"sub_total":      500,
		"length":         10,
		"breadth":        10,
		"height":         10,
		"weight":         0.5,
	}
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", resp["status"])
}

func TestServer_CreateOrder_Success(t *testing.T) {
	srv, mockAPI := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodPost, "/shiprocket/orders", validOrderBody())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])

	data, ok := resp["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(712345678), data["order_id"])
	assert.Equal(t, float64(708765432), data["shipment_id"])
	assert.Equal(t, "NEW", data["status"])

	assert.Equal(t, 1, mockAPI.LoginCalls)
	assert.Equal(t, 1, mockAPI.CreateOrderCalls)
}

func TestServer_CreateOrder_MissingFields(t *testing.T) {
	srv, mockAPI := newTestServer(t)

	body := validOrderBody()
	delete(body, "billing_pincode")
	delete(body, "weight")

	rec, resp := doJSON(t, srv, http.MethodPost, "/shiprocket/orders", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, resp["success"])
	errMsg, _ := resp["error"].(string)
	assert.Contains(t, errMsg, "Missing required fields:")
	assert.Contains(t, errMsg, "billing_pincode")
	assert.Contains(t, errMsg, "weight")

	// Validation short-circuits before any provider traffic.
	assert.Equal(t, 0, mockAPI.LoginCalls)
	assert.Equal(t, 0, mockAPI.CreateOrderCalls)
}

func TestServer_CreateOrder_InvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/shiprocket/orders", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_AuthStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodGet, "/shiprocket/auth/status", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])

	token, ok := resp["token"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, token["hasToken"])
	assert.Equal(t, false, token["isValid"])
}

func TestServer_AuthStatus_AfterOperation(t *testing.T) {
	srv, _ := newTestServer(t)

	_, _ = doJSON(t, srv, http.MethodPost, "/shiprocket/orders", validOrderBody())
	rec, resp := doJSON(t, srv, http.MethodGet, "/shiprocket/auth/status", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	token := resp["token"].(map[string]any)
	assert.Equal(t, true, token["hasToken"])
	assert.Equal(t, true, token["isValid"])
	assert.NotEmpty(t, token["expires"])
}

func TestServer_CancelOrders(t *testing.T) {
	srv, mockAPI := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodPost, "/shiprocket/orders/cancel", map[string]any{"ids": []int64{712345678}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, 1, mockAPI.CancelOrdersCalls)
}

func TestServer_CancelOrders_EmptyIDs(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodPost, "/shiprocket/orders/cancel", map[string]any{"ids": []int64{}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, resp["success"])
}

func TestServer_DownloadInvoice(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodPost, "/shiprocket/orders/invoice/download", map[string]any{"ids": []string{"712345678"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
	assert.NotEmpty(t, resp["invoice_url"])
}

func TestServer_DownloadInvoice_NotCreated(t *testing.T) {
	srv, mockAPI := newTestServer(t)
	mockAPI.OnPrintInvoice = func(ctx context.Context, token string, orderIDs []string) (*shiprocket.InvoiceResponse, error) {
		return &shiprocket.InvoiceResponse{IsInvoiceCreated: false, NotCreated: orderIDs}, nil
	}

	rec, resp := doJSON(t, srv, http.MethodPost, "/shiprocket/orders/invoice/download", map[string]any{"ids": []string{"712345678"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invoice not created", resp["error"])
}

func TestServer_TrackByAWB(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodGet, "/shiprocket/tracking/awb/AWB123", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
}

func TestServer_TrackByOrderID_InvalidID(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodGet, "/shiprocket/tracking/order/not-a-number", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid order id", resp["error"])
}

func TestServer_TrackAdvanced_HistoryReversed(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodGet, "/shiprocket/track/AWB123?type=awb", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, false, resp["emailSent"])

	data := resp["data"].(map[string]any)
	assert.Equal(t, "AWB123", data["awb"])
	assert.Equal(t, "IN_TRANSIT", data["current_status"])
	assert.Equal(t, "shipped", data["system_status"])

	// Mock history is oldest-first (Picked up, In transit); the endpoint
	// serves it most-recent-first.
	history := data["history"].([]any)
	require.Len(t, history, 2)
	first := history[0].(map[string]any)
	assert.Equal(t, "In transit", first["activity"])
}

func TestServer_TrackAdvanced_SendEmail(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodGet, "/shiprocket/track/AWB123?sendEmail=true", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["emailSent"])
}

func TestServer_TrackAdvanced_NoShipment(t *testing.T) {
	srv, mockAPI := newTestServer(t)
	mockAPI.OnTrackByAWB = func(ctx context.Context, token, awb string) (*shiprocket.TrackingResponse, error) {
		return &shiprocket.TrackingResponse{}, nil
	}

	rec, resp := doJSON(t, srv, http.MethodGet, "/shiprocket/track/AWB404", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "No tracking information found", resp["error"])
}

func TestServer_TrackAdvanced_ByOrder(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodGet, "/shiprocket/track/712345678?type=order", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
}

func TestServer_Pickups(t *testing.T) {
	srv, mockAPI := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodGet, "/shiprocket/pickups", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])

	rec, resp = doJSON(t, srv, http.MethodPost, "/shiprocket/pickups", map[string]any{
		"pickup_location": "Warehouse_2",
		"name":            "Asha Patel",
		"phone":           "9876543210",
		"address":         "House No. 12, MG Road",
		"city":            "Ahmedabad",
		"state":           "Gujarat",
		"country":         "India",
		"pin_code":        "380001",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, 2, mockAPI.PickupCalls)
}

func TestServer_VendorPickup(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodPost, "/shiprocket/pickups/vendor", map[string]any{
		"vendor": map[string]any{
			"_id":   "64a1f0b2c3d4e5f6a7b8c9d0",
			"name":  "Asha Patel",
			"email": "store@example.com",
			"store": map[string]any{
				"storeName": "Asha's Handmade",
				"contact":   "9876543210",
				"address": map[string]any{
					"address_line_1": "12 MG Marg",
					"city":           "Ahmedabad",
					"state":          "Gujarat",
					"pincode":        380001,
				},
			},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
	name, _ := resp["location_name"].(string)
	assert.NotEmpty(t, name)
	assert.LessOrEqual(t, len(name), 36)
}

func TestServer_VendorPickup_MissingAddressAnswers200(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodPost, "/shiprocket/pickups/vendor", map[string]any{
		"vendor": map[string]any{"_id": "x", "store": map[string]any{"storeName": "S"}},
	})

	// Vendor failures are soft: HTTP 200 with success:false.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Vendor address not found", resp["error"])
}

func TestServer_CalculateRates(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodPost, "/shiprocket/rates/calculate", map[string]any{
		"pickup_postcode":   "380001",
		"delivery_postcode": "400001",
		"weight":            1.5,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])

	data := resp["data"].(map[string]any)
	rates := data["rates"].([]any)
	require.Len(t, rates, 2)
	first := rates[0].(map[string]any)
	assert.Equal(t, 72.0, first["total_rate"])
}

func TestServer_CalculateRates_MissingParams(t *testing.T) {
	srv, mockAPI := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodPost, "/shiprocket/rates/calculate", map[string]any{
		"pickup_postcode": "380001",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errMsg, _ := resp["error"].(string)
	assert.Contains(t, errMsg, "Missing required parameters:")
	assert.Contains(t, errMsg, "delivery_postcode")
	assert.Contains(t, errMsg, "weight")
	assert.Equal(t, 0, mockAPI.ServiceabilityCalls)
}

func TestServer_ApplyRate(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodPost, "/shiprocket/apply-rate", map[string]any{
		"order_id":     "ORD-1001",
		"courier_name": "Mock Surface",
		"total_rate":   72.0,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
	applied := resp["applied_rate"].(map[string]any)
	assert.Equal(t, "Mock Surface", applied["courier_name"])
}

func TestServer_Webhook(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodPost, "/shiprocket/webhook", map[string]any{
		"order_id":       712345678,
		"shipment_id":    708765432,
		"current_status": "OUT_FOR_DELIVERY",
		"awb":            "AWB123",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "out for delivery", resp["status"])
	assert.Equal(t, true, resp["notify"])
}

func TestServer_Webhook_UnknownStatus(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodPost, "/shiprocket/webhook", map[string]any{
		"order_id":       712345678,
		"current_status": "SOMETHING_NEW",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "processing", resp["status"])
	assert.Equal(t, false, resp["notify"])
}

func TestServer_WebhookProbe(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodGet, "/shiprocket/webhook", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
}

func TestServer_SyncStatus_Unauthorized(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/shiprocket/sync-status", nil)
	req.Header.Set("Authorization", "Bearer wrong-secret")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Unauthorized", resp["message"])
}

func TestServer_SyncStatus_Authorized(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/shiprocket/sync-status", nil)
	req.Header.Set("Authorization", "Bearer cron-secret")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(0), resp["synced"])
}

func TestServer_SyncStatus_Metadata(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, resp := doJSON(t, srv, http.MethodGet, "/shiprocket/sync-status", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["enabled"])
}

func TestServer_ProviderFailureSurfacesStatus(t *testing.T) {
	srv, mockAPI := newTestServer(t)
	mockAPI.SimulateErrors = true

	rec, resp := doJSON(t, srv, http.MethodPost, "/shiprocket/orders", validOrderBody())

	// The failed login surfaces as 401 at the REST edge.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, resp["success"])
}
