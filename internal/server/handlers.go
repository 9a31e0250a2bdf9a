package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tournevent/shipbridge/pkg/shiprocket"
	"go.uber.org/zap"
)

// renderError maps a provider/SDK error onto the uniform REST envelope.
func (s *Server) renderError(c *gin.Context, operation string, err error) {
	apiErr := shiprocket.AsAPIError(err)
	s.metrics.RecordProviderError(operation, string(apiErr.Kind))
	s.logger.Warn("operation failed",
		zap.String("operation", operation),
		zap.String("kind", string(apiErr.Kind)),
		zap.Int("provider_status", apiErr.StatusCode),
		zap.String("error", apiErr.Message),
	)
	c.JSON(apiErr.HTTPStatus(), gin.H{"success": false, "error": apiErr.Message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": message})
}

// GET /shiprocket/auth/status
func (s *Server) handleAuthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   s.client.TokenInfo(),
	})
}

// POST /shiprocket/orders
func (s *Server) handleCreateOrder(c *gin.Context) {
	var req shiprocket.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := s.client.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		s.renderError(c, "create_order", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

// POST /shiprocket/orders/cancel
func (s *Server) handleCancelOrders(c *gin.Context) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		badRequest(c, "Missing required fields: ids")
		return
	}

	raw, err := s.client.CancelOrders(c.Request.Context(), req.IDs)
	if err != nil {
		s.renderError(c, "cancel_orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": raw})
}

// POST /shiprocket/orders/invoice
func (s *Server) handleGenerateInvoice(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		badRequest(c, "Missing required fields: ids")
		return
	}

	resp, err := s.client.PrintInvoice(c.Request.Context(), req.IDs)
	if err != nil {
		s.renderError(c, "print_invoice", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

// POST /shiprocket/orders/invoice/download
func (s *Server) handleDownloadInvoice(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		badRequest(c, "Missing required fields: ids")
		return
	}

	resp, err := s.client.PrintInvoice(c.Request.Context(), req.IDs)
	if err != nil {
		s.renderError(c, "print_invoice", err)
		return
	}
	if !resp.IsInvoiceCreated || resp.InvoiceURL == "" {
		badRequest(c, "Invoice not created")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "invoice_url": resp.InvoiceURL})
}

// GET /shiprocket/tracking/awb/:awb
func (s *Server) handleTrackByAWB(c *gin.Context) {
	awb := c.Param("awb")
	if awb == "" {
		badRequest(c, "Missing required fields: awb")
		return
	}

	resp, err := s.client.TrackByAWB(c.Request.Context(), awb)
	if err != nil {
		s.renderError(c, "track_awb", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

// GET /shiprocket/tracking/order/:orderId
func (s *Server) handleTrackByOrderID(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil {
		badRequest(c, "Invalid order id")
		return
	}

	resp, err := s.client.TrackByOrderID(c.Request.Context(), orderID)
	if err != nil {
		s.renderError(c, "track_order", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

// trackedShipment is the formatted tracking view served by /track/:id.
type trackedShipment struct {
	AWB           string                     `json:"awb"`
	CourierName   string                     `json:"courier_name"`
	CurrentStatus string                     `json:"current_status"`
	SystemStatus  string                     `json:"system_status"`
	Origin        string                     `json:"origin"`
	Destination   string                     `json:"destination"`
	PickupDate    string                     `json:"pickup_date,omitempty"`
	DeliveredDate string                     `json:"delivered_date,omitempty"`
	EDD           string                     `json:"estimated_delivery,omitempty"`
	History       []shiprocket.TrackActivity `json:"history"`
}

// GET /shiprocket/track/:id?type=order|awb&sendEmail=
func (s *Server) handleTrackAdvanced(c *gin.Context) {
	id := c.Param("id")
	trackType := c.DefaultQuery("type", "awb")

	var (
		resp *shiprocket.TrackingResponse
		err  error
	)
	switch trackType {
	case "order":
		orderID, parseErr := strconv.ParseInt(id, 10, 64)
		if parseErr != nil {
			badRequest(c, "Invalid order id")
			return
		}
		resp, err = s.client.TrackByOrderID(c.Request.Context(), orderID)
	case "awb":
		resp, err = s.client.TrackByAWB(c.Request.Context(), id)
	default:
		badRequest(c, "Invalid track type: "+trackType)
		return
	}
	if err != nil {
		s.renderError(c, "track_advanced", err)
		return
	}

	if len(resp.TrackingData.ShipmentTrack) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "No tracking information found"})
		return
	}

	track := resp.TrackingData.ShipmentTrack[0]

	// Provider history is oldest-first; callers want the latest scan on top.
	activities := resp.TrackingData.ShipmentTrackActivities
	history := make([]shiprocket.TrackActivity, 0, len(activities))
	for i := len(activities) - 1; i >= 0; i-- {
		history = append(history, activities[i])
	}

	emailSent := false
	if c.Query("sendEmail") == "true" {
		s.logger.Info("Tracking email requested",
			zap.String("awb", track.AWBCode),
			zap.String("status", track.CurrentStatus),
		)
		emailSent = true
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"emailSent": emailSent,
		"data": trackedShipment{
			AWB:           track.AWBCode,
			CourierName:   track.CourierName,
			CurrentStatus: track.CurrentStatus,
			SystemStatus:  shiprocket.MapStatusToSystem(track.CurrentStatus),
			Origin:        track.Origin,
			Destination:   track.Destination,
			PickupDate:    track.PickupDate,
			DeliveredDate: track.DeliveredDate,
			EDD:           track.EDD,
			History:       history,
		},
	})
}

// GET /shiprocket/pickups
func (s *Server) handleListPickups(c *gin.Context) {
	raw, err := s.client.PickupLocations(c.Request.Context())
	if err != nil {
		s.renderError(c, "list_pickups", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": raw})
}

// POST /shiprocket/pickups
func (s *Server) handleAddPickup(c *gin.Context) {
	var req shiprocket.PickupLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	resp, err := s.client.AddPickupLocation(c.Request.Context(), &req)
	if err != nil {
		s.renderError(c, "add_pickup", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

// POST /shiprocket/pickups/vendor
// Vendor registration failures answer 200 with success:false so the storefront
// can surface the message without treating it as a transport fault.
func (s *Server) handleCreateVendorPickup(c *gin.Context) {
	var req struct {
		Vendor shiprocket.Vendor `json:"vendor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	name, err := s.client.CreateVendorPickupLocation(c.Request.Context(), &req.Vendor)
	if err != nil {
		apiErr := shiprocket.AsAPIError(err)
		s.metrics.RecordProviderError("vendor_pickup", string(apiErr.Kind))
		c.JSON(http.StatusOK, gin.H{"success": false, "error": apiErr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "location_name": name})
}

// POST /shiprocket/pickups/vendor/update
func (s *Server) handleUpdateVendorPickup(c *gin.Context) {
	var req struct {
		Vendor          shiprocket.Vendor `json:"vendor"`
		OldLocationName string            `json:"old_location_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	name, updated, err := s.client.UpdateVendorPickupLocation(c.Request.Context(), &req.Vendor, req.OldLocationName)
	if err != nil {
		apiErr := shiprocket.AsAPIError(err)
		s.metrics.RecordProviderError("vendor_pickup_update", string(apiErr.Kind))
		c.JSON(http.StatusOK, gin.H{"success": false, "error": apiErr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "location_name": name, "updated": updated})
}

// GET+POST /shiprocket/pickup-locations
// Single management endpoint dispatching on an action field; GET implies list.
func (s *Server) handleManagePickups(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		s.handleListPickups(c)
		return
	}

	var req struct {
		Action   string                            `json:"action"`
		Location *shiprocket.PickupLocationRequest `json:"location,omitempty"`
		Vendor   *shiprocket.Vendor                `json:"vendor,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	switch req.Action {
	case "", "list":
		s.handleListPickups(c)
	case "add":
		if req.Location == nil {
			badRequest(c, "Missing required fields: location")
			return
		}
		resp, err := s.client.AddPickupLocation(c.Request.Context(), req.Location)
		if err != nil {
			s.renderError(c, "add_pickup", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
	case "add_vendor":
		if req.Vendor == nil {
			badRequest(c, "Missing required fields: vendor")
			return
		}
		name, err := s.client.CreateVendorPickupLocation(c.Request.Context(), req.Vendor)
		if err != nil {
			apiErr := shiprocket.AsAPIError(err)
			c.JSON(http.StatusOK, gin.H{"success": false, "error": apiErr.Message})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "location_name": name})
	default:
		badRequest(c, "Unknown action: "+req.Action)
	}
}

// POST /shiprocket/rates/calculate
func (s *Server) handleCalculateRates(c *gin.Context) {
	var req shiprocket.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var missing []string
	if req.PickupPostcode == "" {
		missing = append(missing, "pickup_postcode")
	}
	if req.DeliveryPostcode == "" {
		missing = append(missing, "delivery_postcode")
	}
	if req.Weight <= 0 {
		missing = append(missing, "weight")
	}
	if len(missing) > 0 {
		badRequest(c, "Missing required parameters: "+strings.Join(missing, ", "))
		return
	}

	resp, err := s.client.CalculateRates(c.Request.Context(), &req)
	if err != nil {
		s.renderError(c, "calculate_rates", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
}

// POST /shiprocket/apply-rate
// No provider call here: the selection is validated and echoed back so the
// storefront can persist it alongside the order.
func (s *Server) handleApplyRate(c *gin.Context) {
	var req struct {
		OrderID     string  `json:"order_id"`
		CourierName string  `json:"courier_name"`
		TotalRate   float64 `json:"total_rate"`
		CODCharges  float64 `json:"cod_charges"`
		EDD         string  `json:"estimated_delivery_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var missing []string
	if req.OrderID == "" {
		missing = append(missing, "order_id")
	}
	if req.CourierName == "" {
		missing = append(missing, "courier_name")
	}
	if req.TotalRate <= 0 {
		missing = append(missing, "total_rate")
	}
	if len(missing) > 0 {
		badRequest(c, "Missing required parameters: "+strings.Join(missing, ", "))
		return
	}

	s.logger.Info("Applying courier rate",
		zap.String("order_id", req.OrderID),
		zap.String("courier", req.CourierName),
		zap.Float64("total_rate", req.TotalRate),
	)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"applied_rate": gin.H{
			"order_id":                req.OrderID,
			"courier_name":            req.CourierName,
			"total_rate":              req.TotalRate,
			"cod_charges":             req.CODCharges,
			"estimated_delivery_date": req.EDD,
			"applied_at":              time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// POST /shiprocket/webhook
func (s *Server) handleWebhook(c *gin.Context) {
	var payload shiprocket.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "Invalid webhook payload: "+err.Error())
		return
	}

	systemStatus := shiprocket.MapStatusToSystem(payload.CurrentStatus)
	s.metrics.RecordWebhookEvent(systemStatus)

	fields := []zap.Field{
		zap.Int64("order_id", payload.OrderID),
		zap.Int64("shipment_id", payload.ShipmentID),
		zap.String("awb", payload.AWBValue()),
		zap.String("provider_status", payload.CurrentStatus),
		zap.String("system_status", systemStatus),
	}
	if notification, ok := shiprocket.NotificationType(payload.CurrentStatus); ok {
		fields = append(fields, zap.String("notification", notification))
	}
	s.logger.Info("Webhook received", fields...)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Webhook processed",
		"status":  systemStatus,
		"notify":  shiprocket.ShouldNotify(payload.CurrentStatus),
	})
}

// GET /shiprocket/webhook
// The provider console probes the URL before accepting it.
func (s *Server) handleVerifyWebhook(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Webhook endpoint active"})
}

// POST /shiprocket/sync-status
func (s *Server) handleSyncStatus(c *gin.Context) {
	secret := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if s.cfg.CronSecret == "" || secret != s.cfg.CronSecret {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	// Nothing is persisted here, so there are no stale orders to walk. The
	// endpoint stays so the cron wiring and its auth contract are exercised.
	s.logger.Info("Status sync triggered")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"synced":  0,
		"message": "No orders pending synchronization",
	})
}

// GET /shiprocket/sync-status
func (s *Server) handleGetSyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"enabled":  s.cfg.CronSecret != "",
		"interval": "manual",
	})
}
