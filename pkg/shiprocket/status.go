package shiprocket

import "strings"

// statusMap translates provider shipment statuses into the storefront's
// order-status vocabulary. Lookups are case-insensitive; anything unmapped
// stays "processing".
var statusMap = map[string]string{
	"NEW":              "ready to ship",
	"PICKUP_SCHEDULED": "ready to ship",
	"PICKUP_GENERATED": "ready to ship",
	"PICKED_UP":        "shipped",
	"IN_TRANSIT":       "shipped",
	"OUT_FOR_DELIVERY": "out for delivery",
	"DELIVERED":        "delivered",
	"CANCELLED":        "cancelled",
	"LOST":             "cancelled",
	"DAMAGED":          "returned",
	"RETURNED":         "returned",
	"RTO_INITIATED":    "returned",
	"RTO_DELIVERED":    "returned",
}

// notificationMap lists the provider statuses whose transitions trigger a
// customer notification, and the notification type to emit.
var notificationMap = map[string]string{
	"PICKED_UP":        "shipped",
	"IN_TRANSIT":       "in_transit",
	"OUT_FOR_DELIVERY": "out_for_delivery",
	"DELIVERED":        "delivered",
}

// MapStatusToSystem converts a provider status into the system vocabulary.
func MapStatusToSystem(providerStatus string) string {
	if mapped, ok := statusMap[normalizeStatus(providerStatus)]; ok {
		return mapped
	}
	return "processing"
}

// ShouldNotify reports whether a transition to this status notifies the user.
func ShouldNotify(providerStatus string) bool {
	_, ok := notificationMap[normalizeStatus(providerStatus)]
	return ok
}

// NotificationType returns the notification to emit for a status, if any.
func NotificationType(providerStatus string) (string, bool) {
	t, ok := notificationMap[normalizeStatus(providerStatus)]
	return t, ok
}

func normalizeStatus(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
