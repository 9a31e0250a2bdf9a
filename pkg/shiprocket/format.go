package shiprocket

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// locationNameMaxLen is the provider's hard limit for pickup location names.
const locationNameMaxLen = 36

// addressLineMaxLen is the provider's limit for address line 1.
const addressLineMaxLen = 120

// requiredOrderFields are validated before any outbound call.
// shipping_is_billing is checked separately because false is a valid value.
var requiredOrderFields = []string{
	"order_id",
	"order_date",
	"payment_method",
	"order_items",
	"sub_total",
	"billing_customer_name",
	"billing_address",
	"billing_state",
	"billing_country",
	"billing_phone",
	"billing_pincode",
	"length",
	"breadth",
	"height",
	"weight",
}

// MissingOrderFields returns the names of every required order field that is
// absent or empty. An empty result means the payload may go out.
func MissingOrderFields(req *OrderRequest) []string {
	present := map[string]bool{
		"order_id":              req.OrderID != "",
		"order_date":            req.OrderDate != "",
		"payment_method":        req.PaymentMethod != "",
		"order_items":           len(req.OrderItems) > 0,
		"sub_total":             req.SubTotal > 0,
		"billing_customer_name": req.BillingCustomer != "",
		"billing_address":       req.BillingAddress != "",
		"billing_state":         req.BillingState != "",
		"billing_country":       req.BillingCountry != "",
		"billing_phone":         req.BillingPhone != "",
		"billing_pincode":       req.BillingPincode != "",
		"length":                req.Length > 0,
		"breadth":               req.Breadth > 0,
		"height":                req.Height > 0,
		"weight":                req.Weight > 0,
	}

	var missing []string
	for _, field := range requiredOrderFields {
		if !present[field] {
			missing = append(missing, field)
		}
	}
	if req.ShippingIsBilling == nil {
		missing = append(missing, "shipping_is_billing")
	}
	return missing
}

// ============================================================================
// Caller-domain records mapped into provider payloads
// ============================================================================

// StoreOrder is the caller's order as it exists before provider mapping.
type StoreOrder struct {
	OrderID         string
	CreatedAt       time.Time
	Items           []StoreOrderItem
	PaymentMethod   string // "COD" or "Prepaid"
	ShippingCharges float64
	TotalDiscount   float64
	SubTotal        float64
	Comment         string
}

// StoreOrderItem is one purchased line item.
type StoreOrderItem struct {
	Name     string
	SKU      string
	Quantity int
	Price    float64
	Tax      float64
	Product  *ProductMeta
}

// ProductMeta carries the catalogue's physical metadata, when known.
type ProductMeta struct {
	WeightKG  float64
	LengthCM  float64
	BreadthCM float64
	HeightCM  float64
}

// Customer identifies the buyer.
type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// CustomerAddress is the buyer's delivery address.
type CustomerAddress struct {
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	Country      string
	Pincode      string
}

// Parcel is the aggregate shipping envelope of an order.
type Parcel struct {
	WeightKG  float64
	LengthCM  float64
	BreadthCM float64
	HeightCM  float64
}

// AggregateParcel derives the order's parcel from its items: weights are
// summed (per-item weight times quantity), dimensions take the bounding-box
// maximum. Items without product metadata use the defaults, and degenerate
// results are replaced by the configured minimums (0.5 kg weight floor).
func AggregateParcel(items []StoreOrderItem, defaults PackageDefaults) Parcel {
	p := Parcel{}

	for _, item := range items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}

		weight := defaults.WeightKG
		length, breadth, height := defaults.LengthCM, defaults.BreadthCM, defaults.HeightCM
		if item.Product != nil {
			if isUsable(item.Product.WeightKG) {
				weight = item.Product.WeightKG
			}
			if isUsable(item.Product.LengthCM) {
				length = item.Product.LengthCM
			}
			if isUsable(item.Product.BreadthCM) {
				breadth = item.Product.BreadthCM
			}
			if isUsable(item.Product.HeightCM) {
				height = item.Product.HeightCM
			}
		}

		p.WeightKG += weight * float64(qty)
		p.LengthCM = math.Max(p.LengthCM, length)
		p.BreadthCM = math.Max(p.BreadthCM, breadth)
		p.HeightCM = math.Max(p.HeightCM, height)
	}

	if !isUsable(p.WeightKG) || p.WeightKG < defaults.WeightKG {
		p.WeightKG = defaults.WeightKG
	}
	if !isUsable(p.LengthCM) {
		p.LengthCM = defaults.LengthCM
	}
	if !isUsable(p.BreadthCM) {
		p.BreadthCM = defaults.BreadthCM
	}
	if !isUsable(p.HeightCM) {
		p.HeightCM = defaults.HeightCM
	}
	return p
}

func isUsable(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FormatOrder maps a caller-domain order onto the provider's order payload.
// The pickup location comes from the vendor when given, otherwise from cfg.
func FormatOrder(order *StoreOrder, addr *CustomerAddress, user *Customer, vendor *Vendor, cfg Config) *OrderRequest {
	pickupLocation := cfg.DefaultPickupLocation
	if vendor != nil {
		pickupLocation = GenerateLocationName(vendor)
	}

	channelID := cfg.DefaultChannelID
	if channelID == "" {
		channelID = "custom"
	}

	items := make([]OrderItem, len(order.Items))
	for i, item := range order.Items {
		units := item.Quantity
		if units < 1 {
			units = 1
		}
		items[i] = OrderItem{
			Name:         item.Name,
			SKU:          item.SKU,
			Units:        units,
			SellingPrice: item.Price,
			Tax:          item.Tax,
		}
	}

	parcel := AggregateParcel(order.Items, cfg.defaults())
	shippingIsBilling := true

	return &OrderRequest{
		OrderID:           order.OrderID,
		OrderDate:         order.CreatedAt.Format("2006-01-02 15:04"),
		PickupLocation:    pickupLocation,
		ChannelID:         channelID,
		Comment:           order.Comment,
		BillingCustomer:   user.FirstName,
		BillingLastName:   user.LastName,
		BillingAddress:    SanitizeAddressLine(addr.AddressLine1),
		BillingAddress2:   strings.TrimSpace(addr.AddressLine2),
		BillingCity:       strings.TrimSpace(addr.City),
		BillingPincode:    strings.TrimSpace(addr.Pincode),
		BillingState:      strings.TrimSpace(addr.State),
		BillingCountry:    firstNonEmpty(addr.Country, "India"),
		BillingEmail:      user.Email,
		BillingPhone:      user.Phone,
		ShippingIsBilling: &shippingIsBilling,
		OrderItems:        items,
		PaymentMethod:     order.PaymentMethod,
		ShippingCharges:   order.ShippingCharges,
		TotalDiscount:     order.TotalDiscount,
		SubTotal:          order.SubTotal,
		Length:            parcel.LengthCM,
		Breadth:           parcel.BreadthCM,
		Height:            parcel.HeightCM,
		Weight:            parcel.WeightKG,
	}
}

// ============================================================================
// Pickup location naming and address sanitization
// ============================================================================

var nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// GenerateLocationName derives the deterministic provider location name for a
// vendor: "<storeName>_<vendorID>" with non-alphanumerics replaced by
// underscores. Over-long names keep the last 8 characters of the vendor id
// intact and truncate the store-name portion instead, so the result never
// exceeds the provider's 36-character limit.
func GenerateLocationName(vendor *Vendor) string {
	storeName := vendor.Store.StoreName
	if storeName == "" {
		storeName = "Store"
	}
	vendorID := vendor.ID
	if vendorID == "" {
		vendorID = "unknown"
	}

	// Sanitize the parts first so later truncation counts bytes of pure
	// ASCII and can never split a rune.
	storeName = nonAlnumRe.ReplaceAllString(storeName, "_")
	vendorID = nonAlnumRe.ReplaceAllString(vendorID, "_")

	baseName := storeName + "_" + vendorID
	if len(baseName) > locationNameMaxLen {
		suffix := vendorID
		if len(suffix) > 8 {
			suffix = suffix[len(suffix)-8:]
		}
		maxStoreLen := locationNameMaxLen - len(suffix) - 1
		if len(storeName) > maxStoreLen {
			storeName = storeName[:maxStoreLen]
		}
		baseName = storeName + "_" + suffix
	}
	return baseName
}

var (
	margRe    = regexp.MustCompile(`(?i)\bMarg\b`)
	roadRe    = regexp.MustCompile(`(?i)\bRd\b\.?`)
	streetRe  = regexp.MustCompile(`(?i)\bSt\b\.?`)
	keywordRe = regexp.MustCompile(`(?i)(house|flat|plot|block|road|street|no\.?)`)
	digitsRe  = regexp.MustCompile(`\b(\d+[A-Za-z\-/]*)\b`)
)

// SanitizeAddressLine normalizes common abbreviations on an address line and
// guarantees a unit keyword the provider accepts. Lines without any keyword
// get a synthetic "House No." prefix built from the first digit run, or
// "House No. 1" when the line has none. The result is clamped to 120
// characters. Sanitizing an already-sanitized line is a no-op.
func SanitizeAddressLine(line string) string {
	s := strings.TrimSpace(line)
	if s == "" {
		return ""
	}

	s = margRe.ReplaceAllString(s, "Road")
	s = roadRe.ReplaceAllString(s, "Road")
	s = streetRe.ReplaceAllString(s, "Street")

	if !keywordRe.MatchString(s) {
		if m := digitsRe.FindStringSubmatch(s); m != nil {
			s = "House No. " + m[1] + ", " + s
		} else {
			s = "House No. 1, " + s
		}
	}

	if runes := []rune(s); len(runes) > addressLineMaxLen {
		s = string(runes[:addressLineMaxLen])
	}
	return s
}
