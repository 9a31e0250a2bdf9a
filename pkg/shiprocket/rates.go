package shiprocket

import (
	"sort"
	"strings"
	"time"
)

// eddLayouts are the delivery-date formats couriers have been seen returning.
var eddLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 02, 2006",
}

// normalizeRates converts raw courier quotes into the exposed shape and sorts
// them ascending by total rate. Quotes without a delivery estimate get a
// seven-day default so ranking stays total.
func normalizeRates(couriers []CourierCompany) []CourierRate {
	rates := make([]CourierRate, 0, len(couriers))
	for _, courier := range couriers {
		edd := courier.ETD
		if edd == "" {
			edd = time.Now().Add(7 * 24 * time.Hour).Format(time.RFC3339)
		}

		total := float64(courier.FreightCharge)
		if total == 0 {
			total = float64(courier.Rate)
		}

		rates = append(rates, CourierRate{
			CourierName:           courier.CourierName,
			Rate:                  float64(courier.Rate),
			EstimatedDeliveryDate: edd,
			CODCharges:            float64(courier.CODCharges),
			FuelSurcharge:         float64(courier.OtherCharges),
			TotalRate:             total,
			Description:           courier.Description,
			PickupPerformance:     courier.PickupPerformance,
			DeliveryPerformance:   courier.DeliveryPerformance,
		})
	}

	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].TotalRate < rates[j].TotalRate
	})
	return rates
}

// CheapestRate returns the quote with the lowest total rate, or nil when the
// slice is empty. Ties keep the earlier entry.
func CheapestRate(rates []CourierRate) *CourierRate {
	var cheapest *CourierRate
	for i := range rates {
		if cheapest == nil || rates[i].TotalRate < cheapest.TotalRate {
			cheapest = &rates[i]
		}
	}
	return cheapest
}

// FastestRate returns the quote with the earliest parseable estimated
// delivery date, or nil when the slice is empty. Unparseable estimates lose
// to parseable ones; ties keep the earlier entry.
func FastestRate(rates []CourierRate) *CourierRate {
	var fastest *CourierRate
	var fastestAt time.Time
	var fastestParsed bool

	for i := range rates {
		at, ok := parseEDD(rates[i].EstimatedDeliveryDate)
		switch {
		case fastest == nil:
			fastest, fastestAt, fastestParsed = &rates[i], at, ok
		case ok && !fastestParsed:
			fastest, fastestAt, fastestParsed = &rates[i], at, true
		case ok && at.Before(fastestAt):
			fastest, fastestAt = &rates[i], at
		}
	}
	return fastest
}

// FilterRatesByCourier keeps quotes whose courier name contains the given
// name, case-insensitively.
func FilterRatesByCourier(rates []CourierRate, courierName string) []CourierRate {
	needle := strings.ToLower(courierName)
	filtered := make([]CourierRate, 0, len(rates))
	for _, rate := range rates {
		if strings.Contains(strings.ToLower(rate.CourierName), needle) {
			filtered = append(filtered, rate)
		}
	}
	return filtered
}

// CODAvailable reports whether any courier on the lane quotes COD handling.
func CODAvailable(rates []CourierRate) bool {
	for _, rate := range rates {
		if rate.CODCharges >= 0 {
			return true
		}
	}
	return false
}

func parseEDD(value string) (time.Time, bool) {
	for _, layout := range eddLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
