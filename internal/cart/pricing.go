package cart

import (
	"math"
	"strconv"
	"strings"

	"github.com/youngspiritsbartending/youngspirits.co/internal/domain"
)

const minutesPerDay = 24 * 60

// guestBonus maps the pricing guest buckets to their multiplier bonus.
// These keys do not match domain.GuestCountBuckets, so with the booking
// form's values the bonus never applies. Kept as-is until the owner decides
// which enumeration is intended.
var guestBonus = map[string]float64{
	"51-75":   0.15,
	"76-100":  0.3,
	"101-150": 0.5,
	"151+":    0.75,
}

// DurationHours returns the event length for a start/end pair. A window
// whose end is before its start crosses midnight. Unset or unparseable
// times yield 0.
func DurationHours(startTime, endTime string) float64 {
	if startTime == "" || endTime == "" {
		return 0
	}
	start, ok := minuteOfDay(startTime)
	if !ok {
		return 0
	}
	end, ok := minuteOfDay(endTime)
	if !ok {
		return 0
	}

	duration := end - start
	if duration < 0 {
		duration += minutesPerDay
	}
	return float64(duration) / 60
}

// Multiplier computes the price factor for an event configuration.
func Multiplier(cfg domain.ServiceConfiguration) float64 {
	multiplier := 1.0

	if cfg.GuestCount != "" {
		multiplier += guestBonus[cfg.GuestCount]
	}

	duration := DurationHours(cfg.StartTime, cfg.EndTime)
	if duration >= 5 {
		multiplier += 0.2
	}
	if duration >= 6 {
		multiplier += 0.15
	}
	if duration >= 7 {
		multiplier += 0.15
	}

	return multiplier
}

// BaseAmount sums the package price (0 without a package) and add-on prices.
func BaseAmount(pkg *domain.ServicePackage, addons []domain.Addon) int64 {
	var base int64
	if pkg != nil {
		base = pkg.Price
	}
	for _, addon := range addons {
		base += addon.Price
	}
	return base
}

// Total applies the configuration multiplier to the selection and rounds to
// the nearest whole currency unit.
func Total(pkg *domain.ServicePackage, addons []domain.Addon, cfg domain.ServiceConfiguration) int64 {
	total := int64(math.Round(float64(BaseAmount(pkg, addons)) * Multiplier(cfg)))
	if total < 0 {
		return 0
	}
	return total
}

func minuteOfDay(value string) (int, bool) {
	hourRaw, minRaw, found := strings.Cut(strings.TrimSpace(value), ":")
	if !found {
		return 0, false
	}
	hour, err := strconv.Atoi(hourRaw)
	if err != nil {
		return 0, false
	}
	minute, err := strconv.Atoi(minRaw)
	if err != nil {
		return 0, false
	}
	return hour*60 + minute, true
}
