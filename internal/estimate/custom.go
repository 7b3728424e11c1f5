// Package estimate prices a custom-built package from raw event parameters.
package estimate

import (
	"github.com/youngspiritsbartending/youngspirits.co/internal/domain"
)

const (
	GuestsPerBartender  = 75
	BartenderHourlyRate = 75
	CocktailPrice       = 50
	PremiumSpiritsPrice = 300

	SetupStandard = "standard"
	SetupPremium  = "premium"
	SetupLuxury   = "luxury"
)

var setupPrices = map[string]int64{
	SetupStandard: 0,
	SetupPremium:  200,
	SetupLuxury:   400,
}

// RequiredBartenders is one bartender per 75 guests, never fewer than one.
func RequiredBartenders(guests int) int {
	required := (guests + GuestsPerBartender - 1) / GuestsPerBartender
	if required < 1 {
		return 1
	}
	return required
}

func basePrice(guests int) int64 {
	switch {
	case guests <= 50:
		return 400
	case guests <= 100:
		return 800
	case guests <= 150:
		return 1200
	default:
		return 1600
	}
}

// Custom computes the builder quote. Bartenders below the staffing minimum
// are raised to it; negative counts are treated as zero.
func Custom(req domain.CustomEstimateRequest) domain.CustomEstimateResponse {
	guests := max(req.GuestCount, 0)
	hours := max(req.Hours, 0)
	cocktails := max(req.CustomCocktails, 0)
	required := RequiredBartenders(guests)
	bartenders := max(req.Bartenders, required)

	resp := domain.CustomEstimateResponse{
		GuestCount:         guests,
		Hours:              hours,
		Bartenders:         bartenders,
		RequiredBartenders: required,
		BasePrice:          basePrice(guests),
		TimeCost:           int64(hours) * int64(bartenders) * BartenderHourlyRate,
		CocktailCost:       int64(cocktails) * CocktailPrice,
		SetupCost:          setupPrices[req.BarSetup],
	}
	if req.PremiumSpirits {
		resp.SpiritsCost = PremiumSpiritsPrice
	}

	total := resp.BasePrice + resp.TimeCost + resp.CocktailCost + resp.SpiritsCost + resp.SetupCost
	resp.Total = max(total, 0)
	return resp
}
