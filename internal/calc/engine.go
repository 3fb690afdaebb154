// Package calc derives crew, vehicle, schedule and price figures from
// resolved products, quote details and the active rules. Everything in
// here is pure: no I/O, no caching, safe to call on every edit.
package calc

import (
	"math"

	"github.com/shopspring/decimal"

	"fitquote/internal"
	"fitquote/internal/rules"
)

// CalculateAll runs the five calculation stages. Overrides in details
// always win outright over derived values, never blended.
func CalculateAll(products []internal.ResolvedProduct, details internal.QuoteDetails, cfg rules.Config) internal.CalculationResults {
	results := internal.CalculationResults{}

	// Stage 1: labour aggregation and buffering.
	totalHours := 0.0
	totalWaste := 0.0
	heavy := 0
	for _, product := range products {
		totalHours += product.TotalTime
		totalWaste += product.TotalWaste
		if product.IsHeavy {
			heavy += product.Quantity
		}
	}
	results.TotalHours = totalHours
	results.HeavyItemCount = heavy

	uplift := 0.0
	if details.UpliftViaStairs {
		uplift += cfg.UpliftStairsPercent
	}
	if details.ExtendedUplift {
		uplift += cfg.ExtendedUpliftPercent
		if details.ExtendedUpliftFloors != nil {
			uplift += float64(*details.ExtendedUpliftFloors) * cfg.ExtendedUpliftPerFloorPercent
		}
	}
	buffered := totalHours * (1 + uplift) * (1 + cfg.DurationBufferPercent)
	results.BufferedHours = buffered

	// Stage 2: crew sizing.
	fitters := deriveFitters(buffered, heavy, cfg)
	if details.OverrideFitterCount != nil {
		fitters = *details.OverrideFitterCount
	}
	supervisors := deriveSupervisors(buffered, fitters, cfg)
	if details.OverrideSupervisorCount != nil {
		supervisors = *details.OverrideSupervisorCount
	}
	crew := fitters + supervisors
	results.FitterCount = fitters
	results.SupervisorCount = supervisors
	results.CrewSize = crew

	// Stage 3: waste volume and vehicle selection.
	waste := totalWaste
	if details.OverrideWasteVolumeM3 != nil {
		waste = *details.OverrideWasteVolumeM3
	} else if waste == 0 && len(products) > 0 {
		waste = cfg.DefaultWasteVolumeM3
	}
	results.TotalWasteM3 = waste

	vehicle := selectVehicle(waste, crew, cfg)
	if details.OverrideVanType != nil {
		if chosen, ok := cfg.VehicleByName(*details.OverrideVanType); ok {
			vehicle = chosen
		} else {
			// Unknown class: keep the override name, price and load it
			// as the largest configured vehicle.
			vehicle = cfg.LargestVehicle()
			vehicle.Name = *details.OverrideVanType
		}
	}
	results.VanType = vehicle.Name

	// Stage 4: waste loads.
	if waste > 0 && vehicle.WasteCapacityM3 > 0 {
		results.WasteLoads = int(math.Ceil(waste / vehicle.WasteCapacityM3))
	}
	results.WasteOverThreshold = cfg.WasteFlagThresholdM3 > 0 && waste > cfg.WasteFlagThresholdM3

	// Stage 5: days and cost.
	days := 0
	if len(products) > 0 && crew > 0 && cfg.HoursPerDay > 0 {
		days = int(math.Ceil(buffered / (float64(crew) * cfg.HoursPerDay)))
		if days < 1 {
			days = 1
		}
	}
	results.TotalDays = days
	results.Price = priceBreakdown(details, cfg, vehicle, fitters, supervisors, days)

	return results
}

// One fitter per FitterHoursBudget of buffered work; heavy items force
// two-person handling.
func deriveFitters(buffered float64, heavy int, cfg rules.Config) int {
	fitters := 1
	if cfg.FitterHoursBudget > 0 {
		fitters = int(math.Ceil(buffered / cfg.FitterHoursBudget))
	}
	if fitters < 1 {
		fitters = 1
	}
	if heavy > 0 && fitters < 2 {
		fitters = 2
	}
	if cfg.MaxFitters > 0 && fitters > cfg.MaxFitters {
		fitters = cfg.MaxFitters
	}
	return fitters
}

func deriveSupervisors(buffered float64, fitters int, cfg rules.Config) int {
	if cfg.SupervisorFitterThreshold > 0 && fitters >= cfg.SupervisorFitterThreshold {
		return 1
	}
	if cfg.SupervisorHoursThreshold > 0 && buffered >= cfg.SupervisorHoursThreshold {
		return 1
	}
	return 0
}

// Vehicles are configured in ascending size order. Pick the smallest
// class that seats the crew and takes the waste in one load, falling
// back to the largest crew-capable class with multiple loads.
func selectVehicle(waste float64, crew int, cfg rules.Config) rules.Vehicle {
	var fallback *rules.Vehicle
	for i := range cfg.Vehicles {
		vehicle := cfg.Vehicles[i]
		if vehicle.CrewCapacity < crew {
			continue
		}
		if vehicle.WasteCapacityM3 >= waste {
			return vehicle
		}
		fallback = &cfg.Vehicles[i]
	}
	if fallback != nil {
		return *fallback
	}
	return cfg.LargestVehicle()
}

func priceBreakdown(details internal.QuoteDetails, cfg rules.Config, vehicle rules.Vehicle, fitters, supervisors, days int) internal.PriceBreakdown {
	dayCount := decimal.NewFromInt(int64(days))
	crewDayRate := decimal.NewFromFloat(cfg.FitterDayRate).Mul(decimal.NewFromInt(int64(fitters))).
		Add(decimal.NewFromFloat(cfg.SupervisorDayRate).Mul(decimal.NewFromInt(int64(supervisors))))

	labour := crewDayRate.Mul(dayCount)
	van := decimal.NewFromFloat(vehicle.DayRate).Mul(dayCount)

	reworking := decimal.Zero
	if details.SpecialistReworking {
		reworking = decimal.NewFromFloat(cfg.ReworkingSurcharge)
	}

	parking := decimal.Zero
	if details.ParkingChargePerDay != nil {
		parking = decimal.NewFromFloat(*details.ParkingChargePerDay).Mul(dayCount)
	}

	outOfHours := decimal.Zero
	if details.OutOfHoursDays != nil && *details.OutOfHoursDays > 0 {
		oohDays := *details.OutOfHoursDays
		if oohDays > days {
			oohDays = days
		}
		perDay := crewDayRate.Add(decimal.NewFromFloat(vehicle.DayRate))
		premium := decimal.NewFromFloat(cfg.OutOfHoursMultiplier - 1)
		outOfHours = perDay.Mul(decimal.NewFromInt(int64(oohDays))).Mul(premium)
	}

	subtotal := labour.Add(van).Add(reworking).Add(parking).Add(outOfHours)
	vat := subtotal.Mul(decimal.NewFromFloat(cfg.VATRate)).Round(2)

	return internal.PriceBreakdown{
		LabourCost:     labour.Round(2),
		VanCost:        van.Round(2),
		ReworkingCost:  reworking.Round(2),
		ParkingCost:    parking.Round(2),
		OutOfHoursCost: outOfHours.Round(2),
		Subtotal:       subtotal.Round(2),
		VAT:            vat,
		GrandTotal:     subtotal.Round(2).Add(vat),
	}
}
