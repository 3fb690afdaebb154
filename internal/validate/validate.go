// Package validate gates quote details and computed products before a
// calculation is trusted for display or export. Checks return lists and
// never fail the process; the engine itself runs regardless.
package validate

import (
	"fmt"

	"fitquote/internal"
)

const (
	maxFitters        = 20
	maxSupervisors    = 10
	maxWasteM3        = 100
	maxParkingPerDay  = 500
	maxOutOfHoursDays = 31
	maxUpliftFloors   = 50
	maxQuantity       = 10000
	maxTimePerUnit    = 100
	maxWastePerUnit   = 50
)

func ValidateQuoteDetails(details internal.QuoteDetails) []internal.ValidationError {
	errs := []internal.ValidationError{}
	add := func(field, format string, args ...any) {
		errs = append(errs, internal.ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if v := details.OverrideFitterCount; v != nil && (*v < 1 || *v > maxFitters) {
		add("overrideFitterCount", "must be between 1 and %d, got %d", maxFitters, *v)
	}
	if v := details.OverrideSupervisorCount; v != nil && (*v < 0 || *v > maxSupervisors) {
		add("overrideSupervisorCount", "must be between 0 and %d, got %d", maxSupervisors, *v)
	}
	if v := details.OverrideVanType; v != nil && *v == "" {
		add("overrideVanType", "must not be empty when set")
	}
	if v := details.OverrideWasteVolumeM3; v != nil && (*v < 0 || *v > maxWasteM3) {
		add("overrideWasteVolumeM3", "must be between 0 and %d, got %g", maxWasteM3, *v)
	}
	if v := details.ParkingChargePerDay; v != nil && (*v < 0 || *v > maxParkingPerDay) {
		add("parkingChargePerDay", "must be between 0 and %d, got %g", maxParkingPerDay, *v)
	}
	if v := details.OutOfHoursDays; v != nil && (*v < 0 || *v > maxOutOfHoursDays) {
		add("outOfHoursDays", "must be between 0 and %d, got %d", maxOutOfHoursDays, *v)
	}
	if v := details.ExtendedUpliftFloors; v != nil && (*v < 0 || *v > maxUpliftFloors) {
		add("extendedUpliftFloors", "must be between 0 and %d, got %d", maxUpliftFloors, *v)
	}

	return errs
}

func ValidateProducts(products []internal.ResolvedProduct) []internal.ValidationError {
	errs := []internal.ValidationError{}
	add := func(field, format string, args ...any) {
		errs = append(errs, internal.ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if len(products) == 0 {
		add("products", "at least one product is required")
		return errs
	}

	for i, product := range products {
		field := fmt.Sprintf("products[%d]", i)
		if product.ProductCode == "" {
			add(field+".productCode", "must not be empty")
		}
		if product.Quantity < 1 {
			add(field+".quantity", "must be at least 1, got %d", product.Quantity)
		} else if product.Quantity > maxQuantity {
			add(field+".quantity", "must be at most %d, got %d", maxQuantity, product.Quantity)
		}
		if product.TimePerUnit < 0 || product.TimePerUnit > maxTimePerUnit {
			add(field+".timePerUnit", "must be between 0 and %d, got %g", maxTimePerUnit, product.TimePerUnit)
		}
		if product.WastePerUnit < 0 || product.WastePerUnit > maxWastePerUnit {
			add(field+".wastePerUnit", "must be between 0 and %d, got %g", maxWastePerUnit, product.WastePerUnit)
		}
	}

	return errs
}
