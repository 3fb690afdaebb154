package internal

import (
	"math"

	"github.com/shopspring/decimal"
)

// ProductSource identifies where a resolved product's time and waste
// figures came from.
type ProductSource string

const (
	SourceCatalogue    ProductSource = "catalogue"
	SourceLearned      ProductSource = "learned"
	SourceUserInputted ProductSource = "user-inputted"
)

// LineNumberConsolidated is the sentinel line number of the synthetic
// consolidated line. It sorts after every real line regardless of value.
const LineNumberConsolidated = math.MaxInt32

// RawLineItem is one extracted or manually entered product line.
// Immutable once produced; consumed by the resolver.
type RawLineItem struct {
	LineNumber     int    `json:"lineNumber"`
	ProductCode    string `json:"productCode"`
	Description    string `json:"description"`
	RawDescription string `json:"rawDescription"`
	Quantity       int    `json:"quantity"`
}

// CatalogueEntry is the known install profile for a canonical product code.
type CatalogueEntry struct {
	Code             string   `json:"code"`
	InstallTimeHours float64  `json:"installTimeHours"`
	WasteVolumeM3    float64  `json:"wasteVolumeM3"`
	IsHeavy          bool     `json:"isHeavy"`
	Aliases          []string `json:"aliases,omitempty"`
}

// ResolvedProduct is a line item merged with its catalogue entry.
type ResolvedProduct struct {
	LineNumber       int           `json:"lineNumber"`
	ProductCode      string        `json:"productCode"`
	Description      string        `json:"description"`
	Quantity         int           `json:"quantity"`
	TimePerUnit      float64       `json:"timePerUnit"`
	TotalTime        float64       `json:"totalTime"`
	WastePerUnit     float64       `json:"wastePerUnit"`
	TotalWaste       float64       `json:"totalWaste"`
	IsHeavy          bool          `json:"isHeavy"`
	Source           ProductSource `json:"source"`
	IsManuallyEdited bool          `json:"isManuallyEdited"`
}

// UnresolvedProduct is a line item with no catalogue match after all
// tiers. Quantity is aggregated across duplicate codes in the batch.
type UnresolvedProduct struct {
	LineNumber     int    `json:"lineNumber"`
	ProductCode    string `json:"productCode"`
	NormalizedCode string `json:"normalizedCode"`
	Description    string `json:"description"`
	RawDescription string `json:"rawDescription"`
	Quantity       int    `json:"quantity"`
}

// QuoteDetails carries client identity and the nullable override fields.
// A nil override means the calculation engine derives the value.
type QuoteDetails struct {
	ClientName      string `json:"clientName"`
	ProjectName     string `json:"projectName"`
	DeliveryAddress string `json:"deliveryAddress"`
	PreparedBy      string `json:"preparedBy"`

	OverrideFitterCount     *int     `json:"overrideFitterCount"`
	OverrideSupervisorCount *int     `json:"overrideSupervisorCount"`
	OverrideVanType         *string  `json:"overrideVanType"`
	OverrideWasteVolumeM3   *float64 `json:"overrideWasteVolumeM3"`
	ParkingChargePerDay     *float64 `json:"parkingChargePerDay"`
	OutOfHoursDays          *int     `json:"outOfHoursDays"`
	ExtendedUpliftFloors    *int     `json:"extendedUpliftFloors"`

	UpliftViaStairs     bool `json:"upliftViaStairs"`
	ExtendedUplift      bool `json:"extendedUplift"`
	SpecialistReworking bool `json:"specialistReworking"`
}

// PriceBreakdown is the monetary part of the calculation results.
type PriceBreakdown struct {
	LabourCost     decimal.Decimal `json:"labourCost"`
	VanCost        decimal.Decimal `json:"vanCost"`
	ReworkingCost  decimal.Decimal `json:"reworkingCost"`
	ParkingCost    decimal.Decimal `json:"parkingCost"`
	OutOfHoursCost decimal.Decimal `json:"outOfHoursCost"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	VAT            decimal.Decimal `json:"vat"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`
}

// CalculationResults is the engine's pure output, fully re-derivable
// from (products, details, rules).
type CalculationResults struct {
	TotalHours         float64        `json:"totalHours"`
	BufferedHours      float64        `json:"bufferedHours"`
	FitterCount        int            `json:"fitterCount"`
	SupervisorCount    int            `json:"supervisorCount"`
	CrewSize           int            `json:"crewSize"`
	VanType            string         `json:"vanType"`
	TotalDays          int            `json:"totalDays"`
	TotalWasteM3       float64        `json:"totalWasteM3"`
	WasteLoads         int            `json:"wasteLoads"`
	WasteOverThreshold bool           `json:"wasteOverThreshold"`
	HeavyItemCount     int            `json:"heavyItemCount"`
	Price              PriceBreakdown `json:"price"`
}

// ValidationError is one field-level violation. Validation returns
// lists of these and never fails the process.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// LearnEvent is the catalogue-learning tuple written back to the
// durable store when a user resolves or edits a product.
type LearnEvent struct {
	Code             string        `json:"code"`
	InstallTimeHours float64       `json:"installTimeHours"`
	WasteVolumeM3    float64       `json:"wasteVolumeM3"`
	IsHeavy          bool          `json:"isHeavy"`
	Source           ProductSource `json:"source"`
}

// QuoteRecord is a saved quote. Results are recomputed on load and
// stored only as a convenience snapshot.
type QuoteRecord struct {
	ID          string             `json:"id"`
	ClientName  string             `json:"clientName"`
	ProjectName string             `json:"projectName"`
	Details     QuoteDetails       `json:"details"`
	Products    []ResolvedProduct  `json:"products"`
	Results     CalculationResults `json:"results"`
	CreatedAt   string             `json:"createdAt"`
	UpdatedAt   string             `json:"updatedAt"`
}
