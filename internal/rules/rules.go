// Package rules holds the configurable business parameters behind the
// calculation engine and the consolidation step. Loaded once per session
// and hot-swappable; the core treats a Config as read-only input.
package rules

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Vehicle is one selectable vehicle class.
type Vehicle struct {
	Name            string  `json:"name"`
	WasteCapacityM3 float64 `json:"wasteCapacityM3"`
	CrewCapacity    int     `json:"crewCapacity"`
	DayRate         float64 `json:"dayRate"`
}

// Consolidation configures the power-module merge step.
type Consolidation struct {
	Keyword          string  `json:"keyword"`
	ExcludeKeyword   string  `json:"excludeKeyword"`
	ConsolidatedCode string  `json:"consolidatedCode"`
	Description      string  `json:"description"`
	TimePerUnitHours float64 `json:"timePerUnitHours"`
}

type Config struct {
	HoursPerDay float64 `json:"hoursPerDay"`

	FitterDayRate     float64 `json:"fitterDayRate"`
	SupervisorDayRate float64 `json:"supervisorDayRate"`

	// Crew sizing: one fitter per FitterHoursBudget of buffered work,
	// capped at MaxFitters; heavy items force at least two fitters.
	FitterHoursBudget         float64 `json:"fitterHoursBudget"`
	MaxFitters                int     `json:"maxFitters"`
	SupervisorFitterThreshold int     `json:"supervisorFitterThreshold"`
	SupervisorHoursThreshold  float64 `json:"supervisorHoursThreshold"`

	UpliftStairsPercent           float64 `json:"upliftStairsPercent"`
	ExtendedUpliftPercent         float64 `json:"extendedUpliftPercent"`
	ExtendedUpliftPerFloorPercent float64 `json:"extendedUpliftPerFloorPercent"`
	DurationBufferPercent         float64 `json:"durationBufferPercent"`

	DefaultWasteVolumeM3 float64 `json:"defaultWasteVolumeM3"`
	WasteFlagThresholdM3 float64 `json:"wasteFlagThresholdM3"`

	VATRate              float64 `json:"vatRate"`
	ReworkingSurcharge   float64 `json:"reworkingSurcharge"`
	OutOfHoursMultiplier float64 `json:"outOfHoursMultiplier"`

	Vehicles  []Vehicle `json:"vehicles"`
	Preparers []string  `json:"preparers"`

	Consolidation Consolidation `json:"consolidation"`
}

// Defaults returns the shipped rule set. The admin surface replaces it
// through the rules document in storage.
func Defaults() Config {
	return Config{
		HoursPerDay: 8,

		FitterDayRate:     280,
		SupervisorDayRate: 340,

		FitterHoursBudget:         40,
		MaxFitters:                8,
		SupervisorFitterThreshold: 3,
		SupervisorHoursThreshold:  120,

		UpliftStairsPercent:           0.15,
		ExtendedUpliftPercent:         0.25,
		ExtendedUpliftPerFloorPercent: 0.05,
		DurationBufferPercent:         0.10,

		DefaultWasteVolumeM3: 1.5,
		WasteFlagThresholdM3: 12,

		VATRate:              0.20,
		ReworkingSurcharge:   450,
		OutOfHoursMultiplier: 1.5,

		Vehicles: []Vehicle{
			{Name: "small-van", WasteCapacityM3: 4, CrewCapacity: 2, DayRate: 95},
			{Name: "lwb-van", WasteCapacityM3: 8, CrewCapacity: 3, DayRate: 130},
			{Name: "luton", WasteCapacityM3: 14, CrewCapacity: 4, DayRate: 180},
		},
		Preparers: []string{"S. Hughes", "D. Carter", "M. Okafor"},

		Consolidation: Consolidation{
			Keyword:          "POWER",
			ExcludeKeyword:   "CABLE TRAY",
			ConsolidatedCode: "POWER-MODULE",
			Description:      "Power modules (consolidated)",
			TimePerUnitHours: 0.2,
		},
	}
}

// VehicleByName finds a configured vehicle class.
func (c Config) VehicleByName(name string) (Vehicle, bool) {
	for _, v := range c.Vehicles {
		if v.Name == name {
			return v, true
		}
	}
	return Vehicle{}, false
}

// LargestVehicle returns the class with the greatest waste capacity.
func (c Config) LargestVehicle() Vehicle {
	best := Vehicle{}
	for _, v := range c.Vehicles {
		if v.WasteCapacityM3 > best.WasteCapacityM3 {
			best = v
		}
	}
	return best
}

// Encode serializes a Config to its storage document form.
func Encode(cfg Config) (string, error) {
	blob, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return string(blob), nil
}

// Decode parses a storage document back into a Config.
func Decode(document string) (Config, error) {
	var cfg Config
	if err := json.Unmarshal([]byte(document), &cfg); err != nil {
		return Config{}, fmt.Errorf("decode rules document: %w", err)
	}
	return cfg, nil
}
