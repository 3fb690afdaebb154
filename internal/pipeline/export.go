package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"fitquote/internal"
)

// ExportQuoteToXLSX writes the priced lines and the calculation summary
// to a two-sheet workbook.
func ExportQuoteToXLSX(products []internal.ResolvedProduct, results internal.CalculationResults, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetName(sheet, "Lines")
	sheet = "Lines"

	headers := []string{
		"line", "product_code", "description", "quantity",
		"time_per_unit_h", "total_time_h", "waste_per_unit_m3", "total_waste_m3",
		"heavy", "source", "manually_edited",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, product := range products {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, LineLabel(product))
		set(2, product.ProductCode)
		set(3, product.Description)
		set(4, product.Quantity)
		set(5, product.TimePerUnit)
		set(6, product.TotalTime)
		set(7, product.WastePerUnit)
		set(8, product.TotalWaste)
		set(9, product.IsHeavy)
		set(10, string(product.Source))
		set(11, product.IsManuallyEdited)
	}

	summary := "Summary"
	if _, err := f.NewSheet(summary); err != nil {
		return err
	}
	rows := [][2]any{
		{"total_hours", results.TotalHours},
		{"buffered_hours", results.BufferedHours},
		{"fitters", results.FitterCount},
		{"supervisors", results.SupervisorCount},
		{"van_type", results.VanType},
		{"total_days", results.TotalDays},
		{"total_waste_m3", results.TotalWasteM3},
		{"waste_loads", results.WasteLoads},
		{"waste_over_threshold", results.WasteOverThreshold},
		{"labour_cost", results.Price.LabourCost.StringFixed(2)},
		{"van_cost", results.Price.VanCost.StringFixed(2)},
		{"reworking_cost", results.Price.ReworkingCost.StringFixed(2)},
		{"parking_cost", results.Price.ParkingCost.StringFixed(2)},
		{"out_of_hours_cost", results.Price.OutOfHoursCost.StringFixed(2)},
		{"subtotal", results.Price.Subtotal.StringFixed(2)},
		{"vat", results.Price.VAT.StringFixed(2)},
		{"grand_total", results.Price.GrandTotal.StringFixed(2)},
	}
	for i, row := range rows {
		keyCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valueCell, _ := excelize.CoordinatesToCellName(2, i+1)
		_ = f.SetCellValue(summary, keyCell, row[0])
		_ = f.SetCellValue(summary, valueCell, row[1])
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
