package pipeline

import (
	"strings"

	"fitquote/internal"
	"fitquote/internal/rules"
)

// Consolidate merges every power-module line into one synthetic line
// with the quantities summed. Cable trays are never consolidated even
// though they carry the power keyword. Non-power lines pass through
// unchanged; when no power line exists the merged line is nil.
func Consolidate(lines []internal.RawLineItem, cfg rules.Consolidation) ([]internal.RawLineItem, *internal.RawLineItem) {
	keyword := strings.ToUpper(strings.TrimSpace(cfg.Keyword))
	exclude := strings.ToUpper(strings.TrimSpace(cfg.ExcludeKeyword))

	rest := make([]internal.RawLineItem, 0, len(lines))
	total := 0
	found := false
	for _, line := range lines {
		if isPowerLine(line, keyword, exclude) {
			total += line.Quantity
			found = true
			continue
		}
		rest = append(rest, line)
	}

	if !found {
		return rest, nil
	}

	merged := &internal.RawLineItem{
		LineNumber:  internal.LineNumberConsolidated,
		ProductCode: cfg.ConsolidatedCode,
		Description: cfg.Description,
		Quantity:    total,
	}
	return rest, merged
}

func isPowerLine(line internal.RawLineItem, keyword, exclude string) bool {
	if keyword == "" {
		return false
	}
	text := strings.ToUpper(line.ProductCode + " " + line.Description + " " + line.RawDescription)
	if !strings.Contains(text, keyword) {
		return false
	}
	if exclude != "" && strings.Contains(text, exclude) {
		return false
	}
	return true
}
