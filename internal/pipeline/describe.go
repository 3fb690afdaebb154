package pipeline

import (
	"fmt"
	"strings"

	"fitquote/internal"
	"fitquote/internal/util"
)

// StandardizeDescription derives the canonical display description for
// a line: the pre-cleaned description when present, the raw extracted
// description otherwise, the code as a last resort.
func StandardizeDescription(line internal.RawLineItem) string {
	desc := util.CollapseSpaces(line.Description)
	if desc == "" {
		desc = util.CollapseSpaces(line.RawDescription)
	}
	if desc == "" {
		desc = strings.TrimSpace(line.ProductCode)
	}
	return desc
}

// LineLabel renders the uniform "Line N – description" shape used by
// every display and export surface. The consolidated line has no real
// line number and is labelled by its description alone.
func LineLabel(product internal.ResolvedProduct) string {
	if product.LineNumber == internal.LineNumberConsolidated {
		return product.Description
	}
	return fmt.Sprintf("Line %d – %s", product.LineNumber, product.Description)
}
