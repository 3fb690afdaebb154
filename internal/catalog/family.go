package catalog

import (
	"fmt"
	"regexp"
	"strconv"
)

// FamilyMatch is what a recognizer extracts from a normalized code:
// the capacity token and, when present, the 4-digit size token.
type FamilyMatch struct {
	Capacity int
	Size     string
}

// Family is a pluggable product-family recognizer. Pattern runs against
// the normalized code and must capture the capacity digits in group 1
// and an optional 4-digit size token in group 2; any trailing variant
// suffix belongs to later groups and is ignored. Candidate builders
// return display-form keys that are normalized again at probe time.
type Family struct {
	Name             string
	Pattern          *regexp.Regexp
	SmallestCapacity int

	SpecificCandidate func(m FamilyMatch) string
	GenericCandidates func(m FamilyMatch) []string
}

// Recognize applies the family pattern to a normalized code.
func (f Family) Recognize(normalized string) (FamilyMatch, bool) {
	groups := f.Pattern.FindStringSubmatch(normalized)
	if groups == nil {
		return FamilyMatch{}, false
	}
	capacity, err := strconv.Atoi(groups[1])
	if err != nil || capacity == 0 {
		return FamilyMatch{}, false
	}
	size := ""
	if len(groups) > 2 {
		size = groups[2]
	}
	return FamilyMatch{Capacity: capacity, Size: size}, true
}

var families = []Family{flxBoothFamily()}

// RegisterFamily appends a recognizer. Evaluation order is registration
// order, so register more specific families first.
func RegisterFamily(f Family) {
	families = append(families, f)
}

// Families returns the recognizers in evaluation order.
func Families() []Family {
	return families
}

// flxBoothFamily recognizes FLX booth codes such as FLX-4P-2816-A:
// the FLX marker, a person-count capacity, an optional 4-digit size and
// a trailing variant suffix that never affects matching. The 2-person
// booth comes in a single size, so size tokens are ignored for it.
func flxBoothFamily() Family {
	return Family{
		Name:             "flx-booth",
		Pattern:          regexp.MustCompile(`^FLX(\d{1,2})P(\d{4})?([A-Z]{1,2})?$`),
		SmallestCapacity: 2,
		SpecificCandidate: func(m FamilyMatch) string {
			return fmt.Sprintf("FLX-COWORK-%dP-L%s", m.Capacity, m.Size)
		},
		GenericCandidates: func(m FamilyMatch) []string {
			return []string{
				fmt.Sprintf("%dP FLX", m.Capacity),
				fmt.Sprintf("FLX %dP", m.Capacity),
				fmt.Sprintf("FLX-%dP", m.Capacity),
			}
		},
	}
}
