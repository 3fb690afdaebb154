package catalog

import "testing"

func TestFLXBoothRecognize(t *testing.T) {
	family := flxBoothFamily()

	cases := []struct {
		name       string
		normalized string
		capacity   int
		size       string
		ok         bool
	}{
		{name: "capacity only", normalized: "FLX4P", capacity: 4, ok: true},
		{name: "capacity and size", normalized: "FLX4P2400", capacity: 4, size: "2400", ok: true},
		{name: "size and variant suffix", normalized: "FLX4P2816A", capacity: 4, size: "2816", ok: true},
		{name: "two digit capacity", normalized: "FLX10P2816", capacity: 10, size: "2816", ok: true},
		{name: "smallest booth", normalized: "FLX2P", capacity: 2, ok: true},
		{name: "no capacity", normalized: "FLXP2400", ok: false},
		{name: "zero capacity", normalized: "FLX0P", ok: false},
		{name: "wrong marker", normalized: "FLEX4P", ok: false},
		{name: "trailing digits after suffix", normalized: "FLX4P2816A9", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			match, ok := family.Recognize(tc.normalized)
			if ok != tc.ok {
				t.Fatalf("Recognize(%q) ok = %v, want %v", tc.normalized, ok, tc.ok)
			}
			if !ok {
				return
			}
			if match.Capacity != tc.capacity || match.Size != tc.size {
				t.Fatalf("Recognize(%q) = %+v, want capacity %d size %q", tc.normalized, match, tc.capacity, tc.size)
			}
		})
	}
}

func TestFLXBoothCandidates(t *testing.T) {
	family := flxBoothFamily()

	match, ok := family.Recognize("FLX4P2816A")
	if !ok {
		t.Fatalf("expected FLX4P2816A to be recognized")
	}
	if got := family.SpecificCandidate(match); got != "FLX-COWORK-4P-L2816" {
		t.Fatalf("specific candidate = %q", got)
	}

	generics := family.GenericCandidates(match)
	want := []string{"4P FLX", "FLX 4P", "FLX-4P"}
	if len(generics) != len(want) {
		t.Fatalf("got %d generic candidates, want %d", len(generics), len(want))
	}
	for i := range want {
		if generics[i] != want[i] {
			t.Fatalf("generic candidate %d = %q, want %q", i, generics[i], want[i])
		}
	}
}
