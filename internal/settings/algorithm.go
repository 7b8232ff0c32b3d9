package settings

import "strings"

// Algorithm is the closed set of matching algorithms.
type Algorithm int

const (
	Auto Algorithm = iota
	P1             // exact translation matches
	P2             // partial translation matches with multiplicity
	P3             // maximal overlap by line sweep
	S1             // exact, time-scaled
	S2             // partial, time-scaled
	W1             // exact, time-warped
	W2             // partial, time-warped
)

var algorithmNames = [...]string{"auto", "P1", "P2", "P3", "S1", "S2", "W1", "W2"}

func (a Algorithm) String() string {
	if a < 0 || int(a) >= len(algorithmNames) {
		return "unknown"
	}
	return algorithmNames[a]
}

// ParseAlgorithm accepts algorithm names case-insensitively.
func ParseAlgorithm(s string) (Algorithm, bool) {
	for i, name := range algorithmNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Algorithm(i), true
		}
	}
	return Auto, false
}

// AlgorithmNames lists every accepted algorithm name.
func AlgorithmNames() []string {
	return append([]string(nil), algorithmNames[:]...)
}

// Scaled reports whether a belongs to the S family.
func (a Algorithm) Scaled() bool { return a == S1 || a == S2 }

// Warped reports whether a belongs to the W family.
func (a Algorithm) Warped() bool { return a == W1 || a == W2 }

// Chained reports whether a uses K-tables and chain extension.
func (a Algorithm) Chained() bool { return a.Scaled() || a.Warped() }

// Exact reports whether a only reports occurrences of the whole pattern.
func (a Algorithm) Exact() bool { return a == P1 || a == S1 || a == W1 }
