package settings

import (
	"sort"
	"strconv"
	"strings"

	"github.com/himanishpuri/MelodicDNA/internal/geometry"
)

// Parse builds Settings from the string configuration surface, starting
// from Default. Unknown keys, malformed values and the combination of
// threshold and mismatches are rejected with a *ValidationError.
func Parse(raw map[string]string) (Settings, error) {
	s := Default()

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	_, hasThreshold := raw[KeyThreshold]
	_, hasMismatches := raw[KeyMismatches]
	if hasThreshold && hasMismatches {
		return s, invalid(KeyMismatches, raw[KeyMismatches], "threshold and mismatches are mutually exclusive")
	}

	for _, key := range keys {
		value := strings.TrimSpace(raw[key])
		var err error
		switch key {
		case KeyAlgorithm:
			a, ok := ParseAlgorithm(value)
			if !ok {
				err = invalid(key, value, "", AlgorithmNames()...)
			}
			s.Algorithm = a
		case KeyThreshold:
			s.Threshold, err = parseThreshold(key, value, false)
		case KeyMismatches:
			s.Threshold, err = parseThreshold(key, value, true)
		case KeyScale:
			s.Scale, err = ParseScale(value)
		case KeyPatternWindow:
			s.PatternWindow, err = parseWindow(key, value)
		case KeySourceWindow:
			s.SourceWindow, err = parseWindow(key, value)
		case KeyIntervalFunc:
			if value == geometry.IntervalCustom {
				err = invalid(key, value, "custom interval functions cannot be configured by name", geometry.IntervalNames()...)
			} else if _, ok := geometry.IntervalFuncByName(value); !ok {
				err = invalid(key, value, "", geometry.IntervalNames()...)
			}
			s.IntervalName = value
		default:
			err = invalid(key, value, "unknown setting", Keys()...)
		}
		if err != nil {
			return s, err
		}
	}
	return s, s.Validate()
}

// ParseScale accepts "pure", "warped", "any" or a positive rational written
// as "3/2", "3:2", "3,2" or "1.5".
func ParseScale(value string) (Scale, error) {
	switch strings.ToLower(value) {
	case "pure", "1":
		return Pure(), nil
	case "warped":
		return Warped(), nil
	case "any":
		return AnyScale(), nil
	}
	normalized := value
	for _, sep := range []string{":", ","} {
		normalized = strings.Replace(normalized, sep, "/", 1)
	}
	r, err := geometry.ParseRat(strings.ReplaceAll(normalized, " ", ""))
	if err != nil || r.Sign() <= 0 {
		return Scale{}, invalid(KeyScale, value, "", scaleNames...)
	}
	return FixedScale(r), nil
}

func parseThreshold(key, value string, mismatches bool) (Threshold, error) {
	accepted := []string{"all", "<positive integer>", "<fraction in (0, 1]>"}
	if mismatches {
		accepted = []string{"<non-negative integer>", "<fraction in (0, 1]>"}
	}
	if strings.EqualFold(value, "all") && !mismatches {
		return All(), nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		if mismatches {
			if n < 0 {
				return Threshold{}, invalid(key, value, "", accepted...)
			}
			return AllowMismatches(n), nil
		}
		if n < 1 {
			return Threshold{}, invalid(key, value, "", accepted...)
		}
		return AtLeast(n), nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 || f > 1 {
		return Threshold{}, invalid(key, value, "", accepted...)
	}
	if mismatches {
		return AllowMismatchFraction(f), nil
	}
	return AtLeastFraction(f), nil
}

func parseWindow(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, invalid(key, value, "", "<positive integer>")
	}
	return n, nil
}

// Map renders s back into the string configuration surface.
func (s Settings) Map() map[string]string {
	out := map[string]string{
		KeyAlgorithm:     s.Algorithm.String(),
		KeyScale:         s.Scale.String(),
		KeyPatternWindow: strconv.Itoa(s.PatternWindow),
		KeySourceWindow:  strconv.Itoa(s.SourceWindow),
		KeyIntervalFunc:  s.IntervalName,
	}
	if s.Threshold.Mismatches {
		out[KeyMismatches] = s.Threshold.String()
	} else {
		out[KeyThreshold] = s.Threshold.String()
	}
	return out
}
