package algorithms

import (
	"fmt"
	"iter"

	"github.com/himanishpuri/MelodicDNA/internal/geometry"
	"github.com/himanishpuri/MelodicDNA/internal/settings"
)

// Find validates s, selects the algorithm for the pattern and returns its
// lazy result sequence. Nothing is computed until the sequence is ranged
// over. Empty inputs are not an error: they produce an empty sequence.
func Find(pattern, source *geometry.PointSet, s settings.Settings) (iter.Seq[Occurrence], settings.Algorithm, error) {
	if err := s.Validate(); err != nil {
		return nil, settings.Auto, err
	}
	m := pattern.Len()
	alg := s.Select(m)
	if m == 0 || source.Len() == 0 {
		return empty, alg, nil
	}
	interval := s.IntervalFunc()
	threshold := s.Threshold.Resolve(m)
	params := ChainParams{
		Threshold:     threshold,
		PatternWindow: s.PatternWindow,
		SourceWindow:  s.SourceWindow,
		Scale:         s.Scale,
		Interval:      interval,
	}

	switch alg {
	case settings.P1:
		return FindP1(pattern, source, interval), alg, nil
	case settings.P2:
		return FindP2(pattern, source, threshold, interval), alg, nil
	case settings.P3:
		return FindP3(pattern, source, s.Threshold.Ratio(m), interval), alg, nil
	case settings.S1:
		return FindS1(pattern, source, params), alg, nil
	case settings.S2:
		return FindS2(pattern, source, params), alg, nil
	case settings.W1:
		return FindW1(pattern, source, params), alg, nil
	case settings.W2:
		return FindW2(pattern, source, params), alg, nil
	}
	panic(fmt.Sprintf("algorithms: no implementation for %v", alg))
}
