package algorithms

import (
	"sort"

	"github.com/himanishpuri/MelodicDNA/internal/geometry"
)

// kEntry binds a pattern intra-vector to a source intra-vector with the same
// pitch interval. Entries live in an arena and refer to their predecessor
// by index; prev is -1 for a chain start.
type kEntry struct {
	pv, sv geometry.IntraVector
	scale  geometry.Rat
	w      int
	prev   int
}

// chainKey is how two consecutive links of a chain agree on the source
// point they share. The scale component is always zero for warped chains.
type chainKey struct {
	source int
	scale  geometry.Rat
}

// keyFuncs selects the antecedent/postcedent keys for one algorithm family.
type keyFuncs struct {
	antecedent func(e *kEntry) chainKey
	postcedent func(e *kEntry) chainKey
}

var (
	scaledKeys = keyFuncs{
		antecedent: func(e *kEntry) chainKey { return chainKey{e.sv.End, e.scale} },
		postcedent: func(e *kEntry) chainKey { return chainKey{e.sv.Start, e.scale} },
	}
	warpedKeys = keyFuncs{
		antecedent: func(e *kEntry) chainKey { return chainKey{source: e.sv.End} },
		postcedent: func(e *kEntry) chainKey { return chainKey{source: e.sv.Start} },
	}
)

func compareKeys(a, b chainKey) int {
	switch {
	case a.source < b.source:
		return -1
	case a.source > b.source:
		return 1
	}
	return a.scale.Cmp(b.scale)
}

// entryScale is sv.X / pv.X. Two zero-length vectors have scale 1; when
// exactly one of them has zero length there is no scale and ok is false.
func entryScale(pv, sv geometry.IntraVector) (geometry.Rat, bool) {
	switch {
	case pv.X.IsZero() && sv.X.IsZero():
		return geometry.Int(1), true
	case pv.X.IsZero() || sv.X.IsZero():
		return geometry.Rat{}, false
	}
	s, ok := sv.X.Quo(pv.X)
	return s.Canon(), ok
}

// kTable is the index shared by the S and W algorithms.
type kTable struct {
	keys  keyFuncs
	arena []kEntry

	// rows[p] lists the entries whose pattern vector starts at p, sorted by
	// (postcedent key, source end index).
	rows [][]int

	// antecedents[p] buckets the entries whose pattern vector ends at p by
	// their antecedent key.
	antecedents []map[chainKey][]int
}

func buildKTable(pattern, source *geometry.PointSet, patternWindow, sourceWindow int, interval geometry.IntervalFunc, keys keyFuncs) *kTable {
	m := pattern.Len()
	t := &kTable{
		keys:        keys,
		rows:        make([][]int, m),
		antecedents: make([]map[chainKey][]int, m),
	}
	for i := range t.antecedents {
		t.antecedents[i] = make(map[chainKey][]int)
	}

	byInterval := make(map[int][]geometry.IntraVector)
	for _, sv := range geometry.IntraVectors(source, sourceWindow, interval) {
		byInterval[sv.Y] = append(byInterval[sv.Y], sv)
	}

	for _, pv := range geometry.IntraVectors(pattern, patternWindow, interval) {
		for _, sv := range byInterval[pv.Y] {
			scale, ok := entryScale(pv, sv)
			if !ok {
				continue
			}
			idx := t.add(kEntry{pv: pv, sv: sv, scale: scale, w: 1, prev: -1})
			t.rows[pv.Start] = append(t.rows[pv.Start], idx)
		}
	}

	for p := range t.rows {
		row := t.rows[p]
		sort.SliceStable(row, func(i, j int) bool {
			a, b := &t.arena[row[i]], &t.arena[row[j]]
			if c := compareKeys(keys.postcedent(a), keys.postcedent(b)); c != 0 {
				return c < 0
			}
			return a.sv.End < b.sv.End
		})
	}
	return t
}

// add appends e to the arena and files it under its antecedent key.
func (t *kTable) add(e kEntry) int {
	idx := len(t.arena)
	t.arena = append(t.arena, e)
	end := e.pv.End
	key := t.keys.antecedent(&t.arena[idx])
	t.antecedents[end][key] = append(t.antecedents[end][key], idx)
	return idx
}

// chain returns the arena indices of the chain ending at idx, first link
// first.
func (t *kTable) chain(idx int) []int {
	var out []int
	for i := idx; i >= 0; i = t.arena[i].prev {
		out = append(out, i)
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}
