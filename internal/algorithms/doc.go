// Package algorithms finds occurrences of a melodic pattern inside a source
// piece, both given as point sets.
//
// Seven algorithms are provided:
//
//   - P1: exact occurrences under time and pitch translation.
//   - P2: partial occurrences under translation, reported with their
//     multiplicity.
//   - P3: translations maximising the overlapping duration of pattern and
//     source notes, found by a line sweep.
//   - S1, S2: exact and partial occurrences under translation and a single
//     time scale per occurrence.
//   - W1, W2: exact and partial occurrences where every link of the chain
//     may stretch time independently.
//
// The S and W algorithms share a K-table of matching intra-set vectors and a
// sweep that extends backlinked chains of those vectors. Chain entries live
// in an arena and refer to their predecessor by index.
//
// Every algorithm returns an iter.Seq. Work happens only while the caller
// pulls results; stopping the range loop discards all state.
package algorithms
