// Package geometry holds the two-dimensional representation of melodies
// used by the matching algorithms: exact rational time values, points in the
// (onset, pitch) plane, sorted point sets, intra-set and inter-set vectors,
// and lazy cursors over inter-set vectors.
//
// Point sets are immutable once built. Vectors refer to points by their
// index in the owning set rather than by pointer.
package geometry
