package algorithms

// sweep walks the pattern points in order and grows chains. For every K-table
// row starting at pattern point p it yields the row itself as a one-link
// chain, then one extension per chain that ended at p on a compatible source
// point. Extensions are filed under their own antecedent key so later
// pattern points can grow them further.
//
// yield receives arena indices; it returns false to stop the sweep.
func (t *kTable) sweep(yield func(idx int) bool) {
	for p := 0; p < len(t.rows)-1; p++ {
		bucket := t.antecedents[p]
		for _, ri := range t.rows[p] {
			if !yield(ri) {
				return
			}
			row := t.arena[ri]
			for _, ai := range bucket[t.keys.postcedent(&row)] {
				prev := t.arena[ai]
				if prev.pv.End != row.pv.Start {
					panic("algorithms: antecedent bucket holds a chain ending elsewhere")
				}
				ext := row
				ext.w = prev.w + 1
				ext.prev = ai
				if !yield(t.add(ext)) {
					return
				}
			}
		}
	}
}
