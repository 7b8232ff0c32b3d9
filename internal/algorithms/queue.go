package algorithms

import (
	"container/heap"

	"github.com/himanishpuri/MelodicDNA/internal/geometry"
)

// cursorQueue is a min-heap of non-exhausted cursors keyed by their peeked
// vector. Ties are broken by turning point type and then pattern index so
// the pop sequence is deterministic.
type cursorQueue []*geometry.InterCursor

func (q cursorQueue) Len() int { return len(q) }

func (q cursorQueue) Less(i, j int) bool {
	a, _ := q[i].Peek()
	b, _ := q[j].Peek()
	if c := geometry.Compare(a, b); c != 0 {
		return c < 0
	}
	return q[i].PatternIndex() < q[j].PatternIndex()
}

func (q cursorQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *cursorQueue) Push(x any) { *q = append(*q, x.(*geometry.InterCursor)) }

func (q *cursorQueue) Pop() any {
	old := *q
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return c
}

func newCursorQueue(cursors []*geometry.InterCursor) *cursorQueue {
	q := make(cursorQueue, 0, len(cursors))
	for _, c := range cursors {
		if !c.Exhausted() {
			q = append(q, c)
		}
	}
	heap.Init(&q)
	return &q
}

// push puts c back unless it is exhausted.
func (q *cursorQueue) push(c *geometry.InterCursor) {
	if !c.Exhausted() {
		heap.Push(q, c)
	}
}

// popGroup pops every cursor whose peeked vector has the same translation
// as the minimum. Cursors are returned unconsumed.
func (q *cursorQueue) popGroup() []*geometry.InterCursor {
	if q.Len() == 0 {
		return nil
	}
	head := heap.Pop(q).(*geometry.InterCursor)
	group := []*geometry.InterCursor{head}
	key, _ := head.Peek()
	for q.Len() > 0 {
		next, _ := (*q)[0].Peek()
		if geometry.CompareXY(next.Translation(), key.Translation()) != 0 {
			break
		}
		group = append(group, heap.Pop(q).(*geometry.InterCursor))
	}
	return group
}

// popOne pops the cursor holding the minimum vector, unconsumed.
func (q *cursorQueue) popOne() *geometry.InterCursor {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(*geometry.InterCursor)
}
