package vector

import (
	"container/heap"
	"sort"
)

type candidate struct {
	rec   *Record
	score float64
}

// ranksBefore reports whether a belongs ahead of b: higher score first, then earlier insertion.
func ranksBefore(a, b candidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.rec.Seq < b.rec.Seq
}

// minHeap keeps the weakest retained candidate at the root.
type minHeap []candidate

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return ranksBefore(h[j], h[i]) }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}

// topK keeps the best k candidates seen by offer, in O(n log k).
type topK struct {
	k int
	h minHeap
}

func newTopK(k int) *topK {
	return &topK{k: k, h: make(minHeap, 0, k)}
}

func (t *topK) offer(c candidate) {
	if len(t.h) < t.k {
		heap.Push(&t.h, c)
		return
	}
	if ranksBefore(c, t.h[0]) {
		t.h[0] = c
		heap.Fix(&t.h, 0)
	}
}

// results returns the retained candidates best first.
func (t *topK) results() []*Result {
	sort.Slice(t.h, func(i, j int) bool { return ranksBefore(t.h[i], t.h[j]) })
	out := make([]*Result, len(t.h))
	for i, c := range t.h {
		out[i] = &Result{ID: c.rec.ID, Text: c.rec.Text, Score: c.score}
	}
	return out
}
