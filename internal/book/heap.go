package book

import "hftcore/internal/common"

// orderHeap is the container/heap-backed resting-order structure for one
// side of one symbol's book. The heap.Interface methods drive a real
// container/heap min-heap, with common.Order.Less supplying the side-aware
// (±price, sequence) ordering.
type orderHeap []*common.Order

func (h orderHeap) Len() int { return len(h) }

func (h orderHeap) Less(i, j int) bool { return h[i].Less(h[j]) }

func (h orderHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *orderHeap) Push(x any) {
	*h = append(*h, x.(*common.Order))
}

func (h *orderHeap) Pop() any {
	old := *h
	n := len(old)
	o := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return o
}
