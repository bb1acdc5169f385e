package checker

import "github.com/funvibe/chorus/internal/graph"

// epsilon is the union-find over type-arena indices that collapses
// type variables onto their referents. Entries start as their own
// representative; find uses path halving.
type epsilon struct {
	parents []int
}

func newEpsilon(size int) *epsilon {
	parents := make([]int, size)
	for index := range parents {
		parents[index] = index
	}
	return &epsilon{parents: parents}
}

func (e *epsilon) add(from, to int) {
	e.parents[from] = to
}

func (e *epsilon) find(index int) int {
	for index != e.parents[index] {
		e.parents[index] = e.parents[e.parents[index]]
		index = e.parents[index]
	}
	return index
}

// span is a half-open block [low, high) of the permutation vector.
type span struct {
	low  int
	high int
}

// buildClasses derives the canonical equivalence classes of the type
// arena: variables become ε-edges, the connectives become DFA states
// over the two-symbol alphabet left/right, and Hopcroft partition
// refinement with smaller-half worklist management yields the coarsest
// partition. classes has one extra trailing entry for the synthetic
// sink that One's children lead to.
func buildClasses(types []graph.TypeNode) ([]int, *epsilon) {
	size := len(types)
	sink := size
	eps := newEpsilon(size)
	for index, node := range types {
		if v, ok := node.(*graph.TypeVariable); ok {
			if v.IsDual {
				eps.add(index, graph.Dual(types, v.Node))
			} else {
				eps.add(index, v.Node)
			}
		}
	}

	// Inverse transition lists: left[t] and right[t] hold the states
	// whose left/right child resolves to t.
	left := make([][]int, size+1)
	right := make([][]int, size+1)
	var lollipop, times, with, plus, one []int
	for index, node := range types {
		switch t := node.(type) {
		case *graph.Lollipop:
			left[eps.find(t.Value)] = append(left[eps.find(t.Value)], index)
			right[eps.find(t.Next)] = append(right[eps.find(t.Next)], index)
			lollipop = append(lollipop, index)
		case *graph.Times:
			left[eps.find(t.Value)] = append(left[eps.find(t.Value)], index)
			right[eps.find(t.Next)] = append(right[eps.find(t.Next)], index)
			times = append(times, index)
		case *graph.With:
			left[eps.find(t.Accept)] = append(left[eps.find(t.Accept)], index)
			right[eps.find(t.Deny)] = append(right[eps.find(t.Deny)], index)
			with = append(with, index)
		case *graph.Plus:
			left[eps.find(t.Accept)] = append(left[eps.find(t.Accept)], index)
			right[eps.find(t.Deny)] = append(right[eps.find(t.Deny)], index)
			plus = append(plus, index)
		case *graph.One:
			left[sink] = append(left[sink], index)
			right[sink] = append(right[sink], index)
			one = append(one, index)
		}
	}

	// Initial partition groups states by connective kind, plus the sink.
	var permutation []int
	var partitions []span
	last := 0
	for _, kind := range [][]int{lollipop, times, with, plus, one} {
		permutation = append(permutation, kind...)
		if len(permutation) != last {
			partitions = append(partitions, span{last, len(permutation)})
			last = len(permutation)
		}
	}
	permutation = append(permutation, sink)
	partitions = append(partitions, span{last, len(permutation)})

	worklist := make(map[span]bool, len(partitions))
	queue := make([]span, 0, len(partitions))
	push := func(s span) {
		if !worklist[s] {
			worklist[s] = true
			queue = append(queue, s)
		}
	}
	for _, s := range partitions {
		push(s)
	}

	next := make([]span, 0, len(partitions))
	for len(queue) > 0 {
		splitter := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if !worklist[splitter] {
			continue
		}
		delete(worklist, splitter)

		for _, symbol := range [2][][]int{left, right} {
			preimage := make(map[int]bool)
			for _, state := range permutation[splitter.low:splitter.high] {
				for _, previous := range symbol[state] {
					preimage[eps.find(previous)] = true
				}
			}
			next = next[:0]
			for _, block := range partitions {
				lo, hi := block.low, block.high
				for lo != hi {
					if preimage[permutation[lo]] {
						hi--
						permutation[lo], permutation[hi] = permutation[hi], permutation[lo]
					} else {
						lo++
					}
				}
				if lo == block.low || hi == block.high {
					next = append(next, block)
					continue
				}
				out, in := span{block.low, lo}, span{hi, block.high}
				next = append(next, out, in)
				if worklist[block] {
					delete(worklist, block)
					push(out)
					push(in)
				} else if out.high-out.low < in.high-in.low {
					push(out)
				} else {
					push(in)
				}
			}
			partitions, next = next, partitions
		}
	}

	classes := make([]int, size+1)
	for _, block := range partitions {
		for _, state := range permutation[block.low:block.high] {
			classes[state] = permutation[block.low]
		}
	}
	for index := 0; index < size; index++ {
		classes[index] = classes[eps.find(index)]
	}
	return classes, eps
}
