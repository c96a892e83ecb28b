package sourcemap

import (
	"slices"
	"sort"
)

// index holds mappings ordered by generated position.
type index struct {
	mappings []Mapping
}

func compareGenerated(a, b Mapping) int {
	return a.Generated.Compare(b.Generated)
}

// newIndex takes ownership of mappings. Decoded mappings are usually
// already ordered; negative column deltas within a line are the exception,
// so the stable sort only runs when needed.
func newIndex(mappings []Mapping) index {
	if !slices.IsSortedFunc(mappings, compareGenerated) {
		slices.SortStableFunc(mappings, compareGenerated)
	}
	return index{mappings: mappings}
}

// lookup returns the mapping with the greatest generated position <= p.
// Among mappings sharing that position the first decoded one wins. A
// position before the first mapping yields the first mapping.
func (ix index) lookup(p Position) Mapping {
	ms := ix.mappings
	if len(ms) == 0 {
		return noMapping
	}

	// First mapping strictly after p
	i := sort.Search(len(ms), func(i int) bool {
		return p.Less(ms[i].Generated)
	})
	if i == 0 {
		return ms[0]
	}

	best := ms[i-1].Generated
	j := sort.Search(i, func(k int) bool {
		return !ms[k].Generated.Less(best)
	})
	return ms[j]
}

// lookupExact reports the first mapping at exactly p.
func (ix index) lookupExact(p Position) (Mapping, bool) {
	ms := ix.mappings
	i := sort.Search(len(ms), func(i int) bool {
		return !ms[i].Generated.Less(p)
	})
	if i < len(ms) && ms[i].Generated == p {
		return ms[i], true
	}
	return noMapping, false
}

// lines returns the number of distinct generated lines with mappings.
func (ix index) lines() int {
	n := 0
	for i, m := range ix.mappings {
		if i == 0 || m.Generated.Line != ix.mappings[i-1].Generated.Line {
			n++
		}
	}
	return n
}
