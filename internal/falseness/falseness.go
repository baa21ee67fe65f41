// Package falseness precomputes which blocks of rows cannot appear together
// in a true composition.
//
// Every block (chunk) is described by the canonical keys of its rows, so
// that rows which differ only by a part head share a key. Two chunks that
// share a key are false against each other. A search node carries a Bitset
// of every chunk made unreachable by the chunks it already contains, so
// checking a candidate is a single bit test however long the composition
// is.
package falseness

import (
	"math/bits"
	"sort"
)

// Bitset is a fixed-size set of chunk indices.
type Bitset []uint64

// NewBitset returns an empty set able to hold indices below n.
func NewBitset(n int) Bitset { return make(Bitset, (n+63)/64) }

// Has reports whether i is in the set.
func (b Bitset) Has(i int) bool { return b[i/64]&(1<<(uint(i)%64)) != 0 }

// Set adds i to the set.
func (b Bitset) Set(i int) { b[i/64] |= 1 << (uint(i) % 64) }

// Clone returns a copy of the set.
func (b Bitset) Clone() Bitset {
	out := make(Bitset, len(b))
	copy(out, b)
	return out
}

// Count returns the number of members.
func (b Bitset) Count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// Table maps every chunk to the chunks it is false against, itself
// included.
//
// Thread-safety: Table is immutable after Build and safe for concurrent
// use.
type Table struct {
	n        int
	against  [][]int32
	disabled bool
}

// Build computes the falseness between chunks, where keys[i] holds the
// canonical row keys of chunk i. With disabled the table is empty and
// every chunk may be rung any number of times.
func Build(keys [][]string, disabled bool) *Table {
	t := &Table{n: len(keys), against: make([][]int32, len(keys)), disabled: disabled}
	if disabled {
		return t
	}

	owners := make(map[string][]int32)
	for ci, ks := range keys {
		for _, k := range ks {
			list := owners[k]
			if len(list) > 0 && list[len(list)-1] == int32(ci) {
				continue
			}
			owners[k] = append(list, int32(ci))
		}
	}

	for ci, ks := range keys {
		seen := map[int32]bool{int32(ci): true}
		against := []int32{int32(ci)}
		for _, k := range ks {
			for _, other := range owners[k] {
				if !seen[other] {
					seen[other] = true
					against = append(against, other)
				}
			}
		}
		sort.Slice(against, func(i, j int) bool { return against[i] < against[j] })
		t.against[ci] = against
	}
	return t
}

// SelfFalse reports whether a chunk's own rows repeat a key.
func SelfFalse(keys []string) bool {
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			return true
		}
		seen[k] = struct{}{}
	}
	return false
}

// Len returns the number of chunks in the table.
func (t *Table) Len() int { return t.n }

// Disabled reports whether truth checking is switched off.
func (t *Table) Disabled() bool { return t.disabled }

// Against returns the chunks that chunk is false against, in ascending
// order. The slice is shared and must not be modified.
func (t *Table) Against(chunk int) []int32 { return t.against[chunk] }

// IsFalse reports whether chunk has been made unreachable.
func (t *Table) IsFalse(unreachable Bitset, chunk int) bool {
	if t.disabled {
		return false
	}
	return unreachable.Has(chunk)
}

// Mark adds every chunk that chunk is false against to unreachable.
func (t *Table) Mark(unreachable Bitset, chunk int) {
	for _, c := range t.against[chunk] {
		unreachable.Set(int(c))
	}
}
