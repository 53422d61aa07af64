package ir

import "math/bits"

type (
	// BlockSet is a set of block indexes within one function.
	BlockSet struct {
		w  []uint64
		w0 [1]uint64
	}
)

// Reachable returns the blocks reachable from the entry block by following terminators.
func Reachable(f *Func) (s BlockSet) {
	s.w = s.w0[:]

	if len(f.Blocks) == 0 {
		return s
	}

	idx := make(map[*Block]int, len(f.Blocks))

	for i, b := range f.Blocks {
		idx[b] = i
	}

	q := []int{0}

	for len(q) != 0 {
		i := q[len(q)-1]
		q = q[:len(q)-1]

		if s.Has(i) {
			continue
		}

		s.add(i)

		t := f.Blocks[i].Terminator()
		if t == nil {
			continue
		}

		for _, x := range t.Targets {
			if j, ok := idx[x]; ok && !s.Has(j) {
				q = append(q, j)
			}
		}
	}

	return s
}

// Index returns the position of b in f.Blocks or -1.
func (f *Func) Index(b *Block) int {
	for i, x := range f.Blocks {
		if x == b {
			return i
		}
	}

	return -1
}

func (s *BlockSet) Has(i int) bool {
	if i < 0 || i/64 >= len(s.w) {
		return false
	}

	return s.w[i/64]&(1<<(i%64)) != 0
}

func (s *BlockSet) Size() (n int) {
	for _, x := range s.w {
		n += bits.OnesCount64(x)
	}

	return n
}

// Range calls f for set indexes in increasing order until it returns false.
func (s *BlockSet) Range(f func(i int) bool) {
	for i, x := range s.w {
		for x != 0 {
			j := bits.TrailingZeros64(x)
			x &^= 1 << j

			if !f(i*64 + j) {
				return
			}
		}
	}
}

func (s *BlockSet) add(i int) {
	for i/64 >= len(s.w) {
		s.w = append(s.w, 0)
	}

	s.w[i/64] |= 1 << (i % 64)
}
