package catalog

import (
	"math"
	"sort"
)

// PartialRatio scores how well the shorter of a and b matches its best
// aligned window in the longer one, on a 0..100 scale. Identical strings
// score 100; an empty operand otherwise scores 0. Scores follow the classic
// sequence-matcher partial ratio so existing rankings are reproduced exactly.
func PartialRatio(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}

	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	m := newMatcher(shorter, longer)
	best := 0.0
	for _, blk := range m.matchingBlocks() {
		start := blk.j - blk.i
		if start < 0 {
			start = 0
		}
		end := start + len(shorter)
		if end > len(longer) {
			end = len(longer)
		}
		r := newMatcher(shorter, longer[start:end]).ratio()
		if r > 0.995 {
			return 100
		}
		if r > best {
			best = r
		}
	}
	return int(math.RoundToEven(100 * best))
}

type match struct {
	i, j, size int
}

// matcher finds longest common blocks between a and b. Runes of b that occur
// in more than 1% of a long b are left out of the index, though matches may
// still be extended across them.
type matcher struct {
	a, b []rune
	b2j  map[rune][]int
}

func newMatcher(a, b []rune) *matcher {
	m := &matcher{a: a, b: b, b2j: make(map[rune][]int)}
	for j, r := range b {
		m.b2j[r] = append(m.b2j[r], j)
	}
	if n := len(b); n >= 200 {
		limit := n/100 + 1
		for r, idx := range m.b2j {
			if len(idx) > limit {
				delete(m.b2j, r)
			}
		}
	}
	return m
}

func (m *matcher) longestMatch(alo, ahi, blo, bhi int) match {
	besti, bestj, bestsize := alo, blo, 0
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}

	for besti > alo && bestj > blo && m.a[besti-1] == m.b[bestj-1] {
		besti, bestj, bestsize = besti-1, bestj-1, bestsize+1
	}
	for besti+bestsize < ahi && bestj+bestsize < bhi && m.a[besti+bestsize] == m.b[bestj+bestsize] {
		bestsize++
	}
	return match{besti, bestj, bestsize}
}

// matchingBlocks returns the non-adjacent matching blocks in order, ending
// with the zero-sized sentinel (len(a), len(b), 0).
func (m *matcher) matchingBlocks() []match {
	la, lb := len(m.a), len(m.b)
	queue := [][4]int{{0, la, 0, lb}}
	var blocks []match
	for len(queue) > 0 {
		q := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		alo, ahi, blo, bhi := q[0], q[1], q[2], q[3]

		x := m.longestMatch(alo, ahi, blo, bhi)
		if x.size == 0 {
			continue
		}
		blocks = append(blocks, x)
		if alo < x.i && blo < x.j {
			queue = append(queue, [4]int{alo, x.i, blo, x.j})
		}
		if x.i+x.size < ahi && x.j+x.size < bhi {
			queue = append(queue, [4]int{x.i + x.size, ahi, x.j + x.size, bhi})
		}
	}
	sort.Slice(blocks, func(p, q int) bool {
		if blocks[p].i != blocks[q].i {
			return blocks[p].i < blocks[q].i
		}
		if blocks[p].j != blocks[q].j {
			return blocks[p].j < blocks[q].j
		}
		return blocks[p].size < blocks[q].size
	})

	var out []match
	var cur match
	for _, blk := range blocks {
		if cur.i+cur.size == blk.i && cur.j+cur.size == blk.j {
			cur.size += blk.size
			continue
		}
		if cur.size > 0 {
			out = append(out, cur)
		}
		cur = blk
	}
	if cur.size > 0 {
		out = append(out, cur)
	}
	return append(out, match{la, lb, 0})
}

func (m *matcher) ratio() float64 {
	total := len(m.a) + len(m.b)
	if total == 0 {
		return 1
	}
	matches := 0
	for _, blk := range m.matchingBlocks() {
		matches += blk.size
	}
	return 2 * float64(matches) / float64(total)
}
