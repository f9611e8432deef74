package cfr

// floatSlicePool recycles the per-node scratch slices of a single traversal.
// It is not safe for concurrent use; each traversal owns its own pool.
type floatSlicePool struct {
	pool [][]float64
}

func (p *floatSlicePool) alloc(n int) []float64 {
	if len(p.pool) > 0 {
		m := len(p.pool)
		next := p.pool[m-1]
		p.pool = p.pool[:m-1]
		if cap(next) >= n {
			next = next[:n]
			for i := range next {
				next[i] = 0 // memclr
			}
			return next
		}
	}

	return make([]float64, n)
}

func (p *floatSlicePool) free(s []float64) {
	if cap(s) > 0 {
		p.pool = append(p.pool, s[:0])
	}
}

// clone returns a pooled copy of s.
func (p *floatSlicePool) clone(s []float64) []float64 {
	result := p.alloc(len(s))
	copy(result, s)
	return result
}
