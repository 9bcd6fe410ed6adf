package deflate

import "errors"

const (
	maxWindowLength = 1 << 15 // 32 KiB sliding window
	minMatchLength  = 3
	maxMatchExtend  = 256 // longest extension past the two key bytes (total 258)
)

var errEndOfBlockCode = errors.New("deflate: end-of-block code inside a symbolic stream")

// lzssEncode converts v into a stream of literals and back-references.
// The cache holds the prefix table: one slot per 16-bit two-byte key,
// remembering the most recent position that started with those bytes.
//
// The matcher is greedy at depth one: a single probe per position, the
// first match of at least three bytes wins, no lazy evaluation. Swapping
// the slot before inspecting it keeps insert and lookup a single pass.
// Encoding is total; it cannot fail.
func lzssEncode(v []byte, cache *Cache) []code {
	table := cache.prefixTable()
	for i := range table {
		table[i] = -1
	}
	out := make([]code, 0, len(v))
	n := len(v)
	i := 0
	if n >= minMatchLength {
		for i <= n-minMatchLength {
			key := uint32(v[i])<<8 | uint32(v[i+1])
			j := table[key]
			table[key] = int32(i)
			if j >= 0 {
				d := i - int(j)
				if d <= maxWindowLength {
					total := 2 + matchLength(v, int(j)+2, i+2)
					if total > n-i {
						total = n - i
					}
					if total >= minMatchLength {
						for k := i + 1; k < i+total && k+1 < n; k++ {
							table[uint32(v[k])<<8|uint32(v[k+1])] = int32(k)
						}
						out = append(out, code{
							kind:     codePointer,
							length:   uint8(total - minMatchLength),
							distance: uint16(d),
						})
						i += total
						continue
					}
				}
			}
			out = append(out, code{kind: codeLiteral, lit: v[i]})
			i++
		}
	}
	for _, b := range v[i:] {
		out = append(out, code{kind: codeLiteral, lit: b})
	}
	return out
}

// matchLength counts how many consecutive bytes of v starting at j
// equal those starting at i, capped at maxMatchExtend.
func matchLength(v []byte, j, i int) int {
	n := 0
	for n < maxMatchExtend && i+n < len(v) && v[j+n] == v[i+n] {
		n++
	}
	return n
}

// lzssDecode expands a symbolic stream back into bytes. It is the
// matcher's inverse for testing and sanity checks; the inflate path
// expands back-references directly into its output instead. The stream
// must not contain the end-of-block mark.
func lzssDecode(codes []code) ([]byte, error) {
	out := make([]byte, 0, 2*len(codes))
	for _, c := range codes {
		switch c.kind {
		case codeEndOfBlock:
			return nil, errEndOfBlockCode
		case codeLiteral:
			out = append(out, c.lit)
		case codePointer:
			d := int(c.distance)
			if d > len(out) {
				return nil, ErrBackReferenceOutOfRange
			}
			start := len(out) - d
			for l := int(c.length) + minMatchLength; l > 0; {
				n := min(l, len(out)-start)
				out = append(out, out[start:start+n]...)
				l -= n
			}
		}
	}
	return out, nil
}
