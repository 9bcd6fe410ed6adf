package deflate

import "math/bits"

// Alphabet geometry from RFC 1951 section 3.2.5.
const (
	endOfBlock         = 256 // literal/length symbol terminating a block
	numLiteralSymbols  = 286 // 0..255 literals, 256 end-of-block, 257..285 lengths
	numDistanceSymbols = 30
	maxLiteralSymbols  = 288 // fixed-tree alphabet includes two reserved symbols
)

// lengthTable maps length symbols 257..285 to (base, extra bits) over
// the internal length byte, i.e. the actual match length minus 3. The
// decoded length is base + extra + 3; symbol 285 (length 258) carries
// no extra bits.
var lengthTable = [29]struct {
	base  uint8
	extra uint8
}{
	{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0}, {6, 0}, {7, 0},
	{8, 1}, {10, 1}, {12, 1}, {14, 1},
	{16, 2}, {20, 2}, {24, 2}, {28, 2},
	{32, 3}, {40, 3}, {48, 3}, {56, 3},
	{64, 4}, {80, 4}, {96, 4}, {112, 4},
	{128, 5}, {160, 5}, {192, 5}, {224, 5},
	{255, 0},
}

// distanceTable maps distance symbols 0..29 to (base, extra bits); the
// decoded distance is base + extra.
var distanceTable = [30]struct {
	base  uint16
	extra uint8
}{
	{1, 0}, {2, 0}, {3, 0}, {4, 0},
	{5, 1}, {7, 1},
	{9, 2}, {13, 2},
	{17, 3}, {25, 3},
	{33, 4}, {49, 4},
	{65, 5}, {97, 5},
	{129, 6}, {193, 6},
	{257, 7}, {385, 7},
	{513, 8}, {769, 8},
	{1025, 9}, {1537, 9},
	{2049, 10}, {3073, 10},
	{4097, 11}, {6145, 11},
	{8193, 12}, {12289, 12},
	{16385, 13}, {24577, 13},
}

type codeKind uint8

const (
	codeLiteral codeKind = iota
	codeEndOfBlock
	codePointer
)

// code is one element of the symbolic stream between the matcher and
// the Huffman layer: a raw byte, a back-reference, or the end-of-block
// mark. Pointer lengths are stored as actual-3 so the range 3..258
// fits in a byte; distances span 1..32768.
type code struct {
	kind     codeKind
	lit      byte
	length   uint8
	distance uint16
}

// literalCode returns the literal/length alphabet symbol for c.
func (c code) literalCode() uint16 {
	switch c.kind {
	case codeLiteral:
		return uint16(c.lit)
	case codeEndOfBlock:
		return endOfBlock
	}
	l := uint16(c.length)
	switch {
	case l < 0x08:
		return 257 + l
	case l < 0x10:
		return 265 + (l-0x08)/0x02
	case l < 0x20:
		return 269 + (l-0x10)/0x04
	case l < 0x40:
		return 273 + (l-0x20)/0x08
	case l < 0x80:
		return 277 + (l-0x40)/0x10
	case l < 0xFF:
		return 281 + (l-0x80)/0x20
	default:
		return 285
	}
}

// extraLength returns the extra bits transmitted after a pointer's
// length symbol, if any.
func (c code) extraLength() (bitcode, bool) {
	if c.kind != codePointer {
		return bitcode{}, false
	}
	l := uint16(c.length)
	switch {
	case l < 0x08 || l == 0xFF:
		return bitcode{}, false
	case l < 0x10:
		return bitcode{data: (l - 0x08) % 0x02, width: 1}, true
	case l < 0x20:
		return bitcode{data: (l - 0x10) % 0x04, width: 2}, true
	case l < 0x40:
		return bitcode{data: (l - 0x20) % 0x08, width: 3}, true
	case l < 0x80:
		return bitcode{data: (l - 0x40) % 0x10, width: 4}, true
	default:
		return bitcode{data: (l - 0x80) % 0x20, width: 5}, true
	}
}

// distanceCode returns a pointer's distance symbol and its extra bits.
// Distance symbols double their span every two entries: for d-1 in
// [2^k, 2^(k+1)) the symbol is 2k plus the top remaining bit, and the
// low k-1 bits travel as extra bits.
func (c code) distanceCode() (sym uint16, extra bitcode, ok bool) {
	if c.kind != codePointer {
		return 0, bitcode{}, false
	}
	d := c.distance - 1
	if d < 4 {
		return d, bitcode{}, true
	}
	k := uint(bits.Len16(d)) - 1
	sym = uint16(2*k) + (d-1<<k)>>(k-1)
	extra = bitcode{data: d & (1<<(k-1) - 1), width: uint8(k - 1)}
	return sym, extra, true
}
