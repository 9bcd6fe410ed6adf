package deflate

import (
	"container/heap"
	"slices"
)

const (
	maxCodeWidth       = 15 // literal and distance code length limit
	maxCodeLengthWidth = 7  // code-length alphabet limit
	invalidWidth       = 16 // sentinel in decoder table entries
	decoderSymbolShift = 5  // decoder entries pack (symbol<<5)|width
)

// codeLengthOrder is the transmission order of the code-length alphabet
// widths in a dynamic block header (RFC 1951 section 3.2.7).
var codeLengthOrder = [19]uint8{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// restoreCanonicalCodes assigns the canonical code of every symbol with
// a non-zero width: symbols ordered by (width, symbol) receive
// consecutive codes, left-shifted whenever the width steps up. Codes
// reach set MSB-first; both the encoder table and the decoder table
// builder hang off this one assignment.
func restoreCanonicalCodes(widths []uint8, set func(symbol uint16, b bitcode)) {
	type assigned struct {
		symbol uint16
		width  uint8
	}
	order := make([]assigned, 0, len(widths))
	for sym, w := range widths {
		if w != 0 {
			order = append(order, assigned{symbol: uint16(sym), width: w})
		}
	}
	slices.SortFunc(order, func(a, b assigned) int {
		if a.width != b.width {
			return int(a.width) - int(b.width)
		}
		return int(a.symbol) - int(b.symbol)
	})
	next := uint16(0)
	width := uint8(0)
	for _, a := range order {
		next <<= a.width - width
		width = a.width
		set(a.symbol, bitcode{data: next, width: width})
		next++
	}
}

// pmLeaf is an active symbol entering the length-limiting pass.
type pmLeaf struct {
	symbol uint16
	weight uint32
}

// depthHeap drives the plain min-heap Huffman pre-pass that measures
// the unbounded optimal tree depth. seq keeps tie-breaking (and so the
// emitted stream) deterministic.
type depthNode struct {
	weight uint64
	depth  uint8
	seq    int
}

type depthHeap []depthNode

func (h depthHeap) Len() int { return len(h) }

func (h depthHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}
	return h[i].seq < h[j].seq
}

func (h depthHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *depthHeap) Push(x any) { *h = append(*h, x.(depthNode)) }

func (h *depthHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// unboundedDepth returns the depth of an optimal unrestricted Huffman
// tree over the leaves. Package-Merge never needs more iterations than
// this, so it caps the effective length limit.
func unboundedDepth(leaves []pmLeaf) int {
	h := make(depthHeap, len(leaves))
	for i, l := range leaves {
		h[i] = depthNode{weight: uint64(l.weight), seq: i}
	}
	heap.Init(&h)
	seq := len(leaves)
	for h.Len() > 1 {
		a := heap.Pop(&h).(depthNode)
		b := heap.Pop(&h).(depthNode)
		heap.Push(&h, depthNode{
			weight: a.weight + b.weight,
			depth:  max(a.depth, b.depth) + 1,
			seq:    seq,
		})
		seq++
	}
	return int(h[0].depth)
}

// limitedWidths computes code lengths for freqs minimizing the total
// encoded size under a maximum length (Package-Merge, Larmore &
// Hirschberg). Zero-frequency symbols get width 0. A lone active
// symbol still gets one transmittable bit.
func limitedWidths(freqs []uint32, maxWidth int) []uint8 {
	widths := make([]uint8, len(freqs))
	leaves := make([]pmLeaf, 0, len(freqs))
	for sym, f := range freqs {
		if f != 0 {
			leaves = append(leaves, pmLeaf{symbol: uint16(sym), weight: f})
		}
	}
	switch len(leaves) {
	case 0:
		return widths
	case 1:
		widths[leaves[0].symbol] = 1
		return widths
	}
	slices.SortFunc(leaves, func(a, b pmLeaf) int {
		if a.weight != b.weight {
			return int(a.weight) - int(b.weight)
		}
		return int(a.symbol) - int(b.symbol)
	})
	limit := min(maxWidth, unboundedDepth(leaves))

	type pmNode struct {
		weight  uint64
		symbols []uint16
	}
	singles := make([]pmNode, len(leaves))
	for i, l := range leaves {
		singles[i] = pmNode{weight: uint64(l.weight), symbols: []uint16{l.symbol}}
	}
	// pack pairs adjacent nodes of a sorted list, truncating an odd tail.
	pack := func(list []pmNode) []pmNode {
		packed := make([]pmNode, 0, len(list)/2)
		for i := 0; i+1 < len(list); i += 2 {
			syms := make([]uint16, 0, len(list[i].symbols)+len(list[i+1].symbols))
			syms = append(syms, list[i].symbols...)
			syms = append(syms, list[i+1].symbols...)
			packed = append(packed, pmNode{weight: list[i].weight + list[i+1].weight, symbols: syms})
		}
		return packed
	}
	// mergeSorted interleaves two weight-sorted lists; a wins ties.
	mergeSorted := func(a, b []pmNode) []pmNode {
		out := make([]pmNode, 0, len(a)+len(b))
		i, j := 0, 0
		for i < len(a) && j < len(b) {
			if a[i].weight <= b[j].weight {
				out = append(out, a[i])
				i++
			} else {
				out = append(out, b[j])
				j++
			}
		}
		out = append(out, a[i:]...)
		return append(out, b[j:]...)
	}

	list := slices.Clone(singles)
	for range limit - 1 {
		list = mergeSorted(pack(list), singles)
	}
	for _, n := range pack(list) {
		for _, sym := range n.symbols {
			widths[sym]++
		}
	}
	return widths
}

// huffmanEncoder holds packed, bit-reversed codes for the literal and
// distance alphabets, resident in the caller's cache.
type huffmanEncoder struct {
	literal  []int32
	distance []int32
}

// newFixedEncoder installs the hard-wired fixed Huffman trees of
// RFC 1951 section 3.2.6.
func newFixedEncoder(cache *Cache) huffmanEncoder {
	enc := huffmanEncoder{
		literal:  cache.literalEncoderTable(),
		distance: cache.distanceEncoderTable(),
	}
	for i := range 144 {
		enc.literal[i] = bitcode{data: 0b0011_0000 + uint16(i), width: 8}.reverse().pack()
	}
	for i := 144; i < 256; i++ {
		enc.literal[i] = bitcode{data: 0b1_1001_0000 + uint16(i-144), width: 9}.reverse().pack()
	}
	for i := 256; i < 280; i++ {
		enc.literal[i] = bitcode{data: uint16(i - 256), width: 7}.reverse().pack()
	}
	for i := 280; i < numLiteralSymbols; i++ {
		enc.literal[i] = bitcode{data: 0b1100_0000 + uint16(i-280), width: 8}.reverse().pack()
	}
	for i := range numDistanceSymbols {
		enc.distance[i] = bitcode{data: uint16(i), width: 5}.reverse().pack()
	}
	return enc
}

// encode emits one code: the literal/length symbol, then any extra
// length bits, then for pointers the distance symbol and its extras.
func (e huffmanEncoder) encode(w *bitWriter, c code) {
	w.writeBits(unpackBits(e.literal[c.literalCode()]))
	if extra, ok := c.extraLength(); ok {
		w.writeBits(extra)
	}
	if sym, extra, ok := c.distanceCode(); ok {
		w.writeBits(unpackBits(e.distance[sym]))
		w.writeBits(extra)
	}
}

// widthToken is one run-length-encoded entry of the code-length
// stream: symbols 0..15 emit a width, 16 repeats the previous width
// 3..6 times, 17 and 18 emit zero runs of 3..10 and 11..138.
type widthToken struct {
	symbol     uint8
	extraWidth uint8
	extra      uint16
}

// encodeWidthRuns run-length compresses the concatenated literal and
// distance widths. Runs of one or two zeros stay plain; a repeated
// non-zero width is one plain width followed by repeat tokens.
func encodeWidthRuns(widths []uint8) []widthToken {
	tokens := make([]widthToken, 0, len(widths))
	for i := 0; i < len(widths); {
		w := widths[i]
		run := 1
		for i+run < len(widths) && widths[i+run] == w {
			run++
		}
		i += run
		if w == 0 {
			for run >= 11 {
				n := min(run, 138)
				tokens = append(tokens, widthToken{symbol: 18, extraWidth: 7, extra: uint16(n - 11)})
				run -= n
			}
			if run >= 3 {
				tokens = append(tokens, widthToken{symbol: 17, extraWidth: 3, extra: uint16(run - 3)})
				run = 0
			}
		} else {
			tokens = append(tokens, widthToken{symbol: w})
			run--
			for run >= 3 {
				n := min(run, 6)
				tokens = append(tokens, widthToken{symbol: 16, extraWidth: 2, extra: uint16(n - 3)})
				run -= n
			}
		}
		for ; run > 0; run-- {
			tokens = append(tokens, widthToken{symbol: w})
		}
	}
	return tokens
}

// newDynamicEncoder derives length-limited trees from the stream's
// symbol frequencies, writes the dynamic block header, and returns the
// encoder holding the canonical codes.
func newDynamicEncoder(codes []code, cache *Cache, w *bitWriter) huffmanEncoder {
	var litFreq [numLiteralSymbols]uint32
	var distFreq [numDistanceSymbols]uint32
	for _, c := range codes {
		litFreq[c.literalCode()]++
		if sym, _, ok := c.distanceCode(); ok {
			distFreq[sym]++
		}
	}
	// A stream without back-references still advertises one distance
	// code: many inflaters (compress/flate included) reject an entirely
	// empty distance tree, while a lone unused code is accepted as the
	// degenerate case.
	hasDistance := false
	for _, f := range distFreq {
		if f != 0 {
			hasDistance = true
			break
		}
	}
	if !hasDistance {
		distFreq[0] = 1
	}

	litWidths := limitedWidths(litFreq[:], maxCodeWidth)
	distWidths := limitedWidths(distFreq[:], maxCodeWidth)

	hlit := 257
	for sym, width := range litWidths {
		if width != 0 && sym+1 > hlit {
			hlit = sym + 1
		}
	}
	hdist := 1
	for sym, width := range distWidths {
		if width != 0 && sym+1 > hdist {
			hdist = sym + 1
		}
	}

	// Both alphabets run-length compress as one stream, so runs may
	// cross the literal/distance boundary.
	combined := make([]uint8, 0, hlit+hdist)
	combined = append(combined, litWidths[:hlit]...)
	combined = append(combined, distWidths[:hdist]...)
	tokens := encodeWidthRuns(combined)

	var clFreq [19]uint32
	for _, t := range tokens {
		clFreq[t.symbol]++
	}
	clWidths := limitedWidths(clFreq[:], maxCodeLengthWidth)
	var clCodes [19]int32
	restoreCanonicalCodes(clWidths, func(sym uint16, b bitcode) {
		clCodes[sym] = b.reverse().pack()
	})

	hclen := 4
	for i, sym := range codeLengthOrder {
		if clWidths[sym] != 0 && i+1 > hclen {
			hclen = i + 1
		}
	}

	w.writeBits(bitcode{data: uint16(hlit - 257), width: 5})
	w.writeBits(bitcode{data: uint16(hdist - 1), width: 5})
	w.writeBits(bitcode{data: uint16(hclen - 4), width: 4})
	for _, sym := range codeLengthOrder[:hclen] {
		w.writeBits(bitcode{data: uint16(clWidths[sym]), width: 3})
	}
	for _, t := range tokens {
		w.writeBits(unpackBits(clCodes[t.symbol]))
		if t.extraWidth > 0 {
			w.writeBits(bitcode{data: t.extra, width: t.extraWidth})
		}
	}

	enc := huffmanEncoder{
		literal:  cache.literalEncoderTable(),
		distance: cache.distanceEncoderTable(),
	}
	restoreCanonicalCodes(litWidths, func(sym uint16, b bitcode) {
		enc.literal[sym] = b.reverse().pack()
	})
	restoreCanonicalCodes(distWidths, func(sym uint16, b bitcode) {
		enc.distance[sym] = b.reverse().pack()
	})
	return enc
}

// huffmanEncode packs the symbolic stream, end-of-block included, into
// a single DEFLATE block with BFINAL set.
func huffmanEncode(codes []code, btype BlockType, cache *Cache) []byte {
	w := newBitWriter(len(codes)/2 + 16)
	w.writeBits(bitcode{data: 1, width: 1})
	w.writeBits(bitcode{data: uint16(btype), width: 2})
	var enc huffmanEncoder
	switch btype {
	case BlockTypeFixed:
		enc = newFixedEncoder(cache)
	case BlockTypeDynamic:
		enc = newDynamicEncoder(codes, cache, w)
	default:
		panic("deflate: block type cannot be encoded")
	}
	for _, c := range codes {
		enc.encode(w, c)
	}
	return w.finish()
}

// huffmanDecoder is a flat direct-lookup table in the caller's cache.
// Entries pack (symbol<<5)|width; indices no code reaches keep the
// invalidWidth sentinel. peekWidth is the narrow fast-path width: the
// end-of-block code's width for the literal alphabet, the full table
// width otherwise. A lookup whose entry claims a wider code than was
// peeked retries once at full width.
type huffmanDecoder struct {
	table     []int32
	maxWidth  uint8
	peekWidth uint8
}

// newHuffmanDecoder builds the lookup table for widths inside region.
// Each code of width w owns every index whose low w bits equal its
// reversed form. fastSymbol selects the code bounding the fast-path
// peek; pass a negative value to always peek the full width.
func newHuffmanDecoder(widths []uint8, region []int32, fastSymbol int) huffmanDecoder {
	maxWidth := uint8(0)
	for _, w := range widths {
		maxWidth = max(maxWidth, w)
	}
	d := huffmanDecoder{
		table:     region[:1<<maxWidth],
		maxWidth:  maxWidth,
		peekWidth: maxWidth,
	}
	if fastSymbol >= 0 && fastSymbol < len(widths) && widths[fastSymbol] != 0 {
		d.peekWidth = widths[fastSymbol]
	}
	for i := range d.table {
		d.table[i] = invalidWidth
	}
	restoreCanonicalCodes(widths, func(symbol uint16, b bitcode) {
		entry := int32(symbol)<<decoderSymbolShift | int32(b.width)
		step := int32(1) << b.width
		for idx := int32(b.reverse().data); idx < int32(len(d.table)); idx += step {
			d.table[idx] = entry
		}
	})
	return d
}

// decode reads one symbol. The narrow peek resolves most codes in a
// single lookup; wider codes retry against the full table.
func (d *huffmanDecoder) decode(r *bitReader) (uint16, error) {
	entry := d.table[r.peekBits(uint32(d.peekWidth))]
	width := uint8(entry & 0x1F)
	if width > d.peekWidth {
		entry = d.table[r.peekBits(uint32(d.maxWidth))]
		width = uint8(entry & 0x1F)
		if width > d.maxWidth {
			if err := r.lastError(); err != nil {
				return 0, err
			}
			return 0, ErrInvalidWidth
		}
	}
	r.skipBits(uint32(width))
	return uint16(entry >> decoderSymbolShift), nil
}

// newFixedDecoders builds the decoders for the hard-wired trees. The
// literal alphabet is the full 288 symbols so the two reserved codes
// decode and are then rejected as invalid symbols.
func newFixedDecoders(cache *Cache) (literal, distance huffmanDecoder) {
	var lit [maxLiteralSymbols]uint8
	for i := range lit {
		switch {
		case i < 144:
			lit[i] = 8
		case i < 256:
			lit[i] = 9
		case i < 280:
			lit[i] = 7
		default:
			lit[i] = 8
		}
	}
	var dist [numDistanceSymbols]uint8
	for i := range dist {
		dist[i] = 5
	}
	literal = newHuffmanDecoder(lit[:], cache.literalDecoderTable(), endOfBlock)
	distance = newHuffmanDecoder(dist[:], cache.distanceDecoderTable(), -1)
	return literal, distance
}

// newDynamicDecoders reads a dynamic block header and builds the two
// decoders. The code-length decoder lives briefly at the front of the
// literal region; the widths are fully decoded before the literal
// table overwrites it.
func newDynamicDecoders(r *bitReader, cache *Cache) (literal, distance huffmanDecoder, err error) {
	hlit := int(r.readBits(5)) + 257
	hdist := int(r.readBits(5)) + 1
	hclen := int(r.readBits(4)) + 4
	if err = r.lastError(); err != nil {
		return literal, distance, err
	}
	if hlit > numLiteralSymbols || hdist > numDistanceSymbols {
		return literal, distance, ErrInvalidCodeLengths
	}
	var clWidths [19]uint8
	for _, sym := range codeLengthOrder[:hclen] {
		clWidths[sym] = uint8(r.readBits(3))
	}
	if err = r.lastError(); err != nil {
		return literal, distance, err
	}
	clDecoder := newHuffmanDecoder(clWidths[:], cache.literalDecoderTable(), -1)

	var widths [numLiteralSymbols + numDistanceSymbols]uint8
	total := hlit + hdist
	for i := 0; i < total; {
		sym, derr := clDecoder.decode(r)
		if derr != nil {
			return literal, distance, derr
		}
		switch {
		case sym < 16:
			widths[i] = uint8(sym)
			i++
		case sym == 16:
			if i == 0 {
				return literal, distance, ErrNoPreviousWidth
			}
			n := int(r.readBits(2)) + 3
			if i+n > total {
				return literal, distance, ErrInvalidCodeLengths
			}
			prev := widths[i-1]
			for ; n > 0; n-- {
				widths[i] = prev
				i++
			}
		case sym == 17:
			n := int(r.readBits(3)) + 3
			if i+n > total {
				return literal, distance, ErrInvalidCodeLengths
			}
			i += n
		case sym == 18:
			n := int(r.readBits(7)) + 11
			if i+n > total {
				return literal, distance, ErrInvalidCodeLengths
			}
			i += n
		default:
			return literal, distance, ErrInvalidCodeLengths
		}
		if err = r.lastError(); err != nil {
			return literal, distance, err
		}
	}
	literal = newHuffmanDecoder(widths[:hlit], cache.literalDecoderTable(), endOfBlock)
	distance = newHuffmanDecoder(widths[hlit:total], cache.distanceDecoderTable(), -1)
	return literal, distance, nil
}
