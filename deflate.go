package deflate

import "errors"

// BlockType selects how a DEFLATE block entropy-codes its content. The
// values are the on-wire BTYPE field; 0b11 is reserved and rejected on
// decode.
type BlockType uint8

const (
	BlockTypeRaw     BlockType = 0b00
	BlockTypeFixed   BlockType = 0b01
	BlockTypeDynamic BlockType = 0b10
)

// Errors surfaced while decoding. Each one aborts the current call; no
// partial output is returned.
var (
	ErrBufferOverflow           = errors.New("deflate: read past end of input, or output buffer too small")
	ErrReservedBlockType        = errors.New("deflate: reserved block type")
	ErrLengthComplementMismatch = errors.New("deflate: raw block length complement mismatch")
	ErrInvalidCodeLengths       = errors.New("deflate: invalid code lengths")
	ErrNoPreviousWidth          = errors.New("deflate: repeat code with no previous width")
	ErrInvalidWidth             = errors.New("deflate: code wider than its table")
	ErrInvalidSymbol            = errors.New("deflate: invalid literal symbol")
	ErrBackReferenceOutOfRange  = errors.New("deflate: back-reference before start of output")
	ErrOutputLength             = errors.New("deflate: output length does not match the stream")
)

// Deflate compresses input into a single DEFLATE block of the given
// type with the final-block bit set. The block type must be
// BlockTypeFixed or BlockTypeDynamic; raw blocks are accepted on
// decode but never produced, and any other value panics.
//
// The cache is borrowed for the duration of the call. Output depends
// only on input and block type, never on prior cache contents.
func Deflate(input []byte, btype BlockType, cache *Cache) []byte {
	codes := lzssEncode(input, cache)
	codes = append(codes, code{kind: codeEndOfBlock})
	return huffmanEncode(codes, btype, cache)
}

// Inflate decompresses a DEFLATE stream. Multi-block inputs are
// walked until a block with the final bit set.
func Inflate(input []byte, cache *Cache) ([]byte, error) {
	out := outputBuffer{data: make([]byte, 0, 4*len(input)+8)}
	if err := inflateInto(input, cache, &out); err != nil {
		return nil, err
	}
	return out.data, nil
}

// InflateTo decompresses a DEFLATE stream into output, which must be
// exactly the uncompressed length: a stream that would overflow it
// returns ErrBufferOverflow, one that falls short returns
// ErrOutputLength.
func InflateTo(input []byte, cache *Cache, output []byte) error {
	out := outputBuffer{data: output[:0:len(output)], fixed: true}
	if err := inflateInto(input, cache, &out); err != nil {
		return err
	}
	if len(out.data) != len(output) {
		return ErrOutputLength
	}
	return nil
}

// outputBuffer collects decompressed bytes, either growable (Inflate)
// or pinned to a caller slice (InflateTo).
type outputBuffer struct {
	data  []byte
	fixed bool
}

func (o *outputBuffer) fits(n int) error {
	if o.fixed && len(o.data)+n > cap(o.data) {
		return ErrBufferOverflow
	}
	return nil
}

func (o *outputBuffer) writeByte(b byte) error {
	if err := o.fits(1); err != nil {
		return err
	}
	o.data = append(o.data, b)
	return nil
}

func (o *outputBuffer) writeRaw(p []byte) error {
	if err := o.fits(len(p)); err != nil {
		return err
	}
	o.data = append(o.data, p...)
	return nil
}

// copyMatch expands a back-reference of the given distance and length.
// When the length exceeds the distance the source run repeats; copying
// in doubling chunks keeps that semantic while staying well ahead of a
// byte loop.
func (o *outputBuffer) copyMatch(distance, length int) error {
	if distance > len(o.data) {
		return ErrBackReferenceOutOfRange
	}
	if err := o.fits(length); err != nil {
		return err
	}
	start := len(o.data) - distance
	for length > 0 {
		n := min(length, len(o.data)-start)
		o.data = append(o.data, o.data[start:start+n]...)
		length -= n
	}
	return nil
}

// inflateInto walks blocks until one carries the final bit, dispatching
// on BTYPE.
func inflateInto(input []byte, cache *Cache, out *outputBuffer) error {
	r := newBitReader(input)
	for {
		final := r.readBits(1)
		btype := r.readBits(2)
		if err := r.lastError(); err != nil {
			return err
		}
		var err error
		switch BlockType(btype) {
		case BlockTypeRaw:
			err = inflateRawBlock(&r, out)
		case BlockTypeFixed:
			literal, distance := newFixedDecoders(cache)
			err = inflateCodedBlock(&r, &literal, &distance, out)
		case BlockTypeDynamic:
			literal, distance, derr := newDynamicDecoders(&r, cache)
			if derr != nil {
				return derr
			}
			err = inflateCodedBlock(&r, &literal, &distance, out)
		default:
			return ErrReservedBlockType
		}
		if err != nil {
			return err
		}
		if final == 1 {
			return nil
		}
	}
}

// inflateRawBlock realigns to the byte boundary, validates LEN against
// its complement, and copies the raw bytes through.
func inflateRawBlock(r *bitReader, out *outputBuffer) error {
	r.reset()
	length := r.readU16()
	nlen := r.readU16()
	if err := r.lastError(); err != nil {
		return err
	}
	if nlen != ^length {
		return ErrLengthComplementMismatch
	}
	raw := r.readBytes(int(length))
	if err := r.lastError(); err != nil {
		return err
	}
	return out.writeRaw(raw)
}

// inflateCodedBlock decodes Huffman symbols until the end-of-block
// mark, expanding back-references in place.
func inflateCodedBlock(r *bitReader, literal, distance *huffmanDecoder, out *outputBuffer) error {
	for {
		sym, err := literal.decode(r)
		if err != nil {
			return err
		}
		if err := r.lastError(); err != nil {
			return err
		}
		switch {
		case sym < endOfBlock:
			if err := out.writeByte(byte(sym)); err != nil {
				return err
			}
		case sym == endOfBlock:
			return nil
		case sym <= 285:
			entry := lengthTable[sym-257]
			length := int(entry.base) + int(r.readBits(uint32(entry.extra))) + minMatchLength
			dsym, err := distance.decode(r)
			if err != nil {
				return err
			}
			dentry := distanceTable[dsym]
			dist := int(dentry.base) + int(r.readBits(uint32(dentry.extra)))
			if err := r.lastError(); err != nil {
				return err
			}
			if err := out.copyMatch(dist, length); err != nil {
				return err
			}
		default:
			return ErrInvalidSymbol
		}
	}
}
