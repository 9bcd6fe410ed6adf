package deflate

import (
	"bytes"
	"errors"
)

const (
	zlibHeaderLen     = 2
	zlibAdlerLen      = 4
	zlibMethodDeflate = 8
)

// Errors surfaced by the zlib container checks.
var (
	ErrZlibHeaderTooShort    = errors.New("deflate: zlib header too short")
	ErrZlibUnsupportedMethod = errors.New("deflate: zlib supports only the deflate method")
	ErrZlibFcheckMismatch    = errors.New("deflate: zlib header must be a multiple of 31")
	ErrZlibPresetDictionary  = errors.New("deflate: zlib preset dictionaries are not supported")
	ErrZlibChecksumMismatch  = errors.New("deflate: zlib checksum mismatch")
)

// ZlibEncode wraps Deflate output in a zlib container: the two header
// bytes, the DEFLATE stream, and the big-endian Adler-32 of the input.
func ZlibEncode(input []byte, btype BlockType, cache *Cache) []byte {
	const (
		cmf = 0x78      // deflate method, 32 KiB window
		flg = 2<<6 | 28 // FLEVEL 2; FCHECK makes the header a multiple of 31
	)
	sum := newAdler32()
	sum.update(input)
	data := Deflate(input, btype, cache)
	out := make([]byte, 0, zlibHeaderLen+len(data)+zlibAdlerLen)
	out = append(out, cmf, flg)
	out = append(out, data...)
	digest := sum.sum()
	return append(out, digest[:]...)
}

// ZlibDecode validates the container and returns the decompressed
// bytes, verifying the trailing checksum.
func ZlibDecode(input []byte, cache *Cache) ([]byte, error) {
	if err := zlibCheckHeader(input); err != nil {
		return nil, err
	}
	out, err := Inflate(input[zlibHeaderLen:len(input)-zlibAdlerLen], cache)
	if err != nil {
		return nil, err
	}
	if err := zlibVerifyChecksum(input, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ZlibDecodeTo is ZlibDecode into a caller buffer of exactly the
// uncompressed length, via InflateTo.
func ZlibDecodeTo(input []byte, cache *Cache, output []byte) error {
	if err := zlibCheckHeader(input); err != nil {
		return err
	}
	if err := InflateTo(input[zlibHeaderLen:len(input)-zlibAdlerLen], cache, output); err != nil {
		return err
	}
	return zlibVerifyChecksum(input, output)
}

func zlibCheckHeader(input []byte) error {
	if len(input) < zlibHeaderLen+zlibAdlerLen {
		return ErrZlibHeaderTooShort
	}
	cmf, flg := input[0], input[1]
	if cmf&0x0F != zlibMethodDeflate {
		return ErrZlibUnsupportedMethod
	}
	if (uint16(cmf)<<8|uint16(flg))%31 != 0 {
		return ErrZlibFcheckMismatch
	}
	if flg&0b10_0000 != 0 { // FDICT, RFC 1950 bit 5
		return ErrZlibPresetDictionary
	}
	return nil
}

func zlibVerifyChecksum(input, decoded []byte) error {
	sum := newAdler32()
	sum.update(decoded)
	digest := sum.sum()
	if !bytes.Equal(digest[:], input[len(input)-zlibAdlerLen:]) {
		return ErrZlibChecksumMismatch
	}
	return nil
}
