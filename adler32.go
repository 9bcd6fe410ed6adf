package deflate

import "encoding/binary"

// adlerBase is the largest prime below 2^16 (RFC 1950 section 8.2).
const adlerBase = 65521

// adler32 is the rolling checksum sealing a zlib stream: two mod-65521
// sums over the uncompressed bytes.
type adler32 struct {
	s1, s2 uint32
}

func newAdler32() adler32 {
	return adler32{s1: 1}
}

func (a *adler32) update(p []byte) {
	for _, b := range p {
		a.s1 = (a.s1 + uint32(b)) % adlerBase
		a.s2 = (a.s2 + a.s1) % adlerBase
	}
}

// sum serializes the checksum big-endian, as it travels in the trailer.
func (a *adler32) sum() [4]byte {
	var out [4]byte
	binary.BigEndian.PutUint32(out[:], a.s2<<16|a.s1)
	return out
}
