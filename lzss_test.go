package deflate

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func TestLzssAbcabc(t *testing.T) {
	codes := lzssEncode([]byte("abcabc"), NewCache())
	if len(codes) != 4 {
		t.Fatalf("got %d codes, want 4", len(codes))
	}
	for i, want := range []byte("abc") {
		if codes[i].kind != codeLiteral || codes[i].lit != want {
			t.Fatalf("code %d = %+v, want literal %q", i, codes[i], want)
		}
	}
	p := codes[3]
	if p.kind != codePointer || p.distance != 3 || p.length != 0 {
		t.Fatalf("code 3 = %+v, want pointer distance 3 length 3", p)
	}
}

func TestLzssRepeatedByte(t *testing.T) {
	codes := lzssEncode(bytes.Repeat([]byte{'a'}, 4), NewCache())
	if len(codes) != 2 {
		t.Fatalf("got %d codes, want 2", len(codes))
	}
	if codes[0].kind != codeLiteral || codes[0].lit != 'a' {
		t.Fatalf("code 0 = %+v", codes[0])
	}
	if p := codes[1]; p.kind != codePointer || p.distance != 1 || p.length != 0 {
		t.Fatalf("code 1 = %+v, want pointer distance 1 length 3", p)
	}
}

func lzssCorpus() map[string][]byte {
	rng := rand.New(rand.NewSource(7))
	random := make([]byte, 1<<16)
	rng.Read(random)
	narrow := make([]byte, 1<<17)
	for i := range narrow {
		narrow[i] = byte(rng.Intn(4))
	}
	return map[string][]byte{
		"empty":        {},
		"one_byte":     {0x41},
		"two_bytes":    {0x41, 0x42},
		"three_bytes":  {0x41, 0x42, 0x43},
		"just_repeats": bytes.Repeat([]byte{0x00}, 1000),
		"max_distance": bytes.Repeat([]byte{0x7E}, maxWindowLength),
		"max_length":   bytes.Repeat([]byte{0x7E}, 258),
		"over_length":  bytes.Repeat([]byte{0x7E}, 259),
		"alternating":  bytes.Repeat([]byte{0x00, 0xFF}, 10000),
		"text":         []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 200)),
		"random":       random,
		"narrow":       narrow,
	}
}

func TestLzssRoundTrip(t *testing.T) {
	for name, input := range lzssCorpus() {
		t.Run(name, func(t *testing.T) {
			codes := lzssEncode(input, NewCache())
			got, err := lzssDecode(codes)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !bytes.Equal(got, input) {
				t.Fatalf("round trip mismatch: %d bytes in, %d out", len(input), len(got))
			}
		})
	}
}

// Every emitted pointer must respect the window and length bounds, and
// the codes together must cover the input exactly.
func TestLzssPointerInvariants(t *testing.T) {
	for name, input := range lzssCorpus() {
		t.Run(name, func(t *testing.T) {
			pos := 0
			for _, c := range lzssEncode(input, NewCache()) {
				switch c.kind {
				case codeLiteral:
					pos++
				case codePointer:
					d, l := int(c.distance), int(c.length)+minMatchLength
					if d < 1 || d > maxWindowLength {
						t.Fatalf("distance %d out of window", d)
					}
					if d > pos {
						t.Fatalf("distance %d exceeds position %d", d, pos)
					}
					if l < minMatchLength || l > 258 {
						t.Fatalf("length %d out of range", l)
					}
					pos += l
				default:
					t.Fatalf("unexpected code kind %d", c.kind)
				}
			}
			if pos != len(input) {
				t.Fatalf("codes cover %d bytes of %d", pos, len(input))
			}
		})
	}
}

// The matcher resets its prefix table on entry, so a dirty cache must
// not change the emitted stream.
func TestLzssDeterministicAcrossCaches(t *testing.T) {
	input := []byte(strings.Repeat("deterministic encode ", 300))
	clean := NewCache()
	dirty := NewCache()
	lzssEncode(bytes.Repeat([]byte{0xA7}, 4096), dirty)

	a := lzssEncode(input, clean)
	b := lzssEncode(input, dirty)
	if len(a) != len(b) {
		t.Fatalf("code counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("code %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestLzssDecodeErrors(t *testing.T) {
	if _, err := lzssDecode([]code{{kind: codeEndOfBlock}}); !errors.Is(err, errEndOfBlockCode) {
		t.Fatalf("expected end-of-block error, got %v", err)
	}
	bad := []code{{kind: codeLiteral, lit: 'x'}, {kind: codePointer, distance: 5, length: 0}}
	if _, err := lzssDecode(bad); !errors.Is(err, ErrBackReferenceOutOfRange) {
		t.Fatalf("expected ErrBackReferenceOutOfRange, got %v", err)
	}
}

func TestMatchLengthCap(t *testing.T) {
	v := bytes.Repeat([]byte{0x42}, 600)
	if got := matchLength(v, 0, 1); got != maxMatchExtend {
		t.Fatalf("matchLength = %d, want cap %d", got, maxMatchExtend)
	}
	if got := matchLength([]byte{1, 2, 3, 1, 2, 4}, 0, 3); got != 2 {
		t.Fatalf("matchLength = %d, want 2", got)
	}
}
