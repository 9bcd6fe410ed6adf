package deflate

import (
	"bytes"
	"compress/zlib"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestZlibRoundTrip(t *testing.T) {
	cache := NewCache()
	for tname, btype := range blockTypes {
		for name, input := range testCorpus() {
			t.Run(tname+"/"+name, func(t *testing.T) {
				enc := ZlibEncode(input, btype, cache)
				got, err := ZlibDecode(enc, cache)
				if err != nil {
					t.Fatalf("decode: %v", err)
				}
				if !bytes.Equal(got, input) {
					t.Fatalf("round trip mismatch: %d bytes in, %d out", len(input), len(got))
				}
			})
		}
	}
}

func TestZlibHeaderBytes(t *testing.T) {
	enc := ZlibEncode([]byte("header"), BlockTypeFixed, NewCache())
	if enc[0] != 0x78 || enc[1] != 0x9C {
		t.Fatalf("header = % x, want 78 9c", enc[:2])
	}
	if (uint16(enc[0])<<8|uint16(enc[1]))%31 != 0 {
		t.Fatal("header is not a multiple of 31")
	}
}

// The package's central usage: one cache, many calls.
func TestZlibCacheReuse(t *testing.T) {
	cache := NewCache()

	first := []byte("Hello world, this is a wonderful world !")
	enc := ZlibEncode(first, BlockTypeFixed, cache)
	got, err := ZlibDecode(enc, cache)
	if err != nil || !bytes.Equal(got, first) {
		t.Fatalf("first pass: %v, %q", err, got)
	}

	second := []byte("The cache can be reused !")
	enc = ZlibEncode(second, BlockTypeFixed, cache)
	got, err = ZlibDecode(enc, cache)
	if err != nil || !bytes.Equal(got, second) {
		t.Fatalf("second pass: %v, %q", err, got)
	}
}

func TestStdlibReadsOurZlib(t *testing.T) {
	cache := NewCache()
	for tname, btype := range blockTypes {
		for name, input := range testCorpus() {
			t.Run(tname+"/"+name, func(t *testing.T) {
				enc := ZlibEncode(input, btype, cache)
				r, err := zlib.NewReader(bytes.NewReader(enc))
				if err != nil {
					t.Fatalf("compress/zlib rejected the header: %v", err)
				}
				got, err := io.ReadAll(r)
				if err != nil {
					t.Fatalf("compress/zlib rejected the stream: %v", err)
				}
				if err := r.Close(); err != nil {
					t.Fatalf("close (checksum): %v", err)
				}
				if !bytes.Equal(got, input) {
					t.Fatalf("decoded %d bytes, want %d", len(got), len(input))
				}
			})
		}
	}
}

func TestZlibDecodeStdlibStreams(t *testing.T) {
	cache := NewCache()
	for name, input := range testCorpus() {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			w := zlib.NewWriter(&buf)
			if _, err := w.Write(input); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
			got, err := ZlibDecode(buf.Bytes(), cache)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !bytes.Equal(got, input) {
				t.Fatalf("decoded %d bytes, want %d", len(got), len(input))
			}
		})
	}
}

func TestZlibDecodeErrors(t *testing.T) {
	cache := NewCache()
	valid := ZlibEncode([]byte("checksum target"), BlockTypeFixed, cache)
	corrupt := bytes.Clone(valid)
	corrupt[len(corrupt)-1] ^= 0xFF

	tests := []struct {
		name   string
		stream []byte
		want   error
	}{
		{"too_short", []byte{0x78, 0x9C, 0x03}, ErrZlibHeaderTooShort},
		{"empty", nil, ErrZlibHeaderTooShort},
		{"bad_method", []byte{0x79, 0x9C, 0x03, 0x00, 0x00, 0x00}, ErrZlibUnsupportedMethod},
		{"bad_fcheck", []byte{0x78, 0x9D, 0x03, 0x00, 0x00, 0x00}, ErrZlibFcheckMismatch},
		{"preset_dictionary", []byte{0x78, 0x20, 0x03, 0x00, 0x00, 0x00}, ErrZlibPresetDictionary},
		{"bad_checksum", corrupt, ErrZlibChecksumMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ZlibDecode(tt.stream, cache); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestZlibDecodeTo(t *testing.T) {
	cache := NewCache()
	input := []byte(strings.Repeat("fixed-size zlib target ", 40))
	enc := ZlibEncode(input, BlockTypeDynamic, cache)

	dst := make([]byte, len(input))
	if err := ZlibDecodeTo(enc, cache, dst); err != nil {
		t.Fatalf("exact buffer: %v", err)
	}
	if !bytes.Equal(dst, input) {
		t.Fatal("decoded bytes differ")
	}

	if err := ZlibDecodeTo(enc, cache, make([]byte, len(input)-1)); !errors.Is(err, ErrBufferOverflow) {
		t.Fatalf("short buffer: got %v", err)
	}
	if err := ZlibDecodeTo(enc, cache, make([]byte, len(input)+1)); !errors.Is(err, ErrOutputLength) {
		t.Fatalf("long buffer: got %v", err)
	}
}

func FuzzZlibRoundTrip(f *testing.F) {
	f.Add([]byte(""))
	f.Add([]byte("The cache can be reused !"))
	f.Add(bytes.Repeat([]byte{0x00}, 500))
	f.Fuzz(func(t *testing.T, data []byte) {
		cache := NewCache()
		for name, btype := range blockTypes {
			enc := ZlibEncode(data, btype, cache)
			got, err := ZlibDecode(enc, cache)
			if err != nil {
				t.Fatalf("%s: decode: %v", name, err)
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("%s: round trip mismatch", name)
			}
		}
	})
}
