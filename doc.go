// Package deflate implements the DEFLATE compressed data format
// (RFC 1951) and the zlib container around it (RFC 1950), operating on
// in-memory byte slices.
//
// # Overview
//
// Compression runs a greedy LZSS matcher over a 32 KiB sliding window
// and entropy-codes the result with either the fixed Huffman trees or
// dynamic trees built per call (length-limited by Package-Merge).
// Decompression handles all three block types, raw blocks included,
// and accepts multi-block streams.
//
// Every call borrows a caller-owned Cache: 256 KB of working memory
// that serves as the matcher's prefix table on encode and as the
// Huffman lookup tables on decode. Reusing one Cache across calls is
// the intended mode; nothing about a call's output depends on what a
// previous call left in it.
//
// # When to Use
//
//   - Whole values compressed and decompressed in memory: blobs,
//     column pages, network payloads with zlib framing
//   - Tight allocation budgets: one Cache amortizes all table memory
//   - Interoperability: output is standard DEFLATE/zlib, readable by
//     any conforming inflater
//
// # When NOT to Use
//
//   - Streaming or chunked data (use compress/flate; this package is
//     deliberately one block per call over a full slice)
//   - Maximum ratio at any cost (the matcher is greedy depth-1 by
//     design; zstd or brotli compress tighter)
//   - Gzip framing (only raw DEFLATE and zlib are produced)
//
// # Basic Usage
//
//	cache := deflate.NewCache()
//
//	compressed := deflate.ZlibEncode(data, deflate.BlockTypeDynamic, cache)
//	restored, err := deflate.ZlibDecode(compressed, cache)
//
//	// Or without the zlib container:
//	raw := deflate.Deflate(data, deflate.BlockTypeFixed, cache)
//	restored, err = deflate.Inflate(raw, cache)
//
//	// Decoding into a preallocated buffer of the known size:
//	dst := make([]byte, len(data))
//	err = deflate.InflateTo(raw, cache, dst)
//
// # Performance Characteristics
//
// Encoding is a single pass per stage: one prefix-table probe per
// input position, then one table lookup per symbol. Decoding resolves
// most codes with a single narrow peek into a flat lookup table,
// falling back to a full-width peek for long codes. A fixed-tree block
// never expands its input by more than one bit per byte plus the block
// header. A Cache must not be shared by concurrent calls; give each
// goroutine its own.
package deflate
