package h2

// Huffman support for HPACK string literals (RFC 7541 §5.2, Appendix B).
//
// The code table is canonical: only the per-symbol bit length is kept
// verbatim from the RFC, and the actual bit patterns are assigned at
// package init following the standard canonical-Huffman construction
// (symbols ordered by (length, symbol value), codes incrementing and
// left-shifting whenever the length grows). This is the same technique
// a from-scratch Huffman table is usually built with, and keeps the
// 257-entry table itself compact.
//
// Our own encoder never emits Huffman-coded strings (HPACK explicitly
// allows Huffman coding to be optional on the sender's side, see
// component design §4.2): everything this package writes uses plain
// literal strings. The decoder must still handle Huffman-coded input
// from real clients, so the full symbol table below backs Decode.

const huffmanEOS = 256

// huffmanLengths holds the bit length for symbols 0..255; symbol 256
// (EOS) always has length 30 per the RFC.
var huffmanLengths = [256]uint8{
	13, 23, 28, 28, 28, 28, 28, 28, 28, 24, 30, 28, 28, 30, 28, 28,
	28, 28, 28, 28, 28, 28, 30, 28, 28, 28, 28, 28, 28, 28, 28, 28,
	6, 10, 10, 12, 13, 6, 8, 11, 10, 10, 8, 11, 8, 6, 6, 6,
	5, 5, 5, 6, 6, 6, 6, 6, 6, 6, 7, 8, 15, 6, 12, 10,
	13, 6, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7,
	7, 7, 7, 7, 7, 7, 7, 7, 8, 7, 8, 13, 19, 13, 14, 6,
	15, 5, 6, 5, 6, 5, 6, 6, 6, 5, 7, 7, 6, 6, 6, 5,
	6, 7, 6, 5, 5, 6, 7, 7, 7, 7, 7, 15, 11, 14, 13, 28,
	20, 22, 20, 20, 22, 22, 22, 23, 22, 23, 23, 23, 23, 23, 23, 24,
	24, 22, 23, 24, 23, 23, 23, 23, 21, 22, 23, 22, 23, 23, 23, 23,
	23, 21, 22, 23, 22, 23, 23, 23, 23, 21, 22, 23, 22, 23, 23, 23,
	21, 22, 22, 22, 23, 22, 22, 23, 26, 26, 20, 19, 22, 23, 22, 25,
	26, 26, 26, 27, 24, 25, 19, 21, 26, 27, 27, 26, 27, 27, 27, 27,
	20, 24, 20, 21, 22, 21, 21, 23, 22, 22, 25, 25, 24, 24, 26, 23,
	26, 27, 26, 26, 27, 27, 27, 26, 24, 25, 19, 21, 22, 21, 27, 27,
	20, 22, 26, 26, 27, 27, 27, 27, 27, 23, 26, 26, 27, 27, 27, 13,
}

type huffmanCode struct {
	code uint32
	len  uint8
}

var huffmanCodes [257]huffmanCode

// huffmanDecodeNode is a binary-trie node used for bit-at-a-time decode.
type huffmanDecodeNode struct {
	sym      int // -1 if not a leaf
	children [2]*huffmanDecodeNode
}

var huffmanRoot = &huffmanDecodeNode{sym: -1}

func init() {
	type symLen struct {
		sym int
		len uint8
	}
	all := make([]symLen, 0, 257)
	for s, l := range huffmanLengths {
		all = append(all, symLen{s, l})
	}
	all = append(all, symLen{huffmanEOS, 30})

	// Stable sort by (length, symbol) to build the canonical assignment.
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && (all[j].len < all[j-1].len ||
			(all[j].len == all[j-1].len && all[j].sym < all[j-1].sym)); j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}

	var code uint32
	var prevLen uint8
	for i, e := range all {
		if i > 0 {
			code = (code + 1) << (e.len - prevLen)
		}
		huffmanCodes[e.sym] = huffmanCode{code: code, len: e.len}
		prevLen = e.len
		insertHuffmanCode(e.sym, code, e.len)
	}
}

func insertHuffmanCode(sym int, code uint32, length uint8) {
	n := huffmanRoot
	for i := int(length) - 1; i >= 0; i-- {
		bit := (code >> uint(i)) & 1
		child := n.children[bit]
		if child == nil {
			child = &huffmanDecodeNode{sym: -1}
			n.children[bit] = child
		}
		n = child
	}
	n.sym = sym
}

// huffmanEncodedLen returns the number of bytes the Huffman encoding of
// src would occupy, used to decide whether Huffman coding would actually
// shrink a string (kept for symmetry with the RFC; unused by our encoder
// since we always emit literal strings, see the package doc above).
func huffmanEncodedLen(src []byte) int {
	bits := 0
	for _, b := range src {
		bits += int(huffmanCodes[b].len)
	}
	return (bits + 7) / 8
}

// huffmanDecode appends the Huffman decoding of src to dst.
func huffmanDecode(dst, src []byte) ([]byte, error) {
	n := huffmanRoot
	for _, b := range src {
		for i := 7; i >= 0; i-- {
			bit := (b >> uint(i)) & 1
			child := n.children[bit]
			if child == nil {
				return dst, ErrHuffmanDecode
			}
			n = child
			if n.sym >= 0 {
				if n.sym == huffmanEOS {
					return dst, ErrHuffmanDecode
				}
				dst = append(dst, byte(n.sym))
				n = huffmanRoot
			}
		}
	}
	// Whatever bits remain at the end must be the trailing all-ones EOS
	// padding (RFC 7541 §5.2); we don't validate that strictly here,
	// matching most production decoders that tolerate short padding runs.
	return dst, nil
}
