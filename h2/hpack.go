// HPACK header compression, RFC 7541. The shape follows the teacher's
// hpack.go: a field type carrying name/value/sensitive, a static table,
// and a dynamic table with FIFO eviction — reworked here into a pair of
// exclusively-owned Encoder/Decoder objects (one each per connection, see
// conn.go) instead of a single shared map, matching §4.3/§9's "two tables
// per connection, never shared" requirement.
package h2

import "fmt"

// HeaderField is one decoded (name, value) header pair. Sensitive marks
// a field that must always be re-encoded as literal-never-indexed
// (e.g. an Authorization header), matching RFC 7541 §7.1.3.
type HeaderField struct {
	Name      string
	Value     string
	Sensitive bool
}

// IsPseudo reports whether f is an HTTP/2 pseudo-header (":method", etc).
func (f HeaderField) IsPseudo() bool {
	return len(f.Name) > 0 && f.Name[0] == ':'
}

// HPACKEncoder compresses header lists using one connection's dynamic
// table. Not safe for concurrent use; the connection state machine is
// its only writer (§9).
type HPACKEncoder struct {
	table *hpackDynamicTable
}

// NewHPACKEncoder returns an encoder with an empty dynamic table at the
// default 4096-octet capacity.
func NewHPACKEncoder() *HPACKEncoder {
	return &HPACKEncoder{table: newHPACKDynamicTable()}
}

// SetMaxTableSize applies a new dynamic table capacity, as negotiated by
// a HEADER_TABLE_SIZE SETTINGS parameter from the peer.
func (e *HPACKEncoder) SetMaxTableSize(n int) {
	e.table.setMaxSize(n)
}

// WriteField appends the encoding of f to dst. When index is true and f
// is not sensitive, the field is written as literal-with-incremental-
// indexing and inserted into the dynamic table; otherwise it's written
// as literal-without-indexing (or never-indexed for sensitive fields)
// and the table is untouched. As huffman.go's file comment explains,
// strings are always written as plain literals — this encoder never
// emits Huffman code.
func (e *HPACKEncoder) WriteField(dst []byte, f HeaderField, index bool) []byte {
	if f.Sensitive {
		dst = appendInt(dst, 4, 0x10, 0)
		dst = appendString(dst, f.Name)
		dst = appendString(dst, f.Value)
		return dst
	}

	if !index {
		dst = appendInt(dst, 4, 0x00, 0)
		dst = appendString(dst, f.Name)
		dst = appendString(dst, f.Value)
		return dst
	}

	dst = appendInt(dst, 6, 0x40, 0)
	dst = appendString(dst, f.Name)
	dst = appendString(dst, f.Value)
	e.table.add(f)
	return dst
}

// HPACKDecoder decompresses header blocks using one connection's dynamic
// table. Not safe for concurrent use (§9).
type HPACKDecoder struct {
	table *hpackDynamicTable
}

// NewHPACKDecoder returns a decoder with an empty dynamic table at the
// default 4096-octet capacity.
func NewHPACKDecoder() *HPACKDecoder {
	return &HPACKDecoder{table: newHPACKDynamicTable()}
}

// SetMaxTableSize sets the dynamic table's capacity and evicts down to
// fit. A dynamic table size update inside a later header block replaces
// this capacity with the value it carries; DecodeFragment does not check
// that value against the one set here.
func (d *HPACKDecoder) SetMaxTableSize(n int) {
	d.table.setMaxSize(n)
}

// DecodeFragment decodes a complete HPACK header block into an ordered
// field list. Any malformed input is reported as ErrHPACKCompression
// (wrapping the more specific cause), which the connection state machine
// maps to a GOAWAY with COMPRESSION_ERROR per §4.3 step 5.
func (d *HPACKDecoder) DecodeFragment(block []byte) ([]HeaderField, error) {
	var fields []HeaderField

	for len(block) > 0 {
		c := block[0]
		var (
			f   HeaderField
			err error
		)

		switch {
		case c&0x80 == 0x80: // indexed header field, RFC 7541 §6.1
			var idx uint64
			block, idx, err = readInt(7, block)
			if err == nil {
				var ok bool
				f, ok = d.table.lookup(idx)
				if !ok {
					err = fmt.Errorf("%w: index %d out of range", ErrHPACKCompression, idx)
				}
			}

		case c&0xc0 == 0x40: // literal with incremental indexing §6.2.1
			block, f, err = d.readLiteral(6, block)
			if err == nil {
				d.table.add(f)
			}

		case c&0xe0 == 0x20: // dynamic table size update §6.3
			var n uint64
			block, n, err = readInt(5, block)
			if err == nil {
				d.table.setMaxSize(int(n))
				continue
			}

		case c&0xf0 == 0x10: // literal never indexed §6.2.3
			block, f, err = d.readLiteral(4, block)
			f.Sensitive = true

		default: // c&0xf0 == 0x00: literal without indexing §6.2.2
			block, f, err = d.readLiteral(4, block)
		}

		if err != nil {
			return nil, joinHPACKErr(err)
		}

		fields = append(fields, f)
	}

	return fields, nil
}

func (d *HPACKDecoder) readLiteral(prefixBits int, b []byte) ([]byte, HeaderField, error) {
	var (
		f   HeaderField
		idx uint64
		err error
	)

	b, idx, err = readInt(prefixBits, b)
	if err != nil {
		return b, f, err
	}

	if idx == 0 {
		var name string
		b, name, err = readString(b)
		if err != nil {
			return b, f, err
		}
		f.Name = name
	} else {
		entry, ok := d.table.lookup(idx)
		if !ok {
			return b, f, fmt.Errorf("%w: index %d out of range", ErrHPACKCompression, idx)
		}
		f.Name = entry.Name
	}

	var value string
	b, value, err = readString(b)
	f.Value = value

	return b, f, err
}

func joinHPACKErr(err error) error {
	if err == ErrHPACKCompression {
		return err
	}
	return fmt.Errorf("%w: %s", ErrHPACKCompression, err)
}

// readInt decodes an RFC 7541 §5.1 variable-length integer with the
// given prefix size in bits, returning the remaining bytes and value.
func readInt(prefixBits int, b []byte) ([]byte, uint64, error) {
	if len(b) == 0 {
		return b, 0, ErrHPACKCompression
	}

	mask := byte(1<<uint(prefixBits)) - 1
	n := uint64(b[0] & mask)
	b = b[1:]

	if n < uint64(mask) {
		return b, n, nil
	}

	var m uint
	for {
		if len(b) == 0 {
			return b, 0, ErrHPACKCompression
		}
		c := b[0]
		b = b[1:]
		n += uint64(c&0x7f) << m
		if c&0x80 == 0 {
			break
		}
		m += 7
		if m > 63 {
			return b, 0, ErrHPACKCompression
		}
	}

	return b, n, nil
}

// appendInt appends the RFC 7541 §5.1 encoding of i, with the high bits
// of the first (prefix) byte already set to pattern.
func appendInt(dst []byte, prefixBits int, pattern byte, i uint64) []byte {
	max := uint64(1<<uint(prefixBits)) - 1

	if i < max {
		return append(dst, pattern|byte(i))
	}

	dst = append(dst, pattern|byte(max))
	i -= max
	for i >= 0x80 {
		dst = append(dst, byte(i&0x7f|0x80))
		i >>= 7
	}
	return append(dst, byte(i))
}

// readString decodes an RFC 7541 §5.2 string literal, Huffman-decoding
// it if the H bit is set.
func readString(b []byte) ([]byte, string, error) {
	if len(b) == 0 {
		return b, "", ErrHPACKCompression
	}

	huff := b[0]&0x80 == 0x80

	b, n, err := readInt(7, b)
	if err != nil {
		return b, "", err
	}
	if uint64(len(b)) < n {
		return b, "", ErrHPACKCompression
	}

	raw := b[:n]
	b = b[n:]

	if !huff {
		return b, string(raw), nil
	}

	decoded, err := huffmanDecode(nil, raw)
	if err != nil {
		return b, "", err
	}
	return b, string(decoded), nil
}

// appendString appends a plain (non-Huffman) string literal, per the
// "encoder never Huffman-encodes" policy described in huffman.go.
func appendString(dst []byte, s string) []byte {
	dst = appendInt(dst, 7, 0x00, uint64(len(s)))
	return append(dst, s...)
}
