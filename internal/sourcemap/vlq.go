// Package sourcemap decodes Source Map v3 documents and answers
// generated-to-original position queries.
//
// It implements the decoding side of the format as specified at:
// https://sourcemaps.info/spec.html
package sourcemap

import (
	"math"
	"strings"
)

// Base64 alphabet used for VLQ encoding in source maps
const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// base64Values is a lookup table for decoding base64 characters
var base64Values [256]int8

func init() {
	for i := range base64Values {
		base64Values[i] = -1
	}
	for i := 0; i < len(base64Alphabet); i++ {
		base64Values[base64Alphabet[i]] = int8(i)
	}
}

// VLQ constants
const (
	vlqBaseShift       = 5
	vlqBase            = 1 << vlqBaseShift // 32
	vlqBaseMask        = vlqBase - 1       // 31 (0x1F)
	vlqContinuationBit = vlqBase           // 32 (0x20)
	vlqSignBit         = 1

	// Raw encoding of math.MinInt32, the one value whose magnitude does
	// not fit in 31 bits
	vlqMinInt32 = 1<<32 | vlqSignBit
)

// EncodeVLQ encodes a signed integer as a VLQ base64 string.
func EncodeVLQ(value int) string {
	var buf strings.Builder

	// Positive numbers: value << 1, negative numbers: ((-value) << 1) | 1
	var vlq uint64
	if value < 0 {
		vlq = uint64(-value)<<1 | vlqSignBit
	} else {
		vlq = uint64(value) << 1
	}

	for {
		digit := vlq & vlqBaseMask
		vlq >>= vlqBaseShift
		if vlq > 0 {
			digit |= vlqContinuationBit
		}
		buf.WriteByte(base64Alphabet[digit])
		if vlq == 0 {
			break
		}
	}

	return buf.String()
}

// DecodeVLQ decodes the VLQ value at the head of input and returns it
// together with the number of bytes consumed.
func DecodeVLQ(input string) (value, consumed int, err error) {
	value, next, err := decodeVLQ(input, 0)
	if err != nil {
		return 0, 0, err
	}
	return value, next, nil
}

// decodeVLQ decodes one value starting at s[start] and returns the offset
// just past it. Error offsets are relative to s.
func decodeVLQ(s string, start int) (int, int, error) {
	var vlq uint64
	var shift uint

	for i := start; ; i++ {
		if i >= len(s) {
			return 0, i, &TruncatedVLQError{Offset: i}
		}

		digit := base64Values[s[i]]
		if digit < 0 {
			return 0, i, &InvalidVLQCharacterError{Char: s[i], Offset: i}
		}

		continuation := digit&vlqContinuationBit != 0
		vlq |= uint64(digit&vlqBaseMask) << shift
		if vlq > vlqMinInt32 || shift > 32 {
			return 0, i, &VLQOverflowError{Offset: start}
		}
		shift += vlqBaseShift

		if !continuation {
			if vlq > math.MaxUint32 && vlq != vlqMinInt32 {
				return 0, i, &VLQOverflowError{Offset: start}
			}
			negative := vlq&vlqSignBit != 0
			magnitude := int(vlq >> 1)
			if negative {
				return -magnitude, i + 1, nil
			}
			return magnitude, i + 1, nil
		}
	}
}

// vlqReader lazily decodes consecutive VLQ values from s, starting at pos.
// Offsets in errors are offsets into s, so s is usually a prefix of the
// whole mappings string.
type vlqReader struct {
	s   string
	pos int
}

func (r *vlqReader) done() bool {
	return r.pos >= len(r.s)
}

func (r *vlqReader) next() (int, error) {
	value, next, err := decodeVLQ(r.s, r.pos)
	if err != nil {
		return 0, err
	}
	r.pos = next
	return value, nil
}
