package submission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// EncodeCanonical encodes a flat string mapping as canonical JSON: keys sorted,
// no insignificant whitespace, HTML characters left alone and everything
// outside printable ASCII escaped as \uXXXX.
//
// The output is byte-identical to what a sort_keys/compact/ensure_ascii
// encoder produces, which is what receivers recompute signatures over.
func EncodeCanonical(m map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	// encoding/json emits map keys in sorted order
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	return escapeNonASCII(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// escapeNonASCII rewrites every rune >= 0x7f as a lowercase \uXXXX escape,
// using a surrogate pair above the BMP.
func escapeNonASCII(src []byte) []byte {
	out := make([]byte, 0, len(src))
	for i := 0; i < len(src); {
		c := src[i]
		if c < utf8.RuneSelf && c != 0x7f {
			out = append(out, c)
			i++
			continue
		}

		r, size := utf8.DecodeRune(src[i:])
		i += size

		if r > 0xffff {
			r -= 0x10000
			out = appendUnicodeEscape(out, 0xd800+(r>>10)&0x3ff)
			out = appendUnicodeEscape(out, 0xdc00+r&0x3ff)
			continue
		}
		out = appendUnicodeEscape(out, r)
	}
	return out
}

func appendUnicodeEscape(dst []byte, r rune) []byte {
	return append(dst, '\\', 'u',
		hexDigits[r>>12&0xf],
		hexDigits[r>>8&0xf],
		hexDigits[r>>4&0xf],
		hexDigits[r&0xf],
	)
}
