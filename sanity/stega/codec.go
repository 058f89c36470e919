// Package stega embeds invisible edit locators into strings and reads them back.
//
// A payload is serialized to JSON and every byte is written as four base-4
// digits using zero-width characters, so the visible rendering of the host
// string never changes. The encoded run is always a suffix of the string.
package stega

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"
)

// zeroWidths are the four digits of the encoding, in value order.
var zeroWidths = [4]rune{'\u200b', '\u200c', '\u200d', '\ufeff'}

// marker starts every encoded run.
const marker = "\u200d\u200b\u200d\u200b"

// ErrNotEncoded is returned by Decode when a string carries no payload.
var ErrNotEncoded = errors.New("stega: no encoded payload")

var errTruncated = errors.New("stega: truncated payload")

// Payload is the edit locator carried by an encoded string.
type Payload struct {
	Origin string `json:"origin"`
	Href   string `json:"href"`
}

func digit(r rune) (byte, bool) {
	switch r {
	case zeroWidths[0]:
		return 0, true
	case zeroWidths[1]:
		return 1, true
	case zeroWidths[2]:
		return 2, true
	case zeroWidths[3]:
		return 3, true
	}
	return 0, false
}

func isZeroWidth(r rune) bool {
	_, ok := digit(r)
	return ok
}

// Encode returns the invisible representation of v.
func Encode(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(marker) + len(raw)*4*3)
	b.WriteString(marker)
	for _, c := range raw {
		b.WriteRune(zeroWidths[(c>>6)&3])
		b.WriteRune(zeroWidths[(c>>4)&3])
		b.WriteRune(zeroWidths[(c>>2)&3])
		b.WriteRune(zeroWidths[c&3])
	}
	return b.String(), nil
}

// Combine appends the encoding of v to text.
func Combine(text string, v any) (string, error) {
	enc, err := Encode(v)
	if err != nil {
		return text, err
	}
	return text + enc, nil
}

// Split separates s into its visible text and the trailing encoded run.
// encoded is empty when s carries no payload. Visible text may itself end in
// zero-width characters, so the run is read in four-rune steps from the end
// and the outermost marker whose body decodes to JSON wins.
func Split(s string) (cleaned, encoded string) {
	var offsets []int // offsets[n-1] is the byte offset n runes from the end
	start := len(s)
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:start])
		if !isZeroWidth(r) {
			break
		}
		start -= size
		offsets = append(offsets, start)
	}
	for n := len(offsets) - len(offsets)%4; n > 4; n -= 4 {
		i := offsets[n-1]
		if !strings.HasPrefix(s[i:], marker) {
			continue
		}
		if raw, err := decodeBody(s[i+len(marker):]); err == nil && json.Valid(raw) {
			return s[:i], s[i:]
		}
	}
	return s, ""
}

// Clean strips any encoded payload from s.
func Clean(s string) string {
	cleaned, _ := Split(s)
	return cleaned
}

// CleanAll strips every encoded run in s, not only the trailing one. Use it
// on text joined from several encoded strings.
func CleanAll(s string) string {
	var b strings.Builder
	last := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isZeroWidth(r) {
			i += size
			continue
		}
		j := i
		for j < len(s) {
			r, size := utf8.DecodeRuneInString(s[j:])
			if !isZeroWidth(r) {
				break
			}
			j += size
		}
		b.WriteString(Clean(s[last:j]))
		last, i = j, j
	}
	b.WriteString(s[last:])
	return b.String()
}

// IsEncoded reports whether s carries a payload.
func IsEncoded(s string) bool {
	_, enc := Split(s)
	return enc != ""
}

// Decode extracts the payload embedded in s.
func Decode(s string) (Payload, error) {
	var p Payload
	_, enc := Split(s)
	if enc == "" {
		return p, ErrNotEncoded
	}
	raw, err := decodeBody(enc[len(marker):])
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, err
	}
	return p, nil
}

// decodeBody turns the digits after the marker back into bytes.
func decodeBody(body string) ([]byte, error) {
	n := utf8.RuneCountInString(body)
	if n%4 != 0 {
		return nil, errTruncated
	}
	raw := make([]byte, 0, n/4)
	var cur byte
	i := 0
	for _, r := range body {
		d, ok := digit(r)
		if !ok {
			return nil, errTruncated
		}
		cur = cur<<2 | d
		i++
		if i%4 == 0 {
			raw = append(raw, cur)
			cur = 0
		}
	}
	return raw, nil
}
