package subtitle

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText decodes raw subtitle bytes to UTF-8 using heuristic charset
// detection, replacing undecodable bytes instead of failing, and normalizes
// line endings so cue-block splitting works on CRLF files.
func decodeText(raw []byte) string {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	var text string
	if utf8.Valid(raw) {
		text = string(raw)
	} else {
		// A BOM names the encoding outright; the sniffer only decides
		// for BOM-less content.
		enc, _, _ := charset.DetermineEncoding(raw, "")
		decoded, _, err := transform.Bytes(unicode.BOMOverride(enc.NewDecoder()), raw)
		if err != nil {
			decoded = raw
		}
		text = strings.ToValidUTF8(string(decoded), "�")
	}

	text = strings.TrimPrefix(text, "﻿")
	return normalizeNewlines(text)
}

// detectEncodingName names the charset of raw bytes for handing to an
// external tool. Returns "" when the content is plain UTF-8 and needs no
// explicit declaration.
func detectEncodingName(raw []byte) string {
	if bytes.HasPrefix(raw, utf8BOM) || utf8.Valid(raw) {
		return ""
	}
	_, name, _ := charset.DetermineEncoding(raw, "")
	if strings.EqualFold(name, "utf-8") {
		return ""
	}
	return name
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
