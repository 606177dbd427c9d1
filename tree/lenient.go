package tree

import (
	"bytes"
	"encoding/json"
)

// xssiGuard is the non-execute prefix some servers and older builds put in
// front of JSON payloads.
const xssiGuard = ")]}'"

// normalizeLenient rewrites the first value of data into JSON with comments
// (JWCC), which hujson can standardize. Single quoted strings become double
// quoted, bare words that are not JSON literals become strings, ; becomes
// a comma and = or => becomes a colon. Text after the first complete value
// is dropped. Malformed input is passed through for the strict parser to
// reject.
func normalizeLenient(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte(xssiGuard))
	out := make([]byte, 0, len(data))
	depth := 0
	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			out = append(out, c)
			i++
			continue
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			end := lineEnd(data, i)
			out = append(out, data[i:end]...)
			i = end
			continue
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			end := len(data)
			if at := bytes.Index(data[i+2:], []byte("*/")); at >= 0 {
				end = i + 2 + at + 2
			}
			out = append(out, data[i:end]...)
			i = end
			continue
		case c == '#':
			end := lineEnd(data, i)
			out = append(out, '/', '/')
			out = append(out, data[i+1:end]...)
			i = end
			continue
		case c == '{' || c == '[':
			depth++
			out = append(out, c)
			i++
			continue
		case c == '}' || c == ']':
			depth--
			out = append(out, c)
			i++
		case c == ',' || c == ':':
			out = append(out, c)
			i++
			continue
		case c == ';':
			out = append(out, ',')
			i++
			continue
		case c == '=':
			out = append(out, ':')
			i++
			if i < len(data) && data[i] == '>' {
				i++
			}
			continue
		case c == '"':
			end := doubleQuotedEnd(data, i)
			out = append(out, data[i:end]...)
			i = end
		case c == '\'':
			var end int
			out, end = appendSingleQuoted(out, data, i)
			i = end
		case c == '\\':
			out = append(out, data[i:]...)
			return out
		default:
			end := i
			for end < len(data) && !endsBareWord(data[end]) {
				end++
			}
			if end == i {
				// A lone slash; leave it for the strict parser to reject.
				return append(out, data[i:]...)
			}
			word := data[i:end]
			if isJSONLiteral(word) {
				out = append(out, word...)
			} else {
				var buf bytes.Buffer
				_ = writeScalar(&buf, string(word))
				out = append(out, buf.Bytes()...)
			}
			i = end
		}
		// A value just ended; stop once it closes the top level.
		if depth <= 0 {
			return out
		}
	}
	return out
}

func lineEnd(data []byte, from int) int {
	if at := bytes.IndexByte(data[from:], '\n'); at >= 0 {
		return from + at
	}
	return len(data)
}

// doubleQuotedEnd returns the index after the closing quote of the string
// starting at from, or len(data) when it is unterminated.
func doubleQuotedEnd(data []byte, from int) int {
	for i := from + 1; i < len(data); i++ {
		switch data[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(data)
}

func appendSingleQuoted(out, data []byte, from int) ([]byte, int) {
	out = append(out, '"')
	for i := from + 1; i < len(data); i++ {
		c := data[i]
		switch c {
		case '\\':
			if i+1 < len(data) && data[i+1] == '\'' {
				out = append(out, '\'')
			} else if i+1 < len(data) {
				out = append(out, c, data[i+1])
			} else {
				out = append(out, c)
			}
			i++
		case '"':
			out = append(out, '\\', '"')
		case '\'':
			return append(out, '"'), i + 1
		default:
			out = append(out, c)
		}
	}
	return out, len(data)
}

func endsBareWord(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f',
		'{', '}', '[', ']', ',', ':', ';', '=', '#', '/', '\\', '"', '\'':
		return true
	}
	return false
}

func isJSONLiteral(word []byte) bool {
	switch string(word) {
	case "true", "false", "null":
		return true
	}
	if len(word) == 0 || !(word[0] == '-' || (word[0] >= '0' && word[0] <= '9')) {
		return false
	}
	return json.Valid(word)
}
