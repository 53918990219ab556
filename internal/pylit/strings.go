// internal/pylit/strings.go
package pylit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

var errFString = errors.New("f-strings are not literals")

// unquote decodes a Python string literal including its prefix and quotes.
func unquote(lit string) (string, error) {
	i := 0
	for i < len(lit) && strings.IndexByte("rRuUbBfF", lit[i]) >= 0 {
		i++
	}
	prefix := strings.ToLower(lit[:i])
	if strings.Contains(prefix, "f") {
		return "", errFString
	}
	body := lit[i:]

	q := ""
	switch {
	case strings.HasPrefix(body, `"""`), strings.HasPrefix(body, `'''`):
		q = body[:3]
	case strings.HasPrefix(body, `"`), strings.HasPrefix(body, `'`):
		q = body[:1]
	default:
		return "", fmt.Errorf("malformed string %q", lit)
	}
	if len(body) < 2*len(q) || !strings.HasSuffix(body, q) {
		return "", fmt.Errorf("unterminated string %q", lit)
	}
	body = body[len(q) : len(body)-len(q)]
	if strings.Contains(prefix, "r") {
		return body, nil
	}
	return unescape(body, strings.Contains(prefix, "b"))
}

func unescape(s string, bytesLit bool) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
			// line continuation
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			n, _ := strconv.ParseUint(s[i:j], 8, 32)
			writeCode(&b, rune(n), bytesLit)
			i = j - 1
		case 'x', 'u', 'U':
			width := 2
			switch e {
			case 'u':
				width = 4
			case 'U':
				width = 8
			}
			if e != 'x' && bytesLit {
				b.WriteByte('\\')
				b.WriteByte(e)
				continue
			}
			if i+1+width > len(s) {
				return "", fmt.Errorf("truncated \\%c escape", e)
			}
			n, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32)
			if err != nil || (e != 'x' && !utf8.ValidRune(rune(n))) {
				return "", fmt.Errorf("invalid \\%c escape", e)
			}
			writeCode(&b, rune(n), bytesLit)
			i += width
		case 'N':
			return "", errors.New(`\N{...} escapes are not supported`)
		default:
			// unknown escapes are kept verbatim
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String(), nil
}

func writeCode(b *strings.Builder, r rune, bytesLit bool) {
	if bytesLit && r < 0x100 {
		b.WriteByte(byte(r))
		return
	}
	b.WriteRune(r)
}
