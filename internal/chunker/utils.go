package chunker

import (
	"strings"
	"unicode/utf8"
)

// textLen returns the length of text in characters.
func textLen(text string) int {
	return utf8.RuneCountInString(text)
}

// firstNChars returns the first n characters of text.
func firstNChars(text string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}

// leadingText joins lines from start onward until at least n characters are
// collected and returns the first n of them.
func leadingText(lines []classifiedLine, start, n int) string {
	if n <= 0 || start >= len(lines) {
		return ""
	}
	var buf strings.Builder
	for i := start; i < len(lines); i++ {
		if i > start {
			buf.WriteByte('\n')
		}
		buf.WriteString(lines[i].text)
		if textLen(buf.String()) >= n {
			break
		}
	}
	return firstNChars(buf.String(), n)
}

// appendUnique appends values not already present in dst, keeping order.
func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		seen := false
		for _, existing := range dst {
			if existing == v {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, v)
		}
	}
	return dst
}
