package gen

import (
	"strings"

	"github.com/shipq/propcheck/proptest"
)

// String returns strings of length [0, size] drawn from charset. An empty
// charset means proptest.CharsetAlphaNum.
func String(charset string) proptest.Generator[string] {
	if charset == "" {
		charset = proptest.CharsetAlphaNum
	}
	return proptest.Func[string]{
		GenerateFn: func(rng *proptest.Rand, size int) string {
			return rng.String(rng.Integer(0, max(0, size)), charset)
		},
		ShrinkFn: func(s string) []string {
			return shrinkString(s, 0, charset[:1])
		},
		ValidFn: func(s string) bool {
			return onlyFrom(s, charset)
		},
	}
}

// StringN returns strings of length [minLen, maxLen] drawn from charset,
// independent of size.
func StringN(charset string, minLen, maxLen int) proptest.Generator[string] {
	if minLen > maxLen {
		panic("proptest/gen: StringN minLen > maxLen")
	}
	if charset == "" {
		charset = proptest.CharsetAlphaNum
	}
	return proptest.Func[string]{
		GenerateFn: func(rng *proptest.Rand, _ int) string {
			return rng.String(rng.Integer(minLen, maxLen), charset)
		},
		ShrinkFn: func(s string) []string {
			return shrinkString(s, minLen, charset[:1])
		},
		ValidFn: func(s string) bool {
			return len(s) >= minLen && len(s) <= maxLen && onlyFrom(s, charset)
		},
	}
}

// Identifier returns identifiers (letter or underscore, then alphanumeric
// or underscore) of length [1, max(1, size)].
func Identifier() proptest.Generator[string] {
	return proptest.Func[string]{
		GenerateFn: func(rng *proptest.Rand, size int) string {
			length := rng.Integer(1, max(1, size))
			return rng.String(1, proptest.CharsetIdentStart) + rng.String(length-1, proptest.CharsetIdentBody)
		},
		ShrinkFn: func(s string) []string {
			var out []string
			for _, c := range shrinkString(s, 1, "a") {
				if isIdentifier(c) {
					out = append(out, c)
				}
			}
			return out
		},
		ValidFn: isIdentifier,
	}
}

// EdgeCaseString returns strings that tend to break parsers and quoting
// code, mixed with random printable strings. Everything shrinks to "".
func EdgeCaseString() proptest.Generator[string] {
	edgeCases := []string{
		"",
		" ",
		"\t",
		"\n",
		"\r\n",
		"'",
		`"`,
		`\`,
		"it's",
		`say "hello"`,
		"line1\nline2",
		"NULL",
		"null",
		"true",
		"0",
		"-1",
		"123.456",
		"日本語",
		"🎉",
		"hello🎉world",
		"<script>",
		"--",
		"; DROP TABLE users;",
	}
	return proptest.Func[string]{
		GenerateFn: func(rng *proptest.Rand, size int) string {
			// 70% chance of edge case, 30% chance of random
			if rng.BoolWithProb(0.7) {
				return proptest.Element(rng, edgeCases)
			}
			return rng.String(rng.Integer(0, max(0, size)), proptest.CharsetPrintable)
		},
		ShrinkFn: func(s string) []string {
			if s == "" {
				return nil
			}
			return []string{""}
		},
	}
}

// shrinkString proposes the shortest allowed prefix, the first half, the
// string without its first or last byte and finally the string with its
// first non-simple byte replaced by simple. Nothing shorter than minLen.
func shrinkString(s string, minLen int, simple string) []string {
	var out []string
	seen := map[string]bool{s: true}
	add := func(c string) {
		if len(c) >= minLen && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	if len(s) > minLen {
		add(s[:minLen])
		add(s[:len(s)/2])
		add(s[1:])
		add(s[:len(s)-1])
	}
	if i := strings.IndexFunc(s, func(r rune) bool { return string(r) != simple }); i >= 0 && i < len(s) && s[i] < 0x80 {
		add(s[:i] + simple + s[i+1:])
	}
	return out
}

func onlyFrom(s, charset string) bool {
	for _, r := range s {
		if !strings.ContainsRune(charset, r) {
			return false
		}
	}
	return true
}

func isIdentifier(s string) bool {
	if s == "" || !strings.ContainsRune(proptest.CharsetIdentStart, rune(s[0])) {
		return false
	}
	return onlyFrom(s[1:], proptest.CharsetIdentBody)
}
