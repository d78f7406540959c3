package sanitizer

import (
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

const (
	zeroWidthJoiner   = '\u200d'
	variationSelect16 = '\ufe0f'
)

// StripControl removes control and format runes other than whitespace.
// Zero-width joiners and emoji variation selectors are kept so composed emoji
// such as the default class emoji survive.
func StripControl(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == zeroWidthJoiner || r == variationSelect16:
			return r
		case unicode.IsSpace(r):
			return r
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			return -1
		}
		return r
	}, s)
}

// TrimAndNormalize trims s and collapses every whitespace run to one space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	lastWasSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		result.WriteRune(r)
		lastWasSpace = false
	}
	return result.String()
}

// Truncate cuts s to at most n runes.
func Truncate(n int) Strategy {
	return func(s string) string {
		runes := []rune(s)
		if len(runes) <= n {
			return s
		}
		return strings.TrimSpace(string(runes[:n]))
	}
}

// SanitizeName is used for member names, nicknames and class or teacher names.
func SanitizeName(input string) string {
	return Pipeline{StripControl, TrimAndNormalize, Truncate(100)}.Apply(input)
}

// SanitizeText keeps line breaks for longer free text such as class descriptions.
func SanitizeText(input string) string {
	lines := strings.Split(StripControl(input), "\n")
	for i, line := range lines {
		lines[i] = TrimAndNormalize(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func SanitizeEmail(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
