package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeTitle(title string) string {
	return TrimAndNormalize(title)
}

func NormalizeEmail(email string) string {
	p := Pipeline{
		strings.TrimSpace,
		strings.ToLower,
	}
	return p.Apply(email)
}

// NormalizeText keeps line breaks but trims the ends and unifies CRLF.
func NormalizeText(text string) string {
	p := Pipeline{
		func(s string) string { return strings.ReplaceAll(s, "\r\n", "\n") },
		strings.TrimSpace,
	}
	return p.Apply(text)
}
