package idcard

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Normalize composes text to NFC, collapses whitespace runs inside each line
// to a single space, trims every line and drops the ones left empty.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = lineBreaks.Replace(norm.NFC.String(s))

	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// NormalizeText normalizes both sides of the card.
func NormalizeText(raw RawText) NormalizedText {
	return NormalizedText{
		Front: Normalize(raw.Front),
		Back:  Normalize(raw.Back),
	}
}

// splitLines splits normalized text; empty text has no lines.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
