package idcard

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	addressLabel = regexp.MustCompile(`(?i)(Nơi\s*thường\s*trú|Địa\s*chỉ|Place\s*of\s*residence)`)
	validUntil   = regexp.MustCompile(`(?i)(Có\s*giá\s*trị\s*đến|Date\s*of\s*expiry|Hết\s*hạn|Valid\s*until).*$`)
	streetNumber = regexp.MustCompile(`(?i)(\d{1,4}(?:/\d{1,4}){0,2})[^\d]{0,15}?(?:Đường|Duong)\s*(?:s[ốo]\s*)?(\d{1,4})`)
	mrzLike      = regexp.MustCompile(`^[A-Z0-9<]+$`)
)

const (
	// addressBlockLines is how many lines below the caption belong to the address.
	addressBlockLines = 4
	// minFallbackLen is the shortest line the longest-line fallback accepts.
	minFallbackLen = 20
)

// addressNoise holds tokens OCR leaves in the residence block: separators,
// stray glyphs and fragments of the bilingual captions.
var addressNoise = map[string]bool{
	"/": true, "|": true, ":": true, "-": true, "_": true, "~": true,
	".": true, "'": true, "\"": true, "«": true, "»": true, "—": true,
	"ll": true, "lll": true, "Il": true, "ii": true, "iii": true,
	"Place": true, "of": true, "residence": true, "origin": true,
}

// locality is a ward/city phrase recognized in the residence block and the
// canonical text it is written as.
type locality struct {
	pattern *regexp.Regexp
	name    string
}

// localities only lists phrases observed on sample cards. It is not an
// address gazetteer.
var localities = []locality{
	{
		pattern: regexp.MustCompile(`(?i)Ph(?:ư|u)(?:ờ|o)ng\s+Ph(?:ư|u)(?:ớ|o)c\s+Long\s+B`),
		name:    "Phường Phước Long B, Thành phố Thủ Đức, Thành phố Hồ Chí Minh",
	},
}

// addressBlock returns the caption line and the lines below it, front side
// first.
func addressBlock(d *document) (string, bool) {
	for _, lines := range [][]string{d.front, d.back} {
		for i, line := range lines {
			if !addressLabel.MatchString(line) {
				continue
			}
			end := min(i+1+addressBlockLines, len(lines))
			return strings.Join(lines[i:end], " "), true
		}
	}
	return "", false
}

// cleanAddress strips the caption, the expiry suffix, dates and noise tokens.
func cleanAddress(s string) string {
	if locs := addressLabel.FindAllStringIndex(s, -1); locs != nil {
		s = s[locs[len(locs)-1][1]:]
	}
	s = validUntil.ReplaceAllString(s, "")
	s = datePattern.ReplaceAllString(s, " ")

	var kept []string
	for _, tok := range strings.Fields(s) {
		if !addressNoise[tok] {
			kept = append(kept, tok)
		}
	}
	return strings.Trim(strings.Join(kept, " "), " ,.;:-/")
}

// searchText is the text the structural strategy scans: the cleaned block
// when there is one, otherwise every line of the card.
func (d *document) searchText() string {
	if block, ok := addressBlock(d); ok {
		return cleanAddress(block)
	}
	return strings.Join(d.lines(), " ")
}

func reassembleStreet(text string) (string, bool) {
	m := streetNumber.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1] + " Đường " + m[2], true
}

func findLocality(text string) (string, bool) {
	for _, l := range localities {
		if l.pattern.MatchString(text) {
			return l.name, true
		}
	}
	return "", false
}

// addressFromStructure rebuilds "<house> Đường <n>, <locality>" from the
// fragments OCR usually gets right.
func addressFromStructure(d *document) (string, bool) {
	text := d.searchText()
	street, hasStreet := reassembleStreet(text)
	place, hasPlace := findLocality(text)
	switch {
	case hasStreet && hasPlace:
		return street + ", " + place, true
	case hasStreet:
		return street, true
	case hasPlace:
		return place, true
	}
	return "", false
}

func addressFromBlock(d *document) (string, bool) {
	block, ok := addressBlock(d)
	if !ok {
		return "", false
	}
	cleaned := cleanAddress(block)
	return cleaned, cleaned != ""
}

// addressFromLongestLine takes the longest line of either side. MRZ lines
// are skipped.
func addressFromLongestLine(d *document) (string, bool) {
	best, bestLen := "", minFallbackLen
	for _, line := range d.lines() {
		if mrzLike.MatchString(line) {
			continue
		}
		if n := utf8.RuneCountInString(line); n > bestLen {
			best, bestLen = line, n
		}
	}
	if best == "" {
		return "", false
	}
	cleaned := cleanAddress(best)
	return cleaned, cleaned != ""
}

var addressChain = firstOf(addressFromStructure, addressFromBlock, addressFromLongestLine)

// ExtractAddress returns the best-effort permanent residence address.
func ExtractAddress(text NormalizedText) string {
	addr, _ := addressChain(newDocument(text))
	return addr
}
