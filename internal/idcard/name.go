package idcard

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	mrzLine   = regexp.MustCompile(`^[A-Z<]{6,}$`)
	mrzFiller = regexp.MustCompile(`<+`)

	nameLabel     = regexp.MustCompile(`(?i)Họ\s*và\s*tên|Full\s*name`)
	lettersSpaces = regexp.MustCompile(`^[\p{L} ]+$`)
)

// minNameLen is the shortest line the heuristic accepts as a name.
const minNameLen = 6

// boilerplate lists printed card captions that look like names to the
// heuristic: letters only and long enough. Matched against the upper-cased line.
var boilerplate = []string{
	"CỘNG HÒA", "CỘNG HOÀ", "CHỨNG MINH", "CĂN CƯỚC", "VIỆT NAM", "SPECIMEN", "BẢN MẪU",
	"ĐỘC LẬP", "TỰ DO", "HẠNH PHÚC", "NHÂN DÂN", "CÔNG DÂN",
	"SOCIALIST REPUBLIC", "INDEPENDENCE", "FREEDOM", "HAPPINESS",
	"IDENTITY CARD", "CITIZEN IDENTITY",
	"HỌ VÀ TÊN", "FULL NAME", "NGÀY SINH", "DATE OF BIRTH", "GIỚI TÍNH",
	"QUỐC TỊCH", "NATIONALITY", "QUÊ QUÁN", "PLACE OF ORIGIN",
	"NƠI THƯỜNG TRÚ", "PLACE OF RESIDENCE", "ĐẶC ĐIỂM NHÂN DẠNG",
	"PERSONAL IDENTIFICATION", "NGÓN TRỎ", "FINGERPRINT",
	"HỌ TÊN", "KHAI SINH", "SINH NGÀY", "NGUYÊN QUÁN", "THƯỜNG TRÚ",
}

// CleanName drops single-character tokens, which are what OCR leaves behind
// for misread fillers and bars, and rejoins the rest with single spaces.
func CleanName(s string) string {
	var kept []string
	for _, tok := range strings.Fields(s) {
		if utf8.RuneCountInString(tok) > 1 {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

// DecodeMRZName finds the filler-delimited name line of the card back, e.g.
// "LE<<HOANG<TRONG<<<<", and returns the cleaned name.
func DecodeMRZName(back string) (string, bool) {
	for _, line := range splitLines(back) {
		if !mrzLine.MatchString(line) || !strings.Contains(line, "<<") {
			continue
		}
		if name := CleanName(mrzFiller.ReplaceAllString(line, " ")); name != "" {
			return name, true
		}
	}
	return "", false
}

func nameFromMRZ(d *document) (string, bool) {
	return DecodeMRZName(d.text.Back)
}

// nameFromLabel reads the name next to the "Họ và tên / Full name" caption:
// either what follows the caption on its line or the line below, whichever
// has more letters.
func nameFromLabel(d *document) (string, bool) {
	for i, line := range d.front {
		locs := nameLabel.FindAllStringIndex(line, -1)
		if locs == nil {
			continue
		}
		candidate := lettersOnly(line[locs[len(locs)-1][1]:])
		if i+1 < len(d.front) {
			next := lettersOnly(d.front[i+1])
			if utf8.RuneCountInString(next) > utf8.RuneCountInString(candidate) {
				candidate = next
			}
		}
		if name := CleanName(candidate); name != "" {
			return name, true
		}
	}
	return "", false
}

func nameFromHeuristic(d *document) (string, bool) {
	for _, line := range d.front {
		if utf8.RuneCountInString(line) < minNameLen || !lettersSpaces.MatchString(line) {
			continue
		}
		if isBoilerplate(line) {
			continue
		}
		if name := CleanName(line); name != "" {
			return name, true
		}
	}
	return "", false
}

func isBoilerplate(line string) bool {
	upper := strings.ToUpper(line)
	for _, phrase := range boilerplate {
		if strings.Contains(upper, phrase) {
			return true
		}
	}
	return false
}

// lettersOnly removes everything except letters and spaces.
func lettersOnly(s string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(stripped), " ")
}

var fullNameChain = firstOf(nameFromMRZ, nameFromLabel, nameFromHeuristic)

// ExtractFullName runs the MRZ, caption and heuristic strategies in order.
func ExtractFullName(text NormalizedText) string {
	name, _ := fullNameChain(newDocument(text))
	return name
}
