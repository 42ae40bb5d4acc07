package idcard

import "regexp"

var (
	labeledID = regexp.MustCompile(`(Số|So|SỐ|ID|No\.?)\s*[:\-]?\s*([0-9]{9,12})`)
	digitRun  = regexp.MustCompile(`[0-9]+`)
)

const (
	cccdDigits = 12
	cmndDigits = 9
)

func idFromLabel(d *document) (string, bool) {
	m := labeledID.FindStringSubmatch(d.merged)
	if m == nil {
		return "", false
	}
	return m[2], true
}

// bareRuns returns the digit runs of text that have exactly one of the given
// lengths. A run is bounded by non-digits, so a 12-digit run never matches
// inside a longer number.
func bareRuns(text string, lengths ...int) []string {
	var out []string
	for _, run := range digitRun.FindAllString(text, -1) {
		for _, n := range lengths {
			if len(run) == n {
				out = append(out, run)
				break
			}
		}
	}
	return out
}

func idFromBareCCCD(d *document) (string, bool) {
	if runs := bareRuns(d.merged, cccdDigits); len(runs) > 0 {
		return runs[0], true
	}
	return "", false
}

// idFromBareAny prefers a 12-digit run over a 9-digit one.
func idFromBareAny(d *document) (string, bool) {
	runs := bareRuns(d.merged, cmndDigits, cccdDigits)
	for _, run := range runs {
		if len(run) == cccdDigits {
			return run, true
		}
	}
	if len(runs) > 0 {
		return runs[0], true
	}
	return "", false
}

var idNumberChain = firstOf(idFromLabel, idFromBareCCCD, idFromBareAny)

// ExtractIDNumber finds the card number in the merged text of both sides.
func ExtractIDNumber(text NormalizedText) string {
	id, _ := idNumberChain(newDocument(text))
	return id
}

// InferDocType maps an ID number to the card generation. An empty number
// yields CMND.
func InferDocType(idNumber string) DocType {
	if len(idNumber) >= cccdDigits {
		return DocTypeCCCD
	}
	return DocTypeCMND
}
