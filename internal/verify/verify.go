// Package verify compares the fields read from an ID card with the identity
// a caller claims.
package verify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/a3tai/mcp-idcard-reader/internal/idcard"
)

// DefaultThreshold is the minimum name similarity counted as a match.
const DefaultThreshold = 0.85

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Claim is the identity a caller asserts for a card. Empty fields are not
// checked.
type Claim struct {
	FullName string `json:"fullName,omitempty"`
	IDNumber string `json:"idNumber,omitempty"`
	DOB      string `json:"dob,omitempty"`
}

// FieldResult is the comparison of one field.
type FieldResult struct {
	Field     string  `json:"field"`
	Extracted string  `json:"extracted"`
	Claimed   string  `json:"claimed"`
	Score     float64 `json:"score"`
	Match     bool    `json:"match"`
	Checked   bool    `json:"checked"`
}

// Result is the outcome of Compare. Match holds only when at least one
// field was checked and every checked field matched.
type Result struct {
	Match     bool          `json:"match"`
	Threshold float64       `json:"threshold"`
	Fields    []FieldResult `json:"fields"`
}

// Compare checks claim against the extracted fields. Names are compared
// with Jaro-Winkler similarity after folding diacritics and case; the ID
// number must match exactly; the date of birth is compared in ISO form.
func Compare(fields idcard.Fields, claim Claim, threshold float64) Result {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}

	result := Result{
		Threshold: threshold,
		Fields: []FieldResult{
			compareName(fields.FullName, claim.FullName, threshold),
			compareExact("idNumber", fields.IDNumber, claim.IDNumber, digitsOnly),
			compareExact("dobISO", fields.DOB, claim.DOB, claimedDate),
		},
	}

	checked := 0
	result.Match = true
	for _, f := range result.Fields {
		if !f.Checked {
			continue
		}
		checked++
		if !f.Match {
			result.Match = false
		}
	}
	if checked == 0 {
		result.Match = false
	}
	return result
}

func compareName(extracted, claimed string, threshold float64) FieldResult {
	r := FieldResult{Field: "fullName", Extracted: extracted, Claimed: claimed}
	if strings.TrimSpace(claimed) == "" {
		return r
	}
	r.Checked = true
	a, b := FoldName(extracted), FoldName(claimed)
	if a == "" {
		return r
	}
	r.Score = strutil.Similarity(a, b, metrics.NewJaroWinkler())
	r.Match = r.Score >= threshold
	return r
}

func compareExact(field, extracted, claimed string, canonical func(string) string) FieldResult {
	r := FieldResult{Field: field, Extracted: extracted, Claimed: claimed}
	if strings.TrimSpace(claimed) == "" {
		return r
	}
	r.Checked = true
	want := canonical(claimed)
	if extracted != "" && want != "" && extracted == want {
		r.Score = 1
		r.Match = true
	}
	return r
}

// FoldName uppercases s, strips Vietnamese diacritics and collapses
// whitespace, so OCR output with or without accents compares equal.
func FoldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.NewReplacer("Đ", "D", "đ", "d").Replace(folded)
	return strings.Join(strings.Fields(strings.ToUpper(folded)), " ")
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// claimedDate accepts an ISO date or a card-style day/month/year date.
func claimedDate(s string) string {
	s = strings.TrimSpace(s)
	if isoDate.MatchString(s) {
		return s
	}
	return idcard.ToISO(s)
}
