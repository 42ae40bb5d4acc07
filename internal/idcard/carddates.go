package idcard

import (
	"cmp"
	"regexp"
	"slices"
)

var (
	dobLabel     = regexp.MustCompile(`(?i)(Ngày\s*sinh|Date\s*of\s*birth)`)
	issueCaption = regexp.MustCompile(`(?i)(Date,\s*month,\s*year|Ngày,\s*tháng,\s*năm)`)
	issueLabel   = regexp.MustCompile(`(?i)(Ngày\s*cấp|Date\s*of\s*issue)`)
	expiryLabel  = regexp.MustCompile(`(?i)(Có\s*giá\s*trị\s*đến|Date\s*of\s*expiry|Hết\s*hạn)`)
)

// captionLookahead is how many lines below the issue caption may hold the date.
const captionLookahead = 2

// dateOnLabeledLine returns the first date on the first line, across sides
// in the given order, that matches label and carries a date.
func dateOnLabeledLine(label *regexp.Regexp, sides ...[]string) (string, bool) {
	for _, lines := range sides {
		for _, line := range lines {
			if !label.MatchString(line) {
				continue
			}
			if date, ok := firstDate(line); ok {
				return date, true
			}
		}
	}
	return "", false
}

func dobFromLabel(d *document) (string, bool) {
	return dateOnLabeledLine(dobLabel, d.front, d.back)
}

// dobFromEarliestYear picks the candidate with the smallest year: a birth
// date is the earliest date printed on the card.
func dobFromEarliestYear(d *document) (string, bool) {
	best, bestYear := "", 0
	for _, date := range uniqueDates(d.merged) {
		year, ok := dateYear(date)
		if !ok {
			continue
		}
		if best == "" || year < bestYear {
			best, bestYear = date, year
		}
	}
	return best, best != ""
}

var dobChain = firstOf(dobFromLabel, dobFromEarliestYear)

func issueFromCaption(d *document) (string, bool) {
	for i, line := range d.back {
		if !issueCaption.MatchString(line) {
			continue
		}
		for j := i; j <= i+captionLookahead && j < len(d.back); j++ {
			if date, ok := firstDate(d.back[j]); ok {
				return date, true
			}
		}
	}
	return "", false
}

func issueFromLabel(d *document) (string, bool) {
	return dateOnLabeledLine(issueLabel, d.front, d.back)
}

// issueFromLatestYear ranks candidates by year, newest first, after removing
// the expiry date. The top candidate is skipped when it is the date of birth.
func issueFromLatestYear(d *document) (string, bool) {
	all := uniqueDates(d.merged)
	if len(all) == 0 {
		return "", false
	}

	candidates := all
	if expiry, ok := dateOnLabeledLine(expiryLabel, d.front, d.back); ok {
		var filtered []string
		for _, date := range all {
			if date != expiry {
				filtered = append(filtered, date)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}

	ranked := rankByYearDesc(candidates)
	if ranked[0] == d.dobRaw && len(ranked) > 1 {
		return ranked[1], true
	}
	return ranked[0], true
}

// rankByYearDesc sorts dates newest year first, keeping appearance order
// between dates of the same year. Unparseable years sort last.
func rankByYearDesc(dates []string) []string {
	ranked := make([]string, len(dates))
	copy(ranked, dates)
	years := make(map[string]int, len(dates))
	for _, date := range dates {
		year, ok := dateYear(date)
		if !ok {
			year = -1
		}
		years[date] = year
	}
	slices.SortStableFunc(ranked, func(a, b string) int { return cmp.Compare(years[b], years[a]) })
	return ranked
}

var issueChain = firstOf(issueFromCaption, issueFromLabel, issueFromLatestYear)

// ExtractDOB returns the date of birth as YYYY-MM-DD, or "".
func ExtractDOB(text NormalizedText) string {
	raw, _ := dobChain(newDocument(text))
	return ToISO(raw)
}

// ExtractIssueDate returns the issue date as YYYY-MM-DD, or "".
func ExtractIssueDate(text NormalizedText) string {
	d := newDocument(text)
	d.dobRaw, _ = dobChain(d)
	raw, _ := issueChain(d)
	return ToISO(raw)
}
