package idcard

// document is the read-only view of one card that every strategy works on.
// It is built per call and never shared between calls.
type document struct {
	text   NormalizedText
	front  []string
	back   []string
	merged string

	// dobRaw is the date of birth as located, before ISO conversion. The
	// issue date fallback uses it to avoid returning the same candidate.
	dobRaw string
}

func newDocument(text NormalizedText) *document {
	return &document{
		text:   text,
		front:  splitLines(text.Front),
		back:   splitLines(text.Back),
		merged: text.Merged(),
	}
}

// lines returns the front lines followed by the back lines.
func (d *document) lines() []string {
	all := make([]string, 0, len(d.front)+len(d.back))
	all = append(all, d.front...)
	return append(all, d.back...)
}

// strategy extracts one field value. ok is false when the strategy found
// nothing, which lets the chain move on to the next one.
type strategy func(d *document) (value string, ok bool)

// firstOf runs strategies in order and returns the first value found.
func firstOf(strategies ...strategy) strategy {
	return func(d *document) (string, bool) {
		for _, s := range strategies {
			if v, ok := s(d); ok {
				return v, true
			}
		}
		return "", false
	}
}
