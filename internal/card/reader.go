package card

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-idcard-reader/internal/idcard"
)

// minTextLayerLen is the least amount of text, in runes, for a PDF to be
// treated as a digital card rather than a scan.
const minTextLayerLen = 20

// readTextLayer extracts the plain text of the first two pages: page 1 is
// the front, page 2 the back.
func readTextLayer(filePath string) (idcard.RawText, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return idcard.RawText{}, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var sides [2]string
	for pageNum := 1; pageNum <= min(r.NumPage(), len(sides)); pageNum++ {
		sides[pageNum-1] = pageText(r, pageNum)
	}
	return idcard.RawText{Front: sides[0], Back: sides[1]}, nil
}

// pageText returns the plain text of one page, or "" when the page has
// none or cannot be decoded.
func pageText(r *pdf.Reader, pageNum int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	page := r.Page(pageNum)
	if page.V.IsNull() {
		return ""
	}
	content, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(content)
}

func hasTextLayer(raw idcard.RawText) bool {
	return utf8.RuneCountInString(raw.Front)+utf8.RuneCountInString(raw.Back) >= minTextLayerLen
}
