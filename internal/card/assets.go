package card

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/a3tai/mcp-idcard-reader/internal/idcard"
)

// cardImage is one image embedded in a scanned card PDF.
type cardImage struct {
	Page     int
	ObjNr    int
	FileType string
	Data     []byte
}

// extractImages returns the embedded images of the PDF at path in page
// order, and by object number within a page.
func extractImages(filePath string) ([]cardImage, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pages, err := api.ExtractImagesRaw(f, nil, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to extract PDF images: %w", err)
	}

	var images []cardImage
	for i, page := range pages {
		objNrs := make([]int, 0, len(page))
		for objNr := range page {
			objNrs = append(objNrs, objNr)
		}
		slices.Sort(objNrs)

		for _, objNr := range objNrs {
			img := page[objNr]
			data, err := io.ReadAll(img)
			if err != nil {
				return nil, fmt.Errorf("failed to read image %d on page %d: %w", objNr, i+1, err)
			}
			if len(data) == 0 {
				continue
			}
			images = append(images, cardImage{
				Page:     i + 1,
				ObjNr:    objNr,
				FileType: img.FileType,
				Data:     data,
			})
		}
	}
	return images, nil
}

// toCardImage names an extracted image after its source file.
func (c cardImage) toCardImage(source string) *idcard.Image {
	return &idcard.Image{
		Name: fmt.Sprintf("%s#page%d-obj%d.%s", source, c.Page, c.ObjNr, c.FileType),
		Data: c.Data,
	}
}
