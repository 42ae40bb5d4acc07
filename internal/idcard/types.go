package idcard

import "context"

// DocType identifies the Vietnamese national ID card generation.
type DocType string

const (
	// DocTypeCCCD is the modern 12-digit citizen identity card.
	DocTypeCCCD DocType = "CCCD"
	// DocTypeCMND is the legacy 9-digit people's identity card.
	DocTypeCMND DocType = "CMND"
)

// RawText holds the unprocessed OCR output for each side of the card.
// A side whose image was not supplied is the empty string.
type RawText struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// NormalizedText is RawText after Normalize: no blank lines and no
// leading or trailing whitespace on any line.
type NormalizedText struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Merged joins both sides for extractors that fall back across sides.
func (n NormalizedText) Merged() string {
	return n.Front + "\n" + n.Back
}

// Fields is the extraction result. A field that was not found is the empty
// string; IDType is always set.
type Fields struct {
	FullName  string  `json:"fullName"`
	IDNumber  string  `json:"idNumber"`
	IDType    DocType `json:"idType"`
	DOB       string  `json:"dobISO"`
	IssueDate string  `json:"issueDateISO"`
	Address   string  `json:"address"`
}

// Missing returns the JSON names of the fields that were not found.
func (f Fields) Missing() []string {
	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{"fullName", f.FullName},
		{"idNumber", f.IDNumber},
		{"dobISO", f.DOB},
		{"issueDateISO", f.IssueDate},
		{"address", f.Address},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

// Image is one encoded card side as read from disk or an upload.
type Image struct {
	Name string
	Data []byte
}

// present reports whether the image carries any data.
func (img *Image) present() bool {
	return img != nil && len(img.Data) > 0
}

// OCR turns an encoded image into recognized text.
type OCR interface {
	Text(ctx context.Context, image []byte) (string, error)
}
