package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	IDCardExtractDescription = `Read the identity fields from a Vietnamese national ID card (CCCD or legacy CMND).

**When to use:** You have photos or scans of an ID card and need the holder's name, ID number, date of birth, issue date and permanent address as structured data.

**Inputs:** "front" and/or "back" are paths to JPEG, PNG, TIFF, WebP, BMP or GIF images, or to a PDF. A PDF may carry both sides: a digital card's text layer is read directly, a scanned PDF has its first embedded image used as the front and the second as the back.

**Output:** JSON with fullName, idNumber, idType (CCCD for 12 digits, otherwise CMND), dobISO and issueDateISO (YYYY-MM-DD), address, plus "missing" listing fields that could not be read and the OCR text that was used.

**Examples:**
• KYC intake: "Extract the fields from front.jpg and back.jpg"
• Scanned form: "Read the card in applicant-scan.pdf"

**Best practices:** Supply the back side when available: the machine readable zone gives the most reliable name and the back carries the issue date. Fields that cannot be found are empty, never guessed.`

	IDCardExtractTextDescription = `Extract ID card fields from OCR text you already have.

**When to use:** OCR already ran elsewhere (another engine, a previous call, a test fixture) and only the field extraction is needed.

**Inputs:** "front_text" and/or "back_text" with the raw text of each side, line breaks preserved.

**Output:** The same JSON as idcard_extract. No OCR is performed, so the result is deterministic for the same text.`

	IDCardVerifyDescription = `Check a claimed identity against an ID card.

**When to use:** A user states their name, ID number or date of birth and you need to confirm the card matches.

**Inputs:** Card paths as for idcard_extract, plus any of "full_name", "id_number", "dob" (YYYY-MM-DD or DD/MM/YYYY). Only the claimed fields are checked.

**How matching works:** Names are compared with Jaro-Winkler similarity after removing diacritics and case, so "Nguyen Van An" matches "NGUYỄN VĂN AN"; the server's threshold decides a match. ID numbers and dates must be identical.

**Output:** JSON with an overall "match", the threshold, and per-field score, checked and match flags alongside the extracted fields.`

	IDCardValidateFileDescription = `Check that a file can be used as an ID card side before extracting.

**When to use:** Before processing user uploads or files of unknown type.

**Output:** Whether the file is valid, whether it is an image or a PDF, the detected format and image dimensions, or the reason it was rejected (missing, empty, too large, unsupported format, unreadable PDF).`

	IDCardServerInfoDescription = `Get server information: version, OCR engine and languages, cache status, limits and the available tools.

**When to use:** First call in a session, or to troubleshoot OCR configuration.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"idcard_extract":       IDCardExtractDescription,
	"idcard_extract_text":  IDCardExtractTextDescription,
	"idcard_verify":        IDCardVerifyDescription,
	"idcard_validate_file": IDCardValidateFileDescription,
	"idcard_server_info":   IDCardServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the available tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
