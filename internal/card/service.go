package card

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/a3tai/mcp-idcard-reader/internal/descriptions"
	"github.com/a3tai/mcp-idcard-reader/internal/idcard"
	"github.com/a3tai/mcp-idcard-reader/internal/verify"
)

// Directory scan limits for server info
const (
	scanMaxDepth  = 5
	scanFileLimit = 100
	scanTimeLimit = 3 * time.Second
)

// Where the text of an extraction came from
const (
	SourceOCR       = "ocr"
	SourceTextLayer = "text_layer"
	SourceMixed     = "mixed"
	SourceText      = "text"
)

// ErrNoClaim is returned by Verify when no claimed field was given.
var ErrNoClaim = errors.New("at least one of full_name, id_number or dob is required")

// EngineInfo describes the OCR setup for server info.
type EngineInfo struct {
	Name      string
	Languages []string
	DPI       int
	Cache     bool
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	ServerName      string
	Version         string
	CardDirectory   string
	MaxFileSize     int64
	VerifyThreshold float64
	Engine          EngineInfo
}

// Service handles ID card operations by orchestrating the loader, the
// extractor and verification. Both transports call it.
type Service struct {
	opts      ServiceOptions
	loader    *Loader
	dir       *CardDirectory
	scanner   *Scanner
	extractor *idcard.Extractor
}

// NewService creates a card service that recognizes images with ocr.
func NewService(ocr idcard.OCR, opts ServiceOptions) (*Service, error) {
	if opts.MaxFileSize <= 0 {
		return nil, fmt.Errorf("maxFileSize must be greater than 0")
	}

	dir, err := NewCardDirectory(opts.CardDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create card directory: %w", err)
	}

	extractor, err := idcard.NewExtractor(ocr)
	if err != nil {
		return nil, err
	}

	if opts.VerifyThreshold <= 0 || opts.VerifyThreshold > 1 {
		opts.VerifyThreshold = verify.DefaultThreshold
	}

	return &Service{
		opts:      opts,
		loader:    NewLoader(opts.MaxFileSize),
		dir:       dir,
		scanner:   NewScanner(scanMaxDepth, scanFileLimit, scanTimeLimit),
		extractor: extractor,
	}, nil
}

// ExtractRequest names the card files to read. Either side may be empty.
type ExtractRequest struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// ExtractTextRequest carries OCR text produced elsewhere.
type ExtractTextRequest struct {
	FrontText string `json:"front_text"`
	BackText  string `json:"back_text"`
}

// Upload is one card side received as bytes. Empty Data means the side
// was not sent.
type Upload struct {
	Name string
	Data []byte
}

// ExtractResult is the extracted fields with the text they came from.
type ExtractResult struct {
	idcard.Fields
	Missing []string       `json:"missing"`
	Source  string         `json:"source"`
	RawText idcard.RawText `json:"rawText"`
}

// VerifyRequest is a card plus the identity claimed for it.
type VerifyRequest struct {
	ExtractRequest
	Claim verify.Claim `json:"claim"`
}

// VerifyResult is the comparison together with what was extracted.
type VerifyResult struct {
	verify.Result
	Extracted *ExtractResult `json:"extracted"`
}

// Extract reads the requested card files and extracts their fields.
func (s *Service) Extract(ctx context.Context, req ExtractRequest) (*ExtractResult, error) {
	front, err := s.dir.Resolve(req.Front)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	back, err := s.dir.Resolve(req.Back)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	sides, err := s.loader.Resolve(front, back)
	if err != nil {
		return nil, err
	}
	return s.extract(ctx, sides)
}

// ExtractText extracts fields from already recognized text. No OCR runs.
func (s *Service) ExtractText(req ExtractTextRequest) (*ExtractResult, error) {
	if strings.TrimSpace(req.FrontText) == "" && strings.TrimSpace(req.BackText) == "" {
		return nil, ErrNoSource
	}
	raw := idcard.RawText{Front: req.FrontText, Back: req.BackText}
	return newExtractResult(idcard.ExtractFields(raw), raw, SourceText), nil
}

// ExtractUpload extracts fields from uploaded images.
func (s *Service) ExtractUpload(ctx context.Context, front, back Upload) (*ExtractResult, error) {
	sides, err := s.uploadSides(front, back)
	if err != nil {
		return nil, err
	}
	return s.extract(ctx, sides)
}

// Verify extracts the card and compares it with the claim.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	if err := checkClaim(req.Claim); err != nil {
		return nil, err
	}
	extracted, err := s.Extract(ctx, req.ExtractRequest)
	if err != nil {
		return nil, err
	}
	return s.compare(extracted, req.Claim), nil
}

// VerifyUpload is Verify for uploaded images.
func (s *Service) VerifyUpload(ctx context.Context, front, back Upload, claim verify.Claim) (*VerifyResult, error) {
	if err := checkClaim(claim); err != nil {
		return nil, err
	}
	extracted, err := s.ExtractUpload(ctx, front, back)
	if err != nil {
		return nil, err
	}
	return s.compare(extracted, claim), nil
}

// ValidateFile checks a card file inside the card directory.
func (s *Service) ValidateFile(req ValidateRequest) (*ValidateResult, error) {
	path, err := s.dir.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}
	return s.loader.Validator().Validate(ValidateRequest{Path: path}), nil
}

func (s *Service) extract(ctx context.Context, sides *Sides) (*ExtractResult, error) {
	fields, raw, err := sides.Extract(ctx, s.extractor)
	if err != nil {
		return nil, fmt.Errorf("ocr failed: %w", err)
	}
	return newExtractResult(fields, raw, sides.source()), nil
}

func (s *Service) uploadSides(front, back Upload) (*Sides, error) {
	if len(front.Data) == 0 && len(back.Data) == 0 {
		return nil, ErrNoSource
	}

	sides := &Sides{}
	var err error
	if len(front.Data) > 0 {
		if sides.Front, err = s.loader.LoadBytes(uploadName(front.Name, "front"), front.Data); err != nil {
			return nil, fmt.Errorf("front: %w", err)
		}
	}
	if len(back.Data) > 0 {
		if sides.Back, err = s.loader.LoadBytes(uploadName(back.Name, "back"), back.Data); err != nil {
			return nil, fmt.Errorf("back: %w", err)
		}
	}
	return sides, nil
}

func (s *Service) compare(extracted *ExtractResult, claim verify.Claim) *VerifyResult {
	return &VerifyResult{
		Result:    verify.Compare(extracted.Fields, claim, s.opts.VerifyThreshold),
		Extracted: extracted,
	}
}

func checkClaim(claim verify.Claim) error {
	if strings.TrimSpace(claim.FullName) == "" &&
		strings.TrimSpace(claim.IDNumber) == "" &&
		strings.TrimSpace(claim.DOB) == "" {
		return ErrNoClaim
	}
	return nil
}

func uploadName(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

func newExtractResult(fields idcard.Fields, raw idcard.RawText, source string) *ExtractResult {
	missing := fields.Missing()
	if missing == nil {
		missing = []string{}
	}
	return &ExtractResult{Fields: fields, Missing: missing, Source: source, RawText: raw}
}

// source reports where the text of the sides comes from.
func (c *Sides) source() string {
	hasText := c.Text.Front != "" || c.Text.Back != ""
	switch {
	case c.NeedsOCR() && hasText:
		return SourceMixed
	case c.NeedsOCR():
		return SourceOCR
	default:
		return SourceTextLayer
	}
}

// MaxFileSize returns the file and upload size limit.
func (s *Service) MaxFileSize() int64 {
	return s.opts.MaxFileSize
}

// ToolInfo describes one MCP tool for server info.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

// ServerInfoResult is the server's configuration and the card files it can
// see.
type ServerInfoResult struct {
	ServerName         string     `json:"serverName"`
	Version            string     `json:"version"`
	CardDirectory      string     `json:"cardDirectory"`
	MaxFileSize        int64      `json:"maxFileSize"`
	OCREngine          string     `json:"ocrEngine"`
	OCRLanguages       []string   `json:"ocrLanguages"`
	OCRDPI             int        `json:"ocrDpi"`
	CacheEnabled       bool       `json:"cacheEnabled"`
	VerifyThreshold    float64    `json:"verifyThreshold"`
	SupportedFormats   []string   `json:"supportedFormats"`
	AvailableTools     []ToolInfo `json:"availableTools"`
	CardFiles          []FileInfo `json:"cardFiles"`
	CardFilesTruncated bool       `json:"cardFilesTruncated"`
	UsageGuidance      string     `json:"usageGuidance"`
}

// ServerInfo returns the server configuration, the available tools and the
// card files in the card directory.
func (s *Service) ServerInfo(ctx context.Context) (*ServerInfoResult, error) {
	scan, err := s.scanner.Scan(ctx, s.dir.Root())
	if err != nil && ctx.Err() != nil {
		return nil, err
	}

	return &ServerInfoResult{
		ServerName:         s.opts.ServerName,
		Version:            s.opts.Version,
		CardDirectory:      s.dir.Root(),
		MaxFileSize:        s.opts.MaxFileSize,
		OCREngine:          s.opts.Engine.Name,
		OCRLanguages:       s.opts.Engine.Languages,
		OCRDPI:             s.opts.Engine.DPI,
		CacheEnabled:       s.opts.Engine.Cache,
		VerifyThreshold:    s.opts.VerifyThreshold,
		SupportedFormats:   SupportedFormats(),
		AvailableTools:     availableTools(),
		CardFiles:          scan.Files,
		CardFilesTruncated: scan.Truncated,
		UsageGuidance:      s.usageGuidance(),
	}, nil
}

// SupportedFormats lists the card file formats the loader accepts.
func SupportedFormats() []string {
	return []string{"jpeg", "png", "gif", "bmp", "tiff", "webp", "pdf"}
}

func availableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "idcard_extract",
			Description: descriptions.GetToolDescription("idcard_extract"),
			Usage:       "Use this tool to read the identity fields from card images or a card PDF.",
			Parameters: "front (optional): path to the front side image or a PDF with both sides, " +
				"back (optional): path to the back side image; at least one is required",
		},
		{
			Name:        "idcard_extract_text",
			Description: descriptions.GetToolDescription("idcard_extract_text"),
			Usage:       "Use this tool when OCR text is already available and only field extraction is needed.",
			Parameters:  "front_text (optional), back_text (optional): raw OCR text per side; at least one is required",
		},
		{
			Name:        "idcard_verify",
			Description: descriptions.GetToolDescription("idcard_verify"),
			Usage:       "Use this tool to check a claimed name, ID number or date of birth against a card.",
			Parameters: "front, back: card paths as for idcard_extract, " +
				"full_name, id_number, dob (optional): claimed values; at least one is required",
		},
		{
			Name:        "idcard_validate_file",
			Description: descriptions.GetToolDescription("idcard_validate_file"),
			Usage:       "Use this tool to check a file is a readable card image or PDF before extracting.",
			Parameters:  "path (required): path to the file, relative to the card directory or absolute inside it",
		},
		{
			Name:        "idcard_server_info",
			Description: descriptions.GetToolDescription("idcard_server_info"),
			Usage:       "Use this tool to see the OCR setup, limits and the card files available.",
			Parameters:  "No parameters required",
		},
	}
}

func (s *Service) usageGuidance() string {
	maxFileSizeMB := s.opts.MaxFileSize / (1024 * 1024)

	return fmt.Sprintf(`ID Card MCP Server Usage Guide:

1. FIND CARD FILES:
   - 'idcard_server_info' lists card images and PDFs in %s
   - Paths may be relative to that directory; paths outside it are rejected

2. VALIDATE FILES:
   - Use 'idcard_validate_file' to check an unknown file before extracting

3. EXTRACT FIELDS:
   - Use 'idcard_extract' with the front and, when available, the back side
   - The back side carries the machine readable zone and the issue date
   - A PDF with a text layer is read without OCR; a scanned PDF supplies its
     first image as the front and the second as the back
   - Check 'missing' for fields that could not be read; they are never guessed

4. VERIFY AN IDENTITY:
   - Use 'idcard_verify' with the claimed full_name, id_number and/or dob
   - Names match when their similarity reaches %.2f, ignoring diacritics and case

5. OCR DONE ELSEWHERE:
   - Use 'idcard_extract_text' with the recognized text of each side

IMPORTANT NOTES:
- OCR engine: %s (languages: %s)
- Files up to %dMB are accepted`,
		s.dir.Root(), s.opts.VerifyThreshold, s.opts.Engine.Name,
		strings.Join(s.opts.Engine.Languages, ", "), maxFileSizeMB)
}
