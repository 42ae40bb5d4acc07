// Command idcard-extract reads a Vietnamese ID card from image, PDF or text
// files and prints the extracted fields.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/a3tai/mcp-idcard-reader/internal/card"
	"github.com/a3tai/mcp-idcard-reader/internal/config"
	"github.com/a3tai/mcp-idcard-reader/internal/ocr"
)

type options struct {
	back      string
	format    string
	text      bool
	engine    string
	languages string
	dpi       int
	timeout   time.Duration
	maxSize   int64
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, front, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		printUsage(stderr)
		return 2
	}

	result, err := extract(context.Background(), opts, front)
	if err != nil {
		fmt.Fprintf(stderr, "Error extracting card: %v\n", err)
		return 1
	}

	if err := outputResult(stdout, opts.format, result); err != nil {
		fmt.Fprintf(stderr, "Error outputting result: %v\n", err)
		return 1
	}
	return 0
}

func parseArgs(args []string, stderr io.Writer) (*options, string, error) {
	opts := &options{}
	fs := flag.NewFlagSet("idcard-extract", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.back, "back", "", "Back side file")
	fs.StringVar(&opts.format, "format", "text", "Output format: text, json")
	fs.BoolVar(&opts.text, "text", false, "Inputs are OCR text files, not images")
	fs.StringVar(&opts.engine, "engine", config.DefaultOCREngine, "OCR engine: tesseract, vision")
	fs.StringVar(&opts.languages, "lang", strings.Join(config.DefaultOCRLanguages, ","), "OCR languages")
	fs.IntVar(&opts.dpi, "dpi", config.DefaultOCRDPI, "Image resolution hint for Tesseract")
	fs.DurationVar(&opts.timeout, "timeout", config.DefaultOCRTimeout, "Per-image OCR timeout")
	fs.Int64Var(&opts.maxSize, "max-size", config.DefaultMaxFileSize, "Maximum file size in bytes")
	fs.Usage = func() { printUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	if opts.format != "text" && opts.format != "json" {
		return nil, "", fmt.Errorf("unsupported output format: %s", opts.format)
	}
	if fs.NArg() > 1 {
		return nil, "", fmt.Errorf("expected one front file, got %d", fs.NArg())
	}
	front := fs.Arg(0)
	if front == "" && opts.back == "" {
		return nil, "", fmt.Errorf("card file path required")
	}
	return opts, front, nil
}

func extract(ctx context.Context, opts *options, front string) (*card.ExtractResult, error) {
	langs := config.ParseLanguages(opts.languages)
	engine, err := ocr.New(ctx, ocr.Options{Engine: opts.engine, Languages: langs, DPI: opts.dpi, Timeout: opts.timeout})
	if err != nil {
		return nil, err
	}
	defer ocr.Close(engine)

	// Command line paths are not confined to a card directory.
	service, err := card.NewService(
		ocr.NewRecognizer(engine, opts.timeout, ocr.DefaultOptions(langs, opts.dpi)...),
		card.ServiceOptions{
			ServerName:    "idcard-extract",
			CardDirectory: string(filepath.Separator),
			MaxFileSize:   opts.maxSize,
			Engine:        card.EngineInfo{Name: engine.Name(), Languages: langs, DPI: opts.dpi},
		},
	)
	if err != nil {
		return nil, err
	}

	if opts.text {
		frontText, err := readText(front)
		if err != nil {
			return nil, err
		}
		backText, err := readText(opts.back)
		if err != nil {
			return nil, err
		}
		return service.ExtractText(card.ExtractTextRequest{FrontText: frontText, BackText: backText})
	}

	frontPath, err := absPath(front)
	if err != nil {
		return nil, err
	}
	backPath, err := absPath(opts.back)
	if err != nil {
		return nil, err
	}
	return service.Extract(ctx, card.ExtractRequest{Front: frontPath, Back: backPath})
}

func readText(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func absPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	return filepath.Abs(path)
}

func outputResult(w io.Writer, format string, result *card.ExtractResult) error {
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	rows := []struct{ label, value string }{
		{"Full name", result.FullName},
		{"ID number", result.IDNumber},
		{"ID type", string(result.IDType)},
		{"Date of birth", result.DOB},
		{"Issue date", result.IssueDate},
		{"Address", result.Address},
	}
	for _, row := range rows {
		value := row.value
		if value == "" {
			value = "-"
		}
		if _, err := fmt.Fprintf(w, "%-14s %s\n", row.label+":", value); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%-14s %s\n", "Source:", result.Source)
	if err == nil && len(result.Missing) > 0 {
		_, err = fmt.Fprintf(w, "%-14s %s\n", "Missing:", strings.Join(result.Missing, ", "))
	}
	return err
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  idcard-extract [OPTIONS] <front_file>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The front file may be an image, a PDF holding both sides, or with -text")
	fmt.Fprintln(w, "a file of OCR text.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprintln(w, "  -back      Back side file")
	fmt.Fprintln(w, "  -format    Output format: text (default), json")
	fmt.Fprintln(w, "  -text      Treat inputs as OCR text files")
	fmt.Fprintln(w, "  -engine    OCR engine: tesseract (default), vision")
	fmt.Fprintln(w, "  -lang      OCR languages (default vie,eng)")
	fmt.Fprintln(w, "  -dpi       Image resolution hint (default 300)")
	fmt.Fprintln(w, "  -timeout   Per-image OCR timeout (default 60s)")
	fmt.Fprintln(w, "  -max-size  Maximum file size in bytes")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  idcard-extract -back back.jpg front.jpg")
	fmt.Fprintln(w, "  idcard-extract -format json card.pdf")
	fmt.Fprintln(w, "  idcard-extract -text -back back.txt front.txt")
}
