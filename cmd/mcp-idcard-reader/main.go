package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-idcard-reader/internal/card"
	"github.com/a3tai/mcp-idcard-reader/internal/config"
	"github.com/a3tai/mcp-idcard-reader/internal/mcp"
	"github.com/a3tai/mcp-idcard-reader/internal/ocr"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures logging based on the server mode
func setupLogging(cfg *config.Config) {
	if cfg.IsStdioMode() {
		// stdout carries the MCP protocol in stdio mode
		log.SetOutput(os.Stderr)
		if !cfg.IsDebug() {
			log.SetOutput(os.NewFile(0, os.DevNull))
		}
	} else {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

// newCardService builds the OCR engine and the card service on top of it.
// The returned engine must be released with ocr.Close.
func newCardService(ctx context.Context, cfg *config.Config) (*card.Service, ocr.Engine, error) {
	engine, err := ocr.New(ctx, ocr.Options{
		Engine:      cfg.OCR.Engine,
		Languages:   cfg.OCR.Languages,
		DPI:         cfg.OCR.DPI,
		Timeout:     cfg.OCR.Timeout,
		Credentials: cfg.OCR.Credentials,
		RedisURL:    cfg.Cache.RedisURL,
		CacheTTL:    cfg.Cache.TTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OCR engine: %w", err)
	}

	recognizer := ocr.NewRecognizer(engine, cfg.OCR.Timeout, ocr.DefaultOptions(cfg.OCR.Languages, cfg.OCR.DPI)...)
	service, err := card.NewService(recognizer, card.ServiceOptions{
		ServerName:      cfg.ServerName,
		Version:         cfg.Version,
		CardDirectory:   cfg.CardDirectory,
		MaxFileSize:     cfg.MaxFileSize,
		VerifyThreshold: cfg.VerifyThreshold,
		Engine: card.EngineInfo{
			Name:      engine.Name(),
			Languages: cfg.OCR.Languages,
			DPI:       cfg.OCR.DPI,
			Cache:     cfg.CacheEnabled(),
		},
	})
	if err != nil {
		_ = ocr.Close(engine)
		return nil, nil, fmt.Errorf("failed to create card service: %w", err)
	}
	return service, engine, nil
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server) int {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signalCh)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		log.Printf("Received signal: %s", sig)
		log.Println("Initiating graceful shutdown...")
		cancel()

		if err := <-serverErrCh; err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Server shutdown with error: %v", err)
			return 1
		}

	case err := <-serverErrCh:
		if err != nil {
			log.Printf("Server error: %v", err)
			return 1
		}
	}

	log.Println("Server stopped successfully")
	return 0
}

// runStdioMode handles stdio mode execution. The parent process controls
// our lifecycle; we exit when stdin closes.
func runStdioMode(ctx context.Context, server *mcp.Server) int {
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Server error: %v", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run())
}

func run() int {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return 0
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}

	setupLogging(cfg)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() && cfg.IsServerMode() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service, engine, err := newCardService(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return 1
	}
	defer func() {
		if err := ocr.Close(engine); err != nil {
			log.Printf("Failed to close OCR engine: %v", err)
		}
	}()

	server, err := mcp.NewServer(cfg, service)
	if err != nil {
		log.Printf("Failed to create MCP server: %v", err)
		return 1
	}

	if cfg.IsServerMode() {
		return runServerMode(ctx, cancel, server)
	}
	return runStdioMode(ctx, server)
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("MCP ID Card Reader\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
