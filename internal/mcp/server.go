package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-idcard-reader/internal/card"
	"github.com/a3tai/mcp-idcard-reader/internal/config"
	"github.com/a3tai/mcp-idcard-reader/internal/descriptions"
	"github.com/a3tai/mcp-idcard-reader/internal/httpapi"
	"github.com/a3tai/mcp-idcard-reader/internal/verify"
)

// HTTP server timeouts (server mode)
const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *card.Service
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *card.Service) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("card service cannot be nil")
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		service:   service,
		mcpServer: mcpServer,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractTool := mcp.NewTool(
		"idcard_extract",
		mcp.WithDescription(descriptions.GetToolDescription("idcard_extract")),
		mcp.WithString("front",
			mcp.Description("Path to the front side image, or to a PDF holding the card"),
		),
		mcp.WithString("back",
			mcp.Description("Path to the back side image"),
		),
	)
	s.mcpServer.AddTool(extractTool, s.handleExtract)

	extractTextTool := mcp.NewTool(
		"idcard_extract_text",
		mcp.WithDescription(descriptions.GetToolDescription("idcard_extract_text")),
		mcp.WithString("front_text",
			mcp.Description("Raw OCR text of the front side"),
		),
		mcp.WithString("back_text",
			mcp.Description("Raw OCR text of the back side"),
		),
	)
	s.mcpServer.AddTool(extractTextTool, s.handleExtractText)

	verifyTool := mcp.NewTool(
		"idcard_verify",
		mcp.WithDescription(descriptions.GetToolDescription("idcard_verify")),
		mcp.WithString("front",
			mcp.Description("Path to the front side image, or to a PDF holding the card"),
		),
		mcp.WithString("back",
			mcp.Description("Path to the back side image"),
		),
		mcp.WithString("full_name",
			mcp.Description("Claimed full name, with or without diacritics"),
		),
		mcp.WithString("id_number",
			mcp.Description("Claimed ID number"),
		),
		mcp.WithString("dob",
			mcp.Description("Claimed date of birth, YYYY-MM-DD or DD/MM/YYYY"),
		),
	)
	s.mcpServer.AddTool(verifyTool, s.handleVerify)

	validateTool := mcp.NewTool(
		"idcard_validate_file",
		mcp.WithDescription(descriptions.GetToolDescription("idcard_validate_file")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the card image or PDF"),
		),
	)
	s.mcpServer.AddTool(validateTool, s.handleValidateFile)

	serverInfoTool := mcp.NewTool(
		"idcard_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("idcard_server_info")),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// optionalString returns a string argument, or "" when it is absent.
func optionalString(request mcp.CallToolRequest, name string) string {
	if value, ok := request.GetArguments()[name].(string); ok {
		return value
	}
	return ""
}

// jsonResult encodes v as the text of a tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// Handler functions
func (s *Server) handleExtract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := card.ExtractRequest{
		Front: optionalString(request, "front"),
		Back:  optionalString(request, "back"),
	}

	result, err := s.service.Extract(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.config.IsDebug() {
		log.Printf("idcard_extract: source=%s missing=%v", result.Source, result.Missing)
	}
	return jsonResult(result)
}

func (s *Server) handleExtractText(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := card.ExtractTextRequest{
		FrontText: optionalString(request, "front_text"),
		BackText:  optionalString(request, "back_text"),
	}

	result, err := s.service.ExtractText(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleVerify(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := card.VerifyRequest{
		ExtractRequest: card.ExtractRequest{
			Front: optionalString(request, "front"),
			Back:  optionalString(request, "back"),
		},
		Claim: verify.Claim{
			FullName: optionalString(request, "full_name"),
			IDNumber: optionalString(request, "id_number"),
			DOB:      optionalString(request, "dob"),
		},
	}

	result, err := s.service.Verify(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleValidateFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.ValidateFile(card.ValidateRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.service.ServerInfo(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	switch {
	case s.config.IsServerMode():
		return s.runServerMode(ctx)
	case s.config.IsStdioMode():
		return s.runStdioMode(ctx, os.Stdin, os.Stdout)
	default:
		return fmt.Errorf("unsupported mode: %s", s.config.Mode)
	}
}

// runStdioMode serves MCP over in and out until ctx is done or in closes
func (s *Server) runStdioMode(ctx context.Context, in io.Reader, out io.Writer) error {
	if s.config.IsDebug() {
		log.Printf("Starting ID card MCP server in stdio mode")
		log.Printf("Card directory: %s", s.config.CardDirectory)
	}

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(os.Stderr, "mcp: ", log.LstdFlags))
	if err := stdio.Listen(ctx, in, out); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// Handler returns the HTTP API with the MCP streamable HTTP transport
// mounted at /mcp.
func (s *Server) Handler() http.Handler {
	return httpapi.NewRouter(s.service, server.NewStreamableHTTPServer(s.mcpServer))
}

// runServerMode serves the HTTP API until ctx is done, then shuts down
// gracefully
func (s *Server) runServerMode(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting ID card server on %s (MCP endpoint /mcp)", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve http: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down http server: %w", err)
		}
		return ctx.Err()
	}
}
