package mcp

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestServerIntegration_HTTPAPI(t *testing.T) {
	server, tempDir := newTestServer(t, "server")
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, side := range []string{"front", "back"} {
		data, err := os.ReadFile(filepath.Join(tempDir, side+".png"))
		if err != nil {
			t.Fatalf("failed to read %s: %v", side, err)
		}
		part, err := mw.CreateFormFile(side, side+".png")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	resp, err = http.Post(ts.URL+"/api/v1/idcard/extract", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("extract request failed: %v", err)
	}
	defer resp.Body.Close()

	var fields map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("extract status = %d: %v", resp.StatusCode, fields)
	}
	if fields["idNumber"] != "079201012345" || fields["fullName"] != "NGUYEN VAN AN" {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestServerIntegration_StreamableMCP(t *testing.T) {
	server, _ := newTestServer(t, "server")
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	initialize := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26",` +
		`"capabilities":{},"clientInfo":{"name":"test","version":"1.0.0"}}}`
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/mcp", strings.NewReader(initialize))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("initialize request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("initialize status = %d, want 200", resp.StatusCode)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if !strings.Contains(buf.String(), "test-server") {
		t.Errorf("initialize response should name the server, got: %s", buf.String())
	}
}
