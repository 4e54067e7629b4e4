// file: cmd/server/commands_test.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dkoosis/headlines/internal/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "SERVER_NAME", "HEADLINES_TRANSPORT", "HEADLINES_NEWS_BASE_URL",
		"HEADLINES_NEWS_TIMEOUT", "HEADLINES_LOG_LEVEL", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_NoArgsShowsHelp(t *testing.T) {
	code, out, _ := runCLI(t, "")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Usage: headlines <command>")
	for _, name := range []string{"serve", "check", "version", "help"} {
		assert.Contains(t, out, name)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, errOut := runCLI(t, "", "frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Unknown command: frobnicate")
}

func TestRun_HelpForCommand(t *testing.T) {
	code, out, _ := runCLI(t, "", "help", "serve")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "-transport")
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI(t, "", "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "headlines version dev")
}

func TestRun_CheckDefaults(t *testing.T) {
	clearEnv(t)

	code, out, errOut := runCLI(t, "", "check")

	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "fetch_news")
	assert.Contains(t, out, "get_sample_data")
	assert.Contains(t, out, "sample://data")
	assert.Contains(t, out, "Configuration OK.")
}

func TestRun_CheckRejectsBadConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("news:\n  base_url: \"not-a-url\"\n"), 0o600))

	code, _, errOut := runCLI(t, "", "check", "-config", path)

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "base_url")
}

func TestRun_ServeStdio(t *testing.T) {
	clearEnv(t)
	stdin := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_sample_data","arguments":{"count":3}}}` + "\n"

	code, out, errOut := runCLI(t, stdin, "serve", "-transport", "stdio")
	require.Equal(t, 0, code, errOut)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var initResp mcp.Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &initResp))
	var init mcp.InitializeResult
	require.NoError(t, json.Unmarshal(initResp.Result, &init))
	assert.Equal(t, "2024-11-05", init.ProtocolVersion)
	assert.Equal(t, "TechCrunch News Server", init.ServerInfo.Name)
	assert.Equal(t, "dev", init.ServerInfo.Version)

	var callResp mcp.Response
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &callResp))
	var result mcp.CallToolResult
	require.NoError(t, json.Unmarshal(callResp.Result, &result))
	assert.Contains(t, result.Content[0].Text, "1. Item 1 (value: 10)")
	assert.Contains(t, result.Content[0].Text, "3. Item 3 (value: 30)")
}

func TestRun_ServeRejectsUnknownTransport(t *testing.T) {
	clearEnv(t)
	code, _, errOut := runCLI(t, "", "serve", "-transport", "carrier-pigeon")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "server.transport")
}

func TestRun_ServeFlagHelp(t *testing.T) {
	code, _, errOut := runCLI(t, "", "serve", "-h")
	assert.Equal(t, 0, code)
	assert.Contains(t, errOut, "-port")
}
