package mcpserver

import (
	"context"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// connect serves srv on an in-memory transport and returns a connected
// client session. Shutdown is checked during cleanup.
func connect(t *testing.T, srv *Server) *mcp.ClientSession {
	t.Helper()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ctx, cancel := context.WithCancel(context.Background())

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.serve(ctx, serverTransport) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	connectCtx, connectCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer connectCancel()
	session, err := client.Connect(connectCtx, clientTransport, nil)
	if err != nil {
		cancel()
		t.Fatalf("connect client: %v", err)
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-serveErr:
			if err != nil {
				t.Errorf("serve returned error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("server did not stop after cancel")
		}
		_ = session.Close()
	})
	return session
}

// toolNames lists the published tools, sorted.
func toolNames(t *testing.T, session *mcp.ClientSession) []string {
	t.Helper()

	var names []string
	for tool, err := range session.Tools(context.Background(), nil) {
		if err != nil {
			t.Fatalf("list tools: %v", err)
		}
		names = append(names, tool.Name)
	}
	slices.Sort(names)
	return names
}

// textContent concatenates the text blocks of a tool result.
func textContent(r *mcp.CallToolResult) string {
	var sb strings.Builder
	for _, c := range r.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

func TestNew_PublishesTools(t *testing.T) {
	t.Parallel()
	cfg, _ := newTestConfig(t)
	cfg.Index = &fakeIndex{}

	session := connect(t, New(cfg))

	want := []string{"character_sheet_get", "diary_list", "diary_search", "quest_log_get", "report_stats_get"}
	if got := toolNames(t, session); !slices.Equal(got, want) {
		t.Errorf("tools = %v, want %v", got, want)
	}
}

func TestNew_WithoutIndex(t *testing.T) {
	t.Parallel()
	cfg, _ := newTestConfig(t)

	session := connect(t, New(cfg))

	got := toolNames(t, session)
	if slices.Contains(got, "diary_search") {
		t.Errorf("tools = %v, diary_search must not be published without an index", got)
	}
	if len(got) != 4 {
		t.Errorf("tool count = %d, want 4", len(got))
	}
}

func TestCallTool_CharacterSheet(t *testing.T) {
	t.Parallel()
	cfg, ch := newTestConfig(t)

	session := connect(t, New(cfg))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "character_sheet_get",
		Arguments: map[string]any{"characterId": ch.ID},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %s", textContent(result))
	}
	if text := textContent(result); !strings.Contains(text, "Mira") {
		t.Errorf("result = %q, want the character name in the payload", text)
	}
}

func TestCallTool_UnknownCharacter(t *testing.T) {
	t.Parallel()
	cfg, _ := newTestConfig(t)

	session := connect(t, New(cfg))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "character_sheet_get",
		Arguments: map[string]any{"characterId": "ghost"},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected an error result for an unknown character")
	}
	if text := textContent(result); !strings.Contains(text, "not found") {
		t.Errorf("error text = %q, want mention of not found", text)
	}
}

// TestServeStopsOnContext ensures serve exits cleanly when the context is
// cancelled mid-session.
func TestServeStopsOnContext(t *testing.T) {
	t.Parallel()
	cfg, _ := newTestConfig(t)
	srv := New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.serve(ctx, serverTransport) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	clientCtx, clientCancel := context.WithTimeout(context.Background(), time.Second)
	defer clientCancel()
	session, err := client.Connect(clientCtx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	defer session.Close()

	cancel()

	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

// TestHTTPHandler_ServesTools drives the streamable HTTP surface end to
// end: an SDK client connects through a test listener and lists tools.
func TestHTTPHandler_ServesTools(t *testing.T) {
	t.Parallel()
	cfg, _ := newTestConfig(t)

	ts := httptest.NewServer(New(cfg).HTTPHandler())
	t.Cleanup(ts.Close)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: ts.URL}, nil)
	if err != nil {
		t.Fatalf("connect over http: %v", err)
	}
	defer session.Close()

	count := 0
	for _, err := range session.Tools(ctx, nil) {
		if err != nil {
			t.Fatalf("list tools: %v", err)
		}
		count++
	}
	if count != 4 {
		t.Errorf("tool count = %d, want 4 without an index", count)
	}
}
