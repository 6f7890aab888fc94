package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gocausal/adapters/stats/citest"
	"gocausal/app"
	"gocausal/internal"
	"gocausal/internal/testkit"
)

func newTestServer(t *testing.T) (*Server, *app.DiscoveryService) {
	t.Helper()
	repo := app.NewMemoryRunRepository()
	logger := internal.NewLogger(internal.LogLevelError)
	svc := app.NewDiscoveryService(nil, repo, logger, 1)
	srv, err := NewServer(svc, logger, "test")
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, svc
}

func seedRun(t *testing.T, svc *app.DiscoveryService) string {
	t.Helper()
	dag := testkit.ChainDAG("A", "B", "C")
	oracle, err := citest.NewDSep(dag, 0.05)
	if err != nil {
		t.Fatalf("NewDSep: %v", err)
	}
	out, err := svc.Run(context.Background(), app.RunRequest{Oracle: oracle, DatasetName: "chain", Q: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.Record.ID.String()
}

func TestRunsListPage(t *testing.T) {
	srv, svc := newTestServer(t)
	id := seedRun(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET / = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, id) {
		t.Errorf("runs page missing run id %s", id)
	}
	if !strings.Contains(body, "chain") {
		t.Errorf("runs page missing dataset name")
	}
}

func TestRunDetailPage(t *testing.T) {
	srv, svc := newTestServer(t)
	id := seedRun(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/runs/"+id, nil)
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET /runs/%s = %d, want 200", id, w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<h1") {
		t.Errorf("report markdown was not rendered to HTML")
	}
	if !strings.Contains(body, "Discovery Report: chain") {
		t.Errorf("report heading missing from detail page")
	}
}

func TestRunDetailNotFound(t *testing.T) {
	srv, svc := newTestServer(t)
	seedRun(t, svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/runs/00000000-0000-0000-0000-000000000000", nil)
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("missing run = %d, want 404", w.Code)
	}
}

func TestRenderMarkdownHeadings(t *testing.T) {
	out := string(RenderMarkdown("# Title\n\n- a\n- b\n"))
	if !strings.Contains(out, "<h1") || !strings.Contains(out, "<li>") {
		t.Errorf("markdown render missing expected elements: %s", out)
	}
}
