package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/forgeworks/agentwizard/internal/ingest"
	"github.com/forgeworks/agentwizard/internal/protocol"
)

type fakeCrawler struct {
	pages []ingest.Page
}

func (f *fakeCrawler) Crawl(context.Context, string, string) ([]ingest.Page, error) {
	return f.pages, nil
}

type recordSink struct {
	ids []string
}

func (r *recordSink) PutArtifact(_ context.Context, id, _, _, _ string, _ time.Duration) error {
	r.ids = append(r.ids, id)
	return nil
}

func TestIngestChannel_ProducesResult(t *testing.T) {
	sink := &recordSink{}
	pipeline := ingest.NewPipeline(&fakeCrawler{pages: []ingest.Page{
		{Title: "README", Content: "class Block:\n    pass\n\ndef read_block(lazy=False):\n    pass\n"},
	}})
	h := NewIngestHandler(pipeline, sink, "/api/result", time.Hour, "", true)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	sendJSON(t, conn, map[string]any{"type": "start", "package_name": "neo"})
	events := readUntil(t, conn, protocol.TypeDone)

	var crawl, result *protocol.ServerEvent
	for _, ev := range events {
		switch ev.Type {
		case protocol.TypeCrawlComplete:
			crawl = ev
		case protocol.TypeResult:
			result = ev
		case protocol.TypeError:
			t.Fatalf("Unexpected error event: %q", ev.Text)
		}
	}
	if crawl == nil || crawl.Pages != 1 {
		t.Fatalf("Expected crawl_complete for one page, got %+v", crawl)
	}
	if result == nil || !strings.Contains(result.Markdown, "# neo — API Reference") {
		t.Fatalf("Expected finalized document in result, got %+v", result)
	}
	if len(sink.ids) != 1 || !strings.HasPrefix(result.DownloadURL, "/api/result/") {
		t.Errorf("Expected stored artifact with download URL, got ids=%v url=%q", sink.ids, result.DownloadURL)
	}
}

func TestIngestChannel_RequiresPackageName(t *testing.T) {
	h := NewIngestHandler(ingest.NewPipeline(&fakeCrawler{}), nil, "/api/result", time.Hour, "", true)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	sendJSON(t, conn, map[string]any{"type": "start"})
	events := readUntil(t, conn, protocol.TypeError)
	if !strings.Contains(events[len(events)-1].Text, "package_name") {
		t.Errorf("Unexpected error text: %q", events[len(events)-1].Text)
	}
}
