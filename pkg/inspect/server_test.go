package inspect

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ripple-dev/ripple/pkg/metrics"
	"github.com/ripple-dev/ripple/pkg/ripple"
)

func wsURL(t *testing.T, baseURL, path string) string {
	t.Helper()
	if !strings.HasPrefix(baseURL, "http") {
		t.Fatalf("unexpected base URL: %q", baseURL)
	}
	return "ws" + strings.TrimPrefix(baseURL, "http") + path
}

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial(%q) failed: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, s *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count never reached %d", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func getGraph(t *testing.T, baseURL string) graphResponse {
	t.Helper()
	resp, err := http.Get(baseURL + "/api/graph")
	if err != nil {
		t.Fatalf("GET /api/graph failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/graph status = %d, want 200", resp.StatusCode)
	}
	var graph graphResponse
	if err := json.NewDecoder(resp.Body).Decode(&graph); err != nil {
		t.Fatalf("decode graph response: %v", err)
	}
	return graph
}

func findNode(graph graphResponse, kind, name string) *GraphNode {
	for i := range graph.Nodes {
		n := &graph.Nodes[i]
		if n.Kind == kind && n.Name == name {
			return n
		}
	}
	return nil
}

func TestGraphEndpoint(t *testing.T) {
	s := New()
	remove := s.Attach()
	defer remove()

	count := ripple.NewSignal(0, ripple.WithName[int]("count"))
	var total *ripple.Memo[int]
	dispose := ripple.CreateRoot(func(dispose func()) func() {
		total = ripple.NewMemo(func() int { return count.Get() * 2 }, ripple.WithName[int]("total"))
		ripple.CreateNamedEffect("render", func() { _ = total.Get() })
		return dispose
	})
	defer dispose()

	count.Set(3)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	graph := getGraph(t, ts.URL)
	// Source, root, memo, effect, plus the memo's result signal that
	// surfaced on its first write.
	if graph.Count != 5 {
		t.Fatalf("graph count = %d, want 5 (nodes: %+v)", graph.Count, graph.Nodes)
	}

	source := findNode(graph, "signal", "count")
	if source == nil {
		t.Fatal("source signal missing from graph")
	}
	if source.Writes != 1 {
		t.Errorf("source writes = %d, want 1", source.Writes)
	}

	memo := findNode(graph, "memo", "total")
	if memo == nil {
		t.Fatal("memo missing from graph")
	}
	if memo.Runs != 2 {
		t.Errorf("memo runs = %d, want 2", memo.Runs)
	}

	result := findNode(graph, "signal", "total")
	if result == nil {
		t.Fatal("memo result signal missing from graph")
	}
	if result.ParentID != total.ID() {
		t.Errorf("result parent = %d, want %d", result.ParentID, total.ID())
	}
}

func TestDisposalPrunesGraph(t *testing.T) {
	s := New()
	remove := s.Attach()
	defer remove()

	count := ripple.NewSignal(0, ripple.WithName[int]("count"))
	dispose := ripple.CreateRoot(func(dispose func()) func() {
		total := ripple.NewMemo(func() int { return count.Get() * 2 })
		ripple.CreateEffect(func() { _ = total.Get() })
		return dispose
	})
	count.Set(1) // surfaces the memo result signal

	dispose()

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	graph := getGraph(t, ts.URL)
	if graph.Count != 1 {
		t.Fatalf("graph count after dispose = %d, want 1 (nodes: %+v)", graph.Count, graph.Nodes)
	}
	if graph.Nodes[0].Name != "count" {
		t.Errorf("surviving node = %q, want the source signal", graph.Nodes[0].Name)
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := New()
	remove := s.Attach()
	defer remove()

	count := ripple.NewSignal(0)
	ripple.CreateEffect(func() { _ = count.Get() })
	count.Set(1)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatalf("GET /api/stats failed: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
		t.Fatalf("Content-Type = %q, want application/json", got)
	}

	var stats metrics.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats response: %v", err)
	}
	if stats.NodesCreated != 2 {
		t.Errorf("NodesCreated = %d, want 2", stats.NodesCreated)
	}
	if stats.SignalWrites != 1 {
		t.Errorf("SignalWrites = %d, want 1", stats.SignalWrites)
	}
	if stats.ComputationRuns != 2 {
		t.Errorf("ComputationRuns = %d, want 2", stats.ComputationRuns)
	}
}

func TestWebSocketStreamsWrites(t *testing.T) {
	s := New()
	remove := s.Attach()
	defer remove()

	count := ripple.NewSignal(1, ripple.WithName[int]("count"))

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialWS(t, wsURL(t, ts.URL, "/ws"))
	waitForClients(t, s, 1)

	count.Set(2)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read stream event failed: %v", err)
	}

	var ev Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode stream event: %v", err)
	}
	if ev.Type != EventSignalWrite {
		t.Fatalf("event type = %q, want %q", ev.Type, EventSignalWrite)
	}
	if ev.OldValue != "1" || ev.NewValue != "2" {
		t.Errorf("event values = %q -> %q, want 1 -> 2", ev.OldValue, ev.NewValue)
	}
	if ev.Node == nil || ev.Node.Name != "count" {
		t.Errorf("event node = %+v, want the written signal", ev.Node)
	}
}

func TestWebSocketDisconnectDropsClient(t *testing.T) {
	s := New()
	remove := s.Attach()
	defer remove()

	count := ripple.NewSignal(0)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn := dialWS(t, wsURL(t, ts.URL, "/ws"))
	waitForClients(t, s, 1)

	conn.Close()
	waitForClients(t, s, 0)

	// Broadcasting with no clients is a no-op.
	count.Set(1)
}

func TestSharedCollector(t *testing.T) {
	collector := metrics.NewCollector()
	s := New(WithCollector(collector))
	remove := s.Attach()
	defer remove()

	ripple.NewSignal(0)

	if got := collector.Snapshot().NodesCreated; got != 1 {
		t.Errorf("shared collector NodesCreated = %d, want 1", got)
	}
	if got := s.Stats().NodesCreated; got != 1 {
		t.Errorf("server Stats NodesCreated = %d, want 1", got)
	}
}

func TestStringifyTruncation(t *testing.T) {
	s := New(WithMaxValueLen(8))

	if got := s.stringify("short"); got != "short" {
		t.Errorf("stringify(short) = %q", got)
	}
	if got := s.stringify(strings.Repeat("x", 20)); got != "xxxxxxxx..." {
		t.Errorf("stringify(long) = %q, want truncated", got)
	}
}
