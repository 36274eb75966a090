package transport_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/rpggio/context-keeper/internal/app"
	"github.com/rpggio/context-keeper/internal/config"
	"github.com/rpggio/context-keeper/internal/domain/assembler"
	"github.com/rpggio/context-keeper/internal/testserver"
)

const (
	diffD1 = "--- a/a.py\n+++ b/a.py\n@@ -0,0 +1,2 @@\n+def parse_config():\n+    pass\n"
	diffD2 = "--- a/a.py\n+++ b/a.py\n@@ -1,2 +1,2 @@\n def parse_config():\n-    pass\n+    return load()\n"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type programmingContext struct {
	SessionID       string `json:"sessionId"`
	AssociatedFiles []struct {
		Path         string    `json:"path"`
		Language     string    `json:"language"`
		LastAccessed time.Time `json:"lastAccessed"`
		Importance   float64   `json:"importance"`
	} `json:"associatedFiles"`
	RecentEdits []struct {
		ID       int64  `json:"id"`
		FilePath string `json:"filePath"`
		Seq      int64  `json:"seq"`
		Diff     string `json:"diff"`
	} `json:"recentEdits"`
	RelevantSnippets []assembler.Snippet `json:"relevantSnippets"`
	Statistics       struct {
		TotalFiles int `json:"totalFiles"`
		TotalEdits int `json:"totalEdits"`
	} `json:"statistics"`
	Degraded bool    `json:"degraded"`
	Error    *string `json:"error"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type recordResponse struct {
	Success bool `json:"success"`
	Edit    struct {
		ID  int64 `json:"id"`
		Seq int64 `json:"seq"`
	} `json:"edit"`
	Error *string `json:"error"`
}

func associate(t *testing.T, ts *testserver.TestServer, sessionID, path string) {
	t.Helper()
	var resp map[string]any
	require.Equal(t, http.StatusOK, ts.Post(t, "/context/associate", map[string]any{
		"sessionId": sessionID,
		"filePath":  path,
	}, &resp))
	require.NotContains(t, resp, "error")
}

func record(t *testing.T, ts *testserver.TestServer, sessionID, path, diff string) recordResponse {
	t.Helper()
	var resp recordResponse
	require.Equal(t, http.StatusOK, ts.Post(t, "/edits/record", map[string]any{
		"sessionId": sessionID,
		"filePath":  path,
		"diff":      diff,
	}, &resp))
	require.Nil(t, resp.Error)
	require.True(t, resp.Success)
	return resp
}

func TestScenario_AssociateRecordQuery(t *testing.T) {
	ts := testserver.New(t, nil)
	sid := ts.CreateSession(t)

	associate(t, ts, sid, "a.py")
	first := record(t, ts, sid, "a.py", diffD1)
	second := record(t, ts, sid, "a.py", diffD2)
	require.Equal(t, int64(1), first.Edit.Seq)
	require.Equal(t, int64(2), second.Edit.Seq)

	var pc programmingContext
	require.Equal(t, http.StatusOK, ts.Post(t, "/context/programming", map[string]any{
		"sessionId": sid,
		"query":     "parse_config",
	}, &pc))
	require.Nil(t, pc.Error)
	require.Equal(t, sid, pc.SessionID)
	require.Len(t, pc.AssociatedFiles, 1)
	require.Equal(t, "/workspace/a.py", pc.AssociatedFiles[0].Path)
	require.Equal(t, "python", pc.AssociatedFiles[0].Language)
	require.Len(t, pc.RecentEdits, 2)
	require.Equal(t, diffD2, pc.RecentEdits[0].Diff)
	require.Equal(t, diffD1, pc.RecentEdits[1].Diff)
	require.False(t, pc.Degraded)
	require.NotEmpty(t, pc.RelevantSnippets)
	require.Equal(t, "/workspace/a.py", pc.RelevantSnippets[0].FilePath)
	require.Equal(t, 1, pc.Statistics.TotalFiles)
	require.Equal(t, 2, pc.Statistics.TotalEdits)
}

func TestScenario_NoAssociations(t *testing.T) {
	ts := testserver.New(t, nil)
	sid := ts.CreateSession(t)

	var pc programmingContext
	require.Equal(t, http.StatusOK, ts.Post(t, "/context/programming", map[string]any{
		"sessionId": sid,
		"query":     "anything",
	}, &pc))
	require.Nil(t, pc.Error)
	require.NotNil(t, pc.AssociatedFiles)
	require.Empty(t, pc.AssociatedFiles)
	require.Empty(t, pc.RecentEdits)
}

func TestScenario_SnippetRetrievalFailure(t *testing.T) {
	tests := []struct {
		name      string
		retriever assembler.Retriever
	}{
		{
			name: "error",
			retriever: assembler.RetrieverFunc(func(context.Context, assembler.Query) ([]assembler.Snippet, error) {
				return nil, errors.New("search index offline")
			}),
		},
		{
			name: "timeout",
			retriever: assembler.RetrieverFunc(func(ctx context.Context, _ assembler.Query) ([]assembler.Snippet, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := testserver.New(t, func(cfg *config.Config) {
				cfg.Assembler.SnippetTimeout = 20 * time.Millisecond
			}, app.WithRetriever(tt.retriever))
			sid := ts.CreateSession(t)
			associate(t, ts, sid, "a.py")
			record(t, ts, sid, "a.py", diffD1)

			var raw map[string]any
			require.Equal(t, http.StatusOK, ts.Post(t, "/context/programming", map[string]any{
				"sessionId": sid,
				"query":     "parse_config",
			}, &raw))
			require.NotContains(t, raw, "error")
			require.Equal(t, []any{}, raw["relevantSnippets"])
			require.Equal(t, true, raw["degraded"])
			require.Len(t, raw["associatedFiles"], 1)
			require.Len(t, raw["recentEdits"], 1)
		})
	}
}

func TestScenario_Errors(t *testing.T) {
	ts := testserver.New(t, nil)
	sid := ts.CreateSession(t)
	associate(t, ts, sid, "a.py")

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown session", "/context/associate", map[string]any{"sessionId": "session-nope", "filePath": "a.py"}, 404, "NOT_FOUND"},
		{"empty path", "/context/associate", map[string]any{"sessionId": sid, "filePath": ""}, 400, "INVALID_INPUT"},
		{"invalid diff", "/edits/record", map[string]any{"sessionId": sid, "filePath": "a.py", "diff": "hello"}, 400, "INVALID_INPUT"},
		{"not associated", "/edits/record", map[string]any{"sessionId": sid, "filePath": "b.py", "diff": diffD1}, 404, "NOT_FOUND"},
		{"empty query", "/context/programming", map[string]any{"sessionId": sid, "query": "  "}, 400, "INVALID_INPUT"},
		{"context unknown session", "/context/programming", map[string]any{"sessionId": "gone", "query": "q"}, 404, "NOT_FOUND"},
		{"bad discussion type", "/context/discussions", map[string]any{"sessionId": sid, "filePath": "a.py", "type": "chat", "summary": "x"}, 400, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			require.Equal(t, tt.status, ts.Post(t, tt.path, tt.body, &body))
			require.NotEmpty(t, body.Error)
			require.Equal(t, tt.code, body.Code)
		})
	}

	var recent struct {
		Edits []any `json:"edits"`
	}
	require.Equal(t, http.StatusOK, ts.Get(t, "/edits/recent?sessionId="+sid, &recent))
	require.Empty(t, recent.Edits, "rejected edits must not be recorded")
}

func TestScenario_MalformedJSON(t *testing.T) {
	ts := testserver.New(t, nil)
	resp, err := http.Post(ts.Server.URL+"/context/associate", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(data), `"error"`)
}

func TestScenario_ReassociateRefreshes(t *testing.T) {
	clk := newClock()
	ts := testserver.New(t, nil, app.WithClock(clk.Now))
	sid := ts.CreateSession(t)

	associate(t, ts, sid, "src/a.py")
	associate(t, ts, sid, `src\b.go`)
	clk.Advance(time.Minute)
	associate(t, ts, sid, "./src/../src//a.py")

	var list struct {
		Files []struct {
			Path            string    `json:"path"`
			FirstAssociated time.Time `json:"firstAssociated"`
			LastAccessed    time.Time `json:"lastAccessed"`
		} `json:"files"`
	}
	require.Equal(t, http.StatusOK, ts.Get(t, "/context/files?sessionId="+sid, &list))
	require.Len(t, list.Files, 2)
	require.Equal(t, "/workspace/src/a.py", list.Files[0].Path)
	require.Equal(t, "/workspace/src/b.go", list.Files[1].Path)
	require.True(t, list.Files[0].LastAccessed.After(list.Files[0].FirstAssociated))
}

func TestScenario_SessionExpiry(t *testing.T) {
	clk := newClock()
	ts := testserver.New(t, func(cfg *config.Config) {
		cfg.Sessions.TTL = time.Hour
	}, app.WithClock(clk.Now))
	sid := ts.CreateSession(t)
	associate(t, ts, sid, "a.py")

	var state struct {
		Status    string `json:"status"`
		FileCount int    `json:"fileCount"`
	}
	require.Equal(t, http.StatusOK, ts.Get(t, "/session/"+sid, &state))
	require.Equal(t, "active", state.Status)
	require.Equal(t, 1, state.FileCount)

	clk.Advance(2 * time.Hour)

	// Expired but not yet swept: already NotFound.
	var body errorBody
	require.Equal(t, http.StatusNotFound, ts.Get(t, "/session/"+sid, &body))

	n, err := ts.App.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.Equal(t, http.StatusNotFound, ts.Post(t, "/edits/record", map[string]any{
		"sessionId": sid, "filePath": "a.py", "diff": diffD1,
	}, &body))
	require.Equal(t, "NOT_FOUND", body.Code)
}

func TestScenario_DeleteSession(t *testing.T) {
	ts := testserver.New(t, nil)
	sid := ts.CreateSession(t)
	associate(t, ts, sid, "a.py")

	var ok map[string]any
	require.Equal(t, http.StatusOK, ts.Do(t, http.MethodDelete, "/session/"+sid, nil, &ok))
	require.Equal(t, true, ok["success"])
	require.Equal(t, http.StatusOK, ts.Do(t, http.MethodDelete, "/session/"+sid, nil, &ok))

	var body errorBody
	require.Equal(t, http.StatusNotFound, ts.Get(t, "/context/files?sessionId="+sid, &body))
}

func TestScenario_Retention(t *testing.T) {
	ts := testserver.New(t, func(cfg *config.Config) {
		cfg.Edits.MaxPerFile = 3
	})
	sid := ts.CreateSession(t)
	associate(t, ts, sid, "a.py")
	for i := 1; i <= 5; i++ {
		resp := record(t, ts, sid, "a.py", fmt.Sprintf("--- a/a.py\n+++ b/a.py\n@@ -0,0 +1 @@\n+line %d\n", i))
		require.Equal(t, int64(i), resp.Edit.Seq)
	}

	var recent struct {
		Edits []struct {
			Seq int64 `json:"seq"`
		} `json:"edits"`
	}
	require.Equal(t, http.StatusOK, ts.Get(t, "/edits/recent?sessionId="+sid, &recent))
	require.Len(t, recent.Edits, 3)
	require.Equal(t, int64(5), recent.Edits[0].Seq)
	require.Equal(t, int64(3), recent.Edits[2].Seq)

	var body errorBody
	require.Equal(t, http.StatusBadRequest, ts.Get(t, "/edits/recent?sessionId="+sid+"&limit=-1", &body))
}

func TestScenario_ComputedDiffAndDiscussion(t *testing.T) {
	ts := testserver.New(t, nil)
	sid := ts.CreateSession(t)
	associate(t, ts, sid, "a.py")

	var computed struct {
		Diff  string `json:"diff"`
		Valid bool   `json:"valid"`
	}
	require.Equal(t, http.StatusOK, ts.Post(t, "/edits/diff", map[string]any{
		"oldContent": "", "newContent": "one\ntwo\n", "label": "src/a.py",
	}, &computed))
	require.True(t, computed.Valid)
	require.Equal(t, "--- a/src/a.py\n+++ b/src/a.py\n@@ -0,0 +1,2 @@\n+one\n+two\n", computed.Diff)

	var rec recordResponse
	require.Equal(t, http.StatusOK, ts.Post(t, "/edits/record", map[string]any{
		"sessionId": sid, "filePath": "a.py", "oldContent": "one\n", "newContent": "one\ntwo\n",
	}, &rec))
	require.Equal(t, int64(1), rec.Edit.Seq)

	var linked map[string]any
	require.Equal(t, http.StatusOK, ts.Post(t, "/context/discussions", map[string]any{
		"sessionId": sid, "filePath": "a.py", "type": "decision", "summary": "keep the loader lazy",
	}, &linked))
	require.Equal(t, true, linked["success"])

	var pc programmingContext
	require.Equal(t, http.StatusOK, ts.Post(t, "/context/programming", map[string]any{
		"sessionId": sid, "query": "loader",
	}, &pc))
	require.InDelta(t, 0.2, pc.AssociatedFiles[0].Importance, 1e-9)
	require.NotEmpty(t, pc.RelevantSnippets)
	require.Equal(t, "discussion", pc.RelevantSnippets[0].Kind)
}

func TestScenario_HealthAndMetrics(t *testing.T) {
	ts := testserver.New(t, nil)
	ts.CreateSession(t)

	resp, err := http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.Server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(data), `context_keeper_http_requests_total{code="200",method="POST",route="/session/create"} 1`)
}

func TestProperty_SequencesGapFree(t *testing.T) {
	ts := testserver.New(t, nil)
	files := []string{"a.py", "b.go", "c.ts"}

	rapid.Check(t, func(rt *rapid.T) {
		sid := ts.CreateSession(t)
		for _, f := range files {
			associate(t, ts, sid, f)
		}

		ops := rapid.SliceOfN(rapid.IntRange(0, len(files)*2-1), 1, 25).Draw(rt, "ops")
		want := map[string]int64{}
		for _, op := range ops {
			f := files[op%len(files)]
			if op >= len(files) {
				// Invalid payload: rejected without consuming a sequence number.
				var body errorBody
				require.Equal(t, http.StatusBadRequest, ts.Post(t, "/edits/record", map[string]any{
					"sessionId": sid, "filePath": f, "diff": "@@ broken",
				}, &body))
				continue
			}
			want[f]++
			resp := record(t, ts, sid, f, "--- a/x\n+++ b/x\n@@ -0,0 +1 @@\n+x\n")
			if resp.Edit.Seq != want[f] {
				rt.Fatalf("file %s: seq %d, want %d", f, resp.Edit.Seq, want[f])
			}
		}
	})
}
