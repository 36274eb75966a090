package metrics

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/context-keeper/internal/domain/assembler"
)

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest("/session/create", "POST", "200", 5*time.Millisecond)
	m.ObserveRequest("/session/create", "POST", "200", 5*time.Millisecond)
	m.ObserveRequest("/session/create", "POST", "500", time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/session/create", "POST", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/session/create", "POST", "500")))
}

func TestSessionsExpired(t *testing.T) {
	m := New()
	m.SessionsExpired(0)
	m.SessionsExpired(3)
	require.Equal(t, 3.0, testutil.ToFloat64(m.sessionsExpired))
}

func TestInstrumentRetriever(t *testing.T) {
	m := New()
	calls := 0
	r := m.InstrumentRetriever(assembler.RetrieverFunc(func(ctx context.Context, q assembler.Query) ([]assembler.Snippet, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("boom")
		}
		return []assembler.Snippet{{SourceID: "1"}}, nil
	}))

	out, err := r.Retrieve(context.Background(), assembler.Query{Text: "q"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	_, err = r.Retrieve(context.Background(), assembler.Query{Text: "q"})
	require.Error(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(m.retrievalFailures))
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var observed uint64
	for _, mf := range families {
		if mf.GetName() == "context_keeper_snippet_retrieval_duration_seconds" {
			observed = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	require.Equal(t, uint64(2), observed)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ContextDegraded()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "context_keeper_contexts_degraded_total 1")
}
