package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/poiesic/ragcore/ai/mock"
	"github.com/poiesic/ragcore/answer"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/ingestion"
	"github.com/poiesic/ragcore/metrics"
	"github.com/poiesic/ragcore/retrieval"
	"github.com/poiesic/ragcore/storage"
	"github.com/poiesic/ragcore/storage/badger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnswerer struct {
	resp *answer.Response
	err  error

	sessionID string
	question  string
	history   []core.Message
	filters   core.FilterSet
}

func (f *fakeAnswerer) Answer(_ context.Context, sessionID, question string, history []core.Message, filters core.FilterSet) (*answer.Response, error) {
	f.sessionID, f.question, f.history, f.filters = sessionID, question, history, filters
	return f.resp, f.err
}

type fakeRetriever struct {
	pieces  []*core.Piece
	err     error
	filters core.FilterSet
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, filters core.FilterSet) ([]*core.Piece, error) {
	f.filters = filters
	return f.pieces, f.err
}

type staticReadiness struct {
	ready bool
	err   error
}

func (s staticReadiness) IsReady(context.Context) (bool, error) { return s.ready, s.err }

func newTestServer(t *testing.T, answerer Answerer, opts ...Option) *httptest.Server {
	t.Helper()
	s, err := New(answerer, opts...)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrAnswererRequired)
}

func TestChat(t *testing.T) {
	t.Run("answers a turn", func(t *testing.T) {
		answerer := &fakeAnswerer{resp: &answer.Response{
			AnswerText:   "Berlin.",
			Citations:    []*core.Piece{{Id: "p1", Content: "Berlin is the capital.", ContentType: core.ContentTypeText}},
			FinishReason: "stop",
		}}
		ts := newTestServer(t, answerer)

		resp, body := postJSON(t, ts.URL+"/chat/session-42", `{
			"message": "What is the capital?",
			"history": [{"role": "user", "message": "Hi"}],
			"filters": {"document": ["de.pdf"]}
		}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got answer.Response
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "Berlin.", got.AnswerText)
		assert.Equal(t, "stop", got.FinishReason)
		require.Len(t, got.Citations, 1)
		assert.Equal(t, "p1", got.Citations[0].Id)

		assert.Equal(t, "session-42", answerer.sessionID)
		assert.Equal(t, "What is the capital?", answerer.question)
		assert.Equal(t, []core.Message{{Role: "user", Text: "Hi"}}, answerer.history)
		assert.Equal(t, core.FilterSet{"document": {"de.pdf"}}, answerer.filters)
	})

	t.Run("empty citations serialize as an array", func(t *testing.T) {
		answerer := &fakeAnswerer{resp: &answer.Response{AnswerText: "x", Citations: []*core.Piece{}, FinishReason: "Error"}}
		ts := newTestServer(t, answerer)

		_, body := postJSON(t, ts.URL+"/chat/s", `{"message":"q"}`)
		assert.Contains(t, string(body), `"citations":[]`)
	})

	t.Run("turn failure maps to 500 without details", func(t *testing.T) {
		answerer := &fakeAnswerer{err: fmt.Errorf("%w: %w", answer.ErrTurnFailed, errors.New("llm timeout at 10.0.0.3"))}
		ts := newTestServer(t, answerer)

		resp, body := postJSON(t, ts.URL+"/chat/s", `{"message":"q"}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.NotContains(t, string(body), "10.0.0.3")
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := newTestServer(t, &fakeAnswerer{})
		resp, _ := postJSON(t, ts.URL+"/chat/s", `{"message":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestSearch(t *testing.T) {
	t.Run("drops summaries and maps metadata to filters", func(t *testing.T) {
		retriever := &fakeRetriever{pieces: []*core.Piece{
			{Id: "t1", Content: "a", ContentType: core.ContentTypeText},
			{Id: "s1", Content: "b", ContentType: core.ContentTypeSummary},
			{Id: "i1", Content: "c", ContentType: core.ContentTypeImage},
		}}
		ts := newTestServer(t, &fakeAnswerer{}, WithRetriever(retriever))

		resp, body := postJSON(t, ts.URL+"/search", `{"search_term":"x","metadata":{"document":"de.pdf"}}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got SearchResponse
		require.NoError(t, json.Unmarshal(body, &got))
		require.Len(t, got.Documents, 2)
		assert.Equal(t, "t1", got.Documents[0].Id)
		assert.Equal(t, "i1", got.Documents[1].Id)
		assert.Nil(t, got.Answer)
		assert.Equal(t, core.FilterSet{"document": {"de.pdf"}}, retriever.filters)
	})

	t.Run("empty collection answers with the canned message", func(t *testing.T) {
		retriever := &fakeRetriever{err: retrieval.ErrNoOrEmptyCollection}
		ts := newTestServer(t, &fakeAnswerer{}, WithRetriever(retriever))

		resp, body := postJSON(t, ts.URL+"/search", `{"search_term":"x"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var got SearchResponse
		require.NoError(t, json.Unmarshal(body, &got))
		require.NotNil(t, got.Answer)
		assert.Equal(t, answer.DefaultMessages().NoOrEmptyCollection, got.Answer.AnswerText)
		assert.Equal(t, "Error", got.Answer.FinishReason)
		assert.Empty(t, got.Documents)
	})

	t.Run("retrieval failure", func(t *testing.T) {
		ts := newTestServer(t, &fakeAnswerer{}, WithRetriever(&fakeRetriever{err: errors.New("store down")}))
		resp, _ := postJSON(t, ts.URL+"/search", `{"search_term":"x"}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("not mounted without a retriever", func(t *testing.T) {
		ts := newTestServer(t, &fakeAnswerer{})
		resp, _ := postJSON(t, ts.URL+"/search", `{"search_term":"x"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func newIngester(t *testing.T) (*ingestion.Pipeline, storage.PieceRepository) {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	p, err := ingestion.NewPipeline(repo, mock.NewMockProvider())
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p, repo
}

func TestInformationPieces(t *testing.T) {
	pipeline, repo := newIngester(t)
	ts := newTestServer(t, &fakeAnswerer{}, WithIngester(pipeline))
	ctx := context.Background()

	resp, body := postJSON(t, ts.URL+"/information_pieces/upload", `[
		{"id":"a1","content":"first","content_type":"TEXT","metadata":{"document":"a.pdf"}},
		{"id":"a2","content":"second","content_type":"TABLE","metadata":{"document":"a.pdf"}},
		{"id":"b1","content":"third","metadata":{"document":"b.pdf"}}
	]`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var result ingestion.Result
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 3, result.Stored)

	count, err := repo.CountPieces(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	t.Run("replace", func(t *testing.T) {
		resp, body := postJSON(t, ts.URL+"/information_pieces/upload?replace=true",
			`[{"id":"a3","content":"rewritten","metadata":{"document":"a.pdf"}}]`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, json.Unmarshal(body, &result))
		assert.Equal(t, 2, result.Removed)
	})

	t.Run("invalid piece", func(t *testing.T) {
		resp, _ := postJSON(t, ts.URL+"/information_pieces/upload", `[{"id":"x","content":""}]`)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("remove requires metadata", func(t *testing.T) {
		resp, _ := postJSON(t, ts.URL+"/information_pieces/remove", `{"metadata":{}}`)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("remove", func(t *testing.T) {
		resp, body := postJSON(t, ts.URL+"/information_pieces/remove", `{"metadata":{"document":"b.pdf"}}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got RemoveResponse
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, 1, got.Removed)

		ids, err := repo.ListPieceIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a3"}, ids)
	})
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		readiness  ReadinessChecker
		wantStatus int
		wantReady  bool
	}{
		{"no checker", nil, http.StatusOK, true},
		{"empty store", staticReadiness{ready: false}, http.StatusOK, false},
		{"ready store", staticReadiness{ready: true}, http.StatusOK, true},
		{"broken store", staticReadiness{err: errors.New("closed")}, http.StatusServiceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.readiness != nil {
				opts = append(opts, WithReadiness(tt.readiness))
			}
			ts := newTestServer(t, &fakeAnswerer{}, opts...)

			resp, err := http.Get(ts.URL + "/healthz")
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var got HealthResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.Equal(t, tt.wantReady, got.Ready)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector("ragcore", reg, nil)
	answerer := &fakeAnswerer{resp: &answer.Response{AnswerText: "ok", Citations: []*core.Piece{}}}
	ts := newTestServer(t, answerer, WithMetrics(collector, reg))

	resp, _ := postJSON(t, ts.URL+"/chat/abc", `{"message":"q"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	mresp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(mresp.Body)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `ragcore_http_requests_total{method="POST",route="/chat/{session_id}",status="200"} 1`)
}
