package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
	nxio "github.com/matzehuels/netgraph/pkg/io"
	"github.com/matzehuels/netgraph/pkg/metrics"
	"github.com/matzehuels/netgraph/pkg/pipeline"
	"github.com/matzehuels/netgraph/pkg/store"
)

const pathGraph = `{
  "directedness": "undirected",
  "vertices": [{"id": 1, "name": "a"}, {"id": 2, "name": "b"}, {"id": 3, "name": "c"}],
  "edges": [{"from": 1, "to": 2}, {"from": 2, "to": 3}]
}`

func newTestServer(t *testing.T, st store.Store) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	s := New(pipeline.NewRunner(nil, nil, logger), st, logger, Options{})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestMetrics(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ts := newTestServer(t, st)

	resp := post(t, ts.URL+"/v1/metrics?calculators=degree,brandes", pathGraph)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "miss", resp.Header.Get(HeaderCache))

	var report pipeline.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, pipeline.Completed, report.State)
	require.Len(t, report.Results, 2)

	deg, ok := report.Result(metrics.NameDegree)
	require.True(t, ok)
	v, _ := deg.Vertex(metrics.ColumnDegree, graph.VertexID(2))
	assert.Equal(t, 2.0, v)

	// The completed run was stored.
	got, err := http.Get(ts.URL + "/v1/reports/" + report.RunID)
	require.NoError(t, err)
	defer got.Body.Close()
	assert.Equal(t, http.StatusOK, got.StatusCode)

	list, err := http.Get(ts.URL + "/v1/reports?graph=" + report.GraphHash)
	require.NoError(t, err)
	defer list.Body.Close()
	var reports []pipeline.Report
	require.NoError(t, json.NewDecoder(list.Body).Decode(&reports))
	assert.Len(t, reports, 1)
}

func TestMetricsErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	tests := []struct {
		name   string
		query  string
		body   string
		status int
		code   nxerrors.Code
	}{
		{"unknown calculator", "?calculators=pagerank", pathGraph, http.StatusBadRequest, nxerrors.ErrCodeInvalidInput},
		{"bad flag", "?stop_on_failure=maybe", pathGraph, http.StatusBadRequest, nxerrors.ErrCodeInvalidInput},
		{"malformed body", "", "{", http.StatusBadRequest, nxerrors.ErrCodeInvalidFormat},
		{"unknown vertex", "", `{"vertices":[{"id":1}],"edges":[{"from":1,"to":9}]}`, http.StatusBadRequest, nxerrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/v1/metrics"+tt.query, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decodeError(t, resp).Error.Code)
		})
	}
}

func TestReportsWithoutStore(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/v1/reports/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReportNotFound(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ts := newTestServer(t, st)

	resp, err := http.Get(ts.URL + "/v1/reports/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, nxerrors.ErrCodeNotFound, decodeError(t, resp).Error.Code)
}

func TestLayout(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := post(t, ts.URL+"/v1/layout?type=circle&width=200&height=100", pathGraph)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	g, err := nxio.ReadJSON(resp.Body)
	require.NoError(t, err)
	bounds, ok, err := graph.TryGetValue(g.Metadata(), graph.LayoutBounds)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 200.0, bounds.Max.X)
	for _, v := range g.Vertices() {
		p := v.Location()
		assert.True(t, p.X >= 0 && p.X <= 200 && p.Y >= 0 && p.Y <= 100, "%v at %v", v, p)
	}
}

func TestLayoutErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	tests := []struct {
		query  string
		status int
	}{
		{"?type=hexagon", http.StatusBadRequest},
		{"?width=wide", http.StatusBadRequest},
		{"?seed=-1", http.StatusBadRequest},
		{"?margin=-5", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := post(t, ts.URL+"/v1/layout"+tt.query, pathGraph)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRenderDOT(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := post(t, ts.URL+"/v1/render?format=dot&type=grid&labels=true", pathGraph)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/vnd.graphviz", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "graph G {")
	assert.Contains(t, string(body), `label="a"`)
}

func TestRenderUnknownFormat(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := post(t, ts.URL+"/v1/render?format=gif", pathGraph)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(nxerrors.ErrCodeStructural))
	assert.Equal(t, http.StatusNotFound, statusFor(nxerrors.ErrCodeNotFound))
	assert.Equal(t, http.StatusNotImplemented, statusFor(nxerrors.ErrCodeUnsupported))
	assert.Equal(t, http.StatusInternalServerError, statusFor(""))
}
