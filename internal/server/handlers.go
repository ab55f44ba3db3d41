package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/netgraph/pkg/buildinfo"
	"github.com/matzehuels/netgraph/pkg/cache"
	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
	nxio "github.com/matzehuels/netgraph/pkg/io"
	"github.com/matzehuels/netgraph/pkg/pipeline"
	"github.com/matzehuels/netgraph/pkg/render"
	"github.com/matzehuels/netgraph/pkg/store"
)

// Headers set on responses.
const (
	HeaderCache     = "X-Cache"
	HeaderSharedRun = "X-Shared-Run"
)

const defaultReportLimit = 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Calculators:        s.opts.Metrics.Calculators,
		StopOnFirstFailure: s.opts.Metrics.StopOnFirstFailure,
	}
	if v := q.Get("calculators"); v != "" {
		opts.Calculators = splitList(v)
	}
	var err error
	if opts.StopOnFirstFailure, err = queryBool(q.Get("stop_on_failure"), opts.StopOnFirstFailure); err != nil {
		writeError(w, err)
		return
	}
	if opts.Refresh, err = queryBool(q.Get("refresh"), false); err != nil {
		writeError(w, err)
		return
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		writeError(w, err)
		return
	}

	g, err := s.readGraph(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := nxio.MarshalGraph(g)
	if err != nil {
		writeError(w, err)
		return
	}
	key := fmt.Sprintf("%s|%s|%t|%t", cache.Hash(data), strings.Join(opts.Calculators, ","), opts.StopOnFirstFailure, opts.Refresh)

	v, err, shared := s.runs.Do(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.opts.RunTimeout)
		defer cancel()
		report, err := s.runner.Run(ctx, g, opts)
		if err != nil {
			return nil, err
		}
		s.keep(ctx, report)
		return report, nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	report := v.(*pipeline.Report)

	if shared {
		w.Header().Set(HeaderSharedRun, "true")
	}
	w.Header().Set(HeaderCache, cacheHeader(report.CacheHit))
	status := http.StatusOK
	if report.State == pipeline.Cancelled {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// keep stores a completed report when a store is configured.
func (s *Server) keep(ctx context.Context, report *pipeline.Report) {
	if s.store == nil || report.State != pipeline.Completed {
		return
	}
	if err := s.store.Put(ctx, report); err != nil {
		s.logger.Warn("report not stored", "run", report.RunID, "error", err)
	}
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, nxerrors.New(nxerrors.ErrCodeNotFound, "report store disabled"))
		return
	}
	q := r.URL.Query()
	limit, err := queryInt(q.Get("limit"), defaultReportLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	reports, err := s.store.List(r.Context(), store.ListOptions{GraphHash: q.Get("graph"), Limit: limit})
	if err != nil {
		writeError(w, err)
		return
	}
	if reports == nil {
		reports = []*pipeline.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, nxerrors.New(nxerrors.ErrCodeNotFound, "report store disabled"))
		return
	}
	report, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.layoutOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	g, err := s.readGraph(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	hit, err := s.runner.Layout(r.Context(), g, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set(HeaderCache, cacheHeader(hit))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := nxio.WriteJSON(g, w); err != nil {
		s.logger.Warn("write layout response", "error", err)
	}
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = render.FormatSVG
	}
	ropts := s.opts.Render
	ropts.Formats = []string{format}
	var err error
	if ropts.ShowLabels, err = queryBool(q.Get("labels"), ropts.ShowLabels); err != nil {
		writeError(w, err)
		return
	}
	if v := q.Get("size_by"); v != "" {
		ropts.SizeBy = v
	}
	lopts, err := s.layoutOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	g, err := s.readGraph(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if !hasLayout(g) {
		if _, err := s.runner.Layout(r.Context(), g, lopts); err != nil {
			writeError(w, err)
			return
		}
	}
	artifacts, hit, err := s.runner.Render(r.Context(), g, ropts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set(HeaderCache, cacheHeader(hit))
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

// layoutOptions merges query parameters over the server's layout defaults.
func (s *Server) layoutOptions(r *http.Request) (pipeline.LayoutOptions, error) {
	q := r.URL.Query()
	opts := s.opts.Layout
	if v := q.Get("type"); v != "" {
		opts.Type = v
	}
	if v := q.Get("sort_by"); v != "" {
		opts.SortBy = v
	}
	var err error
	floats := []struct {
		name string
		dst  *float64
	}{{"width", &opts.Width}, {"height", &opts.Height}, {"margin", &opts.Margin}}
	for _, f := range floats {
		if *f.dst, err = queryFloat(q.Get(f.name), *f.dst); err != nil {
			return opts, err
		}
	}
	if opts.Iterations, err = queryInt(q.Get("iterations"), opts.Iterations); err != nil {
		return opts, err
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return opts, nxerrors.New(nxerrors.ErrCodeInvalidInput, "seed: %q is not an unsigned integer", v)
		}
		opts.Seed = seed
	}
	if opts.Refresh, err = queryBool(q.Get("refresh"), false); err != nil {
		return opts, err
	}
	return opts, opts.ValidateAndSetDefaults()
}

func (s *Server) readGraph(w http.ResponseWriter, r *http.Request) (*graph.Graph, error) {
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodySize)
	defer body.Close()
	g, err := nxio.ReadJSON(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nxerrors.New(nxerrors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, err
	}
	return g, nil
}

func hasLayout(g *graph.Graph) bool {
	_, ok, err := graph.TryGetValue(g.Metadata(), graph.LayoutBounds)
	return ok && err == nil
}

func cacheHeader(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

func contentType(format string) string {
	switch format {
	case render.FormatSVG:
		return "image/svg+xml"
	case render.FormatPNG:
		return "image/png"
	case render.FormatPDF:
		return "application/pdf"
	case render.FormatDOT:
		return "text/vnd.graphviz"
	}
	return "application/json"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func queryBool(v string, def bool) (bool, error) {
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, nxerrors.New(nxerrors.ErrCodeInvalidInput, "%q is not a boolean", v)
	}
	return b, nil
}

func queryInt(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, nxerrors.New(nxerrors.ErrCodeInvalidInput, "%q is not an integer", v)
	}
	return n, nil
}

func queryFloat(v string, def float64) (float64, error) {
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, nxerrors.New(nxerrors.ErrCodeInvalidInput, "%q is not a number", v)
	}
	return f, nil
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error struct {
		Code    nxerrors.Code `json:"code"`
		Message string        `json:"message"`
	} `json:"error"`
}

// statusFor maps error codes to HTTP statuses.
func statusFor(code nxerrors.Code) int {
	switch code {
	case nxerrors.ErrCodeInvalidInput, nxerrors.ErrCodeInvalidFormat, nxerrors.ErrCodeInvalidLayout,
		nxerrors.ErrCodeStructural, nxerrors.ErrCodeMetadataContract:
		return http.StatusBadRequest
	case nxerrors.ErrCodeNotFound, nxerrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case nxerrors.ErrCodeCalculation:
		return http.StatusUnprocessableEntity
	case nxerrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := nxerrors.GetCode(err)
	var body errorBody
	body.Error.Code = code
	body.Error.Message = nxerrors.UserMessage(err)
	if code == "" {
		body.Error.Code = nxerrors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
