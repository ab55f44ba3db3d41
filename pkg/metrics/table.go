package metrics

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/netgraph/pkg/graph"
)

// CentralityTableHeader is the first line of a centrality table.
const CentralityTableHeader = "Vertex ID\tCloseness Centrality\tBetweenness Centrality"

// ErrMalformedTable is wrapped by every centrality table parse failure.
var ErrMalformedTable = errors.New("malformed centrality table")

// WriteCentralityTable writes the closeness and betweenness columns of r as
// a tab-separated table, one row per vertex in ascending ID order.
func WriteCentralityTable(w io.Writer, g *graph.Graph, r Result) error {
	closeness, betweenness := r.Vertices[ColumnCloseness], r.Vertices[ColumnBetweenness]
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, CentralityTableHeader)
	for _, id := range g.VertexIDs() {
		fmt.Fprintf(bw, "%d\t%s\t%s\n", id,
			strconv.FormatFloat(closeness[id], 'g', -1, 64),
			strconv.FormatFloat(betweenness[id], 'g', -1, 64))
	}
	return bw.Flush()
}

// ParseCentralityTable reads a centrality table for g. The header must match
// [CentralityTableHeader] exactly and every vertex of g must appear in
// exactly one row with finite, non-negative values. Any deviation is a
// CALCULATION_FAILED error wrapping [ErrMalformedTable].
func ParseCentralityTable(r io.Reader, g *graph.Graph) (Result, error) {
	res := newResult(NameBrandes, g, ColumnBetweenness, ColumnCloseness)
	seen := make(map[graph.VertexID]bool, g.VertexCount())

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSuffix(sc.Text(), "\r")
		if line == 1 {
			if text != CentralityTableHeader {
				return Result{}, failure(NameBrandes, ErrMalformedTable, "line 1: unexpected header %q", text)
			}
			continue
		}
		if text == "" {
			continue
		}
		id, closeness, betweenness, err := parseRow(text)
		if err != nil {
			return Result{}, failure(NameBrandes, ErrMalformedTable, "line %d: %v", line, err)
		}
		if _, ok := g.Vertex(id); !ok {
			return Result{}, failure(NameBrandes, ErrMalformedTable, "line %d: unknown vertex %d", line, id)
		}
		if seen[id] {
			return Result{}, failure(NameBrandes, ErrMalformedTable, "line %d: vertex %d listed twice", line, id)
		}
		seen[id] = true
		res.Vertices[ColumnCloseness][id] = closeness
		res.Vertices[ColumnBetweenness][id] = betweenness
	}
	if err := sc.Err(); err != nil {
		return Result{}, failure(NameBrandes, err, "read centrality table")
	}
	if line == 0 {
		return Result{}, failure(NameBrandes, ErrMalformedTable, "empty input")
	}
	if len(seen) != g.VertexCount() {
		return Result{}, failure(NameBrandes, ErrMalformedTable, "%d of %d vertices listed", len(seen), g.VertexCount())
	}
	return res, nil
}

func parseRow(text string) (graph.VertexID, float64, float64, error) {
	fields := strings.Split(text, "\t")
	if len(fields) != 3 {
		return 0, 0, 0, fmt.Errorf("want 3 fields, got %d", len(fields))
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("vertex ID: %w", err)
	}
	closeness, err := parseValue(fields[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("closeness: %w", err)
	}
	betweenness, err := parseValue(fields[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("betweenness: %w", err)
	}
	return graph.VertexID(id), closeness, betweenness, nil
}

func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("value %q out of range", s)
	}
	return v, nil
}
