// Package store keeps metric run reports for later retrieval.
//
// Two backends implement [Store]:
//   - file: JSON files in a directory, for the CLI
//   - mongo: a MongoDB collection, for the HTTP service
//
// # Usage
//
//	st, err := store.NewFileStore("") // ~/.config/netgraph/reports/
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	if err := st.Put(ctx, report); err != nil {
//	    return err
//	}
//	latest, err := st.List(ctx, store.ListOptions{GraphHash: report.GraphHash, Limit: 1})
//
// Only completed runs are stored; a cancelled run has nothing to keep.
package store

import (
	"context"
	"errors"
	"time"

	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/pipeline"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a report does not exist.
	ErrNotFound = errors.New("report not found")

	// ErrNotStorable is returned by Put for reports that are not completed.
	ErrNotStorable = errors.New("only completed reports can be stored")
)

// DefaultRetention is how long Cleanup keeps reports by default.
const DefaultRetention = 30 * 24 * time.Hour

// ListOptions filters [Store.List].
type ListOptions struct {
	// GraphHash restricts the listing to runs over one graph.
	GraphHash string

	// Limit caps the number of reports. Zero means no limit.
	Limit int
}

// Store is the interface for report storage backends.
type Store interface {
	// Get retrieves a report by run ID. Missing reports fail with ErrNotFound.
	Get(ctx context.Context, runID string) (*pipeline.Report, error)

	// Put stores a completed report, replacing one with the same run ID.
	Put(ctx context.Context, report *pipeline.Report) error

	// Delete removes a report. Deleting a missing report is not an error.
	Delete(ctx context.Context, runID string) error

	// List returns reports newest first.
	List(ctx context.Context, opts ListOptions) ([]*pipeline.Report, error)

	// Cleanup removes reports created before cutoff and returns how many.
	Cleanup(ctx context.Context, cutoff time.Time) (int, error)

	Close() error
}

func checkStorable(r *pipeline.Report) error {
	if r == nil {
		return nxerrors.New(nxerrors.ErrCodeInvalidInput, "report is nil")
	}
	if r.RunID == "" {
		return nxerrors.New(nxerrors.ErrCodeInvalidInput, "report has no run id")
	}
	if r.State != pipeline.Completed {
		return nxerrors.Wrap(nxerrors.ErrCodeInvalidInput, ErrNotStorable, "run %s is %s", r.RunID, r.State)
	}
	return nil
}

func notFound(runID string) error {
	return nxerrors.Wrap(nxerrors.ErrCodeNotFound, ErrNotFound, "run %s", runID)
}
