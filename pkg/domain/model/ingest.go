package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// IngestResult is the outcome of one source row. Err is nil on success.
type IngestResult struct {
	Row int
	Key string
	Err error
}

// IngestReport collects the per-row results of one ingestion run
type IngestReport struct {
	Results []IngestResult
}

// Succeeded returns the number of rows stored
func (r *IngestReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the rows that could not be stored
func (r *IngestReport) Failed() []IngestResult {
	var failed []IngestResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Err joins all row failures, or returns nil when every row succeeded
func (r *IngestReport) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, goerr.Wrap(res.Err, "row failed", goerr.V("row", res.Row), goerr.V("key", res.Key)))
	}
	return errors.Join(errs...)
}

// IngestionMetadata records the last completed location ingestion.
// A change of Revision tells readers that cached table snapshots are stale.
type IngestionMetadata struct {
	Revision    string
	CompletedAt time.Time
	Count       int
}

// NewRevision returns a fresh ingestion revision token
func NewRevision() string {
	return uuid.New().String()
}
