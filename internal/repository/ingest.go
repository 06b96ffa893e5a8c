package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/cookedzera/RetroQuery/internal/store"
)

// IngestError collects the per-profile failures of one bulk run.
type IngestError struct {
	Errors []error
}

func (e *IngestError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return "ingest failed for " + strconv.Itoa(len(e.Errors)) + " profiles: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *IngestError) Unwrap() []error {
	return e.Errors
}

// ProfileWriter is the write side BulkIngestor drives.
type ProfileWriter interface {
	UpsertProfile(ctx context.Context, p store.Profile) error
}

// BulkIngestor loads profiles into the graph with a fixed worker pool.
type BulkIngestor struct {
	writer  ProfileWriter
	workers int
}

// NewBulkIngestor returns an ingestor with the given concurrency, four when
// workers is not positive.
func NewBulkIngestor(writer ProfileWriter, workers int) *BulkIngestor {
	if workers <= 0 {
		workers = 4
	}
	return &BulkIngestor{writer: writer, workers: workers}
}

// Ingest writes every profile. Individual failures are gathered into an
// *IngestError; cancellation stops the run and is returned as is.
func (bi *BulkIngestor) Ingest(ctx context.Context, profiles []store.Profile) error {
	if len(profiles) == 0 {
		return nil
	}

	indexCh := make(chan int)
	errCh := make(chan error, len(profiles))
	var wg sync.WaitGroup

	for i := 0; i < bi.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexCh {
				if err := bi.writer.UpsertProfile(ctx, profiles[idx]); err != nil {
					errCh <- err
				}
			}
		}()
	}

Loop:
	for i := range profiles {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	if err := ctx.Err(); err != nil {
		return err
	}

	var ingestErr IngestError
	for err := range errCh {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		ingestErr.Errors = append(ingestErr.Errors, err)
	}
	if len(ingestErr.Errors) == 0 {
		return nil
	}
	return &ingestErr
}
