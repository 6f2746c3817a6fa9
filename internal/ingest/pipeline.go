package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Pipeline runs one upload end to end: read, chunk, classify, validate,
// verify relationships, load. Memory stays bounded by the chunk size for
// CSV and NDJSON input regardless of file size.
type Pipeline struct {
	store     Store
	validator *Validator
	verifier  *RelationshipVerifier
	loader    *BatchLoader
	chunkSize int
	log       *slog.Logger
}

// NewPipeline builds a pipeline over store. A nil logger falls back to
// slog.Default(); a chunkSize < 1 falls back to DefaultChunkSize.
func NewPipeline(store Store, log *slog.Logger, chunkSize int) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	return &Pipeline{
		store:     store,
		validator: NewValidator(),
		verifier:  NewRelationshipVerifier(store),
		loader:    NewBatchLoader(store),
		chunkSize: chunkSize,
		log:       log,
	}
}

// Run processes one uploaded file and returns the aggregate report.
//
// Fatal conditions (unsupported extension, malformed input, store read
// failure) return an error; by then earlier chunks may already have been
// persisted, and the unread remainder is abandoned. Row-level problems
// never fail the run: they are reported in the error log, capped at
// MaxReportedErrors, while the remaining rows continue.
func (p *Pipeline) Run(ctx context.Context, filename string, r io.Reader) (*Report, error) {
	uploadID := uuid.NewString()
	start := time.Now()
	log := p.log.With("upload_id", uploadID, "filename", filename)

	reader, err := OpenReader(filename, r)
	if err != nil {
		log.Warn("upload rejected", "error", err)
		return nil, err
	}
	defer reader.Close()

	log.Info("upload started", "chunk_size", p.chunkSize)

	report := &Report{Errors: []string{}}
	var allErrors []string
	chunker := NewChunker(reader, p.chunkSize)

	for chunkIndex := 0; ; chunkIndex++ {
		chunk, err := chunker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Error("upload aborted mid-stream", "chunk", chunkIndex, "error", err)
			return nil, err
		}

		batch, chunkErrors := p.validator.Categorize(chunk)
		allErrors = append(allErrors, chunkErrors...)

		relationshipErrors, err := p.verifier.Verify(ctx, batch)
		if err != nil {
			log.Error("relationship verification failed", "chunk", chunkIndex, "error", err)
			return nil, err
		}
		allErrors = append(allErrors, relationshipErrors...)

		counts, err := p.loader.Load(ctx, batch)
		if err != nil {
			// The whole chunk counts as skipped; rows cannot be attributed
			// after a bulk-insert failure.
			log.Error("chunk load failed", "chunk", chunkIndex, "error", err)
			allErrors = append(allErrors, fmt.Sprintf("Database error: %v", err))
			report.SkippedRowsCount += len(chunk)
		} else {
			report.SuccessRowsCount += int(counts.Total())
			report.SkippedRowsCount += len(chunk) - int(counts.Total())
			report.CustomersCreated += int(counts.Customers)
			report.ProductsCreated += int(counts.Products)
			report.OrdersCreated += int(counts.Orders)
			report.OrderItemsCreated += int(counts.OrderItems)
		}
		report.RecordsProcessed += len(chunk)

		log.Debug("chunk processed",
			"chunk", chunkIndex,
			"records", len(chunk),
			"validated", batch.Size(),
			"errors", len(chunkErrors)+len(relationshipErrors))
	}

	if len(allErrors) > MaxReportedErrors {
		report.Errors = allErrors[:MaxReportedErrors]
	} else {
		report.Errors = append(report.Errors, allErrors...)
	}

	if len(allErrors) == 0 {
		report.Message = "File processed successfully"
	} else {
		report.Message = "File processed with errors"
	}

	log.Info("upload finished",
		"records_processed", report.RecordsProcessed,
		"success_rows", report.SuccessRowsCount,
		"skipped_rows", report.SkippedRowsCount,
		"errors", len(allErrors),
		"bytes_read", reader.BytesRead(),
		"duration", time.Since(start))

	return report, nil
}
