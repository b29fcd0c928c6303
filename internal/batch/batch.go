// Package batch processes sets of scanned documents: file discovery,
// worker-pool execution and result formatting.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/scanforge/scanforge/internal/pipeline"
)

// Config holds batch processing settings.
type Config struct {
	Workers         int
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
	ContinueOnError bool
	PageRange       string

	ShowProgress bool
	Quiet        bool
}

// FileResult is the outcome for one input file. Exactly one of Result
// and Error is set.
type FileResult struct {
	Path   string                   `json:"path"`
	Result *pipeline.DocumentResult `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

// Result holds the outcome of a batch run in input order.
type Result struct {
	Files       []FileResult  `json:"files"`
	Duration    time.Duration `json:"duration"`
	WorkerCount int           `json:"worker_count"`
}

// Failed counts the files that did not process.
func (r *Result) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Error != "" {
			n++
		}
	}
	return n
}

// ProcessBatch discovers the input files and processes them on a worker
// pool. With ContinueOnError set, per-file failures are recorded and the
// run completes; otherwise the first failure aborts.
func ProcessBatch(ctx context.Context, pl *pipeline.Pipeline, args []string, config *Config) (*Result, error) {
	files, err := discoverFiles(args, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("discovering input files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no input files found")
	}

	workers := config.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	var progress pipeline.ProgressCallback = pipeline.NoOpProgressCallback{}
	if config.ShowProgress && !config.Quiet {
		progress = pipeline.NewConsoleProgressCallback(os.Stderr, "Processing: ")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	start := time.Now()
	results := make([]FileResult, len(files))
	jobs := make(chan int)
	var done int64
	var mu sync.Mutex
	var firstErr error

	progress.OnStart(len(files))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res := processOne(ctx, pl, files[i], config.PageRange)
				results[i] = res

				mu.Lock()
				done++
				current := int(done)
				if res.Error != "" {
					progress.OnError(current, errors.New(res.Error))
					if !config.ContinueOnError && firstErr == nil {
						firstErr = fmt.Errorf("processing %s: %s", res.Path, res.Error)
						cancel()
					}
				}
				progress.OnProgress(current, len(files))
				mu.Unlock()
			}
		}()
	}

dispatch:
	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	progress.OnComplete()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Result{
		Files:       results,
		Duration:    time.Since(start),
		WorkerCount: workers,
	}, nil
}

// processOne runs a single file through the pipeline. PDFs reduce to
// their document-level view so every file yields one DocumentResult.
func processOne(ctx context.Context, pl *pipeline.Pipeline, path, pageRange string) FileResult {
	if err := ctx.Err(); err != nil {
		return FileResult{Path: path, Error: err.Error()}
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		res, err := pl.ProcessPDF(ctx, path, pageRange)
		if err != nil {
			return FileResult{Path: path, Error: err.Error()}
		}
		return FileResult{Path: path, Result: &pipeline.DocumentResult{
			Text:         res.Text,
			Confidence:   res.Confidence,
			DocumentType: res.DocumentType,
			Fields:       res.Fields,
		}}
	}

	res, err := pl.ProcessFile(ctx, path)
	if err != nil {
		return FileResult{Path: path, Error: err.Error()}
	}
	return FileResult{Path: path, Result: res}
}
