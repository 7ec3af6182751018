// Package batch converts many XAY files concurrently.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/xaytool/internal/logger"
	"github.com/Faultbox/xaytool/pkg/export"
	"github.com/Faultbox/xaytool/pkg/formats"
)

// ErrOutputExists is reported when a target file exists and Overwrite is off.
var ErrOutputExists = errors.New("output file exists")

// Config holds the shared settings for a batch run.
type Config struct {
	Exporter  export.Exporter
	OutputDir string // Empty writes next to each input
	Workers   int
	Strict    bool
	Overwrite bool
	// DryRun decodes and exports without writing files.
	DryRun bool
}

// Result holds the outcome of converting one file.
type Result struct {
	Input    string
	Output   string
	Vertices int
	Faces    int
	Duration time.Duration
	Err      error
}

// NotXAY reports whether the input was not an XAY file at all.
func (r Result) NotXAY() bool {
	return formats.IsNotXAY(r.Err)
}

// Run converts inputs with a fixed pool of workers. Results are returned in
// input order. Cancelling ctx stops dispatching; unstarted files report
// ctx.Err().
func Run(ctx context.Context, cfg Config, inputs []string) []Result {
	log := logger.Named("batch")

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(inputs))
	for i, in := range inputs {
		results[i] = Result{Input: in}
	}

	var processed atomic.Int64
	start := time.Now()

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = convertFile(cfg, inputs[idx])
				processed.Add(1)

				r := results[idx]
				if r.Err != nil {
					log.Debug("conversion failed", zap.String("file", r.Input), zap.Error(r.Err))
				} else {
					log.Debug("converted",
						zap.String("file", r.Input),
						zap.String("output", r.Output),
						zap.Int("vertices", r.Vertices),
						zap.Int("faces", r.Faces),
						zap.Duration("took", r.Duration))
				}
			}
		}()
	}

dispatch:
	for i := range inputs {
		select {
		case <-ctx.Done():
			for j := i; j < len(inputs); j++ {
				results[j].Err = ctx.Err()
			}
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)

	wg.Wait()

	log.Info("batch finished",
		zap.Int("files", len(inputs)),
		zap.Int64("processed", processed.Load()),
		zap.Int("workers", workers),
		zap.Duration("took", time.Since(start)))

	return results
}

func convertFile(cfg Config, input string) Result {
	start := time.Now()
	res := Result{Input: input, Output: OutputPath(cfg, input)}

	err := func() error {
		if !cfg.DryRun && !cfg.Overwrite {
			if _, err := os.Stat(res.Output); err == nil {
				return fmt.Errorf("%w: %s", ErrOutputExists, res.Output)
			}
		}

		in, err := os.Open(input)
		if err != nil {
			return err
		}
		defer in.Close()

		var w io.Writer = io.Discard
		var f *os.File
		if !cfg.DryRun {
			if err := os.MkdirAll(filepath.Dir(res.Output), 0755); err != nil {
				return err
			}
			// Write to a temp file so a failed export never leaves a partial output.
			f, err = os.CreateTemp(filepath.Dir(res.Output), ".xaytool-*")
			if err != nil {
				return err
			}
			defer os.Remove(f.Name())
			defer f.Close()
			w = f
		}

		m, err := export.Convert(in, input, cfg.Exporter, w, export.Options{Strict: cfg.Strict})
		if err != nil {
			return err
		}
		res.Vertices = len(m.Positions)
		res.Faces = len(m.Faces)

		if f != nil {
			// CreateTemp files are owner-only.
			if err := f.Chmod(0644); err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			if err := os.Rename(f.Name(), res.Output); err != nil {
				return err
			}
		}
		return nil
	}()

	res.Err = err
	res.Duration = time.Since(start)
	return res
}

// OutputPath returns where input is written: OutputDir (or the input's
// directory) joined with the mesh name and the exporter's extension.
func OutputPath(cfg Config, input string) string {
	dir := cfg.OutputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, formats.MeshName(input)+cfg.Exporter.Extension())
}

// Summary counts results by outcome.
type Summary struct {
	Converted int
	NotXAY    int
	Failed    int
}

// Summarize counts converted, unrecognized and corrupt inputs.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch {
		case r.Err == nil:
			s.Converted++
		case r.NotXAY():
			s.NotXAY++
		default:
			s.Failed++
		}
	}
	return s
}
