// Package scanner walks a set of CFDI files on a dedicated worker,
// deduplicates by UUID, classifies each retained record and reports
// per-file progress to the caller.
package scanner

import (
	"context"
	"fmt"
	"log/slog"

	"eddp/analizador_cfdi/internal/adapters/cfdixml"
	"eddp/analizador_cfdi/internal/core/cfdi"
)

// Progress is the per-file observation emitted after every input file,
// exactly once, in traversal order. Counters are monotonically
// non-decreasing within a run.
type Progress struct {
	Procesados int `json:"procesados"`
	Invalidos  int `json:"invalidos"`
	Duplicados int `json:"duplicados"`
	CFDI33     int `json:"cfdi33"`
	Total      int `json:"total"`
}

// Result is the final event of a run, delivered exactly once after the last
// progress observation. Conceptos are flattened in record order, line order
// within each record.
type Result struct {
	CFDIs     []cfdi.CFDI
	Conceptos []cfdi.Concepto

	Invalidos  int
	Duplicados int
	CFDI33     int

	// Canceled marks a run stopped between files by context cancellation;
	// the collections hold what was accumulated up to that point.
	Canceled bool
}

// ParseFunc decodes a single file. Injectable for tests; production runs use
// the cfdixml parser.
type ParseFunc func(path string) (*cfdi.CFDI, []cfdi.Concepto)

// Scanner runs batch scans. The per-run state (seen UUIDs, accumulating
// collections) is owned by the worker goroutine; callers only ever see the
// fully-formed Result.
type Scanner struct {
	log   *slog.Logger
	parse ParseFunc
}

func New(log *slog.Logger) *Scanner {
	return &Scanner{log: log, parse: cfdixml.ParseFile}
}

// NewWithParser builds a Scanner with a custom parse function.
func NewWithParser(log *slog.Logger, parse ParseFunc) *Scanner {
	return &Scanner{log: log, parse: parse}
}

// Run is one in-flight batch scan.
type Run struct {
	files    []string
	userRFC  string
	progress chan Progress
	result   chan Result
}

// Total returns the number of files the run will process.
func (r *Run) Total() int { return len(r.files) }

// Progress returns the stream of per-file observations. The channel is
// buffered for the whole run and closed before the final result, so a slow
// consumer never stalls the worker.
func (r *Run) Progress() <-chan Progress { return r.progress }

// Result yields the final event. It is sent exactly once, after the
// progress channel closes, and then the channel itself is closed.
func (r *Run) Result() <-chan Result { return r.result }

// Start enumerates the batch and launches the worker goroutine. Enumeration
// failure is the only hard error; from then on every file-level failure is
// counted and skipped.
//
// Cancellation is cooperative and file-grained: the worker checks ctx
// between files, never mid-file, and still delivers the final Result.
func (s *Scanner) Start(ctx context.Context, paths []string, userRFC string) (*Run, error) {
	files, err := CollectXMLFiles(paths)
	if err != nil {
		return nil, fmt.Errorf("enumerate batch: %w", err)
	}

	run := &Run{
		files:    files,
		userRFC:  userRFC,
		progress: make(chan Progress, len(files)),
		result:   make(chan Result, 1),
	}

	s.log.Info("batch scan started", "files", len(files), "paths", len(paths))
	go s.work(ctx, run)
	return run, nil
}

func (s *Scanner) work(ctx context.Context, run *Run) {
	var (
		records    []cfdi.CFDI
		conceptos  []cfdi.Concepto
		invalidos  int
		duplicados int
		cfdi33     int
		canceled   bool
	)
	seen := make(map[string]struct{})
	total := len(run.files)

	for i, file := range run.files {
		if ctx.Err() != nil {
			canceled = true
			break
		}

		doc, lineas := s.parse(file)
		switch {
		case doc == nil:
			invalidos++
		default:
			if _, dup := seen[doc.UUID]; dup {
				duplicados++
				break
			}
			seen[doc.UUID] = struct{}{}
			doc.Clasificacion = cfdi.Classify(doc, run.userRFC)
			if doc.EsLegacy() {
				cfdi33++
			}
			records = append(records, *doc)
			conceptos = append(conceptos, lineas...)
		}

		run.progress <- Progress{
			Procesados: i + 1,
			Invalidos:  invalidos,
			Duplicados: duplicados,
			CFDI33:     cfdi33,
			Total:      total,
		}
	}

	close(run.progress)

	s.log.Info("batch scan finished",
		"procesados", total,
		"retenidos", len(records),
		"invalidos", invalidos,
		"duplicados", duplicados,
		"cfdi33", cfdi33,
		"canceled", canceled,
	)

	run.result <- Result{
		CFDIs:      records,
		Conceptos:  conceptos,
		Invalidos:  invalidos,
		Duplicados: duplicados,
		CFDI33:     cfdi33,
		Canceled:   canceled,
	}
	close(run.result)
}
