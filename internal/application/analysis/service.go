// Package analysis orchestrates batch scans and exposes their progress and
// resulting indicators to the HTTP and CLI surfaces.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"eddp/analizador_cfdi/internal/application/scanner"
	"eddp/analizador_cfdi/internal/core/cfdi"
	"eddp/analizador_cfdi/internal/core/kpi"
)

// Estado is the lifecycle state of a registered scan.
type Estado string

const (
	EstadoEnProgreso Estado = "en_progreso"
	EstadoCompletado Estado = "completado"
	EstadoCancelado  Estado = "cancelado"
)

var (
	// ErrScanNotFound marks an unknown scan identifier.
	ErrScanNotFound = errors.New("scan not found")
	// ErrScanRunning marks an operation that needs a finished scan.
	ErrScanRunning = errors.New("scan still in progress")
	// ErrRFCInvalido rejects a malformed user RFC before any file is read.
	ErrRFCInvalido = errors.New("rfc invalido")
	// ErrRutaNoPermitida rejects a requested path outside the configured
	// scan roots.
	ErrRutaNoPermitida = errors.New("ruta fuera de los directorios permitidos")
)

// Status is the observable state of one scan, safe to hand out by value.
type Status struct {
	ID        string           `json:"id"`
	Estado    Estado           `json:"estado"`
	RFC       string           `json:"rfc"`
	Inicio    time.Time        `json:"inicio"`
	Fin       *time.Time       `json:"fin,omitempty"`
	Progreso  scanner.Progress `json:"progreso"`
	Retenidos int              `json:"retenidos"`
}

// scanState is the registry entry for one scan. The progress-tailing
// goroutine is the only writer after registration; readers go through the
// service mutex.
type scanState struct {
	status    Status
	cancel    context.CancelFunc
	records   []cfdi.CFDI
	conceptos []cfdi.Concepto
	snapshot  *kpi.Snapshot
}

// Config bounds the scans the service accepts.
type Config struct {
	// DefaultRFC is used when a request carries no RFC; may be empty, in
	// which case RFC-less requests are rejected.
	DefaultRFC string
	// Roots are the only directories scans may read from; empty means
	// unrestricted.
	Roots []string
}

// Service registers scans, tracks their progress and serves the aggregated
// indicators once a scan finishes. All methods are safe for concurrent use.
type Service struct {
	log        *slog.Logger
	scanner    *scanner.Scanner
	defaultRFC string
	roots      []string // absolute, cleaned

	mu    sync.Mutex
	scans map[string]*scanState
}

func NewService(log *slog.Logger, sc *scanner.Scanner, cfg Config) *Service {
	roots := make([]string, 0, len(cfg.Roots))
	for _, r := range cfg.Roots {
		if abs, err := filepath.Abs(r); err == nil {
			roots = append(roots, abs)
		}
	}
	return &Service{
		log:        log,
		scanner:    sc,
		defaultRFC: cfg.DefaultRFC,
		roots:      roots,
		scans:      make(map[string]*scanState),
	}
}

// StartScan validates the user RFC and the requested paths, registers a new
// scan and launches it. An empty RFC falls back to the configured default.
// The returned identifier is the handle for every later query. Enumeration
// failures surface immediately; nothing is registered in that case.
func (s *Service) StartScan(ctx context.Context, paths []string, userRFC string) (string, error) {
	if strings.TrimSpace(userRFC) == "" {
		userRFC = s.defaultRFC
	}
	rfc := cfdi.NormalizarRFC(userRFC)
	if !cfdi.ValidarRFC(rfc) {
		return "", ErrRFCInvalido
	}
	for _, p := range paths {
		if !s.allowed(p) {
			return "", fmt.Errorf("%w: %s", ErrRutaNoPermitida, p)
		}
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	run, err := s.scanner.Start(runCtx, paths, rfc)
	if err != nil {
		cancel()
		return "", err
	}

	id := uuid.New().String()
	state := &scanState{
		status: Status{
			ID:     id,
			Estado: EstadoEnProgreso,
			RFC:    rfc,
			Inicio: time.Now(),
			Progreso: scanner.Progress{
				Total: run.Total(),
			},
		},
		cancel: cancel,
	}

	s.mu.Lock()
	s.scans[id] = state
	s.mu.Unlock()

	s.log.Info("scan registered", "scan_id", id, "files", run.Total(), "rfc", rfc)
	go s.tail(id, run)
	return id, nil
}

// allowed reports whether a requested path falls under one of the
// configured roots. No roots means no restriction.
func (s *Service) allowed(path string) bool {
	if len(s.roots) == 0 {
		return true
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, root := range s.roots {
		if abs == root || strings.HasPrefix(abs, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// tail consumes the run's progress stream and final result, keeping the
// registry entry current.
func (s *Service) tail(id string, run *scanner.Run) {
	for p := range run.Progress() {
		s.mu.Lock()
		if state, ok := s.scans[id]; ok {
			state.status.Progreso = p
		}
		s.mu.Unlock()
	}

	res := <-run.Result()
	snap := kpi.Aggregate(res.CFDIs, res.Invalidos, res.Duplicados, res.CFDI33)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.scans[id]
	if !ok {
		return
	}
	state.records = res.CFDIs
	state.conceptos = res.Conceptos
	state.snapshot = &snap
	state.status.Retenidos = len(res.CFDIs)
	state.status.Fin = &now
	if res.Canceled {
		state.status.Estado = EstadoCancelado
	} else {
		state.status.Estado = EstadoCompletado
	}
}

// Status returns the current state of a scan.
func (s *Service) Status(id string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.scans[id]
	if !ok {
		return Status{}, ErrScanNotFound
	}
	return state.status, nil
}

// Snapshot returns the indicators of a finished scan. Canceled scans still
// expose the snapshot over whatever was accumulated.
func (s *Service) Snapshot(id string) (kpi.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.scans[id]
	if !ok {
		return kpi.Snapshot{}, ErrScanNotFound
	}
	if state.snapshot == nil {
		return kpi.Snapshot{}, ErrScanRunning
	}
	return *state.snapshot, nil
}

// Records returns the retained documents and line items of a finished scan.
// The service keeps ownership; callers must not mutate the slices.
func (s *Service) Records(id string) ([]cfdi.CFDI, []cfdi.Concepto, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.scans[id]
	if !ok {
		return nil, nil, ErrScanNotFound
	}
	if state.snapshot == nil {
		return nil, nil, ErrScanRunning
	}
	return state.records, state.conceptos, nil
}

// Cancel requests cooperative cancellation of a running scan. The scan still
// finishes through its normal path and reports a canceled status. Canceling
// a finished scan is a no-op.
func (s *Service) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.scans[id]
	if !ok {
		return ErrScanNotFound
	}
	state.cancel()
	return nil
}

// List returns the status of every registered scan, newest first.
func (s *Service) List() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Status, 0, len(s.scans))
	for _, state := range s.scans {
		out = append(out, state.status)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Inicio.After(out[j].Inicio)
	})
	return out
}
