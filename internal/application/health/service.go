package health

import (
	"context"
	"time"

	"eddp/analizador_cfdi/internal/application/analysis"
	corehealth "eddp/analizador_cfdi/internal/core/health"
)

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	analyzer  *analysis.Service
	startedAt time.Time
}

// NewService builds the health service. The analyzer is optional; without it
// the scan counters stay at zero.
func NewService(meta Metadata, analyzer *analysis.Service) *Service {
	return &Service{
		meta:      meta,
		analyzer:  analyzer,
		startedAt: time.Now().UTC(),
	}
}

// Status returns the current availability snapshot.
func (s *Service) Status(_ context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      "UP",
		StartedAt:   s.startedAt,
		Uptime:      uptime.String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}
	if s.analyzer != nil {
		scans := s.analyzer.List()
		status.ScansTotales = len(scans)
		for _, sc := range scans {
			if sc.Estado == analysis.EstadoEnProgreso {
				status.ScansActivos++
			}
		}
	}
	return status
}
