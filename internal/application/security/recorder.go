package security

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ ports.SecurityLog = (*Recorder)(nil)

// Recorder persiste los eventos en el repositorio y los replica en el logger.
// Los errores de persistencia se registran y se descartan.
type Recorder struct {
	repo    repository.SecurityEventRepository
	logger  zerolog.Logger
	timeout time.Duration
}

// NewRecorder construye el sink. repo puede ser nil (solo logger).
func NewRecorder(repo repository.SecurityEventRepository, logger zerolog.Logger) *Recorder {
	return &Recorder{
		repo:    repo,
		logger:  logger.With().Str("component", "security_log").Logger(),
		timeout: 2 * time.Second,
	}
}

// Record implementa ports.SecurityLog.
func (r *Recorder) Record(ctx context.Context, ev entity.SecurityEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if ev.Severity == "" {
		ev.Severity = entity.SeverityInfo
	}
	logEv := r.logger.Info()
	switch ev.Severity {
	case entity.SeverityWarn:
		logEv = r.logger.Warn()
	case entity.SeverityCritical:
		logEv = r.logger.Error()
	}
	logEv.Str("kind", ev.Kind).Str("actor", ev.ActorID).Str("subject", ev.Subject).
		Interface("detail", ev.Detail).Msg("evento de seguridad")

	if r.repo == nil {
		return
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if err := r.repo.Append(wctx, &ev); err != nil {
		r.logger.Error().Err(err).Str("kind", ev.Kind).Msg("no se pudo persistir el evento de seguridad")
	}
}
