// Package rates mantiene la tasa VES/USD vigente. Las ventas leen la tasa en caché;
// la consulta a proveedores corre aparte y nunca bloquea la caja.
package rates

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/application/security"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

var _ ports.RateSource = (*Service)(nil)

// Service tasa vigente en memoria.
type Service struct {
	upstream ports.RateSource
	guard    *security.Guard
	logger   zerolog.Logger
	gauge    RateGauge

	mu      sync.RWMutex
	current *ports.Rate
}

// RateGauge publica la tasa vigente (métricas).
type RateGauge interface {
	RateValue(v float64)
}

// NewService construye el servicio. upstream puede ser nil (solo tasa manual).
func NewService(upstream ports.RateSource, guard *security.Guard, logger zerolog.Logger) *Service {
	return &Service{upstream: upstream, guard: guard, logger: logger.With().Str("component", "rates").Logger()}
}

// WithGauge publica cada tasa nueva en g.
func (s *Service) WithGauge(g RateGauge) *Service {
	s.gauge = g
	return s
}

// Current tasa en caché; ErrNoRate si todavía no hay ninguna.
func (s *Service) Current(context.Context) (ports.Rate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ports.Rate{}, domain.ErrNoRate
	}
	return *s.current, nil
}

// Refresh consulta los proveedores y reemplaza la tasa si respondieron. Si fallan se
// conserva la tasa anterior.
func (s *Service) Refresh(ctx context.Context) (ports.Rate, error) {
	if s.upstream == nil {
		return ports.Rate{}, fmt.Errorf("%w: sin proveedores configurados", domain.ErrNoRate)
	}
	r, err := s.upstream.Current(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("no se pudo actualizar la tasa; se mantiene la anterior")
		return ports.Rate{}, err
	}
	s.store(r)
	s.logger.Info().Str("value", r.Value.String()).Str("source", r.Source).Msg("tasa actualizada")
	return r, nil
}

// Set carga una tasa manual.
func (s *Service) Set(ctx context.Context, actor *permission.Actor, value decimal.Decimal) (ports.Rate, error) {
	const op = "set_rate"
	if err := s.guard.Require(ctx, actor, op, permission.SettingsGlobal, permission.CashManage); err != nil {
		return ports.Rate{}, err
	}
	if !value.IsPositive() {
		return ports.Rate{}, domain.NewValidationError("value", money.ErrInvalidRate.Error())
	}
	r := ports.Rate{Value: value, AsOf: time.Now().UTC(), Source: "manual"}
	s.store(r)
	s.guard.Metrics().ObserveOp("rates", op, nil)
	s.guard.Record(ctx, actor, security.EventMutation, op, entity.SeverityInfo, map[string]any{"value": value.String()})
	return r, nil
}

// Run refresca al arrancar y luego cada interval hasta que ctx termine.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if s.upstream == nil || interval <= 0 {
		return
	}
	_, _ = s.Refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Refresh(ctx)
		}
	}
}

func (s *Service) store(r ports.Rate) {
	s.mu.Lock()
	s.current = &r
	s.mu.Unlock()
	if s.gauge != nil {
		s.gauge.RateValue(r.Value.InexactFloat64())
	}
}
