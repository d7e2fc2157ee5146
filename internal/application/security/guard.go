// Package security autoriza cada mutación y deja rastro en el log de seguridad.
package security

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
)

// Tipos de evento de seguridad.
const (
	EventAccessDenied     = "ACCESS_DENIED"
	EventMutation         = "MUTATION"
	EventCapabilityGrant  = "CAPABILITY_GRANTED"
	EventCapabilityRevoke = "CAPABILITY_REVOKED"
	EventSagaFailure      = "SAGA_FAILURE"
	EventIntegrity        = "INTEGRITY_VIOLATION"
	EventLogin            = "LOGIN"
	EventLoginFailed      = "LOGIN_FAILED"
)

// Guard combina la compuerta pura con el registro de denegaciones y mutaciones.
type Guard struct {
	gate    *permission.Gate
	log     ports.SecurityLog
	metrics ports.Metrics
	logger  zerolog.Logger
}

// NewGuard construye el guardián. log y metrics pueden ser nil.
func NewGuard(gate *permission.Gate, log ports.SecurityLog, metrics ports.Metrics, logger zerolog.Logger) *Guard {
	if log == nil {
		log = ports.NopSecurityLog{}
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Guard{gate: gate, log: log, metrics: metrics, logger: logger.With().Str("component", "guard").Logger()}
}

// Gate compuerta subyacente.
func (g *Guard) Gate() *permission.Gate { return g.gate }

// Metrics recolector de métricas compartido por los casos de uso.
func (g *Guard) Metrics() ports.Metrics { return g.metrics }

// Require autoriza op si el actor tiene alguna de caps. La denegación se registra
// antes de devolver el error y ninguna escritura ha ocurrido todavía.
func (g *Guard) Require(ctx context.Context, actor *permission.Actor, op string, caps ...permission.Capability) error {
	err := g.gate.Check(actor, caps...)
	if err == nil {
		return nil
	}
	capName := ""
	if len(caps) > 0 {
		capName = caps[0].String()
	}
	actorID := ""
	if actor != nil {
		actorID = actor.ID
	}
	g.metrics.Denied(capName)
	g.logger.Warn().Str("actor", actorID).Str("op", op).Str("capability", capName).Msg("acceso denegado")
	g.log.Record(ctx, entity.SecurityEvent{
		Kind:      EventAccessDenied,
		ActorID:   actorID,
		Subject:   op,
		Detail:    map[string]any{"capability": capName},
		Severity:  entity.SeverityWarn,
		Timestamp: time.Now().UTC(),
	})
	return err
}

// Mutation registra una mutación confirmada.
func (g *Guard) Mutation(ctx context.Context, actor *permission.Actor, op, subject string, detail map[string]any) {
	g.Record(ctx, actor, EventMutation, op+":"+subject, entity.SeverityInfo, detail)
}

// Record registra un evento arbitrario.
func (g *Guard) Record(ctx context.Context, actor *permission.Actor, kind, subject, severity string, detail map[string]any) {
	actorID := ""
	if actor != nil {
		actorID = actor.ID
	}
	g.log.Record(ctx, entity.SecurityEvent{
		Kind:      kind,
		ActorID:   actorID,
		Subject:   subject,
		Detail:    detail,
		Severity:  severity,
		Timestamp: time.Now().UTC(),
	})
}
