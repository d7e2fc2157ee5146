// Package ports define los puertos de salida del núcleo hacia colaboradores externos.
// La aplicación solo conoce estos contratos, no las implementaciones concretas.
package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
)

// SecurityLog recibe cada denegación y cada mutación. Fire-and-forget: una falla del
// log nunca hace fallar la operación.
type SecurityLog interface {
	Record(ctx context.Context, ev entity.SecurityEvent)
}

// Rate tasa VES por USD con su marca de tiempo.
type Rate struct {
	Value  decimal.Decimal
	AsOf   time.Time
	Source string
}

// RateSource entrega la tasa vigente. El núcleo ignora cómo se obtiene.
type RateSource interface {
	Current(ctx context.Context) (Rate, error)
}

// Change aviso posterior al commit de una operación de libro.
type Change struct {
	Ledger  string
	Op      string
	Subject string
	At      time.Time
}

// ChangeNotifier recibe avisos post-commit (espejo remoto). No debe bloquear.
type ChangeNotifier interface {
	Notify(c Change)
}

// Metrics contadores operativos del núcleo.
type Metrics interface {
	ObserveOp(ledger, op string, err error)
	Denied(capability string)
	SagaCompensation(action, outcome string)
}

// NopNotifier descarta los avisos.
type NopNotifier struct{}

func (NopNotifier) Notify(Change) {}

// NopMetrics descarta las métricas.
type NopMetrics struct{}

func (NopMetrics) ObserveOp(string, string, error) {}
func (NopMetrics) Denied(string) {}
func (NopMetrics) SagaCompensation(string, string) {}

// NopSecurityLog descarta los eventos.
type NopSecurityLog struct{}

func (NopSecurityLog) Record(context.Context, entity.SecurityEvent) {}
