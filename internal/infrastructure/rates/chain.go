package rates

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
)

// Rounding redondeo aplicado a la tasa obtenida.
type Rounding string

const (
	RoundExact      Rounding = "exacto"
	RoundInteger    Rounding = "entero"     // hacia arriba al entero
	RoundMultiple5  Rounding = "multiplo5"  // hacia arriba al múltiplo de 5
	RoundMultiple10 Rounding = "multiplo10" // hacia arriba al múltiplo de 10
)

// Apply redondea v según el modo; desconocido = exacto.
func (r Rounding) Apply(v decimal.Decimal) decimal.Decimal {
	step := int64(0)
	switch r {
	case RoundInteger:
		step = 1
	case RoundMultiple5:
		step = 5
	case RoundMultiple10:
		step = 10
	}
	if step == 0 {
		return v
	}
	s := decimal.NewFromInt(step)
	return v.Div(s).Ceil().Mul(s)
}

// Observer recibe el resultado de cada consulta (métricas).
type Observer interface {
	RateFetched(source string, ok bool)
	BreakerState(source string, state int)
}

type nopObserver struct{}

func (nopObserver) RateFetched(string, bool)  {}
func (nopObserver) BreakerState(string, int) {}

// ChainConfig proveedores en orden de preferencia y política del breaker.
type ChainConfig struct {
	Providers   []Provider
	MaxFailures uint32        // fallas consecutivas que abren el breaker
	OpenTimeout time.Duration // tiempo abierto antes de probar de nuevo
	Rounding    Rounding
}

type member struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker
}

// Chain recorre los proveedores empezando por el último que respondió. El estado de
// rotación vive en la cadena, no en el paquete.
type Chain struct {
	mu        sync.Mutex
	members   []member
	preferred int
	rounding  Rounding
	observer  Observer
	logger    zerolog.Logger
}

// NewChain construye la cadena. observer puede ser nil.
func NewChain(cfg ChainConfig, observer Observer, logger zerolog.Logger) (*Chain, error) {
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("la cadena de tasa necesita al menos un proveedor")
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 5 * time.Minute
	}
	if observer == nil {
		observer = nopObserver{}
	}
	c := &Chain{
		rounding: cfg.Rounding,
		observer: observer,
		logger:   logger.With().Str("component", "rates").Logger(),
	}
	for _, p := range cfg.Providers {
		maxFailures := cfg.MaxFailures
		c.members = append(c.members, member{
			provider: p,
			breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:        p.Name(),
				MaxRequests: 1,
				Timeout:     cfg.OpenTimeout,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= maxFailures
				},
				OnStateChange: func(name string, from, to gobreaker.State) {
					c.logger.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).
						Msg("breaker de proveedor de tasa cambió de estado")
					observer.BreakerState(name, int(to))
				},
			}),
		})
	}
	return c, nil
}

// Current implementa ports.RateSource consultando la cadena.
func (c *Chain) Current(ctx context.Context) (ports.Rate, error) {
	c.mu.Lock()
	start := c.preferred
	c.mu.Unlock()

	var errs []error
	for i := range c.members {
		idx := (start + i) % len(c.members)
		m := c.members[idx]
		out, err := m.breaker.Execute(func() (interface{}, error) {
			return m.provider.Fetch(ctx)
		})
		if err != nil {
			c.observer.RateFetched(m.provider.Name(), false)
			c.logger.Debug().Err(err).Str("provider", m.provider.Name()).Msg("proveedor de tasa falló")
			errs = append(errs, fmt.Errorf("%s: %w", m.provider.Name(), err))
			continue
		}
		c.observer.RateFetched(m.provider.Name(), true)
		c.mu.Lock()
		c.preferred = idx
		c.mu.Unlock()
		return ports.Rate{
			Value:  c.rounding.Apply(out.(decimal.Decimal)),
			AsOf:   time.Now().UTC(),
			Source: m.provider.Name(),
		}, nil
	}
	return ports.Rate{}, fmt.Errorf("ningún proveedor de tasa respondió: %w", errors.Join(errs...))
}

// Preferred nombre del proveedor con el que empezará la próxima consulta.
func (c *Chain) Preferred() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.members[c.preferred].provider.Name()
}
