// Package mirror replica los avisos post-commit hacia un espejo remoto. Es de salida,
// eventualmente consistente, y nunca condiciona el resultado de una operación.
package mirror

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
)

var _ ports.ChangeNotifier = (*Notifier)(nil)

// Publisher envía un aviso al espejo.
type Publisher interface {
	Publish(ctx context.Context, c ports.Change) error
}

// Observer métricas del envío.
type Observer interface {
	MirrorPublished(ok bool)
	MirrorDropped()
}

type nopObserver struct{}

func (nopObserver) MirrorPublished(bool) {}
func (nopObserver) MirrorDropped()       {}

// Config límites del envío.
type Config struct {
	Buffer    int     // avisos en cola antes de descartar
	RateLimit float64 // envíos por segundo
	Burst     int
}

// Notifier cola acotada más un único consumidor con limitador de tasa.
type Notifier struct {
	queue    chan ports.Change
	pub      Publisher
	limiter  *rate.Limiter
	observer Observer
	dropped  atomic.Int64
	logger   zerolog.Logger
}

// NewNotifier construye el notificador. observer puede ser nil.
func NewNotifier(pub Publisher, cfg Config, observer Observer, logger zerolog.Logger) *Notifier {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Notifier{
		queue:    make(chan ports.Change, cfg.Buffer),
		pub:      pub,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		observer: observer,
		logger:   logger.With().Str("component", "mirror").Logger(),
	}
}

// Notify encola sin bloquear; con la cola llena el aviso se descarta.
func (n *Notifier) Notify(c ports.Change) {
	select {
	case n.queue <- c:
	default:
		n.dropped.Add(1)
		n.observer.MirrorDropped()
		n.logger.Warn().Str("ledger", c.Ledger).Str("op", c.Op).Msg("cola del espejo llena, aviso descartado")
	}
}

// Dropped avisos descartados desde el arranque.
func (n *Notifier) Dropped() int64 { return n.dropped.Load() }

// Run consume la cola hasta que ctx termine.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-n.queue:
			if err := n.limiter.Wait(ctx); err != nil {
				return
			}
			err := n.pub.Publish(ctx, c)
			n.observer.MirrorPublished(err == nil)
			if err != nil {
				n.logger.Warn().Err(err).Str("ledger", c.Ledger).Str("op", c.Op).Str("subject", c.Subject).
					Msg("no se pudo replicar el aviso")
			}
		}
	}
}
