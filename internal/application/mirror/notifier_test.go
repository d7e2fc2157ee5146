package mirror_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/mirror"
	"github.com/jhoicas/pos-ledger/internal/application/ports"
)

type recorder struct {
	mu  sync.Mutex
	got []ports.Change
}

func (r *recorder) Publish(_ context.Context, c ports.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, c)
	return nil
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func TestNotifier_EnviaEnOrden(t *testing.T) {
	rec := &recorder{}
	n := mirror.NewNotifier(rec, mirror.Config{Buffer: 10, RateLimit: 1000, Burst: 10}, nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Run(ctx)

	for _, op := range []string{"checkout", "void"} {
		n.Notify(ports.Change{Ledger: "sales", Op: op, Subject: "v1"})
	}
	require.Eventually(t, func() bool { return rec.len() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "checkout", rec.got[0].Op)
	assert.Equal(t, "void", rec.got[1].Op)
}

func TestNotifier_NoBloqueaConColaLlena(t *testing.T) {
	n := mirror.NewNotifier(&recorder{}, mirror.Config{Buffer: 1}, nil, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			n.Notify(ports.Change{Ledger: "treasury", Op: "apply_sale"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify bloqueó")
	}
	assert.Equal(t, int64(4), n.Dropped())
}
