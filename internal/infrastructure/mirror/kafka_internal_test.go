package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

func TestPublish_ClavePorAgregado(t *testing.T) {
	w := &captureWriter{}
	p := newPublisher(w, "tienda-1")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, p.Publish(context.Background(), ports.Change{Ledger: "treasury", Op: "apply_expense", Subject: "g1", At: at}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "treasury/g1", string(w.msgs[0].Key))

	var env Envelope
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &env))
	assert.Equal(t, "tienda-1", env.Origin)
	assert.Equal(t, "apply_expense", env.Op)
	assert.True(t, env.At.Equal(at))
}

func TestPublish_Error(t *testing.T) {
	p := newPublisher(&captureWriter{err: errors.New("broker caído")}, "tienda-1")
	err := p.Publish(context.Background(), ports.Change{Ledger: "sales", Op: "checkout"})
	assert.ErrorContains(t, err, "broker caído")
}
