package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/infrastructure/metrics"
)

func TestPrometheus_ExponeContadores(t *testing.T) {
	m := metrics.New("pos")
	m.ObserveOp("treasury", "apply_expense", nil)
	m.ObserveOp("treasury", "apply_expense", errors.New("sin fondos"))
	m.Denied("CASH_MANAGE")
	m.SagaCompensation("advance_pay", "compensated")
	m.RateFetched("manual", true)
	m.MirrorDropped()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	out := string(body)

	assert.Contains(t, out, `pos_ledger_operations_total{ledger="treasury",op="apply_expense",status="success"} 1`)
	assert.Contains(t, out, `pos_ledger_operations_total{ledger="treasury",op="apply_expense",status="error"} 1`)
	assert.Contains(t, out, `pos_access_denied_total{capability="CASH_MANAGE"} 1`)
	assert.Contains(t, out, `pos_saga_compensations_total{action="advance_pay",outcome="compensated"} 1`)
	assert.Contains(t, out, `pos_mirror_dropped_total 1`)
}
