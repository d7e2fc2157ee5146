package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/application/payroll"
	"github.com/jhoicas/pos-ledger/internal/domain"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "cash_sessions_one_open"}
	assert.True(t, isUniqueViolation(dup))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", dup)))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("conexión rechazada")))
	assert.Equal(t, "cash_sessions_one_open", constraintName(fmt.Errorf("insert: %w", dup)))
	assert.Empty(t, constraintName(errors.New("x")))
}

func TestTxFailure_SoloEnvuelveFallosDelAlmacenamiento(t *testing.T) {
	stock := fmt.Errorf("vender: %w", domain.ErrInsufficientStock)
	assert.Same(t, stock, txFailure("transaction", stock))

	verr := domain.NewValidationError("amount", "debe ser positivo")
	assert.Same(t, verr, txFailure("transaction", verr))

	capErr := &payroll.CapacityError{EmployeeID: "e1"}
	assert.ErrorIs(t, txFailure("transaction", capErr), domain.ErrCreditExceeded)
	var notTx *domain.TransactionError
	assert.False(t, errors.As(txFailure("transaction", capErr), &notTx))

	serialization := &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
	err := txFailure("transaction", fmt.Errorf("insert movement: %w", serialization))
	var txErr *domain.TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, "transaction", txErr.Op)
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr, "la causa del driver sigue accesible")
	assert.Equal(t, "40001", pgErr.Code)

	assert.Same(t, err, txFailure("transaction", err), "no se envuelve dos veces")
}
