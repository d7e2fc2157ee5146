package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/pos-ledger/internal/domain"
)

func TestSagaError_EnvuelveCausaYSentinela(t *testing.T) {
	err := fmt.Errorf("adelanto: %w", &domain.SagaError{
		Action: "advance_pay",
		Step:   "record_debt",
		Err:    domain.ErrCreditExceeded,
	})

	assert.ErrorIs(t, err, domain.ErrSagaFailed)
	assert.ErrorIs(t, err, domain.ErrCreditExceeded)

	var serr *domain.SagaError
	assert.True(t, errors.As(err, &serr))
	assert.True(t, serr.Compensated())
	assert.NotContains(t, err.Error(), "compensación fallida")
}

func TestSagaError_CompensacionFallida(t *testing.T) {
	serr := &domain.SagaError{
		Action:          "supply_purchase",
		Step:            "receive_stock",
		Err:             domain.ErrInvalidUnit,
		CompensationErr: domain.ErrSessionClosed,
	}
	assert.False(t, serr.Compensated())
	assert.Contains(t, serr.Error(), "compensación fallida")
	assert.NotErrorIs(t, serr, domain.ErrSessionClosed, "el error de compensación no es la causa")
}

func TestValidationError(t *testing.T) {
	err := domain.NewValidationError("amount", "debe ser positivo")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, "amount: debe ser positivo", err.Error())

	bare := &domain.ValidationError{Reason: "vacío"}
	assert.ErrorIs(t, bare, domain.ErrInvalidInput)
	assert.Equal(t, "vacío", bare.Error())
}

func TestAuthorizationError(t *testing.T) {
	assert.ErrorIs(t, &domain.AuthorizationError{ActorID: "u1", Capability: "CASH_CLOSE"}, domain.ErrForbidden)
	assert.Contains(t, (&domain.AuthorizationError{Capability: "POS_ACCESS"}).Error(), "requiere sesión")
}

func TestIntegrityViolation(t *testing.T) {
	err := &domain.IntegrityViolation{Subject: "p1", Expected: "8", Actual: "9"}
	assert.ErrorIs(t, err, domain.ErrIntegrity)
	assert.Contains(t, err.Error(), "esperado 8")
}

func TestTransactionError_NoEsRechazoDeNegocio(t *testing.T) {
	cause := errors.New("conexión reiniciada")
	err := fmt.Errorf("vender: %w", &domain.TransactionError{Op: "commit transaction", Err: cause})

	var txErr *domain.TransactionError
	assert.True(t, errors.As(err, &txErr))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "commit transaction: conexión reiniciada", txErr.Error())
	assert.False(t, domain.IsBusiness(err))
	assert.False(t, domain.IsBusiness(cause))
}

func TestIsBusiness(t *testing.T) {
	assert.True(t, domain.IsBusiness(fmt.Errorf("x: %w", domain.ErrInsufficientFunds)))
	assert.True(t, domain.IsBusiness(domain.NewValidationError("f", "r")))
	assert.True(t, domain.IsBusiness(&domain.AuthorizationError{Capability: "CASH_CLOSE"}))
	assert.True(t, domain.IsBusiness(&domain.IntegrityViolation{Subject: "s"}))
	assert.True(t, domain.IsBusiness(&domain.SagaError{Action: "a", Step: "b", Err: domain.ErrNoRate}))
	assert.False(t, domain.IsBusiness(nil))
}
