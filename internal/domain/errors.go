package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrUserNotFound      = errors.New("usuario no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInsufficientFunds = errors.New("saldo insuficiente en caja")
	ErrSessionOpen       = errors.New("ya existe una sesión de caja abierta")
	ErrSessionClosed     = errors.New("no hay sesión de caja abierta")
	ErrNotPending        = errors.New("el registro ya no está pendiente")
	ErrAlreadyReverted   = errors.New("el registro ya fue revertido")
	ErrCreditExceeded    = errors.New("capacidad de crédito excedida")
	ErrUnbalancedPayment = errors.New("los pagos no cuadran con el total")
	ErrInvalidUnit       = errors.New("unidad no disponible para el producto")
	ErrIntegrity         = errors.New("violación de integridad del libro")
	ErrSagaFailed        = errors.New("operación compuesta incompleta")
	ErrNoRate            = errors.New("no hay tasa vigente")
)

// AuthorizationError denegación previa a cualquier escritura. Siempre recuperable.
type AuthorizationError struct {
	ActorID    string
	Capability string
}

func (e *AuthorizationError) Error() string {
	if e.ActorID == "" {
		return fmt.Sprintf("acceso denegado: %s requiere sesión", e.Capability)
	}
	return fmt.Sprintf("acceso denegado: %s no tiene %s", e.ActorID, e.Capability)
}

func (e *AuthorizationError) Unwrap() error { return ErrForbidden }

// ValidationError entrada rechazada antes de abrir la transacción.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

// NewValidationError construye un ValidationError que envuelve ErrInvalidInput.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Err: ErrInvalidInput}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalidInput
	}
	return e.Err
}

// TransactionError fallo del almacenamiento; nada parcial quedó confirmado y se puede reintentar.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransactionError) Unwrap() error { return e.Err }

var businessErrors = []error{
	ErrNotFound, ErrUserNotFound, ErrInvalidInput, ErrDuplicate, ErrUnauthorized, ErrForbidden,
	ErrConflict, ErrInsufficientStock, ErrInsufficientFunds, ErrSessionOpen, ErrSessionClosed,
	ErrNotPending, ErrAlreadyReverted, ErrCreditExceeded, ErrUnbalancedPayment, ErrInvalidUnit,
	ErrIntegrity, ErrSagaFailed, ErrNoRate,
}

// IsBusiness indica si err es un rechazo del dominio (centinela o error tipado que envuelve
// uno) y no un fallo del almacenamiento.
func IsBusiness(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// SagaError una pierna de una operación compuesta quedó confirmada sin su pareja.
// Conserva la referencia cruzada para conciliación manual.
type SagaError struct {
	Action          string
	Step            string
	Err             error
	CompensationErr error
	CrossRef        map[string]string
}

func (e *SagaError) Error() string {
	msg := fmt.Sprintf("%s falló en %s: %v", e.Action, e.Step, e.Err)
	if e.CompensationErr != nil {
		msg += fmt.Sprintf("; compensación fallida: %v", e.CompensationErr)
	}
	return msg
}

// Compensated indica si la compensación dejó los libros consistentes.
func (e *SagaError) Compensated() bool { return e.CompensationErr == nil }

func (e *SagaError) Unwrap() []error {
	errs := []error{ErrSagaFailed}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// IntegrityViolation la reproducción del libro no coincide con el saldo guardado.
// Nunca se corrige automáticamente; se reporta como partida de conciliación.
type IntegrityViolation struct {
	Subject  string
	Expected string
	Actual   string
}

func (e *IntegrityViolation) Error() string {
	return fmt.Sprintf("integridad %s: esperado %s, registrado %s", e.Subject, e.Expected, e.Actual)
}

func (e *IntegrityViolation) Unwrap() error { return ErrIntegrity }
