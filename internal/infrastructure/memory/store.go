// Package memory implementa los repositorios en memoria para desarrollo y pruebas.
// Cada Run* es serializable: un único mutex y, si fn falla, el estado vuelve a la
// foto tomada al entrar.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/pos-ledger/internal/application/audit"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/payroll"
	"github.com/jhoicas/pos-ledger/internal/application/sales"
	"github.com/jhoicas/pos-ledger/internal/application/treasury"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var (
	_ inventory.TxRunner = (*Store)(nil)
	_ treasury.TxRunner  = (*Store)(nil)
	_ payroll.TxRunner   = (*Store)(nil)
	_ sales.TxRunner     = (*Store)(nil)
	_ audit.TxRunner     = (*Store)(nil)
)

// data estado completo de los libros. Los mapas guardan valores: nada de lo que sale
// de un repositorio apunta al estado interno.
type data struct {
	products   map[string]entity.Product
	categories map[string]entity.Category
	movements  []entity.Movement

	sessions map[string]entity.CashSession
	entries  []entity.TreasuryEntry
	expenses map[string]entity.Expense
	cuts     []entity.Cut
	sales    map[string]entity.Sale

	accounts map[string]entity.EmployeeAccount
	debts    []entity.DebtEntry
	periods  []entity.Period

	templates map[string]entity.AuditTemplate
	audits    map[string]entity.AuditSession
}

func newData() *data {
	return &data{
		products:   make(map[string]entity.Product),
		categories: make(map[string]entity.Category),
		sessions:   make(map[string]entity.CashSession),
		expenses:   make(map[string]entity.Expense),
		sales:      make(map[string]entity.Sale),
		accounts:   make(map[string]entity.EmployeeAccount),
		templates:  make(map[string]entity.AuditTemplate),
		audits:     make(map[string]entity.AuditSession),
	}
}

// snapshot copia superficial: los valores guardados nunca se mutan en sitio
// (cada escritura reemplaza el valor completo), así que basta copiar contenedores.
func (d *data) snapshot() *data {
	return &data{
		products:   copyMap(d.products),
		categories: copyMap(d.categories),
		movements:  copySlice(d.movements),
		sessions:   copyMap(d.sessions),
		entries:    copySlice(d.entries),
		expenses:   copyMap(d.expenses),
		cuts:       copySlice(d.cuts),
		sales:      copyMap(d.sales),
		accounts:   copyMap(d.accounts),
		debts:      copySlice(d.debts),
		periods:    copySlice(d.periods),
		templates:  copyMap(d.templates),
		audits:     copyMap(d.audits),
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copySlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// Store almacén en memoria de todos los libros.
type Store struct {
	mu sync.Mutex
	d  *data
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{d: newData()}
}

// run ejecuta fn con el lock tomado y restaura la foto si fn falla.
func (s *Store) run(ctx context.Context, fn func(d *data) error) error {
	if err := ctx.Err(); err != nil {
		return &domain.TransactionError{Op: "begin transaction", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := s.d.snapshot()
	if err := fn(s.d); err != nil {
		s.d = saved
		return err
	}
	return nil
}

// Run transacción de inventario.
func (s *Store) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
) error) error {
	return s.run(ctx, func(d *data) error {
		return fn(&movementRepo{d}, &productRepo{d}, &categoryRepo{d})
	})
}

// RunTreasury transacción de caja.
func (s *Store) RunTreasury(ctx context.Context, fn func(
	sessionRepo repository.CashSessionRepository,
	entryRepo repository.TreasuryEntryRepository,
	expenseRepo repository.ExpenseRepository,
	cutRepo repository.CutRepository,
	movRepo repository.MovementRepository,
) error) error {
	return s.run(ctx, func(d *data) error {
		return fn(&sessionRepo{d}, &entryRepo{d}, &expenseRepo{d}, &cutRepo{d}, &movementRepo{d})
	})
}

// RunPayroll transacción de nómina.
func (s *Store) RunPayroll(ctx context.Context, fn func(
	accountRepo repository.EmployeeAccountRepository,
	debtRepo repository.DebtEntryRepository,
	periodRepo repository.PeriodRepository,
) error) error {
	return s.run(ctx, func(d *data) error {
		return fn(&accountRepo{d}, &debtRepo{d}, &periodRepo{d})
	})
}

// RunSale transacción de venta sobre inventario y caja.
func (s *Store) RunSale(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	sessionRepo repository.CashSessionRepository,
	entryRepo repository.TreasuryEntryRepository,
	saleRepo repository.SaleRepository,
) error) error {
	return s.run(ctx, func(d *data) error {
		return fn(&movementRepo{d}, &productRepo{d}, &sessionRepo{d}, &entryRepo{d}, &saleRepo{d})
	})
}

// RunAudit transacción de auditoría física.
func (s *Store) RunAudit(ctx context.Context, fn func(
	templateRepo repository.AuditTemplateRepository,
	sessionRepo repository.AuditSessionRepository,
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	return s.run(ctx, func(d *data) error {
		return fn(&templateRepo{d}, &auditSessionRepo{d}, &movementRepo{d}, &productRepo{d})
	})
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
