package sales

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

// TxRunner una sola transacción con inventario, caja y ventas (checkout y anulación).
type TxRunner interface {
	RunSale(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		productRepo repository.ProductRepository,
		sessionRepo repository.CashSessionRepository,
		entryRepo repository.TreasuryEntryRepository,
		saleRepo repository.SaleRepository,
	) error) error
}

// StockLeg pierna de inventario de la venta.
type StockLeg interface {
	SellInTx(ctx context.Context, movRepo repository.MovementRepository, productRepo repository.ProductRepository,
		actorID string, lines []inventory.SaleLine, ref string) ([]entity.SaleItem, error)
	VoidInTx(ctx context.Context, movRepo repository.MovementRepository, productRepo repository.ProductRepository,
		actorID string, items []entity.SaleItem, ref string) error
}

// CashLeg pierna de caja de la venta.
type CashLeg interface {
	ApplySaleInTx(ctx context.Context, sessionRepo repository.CashSessionRepository, entryRepo repository.TreasuryEntryRepository,
		actorID string, sale *entity.Sale) (*entity.CashSession, error)
	VoidSaleInTx(ctx context.Context, sessionRepo repository.CashSessionRepository, entryRepo repository.TreasuryEntryRepository,
		actorID string, sale *entity.Sale) (*entity.CashSession, error)
}
