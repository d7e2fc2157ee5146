package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

// CreateCategory crea una categoría; el nombre es único.
func (l *StockLedger) CreateCategory(ctx context.Context, actor *permission.Actor, name string) (*entity.Category, error) {
	const op = "create_category"
	if err := l.requireCategories(ctx, actor, op); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "el nombre es requerido")
	}
	c := &entity.Category{ID: uuid.New().String(), Name: name, CreatedAt: time.Now().UTC()}
	err := l.txRunner.Run(ctx, func(_ repository.MovementRepository, _ repository.ProductRepository, categoryRepo repository.CategoryRepository) error {
		existing, err := categoryRepo.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		return categoryRepo.Create(ctx, c)
	})
	if err := l.finish(ctx, actor, op, c.Name, nil, err); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory elimina la categoría y pasa sus productos a "General" en la misma transacción.
func (l *StockLedger) DeleteCategory(ctx context.Context, actor *permission.Actor, name string) (int64, error) {
	const op = "delete_category"
	if err := l.requireCategories(ctx, actor, op); err != nil {
		return 0, err
	}
	if name == entity.DefaultCategory {
		return 0, domain.NewValidationError("name", "la categoría General no se puede eliminar")
	}
	var moved int64
	err := l.txRunner.Run(ctx, func(_ repository.MovementRepository, productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) error {
		c, err := categoryRepo.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrNotFound
		}
		moved, err = productRepo.ReassignCategory(ctx, name, entity.DefaultCategory)
		if err != nil {
			return err
		}
		return categoryRepo.Delete(ctx, c.ID)
	})
	if err := l.finish(ctx, actor, op, name, map[string]any{"reassigned": moved}, err); err != nil {
		return 0, err
	}
	return moved, nil
}

// ListCategories lista las categorías.
func (l *StockLedger) ListCategories(ctx context.Context, actor *permission.Actor) ([]*entity.Category, error) {
	if err := l.guard.Require(ctx, actor, "list_categories", permission.InventoryView); err != nil {
		return nil, err
	}
	var out []*entity.Category
	err := l.txRunner.Run(ctx, func(_ repository.MovementRepository, _ repository.ProductRepository, categoryRepo repository.CategoryRepository) error {
		var err error
		out, err = categoryRepo.List(ctx)
		return err
	})
	return out, err
}

func (l *StockLedger) requireCategories(ctx context.Context, actor *permission.Actor, op string) error {
	if err := l.guard.Require(ctx, actor, op, permission.InventoryManage); err != nil {
		return err
	}
	return l.guard.Require(ctx, actor, op, permission.CategoriesManage)
}
