package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/memory"
)

func TestRollbackRestauraLaFoto(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	boom := errors.New("boom")

	err := s.Run(ctx, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository, _ repository.CategoryRepository) error {
		if err := productRepo.Create(ctx, &entity.Product{ID: "p1", Name: "Arroz", Stock: decimal.NewFromInt(5)}); err != nil {
			return err
		}
		if err := movRepo.Append(ctx, &entity.Movement{ProductID: "p1", Kind: entity.MovementInitial, Quantity: decimal.NewFromInt(5)}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.Run(ctx, func(movRepo repository.MovementRepository, productRepo repository.ProductRepository, _ repository.CategoryRepository) error {
		p, err := productRepo.GetByID(ctx, "p1")
		require.NoError(t, err)
		assert.Nil(t, p)
		movs, err := movRepo.ListByProduct(ctx, "p1")
		require.NoError(t, err)
		assert.Empty(t, movs)
		return nil
	})
	require.NoError(t, err)
}

func TestRepositorioDevuelveCopias(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Run(ctx, func(_ repository.MovementRepository, productRepo repository.ProductRepository, _ repository.CategoryRepository) error {
		return productRepo.Create(ctx, &entity.Product{ID: "p1", Name: "Arroz", Stock: decimal.NewFromInt(5)})
	}))

	require.NoError(t, s.Run(ctx, func(_ repository.MovementRepository, productRepo repository.ProductRepository, _ repository.CategoryRepository) error {
		p, err := productRepo.GetByID(ctx, "p1")
		require.NoError(t, err)
		p.Stock = decimal.NewFromInt(99)
		again, err := productRepo.GetByID(ctx, "p1")
		require.NoError(t, err)
		assert.True(t, again.Stock.Equal(decimal.NewFromInt(5)))
		return nil
	}))
}

func TestSesionDeCajaUnica(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	err := s.RunTreasury(ctx, func(sessionRepo repository.CashSessionRepository, _ repository.TreasuryEntryRepository, _ repository.ExpenseRepository, _ repository.CutRepository, _ repository.MovementRepository) error {
		if err := sessionRepo.Create(ctx, &entity.CashSession{ID: "s1", Status: entity.SessionOpen}); err != nil {
			return err
		}
		return sessionRepo.Create(ctx, &entity.CashSession{ID: "s2", Status: entity.SessionOpen})
	})
	assert.ErrorIs(t, err, domain.ErrSessionOpen)
}

func TestContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := memory.NewStore().RunPayroll(ctx, func(repository.EmployeeAccountRepository, repository.DebtEntryRepository, repository.PeriodRepository) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	var txErr *domain.TransactionError
	assert.ErrorAs(t, err, &txErr, "cancelar es un fallo reintentable, no un rechazo")
	assert.False(t, called)
}
