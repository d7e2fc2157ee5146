package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-ledger/pkg/config"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

// Requiere POS_LEDGER_TEST_DATABASE_URL apuntando a una base desechable.
func newRunner(t *testing.T) *postgres.TxRunner {
	t.Helper()
	dsn := os.Getenv("POS_LEDGER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("POS_LEDGER_TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE treasury_entries, expenses, cuts, sales, cash_sessions, movements, products RESTART IDENTITY`)
	require.NoError(t, err)
	return postgres.NewTxRunner(pool)
}

func TestPostgres_UnaSolaSesionAbierta(t *testing.T) {
	runner := newRunner(t)
	ctx := context.Background()
	now := time.Now().UTC()
	open := func() *entity.CashSession {
		q := money.Quadrants{USDCash: decimal.NewFromInt(100)}
		return &entity.CashSession{ID: uuid.NewString(), Status: entity.SessionOpen, Opening: q, Balances: q,
			OpenedBy: "u1", OpenedAt: now, UpdatedAt: now}
	}
	treasuryTx := func(fn func(repository.CashSessionRepository) error) error {
		return runner.RunTreasury(ctx, func(s repository.CashSessionRepository, _ repository.TreasuryEntryRepository,
			_ repository.ExpenseRepository, _ repository.CutRepository, _ repository.MovementRepository) error {
			return fn(s)
		})
	}

	first := open()
	require.NoError(t, treasuryTx(func(s repository.CashSessionRepository) error { return s.Create(ctx, first) }))
	err := treasuryTx(func(s repository.CashSessionRepository) error { return s.Create(ctx, open()) })
	assert.ErrorIs(t, err, domain.ErrSessionOpen)

	require.NoError(t, treasuryTx(func(s repository.CashSessionRepository) error {
		got, err := s.GetOpenForUpdate(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, first.ID, got.ID)
		assert.True(t, got.Balances.USDCash.Equal(decimal.NewFromInt(100)))
		return nil
	}))
}

func TestPostgres_KardexRollback(t *testing.T) {
	runner := newRunner(t)
	ctx := context.Background()
	now := time.Now().UTC()
	p := &entity.Product{ID: uuid.NewString(), Name: "Harina", Category: entity.DefaultCategory,
		Price: decimal.NewFromFloat(2.5), Stock: decimal.NewFromInt(10), CreatedAt: now, UpdatedAt: now}

	err := runner.Run(ctx, func(mov repository.MovementRepository, prod repository.ProductRepository, _ repository.CategoryRepository) error {
		require.NoError(t, prod.Create(ctx, p))
		m := &entity.Movement{ProductID: p.ID, ProductName: p.Name, Kind: entity.MovementInitial,
			Quantity: p.Stock, ResultingStock: p.Stock}
		require.NoError(t, mov.Append(ctx, m))
		assert.Positive(t, m.ID)
		return domain.ErrConflict
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, runner.Run(ctx, func(mov repository.MovementRepository, prod repository.ProductRepository, _ repository.CategoryRepository) error {
		got, err := prod.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
		list, err := mov.ListByProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
		return nil
	}))
}
