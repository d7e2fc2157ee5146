package treasury_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/treasury"
	"github.com/jhoicas/pos-ledger/pkg/money"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mixedSale() *entity.Sale {
	return &entity.Sale{
		TotalUSD: dec("6"),
		Rate:     dec("100"),
		Payments: []entity.Tender{
			{Currency: money.USD, Channel: money.Cash, Amount: dec("4")},
			{Currency: money.VES, Channel: money.Digital, Amount: dec("300")},
		},
		Change: []entity.Tender{
			{Currency: money.VES, Channel: money.Cash, Amount: dec("100")},
		},
	}
}

func TestValidateSale_PagoMixtoConVuelto(t *testing.T) {
	require.NoError(t, treasury.ValidateSale(mixedSale()))

	s := mixedSale()
	s.TotalUSD = dec("10")
	err := treasury.ValidateSale(s)
	assert.True(t, errors.Is(err, domain.ErrUnbalancedPayment))

	s.CreditUSD = dec("4")
	assert.True(t, errors.Is(treasury.ValidateSale(s), domain.ErrInvalidInput), "crédito sin cliente")
	s.CustomerID = "cli-1"
	assert.NoError(t, treasury.ValidateSale(s))

	s = mixedSale()
	s.Rate = decimal.Zero
	assert.True(t, errors.Is(treasury.ValidateSale(s), domain.ErrInvalidInput))
}

func TestApplyYVoid_SimetriaExacta(t *testing.T) {
	sess := &entity.CashSession{
		ID:       "s1",
		Status:   entity.SessionOpen,
		Opening:  money.Quadrants{USDCash: dec("100"), VESCash: dec("500")},
		Balances: money.Quadrants{USDCash: dec("100"), VESCash: dec("500")},
	}
	before := sess.Balances
	sale := mixedSale()

	require.NoError(t, treasury.Apply(sess, treasury.SaleEffects(sale), false))
	assert.True(t, sess.Balances.Equal(money.Quadrants{USDCash: dec("104"), VESDigital: dec("300"), VESCash: dec("400")}))
	require.NoError(t, treasury.VerifyClosure(sess))

	require.NoError(t, treasury.Apply(sess, treasury.VoidEffects(sale), false))
	assert.True(t, sess.Balances.Equal(before), "anular devuelve cada cuadrante a su valor previo")
	require.NoError(t, treasury.VerifyClosure(sess))
	assert.True(t, sess.Inflows.Get(money.Quadrant{Currency: money.VES, Channel: money.Cash}).Equal(dec("100")),
		"el vuelto reintegrado cuenta como entrada")
}

func TestApply_SinNegativos(t *testing.T) {
	sess := &entity.CashSession{ID: "s1", Status: entity.SessionOpen}
	sale := mixedSale()
	err := treasury.Apply(sess, treasury.SaleEffects(sale), false)
	require.Error(t, err, "no hay VES en efectivo para dar vuelto")
	assert.True(t, errors.Is(err, domain.ErrInsufficientFunds))
	assert.True(t, sess.Balances.Equal(money.Quadrants{}), "la sesión no se modifica si falla")

	require.NoError(t, treasury.Apply(sess, treasury.SaleEffects(sale), true))
	assert.True(t, sess.Balances.VESCash.Equal(dec("-100")))
	require.NoError(t, treasury.VerifyClosure(sess))
}

func TestVerifyClosure_DetectaDescuadre(t *testing.T) {
	sess := &entity.CashSession{
		ID:       "s1",
		Opening:  money.Quadrants{USDCash: dec("10")},
		Inflows:  money.Quadrants{USDCash: dec("5")},
		Balances: money.Quadrants{USDCash: dec("16")},
	}
	err := treasury.VerifyClosure(sess)
	var iv *domain.IntegrityViolation
	require.True(t, errors.As(err, &iv))
	assert.Equal(t, "15", iv.Expected)
}

func TestReplayEntries(t *testing.T) {
	usdCash := money.Quadrant{Currency: money.USD, Channel: money.Cash}
	entries := []*entity.TreasuryEntry{
		{Kind: entity.EntryOpening, Quadrant: usdCash, Amount: dec("100")},
		{Kind: entity.EntrySale, Quadrant: usdCash, Amount: dec("4")},
		{Kind: entity.EntryExpense, Quadrant: usdCash, Amount: dec("-20")},
		{Kind: entity.EntryExpenseRevert, Quadrant: usdCash, Amount: dec("20")},
	}
	got := treasury.ReplayEntries(entries)
	assert.True(t, got.USDCash.Equal(dec("104")))
}
