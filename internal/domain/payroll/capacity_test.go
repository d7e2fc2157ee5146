package payroll_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/payroll"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestCheckCapacity(t *testing.T) {
	acc := &entity.EmployeeAccount{EmployeeID: "e1", BasePay: d(100), Debt: d(90)}

	c := payroll.CheckCapacity(acc, d(20))
	assert.False(t, c.Allowed)
	assert.True(t, c.Shortfall.Equal(d(10)))
	assert.True(t, c.Available.Equal(d(10)))

	c = payroll.CheckCapacity(acc, d(10))
	assert.True(t, c.Allowed, "llegar exactamente al sueldo base está permitido")
	assert.True(t, c.Shortfall.IsZero())

	c = payroll.CheckCapacity(nil, d(5))
	assert.False(t, c.Allowed)

	c = payroll.CheckCapacity(&entity.EmployeeAccount{EmployeeID: "e2"}, d(1))
	assert.False(t, c.Allowed, "sin sueldo base no hay crédito")

	over := &entity.EmployeeAccount{BasePay: d(50), Debt: d(70)}
	c = payroll.CheckCapacity(over, d(1))
	assert.True(t, c.Available.IsZero())
	assert.True(t, c.Shortfall.Equal(d(21)))
}

func TestLiveDebtYNeto(t *testing.T) {
	entries := []*entity.DebtEntry{
		{Kind: entity.DebtAdvance, Amount: d(40), Status: entity.DebtPending},
		{Kind: entity.DebtConsumption, Amount: d(5), Status: entity.DebtPending},
		{Kind: entity.DebtAdvance, Amount: d(50), Status: entity.DebtVoided},
		{Kind: entity.DebtAdvance, Amount: d(30), Status: entity.DebtSettled},
		{Kind: entity.DebtPayment, Amount: d(60), Status: entity.DebtCompleted},
	}
	assert.True(t, payroll.LiveDebt(entries).Equal(d(45)))
	assert.True(t, payroll.Net(d(100), d(45)).Equal(d(55)))
	assert.True(t, payroll.Net(d(100), d(120)).IsZero())
}
